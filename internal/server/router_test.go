package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksenchy/filevault/internal/auth"
	"github.com/ksenchy/filevault/internal/config"
	"github.com/ksenchy/filevault/internal/folder"
)

func TestRegisterCreateFolderFlow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestRouter(t)

	token := registerUser(t, router, "flow@example.com")

	// The registration hook provisions the account's root folder.
	rec := doJSON(t, router, http.MethodGet, "/v1/folders", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var roots []folder.Folder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roots))
	require.Len(t, roots, 1)
	assert.Equal(t, folder.RootFolderName, roots[0].Name)

	rec = doJSON(t, router, http.MethodPost, "/v1/folders", token, map[string]any{
		"name":           "Projects",
		"parentFolderId": roots[0].ID.String(),
		"color":          "#112233",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var created folder.Folder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Projects", created.Name)
	assert.Equal(t, "#112233", created.Color)

	rec = doJSON(t, router, http.MethodDelete, "/v1/folders/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/folders/"+created.ID.String(), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFoldersAreIsolatedBetweenUsers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestRouter(t)

	aliceToken := registerUser(t, router, "alice@example.com")
	bobToken := registerUser(t, router, "bob@example.com")

	rec := doJSON(t, router, http.MethodGet, "/v1/folders", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var aliceRoots []folder.Folder
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &aliceRoots))
	require.Len(t, aliceRoots, 1)

	// Bob probing Alice's folder id learns nothing beyond NotFound.
	rec = doJSON(t, router, http.MethodGet, "/v1/folders/"+aliceRoots[0].ID.String(), bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/folders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/folders", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLivenessEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- helpers & stubs ---

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	folderService := folder.NewService(newStubFolderRepo(), stubFileIndex{}, stubObjectRemover{}, nil)
	authService := auth.NewService(newStubUserStore(), folderService, config.AuthConfig{
		TokenSecret: "router-test-secret-0123456789ab",
		TokenTTL:    time.Hour,
		BcryptCost:  4,
	})

	cfg, err := config.Load()
	require.NoError(t, err)

	return NewRouter(Dependencies{
		Config:        cfg,
		AuthService:   authService,
		FolderService: folderService,
	})
}

func registerUser(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"email":    email,
		"password": "valid password",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result struct {
		Token struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Token.AccessToken)
	return result.Token.AccessToken
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type stubUserStore struct {
	byEmail map[string]auth.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{byEmail: make(map[string]auth.User)}
}

func (s *stubUserStore) CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (auth.User, error) {
	if _, exists := s.byEmail[email]; exists {
		return auth.User{}, auth.ErrEmailAlreadyExists
	}
	now := time.Now()
	user := auth.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, DisplayName: displayName, CreatedAt: now, UpdatedAt: now}
	s.byEmail[email] = user
	return user, nil
}

func (s *stubUserStore) FindUserByEmail(ctx context.Context, email string) (auth.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return auth.User{}, auth.ErrUserNotFound
	}
	return user, nil
}

type stubFolderRepo struct {
	folders map[uuid.UUID]folder.Folder
}

func newStubFolderRepo() *stubFolderRepo {
	return &stubFolderRepo{folders: make(map[uuid.UUID]folder.Folder)}
}

func (s *stubFolderRepo) Create(ctx context.Context, f folder.Folder) (folder.Folder, error) {
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now
	s.folders[f.ID] = f
	return f, nil
}

func (s *stubFolderRepo) Get(ctx context.Context, ownerID, folderID uuid.UUID) (folder.Folder, error) {
	f, ok := s.folders[folderID]
	if !ok || f.OwnerID != ownerID || f.IsDeleted {
		return folder.Folder{}, folder.ErrFolderNotFound
	}
	return f, nil
}

func (s *stubFolderRepo) ListChildren(ctx context.Context, ownerID uuid.UUID, parentID *uuid.UUID) ([]folder.Folder, error) {
	var out []folder.Folder
	for _, f := range s.folders {
		if f.OwnerID != ownerID || f.IsDeleted {
			continue
		}
		if parentID == nil {
			if f.ParentFolderID == nil {
				out = append(out, f)
			}
			continue
		}
		if f.ParentFolderID != nil && *f.ParentFolderID == *parentID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (s *stubFolderRepo) Update(ctx context.Context, ownerID, folderID uuid.UUID, name, description, color *string) error {
	f, ok := s.folders[folderID]
	if !ok || f.OwnerID != ownerID || f.IsDeleted {
		return folder.ErrFolderNotFound
	}
	if name != nil {
		f.Name = *name
	}
	if description != nil {
		f.Description = description
	}
	if color != nil {
		f.Color = *color
	}
	s.folders[folderID] = f
	return nil
}

func (s *stubFolderRepo) SoftDelete(ctx context.Context, ownerID, folderID uuid.UUID) (bool, error) {
	f, ok := s.folders[folderID]
	if !ok || f.OwnerID != ownerID || f.IsDeleted {
		return false, nil
	}
	now := time.Now()
	f.IsDeleted = true
	f.DeletedAt = &now
	s.folders[folderID] = f
	return true, nil
}

type stubFileIndex struct{}

func (stubFileIndex) ListEntries(ctx context.Context, ownerID, folderID uuid.UUID) ([]folder.FileEntry, error) {
	return nil, nil
}

func (stubFileIndex) SoftDeleteByFolder(ctx context.Context, ownerID, folderID uuid.UUID) ([]folder.DeletedFile, error) {
	return nil, nil
}

type stubObjectRemover struct{}

func (stubObjectRemover) DeleteObject(ctx context.Context, key string) error { return nil }
