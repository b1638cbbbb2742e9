package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ksenchy/filevault/internal/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		TokenSecret: "test-secret-0123456789abcdef0123",
		TokenTTL:    time.Hour,
		BcryptCost:  4, // minimum cost keeps the tests fast
	}
}

func TestRegisterProvisionsRootFolderAndIssuesToken(t *testing.T) {
	store := newFakeUserStore()
	roots := &fakeRootProvisioner{}
	service := NewService(store, roots, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "Alice@Example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if result.User.Email != "alice@example.com" {
		t.Fatalf("expected lowercased email, got %q", result.User.Email)
	}
	if result.User.PasswordHash != "" {
		t.Fatalf("expected password hash stripped from response")
	}
	if result.Token.AccessToken == "" {
		t.Fatalf("expected access token issued")
	}
	if len(roots.provisioned) != 1 || roots.provisioned[0] != result.User.ID {
		t.Fatalf("expected root folder provisioned for new user")
	}

	claims, err := service.ValidateAccessToken(result.Token.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccessToken returned error: %v", err)
	}
	if claims.UserID != result.User.ID {
		t.Fatalf("expected claims for registered user")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	service := NewService(store, &fakeRootProvisioner{}, testAuthConfig())

	input := RegisterInput{Email: "bob@example.com", Password: "long enough pw"}
	if _, err := service.Register(context.Background(), input); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := service.Register(context.Background(), input); !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	service := NewService(newFakeUserStore(), &fakeRootProvisioner{}, testAuthConfig())

	_, err := service.Register(context.Background(), RegisterInput{Email: "x@example.com", Password: "short"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginRoundTrip(t *testing.T) {
	store := newFakeUserStore()
	service := NewService(store, &fakeRootProvisioner{}, testAuthConfig())

	if _, err := service.Register(context.Background(), RegisterInput{Email: "carol@example.com", Password: "valid password"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := service.Login(context.Background(), LoginInput{Email: "carol@example.com", Password: "valid password"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.Token.AccessToken == "" {
		t.Fatalf("expected token on login")
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newFakeUserStore()
	service := NewService(store, &fakeRootProvisioner{}, testAuthConfig())

	if _, err := service.Register(context.Background(), RegisterInput{Email: "dave@example.com", Password: "valid password"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, err := service.Login(context.Background(), LoginInput{Email: "dave@example.com", Password: "wrong password!"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	service := NewService(newFakeUserStore(), &fakeRootProvisioner{}, testAuthConfig())

	_, err := service.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "valid password"})
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateAccessTokenRejectsExpired(t *testing.T) {
	store := newFakeUserStore()
	service := NewService(store, &fakeRootProvisioner{}, testAuthConfig())

	past := time.Now().Add(-2 * time.Hour)
	service.nowFunc = func() time.Time { return past }

	result, err := service.Register(context.Background(), RegisterInput{Email: "eve@example.com", Password: "valid password"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	service.nowFunc = time.Now
	if _, err := service.ValidateAccessToken(result.Token.AccessToken); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestValidateAccessTokenRejectsGarbage(t *testing.T) {
	service := NewService(newFakeUserStore(), &fakeRootProvisioner{}, testAuthConfig())

	for _, token := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := service.ValidateAccessToken(token); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("ValidateAccessToken(%q): expected ErrUnauthorized, got %v", token, err)
		}
	}
}

// --- fakes ---

type fakeUserStore struct {
	byEmail map[string]User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]User)}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (User, error) {
	if _, exists := f.byEmail[email]; exists {
		return User{}, ErrEmailAlreadyExists
	}
	now := time.Now()
	user := User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	f.byEmail[email] = user
	return user, nil
}

func (f *fakeUserStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

type fakeRootProvisioner struct {
	provisioned []uuid.UUID
}

func (f *fakeRootProvisioner) ProvisionRoot(ctx context.Context, ownerID uuid.UUID) error {
	f.provisioned = append(f.provisioned, ownerID)
	return nil
}
