package file

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ksenchy/filevault/internal/folder"
)

const defaultMaxDirectUploadBytes = 100 * 1024 * 1024 // 100MB

type metadataStore interface {
	Create(ctx context.Context, rec FileRecord) (FileRecord, error)
	CreatePlaceholder(ctx context.Context, rec FileRecord) (FileRecord, error)
	SetStorageKey(ctx context.Context, fileID uuid.UUID, key string) error
	Get(ctx context.Context, ownerID, fileID uuid.UUID) (FileRecord, error)
	ListByFolder(ctx context.Context, ownerID, folderID uuid.UUID) ([]FileRecord, error)
	Confirm(ctx context.Context, ownerID, fileID uuid.UUID, description, tags *string) (FileRecord, error)
	UpdateMetadata(ctx context.Context, ownerID, fileID uuid.UUID, description, tags *string, isPublic *bool) (FileRecord, error)
	SoftDelete(ctx context.Context, ownerID, fileID uuid.UUID) (FileRecord, error)
	TouchDownload(ctx context.Context, fileID uuid.UUID) error
	Search(ctx context.Context, ownerID uuid.UUID, params SearchParams) ([]FileRecord, int64, error)
}

type folderStore interface {
	Get(ctx context.Context, ownerID, folderID uuid.UUID) (folder.Folder, error)
	ListNames(ctx context.Context, ownerID uuid.UUID) ([]string, error)
}

type objectGateway interface {
	GenerateUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	GenerateDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	PutObjectDirect(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	DeleteObject(ctx context.Context, key string) error
}

// Service manages file lifecycle operations across both upload protocols.
type Service struct {
	repo       metadataStore
	folders    folderStore
	objects    objectGateway
	presignTTL time.Duration
	maxBytes   int64
	nowFunc    func() time.Time
	log        *zap.Logger
}

// NewService constructs a file service.
func NewService(repo metadataStore, folders folderStore, objects objectGateway, presignTTL time.Duration, maxBytes int64, log *zap.Logger) *Service {
	if presignTTL <= 0 {
		presignTTL = 15 * time.Minute
	}
	if maxBytes <= 0 {
		maxBytes = defaultMaxDirectUploadBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		folders:    folders,
		objects:    objects,
		presignTTL: presignTTL,
		maxBytes:   maxBytes,
		nowFunc:    time.Now,
		log:        log,
	}
}

// checkTargetFolder verifies the upload target exists, is owned by the caller,
// and is not deleted. The failure carries the caller's live folder names.
func (s *Service) checkTargetFolder(ctx context.Context, ownerID, folderID uuid.UUID) error {
	if _, err := s.folders.Get(ctx, ownerID, folderID); err != nil {
		if errors.Is(err, folder.ErrFolderNotFound) {
			names, listErr := s.folders.ListNames(ctx, ownerID)
			if listErr != nil {
				names = nil
			}
			return &TargetFolderError{AvailableFolders: names}
		}
		return err
	}
	return nil
}

// DirectUpload is the server-proxied protocol: the caller sends raw bytes and
// the target folder in one request. The metadata row is committed before the
// object write; if the object write then fails the row is orphaned, which is a
// documented inconsistency window, and the caller still receives the failure.
func (s *Service) DirectUpload(ctx context.Context, ownerID, folderID uuid.UUID, fileHeader *multipart.FileHeader) (FileRecord, error) {
	if fileHeader == nil {
		return FileRecord{}, errors.New("missing file payload")
	}

	name := sanitizeFilename(fileHeader.Filename)
	if err := ValidateFileName(name); err != nil {
		return FileRecord{}, err
	}

	if err := s.checkTargetFolder(ctx, ownerID, folderID); err != nil {
		return FileRecord{}, err
	}

	if fileHeader.Size > s.maxBytes {
		return FileRecord{}, ErrFileTooLarge
	}

	fileID := uuid.New()
	storageKey := BuildStorageKey(ownerID, folderID, fileID, name)

	stored, err := s.repo.Create(ctx, FileRecord{
		ID:          fileID,
		OwnerID:     ownerID,
		FolderID:    folderID,
		Name:        name,
		StorageKey:  storageKey,
		ContentType: detectContentType(fileHeader),
		SizeBytes:   fileHeader.Size,
		Status:      StatusConfirmed,
	})
	if err != nil {
		return FileRecord{}, err
	}

	payload, err := fileHeader.Open()
	if err != nil {
		return FileRecord{}, err
	}
	defer payload.Close()

	if err := s.objects.PutObjectDirect(ctx, storageKey, payload, fileHeader.Size, stored.ContentType); err != nil {
		s.log.Warn("object write failed after metadata commit",
			zap.String("storage_key", storageKey),
			zap.Error(err))
		return FileRecord{}, err
	}

	return stored.Decorate(), nil
}

// PresignInput begins the pre-signed protocol for one file.
type PresignInput struct {
	FileName    string
	FolderID    uuid.UUID
	ContentType string
}

// BeginPresignedUpload is step one of the handshake: a placeholder row is
// created to obtain the id, the storage key derived from that id is written
// back, and a time-limited PUT URL is issued. The bytes never transit this
// server.
func (s *Service) BeginPresignedUpload(ctx context.Context, ownerID uuid.UUID, input PresignInput) (PresignedUpload, error) {
	name := sanitizeFilename(input.FileName)
	if err := ValidateFileName(name); err != nil {
		return PresignedUpload{}, err
	}

	if err := s.checkTargetFolder(ctx, ownerID, input.FolderID); err != nil {
		return PresignedUpload{}, err
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	placeholder, err := s.repo.CreatePlaceholder(ctx, FileRecord{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		FolderID:    input.FolderID,
		Name:        name,
		ContentType: contentType,
	})
	if err != nil {
		return PresignedUpload{}, err
	}

	storageKey := BuildStorageKey(ownerID, input.FolderID, placeholder.ID, name)
	if err := s.repo.SetStorageKey(ctx, placeholder.ID, storageKey); err != nil {
		return PresignedUpload{}, err
	}

	uploadURL, err := s.objects.GenerateUploadURL(ctx, storageKey, contentType, s.presignTTL)
	if err != nil {
		return PresignedUpload{}, err
	}

	return PresignedUpload{
		UploadURL: uploadURL,
		FileID:    placeholder.ID,
		S3Key:     storageKey,
		ExpiresAt: s.nowFunc().Add(s.presignTTL),
	}, nil
}

// ConfirmUpload is step three of the handshake. The stored size is not
// reconciled against the object store here; that gap is the caller's to close.
func (s *Service) ConfirmUpload(ctx context.Context, ownerID, fileID uuid.UUID, description, tags *string) (FileRecord, error) {
	rec, err := s.repo.Confirm(ctx, ownerID, fileID, description, tags)
	if err != nil {
		return FileRecord{}, err
	}
	return rec.Decorate(), nil
}

// ListFolderFiles returns the confirmed live files in a folder.
func (s *Service) ListFolderFiles(ctx context.Context, ownerID, folderID uuid.UUID) ([]FileRecord, error) {
	if _, err := s.folders.Get(ctx, ownerID, folderID); err != nil {
		return nil, err
	}

	files, err := s.repo.ListByFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	for i := range files {
		files[i] = files[i].Decorate()
	}
	return files, nil
}

// GetDownloadURL issues a time-limited download link and touches the access
// stats. The touch is fire-and-forget: its failure never fails the response.
func (s *Service) GetDownloadURL(ctx context.Context, ownerID, fileID uuid.UUID) (DownloadLink, error) {
	rec, err := s.repo.Get(ctx, ownerID, fileID)
	if err != nil {
		return DownloadLink{}, err
	}

	downloadURL, err := s.objects.GenerateDownloadURL(ctx, rec.StorageKey, s.presignTTL)
	if err != nil {
		return DownloadLink{}, err
	}

	if err := s.repo.TouchDownload(ctx, rec.ID); err != nil {
		s.log.Warn("touch download stats", zap.String("file_id", rec.ID.String()), zap.Error(err))
	}

	return DownloadLink{
		DownloadURL: downloadURL,
		FileName:    rec.Name,
		ContentType: rec.ContentType,
		FileSize:    rec.SizeBytes,
		ExpiresAt:   s.nowFunc().Add(s.presignTTL),
	}, nil
}

// Delete removes the object bytes first (idempotent at the store), then
// soft-deletes the metadata row. Of two concurrent deletes, exactly one wins
// the conditional soft delete; the other reports not found.
func (s *Service) Delete(ctx context.Context, ownerID, fileID uuid.UUID) error {
	rec, err := s.repo.Get(ctx, ownerID, fileID)
	if err != nil {
		return err
	}

	if rec.StorageKey != "" {
		if err := s.objects.DeleteObject(ctx, rec.StorageKey); err != nil {
			return err
		}
	}

	if _, err := s.repo.SoftDelete(ctx, ownerID, fileID); err != nil {
		if !errors.Is(err, ErrFileNotFound) {
			// Bytes are gone but the row still looks live: documented
			// inconsistency window, surfaced for an operator sweep.
			s.log.Warn("soft delete failed after object removal",
				zap.String("storage_key", rec.StorageKey),
				zap.Error(err))
		}
		return err
	}
	return nil
}

// UpdateInput carries the caller-editable metadata; nil fields are unchanged.
type UpdateInput struct {
	Description *string
	Tags        *string
	IsPublic    *bool
}

// UpdateMetadata edits description, tags, and visibility only. Name, content
// type, size, storage key, and folder are immutable; there is no move
// operation.
func (s *Service) UpdateMetadata(ctx context.Context, ownerID, fileID uuid.UUID, input UpdateInput) (FileRecord, error) {
	rec, err := s.repo.UpdateMetadata(ctx, ownerID, fileID, input.Description, input.Tags, input.IsPublic)
	if err != nil {
		return FileRecord{}, err
	}
	return rec.Decorate(), nil
}

// Search filters, sorts, and pages the caller's confirmed live files.
func (s *Service) Search(ctx context.Context, ownerID uuid.UUID, params SearchParams) (PaginatedResult, error) {
	if err := params.Validate(); err != nil {
		return PaginatedResult{}, err
	}

	items, totalCount, err := s.repo.Search(ctx, ownerID, params)
	if err != nil {
		return PaginatedResult{}, err
	}
	for i := range items {
		items[i] = items[i].Decorate()
	}

	return NewPaginatedResult(items, totalCount, params.PageNumber, params.PageSize), nil
}

func detectContentType(fileHeader *multipart.FileHeader) string {
	if fileHeader == nil {
		return "application/octet-stream"
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" {
		return contentType
	}
	return "application/octet-stream"
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	// Strip any path the client's browser may have attached.
	if idx := strings.LastIndexAny(name, `/\`); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}
