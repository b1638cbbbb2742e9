package folder

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// DefaultColor is assigned to folders created without an explicit color.
const DefaultColor = "#6366F1"

// RootFolderName is the name of the folder auto-created at registration time.
const RootFolderName = "My Files"

// Folder is a node in a user's folder tree. A nil ParentFolderID marks a root.
type Folder struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"ownerId"`
	ParentFolderID *uuid.UUID `json:"parentFolderId,omitempty"`
	Name           string     `json:"name"`
	Description    *string    `json:"description,omitempty"`
	Color          string     `json:"color"`
	IsPublic       bool       `json:"isPublic"`
	IsFavorite     bool       `json:"isFavorite"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	IsDeleted      bool       `json:"-"`
	DeletedAt      *time.Time `json:"-"`

	// Assembled on read, never stored.
	Folders []Folder    `json:"folders,omitempty"`
	Files   []FileEntry `json:"files,omitempty"`

	// Subtree totals, computed as a fold over the tree on get.
	TotalFileCount int64 `json:"totalFileCount"`
	TotalSizeBytes int64 `json:"totalSizeBytes"`
}

// FileEntry is the folder tree's view of a contained file. The file package
// owns the full record; this is just what listings need.
type FileEntry struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

// DeletedFile reports a file soft-deleted as part of a folder cascade, with
// the storage key the caller should clean up.
type DeletedFile struct {
	ID         uuid.UUID
	StorageKey string
}

// FileIndex is the contract the file package fulfills for folder listings and
// the recursive delete cascade.
type FileIndex interface {
	ListEntries(ctx context.Context, ownerID, folderID uuid.UUID) ([]FileEntry, error)
	SoftDeleteByFolder(ctx context.Context, ownerID, folderID uuid.UUID) ([]DeletedFile, error)
}

// ObjectRemover deletes file bytes from the object store. Deletes are
// idempotent; a missing key is not an error.
type ObjectRemover interface {
	DeleteObject(ctx context.Context, key string) error
}

var (
	forbiddenNameChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	colorPattern       = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// ValidateName enforces the 1-255 length bound and the forbidden character set.
func ValidateName(name string) error {
	if len(name) < 1 || len(name) > 255 {
		return ErrInvalidName
	}
	if forbiddenNameChars.MatchString(name) {
		return ErrInvalidName
	}
	return nil
}

// ValidateColor accepts #RRGGBB only.
func ValidateColor(color string) error {
	if !colorPattern.MatchString(color) {
		return ErrInvalidColor
	}
	return nil
}
