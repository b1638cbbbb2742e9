package file

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var forbiddenFileNameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// ValidateFileName enforces the 1-255 length bound and the forbidden
// character set shared with folder names.
func ValidateFileName(name string) error {
	if len(name) < 1 || len(name) > 255 {
		return ErrInvalidFileName
	}
	if forbiddenFileNameChars.MatchString(name) {
		return ErrInvalidFileName
	}
	return nil
}

// Status tags the upload lifecycle of a record. A pending row exists between
// the pre-signed handshake's first and third steps; default listings and
// search return confirmed rows only.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
)

// FileRecord is the stored metadata for one uploaded object.
type FileRecord struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"ownerId"`
	FolderID       uuid.UUID  `json:"folderId"`
	Name           string     `json:"name"`
	StorageKey     string     `json:"storageKey"`
	ContentType    string     `json:"contentType"`
	SizeBytes      int64      `json:"sizeBytes"`
	Description    *string    `json:"description,omitempty"`
	Tags           *string    `json:"tags,omitempty"`
	IsPublic       bool       `json:"isPublic"`
	Status         Status     `json:"status"`
	DownloadCount  int64      `json:"downloadCount"`
	LastAccessedAt *time.Time `json:"lastAccessedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
	IsDeleted      bool       `json:"-"`
	DeletedAt      *time.Time `json:"-"`

	// Computed on read, never stored.
	HumanSize  string `json:"humanSize,omitempty"`
	Extension  string `json:"extension,omitempty"`
	IsImage    bool   `json:"isImage"`
	IsVideo    bool   `json:"isVideo"`
	IsDocument bool   `json:"isDocument"`
}

var documentExtensions = map[string]bool{
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true, ".txt": true, ".md": true, ".csv": true,
	".odt": true, ".rtf": true,
}

// Decorate fills the computed read-model fields from the stored ones.
func (f FileRecord) Decorate() FileRecord {
	f.HumanSize = humanReadableSize(f.SizeBytes)
	f.Extension = strings.ToLower(filepath.Ext(f.Name))
	f.IsImage = strings.HasPrefix(f.ContentType, "image/")
	f.IsVideo = strings.HasPrefix(f.ContentType, "video/")
	f.IsDocument = strings.HasPrefix(f.ContentType, "text/") ||
		f.ContentType == "application/pdf" ||
		documentExtensions[f.Extension]
	return f
}

func humanReadableSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// BuildStorageKey produces the opaque object-store key for a file. The file id
// in the key guarantees uniqueness even for identical filenames in one folder.
func BuildStorageKey(ownerID, folderID, fileID uuid.UUID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s-%s", ownerID, folderID, fileID, fileName)
}

// PresignedUpload is the first-step response of the pre-signed handshake.
type PresignedUpload struct {
	UploadURL string    `json:"uploadUrl"`
	FileID    uuid.UUID `json:"fileId"`
	S3Key     string    `json:"s3Key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DownloadLink is a time-limited download grant for one file.
type DownloadLink struct {
	DownloadURL string    `json:"downloadUrl"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	FileSize    int64     `json:"fileSize"`
	ExpiresAt   time.Time `json:"expiresAt"`
}
