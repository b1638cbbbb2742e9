package file

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFileNotFound covers missing, foreign-owner, and soft-deleted files
	// alike so callers cannot probe for existence.
	ErrFileNotFound = errors.New("file not found")
	// ErrFileTooLarge signals that a server-proxied upload exceeds the ceiling.
	ErrFileTooLarge = errors.New("file too large")
	// ErrInvalidFileName is returned for names outside 1-255 chars or
	// containing forbidden characters.
	ErrInvalidFileName = errors.New("invalid file name")
)

// TargetFolderError rejects an upload into a missing, foreign, or deleted
// folder. It carries the caller's live folder names so the 400 response can
// show what was actually available.
type TargetFolderError struct {
	AvailableFolders []string
}

func (e *TargetFolderError) Error() string {
	if len(e.AvailableFolders) == 0 {
		return "target folder not found; you have no folders"
	}
	return fmt.Sprintf("target folder not found; available folders: %s", strings.Join(e.AvailableFolders, ", "))
}
