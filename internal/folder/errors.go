package folder

import "errors"

var (
	// ErrFolderNotFound covers missing, foreign-owner, and soft-deleted folders
	// alike so callers cannot distinguish "not yours" from "does not exist".
	ErrFolderNotFound = errors.New("folder not found")
	// ErrParentNotFound indicates the requested parent folder is missing,
	// foreign, or deleted.
	ErrParentNotFound = errors.New("parent folder not found")
	// ErrInvalidName is returned for names outside 1-255 chars or containing
	// forbidden characters.
	ErrInvalidName = errors.New("invalid folder name")
	// ErrInvalidColor is returned for colors that are not #RRGGBB.
	ErrInvalidColor = errors.New("invalid folder color")
)
