package objectstore

import (
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
)

// ErrorCategory buckets storage backend failures for callers. The gateway does
// not retry; retry policy belongs to the caller.
type ErrorCategory string

const (
	CategoryNotFound           ErrorCategory = "not-found"
	CategoryAccessDenied       ErrorCategory = "access-denied"
	CategoryInvalidCredentials ErrorCategory = "invalid-credentials"
	CategoryOther              ErrorCategory = "other"
)

// Error wraps a transport/auth/bucket failure with its category.
type Error struct {
	Op       string
	Category ErrorCategory
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("objectstore %s: %s: %v", e.Op, e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Categorize maps a raw client error onto the gateway taxonomy.
func Categorize(op string, err error) error {
	if err == nil {
		return nil
	}

	category := CategoryOther
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		category = CategoryNotFound
	case "AccessDenied":
		category = CategoryAccessDenied
	case "InvalidAccessKeyId", "SignatureDoesNotMatch":
		category = CategoryInvalidCredentials
	}

	return &Error{Op: op, Category: category, Err: err}
}

// CategoryOf extracts the category from a gateway error, or CategoryOther for
// foreign errors.
func CategoryOf(err error) ErrorCategory {
	var storeErr *Error
	if errors.As(err, &storeErr) {
		return storeErr.Category
	}
	return CategoryOther
}
