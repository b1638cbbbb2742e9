package objectstore

import (
	"errors"
	"testing"

	"github.com/minio/minio-go/v7"
)

func TestCategorizeMapsKnownCodes(t *testing.T) {
	cases := []struct {
		code string
		want ErrorCategory
	}{
		{"NoSuchKey", CategoryNotFound},
		{"NoSuchBucket", CategoryNotFound},
		{"AccessDenied", CategoryAccessDenied},
		{"InvalidAccessKeyId", CategoryInvalidCredentials},
		{"SignatureDoesNotMatch", CategoryInvalidCredentials},
		{"SlowDown", CategoryOther},
	}

	for _, tc := range cases {
		err := Categorize("test", minio.ErrorResponse{Code: tc.code, Message: tc.code})
		if got := CategoryOf(err); got != tc.want {
			t.Fatalf("code %s: expected category %s, got %s", tc.code, tc.want, got)
		}
	}
}

func TestCategorizeNilPassesThrough(t *testing.T) {
	if err := Categorize("test", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestCategorizedErrorUnwraps(t *testing.T) {
	raw := minio.ErrorResponse{Code: "AccessDenied", Message: "denied"}
	err := Categorize("presign put", raw)

	var storeErr *Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if storeErr.Op != "presign put" {
		t.Fatalf("unexpected op: %s", storeErr.Op)
	}
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) || resp.Code != "AccessDenied" {
		t.Fatalf("expected wrapped minio response to be reachable, got %+v", resp)
	}
}

func TestCategoryOfForeignError(t *testing.T) {
	if got := CategoryOf(errors.New("boom")); got != CategoryOther {
		t.Fatalf("expected other, got %s", got)
	}
}
