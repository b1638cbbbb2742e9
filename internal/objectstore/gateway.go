package objectstore

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
)

// DefaultURLTTL is applied when a caller asks for a signed URL without an
// explicit expiry.
const DefaultURLTTL = 15 * time.Minute

// Gateway is the thin capability wrapper over the S3-compatible backend. It
// produces time-limited signed URLs and performs direct byte transfer; every
// failure is surfaced as a categorized *Error.
type Gateway struct {
	client *minio.Client
	bucket string
}

// NewGateway wraps a connected MinIO client scoped to one bucket.
func NewGateway(client *minio.Client, bucket string) *Gateway {
	return &Gateway{client: client, bucket: bucket}
}

// GenerateUploadURL produces a time-limited URL permitting one PUT of the given
// content type to the key. The content type is part of the signature, so a PUT
// with a different type fails at the store.
func (g *Gateway) GenerateUploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}

	extraHeaders := http.Header{}
	if contentType != "" {
		extraHeaders.Set("Content-Type", contentType)
	}

	u, err := g.client.PresignHeader(ctx, http.MethodPut, g.bucket, key, ttl, url.Values{}, extraHeaders)
	if err != nil {
		return "", Categorize("presign put", err)
	}
	return u.String(), nil
}

// GenerateDownloadURL produces a time-limited GET URL for the key.
func (g *Gateway) GenerateDownloadURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultURLTTL
	}

	u, err := g.client.PresignedGetObject(ctx, g.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", Categorize("presign get", err)
	}
	return u.String(), nil
}

// PutObjectDirect uploads caller-supplied bytes synchronously. Used by the
// server-proxied upload path.
func (g *Gateway) PutObjectDirect(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := g.client.PutObject(ctx, g.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return Categorize("put object", err)
	}
	return nil
}

// DeleteObject removes the key. S3 deletes are idempotent, so a missing object
// is not an error from the caller's perspective.
func (g *Gateway) DeleteObject(ctx context.Context, key string) error {
	err := g.client.RemoveObject(ctx, g.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		categorized := Categorize("remove object", err)
		if CategoryOf(categorized) == CategoryNotFound {
			return nil
		}
		return categorized
	}
	return nil
}

// StatObject reports the stored size for a key. Present for operational
// reconciliation sweeps; the confirm-upload path deliberately does not call it.
func (g *Gateway) StatObject(ctx context.Context, key string) (int64, error) {
	info, err := g.client.StatObject(ctx, g.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return 0, Categorize("stat object", err)
	}
	return info.Size, nil
}
