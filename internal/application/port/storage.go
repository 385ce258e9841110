package port

import (
	"context"
	"time"
)

// BlobObject describes a stored object returned by List
type BlobObject struct {
	Name      string
	Path      string
	Size      int64
	UpdatedAt time.Time
}

// BlobStore defines object storage operations used for rendered documents
type BlobStore interface {
	Put(ctx context.Context, bucket, path string, data []byte, contentType string, upsert bool) error
	Get(ctx context.Context, bucket, path string) ([]byte, error)
	// List returns objects directly under prefix whose name starts with search
	List(ctx context.Context, bucket, prefix, search string) ([]BlobObject, error)
	CreateSignedURL(ctx context.Context, bucket, path string, ttl time.Duration) (string, error)
	// CreateBucketIfMissing succeeds when the bucket already exists
	CreateBucketIfMissing(ctx context.Context, bucket string) error
}
