package object

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("object not found")

// Blob describes a stored object.
type Blob struct {
	Key         string
	URL         string
	SizeBytes   int64
	ContentType string
}

// BlobStore is the contract for staging and serving opaque byte blobs.
type BlobStore interface {
	// Put writes r under key. size may be -1 when unknown.
	Put(ctx context.Context, key string, contentType string, r io.Reader, size int64) (Blob, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// URL returns a retrievable URL for key. Depending on the backend it is
	// durable (public base URL) or temporary (presigned).
	URL(ctx context.Context, key string) (string, error)
}
