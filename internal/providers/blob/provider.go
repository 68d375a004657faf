package blob

import (
	"context"
	"errors"
	"io"
)

// ErrObjectNotFound is returned when a storage key has no object.
var ErrObjectNotFound = errors.New("object not found")

// Store is the opaque object storage boundary for attachments.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
