package object

import (
	"context"
	"io"
)

// ObjectStore defines the contract for saving, retrieving and removing binary objects.
// Remove of a key that does not exist is not an error.
type ObjectStore interface {
	Save(ctx context.Context, tenantID string, fileName string, r io.Reader) (storageKey string, sizeBytes int64, mimeType string, err error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Remove(ctx context.Context, storageKey string) error
}
