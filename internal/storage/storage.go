package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a named blob does not exist in the store.
var ErrNotFound = errors.New("snapshot not found")

const ContentTypeZip = "application/zip"

// BlobStore persists named binary snapshots. Put replaces any previous blob.
type BlobStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte, contentType string) error
}
