package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when no document exists at the path.
var ErrNotFound = errors.New("document not found")

// Storage defines the interface for document storage operations.
type Storage interface {
	// Save saves a document to the storage.
	// path is the relative path where the document should be stored.
	Save(ctx context.Context, path string, content io.Reader) error

	// Get retrieves a document from the storage.
	// Returns a ReadCloser for the content, or ErrNotFound.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a document from the storage.
	Delete(ctx context.Context, path string) error
}
