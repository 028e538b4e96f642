// Package storage abstracts the object store a parse invocation reads its
// input from and uploads its outputs to.
package storage

import (
	"context"
	"io"
)

// Storage is the durable object-store collaborator.
type Storage interface {
	// Get opens the object identified by uri for reading.
	Get(ctx context.Context, uri string) (io.ReadCloser, error)
	// Put uploads the local file at path and returns the URI of the stored object.
	Put(ctx context.Context, path string) (string, error)
}
