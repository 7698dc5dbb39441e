// Package blobstore abstracts where durable snapshots live.
//
// A segment store session that closes with persistence enabled hands its
// snapshot to a BlobStore; reopening pulls it back. Backends exist for
// process memory (tests), the local file system, and S3-compatible object
// storage.
package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore stores immutable snapshot blobs by name.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Put stores the content of r under name, replacing any existing blob.
	Put(ctx context.Context, name string, r io.Reader) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a snapshot blob.
type Blob interface {
	io.ReaderAt
	io.Closer

	// Size returns the size of the blob in bytes.
	Size() int64
}

// ReadAll reads an entire blob into memory.
func ReadAll(ctx context.Context, bs BlobStore, name string) ([]byte, error) {
	b, err := bs.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	data := make([]byte, b.Size())
	if _, err := io.ReadFull(io.NewSectionReader(b, 0, b.Size()), data); err != nil {
		return nil, err
	}
	return data, nil
}
