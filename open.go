package segstore

import (
	"context"
	"fmt"

	"github.com/Spiritus2424/segstore/blobstore"
	"github.com/Spiritus2424/segstore/persistence"
)

// Open reloads a snapshot file into a queryable store.
//
// The snapshot is self-describing: the index backend, codec, and
// compression are read from the file header. The returned store uses the
// same path as its snapshot destination, so a later Close(ctx, true)
// rewrites it in place.
func Open[E any](ctx context.Context, path string, optFns ...Option[E]) (*Store[E], error) {
	contents, err := persistence.LoadFromFile[E](ctx, path)
	if err != nil {
		return nil, &PersistenceError{Op: "load", cause: err}
	}
	return fromContents(ctx, contents, append(optFns, WithSnapshotPath[E](path)))
}

// OpenFromBlob reloads a snapshot from a blob store into a queryable store.
// The returned store keeps the blob as its snapshot destination.
func OpenFromBlob[E any](ctx context.Context, bs blobstore.BlobStore, name string, optFns ...Option[E]) (*Store[E], error) {
	contents, err := persistence.LoadFromBlob[E](ctx, bs, name)
	if err != nil {
		return nil, &PersistenceError{Op: "load", cause: err}
	}
	return fromContents(ctx, contents, append(optFns, WithBlobStore[E](bs, name)))
}

func fromContents[E any](ctx context.Context, contents *persistence.Contents[E], optFns []Option[E]) (*Store[E], error) {
	store, err := New(contents.Kind, optFns...)
	if err != nil {
		return nil, err
	}

	for _, seg := range contents.Segments {
		if err := ctx.Err(); err != nil {
			store.Dispose()
			return nil, err
		}
		if err := store.idx.Insert(seg); err != nil {
			store.Dispose()
			return nil, fmt.Errorf("segstore: rebuild index: %w", translateError(err))
		}
	}
	if err := store.idx.Finalize(); err != nil {
		store.Dispose()
		return nil, translateError(err)
	}

	store.logger.InfoContext(ctx, "snapshot loaded",
		"kind", contents.Kind.String(),
		"count", len(contents.Segments),
	)
	return store, nil
}
