package blobstore_test

import (
	"bytes"
	"context"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spiritus2424/segstore/blobstore"
)

// countingStore tracks how many ReadAt calls reach the inner store.
type countingStore struct {
	blobstore.BlobStore
	reads atomic.Int64
}

func (s *countingStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	b, err := s.BlobStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &countingBlob{Blob: b, reads: &s.reads}, nil
}

type countingBlob struct {
	blobstore.Blob
	reads *atomic.Int64
}

func (b *countingBlob) ReadAt(p []byte, off int64) (int, error) {
	b.reads.Add(1)
	return b.Blob.ReadAt(p, off)
}

func TestCachingStoreRoundTrip(t *testing.T) {
	inner := &countingStore{BlobStore: blobstore.NewMemoryStore()}
	store := blobstore.NewCachingStore(inner, 1024*1024, 16)
	ctx := context.Background()

	payload := []byte("0123456789abcdefghijklmnopqrstuvwxyz")
	require.NoError(t, store.Put(ctx, "blob", bytes.NewReader(payload)))

	got, err := blobstore.ReadAll(ctx, store, "blob")
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// A second full read is served from cache.
	before := inner.reads.Load()
	got, err = blobstore.ReadAll(ctx, store, "blob")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, before, inner.reads.Load())

	hits, _ := store.CacheStats()
	assert.Positive(t, hits)
}

func TestCachingBlobReadAcrossBlocks(t *testing.T) {
	store := blobstore.NewCachingStore(blobstore.NewMemoryStore(), 1024, 4)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "blob", bytes.NewReader([]byte("0123456789"))))

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer blob.Close()

	// Spans three 4-byte blocks.
	buf := make([]byte, 7)
	n, err := blob.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "2345678", string(buf))

	// Short read at the tail returns EOF.
	buf = make([]byte, 5)
	n, err = blob.ReadAt(buf, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCachingStorePutInvalidates(t *testing.T) {
	store := blobstore.NewCachingStore(blobstore.NewMemoryStore(), 1024, 4)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "blob", bytes.NewReader([]byte("old content"))))
	got, err := blobstore.ReadAll(ctx, store, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte("old content"), got)

	require.NoError(t, store.Put(ctx, "blob", bytes.NewReader([]byte("new content"))))
	got, err = blobstore.ReadAll(ctx, store, "blob")
	require.NoError(t, err)
	assert.Equal(t, []byte("new content"), got)
}
