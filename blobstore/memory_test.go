package blobstore_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spiritus2424/segstore/blobstore"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	payload := []byte("snapshot bytes")
	require.NoError(t, store.Put(ctx, "snap.seg", bytes.NewReader(payload)))

	got, err := blobstore.ReadAll(ctx, store, "snap.seg")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestMemoryStoreOpenMissing(t *testing.T) {
	store := blobstore.NewMemoryStore()

	_, err := store.Open(context.Background(), "absent")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestMemoryStorePutReplaces(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "snap", bytes.NewReader([]byte("v1"))))
	require.NoError(t, store.Put(ctx, "snap", bytes.NewReader([]byte("v2 longer"))))

	got, err := blobstore.ReadAll(ctx, store, "snap")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2 longer"), got)
}

func TestMemoryStoreDeleteAndList(t *testing.T) {
	store := blobstore.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "trace-1", bytes.NewReader([]byte("a"))))
	require.NoError(t, store.Put(ctx, "trace-2", bytes.NewReader([]byte("b"))))
	require.NoError(t, store.Put(ctx, "other", bytes.NewReader([]byte("c"))))

	names, err := store.List(ctx, "trace-")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"trace-1", "trace-2"}, names)

	require.NoError(t, store.Delete(ctx, "trace-1"))
	require.NoError(t, store.Delete(ctx, "trace-1")) // idempotent

	names, err = store.List(ctx, "trace-")
	require.NoError(t, err)
	assert.Equal(t, []string{"trace-2"}, names)
}

func TestMemoryStoreCancelledContext(t *testing.T) {
	store := blobstore.NewMemoryStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, "snap", bytes.NewReader([]byte("x")))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = store.Open(ctx, "snap")
	assert.ErrorIs(t, err, context.Canceled)
}
