package blobstore_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spiritus2424/segstore/blobstore"
)

func newLocalStore(t *testing.T) *blobstore.LocalStore {
	t.Helper()
	store, err := blobstore.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalStoreRoundTrip(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	payload := []byte("snapshot bytes written to disk")
	require.NoError(t, store.Put(ctx, "snap.seg", bytes.NewReader(payload)))

	blob, err := store.Open(ctx, "snap.seg")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(len(payload)), blob.Size())

	got, err := blobstore.ReadAll(ctx, store, "snap.seg")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestLocalStoreOpenMissing(t *testing.T) {
	store := newLocalStore(t)

	_, err := store.Open(context.Background(), "absent")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestLocalStoreEmptyBlob(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "empty", bytes.NewReader(nil)))

	blob, err := store.Open(ctx, "empty")
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, int64(0), blob.Size())
}

func TestLocalStoreListSkipsTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := blobstore.NewLocalStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "trace-1", bytes.NewReader([]byte("a"))))
	require.NoError(t, store.Put(ctx, "trace-2", bytes.NewReader([]byte("b"))))

	// A leftover temp file from an interrupted write must stay invisible.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trace-3.tmp-1234"), []byte("junk"), 0o644))

	names, err := store.List(ctx, "trace-")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"trace-1", "trace-2"}, names)
}

func TestLocalStoreDelete(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "snap", bytes.NewReader([]byte("x"))))
	require.NoError(t, store.Delete(ctx, "snap"))
	require.NoError(t, store.Delete(ctx, "snap")) // idempotent

	_, err := store.Open(ctx, "snap")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
