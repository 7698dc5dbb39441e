package segstore_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	segstore "github.com/Spiritus2424/segstore"
	"github.com/Spiritus2424/segstore/index"
)

func TestDisposeIdempotent(t *testing.T) {
	store, err := segstore.Tree[string]().Build()
	require.NoError(t, err)
	ctx := context.Background()

	addScenario(t, store)
	store.Dispose()
	store.Dispose()

	assert.Equal(t, index.StateDisposed, store.State())
	assert.Equal(t, 0, store.Len())

	err = store.Add(ctx, segstore.MustSegment(1, 2, "a"))
	assert.ErrorIs(t, err, segstore.ErrDisposed)

	_, err = store.Intersecting(ctx, 1)
	assert.ErrorIs(t, err, segstore.ErrDisposed)

	_, err = store.All()
	assert.ErrorIs(t, err, segstore.ErrDisposed)

	err = store.Finalize(ctx)
	assert.ErrorIs(t, err, segstore.ErrDisposed)
}

func TestCloseAfterDispose(t *testing.T) {
	store, err := segstore.Tree[string]().Build()
	require.NoError(t, err)

	store.Dispose()
	err = store.Close(context.Background(), false)
	assert.ErrorIs(t, err, segstore.ErrDisposed)
}

func TestDisposeAfterClose(t *testing.T) {
	store, err := segstore.Tree[string]().Build()
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Close(ctx, false))
	store.Dispose() // no-op

	require.NoError(t, store.Close(ctx, false)) // idempotent
	assert.Equal(t, index.StateDisposed, store.State())
}

func TestCloseFinalizesBuildingStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap.seg")
	store, err := segstore.Sorted[string]().Snapshot(path).Build()
	require.NoError(t, err)
	ctx := context.Background()

	addScenario(t, store)
	assert.Equal(t, index.StateBuilding, store.State())

	require.NoError(t, store.Close(ctx, true))
	assert.Equal(t, index.StateDisposed, store.State())
}

func TestClosePersistWithoutDestination(t *testing.T) {
	store, err := segstore.Tree[string]().Build()
	require.NoError(t, err)
	ctx := context.Background()

	addScenario(t, store)
	err = store.Close(ctx, true)
	assert.ErrorIs(t, err, segstore.ErrNoSnapshot)

	// The failed close leaves the store usable.
	hits, err := store.Intersecting(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, hits, 3)

	require.NoError(t, store.Close(ctx, false))
}

func TestConcurrentQueriesDuringDispose(t *testing.T) {
	store, err := segstore.Tree[int]().Build()
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, store.Add(ctx, segstore.MustSegment(segstore.Position(i), segstore.Position(i+10), i)))
	}
	require.NoError(t, store.Finalize(ctx))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				// Either a complete result or ErrDisposed; never a panic
				// or a torn read.
				hits, err := store.Intersecting(ctx, segstore.Position(i*7))
				if err != nil {
					assert.ErrorIs(t, err, segstore.ErrDisposed)
					return
				}
				assert.NotEmpty(t, hits)
			}
		}()
	}
	store.Dispose()
	wg.Wait()
}
