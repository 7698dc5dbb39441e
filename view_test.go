package segstore_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	segstore "github.com/Spiritus2424/segstore"
	"github.com/Spiritus2424/segstore/segment"
)

func TestViewSortedIsPermutation(t *testing.T) {
	store, err := segstore.Tree[int]().Build()
	require.NoError(t, err)
	defer store.Dispose()
	ctx := context.Background()

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		start := segment.Position(rng.Int63n(10_000))
		end := start + segment.Position(rng.Int63n(100))
		require.NoError(t, store.Add(ctx, segstore.MustSegment(start, end, i)))
	}
	require.NoError(t, store.Finalize(ctx))

	all, err := store.All()
	require.NoError(t, err)

	for name, cmp := range map[string]segment.Compare[int]{
		"byStart":        segment.ByStart[int](),
		"byEnd":          segment.ByEnd[int](),
		"byLength":       segment.ByLength[int](),
		"byStartReverse": segment.Reverse(segment.ByStart[int]()),
	} {
		t.Run(name, func(t *testing.T) {
			view, err := store.Sorted(cmp)
			require.NoError(t, err)
			require.Equal(t, all.Len(), view.Len())

			segs := view.Slice()
			assert.ElementsMatch(t, all.Slice(), segs)
			for i := 1; i < len(segs); i++ {
				assert.LessOrEqual(t, cmp(segs[i-1], segs[i]), 0)
			}
		})
	}
}

func TestViewIterRestartable(t *testing.T) {
	store, err := segstore.Sorted[string]().Build()
	require.NoError(t, err)
	defer store.Dispose()
	ctx := context.Background()

	addScenario(t, store)
	require.NoError(t, store.Finalize(ctx))

	view, err := store.Sorted(segment.ByStart[string]())
	require.NoError(t, err)

	var first, second []segment.Segment[string]
	for seg := range view.Iter() {
		first = append(first, seg)
	}
	for seg := range view.Iter() {
		second = append(second, seg)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 4)
}

func TestViewSnapshotIsolation(t *testing.T) {
	store, err := segstore.Tree[string]().Build()
	require.NoError(t, err)
	defer store.Dispose()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, segstore.MustSegment(1, 2, "a")))
	require.NoError(t, store.Add(ctx, segstore.MustSegment(3, 4, "b")))

	view, err := store.All()
	require.NoError(t, err)
	require.Equal(t, 2, view.Len())

	// Later additions must not leak into an existing view.
	require.NoError(t, store.Add(ctx, segstore.MustSegment(5, 6, "c")))
	assert.Equal(t, 2, view.Len())

	// Views outlive the store.
	store.Dispose()
	assert.Equal(t, 2, view.Len())
	count := 0
	for range view.Iter() {
		count++
	}
	assert.Equal(t, 2, count)
}

func TestViewResort(t *testing.T) {
	store, err := segstore.Sorted[string]().Build()
	require.NoError(t, err)
	defer store.Dispose()
	ctx := context.Background()

	addScenario(t, store)
	require.NoError(t, store.Finalize(ctx))

	byStart, err := store.Sorted(segment.ByStart[string]())
	require.NoError(t, err)

	byEnd := byStart.Resort(segment.ByEnd[string]())
	assert.Equal(t, [][2]segment.Position{{4, 4}, {1, 5}, {10, 12}, {0, 20}}, positions(byEnd.Slice()))

	// The original view keeps its order.
	assert.Equal(t, [][2]segment.Position{{0, 20}, {1, 5}, {4, 4}, {10, 12}}, positions(byStart.Slice()))
}

func TestSliceIsACopy(t *testing.T) {
	store, err := segstore.Sorted[string]().Build()
	require.NoError(t, err)
	defer store.Dispose()
	ctx := context.Background()

	addScenario(t, store)
	require.NoError(t, store.Finalize(ctx))

	view, err := store.Sorted(segment.ByStart[string]())
	require.NoError(t, err)

	mutated := view.Slice()
	mutated[0] = segstore.MustSegment(99, 99, "mutated")
	assert.NotEqual(t, mutated[0], view.Slice()[0])
}
