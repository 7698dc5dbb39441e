// Package sorted provides a sort-at-finalize array backend for segstore.
//
// Segments are appended to a plain buffer during the build phase (O(1)
// amortized). Finalize sorts the buffer by (start, end) and computes a
// suffix max-end array, so a query can binary-search the candidate window
// and stop scanning as soon as the suffix proves no later segment can still
// reach back into the query range. This keeps typical queries near
// O(log n + k) and degrades gracefully, never incorrectly, under deeply
// nested segments.
package sorted

import (
	"iter"
	"math/bits"
	"slices"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/Spiritus2424/segstore/index"
	"github.com/Spiritus2424/segstore/segment"
)

// Compile-time check that Array satisfies the index contract.
var _ index.Index[struct{}] = (*Array[struct{}])(nil)

// arrayState is the immutable finalized representation.
type arrayState[E any] struct {
	segs []segment.Segment[E] // sorted by (start, end)
	// sufMaxEnd[i] is the maximum end position among segs[i:].
	sufMaxEnd []segment.Position
}

// Array is the sort-at-finalize index.
//
// The build buffer is guarded by a mutex; Finalize publishes the sorted
// state through an atomic pointer, after which queries are lock-free.
type Array[E any] struct {
	mu        sync.Mutex
	buf       []segment.Segment[E] // guarded by mu until finalized
	published atomic.Pointer[arrayState[E]]
	state     atomic.Int32
	size      atomic.Int64
}

// New creates an empty array index in the building state.
func New[E any]() *Array[E] {
	return &Array[E]{}
}

// Kind identifies the backend implementation.
func (a *Array[E]) Kind() index.Kind { return index.KindSorted }

// State returns the current lifecycle phase.
func (a *Array[E]) State() index.State {
	return index.State(a.state.Load())
}

// Len returns the number of stored segments.
func (a *Array[E]) Len() int {
	return int(a.size.Load())
}

// Insert appends a segment to the build buffer. Valid only while building.
func (a *Array[E]) Insert(seg segment.Segment[E]) error {
	if err := index.Validate(seg); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.State() {
	case index.StateDisposed:
		return index.ErrDisposed
	case index.StateQueryable:
		return index.ErrFinalized
	}

	a.buf = append(a.buf, seg)
	a.size.Add(1)
	return nil
}

// Finalize sorts the buffer and publishes the query representation.
// Idempotent.
func (a *Array[E]) Finalize() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.State() {
	case index.StateDisposed:
		return index.ErrDisposed
	case index.StateQueryable:
		return nil
	}

	segs := a.buf
	a.buf = nil
	slices.SortFunc(segs, segment.ByStart[E]())

	sufMaxEnd := make([]segment.Position, len(segs))
	running := segment.MinPosition
	for i := len(segs) - 1; i >= 0; i-- {
		running = max(running, segs[i].End)
		sufMaxEnd[i] = running
	}

	a.published.Store(&arrayState[E]{segs: segs, sufMaxEnd: sufMaxEnd})
	a.state.Store(int32(index.StateQueryable))
	return nil
}

// Query returns the segments that inclusively overlap [qStart, qEnd].
//
// Finalized queries binary-search the candidate prefix whose starts are
// within the range and scan it forward, breaking as soon as the suffix
// max-end shows no remaining segment can end at or after qStart.
// While still building, the provisional buffer is scanned in full so no
// segment is ever omitted.
func (a *Array[E]) Query(qStart, qEnd segment.Position) (iter.Seq[segment.Segment[E]], error) {
	qStart, qEnd = segment.NormalizeRange(qStart, qEnd)

	switch a.State() {
	case index.StateDisposed:
		return nil, index.ErrDisposed
	case index.StateQueryable:
		st := a.published.Load()
		return func(yield func(segment.Segment[E]) bool) {
			st.query(qStart, qEnd, yield)
		}, nil
	default:
		a.mu.Lock()
		if a.State() == index.StateDisposed {
			a.mu.Unlock()
			return nil, index.ErrDisposed
		}
		var snapshot []segment.Segment[E]
		for _, seg := range a.buf {
			if seg.Overlaps(qStart, qEnd) {
				snapshot = append(snapshot, seg)
			}
		}
		a.mu.Unlock()

		return func(yield func(segment.Segment[E]) bool) {
			for _, seg := range snapshot {
				if !yield(seg) {
					return
				}
			}
		}, nil
	}
}

func (st *arrayState[E]) query(qStart, qEnd segment.Position, yield func(segment.Segment[E]) bool) {
	// Candidates are segs[:hi], the prefix whose starts are <= qEnd.
	hi := sort.Search(len(st.segs), func(i int) bool {
		return st.segs[i].Start > qEnd
	})
	for i := 0; i < hi; i++ {
		if st.sufMaxEnd[i] < qStart {
			// Every remaining candidate ends before the query starts.
			return
		}
		if seg := st.segs[i]; seg.End >= qStart {
			if !yield(seg) {
				return
			}
		}
	}
}

// All traverses every segment in storage order: insertion order while
// building, (start, end) order once finalized.
func (a *Array[E]) All() (iter.Seq[segment.Segment[E]], error) {
	switch a.State() {
	case index.StateDisposed:
		return nil, index.ErrDisposed
	case index.StateQueryable:
		st := a.published.Load()
		return func(yield func(segment.Segment[E]) bool) {
			for _, seg := range st.segs {
				if !yield(seg) {
					return
				}
			}
		}, nil
	default:
		a.mu.Lock()
		if a.State() == index.StateDisposed {
			a.mu.Unlock()
			return nil, index.ErrDisposed
		}
		snapshot := slices.Clone(a.buf)
		a.mu.Unlock()

		return func(yield func(segment.Segment[E]) bool) {
			for _, seg := range snapshot {
				if !yield(seg) {
					return
				}
			}
		}, nil
	}
}

// Stats returns statistics about the index.
func (a *Array[E]) Stats() index.Stats {
	st := index.Stats{
		Len:   a.Len(),
		State: a.State(),
	}
	if st.State == index.StateQueryable {
		if published := a.published.Load(); published != nil && len(published.segs) > 0 {
			st.Depth = bits.Len(uint(len(published.segs)))
		}
	}
	return st
}

// Dispose releases the index. Idempotent.
func (a *Array[E]) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.State() == index.StateDisposed {
		return
	}
	a.state.Store(int32(index.StateDisposed))
	a.buf = nil
	a.published.Store(nil)
	a.size.Store(0)
}
