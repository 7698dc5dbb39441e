// Package segstore is an embedded store for intervals ("segments") with
// attached payloads, answering inclusive overlap queries.
//
// A store moves through three phases:
//
//   - Building: segments are added in any order; queries are served through
//     a complete scan of the provisional content.
//   - Queryable: after Finalize (or Close), the index is immutable and
//     overlap queries are served lock-free in O(log n + k).
//   - Disposed: all memory is released; every operation fails.
//
// Two index backends exist: an augmented interval tree (segstore.Tree) and
// a sort-at-finalize array (segstore.Sorted). Closing with persistence
// enabled writes a compressed, checksummed snapshot to a local path, a blob
// store, or both; Open reloads it into a queryable store.
//
// # Quick Start
//
//	store, err := segstore.Tree[string]().
//	    Snapshot("./data/trace.seg").
//	    Build()
//	if err != nil {
//	    panic(err)
//	}
//	defer store.Dispose()
//
//	ctx := context.Background()
//	_ = store.Add(ctx, segstore.MustSegment(1, 5, "syscall"))
//	_ = store.Finalize(ctx)
//
//	hits, _ := store.Intersecting(ctx, 4)
//	for _, seg := range hits {
//	    fmt.Println(seg.Start, seg.End, seg.Payload)
//	}
package segstore

import (
	"context"
	"sync"
	"time"

	"github.com/Spiritus2424/segstore/index"
	"github.com/Spiritus2424/segstore/persistence"
	"github.com/Spiritus2424/segstore/segment"
)

// Position is re-exported from the segment package for convenience.
type Position = segment.Position

// Segment is re-exported from the segment package for convenience.
type Segment[E any] = segment.Segment[E]

// Store is a collection of segments with overlap queries.
//
// All methods are safe for concurrent use. Write operations (Add, AddAll,
// Finalize, Close, Dispose) serialize against each other; queries on a
// queryable store run concurrently without blocking one another.
type Store[E any] struct {
	mu sync.RWMutex

	idx     index.Index[E]
	pm      *persistence.Manager[E]
	metrics MetricsCollector
	logger  *Logger
	equals  func(a, b E) bool

	closed   bool
	disposed bool
}

func newStore[E any](idx index.Index[E], optFns []Option[E]) (*Store[E], error) {
	opts := applyOptions(optFns)

	pm := persistence.NewManager[E](persistence.Options{
		SnapshotPath: opts.snapshotPath,
		Blob:         opts.blob,
		BlobName:     opts.blobName,
		Codec:        opts.codec,
		Compression:  opts.compression,
		Controller:   opts.controller,
	})

	return &Store[E]{
		idx:     idx,
		pm:      pm,
		metrics: opts.metricsCollector,
		logger:  opts.logger,
		equals:  opts.payloadEquals,
	}, nil
}

// MustSegment builds a segment and panics on a reversed range. Intended for
// literals in tests and examples.
func MustSegment[E any](start, end segment.Position, payload E) segment.Segment[E] {
	seg, err := segment.New(start, end, payload)
	if err != nil {
		panic(err)
	}
	return seg
}

// Add inserts one segment. Valid only while the store is building.
func (s *Store[E]) Add(ctx context.Context, seg segment.Segment[E]) error {
	start := time.Now()
	err := s.add(ctx, seg)
	s.metrics.RecordAdd(time.Since(start), err)
	s.logger.LogAdd(ctx, seg.Start, seg.End, err)
	return err
}

func (s *Store[E]) add(ctx context.Context, seg segment.Segment[E]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardWrite(); err != nil {
		return err
	}
	return translateError(s.idx.Insert(seg))
}

// AddAll inserts a batch of segments atomically: either every segment is
// added or, if any is invalid, none are.
func (s *Store[E]) AddAll(ctx context.Context, segs []segment.Segment[E]) error {
	start := time.Now()
	err := s.addAll(ctx, segs)
	s.metrics.RecordBatchAdd(len(segs), time.Since(start), err)
	s.logger.LogBatchAdd(ctx, len(segs), err)
	return err
}

func (s *Store[E]) addAll(ctx context.Context, segs []segment.Segment[E]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.guardWrite(); err != nil {
		return err
	}
	for _, seg := range segs {
		if err := index.Validate(seg); err != nil {
			return translateError(err)
		}
	}
	for _, seg := range segs {
		if err := s.idx.Insert(seg); err != nil {
			return translateError(err)
		}
	}
	return nil
}

// Finalize transitions the store to the queryable phase. Idempotent.
// Further additions fail with ErrFinalized.
func (s *Store[E]) Finalize(ctx context.Context) error {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return ErrDisposed
	}
	count := s.idx.Len()
	err := translateError(s.idx.Finalize())

	s.metrics.RecordFinalize(count, time.Since(start), err)
	s.logger.LogFinalize(ctx, count, err)
	return err
}

// Len returns the number of stored segments. Zero after Dispose.
func (s *Store[E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Len()
}

// IsEmpty reports whether the store holds no segments.
func (s *Store[E]) IsEmpty() bool {
	return s.Len() == 0
}

// State returns the current lifecycle phase.
func (s *Store[E]) State() index.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.disposed {
		return index.StateDisposed
	}
	return s.idx.State()
}

// Kind identifies the index backend.
func (s *Store[E]) Kind() index.Kind {
	return s.idx.Kind()
}

// Stats returns statistics about the underlying index.
func (s *Store[E]) Stats() index.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx.Stats()
}

// Contains reports whether a segment with the same positions and an equal
// payload is stored. Payload equality defaults to reflect.DeepEqual and can
// be overridden with PayloadEquals.
func (s *Store[E]) Contains(ctx context.Context, seg segment.Segment[E]) (bool, error) {
	hits, err := s.IntersectingRange(ctx, seg.Start, seg.End)
	if err != nil {
		return false, err
	}
	for _, h := range hits {
		if h.SamePositions(seg) && s.equals(h.Payload, seg.Payload) {
			return true, nil
		}
	}
	return false, nil
}

// Intersecting returns the segments that contain the given position,
// i.e. those with Start <= pos <= End. Order is unspecified.
func (s *Store[E]) Intersecting(ctx context.Context, pos segment.Position) ([]segment.Segment[E], error) {
	return s.IntersectingRange(ctx, pos, pos)
}

// IntersectingRange returns the segments that inclusively overlap
// [start, end]. A reversed range is normalized by swapping the bounds.
// Order is unspecified; see SortedIntersectingRange for ordered results.
func (s *Store[E]) IntersectingRange(ctx context.Context, start, end segment.Position) ([]segment.Segment[E], error) {
	began := time.Now()
	hits, err := s.intersecting(ctx, start, end)
	s.metrics.RecordQuery(len(hits), time.Since(began), err)
	s.logger.LogQuery(ctx, start, end, len(hits), err)
	return hits, err
}

func (s *Store[E]) intersecting(ctx context.Context, start, end segment.Position) ([]segment.Segment[E], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.disposed {
		return nil, ErrDisposed
	}
	seq, err := s.idx.Query(start, end)
	if err != nil {
		return nil, translateError(err)
	}

	var hits []segment.Segment[E]
	for seg := range seq {
		hits = append(hits, seg)
	}
	return hits, nil
}

// All returns a view over every segment in storage order.
func (s *Store[E]) All() (*View[E], error) {
	return s.view(nil)
}

// Sorted returns a view over every segment ordered by cmp. A nil comparator
// means storage order.
func (s *Store[E]) Sorted(cmp segment.Compare[E]) (*View[E], error) {
	return s.view(cmp)
}

func (s *Store[E]) view(cmp segment.Compare[E]) (*View[E], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.disposed {
		return nil, ErrDisposed
	}
	seq, err := s.idx.All()
	if err != nil {
		return nil, translateError(err)
	}

	segs := make([]segment.Segment[E], 0, s.idx.Len())
	for seg := range seq {
		segs = append(segs, seg)
	}
	return newView(segs, cmp), nil
}

// SortedIntersecting returns the segments containing pos, ordered by cmp.
func (s *Store[E]) SortedIntersecting(ctx context.Context, pos segment.Position, cmp segment.Compare[E]) (*View[E], error) {
	return s.SortedIntersectingRange(ctx, pos, pos, cmp)
}

// SortedIntersectingRange returns the segments overlapping [start, end],
// ordered by cmp. A nil comparator means unspecified order.
func (s *Store[E]) SortedIntersectingRange(ctx context.Context, start, end segment.Position, cmp segment.Compare[E]) (*View[E], error) {
	hits, err := s.IntersectingRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return newView(hits, cmp), nil
}

// guardWrite is called with mu held.
func (s *Store[E]) guardWrite() error {
	if s.disposed {
		return ErrDisposed
	}
	if s.closed {
		return ErrFinalized
	}
	return nil
}
