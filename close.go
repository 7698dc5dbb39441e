package segstore

import (
	"context"
	"time"
)

// Close ends the store's lifecycle. The store is finalized if it is still
// building, the snapshot is written (or removed) according to persist, and
// all in-memory structures are released.
//
// With persist true, a snapshot destination must have been configured at
// build time; otherwise Close fails with ErrNoSnapshot. A failed snapshot
// write returns a *PersistenceError and leaves the store queryable so the
// caller can retry or close without persistence.
//
// With persist false, previously written snapshot artifacts are removed so
// a later Open cannot resurrect state the caller chose to drop.
//
// Close is idempotent. Calling Close on a disposed store returns
// ErrDisposed.
func (s *Store[E]) Close(ctx context.Context, persist bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if s.disposed {
		return ErrDisposed
	}

	if err := s.idx.Finalize(); err != nil {
		return translateError(err)
	}

	if persist {
		if !s.pm.Configured() {
			return ErrNoSnapshot
		}

		count := s.idx.Len()
		seq, err := s.idx.All()
		if err != nil {
			return translateError(err)
		}

		began := time.Now()
		err = s.pm.Save(ctx, s.idx.Kind(), count, seq)
		s.metrics.RecordPersist(time.Since(began), err)
		s.logger.LogPersist(ctx, s.pm.Destination(), count, err)
		if err != nil {
			return &PersistenceError{Op: "save", cause: err}
		}
	} else if s.pm.Configured() {
		if err := s.pm.RemoveArtifacts(ctx); err != nil {
			s.logger.WarnContext(ctx, "snapshot cleanup failed", "error", err)
		}
	}

	s.idx.Dispose()
	s.closed = true
	s.disposed = true
	s.logger.LogDispose(ctx)
	return nil
}

// Dispose releases all in-memory structures without persisting anything.
// Existing snapshot artifacts on disk are left untouched. Idempotent, and
// a no-op after Close.
func (s *Store[E]) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.idx.Dispose()
	s.disposed = true
	s.logger.LogDispose(context.Background())
}
