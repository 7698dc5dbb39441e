package segstore

import (
	"errors"
	"fmt"

	"github.com/Spiritus2424/segstore/index"
	"github.com/Spiritus2424/segstore/segment"
)

var (
	// ErrFinalized is returned when segments are added after the store has
	// become queryable.
	ErrFinalized = errors.New("store is finalized")

	// ErrDisposed is returned for any operation on a disposed store.
	ErrDisposed = errors.New("store is disposed")

	// ErrInvalidSegment is returned when a segment has a reversed range.
	ErrInvalidSegment = errors.New("invalid segment")

	// ErrNoSnapshot is returned when Close is asked to persist but no
	// snapshot destination was configured at build time.
	ErrNoSnapshot = errors.New("no snapshot destination configured")
)

// PersistenceError indicates a snapshot write or load failure.
//
// The store remains queryable after a failed persist so callers can retry
// or close without persistence. The underlying error is available via
// errors.Unwrap.
type PersistenceError struct {
	Op    string // "save" or "load"
	cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.cause)
}

func (e *PersistenceError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, index.ErrFinalized) {
		return fmt.Errorf("%w: %w", ErrFinalized, err)
	}
	if errors.Is(err, index.ErrDisposed) {
		return fmt.Errorf("%w: %w", ErrDisposed, err)
	}

	var ir *segment.ErrInvalidRange
	if errors.As(err, &ir) {
		return fmt.Errorf("%w: %w", ErrInvalidSegment, err)
	}

	return err
}
