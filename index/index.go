// Package index defines the overlap-index contract shared by the segstore
// backends.
//
// An index accepts segments during a build phase, is finalized exactly once
// into an immutable query-optimized representation, and then answers
// inclusive overlap queries from any number of concurrent readers without
// locking. Queries against an index that is still building are answered
// through a slow but complete scan of the provisional content.
package index

import (
	"errors"
	"fmt"
	"iter"

	"github.com/Spiritus2424/segstore/segment"
)

var (
	// ErrFinalized is returned when an insert is attempted after Finalize.
	ErrFinalized = errors.New("index already finalized")

	// ErrDisposed is returned by any operation on a disposed index.
	ErrDisposed = errors.New("index disposed")
)

// State describes the lifecycle phase of an index.
type State int32

const (
	// StateBuilding accepts insertions; queries use a slow complete scan.
	StateBuilding State = iota

	// StateQueryable is the finalized, immutable phase. Reads are lock-free.
	StateQueryable

	// StateDisposed means all in-memory structures have been released.
	StateDisposed
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateBuilding:
		return "Building"
	case StateQueryable:
		return "Queryable"
	case StateDisposed:
		return "Disposed"
	default:
		return "Unknown"
	}
}

// Kind identifies a backend implementation.
//
// Persisted snapshots store the kind in their header so that a store can be
// reopened with the same backend it was built with.
type Kind uint8

const (
	// KindSorted is the sort-at-finalize array backend.
	KindSorted Kind = 1

	// KindTree is the augmented interval tree backend.
	KindTree Kind = 2
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindSorted:
		return "sorted"
	case KindTree:
		return "itree"
	default:
		return "unknown"
	}
}

// Valid reports whether k names a known backend.
func (k Kind) Valid() bool {
	return k == KindSorted || k == KindTree
}

// ErrUnknownKind indicates an unrecognized backend kind.
type ErrUnknownKind Kind

func (e ErrUnknownKind) Error() string {
	return fmt.Sprintf("unknown index kind: %d", uint8(e))
}

// Stats describes the shape of an index.
type Stats struct {
	// Len is the number of stored segments.
	Len int

	// State is the current lifecycle phase.
	State State

	// Depth is the height of the query structure (tree height, or the
	// binary-search depth for array backends). Zero while building.
	Depth int
}

// Index is an overlap index over segments with payload type E.
//
// Implementations must publish the finalized structure with a proper
// happens-before barrier so that all insertions preceding Finalize are
// visible to every subsequent reader.
type Index[E any] interface {
	// Insert adds a segment. Valid only while building.
	Insert(seg segment.Segment[E]) error

	// Finalize transitions to the immutable query representation.
	// It is idempotent; finalizing an empty index is legal.
	Finalize() error

	// Query returns the segments that inclusively overlap [qStart, qEnd],
	// in unspecified order. A reversed range is normalized by swapping.
	Query(qStart, qEnd segment.Position) (iter.Seq[segment.Segment[E]], error)

	// All traverses every segment in native storage order.
	All() (iter.Seq[segment.Segment[E]], error)

	// Len returns the number of stored segments.
	Len() int

	// State returns the current lifecycle phase.
	State() State

	// Kind identifies the backend implementation.
	Kind() Kind

	// Stats returns statistics about the index.
	Stats() Stats

	// Dispose releases all in-memory structures. Idempotent.
	Dispose()
}

// Validate checks the segment invariant shared by all backends.
func Validate[E any](seg segment.Segment[E]) error {
	if seg.Start > seg.End {
		return &segment.ErrInvalidRange{Start: seg.Start, End: seg.End}
	}
	return nil
}
