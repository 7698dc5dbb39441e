// Package segment defines the interval value type stored by segstore and the
// comparators used for ordered traversal.
package segment

import "math"

// Position is a coordinate on the store's one-dimensional axis.
// For trace workloads this is typically a timestamp in nanoseconds.
type Position int64

const (
	// MinPosition is the smallest representable position.
	MinPosition Position = math.MinInt64

	// MaxPosition is the largest representable position.
	MaxPosition Position = math.MaxInt64
)

// Segment is an immutable interval [Start, End] with an attached payload.
//
// Segments are value types: they are copied on insertion and never mutated
// by the store. Start == End is a valid zero-length segment representing a
// point event.
type Segment[E any] struct {
	// Start is the inclusive start position.
	Start Position

	// End is the inclusive end position. End >= Start for all stored segments.
	End Position

	// Payload is opaque to the index.
	Payload E
}

// New constructs a segment and validates its range.
// A segment with Start > End is rejected with *ErrInvalidRange.
func New[E any](start, end Position, payload E) (Segment[E], error) {
	if start > end {
		return Segment[E]{}, &ErrInvalidRange{Start: start, End: end}
	}
	return Segment[E]{Start: start, End: end, Payload: payload}, nil
}

// Length returns End - Start. Zero for point events.
func (s Segment[E]) Length() Position {
	return s.End - s.Start
}

// Overlaps reports whether s inclusively intersects [qStart, qEnd].
func (s Segment[E]) Overlaps(qStart, qEnd Position) bool {
	return s.End >= qStart && s.Start <= qEnd
}

// SamePositions reports whether two segments cover the identical interval.
// Payloads are not compared; full value equality is the store's concern.
func (s Segment[E]) SamePositions(other Segment[E]) bool {
	return s.Start == other.Start && s.End == other.End
}

// NormalizeRange swaps a reversed query range so qStart <= qEnd.
// A point query at p is the degenerate range [p, p].
func NormalizeRange(qStart, qEnd Position) (Position, Position) {
	if qStart > qEnd {
		return qEnd, qStart
	}
	return qStart, qEnd
}
