package segment

import "cmp"

// Compare is a three-way total order over segments.
// It returns a negative value when a sorts before b, zero when they are
// equivalent under the order, and a positive value otherwise.
type Compare[E any] func(a, b Segment[E]) int

// ByStart orders by start position, breaking ties by end position.
// This is the store's deterministic default order.
func ByStart[E any]() Compare[E] {
	return func(a, b Segment[E]) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.End, b.End)
	}
}

// ByEnd orders by end position, breaking ties by start position.
func ByEnd[E any]() Compare[E] {
	return func(a, b Segment[E]) int {
		if c := cmp.Compare(a.End, b.End); c != 0 {
			return c
		}
		return cmp.Compare(a.Start, b.Start)
	}
}

// ByLength orders by segment length, breaking ties by the default order.
func ByLength[E any]() Compare[E] {
	return func(a, b Segment[E]) int {
		if c := cmp.Compare(a.Length(), b.Length()); c != 0 {
			return c
		}
		return ByStart[E]()(a, b)
	}
}

// Reverse inverts an order.
func Reverse[E any](order Compare[E]) Compare[E] {
	return func(a, b Segment[E]) int {
		return -order(a, b)
	}
}
