package segstore

import (
	"iter"
	"slices"

	"github.com/Spiritus2424/segstore/segment"
)

// View is an immutable ordered snapshot of query or iteration results.
//
// A view holds its own copy of the segments: segments added to the store
// after the view was taken never appear in it, and the view stays usable
// after the store is disposed.
type View[E any] struct {
	segs []segment.Segment[E]
}

func newView[E any](segs []segment.Segment[E], cmp segment.Compare[E]) *View[E] {
	if cmp != nil {
		segs = slices.Clone(segs)
		slices.SortStableFunc(segs, cmp)
	}
	return &View[E]{segs: segs}
}

// Len returns the number of segments in the view.
func (v *View[E]) Len() int {
	return len(v.segs)
}

// Iter returns a restartable sequence over the view in order. Ranging over
// it multiple times yields the same segments each time.
func (v *View[E]) Iter() iter.Seq[segment.Segment[E]] {
	return slices.Values(v.segs)
}

// Slice returns a copy of the view's segments in order.
func (v *View[E]) Slice() []segment.Segment[E] {
	return slices.Clone(v.segs)
}

// Resort returns a new view over the same segments with a different order.
func (v *View[E]) Resort(cmp segment.Compare[E]) *View[E] {
	return newView(v.segs, cmp)
}
