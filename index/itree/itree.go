// Package itree provides an augmented interval tree backend for segstore.
//
// The tree is an AVL tree keyed by (start, end). Every node carries the
// maximum end position found in its subtree, which lets overlap queries
// prune whole subtrees that end before the query range begins. Inserts are
// O(log n); a stabbing query visits O(log n + k) nodes for k results.
package itree

import (
	"iter"
	"sync"
	"sync/atomic"

	"github.com/Spiritus2424/segstore/index"
	"github.com/Spiritus2424/segstore/segment"
)

// Compile-time check that Tree satisfies the index contract.
var _ index.Index[struct{}] = (*Tree[struct{}])(nil)

type node[E any] struct {
	seg    segment.Segment[E]
	left   *node[E]
	right  *node[E]
	height int
	maxEnd segment.Position // Maximum end position in this subtree
}

// Tree is the augmented interval tree index.
//
// Writes are serialized by a mutex. Finalize publishes the root through an
// atomic pointer; after that the structure is immutable and queries read it
// without locking. Queries during the build phase snapshot the matching
// segments under the write lock, trading speed for completeness.
type Tree[E any] struct {
	mu        sync.Mutex
	root      *node[E] // guarded by mu until published
	published atomic.Pointer[node[E]]
	state     atomic.Int32
	size      atomic.Int64
}

// New creates an empty tree in the building state.
func New[E any]() *Tree[E] {
	return &Tree[E]{}
}

// Kind identifies the backend implementation.
func (t *Tree[E]) Kind() index.Kind { return index.KindTree }

// State returns the current lifecycle phase.
func (t *Tree[E]) State() index.State {
	return index.State(t.state.Load())
}

// Len returns the number of stored segments.
func (t *Tree[E]) Len() int {
	return int(t.size.Load())
}

// Insert adds a segment to the tree. Valid only while building.
func (t *Tree[E]) Insert(seg segment.Segment[E]) error {
	if err := index.Validate(seg); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.State() {
	case index.StateDisposed:
		return index.ErrDisposed
	case index.StateQueryable:
		return index.ErrFinalized
	}

	t.root = insert(t.root, seg)
	t.size.Add(1)
	return nil
}

func insert[E any](n *node[E], seg segment.Segment[E]) *node[E] {
	if n == nil {
		return &node[E]{seg: seg, height: 1, maxEnd: seg.End}
	}
	// Keyed by (start, end); duplicates go right so equal keys are legal.
	if seg.Start < n.seg.Start || (seg.Start == n.seg.Start && seg.End < n.seg.End) {
		n.left = insert(n.left, seg)
	} else {
		n.right = insert(n.right, seg)
	}
	return rebalance(n)
}

func height[E any](n *node[E]) int {
	if n == nil {
		return 0
	}
	return n.height
}

func maxEnd[E any](n *node[E]) segment.Position {
	if n == nil {
		return segment.MinPosition
	}
	return n.maxEnd
}

// refresh recomputes height and the max-end augmentation from the children.
func refresh[E any](n *node[E]) {
	n.height = 1 + max(height(n.left), height(n.right))
	n.maxEnd = max(n.seg.End, maxEnd(n.left), maxEnd(n.right))
}

func rotateRight[E any](n *node[E]) *node[E] {
	l := n.left
	n.left = l.right
	l.right = n
	refresh(n)
	refresh(l)
	return l
}

func rotateLeft[E any](n *node[E]) *node[E] {
	r := n.right
	n.right = r.left
	r.left = n
	refresh(n)
	refresh(r)
	return r
}

func rebalance[E any](n *node[E]) *node[E] {
	refresh(n)
	switch balance := height(n.left) - height(n.right); {
	case balance > 1:
		if height(n.left.left) < height(n.left.right) {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case balance < -1:
		if height(n.right.right) < height(n.right.left) {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	default:
		return n
	}
}

// Finalize publishes the tree for lock-free reads. Idempotent.
func (t *Tree[E]) Finalize() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch t.State() {
	case index.StateDisposed:
		return index.ErrDisposed
	case index.StateQueryable:
		return nil
	}

	t.published.Store(t.root)
	t.state.Store(int32(index.StateQueryable))
	return nil
}

// Query returns the segments that inclusively overlap [qStart, qEnd].
//
// Once the tree is queryable the traversal runs lock-free over the
// published structure. While still building, the matching segments are
// snapshotted under the write lock before being yielded.
func (t *Tree[E]) Query(qStart, qEnd segment.Position) (iter.Seq[segment.Segment[E]], error) {
	qStart, qEnd = segment.NormalizeRange(qStart, qEnd)

	switch t.State() {
	case index.StateDisposed:
		return nil, index.ErrDisposed
	case index.StateQueryable:
		root := t.published.Load()
		return func(yield func(segment.Segment[E]) bool) {
			queryNode(root, qStart, qEnd, yield)
		}, nil
	default:
		// Building: no segment may be omitted, so collect under the lock.
		t.mu.Lock()
		if t.State() == index.StateDisposed {
			t.mu.Unlock()
			return nil, index.ErrDisposed
		}
		var snapshot []segment.Segment[E]
		queryNode(t.root, qStart, qEnd, func(seg segment.Segment[E]) bool {
			snapshot = append(snapshot, seg)
			return true
		})
		t.mu.Unlock()

		return func(yield func(segment.Segment[E]) bool) {
			for _, seg := range snapshot {
				if !yield(seg) {
					return
				}
			}
		}, nil
	}
}

// queryNode descends the tree, pruning subtrees whose max end is before the
// query start and skipping right subtrees once starts exceed the query end.
func queryNode[E any](n *node[E], qStart, qEnd segment.Position, yield func(segment.Segment[E]) bool) bool {
	if n == nil || n.maxEnd < qStart {
		return true
	}
	if !queryNode(n.left, qStart, qEnd, yield) {
		return false
	}
	if n.seg.Start > qEnd {
		// Right subtree starts are >= this start, so nothing there qualifies.
		return true
	}
	if n.seg.End >= qStart && !yield(n.seg) {
		return false
	}
	return queryNode(n.right, qStart, qEnd, yield)
}

// All traverses every segment in order of (start, end).
func (t *Tree[E]) All() (iter.Seq[segment.Segment[E]], error) {
	switch t.State() {
	case index.StateDisposed:
		return nil, index.ErrDisposed
	case index.StateQueryable:
		root := t.published.Load()
		return func(yield func(segment.Segment[E]) bool) {
			inOrder(root, yield)
		}, nil
	default:
		t.mu.Lock()
		if t.State() == index.StateDisposed {
			t.mu.Unlock()
			return nil, index.ErrDisposed
		}
		snapshot := make([]segment.Segment[E], 0, t.size.Load())
		inOrder(t.root, func(seg segment.Segment[E]) bool {
			snapshot = append(snapshot, seg)
			return true
		})
		t.mu.Unlock()

		return func(yield func(segment.Segment[E]) bool) {
			for _, seg := range snapshot {
				if !yield(seg) {
					return
				}
			}
		}, nil
	}
}

func inOrder[E any](n *node[E], yield func(segment.Segment[E]) bool) bool {
	if n == nil {
		return true
	}
	return inOrder(n.left, yield) && yield(n.seg) && inOrder(n.right, yield)
}

// Stats returns statistics about the tree.
func (t *Tree[E]) Stats() index.Stats {
	st := index.Stats{
		Len:   t.Len(),
		State: t.State(),
	}
	if st.State == index.StateQueryable {
		st.Depth = height(t.published.Load())
	}
	return st
}

// Dispose releases the tree. Idempotent.
func (t *Tree[E]) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.State() == index.StateDisposed {
		return
	}
	t.state.Store(int32(index.StateDisposed))
	t.root = nil
	t.published.Store(nil)
	t.size.Store(0)
}
