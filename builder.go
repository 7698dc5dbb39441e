// Package segstore builder APIs.
//
// This file implements index-specific fluent builders for creating Store
// instances. Builders are immutable: each method returns a new builder with
// the updated configuration.
package segstore

import (
	"log/slog"

	"github.com/Spiritus2424/segstore/blobstore"
	"github.com/Spiritus2424/segstore/codec"
	"github.com/Spiritus2424/segstore/index"
	"github.com/Spiritus2424/segstore/index/itree"
	"github.com/Spiritus2424/segstore/index/sorted"
	"github.com/Spiritus2424/segstore/resource"
)

// Tree creates a builder for an interval-tree backed store.
//
// The tree keeps segments queryable during the building phase at the cost
// of per-insert rebalancing. Prefer it when queries interleave with
// ingestion.
//
// Example:
//
//	store, err := segstore.Tree[string]().
//	    Snapshot("./data/trace.seg").
//	    Logger(segstore.NewTextLogger(slog.LevelInfo)).
//	    Build()
func Tree[E any]() TreeBuilder[E] {
	return TreeBuilder[E]{}
}

// TreeBuilder is an immutable fluent builder for interval-tree stores.
type TreeBuilder[E any] struct {
	optFns []Option[E]
}

func (b TreeBuilder[E]) with(fn Option[E]) TreeBuilder[E] {
	optFns := make([]Option[E], len(b.optFns), len(b.optFns)+1)
	copy(optFns, b.optFns)
	b.optFns = append(optFns, fn)
	return b
}

// Codec sets the snapshot codec.
func (b TreeBuilder[E]) Codec(c codec.Codec) TreeBuilder[E] {
	return b.with(WithCodec[E](c))
}

// Compression sets the snapshot compression by name.
func (b TreeBuilder[E]) Compression(name string) TreeBuilder[E] {
	return b.with(WithCompression[E](name))
}

// Snapshot sets the local snapshot path used when closing with persistence.
func (b TreeBuilder[E]) Snapshot(path string) TreeBuilder[E] {
	return b.with(WithSnapshotPath[E](path))
}

// Blob sets a remote snapshot destination.
func (b TreeBuilder[E]) Blob(bs blobstore.BlobStore, name string) TreeBuilder[E] {
	return b.with(WithBlobStore[E](bs, name))
}

// Resource throttles snapshot I/O through the given controller.
func (b TreeBuilder[E]) Resource(c *resource.Controller) TreeBuilder[E] {
	return b.with(WithResourceController[E](c))
}

// PayloadEquals overrides payload equality for Contains.
func (b TreeBuilder[E]) PayloadEquals(eq func(a, b E) bool) TreeBuilder[E] {
	return b.with(WithPayloadEquals[E](eq))
}

// Metrics sets the metrics collector.
func (b TreeBuilder[E]) Metrics(mc MetricsCollector) TreeBuilder[E] {
	return b.with(WithMetricsCollector[E](mc))
}

// Logger sets the structured logger.
func (b TreeBuilder[E]) Logger(l *Logger) TreeBuilder[E] {
	return b.with(WithLogger[E](l))
}

// LogLevel installs a text logger at the given level.
func (b TreeBuilder[E]) LogLevel(level slog.Level) TreeBuilder[E] {
	return b.with(WithLogLevel[E](level))
}

// Build creates the store.
func (b TreeBuilder[E]) Build() (*Store[E], error) {
	return newStore(itree.New[E](), b.optFns)
}

// Sorted creates a builder for a sort-at-finalize array backed store.
//
// The array is compact and fast to finalize; queries during the building
// phase fall back to a linear scan. Prefer it for build-once workloads.
//
// Example:
//
//	store, err := segstore.Sorted[string]().Build()
func Sorted[E any]() SortedBuilder[E] {
	return SortedBuilder[E]{}
}

// SortedBuilder is an immutable fluent builder for sorted-array stores.
type SortedBuilder[E any] struct {
	optFns []Option[E]
}

func (b SortedBuilder[E]) with(fn Option[E]) SortedBuilder[E] {
	optFns := make([]Option[E], len(b.optFns), len(b.optFns)+1)
	copy(optFns, b.optFns)
	b.optFns = append(optFns, fn)
	return b
}

// Codec sets the snapshot codec.
func (b SortedBuilder[E]) Codec(c codec.Codec) SortedBuilder[E] {
	return b.with(WithCodec[E](c))
}

// Compression sets the snapshot compression by name.
func (b SortedBuilder[E]) Compression(name string) SortedBuilder[E] {
	return b.with(WithCompression[E](name))
}

// Snapshot sets the local snapshot path used when closing with persistence.
func (b SortedBuilder[E]) Snapshot(path string) SortedBuilder[E] {
	return b.with(WithSnapshotPath[E](path))
}

// Blob sets a remote snapshot destination.
func (b SortedBuilder[E]) Blob(bs blobstore.BlobStore, name string) SortedBuilder[E] {
	return b.with(WithBlobStore[E](bs, name))
}

// Resource throttles snapshot I/O through the given controller.
func (b SortedBuilder[E]) Resource(c *resource.Controller) SortedBuilder[E] {
	return b.with(WithResourceController[E](c))
}

// PayloadEquals overrides payload equality for Contains.
func (b SortedBuilder[E]) PayloadEquals(eq func(a, b E) bool) SortedBuilder[E] {
	return b.with(WithPayloadEquals[E](eq))
}

// Metrics sets the metrics collector.
func (b SortedBuilder[E]) Metrics(mc MetricsCollector) SortedBuilder[E] {
	return b.with(WithMetricsCollector[E](mc))
}

// Logger sets the structured logger.
func (b SortedBuilder[E]) Logger(l *Logger) SortedBuilder[E] {
	return b.with(WithLogger[E](l))
}

// LogLevel installs a text logger at the given level.
func (b SortedBuilder[E]) LogLevel(level slog.Level) SortedBuilder[E] {
	return b.with(WithLogLevel[E](level))
}

// Build creates the store.
func (b SortedBuilder[E]) Build() (*Store[E], error) {
	return newStore(sorted.New[E](), b.optFns)
}

// New creates a store for the given index kind using functional options.
// Most callers should prefer the fluent builders.
func New[E any](kind index.Kind, optFns ...Option[E]) (*Store[E], error) {
	var idx index.Index[E]
	switch kind {
	case index.KindTree:
		idx = itree.New[E]()
	case index.KindSorted:
		idx = sorted.New[E]()
	default:
		return nil, index.ErrUnknownKind(kind)
	}
	return newStore(idx, optFns)
}
