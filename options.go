package segstore

import (
	"log/slog"
	"reflect"

	"github.com/Spiritus2424/segstore/blobstore"
	"github.com/Spiritus2424/segstore/codec"
	"github.com/Spiritus2424/segstore/resource"
)

type options[E any] struct {
	codec            codec.Codec
	compression      string
	metricsCollector MetricsCollector
	logger           *Logger
	snapshotPath     string
	blob             blobstore.BlobStore
	blobName         string
	controller       *resource.Controller
	payloadEquals    func(a, b E) bool
}

// Option configures store constructor/open behavior.
//
// The fluent builders (Tree, Sorted) cover the same surface; options exist
// so Open can share the configuration without a builder.
type Option[E any] func(*options[E])

// WithCodec configures the codec used for snapshot records.
//
// If nil is passed, codec.Default is used.
func WithCodec[E any](c codec.Codec) Option[E] {
	return func(o *options[E]) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCompression selects the snapshot compression by name
// (persistence.CompressionS2, CompressionLZ4, CompressionNone).
func WithCompression[E any](name string) Option[E] {
	return func(o *options[E]) {
		o.compression = name
	}
}

// WithSnapshotPath configures the local snapshot file written when the
// store closes with persistence enabled.
func WithSnapshotPath[E any](path string) Option[E] {
	return func(o *options[E]) {
		o.snapshotPath = path
	}
}

// WithBlobStore configures a remote snapshot destination. name is the
// object name within the store.
func WithBlobStore[E any](bs blobstore.BlobStore, name string) Option[E] {
	return func(o *options[E]) {
		o.blob = bs
		o.blobName = name
	}
}

// WithResourceController throttles snapshot I/O through the given
// controller. Nil disables throttling.
func WithResourceController[E any](c *resource.Controller) Option[E] {
	return func(o *options[E]) {
		o.controller = c
	}
}

// WithPayloadEquals overrides the payload equality used by Contains.
// The default is reflect.DeepEqual.
func WithPayloadEquals[E any](eq func(a, b E) bool) Option[E] {
	return func(o *options[E]) {
		o.payloadEquals = eq
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
func WithMetricsCollector[E any](mc MetricsCollector) Option[E] {
	return func(o *options[E]) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger[E any](logger *Logger) Option[E] {
	return func(o *options[E]) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel[E any](level slog.Level) Option[E] {
	return func(o *options[E]) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions[E any](optFns []Option[E]) options[E] {
	o := options[E]{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		payloadEquals: func(a, b E) bool {
			return reflect.DeepEqual(a, b)
		},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
