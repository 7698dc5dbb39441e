package segstore

import (
	"context"
	"log/slog"
	"os"

	"github.com/Spiritus2424/segstore/segment"
)

// Logger wraps slog.Logger with segstore-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithStore adds a store name field to the logger.
func (l *Logger) WithStore(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", name),
	}
}

// LogAdd logs a single segment addition.
func (l *Logger) LogAdd(ctx context.Context, start, end segment.Position, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"start", int64(start),
			"end", int64(end),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"start", int64(start),
			"end", int64(end),
		)
	}
}

// LogBatchAdd logs a batch addition.
func (l *Logger) LogBatchAdd(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch add failed",
			"count", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "batch add completed",
			"count", count,
		)
	}
}

// LogQuery logs an intersection query.
func (l *Logger) LogQuery(ctx context.Context, start, end segment.Position, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"start", int64(start),
			"end", int64(end),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"start", int64(start),
			"end", int64(end),
			"results", results,
		)
	}
}

// LogFinalize logs the transition out of the building phase.
func (l *Logger) LogFinalize(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "finalize failed",
			"count", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "finalize completed",
			"count", count,
		)
	}
}

// LogPersist logs a snapshot write on close.
func (l *Logger) LogPersist(ctx context.Context, destination string, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "persist failed",
			"destination", destination,
			"count", count,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "persist completed",
			"destination", destination,
			"count", count,
		)
	}
}

// LogDispose logs resource release.
func (l *Logger) LogDispose(ctx context.Context) {
	l.DebugContext(ctx, "store disposed")
}
