package segstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAdd is called after each add operation.
	// duration is the total time taken, err is nil if successful.
	RecordAdd(duration time.Duration, err error)

	// RecordBatchAdd is called after each batch add operation.
	// count is the number of segments attempted.
	RecordBatchAdd(count int, duration time.Duration, err error)

	// RecordQuery is called after each intersection query.
	// results is the number of segments returned.
	RecordQuery(results int, duration time.Duration, err error)

	// RecordFinalize is called after the store transitions to queryable.
	RecordFinalize(count int, duration time.Duration, err error)

	// RecordPersist is called after a snapshot write on close.
	RecordPersist(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)           {}
func (NoopMetricsCollector) RecordBatchAdd(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordQuery(int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordFinalize(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordPersist(time.Duration, error)       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount        atomic.Int64
	AddErrors       atomic.Int64
	AddTotalNanos   atomic.Int64
	BatchAddCount   atomic.Int64
	BatchAddItems   atomic.Int64
	BatchAddErrors  atomic.Int64
	QueryCount      atomic.Int64
	QueryErrors     atomic.Int64
	QueryResults    atomic.Int64
	QueryTotalNanos atomic.Int64
	FinalizeCount   atomic.Int64
	FinalizeItems   atomic.Int64
	FinalizeErrors  atomic.Int64
	FinalizeNanos   atomic.Int64
	PersistCount    atomic.Int64
	PersistErrors   atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordBatchAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchAdd(count int, duration time.Duration, err error) {
	b.BatchAddCount.Add(1)
	b.BatchAddItems.Add(int64(count))
	if err != nil {
		b.BatchAddErrors.Add(1)
	}
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(results int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryResults.Add(int64(results))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordFinalize implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFinalize(count int, duration time.Duration, err error) {
	b.FinalizeCount.Add(1)
	b.FinalizeItems.Add(int64(count))
	b.FinalizeNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FinalizeErrors.Add(1)
	}
}

// RecordPersist implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPersist(duration time.Duration, err error) {
	b.PersistCount.Add(1)
	if err != nil {
		b.PersistErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:       b.AddCount.Load(),
		AddErrors:      b.AddErrors.Load(),
		AddAvgNanos:    avg(b.AddTotalNanos.Load(), b.AddCount.Load()),
		BatchAddCount:  b.BatchAddCount.Load(),
		BatchAddItems:  b.BatchAddItems.Load(),
		BatchAddErrors: b.BatchAddErrors.Load(),
		QueryCount:     b.QueryCount.Load(),
		QueryErrors:    b.QueryErrors.Load(),
		QueryResults:   b.QueryResults.Load(),
		QueryAvgNanos:  avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
		FinalizeCount:  b.FinalizeCount.Load(),
		FinalizeItems:  b.FinalizeItems.Load(),
		FinalizeErrors: b.FinalizeErrors.Load(),
		PersistCount:   b.PersistCount.Load(),
		PersistErrors:  b.PersistErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount       int64
	AddErrors      int64
	AddAvgNanos    int64
	BatchAddCount  int64
	BatchAddItems  int64
	BatchAddErrors int64
	QueryCount     int64
	QueryErrors    int64
	QueryResults   int64
	QueryAvgNanos  int64
	FinalizeCount  int64
	FinalizeItems  int64
	FinalizeErrors int64
	PersistCount   int64
	PersistErrors  int64
}
