// Package resource throttles the store's background IO.
//
// Snapshot writes and blob uploads happen while interactive queries are
// being served; the controller bounds how many persistence jobs run at once
// and how fast they are allowed to write, so persistence never starves the
// query path.
package resource

import (
	"context"
	"io"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxPersistJobs is the maximum number of concurrent persistence jobs.
	// If 0, defaults to 1.
	MaxPersistJobs int64

	// IOLimitBytesPerSec caps the write throughput of persistence jobs.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller gates persistence concurrency and IO throughput.
type Controller struct {
	jobs      *semaphore.Weighted
	ioLimiter *rate.Limiter // nil if unlimited
	ioWritten atomic.Int64
}

// NewController creates a controller with the given limits.
func NewController(cfg Config) *Controller {
	if cfg.MaxPersistJobs <= 0 {
		cfg.MaxPersistJobs = 1
	}
	c := &Controller{
		jobs: semaphore.NewWeighted(cfg.MaxPersistJobs),
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}
	return c
}

// AcquireJob blocks until a persistence job slot is available or ctx is done.
// The returned release function must be called exactly once.
func (c *Controller) AcquireJob(ctx context.Context) (func(), error) {
	if c == nil {
		return func() {}, nil
	}
	if err := c.jobs.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { c.jobs.Release(1) }, nil
}

// BytesWritten reports the total bytes accounted through throttled writers.
func (c *Controller) BytesWritten() int64 {
	if c == nil {
		return 0
	}
	return c.ioWritten.Load()
}

// ThrottleWriter wraps w so writes respect the IO limit.
// With no limit configured, w is returned unchanged apart from accounting.
func (c *Controller) ThrottleWriter(ctx context.Context, w io.Writer) io.Writer {
	if c == nil {
		return w
	}
	return &throttledWriter{ctx: ctx, c: c, w: w}
}

type throttledWriter struct {
	ctx context.Context
	c   *Controller
	w   io.Writer
}

func (tw *throttledWriter) Write(p []byte) (int, error) {
	if tw.c.ioLimiter == nil {
		n, err := tw.w.Write(p)
		tw.c.ioWritten.Add(int64(n))
		return n, err
	}

	written := 0
	for len(p) > 0 {
		// A reservation cannot exceed the limiter burst.
		chunk := p
		if burst := tw.c.ioLimiter.Burst(); len(chunk) > burst {
			chunk = chunk[:burst]
		}
		if err := tw.c.ioLimiter.WaitN(tw.ctx, len(chunk)); err != nil {
			return written, err
		}
		n, err := tw.w.Write(chunk)
		written += n
		tw.c.ioWritten.Add(int64(n))
		if err != nil {
			return written, err
		}
		p = p[n:]
	}
	return written, nil
}
