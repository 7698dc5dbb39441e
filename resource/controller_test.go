package resource_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Spiritus2424/segstore/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireJobSerializesByDefault(t *testing.T) {
	c := resource.NewController(resource.Config{})
	ctx := context.Background()

	release, err := c.AcquireJob(ctx)
	require.NoError(t, err)

	// A second job must not get a slot while the first holds it.
	blocked, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = c.AcquireJob(blocked)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	release()

	release2, err := c.AcquireJob(ctx)
	require.NoError(t, err)
	release2()
}

func TestNilControllerIsUnlimited(t *testing.T) {
	var c *resource.Controller

	release, err := c.AcquireJob(context.Background())
	require.NoError(t, err)
	release()

	var buf bytes.Buffer
	w := c.ThrottleWriter(context.Background(), &buf)
	_, err = w.Write([]byte("data"))
	require.NoError(t, err)
	assert.Equal(t, "data", buf.String())
}

func TestThrottleWriterAccountsBytes(t *testing.T) {
	c := resource.NewController(resource.Config{MaxPersistJobs: 2})

	var buf bytes.Buffer
	w := c.ThrottleWriter(context.Background(), &buf)

	payload := bytes.Repeat([]byte("s"), 1024)
	n, err := w.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, int64(len(payload)), c.BytesWritten())
}

func TestThrottleWriterRespectsContext(t *testing.T) {
	// 1 byte/sec: the second write must block and then fail on cancel.
	c := resource.NewController(resource.Config{IOLimitBytesPerSec: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	w := c.ThrottleWriter(ctx, &buf)

	_, _ = w.Write([]byte("a"))
	_, err := w.Write([]byte("b"))
	assert.Error(t, err)
}
