package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spiritus2424/segstore/blobstore"
)

// fakeClient implements Client against an in-memory object map.
type fakeClient struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: make(map[string][]byte)}
}

func (c *fakeClient) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.objects[aws.ToString(in.Key)] = data
	c.mu.Unlock()
	return &awss3.PutObjectOutput{}, nil
}

func (c *fakeClient) CreateMultipartUpload(context.Context, *awss3.CreateMultipartUploadInput, ...func(*awss3.Options)) (*awss3.CreateMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart not supported by fake")
}

func (c *fakeClient) UploadPart(context.Context, *awss3.UploadPartInput, ...func(*awss3.Options)) (*awss3.UploadPartOutput, error) {
	return nil, fmt.Errorf("multipart not supported by fake")
}

func (c *fakeClient) CompleteMultipartUpload(context.Context, *awss3.CompleteMultipartUploadInput, ...func(*awss3.Options)) (*awss3.CompleteMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart not supported by fake")
}

func (c *fakeClient) AbortMultipartUpload(context.Context, *awss3.AbortMultipartUploadInput, ...func(*awss3.Options)) (*awss3.AbortMultipartUploadOutput, error) {
	return nil, fmt.Errorf("multipart not supported by fake")
}

func (c *fakeClient) HeadObject(_ context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &awss3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (c *fakeClient) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}

	body := data
	if rng := aws.ToString(in.Range); rng != "" {
		var start, end int64
		spec := strings.TrimPrefix(rng, "bytes=")
		parts := strings.SplitN(spec, "-", 2)
		start, _ = strconv.ParseInt(parts[0], 10, 64)
		end, _ = strconv.ParseInt(parts[1], 10, 64)
		if end >= int64(len(data)) {
			end = int64(len(data)) - 1
		}
		body = data[start : end+1]
	}
	return &awss3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: aws.Int64(int64(len(body))),
	}, nil
}

func (c *fakeClient) DeleteObject(_ context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	c.mu.Lock()
	delete(c.objects, aws.ToString(in.Key))
	c.mu.Unlock()
	return &awss3.DeleteObjectOutput{}, nil
}

func (c *fakeClient) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := aws.ToString(in.Prefix)
	var contents []types.Object
	for key := range c.objects {
		if strings.HasPrefix(key, prefix) {
			contents = append(contents, types.Object{Key: aws.String(key)})
		}
	}
	return &awss3.ListObjectsV2Output{Contents: contents}, nil
}

func newTestStore(t *testing.T) (*Store, *fakeClient) {
	t.Helper()
	client := newFakeClient()
	store := NewWithClient(client, "snapshots", func(o *Options) {
		o.Prefix = "sessions"
	})
	return store, client
}

func TestPutOpenRoundTrip(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	payload := []byte("segment snapshot payload")
	require.NoError(t, store.Put(ctx, "trace-1.seg", bytes.NewReader(payload)))

	// Keys carry the configured prefix.
	_, ok := client.objects["sessions/trace-1.seg"]
	assert.True(t, ok)

	blob, err := store.Open(ctx, "trace-1.seg")
	require.NoError(t, err)
	defer blob.Close()

	assert.Equal(t, int64(len(payload)), blob.Size())

	got, err := blobstore.ReadAll(ctx, store, "trace-1.seg")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestRangedReadAt(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "blob", bytes.NewReader([]byte("0123456789"))))

	blob, err := store.Open(ctx, "blob")
	require.NoError(t, err)
	defer blob.Close()

	buf := make([]byte, 4)
	n, err := blob.ReadAt(buf, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, "3456", string(buf))

	// Read past the end yields the tail and EOF.
	n, err = blob.ReadAt(buf, 8)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenMissing(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Open(context.Background(), "absent")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestDeleteMissingIsNoError(t *testing.T) {
	store, _ := newTestStore(t)
	assert.NoError(t, store.Delete(context.Background(), "absent"))
}

func TestListStripsPrefix(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "trace-1.seg", bytes.NewReader([]byte("a"))))
	require.NoError(t, store.Put(ctx, "trace-2.seg", bytes.NewReader([]byte("b"))))
	require.NoError(t, store.Put(ctx, "other.bin", bytes.NewReader([]byte("c"))))

	names, err := store.List(ctx, "trace-")
	require.NoError(t, err)
	assert.Equal(t, []string{"trace-1.seg", "trace-2.seg"}, names)
}

func TestDeleteAll(t *testing.T) {
	store, client := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("trace-%d.seg", i)
		require.NoError(t, store.Put(ctx, name, bytes.NewReader([]byte("x"))))
	}
	require.NoError(t, store.Put(ctx, "keep.bin", bytes.NewReader([]byte("y"))))

	require.NoError(t, store.DeleteAll(ctx, "trace-"))

	client.mu.Lock()
	defer client.mu.Unlock()
	assert.Len(t, client.objects, 1)
	_, ok := client.objects["sessions/keep.bin"]
	assert.True(t, ok)
}
