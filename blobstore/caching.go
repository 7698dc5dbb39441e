package blobstore

import (
	"context"
	"errors"
	"io"

	"github.com/Spiritus2424/segstore/internal/blockcache"
)

// CachingStore wraps a BlobStore with block-level read caching.
//
// Intended for remote backends where every ReadAt is a network round trip;
// snapshot loads read headers and trailers repeatedly, which the cache
// absorbs. Writes invalidate the cached blocks of the affected blob.
type CachingStore struct {
	inner     BlobStore
	cache     *blockcache.Cache
	blockSize int64
}

// NewCachingStore wraps inner with a cache of capacity bytes.
// blockSize defaults to 64KB if <= 0.
func NewCachingStore(inner BlobStore, capacity, blockSize int64) *CachingStore {
	if blockSize <= 0 {
		blockSize = 64 * 1024
	}
	return &CachingStore{
		inner:     inner,
		cache:     blockcache.New(capacity),
		blockSize: blockSize,
	}
}

// Open opens a blob whose reads go through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{
		inner:     b,
		cache:     s.cache,
		name:      name,
		blockSize: s.blockSize,
	}, nil
}

// Put stores a blob and invalidates its cached blocks.
func (s *CachingStore) Put(ctx context.Context, name string, r io.Reader) error {
	s.cache.InvalidateName(name)
	return s.inner.Put(ctx, name, r)
}

// Delete removes a blob and invalidates its cached blocks.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.cache.InvalidateName(name)
	return s.inner.Delete(ctx, name)
}

// List returns blob names starting with prefix.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// CacheStats returns block cache hit and miss counters.
func (s *CachingStore) CacheStats() (hits, misses int64) {
	return s.cache.Stats()
}

type cachingBlob struct {
	inner     Blob
	cache     *blockcache.Cache
	name      string
	blockSize int64
}

func (b *cachingBlob) Close() error { return b.inner.Close() }

func (b *cachingBlob) Size() int64 { return b.inner.Size() }

func (b *cachingBlob) ReadAt(p []byte, off int64) (int, error) {
	size := b.inner.Size()
	if off >= size {
		return 0, io.EOF
	}

	want := len(p)
	if off+int64(want) > size {
		p = p[:size-off]
	}

	total := 0
	for total < len(p) {
		pos := off + int64(total)
		blk := pos / b.blockSize

		data, err := b.block(blk)
		if err != nil {
			return total, err
		}
		srcOff := pos - blk*b.blockSize
		if srcOff >= int64(len(data)) {
			break
		}
		total += copy(p[total:], data[srcOff:])
	}

	if total < want {
		return total, io.EOF
	}
	return total, nil
}

func (b *cachingBlob) block(blk int64) ([]byte, error) {
	key := blockcache.Key{Name: b.name, Block: blk}
	if data, ok := b.cache.Get(key); ok {
		return data, nil
	}

	buf := make([]byte, b.blockSize)
	n, err := b.inner.ReadAt(buf, blk*b.blockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	data := buf[:n]
	if n > 0 {
		b.cache.Set(key, data)
	}
	return data, nil
}
