// Package s3 implements blobstore.BlobStore on S3-compatible object storage.
//
// Snapshots are written through the SDK upload manager so large segment
// sets stream as multipart uploads instead of buffering in memory.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/Spiritus2424/segstore/blobstore"
)

// Client is the subset of the S3 API the store depends on.
// *s3.Client satisfies it; tests substitute a fake.
type Client interface {
	manager.UploadAPIClient

	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Options configures the store.
type Options struct {
	// Prefix is prepended to every key (e.g. "traces/session-42/").
	Prefix string

	// PartSize is the multipart upload part size. Default 8MB.
	PartSize int64

	// UploadConcurrency is the number of concurrent part uploads. Default 5.
	UploadConcurrency int

	// DeleteConcurrency bounds concurrent deletes in DeleteAll. Default 8.
	DeleteConcurrency int
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		PartSize:          8 * 1024 * 1024,
		UploadConcurrency: 5,
		DeleteConcurrency: 8,
	}
}

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	opts     Options
}

// Compile-time check against the blobstore contract.
var _ blobstore.BlobStore = (*Store)(nil)

// New creates a store using the ambient AWS configuration.
func New(ctx context.Context, bucket string, optFns ...func(o *Options)) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(cfg), bucket, optFns...), nil
}

// NewWithClient creates a store with an explicit client.
func NewWithClient(client Client, bucket string, optFns ...func(o *Options)) *Store {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = opts.PartSize
		u.Concurrency = opts.UploadConcurrency
	})

	return &Store{
		client:   client,
		uploader: uploader,
		bucket:   bucket,
		opts:     opts,
	}
}

func (s *Store) key(name string) string {
	return path.Join(s.opts.Prefix, name)
}

// Open opens a blob for reading.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("blob %q: %w", name, blobstore.ErrNotFound)
		}
		return nil, err
	}

	return &s3Blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// Put streams the content of r to the object under name.
func (s *Store) Put(ctx context.Context, name string, r io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("s3: upload %q: %w", name, err)
	}
	return nil
}

// Delete removes a blob. Missing blobs are not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns blob names starting with prefix, sorted.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.key(prefix)

	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(fullPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			names = append(names, s.trimPrefix(aws.ToString(obj.Key)))
		}
	}
	sort.Strings(names)
	return names, nil
}

// DeleteAll removes every blob under prefix, deleting concurrently.
// Used to clear partial session artifacts when a store closes without
// persisting.
func (s *Store) DeleteAll(ctx context.Context, prefix string) error {
	names, err := s.List(ctx, prefix)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.DeleteConcurrency)
	for _, name := range names {
		g.Go(func() error {
			return s.Delete(ctx, name)
		})
	}
	return g.Wait()
}

func (s *Store) trimPrefix(key string) string {
	if s.opts.Prefix == "" {
		return key
	}
	trimmed := key
	if len(trimmed) > len(s.opts.Prefix) && trimmed[:len(s.opts.Prefix)] == s.opts.Prefix {
		trimmed = trimmed[len(s.opts.Prefix):]
		if len(trimmed) > 0 && trimmed[0] == '/' {
			trimmed = trimmed[1:]
		}
	}
	return trimmed
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}

// s3Blob reads object content with ranged GETs.
type s3Blob struct {
	client Client
	bucket string
	key    string
	size   int64
}

func (b *s3Blob) Close() error { return nil }

func (b *s3Blob) Size() int64 { return b.size }

func (b *s3Blob) ReadAt(p []byte, off int64) (int, error) {
	if off >= b.size {
		return 0, io.EOF
	}

	end := off + int64(len(p)) - 1
	if end >= b.size {
		end = b.size - 1
	}

	resp, err := b.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.ReadFull(resp.Body, p)
	if err == io.ErrUnexpectedEOF || (err == nil && int64(n) < int64(len(p))) {
		if off+int64(n) >= b.size {
			return n, io.EOF
		}
	}
	return n, err
}
