// Package persistence writes and reloads durable segment snapshots.
//
// A snapshot is a single self-describing file: header, compressed record
// section, checksum trailer. Saves are atomic (temp file plus rename) so an
// interrupted close never corrupts a previous snapshot. Destinations are a
// local path, a blob store, or both.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"

	"github.com/Spiritus2424/segstore/blobstore"
	"github.com/Spiritus2424/segstore/codec"
	"github.com/Spiritus2424/segstore/index"
	"github.com/Spiritus2424/segstore/internal/mmap"
	"github.com/Spiritus2424/segstore/resource"
	"github.com/Spiritus2424/segstore/segment"
)

// ErrNoDestination is returned when persistence is requested but neither a
// snapshot path nor a blob destination is configured.
var ErrNoDestination = errors.New("no snapshot destination configured")

// Options configures a Manager.
type Options struct {
	// SnapshotPath is the local snapshot file path (optional).
	SnapshotPath string

	// Blob is the remote destination (optional). BlobName names the object.
	Blob     blobstore.BlobStore
	BlobName string

	// Codec serializes segment records. Defaults to codec.Default.
	Codec codec.Codec

	// Compression names the record section compression. Defaults to s2.
	Compression string

	// Controller throttles snapshot I/O. Nil means unlimited.
	Controller *resource.Controller
}

// Manager coordinates snapshot writes and loads for one store.
type Manager[E any] struct {
	opts Options
}

// NewManager creates a manager. Destinations may both be unset; Save then
// fails with ErrNoDestination, which callers surface as a configuration
// error.
func NewManager[E any](opts Options) *Manager[E] {
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Compression == "" {
		opts.Compression = DefaultCompression
	}
	return &Manager[E]{opts: opts}
}

// Configured reports whether at least one snapshot destination is set.
func (m *Manager[E]) Configured() bool {
	return m.opts.SnapshotPath != "" || (m.opts.Blob != nil && m.opts.BlobName != "")
}

// Destination describes the configured destinations, for logging.
func (m *Manager[E]) Destination() string {
	switch {
	case m.opts.SnapshotPath != "" && m.opts.Blob != nil && m.opts.BlobName != "":
		return m.opts.SnapshotPath + "+blob:" + m.opts.BlobName
	case m.opts.SnapshotPath != "":
		return m.opts.SnapshotPath
	case m.opts.Blob != nil && m.opts.BlobName != "":
		return "blob:" + m.opts.BlobName
	default:
		return ""
	}
}

// Save writes a snapshot to every configured destination. The sequence
// must be re-iterable: it is traversed once per destination.
func (m *Manager[E]) Save(ctx context.Context, kind index.Kind, count int, segs iter.Seq[segment.Segment[E]]) error {
	if !m.Configured() {
		return ErrNoDestination
	}

	release, err := m.opts.Controller.AcquireJob(ctx)
	if err != nil {
		return err
	}
	defer release()

	wopts := WriteOptions{Codec: m.opts.Codec, Compression: m.opts.Compression}

	if m.opts.SnapshotPath != "" {
		err := SaveToFile(m.opts.SnapshotPath, func(w io.Writer) error {
			return WriteSnapshot(ctx, m.opts.Controller.ThrottleWriter(ctx, w), kind, count, segs, wopts)
		})
		if err != nil {
			return fmt.Errorf("persistence: snapshot to %s: %w", m.opts.SnapshotPath, err)
		}
	}

	if m.opts.Blob != nil && m.opts.BlobName != "" {
		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(WriteSnapshot(ctx, m.opts.Controller.ThrottleWriter(ctx, pw), kind, count, segs, wopts))
		}()
		if err := m.opts.Blob.Put(ctx, m.opts.BlobName, pr); err != nil {
			pr.CloseWithError(err)
			return fmt.Errorf("persistence: snapshot to blob %q: %w", m.opts.BlobName, err)
		}
	}

	return nil
}

// Load reads the snapshot back, preferring the local file over the blob.
func (m *Manager[E]) Load(ctx context.Context) (*Contents[E], error) {
	if m.opts.SnapshotPath != "" {
		c, err := LoadFromFile[E](ctx, m.opts.SnapshotPath)
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return c, err
		}
	}
	if m.opts.Blob != nil && m.opts.BlobName != "" {
		return LoadFromBlob[E](ctx, m.opts.Blob, m.opts.BlobName)
	}
	return nil, ErrNoDestination
}

// RemoveArtifacts deletes every configured snapshot destination. Used when a
// store closes without persisting so stale snapshots do not resurrect state.
func (m *Manager[E]) RemoveArtifacts(ctx context.Context) error {
	var errs []error
	if m.opts.SnapshotPath != "" {
		if err := os.Remove(m.opts.SnapshotPath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	if m.opts.Blob != nil && m.opts.BlobName != "" {
		if err := m.opts.Blob.Delete(ctx, m.opts.BlobName); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadFromFile reads a snapshot from a local file through a memory mapping.
func LoadFromFile[E any](ctx context.Context, path string) (*Contents[E], error) {
	mapping, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer mapping.Close()

	return ReadSnapshot[E](ctx, fileBlob{mapping})
}

// LoadFromBlob reads a snapshot from a blob store.
func LoadFromBlob[E any](ctx context.Context, bs blobstore.BlobStore, name string) (*Contents[E], error) {
	blob, err := bs.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	return ReadSnapshot[E](ctx, blob)
}

// SaveToFile writes a file atomically: the content goes to a temp file in
// the target directory, is fsynced, then renamed over the target.
func SaveToFile(path string, writeFunc func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	renamed := false
	defer func() {
		_ = tmp.Close()
		if !renamed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := writeFunc(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	renamed = true

	// Best effort directory sync so the rename itself is durable.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

type fileBlob struct {
	m *mmap.Mapping
}

func (b fileBlob) ReadAt(p []byte, off int64) (int, error) { return b.m.ReadAt(p, off) }
func (b fileBlob) Close() error                            { return b.m.Close() }
func (b fileBlob) Size() int64                             { return int64(len(b.m.Bytes())) }
