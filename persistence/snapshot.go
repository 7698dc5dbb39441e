package persistence

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"iter"

	"github.com/Spiritus2424/segstore/blobstore"
	"github.com/Spiritus2424/segstore/codec"
	"github.com/Spiritus2424/segstore/index"
	"github.com/Spiritus2424/segstore/segment"
)

// maxPreallocRecords bounds the slice capacity reserved from the count
// declared in a snapshot header.
const maxPreallocRecords = 1 << 20

// record is the on-disk shape of one segment.
type record[E any] struct {
	Start   segment.Position `json:"s"`
	End     segment.Position `json:"e"`
	Payload E                `json:"p"`
}

// WriteOptions selects how a snapshot is encoded.
type WriteOptions struct {
	Codec       codec.Codec
	Compression string
}

func (o WriteOptions) withDefaults() WriteOptions {
	if o.Codec == nil {
		o.Codec = codec.Default
	}
	if o.Compression == "" {
		o.Compression = DefaultCompression
	}
	return o
}

// Contents is a decoded snapshot.
type Contents[E any] struct {
	Kind     index.Kind
	Segments []segment.Segment[E]
}

// WriteSnapshot streams a self-describing snapshot to w.
//
// The count must match the number of segments the sequence yields; it is
// written up front so readers can preallocate.
func WriteSnapshot[E any](ctx context.Context, w io.Writer, kind index.Kind, count int, segs iter.Seq[segment.Segment[E]], opts WriteOptions) error {
	opts = opts.withDefaults()

	h := header{
		Kind:        kind,
		Codec:       opts.Codec.Name(),
		Compression: opts.Compression,
		Count:       uint64(count),
	}

	// The checksum covers the header and the compressed record section;
	// the trailer carries the section length and CRC32 for verification
	// on load.
	crc := crc32.NewIEEE()
	if err := h.write(io.MultiWriter(w, crc)); err != nil {
		return fmt.Errorf("persistence: write header: %w", err)
	}
	counted := &countingWriter{w: io.MultiWriter(w, crc)}

	cw, err := newCompressor(opts.Compression, counted)
	if err != nil {
		return err
	}

	written := 0
	for seg := range segs {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := opts.Codec.Marshal(record[E]{Start: seg.Start, End: seg.End, Payload: seg.Payload})
		if err != nil {
			return fmt.Errorf("persistence: encode segment: %w", err)
		}

		var frame [4]byte
		binary.LittleEndian.PutUint32(frame[:], uint32(len(data)))
		if _, err := cw.Write(frame[:]); err != nil {
			return err
		}
		if _, err := cw.Write(data); err != nil {
			return err
		}
		written++
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("persistence: flush compressor: %w", err)
	}

	if written != count {
		return fmt.Errorf("persistence: segment count changed during snapshot: declared %d, wrote %d", count, written)
	}

	t := trailer{PayloadLen: uint64(counted.n), CRC: crc.Sum32()}
	if err := t.write(w); err != nil {
		return fmt.Errorf("persistence: write trailer: %w", err)
	}
	return nil
}

// ReadSnapshot decodes a snapshot from a random-access blob, verifying the
// checksum before decoding any record.
func ReadSnapshot[E any](ctx context.Context, blob blobstore.Blob) (*Contents[E], error) {
	size := blob.Size()

	t, err := readTrailer(blob, size)
	if err != nil {
		return nil, err
	}

	h, err := readHeader(io.NewSectionReader(blob, 0, size-trailerSize))
	if err != nil {
		return nil, err
	}

	payloadStart := h.size()
	payloadEnd := size - trailerSize
	if payloadEnd-payloadStart != int64(t.PayloadLen) {
		return nil, fmt.Errorf("%w: payload length %d, expected %d", ErrTruncated, payloadEnd-payloadStart, t.PayloadLen)
	}

	// Verify before decode so a corrupt snapshot never yields partial
	// data. The checksum spans the header too, so no header field is
	// trusted unauthenticated.
	crc := crc32.NewIEEE()
	if _, err := io.Copy(crc, io.NewSectionReader(blob, 0, payloadEnd)); err != nil {
		return nil, err
	}
	if crc.Sum32() != t.CRC {
		return nil, ErrChecksum
	}

	c, ok := codec.ByName(h.Codec)
	if !ok {
		return nil, fmt.Errorf("persistence: unknown codec %q", h.Codec)
	}
	dr, err := newDecompressor(h.Compression, io.NewSectionReader(blob, payloadStart, payloadEnd-payloadStart))
	if err != nil {
		return nil, err
	}

	// Cap the preallocation; the slice grows normally if the snapshot
	// really holds more records than the hint.
	capHint := h.Count
	if capHint > maxPreallocRecords {
		capHint = maxPreallocRecords
	}
	out := &Contents[E]{
		Kind:     h.Kind,
		Segments: make([]segment.Segment[E], 0, capHint),
	}
	var frame [4]byte
	var buf []byte
	for i := uint64(0); i < h.Count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(dr, frame[:]); err != nil {
			return nil, fmt.Errorf("%w: record %d: %s", ErrTruncated, i, err)
		}
		n := binary.LittleEndian.Uint32(frame[:])
		if uint32(cap(buf)) < n {
			buf = make([]byte, n)
		}
		buf = buf[:n]
		if _, err := io.ReadFull(dr, buf); err != nil {
			return nil, fmt.Errorf("%w: record %d: %s", ErrTruncated, i, err)
		}

		var rec record[E]
		if err := c.Unmarshal(buf, &rec); err != nil {
			return nil, fmt.Errorf("persistence: decode record %d: %w", i, err)
		}
		seg, err := segment.New(rec.Start, rec.End, rec.Payload)
		if err != nil {
			return nil, fmt.Errorf("persistence: record %d: %w", i, err)
		}
		out.Segments = append(out.Segments, seg)
	}

	return out, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
