package persistence

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/pierrec/lz4/v4"
)

// Compression names accepted by snapshots. S2 is the default: it trades a
// little ratio for much faster decode, which dominates reopen latency.
const (
	CompressionNone = "none"
	CompressionS2   = "s2"
	CompressionLZ4  = "lz4"
)

// DefaultCompression is used when the caller does not pick one.
const DefaultCompression = CompressionS2

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func newCompressor(name string, w io.Writer) (io.WriteCloser, error) {
	switch name {
	case CompressionNone, "":
		return nopWriteCloser{w}, nil
	case CompressionS2:
		return s2.NewWriter(w), nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("persistence: unknown compression %q", name)
	}
}

func newDecompressor(name string, r io.Reader) (io.Reader, error) {
	switch name {
	case CompressionNone, "":
		return r, nil
	case CompressionS2:
		return s2.NewReader(r), nil
	case CompressionLZ4:
		return lz4.NewReader(r), nil
	default:
		return nil, fmt.Errorf("persistence: unknown compression %q", name)
	}
}
