package persistence

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Spiritus2424/segstore/index"
)

const (
	// MagicNumber identifies segment snapshot files (ASCII: "SEG1").
	MagicNumber = 0x53454731
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000

	// trailerSize is the fixed footer: payload length + CRC32.
	trailerSize = 8 + 4
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrInvalidIndex   = errors.New("invalid index kind")
	ErrChecksum       = errors.New("checksum mismatch")
	ErrTruncated      = errors.New("truncated snapshot")
)

// header is the variable-length preamble of every snapshot.
//
// Layout (little endian):
//
//	magic     uint32
//	version   uint32
//	kind      uint8
//	codecLen  uint8, codec name bytes
//	compLen   uint8, compression name bytes
//	count     uint64
//
// The record section follows immediately; the file ends with a fixed
// trailer holding the record section length and a CRC32 covering both the
// header and the record section, so readers with random access can verify
// integrity before decoding or trusting any header field.
type header struct {
	Kind        index.Kind
	Codec       string
	Compression string
	Count       uint64
}

func (h header) size() int64 {
	return 4 + 4 + 1 + 1 + int64(len(h.Codec)) + 1 + int64(len(h.Compression)) + 8
}

func (h header) write(w io.Writer) error {
	if len(h.Codec) > 255 || len(h.Compression) > 255 {
		return fmt.Errorf("persistence: name too long")
	}

	var buf [4]byte

	binary.LittleEndian.PutUint32(buf[:], MagicNumber)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(buf[:], Version)
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	if _, err := w.Write([]byte{byte(h.Kind)}); err != nil {
		return err
	}
	if err := writeName(w, h.Codec); err != nil {
		return err
	}
	if err := writeName(w, h.Compression); err != nil {
		return err
	}

	var cnt [8]byte
	binary.LittleEndian.PutUint64(cnt[:], h.Count)
	_, err := w.Write(cnt[:])
	return err
}

func readHeader(r io.Reader) (header, error) {
	var h header

	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return h, fmt.Errorf("%w: %s", ErrTruncated, err)
	}
	if binary.LittleEndian.Uint32(buf[:]) != MagicNumber {
		return h, ErrInvalidMagic
	}
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return h, fmt.Errorf("%w: %s", ErrTruncated, err)
	}
	if binary.LittleEndian.Uint32(buf[:]) != Version {
		return h, ErrInvalidVersion
	}

	var kind [1]byte
	if _, err := io.ReadFull(r, kind[:]); err != nil {
		return h, fmt.Errorf("%w: %s", ErrTruncated, err)
	}
	h.Kind = index.Kind(kind[0])
	if !h.Kind.Valid() {
		return h, fmt.Errorf("%w: %d", ErrInvalidIndex, kind[0])
	}

	var err error
	if h.Codec, err = readName(r); err != nil {
		return h, err
	}
	if h.Compression, err = readName(r); err != nil {
		return h, err
	}

	var cnt [8]byte
	if _, err := io.ReadFull(r, cnt[:]); err != nil {
		return h, fmt.Errorf("%w: %s", ErrTruncated, err)
	}
	h.Count = binary.LittleEndian.Uint64(cnt[:])

	return h, nil
}

func writeName(w io.Writer, name string) error {
	if _, err := w.Write([]byte{byte(len(name))}); err != nil {
		return err
	}
	_, err := io.WriteString(w, name)
	return err
}

func readName(r io.Reader) (string, error) {
	var n [1]byte
	if _, err := io.ReadFull(r, n[:]); err != nil {
		return "", fmt.Errorf("%w: %s", ErrTruncated, err)
	}
	buf := make([]byte, n[0])
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: %s", ErrTruncated, err)
	}
	return string(buf), nil
}

type trailer struct {
	PayloadLen uint64
	CRC        uint32
}

func (t trailer) write(w io.Writer) error {
	var buf [trailerSize]byte
	binary.LittleEndian.PutUint64(buf[:8], t.PayloadLen)
	binary.LittleEndian.PutUint32(buf[8:], t.CRC)
	_, err := w.Write(buf[:])
	return err
}

func readTrailer(r io.ReaderAt, size int64) (trailer, error) {
	var t trailer
	if size < trailerSize {
		return t, ErrTruncated
	}

	var buf [trailerSize]byte
	if _, err := r.ReadAt(buf[:], size-trailerSize); err != nil {
		return t, err
	}
	t.PayloadLen = binary.LittleEndian.Uint64(buf[:8])
	t.CRC = binary.LittleEndian.Uint32(buf[8:])
	return t, nil
}
