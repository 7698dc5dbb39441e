// Package codec centralizes payload encoding for persisted snapshots.
//
// Snapshot files are self-describing: they record the codec name in their
// header, and the reader selects the codec by that name. Changing the
// default codec therefore never breaks existing files, but a codec name
// must keep decoding the bytes it once produced.
package codec

import "fmt"

// Codec encodes/decodes segment payload records.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
