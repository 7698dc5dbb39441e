// Package field provides the closed set of typed field values produced by
// trace format adapters (integer, string, integer-array, float).
//
// Segment payloads are opaque to the index; field.Value exists so that
// adapter output can be attached to segments and survive the snapshot
// round-trip without the store knowing anything about trace record formats.
package field

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindInt represents a signed integer value.
	KindInt
	// KindString represents a string value.
	KindString
	// KindIntArray represents an array of signed integers.
	KindIntArray
	// KindFloat represents a floating-point value.
	KindFloat
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindString:
		return "string"
	case KindIntArray:
		return "int-array"
	case KindFloat:
		return "float"
	default:
		return "invalid"
	}
}

// Value is a small typed field value.
//
// The representation is a tagged struct rather than an interface so that
// values round-trip through any codec without custom registration.
// NOTE: This is used for persistence; keep it stable.
type Value struct {
	Kind Kind    `json:"k"`
	I64  int64   `json:"i,omitempty"`
	S    string  `json:"s,omitempty"`
	IA   []int64 `json:"ia,omitempty"`
	F64  float64 `json:"f,omitempty"`
}

// Int constructs an integer value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// String constructs a string value.
func String(v string) Value { return Value{Kind: KindString, S: v} }

// IntArray constructs an integer-array value. The slice is copied.
func IntArray(v []int64) Value {
	cp := make([]int64, len(v))
	copy(cp, v)
	return Value{Kind: KindIntArray, IA: cp}
}

// Float constructs a floating-point value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// ErrUnsupportedType is a named error type for raw values outside the
// closed set of field kinds.
type ErrUnsupportedType struct {
	Raw any
}

// Error returns the error message for an unsupported raw value.
func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported field value type %T", e.Raw)
}

// Parse maps a raw decoded value onto the closed set of field kinds.
//
// Integer widths are widened to int64, byte slices are treated as UTF-8
// strings, and empty sequences map to the empty string, matching the
// behavior of the upstream format adapters.
func Parse(raw any) (Value, error) {
	switch v := raw.(type) {
	case int64:
		return Int(v), nil
	case int:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case string:
		return String(v), nil
	case []byte:
		return String(string(v)), nil
	case []int64:
		if len(v) == 0 {
			return String(""), nil
		}
		return IntArray(v), nil
	case float64:
		return Float(v), nil
	case float32:
		return Float(float64(v)), nil
	default:
		return Value{}, &ErrUnsupportedType{Raw: raw}
	}
}

// Format renders the value for display.
func (v Value) Format() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindString:
		return v.S
	case KindIntArray:
		parts := make([]string, len(v.IA))
		for i, n := range v.IA {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	default:
		return "<invalid>"
	}
}

// Equal reports deep value equality.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.I64 == other.I64
	case KindString:
		return v.S == other.S
	case KindIntArray:
		if len(v.IA) != len(other.IA) {
			return false
		}
		for i := range v.IA {
			if v.IA[i] != other.IA[i] {
				return false
			}
		}
		return true
	case KindFloat:
		return v.F64 == other.F64
	default:
		return true
	}
}
