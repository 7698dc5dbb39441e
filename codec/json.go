package codec

import "encoding/json"

// JSON is the standard-library JSON codec.
//
// It is the most portable option for arbitrary user payloads; anything the
// encoding/json package cannot represent (channels, funcs, cyclic values)
// cannot be persisted with it.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used when none is configured.
//
// This only affects newly-written snapshots; existing files are opened with
// the codec named in their header.
var Default Codec = GoJSON{}
