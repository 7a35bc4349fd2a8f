// Package value holds the dynamically tagged primitive values produced by
// the wire decoder. A Raw is immutable once built.
package value

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/danmuck/uniondec/internal/kind"
)

var ErrKindMismatch = errors.New("value: kind mismatch")

// Raw is one decoded primitive together with the kind the decoder assigned
// to it. Scalars live in bits, String and Bytes in data.
type Raw struct {
	kind kind.Tag
	bits uint64
	data []byte
}

func Null() Raw {
	return Raw{kind: kind.Null}
}

func Bool(v bool) Raw {
	var bits uint64
	if v {
		bits = 1
	}
	return Raw{kind: kind.Boolean, bits: bits}
}

func Int32(v int32) Raw {
	return Raw{kind: kind.Int32, bits: uint64(uint32(v))}
}

func Int64(v int64) Raw {
	return Raw{kind: kind.Int64, bits: uint64(v)}
}

func Float32(v float32) Raw {
	return Raw{kind: kind.Float32, bits: uint64(math.Float32bits(v))}
}

func Float64(v float64) Raw {
	return Raw{kind: kind.Float64, bits: math.Float64bits(v)}
}

func String(v string) Raw {
	return Raw{kind: kind.String, data: []byte(v)}
}

// Bytes copies v.
func Bytes(v []byte) Raw {
	buf := make([]byte, len(v))
	copy(buf, v)
	return Raw{kind: kind.Bytes, data: buf}
}

// Kind returns the tag assigned by the decoder.
func (r Raw) Kind() kind.Tag {
	return r.kind
}

func (r Raw) IsNull() bool {
	return r.kind == kind.Null
}

func (r Raw) AsBool() (bool, error) {
	if r.kind != kind.Boolean {
		return false, r.mismatch(kind.Boolean)
	}
	return r.bits == 1, nil
}

func (r Raw) AsInt32() (int32, error) {
	if r.kind != kind.Int32 {
		return 0, r.mismatch(kind.Int32)
	}
	return int32(uint32(r.bits)), nil
}

func (r Raw) AsInt64() (int64, error) {
	if r.kind != kind.Int64 {
		return 0, r.mismatch(kind.Int64)
	}
	return int64(r.bits), nil
}

func (r Raw) AsFloat32() (float32, error) {
	if r.kind != kind.Float32 {
		return 0, r.mismatch(kind.Float32)
	}
	return math.Float32frombits(uint32(r.bits)), nil
}

func (r Raw) AsFloat64() (float64, error) {
	if r.kind != kind.Float64 {
		return 0, r.mismatch(kind.Float64)
	}
	return math.Float64frombits(r.bits), nil
}

func (r Raw) AsString() (string, error) {
	if r.kind != kind.String {
		return "", r.mismatch(kind.String)
	}
	return string(r.data), nil
}

// AsBytes returns a copy of the payload.
func (r Raw) AsBytes() ([]byte, error) {
	if r.kind != kind.Bytes {
		return nil, r.mismatch(kind.Bytes)
	}
	buf := make([]byte, len(r.data))
	copy(buf, r.data)
	return buf, nil
}

// Bits exposes the scalar payload bit pattern (zero for Null, String, Bytes).
func (r Raw) Bits() uint64 {
	return r.bits
}

// Equal compares kind and payload bit pattern.
func (r Raw) Equal(other Raw) bool {
	return r.kind == other.kind && r.bits == other.bits && bytes.Equal(r.data, other.data)
}

func (r Raw) String() string {
	switch r.kind {
	case kind.Null:
		return "Null"
	case kind.Boolean:
		return fmt.Sprintf("Boolean(%t)", r.bits == 1)
	case kind.Int32:
		return fmt.Sprintf("Int32(%d)", int32(uint32(r.bits)))
	case kind.Int64:
		return fmt.Sprintf("Int64(%d)", int64(r.bits))
	case kind.Float32:
		return fmt.Sprintf("Float32(%g)", math.Float32frombits(uint32(r.bits)))
	case kind.Float64:
		return fmt.Sprintf("Float64(%g)", math.Float64frombits(r.bits))
	case kind.String:
		return fmt.Sprintf("String(%q)", r.data)
	case kind.Bytes:
		return fmt.Sprintf("Bytes(%x)", r.data)
	default:
		return r.kind.String()
	}
}

// MarshalJSON renders the payload as its natural JSON value. Non-finite
// floats become strings since JSON has no literal for them.
func (r Raw) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case kind.Null:
		return []byte("null"), nil
	case kind.Boolean:
		return strconv.AppendBool(nil, r.bits == 1), nil
	case kind.Int32:
		return strconv.AppendInt(nil, int64(int32(uint32(r.bits))), 10), nil
	case kind.Int64:
		return strconv.AppendInt(nil, int64(r.bits), 10), nil
	case kind.Float32:
		return marshalFloat(float64(math.Float32frombits(uint32(r.bits))), 32)
	case kind.Float64:
		return marshalFloat(math.Float64frombits(r.bits), 64)
	case kind.String:
		return json.Marshal(string(r.data))
	case kind.Bytes:
		return json.Marshal(base64.StdEncoding.EncodeToString(r.data))
	default:
		return nil, fmt.Errorf("value: cannot marshal %s", r.kind)
	}
}

func marshalFloat(f float64, bitSize int) ([]byte, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return json.Marshal(strconv.FormatFloat(f, 'g', -1, bitSize))
	}
	return strconv.AppendFloat(nil, f, 'g', -1, bitSize), nil
}

func (r Raw) mismatch(want kind.Tag) error {
	return fmt.Errorf("%w: have %s, want %s", ErrKindMismatch, r.kind, want)
}
