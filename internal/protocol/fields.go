package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/uniondec/internal/kind"
	"github.com/danmuck/uniondec/internal/protocol/tlv"
	"github.com/danmuck/uniondec/internal/value"
)

// FieldOf encodes raw as a tlv field tagged with raw's kind.
func FieldOf(id uint16, raw value.Raw) (tlv.Field, error) {
	payload, err := EncodeValue(raw)
	if err != nil {
		return tlv.Field{}, fmt.Errorf("protocol: field %d: %w", id, err)
	}
	return tlv.Field{ID: id, Kind: raw.Kind(), Value: payload}, nil
}

// MustFieldOf is FieldOf for values known to be valid.
func MustFieldOf(id uint16, raw value.Raw) tlv.Field {
	f, err := FieldOf(id, raw)
	if err != nil {
		panic(err)
	}
	return f
}

// EncodeValue returns the payload bytes for raw.
func EncodeValue(raw value.Raw) ([]byte, error) {
	switch raw.Kind() {
	case kind.Null:
		return nil, nil
	case kind.Boolean:
		return []byte{byte(raw.Bits())}, nil
	case kind.Int32:
		v, _ := raw.AsInt32()
		return binary.AppendVarint(nil, int64(v)), nil
	case kind.Int64:
		v, _ := raw.AsInt64()
		return binary.AppendVarint(nil, v), nil
	case kind.Float32:
		return binary.LittleEndian.AppendUint32(nil, uint32(raw.Bits())), nil
	case kind.Float64:
		return binary.LittleEndian.AppendUint64(nil, raw.Bits()), nil
	case kind.String:
		s, _ := raw.AsString()
		return []byte(s), nil
	case kind.Bytes:
		return raw.AsBytes()
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, raw.Kind())
	}
}

// DecodeValue decodes a field's payload according to the field's own kind.
func DecodeValue(f tlv.Field) (value.Raw, error) {
	raw, err := DecodePayload(f.Kind, f.Value)
	if err != nil {
		return value.Raw{}, fmt.Errorf("protocol: field %d: %w", f.ID, err)
	}
	return raw, nil
}

// DecodePayload decodes payload as kind k. The bytes are never inspected to
// guess a kind.
func DecodePayload(k kind.Tag, payload []byte) (value.Raw, error) {
	switch k {
	case kind.Null:
		if len(payload) != 0 {
			return value.Raw{}, ErrInvalidLength
		}
		return value.Null(), nil
	case kind.Boolean:
		if len(payload) != 1 {
			return value.Raw{}, ErrInvalidLength
		}
		switch payload[0] {
		case 0:
			return value.Bool(false), nil
		case 1:
			return value.Bool(true), nil
		default:
			return value.Raw{}, ErrInvalidBool
		}
	case kind.Int32:
		v, err := readVarint(payload)
		if err != nil {
			return value.Raw{}, err
		}
		if v < math.MinInt32 || v > math.MaxInt32 {
			return value.Raw{}, ErrIntOverflow
		}
		return value.Int32(int32(v)), nil
	case kind.Int64:
		v, err := readVarint(payload)
		if err != nil {
			return value.Raw{}, err
		}
		return value.Int64(v), nil
	case kind.Float32:
		if len(payload) != 4 {
			return value.Raw{}, ErrInvalidLength
		}
		return value.Float32(math.Float32frombits(binary.LittleEndian.Uint32(payload))), nil
	case kind.Float64:
		if len(payload) != 8 {
			return value.Raw{}, ErrInvalidLength
		}
		return value.Float64(math.Float64frombits(binary.LittleEndian.Uint64(payload))), nil
	case kind.String:
		return value.String(string(payload)), nil
	case kind.Bytes:
		return value.Bytes(payload), nil
	default:
		return value.Raw{}, fmt.Errorf("%w: %s", ErrUnknownKind, k)
	}
}

// readVarint requires the varint to span the whole payload and to be in its
// shortest form, so every accepted payload re-encodes to the same bytes.
func readVarint(payload []byte) (int64, error) {
	v, n := binary.Varint(payload)
	switch {
	case n == 0:
		return 0, ErrInvalidLength
	case n < 0:
		return 0, ErrIntOverflow
	case n != len(payload):
		return 0, ErrInvalidLength
	case n != len(binary.AppendVarint(nil, v)):
		return 0, fmt.Errorf("%w: overlong varint", ErrInvalidLength)
	}
	return v, nil
}
