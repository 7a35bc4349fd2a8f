package protocol

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/danmuck/uniondec/internal/kind"
	"github.com/danmuck/uniondec/internal/protocol/frame"
	"github.com/danmuck/uniondec/internal/protocol/tlv"
	"github.com/danmuck/uniondec/internal/value"
)

func TestRoundTripEncodeDecode(t *testing.T) {
	msg := NewMessage(7, 42,
		MustFieldOf(1, value.Int64(123)),
		MustFieldOf(2, value.String("hello")),
		MustFieldOf(3, value.Null()),
		MustFieldOf(99, value.Bytes([]byte{0x01, 0x02})),
	)

	var buf bytes.Buffer
	if err := Encode(&buf, msg, frame.DefaultLimits()); err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := Decode(bytes.NewReader(buf.Bytes()), frame.DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Type() != 7 || decoded.Header.MessageID != 42 {
		t.Fatalf("unexpected header: %+v", decoded.Header)
	}

	var buf2 bytes.Buffer
	if err := Encode(&buf2, decoded, frame.DefaultLimits()); err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), buf2.Bytes()) {
		t.Fatalf("round-trip mismatch")
	}

	f, ok := decoded.Field(1)
	if !ok {
		t.Fatalf("expected field 1")
	}
	raw, err := DecodeValue(f)
	if err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if !raw.Equal(value.Int64(123)) {
		t.Fatalf("unexpected value: %s", raw)
	}
}

func TestValueRoundTripIsBitExact(t *testing.T) {
	values := []value.Raw{
		value.Null(),
		value.Bool(true),
		value.Bool(false),
		value.Int32(0),
		value.Int32(123),
		value.Int32(math.MinInt32),
		value.Int32(math.MaxInt32),
		value.Int64(123),
		value.Int64(math.MinInt64),
		value.Int64(math.MaxInt64),
		value.Float32(float32(math.Inf(-1))),
		value.Float32(math.Float32frombits(0x7fc00001)),
		value.Float64(math.Float64frombits(0x7ff8000000000123)),
		value.Float64(math.Copysign(0, -1)),
		value.String(""),
		value.String("héllo"),
		value.Bytes([]byte{0, 0xff}),
	}
	for _, in := range values {
		payload, err := EncodeValue(in)
		if err != nil {
			t.Fatalf("encode %s: %v", in, err)
		}
		out, err := DecodePayload(in.Kind(), payload)
		if err != nil {
			t.Fatalf("decode %s: %v", in, err)
		}
		if !out.Equal(in) {
			t.Fatalf("round trip: got %s want %s", out, in)
		}
		again, err := EncodeValue(out)
		if err != nil {
			t.Fatalf("re-encode %s: %v", out, err)
		}
		if !bytes.Equal(payload, again) {
			t.Fatalf("re-encode of %s changed bytes: %x vs %x", in, payload, again)
		}
	}
}

func TestIntegerKindsShareBytes(t *testing.T) {
	narrow, err := EncodeValue(value.Int32(123))
	if err != nil {
		t.Fatalf("encode int32: %v", err)
	}
	wide, err := EncodeValue(value.Int64(123))
	if err != nil {
		t.Fatalf("encode int64: %v", err)
	}
	if !bytes.Equal(narrow, wide) {
		t.Fatalf("expected identical payloads, got %x and %x", narrow, wide)
	}

	raw, err := DecodePayload(kind.Int64, wide)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if raw.Kind() != kind.Int64 {
		t.Fatalf("decoder picked %s instead of the declared kind", raw.Kind())
	}
}

func TestDecodePayloadRejectsMalformedBytes(t *testing.T) {
	wideVarint := binaryVarint(int64(math.MaxInt32) + 1)
	cases := []struct {
		name    string
		kind    kind.Tag
		payload []byte
		want    error
	}{
		{"null with bytes", kind.Null, []byte{0}, ErrInvalidLength},
		{"bool too long", kind.Boolean, []byte{1, 1}, ErrInvalidLength},
		{"bool not 0/1", kind.Boolean, []byte{2}, ErrInvalidBool},
		{"empty varint", kind.Int64, nil, ErrInvalidLength},
		{"truncated varint", kind.Int64, []byte{0x80}, ErrInvalidLength},
		{"trailing bytes", kind.Int64, []byte{0x02, 0x00}, ErrInvalidLength},
		{"overlong zero", kind.Int64, []byte{0x80, 0x00}, ErrInvalidLength},
		{"overlong int32", kind.Int32, []byte{0xf6, 0x80, 0x00}, ErrInvalidLength},
		{"int32 overflow", kind.Int32, wideVarint, ErrIntOverflow},
		{"varint overflow", kind.Int64, bytes.Repeat([]byte{0xff}, 11), ErrIntOverflow},
		{"float short", kind.Float32, []byte{0, 0}, ErrInvalidLength},
		{"double short", kind.Float64, []byte{0, 0, 0, 0}, ErrInvalidLength},
		{"invalid kind", kind.Invalid, nil, ErrUnknownKind},
		{"undefined kind", kind.Tag(99), []byte{1}, ErrUnknownKind},
	}
	for _, tc := range cases {
		_, err := DecodePayload(tc.kind, tc.payload)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestAcceptedVarintsReencodeIdentically(t *testing.T) {
	payloads := [][]byte{{0x00}, {0x01}, {0xf6, 0x01}, {0x80, 0x01}, bytes.Repeat([]byte{0xff}, 9)}
	payloads[4] = append(payloads[4], 0x01)
	for _, payload := range payloads {
		raw, err := DecodePayload(kind.Int64, payload)
		if err != nil {
			t.Fatalf("decode %x: %v", payload, err)
		}
		again, err := EncodeValue(raw)
		if err != nil {
			t.Fatalf("encode %s: %v", raw, err)
		}
		if !bytes.Equal(payload, again) {
			t.Fatalf("decoded %s from %x, re-encoded %x", raw, payload, again)
		}
	}
}

func TestDecodeValueNamesField(t *testing.T) {
	_, err := DecodeValue(tlv.Field{ID: 5, Kind: kind.Boolean, Value: []byte{7}})
	if !errors.Is(err, ErrInvalidBool) {
		t.Fatalf("expected ErrInvalidBool, got %v", err)
	}
	if err.Error() != "protocol: field 5: protocol: invalid bool value" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestEncodeValueRejectsInvalid(t *testing.T) {
	if _, err := EncodeValue(value.Raw{}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := FieldOf(1, value.Raw{}); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind from FieldOf, got %v", err)
	}
}

func TestEncodeNilMessage(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, nil, frame.DefaultLimits()); !errors.Is(err, ErrNilMessage) {
		t.Fatalf("expected ErrNilMessage, got %v", err)
	}
}

func TestDecodeTruncatedFields(t *testing.T) {
	payload := []byte{0, 1, byte(kind.String), 0, 0, 0, 9, 'a'}
	var buf bytes.Buffer
	if err := frame.WriteFrame(&buf, frame.Frame{Header: frame.Header{MessageType: 1}, Payload: payload}, frame.DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if _, err := Decode(&buf, frame.DefaultLimits()); !errors.Is(err, tlv.ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}

func binaryVarint(v int64) []byte {
	raw := value.Int64(v)
	b, _ := EncodeValue(raw)
	return b
}
