package frame

import (
	"bytes"
	"errors"
	"testing"

	"github.com/danmuck/uniondec/internal/kind"
	"github.com/danmuck/uniondec/internal/protocol/tlv"
)

func TestReadWriteFrameRoundTrip(t *testing.T) {
	payload, err := tlv.EncodeFields([]tlv.Field{{ID: 1, Kind: kind.Boolean, Value: []byte{1}}})
	if err != nil {
		t.Fatalf("encode fields: %v", err)
	}
	in := Frame{
		Header:  Header{MessageID: 42, MessageType: 7},
		Payload: payload,
	}
	var buf bytes.Buffer
	if err := WriteFrame(&buf, in, DefaultLimits()); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	out, err := ReadFrame(&buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if out.Header.Magic != Magic || out.Header.Version != Version || out.Header.HeaderLen != HeaderLen {
		t.Fatalf("header not stamped: %+v", out.Header)
	}
	if out.Header.MessageType != 7 || out.Header.MessageID != 42 {
		t.Fatalf("header mismatch: got=%+v", out.Header)
	}
	if out.Header.PayloadLen != uint32(len(payload)) || !bytes.Equal(out.Payload, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestReadFrameMalformedHeaderIsDeterministic(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{1, 2, 3}), DefaultLimits())
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestReadFrameRejectsBadMagicAndVersion(t *testing.T) {
	h := Header{Magic: 1, Version: Version, HeaderLen: HeaderLen}
	if _, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), DefaultLimits()); !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}

	h = Header{Magic: Magic, Version: 9, HeaderLen: HeaderLen}
	if _, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), DefaultLimits()); !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}

	h = Header{Magic: Magic, Version: Version, HeaderLen: 8}
	if _, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), DefaultLimits()); !errors.Is(err, ErrHeaderLenMismatch) {
		t.Fatalf("expected ErrHeaderLenMismatch, got %v", err)
	}
}

func TestReadFramePayloadLimits(t *testing.T) {
	h := Header{Magic: Magic, Version: Version, HeaderLen: HeaderLen, PayloadLen: 64}
	_, err := ReadFrame(bytes.NewReader(EncodeHeader(h)), Limits{MaxPayloadBytes: 16})
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}

	buf := append(EncodeHeader(h), make([]byte, 10)...)
	_, err = ReadFrame(bytes.NewReader(buf), DefaultLimits())
	if !errors.Is(err, ErrShortPayload) {
		t.Fatalf("expected ErrShortPayload, got %v", err)
	}
}

func TestWriteFrameRejectsOversizedPayload(t *testing.T) {
	err := WriteFrame(&bytes.Buffer{}, Frame{Payload: make([]byte, 32)}, Limits{MaxPayloadBytes: 8})
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}
