// Package tlv frames typed fields inside a payload: a 2-byte field id, a
// 1-byte kind tag and a 4-byte length, all big-endian, followed by the
// value bytes.
package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/danmuck/uniondec/internal/kind"
)

const HeaderLen = 7

var (
	ErrShortFieldHeader = errors.New("tlv: short field header")
	ErrShortFieldValue  = errors.New("tlv: short field value")
	ErrValueTooLarge    = errors.New("tlv: value too large")
)

// Field is one framed field. Kind is whatever the producer declared; it is
// not checked against the value bytes here.
type Field struct {
	ID    uint16
	Kind  kind.Tag
	Value []byte
}

func EncodeField(f Field) ([]byte, error) {
	if uint64(len(f.Value)) > uint64(^uint32(0)) {
		return nil, ErrValueTooLarge
	}
	buf := make([]byte, HeaderLen+len(f.Value))
	binary.BigEndian.PutUint16(buf[0:2], f.ID)
	buf[2] = byte(f.Kind)
	binary.BigEndian.PutUint32(buf[3:7], uint32(len(f.Value)))
	copy(buf[7:], f.Value)
	return buf, nil
}

func EncodeFields(fields []Field) ([]byte, error) {
	out := make([]byte, 0)
	for _, f := range fields {
		b, err := EncodeField(f)
		if err != nil {
			return nil, fmt.Errorf("tlv: field %d: %w", f.ID, err)
		}
		out = append(out, b...)
	}
	return out, nil
}

func DecodeFields(payload []byte) ([]Field, error) {
	fields := make([]Field, 0)
	i := 0
	for i < len(payload) {
		if len(payload)-i < HeaderLen {
			return nil, ErrShortFieldHeader
		}
		id := binary.BigEndian.Uint16(payload[i : i+2])
		k := kind.Tag(payload[i+2])
		l := binary.BigEndian.Uint32(payload[i+3 : i+7])
		i += HeaderLen
		if uint32(len(payload)-i) < l {
			return nil, ErrShortFieldValue
		}
		val := make([]byte, l)
		copy(val, payload[i:i+int(l)])
		i += int(l)
		fields = append(fields, Field{ID: id, Kind: k, Value: val})
	}
	return fields, nil
}

func GetField(fields []Field, id uint16) (Field, bool) {
	for _, f := range fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

func MustKind(f Field, expected kind.Tag) error {
	if f.Kind != expected {
		return fmt.Errorf("tlv: field %d kind mismatch: got %s want %s", f.ID, f.Kind, expected)
	}
	return nil
}
