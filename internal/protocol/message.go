package protocol

import (
	"fmt"
	"io"

	"github.com/danmuck/uniondec/internal/protocol/frame"
	"github.com/danmuck/uniondec/internal/protocol/tlv"
)

type MessageType uint32

// Message is a decoded frame with its payload split into fields.
type Message struct {
	Header frame.Header
	Fields []tlv.Field
}

func NewMessage(messageType MessageType, messageID uint64, fields ...tlv.Field) *Message {
	return &Message{
		Header: frame.Header{MessageID: messageID, MessageType: uint32(messageType)},
		Fields: fields,
	}
}

func (m *Message) Type() MessageType {
	return MessageType(m.Header.MessageType)
}

// Field returns the first field with id.
func (m *Message) Field(id uint16) (tlv.Field, bool) {
	return tlv.GetField(m.Fields, id)
}

// Encode writes msg to w using the protocol wire format.
func Encode(w io.Writer, msg *Message, limits frame.Limits) error {
	if msg == nil {
		return ErrNilMessage
	}
	payload, err := tlv.EncodeFields(msg.Fields)
	if err != nil {
		return fmt.Errorf("protocol: encode fields: %w", err)
	}
	return frame.WriteFrame(w, frame.Frame{Header: msg.Header, Payload: payload}, limits)
}

// Decode reads a single message from r. Field payloads are left encoded;
// DecodeValue turns them into values.
func Decode(r io.Reader, limits frame.Limits) (*Message, error) {
	f, err := frame.ReadFrame(r, limits)
	if err != nil {
		return nil, err
	}
	fields, err := tlv.DecodeFields(f.Payload)
	if err != nil {
		return nil, err
	}
	return &Message{Header: f.Header, Fields: fields}, nil
}
