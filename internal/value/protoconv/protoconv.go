// Package protoconv reads union values out of protobuf well-known wrapper
// messages. The message type decides the kind; the wrapped value is never
// inspected to pick one.
package protoconv

import (
	"errors"
	"fmt"

	"github.com/danmuck/uniondec/internal/kind"
	"github.com/danmuck/uniondec/internal/value"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	ErrUnsupportedMessage = errors.New("protoconv: unsupported message")
	ErrInvalidAny         = errors.New("protoconv: invalid Any")
)

// FromJSON reads a google.protobuf.Any in its protojson form, for example
// {"@type": "type.googleapis.com/google.protobuf.Int64Value", "value": "123"},
// and maps the packed message through FromProto.
func FromJSON(data []byte) (value.Raw, error) {
	var packed anypb.Any
	if err := protojson.Unmarshal(data, &packed); err != nil {
		return value.Raw{}, fmt.Errorf("%w: %v", ErrInvalidAny, err)
	}
	m, err := packed.UnmarshalNew()
	if err != nil {
		return value.Raw{}, fmt.Errorf("%w: %v", ErrInvalidAny, err)
	}
	return FromProto(m)
}

// FromProto maps a wrapper message onto the matching value.Raw. A
// structpb.Value is accepted only when it carries null.
func FromProto(m proto.Message) (value.Raw, error) {
	switch msg := m.(type) {
	case *wrapperspb.BoolValue:
		return value.Bool(msg.GetValue()), nil
	case *wrapperspb.Int32Value:
		return value.Int32(msg.GetValue()), nil
	case *wrapperspb.Int64Value:
		return value.Int64(msg.GetValue()), nil
	case *wrapperspb.FloatValue:
		return value.Float32(msg.GetValue()), nil
	case *wrapperspb.DoubleValue:
		return value.Float64(msg.GetValue()), nil
	case *wrapperspb.StringValue:
		return value.String(msg.GetValue()), nil
	case *wrapperspb.BytesValue:
		return value.Bytes(msg.GetValue()), nil
	case *structpb.Value:
		if _, ok := msg.GetKind().(*structpb.Value_NullValue); ok {
			return value.Null(), nil
		}
		return value.Raw{}, fmt.Errorf("%w: structpb.Value holding %T", ErrUnsupportedMessage, msg.GetKind())
	case nil:
		return value.Raw{}, fmt.Errorf("%w: nil", ErrUnsupportedMessage)
	default:
		return value.Raw{}, fmt.Errorf("%w: %s", ErrUnsupportedMessage, m.ProtoReflect().Descriptor().FullName())
	}
}

// ToProto is the inverse of FromProto.
func ToProto(raw value.Raw) (proto.Message, error) {
	switch raw.Kind() {
	case kind.Null:
		return structpb.NewNullValue(), nil
	case kind.Boolean:
		v, _ := raw.AsBool()
		return wrapperspb.Bool(v), nil
	case kind.Int32:
		v, _ := raw.AsInt32()
		return wrapperspb.Int32(v), nil
	case kind.Int64:
		v, _ := raw.AsInt64()
		return wrapperspb.Int64(v), nil
	case kind.Float32:
		v, _ := raw.AsFloat32()
		return wrapperspb.Float(v), nil
	case kind.Float64:
		v, _ := raw.AsFloat64()
		return wrapperspb.Double(v), nil
	case kind.String:
		v, _ := raw.AsString()
		return wrapperspb.String(v), nil
	case kind.Bytes:
		v, _ := raw.AsBytes()
		return wrapperspb.Bytes(v), nil
	default:
		return nil, fmt.Errorf("%w: kind %s", ErrUnsupportedMessage, raw.Kind())
	}
}
