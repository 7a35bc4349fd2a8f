// Package record decodes whole messages whose fields are unions. It owns
// the distinction between a field that is absent from the payload and one
// that is present but Null.
package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/uniondec/internal/observability"
	"github.com/danmuck/uniondec/internal/protocol"
	"github.com/danmuck/uniondec/internal/protocol/tlv"
	"github.com/danmuck/uniondec/internal/union"
	"github.com/rs/zerolog/log"
)

var (
	ErrMessageTypeMismatch = errors.New("record: message type mismatch")
	ErrInvalidSchema       = errors.New("record: invalid schema")
)

// FieldSpec declares one union-typed field of a record.
type FieldSpec struct {
	ID       uint16
	Name     string
	Union    *union.Schema[union.Branch]
	Required bool
}

// Schema describes a record: the message type carrying it and its fields.
type Schema struct {
	Name        string
	MessageType protocol.MessageType
	Fields      []FieldSpec

	byID map[uint16]int
}

// Record is a decoded message. Every declared field has an entry in Fields;
// absent and Null fields hold an empty Optional.
type Record struct {
	Name      string                                   `json:"record"`
	MessageID uint64                                   `json:"message_id"`
	Fields    map[string]union.Optional[union.Branch] `json:"fields"`
	Unknown   []tlv.Field                              `json:"-"`
}

// NewSchema validates field declarations: ids and names must be unique and
// every field needs a union.
func NewSchema(name string, messageType protocol.MessageType, fields ...FieldSpec) (Schema, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Schema{}, fmt.Errorf("%w: missing name", ErrInvalidSchema)
	}
	s := Schema{
		Name:        name,
		MessageType: messageType,
		Fields:      make([]FieldSpec, len(fields)),
		byID:        make(map[uint16]int, len(fields)),
	}
	copy(s.Fields, fields)
	names := make(map[string]struct{}, len(fields))
	for i, f := range s.Fields {
		if f.Union == nil {
			return Schema{}, fmt.Errorf("%w: %s field %d has no union", ErrInvalidSchema, name, f.ID)
		}
		if strings.TrimSpace(f.Name) == "" {
			return Schema{}, fmt.Errorf("%w: %s field %d has no name", ErrInvalidSchema, name, f.ID)
		}
		if _, dup := s.byID[f.ID]; dup {
			return Schema{}, fmt.Errorf("%w: %s duplicate field id %d", ErrInvalidSchema, name, f.ID)
		}
		if _, dup := names[f.Name]; dup {
			return Schema{}, fmt.Errorf("%w: %s duplicate field name %q", ErrInvalidSchema, name, f.Name)
		}
		s.byID[f.ID] = i
		names[f.Name] = struct{}{}
	}
	return s, nil
}

// Field returns the FieldSpec declared for id.
func (s Schema) Field(id uint16) (FieldSpec, bool) {
	idx, ok := s.byID[id]
	if !ok {
		return FieldSpec{}, false
	}
	return s.Fields[idx], true
}

// MissingFieldError indicates a required field was not present.
type MissingFieldError struct {
	Record  string
	FieldID uint16
	Name    string
}

func (e MissingFieldError) Error() string {
	return fmt.Sprintf("record %s: missing required field %d (%s)", e.Record, e.FieldID, e.Name)
}

// FieldError wraps a decode or resolution failure with the field it hit.
type FieldError struct {
	Record  string
	FieldID uint16
	Name    string
	Err     error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("record %s field %d (%s): %v", e.Record, e.FieldID, e.Name, e.Err)
}

func (e FieldError) Unwrap() error {
	return e.Err
}

// Decode binds every field of msg declared by schema. Undeclared fields are
// kept in Unknown. A declared field missing from msg gets the empty
// Optional unless it is Required.
func Decode(msg *protocol.Message, schema Schema) (*Record, error) {
	if msg == nil {
		return nil, protocol.ErrNilMessage
	}
	if msg.Type() != schema.MessageType {
		return nil, fmt.Errorf(
			"%w: got %d want %d (%s)",
			ErrMessageTypeMismatch,
			msg.Type(),
			schema.MessageType,
			schema.Name,
		)
	}
	if schema.byID == nil {
		var err error
		if schema, err = NewSchema(schema.Name, schema.MessageType, schema.Fields...); err != nil {
			return nil, err
		}
	}

	rec := &Record{
		Name:      schema.Name,
		MessageID: msg.Header.MessageID,
		Fields:    make(map[string]union.Optional[union.Branch], len(schema.Fields)),
	}
	seen := make(map[uint16]struct{}, len(msg.Fields))

	for _, field := range msg.Fields {
		spec, ok := schema.Field(field.ID)
		if !ok {
			rec.Unknown = append(rec.Unknown, field)
			continue
		}
		if _, dup := seen[field.ID]; dup {
			continue
		}
		seen[field.ID] = struct{}{}

		unionName := spec.Union.Name()
		raw, err := protocol.DecodeValue(field)
		if err != nil {
			observability.RecordResolution(unionName, field.Kind.String(), observability.OutcomeMalformed)
			return nil, FieldError{Record: schema.Name, FieldID: field.ID, Name: spec.Name, Err: err}
		}
		opt, err := union.Bind(spec.Union, raw)
		if err != nil {
			observability.RecordResolution(unionName, raw.Kind().String(), observability.OutcomeUnexpected)
			log.Warn().
				Str("record", schema.Name).
				Uint16("field_id", field.ID).
				Str("kind", raw.Kind().String()).
				Err(err).
				Msg("record.Decode unexpected kind")
			return nil, FieldError{Record: schema.Name, FieldID: field.ID, Name: spec.Name, Err: err}
		}
		outcome := observability.OutcomeResolved
		if !opt.Valid {
			outcome = observability.OutcomeNull
		}
		observability.RecordResolution(unionName, raw.Kind().String(), outcome)
		rec.Fields[spec.Name] = opt
	}

	for _, spec := range schema.Fields {
		if _, ok := seen[spec.ID]; ok {
			continue
		}
		if spec.Required {
			return nil, MissingFieldError{Record: schema.Name, FieldID: spec.ID, Name: spec.Name}
		}
		observability.RecordResolution(spec.Union.Name(), "", observability.OutcomeAbsent)
		rec.Fields[spec.Name] = union.None[union.Branch]()
	}

	log.Debug().
		Str("record", schema.Name).
		Int("fields", len(rec.Fields)).
		Int("unknown", len(rec.Unknown)).
		Msg("record.Decode ok")
	return rec, nil
}
