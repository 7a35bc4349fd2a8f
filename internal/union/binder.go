package union

import (
	"encoding/json"

	"github.com/danmuck/uniondec/internal/value"
)

// Optional holds a union value that may be absent. The zero value is empty.
type Optional[U any] struct {
	Value U
	Valid bool
}

func Some[U any](v U) Optional[U] {
	return Optional[U]{Value: v, Valid: true}
}

func None[U any]() Optional[U] {
	return Optional[U]{}
}

// Get returns the value and whether it is set.
func (o Optional[U]) Get() (U, bool) {
	return o.Value, o.Valid
}

func (o Optional[U]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Binder resolves optional union fields: a Null value is "no value", any
// other kind goes through Resolve.
type Binder[U any] struct {
	schema *Schema[U]
}

func NewBinder[U any](s *Schema[U]) Binder[U] {
	return Binder[U]{schema: s}
}

func (b Binder[U]) Bind(raw value.Raw) (Optional[U], error) {
	return Bind(b.schema, raw)
}

// Bind never fails on Null, even when the schema declares no Null variant.
func Bind[U any](s *Schema[U], raw value.Raw) (Optional[U], error) {
	if raw.IsNull() {
		return None[U](), nil
	}
	v, err := Resolve(s, raw)
	if err != nil {
		return None[U](), err
	}
	return Some(v), nil
}
