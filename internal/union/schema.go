package union

import (
	"strings"

	"github.com/danmuck/uniondec/internal/kind"
	"github.com/danmuck/uniondec/internal/value"
	"github.com/rs/zerolog/log"
)

// Variant is one arm of a union: the kind it accepts and how to build the
// host value from a payload of that kind.
type Variant[U any] struct {
	Name      string
	Kind      kind.Tag
	construct func(value.Raw) (U, error)
}

// NewVariant binds an arbitrary constructor to k. The constructor only ever
// receives values tagged k.
func NewVariant[U any](name string, k kind.Tag, fn func(value.Raw) (U, error)) Variant[U] {
	return Variant[U]{Name: name, Kind: k, construct: fn}
}

// NullVariant accepts Null and builds its value from fn alone.
func NullVariant[U any](name string, fn func() U) Variant[U] {
	return NewVariant(name, kind.Null, func(value.Raw) (U, error) {
		return fn(), nil
	})
}

// BoolVariant accepts Boolean values.
func BoolVariant[U any](name string, fn func(bool) U) Variant[U] {
	return NewVariant(name, kind.Boolean, func(raw value.Raw) (U, error) {
		v, err := raw.AsBool()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	})
}

// Int32Variant accepts Int32 values only; an Int64 never narrows into it.
func Int32Variant[U any](name string, fn func(int32) U) Variant[U] {
	return NewVariant(name, kind.Int32, func(raw value.Raw) (U, error) {
		v, err := raw.AsInt32()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	})
}

// Int64Variant accepts Int64 values only.
func Int64Variant[U any](name string, fn func(int64) U) Variant[U] {
	return NewVariant(name, kind.Int64, func(raw value.Raw) (U, error) {
		v, err := raw.AsInt64()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	})
}

// Float32Variant accepts Float32 values only.
func Float32Variant[U any](name string, fn func(float32) U) Variant[U] {
	return NewVariant(name, kind.Float32, func(raw value.Raw) (U, error) {
		v, err := raw.AsFloat32()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	})
}

// Float64Variant accepts Float64 values only; a Float32 never widens into it.
func Float64Variant[U any](name string, fn func(float64) U) Variant[U] {
	return NewVariant(name, kind.Float64, func(raw value.Raw) (U, error) {
		v, err := raw.AsFloat64()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	})
}

// StringVariant accepts String values.
func StringVariant[U any](name string, fn func(string) U) Variant[U] {
	return NewVariant(name, kind.String, func(raw value.Raw) (U, error) {
		v, err := raw.AsString()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	})
}

// BytesVariant accepts Bytes values. fn receives its own copy of the bytes.
func BytesVariant[U any](name string, fn func([]byte) U) Variant[U] {
	return NewVariant(name, kind.Bytes, func(raw value.Raw) (U, error) {
		v, err := raw.AsBytes()
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v), nil
	})
}

// Schema is the validated, immutable variant table of one union type.
type Schema[U any] struct {
	name     string
	variants []Variant[U]
	kinds    []kind.Tag
	// slot[k] is the declaration index of the variant for k, plus one.
	slot [kind.Count]uint8
}

// Build validates variants and returns the union's schema. Two variants
// declaring the same kind is a DuplicateKindError whatever their order.
func Build[U any](name string, variants ...Variant[U]) (*Schema[U], error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, SchemaError{Union: "<unnamed>", Variant: -1, Reason: "missing name"}
	}
	if len(variants) == 0 {
		return nil, SchemaError{Union: name, Variant: -1, Reason: "no variants"}
	}

	s := &Schema[U]{
		name:     name,
		variants: make([]Variant[U], len(variants)),
		kinds:    make([]kind.Tag, len(variants)),
	}
	copy(s.variants, variants)

	for i, v := range s.variants {
		if !v.Kind.Defined() {
			return nil, SchemaError{Union: name, Variant: i, Reason: "undefined kind " + v.Kind.String()}
		}
		if v.construct == nil {
			return nil, SchemaError{Union: name, Variant: i, Reason: "missing constructor"}
		}
		if prev := s.slot[v.Kind]; prev != 0 {
			log.Error().
				Str("union", name).
				Str("kind", v.Kind.String()).
				Int("first", int(prev)-1).
				Int("second", i).
				Msg("union.Build duplicate kind")
			return nil, DuplicateKindError{Union: name, Kind: v.Kind, First: int(prev) - 1, Second: i}
		}
		s.slot[v.Kind] = uint8(i + 1)
		s.kinds[i] = v.Kind
	}

	log.Debug().
		Str("union", name).
		Str("kinds", kind.Join(s.kinds)).
		Msg("union.Build ok")
	return s, nil
}

// MustBuild is Build for package-level union definitions.
func MustBuild[U any](name string, variants ...Variant[U]) *Schema[U] {
	s, err := Build(name, variants...)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema[U]) Name() string {
	return s.name
}

func (s *Schema[U]) Len() int {
	return len(s.variants)
}

// Kinds returns the declared kinds in declaration order.
func (s *Schema[U]) Kinds() []kind.Tag {
	out := make([]kind.Tag, len(s.kinds))
	copy(out, s.kinds)
	return out
}

// Variants returns a copy of the variant list in declaration order.
func (s *Schema[U]) Variants() []Variant[U] {
	out := make([]Variant[U], len(s.variants))
	copy(out, s.variants)
	return out
}

// Lookup returns the variant declared for k and its declaration index.
func (s *Schema[U]) Lookup(k kind.Tag) (Variant[U], int, bool) {
	if k >= kind.Count {
		return Variant[U]{}, -1, false
	}
	slot := s.slot[k]
	if slot == 0 {
		return Variant[U]{}, -1, false
	}
	idx := int(slot) - 1
	return s.variants[idx], idx, true
}

// Declares reports whether the schema has a variant for k.
func (s *Schema[U]) Declares(k kind.Tag) bool {
	_, _, ok := s.Lookup(k)
	return ok
}
