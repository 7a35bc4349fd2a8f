package union

import (
	"errors"
	"fmt"

	"github.com/danmuck/uniondec/internal/kind"
)

var (
	ErrDuplicateKind  = errors.New("union: duplicate kind")
	ErrInvalidSchema  = errors.New("union: invalid schema")
	ErrUnexpectedKind = errors.New("union: unexpected kind")
)

// DuplicateKindError reports two variants of one schema declaring the same
// kind. First and Second are declaration indexes.
type DuplicateKindError struct {
	Union  string
	Kind   kind.Tag
	First  int
	Second int
}

func (e DuplicateKindError) Error() string {
	return fmt.Sprintf(
		"union %s: duplicate kind %s (variants %d and %d)",
		e.Union,
		e.Kind,
		e.First,
		e.Second,
	)
}

func (e DuplicateKindError) Is(target error) bool {
	return target == ErrDuplicateKind
}

// SchemaError reports any other malformed schema definition.
type SchemaError struct {
	Union   string
	Variant int
	Reason  string
}

func (e SchemaError) Error() string {
	if e.Variant < 0 {
		return fmt.Sprintf("union %s: %s", e.Union, e.Reason)
	}
	return fmt.Sprintf("union %s variant=%d: %s", e.Union, e.Variant, e.Reason)
}

func (e SchemaError) Is(target error) bool {
	return target == ErrInvalidSchema
}

// UnexpectedKindError is returned when a value's kind is not declared by
// the schema. Allowed is in declaration order.
type UnexpectedKindError struct {
	Union   string
	Found   kind.Tag
	Allowed []kind.Tag
}

func (e UnexpectedKindError) Error() string {
	return fmt.Sprintf(
		"union %s: unexpected kind %s (allowed: %s)",
		e.Union,
		e.Found,
		kind.Join(e.Allowed),
	)
}

func (e UnexpectedKindError) Is(target error) bool {
	return target == ErrUnexpectedKind
}
