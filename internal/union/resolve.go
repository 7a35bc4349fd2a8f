package union

import "github.com/danmuck/uniondec/internal/value"

// Resolve maps raw onto the variant declared for its kind. The payload is
// passed through untouched.
func Resolve[U any](s *Schema[U], raw value.Raw) (U, error) {
	v, _, ok := s.Lookup(raw.Kind())
	if !ok {
		var zero U
		return zero, UnexpectedKindError{Union: s.name, Found: raw.Kind(), Allowed: s.Kinds()}
	}
	return v.construct(raw)
}

// Resolve is the method form of the package-level Resolve.
func (s *Schema[U]) Resolve(raw value.Raw) (U, error) {
	return Resolve(s, raw)
}
