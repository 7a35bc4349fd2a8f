// Package union resolves decoded wire values into statically typed sum
// types by exact-kind dispatch.
//
// A Schema lists the variants of one union type, each bound to exactly one
// kind.Tag. Resolve looks the value's own tag up in that table and hands the
// payload, unchanged, to the matching variant constructor. A value whose tag
// is not declared fails with UnexpectedKindError; nothing is coerced,
// widened or truncated.
//
// Resolution must never fall back to trying each variant's parser in
// declaration order and keeping the first success. Integer kinds share
// their byte encoding on the wire, so such a strategy returns the Int32
// variant for every Int64 whose value happens to fit in 32 bits.
//
// Schemas are immutable after Build and are safe for concurrent use.
package union
