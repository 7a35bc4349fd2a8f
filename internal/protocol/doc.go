// Package protocol is the wire decoder that feeds union resolution.
//
// Ownership boundary:
// - frame header primitives (package frame)
// - tlv field framing (package tlv)
// - per-kind payload encoding, producing and consuming value.Raw
//
// Payload encodings follow Avro's primitive encodings: Null is empty,
// Boolean is one byte 0 or 1, Int32 and Int64 are zig-zag varints,
// Float32 and Float64 are little-endian IEEE 754, String and Bytes are the
// raw bytes. Int32 and Int64 therefore share their bytes for equal values;
// only the field's kind tag tells them apart.
package protocol
