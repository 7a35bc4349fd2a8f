// Package kind defines the closed set of wire-level primitive kinds a
// decoded union value can carry.
package kind

import (
	"fmt"
	"strings"
)

// Tag identifies which primitive representation a decoded value carries.
// The numeric values are part of the wire contract.
type Tag uint8

const (
	Invalid Tag = 0
	Null    Tag = 1
	Boolean Tag = 2
	Int32   Tag = 3
	Int64   Tag = 4
	Float32 Tag = 5
	Float64 Tag = 6
	String  Tag = 7
	Bytes   Tag = 8
)

// Count bounds the tag space; every defined tag is < Count.
const Count = 9

var names = [Count]string{
	Invalid: "Invalid",
	Null:    "Null",
	Boolean: "Boolean",
	Int32:   "Int32",
	Int64:   "Int64",
	Float32: "Float32",
	Float64: "Float64",
	String:  "String",
	Bytes:   "Bytes",
}

// avro primitive names map onto the same tags.
var aliases = map[string]Tag{
	"null":    Null,
	"boolean": Boolean,
	"bool":    Boolean,
	"int":     Int32,
	"long":    Int64,
	"float":   Float32,
	"double":  Float64,
	"string":  String,
	"bytes":   Bytes,
}

// All returns every defined tag in wire order.
func All() []Tag {
	return []Tag{Null, Boolean, Int32, Int64, Float32, Float64, String, Bytes}
}

// Defined reports whether t is one of the defined, non-Invalid tags.
func (t Tag) Defined() bool {
	return t > Invalid && t < Count
}

func (t Tag) String() string {
	if t < Count {
		return names[t]
	}
	return fmt.Sprintf("Kind(%d)", uint8(t))
}

// Parse accepts canonical names (case-insensitive) and Avro primitive names.
func Parse(s string) (Tag, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if t, ok := aliases[key]; ok {
		return t, nil
	}
	for _, t := range All() {
		if strings.ToLower(names[t]) == key {
			return t, nil
		}
	}
	return Invalid, fmt.Errorf("kind: unknown kind %q", s)
}

// MarshalText encodes the canonical name.
func (t Tag) MarshalText() ([]byte, error) {
	if !t.Defined() {
		return nil, fmt.Errorf("kind: cannot marshal %s", t)
	}
	return []byte(names[t]), nil
}

// UnmarshalText accepts anything Parse accepts.
func (t *Tag) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Join renders tags as a comma separated list, in the given order.
func Join(tags []Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
