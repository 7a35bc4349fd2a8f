// Package catalog loads union and record definitions from TOML or YAML
// files and builds the schemas they describe.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/danmuck/uniondec/internal/kind"
	"github.com/danmuck/uniondec/internal/protocol"
	"github.com/danmuck/uniondec/internal/record"
	"github.com/danmuck/uniondec/internal/union"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

var (
	ErrUnknownFormat      = errors.New("catalog: unknown format")
	ErrUnknownMessageType = errors.New("catalog: unknown message type")
)

// File is the on-disk catalog shape.
type File struct {
	Unions  []UnionDef  `toml:"unions" yaml:"unions" json:"unions"`
	Records []RecordDef `toml:"records" yaml:"records" json:"records"`
}

type UnionDef struct {
	Name     string   `toml:"name" yaml:"name" json:"name"`
	Branches []string `toml:"branches" yaml:"branches" json:"branches,omitempty"`
}

type RecordDef struct {
	Name        string     `toml:"name" yaml:"name" json:"name"`
	MessageType uint32     `toml:"message_type" yaml:"message_type" json:"message_type"`
	Fields      []FieldDef `toml:"fields" yaml:"fields" json:"fields"`
}

// FieldDef references a named union or declares an unnamed one inline via
// Branches; exactly one of the two must be set.
type FieldDef struct {
	ID       uint16   `toml:"id" yaml:"id" json:"id"`
	Name     string   `toml:"name" yaml:"name" json:"name"`
	Union    string   `toml:"union" yaml:"union" json:"union,omitempty"`
	Branches []string `toml:"branches" yaml:"branches" json:"branches,omitempty"`
	Required bool     `toml:"required" yaml:"required" json:"required,omitempty"`
}

// Registry holds the built schemas. It is read-only after Build.
type Registry struct {
	unions  map[string]*union.Schema[union.Branch]
	records map[string]record.Schema
	byType  map[protocol.MessageType]string
}

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}

func Load(path string) (*Registry, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog load failed (%s): %w", path, err)
	}
	file, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("catalog parse failed (%s): %w", path, err)
	}
	reg, err := Build(file)
	if err != nil {
		return nil, fmt.Errorf("catalog invalid (%s): %w", path, err)
	}
	log.Info().
		Str("path", path).
		Int("unions", len(reg.unions)).
		Int("records", len(reg.records)).
		Msg("catalog loaded")
	return reg, nil
}

// Parse decodes data strictly: unknown keys are errors.
func Parse(data []byte, format Format) (File, error) {
	var file File
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return File{}, err
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return File{}, err
		}
	default:
		return File{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return file, nil
}

// Build validates file and builds every union and record it declares. Any
// schema violation, including a duplicate kind inside a union, fails the
// whole catalog.
func Build(file File) (*Registry, error) {
	reg := &Registry{
		unions:  make(map[string]*union.Schema[union.Branch]),
		records: make(map[string]record.Schema),
		byType:  make(map[protocol.MessageType]string),
	}

	for i, def := range file.Unions {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return nil, fmt.Errorf("unions[%d]: name is required", i)
		}
		if _, dup := reg.unions[name]; dup {
			return nil, fmt.Errorf("unions[%d]: duplicate union %q", i, name)
		}
		s, err := buildUnion(name, def.Branches)
		if err != nil {
			return nil, fmt.Errorf("unions[%d]: %w", i, err)
		}
		reg.unions[name] = s
	}

	for i, def := range file.Records {
		rec, err := reg.buildRecord(def)
		if err != nil {
			return nil, fmt.Errorf("records[%d]: %w", i, err)
		}
		if _, dup := reg.records[rec.Name]; dup {
			return nil, fmt.Errorf("records[%d]: duplicate record %q", i, rec.Name)
		}
		if other, dup := reg.byType[rec.MessageType]; dup {
			return nil, fmt.Errorf("records[%d]: message_type %d already used by %q", i, rec.MessageType, other)
		}
		reg.records[rec.Name] = rec
		reg.byType[rec.MessageType] = rec.Name
	}
	return reg, nil
}

func buildUnion(name string, branches []string) (*union.Schema[union.Branch], error) {
	arms := make([]union.Arm, len(branches))
	for i, branch := range branches {
		k, err := kind.Parse(branch)
		if err != nil {
			return nil, fmt.Errorf("union %s branch %d: %w", name, i, err)
		}
		arms[i] = union.Arm{Name: strings.TrimSpace(branch), Kind: k}
	}
	return union.Dynamic(name, arms...)
}

func (r *Registry) buildRecord(def RecordDef) (record.Schema, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" {
		return record.Schema{}, fmt.Errorf("name is required")
	}
	fields := make([]record.FieldSpec, len(def.Fields))
	for i, f := range def.Fields {
		fieldName := strings.TrimSpace(f.Name)
		hasRef := strings.TrimSpace(f.Union) != ""
		hasInline := len(f.Branches) > 0
		var s *union.Schema[union.Branch]
		switch {
		case hasRef && hasInline:
			return record.Schema{}, fmt.Errorf("field %q: union and branches are mutually exclusive", fieldName)
		case hasRef:
			ref, ok := r.unions[strings.TrimSpace(f.Union)]
			if !ok {
				return record.Schema{}, fmt.Errorf("field %q: unknown union %q", fieldName, f.Union)
			}
			s = ref
		case hasInline:
			inline, err := buildUnion(name+"."+fieldName, f.Branches)
			if err != nil {
				return record.Schema{}, fmt.Errorf("field %q: %w", fieldName, err)
			}
			s = inline
		default:
			return record.Schema{}, fmt.Errorf("field %q: union or branches is required", fieldName)
		}
		fields[i] = record.FieldSpec{ID: f.ID, Name: fieldName, Union: s, Required: f.Required}
	}
	return record.NewSchema(name, protocol.MessageType(def.MessageType), fields...)
}

func (r *Registry) Union(name string) (*union.Schema[union.Branch], bool) {
	s, ok := r.unions[name]
	return s, ok
}

func (r *Registry) Record(name string) (record.Schema, bool) {
	s, ok := r.records[name]
	return s, ok
}

// RecordFor returns the record carried by messages of type mt.
func (r *Registry) RecordFor(mt protocol.MessageType) (record.Schema, bool) {
	name, ok := r.byType[mt]
	if !ok {
		return record.Schema{}, false
	}
	return r.records[name], true
}

// Decode picks the record for msg's type and decodes it.
func (r *Registry) Decode(msg *protocol.Message) (*record.Record, error) {
	if msg == nil {
		return nil, protocol.ErrNilMessage
	}
	schema, ok := r.RecordFor(msg.Type())
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, msg.Type())
	}
	return record.Decode(msg, schema)
}

// Unions returns union names, sorted.
func (r *Registry) Unions() []string {
	out := make([]string, 0, len(r.unions))
	for name := range r.unions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Records returns record names, sorted.
func (r *Registry) Records() []string {
	out := make([]string, 0, len(r.records))
	for name := range r.records {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Describe renders the registry back into catalog form. The result builds
// into an equivalent registry.
func (r *Registry) Describe() File {
	var out File
	for _, name := range r.Unions() {
		out.Unions = append(out.Unions, UnionDef{Name: name, Branches: branchNames(r.unions[name])})
	}
	for _, name := range r.Records() {
		rec := r.records[name]
		def := RecordDef{Name: rec.Name, MessageType: uint32(rec.MessageType)}
		for _, f := range rec.Fields {
			fd := FieldDef{ID: f.ID, Name: f.Name, Required: f.Required}
			if named, ok := r.unions[f.Union.Name()]; ok && named == f.Union {
				fd.Union = f.Union.Name()
			} else {
				fd.Branches = branchNames(f.Union)
			}
			def.Fields = append(def.Fields, fd)
		}
		out.Records = append(out.Records, def)
	}
	return out
}

// branchNames returns the arm names as declared, so "long" stays "long".
func branchNames(s *union.Schema[union.Branch]) []string {
	variants := s.Variants()
	out := make([]string, len(variants))
	for i, v := range variants {
		out[i] = v.Name
	}
	return out
}
