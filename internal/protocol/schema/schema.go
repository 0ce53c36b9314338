package schema

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/recwire/internal/logging"
	"github.com/danmuck/recwire/internal/protocol"
	"github.com/danmuck/recwire/internal/record"
	"gopkg.in/yaml.v3"
)

// Definition is the file form of a set of struct declarations.
type Definition struct {
	Structs []StructDef `toml:"structs" yaml:"structs"`
}

type StructDef struct {
	Name   string     `toml:"name" yaml:"name"`
	Fields []FieldDef `toml:"fields" yaml:"fields"`
}

// FieldDef declares one field. Type is a type expression such as "i32",
// "list<string>" or "map<string,ColumnFamily>". Presence defaults to optional.
type FieldDef struct {
	ID       int16  `toml:"id" yaml:"id"`
	Name     string `toml:"name" yaml:"name"`
	Type     string `toml:"type" yaml:"type"`
	Presence string `toml:"presence" yaml:"presence"`
	Default  any    `toml:"default" yaml:"default"`
}

type ValidationError struct {
	Struct string
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("schema: struct=%s: %s", e.Struct, e.Reason)
	}
	return fmt.Sprintf("schema: struct=%s field=%s: %s", e.Struct, e.Field, e.Reason)
}

// ParseTOML decodes a definition and rejects keys it does not know.
func ParseTOML(data []byte) (Definition, error) {
	var def Definition
	meta, err := toml.Decode(string(data), &def)
	if err != nil {
		return Definition{}, fmt.Errorf("schema: parse toml: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Definition{}, fmt.Errorf("schema: unknown toml keys: %v", undecoded)
	}
	return def, nil
}

func ParseYAML(data []byte) (Definition, error) {
	var def Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return Definition{}, fmt.Errorf("schema: parse yaml: %w", err)
	}
	return def, nil
}

// LoadFile parses path by extension (.toml, .yaml, .yml) and builds its
// structs. Names in base may be referenced but not redeclared.
func LoadFile(path string, base *record.Registry) ([]*record.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var def Definition
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		def, err = ParseTOML(data)
	case ".yaml", ".yml":
		def, err = ParseYAML(data)
	default:
		return nil, fmt.Errorf("schema: %s: unsupported extension", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	logging.Debugf("schema.LoadFile path=%s structs=%d", path, len(def.Structs))
	return Build(def, base)
}

// LoadInto builds every file in paths and registers the result in reg.
// Later files may reference structs from earlier ones.
func LoadInto(reg *record.Registry, paths ...string) error {
	for _, path := range paths {
		descs, err := LoadFile(path, reg)
		if err != nil {
			return err
		}
		for _, d := range descs {
			if err := reg.Register(d); err != nil {
				return fmt.Errorf("schema: %s: %w", path, err)
			}
		}
	}
	return nil
}

// Build turns a definition into descriptors, in the order declared. Structs
// may reference each other in any order; cycles are rejected.
func Build(def Definition, base *record.Registry) ([]*record.Descriptor, error) {
	byName := make(map[string]StructDef, len(def.Structs))
	for _, sd := range def.Structs {
		if sd.Name == "" {
			return nil, ValidationError{Reason: "struct without name"}
		}
		if _, dup := byName[sd.Name]; dup {
			return nil, ValidationError{Struct: sd.Name, Reason: "declared twice"}
		}
		if base != nil {
			if _, taken := base.Lookup(sd.Name); taken {
				return nil, ValidationError{Struct: sd.Name, Reason: "already registered"}
			}
		}
		byName[sd.Name] = sd
	}

	b := &builder{
		defs:  byName,
		base:  base,
		built: make(map[string]*record.Descriptor, len(byName)),
		state: make(map[string]int, len(byName)),
	}
	out := make([]*record.Descriptor, 0, len(def.Structs))
	for _, sd := range def.Structs {
		d, err := b.build(sd.Name, nil)
		if err != nil {
			logging.Debugf("schema.Build failed: %v", err)
			return nil, err
		}
		out = append(out, d)
	}
	logging.Debugf("schema.Build ok structs=%d", len(out))
	return out, nil
}

const (
	unvisited = iota
	visiting
	done
)

type builder struct {
	defs  map[string]StructDef
	base  *record.Registry
	built map[string]*record.Descriptor
	state map[string]int
}

func (b *builder) build(name string, path []string) (*record.Descriptor, error) {
	switch b.state[name] {
	case done:
		return b.built[name], nil
	case visiting:
		cycle := strings.Join(append(path, name), " -> ")
		return nil, ValidationError{Struct: name, Reason: "reference cycle " + cycle}
	}
	b.state[name] = visiting
	path = append(path, name)

	sd := b.defs[name]
	fields := make([]record.FieldDescriptor, 0, len(sd.Fields))
	for _, fd := range sd.Fields {
		t, err := b.parseType(fd.Type, path)
		if err != nil {
			var verr ValidationError
			if errors.As(err, &verr) {
				return nil, err
			}
			return nil, ValidationError{Struct: name, Field: fd.Name, Reason: err.Error()}
		}
		presence, err := parsePresence(fd.Presence)
		if err != nil {
			return nil, ValidationError{Struct: name, Field: fd.Name, Reason: err.Error()}
		}
		var def any
		if fd.Default != nil {
			def, err = coerceDefault(t, fd.Default)
			if err != nil {
				return nil, ValidationError{Struct: name, Field: fd.Name, Reason: err.Error()}
			}
		}
		fields = append(fields, record.FieldDescriptor{
			ID:       fd.ID,
			Name:     fd.Name,
			Type:     t,
			Presence: presence,
			Default:  def,
		})
	}
	d, err := record.NewDescriptor(name, fields)
	if err != nil {
		return nil, ValidationError{Struct: name, Reason: err.Error()}
	}
	b.built[name] = d
	b.state[name] = done
	logging.Debugf("schema.build struct=%s fields=%d", name, len(fields))
	return d, nil
}

func (b *builder) resolve(name string, path []string) (*record.Descriptor, error) {
	if _, ok := b.defs[name]; ok {
		return b.build(name, path)
	}
	if b.base != nil {
		if d, ok := b.base.Lookup(name); ok {
			return d, nil
		}
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

var scalarTypes = map[string]record.TypeSpec{
	"bool":   record.BoolType,
	"byte":   record.ByteType,
	"i8":     record.ByteType,
	"i16":    record.I16Type,
	"i32":    record.I32Type,
	"i64":    record.I64Type,
	"double": record.DoubleType,
	"string": record.StringType,
	"binary": record.BinaryType,
}

func (b *builder) parseType(expr string, path []string) (record.TypeSpec, error) {
	expr = strings.TrimSpace(expr)
	if t, ok := scalarTypes[expr]; ok {
		return t, nil
	}
	open := strings.IndexByte(expr, '<')
	if open < 0 {
		if expr == "" {
			return record.TypeSpec{}, fmt.Errorf("empty type")
		}
		d, err := b.resolve(expr, path)
		if err != nil {
			return record.TypeSpec{}, err
		}
		return record.StructOf(d), nil
	}
	if !strings.HasSuffix(expr, ">") {
		return record.TypeSpec{}, fmt.Errorf("unterminated type %q", expr)
	}
	kind, inner := expr[:open], expr[open+1:len(expr)-1]
	args, err := splitArgs(inner)
	if err != nil {
		return record.TypeSpec{}, fmt.Errorf("%s: %w", expr, err)
	}
	switch kind {
	case "list", "set":
		if len(args) != 1 {
			return record.TypeSpec{}, fmt.Errorf("%s takes one type argument", kind)
		}
		elem, err := b.parseType(args[0], path)
		if err != nil {
			return record.TypeSpec{}, err
		}
		if kind == "set" {
			return record.SetOf(elem), nil
		}
		return record.ListOf(elem), nil
	case "map":
		if len(args) != 2 {
			return record.TypeSpec{}, fmt.Errorf("map takes two type arguments")
		}
		key, err := b.parseType(args[0], path)
		if err != nil {
			return record.TypeSpec{}, err
		}
		val, err := b.parseType(args[1], path)
		if err != nil {
			return record.TypeSpec{}, err
		}
		return record.MapOf(key, val), nil
	default:
		return record.TypeSpec{}, fmt.Errorf("unknown container %q", kind)
	}
}

// splitArgs splits on commas outside angle brackets.
func splitArgs(s string) ([]string, error) {
	var out []string
	depth, start := 0, 0
	for i, c := range s {
		switch c {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced brackets")
			}
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets")
	}
	return append(out, s[start:]), nil
}

func parsePresence(raw string) (record.Presence, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "optional":
		return record.Optional, nil
	case "required":
		return record.Required, nil
	case "default":
		return record.Default, nil
	default:
		return 0, fmt.Errorf("unknown presence %q", raw)
	}
}

// coerceDefault maps a decoded TOML or YAML scalar onto the field's Go type.
// Container and struct defaults are not supported.
func coerceDefault(t record.TypeSpec, v any) (any, error) {
	switch t.Wire {
	case protocol.TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case protocol.TypeByte:
		if n, ok := intDefault(v, math.MinInt8, math.MaxInt8); ok {
			return int8(n), nil
		}
	case protocol.TypeI16:
		if n, ok := intDefault(v, math.MinInt16, math.MaxInt16); ok {
			return int16(n), nil
		}
	case protocol.TypeI32:
		if n, ok := intDefault(v, math.MinInt32, math.MaxInt32); ok {
			return int32(n), nil
		}
	case protocol.TypeI64:
		if n, ok := intDefault(v, math.MinInt64, math.MaxInt64); ok {
			return n, nil
		}
	case protocol.TypeDouble:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int64:
			return float64(x), nil
		case int:
			return float64(x), nil
		}
	case protocol.TypeString:
		if s, ok := v.(string); ok {
			if t.Binary {
				return []byte(s), nil
			}
			return s, nil
		}
	default:
		return nil, fmt.Errorf("defaults are not supported for %s", t)
	}
	return nil, fmt.Errorf("default %v (%T) does not fit %s", v, v, t)
}

func intDefault(v any, lo, hi int64) (int64, bool) {
	var n int64
	switch x := v.(type) {
	case int64:
		n = x
	case int:
		n = int64(x)
	default:
		return 0, false
	}
	return n, n >= lo && n <= hi
}
