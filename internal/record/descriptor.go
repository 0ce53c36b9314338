package record

import (
	"fmt"

	"github.com/danmuck/recwire/internal/protocol"
)

// FieldDescriptor is the static metadata for one declared field.
type FieldDescriptor struct {
	ID       int16
	Name     string
	Type     TypeSpec
	Presence Presence
	// Default is applied by New for Default-presence fields. Nil means none.
	Default any
}

// Descriptor is the immutable field table of one record type.
type Descriptor struct {
	name      string
	fields    []FieldDescriptor
	byID      map[int16]int
	byName    map[string]int
	required  []int
	optional  []int
	validator func(*Record) error
}

// Option customizes a Descriptor at construction.
type Option func(*Descriptor)

// WithValidator adds a domain check run by Validate after the required-field
// check passes.
func WithValidator(fn func(*Record) error) Option {
	return func(d *Descriptor) {
		d.validator = fn
	}
}

// NewDescriptor builds the field table for name. Fields keep the given
// declaration order, which is also the compact scheme's bit order.
func NewDescriptor(name string, fields []FieldDescriptor, opts ...Option) (*Descriptor, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty type name", ErrDescriptor)
	}
	d := &Descriptor{
		name:   name,
		fields: make([]FieldDescriptor, len(fields)),
		byID:   make(map[int16]int, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	copy(d.fields, fields)
	for pos, fd := range d.fields {
		if fd.ID <= 0 {
			return nil, fmt.Errorf("%w: %s.%s: field id %d must be positive", ErrDescriptor, name, fd.Name, fd.ID)
		}
		if fd.Name == "" {
			return nil, fmt.Errorf("%w: %s: field %d has no name", ErrDescriptor, name, fd.ID)
		}
		if prev, dup := d.byID[fd.ID]; dup {
			return nil, fmt.Errorf("%w: %s: field id %d declared by %s and %s", ErrDescriptor, name, fd.ID, d.fields[prev].Name, fd.Name)
		}
		if _, dup := d.byName[fd.Name]; dup {
			return nil, fmt.Errorf("%w: %s: duplicate field name %s", ErrDescriptor, name, fd.Name)
		}
		if err := fd.Type.validate(); err != nil {
			return nil, fmt.Errorf("%w: %s.%s: %v", ErrDescriptor, name, fd.Name, err)
		}
		switch fd.Presence {
		case Required:
			d.required = append(d.required, pos)
		case Optional, Default:
			d.optional = append(d.optional, pos)
		default:
			return nil, fmt.Errorf("%w: %s.%s: invalid presence %d", ErrDescriptor, name, fd.Name, fd.Presence)
		}
		if fd.Default != nil {
			if fd.Presence != Default {
				return nil, fmt.Errorf("%w: %s.%s: default value requires default presence", ErrDescriptor, name, fd.Name)
			}
			if err := checkValue(name+"."+fd.Name, fd.Type, fd.Default); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDescriptor, err)
			}
			d.fields[pos].Default = copyValue(fd.Default)
		}
		d.byID[fd.ID] = pos
		d.byName[fd.Name] = pos
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// MustDescriptor is NewDescriptor for statically declared tables.
func MustDescriptor(name string, fields []FieldDescriptor, opts ...Option) *Descriptor {
	d, err := NewDescriptor(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Descriptor) Name() string {
	return d.name
}

// Len is the number of declared fields.
func (d *Descriptor) Len() int {
	return len(d.fields)
}

// Fields returns the declared fields in declaration order.
func (d *Descriptor) Fields() []FieldDescriptor {
	out := make([]FieldDescriptor, len(d.fields))
	copy(out, d.fields)
	return out
}

// Field returns the field at declaration position pos.
func (d *Descriptor) Field(pos int) FieldDescriptor {
	return d.fields[pos]
}

// FieldByID looks up a field by wire id. Unknown ids are a normal result.
func (d *Descriptor) FieldByID(id int16) (FieldDescriptor, bool) {
	pos, ok := d.byID[id]
	if !ok {
		return FieldDescriptor{}, false
	}
	return d.fields[pos], true
}

func (d *Descriptor) FieldByName(name string) (FieldDescriptor, bool) {
	pos, ok := d.byName[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return d.fields[pos], true
}

// Position returns the declaration position of id.
func (d *Descriptor) Position(id int16) (int, bool) {
	pos, ok := d.byID[id]
	return pos, ok
}

// CompactWidth is the presence bit count written by the compact scheme.
func (d *Descriptor) CompactWidth() int {
	return len(d.optional)
}

// Structs returns the descriptors referenced by this one, directly or through
// containers, without duplicates.
func (d *Descriptor) Structs() []*Descriptor {
	seen := map[*Descriptor]bool{d: true}
	var out []*Descriptor
	var walk func(t TypeSpec)
	walk = func(t TypeSpec) {
		switch {
		case t.Struct != nil:
			if seen[t.Struct] {
				return
			}
			seen[t.Struct] = true
			out = append(out, t.Struct)
			for _, fd := range t.Struct.fields {
				walk(fd.Type)
			}
		case t.Elem != nil:
			walk(*t.Elem)
		case t.Key != nil:
			walk(*t.Key)
			walk(*t.Value)
		}
	}
	for _, fd := range d.fields {
		walk(fd.Type)
	}
	return out
}

// sameDescriptor reports whether a and b describe the same layout: identical
// pointers, or equal names with matching field ids, names, presence and types.
func sameDescriptor(a, b *Descriptor) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.name != b.name || len(a.fields) != len(b.fields) {
		return false
	}
	for i, fa := range a.fields {
		fb := b.fields[i]
		if fa.ID != fb.ID || fa.Name != fb.Name || fa.Presence != fb.Presence || !sameType(fa.Type, fb.Type) {
			return false
		}
	}
	return true
}

func sameType(a, b TypeSpec) bool {
	if a.Wire != b.Wire || a.Binary != b.Binary {
		return false
	}
	switch a.Wire {
	case protocol.TypeList, protocol.TypeSet:
		return sameType(*a.Elem, *b.Elem)
	case protocol.TypeMap:
		return sameType(*a.Key, *b.Key) && sameType(*a.Value, *b.Value)
	case protocol.TypeStruct:
		return sameDescriptor(a.Struct, b.Struct)
	}
	return true
}
