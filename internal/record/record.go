package record

import (
	"fmt"
	"strings"

	"github.com/danmuck/recwire/internal/protocol"
)

// Record is one instance of a Descriptor. It is not safe for concurrent
// mutation.
type Record struct {
	desc   *Descriptor
	values []any
	isset  []uint64
}

// New returns an empty record of desc. Default-presence fields that declare a
// default value start set to a copy of it.
func New(desc *Descriptor) *Record {
	r := newEmpty(desc)
	for pos, fd := range desc.fields {
		if fd.Default != nil {
			r.setPos(pos, copyValue(fd.Default))
		}
	}
	return r
}

func newEmpty(desc *Descriptor) *Record {
	return &Record{
		desc:   desc,
		values: make([]any, len(desc.fields)),
		isset:  make([]uint64, (len(desc.fields)+63)/64),
	}
}

func (r *Record) Descriptor() *Descriptor {
	return r.desc
}

func (r *Record) TypeName() string {
	return r.desc.name
}

func (r *Record) isSetPos(pos int) bool {
	return r.isset[pos/64]&(1<<(pos%64)) != 0
}

func (r *Record) setPos(pos int, v any) {
	r.values[pos] = v
	r.isset[pos/64] |= 1 << (pos % 64)
}

func (r *Record) unsetPos(pos int) {
	r.values[pos] = nil
	r.isset[pos/64] &^= 1 << (pos % 64)
}

// IsSet reports whether field id is set. Unknown ids are never set.
func (r *Record) IsSet(id int16) bool {
	pos, ok := r.desc.byID[id]
	return ok && r.isSetPos(pos)
}

// Get returns the value of field id and whether it is set.
func (r *Record) Get(id int16) (any, bool) {
	pos, ok := r.desc.byID[id]
	if !ok || !r.isSetPos(pos) {
		return nil, false
	}
	return r.values[pos], true
}

// Set stores v in field id and marks it set. A nil v unsets the field. v must
// be the Go representation of the declared type.
func (r *Record) Set(id int16, v any) error {
	pos, ok := r.desc.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s has no field id %d", ErrUnknownField, r.desc.name, id)
	}
	return r.set(pos, v)
}

func (r *Record) set(pos int, v any) error {
	if v == nil {
		r.unsetPos(pos)
		return nil
	}
	fd := r.desc.fields[pos]
	if err := checkValue(r.desc.name+"."+fd.Name, fd.Type, v); err != nil {
		return err
	}
	r.setPos(pos, v)
	return nil
}

// Unset clears field id. Unknown ids are ignored.
func (r *Record) Unset(id int16) {
	if pos, ok := r.desc.byID[id]; ok {
		r.unsetPos(pos)
	}
}

// Clear unsets every field.
func (r *Record) Clear() {
	for pos := range r.values {
		r.unsetPos(pos)
	}
}

func (r *Record) GetByName(name string) (any, bool) {
	pos, ok := r.desc.byName[name]
	if !ok || !r.isSetPos(pos) {
		return nil, false
	}
	return r.values[pos], true
}

func (r *Record) SetByName(name string, v any) error {
	pos, ok := r.desc.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s has no field %q", ErrUnknownField, r.desc.name, name)
	}
	return r.set(pos, v)
}

// SetFields returns the descriptors of the set fields in declaration order.
func (r *Record) SetFields() []FieldDescriptor {
	var out []FieldDescriptor
	for pos, fd := range r.desc.fields {
		if r.isSetPos(pos) {
			out = append(out, fd)
		}
	}
	return out
}

// Field returns field id as a T when it is set and holds a T.
func Field[T any](r *Record, id int16) (T, bool) {
	var zero T
	v, ok := r.Get(id)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// DeepCopy duplicates the record, including byte slices, containers and
// nested records.
func (r *Record) DeepCopy() *Record {
	out := newEmpty(r.desc)
	copy(out.isset, r.isset)
	for pos, v := range r.values {
		if v != nil {
			out.values[pos] = copyValue(v)
		}
	}
	return out
}

// Equal reports whether both records are of the same type, agree on which
// fields are set, and hold equal values in every set field.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if !sameDescriptor(r.desc, o.desc) {
		return false
	}
	for pos, fd := range r.desc.fields {
		a, b := r.isSetPos(pos), o.isSetPos(pos)
		if a != b {
			return false
		}
		if a && !equalValue(fd.Type, r.values[pos], o.values[pos]) {
			return false
		}
	}
	return true
}

// Compare orders records field by field in declaration order: an unset field
// sorts before a set one, set fields compare by value. Records of different
// types order by type name.
func (r *Record) Compare(o *Record) int {
	if !sameDescriptor(r.desc, o.desc) {
		return strings.Compare(r.desc.name, o.desc.name)
	}
	for pos, fd := range r.desc.fields {
		a, b := r.isSetPos(pos), o.isSetPos(pos)
		if a != b {
			if a {
				return 1
			}
			return -1
		}
		if !a {
			continue
		}
		if c := compareValue(fd.Type, r.values[pos], o.values[pos]); c != 0 {
			return c
		}
	}
	return 0
}

// String renders the set fields as Type(name:value, ...).
func (r *Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.desc.name)
	sb.WriteByte('(')
	first := true
	for pos, fd := range r.desc.fields {
		if !r.isSetPos(pos) {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(fd.Name)
		sb.WriteByte(':')
		renderValue(&sb, fd.Type, r.values[pos])
	}
	sb.WriteByte(')')
	return sb.String()
}

// Validate fails with MissingRequiredFieldError when a REQUIRED field is
// unset, here or in any nested record, then runs the descriptor's validator.
func (r *Record) Validate() error {
	for _, pos := range r.desc.required {
		if !r.isSetPos(pos) {
			return MissingRequiredFieldError{Struct: r.desc.name, Field: r.desc.fields[pos].Name}
		}
	}
	for pos, fd := range r.desc.fields {
		if r.isSetPos(pos) {
			if err := validateNested(fd.Type, r.values[pos]); err != nil {
				return err
			}
		}
	}
	if r.desc.validator != nil {
		return r.desc.validator(r)
	}
	return nil
}

func validateNested(t TypeSpec, v any) error {
	switch t.Wire {
	case protocol.TypeStruct:
		return v.(*Record).Validate()
	case protocol.TypeList, protocol.TypeSet:
		if !containsStruct(*t.Elem) {
			return nil
		}
		for _, item := range v.([]any) {
			if err := validateNested(*t.Elem, item); err != nil {
				return err
			}
		}
	case protocol.TypeMap:
		if !containsStruct(*t.Key) && !containsStruct(*t.Value) {
			return nil
		}
		for _, e := range v.([]MapEntry) {
			if err := validateNested(*t.Key, e.Key); err != nil {
				return err
			}
			if err := validateNested(*t.Value, e.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func containsStruct(t TypeSpec) bool {
	switch {
	case t.Struct != nil:
		return true
	case t.Elem != nil:
		return containsStruct(*t.Elem)
	case t.Key != nil:
		return containsStruct(*t.Key) || containsStruct(*t.Value)
	default:
		return false
	}
}
