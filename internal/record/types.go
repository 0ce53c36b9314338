package record

import (
	"fmt"

	"github.com/danmuck/recwire/internal/protocol"
)

// Presence is the declared requiredness of a field.
type Presence uint8

const (
	Optional Presence = iota
	Required
	// Default fields behave like Optional on the wire. A declared default
	// value is applied, and marked set, when a record is constructed.
	Default
)

func (p Presence) String() string {
	switch p {
	case Optional:
		return "optional"
	case Required:
		return "required"
	case Default:
		return "default"
	default:
		return fmt.Sprintf("presence(%d)", uint8(p))
	}
}

// TypeSpec is a declared field type. Containers carry their element types;
// struct fields carry the nested descriptor.
type TypeSpec struct {
	Wire   protocol.WireType
	Binary bool
	Elem   *TypeSpec
	Key    *TypeSpec
	Value  *TypeSpec
	Struct *Descriptor
}

var (
	BoolType   = TypeSpec{Wire: protocol.TypeBool}
	ByteType   = TypeSpec{Wire: protocol.TypeByte}
	I16Type    = TypeSpec{Wire: protocol.TypeI16}
	I32Type    = TypeSpec{Wire: protocol.TypeI32}
	I64Type    = TypeSpec{Wire: protocol.TypeI64}
	DoubleType = TypeSpec{Wire: protocol.TypeDouble}
	StringType = TypeSpec{Wire: protocol.TypeString}
	BinaryType = TypeSpec{Wire: protocol.TypeString, Binary: true}
)

func ListOf(elem TypeSpec) TypeSpec {
	return TypeSpec{Wire: protocol.TypeList, Elem: &elem}
}

func SetOf(elem TypeSpec) TypeSpec {
	return TypeSpec{Wire: protocol.TypeSet, Elem: &elem}
}

func MapOf(key, value TypeSpec) TypeSpec {
	return TypeSpec{Wire: protocol.TypeMap, Key: &key, Value: &value}
}

func StructOf(d *Descriptor) TypeSpec {
	return TypeSpec{Wire: protocol.TypeStruct, Struct: d}
}

func (t TypeSpec) String() string {
	switch t.Wire {
	case protocol.TypeString:
		if t.Binary {
			return "binary"
		}
		return "string"
	case protocol.TypeList:
		return "list<" + t.Elem.String() + ">"
	case protocol.TypeSet:
		return "set<" + t.Elem.String() + ">"
	case protocol.TypeMap:
		return "map<" + t.Key.String() + "," + t.Value.String() + ">"
	case protocol.TypeStruct:
		if t.Struct == nil {
			return "struct"
		}
		return t.Struct.Name()
	default:
		return t.Wire.String()
	}
}

func (t TypeSpec) validate() error {
	switch t.Wire {
	case protocol.TypeBool, protocol.TypeByte, protocol.TypeI16, protocol.TypeI32,
		protocol.TypeI64, protocol.TypeDouble, protocol.TypeString:
		return nil
	case protocol.TypeList, protocol.TypeSet:
		if t.Elem == nil {
			return fmt.Errorf("%s without element type", t.Wire)
		}
		return t.Elem.validate()
	case protocol.TypeMap:
		if t.Key == nil || t.Value == nil {
			return fmt.Errorf("map without key or value type")
		}
		if err := t.Key.validate(); err != nil {
			return err
		}
		return t.Value.validate()
	case protocol.TypeStruct:
		if t.Struct == nil {
			return fmt.Errorf("struct without descriptor")
		}
		return nil
	default:
		return fmt.Errorf("unsupported wire type %s", t.Wire)
	}
}

// MapEntry is one key/value pair of a map value. Maps keep entry order as
// written or decoded; equality and ordering do not depend on it.
type MapEntry struct {
	Key   any
	Value any
}
