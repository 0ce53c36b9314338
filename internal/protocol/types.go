package protocol

import "fmt"

// WireType identifies how a value is laid out on the wire.
type WireType byte

// Wire type IDs. Numbering matches Thrift's TType so encoded records stay
// readable by existing tooling.
const (
	TypeStop   WireType = 0
	TypeBool   WireType = 2
	TypeByte   WireType = 3
	TypeDouble WireType = 4
	TypeI16    WireType = 6
	TypeI32    WireType = 8
	TypeI64    WireType = 10
	TypeString WireType = 11
	TypeStruct WireType = 12
	TypeMap    WireType = 13
	TypeSet    WireType = 14
	TypeList   WireType = 15
)

// Valid reports whether t is a known, non-stop wire type.
func (t WireType) Valid() bool {
	switch t {
	case TypeBool, TypeByte, TypeDouble, TypeI16, TypeI32, TypeI64,
		TypeString, TypeStruct, TypeMap, TypeSet, TypeList:
		return true
	default:
		return false
	}
}

func (t WireType) String() string {
	switch t {
	case TypeStop:
		return "stop"
	case TypeBool:
		return "bool"
	case TypeByte:
		return "byte"
	case TypeDouble:
		return "double"
	case TypeI16:
		return "i16"
	case TypeI32:
		return "i32"
	case TypeI64:
		return "i64"
	case TypeString:
		return "string"
	case TypeStruct:
		return "struct"
	case TypeMap:
		return "map"
	case TypeSet:
		return "set"
	case TypeList:
		return "list"
	default:
		return fmt.Sprintf("wiretype(%d)", byte(t))
	}
}

// FieldHeader precedes every tagged field value. Name is informational and
// is not written by the binary protocol.
type FieldHeader struct {
	Name string
	Type WireType
	ID   int16
}

// ListHeader describes a list or set.
type ListHeader struct {
	Elem WireType
	Size int
}

// MapHeader describes a map.
type MapHeader struct {
	Key   WireType
	Value WireType
	Size  int
}

// Limits constrains decode memory use and recursion.
type Limits struct {
	MaxStringBytes   int
	MaxContainerSize int
	MaxDepth         int
}

func DefaultLimits() Limits {
	return Limits{
		MaxStringBytes:   16 * 1024 * 1024,
		MaxContainerSize: 1 << 20,
		MaxDepth:         64,
	}
}
