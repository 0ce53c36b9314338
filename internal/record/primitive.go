package record

import "github.com/danmuck/recwire/internal/protocol"

// writePrimitive writes scalar values shared by both schemes. It reports false
// for containers and structs.
func writePrimitive(w protocol.Writer, t TypeSpec, v any) (bool, error) {
	switch t.Wire {
	case protocol.TypeBool:
		return true, w.WriteBool(v.(bool))
	case protocol.TypeByte:
		return true, w.WriteI8(v.(int8))
	case protocol.TypeI16:
		return true, w.WriteI16(v.(int16))
	case protocol.TypeI32:
		return true, w.WriteI32(v.(int32))
	case protocol.TypeI64:
		return true, w.WriteI64(v.(int64))
	case protocol.TypeDouble:
		return true, w.WriteDouble(v.(float64))
	case protocol.TypeString:
		if t.Binary {
			return true, w.WriteBinary(v.([]byte))
		}
		return true, w.WriteString(v.(string))
	default:
		return false, nil
	}
}

func readPrimitive(rd protocol.Reader, t TypeSpec) (any, bool, error) {
	var (
		v   any
		err error
	)
	switch t.Wire {
	case protocol.TypeBool:
		v, err = rd.ReadBool()
	case protocol.TypeByte:
		v, err = rd.ReadI8()
	case protocol.TypeI16:
		v, err = rd.ReadI16()
	case protocol.TypeI32:
		v, err = rd.ReadI32()
	case protocol.TypeI64:
		v, err = rd.ReadI64()
	case protocol.TypeDouble:
		v, err = rd.ReadDouble()
	case protocol.TypeString:
		if t.Binary {
			v, err = rd.ReadBinary()
		} else {
			v, err = rd.ReadString()
		}
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, true, err
	}
	return v, true, nil
}
