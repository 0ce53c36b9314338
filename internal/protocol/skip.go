package protocol

// Skip consumes one self-described value of type t from r. Tagged decoders use
// it to step over unknown or mismatched fields.
func Skip(r Reader, t WireType) error {
	return skip(r, t, DefaultLimits().MaxDepth)
}

// SkipWithDepth is Skip with an explicit nesting budget.
func SkipWithDepth(r Reader, t WireType, maxDepth int) error {
	return skip(r, t, maxDepth)
}

func skip(r Reader, t WireType, depth int) error {
	if depth <= 0 {
		return malformed("skip", ErrDepthLimit)
	}
	switch t {
	case TypeBool:
		_, err := r.ReadBool()
		return err
	case TypeByte:
		_, err := r.ReadI8()
		return err
	case TypeI16:
		_, err := r.ReadI16()
		return err
	case TypeI32:
		_, err := r.ReadI32()
		return err
	case TypeI64:
		_, err := r.ReadI64()
		return err
	case TypeDouble:
		_, err := r.ReadDouble()
		return err
	case TypeString:
		_, err := r.ReadBinary()
		return err
	case TypeStruct:
		if err := r.ReadStructBegin(); err != nil {
			return err
		}
		for {
			h, err := r.ReadFieldBegin()
			if err != nil {
				return err
			}
			if h.Type == TypeStop {
				break
			}
			if err := skip(r, h.Type, depth-1); err != nil {
				return err
			}
			if err := r.ReadFieldEnd(); err != nil {
				return err
			}
		}
		return r.ReadStructEnd()
	case TypeMap:
		h, err := r.ReadMapBegin()
		if err != nil {
			return err
		}
		for i := 0; i < h.Size; i++ {
			if err := skip(r, h.Key, depth-1); err != nil {
				return err
			}
			if err := skip(r, h.Value, depth-1); err != nil {
				return err
			}
		}
		return r.ReadMapEnd()
	case TypeSet:
		h, err := r.ReadSetBegin()
		if err != nil {
			return err
		}
		for i := 0; i < h.Size; i++ {
			if err := skip(r, h.Elem, depth-1); err != nil {
				return err
			}
		}
		return r.ReadSetEnd()
	case TypeList:
		h, err := r.ReadListBegin()
		if err != nil {
			return err
		}
		for i := 0; i < h.Size; i++ {
			if err := skip(r, h.Elem, depth-1); err != nil {
				return err
			}
		}
		return r.ReadListEnd()
	default:
		return malformed("skip", ErrUnknownType)
	}
}
