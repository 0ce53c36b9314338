package record

import "github.com/danmuck/recwire/internal/protocol"

// encodeCompact writes REQUIRED values untagged, then the presence bits of the
// remaining fields, then their set values. The reader must hold the identical
// descriptor.
func encodeCompact(w protocol.Writer, r *Record) error {
	if err := w.WriteStructBegin(r.desc.name); err != nil {
		return err
	}
	for _, pos := range r.desc.required {
		if err := writeCompactValue(w, r.desc.fields[pos].Type, r.values[pos]); err != nil {
			return err
		}
	}
	bits := make([]bool, len(r.desc.optional))
	for k, pos := range r.desc.optional {
		bits[k] = r.isSetPos(pos)
	}
	if err := w.WriteBitSet(bits); err != nil {
		return err
	}
	for k, pos := range r.desc.optional {
		if !bits[k] {
			continue
		}
		if err := writeCompactValue(w, r.desc.fields[pos].Type, r.values[pos]); err != nil {
			return err
		}
	}
	return w.WriteStructEnd()
}

func writeCompactValue(w protocol.Writer, t TypeSpec, v any) error {
	if ok, err := writePrimitive(w, t, v); ok {
		return err
	}
	switch t.Wire {
	case protocol.TypeStruct:
		return encodeCompact(w, v.(*Record))
	case protocol.TypeList, protocol.TypeSet:
		items := v.([]any)
		if err := w.WriteSize(len(items)); err != nil {
			return err
		}
		for _, item := range items {
			if err := writeCompactValue(w, *t.Elem, item); err != nil {
				return err
			}
		}
	case protocol.TypeMap:
		entries := v.([]MapEntry)
		if err := w.WriteSize(len(entries)); err != nil {
			return err
		}
		for _, e := range entries {
			if err := writeCompactValue(w, *t.Key, e.Key); err != nil {
				return err
			}
			if err := writeCompactValue(w, *t.Value, e.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeCompact(rd protocol.Reader, desc *Descriptor) (*Record, error) {
	r := newEmpty(desc)
	if err := rd.ReadStructBegin(); err != nil {
		return nil, err
	}
	for _, pos := range desc.required {
		v, err := readCompactValue(rd, desc.fields[pos].Type)
		if err != nil {
			return nil, err
		}
		r.setPos(pos, v)
	}
	bits, err := rd.ReadBitSet(len(desc.optional))
	if err != nil {
		return nil, err
	}
	for k, pos := range desc.optional {
		if !bits[k] {
			continue
		}
		v, err := readCompactValue(rd, desc.fields[pos].Type)
		if err != nil {
			return nil, err
		}
		r.setPos(pos, v)
	}
	if err := rd.ReadStructEnd(); err != nil {
		return nil, err
	}
	return r, nil
}

func readCompactValue(rd protocol.Reader, t TypeSpec) (any, error) {
	if v, ok, err := readPrimitive(rd, t); ok {
		return v, err
	}
	switch t.Wire {
	case protocol.TypeStruct:
		return decodeCompact(rd, t.Struct)
	case protocol.TypeList, protocol.TypeSet:
		n, err := rd.ReadSize()
		if err != nil {
			return nil, err
		}
		items := make([]any, 0, initialCap(n))
		for i := 0; i < n; i++ {
			item, err := readCompactValue(rd, *t.Elem)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	case protocol.TypeMap:
		n, err := rd.ReadSize()
		if err != nil {
			return nil, err
		}
		entries := make([]MapEntry, 0, initialCap(n))
		for i := 0; i < n; i++ {
			key, err := readCompactValue(rd, *t.Key)
			if err != nil {
				return nil, err
			}
			val, err := readCompactValue(rd, *t.Value)
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{Key: key, Value: val})
		}
		return entries, nil
	}
	return nil, nil
}
