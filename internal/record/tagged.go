package record

import "github.com/danmuck/recwire/internal/protocol"

func encodeTagged(w protocol.Writer, r *Record) error {
	if err := w.WriteStructBegin(r.desc.name); err != nil {
		return err
	}
	for pos, fd := range r.desc.fields {
		if !r.isSetPos(pos) {
			continue
		}
		h := protocol.FieldHeader{Name: fd.Name, Type: fd.Type.Wire, ID: fd.ID}
		if err := w.WriteFieldBegin(h); err != nil {
			return err
		}
		if err := writeTaggedValue(w, fd.Type, r.values[pos]); err != nil {
			return err
		}
		if err := w.WriteFieldEnd(); err != nil {
			return err
		}
	}
	if err := w.WriteFieldStop(); err != nil {
		return err
	}
	return w.WriteStructEnd()
}

func writeTaggedValue(w protocol.Writer, t TypeSpec, v any) error {
	if ok, err := writePrimitive(w, t, v); ok {
		return err
	}
	switch t.Wire {
	case protocol.TypeStruct:
		return encodeTagged(w, v.(*Record))
	case protocol.TypeList, protocol.TypeSet:
		items := v.([]any)
		h := protocol.ListHeader{Elem: t.Elem.Wire, Size: len(items)}
		var err error
		if t.Wire == protocol.TypeSet {
			err = w.WriteSetBegin(h)
		} else {
			err = w.WriteListBegin(h)
		}
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := writeTaggedValue(w, *t.Elem, item); err != nil {
				return err
			}
		}
		if t.Wire == protocol.TypeSet {
			return w.WriteSetEnd()
		}
		return w.WriteListEnd()
	case protocol.TypeMap:
		entries := v.([]MapEntry)
		h := protocol.MapHeader{Key: t.Key.Wire, Value: t.Value.Wire, Size: len(entries)}
		if err := w.WriteMapBegin(h); err != nil {
			return err
		}
		for _, e := range entries {
			if err := writeTaggedValue(w, *t.Key, e.Key); err != nil {
				return err
			}
			if err := writeTaggedValue(w, *t.Value, e.Value); err != nil {
				return err
			}
		}
		return w.WriteMapEnd()
	}
	return nil
}

// decodeTagged reads fields until the stop marker. Unknown ids and ids whose
// wire type disagrees with the declaration are skipped, not rejected.
func decodeTagged(rd protocol.Reader, desc *Descriptor) (*Record, error) {
	r := newEmpty(desc)
	if err := rd.ReadStructBegin(); err != nil {
		return nil, err
	}
	for {
		h, err := rd.ReadFieldBegin()
		if err != nil {
			return nil, err
		}
		if h.Type == protocol.TypeStop {
			break
		}
		pos, known := desc.byID[h.ID]
		if !known || desc.fields[pos].Type.Wire != h.Type {
			if err := protocol.Skip(rd, h.Type); err != nil {
				return nil, err
			}
		} else {
			v, present, err := readTaggedValue(rd, desc.fields[pos].Type)
			if err != nil {
				return nil, err
			}
			if present {
				r.setPos(pos, v)
			}
		}
		if err := rd.ReadFieldEnd(); err != nil {
			return nil, err
		}
	}
	if err := rd.ReadStructEnd(); err != nil {
		return nil, err
	}
	return r, nil
}

// readTaggedValue decodes one value of declared type t. present is false when
// a container's element types disagree with the declaration; its elements
// are consumed and dropped.
func readTaggedValue(rd protocol.Reader, t TypeSpec) (v any, present bool, err error) {
	if v, ok, err := readPrimitive(rd, t); ok {
		return v, err == nil, err
	}
	switch t.Wire {
	case protocol.TypeStruct:
		nested, err := decodeTagged(rd, t.Struct)
		if err != nil {
			return nil, false, err
		}
		return nested, true, nil
	case protocol.TypeList, protocol.TypeSet:
		var h protocol.ListHeader
		if t.Wire == protocol.TypeSet {
			h, err = rd.ReadSetBegin()
		} else {
			h, err = rd.ReadListBegin()
		}
		if err != nil {
			return nil, false, err
		}
		present = h.Elem == t.Elem.Wire
		var items []any
		if present {
			items = make([]any, 0, initialCap(h.Size))
		}
		for i := 0; i < h.Size; i++ {
			if !present {
				if err := protocol.Skip(rd, h.Elem); err != nil {
					return nil, false, err
				}
				continue
			}
			item, ok, err := readTaggedValue(rd, *t.Elem)
			if err != nil {
				return nil, false, err
			}
			present = present && ok
			items = append(items, item)
		}
		if t.Wire == protocol.TypeSet {
			err = rd.ReadSetEnd()
		} else {
			err = rd.ReadListEnd()
		}
		if err != nil || !present {
			return nil, false, err
		}
		return items, true, nil
	case protocol.TypeMap:
		h, err := rd.ReadMapBegin()
		if err != nil {
			return nil, false, err
		}
		present = h.Key == t.Key.Wire && h.Value == t.Value.Wire
		var entries []MapEntry
		if present {
			entries = make([]MapEntry, 0, initialCap(h.Size))
		}
		for i := 0; i < h.Size; i++ {
			if !present {
				if err := protocol.Skip(rd, h.Key); err != nil {
					return nil, false, err
				}
				if err := protocol.Skip(rd, h.Value); err != nil {
					return nil, false, err
				}
				continue
			}
			key, okKey, err := readTaggedValue(rd, *t.Key)
			if err != nil {
				return nil, false, err
			}
			val, okVal, err := readTaggedValue(rd, *t.Value)
			if err != nil {
				return nil, false, err
			}
			present = present && okKey && okVal
			entries = append(entries, MapEntry{Key: key, Value: val})
		}
		if err := rd.ReadMapEnd(); err != nil || !present {
			return nil, false, err
		}
		return entries, true, nil
	}
	return nil, false, nil
}
