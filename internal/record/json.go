package record

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/danmuck/recwire/internal/protocol"
)

// ParseJSON builds a record of desc from a JSON object keyed by field name.
// Binary fields are base64 strings. Maps with string, integer or bool keys are
// JSON objects; other maps are arrays of {"key":...,"value":...}.
func ParseJSON(desc *Descriptor, data []byte) (*Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("record: parse %s json: %w", desc.name, err)
	}
	return FromMap(desc, m)
}

// FromMap builds a record of desc from decoded JSON values, starting from New
// so declared defaults apply to absent members. A null member unsets the field.
func FromMap(desc *Descriptor, m map[string]any) (*Record, error) {
	r := New(desc)
	for name, raw := range m {
		pos, ok := desc.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no field %q", ErrUnknownField, desc.name, name)
		}
		if raw == nil {
			r.unsetPos(pos)
			continue
		}
		fd := desc.fields[pos]
		v, err := fromJSONValue(desc.name+"."+name, fd.Type, raw)
		if err != nil {
			return nil, err
		}
		r.setPos(pos, v)
	}
	return r, nil
}

func fromJSONValue(path string, t TypeSpec, raw any) (any, error) {
	switch t.Wire {
	case protocol.TypeBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case protocol.TypeByte:
		n, err := jsonInt(raw, 8)
		if err == nil {
			return int8(n), nil
		}
	case protocol.TypeI16:
		n, err := jsonInt(raw, 16)
		if err == nil {
			return int16(n), nil
		}
	case protocol.TypeI32:
		n, err := jsonInt(raw, 32)
		if err == nil {
			return int32(n), nil
		}
	case protocol.TypeI64:
		n, err := jsonInt(raw, 64)
		if err == nil {
			return n, nil
		}
	case protocol.TypeDouble:
		switch x := raw.(type) {
		case json.Number:
			return x.Float64()
		case float64:
			return x, nil
		}
	case protocol.TypeString:
		s, ok := raw.(string)
		if !ok {
			break
		}
		if !t.Binary {
			return s, nil
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: invalid base64: %v", ErrValueType, path, err)
		}
		return b, nil
	case protocol.TypeList, protocol.TypeSet:
		arr, ok := raw.([]any)
		if !ok {
			break
		}
		items := make([]any, len(arr))
		for i, item := range arr {
			v, err := fromJSONValue(fmt.Sprintf("%s[%d]", path, i), *t.Elem, item)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return items, nil
	case protocol.TypeMap:
		return mapFromJSON(path, t, raw)
	case protocol.TypeStruct:
		obj, ok := raw.(map[string]any)
		if !ok {
			break
		}
		return FromMap(t.Struct, obj)
	}
	return nil, valueTypeError(path, t, raw)
}

func mapFromJSON(path string, t TypeSpec, raw any) (any, error) {
	switch x := raw.(type) {
	case map[string]any:
		entries := make([]MapEntry, 0, len(x))
		for k, rawVal := range x {
			key, err := keyFromJSON(path, *t.Key, k)
			if err != nil {
				return nil, err
			}
			val, err := fromJSONValue(path+"."+k, *t.Value, rawVal)
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{Key: key, Value: val})
		}
		return entries, nil
	case []any:
		entries := make([]MapEntry, 0, len(x))
		for i, item := range x {
			pair, ok := item.(map[string]any)
			if !ok {
				return nil, valueTypeError(fmt.Sprintf("%s{%d}", path, i), t, item)
			}
			key, err := fromJSONValue(fmt.Sprintf("%s{%d}.key", path, i), *t.Key, pair["key"])
			if err != nil {
				return nil, err
			}
			val, err := fromJSONValue(fmt.Sprintf("%s{%d}.value", path, i), *t.Value, pair["value"])
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{Key: key, Value: val})
		}
		return entries, nil
	}
	return nil, valueTypeError(path, t, raw)
}

func keyFromJSON(path string, t TypeSpec, k string) (any, error) {
	switch t.Wire {
	case protocol.TypeBool:
		b, err := strconv.ParseBool(k)
		if err != nil {
			return nil, valueTypeError(path+" key", t, k)
		}
		return b, nil
	case protocol.TypeByte, protocol.TypeI16, protocol.TypeI32, protocol.TypeI64:
		return fromJSONValue(path+" key", t, json.Number(k))
	default:
		return fromJSONValue(path+" key", t, k)
	}
}

func jsonInt(raw any, bits int) (int64, error) {
	switch x := raw.(type) {
	case json.Number:
		return strconv.ParseInt(x.String(), 10, bits)
	case float64:
		if x != math.Trunc(x) {
			return 0, fmt.Errorf("not an integer: %v", x)
		}
		lim := math.Ldexp(1, bits-1)
		if x < -lim || x >= lim {
			return 0, fmt.Errorf("out of range: %v", x)
		}
		return int64(x), nil
	default:
		return 0, fmt.Errorf("not a number: %T", raw)
	}
}

// ToMap renders the set fields as JSON-ready values, the inverse of FromMap.
func (r *Record) ToMap() map[string]any {
	out := make(map[string]any)
	for pos, fd := range r.desc.fields {
		if r.isSetPos(pos) {
			out[fd.Name] = toJSONValue(fd.Type, r.values[pos])
		}
	}
	return out
}

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ToMap())
}

func toJSONValue(t TypeSpec, v any) any {
	switch t.Wire {
	case protocol.TypeString:
		if t.Binary {
			return base64.StdEncoding.EncodeToString(v.([]byte))
		}
		return v
	case protocol.TypeList, protocol.TypeSet:
		items := v.([]any)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = toJSONValue(*t.Elem, item)
		}
		return out
	case protocol.TypeMap:
		entries := v.([]MapEntry)
		if objectKey(*t.Key) {
			out := make(map[string]any, len(entries))
			for _, e := range entries {
				out[keyString(e.Key)] = toJSONValue(*t.Value, e.Value)
			}
			return out
		}
		out := make([]any, len(entries))
		for i, e := range entries {
			out[i] = map[string]any{"key": toJSONValue(*t.Key, e.Key), "value": toJSONValue(*t.Value, e.Value)}
		}
		return out
	case protocol.TypeStruct:
		return v.(*Record).ToMap()
	default:
		return v
	}
}

func objectKey(t TypeSpec) bool {
	switch t.Wire {
	case protocol.TypeBool, protocol.TypeByte, protocol.TypeI16, protocol.TypeI32, protocol.TypeI64:
		return true
	case protocol.TypeString:
		return !t.Binary
	default:
		return false
	}
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}
