package record

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/danmuck/recwire/internal/protocol"
)

// checkValue reports whether v is the Go representation of t.
func checkValue(path string, t TypeSpec, v any) error {
	ok := false
	switch t.Wire {
	case protocol.TypeBool:
		_, ok = v.(bool)
	case protocol.TypeByte:
		_, ok = v.(int8)
	case protocol.TypeI16:
		_, ok = v.(int16)
	case protocol.TypeI32:
		_, ok = v.(int32)
	case protocol.TypeI64:
		_, ok = v.(int64)
	case protocol.TypeDouble:
		_, ok = v.(float64)
	case protocol.TypeString:
		if t.Binary {
			_, ok = v.([]byte)
		} else {
			_, ok = v.(string)
		}
	case protocol.TypeList, protocol.TypeSet:
		items, isList := v.([]any)
		if !isList {
			break
		}
		for i, item := range items {
			if err := checkValue(fmt.Sprintf("%s[%d]", path, i), *t.Elem, item); err != nil {
				return err
			}
		}
		ok = true
	case protocol.TypeMap:
		entries, isMap := v.([]MapEntry)
		if !isMap {
			break
		}
		for i, e := range entries {
			if err := checkValue(fmt.Sprintf("%s{%d}.key", path, i), *t.Key, e.Key); err != nil {
				return err
			}
			if err := checkValue(fmt.Sprintf("%s{%d}.value", path, i), *t.Value, e.Value); err != nil {
				return err
			}
		}
		ok = true
	case protocol.TypeStruct:
		rec, isRec := v.(*Record)
		ok = isRec && rec != nil && sameDescriptor(rec.desc, t.Struct)
	}
	if !ok {
		return valueTypeError(path, t, v)
	}
	return nil
}

// maxPrealloc bounds the capacity reserved from a size read off the wire.
// Larger containers grow as their elements actually arrive.
const maxPrealloc = 1024

func initialCap(n int) int {
	return min(n, maxPrealloc)
}

// copyValue duplicates owned storage so the copy shares nothing mutable.
func copyValue(v any) any {
	switch x := v.(type) {
	case []byte:
		out := make([]byte, len(x))
		copy(out, x)
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = copyValue(item)
		}
		return out
	case []MapEntry:
		out := make([]MapEntry, len(x))
		for i, e := range x {
			out[i] = MapEntry{Key: copyValue(e.Key), Value: copyValue(e.Value)}
		}
		return out
	case *Record:
		return x.DeepCopy()
	default:
		return v
	}
}

func equalValue(t TypeSpec, a, b any) bool {
	switch t.Wire {
	case protocol.TypeDouble:
		return compareDouble(a.(float64), b.(float64)) == 0
	case protocol.TypeString:
		if t.Binary {
			return bytes.Equal(a.([]byte), b.([]byte))
		}
		return a.(string) == b.(string)
	case protocol.TypeList:
		x, y := a.([]any), b.([]any)
		if len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equalValue(*t.Elem, x[i], y[i]) {
				return false
			}
		}
		return true
	case protocol.TypeSet:
		x, y := a.([]any), b.([]any)
		if len(x) != len(y) {
			return false
		}
		used := make([]bool, len(y))
		for _, item := range x {
			found := false
			for j := range y {
				if !used[j] && equalValue(*t.Elem, item, y[j]) {
					used[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case protocol.TypeMap:
		x, y := a.([]MapEntry), b.([]MapEntry)
		if len(x) != len(y) {
			return false
		}
		used := make([]bool, len(y))
		for _, e := range x {
			found := false
			for j, f := range y {
				if !used[j] && equalValue(*t.Key, e.Key, f.Key) && equalValue(*t.Value, e.Value, f.Value) {
					used[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case protocol.TypeStruct:
		return a.(*Record).Equal(b.(*Record))
	default:
		return a == b
	}
}

// compareValue orders two values of type t. Containers order by size first,
// then element by element; sets and maps are compared in sorted order.
func compareValue(t TypeSpec, a, b any) int {
	switch t.Wire {
	case protocol.TypeBool:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case protocol.TypeByte:
		return cmpOrdered(a.(int8), b.(int8))
	case protocol.TypeI16:
		return cmpOrdered(a.(int16), b.(int16))
	case protocol.TypeI32:
		return cmpOrdered(a.(int32), b.(int32))
	case protocol.TypeI64:
		return cmpOrdered(a.(int64), b.(int64))
	case protocol.TypeDouble:
		return compareDouble(a.(float64), b.(float64))
	case protocol.TypeString:
		if t.Binary {
			return bytes.Compare(a.([]byte), b.([]byte))
		}
		return strings.Compare(a.(string), b.(string))
	case protocol.TypeList, protocol.TypeSet:
		x, y := a.([]any), b.([]any)
		if c := cmpOrdered(len(x), len(y)); c != 0 {
			return c
		}
		if t.Wire == protocol.TypeSet {
			x, y = sortedItems(*t.Elem, x), sortedItems(*t.Elem, y)
		}
		for i := range x {
			if c := compareValue(*t.Elem, x[i], y[i]); c != 0 {
				return c
			}
		}
		return 0
	case protocol.TypeMap:
		x, y := a.([]MapEntry), b.([]MapEntry)
		if c := cmpOrdered(len(x), len(y)); c != 0 {
			return c
		}
		x, y = sortedEntries(t, x), sortedEntries(t, y)
		for i := range x {
			if c := compareValue(*t.Key, x[i].Key, y[i].Key); c != 0 {
				return c
			}
			if c := compareValue(*t.Value, x[i].Value, y[i].Value); c != 0 {
				return c
			}
		}
		return 0
	case protocol.TypeStruct:
		return a.(*Record).Compare(b.(*Record))
	default:
		return 0
	}
}

type ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float64
}

func cmpOrdered[T ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareDouble orders NaN before every other value and equal to itself.
func compareDouble(a, b float64) int {
	switch an, bn := math.IsNaN(a), math.IsNaN(b); {
	case an && bn:
		return 0
	case an:
		return -1
	case bn:
		return 1
	}
	return cmpOrdered(a, b)
}

func sortedItems(t TypeSpec, items []any) []any {
	out := make([]any, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return compareValue(t, out[i], out[j]) < 0
	})
	return out
}

// sortedEntries orders by key, then by value for repeated keys.
func sortedEntries(t TypeSpec, entries []MapEntry) []MapEntry {
	out := make([]MapEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if c := compareValue(*t.Key, out[i].Key, out[j].Key); c != 0 {
			return c < 0
		}
		return compareValue(*t.Value, out[i].Value, out[j].Value) < 0
	})
	return out
}

const maxRenderedBinary = 128

func renderValue(sb *strings.Builder, t TypeSpec, v any) {
	switch t.Wire {
	case protocol.TypeBool:
		sb.WriteString(strconv.FormatBool(v.(bool)))
	case protocol.TypeByte:
		sb.WriteString(strconv.FormatInt(int64(v.(int8)), 10))
	case protocol.TypeI16:
		sb.WriteString(strconv.FormatInt(int64(v.(int16)), 10))
	case protocol.TypeI32:
		sb.WriteString(strconv.FormatInt(int64(v.(int32)), 10))
	case protocol.TypeI64:
		sb.WriteString(strconv.FormatInt(v.(int64), 10))
	case protocol.TypeDouble:
		sb.WriteString(strconv.FormatFloat(v.(float64), 'g', -1, 64))
	case protocol.TypeString:
		if !t.Binary {
			sb.WriteString(v.(string))
			return
		}
		raw := v.([]byte)
		for i, b := range raw {
			if i == maxRenderedBinary {
				sb.WriteString(" ...")
				break
			}
			if i > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(sb, "%02x", b)
		}
	case protocol.TypeList, protocol.TypeSet:
		sb.WriteByte('[')
		for i, item := range v.([]any) {
			if i > 0 {
				sb.WriteString(", ")
			}
			renderValue(sb, *t.Elem, item)
		}
		sb.WriteByte(']')
	case protocol.TypeMap:
		sb.WriteByte('{')
		for i, e := range v.([]MapEntry) {
			if i > 0 {
				sb.WriteString(", ")
			}
			renderValue(sb, *t.Key, e.Key)
			sb.WriteByte(':')
			renderValue(sb, *t.Value, e.Value)
		}
		sb.WriteByte('}')
	case protocol.TypeStruct:
		sb.WriteString(v.(*Record).String())
	}
}
