package record

import (
	"bytes"
	"testing"

	"github.com/danmuck/recwire/internal/protocol"
)

var columnFamilyDesc = MustDescriptor("ColumnFamily", []FieldDescriptor{
	{ID: 1, Name: "name", Type: StringType},
	{ID: 2, Name: "ag", Type: StringType},
	{ID: 3, Name: "max_versions", Type: I32Type},
	{ID: 4, Name: "ttl", Type: StringType},
})

var listingDesc = MustDescriptor("NamespaceListing", []FieldDescriptor{
	{ID: 1, Name: "name", Type: StringType, Presence: Required},
	{ID: 2, Name: "is_namespace", Type: BoolType, Presence: Required},
})

var innerDesc = MustDescriptor("Inner", []FieldDescriptor{
	{ID: 1, Name: "label", Type: StringType, Presence: Required},
	{ID: 2, Name: "weight", Type: DoubleType},
})

var everythingDesc = MustDescriptor("Everything", []FieldDescriptor{
	{ID: 1, Name: "flag", Type: BoolType},
	{ID: 2, Name: "tiny", Type: ByteType},
	{ID: 3, Name: "small", Type: I16Type},
	{ID: 4, Name: "count", Type: I32Type, Presence: Default, Default: int32(255)},
	{ID: 5, Name: "big", Type: I64Type},
	{ID: 6, Name: "ratio", Type: DoubleType},
	{ID: 7, Name: "title", Type: StringType},
	{ID: 8, Name: "blob", Type: BinaryType},
	{ID: 9, Name: "tags", Type: ListOf(StringType)},
	{ID: 10, Name: "ids", Type: SetOf(I64Type)},
	{ID: 11, Name: "scores", Type: MapOf(I32Type, DoubleType)},
	{ID: 12, Name: "inner", Type: StructOf(innerDesc), Presence: Required},
	{ID: 13, Name: "by_name", Type: MapOf(StringType, StructOf(innerDesc))},
	{ID: 14, Name: "chunks", Type: ListOf(BinaryType)},
})

func newColumnFamily(t *testing.T, name, ag, ttl string) *Record {
	t.Helper()
	r := New(columnFamilyDesc)
	for id, v := range map[int16]string{1: name, 2: ag, 4: ttl} {
		if v == "" {
			continue
		}
		if err := r.Set(id, v); err != nil {
			t.Fatalf("set %d: %v", id, err)
		}
	}
	return r
}

func newInner(t *testing.T, label string, weight float64) *Record {
	t.Helper()
	r := New(innerDesc)
	mustSet(t, r, 1, label)
	mustSet(t, r, 2, weight)
	return r
}

func newEverything(t *testing.T) *Record {
	t.Helper()
	r := New(everythingDesc)
	mustSet(t, r, 1, true)
	mustSet(t, r, 2, int8(-3))
	mustSet(t, r, 3, int16(1200))
	mustSet(t, r, 5, int64(1)<<40)
	mustSet(t, r, 6, 0.5)
	mustSet(t, r, 7, "")
	mustSet(t, r, 8, []byte{0x00, 0xFF})
	mustSet(t, r, 9, []any{"a", "b", "a"})
	mustSet(t, r, 10, []any{int64(3), int64(1)})
	mustSet(t, r, 11, []MapEntry{{Key: int32(1), Value: 1.5}, {Key: int32(-2), Value: 0.0}})
	mustSet(t, r, 12, newInner(t, "root", 2))
	mustSet(t, r, 13, []MapEntry{{Key: "x", Value: newInner(t, "child", 0.25)}})
	mustSet(t, r, 14, []any{[]byte("one"), []byte{}})
	return r
}

func mustSet(t *testing.T, r *Record, id int16, v any) {
	t.Helper()
	if err := r.Set(id, v); err != nil {
		t.Fatalf("set %s.%d: %v", r.TypeName(), id, err)
	}
}

// writeRaw builds tagged bytes by hand for schema drift cases.
func writeRaw(t *testing.T, fn func(w protocol.Writer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := fn(protocol.NewBinaryWriter(&buf)); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	return buf.Bytes()
}

func stringBytes(s string) []byte {
	out := []byte{0, 0, 0, byte(len(s))}
	return append(out, s...)
}
