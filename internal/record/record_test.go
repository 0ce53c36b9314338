package record

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/recwire/internal/testutil/testlog"
)

func TestUnsetDiffersFromExplicitZero(t *testing.T) {
	testlog.Start(t)
	a := newColumnFamily(t, "cf1", "", "")
	b := a.DeepCopy()
	mustSet(t, b, 3, int32(0))
	if a.Equal(b) || b.Equal(a) {
		t.Fatalf("unset max_versions must not equal explicit 0")
	}
	if a.Compare(b) >= 0 {
		t.Fatalf("unset should sort before set")
	}
	b.Unset(3)
	if !a.Equal(b) {
		t.Fatalf("unset should restore equality")
	}
}

func TestCompareOrdering(t *testing.T) {
	testlog.Start(t)
	a := New(columnFamilyDesc)
	b := newColumnFamily(t, "x", "", "")
	if a.Compare(b) >= 0 || b.Compare(a) <= 0 {
		t.Fatalf("name unset must sort before name=x")
	}
	c := newColumnFamily(t, "y", "", "")
	if b.Compare(c) >= 0 {
		t.Fatalf("x should sort before y")
	}
	d := newColumnFamily(t, "x", "a", "")
	if b.Compare(d) >= 0 {
		t.Fatalf("later set field should decide ordering")
	}
	if b.Compare(b.DeepCopy()) != 0 {
		t.Fatalf("copy should compare equal")
	}
}

func TestCompareContainers(t *testing.T) {
	testlog.Start(t)
	a := newEverything(t)
	b := newEverything(t)
	mustSet(t, b, 10, []any{int64(1), int64(3)})
	if !a.Equal(b) || a.Compare(b) != 0 {
		t.Fatalf("sets should compare independent of order")
	}
	mustSet(t, b, 11, []MapEntry{{Key: int32(-2), Value: 0.0}, {Key: int32(1), Value: 1.5}})
	if !a.Equal(b) {
		t.Fatalf("maps should compare independent of entry order")
	}
	mustSet(t, b, 9, []any{"a", "a", "b"})
	if a.Equal(b) {
		t.Fatalf("lists are ordered")
	}
	if a.Compare(b) <= 0 {
		t.Fatalf("[a b a] should sort after [a a b]")
	}
	mustSet(t, b, 9, []any{"a"})
	if a.Compare(b) <= 0 {
		t.Fatalf("longer list should sort after shorter")
	}
}

func TestDeepCopyIsIndependent(t *testing.T) {
	testlog.Start(t)
	src := newEverything(t)
	dup := src.DeepCopy()
	if !dup.Equal(src) {
		t.Fatalf("copy should equal source")
	}

	blob, _ := Field[[]byte](dup, 8)
	blob[0] = 0x7F
	tags, _ := Field[[]any](dup, 9)
	tags[0] = "changed"
	inner, _ := Field[*Record](dup, 12)
	mustSet(t, inner, 1, "mutated")

	if got, _ := Field[[]byte](src, 8); got[0] != 0x00 {
		t.Fatalf("blob aliased: % x", got)
	}
	if got, _ := Field[[]any](src, 9); got[0] != "a" {
		t.Fatalf("tags aliased: %v", got)
	}
	if got, _ := Field[*Record](src, 12); got.String() != "Inner(label:root, weight:2)" {
		t.Fatalf("nested record aliased: %s", got)
	}
}

func TestSetGetBookkeeping(t *testing.T) {
	testlog.Start(t)
	r := New(columnFamilyDesc)
	if v, ok := r.Get(1); ok || v != nil {
		t.Fatalf("unset get = %v,%v", v, ok)
	}
	mustSet(t, r, 1, "")
	if !r.IsSet(1) {
		t.Fatalf("empty string must still count as set")
	}
	if err := r.SetByName("max_versions", int32(3)); err != nil {
		t.Fatalf("set by name: %v", err)
	}
	if v, ok := r.GetByName("max_versions"); !ok || v != int32(3) {
		t.Fatalf("get by name = %v,%v", v, ok)
	}
	if err := r.Set(3, nil); err != nil || r.IsSet(3) {
		t.Fatalf("nil should unset: %v", err)
	}
	if got := len(r.SetFields()); got != 1 {
		t.Fatalf("set fields = %d", got)
	}
	r.Clear()
	if got := len(r.SetFields()); got != 0 {
		t.Fatalf("clear left %d fields", got)
	}
	if r.IsSet(99) {
		t.Fatalf("unknown id must never be set")
	}
}

func TestSetRejectsWrongTypes(t *testing.T) {
	testlog.Start(t)
	r := New(everythingDesc)
	cases := []struct {
		id int16
		v  any
	}{
		{3, 5},
		{4, int64(5)},
		{7, []byte("x")},
		{8, "x"},
		{9, []any{"ok", 1}},
		{9, []string{"a"}},
		{11, []MapEntry{{Key: "k", Value: 1.0}}},
		{12, New(columnFamilyDesc)},
	}
	for _, tc := range cases {
		if err := r.Set(tc.id, tc.v); !errors.Is(err, ErrValueType) {
			t.Fatalf("set %d=%#v: expected value type error, got %v", tc.id, tc.v, err)
		}
	}
	if err := r.Set(99, "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected unknown field, got %v", err)
	}
	if err := r.SetByName("nope", "x"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected unknown field by name, got %v", err)
	}
}

func TestDefaultsAppliedAtConstruction(t *testing.T) {
	testlog.Start(t)
	r := New(everythingDesc)
	if v, ok := Field[int32](r, 4); !ok || v != 255 {
		t.Fatalf("default count = %v,%v", v, ok)
	}
	mustSet(t, r, 12, newInner(t, "root", 1))
	r.Unset(4)
	data, err := Marshal(r, SchemeTagged)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, err := Unmarshal(data, everythingDesc, SchemeTagged)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.IsSet(4) {
		t.Fatalf("decode must not resurrect an unset default")
	}
}

func TestRender(t *testing.T) {
	testlog.Start(t)
	if got := New(columnFamilyDesc).String(); got != "ColumnFamily()" {
		t.Fatalf("empty render = %s", got)
	}
	r := New(everythingDesc)
	r.Unset(4)
	mustSet(t, r, 8, []byte{0x01, 0xFF})
	mustSet(t, r, 9, []any{"a", "b"})
	mustSet(t, r, 11, []MapEntry{{Key: int32(1), Value: 1.5}})
	mustSet(t, r, 12, newInner(t, "in", 0.5))
	want := "Everything(blob:01 ff, tags:[a, b], scores:{1:1.5}, inner:Inner(label:in, weight:0.5))"
	if got := r.String(); got != want {
		t.Fatalf("render =\n%s\nwant\n%s", got, want)
	}

	mustSet(t, r, 8, make([]byte, 200))
	if got := r.String(); !strings.Contains(got, " ...") {
		t.Fatalf("long binary should be truncated: %s", got)
	}
}

func TestEqualAcrossTypes(t *testing.T) {
	testlog.Start(t)
	a := New(columnFamilyDesc)
	b := New(listingDesc)
	if a.Equal(b) {
		t.Fatalf("different types must not be equal")
	}
	if a.Compare(b) >= 0 {
		t.Fatalf("ColumnFamily should order before NamespaceListing")
	}
	var nilRec *Record
	if a.Equal(nilRec) || !nilRec.Equal(nil) {
		t.Fatalf("nil handling")
	}
}

func TestMapEqualWithRepeatedKeys(t *testing.T) {
	testlog.Start(t)
	withScores := func(entries ...MapEntry) *Record {
		r := New(everythingDesc)
		mustSet(t, r, 11, entries)
		return r
	}
	a := withScores(MapEntry{Key: int32(1), Value: 1.0}, MapEntry{Key: int32(1), Value: 1.0})
	b := withScores(MapEntry{Key: int32(1), Value: 1.0}, MapEntry{Key: int32(2), Value: 1.0})
	if a.Equal(b) || b.Equal(a) {
		t.Fatalf("repeated key must not match a distinct entry")
	}
	if a.Compare(b) == 0 || a.Compare(b) != -b.Compare(a) {
		t.Fatalf("compare not antisymmetric: %d %d", a.Compare(b), b.Compare(a))
	}

	c := withScores(MapEntry{Key: int32(1), Value: 1.0}, MapEntry{Key: int32(1), Value: 2.0})
	d := withScores(MapEntry{Key: int32(1), Value: 2.0}, MapEntry{Key: int32(1), Value: 1.0})
	if !c.Equal(d) || !d.Equal(c) || c.Compare(d) != 0 {
		t.Fatalf("entry order must not matter: equal=%v compare=%d", c.Equal(d), c.Compare(d))
	}
}

func TestSameNamedDescriptorWithOtherLayout(t *testing.T) {
	testlog.Start(t)
	impostor := MustDescriptor("Inner", []FieldDescriptor{
		{ID: 1, Name: "label", Type: I32Type, Presence: Required},
		{ID: 2, Name: "weight", Type: DoubleType},
	})
	fake := New(impostor)
	mustSet(t, fake, 1, int32(7))

	r := New(everythingDesc)
	if err := r.Set(12, fake); !errors.Is(err, ErrValueType) {
		t.Fatalf("expected value type error, got %v", err)
	}
	genuine := New(innerDesc)
	if genuine.Equal(fake) || fake.Equal(genuine) {
		t.Fatalf("records of different layouts must not be equal")
	}

	twin := MustDescriptor("Inner", []FieldDescriptor{
		{ID: 1, Name: "label", Type: StringType, Presence: Required},
		{ID: 2, Name: "weight", Type: DoubleType},
	})
	same := New(twin)
	mustSet(t, same, 1, "root")
	if err := r.Set(12, same); err != nil {
		t.Fatalf("identical layout should be accepted: %v", err)
	}
}
