package protocol

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	steps := []error{
		w.WriteBool(true),
		w.WriteI8(-7),
		w.WriteI16(-300),
		w.WriteI32(86400),
		w.WriteI64(math.MinInt64),
		w.WriteDouble(3.25),
		w.WriteString("cf1"),
		w.WriteBinary([]byte{0xAA, 0x00}),
		w.WriteString(""),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("write step %d: %v", i, err)
		}
	}

	r := NewBinaryReader(&buf)
	if v, err := r.ReadBool(); err != nil || !v {
		t.Fatalf("bool: %v %v", v, err)
	}
	if v, err := r.ReadI8(); err != nil || v != -7 {
		t.Fatalf("i8: %v %v", v, err)
	}
	if v, err := r.ReadI16(); err != nil || v != -300 {
		t.Fatalf("i16: %v %v", v, err)
	}
	if v, err := r.ReadI32(); err != nil || v != 86400 {
		t.Fatalf("i32: %v %v", v, err)
	}
	if v, err := r.ReadI64(); err != nil || v != math.MinInt64 {
		t.Fatalf("i64: %v %v", v, err)
	}
	if v, err := r.ReadDouble(); err != nil || v != 3.25 {
		t.Fatalf("double: %v %v", v, err)
	}
	if v, err := r.ReadString(); err != nil || v != "cf1" {
		t.Fatalf("string: %q %v", v, err)
	}
	if v, err := r.ReadBinary(); err != nil || !bytes.Equal(v, []byte{0xAA, 0x00}) {
		t.Fatalf("binary: %v %v", v, err)
	}
	if v, err := r.ReadString(); err != nil || v != "" {
		t.Fatalf("empty string: %q %v", v, err)
	}
}

func TestFieldHeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	if err := w.WriteFieldBegin(FieldHeader{Name: "max_versions", Type: TypeI32, ID: 3}); err != nil {
		t.Fatalf("field begin: %v", err)
	}
	if err := w.WriteFieldStop(); err != nil {
		t.Fatalf("field stop: %v", err)
	}
	want := []byte{byte(TypeI32), 0x00, 0x03, byte(TypeStop)}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Fatalf("header bytes: got %x want %x", buf.Bytes(), want)
	}

	r := NewBinaryReader(&buf)
	h, err := r.ReadFieldBegin()
	if err != nil {
		t.Fatalf("read field begin: %v", err)
	}
	if h.Type != TypeI32 || h.ID != 3 {
		t.Fatalf("unexpected header: %+v", h)
	}
	h, err = r.ReadFieldBegin()
	if err != nil || h.Type != TypeStop {
		t.Fatalf("expected stop, got %+v %v", h, err)
	}
}

func TestBitSetLayout(t *testing.T) {
	cases := []struct {
		name string
		bits []bool
		want []byte
	}{
		{"empty", nil, []byte{}},
		{"four fields 0 1 3", []bool{true, true, false, true}, []byte{0x0B}},
		{"nine fields 0 8", []bool{true, false, false, false, false, false, false, false, true}, []byte{0x01, 0x01}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewBinaryWriter(&buf).WriteBitSet(tc.bits); err != nil {
				t.Fatalf("write bitset: %v", err)
			}
			if !bytes.Equal(buf.Bytes(), tc.want) {
				t.Fatalf("bitset bytes: got %x want %x", buf.Bytes(), tc.want)
			}
			got, err := NewBinaryReader(&buf).ReadBitSet(len(tc.bits))
			if err != nil {
				t.Fatalf("read bitset: %v", err)
			}
			want := tc.bits
			if want == nil {
				want = []bool{}
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("bits: got %v want %v", got, want)
			}
		})
	}
}

func TestReadTruncatedIsMalformed(t *testing.T) {
	var buf bytes.Buffer
	if err := NewBinaryWriter(&buf).WriteString("abcdef"); err != nil {
		t.Fatalf("write: %v", err)
	}
	b := buf.Bytes()[:buf.Len()-2]
	_, err := NewBinaryReader(bytes.NewReader(b)).ReadString()
	if !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	var me *MalformedError
	if !errors.As(err, &me) || me.Op != "string" {
		t.Fatalf("expected MalformedError for string, got %v", err)
	}
}

func TestReadNegativeAndOversizedLengths(t *testing.T) {
	_, err := NewBinaryReader(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF})).ReadString()
	if !errors.Is(err, ErrNegativeSize) {
		t.Fatalf("expected ErrNegativeSize, got %v", err)
	}
	limits := DefaultLimits()
	limits.MaxStringBytes = 4
	_, err = NewBinaryReaderWithLimits(bytes.NewReader([]byte{0, 0, 0, 5, 'a'}), limits).ReadString()
	if !errors.Is(err, ErrSizeLimit) {
		t.Fatalf("expected ErrSizeLimit, got %v", err)
	}
}

func TestReadInvalidBool(t *testing.T) {
	_, err := NewBinaryReader(bytes.NewReader([]byte{2})).ReadBool()
	if !errors.Is(err, ErrInvalidBool) {
		t.Fatalf("expected ErrInvalidBool, got %v", err)
	}
}

func TestReaderErrorPropagatesUnchanged(t *testing.T) {
	boom := errors.New("cursor failed")
	_, err := NewBinaryReader(failingReader{err: boom}).ReadI32()
	if err != boom {
		t.Fatalf("expected cursor error unchanged, got %v", err)
	}
}

func TestSkipNestedValues(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	// struct { 1: list<string>["a","b"], 2: map<i32,struct{}>{7:{}} }
	mustNoErr(t, w.WriteFieldBegin(FieldHeader{Type: TypeList, ID: 1}))
	mustNoErr(t, w.WriteListBegin(ListHeader{Elem: TypeString, Size: 2}))
	mustNoErr(t, w.WriteString("a"))
	mustNoErr(t, w.WriteString("b"))
	mustNoErr(t, w.WriteFieldBegin(FieldHeader{Type: TypeMap, ID: 2}))
	mustNoErr(t, w.WriteMapBegin(MapHeader{Key: TypeI32, Value: TypeStruct, Size: 1}))
	mustNoErr(t, w.WriteI32(7))
	mustNoErr(t, w.WriteFieldStop())
	mustNoErr(t, w.WriteFieldStop())
	mustNoErr(t, w.WriteI16(99))

	r := NewBinaryReader(&buf)
	if err := Skip(r, TypeStruct); err != nil {
		t.Fatalf("skip struct: %v", err)
	}
	v, err := r.ReadI16()
	if err != nil || v != 99 {
		t.Fatalf("expected trailing sentinel after skip, got %v %v", v, err)
	}
}

func TestSkipDepthLimit(t *testing.T) {
	var buf bytes.Buffer
	w := NewBinaryWriter(&buf)
	for i := 0; i < 4; i++ {
		mustNoErr(t, w.WriteListBegin(ListHeader{Elem: TypeList, Size: 1}))
	}
	mustNoErr(t, w.WriteListBegin(ListHeader{Elem: TypeI32, Size: 0}))
	err := SkipWithDepth(NewBinaryReader(&buf), TypeList, 3)
	if !errors.Is(err, ErrDepthLimit) {
		t.Fatalf("expected ErrDepthLimit, got %v", err)
	}
}

func TestSkipUnknownType(t *testing.T) {
	err := Skip(NewBinaryReader(bytes.NewReader(nil)), WireType(99))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

type failingReader struct {
	err error
}

func (f failingReader) Read([]byte) (int, error) {
	return 0, f.err
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
