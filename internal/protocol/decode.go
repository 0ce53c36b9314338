package protocol

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// Reader is the primitive decoding cursor used by record schemes.
type Reader interface {
	ReadStructBegin() error
	ReadStructEnd() error
	ReadFieldBegin() (FieldHeader, error)
	ReadFieldEnd() error
	ReadListBegin() (ListHeader, error)
	ReadListEnd() error
	ReadSetBegin() (ListHeader, error)
	ReadSetEnd() error
	ReadMapBegin() (MapHeader, error)
	ReadMapEnd() error
	ReadBool() (bool, error)
	ReadI8() (int8, error)
	ReadI16() (int16, error)
	ReadI32() (int32, error)
	ReadI64() (int64, error)
	ReadDouble() (float64, error)
	ReadString() (string, error)
	ReadBinary() ([]byte, error)
	ReadSize() (int, error)
	ReadBitSet(width int) ([]bool, error)
}

// BinaryReader decodes big-endian primitives from an io.Reader.
type BinaryReader struct {
	r      io.Reader
	limits Limits
	depth  int
	buf    [8]byte
}

func NewBinaryReader(r io.Reader) *BinaryReader {
	return NewBinaryReaderWithLimits(r, DefaultLimits())
}

func NewBinaryReaderWithLimits(r io.Reader, limits Limits) *BinaryReader {
	return &BinaryReader{r: r, limits: limits}
}

func (b *BinaryReader) readFull(op string, p []byte) error {
	if _, err := io.ReadFull(b.r, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return malformed(op, ErrTruncated)
		}
		return err
	}
	return nil
}

// ReadStructBegin tracks nesting so hostile input cannot recurse without bound.
func (b *BinaryReader) ReadStructBegin() error {
	if b.limits.MaxDepth > 0 && b.depth >= b.limits.MaxDepth {
		return malformed("struct", ErrDepthLimit)
	}
	b.depth++
	return nil
}

func (b *BinaryReader) ReadStructEnd() error {
	if b.depth > 0 {
		b.depth--
	}
	return nil
}

func (b *BinaryReader) ReadFieldBegin() (FieldHeader, error) {
	if err := b.readFull("field header", b.buf[:1]); err != nil {
		return FieldHeader{}, err
	}
	t := WireType(b.buf[0])
	if t == TypeStop {
		return FieldHeader{Type: TypeStop}, nil
	}
	if err := b.readFull("field header", b.buf[1:3]); err != nil {
		return FieldHeader{}, err
	}
	return FieldHeader{Type: t, ID: int16(binary.BigEndian.Uint16(b.buf[1:3]))}, nil
}

func (b *BinaryReader) ReadFieldEnd() error { return nil }
func (b *BinaryReader) ReadListEnd() error  { return nil }
func (b *BinaryReader) ReadSetEnd() error   { return nil }
func (b *BinaryReader) ReadMapEnd() error   { return nil }

func (b *BinaryReader) ReadListBegin() (ListHeader, error) {
	if err := b.readFull("list header", b.buf[:1]); err != nil {
		return ListHeader{}, err
	}
	elem := WireType(b.buf[0])
	size, err := b.readSize("list header", b.limits.MaxContainerSize)
	if err != nil {
		return ListHeader{}, err
	}
	return ListHeader{Elem: elem, Size: size}, nil
}

func (b *BinaryReader) ReadSetBegin() (ListHeader, error) {
	return b.ReadListBegin()
}

func (b *BinaryReader) ReadMapBegin() (MapHeader, error) {
	if err := b.readFull("map header", b.buf[:2]); err != nil {
		return MapHeader{}, err
	}
	key, val := WireType(b.buf[0]), WireType(b.buf[1])
	size, err := b.readSize("map header", b.limits.MaxContainerSize)
	if err != nil {
		return MapHeader{}, err
	}
	return MapHeader{Key: key, Value: val, Size: size}, nil
}

func (b *BinaryReader) ReadBool() (bool, error) {
	if err := b.readFull("bool", b.buf[:1]); err != nil {
		return false, err
	}
	switch b.buf[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, malformed("bool", ErrInvalidBool)
	}
}

func (b *BinaryReader) ReadI8() (int8, error) {
	if err := b.readFull("byte", b.buf[:1]); err != nil {
		return 0, err
	}
	return int8(b.buf[0]), nil
}

func (b *BinaryReader) ReadI16() (int16, error) {
	if err := b.readFull("i16", b.buf[:2]); err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b.buf[:2])), nil
}

func (b *BinaryReader) ReadI32() (int32, error) {
	if err := b.readFull("i32", b.buf[:4]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b.buf[:4])), nil
}

func (b *BinaryReader) ReadI64() (int64, error) {
	if err := b.readFull("i64", b.buf[:8]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b.buf[:8])), nil
}

func (b *BinaryReader) ReadDouble() (float64, error) {
	if err := b.readFull("double", b.buf[:8]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b.buf[:8])), nil
}

func (b *BinaryReader) ReadString() (string, error) {
	raw, err := b.ReadBinary()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (b *BinaryReader) ReadBinary() ([]byte, error) {
	n, err := b.readSize("string", b.limits.MaxStringBytes)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	if n == 0 {
		return out, nil
	}
	if err := b.readFull("string", out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BinaryReader) ReadSize() (int, error) {
	return b.readSize("size", b.limits.MaxContainerSize)
}

func (b *BinaryReader) readSize(op string, limit int) (int, error) {
	if err := b.readFull(op, b.buf[:4]); err != nil {
		return 0, err
	}
	n := int32(binary.BigEndian.Uint32(b.buf[:4]))
	if n < 0 {
		return 0, malformed(op, ErrNegativeSize)
	}
	if limit > 0 && int(n) > limit {
		return 0, malformed(op, ErrSizeLimit)
	}
	return int(n), nil
}

func (b *BinaryReader) ReadBitSet(width int) ([]bool, error) {
	if width < 0 {
		return nil, malformed("bitset", ErrNegativeSize)
	}
	raw := make([]byte, bitSetBytes(width))
	if len(raw) > 0 {
		if err := b.readFull("bitset", raw); err != nil {
			return nil, err
		}
	}
	bits := make([]bool, width)
	for i := range bits {
		bits[i] = raw[len(raw)-1-i/8]&(1<<(i%8)) != 0
	}
	return bits, nil
}
