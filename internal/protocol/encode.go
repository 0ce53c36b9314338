package protocol

import (
	"encoding/binary"
	"io"
	"math"
)

// Writer is the primitive encoding cursor used by record schemes.
type Writer interface {
	WriteStructBegin(name string) error
	WriteStructEnd() error
	WriteFieldBegin(h FieldHeader) error
	WriteFieldEnd() error
	WriteFieldStop() error
	WriteListBegin(h ListHeader) error
	WriteListEnd() error
	WriteSetBegin(h ListHeader) error
	WriteSetEnd() error
	WriteMapBegin(h MapHeader) error
	WriteMapEnd() error
	WriteBool(v bool) error
	WriteI8(v int8) error
	WriteI16(v int16) error
	WriteI32(v int32) error
	WriteI64(v int64) error
	WriteDouble(v float64) error
	WriteString(v string) error
	WriteBinary(v []byte) error
	// WriteSize writes a bare container size with no element type tag.
	WriteSize(n int) error
	// WriteBitSet writes ceil(len(bits)/8) bytes; bit i lands in byte
	// len-1-i/8 at position i%8.
	WriteBitSet(bits []bool) error
}

// BinaryWriter encodes big-endian primitives to an io.Writer.
type BinaryWriter struct {
	w   io.Writer
	buf [8]byte
}

func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{w: w}
}

func (b *BinaryWriter) write(p []byte) error {
	_, err := b.w.Write(p)
	return err
}

func (b *BinaryWriter) WriteStructBegin(string) error { return nil }
func (b *BinaryWriter) WriteStructEnd() error         { return nil }
func (b *BinaryWriter) WriteFieldEnd() error          { return nil }
func (b *BinaryWriter) WriteListEnd() error           { return nil }
func (b *BinaryWriter) WriteSetEnd() error            { return nil }
func (b *BinaryWriter) WriteMapEnd() error            { return nil }

func (b *BinaryWriter) WriteFieldBegin(h FieldHeader) error {
	b.buf[0] = byte(h.Type)
	binary.BigEndian.PutUint16(b.buf[1:3], uint16(h.ID))
	return b.write(b.buf[:3])
}

func (b *BinaryWriter) WriteFieldStop() error {
	b.buf[0] = byte(TypeStop)
	return b.write(b.buf[:1])
}

func (b *BinaryWriter) WriteListBegin(h ListHeader) error {
	if h.Size < 0 || h.Size > math.MaxInt32 {
		return ErrSizeLimit
	}
	b.buf[0] = byte(h.Elem)
	binary.BigEndian.PutUint32(b.buf[1:5], uint32(h.Size))
	return b.write(b.buf[:5])
}

func (b *BinaryWriter) WriteSetBegin(h ListHeader) error {
	return b.WriteListBegin(h)
}

func (b *BinaryWriter) WriteMapBegin(h MapHeader) error {
	if h.Size < 0 || h.Size > math.MaxInt32 {
		return ErrSizeLimit
	}
	b.buf[0] = byte(h.Key)
	b.buf[1] = byte(h.Value)
	binary.BigEndian.PutUint32(b.buf[2:6], uint32(h.Size))
	return b.write(b.buf[:6])
}

func (b *BinaryWriter) WriteBool(v bool) error {
	b.buf[0] = 0
	if v {
		b.buf[0] = 1
	}
	return b.write(b.buf[:1])
}

func (b *BinaryWriter) WriteI8(v int8) error {
	b.buf[0] = byte(v)
	return b.write(b.buf[:1])
}

func (b *BinaryWriter) WriteI16(v int16) error {
	binary.BigEndian.PutUint16(b.buf[:2], uint16(v))
	return b.write(b.buf[:2])
}

func (b *BinaryWriter) WriteI32(v int32) error {
	binary.BigEndian.PutUint32(b.buf[:4], uint32(v))
	return b.write(b.buf[:4])
}

func (b *BinaryWriter) WriteI64(v int64) error {
	binary.BigEndian.PutUint64(b.buf[:8], uint64(v))
	return b.write(b.buf[:8])
}

func (b *BinaryWriter) WriteDouble(v float64) error {
	binary.BigEndian.PutUint64(b.buf[:8], math.Float64bits(v))
	return b.write(b.buf[:8])
}

func (b *BinaryWriter) WriteString(v string) error {
	if err := b.WriteSize(len(v)); err != nil {
		return err
	}
	if len(v) == 0 {
		return nil
	}
	_, err := io.WriteString(b.w, v)
	return err
}

func (b *BinaryWriter) WriteBinary(v []byte) error {
	if err := b.WriteSize(len(v)); err != nil {
		return err
	}
	if len(v) == 0 {
		return nil
	}
	return b.write(v)
}

func (b *BinaryWriter) WriteSize(n int) error {
	if n < 0 || n > math.MaxInt32 {
		return ErrSizeLimit
	}
	return b.WriteI32(int32(n))
}

func (b *BinaryWriter) WriteBitSet(bits []bool) error {
	out := make([]byte, bitSetBytes(len(bits)))
	for i, set := range bits {
		if set {
			out[len(out)-1-i/8] |= 1 << (i % 8)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return b.write(out)
}

func bitSetBytes(width int) int {
	return (width + 7) / 8
}
