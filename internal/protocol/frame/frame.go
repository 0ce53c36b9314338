// Package frame wraps one encoded record in a self-identifying envelope so it
// can be stored or shipped without out-of-band type and scheme information.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	Magic          uint32 = 0x52574346 // "RWCF"
	Version        uint16 = 1
	FixedHeaderLen uint16 = 32

	FlagCompressed uint32 = 0x01
)

var (
	ErrShortHeader       = errors.New("frame: short fixed header")
	ErrBadMagic          = errors.New("frame: bad magic")
	ErrUnsupportedVer    = errors.New("frame: unsupported version")
	ErrHeaderLenTooSmall = errors.New("frame: header_len smaller than fixed header")
	ErrTypeNameTooLarge  = errors.New("frame: type name too large")
	ErrPayloadTooLarge   = errors.New("frame: payload too large")
	ErrTruncated         = errors.New("frame: truncated body")
)

// Header is the fixed wire header. The record type name follows it and
// occupies HeaderLen-FixedHeaderLen bytes.
type Header struct {
	Magic      uint32
	Version    uint16
	HeaderLen  uint16
	MessageID  uint64
	Scheme     uint32
	Flags      uint32
	PayloadLen uint64
}

// Frame is one complete envelope.
type Frame struct {
	Header   Header
	TypeName string
	Payload  []byte
}

// Limits constrains frame decode/encode memory use.
type Limits struct {
	MaxTypeNameBytes uint64
	MaxPayloadBytes  uint64
}

func DefaultLimits() Limits {
	return Limits{
		MaxTypeNameBytes: 1024,
		MaxPayloadBytes:  64 * 1024 * 1024,
	}
}

// Compressed reports whether the payload carries FlagCompressed.
func (f Frame) Compressed() bool {
	return f.Header.Flags&FlagCompressed != 0
}

func ReadFrame(r io.Reader, limits Limits) (Frame, error) {
	var fixed [FixedHeaderLen]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Frame{}, ErrShortHeader
		}
		return Frame{}, err
	}

	h, err := DecodeHeader(fixed[:])
	if err != nil {
		return Frame{}, err
	}
	if h.Magic != Magic {
		return Frame{}, ErrBadMagic
	}
	if h.Version != Version {
		return Frame{}, ErrUnsupportedVer
	}
	if h.HeaderLen < FixedHeaderLen {
		return Frame{}, ErrHeaderLenTooSmall
	}

	nameLen := uint64(h.HeaderLen - FixedHeaderLen)
	if nameLen > limits.MaxTypeNameBytes {
		return Frame{}, ErrTypeNameTooLarge
	}
	if h.PayloadLen > limits.MaxPayloadBytes {
		return Frame{}, ErrPayloadTooLarge
	}

	name := make([]byte, nameLen)
	if nameLen > 0 {
		if _, err := io.ReadFull(r, name); err != nil {
			return Frame{}, truncated(err)
		}
	}

	payload := make([]byte, h.PayloadLen)
	if h.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Frame{}, truncated(err)
		}
	}

	return Frame{Header: h, TypeName: string(name), Payload: payload}, nil
}

func WriteFrame(w io.Writer, f Frame, limits Limits) error {
	nameLen := uint64(len(f.TypeName))
	payloadLen := uint64(len(f.Payload))
	if nameLen > limits.MaxTypeNameBytes || nameLen > uint64(^uint16(0)-FixedHeaderLen) {
		return ErrTypeNameTooLarge
	}
	if payloadLen > limits.MaxPayloadBytes {
		return ErrPayloadTooLarge
	}

	h := f.Header
	h.Magic = Magic
	h.Version = Version
	h.HeaderLen = FixedHeaderLen + uint16(nameLen)
	h.PayloadLen = payloadLen

	if _, err := w.Write(EncodeHeader(h)); err != nil {
		return err
	}
	if nameLen > 0 {
		if _, err := io.WriteString(w, f.TypeName); err != nil {
			return err
		}
	}
	if payloadLen > 0 {
		if _, err := w.Write(f.Payload); err != nil {
			return err
		}
	}
	return nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, FixedHeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint16(buf[6:8], h.HeaderLen)
	binary.BigEndian.PutUint64(buf[8:16], h.MessageID)
	binary.BigEndian.PutUint32(buf[16:20], h.Scheme)
	binary.BigEndian.PutUint32(buf[20:24], h.Flags)
	binary.BigEndian.PutUint64(buf[24:32], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) != int(FixedHeaderLen) {
		return Header{}, fmt.Errorf("frame: invalid fixed header length: %d", len(b))
	}
	return Header{
		Magic:      binary.BigEndian.Uint32(b[0:4]),
		Version:    binary.BigEndian.Uint16(b[4:6]),
		HeaderLen:  binary.BigEndian.Uint16(b[6:8]),
		MessageID:  binary.BigEndian.Uint64(b[8:16]),
		Scheme:     binary.BigEndian.Uint32(b[16:20]),
		Flags:      binary.BigEndian.Uint32(b[20:24]),
		PayloadLen: binary.BigEndian.Uint64(b[24:32]),
	}, nil
}

func truncated(err error) error {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return ErrTruncated
	}
	return err
}
