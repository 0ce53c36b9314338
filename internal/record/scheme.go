package record

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/danmuck/recwire/internal/protocol"
)

// Scheme selects the wire layout of a record.
type Scheme uint8

const (
	SchemeTagged  Scheme = 1
	SchemeCompact Scheme = 2
)

func (s Scheme) String() string {
	switch s {
	case SchemeTagged:
		return "tagged"
	case SchemeCompact:
		return "compact"
	default:
		return fmt.Sprintf("scheme(%d)", uint8(s))
	}
}

// ParseScheme accepts "tagged"/"standard" and "compact"/"tuple".
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tagged", "standard":
		return SchemeTagged, nil
	case "compact", "tuple":
		return SchemeCompact, nil
	default:
		return 0, fmt.Errorf("record: unknown wire scheme %q", s)
	}
}

// Encode validates r and writes it to w using scheme s.
func Encode(w protocol.Writer, r *Record, s Scheme) error {
	if s != SchemeTagged && s != SchemeCompact {
		return UnknownSchemeError{Scheme: s}
	}
	if err := r.Validate(); err != nil {
		return err
	}
	if s == SchemeTagged {
		return encodeTagged(w, r)
	}
	return encodeCompact(w, r)
}

// Decode reads one record of desc from rd using scheme s, then validates it.
// On error the partially decoded record is discarded.
func Decode(rd protocol.Reader, desc *Descriptor, s Scheme) (*Record, error) {
	var (
		r   *Record
		err error
	)
	switch s {
	case SchemeTagged:
		r, err = decodeTagged(rd, desc)
	case SchemeCompact:
		r, err = decodeCompact(rd, desc)
	default:
		return nil, UnknownSchemeError{Scheme: s}
	}
	if err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Marshal encodes r with the binary protocol.
func Marshal(r *Record, s Scheme) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(protocol.NewBinaryWriter(&buf), r, s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data with the binary protocol and default limits.
func Unmarshal(data []byte, desc *Descriptor, s Scheme) (*Record, error) {
	return UnmarshalWithLimits(data, desc, s, protocol.DefaultLimits())
}

func UnmarshalWithLimits(data []byte, desc *Descriptor, s Scheme, limits protocol.Limits) (*Record, error) {
	rd := protocol.NewBinaryReaderWithLimits(bytes.NewReader(data), limits)
	return Decode(rd, desc, s)
}
