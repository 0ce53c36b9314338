package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated    = errors.New("protocol: truncated data")
	ErrNegativeSize = errors.New("protocol: negative size")
	ErrSizeLimit    = errors.New("protocol: size exceeds limit")
	ErrDepthLimit   = errors.New("protocol: nesting exceeds depth limit")
	ErrInvalidBool  = errors.New("protocol: invalid bool value")
	ErrUnknownType  = errors.New("protocol: unknown wire type")
)

// MalformedError reports bytes that could not be decoded. It wraps one of the
// sentinel errors above, or the underlying reader error.
type MalformedError struct {
	Op  string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("protocol: malformed wire data in %s: %v", e.Op, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

func malformed(op string, err error) error {
	return &MalformedError{Op: op, Err: err}
}
