package record

import (
	"errors"
	"fmt"
)

var (
	ErrDescriptor   = errors.New("record: invalid descriptor")
	ErrUnknownField = errors.New("record: unknown field")
	ErrValueType    = errors.New("record: value does not match field type")
	ErrDuplicate    = errors.New("record: duplicate type registration")
)

// MissingRequiredFieldError indicates a REQUIRED field was unset at
// validation time.
type MissingRequiredFieldError struct {
	Struct string
	Field  string
}

func (e MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("record: %s: missing required field %q", e.Struct, e.Field)
}

// UnknownSchemeError indicates a scheme value with no codec behind it. It is a
// build or wiring defect, not a data error.
type UnknownSchemeError struct {
	Scheme Scheme
}

func (e UnknownSchemeError) Error() string {
	return fmt.Sprintf("record: unknown wire scheme %d", uint8(e.Scheme))
}

func valueTypeError(path string, t TypeSpec, v any) error {
	return fmt.Errorf("%w: %s wants %s, got %T", ErrValueType, path, t, v)
}
