package elfhdr

import (
	"errors"
	"fmt"
)

var (
	// ErrReadFailure is returned when the source is too short or the underlying read fails
	ErrReadFailure = errors.New("read failure")

	// ErrStructuralInvalid is returned when the ident has a bad magic or an unknown enumerated field
	ErrStructuralInvalid = errors.New("validation failure")

	// ErrUnsupportedClass is returned when a valid ident declares a class the decoder does not implement
	ErrUnsupportedClass = errors.New("unsupported class")
)

// DecodeError describes a failed read operation
type DecodeError struct {
	Op   string // operation that failed, e.g. "read ident"
	Kind error  // one of the Err* sentinels above
	Err  error  // underlying cause, may be nil
}

func newDecodeError(op string, kind, err error) *DecodeError {
	return &DecodeError{Op: op, Kind: kind, Err: err}
}

func (e *DecodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As
func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
