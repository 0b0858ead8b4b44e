package pooling

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidConfig    = errors.New("invalid pooling config")
	ErrUnsupportedDType = errors.New("unsupported data type")
	ErrPlaneTooLarge    = errors.New("input plane exceeds index range")
)

// PreconditionError reports a caller defect detected inside Forward or
// Backward: a gradient whose shape differs from the forward output, an
// index map of the wrong length, or a max index that does not point at the
// forward result. Forward and Backward panic with it.
type PreconditionError struct {
	Op      string // "forward" or "backward"
	Kind    string // e.g. "shape_mismatch", "index_integrity"
	Details string
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("pooling %s: %s: %s", e.Op, e.Kind, e.Details)
}

func precondition(op, kind, format string, args ...any) {
	panic(&PreconditionError{Op: op, Kind: kind, Details: fmt.Sprintf(format, args...)})
}

// AsPrecondition converts a recovered panic value into a *PreconditionError.
// Other panic values are returned as nil, false.
func AsPrecondition(r any) (*PreconditionError, bool) {
	if r == nil {
		return nil, false
	}
	err, ok := r.(error)
	if !ok {
		return nil, false
	}
	var pe *PreconditionError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
