package verify

import (
	"fmt"
	"strings"
)

// Operation is a computation with a reference and an accelerated
// implementation producing results of type R.
type Operation[R any] interface {
	// Reference computes the trusted result.
	Reference() (R, error)

	// Accelerated computes the result under test.
	Accelerated() (R, error)

	// Compare returns every mismatch between ref and acc, nil if none.
	Compare(ref, acc R) []Mismatch

	// Describe identifies the case in failure diagnostics.
	Describe() string
}

// Outcome holds both results of an Operation and their mismatches.
type Outcome[R any] struct {
	Reference   R
	Accelerated R
	Mismatches  []Mismatch
}

// Passed reports whether no mismatch was found.
func (o Outcome[R]) Passed() bool {
	return len(o.Mismatches) == 0
}

// Diagnostic renders a failed outcome: the operation description followed
// by one line per mismatch.
func (o Outcome[R]) Diagnostic(op Operation[R]) string {
	var b strings.Builder
	b.WriteString(op.Describe())
	for _, m := range o.Mismatches {
		b.WriteString("\n")
		b.WriteString(m.String())
	}
	return b.String()
}

// Verify runs the reference computation, then the accelerated one, and
// compares them. Errors from either side are returned with the operation
// description; panics propagate to the caller.
func Verify[R any](op Operation[R]) (Outcome[R], error) {
	var out Outcome[R]

	ref, err := op.Reference()
	if err != nil {
		return out, fmt.Errorf("verify: reference: %w\n%s", err, op.Describe())
	}
	acc, err := op.Accelerated()
	if err != nil {
		return out, fmt.Errorf("verify: accelerated: %w\n%s", err, op.Describe())
	}

	out.Reference = ref
	out.Accelerated = acc
	out.Mismatches = op.Compare(ref, acc)
	return out, nil
}
