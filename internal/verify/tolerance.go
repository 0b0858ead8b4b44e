// Package verify compares a reference computation with an accelerated one.
//
// An Operation supplies both computations and a comparison; Verify runs
// them and returns an Outcome holding both results and every Mismatch.
// Floating-point buffers are compared with a Tolerance, integer buffers
// such as index maps exactly. Outcomes of many cases are collected in a
// Report.
package verify

import (
	"math"

	"github.com/flair2005/MIOpen/internal/tensor"
)

// Tolerance defines tolerance parameters for floating-point comparison.
// Two values are equal if any criterion holds.
type Tolerance struct {
	// Abs is the absolute tolerance for values near zero.
	Abs float64

	// Rel is the relative tolerance as a fraction of the larger magnitude.
	Rel float64

	// ULP is the maximum allowed difference in units in the last place.
	ULP int
}

// DefaultTolerance returns the tolerance used for pooling results.
func DefaultTolerance() Tolerance {
	return Tolerance{
		Abs: 1e-6,
		Rel: 1e-5,
		ULP: 4,
	}
}

// Exact returns a tolerance that accepts only identical values.
func Exact() Tolerance {
	return Tolerance{}
}

// Equal reports whether a and b agree within t. NaN equals NaN and
// infinities equal infinities of the same sign.
func Equal[T tensor.Float](a, b T, t Tolerance) bool {
	fa, fb := float64(a), float64(b)
	if math.IsNaN(fa) || math.IsNaN(fb) {
		return math.IsNaN(fa) && math.IsNaN(fb)
	}
	// Handles ±0 and equal infinities.
	if a == b {
		return true
	}
	if math.IsInf(fa, 0) || math.IsInf(fb, 0) {
		return false
	}

	diff := math.Abs(fa - fb)
	if diff <= t.Abs {
		return true
	}
	if diff <= math.Max(math.Abs(fa), math.Abs(fb))*t.Rel {
		return true
	}
	return t.ULP > 0 && ULPDiff(a, b) <= uint64(t.ULP)
}

// ULPDiff computes the distance in ULPs between two values of the same
// type. Values of different sign are math.MaxUint64 apart.
func ULPDiff[T tensor.Float](a, b T) uint64 {
	var ab, bb uint64
	var sign uint64
	switch any(a).(type) {
	case float32:
		ab = uint64(math.Float32bits(float32(a)))
		bb = uint64(math.Float32bits(float32(b)))
		sign = 1 << 31
	default:
		ab = math.Float64bits(float64(a))
		bb = math.Float64bits(float64(b))
		sign = 1 << 63
	}

	if (ab^bb)&sign != 0 {
		return math.MaxUint64
	}
	if ab > bb {
		return ab - bb
	}
	return bb - ab
}
