package verify

import (
	"fmt"
	"math"

	"github.com/flair2005/MIOpen/internal/tensor"
)

// Mismatch summarizes a buffer where the accelerated result differs from
// the reference.
type Mismatch struct {
	// What names the compared buffer, e.g. "output" or "indices".
	What string

	// Count is the number of differing elements out of Total.
	Count int
	Total int

	// First is the index of the first differing element and Expected/Actual
	// its values. A length difference reports First = min(len).
	First    int
	Expected float64
	Actual   float64

	// MaxAbs is the largest absolute difference.
	MaxAbs float64

	// RMS is the root-mean-square difference scaled by the largest magnitude
	// of either buffer.
	RMS float64
}

// String renders the mismatch for diagnostics.
func (m Mismatch) String() string {
	return fmt.Sprintf("%s: %d/%d differ, first at %d (expected %v, got %v), max abs %.3g, rms %.3g",
		m.What, m.Count, m.Total, m.First, m.Expected, m.Actual, m.MaxAbs, m.RMS)
}

// RMSRange returns sqrt(Σ(a-b)²/n) / max(max|a|, max|b|) over the common
// prefix of a and b, or 0 when both are empty or all zero.
func RMSRange[T tensor.Float](a, b []T) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sq, mag float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		d := x - y
		sq += d * d
		mag = math.Max(mag, math.Max(math.Abs(x), math.Abs(y)))
	}
	if mag == 0 {
		return 0
	}
	return math.Sqrt(sq/float64(n)) / mag
}

// Compare checks acc against ref element-wise within tol and returns nil
// when every element agrees.
func Compare[T tensor.Float](what string, ref, acc []T, tol Tolerance) *Mismatch {
	m := Mismatch{What: what, Total: max(len(ref), len(acc)), First: -1}
	n := min(len(ref), len(acc))
	for i := 0; i < n; i++ {
		if Equal(ref[i], acc[i], tol) {
			continue
		}
		m.Count++
		if m.First < 0 {
			m.First, m.Expected, m.Actual = i, float64(ref[i]), float64(acc[i])
		}
		if d := math.Abs(float64(ref[i]) - float64(acc[i])); d > m.MaxAbs || math.IsNaN(d) {
			m.MaxAbs = d
		}
	}
	if len(ref) != len(acc) {
		m.Count += m.Total - n
		if m.First < 0 {
			m.First = n
		}
	}
	if m.Count == 0 {
		return nil
	}
	m.RMS = RMSRange(ref, acc)
	return &m
}

// CompareExact checks acc against ref for exact equality.
func CompareExact[E ~uint16 | ~uint32 | ~int](what string, ref, acc []E) *Mismatch {
	m := Mismatch{What: what, Total: max(len(ref), len(acc)), First: -1}
	n := min(len(ref), len(acc))
	for i := 0; i < n; i++ {
		if ref[i] == acc[i] {
			continue
		}
		m.Count++
		if m.First < 0 {
			m.First, m.Expected, m.Actual = i, float64(ref[i]), float64(acc[i])
		}
		m.MaxAbs = math.Max(m.MaxAbs, math.Abs(float64(ref[i])-float64(acc[i])))
	}
	if len(ref) != len(acc) {
		m.Count += m.Total - n
		if m.First < 0 {
			m.First = n
		}
	}
	if m.Count == 0 {
		return nil
	}
	return &m
}

// CompareTensors compares two float tensors of the same dtype and shape.
func CompareTensors(what string, ref, acc *tensor.RawTensor, tol Tolerance) *Mismatch {
	if !ref.Shape().Equal(acc.Shape()) || ref.DType() != acc.DType() {
		return &Mismatch{
			What:  fmt.Sprintf("%s (%s vs %s)", what, ref, acc),
			Count: max(ref.NumElements(), acc.NumElements()),
			Total: max(ref.NumElements(), acc.NumElements()),
		}
	}
	if ref.DType() == tensor.Float32 {
		return Compare(what, ref.AsFloat32(), acc.AsFloat32(), tol)
	}
	return Compare(what, ref.AsFloat64(), acc.AsFloat64(), tol)
}
