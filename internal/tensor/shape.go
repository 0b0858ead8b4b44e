package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Lengths4 returns the (N, C, H, W) lengths of a 4D shape.
// Panics if the shape is not 4D.
func (s Shape) Lengths4() (n, c, h, w int) {
	if len(s) != 4 {
		panic(fmt.Sprintf("tensor: expected 4D shape [N,C,H,W], got %dD %v", len(s), []int(s)))
	}
	return s[0], s[1], s[2], s[3]
}

// Index returns the row-major flat offset of element (n, c, h, w).
func (s Shape) Index(n, c, h, w int) int {
	_, C, H, W := s.Lengths4()
	return ((n*C+c)*H+h)*W + w
}

// String formats the shape the way descriptors are printed in diagnostics,
// e.g. "2x3x17x19".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, dim := range s {
		parts[i] = strconv.Itoa(dim)
	}
	return strings.Join(parts, "x")
}

// ParseShape parses the "NxCxHxW" form produced by String.
func ParseShape(text string) (Shape, error) {
	fields := strings.Split(strings.TrimSpace(text), "x")
	shape := make(Shape, 0, len(fields))
	for _, f := range fields {
		dim, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("tensor: bad shape %q: %w", text, err)
		}
		shape = append(shape, dim)
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("tensor: bad shape %q: %w", text, err)
	}
	return shape, nil
}
