package pooling

import (
	"fmt"

	"github.com/flair2005/MIOpen/internal/parallel"
	"github.com/flair2005/MIOpen/internal/tensor"
)

// Executor runs the pooling forward and backward passes.
// The host Reference and device-backed executors are interchangeable.
type Executor interface {
	// Name identifies the executor in diagnostics.
	Name() string

	// Forward returns the pooled output and, in Max mode, the index map.
	Forward(input *tensor.RawTensor, cfg Config) (*tensor.RawTensor, IndexMap, error)

	// Backward returns the gradient with respect to input.
	Backward(input, gradOutput, output *tensor.RawTensor, cfg Config, indices IndexMap) (*tensor.RawTensor, error)
}

// Reference computes pooling directly on host memory.
type Reference struct {
	parallel parallel.Config
}

// Compile-time check that Reference implements Executor.
var _ Executor = (*Reference)(nil)

// NewReference creates a host executor that splits planes according to par.
func NewReference(par parallel.Config) *Reference {
	return &Reference{parallel: par}
}

// Name returns "reference".
func (r *Reference) Name() string {
	return "reference"
}

// Forward implements Executor.
func (r *Reference) Forward(input *tensor.RawTensor, cfg Config) (*tensor.RawTensor, IndexMap, error) {
	if _, err := Prepare(input.Shape(), input.DType(), cfg); err != nil {
		return nil, nil, fmt.Errorf("reference forward: %w", err)
	}

	switch input.DType() {
	case tensor.Float32:
		out, idx := Forward[float32](input, cfg, r.parallel)
		return out, idx, nil
	default:
		out, idx := Forward[float64](input, cfg, r.parallel)
		return out, idx, nil
	}
}

// Backward implements Executor. Precondition violations panic, see Backward.
func (r *Reference) Backward(input, gradOutput, output *tensor.RawTensor, cfg Config, indices IndexMap) (*tensor.RawTensor, error) {
	if _, err := Prepare(input.Shape(), input.DType(), cfg); err != nil {
		return nil, fmt.Errorf("reference backward: %w", err)
	}

	switch input.DType() {
	case tensor.Float32:
		return Backward[float32](input, gradOutput, output, cfg, indices, r.parallel), nil
	default:
		return Backward[float64](input, gradOutput, output, cfg, indices, r.parallel), nil
	}
}
