package poolcheck

import (
	"fmt"

	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
	"github.com/flair2005/MIOpen/internal/verify"
)

// ForwardResult is what one executor produces for a forward case.
type ForwardResult struct {
	Output  *tensor.RawTensor
	Indices pooling.IndexMap
}

// ForwardOp verifies the forward pass of Acc against Ref.
type ForwardOp struct {
	Ref, Acc  pooling.Executor
	Input     *tensor.RawTensor
	Config    pooling.Config
	Tolerance verify.Tolerance
}

var _ verify.Operation[ForwardResult] = (*ForwardOp)(nil)

// Reference runs the forward pass on Ref.
func (op *ForwardOp) Reference() (ForwardResult, error) {
	return op.run(op.Ref)
}

// Accelerated runs the forward pass on Acc.
func (op *ForwardOp) Accelerated() (ForwardResult, error) {
	return op.run(op.Acc)
}

func (op *ForwardOp) run(e pooling.Executor) (ForwardResult, error) {
	out, idx, err := e.Forward(op.Input, op.Config)
	if err != nil {
		return ForwardResult{}, fmt.Errorf("%s: %w", e.Name(), err)
	}
	return ForwardResult{Output: out, Indices: idx}, nil
}

// Compare checks the outputs within tolerance and, in Max mode, the index
// maps exactly.
func (op *ForwardOp) Compare(ref, acc ForwardResult) []verify.Mismatch {
	var ms []verify.Mismatch
	if m := verify.CompareTensors("output", ref.Output, acc.Output, op.Tolerance); m != nil {
		ms = append(ms, *m)
	}
	if op.Config.Mode() == pooling.Max {
		if m := verify.CompareExact("indices", ref.Indices, acc.Indices); m != nil {
			ms = append(ms, *m)
		}
	}
	return ms
}

// Describe names the mode and both tensors.
func (op *ForwardOp) Describe() string {
	return fmt.Sprintf("Forward pooling: %s\nInput tensor: %s\nOutput tensor: %s",
		op.Config, op.Input, outputDesc(op.Input, op.Config))
}

// BackwardOp verifies the backward pass of Acc against Ref. Each executor
// consumes the output and index map of its own forward pass.
type BackwardOp struct {
	Ref, Acc   pooling.Executor
	Input      *tensor.RawTensor
	GradOutput *tensor.RawTensor
	Forward    verify.Outcome[ForwardResult]
	Config     pooling.Config
	Tolerance  verify.Tolerance
}

var _ verify.Operation[*tensor.RawTensor] = (*BackwardOp)(nil)

// Reference runs the backward pass on Ref.
func (op *BackwardOp) Reference() (*tensor.RawTensor, error) {
	return op.run(op.Ref, op.Forward.Reference)
}

// Accelerated runs the backward pass on Acc.
func (op *BackwardOp) Accelerated() (*tensor.RawTensor, error) {
	return op.run(op.Acc, op.Forward.Accelerated)
}

func (op *BackwardOp) run(e pooling.Executor, fwd ForwardResult) (*tensor.RawTensor, error) {
	grad, err := e.Backward(op.Input, op.GradOutput, fwd.Output, op.Config, fwd.Indices)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}
	return grad, nil
}

// Compare checks the input gradients within tolerance.
func (op *BackwardOp) Compare(ref, acc *tensor.RawTensor) []verify.Mismatch {
	if m := verify.CompareTensors("input gradient", ref, acc, op.Tolerance); m != nil {
		return []verify.Mismatch{*m}
	}
	return nil
}

// Describe names the mode and both tensors, output side first.
func (op *BackwardOp) Describe() string {
	return fmt.Sprintf("Backward pooling: %s\nOutput tensor: %s\nInput tensor: %s",
		op.Config, op.GradOutput, op.Input)
}

func outputDesc(input *tensor.RawTensor, cfg pooling.Config) string {
	shape, err := cfg.OutputShape(input.Shape())
	if err != nil {
		return "invalid (" + err.Error() + ")"
	}
	return input.DType().String() + " " + shape.String()
}
