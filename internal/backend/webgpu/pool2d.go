//go:build windows

package webgpu

import (
	"fmt"

	"github.com/flair2005/MIOpen/internal/device"
	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
)

// arg resolves a kernel argument that must hold need bytes.
func (d *Device) arg(buf device.Buffer, need int, what string) (binding, error) {
	gb, err := d.lookup(buf)
	if err != nil {
		return binding{}, fmt.Errorf("webgpu: %s: %w", what, err)
	}
	size := align4(uint64(max(need, 4))) //nolint:gosec // G115: need is non-negative
	if size > gb.alloc {
		return binding{}, fmt.Errorf("webgpu: %s holds %d bytes, need %d: %w", what, gb.alloc, size, device.ErrBufferTooSmall)
	}
	return binding{buf: gb.buf, size: size}, nil
}

// PoolForward runs the forward kernel: one invocation per output element.
func (d *Device) PoolForward(args device.ForwardArgs) error {
	if args.Input.DType != tensor.Float32 {
		return fmt.Errorf("webgpu: pool forward: %w: %s", pooling.ErrUnsupportedDType, args.Input.DType)
	}
	params, err := poolParams(args.Config, args.Input.Shape, args.Output.Shape)
	if err != nil {
		return err
	}

	outCount := args.Output.Shape.NumElements()
	in, err := d.arg(args.InputBuf, args.Input.Shape.NumElements()*4, "input")
	if err != nil {
		return err
	}
	out, err := d.arg(args.OutputBuf, outCount*4, "output")
	if err != nil {
		return err
	}
	bindings := []binding{in, out}
	if args.Config.Mode() == pooling.Max {
		if !args.SaveIndices {
			return fmt.Errorf("webgpu: pool forward: max kernel always writes indices")
		}
		idx, err := d.arg(args.IndexBuf, outCount*d.IndexSize(), "index map")
		if err != nil {
			return err
		}
		bindings = append(bindings, idx)
	}

	name, code := forwardShader(args.Config.Mode())
	return d.run(name, code, bindings, params, outCount)
}

// PoolBackward runs the backward kernel: one invocation per input element,
// gathering from every output whose window covers it.
func (d *Device) PoolBackward(args device.BackwardArgs) error {
	if args.GradOutput.DType != tensor.Float32 {
		return fmt.Errorf("webgpu: pool backward: %w: %s", pooling.ErrUnsupportedDType, args.GradOutput.DType)
	}
	params, err := poolParams(args.Config, args.Input.Shape, args.GradOutput.Shape)
	if err != nil {
		return err
	}

	outCount := args.GradOutput.Shape.NumElements()
	inCount := args.GradInput.Shape.NumElements()
	gout, err := d.arg(args.GradOutputBuf, outCount*4, "output gradient")
	if err != nil {
		return err
	}
	gin, err := d.arg(args.GradInputBuf, inCount*4, "input gradient")
	if err != nil {
		return err
	}

	bindings := []binding{gout, gin}
	if args.Config.Mode() == pooling.Max {
		idx, err := d.arg(args.Workspace, outCount*d.IndexSize(), "workspace")
		if err != nil {
			return err
		}
		bindings = []binding{gout, idx, gin}
	}

	name, code := backwardShader(args.Config.Mode())
	return d.run(name, code, bindings, params, inCount)
}
