package device

import (
	"fmt"
	"log/slog"

	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
)

// Executor runs pooling on a Device: it stages inputs into device buffers,
// launches the kernel, reads results back and releases every buffer before
// returning.
type Executor struct {
	dev    Device
	logger *slog.Logger
}

// Compile-time check that Executor implements pooling.Executor.
var _ pooling.Executor = (*Executor)(nil)

// NewExecutor wraps dev. A nil logger uses slog.Default().
func NewExecutor(dev Device, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{dev: dev, logger: logger}
}

// Device returns the wrapped device.
func (e *Executor) Device() Device {
	return e.dev
}

// Name returns the device name.
func (e *Executor) Name() string {
	return e.dev.Name()
}

func (e *Executor) check(input *tensor.RawTensor, cfg pooling.Config) (tensor.Shape, error) {
	outShape, err := pooling.Prepare(input.Shape(), input.DType(), cfg)
	if err != nil {
		return nil, err
	}
	if !e.dev.Supports(input.DType()) {
		return nil, fmt.Errorf("%w: %s on %s", pooling.ErrUnsupportedDType, input.DType(), e.dev.Name())
	}
	return outShape, nil
}

// Forward implements pooling.Executor.
func (e *Executor) Forward(input *tensor.RawTensor, cfg pooling.Config) (*tensor.RawTensor, pooling.IndexMap, error) {
	outShape, err := e.check(input, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s forward: %w", e.dev.Name(), err)
	}

	scope := NewScope(e.dev)
	defer scope.Close()

	args := ForwardArgs{
		Config: cfg,
		Input:  DescOf(input),
		Output: Desc{Shape: outShape, DType: input.DType()},
	}
	if args.InputBuf, err = scope.WriteTensor(input); err != nil {
		return nil, nil, err
	}
	if args.OutputBuf, err = scope.AllocTensor(args.Output); err != nil {
		return nil, nil, err
	}
	if cfg.Mode() == pooling.Max {
		args.SaveIndices = true
		args.IndexBufBytes = uint64(outShape.NumElements() * e.dev.IndexSize()) //nolint:gosec // G115: positive
		if args.IndexBuf, err = scope.Alloc(args.IndexBufBytes); err != nil {
			return nil, nil, err
		}
	}

	e.logger.Debug("pool forward launch",
		"device", e.dev.Name(), "config", cfg.String(), "input", input.String(), "buffers", scope.Live())
	if err := e.dev.PoolForward(args); err != nil {
		return nil, nil, fmt.Errorf("%s forward: %w", e.dev.Name(), err)
	}

	output, err := scope.ReadTensor(args.OutputBuf, args.Output)
	if err != nil {
		return nil, nil, err
	}
	if !args.SaveIndices {
		return output, nil, nil
	}

	raw, err := e.dev.Read(args.IndexBuf, args.IndexBufBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("%s forward: read indices: %w", e.dev.Name(), err)
	}
	indices, err := DecodeIndices(raw, e.dev.IndexSize())
	if err != nil {
		return nil, nil, fmt.Errorf("%s forward: %w", e.dev.Name(), err)
	}
	return output, indices, nil
}

// Backward implements pooling.Executor. Precondition violations, including
// Max indices that do not select their output value, panic with
// *pooling.PreconditionError before any buffer is allocated.
func (e *Executor) Backward(input, gradOutput, output *tensor.RawTensor, cfg pooling.Config, indices pooling.IndexMap) (*tensor.RawTensor, error) {
	if _, err := e.check(input, cfg); err != nil {
		return nil, fmt.Errorf("%s backward: %w", e.dev.Name(), err)
	}
	pooling.CheckBackward(input, gradOutput, output, cfg, indices)
	if cfg.Mode() == pooling.Max {
		pooling.CheckIndices(input, output, indices)
	}

	scope := NewScope(e.dev)
	defer scope.Close()

	var err error
	args := BackwardArgs{
		Config:     cfg,
		Output:     DescOf(output),
		GradOutput: DescOf(gradOutput),
		Input:      DescOf(input),
		GradInput:  DescOf(input),
	}
	if args.InputBuf, err = scope.WriteTensor(input); err != nil {
		return nil, err
	}
	if args.OutputBuf, err = scope.WriteTensor(output); err != nil {
		return nil, err
	}
	if args.GradOutputBuf, err = scope.WriteTensor(gradOutput); err != nil {
		return nil, err
	}
	if args.GradInputBuf, err = scope.AllocTensor(args.GradInput); err != nil {
		return nil, err
	}
	if cfg.Mode() == pooling.Max {
		if args.Workspace, err = scope.Write(EncodeIndices(indices, e.dev.IndexSize())); err != nil {
			return nil, err
		}
	}

	e.logger.Debug("pool backward launch",
		"device", e.dev.Name(), "config", cfg.String(), "input", input.String(), "buffers", scope.Live())
	if err := e.dev.PoolBackward(args); err != nil {
		return nil, fmt.Errorf("%s backward: %w", e.dev.Name(), err)
	}

	return scope.ReadTensor(args.GradInputBuf, args.GradInput)
}
