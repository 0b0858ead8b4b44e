package poolcheck

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/flair2005/MIOpen/internal/backend/cpu"
	"github.com/flair2005/MIOpen/internal/device"
	"github.com/flair2005/MIOpen/internal/parallel"
	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
	"github.com/flair2005/MIOpen/internal/verify"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// faultyExecutor wraps the reference and bumps the first forward output.
type faultyExecutor struct {
	*pooling.Reference
}

func (f *faultyExecutor) Name() string { return "faulty" }

func (f *faultyExecutor) Forward(input *tensor.RawTensor, cfg pooling.Config) (*tensor.RawTensor, pooling.IndexMap, error) {
	out, idx, err := f.Reference.Forward(input, cfg)
	if err != nil {
		return nil, nil, err
	}
	switch out.DType() {
	case tensor.Float32:
		out.AsFloat32()[0] += 1
	case tensor.Float64:
		out.AsFloat64()[0] += 1
	}
	return out, idx, nil
}

// panickingExecutor fails every forward pass with a plain panic.
type panickingExecutor struct {
	*pooling.Reference
}

func (p *panickingExecutor) Forward(*tensor.RawTensor, pooling.Config) (*tensor.RawTensor, pooling.IndexMap, error) {
	panic("kernel exploded")
}

func quietConfig() Config {
	cfg := DefaultConfig()
	cfg.Jobs = 2
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func sequentialReference() *pooling.Reference {
	return pooling.NewReference(parallel.Sequential())
}

func hostExecutor() *device.Executor {
	return device.NewExecutor(cpu.New(parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1}), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDefaultSweep(t *testing.T) {
	sweep := DefaultSweep()
	require.Len(t, sweep, 10)

	assert.Equal(t, pooling.Max, sweep[0].Mode())
	assert.Equal(t, pooling.Average, sweep[5].Mode())
	for i, g := range Geometries {
		assert.Equal(t, g.Window, sweep[i].Window().H)
		assert.Equal(t, g.Stride, sweep[5+i].Stride().W)
		assert.Equal(t, g.Pad, sweep[5+i].Pad().H)
		require.NoError(t, sweep[i].Validate())
	}
}

func TestCheckShapes_HostDevicePasses(t *testing.T) {
	for _, dt := range []tensor.DataType{tensor.Float32, tensor.Float64} {
		t.Run(dt.String(), func(t *testing.T) {
			cfg := quietConfig()
			cfg.DType = dt
			c := New(sequentialReference(), hostExecutor(), cfg)

			shapes := []tensor.Shape{{1, 1, 4, 4}, {2, 3, 7, 5}, {1, 2, 1, 1}}
			report, err := c.CheckShapes(context.Background(), shapes)
			require.NoError(t, err)
			assert.True(t, report.OK(), report.Summary())
			// forward and backward per sweep row
			assert.Equal(t, len(shapes)*len(cfg.Sweep)*2, report.Cases())
			assert.Empty(t, report.Skipped())
		})
	}
}

func TestCheckShapes_DetectsForwardMismatch(t *testing.T) {
	cfg := quietConfig()
	cfg.Sweep = []pooling.Config{Geometries[0].Config(pooling.Average)}
	c := New(sequentialReference(), &faultyExecutor{sequentialReference()}, cfg)

	report, err := c.CheckShapes(context.Background(), []tensor.Shape{{1, 1, 4, 4}})
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.Equal(t, 2, report.Cases())

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Case, "forward")
	assert.Contains(t, failures[0].Diagnostic, "Forward pooling: Average")
	assert.Contains(t, failures[0].Diagnostic, "Input tensor: float32 1x1x4x4")
	assert.Contains(t, failures[0].Diagnostic, "Output tensor: float32 1x1x2x2")
	require.Len(t, failures[0].Mismatches, 1)
	assert.Equal(t, "output", failures[0].Mismatches[0].What)
	assert.Equal(t, 0, failures[0].Mismatches[0].First)
}

func TestCheckShapes_IntegrityViolationIsFatal(t *testing.T) {
	cfg := quietConfig()
	cfg.Sweep = []pooling.Config{Geometries[0].Config(pooling.Max)}
	c := New(sequentialReference(), &faultyExecutor{sequentialReference()}, cfg)

	// The corrupted output no longer matches the input at its max index,
	// so the backward pass of the faulty side trips the integrity check.
	report, err := c.CheckShapes(context.Background(), []tensor.Shape{{1, 1, 4, 4}})
	require.Error(t, err)
	require.NotNil(t, report)

	var pe *pooling.PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "index_integrity", pe.Kind)
	assert.Contains(t, err.Error(), "Max k=2x2")
}

func TestCheckShapes_DeviceIndexCorruptionIsFatal(t *testing.T) {
	cfg := quietConfig()
	cfg.Sweep = []pooling.Config{Geometries[2].Config(pooling.Max)}
	c := New(sequentialReference(), &shiftedIndexExecutor{Executor: hostExecutor()}, cfg)

	// The corner window of k=2 p=1 holds a single cell, so the shifted
	// index selects a neighbour with a different value.
	report, err := c.CheckShapes(context.Background(), []tensor.Shape{{1, 1, 5, 5}})
	require.Error(t, err)

	var pe *pooling.PreconditionError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "index_integrity", pe.Kind)
	assert.Contains(t, pe.Details, "output 0")

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Case, "forward")
}

func TestCheck_SkipsOversizedPlane(t *testing.T) {
	c := New(sequentialReference(), hostExecutor(), quietConfig())
	input := tensor.MustNewRaw(tensor.Shape{1, 1, 256, 257}, tensor.Float32, tensor.CPU)
	report := verify.NewReport()

	require.NoError(t, c.Check(context.Background(), input, report))
	assert.Equal(t, 0, report.Cases())
	require.Len(t, report.Skipped(), 1)
	assert.Contains(t, report.Skipped()[0].Reason, "256x257")
	assert.True(t, report.OK())
}

func TestCheck_Rejects3D(t *testing.T) {
	c := New(sequentialReference(), hostExecutor(), quietConfig())
	input := tensor.MustNewRaw(tensor.Shape{1, 4, 4}, tensor.Float32, tensor.CPU)

	err := c.Check(context.Background(), input, verify.NewReport())
	assert.ErrorContains(t, err, "4D")
}

func TestCheck_OtherPanicsPropagate(t *testing.T) {
	c := New(sequentialReference(), &panickingExecutor{sequentialReference()}, quietConfig())
	input, err := tensor.Random[float32](tensor.Shape{1, 1, 4, 4}, 1, 1)
	require.NoError(t, err)

	assert.PanicsWithValue(t, "kernel exploded", func() {
		_ = c.Check(context.Background(), input, verify.NewReport())
	})
}

func TestCheck_CancelledContext(t *testing.T) {
	c := New(sequentialReference(), hostExecutor(), quietConfig())
	input, err := tensor.Random[float32](tensor.Shape{1, 1, 4, 4}, 1, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report := verify.NewReport()
	assert.ErrorIs(t, c.Check(ctx, input, report), context.Canceled)
	assert.Equal(t, 0, report.Cases())
}

func TestCheck_InvalidConfigIsFatal(t *testing.T) {
	c := New(sequentialReference(), hostExecutor(), quietConfig())
	input, err := tensor.Random[float32](tensor.Shape{1, 1, 4, 4}, 1, 1)
	require.NoError(t, err)

	// pad must be smaller than the window
	err = c.checkCase(input, pooling.NewConfig(pooling.Max,
		pooling.Size2{H: 2, W: 2}, pooling.Size2{H: 2, W: 2}, pooling.Size2{H: 2, W: 2}),
		verify.NewReport(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.ErrorIs(t, err, pooling.ErrInvalidConfig)
}
