package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flair2005/MIOpen/internal/device"
	"github.com/flair2005/MIOpen/internal/parallel"
	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
)

func sz(h, w int) pooling.Size2 { return pooling.Size2{H: h, W: w} }

// testConfigs covers non-overlapping, overlapping and padded windows.
var testConfigs = []struct{ k, s, p int }{
	{2, 2, 0},
	{2, 1, 0},
	{2, 1, 1},
	{3, 2, 0},
	{3, 1, 1},
	{4, 3, 2},
}

func TestClip(t *testing.T) {
	tests := []struct {
		o, win, stride, pad, dim int
		lo, hi, extent           int
	}{
		{0, 2, 2, 0, 4, 0, 2, 2},
		{0, 3, 1, 1, 4, 0, 2, 3},
		{3, 3, 1, 1, 4, 2, 4, 3},
		{0, 4, 1, 1, 1, 0, 1, 3}, // far edge clipped at dim+pad
	}
	for _, tt := range tests {
		lo, hi, extent := clip(tt.o, tt.win, tt.stride, tt.pad, tt.dim)
		if lo != tt.lo || hi != tt.hi || extent != tt.extent {
			t.Errorf("clip(%d,%d,%d,%d,%d): expected (%d,%d,%d), got (%d,%d,%d)",
				tt.o, tt.win, tt.stride, tt.pad, tt.dim, tt.lo, tt.hi, tt.extent, lo, hi, extent)
		}
	}
}

func TestCovering(t *testing.T) {
	// 3x3 window, stride 1, pad 1 over 4 cells: 4 outputs.
	tests := []struct{ x, lo, hi int }{
		{0, 0, 1},
		{1, 0, 2},
		{2, 1, 3},
		{3, 2, 3},
	}
	for _, tt := range tests {
		lo, hi := covering(tt.x, 3, 1, 1, 4)
		if lo != tt.lo || hi != tt.hi {
			t.Errorf("covering(%d): expected [%d,%d], got [%d,%d]", tt.x, tt.lo, tt.hi, lo, hi)
		}
	}

	// Stride larger than the window leaves gaps.
	lo, hi := covering(2, 2, 3, 0, 2)
	if hi >= lo {
		t.Errorf("covering in a stride gap: expected empty range, got [%d,%d]", lo, hi)
	}
}

func TestPoolForward_Max2x2(t *testing.T) {
	exec := device.NewExecutor(newTestDevice(), nil)
	input, _ := tensor.Arange[float32](tensor.Shape{1, 1, 4, 4})

	output, indices, err := exec.Forward(input, pooling.NewConfig(pooling.Max, sz(2, 2), sz(2, 2), sz(0, 0)))
	require.NoError(t, err)

	assert.Equal(t, []float32{5, 7, 13, 15}, output.AsFloat32())
	assert.Equal(t, pooling.IndexMap{5, 7, 13, 15}, indices)
	assert.Equal(t, tensor.Host, output.Device())
}

func TestPoolForward_AverageWithPadding(t *testing.T) {
	exec := device.NewExecutor(newTestDevice(), nil)
	input, _ := tensor.FromValues(tensor.Shape{1, 1, 2, 2}, []float64{0, 1, 2, 3})

	output, indices, err := exec.Forward(input, pooling.NewConfig(pooling.Average, sz(3, 3), sz(1, 1), sz(1, 1)))
	require.NoError(t, err)

	assert.Nil(t, indices)
	for i, v := range output.AsFloat64() {
		assert.InDelta(t, 6.0/9, v, 1e-15, "output[%d]", i)
	}
}

// TestPool_MatchesReference runs both passes through the device and the
// host reference and expects identical results.
func TestPool_MatchesReference(t *testing.T) {
	dev := newTestDevice()
	exec := device.NewExecutor(dev, nil)
	ref := pooling.NewReference(parallel.Sequential())

	for _, dtype := range []tensor.DataType{tensor.Float32, tensor.Float64} {
		for _, mode := range pooling.Modes {
			for _, tc := range testConfigs {
				cfg := pooling.NewConfig(mode, sz(tc.k, tc.k), sz(tc.s, tc.s), sz(tc.p, tc.p))
				t.Run(dtype.String()+" "+cfg.String(), func(t *testing.T) {
					input, err := tensor.RandomOf(tensor.Shape{2, 3, 9, 7}, dtype, 42, 10)
					require.NoError(t, err)

					refOut, refIdx, err := ref.Forward(input, cfg)
					require.NoError(t, err)
					devOut, devIdx, err := exec.Forward(input, cfg)
					require.NoError(t, err)

					require.True(t, refOut.Shape().Equal(devOut.Shape()))
					assert.Equal(t, refOut.Data(), devOut.Data(), "forward output")
					assert.Equal(t, refIdx, devIdx, "index map")

					gradOut, err := tensor.RandomOf(refOut.Shape(), dtype, 7, 1)
					require.NoError(t, err)

					refGrad, err := ref.Backward(input, gradOut, refOut, cfg, refIdx)
					require.NoError(t, err)
					devGrad, err := exec.Backward(input, gradOut, devOut, cfg, devIdx)
					require.NoError(t, err)

					assert.Equal(t, refGrad.Data(), devGrad.Data(), "input gradient")
				})
			}
		}
	}

	assert.Equal(t, 0, dev.Stats().LiveBuffers, "executor leaked buffers")
}

func TestPoolForward_RejectsShortBuffers(t *testing.T) {
	dev := newTestDevice()
	in, _ := dev.Alloc(4)
	out, _ := dev.Alloc(4)

	err := dev.PoolForward(device.ForwardArgs{
		Config:    pooling.NewConfig(pooling.Average, sz(2, 2), sz(2, 2), sz(0, 0)),
		Input:     device.Desc{Shape: tensor.Shape{1, 1, 4, 4}, DType: tensor.Float32},
		InputBuf:  in,
		Output:    device.Desc{Shape: tensor.Shape{1, 1, 2, 2}, DType: tensor.Float32},
		OutputBuf: out,
	})
	assert.ErrorIs(t, err, device.ErrBufferTooSmall)
}

func BenchmarkPoolForward_Max3x3(b *testing.B) {
	exec := device.NewExecutor(New(parallel.DefaultConfig()), nil)
	input, _ := tensor.Random[float32](tensor.Shape{8, 16, 64, 64}, 1, 1)
	cfg := pooling.NewConfig(pooling.Max, sz(3, 3), sz(1, 1), sz(1, 1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := exec.Forward(input, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func TestPoolForward_MaxAllNegativeInfinity(t *testing.T) {
	exec := device.NewExecutor(newTestDevice(), nil)
	ref := pooling.NewReference(parallel.Sequential())
	inf := float32(math.Inf(-1))
	input, _ := tensor.FromValues(tensor.Shape{1, 1, 2, 2}, []float32{inf, inf, inf, inf})
	cfg := pooling.NewConfig(pooling.Max, sz(2, 2), sz(1, 1), sz(1, 1))

	refOut, refIdx, err := ref.Forward(input, cfg)
	require.NoError(t, err)
	devOut, devIdx, err := exec.Forward(input, cfg)
	require.NoError(t, err)
	assert.Equal(t, refOut.AsFloat32(), devOut.AsFloat32())
	assert.Equal(t, refIdx, devIdx)

	gradOut := devOut.ZerosLike()
	tensor.Fill(gradOut, float32(1))
	grad, err := exec.Backward(input, gradOut, devOut, cfg, devIdx)
	require.NoError(t, err)
	assert.Equal(t, []float32{4, 2, 2, 1}, grad.AsFloat32())
}
