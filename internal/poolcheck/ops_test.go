package poolcheck

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
	"github.com/flair2005/MIOpen/internal/verify"
)

func TestSyntheticGradient(t *testing.T) {
	out, err := tensor.FromValues(tensor.Shape{1, 1, 1, 3}, []float64{0.5, -0.5, 0})
	require.NoError(t, err)

	grad := SyntheticGradient(out)
	require.True(t, grad.Shape().Equal(out.Shape()))
	g := grad.AsFloat64()

	// (0 + int(384.5)) % 2503 = 384
	assert.InDelta(t, 0.5*384/1301, g[0], 1e-15)
	// (1049 + int(-384.5)) % 2503 = 665
	assert.InDelta(t, -0.5*665/1301, g[1], 1e-15)
	assert.Equal(t, 0.0, g[2])
}

func TestSyntheticGradient_RoundsInElementType(t *testing.T) {
	// 769*x is 0.99999999558 in float64 but rounds to exactly 1 in float32.
	x := math.Float32frombits(0x3aaa71da)
	out, err := tensor.FromValues(tensor.Shape{1, 1, 1, 1}, []float32{x})
	require.NoError(t, err)

	g := SyntheticGradient(out).AsFloat32()
	assert.Equal(t, float32(float64(x)/1301), g[0])
}

func TestSyntheticGradient_Deterministic(t *testing.T) {
	out, err := tensor.Random[float32](tensor.Shape{2, 3, 4, 5}, 7, 1)
	require.NoError(t, err)

	a := SyntheticGradient(out)
	b := SyntheticGradient(out)
	assert.Equal(t, a.Data(), b.Data())
	assert.Equal(t, tensor.Float32, a.DType())
}

func TestForwardOp_Describe(t *testing.T) {
	input := tensor.MustNewRaw(tensor.Shape{2, 3, 9, 9}, tensor.Float32, tensor.CPU)
	op := &ForwardOp{Input: input, Config: Geometries[3].Config(pooling.Max)}

	assert.Equal(t,
		"Forward pooling: Max k=3x3 s=2x2 p=0x0\nInput tensor: float32 2x3x9x9\nOutput tensor: float32 2x3x4x4",
		op.Describe())
}

func TestBackwardOp_DescribeListsOutputFirst(t *testing.T) {
	input := tensor.MustNewRaw(tensor.Shape{1, 1, 4, 4}, tensor.Float64, tensor.CPU)
	grad := tensor.MustNewRaw(tensor.Shape{1, 1, 2, 2}, tensor.Float64, tensor.CPU)
	op := &BackwardOp{Input: input, GradOutput: grad, Config: Geometries[0].Config(pooling.Average)}

	assert.Equal(t,
		"Backward pooling: Average k=2x2 s=2x2 p=0x0\nOutput tensor: float64 1x1x2x2\nInput tensor: float64 1x1x4x4",
		op.Describe())
}

func TestForwardOp_AverageIgnoresIndices(t *testing.T) {
	op := &ForwardOp{Config: Geometries[0].Config(pooling.Average), Tolerance: verify.Exact()}
	out, err := tensor.FromValues(tensor.Shape{1, 1, 1, 1}, []float32{1})
	require.NoError(t, err)

	ms := op.Compare(
		ForwardResult{Output: out},
		ForwardResult{Output: out.Clone(), Indices: pooling.IndexMap{3}},
	)
	assert.Empty(t, ms)

	op.Config = op.Config.WithMode(pooling.Max)
	ms = op.Compare(
		ForwardResult{Output: out, Indices: pooling.IndexMap{0}},
		ForwardResult{Output: out.Clone(), Indices: pooling.IndexMap{3}},
	)
	require.Len(t, ms, 1)
	assert.Equal(t, "indices", ms[0].What)
}
