package pooling

import (
	"math"
	"testing"

	"github.com/flair2005/MIOpen/internal/parallel"
	"github.com/flair2005/MIOpen/internal/tensor"
)

func sz(h, w int) Size2 { return Size2{H: h, W: w} }

// arange4x4 returns a [1,1,4,4] tensor holding 0..15 row-major.
func arange4x4[T tensor.Float](t *testing.T) *tensor.RawTensor {
	t.Helper()
	input, err := tensor.Arange[T](tensor.Shape{1, 1, 4, 4})
	if err != nil {
		t.Fatal(err)
	}
	return input
}

// TestForward_Max2x2 checks 2x2 max pooling with stride 2 on 0..15.
func TestForward_Max2x2(t *testing.T) {
	input := arange4x4[float32](t)
	cfg := NewConfig(Max, sz(2, 2), sz(2, 2), sz(0, 0))

	output, indices := Forward[float32](input, cfg, parallel.Sequential())

	expectedShape := tensor.Shape{1, 1, 2, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Output shape: expected %v, got %v", expectedShape, output.Shape())
	}

	// [[ 0, 1, 2, 3],      -> [[ 5, 7],
	//  [ 4, 5, 6, 7],          [13,15]]
	//  [ 8, 9,10,11],
	//  [12,13,14,15]]
	expected := []float32{5, 7, 13, 15}
	for i, exp := range expected {
		if output.AsFloat32()[i] != exp {
			t.Errorf("Output[%d]: expected %.1f, got %.1f", i, exp, output.AsFloat32()[i])
		}
	}

	expectedIdx := IndexMap{5, 7, 13, 15}
	for i, exp := range expectedIdx {
		if indices[i] != exp {
			t.Errorf("Index[%d]: expected %d, got %d", i, exp, indices[i])
		}
	}
}

// TestForward_Average2x2 checks 2x2 average pooling with stride 2 on 0..15.
func TestForward_Average2x2(t *testing.T) {
	input := arange4x4[float64](t)
	cfg := NewConfig(Average, sz(2, 2), sz(2, 2), sz(0, 0))

	output, indices := Forward[float64](input, cfg, parallel.Sequential())

	if indices != nil {
		t.Errorf("Average mode should not produce an index map, got %v", indices)
	}

	expected := []float64{2.5, 4.5, 10.5, 12.5}
	for i, exp := range expected {
		if output.AsFloat64()[i] != exp {
			t.Errorf("Output[%d]: expected %.2f, got %.2f", i, exp, output.AsFloat64()[i])
		}
	}
}

// TestForward_WindowLargerThanInput checks a 3x3 window with pad 1 over a 2x2 input.
func TestForward_WindowLargerThanInput(t *testing.T) {
	input, _ := tensor.FromValues(tensor.Shape{1, 1, 2, 2}, []float32{0, 1, 2, 3})

	for _, mode := range Modes {
		cfg := NewConfig(mode, sz(3, 3), sz(1, 1), sz(1, 1))
		output, _ := Forward[float32](input, cfg, parallel.Sequential())

		if !output.Shape().Equal(tensor.Shape{1, 1, 2, 2}) {
			t.Fatalf("%s: output shape %v", mode, output.Shape())
		}
		for i, v := range output.AsFloat32() {
			if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
				t.Errorf("%s: output[%d] = %v is not finite", mode, i, v)
			}
		}
		if mode == Average {
			// Each window spans 3x3 cells of the padded extent and holds all four inputs.
			want := float32(6) / 9
			for i, v := range output.AsFloat32() {
				if v != want {
					t.Errorf("Average output[%d] = %v, want %v", i, v, want)
				}
			}
		}
	}
}

// TestForward_AverageCountsNearPadding checks the pad-inclusive divisor on the leading edge.
func TestForward_AverageCountsNearPadding(t *testing.T) {
	input, _ := tensor.FromValues(tensor.Shape{1, 1, 2, 2}, []float64{1, 1, 1, 1})
	cfg := NewConfig(Average, sz(2, 2), sz(2, 2), sz(1, 1))

	output, _ := Forward[float64](input, cfg, parallel.Sequential())

	// Each 2x2 window holds one real cell and three padding cells.
	for i, v := range output.AsFloat64() {
		if v != 0.25 {
			t.Errorf("Output[%d]: expected 0.25, got %v", i, v)
		}
	}
}

// TestForward_AverageClipsFarPadding checks that the far edge is clipped at dim+pad.
func TestForward_AverageClipsFarPadding(t *testing.T) {
	input, _ := tensor.FromValues(tensor.Shape{1, 1, 1, 1}, []float64{6})
	cfg := NewConfig(Average, sz(4, 4), sz(1, 1), sz(1, 1))

	output, _ := Forward[float64](input, cfg, parallel.Sequential())

	// Window [-1, 3) is clipped to [-1, 2): 3x3 = 9.
	if got := output.AsFloat64()[0]; got != 6.0/9 {
		t.Errorf("Output: expected %v, got %v", 6.0/9, got)
	}
}

// TestForward_MaxTieKeepsFirst checks that ties select the first cell in row-major order.
func TestForward_MaxTieKeepsFirst(t *testing.T) {
	input, _ := tensor.FromValues(tensor.Shape{1, 1, 2, 2}, []float32{7, 7, 7, 7})
	cfg := NewConfig(Max, sz(2, 2), sz(2, 2), sz(0, 0))

	_, indices := Forward[float32](input, cfg, parallel.Sequential())

	if indices[0] != 0 {
		t.Errorf("Tie index: expected 0, got %d", indices[0])
	}
}

// TestForward_MaxIgnoresPadding checks that padding never wins over negative values.
func TestForward_MaxIgnoresPadding(t *testing.T) {
	input, _ := tensor.FromValues(tensor.Shape{1, 1, 2, 2}, []float32{-4, -3, -2, -1})
	cfg := NewConfig(Max, sz(2, 2), sz(1, 1), sz(1, 1))

	output, indices := Forward[float32](input, cfg, parallel.Sequential())

	// 3x3 output; corner (0,0) sees only input(0,0).
	if output.AsFloat32()[0] != -4 || indices[0] != 0 {
		t.Errorf("Corner: expected -4 at 0, got %v at %d", output.AsFloat32()[0], indices[0])
	}
	// Center (1,1) sees the whole input.
	if output.AsFloat32()[4] != -1 || indices[4] != 3 {
		t.Errorf("Center: expected -1 at 3, got %v at %d", output.AsFloat32()[4], indices[4])
	}
}

// TestForward_MultiChannelBatch checks that planes are pooled independently.
func TestForward_MultiChannelBatch(t *testing.T) {
	input, _ := tensor.NewRaw(tensor.Shape{2, 3, 4, 4}, tensor.Float32, tensor.CPU)
	tensor.Generate(input, func(n, c, h, w int) float32 {
		return float32(100*(n*3+c) + h*4 + w)
	})
	cfg := NewConfig(Max, sz(2, 2), sz(2, 2), sz(0, 0))

	par := parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1}
	output, indices := Forward[float32](input, cfg, par)

	for p := 0; p < 6; p++ {
		base := float32(100 * p)
		want := []float32{base + 5, base + 7, base + 13, base + 15}
		for k, w := range want {
			if got := output.AsFloat32()[p*4+k]; got != w {
				t.Errorf("Plane %d output[%d]: expected %v, got %v", p, k, w, got)
			}
		}
		if indices[p*4+3] != 15 {
			t.Errorf("Plane %d index[3]: expected 15, got %d", p, indices[p*4+3])
		}
	}
}

// TestForward_MatchesAcrossScalarTypes checks float32 and float64 agree on exact inputs.
func TestForward_MatchesAcrossScalarTypes(t *testing.T) {
	in32 := arange4x4[float32](t)
	in64 := arange4x4[float64](t)

	for _, mode := range Modes {
		cfg := NewConfig(mode, sz(3, 3), sz(1, 1), sz(1, 1))
		out32, _ := Forward[float32](in32, cfg, parallel.Sequential())
		out64, _ := Forward[float64](in64, cfg, parallel.Sequential())

		for i := range out32.AsFloat32() {
			if math.Abs(float64(out32.AsFloat32()[i])-out64.AsFloat64()[i]) > 1e-5 {
				t.Errorf("%s output[%d]: float32 %v vs float64 %v", mode, i, out32.AsFloat32()[i], out64.AsFloat64()[i])
			}
		}
	}
}

func TestForward_PanicsOnInvalidConfig(t *testing.T) {
	input := arange4x4[float32](t)

	defer func() {
		if recover() == nil {
			t.Error("Forward with pad >= window should panic")
		}
	}()
	Forward[float32](input, NewConfig(Max, sz(2, 2), sz(1, 1), sz(2, 2)), parallel.Sequential())
}

// TestForward_MaxAllNegativeInfinity checks that an all -Inf window yields
// -Inf at its first in-bounds cell.
func TestForward_MaxAllNegativeInfinity(t *testing.T) {
	inf := math.Inf(-1)
	input, _ := tensor.FromValues(tensor.Shape{1, 1, 2, 2}, []float64{inf, inf, inf, 3})
	cfg := NewConfig(Max, sz(2, 2), sz(1, 1), sz(1, 1))

	output, indices := Forward[float64](input, cfg, parallel.Sequential())

	// Corner (0,0) sees only input(0,0).
	if got := output.AsFloat64()[0]; !math.IsInf(got, -1) || indices[0] != 0 {
		t.Errorf("Corner: expected -Inf at 0, got %v at %d", got, indices[0])
	}
	// (0,1) sees input(0,0) and input(0,1).
	if got := output.AsFloat64()[1]; !math.IsInf(got, -1) || indices[1] != 0 {
		t.Errorf("Top edge: expected -Inf at 0, got %v at %d", got, indices[1])
	}
	if got := output.AsFloat64()[4]; got != 3 || indices[4] != 3 {
		t.Errorf("Center: expected 3 at 3, got %v at %d", got, indices[4])
	}
}
