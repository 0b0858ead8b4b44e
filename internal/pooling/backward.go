package pooling

import (
	"fmt"

	"github.com/flair2005/MIOpen/internal/parallel"
	"github.com/flair2005/MIOpen/internal/tensor"
)

// Backward computes the gradient with respect to the input of a Forward call.
//
// Max mode routes gradOutput(n, c, i, j) to the input cell recorded in
// indices and asserts that the cell holds exactly output(n, c, i, j).
// Average mode recomputes each window and spreads gradOutput / PoolSize over
// its in-bounds cells. Both accumulate, since overlapping windows
// (stride < window) reach the same input cell more than once.
//
// Panics with *PreconditionError when gradOutput and output shapes differ,
// when output does not have the forward shape of input, or when a max
// index fails the integrity check.
//
// Example (2x2 max, stride 2):
//
//	Input:  [[1, 2],  Output: [4]  Input Grad: [[0, 0],
//	         [3, 4]]                             [0, grad]]
func Backward[T tensor.Float](input, gradOutput, output *tensor.RawTensor, cfg Config, indices IndexMap, par parallel.Config) *tensor.RawTensor {
	outShape := CheckBackward(input, gradOutput, output, cfg, indices)

	N, C, H, W := input.Shape().Lengths4()
	_, _, HOut, WOut := outShape.Lengths4()
	gradInput := tensor.MustNewRaw(input.Shape(), input.DType(), tensor.CPU)

	inputData := tensor.Values[T](input)
	outputData := tensor.Values[T](output)
	gradOutData := tensor.Values[T](gradOutput)
	gradInData := tensor.Values[T](gradInput)
	inPlane, outPlane := H*W, HOut*WOut

	// Planes never alias, so each one is owned by a single goroutine.
	parallel.ForBatch(N, C, func(n, c int) {
		p := n*C + c
		in := inputData[p*inPlane : (p+1)*inPlane]
		gin := gradInData[p*inPlane : (p+1)*inPlane]
		out := outputData[p*outPlane : (p+1)*outPlane]
		gout := gradOutData[p*outPlane : (p+1)*outPlane]

		switch cfg.Mode() {
		case Max:
			backwardMaxPlane(in, gin, out, gout, indices[p*outPlane:(p+1)*outPlane], n, c, W)
		case Average:
			backwardAveragePlane(gin, gout, cfg, H, W, HOut, WOut)
		}
	}, par)

	return gradInput
}

// CheckBackward validates the arguments of a backward pass and returns the
// forward output shape. Every executor calls it before touching data.
//
// Panics with *PreconditionError on shape, dtype or index map length
// mismatches, and with a plain message if the input cannot be pooled.
func CheckBackward(input, gradOutput, output *tensor.RawTensor, cfg Config, indices IndexMap) tensor.Shape {
	outShape, err := Prepare(input.Shape(), input.DType(), cfg)
	if err != nil {
		panic(fmt.Sprintf("pooling backward: %v", err))
	}
	if !gradOutput.Shape().Equal(output.Shape()) {
		precondition("backward", "shape_mismatch", "gradient shape %s != output shape %s",
			gradOutput.Shape(), output.Shape())
	}
	if !output.Shape().Equal(outShape) {
		precondition("backward", "shape_mismatch", "output shape %s != forward shape %s of input %s",
			output.Shape(), outShape, input.Shape())
	}
	if gradOutput.DType() != input.DType() || output.DType() != input.DType() {
		precondition("backward", "dtype_mismatch", "input %s, output %s, gradient %s",
			input.DType(), output.DType(), gradOutput.DType())
	}
	if cfg.Mode() == Max && len(indices) != outShape.NumElements() {
		precondition("backward", "index_length", "index map has %d entries, want %d",
			len(indices), outShape.NumElements())
	}
	return outShape
}

// CheckIndices asserts that every max index lies inside its input plane
// and selects a cell holding exactly the matching output value. The
// arguments must already satisfy CheckBackward.
//
// Panics with *PreconditionError of kind "index_range" or
// "index_integrity" on the first offending entry.
func CheckIndices(input, output *tensor.RawTensor, indices IndexMap) {
	switch input.DType() {
	case tensor.Float32:
		checkIndices(tensor.Values[float32](input), tensor.Values[float32](output), input, output, indices)
	case tensor.Float64:
		checkIndices(tensor.Values[float64](input), tensor.Values[float64](output), input, output, indices)
	default:
		panic(fmt.Sprintf("pooling backward: %v: %s", ErrUnsupportedDType, input.DType()))
	}
}

func checkIndices[T tensor.Float](in, out []T, input, output *tensor.RawTensor, indices IndexMap) {
	_, C, H, W := input.Shape().Lengths4()
	_, _, HOut, WOut := output.Shape().Lengths4()
	inPlane, outPlane := H*W, HOut*WOut

	for k, off := range indices {
		p := k / outPlane
		checkIndex(in[p*inPlane:(p+1)*inPlane], out[p*outPlane:(p+1)*outPlane], off, k%outPlane, p/C, p%C, W)
	}
}

// checkIndex validates output k of plane (n, c).
func checkIndex[T tensor.Float](in, out []T, off uint16, k, n, c, W int) {
	if int(off) >= len(in) {
		precondition("backward", "index_range", "plane (%d,%d) output %d: offset %d outside plane of %d",
			n, c, k, off, len(in))
	}
	if in[off] != out[k] {
		row, col := Decode(off, W)
		precondition("backward", "index_integrity",
			"plane (%d,%d) output %d: input(%d,%d) = %v, output = %v", n, c, k, row, col, in[off], out[k])
	}
}

// backwardMaxPlane routes gradients of one plane to the recorded max positions.
func backwardMaxPlane[T tensor.Float](in, gin, out, gout []T, idx IndexMap, n, c, W int) {
	for k, off := range idx {
		checkIndex(in, out, off, k, n, c, W)
		gin[off] += gout[k]
	}
}

// backwardAveragePlane spreads the gradients of one plane over their windows.
func backwardAveragePlane[T tensor.Float](gin, gout []T, cfg Config, H, W, HOut, WOut int) {
	kh, kw := cfg.Window().H, cfg.Window().W

	for i := 0; i < HOut; i++ {
		for j := 0; j < WOut; j++ {
			r := cfg.Region(i, j, H, W)
			g := gout[i*WOut+j] / T(r.PoolSize)

			for y := 0; y < kh; y++ {
				h := r.HStart + y
				if h < 0 || h >= H {
					continue
				}
				for x := 0; x < kw; x++ {
					w := r.WStart + x
					if w < 0 || w >= W {
						continue
					}
					gin[h*W+w] += g
				}
			}
		}
	}
}
