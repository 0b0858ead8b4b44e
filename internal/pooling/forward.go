package pooling

import (
	"fmt"
	"math"

	"github.com/flair2005/MIOpen/internal/parallel"
	"github.com/flair2005/MIOpen/internal/tensor"
)

// MaxPlaneSize is the largest H*W whose offsets fit an IndexMap entry.
const MaxPlaneSize = math.MaxUint16

// IndexMap holds, for every max-pooling output element, the row*W+col
// offset of the selected element inside its input plane.
type IndexMap []uint16

// Decode splits an offset into (row, col) for an input plane of width w.
func Decode(offset uint16, w int) (row, col int) {
	return int(offset) / w, int(offset) % w
}

// Prepare checks that an input of the given shape and type can be pooled
// with cfg and returns the forward output shape.
func Prepare(input tensor.Shape, dtype tensor.DataType, cfg Config) (tensor.Shape, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dtype != tensor.Float32 && dtype != tensor.Float64 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDType, dtype)
	}
	out, err := cfg.OutputShape(input)
	if err != nil {
		return nil, err
	}
	if cfg.Mode() == Max && input[2]*input[3] > MaxPlaneSize {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrPlaneTooLarge, input[2], input[3], MaxPlaneSize)
	}
	return out, nil
}

// Forward computes 2D pooling of a [N,C,H,W] input on the host.
//
// Each output cell (n, c, i, j) reduces the window starting at
// (i*stride.H - pad.H, j*stride.W - pad.W), skipping positions outside the
// input. Max mode returns the maximum together with an IndexMap; the first
// occurrence in row-major window order wins ties. Average mode divides the
// window sum by Region.PoolSize and returns a nil IndexMap.
//
// Planes are computed in parallel according to par. Panics if the input
// cannot be pooled with cfg (see Prepare).
//
// Example (2x2 max, stride 2, input 0..15):
//
//	Input: [[ 0, 1, 2, 3],    Output: [[ 5, 7],    Indices: [5, 7, 13, 15]
//	        [ 4, 5, 6, 7],             [13,15]]
//	        [ 8, 9,10,11],
//	        [12,13,14,15]]
func Forward[T tensor.Float](input *tensor.RawTensor, cfg Config, par parallel.Config) (*tensor.RawTensor, IndexMap) {
	outShape, err := Prepare(input.Shape(), input.DType(), cfg)
	if err != nil {
		panic(fmt.Sprintf("pooling forward: %v", err))
	}

	N, C, H, W := input.Shape().Lengths4()
	_, _, HOut, WOut := outShape.Lengths4()
	output := tensor.MustNewRaw(outShape, input.DType(), tensor.CPU)

	var indices IndexMap
	if cfg.Mode() == Max {
		indices = make(IndexMap, outShape.NumElements())
	}

	inputData := tensor.Values[T](input)
	outputData := tensor.Values[T](output)
	inPlane, outPlane := H*W, HOut*WOut

	parallel.ForBatch(N, C, func(n, c int) {
		p := n*C + c
		src := inputData[p*inPlane : (p+1)*inPlane]
		dst := outputData[p*outPlane : (p+1)*outPlane]

		switch cfg.Mode() {
		case Max:
			forwardMaxPlane(src, dst, indices[p*outPlane:(p+1)*outPlane], cfg, H, W, HOut, WOut)
		case Average:
			forwardAveragePlane(src, dst, cfg, H, W, HOut, WOut)
		}
	}, par)

	return output, indices
}

// forwardMaxPlane pools one (n, c) plane in Max mode.
func forwardMaxPlane[T tensor.Float](src, dst []T, idx IndexMap, cfg Config, H, W, HOut, WOut int) {
	kh, kw := cfg.Window().H, cfg.Window().W

	for i := 0; i < HOut; i++ {
		for j := 0; j < WOut; j++ {
			r := cfg.Region(i, j, H, W)

			// Seed with the first in-bounds cell so the output always
			// equals the input at its index, -Inf planes included.
			bestOff := max(r.HStart, 0)*W + max(r.WStart, 0)
			best := src[bestOff]

			for y := 0; y < kh; y++ {
				h := r.HStart + y
				if h < 0 || h >= H {
					continue
				}
				row := src[h*W : h*W+W]
				for x := 0; x < kw; x++ {
					w := r.WStart + x
					if w < 0 || w >= W {
						continue
					}
					if v := row[w]; v > best {
						best = v
						bestOff = h*W + w
					}
				}
			}

			dst[i*WOut+j] = best
			idx[i*WOut+j] = uint16(bestOff) //nolint:gosec // G115: bounded by MaxPlaneSize in Prepare
		}
	}
}

// forwardAveragePlane pools one (n, c) plane in Average mode.
func forwardAveragePlane[T tensor.Float](src, dst []T, cfg Config, H, W, HOut, WOut int) {
	kh, kw := cfg.Window().H, cfg.Window().W

	for i := 0; i < HOut; i++ {
		for j := 0; j < WOut; j++ {
			r := cfg.Region(i, j, H, W)

			var sum T
			for y := 0; y < kh; y++ {
				h := r.HStart + y
				if h < 0 || h >= H {
					continue
				}
				row := src[h*W : h*W+W]
				for x := 0; x < kw; x++ {
					w := r.WStart + x
					if w < 0 || w >= W {
						continue
					}
					sum += row[w]
				}
			}

			dst[i*WOut+j] = sum / T(r.PoolSize)
		}
	}
}
