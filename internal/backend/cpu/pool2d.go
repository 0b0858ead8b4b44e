package cpu

import (
	"fmt"
	"unsafe"

	"github.com/flair2005/MIOpen/internal/device"
	"github.com/flair2005/MIOpen/internal/parallel"
	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
)

// view reinterprets device memory as a slice of T.
func view[T tensor.Float | uint16](b []byte) []T {
	var zero T
	n := len(b) / int(unsafe.Sizeof(zero))
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// clip returns, for output position o along one axis, the in-bounds input
// range [lo, hi) and the padded window extent used as the average divisor.
func clip(o, win, stride, pad, dim int) (lo, hi, extent int) {
	start := o*stride - pad
	end := min(start+win, dim+pad)
	return max(start, 0), min(start+win, dim), end - start
}

// PoolForward runs the forward kernel: one task per output element.
//
// Input shape:  [N, C, H, W]
// Output shape: [N, C, HOut, WOut]
//
// Max mode also writes the row*W+col offset of each maximum into IndexBuf.
func (d *Device) PoolForward(args device.ForwardArgs) error {
	if len(args.Input.Shape) != 4 || len(args.Output.Shape) != 4 {
		return fmt.Errorf("cpu: pool forward: expected 4D tensors, got %s -> %s", args.Input.Shape, args.Output.Shape)
	}
	dt := args.Input.DType
	src, err := d.bytesOf(args.InputBuf, args.Input.Shape.NumElements()*dt.Size(), "input")
	if err != nil {
		return err
	}
	dst, err := d.bytesOf(args.OutputBuf, args.Output.Shape.NumElements()*dt.Size(), "output")
	if err != nil {
		return err
	}
	var idx []uint16
	if args.SaveIndices {
		raw, err := d.bytesOf(args.IndexBuf, args.Output.Shape.NumElements()*d.IndexSize(), "index map")
		if err != nil {
			return err
		}
		idx = view[uint16](raw)
	}

	switch dt {
	case tensor.Float32:
		poolForward(view[float32](src), view[float32](dst), idx, args, d.parallel)
	case tensor.Float64:
		poolForward(view[float64](src), view[float64](dst), idx, args, d.parallel)
	default:
		return fmt.Errorf("cpu: pool forward: %w: %s", pooling.ErrUnsupportedDType, dt)
	}
	return nil
}

func poolForward[T tensor.Float](src, dst []T, idx []uint16, args device.ForwardArgs, par parallel.Config) {
	N, C, H, W := args.Input.Shape.Lengths4()
	_, _, HOut, WOut := args.Output.Shape.Lengths4()
	cfg := args.Config
	k, s, p := cfg.Window(), cfg.Stride(), cfg.Pad()

	parallel.ForBatch(N, C, func(n, c int) {
		plane := n*C + c
		in := src[plane*H*W : (plane+1)*H*W]
		out := dst[plane*HOut*WOut : (plane+1)*HOut*WOut]

		for i := 0; i < HOut; i++ {
			hlo, hhi, hext := clip(i, k.H, s.H, p.H, H)
			for j := 0; j < WOut; j++ {
				wlo, whi, wext := clip(j, k.W, s.W, p.W, W)
				o := i*WOut + j

				if cfg.Mode() == pooling.Average {
					var sum T
					for h := hlo; h < hhi; h++ {
						for _, v := range in[h*W+wlo : h*W+whi] {
							sum += v
						}
					}
					out[o] = sum / T(hext*wext)
					continue
				}

				bestOff := hlo*W + wlo
				best := in[bestOff]
				for h := hlo; h < hhi; h++ {
					for w := wlo; w < whi; w++ {
						if v := in[h*W+w]; v > best {
							best, bestOff = v, h*W+w
						}
					}
				}
				out[o] = best
				if idx != nil {
					idx[plane*HOut*WOut+o] = uint16(bestOff) //nolint:gosec // G115: plane size checked before launch
				}
			}
		}
	}, par)
}
