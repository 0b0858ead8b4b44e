package cpu

import (
	"fmt"

	"github.com/flair2005/MIOpen/internal/device"
	"github.com/flair2005/MIOpen/internal/parallel"
	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
)

// covering returns the output positions [lo, hi] along one axis whose
// windows contain input position x. The range is empty when hi < lo.
func covering(x, win, stride, pad, out int) (lo, hi int) {
	q := x + pad
	if q >= win {
		lo = (q-win)/stride + 1
	}
	return lo, min(q/stride, out-1)
}

// PoolBackward runs the backward kernel: one task per input element.
//
// Each input cell gathers the gradients of every output whose window covers
// it. Max mode takes only outputs whose recorded index is this cell; Average
// mode takes gradOutput / PoolSize from each. The gather never writes the
// same element twice, so no atomics are needed.
func (d *Device) PoolBackward(args device.BackwardArgs) error {
	if len(args.Input.Shape) != 4 || len(args.GradOutput.Shape) != 4 {
		return fmt.Errorf("cpu: pool backward: expected 4D tensors, got %s, %s", args.Input.Shape, args.GradOutput.Shape)
	}
	dt := args.GradOutput.DType
	gout, err := d.bytesOf(args.GradOutputBuf, args.GradOutput.Shape.NumElements()*dt.Size(), "output gradient")
	if err != nil {
		return err
	}
	gin, err := d.bytesOf(args.GradInputBuf, args.GradInput.Shape.NumElements()*dt.Size(), "input gradient")
	if err != nil {
		return err
	}
	var idx []uint16
	if args.Config.Mode() == pooling.Max {
		raw, err := d.bytesOf(args.Workspace, args.GradOutput.Shape.NumElements()*d.IndexSize(), "workspace")
		if err != nil {
			return err
		}
		idx = view[uint16](raw)
	}

	switch dt {
	case tensor.Float32:
		poolBackward(view[float32](gout), view[float32](gin), idx, args, d.parallel)
	case tensor.Float64:
		poolBackward(view[float64](gout), view[float64](gin), idx, args, d.parallel)
	default:
		return fmt.Errorf("cpu: pool backward: %w: %s", pooling.ErrUnsupportedDType, dt)
	}
	return nil
}

func poolBackward[T tensor.Float](gout, gin []T, idx []uint16, args device.BackwardArgs, par parallel.Config) {
	N, C, H, W := args.Input.Shape.Lengths4()
	_, _, HOut, WOut := args.GradOutput.Shape.Lengths4()
	cfg := args.Config
	k, s, p := cfg.Window(), cfg.Stride(), cfg.Pad()

	parallel.ForBatch(N, C, func(n, c int) {
		plane := n*C + c
		g := gout[plane*HOut*WOut : (plane+1)*HOut*WOut]
		dst := gin[plane*H*W : (plane+1)*H*W]
		var sel []uint16
		if idx != nil {
			sel = idx[plane*HOut*WOut : (plane+1)*HOut*WOut]
		}

		for h := 0; h < H; h++ {
			ilo, ihi := covering(h, k.H, s.H, p.H, HOut)
			for w := 0; w < W; w++ {
				jlo, jhi := covering(w, k.W, s.W, p.W, WOut)
				off := h*W + w

				var acc T
				for i := ilo; i <= ihi; i++ {
					for j := jlo; j <= jhi; j++ {
						o := i*WOut + j
						if sel != nil {
							if int(sel[o]) == off {
								acc += g[o]
							}
							continue
						}
						_, _, hext := clip(i, k.H, s.H, p.H, H)
						_, _, wext := clip(j, k.W, s.W, p.W, W)
						acc += g[o] / T(hext*wext)
					}
				}
				dst[off] = acc
			}
		}
	}, par)
}
