package poolcheck

import (
	"fmt"

	"github.com/flair2005/MIOpen/internal/tensor"
)

// SyntheticGradient builds a deterministic output gradient from a forward
// output x:
//
//	dout(n,c,h,w) = x * ((877n + 547c + 701h + 1049w + int(769x)) mod 2503) / 1301
//
// 769x is rounded to the element type before int truncates it toward
// zero; mod keeps the dividend's sign. The rest is computed in float64.
func SyntheticGradient(output *tensor.RawTensor) *tensor.RawTensor {
	switch output.DType() {
	case tensor.Float32:
		return syntheticGradient[float32](output)
	case tensor.Float64:
		return syntheticGradient[float64](output)
	default:
		panic(fmt.Sprintf("poolcheck: synthetic gradient: unsupported dtype %s", output.DType()))
	}
}

func syntheticGradient[T tensor.Float](output *tensor.RawTensor) *tensor.RawTensor {
	grad := tensor.MustNewRaw(output.Shape(), output.DType(), tensor.CPU)
	tensor.Generate(grad, func(n, c, h, w int) T {
		x := tensor.At[T](output, n, c, h, w)
		k := (877*n + 547*c + 701*h + 1049*w + int(T(769*x))) % 2503
		return T(float64(x) * float64(k) / 1301)
	})
	return grad
}
