package tensor

import (
	"math/rand/v2"
)

// Fill sets every element of r to value.
func Fill[T Float](r *RawTensor, value T) {
	data := Values[T](r)
	for i := range data {
		data[i] = value
	}
}

// Generate sets every element (n, c, h, w) of a 4D tensor to f(n, c, h, w).
//
// Example:
//
//	tensor.Generate(t, func(n, c, h, w int) float32 {
//	    return float32(h*4 + w)
//	})
func Generate[T Float](r *RawTensor, f func(n, c, h, w int) T) {
	N, C, H, W := r.shape.Lengths4()
	data := Values[T](r)
	idx := 0
	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			for h := 0; h < H; h++ {
				for w := 0; w < W; w++ {
					data[idx] = f(n, c, h, w)
					idx++
				}
			}
		}
	}
}

// Arange creates a tensor of the given shape holding 0, 1, 2, ... in row-major order.
func Arange[T Float](shape Shape) (*RawTensor, error) {
	r, err := NewRaw(shape, DataTypeOf[T](), CPU)
	if err != nil {
		return nil, err
	}
	data := Values[T](r)
	for i := range data {
		data[i] = T(i)
	}
	return r, nil
}

// Random creates a tensor with values uniformly distributed in [-scale, scale).
// The same seed always yields the same tensor.
func Random[T Float](shape Shape, seed uint64, scale float64) (*RawTensor, error) {
	r, err := NewRaw(shape, DataTypeOf[T](), CPU)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // G404: reproducible test inputs
	data := Values[T](r)
	for i := range data {
		data[i] = T((rng.Float64()*2 - 1) * scale)
	}
	return r, nil
}

// RandomOf is Random dispatched on a runtime DataType.
func RandomOf(shape Shape, dtype DataType, seed uint64, scale float64) (*RawTensor, error) {
	switch dtype {
	case Float32:
		return Random[float32](shape, seed, scale)
	case Float64:
		return Random[float64](shape, seed, scale)
	default:
		panic("RandomOf only supports float32 and float64 types")
	}
}
