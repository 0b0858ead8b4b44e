// Copyright 2025 The MIOpen Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the 4D feature-map tensors consumed by the pooling
// package.
//
// A RawTensor is a contiguous row-major buffer laid out as [N, C, H, W]
// with a runtime DataType of float32 or float64.
//
//	x, _ := tensor.FromValues(tensor.Shape{1, 1, 2, 2}, []float32{1, 2, 3, 4})
//	y, _ := tensor.Random[float64](tensor.Shape{2, 3, 17, 19}, 42, 1)
package tensor
