// Copyright 2025 The MIOpen Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/flair2005/MIOpen/internal/tensor"
)

// RawTensor is a contiguous [N, C, H, W] buffer with shape and type
// information.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{1, 3, 8, 8}, tensor.Float32, tensor.CPU)
//	data := raw.AsFloat32()
//	clone := raw.Clone()
type RawTensor = tensor.RawTensor

// Shape is the list of dimension lengths.
type Shape = tensor.Shape

// DataType is the runtime element type.
type DataType = tensor.DataType

// Device records where a tensor's values were produced.
type Device = tensor.Device

// Float is the constraint for element types.
type Float = tensor.Float

// Element types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
)

// Devices.
const (
	CPU    = tensor.CPU
	Host   = tensor.Host
	WebGPU = tensor.WebGPU
)

// NewRaw allocates a zeroed tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromValues copies values into a new tensor of the given shape.
func FromValues[T Float](shape Shape, values []T) (*RawTensor, error) {
	return tensor.FromValues(shape, values)
}

// Random returns a tensor of values uniformly distributed in [-scale, scale).
// The same seed always yields the same tensor.
func Random[T Float](shape Shape, seed uint64, scale float64) (*RawTensor, error) {
	return tensor.Random[T](shape, seed, scale)
}

// ParseShape parses a shape written as "NxCxHxW".
func ParseShape(text string) (Shape, error) {
	return tensor.ParseShape(text)
}

// ParseDataType parses "float32"/"f32" or "float64"/"f64".
func ParseDataType(name string) (DataType, error) {
	return tensor.ParseDataType(name)
}
