// Copyright 2025 The MIOpen Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU pooling device.
//
// The device runs the pooling kernels as WGSL compute shaders. It supports
// float32 tensors and is available on Windows builds with a WebGPU adapter;
// elsewhere Open fails with an error wrapping ErrUnavailable.
//
// Example:
//
//	dev, err := webgpu.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	exec := pooling.NewDeviceExecutor(dev, nil)
package webgpu

import (
	internalwebgpu "github.com/flair2005/MIOpen/internal/backend/webgpu"
	"github.com/flair2005/MIOpen/internal/device"
)

// ErrUnavailable is returned when no WebGPU adapter can be used.
var ErrUnavailable = device.ErrUnavailable

// Open initializes the WebGPU device. The returned device has a Release
// method that frees its GPU resources.
func Open() (device.Device, error) {
	return internalwebgpu.Open()
}

// IsAvailable reports whether a WebGPU device can be opened.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
