// Copyright 2025 The MIOpen Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go host pooling device.
//
// The host device runs the pooling kernels over (n, c) planes on a pool of
// goroutines and stores max indices as 16-bit offsets.
//
//	dev := cpu.New()
//	exec := pooling.NewDeviceExecutor(dev, nil)
package cpu

import (
	internalcpu "github.com/flair2005/MIOpen/internal/backend/cpu"
	"github.com/flair2005/MIOpen/internal/device"
	"github.com/flair2005/MIOpen/internal/parallel"
)

// Device is the host pooling device.
type Device = internalcpu.Device

// Stats reports buffer accounting of a Device.
type Stats = internalcpu.Stats

// Compile-time check that Device implements device.Device.
var _ device.Device = (*Device)(nil)

// New creates a host device using one worker per CPU.
func New() *Device {
	return internalcpu.New(parallel.DefaultConfig())
}

// NewWithWorkers creates a host device with at most workers goroutines.
// workers <= 1 runs every plane on the calling goroutine.
func NewWithWorkers(workers int) *Device {
	if workers <= 1 {
		return internalcpu.New(parallel.Sequential())
	}
	cfg := parallel.DefaultConfig()
	cfg.Enabled = true
	cfg.NumWorkers = workers
	return internalcpu.New(cfg)
}
