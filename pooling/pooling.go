// Copyright 2025 The MIOpen Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package pooling

import (
	"log/slog"

	"github.com/flair2005/MIOpen/internal/device"
	"github.com/flair2005/MIOpen/internal/parallel"
	"github.com/flair2005/MIOpen/internal/pooling"
)

// Mode selects the reduction.
type Mode = pooling.Mode

// Pooling modes.
const (
	Max     = pooling.Max
	Average = pooling.Average
)

// Size2 is a (height, width) pair.
type Size2 = pooling.Size2

// Config describes one pooling operator.
type Config = pooling.Config

// IndexMap holds the in-plane offset of every Max output.
type IndexMap = pooling.IndexMap

// Executor runs the forward and backward passes.
type Executor = pooling.Executor

// PreconditionError reports a caller defect detected during a pass.
type PreconditionError = pooling.PreconditionError

// MaxPlaneSize is the largest H*W a Max IndexMap can address.
const MaxPlaneSize = pooling.MaxPlaneSize

// Errors returned by executors.
var (
	ErrInvalidConfig    = pooling.ErrInvalidConfig
	ErrUnsupportedDType = pooling.ErrUnsupportedDType
	ErrPlaneTooLarge    = pooling.ErrPlaneTooLarge
)

// NewConfig builds a Config. Use Config.Validate before running it.
func NewConfig(mode Mode, window, stride, pad Size2) Config {
	return pooling.NewConfig(mode, window, stride, pad)
}

// Square returns Size2{n, n}.
func Square(n int) Size2 {
	return Size2{H: n, W: n}
}

// NewReference returns the host reference executor using one worker per CPU.
func NewReference() Executor {
	return pooling.NewReference(parallel.DefaultConfig())
}

// NewDeviceExecutor returns an Executor that runs on dev. A nil logger
// means slog.Default().
func NewDeviceExecutor(dev device.Device, logger *slog.Logger) Executor {
	return device.NewExecutor(dev, logger)
}
