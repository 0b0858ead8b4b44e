// Copyright 2025 The MIOpen Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package pooling

import (
	"context"
	"log/slog"

	"github.com/flair2005/MIOpen/internal/poolcheck"
	"github.com/flair2005/MIOpen/internal/tensor"
	"github.com/flair2005/MIOpen/internal/verify"
)

// Report aggregates the outcome of a verification run.
type Report = verify.Report

// Tolerance bounds the accepted difference between two values.
type Tolerance = verify.Tolerance

// VerifyOptions controls Verify.
type VerifyOptions struct {
	DType     tensor.DataType
	Seed      uint64
	Tolerance Tolerance
	Jobs      int
	Logger    *slog.Logger

	// Sweep overrides the standard sweep when non-nil.
	Sweep []Config
}

// DefaultVerifyOptions returns float32 inputs, seed 1 and the default
// tolerance.
func DefaultVerifyOptions() VerifyOptions {
	d := poolcheck.DefaultConfig()
	return VerifyOptions{
		DType:     d.DType,
		Seed:      d.Seed,
		Tolerance: d.Tolerance,
		Jobs:      d.Jobs,
	}
}

// DefaultSweep returns the standard sweep: both modes over the window
// geometries 2/2/0, 2/1/0, 2/1/1, 3/2/0 and 3/1/1 (window/stride/pad).
func DefaultSweep() []Config {
	return poolcheck.DefaultSweep()
}

// Verify compares acc against the host reference on one random input per
// shape. Mismatches are collected in the report; the error is non-nil only
// for fatal conditions such as a violated precondition.
func Verify(ctx context.Context, acc Executor, shapes []tensor.Shape, opts VerifyOptions) (*Report, error) {
	cfg := poolcheck.DefaultConfig()
	cfg.DType = opts.DType
	cfg.Seed = opts.Seed
	cfg.Tolerance = opts.Tolerance
	cfg.Jobs = opts.Jobs
	cfg.Logger = opts.Logger
	if opts.Sweep != nil {
		cfg.Sweep = opts.Sweep
	}
	return poolcheck.New(NewReference(), acc, cfg).CheckShapes(ctx, shapes)
}
