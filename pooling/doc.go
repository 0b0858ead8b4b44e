// Copyright 2025 The MIOpen Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pooling provides 2D max and average pooling over [N,C,H,W]
// tensors and a differential verifier for accelerated implementations.
//
// # Executors
//
// An Executor runs the forward and backward passes. NewReference returns the
// host reference; NewDeviceExecutor drives any device from the backend
// packages through the same interface.
//
//	cfg := pooling.NewConfig(pooling.Max, pooling.Square(2), pooling.Square(2), pooling.Square(0))
//	out, idx, err := pooling.NewReference().Forward(input, cfg)
//
// # Verification
//
// Verify runs the standard sweep (both modes over five window geometries)
// on random inputs and compares the accelerated executor against the
// reference, forward and backward:
//
//	report, err := pooling.Verify(ctx, pooling.NewDeviceExecutor(cpu.New(), nil),
//	    []tensor.Shape{{2, 3, 17, 19}}, pooling.DefaultVerifyOptions())
//	if err != nil {
//	    return err // precondition violation or executor failure
//	}
//	fmt.Println(report.Summary())
package pooling
