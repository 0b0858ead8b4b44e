// Package poolcheck verifies an accelerated pooling executor against the
// host reference over a fixed parameter sweep.
//
// For every input tensor and sweep row it verifies the forward pass
// (output and, in Max mode, the index map), derives a deterministic
// gradient from the reference output and verifies the backward pass.
// Mismatches are collected in a verify.Report; a violated precondition
// aborts the run.
package poolcheck

import (
	"log/slog"
	"runtime"

	"github.com/flair2005/MIOpen/internal/pooling"
	"github.com/flair2005/MIOpen/internal/tensor"
	"github.com/flair2005/MIOpen/internal/verify"
)

// Geometry is one row of the sweep table: square window, stride and pad.
type Geometry struct {
	Window, Stride, Pad int
}

// Geometries is the sweep table applied to each mode.
var Geometries = []Geometry{
	{Window: 2, Stride: 2, Pad: 0},
	{Window: 2, Stride: 1, Pad: 0},
	{Window: 2, Stride: 1, Pad: 1},
	{Window: 3, Stride: 2, Pad: 0},
	{Window: 3, Stride: 1, Pad: 1},
}

// Config returns the pooling config of g in mode m.
func (g Geometry) Config(m pooling.Mode) pooling.Config {
	return pooling.NewConfig(m,
		pooling.Size2{H: g.Window, W: g.Window},
		pooling.Size2{H: g.Stride, W: g.Stride},
		pooling.Size2{H: g.Pad, W: g.Pad},
	)
}

// DefaultSweep returns every mode crossed with Geometries, modes outermost.
func DefaultSweep() []pooling.Config {
	sweep := make([]pooling.Config, 0, len(pooling.Modes)*len(Geometries))
	for _, m := range pooling.Modes {
		for _, g := range Geometries {
			sweep = append(sweep, g.Config(m))
		}
	}
	return sweep
}

// Config controls a verification run.
type Config struct {
	// DType of generated inputs.
	DType tensor.DataType

	// Seed of the first generated input; input i uses Seed+i.
	Seed uint64

	// Scale bounds generated values to [-Scale, Scale).
	Scale float64

	// Sweep lists the pooling configs applied to every input.
	Sweep []pooling.Config

	// Tolerance for output and gradient comparisons.
	Tolerance verify.Tolerance

	// Jobs bounds the number of inputs verified concurrently.
	Jobs int

	// Logger receives per-case records. Nil means slog.Default().
	Logger *slog.Logger

	// DumpDir receives a SafeTensors file per failed case when non-empty.
	DumpDir string
}

// DefaultConfig returns the standard float32 sweep.
func DefaultConfig() Config {
	return Config{
		DType:     tensor.Float32,
		Seed:      1,
		Scale:     1,
		Sweep:     DefaultSweep(),
		Tolerance: verify.DefaultTolerance(),
		Jobs:      runtime.NumCPU(),
	}
}
