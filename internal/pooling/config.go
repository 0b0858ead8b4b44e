package pooling

import (
	"fmt"

	"github.com/flair2005/MIOpen/internal/tensor"
)

// Mode selects the reduction applied over each pooling window.
type Mode int

// Supported pooling modes.
const (
	Max Mode = iota
	Average
)

// Modes lists every supported mode in sweep order.
var Modes = []Mode{Max, Average}

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case Max:
		return "Max"
	case Average:
		return "Average"
	default:
		return "Unknown"
	}
}

// Size2 is a (height, width) pair.
type Size2 struct {
	H, W int
}

// Config is the immutable description of a 2D pooling operator.
type Config struct {
	mode   Mode
	window Size2
	stride Size2
	pad    Size2
}

// NewConfig creates a pooling Config.
//
// Example:
//
//	cfg := pooling.NewConfig(pooling.Max, pooling.Size2{2, 2}, pooling.Size2{2, 2}, pooling.Size2{})
func NewConfig(mode Mode, window, stride, pad Size2) Config {
	return Config{mode: mode, window: window, stride: stride, pad: pad}
}

// Mode returns the reduction mode.
func (c Config) Mode() Mode { return c.mode }

// Window returns the window lengths.
func (c Config) Window() Size2 { return c.window }

// Stride returns the step between consecutive windows.
func (c Config) Stride() Size2 { return c.stride }

// Pad returns the virtual border added on each side.
func (c Config) Pad() Size2 { return c.pad }

// WithMode returns a copy of c using mode m.
func (c Config) WithMode(m Mode) Config {
	c.mode = m
	return c
}

// Validate checks the operator invariants: window and stride at least 1,
// padding non-negative and strictly smaller than the window on each axis.
func (c Config) Validate() error {
	if c.mode != Max && c.mode != Average {
		return fmt.Errorf("%w: unknown mode %d", ErrInvalidConfig, int(c.mode))
	}
	if c.window.H < 1 || c.window.W < 1 {
		return fmt.Errorf("%w: window %dx%d must be at least 1x1", ErrInvalidConfig, c.window.H, c.window.W)
	}
	if c.stride.H < 1 || c.stride.W < 1 {
		return fmt.Errorf("%w: stride %dx%d must be at least 1x1", ErrInvalidConfig, c.stride.H, c.stride.W)
	}
	if c.pad.H < 0 || c.pad.W < 0 {
		return fmt.Errorf("%w: negative pad %dx%d", ErrInvalidConfig, c.pad.H, c.pad.W)
	}
	// A window made only of padding has no element to select.
	if c.pad.H >= c.window.H || c.pad.W >= c.window.W {
		return fmt.Errorf("%w: pad %dx%d must be smaller than window %dx%d",
			ErrInvalidConfig, c.pad.H, c.pad.W, c.window.H, c.window.W)
	}
	return nil
}

// String renders the config for diagnostics, e.g. "Max k=2x2 s=2x2 p=0x0".
func (c Config) String() string {
	return fmt.Sprintf("%s k=%dx%d s=%dx%d p=%dx%d",
		c.mode, c.window.H, c.window.W, c.stride.H, c.stride.W, c.pad.H, c.pad.W)
}

// outputDim computes one spatial output length.
func outputDim(in, window, stride, pad int) int {
	span := in + 2*pad - window
	if span < 0 {
		return 1
	}
	return span/stride + 1
}

// OutputShape returns the forward output shape for a 4D input: N and C are
// preserved, each spatial length is max(1, (in + 2*pad - window)/stride + 1).
// The result depends only on its arguments.
func (c Config) OutputShape(input tensor.Shape) (tensor.Shape, error) {
	if len(input) != 4 {
		return nil, fmt.Errorf("pooling: expected 4D input [N,C,H,W], got %dD", len(input))
	}
	if err := input.Validate(); err != nil {
		return nil, fmt.Errorf("pooling: %w", err)
	}
	N, C, H, W := input.Lengths4()
	return tensor.Shape{
		N, C,
		outputDim(H, c.window.H, c.stride.H, c.pad.H),
		outputDim(W, c.window.W, c.stride.W, c.pad.W),
	}, nil
}

// Region is the geometry of the window behind one output cell.
// HStart/WStart may be negative; HEnd/WEnd are clipped to the padded extent.
// PoolSize is the divisor used by Average mode.
type Region struct {
	HStart, WStart int
	HEnd, WEnd     int
	PoolSize       int
}

// Region computes the window geometry for output cell (i, j) over an
// inH x inW input plane.
//
// PoolSize counts the window cells inside [-pad, dim+pad) using the
// unclipped start, so padding on the near side is counted while the far
// side is clipped at dim+pad.
func (c Config) Region(i, j, inH, inW int) Region {
	hStart := i*c.stride.H - c.pad.H
	wStart := j*c.stride.W - c.pad.W
	hEnd := min(hStart+c.window.H, inH+c.pad.H)
	wEnd := min(wStart+c.window.W, inW+c.pad.W)
	return Region{
		HStart:   hStart,
		WStart:   wStart,
		HEnd:     hEnd,
		WEnd:     wEnd,
		PoolSize: (hEnd - hStart) * (wEnd - wStart),
	}
}
