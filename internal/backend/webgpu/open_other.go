//go:build !windows

package webgpu

import (
	"fmt"
	"runtime"

	"github.com/flair2005/MIOpen/internal/device"
)

// Open reports that WebGPU is not wired on this platform.
func Open() (device.Device, error) {
	return nil, fmt.Errorf("webgpu: %s: %w", runtime.GOOS, device.ErrUnavailable)
}

// IsAvailable reports false on this platform.
func IsAvailable() bool {
	return false
}
