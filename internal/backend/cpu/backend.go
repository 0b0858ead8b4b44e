// Package cpu implements a host-emulated pooling device.
//
// It behaves like an accelerator: tensors are staged into buffers owned by
// the device and the kernels work on raw buffer memory using the same
// per-output forward and per-input backward formulation as the WebGPU
// shaders. It is always available and serves as the accelerated side of a
// verification run when no GPU is present.
package cpu

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	xcpu "golang.org/x/sys/cpu"

	"github.com/flair2005/MIOpen/internal/device"
	"github.com/flair2005/MIOpen/internal/parallel"
	"github.com/flair2005/MIOpen/internal/tensor"
)

// Stats tracks buffer usage on a Device.
type Stats struct {
	Allocations int64
	Releases    int64
	LiveBuffers int
	LiveBytes   uint64
	PeakBytes   uint64
}

// Device is the host-emulated pooling device.
type Device struct {
	parallel parallel.Config
	name     string

	mu      sync.Mutex
	buffers map[uint64]*buffer
	nextID  uint64
	stats   Stats
}

// Compile-time check that Device implements device.Device.
var _ device.Device = (*Device)(nil)

// buffer is a block of device memory.
type buffer struct {
	id   uint64
	data []byte
}

// Size implements device.Buffer.
func (b *buffer) Size() uint64 {
	return uint64(len(b.data))
}

// New creates a host device whose kernels split planes according to par.
func New(par parallel.Config) *Device {
	return &Device{
		parallel: par,
		name:     hostName(),
		buffers:  make(map[uint64]*buffer),
	}
}

// hostName describes the host CPU, e.g. "host amd64 (avx2,fma)".
func hostName() string {
	var features []string
	switch runtime.GOARCH {
	case "amd64", "386":
		if xcpu.X86.HasAVX512F {
			features = append(features, "avx512f")
		}
		if xcpu.X86.HasAVX2 {
			features = append(features, "avx2")
		}
		if xcpu.X86.HasFMA {
			features = append(features, "fma")
		}
	case "arm64":
		if xcpu.ARM64.HasASIMD {
			features = append(features, "asimd")
		}
		if xcpu.ARM64.HasSVE {
			features = append(features, "sve")
		}
	}
	name := "host " + runtime.GOARCH
	if len(features) > 0 {
		name += " (" + strings.Join(features, ",") + ")"
	}
	return name
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

// Kind returns tensor.Host.
func (d *Device) Kind() tensor.Device {
	return tensor.Host
}

// Supports reports whether dtype is float32 or float64.
func (d *Device) Supports(dtype tensor.DataType) bool {
	return dtype == tensor.Float32 || dtype == tensor.Float64
}

// IndexSize returns 2: index maps are stored as uint16.
func (d *Device) IndexSize() int {
	return 2
}

// Alloc reserves a zeroed buffer of size bytes.
func (d *Device) Alloc(size uint64) (device.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	b := &buffer{id: d.nextID, data: make([]byte, size)}
	d.buffers[b.id] = b

	d.stats.Allocations++
	d.stats.LiveBuffers++
	d.stats.LiveBytes += size
	if d.stats.LiveBytes > d.stats.PeakBytes {
		d.stats.PeakBytes = d.stats.LiveBytes
	}
	return b, nil
}

// Write copies data into a new buffer.
func (d *Device) Write(data []byte) (device.Buffer, error) {
	buf, err := d.Alloc(uint64(len(data)))
	if err != nil {
		return nil, err
	}
	copy(buf.(*buffer).data, data)
	return buf, nil
}

// Read copies the first size bytes of buf.
func (d *Device) Read(buf device.Buffer, size uint64) ([]byte, error) {
	b, err := d.lookup(buf)
	if err != nil {
		return nil, err
	}
	if size > b.Size() {
		return nil, fmt.Errorf("cpu: read %d bytes from %d: %w", size, b.Size(), device.ErrBufferTooSmall)
	}
	out := make([]byte, size)
	copy(out, b.data)
	return out, nil
}

// Free releases buf. Unknown or already released buffers are ignored.
func (d *Device) Free(buf device.Buffer) {
	b, ok := buf.(*buffer)
	if !ok {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, live := d.buffers[b.id]; !live {
		return
	}
	delete(d.buffers, b.id)
	d.stats.Releases++
	d.stats.LiveBuffers--
	d.stats.LiveBytes -= b.Size()
}

// Stats returns a snapshot of buffer usage.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// lookup resolves buf to a live buffer of this device.
func (d *Device) lookup(buf device.Buffer) (*buffer, error) {
	b, ok := buf.(*buffer)
	if !ok || b == nil {
		return nil, device.ErrUnknownBuffer
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if live, ok := d.buffers[b.id]; !ok || live != b {
		return nil, device.ErrUnknownBuffer
	}
	return b, nil
}

// bytesOf resolves buf and checks that it holds at least need bytes.
func (d *Device) bytesOf(buf device.Buffer, need int, what string) ([]byte, error) {
	b, err := d.lookup(buf)
	if err != nil {
		return nil, fmt.Errorf("cpu: %s: %w", what, err)
	}
	if len(b.data) < need {
		return nil, fmt.Errorf("cpu: %s holds %d bytes, need %d: %w", what, len(b.data), need, device.ErrBufferTooSmall)
	}
	return b.data[:need], nil
}
