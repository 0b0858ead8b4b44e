//go:build windows

package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/flair2005/MIOpen/internal/device"
	"github.com/flair2005/MIOpen/internal/tensor"
)

// storageUsage is the usage of every kernel argument buffer.
const storageUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst

// Device runs pooling kernels on a GPU through WebGPU.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	// Kernel launches are serialized on the queue.
	dispatchMu sync.Mutex

	bufferPool *BufferPool

	// Memory tracking
	memoryStats struct {
		totalAllocatedBytes uint64
		peakMemoryBytes     uint64
		activeBuffers       int64
		mu                  sync.RWMutex
	}
}

// Compile-time check that Device implements device.Device.
var _ device.Device = (*Device)(nil)

// gpuBuffer is a device.Buffer backed by a wgpu buffer.
type gpuBuffer struct {
	owner    *Device
	buf      *wgpu.Buffer
	size     uint64 // requested bytes
	alloc    uint64 // 4-byte aligned bytes
	released bool
}

// Size implements device.Buffer.
func (b *gpuBuffer) Size() uint64 {
	return b.size
}

// Open creates a WebGPU device.
func Open() (device.Device, error) {
	d, err := New()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// New creates a new WebGPU device.
// Returns an error if WebGPU is not available or initialization fails.
func New() (d *Device, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			d = nil
			err = fmt.Errorf("webgpu: native library not available: %v: %w", r, device.ErrUnavailable)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	gpu, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := gpu.GetQueue()
	if queue == nil {
		gpu.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue: %w", device.ErrUnavailable)
	}

	return &Device{
		instance:   instance,
		adapter:    adapter,
		device:     gpu,
		queue:      queue,
		shaders:    make(map[string]*wgpu.ShaderModule),
		pipelines:  make(map[string]*wgpu.ComputePipeline),
		bufferPool: NewBufferPool(gpu),
	}, nil
}

// Release releases all WebGPU resources.
// Must be called when the device is no longer needed.
func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.bufferPool != nil {
		d.bufferPool.Clear()
		d.bufferPool = nil
	}
	for _, p := range d.pipelines {
		p.Release()
	}
	d.pipelines = nil
	for _, s := range d.shaders {
		s.Release()
	}
	d.shaders = nil

	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

// Name returns the device name.
func (d *Device) Name() string {
	return "webgpu"
}

// Kind returns tensor.WebGPU.
func (d *Device) Kind() tensor.Device {
	return tensor.WebGPU
}

// Supports reports whether dtype is float32. WGSL has no f64.
func (d *Device) Supports(dtype tensor.DataType) bool {
	return dtype == tensor.Float32
}

// IndexSize returns 4: WGSL has no 16-bit storage type.
func (d *Device) IndexSize() int {
	return 4
}

// Alloc acquires a storage buffer of at least size bytes from the pool.
func (d *Device) Alloc(size uint64) (device.Buffer, error) {
	alloc := align4(max(size, 4))
	buf := d.bufferPool.Acquire(alloc, storageUsage)
	if buf == nil {
		return nil, fmt.Errorf("webgpu: failed to allocate %d bytes", alloc)
	}
	d.trackBufferAllocation(alloc)
	return &gpuBuffer{owner: d, buf: buf, size: size, alloc: alloc}, nil
}

// Write uploads data into a new storage buffer.
func (d *Device) Write(data []byte) (device.Buffer, error) {
	size := uint64(len(data))
	alloc := align4(max(size, 4))
	padded := data
	if alloc != size {
		padded = make([]byte, alloc)
		copy(padded, data)
	}
	buf := d.createBuffer(padded, storageUsage)
	d.trackBufferAllocation(alloc)
	return &gpuBuffer{owner: d, buf: buf, size: size, alloc: alloc}, nil
}

// Read copies the first size bytes of buf back to the host.
func (d *Device) Read(buf device.Buffer, size uint64) ([]byte, error) {
	gb, err := d.lookup(buf)
	if err != nil {
		return nil, err
	}
	if size > gb.size {
		return nil, fmt.Errorf("webgpu: read %d bytes from %d: %w", size, gb.size, device.ErrBufferTooSmall)
	}
	data, err := d.readBuffer(gb.buf, align4(max(size, 4)))
	if err != nil {
		return nil, err
	}
	return data[:size], nil
}

// Free returns buf to the pool.
func (d *Device) Free(buf device.Buffer) {
	gb, ok := buf.(*gpuBuffer)
	if !ok || gb.owner != d {
		return
	}

	d.mu.Lock()
	if gb.released {
		d.mu.Unlock()
		return
	}
	gb.released = true
	d.mu.Unlock()

	d.bufferPool.Release(gb.buf, gb.alloc, storageUsage)
	d.trackBufferRelease(gb.alloc)
}

// lookup resolves buf to a live buffer of this device.
func (d *Device) lookup(buf device.Buffer) (*gpuBuffer, error) {
	gb, ok := buf.(*gpuBuffer)
	if !ok || gb == nil || gb.owner != d {
		return nil, device.ErrUnknownBuffer
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	if gb.released {
		return nil, device.ErrUnknownBuffer
	}
	return gb, nil
}

// MemoryStats represents GPU memory usage statistics.
type MemoryStats struct {
	// Bytes currently held by live buffers
	TotalAllocatedBytes uint64
	// Peak memory usage in bytes
	PeakMemoryBytes uint64
	// Number of currently active buffers
	ActiveBuffers int64
	// Buffer pool statistics
	Pool PoolStats
}

// MemoryStats returns current GPU memory usage statistics.
func (d *Device) MemoryStats() MemoryStats {
	d.memoryStats.mu.RLock()
	defer d.memoryStats.mu.RUnlock()

	return MemoryStats{
		TotalAllocatedBytes: d.memoryStats.totalAllocatedBytes,
		PeakMemoryBytes:     d.memoryStats.peakMemoryBytes,
		ActiveBuffers:       d.memoryStats.activeBuffers,
		Pool:                d.bufferPool.Stats(),
	}
}

// trackBufferAllocation records a buffer allocation in memory statistics.
func (d *Device) trackBufferAllocation(size uint64) {
	d.memoryStats.mu.Lock()
	defer d.memoryStats.mu.Unlock()

	d.memoryStats.totalAllocatedBytes += size
	d.memoryStats.activeBuffers++
	if d.memoryStats.totalAllocatedBytes > d.memoryStats.peakMemoryBytes {
		d.memoryStats.peakMemoryBytes = d.memoryStats.totalAllocatedBytes
	}
}

// trackBufferRelease records a buffer release in memory statistics.
func (d *Device) trackBufferRelease(size uint64) {
	d.memoryStats.mu.Lock()
	defer d.memoryStats.mu.Unlock()

	if d.memoryStats.totalAllocatedBytes >= size {
		d.memoryStats.totalAllocatedBytes -= size
	}
	d.memoryStats.activeBuffers--
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}
