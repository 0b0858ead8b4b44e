//go:build windows

package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// maxPooledBuffers caps the number of idle buffers kept for reuse.
const maxPooledBuffers = 64

// poolKey identifies interchangeable buffers.
type poolKey struct {
	size  uint64
	usage wgpu.BufferUsage
}

// PoolStats reports BufferPool activity.
type PoolStats struct {
	Allocated uint64
	Released  uint64
	Hits      uint64
	Misses    uint64
	Pooled    int
}

// BufferPool recycles GPU buffers of identical size and usage.
type BufferPool struct {
	device *wgpu.Device

	free   map[poolKey][]*wgpu.Buffer
	pooled int
	stats  PoolStats
	mu     sync.Mutex
}

// NewBufferPool creates a new buffer pool for the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{
		device: device,
		free:   make(map[poolKey][]*wgpu.Buffer),
	}
}

// Acquire returns an idle buffer with exactly this size and usage, or
// creates a new one.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	key := poolKey{size: size, usage: usage}
	if list := p.free[key]; len(list) > 0 {
		buffer := list[len(list)-1]
		p.free[key] = list[:len(list)-1]
		p.pooled--
		p.stats.Hits++
		return buffer
	}

	p.stats.Misses++
	p.stats.Allocated++
	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Release returns a buffer to the pool for reuse.
// If the pool is full, the buffer is immediately released.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Released++
	if p.pooled >= maxPooledBuffers {
		buffer.Release()
		return
	}

	key := poolKey{size: size, usage: usage}
	p.free[key] = append(p.free[key], buffer)
	p.pooled++
}

// Clear releases all pooled buffers.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, list := range p.free {
		for _, buffer := range list {
			buffer.Release()
		}
		delete(p.free, key)
	}
	p.pooled = 0
}

// Stats returns statistics about buffer pool usage.
func (p *BufferPool) Stats() PoolStats {
	if p == nil {
		return PoolStats{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	s.Pooled = p.pooled
	return s
}
