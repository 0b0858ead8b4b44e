//go:build windows

package webgpu

import (
	"testing"

	"github.com/go-webgpu/webgpu/wgpu"
)

func TestBufferPoolAcquireRelease(t *testing.T) {
	d := newTestDevice(t)
	pool := NewBufferPool(d.device)
	defer pool.Clear()

	size := uint64(1024)
	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
	buffer1 := pool.Acquire(size, usage)

	stats := pool.Stats()
	if stats.Allocated != 1 || stats.Misses != 1 || stats.Hits != 0 {
		t.Errorf("After first acquire: expected 1 allocation, 1 miss, 0 hits, got %+v", stats)
	}

	pool.Release(buffer1, size, usage)
	if got := pool.Stats().Pooled; got != 1 {
		t.Errorf("Expected 1 pooled buffer, got %d", got)
	}

	buffer2 := pool.Acquire(size, usage)
	if buffer2 != buffer1 {
		t.Error("Expected the released buffer to be reused")
	}
	if got := pool.Stats().Hits; got != 1 {
		t.Errorf("Expected 1 hit, got %d", got)
	}
	pool.Release(buffer2, size, usage)
}

func TestBufferPoolExactSizeOnly(t *testing.T) {
	d := newTestDevice(t)
	pool := NewBufferPool(d.device)
	defer pool.Clear()

	usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc
	small := pool.Acquire(256, usage)
	pool.Release(small, 256, usage)

	large := pool.Acquire(512, usage)
	if large == small {
		t.Error("A 256-byte buffer must not serve a 512-byte request")
	}
	pool.Release(large, 512, usage)

	if got := pool.Stats().Misses; got != 2 {
		t.Errorf("Expected 2 misses, got %d", got)
	}
}

func TestBufferPoolCap(t *testing.T) {
	d := newTestDevice(t)
	pool := NewBufferPool(d.device)
	defer pool.Clear()

	usage := wgpu.BufferUsageStorage
	buffers := make([]*wgpu.Buffer, maxPooledBuffers+5)
	for i := range buffers {
		buffers[i] = pool.Acquire(64, usage)
	}
	for _, b := range buffers {
		pool.Release(b, 64, usage)
	}

	if got := pool.Stats().Pooled; got != maxPooledBuffers {
		t.Errorf("Expected pool capped at %d, got %d", maxPooledBuffers, got)
	}
}
