package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"
)

// bufferClass buckets buffers by size so small uniform-scale allocations
// don't pin multi-megabyte feature maps alive.
type bufferClass int

const (
	smallBuffers  bufferClass = iota // < 4KB
	mediumBuffers                    // 4KB - 1MB
	largeBuffers                     // > 1MB
)

const (
	smallThreshold    = 4 * 1024
	mediumThreshold   = 1024 * 1024
	maxPooledPerClass = 100
)

// pooledBuffer remembers the size and usage a buffer was created with so
// Acquire can match compatible requests.
type pooledBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
	usage  wgpu.BufferUsage
}

// BufferPool recycles GPU buffers between operations. Every eager op needs a
// result buffer and a staging buffer; recycling them avoids two driver
// allocations per dispatch.
type BufferPool struct {
	device *wgpu.Device

	mu    sync.Mutex
	pools map[bufferClass][]*pooledBuffer

	allocated uint64
	released  uint64
	hits      uint64
	misses    uint64
}

// NewBufferPool creates a buffer pool allocating from the given device.
func NewBufferPool(device *wgpu.Device) *BufferPool {
	return &BufferPool{
		device: device,
		pools:  make(map[bufferClass][]*pooledBuffer),
	}
}

// Acquire returns a buffer of at least size bytes carrying at least the
// requested usage flags, reusing a pooled buffer when one fits.
func (p *BufferPool) Acquire(size uint64, usage wgpu.BufferUsage) *wgpu.Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := classify(size)
	pool := p.pools[class]

	for i, pb := range pool {
		if pb.size >= size && pb.usage&usage == usage {
			p.pools[class] = append(pool[:i], pool[i+1:]...)
			p.hits++
			return pb.buffer
		}
	}

	p.misses++
	p.allocated++

	return p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: usage,
		Size:  size,
	})
}

// Release returns a buffer to the pool for reuse. Size and usage must match
// the Acquire call. Buffers beyond the per-class cap are freed immediately.
func (p *BufferPool) Release(buffer *wgpu.Buffer, size uint64, usage wgpu.BufferUsage) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.released++

	class := classify(size)
	if len(p.pools[class]) >= maxPooledPerClass {
		buffer.Release()
		return
	}

	p.pools[class] = append(p.pools[class], &pooledBuffer{
		buffer: buffer,
		size:   size,
		usage:  usage,
	})
}

// Clear frees every pooled buffer. Called when the backend is released.
func (p *BufferPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for class, pool := range p.pools {
		for _, pb := range pool {
			pb.buffer.Release()
		}
		p.pools[class] = nil
	}
}

// Stats reports pool activity counters and the current pooled buffer count.
func (p *BufferPool) Stats() (allocated, released, hits, misses uint64, pooledCount int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, pool := range p.pools {
		pooledCount += len(pool)
	}
	return p.allocated, p.released, p.hits, p.misses, pooledCount
}

func classify(size uint64) bufferClass {
	switch {
	case size < smallThreshold:
		return smallBuffers
	case size < mediumThreshold:
		return mediumBuffers
	default:
		return largeBuffers
	}
}
