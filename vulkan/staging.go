package vulkan

import (
	vk "github.com/goki/vulkan"
)

const minStagingAlign = 16

// stagingArena is one persistently mapped host buffer that short lived
// upload buffers are carved from.
type stagingArena struct {
	buffer *Buffer
	align  uint64
	alloc  linearAllocator
}

func newStagingArena(d *Device, size uint64) (*stagingArena, error) {
	b, err := d.createBuffer(size, vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit), true, "staging arena")
	if err != nil {
		return nil, err
	}
	if _, err := b.memory.Map(); err != nil {
		b.Destroy()
		return nil, err
	}
	align := uint64(d.PhysicalDevice.VKPhysicalDeviceProperties.Limits.OptimalBufferCopyOffsetAlignment)
	if align < minStagingAlign {
		align = minStagingAlign
	}
	return &stagingArena{buffer: b, align: align, alloc: linearAllocator{Size: size}}, nil
}

// take returns a range of the arena as a Buffer, or nil when the arena is
// too full.
func (a *stagingArena) take(size uint64) *Buffer {
	r := a.alloc.Allocate(size, a.align)
	if r == nil {
		return nil
	}
	return &Buffer{
		Device:   a.buffer.Device,
		VKBuffer: a.buffer.VKBuffer,
		memory:   a.buffer.memory,
		offset:   r.Offset,
		size:     size,
		host:     true,
		arena:    a,
		alloc:    r,
	}
}

func (a *stagingArena) release(r *Allocation) {
	a.alloc.Free(r)
}

func (a *stagingArena) destroy() {
	a.buffer.Destroy()
}
