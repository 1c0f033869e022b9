package vulkan

import (
	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

// Buffer is a vk.Buffer with its memory. Staging buffers may be a range of
// the device's staging arena, in which case offset locates the range.
type Buffer struct {
	Device   *Device
	VKBuffer vk.Buffer
	Label    string

	memory *DeviceMemory
	offset uint64
	size   uint64
	host   bool

	arena *stagingArena
	alloc *Allocation
}

var _ gpu.Buffer = (*Buffer)(nil)

func (d *Device) CreateBuffer(desc gpu.BufferDesc) (gpu.Buffer, error) {
	if desc.Size == 0 {
		return nil, errors.Errorf("buffer %q: zero size", desc.Label)
	}
	if desc.HostVisible && desc.Usage == gpu.BufferUsageTransferSrc && d.staging != nil {
		if b := d.staging.take(desc.Size); b != nil {
			b.Label = desc.Label
			return b, nil
		}
	}
	return d.createBuffer(desc.Size, vkBufferUsage(desc.Usage), desc.HostVisible, desc.Label)
}

func (d *Device) createBuffer(size uint64, usage vk.BufferUsageFlags, host bool, label string) (*Buffer, error) {
	var buf vk.Buffer
	err := newError("create buffer", vk.CreateBuffer(d.VKDevice, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buf))
	if err != nil {
		return nil, errors.Wrapf(err, "buffer %q", label)
	}

	props := vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	if host {
		props = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)
	}
	var reqs vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.VKDevice, buf, &reqs)
	mem, err := d.allocate(reqs, props)
	if err != nil {
		vk.DestroyBuffer(d.VKDevice, buf, nil)
		return nil, errors.Wrapf(err, "buffer %q", label)
	}
	if err := newError("bind buffer memory", vk.BindBufferMemory(d.VKDevice, buf, mem.VKDeviceMemory, 0)); err != nil {
		mem.Destroy()
		vk.DestroyBuffer(d.VKDevice, buf, nil)
		return nil, errors.Wrapf(err, "buffer %q", label)
	}
	return &Buffer{Device: d, VKBuffer: buf, Label: label, memory: mem, size: size, host: host}, nil
}

func (b *Buffer) Size() uint64 {
	return b.size
}

// Write copies data into a host visible buffer at offset.
func (b *Buffer) Write(offset uint64, data []byte) error {
	if !b.host {
		return errors.Errorf("buffer %q is not host visible", b.Label)
	}
	if offset+uint64(len(data)) > b.size {
		return errors.Errorf("buffer %q: write of %d bytes at %d overflows %d", b.Label, len(data), offset, b.size)
	}
	return b.memory.MapCopyUnmap(b.offset+offset, data)
}

func (b *Buffer) descriptorInfo() vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.VKBuffer,
		Offset: vk.DeviceSize(b.offset),
		Range:  vk.DeviceSize(b.size),
	}
}

func (b *Buffer) Destroy() {
	if b.arena != nil {
		b.arena.release(b.alloc)
		b.arena = nil
		return
	}
	if b.VKBuffer == vk.NullBuffer {
		return
	}
	vk.DestroyBuffer(b.Device.VKDevice, b.VKBuffer, nil)
	b.memory.Destroy()
	b.VKBuffer = vk.NullBuffer
}
