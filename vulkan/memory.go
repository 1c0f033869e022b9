package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
)

// DeviceMemory is an allocation on the host or the device.
type DeviceMemory struct {
	Device         *Device
	VKDeviceMemory vk.DeviceMemory
	Size           uint64
	ptr            unsafe.Pointer
}

// IsMapped reports whether the memory is mapped.
func (m *DeviceMemory) IsMapped() bool {
	return m.ptr != nil
}

// Map maps the whole allocation. Mapping mapped memory returns the
// existing pointer.
func (m *DeviceMemory) Map() (unsafe.Pointer, error) {
	if m.ptr != nil {
		return m.ptr, nil
	}
	var p unsafe.Pointer
	if err := newError("map memory", vk.MapMemory(m.Device.VKDevice, m.VKDeviceMemory, 0, vk.DeviceSize(m.Size), 0, &p)); err != nil {
		return nil, err
	}
	m.ptr = p
	return p, nil
}

func (m *DeviceMemory) Unmap() {
	if m.ptr == nil {
		return
	}
	vk.UnmapMemory(m.Device.VKDevice, m.VKDeviceMemory)
	m.ptr = nil
}

// MapCopyUnmap copies data into the memory at offset. Memory that was
// already mapped stays mapped.
func (m *DeviceMemory) MapCopyUnmap(offset uint64, data []byte) error {
	mapped := m.IsMapped()
	p, err := m.Map()
	if err != nil {
		return err
	}
	copy(unsafe.Slice((*byte)(unsafe.Add(p, offset)), len(data)), data)
	if !mapped {
		m.Unmap()
	}
	return nil
}

func (m *DeviceMemory) Destroy() {
	m.Unmap()
	vk.FreeMemory(m.Device.VKDevice, m.VKDeviceMemory, nil)
}
