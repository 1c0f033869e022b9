package vulkan

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"
)

type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
	VKMemoryProperties         vk.PhysicalDeviceMemoryProperties
}

func newPhysicalDevice(d vk.PhysicalDevice) *PhysicalDevice {
	p := &PhysicalDevice{VKPhysicalDevice: d}
	vk.GetPhysicalDeviceProperties(d, &p.VKPhysicalDeviceProperties)
	p.VKPhysicalDeviceProperties.Deref()
	p.VKPhysicalDeviceProperties.Limits.Deref()
	p.DeviceName = vk.ToString(p.VKPhysicalDeviceProperties.DeviceName[:])
	vk.GetPhysicalDeviceMemoryProperties(d, &p.VKMemoryProperties)
	p.VKMemoryProperties.Deref()
	return p
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

// APIVersion returns the version of the API the device supports.
func (p *PhysicalDevice) APIVersion() Version {
	v := p.VKPhysicalDeviceProperties.ApiVersion
	return Version{Major: int(v >> 22), Minor: int(v >> 12 & 0x3ff), Patch: int(v & 0xfff)}
}

// Discrete reports whether the device is a discrete GPU.
func (p *PhysicalDevice) Discrete() bool {
	return p.VKPhysicalDeviceProperties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu
}

func (p *PhysicalDevice) QueueFamilies() QueueFamilySlice {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, nil)
	if count == 0 {
		return nil
	}
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &count, props)
	ret := make(QueueFamilySlice, count)
	for i, q := range props {
		q.Deref()
		ret[i] = &QueueFamily{Index: uint32(i), PhysicalDevice: p, VKQueueFamilyProperties: q}
	}
	return ret
}

// SupportsExtensions reports whether every named device extension is
// available.
func (p *PhysicalDevice) SupportsExtensions(names ...string) (bool, error) {
	var count uint32
	if err := newError("enumerate device extensions", vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil)); err != nil {
		return false, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := newError("enumerate device extensions", vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, props)); err != nil {
		return false, err
	}
	have := make(map[string]bool, count)
	for _, e := range props {
		e.Deref()
		have[vk.ToString(e.ExtensionName[:])] = true
	}
	for _, n := range names {
		if !have[n] {
			return false, nil
		}
	}
	return true, nil
}

// FindMemoryType returns the index of a memory type allowed by
// memoryTypeBits that has every requested property.
func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	mp := p.VKMemoryProperties
	for i := uint32(0); i < mp.MemoryTypeCount; i++ {
		mt := mp.MemoryTypes[i]
		mt.Deref()
		if memoryTypeBits&(1<<i) != 0 && mt.PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, errors.Errorf("no memory type in %#x with properties %#x", memoryTypeBits, properties)
}

func (p *PhysicalDevice) surfaceCapabilities(surface vk.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	err := newError("surface capabilities", vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &caps))
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, err
}

func (p *PhysicalDevice) surfaceFormats(surface vk.Surface) ([]vk.SurfaceFormat, error) {
	var count uint32
	if err := newError("surface formats", vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, nil)); err != nil {
		return nil, err
	}
	f := make([]vk.SurfaceFormat, count)
	if err := newError("surface formats", vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, f)); err != nil {
		return nil, err
	}
	for i := range f {
		f[i].Deref()
	}
	return f, nil
}

func (p *PhysicalDevice) surfacePresentModes(surface vk.Surface) ([]vk.PresentMode, error) {
	var count uint32
	if err := newError("present modes", vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, nil)); err != nil {
		return nil, err
	}
	m := make([]vk.PresentMode, count)
	if err := newError("present modes", vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, m)); err != nil {
		return nil, err
	}
	return m, nil
}

type QueueFamilySlice []*QueueFamily

func (ql QueueFamilySlice) Filter(f func(q *QueueFamily) bool) QueueFamilySlice {
	var ret QueueFamilySlice
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

func (ql QueueFamilySlice) FilterGraphicsAndPresent(surface vk.Surface) QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsGraphics() && q.SupportsPresent(surface)
	})
}

type QueueFamily struct {
	Index                   uint32
	PhysicalDevice          *PhysicalDevice
	VKQueueFamilyProperties vk.QueueFamilyProperties
}

func (q *QueueFamily) has(bit vk.QueueFlagBits) bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(bit) != 0
}

func (q *QueueFamily) IsCompute() bool  { return q.has(vk.QueueComputeBit) }
func (q *QueueFamily) IsGraphics() bool { return q.has(vk.QueueGraphicsBit) }
func (q *QueueFamily) IsTransfer() bool { return q.has(vk.QueueTransferBit) }

func (q *QueueFamily) SupportsPresent(surface vk.Surface) bool {
	var supported vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(q.PhysicalDevice.VKPhysicalDevice, q.Index, surface, &supported)
	return supported == vk.True
}

func (q *QueueFamily) String() string {
	return fmt.Sprintf("{ Index: %d Compute: %v Graphics: %v Transfer: %v }", q.Index, q.IsCompute(), q.IsGraphics(), q.IsTransfer())
}

// pickDevice returns the device to render on: the first whose name contains
// preferred, else the first discrete device with a graphics queue that can
// present to surface, else the first device with such a queue.
func pickDevice(devices []*PhysicalDevice, surface vk.Surface, preferred string) (*PhysicalDevice, *QueueFamily, error) {
	type candidate struct {
		dev *PhysicalDevice
		qf  *QueueFamily
	}
	var usable []candidate
	for _, d := range devices {
		ok, err := d.SupportsExtensions(swapchainExtension)
		if err != nil || !ok {
			continue
		}
		qfs := d.QueueFamilies().FilterGraphicsAndPresent(surface)
		if len(qfs) == 0 {
			continue
		}
		usable = append(usable, candidate{d, qfs[0]})
	}
	if len(usable) == 0 {
		return nil, nil, errors.New("no device can render and present to the window")
	}
	if preferred != "" {
		for _, c := range usable {
			if strings.Contains(strings.ToLower(c.dev.DeviceName), strings.ToLower(preferred)) {
				return c.dev, c.qf, nil
			}
		}
	}
	for _, c := range usable {
		if c.dev.Discrete() {
			return c.dev, c.qf, nil
		}
	}
	return usable[0].dev, usable[0].qf, nil
}
