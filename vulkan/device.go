package vulkan

import (
	"fmt"

	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe"
	"github.com/celer/vkframe/gpu"
)

const swapchainExtension = "VK_KHR_swapchain"

// Device is a logical device with one graphics queue that also presents. It
// implements gpu.Device and is used from one goroutine at a time.
type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device
	Queue          *Queue

	pool          vk.CommandPool
	pipelineCache vk.PipelineCache
	staging       *stagingArena
	passes        *passCache
}

var _ gpu.Device = (*Device)(nil)

// NewDevice creates the logical device, its queue and command pool on the
// given physical device and queue family.
func NewDevice(pd *PhysicalDevice, qf *QueueFamily, cfg *Config) (*Device, error) {
	exts := append([]string{swapchainExtension}, cfg.DeviceExtensions...)
	features := []vk.PhysicalDeviceFeatures{{}}
	deviceInfo := vk.DeviceCreateInfo{
		SType:                vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount: 1,
		PQueueCreateInfos: []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: qf.Index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}},
		EnabledExtensionCount:   uint32(len(exts)),
		PpEnabledExtensionNames: safeStrings(exts),
		PEnabledFeatures:        features,
	}

	d := &Device{PhysicalDevice: pd}
	if err := newError("create device", vk.CreateDevice(pd.VKPhysicalDevice, &deviceInfo, nil, &d.VKDevice)); err != nil {
		return nil, err
	}

	var q vk.Queue
	vk.GetDeviceQueue(d.VKDevice, qf.Index, 0, &q)
	d.Queue = &Queue{Device: d, QueueFamily: qf, VKQueue: q}

	err := newError("create command pool", vk.CreateCommandPool(d.VKDevice, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: qf.Index,
	}, nil, &d.pool))
	if err != nil {
		d.Destroy()
		return nil, err
	}

	err = newError("create pipeline cache", vk.CreatePipelineCache(d.VKDevice, &vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}, nil, &d.pipelineCache))
	if err != nil {
		d.Destroy()
		return nil, err
	}

	d.passes = newPassCache(d)
	if cfg.StagingSize > 0 {
		if d.staging, err = newStagingArena(d, cfg.StagingSize); err != nil {
			d.Destroy()
			return nil, errors.Wrap(err, "staging arena")
		}
	}
	vkframe.Logger().Info("device created", "device", pd.DeviceName, "api", pd.APIVersion(), "queue_family", qf.Index)
	return d, nil
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}

// Destroy releases the device. Every object created from it must have been
// destroyed first.
func (d *Device) Destroy() {
	if d.VKDevice == nil {
		return
	}
	vk.DeviceWaitIdle(d.VKDevice)
	if d.passes != nil {
		d.passes.destroy()
	}
	if d.staging != nil {
		d.staging.destroy()
	}
	if d.pipelineCache != vk.NullPipelineCache {
		vk.DestroyPipelineCache(d.VKDevice, d.pipelineCache, nil)
	}
	if d.pool != vk.NullCommandPool {
		vk.DestroyCommandPool(d.VKDevice, d.pool, nil)
	}
	vk.DestroyDevice(d.VKDevice, nil)
	d.VKDevice = nil
}

func (d *Device) WaitIdle() error {
	return newError("device wait idle", vk.DeviceWaitIdle(d.VKDevice))
}

func (d *Device) QueueWaitIdle() error {
	return d.Queue.WaitIdle()
}

func (d *Device) Submit(info gpu.SubmitInfo) error {
	return d.Queue.Submit(info)
}

func (d *Device) FormatProperties(f gpu.Format) gpu.FormatProperties {
	var props vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.PhysicalDevice.VKPhysicalDevice, vkFormat(f), &props)
	props.Deref()
	return gpu.FormatProperties{
		Linear:  gpuFeatures(props.LinearTilingFeatures),
		Optimal: gpuFeatures(props.OptimalTilingFeatures),
	}
}

func (d *Device) AllocateCommandBuffer() (gpu.CommandBuffer, error) {
	bufs := make([]vk.CommandBuffer, 1)
	err := newError("allocate command buffer", vk.AllocateCommandBuffers(d.VKDevice, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, bufs))
	if err != nil {
		return nil, err
	}
	return &CommandBuffer{device: d, VKCommandBuffer: bufs[0]}, nil
}

func (d *Device) FreeCommandBuffer(cb gpu.CommandBuffer) {
	c := cb.(*CommandBuffer)
	vk.FreeCommandBuffers(d.VKDevice, d.pool, 1, []vk.CommandBuffer{c.VKCommandBuffer})
	c.VKCommandBuffer = nil
}

// allocate returns fresh device memory satisfying reqs with the given
// properties.
func (d *Device) allocate(reqs vk.MemoryRequirements, props vk.MemoryPropertyFlags) (*DeviceMemory, error) {
	reqs.Deref()
	index, err := d.PhysicalDevice.FindMemoryType(reqs.MemoryTypeBits, props)
	if err != nil {
		return nil, err
	}
	var mem vk.DeviceMemory
	err = newError("allocate memory", vk.AllocateMemory(d.VKDevice, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  reqs.Size,
		MemoryTypeIndex: index,
	}, nil, &mem))
	if err != nil {
		return nil, err
	}
	return &DeviceMemory{Device: d, VKDeviceMemory: mem, Size: uint64(reqs.Size)}, nil
}

// Queue is the device queue work is submitted to.
type Queue struct {
	Device      *Device
	QueueFamily *QueueFamily
	VKQueue     vk.Queue
}

func (q *Queue) WaitIdle() error {
	return newError("queue wait idle", vk.QueueWaitIdle(q.VKQueue))
}

func (q *Queue) Submit(info gpu.SubmitInfo) error {
	cmds := make([]vk.CommandBuffer, len(info.Commands))
	for i, c := range info.Commands {
		cmds[i] = c.(*CommandBuffer).VKCommandBuffer
	}
	submit := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: uint32(len(cmds)),
		PCommandBuffers:    cmds,
	}
	for _, w := range info.Wait {
		submit.PWaitSemaphores = append(submit.PWaitSemaphores, w.Semaphore.(*Semaphore).VKSemaphore)
		submit.PWaitDstStageMask = append(submit.PWaitDstStageMask, vkStages(w.Stage))
	}
	submit.WaitSemaphoreCount = uint32(len(submit.PWaitSemaphores))
	for _, s := range info.Signal {
		submit.PSignalSemaphores = append(submit.PSignalSemaphores, s.(*Semaphore).VKSemaphore)
	}
	submit.SignalSemaphoreCount = uint32(len(submit.PSignalSemaphores))

	fence := vk.NullFence
	if info.Fence != nil {
		fence = info.Fence.(*Fence).VKFence
	}
	return newError("queue submit", vk.QueueSubmit(q.VKQueue, 1, []vk.SubmitInfo{submit}, fence))
}

func (q *Queue) String() string {
	return fmt.Sprintf("{Device: %s QueueFamily: %s}", q.Device.String(), q.QueueFamily.String())
}
