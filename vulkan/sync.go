package vulkan

import (
	"time"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

type Semaphore struct {
	Device      *Device
	VKSemaphore vk.Semaphore
}

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	var sema vk.Semaphore
	err := newError("create semaphore", vk.CreateSemaphore(d.VKDevice, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}, nil, &sema))
	if err != nil {
		return nil, err
	}
	return &Semaphore{Device: d, VKSemaphore: sema}, nil
}

func (s *Semaphore) Destroy() {
	vk.DestroySemaphore(s.Device.VKDevice, s.VKSemaphore, nil)
}

type Fence struct {
	Device  *Device
	VKFence vk.Fence
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	info := vk.FenceCreateInfo{SType: vk.StructureTypeFenceCreateInfo}
	if signaled {
		info.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := newError("create fence", vk.CreateFence(d.VKDevice, &info, nil, &fence)); err != nil {
		return nil, err
	}
	return &Fence{Device: d, VKFence: fence}, nil
}

// WaitForFence waits for f for at most timeout; zero waits forever.
func (d *Device) WaitForFence(f gpu.Fence, timeout time.Duration) error {
	ns := uint64(vk.MaxUint64)
	if timeout > 0 {
		ns = uint64(timeout.Nanoseconds())
	}
	fence := f.(*Fence).VKFence
	return newError("wait for fence", vk.WaitForFences(d.VKDevice, 1, []vk.Fence{fence}, vk.True, ns))
}

func (d *Device) ResetFence(f gpu.Fence) error {
	return newError("reset fence", vk.ResetFences(d.VKDevice, 1, []vk.Fence{f.(*Fence).VKFence}))
}

// Signaled reports whether the fence is currently signaled.
func (f *Fence) Signaled() bool {
	return vk.GetFenceStatus(f.Device.VKDevice, f.VKFence) == vk.Success
}

func (f *Fence) Destroy() {
	vk.DestroyFence(f.Device.VKDevice, f.VKFence, nil)
}
