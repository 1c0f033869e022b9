package vkframe

import (
	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// MaxFramesInFlight is the number of frames the CPU may record ahead of the
// GPU.
const MaxFramesInFlight = 2

// frameSlot is the per frame set of recording and synchronization objects.
type frameSlot struct {
	cmd gpu.CommandBuffer

	imageAcquired    gpu.Semaphore
	renderFinished   gpu.Semaphore
	swapchainUpdated gpu.Semaphore
	// inFlight is signaled when the GPU finished the frame last recorded
	// in this slot. It is created signaled so the first wait returns.
	inFlight gpu.Fence
}

func newFrameSlot(dev gpu.Device) (*frameSlot, error) {
	ret := &frameSlot{}
	var err error
	if ret.cmd, err = dev.AllocateCommandBuffer(); err != nil {
		return nil, errors.Wrap(err, "allocate frame command buffer")
	}
	if err = ret.createSemaphores(dev); err != nil {
		ret.destroy(dev)
		return nil, err
	}
	if ret.inFlight, err = dev.CreateFence(true); err != nil {
		ret.destroy(dev)
		return nil, errors.Wrap(err, "create in-flight fence")
	}
	return ret, nil
}

func (s *frameSlot) createSemaphores(dev gpu.Device) error {
	for _, sem := range []*gpu.Semaphore{&s.imageAcquired, &s.renderFinished, &s.swapchainUpdated} {
		v, err := dev.CreateSemaphore()
		if err != nil {
			return errors.Wrap(err, "create frame semaphore")
		}
		*sem = v
	}
	return nil
}

func (s *frameSlot) destroySemaphores() {
	for _, sem := range []*gpu.Semaphore{&s.imageAcquired, &s.renderFinished, &s.swapchainUpdated} {
		if *sem != nil {
			(*sem).Destroy()
			*sem = nil
		}
	}
}

// resetSemaphores replaces the slot semaphores. A dropped frame can leave a
// semaphore signaled with no waiter, so they are recreated once the device
// is idle.
func (s *frameSlot) resetSemaphores(dev gpu.Device) error {
	s.destroySemaphores()
	return s.createSemaphores(dev)
}

func (s *frameSlot) destroy(dev gpu.Device) {
	s.destroySemaphores()
	if s.inFlight != nil {
		s.inFlight.Destroy()
		s.inFlight = nil
	}
	if s.cmd != nil {
		dev.FreeCommandBuffer(s.cmd)
		s.cmd = nil
	}
}
