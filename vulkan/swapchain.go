package vulkan

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

// Swapchain presents to a window surface. Its images are written by
// transfer, so they carry no views.
type Swapchain struct {
	Device      *Device
	VKSwapchain vk.Swapchain

	images []gpu.Image
	extent gpu.Extent2D
	format gpu.SurfaceFormat
}

var _ gpu.Swapchain = (*Swapchain)(nil)

func (d *Device) createSwapchain(surface vk.Surface, desc gpu.SwapchainDesc) (*Swapchain, error) {
	caps, err := d.PhysicalDevice.surfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}

	preTransform := vk.SurfaceTransformIdentityBit
	if vk.SurfaceTransformFlagBits(caps.SupportedTransforms)&preTransform == 0 {
		preTransform = caps.CurrentTransform
	}
	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, a := range []vk.CompositeAlphaFlagBits{
		vk.CompositeAlphaOpaqueBit,
		vk.CompositeAlphaPreMultipliedBit,
		vk.CompositeAlphaPostMultipliedBit,
		vk.CompositeAlphaInheritBit,
	} {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(a) != 0 {
			compositeAlpha = a
			break
		}
	}

	old := vk.NullSwapchain
	if desc.Old != nil {
		old = desc.Old.(*Swapchain).VKSwapchain
	}

	sc := &Swapchain{Device: d, extent: desc.Extent, format: desc.Format}
	err = newError("create swapchain", vk.CreateSwapchain(d.VKDevice, &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    desc.ImageCount,
		ImageFormat:      vkFormat(desc.Format.Format),
		ImageColorSpace:  vkColorSpace(desc.Format.ColorSpace),
		ImageExtent:      vkExtent(desc.Extent),
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferDstBit),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     preTransform,
		CompositeAlpha:   compositeAlpha,
		PresentMode:      vkPresentMode(desc.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     old,
	}, nil, &sc.VKSwapchain))
	if err != nil {
		return nil, err
	}

	var count uint32
	if err = newError("get swapchain images", vk.GetSwapchainImages(d.VKDevice, sc.VKSwapchain, &count, nil)); err != nil {
		sc.Destroy()
		return nil, err
	}
	images := make([]vk.Image, count)
	if err = newError("get swapchain images", vk.GetSwapchainImages(d.VKDevice, sc.VKSwapchain, &count, images)); err != nil {
		sc.Destroy()
		return nil, err
	}
	for i, img := range images {
		sc.images = append(sc.images, &Image{
			Device:  d,
			VKImage: img,
			Label:   fmt.Sprintf("swapchain %d", i),
			extent:  desc.Extent,
			format:  desc.Format.Format,
			mips:    1,
		})
	}
	return sc, nil
}

func (s *Swapchain) Images() []gpu.Image {
	return s.images
}

// AcquireNextImage returns the index of the next image to write, signalling
// signal when the image is ready. A zero timeout waits forever.
func (s *Swapchain) AcquireNextImage(timeout time.Duration, signal gpu.Semaphore) (uint32, bool, error) {
	ns := uint64(vk.MaxUint64)
	if timeout > 0 {
		ns = uint64(timeout.Nanoseconds())
	}
	sema := vk.NullSemaphore
	if signal != nil {
		sema = signal.(*Semaphore).VKSemaphore
	}
	var index uint32
	ret := vk.AcquireNextImage(s.Device.VKDevice, s.VKSwapchain, ns, sema, vk.NullFence, &index)
	if ret == vk.Suboptimal {
		return index, true, nil
	}
	if err := newError("acquire next image", ret); err != nil {
		return 0, false, err
	}
	return index, false, nil
}

// Present queues image index for display once every wait semaphore is
// signalled.
func (s *Swapchain) Present(index uint32, wait []gpu.Semaphore) (bool, error) {
	if int(index) >= len(s.images) {
		return false, errors.Errorf("present: image %d out of range [0,%d)", index, len(s.images))
	}
	semas := make([]vk.Semaphore, len(wait))
	for i, w := range wait {
		semas[i] = w.(*Semaphore).VKSemaphore
	}
	ret := vk.QueuePresent(s.Device.Queue.VKQueue, &vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(semas)),
		PWaitSemaphores:    semas,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.VKSwapchain},
		PImageIndices:      []uint32{index},
	})
	if ret == vk.Suboptimal {
		return true, nil
	}
	return false, newError("queue present", ret)
}

func (s *Swapchain) Destroy() {
	if s.VKSwapchain == vk.NullSwapchain {
		return
	}
	vk.DestroySwapchain(s.Device.VKDevice, s.VKSwapchain, nil)
	s.VKSwapchain = vk.NullSwapchain
	s.images = nil
}
