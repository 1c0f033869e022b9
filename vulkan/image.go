package vulkan

import (
	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

// Image is a 2D image with one view over all of its mip levels. Images
// owned by a swapchain have no memory or view and are not destroyed here.
type Image struct {
	Device      *Device
	VKImage     vk.Image
	VKImageView vk.ImageView
	Label       string

	memory *DeviceMemory
	extent gpu.Extent2D
	format gpu.Format
	mips   uint32
	owned  bool
}

var _ gpu.Image = (*Image)(nil)

const viewUsages = gpu.ImageUsageSampled | gpu.ImageUsageColorAttachment | gpu.ImageUsageDepthStencilAttachment

func (d *Device) CreateImage(desc gpu.ImageDesc) (gpu.Image, error) {
	if desc.Extent.IsZero() {
		return nil, errors.Errorf("image %q: empty extent %s", desc.Label, desc.Extent)
	}
	if desc.MipLevels == 0 {
		desc.MipLevels = 1
	}
	img := &Image{
		Device: d,
		Label:  desc.Label,
		extent: desc.Extent,
		format: desc.Format,
		mips:   desc.MipLevels,
		owned:  true,
	}
	err := newError("create image", vk.CreateImage(d.VKDevice, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vkFormat(desc.Format),
		Extent: vk.Extent3D{
			Width:  desc.Extent.Width,
			Height: desc.Extent.Height,
			Depth:  1,
		},
		MipLevels:     desc.MipLevels,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vkImageUsage(desc.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &img.VKImage))
	if err != nil {
		return nil, errors.Wrapf(err, "image %q", desc.Label)
	}

	var reqs vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.VKDevice, img.VKImage, &reqs)
	if img.memory, err = d.allocate(reqs, vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)); err != nil {
		img.Destroy()
		return nil, errors.Wrapf(err, "image %q", desc.Label)
	}
	if err = newError("bind image memory", vk.BindImageMemory(d.VKDevice, img.VKImage, img.memory.VKDeviceMemory, 0)); err != nil {
		img.Destroy()
		return nil, errors.Wrapf(err, "image %q", desc.Label)
	}

	if desc.Usage&viewUsages != 0 {
		if err = img.createView(); err != nil {
			img.Destroy()
			return nil, errors.Wrapf(err, "image %q", desc.Label)
		}
	}
	return img, nil
}

func (i *Image) createView() error {
	return newError("create image view", vk.CreateImageView(i.Device.VKDevice, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    i.VKImage,
		ViewType: vk.ImageViewType2d,
		Format:   vkFormat(i.format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vkAspect(i.format),
			LevelCount: i.mips,
			LayerCount: 1,
		},
	}, nil, &i.VKImageView))
}

func (i *Image) Extent() gpu.Extent2D { return i.extent }
func (i *Image) Format() gpu.Format   { return i.format }
func (i *Image) MipLevels() uint32    { return i.mips }

func (i *Image) subresource(baseMip, count uint32) vk.ImageSubresourceRange {
	if count == 0 {
		count = i.mips - baseMip
	}
	return vk.ImageSubresourceRange{
		AspectMask:   vkAspect(i.format),
		BaseMipLevel: baseMip,
		LevelCount:   count,
		LayerCount:   1,
	}
}

func (i *Image) layers(mip uint32) vk.ImageSubresourceLayers {
	return vk.ImageSubresourceLayers{
		AspectMask: vkAspect(i.format),
		MipLevel:   mip,
		LayerCount: 1,
	}
}

// Destroy releases the image, its view and memory, and any framebuffer
// that referenced the view. The image must no longer be in use.
func (i *Image) Destroy() {
	if !i.owned {
		return
	}
	d := i.Device
	if i.VKImageView != vk.NullImageView {
		d.passes.dropView(i.VKImageView)
		vk.DestroyImageView(d.VKDevice, i.VKImageView, nil)
		i.VKImageView = vk.NullImageView
	}
	if i.VKImage != vk.NullImage {
		vk.DestroyImage(d.VKDevice, i.VKImage, nil)
		i.VKImage = vk.NullImage
	}
	if i.memory != nil {
		i.memory.Destroy()
		i.memory = nil
	}
}
