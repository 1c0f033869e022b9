package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

// Sampler repeats in every direction and blends between mip levels.
type Sampler struct {
	Device    *Device
	VKSampler vk.Sampler
}

func (d *Device) CreateSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	filter := vkFilter(desc.Filter)
	mipmap := vk.SamplerMipmapModeLinear
	if desc.Filter == gpu.FilterNearest {
		mipmap = vk.SamplerMipmapModeNearest
	}
	var s vk.Sampler
	err := newError("create sampler", vk.CreateSampler(d.VKDevice, &vk.SamplerCreateInfo{
		SType:                   vk.StructureTypeSamplerCreateInfo,
		MagFilter:               filter,
		MinFilter:               filter,
		MipmapMode:              mipmap,
		AddressModeU:            vk.SamplerAddressModeRepeat,
		AddressModeV:            vk.SamplerAddressModeRepeat,
		AddressModeW:            vk.SamplerAddressModeRepeat,
		AnisotropyEnable:        vk.False,
		MaxAnisotropy:           1,
		CompareEnable:           vk.False,
		CompareOp:               vk.CompareOpAlways,
		MinLod:                  0,
		MaxLod:                  float32(desc.MipLevels),
		BorderColor:             vk.BorderColorIntOpaqueBlack,
		UnnormalizedCoordinates: vk.False,
	}, nil, &s))
	if err != nil {
		return nil, err
	}
	return &Sampler{Device: d, VKSampler: s}, nil
}

func (s *Sampler) Destroy() {
	if s.VKSampler == vk.NullSampler {
		return
	}
	vk.DestroySampler(s.Device.VKDevice, s.VKSampler, nil)
	s.VKSampler = vk.NullSampler
}
