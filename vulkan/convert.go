package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

var formats = map[gpu.Format]vk.Format{
	gpu.FormatUndefined:          vk.FormatUndefined,
	gpu.FormatR8G8B8A8Unorm:      vk.FormatR8g8b8a8Unorm,
	gpu.FormatR8G8B8A8Srgb:       vk.FormatR8g8b8a8Srgb,
	gpu.FormatB8G8R8A8Unorm:      vk.FormatB8g8r8a8Unorm,
	gpu.FormatB8G8R8A8Srgb:       vk.FormatB8g8r8a8Srgb,
	gpu.FormatR16G16B16A16Sfloat: vk.FormatR16g16b16a16Sfloat,
	gpu.FormatR32G32B32A32Sfloat: vk.FormatR32g32b32a32Sfloat,
	gpu.FormatR32G32Sfloat:       vk.FormatR32g32Sfloat,
	gpu.FormatR32G32B32Sfloat:    vk.FormatR32g32b32Sfloat,
	gpu.FormatD32Sfloat:          vk.FormatD32Sfloat,
	gpu.FormatD32SfloatS8Uint:    vk.FormatD32SfloatS8Uint,
	gpu.FormatD24UnormS8Uint:     vk.FormatD24UnormS8Uint,
}

func vkFormat(f gpu.Format) vk.Format {
	if v, ok := formats[f]; ok {
		return v
	}
	return vk.FormatUndefined
}

// gpuFormat is the inverse of vkFormat. Native formats without a gpu
// counterpart map to FormatUndefined.
func gpuFormat(f vk.Format) gpu.Format {
	for g, v := range formats {
		if v == f {
			return g
		}
	}
	return gpu.FormatUndefined
}

func vkColorSpace(c gpu.ColorSpace) vk.ColorSpace {
	if c == gpu.ColorSpaceExtendedSrgbLinear {
		return vk.ColorSpaceExtendedSrgbLinear
	}
	return vk.ColorSpaceSrgbNonlinear
}

func gpuColorSpace(c vk.ColorSpace) (gpu.ColorSpace, bool) {
	switch c {
	case vk.ColorSpaceSrgbNonlinear:
		return gpu.ColorSpaceSrgbNonlinear, true
	case vk.ColorSpaceExtendedSrgbLinear:
		return gpu.ColorSpaceExtendedSrgbLinear, true
	}
	return 0, false
}

var presentModes = map[gpu.PresentMode]vk.PresentMode{
	gpu.PresentModeImmediate:   vk.PresentModeImmediate,
	gpu.PresentModeMailbox:     vk.PresentModeMailbox,
	gpu.PresentModeFifo:        vk.PresentModeFifo,
	gpu.PresentModeFifoRelaxed: vk.PresentModeFifoRelaxed,
}

func vkPresentMode(m gpu.PresentMode) vk.PresentMode {
	if v, ok := presentModes[m]; ok {
		return v
	}
	return vk.PresentModeFifo
}

var layouts = map[gpu.ImageLayout]vk.ImageLayout{
	gpu.LayoutUndefined:              vk.ImageLayoutUndefined,
	gpu.LayoutGeneral:                vk.ImageLayoutGeneral,
	gpu.LayoutColorAttachment:        vk.ImageLayoutColorAttachmentOptimal,
	gpu.LayoutDepthStencilAttachment: vk.ImageLayoutDepthStencilAttachmentOptimal,
	gpu.LayoutShaderReadOnly:         vk.ImageLayoutShaderReadOnlyOptimal,
	gpu.LayoutTransferSrc:            vk.ImageLayoutTransferSrcOptimal,
	gpu.LayoutTransferDst:            vk.ImageLayoutTransferDstOptimal,
	gpu.LayoutPresentSrc:             vk.ImageLayoutPresentSrc,
}

func vkLayout(l gpu.ImageLayout) vk.ImageLayout {
	return layouts[l]
}

// mapFlags translates a gpu bit set into the native one, one bit at a time.
// Bits missing from the table are dropped.
func mapFlags[G, V ~uint32](in G, table map[G]V) V {
	var out V
	for bit := G(1); bit != 0 && bit <= in; bit <<= 1 {
		if in&bit != 0 {
			out |= table[bit]
		}
	}
	return out
}

var stages = map[gpu.PipelineStage]vk.PipelineStageFlags{
	gpu.StageTopOfPipe:             vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
	gpu.StageVertexShader:          vk.PipelineStageFlags(vk.PipelineStageVertexShaderBit),
	gpu.StageEarlyFragmentTests:    vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit),
	gpu.StageFragmentShader:        vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit),
	gpu.StageLateFragmentTests:     vk.PipelineStageFlags(vk.PipelineStageLateFragmentTestsBit),
	gpu.StageColorAttachmentOutput: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
	gpu.StageTransfer:              vk.PipelineStageFlags(vk.PipelineStageTransferBit),
	gpu.StageBottomOfPipe:          vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
	gpu.StageAllCommands:           vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
}

func vkStages(s gpu.PipelineStage) vk.PipelineStageFlags {
	if s == 0 {
		return vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit)
	}
	return mapFlags(s, stages)
}

var accesses = map[gpu.Access]vk.AccessFlags{
	gpu.AccessShaderRead:           vk.AccessFlags(vk.AccessShaderReadBit),
	gpu.AccessColorAttachmentRead:  vk.AccessFlags(vk.AccessColorAttachmentReadBit),
	gpu.AccessColorAttachmentWrite: vk.AccessFlags(vk.AccessColorAttachmentWriteBit),
	gpu.AccessDepthStencilRead:     vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit),
	gpu.AccessDepthStencilWrite:    vk.AccessFlags(vk.AccessDepthStencilAttachmentWriteBit),
	gpu.AccessTransferRead:         vk.AccessFlags(vk.AccessTransferReadBit),
	gpu.AccessTransferWrite:        vk.AccessFlags(vk.AccessTransferWriteBit),
	gpu.AccessMemoryRead:           vk.AccessFlags(vk.AccessMemoryReadBit),
}

func vkAccess(a gpu.Access) vk.AccessFlags { return mapFlags(a, accesses) }

var imageUsages = map[gpu.ImageUsage]vk.ImageUsageFlags{
	gpu.ImageUsageTransferSrc:            vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit),
	gpu.ImageUsageTransferDst:            vk.ImageUsageFlags(vk.ImageUsageTransferDstBit),
	gpu.ImageUsageSampled:                vk.ImageUsageFlags(vk.ImageUsageSampledBit),
	gpu.ImageUsageColorAttachment:        vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
	gpu.ImageUsageDepthStencilAttachment: vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
}

func vkImageUsage(u gpu.ImageUsage) vk.ImageUsageFlags { return mapFlags(u, imageUsages) }

var bufferUsages = map[gpu.BufferUsage]vk.BufferUsageFlags{
	gpu.BufferUsageTransferSrc: vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
	gpu.BufferUsageTransferDst: vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
	gpu.BufferUsageUniform:     vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit),
	gpu.BufferUsageVertex:      vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
	gpu.BufferUsageIndex:       vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit),
	gpu.BufferUsageStorage:     vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit),
}

func vkBufferUsage(u gpu.BufferUsage) vk.BufferUsageFlags { return mapFlags(u, bufferUsages) }

var aspects = map[gpu.Aspect]vk.ImageAspectFlags{
	gpu.AspectColor:   vk.ImageAspectFlags(vk.ImageAspectColorBit),
	gpu.AspectDepth:   vk.ImageAspectFlags(vk.ImageAspectDepthBit),
	gpu.AspectStencil: vk.ImageAspectFlags(vk.ImageAspectStencilBit),
}

func vkAspect(f gpu.Format) vk.ImageAspectFlags { return mapFlags(f.Aspect(), aspects) }

var shaderStages = map[gpu.ShaderStage]vk.ShaderStageFlags{
	gpu.ShaderStageVertex:   vk.ShaderStageFlags(vk.ShaderStageVertexBit),
	gpu.ShaderStageFragment: vk.ShaderStageFlags(vk.ShaderStageFragmentBit),
	gpu.ShaderStageCompute:  vk.ShaderStageFlags(vk.ShaderStageComputeBit),
}

func vkShaderStages(s gpu.ShaderStage) vk.ShaderStageFlags { return mapFlags(s, shaderStages) }

// features lists native format features next to their gpu counterparts.
var features = []struct {
	gpu gpu.FormatFeature
	vk  vk.FormatFeatureFlagBits
}{
	{gpu.FeatureSampledImage, vk.FormatFeatureSampledImageBit},
	{gpu.FeatureSampledImageFilterLinear, vk.FormatFeatureSampledImageFilterLinearBit},
	{gpu.FeatureColorAttachment, vk.FormatFeatureColorAttachmentBit},
	{gpu.FeatureDepthStencilAttachment, vk.FormatFeatureDepthStencilAttachmentBit},
	{gpu.FeatureBlitSrc, vk.FormatFeatureBlitSrcBit},
	{gpu.FeatureBlitDst, vk.FormatFeatureBlitDstBit},
	{gpu.FeatureTransferSrc, vk.FormatFeatureTransferSrcBit},
	{gpu.FeatureTransferDst, vk.FormatFeatureTransferDstBit},
}

func gpuFeatures(f vk.FormatFeatureFlags) gpu.FormatFeature {
	var out gpu.FormatFeature
	for _, m := range features {
		if f&vk.FormatFeatureFlags(m.vk) != 0 {
			out |= m.gpu
		}
	}
	return out
}

func vkDescriptorType(t gpu.DescriptorType) vk.DescriptorType {
	switch t {
	case gpu.DescriptorCombinedImageSampler:
		return vk.DescriptorTypeCombinedImageSampler
	case gpu.DescriptorStorageBuffer:
		return vk.DescriptorTypeStorageBuffer
	}
	return vk.DescriptorTypeUniformBuffer
}

func vkFilter(f gpu.Filter) vk.Filter {
	if f == gpu.FilterNearest {
		return vk.FilterNearest
	}
	return vk.FilterLinear
}

func vkIndexType(t gpu.IndexType) vk.IndexType {
	if t == gpu.IndexUint16 {
		return vk.IndexTypeUint16
	}
	return vk.IndexTypeUint32
}

func vkCullMode(c gpu.CullMode) vk.CullModeFlagBits {
	switch c {
	case gpu.CullNone:
		return vk.CullModeNone
	case gpu.CullFront:
		return vk.CullModeFrontBit
	}
	return vk.CullModeBackBit
}

func vkExtent(e gpu.Extent2D) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func gpuExtent(e vk.Extent2D) gpu.Extent2D {
	return gpu.Extent2D{Width: e.Width, Height: e.Height}
}
