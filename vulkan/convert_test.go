package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

func TestFormatRoundTrip(t *testing.T) {
	for g := range formats {
		assert.Equal(t, g, gpuFormat(vkFormat(g)), "format %s", g)
	}
	assert.Equal(t, gpu.FormatUndefined, gpuFormat(vk.FormatR8Unorm))
	assert.Equal(t, vk.FormatUndefined, vkFormat(gpu.Format(999)))
}

func TestMapFlags(t *testing.T) {
	assert.Equal(t,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit|vk.PipelineStageColorAttachmentOutputBit),
		vkStages(gpu.StageTransfer|gpu.StageColorAttachmentOutput))
	assert.Equal(t, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit), vkStages(0))
	assert.Equal(t, vk.AccessFlags(0), vkAccess(0))
	assert.Equal(t,
		vk.ImageUsageFlags(vk.ImageUsageTransferDstBit|vk.ImageUsageSampledBit),
		vkImageUsage(gpu.ImageUsageTransferDst|gpu.ImageUsageSampled))
	assert.Equal(t,
		vk.ShaderStageFlags(vk.ShaderStageVertexBit|vk.ShaderStageFragmentBit),
		vkShaderStages(gpu.ShaderStageAllGraphics))
}

func TestAspect(t *testing.T) {
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectColorBit), vkAspect(gpu.FormatR8G8B8A8Unorm))
	assert.Equal(t, vk.ImageAspectFlags(vk.ImageAspectDepthBit), vkAspect(gpu.FormatD32Sfloat))
	assert.Equal(t,
		vk.ImageAspectFlags(vk.ImageAspectDepthBit|vk.ImageAspectStencilBit),
		vkAspect(gpu.FormatD24UnormS8Uint))
}

func TestFeatures(t *testing.T) {
	f := gpuFeatures(vk.FormatFeatureFlags(vk.FormatFeatureBlitSrcBit | vk.FormatFeatureBlitDstBit | vk.FormatFeatureSampledImageFilterLinearBit))
	assert.True(t, f.Has(gpu.FeatureBlitSrc|gpu.FeatureBlitDst|gpu.FeatureSampledImageFilterLinear))
	assert.False(t, f.Has(gpu.FeatureColorAttachment))
	assert.Zero(t, gpuFeatures(0))
}

func TestSmallConversions(t *testing.T) {
	assert.Equal(t, vk.CullModeNone, vkCullMode(gpu.CullNone))
	assert.Equal(t, vk.CullModeFrontBit, vkCullMode(gpu.CullFront))
	assert.Equal(t, vk.CullModeBackBit, vkCullMode(gpu.CullBack))
	assert.Equal(t, vk.IndexTypeUint16, vkIndexType(gpu.IndexUint16))
	assert.Equal(t, vk.FilterNearest, vkFilter(gpu.FilterNearest))
	assert.Equal(t, vk.ImageLayoutPresentSrc, vkLayout(gpu.LayoutPresentSrc))
	assert.Equal(t, vk.PresentModeFifo, vkPresentMode(gpu.PresentMode(42)))

	cs, ok := gpuColorSpace(vk.ColorSpaceSrgbNonlinear)
	assert.True(t, ok)
	assert.Equal(t, gpu.ColorSpaceSrgbNonlinear, cs)

	e := gpu.Extent2D{Width: 640, Height: 480}
	assert.Equal(t, e, gpuExtent(vkExtent(e)))
}

func TestNewError(t *testing.T) {
	assert.NoError(t, newError("op", vk.Success))
	assert.ErrorIs(t, newError("acquire", vk.ErrorOutOfDate), gpu.ErrOutOfDate)
	assert.ErrorIs(t, newError("wait", vk.Timeout), gpu.ErrTimeout)
	assert.ErrorIs(t, newError("submit", vk.ErrorDeviceLost), gpu.ErrDeviceLost)

	err := newError("allocate memory", vk.ErrorOutOfDeviceMemory)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "allocate memory")
}

func TestSafeString(t *testing.T) {
	assert.Equal(t, "main\x00", safeString("main"))
	assert.Equal(t, "main\x00", safeString("main\x00"))
	assert.Equal(t, []string{"a\x00", "b\x00"}, safeStrings([]string{"a", "b"}))
}

func TestCodeWords(t *testing.T) {
	words := codeWords([]byte{1, 0, 0, 0, 2, 0, 0, 0})
	assert.Len(t, words, 2)
	assert.Nil(t, codeWords([]byte{1}))
}
