package vkframe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/vkframe/gpu"
	"github.com/celer/vkframe/gpu/gputest"
)

func TestFindDepthFormat(t *testing.T) {
	dev := gputest.NewDevice()
	f, err := FindDepthFormat(dev)
	require.NoError(t, err)
	assert.Equal(t, gpu.FormatD32Sfloat, f)

	dev.Properties = map[gpu.Format]gpu.FormatProperties{
		gpu.FormatD32Sfloat:       {Linear: gpu.FeatureDepthStencilAttachment},
		gpu.FormatD32SfloatS8Uint: {},
	}
	f, err = FindDepthFormat(dev)
	require.NoError(t, err)
	assert.Equal(t, gpu.FormatD24UnormS8Uint, f, "only optimal tiling counts")
	assert.True(t, HasStencilComponent(f))
	assert.False(t, HasStencilComponent(gpu.FormatD32Sfloat))

	dev.Properties[gpu.FormatD24UnormS8Uint] = gpu.FormatProperties{}
	_, err = FindDepthFormat(dev)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSupportsLinearBlit(t *testing.T) {
	dev := gputest.NewDevice()
	assert.True(t, SupportsLinearBlit(dev, gpu.FormatR8G8B8A8Srgb))
	dev.Properties = map[gpu.Format]gpu.FormatProperties{
		gpu.FormatR8G8B8A8Srgb: {Linear: gpu.FeatureSampledImageFilterLinear, Optimal: gpu.FeatureSampledImage},
	}
	assert.False(t, SupportsLinearBlit(dev, gpu.FormatR8G8B8A8Srgb))
}

func TestMipLevels(t *testing.T) {
	for _, tc := range []struct {
		w, h, want uint32
	}{
		{1, 1, 1},
		{2, 1, 2},
		{256, 256, 9},
		{512, 100, 10},
		{100, 512, 10},
		{1023, 7, 10},
		{1024, 1, 11},
		{0, 0, 1},
	} {
		assert.Equal(t, tc.want, MipLevels(tc.w, tc.h), "%dx%d", tc.w, tc.h)
	}
}

func TestTransitionBarrier(t *testing.T) {
	b, err := transitionBarrier(nil, gpu.LayoutColorAttachment, gpu.LayoutTransferSrc, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, gpu.StageColorAttachmentOutput, b.SrcStage)
	assert.Equal(t, gpu.StageTransfer, b.DstStage)
	assert.Equal(t, gpu.AccessColorAttachmentWrite, b.SrcAccess)
	assert.Equal(t, gpu.AccessTransferRead, b.DstAccess)

	b, err = transitionBarrier(nil, gpu.LayoutTransferDst, gpu.LayoutPresentSrc, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, gpu.StageBottomOfPipe, b.DstStage)
	assert.Zero(t, b.DstAccess)

	_, err = transitionBarrier(nil, gpu.LayoutShaderReadOnly, gpu.LayoutPresentSrc, 0, 1)
	assert.Error(t, err)
}

func TestGenerateMipmaps(t *testing.T) {
	dev := gputest.NewDevice()
	img, err := dev.CreateImage(gpu.ImageDesc{
		Extent:    gpu.Extent2D{Width: 64, Height: 16},
		Format:    gpu.FormatR8G8B8A8Srgb,
		MipLevels: 7,
	})
	require.NoError(t, err)
	cmd, err := dev.AllocateCommandBuffer()
	require.NoError(t, err)
	require.NoError(t, cmd.Begin(true))
	dev.ResetLog()

	require.NoError(t, GenerateMipmaps(dev, cmd, img, 64, 16, 7))
	assert.Empty(t, dev.Violations)

	var blits []string
	for _, l := range dev.Log {
		if strings.HasPrefix(l, "cmd blit") {
			blits = append(blits, l)
		}
	}
	require.Len(t, blits, 6)
	assert.Contains(t, blits[0], "[0] 64x16")
	assert.Contains(t, blits[0], "[1] 32x8")
	assert.Contains(t, blits[5], "[5] 2x1")
	assert.Contains(t, blits[5], "[6] 1x1")

	last := dev.Log[len(dev.Log)-1]
	assert.Equal(t, "cmd barrier image#1 transfer_dst->shader_read_only mips=6+1", last)
}

func TestGenerateMipmapsRequiresLinearBlit(t *testing.T) {
	dev := gputest.NewDevice()
	dev.Properties = map[gpu.Format]gpu.FormatProperties{gpu.FormatR8G8B8A8Srgb: {}}
	img, err := dev.CreateImage(gpu.ImageDesc{Extent: gpu.Extent2D{Width: 4, Height: 4}, Format: gpu.FormatR8G8B8A8Srgb, MipLevels: 3})
	require.NoError(t, err)
	cmd, err := dev.AllocateCommandBuffer()
	require.NoError(t, err)
	dev.ResetLog()

	err = GenerateMipmaps(dev, cmd, img, 4, 4, 3)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Zero(t, dev.Count("cmd"))
}
