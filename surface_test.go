package vkframe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/vkframe/gpu"
	"github.com/celer/vkframe/gpu/gputest"
)

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8Unorm, ColorSpace: gpu.ColorSpaceSrgbNonlinear}
	srgb := gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8Srgb, ColorSpace: gpu.ColorSpaceSrgbNonlinear}
	srgbLinear := gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8Srgb, ColorSpace: gpu.ColorSpaceExtendedSrgbLinear}

	f, err := chooseSurfaceFormat([]gpu.SurfaceFormat{unorm, srgb}, gpu.FormatB8G8R8A8Srgb)
	require.NoError(t, err)
	assert.Equal(t, srgb, f)

	f, err = chooseSurfaceFormat([]gpu.SurfaceFormat{srgbLinear, unorm}, gpu.FormatB8G8R8A8Srgb)
	require.NoError(t, err)
	assert.Equal(t, srgbLinear, f, "falls back to the first format")

	_, err = chooseSurfaceFormat(nil, gpu.FormatB8G8R8A8Srgb)
	assert.Error(t, err)
}

func TestChoosePresentMode(t *testing.T) {
	modes := []gpu.PresentMode{gpu.PresentModeFifo, gpu.PresentModeMailbox}
	assert.Equal(t, gpu.PresentModeMailbox, choosePresentMode(modes, gpu.PresentModeMailbox))
	assert.Equal(t, gpu.PresentModeFifo, choosePresentMode(modes, gpu.PresentModeImmediate))
	assert.Equal(t, gpu.PresentModeFifo, choosePresentMode(nil, gpu.PresentModeMailbox))
}

func TestChooseExtent(t *testing.T) {
	caps := gpu.SurfaceCapabilities{
		CurrentExtent: gpu.Extent2D{Width: 640, Height: 480},
		MinExtent:     gpu.Extent2D{Width: 1, Height: 1},
		MaxExtent:     gpu.Extent2D{Width: 4096, Height: 4096},
	}
	assert.Equal(t, gpu.Extent2D{Width: 640, Height: 480}, chooseExtent(caps, gpu.Extent2D{Width: 800, Height: 600}))

	caps.CurrentExtent = gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent}
	assert.Equal(t, gpu.Extent2D{Width: 800, Height: 600}, chooseExtent(caps, gpu.Extent2D{Width: 800, Height: 600}))
	assert.Equal(t, gpu.Extent2D{Width: 4096, Height: 1}, chooseExtent(caps, gpu.Extent2D{Width: 9000, Height: 0}))
}

func TestChooseImageCount(t *testing.T) {
	caps := gpu.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 3}
	assert.Equal(t, uint32(3), chooseImageCount(caps, 0))
	assert.Equal(t, uint32(3), chooseImageCount(caps, 8))
	assert.Equal(t, uint32(2), chooseImageCount(caps, 1))

	caps.MaxImageCount = 0
	assert.Equal(t, uint32(8), chooseImageCount(caps, 8), "no maximum")
}

func TestSurfaceBuildWaitsForDrawableSize(t *testing.T) {
	dev := gputest.NewDevice()
	surf := gputest.NewSurface(dev)
	surf.Sizes = []gpu.Extent2D{{}, {Width: 0, Height: 300}, {Width: 320, Height: 200}}

	m := &surfaceManager{surface: surf, preferredFormat: gpu.FormatB8G8R8A8Srgb, preferredMode: gpu.PresentModeMailbox}
	require.NoError(t, m.build())
	assert.Equal(t, 2, surf.WaitEventsCalls)
	assert.Equal(t, gpu.Extent2D{Width: 320, Height: 200}, m.Extent())
	assert.Equal(t, gpu.FormatB8G8R8A8Srgb, m.Format().Format)
	assert.Equal(t, gpu.PresentModeMailbox, m.PresentMode())
	assert.Equal(t, 3, m.ImageCount())

	m.destroy()
	assert.Empty(t, dev.Live())
}
