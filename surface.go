package vkframe

import (
	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// surfaceManager owns the swapchain built for a surface.
type surfaceManager struct {
	surface gpu.Surface

	preferredFormat gpu.Format
	preferredMode   gpu.PresentMode
	imageCount      uint32

	swapchain gpu.Swapchain
	images    []gpu.Image
	format    gpu.SurfaceFormat
	mode      gpu.PresentMode
	extent    gpu.Extent2D
}

// chooseSurfaceFormat returns the preferred format in the sRGB non-linear
// color space, or the first one the surface reports.
func chooseSurfaceFormat(available []gpu.SurfaceFormat, preferred gpu.Format) (gpu.SurfaceFormat, error) {
	if len(available) == 0 {
		return gpu.SurfaceFormat{}, errors.New("surface reports no formats")
	}
	for _, f := range available {
		if f.Format == preferred && f.ColorSpace == gpu.ColorSpaceSrgbNonlinear {
			return f, nil
		}
	}
	Logger().Warn("preferred surface format unavailable", "preferred", preferred, "using", available[0])
	return available[0], nil
}

// choosePresentMode returns the preferred mode when offered. Fifo is always
// available.
func choosePresentMode(available []gpu.PresentMode, preferred gpu.PresentMode) gpu.PresentMode {
	for _, m := range available {
		if m == preferred {
			return m
		}
	}
	if preferred != gpu.PresentModeFifo {
		Logger().Warn("preferred present mode unavailable", "preferred", preferred, "using", gpu.PresentModeFifo)
	}
	return gpu.PresentModeFifo
}

// chooseExtent returns the surface's current extent, or the framebuffer size
// clamped to the supported range when the surface leaves it to us.
func chooseExtent(caps gpu.SurfaceCapabilities, framebuffer gpu.Extent2D) gpu.Extent2D {
	if caps.CurrentExtent.Width != gpu.UndefinedExtent {
		return caps.CurrentExtent
	}
	return gpu.Extent2D{
		Width:  clamp(framebuffer.Width, caps.MinExtent.Width, caps.MaxExtent.Width),
		Height: clamp(framebuffer.Height, caps.MinExtent.Height, caps.MaxExtent.Height),
	}
}

// chooseImageCount returns the requested count, or one more than the
// minimum, capped by the maximum when the surface has one.
func chooseImageCount(caps gpu.SurfaceCapabilities, requested uint32) uint32 {
	n := requested
	if n == 0 {
		n = caps.MinImageCount + 1
	}
	if n < caps.MinImageCount {
		n = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && n > caps.MaxImageCount {
		n = caps.MaxImageCount
	}
	return n
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}

// waitForExtent blocks until the surface has a drawable size, as needed
// while the window is minimized.
func (m *surfaceManager) waitForExtent() (gpu.SurfaceCapabilities, gpu.Extent2D, error) {
	for {
		caps, err := m.surface.Capabilities()
		if err != nil {
			return caps, gpu.Extent2D{}, errors.Wrap(err, "query surface capabilities")
		}
		fb := m.surface.FramebufferSize()
		extent := chooseExtent(caps, fb)
		if !fb.IsZero() && !extent.IsZero() {
			return caps, extent, nil
		}
		m.surface.WaitEvents()
	}
}

// build creates the swapchain. Any previous swapchain must already be
// destroyed.
func (m *surfaceManager) build() error {
	caps, extent, err := m.waitForExtent()
	if err != nil {
		return err
	}
	formats, err := m.surface.Formats()
	if err != nil {
		return errors.Wrap(err, "query surface formats")
	}
	format, err := chooseSurfaceFormat(formats, m.preferredFormat)
	if err != nil {
		return err
	}
	modes, err := m.surface.PresentModes()
	if err != nil {
		return errors.Wrap(err, "query present modes")
	}
	mode := choosePresentMode(modes, m.preferredMode)

	sc, err := m.surface.CreateSwapchain(gpu.SwapchainDesc{
		Extent:      extent,
		Format:      format,
		PresentMode: mode,
		ImageCount:  chooseImageCount(caps, m.imageCount),
	})
	if err != nil {
		return errors.Wrap(err, "create swapchain")
	}
	m.swapchain = sc
	m.images = sc.Images()
	m.format = format
	m.mode = mode
	m.extent = extent
	Logger().Info("swapchain built", "extent", extent, "format", format, "present_mode", mode, "images", len(m.images))
	return nil
}

func (m *surfaceManager) destroy() {
	if m.swapchain != nil {
		m.swapchain.Destroy()
		m.swapchain = nil
		m.images = nil
	}
}

func (m *surfaceManager) Extent() gpu.Extent2D         { return m.extent }
func (m *surfaceManager) Format() gpu.SurfaceFormat    { return m.format }
func (m *surfaceManager) PresentMode() gpu.PresentMode { return m.mode }
func (m *surfaceManager) ImageCount() int              { return len(m.images) }
func (m *surfaceManager) Image(index uint32) gpu.Image { return m.images[index] }
