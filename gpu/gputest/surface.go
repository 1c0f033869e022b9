package gputest

import (
	"fmt"
	"time"

	"github.com/celer/vkframe/gpu"
)

// Surface is a fake gpu.Surface sharing its device's log. Acquire and
// present calls are numbered from 1 across every swapchain the surface
// creates, so results can be scripted per call.
type Surface struct {
	dev *Device

	// Sizes are returned by successive FramebufferSize calls; the last
	// entry repeats.
	Sizes []gpu.Extent2D
	Caps  gpu.SurfaceCapabilities
	// SurfaceFormats and Modes are reported by Formats and PresentModes.
	SurfaceFormats []gpu.SurfaceFormat
	Modes          []gpu.PresentMode

	AcquireErrors     map[int]error
	PresentErrors     map[int]error
	SuboptimalPresent map[int]bool

	// OnWaitEvents, if set, runs inside WaitEvents the way window system
	// callbacks do.
	OnWaitEvents func()

	WaitEventsCalls int
	SwapchainsMade  int
	Acquires        int
	Presents        int
	Current         *Swapchain
}

// NewSurface returns an 800x600 surface supporting B8G8R8A8 sRGB with
// mailbox and fifo present modes.
func NewSurface(dev *Device) *Surface {
	return &Surface{
		dev:   dev,
		Sizes: []gpu.Extent2D{{Width: 800, Height: 600}},
		Caps: gpu.SurfaceCapabilities{
			MinImageCount: 2,
			MaxImageCount: 8,
			CurrentExtent: gpu.Extent2D{Width: gpu.UndefinedExtent, Height: gpu.UndefinedExtent},
			MinExtent:     gpu.Extent2D{Width: 1, Height: 1},
			MaxExtent:     gpu.Extent2D{Width: 16384, Height: 16384},
		},
		SurfaceFormats: []gpu.SurfaceFormat{
			{Format: gpu.FormatB8G8R8A8Unorm, ColorSpace: gpu.ColorSpaceSrgbNonlinear},
			{Format: gpu.FormatB8G8R8A8Srgb, ColorSpace: gpu.ColorSpaceSrgbNonlinear},
		},
		Modes:             []gpu.PresentMode{gpu.PresentModeFifo, gpu.PresentModeMailbox},
		AcquireErrors:     make(map[int]error),
		PresentErrors:     make(map[int]error),
		SuboptimalPresent: make(map[int]bool),
	}
}

func (s *Surface) FramebufferSize() gpu.Extent2D {
	if len(s.Sizes) == 0 {
		return gpu.Extent2D{}
	}
	e := s.Sizes[0]
	if len(s.Sizes) > 1 {
		s.Sizes = s.Sizes[1:]
	}
	return e
}

func (s *Surface) WaitEvents() {
	s.WaitEventsCalls++
	s.dev.logf("wait_events")
	if s.OnWaitEvents != nil {
		s.OnWaitEvents()
	}
}

func (s *Surface) Capabilities() (gpu.SurfaceCapabilities, error) {
	return s.Caps, nil
}

func (s *Surface) Formats() ([]gpu.SurfaceFormat, error) {
	return s.SurfaceFormats, nil
}

func (s *Surface) PresentModes() ([]gpu.PresentMode, error) {
	return s.Modes, nil
}

func (s *Surface) CreateSwapchain(desc gpu.SwapchainDesc) (gpu.Swapchain, error) {
	if err := s.dev.failure("swapchain"); err != nil {
		return nil, err
	}
	if desc.Extent.IsZero() {
		return nil, fmt.Errorf("swapchain with degenerate extent %s", desc.Extent)
	}
	sc := &Swapchain{surface: s, name: s.dev.newName("swapchain"), Desc: desc}
	for i := uint32(0); i < desc.ImageCount; i++ {
		sc.images = append(sc.images, &Image{
			dev:       s.dev,
			name:      fmt.Sprintf("%s.image%d", sc.name, i),
			Desc:      gpu.ImageDesc{Extent: desc.Extent, Format: desc.Format.Format, MipLevels: 1},
			swapchain: true,
		})
	}
	s.SwapchainsMade++
	s.Current = sc
	s.dev.logf("create %s %s %s %s images=%d", sc.name, desc.Extent, desc.Format.Format, desc.PresentMode, desc.ImageCount)
	return sc, nil
}

type Swapchain struct {
	surface *Surface
	name    string
	Desc    gpu.SwapchainDesc
	images  []*Image
	next    uint32
}

func (sc *Swapchain) String() string { return sc.name }

func (sc *Swapchain) Images() []gpu.Image {
	ret := make([]gpu.Image, len(sc.images))
	for i, img := range sc.images {
		ret[i] = img
	}
	return ret
}

func (sc *Swapchain) AcquireNextImage(timeout time.Duration, signal gpu.Semaphore) (uint32, bool, error) {
	s := sc.surface
	s.Acquires++
	if err, ok := s.AcquireErrors[s.Acquires]; ok {
		s.dev.logf("acquire %s -> %v", sc.name, err)
		return 0, false, err
	}
	signal.(*Semaphore).signal()
	idx := sc.next
	sc.next = (sc.next + 1) % uint32(len(sc.images))
	s.dev.logf("acquire %s -> %d", sc.name, idx)
	return idx, false, nil
}

func (sc *Swapchain) Present(index uint32, wait []gpu.Semaphore) (bool, error) {
	s := sc.surface
	s.Presents++
	for _, w := range wait {
		w.(*Semaphore).wait()
	}
	if err, ok := s.PresentErrors[s.Presents]; ok {
		s.dev.logf("present %s %d -> %v", sc.name, index, err)
		return false, err
	}
	suboptimal := s.SuboptimalPresent[s.Presents]
	s.dev.logf("present %s %d suboptimal=%v", sc.name, index, suboptimal)
	return suboptimal, nil
}

func (sc *Swapchain) Destroy() {
	sc.surface.dev.release(sc.name)
}
