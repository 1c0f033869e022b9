package vulkan

import (
	cerrors "cogentcore.org/core/base/errors"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

// Init initializes glfw and loads the Vulkan entry points through it. It
// must be called on the main thread before anything else in this package.
func Init() error {
	if err := glfw.Init(); err != nil {
		return cerrors.Log(err)
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return cerrors.Log(errors.New("vulkan loader not found"))
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	return cerrors.Log(vk.Init())
}

// Terminate shuts glfw down. Call it last, on the main thread.
func Terminate() {
	glfw.Terminate()
}

// Window is a glfw window and the Vulkan surface over it. It implements
// gpu.Surface once a device has been attached.
type Window struct {
	GLFWWindow *glfw.Window
	VKSurface  vk.Surface

	instance *Instance
	device   *Device
	onResize func(width, height int)
}

var _ gpu.Surface = (*Window)(nil)

// NewWindow opens a resizable window without a client API.
func NewWindow(title string, width, height int) (*Window, error) {
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	win, err := glfw.CreateWindow(width, height, title, nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create window")
	}
	w := &Window{GLFWWindow: win}
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})
	return w, nil
}

// RequiredExtensions returns the instance extensions the window system
// needs.
func (w *Window) RequiredExtensions() []string {
	return w.GLFWWindow.GetRequiredInstanceExtensions()
}

func (w *Window) createSurface(inst *Instance) error {
	ptr, err := w.GLFWWindow.CreateWindowSurface(inst.VKInstance, nil)
	if err != nil {
		return errors.Wrap(err, "create window surface")
	}
	w.instance = inst
	w.VKSurface = vk.SurfaceFromPointer(ptr)
	return nil
}

// OnResize registers fn to run when the framebuffer changes size. fn runs
// inside PollEvents and WaitEvents, including the WaitEvents a Renderer
// calls during a surface rebuild, so it may only call
// Renderer.NotifyResized.
func (w *Window) OnResize(fn func(width, height int)) {
	w.onResize = fn
}

func (w *Window) ShouldClose() bool {
	return w.GLFWWindow.ShouldClose()
}

func (w *Window) PollEvents() {
	glfw.PollEvents()
}

func (w *Window) WaitEvents() {
	glfw.WaitEvents()
}

func (w *Window) FramebufferSize() gpu.Extent2D {
	width, height := w.GLFWWindow.GetFramebufferSize()
	if width < 0 || height < 0 {
		return gpu.Extent2D{}
	}
	return gpu.Extent2D{Width: uint32(width), Height: uint32(height)}
}

func (w *Window) physicalDevice() (*PhysicalDevice, error) {
	if w.device == nil {
		return nil, errors.New("window has no device attached")
	}
	return w.device.PhysicalDevice, nil
}

func (w *Window) Capabilities() (gpu.SurfaceCapabilities, error) {
	pd, err := w.physicalDevice()
	if err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	caps, err := pd.surfaceCapabilities(w.VKSurface)
	if err != nil {
		return gpu.SurfaceCapabilities{}, err
	}
	return gpu.SurfaceCapabilities{
		MinImageCount: caps.MinImageCount,
		MaxImageCount: caps.MaxImageCount,
		CurrentExtent: gpuExtent(caps.CurrentExtent),
		MinExtent:     gpuExtent(caps.MinImageExtent),
		MaxExtent:     gpuExtent(caps.MaxImageExtent),
	}, nil
}

// Formats returns the surface formats that have a gpu counterpart.
func (w *Window) Formats() ([]gpu.SurfaceFormat, error) {
	pd, err := w.physicalDevice()
	if err != nil {
		return nil, err
	}
	vkFormats, err := pd.surfaceFormats(w.VKSurface)
	if err != nil {
		return nil, err
	}
	var out []gpu.SurfaceFormat
	for _, f := range vkFormats {
		cs, ok := gpuColorSpace(f.ColorSpace)
		if !ok {
			continue
		}
		if f.Format == vk.FormatUndefined {
			// Any format is allowed.
			out = append(out, gpu.SurfaceFormat{Format: gpu.FormatB8G8R8A8Unorm, ColorSpace: cs})
			continue
		}
		if g := gpuFormat(f.Format); g != gpu.FormatUndefined {
			out = append(out, gpu.SurfaceFormat{Format: g, ColorSpace: cs})
		}
	}
	return out, nil
}

func (w *Window) PresentModes() ([]gpu.PresentMode, error) {
	pd, err := w.physicalDevice()
	if err != nil {
		return nil, err
	}
	modes, err := pd.surfacePresentModes(w.VKSurface)
	if err != nil {
		return nil, err
	}
	var out []gpu.PresentMode
	for _, m := range modes {
		for g, v := range presentModes {
			if v == m {
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (w *Window) CreateSwapchain(desc gpu.SwapchainDesc) (gpu.Swapchain, error) {
	if w.device == nil {
		return nil, errors.New("window has no device attached")
	}
	return w.device.createSwapchain(w.VKSurface, desc)
}

// Destroy releases the surface and closes the window.
func (w *Window) Destroy() {
	if w.VKSurface != vk.NullSurface && w.instance != nil {
		vk.DestroySurface(w.instance.VKInstance, w.VKSurface, nil)
		w.VKSurface = vk.NullSurface
	}
	if w.GLFWWindow != nil {
		w.GLFWWindow.Destroy()
		w.GLFWWindow = nil
	}
}
