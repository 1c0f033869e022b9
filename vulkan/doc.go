/*
Package vulkan implements the gpu interfaces over Vulkan, with glfw for
the window and surface.

A program locks its main thread, calls Init, then Open with a Config to
get a Context holding the instance, window and device:

	runtime.LockOSThread()
	if err := vulkan.Init(); err != nil { ... }
	defer vulkan.Terminate()
	ctx, err := vulkan.Open(cfg)
	if err != nil { ... }
	defer ctx.Close()
	r, err := vkframe.New(ctx.Device, ctx.Window)

Native terms

	Instance	the vulkan runtime instance
	PhysicalDevice	the hardware device
	Device		the logical device, target of most calls
	Queue		where command buffers are submitted
	DeviceMemory	an allocation on the host or the device
	Buffer		vertex, index, uniform or staging data
	Image		a 2D image and its view
	DescriptorGroup	a set layout, its pool and the sets drawn from it
	Pipeline	a graphics pipeline and its layout
	Swapchain	the images presented to the window

Rendering is recorded in render passes built on demand for each set of
attachment formats. Attachments enter and leave a pass in their
attachment optimal layout and are cleared when the pass begins.

Host visible staging buffers are carved out of one persistently mapped
arena of Config.StagingSize bytes, falling back to their own allocation
when the arena is full.

Native structures are exposed in fields prefixed with VK so callers can
reach past what this package wraps.
*/
package vulkan
