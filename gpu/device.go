/*
Package gpu describes the boundary between the frame orchestrator and a
graphics driver. It holds plain data types (formats, layouts, stages,
extents) and the small set of interfaces a driver implements. The vulkan
package implements them over Vulkan; gputest implements them in memory.

Objects returned by a Device are owned by the caller and released with
their Destroy method. A driver is used from a single goroutine at a time.
*/
package gpu

import "time"

type Semaphore interface {
	Destroy()
}

type Fence interface {
	Destroy()
}

type Sampler interface {
	Destroy()
}

type Pipeline interface {
	Destroy()
}

// DescriptorSet is an opaque, driver owned binding set. It lives as long as
// the DescriptorGroup it came from.
type DescriptorSet interface{}

// Image is a device image together with its memory and default view.
type Image interface {
	Extent() Extent2D
	Format() Format
	MipLevels() uint32
	Destroy()
}

type Buffer interface {
	Size() uint64
	// Write copies data into a host visible buffer at offset.
	Write(offset uint64, data []byte) error
	Destroy()
}

// DescriptorGroup is a set layout plus one descriptor set per frame in flight.
type DescriptorGroup interface {
	Bindings() []DescriptorBinding
	Sets() []DescriptorSet
	WriteBuffer(set int, binding uint32, b Buffer) error
	WriteImage(set int, binding uint32, img Image, s Sampler) error
	Destroy()
}

// CommandBuffer records work for the graphics queue.
type CommandBuffer interface {
	Reset() error
	Begin(oneTime bool) error
	End() error

	PipelineBarrier(barriers ...ImageBarrier)
	BlitImage(src Image, srcLayout ImageLayout, dst Image, dstLayout ImageLayout, region BlitRegion, filter Filter)
	CopyBuffer(src, dst Buffer, size uint64)
	CopyBufferToImage(src Buffer, dst Image, layout ImageLayout)

	BeginRendering(info RenderingInfo) error
	EndRendering()
	BindPipeline(p Pipeline)
	BindDescriptorSets(p Pipeline, firstSet uint32, sets []DescriptorSet)
	PushConstants(p Pipeline, stages ShaderStage, offset uint32, data []byte)
	SetViewport(v Viewport)
	SetScissor(r Rect2D)
	BindVertexBuffer(b Buffer)
	BindIndexBuffer(b Buffer, t IndexType)
	DrawIndexed(indexCount, instanceCount uint32)
}

// Device creates objects and drives the graphics queue.
type Device interface {
	CreateSemaphore() (Semaphore, error)
	CreateFence(signaled bool) (Fence, error)
	// WaitForFence blocks until the fence is signaled. A zero timeout waits
	// forever; expiry returns ErrTimeout.
	WaitForFence(f Fence, timeout time.Duration) error
	ResetFence(f Fence) error

	AllocateCommandBuffer() (CommandBuffer, error)
	FreeCommandBuffer(cb CommandBuffer)

	Submit(info SubmitInfo) error
	QueueWaitIdle() error
	WaitIdle() error

	FormatProperties(f Format) FormatProperties

	CreateImage(desc ImageDesc) (Image, error)
	CreateBuffer(desc BufferDesc) (Buffer, error)
	CreateSampler(desc SamplerDesc) (Sampler, error)
	CreateDescriptorGroup(bindings []DescriptorBinding, sets int) (DescriptorGroup, error)
	CreatePipeline(desc PipelineDesc) (Pipeline, error)
}

// Surface is the window system side of presentation.
type Surface interface {
	FramebufferSize() Extent2D
	// WaitEvents blocks until the window system delivers an event. It is
	// called with the Renderer lock held: callbacks it runs may call
	// Renderer.NotifyResized and nothing else on the Renderer.
	WaitEvents()
	Capabilities() (SurfaceCapabilities, error)
	Formats() ([]SurfaceFormat, error)
	PresentModes() ([]PresentMode, error)
	CreateSwapchain(desc SwapchainDesc) (Swapchain, error)
}

// Swapchain is a series of presentable images.
type Swapchain interface {
	Images() []Image
	// AcquireNextImage returns the index of the next presentable image and
	// signals the semaphore when it is ready. It returns ErrOutOfDate when
	// the surface changed.
	AcquireNextImage(timeout time.Duration, signal Semaphore) (index uint32, suboptimal bool, err error)
	// Present queues the image for presentation once every wait semaphore
	// is signaled.
	Present(index uint32, wait []Semaphore) (suboptimal bool, err error)
	Destroy()
}
