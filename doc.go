/*
Package vkframe drives frames on a GPU surface and owns the resources
rendered with them. It sits on top of a driver described by the gpu package;
the vulkan package provides one over Vulkan and gpu/gputest one in memory.

Overview

A Renderer keeps every resource in a Registry and hands out Handles for
them. A handle stays valid until the resource is destroyed, including when
the resource itself is replaced, as happens to render targets when the
window is resized.

Rendering never targets the swapchain directly. Frames are drawn into color
and depth targets owned by the Renderer, and the chosen color target is
blitted into the swapchain image at the end of the frame. Targets can
therefore use any format, or several at once, independent of what the
surface supports.

Frames

Up to MaxFramesInFlight frames are recorded ahead of the GPU, each in its own
frame slot holding a command buffer, three semaphores and a fence. A frame
is driven by:

	StartDraw        wait for the slot's fence, begin recording
	StartRendering   begin a render scope on color targets and a depth target
	BindPipeline, BindDescriptor, PushConstant, SetViewport, SetScissor, DrawMesh
	EndRendering     close the render scope
	EndDraw          submit, acquire, copy into the swapchain image, present

Calls made out of this order fail with a programmer error and change
nothing. When the surface goes out of date EndDraw rebuilds it, drops the
frame and returns nil.

Errors

Errors returned by a Renderer are *Error values classified by Kind:

	KindProgrammer   misuse of the API; nothing changed
	KindCreation     a resource could not be created; nothing was registered
	KindFatal        the device failed; the Renderer must be closed

Use IsProgrammerError, IsCreationFailure and IsFatal, or errors.Is with the
sentinels such as ErrNotFound and ErrDeviceTimeout.

Logging

Nothing is logged until SetLogger is called with a *slog.Logger.
*/
package vkframe
