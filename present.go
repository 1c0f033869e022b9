package vkframe

import (
	"github.com/loov/hrtime"
	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// EndDraw finishes the frame: it submits the recorded commands, copies the
// color target into the next swapchain image and presents it, then moves to
// the next frame slot.
//
// When the surface is out of date, suboptimal, or NotifyResized was called,
// the surface and every surface sized target are rebuilt, the frame is
// dropped and EndDraw returns nil without advancing the frame slot. Target
// handles stay valid across the rebuild.
func (r *Renderer) EndDraw(color Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "EndDraw"
	if err := r.checkState(op, StateRecorded); err != nil {
		return err
	}
	target, err := r.colorTargets.Get(color)
	if err != nil {
		return programmerError(op, errors.Wrap(err, "color target"))
	}
	slot := r.slots[r.current]

	if err := slot.cmd.End(); err != nil {
		return r.fail(op, errors.Wrap(err, "end frame command buffer"))
	}
	err = r.dev.Submit(gpu.SubmitInfo{
		Commands: []gpu.CommandBuffer{slot.cmd},
		Signal:   []gpu.Semaphore{slot.renderFinished},
		Fence:    slot.inFlight,
	})
	if err != nil {
		return r.fail(op, errors.Wrap(err, "submit frame"))
	}
	r.state = StateSubmitted

	sc := r.surface.swapchain
	index, _, err := sc.AcquireNextImage(r.waitTimeout, slot.imageAcquired)
	switch {
	case errors.Is(err, gpu.ErrOutOfDate):
		return r.dropFrame(op, "acquire reported out of date")
	case errors.Is(err, gpu.ErrTimeout):
		return r.fail(op, errors.Wrapf(ErrDeviceTimeout, "acquire after %s", r.waitTimeout))
	case err != nil:
		return r.fail(op, errors.Wrap(err, "acquire swapchain image"))
	}
	Logger().Debug("swapchain image acquired", "frame", r.current, "image", index)

	if err := r.copyToSwapchain(slot, target, index); err != nil {
		return r.fail(op, err)
	}

	suboptimal, err := sc.Present(index, []gpu.Semaphore{slot.swapchainUpdated})
	r.state = StatePresented
	switch {
	case errors.Is(err, gpu.ErrOutOfDate):
		return r.dropFrame(op, "present reported out of date")
	case err != nil:
		return r.fail(op, errors.Wrap(err, "present"))
	case suboptimal:
		return r.dropFrame(op, "present reported suboptimal")
	case r.resized.Load():
		return r.dropFrame(op, "window resized")
	}

	r.stats.FramesPresented++
	r.stats.FrameTime = hrtime.Since(r.frameStart)
	r.current = (r.current + 1) % MaxFramesInFlight
	r.state = StateIdle
	return nil
}

// copyToSwapchain blits the color target into swapchain image index. The
// copy waits for the acquire and the frame's rendering and signals
// swapchainUpdated; afterwards the swapchain image is ready to present and
// the target is back in ColorAttachment layout.
func (r *Renderer) copyToSwapchain(slot *frameSlot, target *Target, index uint32) error {
	dst := r.surface.Image(index)
	src := target.Image
	err := r.submitOnceSync(func(cmd gpu.CommandBuffer) error {
		cmd.PipelineBarrier(
			mustTransition(dst, gpu.LayoutUndefined, gpu.LayoutTransferDst, 0, 1),
			mustTransition(src, gpu.LayoutColorAttachment, gpu.LayoutTransferSrc, 0, 1),
		)
		cmd.BlitImage(src, gpu.LayoutTransferSrc, dst, gpu.LayoutTransferDst, gpu.BlitRegion{
			SrcSize: src.Extent(),
			DstSize: dst.Extent(),
		}, gpu.FilterLinear)
		return nil
	}, []gpu.SemaphoreWait{
		{Semaphore: slot.imageAcquired, Stage: gpu.StageTransfer},
		{Semaphore: slot.renderFinished, Stage: gpu.StageTransfer},
	}, []gpu.Semaphore{slot.swapchainUpdated})
	if err != nil {
		return errors.Wrap(err, "copy to swapchain")
	}

	err = r.submitOnce(func(cmd gpu.CommandBuffer) error {
		cmd.PipelineBarrier(
			mustTransition(dst, gpu.LayoutTransferDst, gpu.LayoutPresentSrc, 0, 1),
			mustTransition(src, gpu.LayoutTransferSrc, gpu.LayoutColorAttachment, 0, 1),
		)
		return nil
	})
	return errors.Wrap(err, "restore layouts after copy")
}

// dropFrame abandons the current frame and rebuilds the surface.
func (r *Renderer) dropFrame(op, reason string) error {
	Logger().Warn("frame dropped", "frame", r.current, "reason", reason)
	if err := r.rebuild(); err != nil {
		return r.fail(op, err)
	}
	// Resizes reported while the rebuild waited for a drawable size are
	// already reflected in the new extent.
	r.resized.Store(false)
	r.stats.FramesDropped++
	r.state = StateIdle
	return nil
}

// rebuild recreates the swapchain, the frame semaphores and every surface
// sized target once the device is idle.
func (r *Renderer) rebuild() error {
	if err := r.dev.WaitIdle(); err != nil {
		return errors.Wrap(err, "wait for device idle")
	}
	r.surface.destroy()
	if err := r.surface.build(); err != nil {
		return errors.Wrap(err, "rebuild surface")
	}
	for i, s := range r.slots {
		if err := s.resetSemaphores(r.dev); err != nil {
			return errors.Wrapf(err, "frame slot %d", i)
		}
	}
	if err := r.rebuildTargets(); err != nil {
		return err
	}
	r.stats.Rebuilds++
	Logger().Info("surface rebuilt", "extent", r.surface.Extent(), "rebuilds", r.stats.Rebuilds)
	return nil
}
