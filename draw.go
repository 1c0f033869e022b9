package vkframe

import (
	"github.com/loov/hrtime"
	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// StartDraw waits until the GPU finished the frame last recorded in the
// current slot, then begins recording into the slot's command buffer.
//
// The wait is bounded by Config.WaitTimeout; expiry is fatal and matches
// ErrDeviceTimeout.
func (r *Renderer) StartDraw() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "StartDraw"
	if err := r.checkState(op, StateIdle); err != nil {
		return err
	}
	r.frameStart = hrtime.Now()
	slot := r.slots[r.current]

	if err := r.dev.WaitForFence(slot.inFlight, r.waitTimeout); err != nil {
		if errors.Is(err, gpu.ErrTimeout) {
			err = errors.Wrapf(ErrDeviceTimeout, "frame %d fence after %s", r.current, r.waitTimeout)
		}
		return r.fail(op, err)
	}
	r.stats.FenceWait = hrtime.Since(r.frameStart)
	Logger().Debug("frame fence signaled", "frame", r.current, "wait", r.stats.FenceWait)

	if err := r.dev.ResetFence(slot.inFlight); err != nil {
		return r.fail(op, errors.Wrap(err, "reset in-flight fence"))
	}
	if err := slot.cmd.Reset(); err != nil {
		return r.fail(op, errors.Wrap(err, "reset frame command buffer"))
	}
	if err := slot.cmd.Begin(false); err != nil {
		return r.fail(op, errors.Wrap(err, "begin frame command buffer"))
	}
	r.state = StateRecording
	return nil
}

// StartRendering begins a render scope writing every color target and,
// unless depth is NoHandle, the depth target. Targets are cleared with the
// configured values. The render area is the extent of the first color
// target; all targets are expected to share it.
func (r *Renderer) StartRendering(colors []Handle, depth Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "StartRendering"
	if err := r.checkState(op, StateRecording); err != nil {
		return err
	}
	if len(colors) == 0 {
		return programmerError(op, ErrNoColorTargets)
	}

	info := gpu.RenderingInfo{Colors: make([]gpu.ColorAttachment, 0, len(colors))}
	scope := renderScope{colorFormats: make([]gpu.Format, 0, len(colors)), depthFormat: gpu.FormatUndefined}
	for _, h := range colors {
		t, err := r.colorTargets.Get(h)
		if err != nil {
			return programmerError(op, errors.Wrap(err, "color target"))
		}
		info.Colors = append(info.Colors, gpu.ColorAttachment{Image: t.Image, Clear: r.clearColor})
		scope.colorFormats = append(scope.colorFormats, t.Format)
	}
	if depth != NoHandle {
		t, err := r.depthTargets.Get(depth)
		if err != nil {
			return programmerError(op, errors.Wrap(err, "depth target"))
		}
		info.Depth = &gpu.DepthAttachment{Image: t.Image, ClearDepth: r.clearDepth}
		scope.depthFormat = t.Format
	}
	info.Area = gpu.Rect2D{Extent: info.Colors[0].Image.Extent()}

	if err := r.slots[r.current].cmd.BeginRendering(info); err != nil {
		return r.fail(op, errors.Wrap(err, "begin rendering"))
	}
	r.scope = scope
	r.state = StateRendering
	return nil
}

// BindPipeline binds a pipeline built for the formats of the active render
// scope.
func (r *Renderer) BindPipeline(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "BindPipeline"
	if err := r.checkState(op, StateRendering); err != nil {
		return err
	}
	p, err := r.pipelines.Get(h)
	if err != nil {
		return programmerError(op, err)
	}
	if !p.compatible(r.scope.colorFormats, r.scope.depthFormat) {
		return programmerError(op, errors.Wrapf(ErrIncompatiblePipeline,
			"pipeline %s renders to %v/%s, scope has %v/%s",
			h, p.ColorFormats, p.DepthFormat, r.scope.colorFormats, r.scope.depthFormat))
	}
	r.slots[r.current].cmd.BindPipeline(p.Native)
	return nil
}

// BindDescriptor binds sets starting at firstSet using the layout of the
// given pipeline.
func (r *Renderer) BindDescriptor(pipeline Handle, firstSet uint32, sets ...gpu.DescriptorSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "BindDescriptor"
	if err := r.checkState(op, StateRendering); err != nil {
		return err
	}
	p, err := r.pipelines.Get(pipeline)
	if err != nil {
		return programmerError(op, err)
	}
	if len(sets) == 0 {
		return programmerError(op, errors.Wrap(ErrInvalidDescription, "no descriptor sets"))
	}
	if int(firstSet)+len(sets) > len(p.Descriptors) {
		return programmerError(op, errors.Wrapf(ErrInvalidDescription,
			"sets %d..%d exceed the %d the pipeline declares", firstSet, int(firstSet)+len(sets)-1, len(p.Descriptors)))
	}
	r.slots[r.current].cmd.BindDescriptorSets(p.Native, firstSet, sets)
	return nil
}

// PushConstant writes data at offset 0 of the pipeline's push constant
// range for stages.
func (r *Renderer) PushConstant(pipeline Handle, stages gpu.ShaderStage, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "PushConstant"
	if err := r.checkState(op, StateRendering); err != nil {
		return err
	}
	p, err := r.pipelines.Get(pipeline)
	if err != nil {
		return programmerError(op, err)
	}
	if _, ok := p.pushRange(stages, uint32(len(data))); !ok || len(data) == 0 {
		return programmerError(op, errors.Wrapf(ErrInvalidDescription,
			"%d bytes for stages %d fit no push constant range of pipeline %s", len(data), stages, pipeline))
	}
	r.slots[r.current].cmd.PushConstants(p.Native, stages, 0, data)
	return nil
}

func (r *Renderer) SetViewport(v gpu.Viewport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkState("SetViewport", StateRendering); err != nil {
		return err
	}
	r.slots[r.current].cmd.SetViewport(v)
	return nil
}

func (r *Renderer) SetScissor(rect gpu.Rect2D) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkState("SetScissor", StateRendering); err != nil {
		return err
	}
	r.slots[r.current].cmd.SetScissor(rect)
	return nil
}

// DrawMesh binds the mesh buffers and draws every index once.
func (r *Renderer) DrawMesh(h Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "DrawMesh"
	if err := r.checkState(op, StateRendering); err != nil {
		return err
	}
	m, err := r.meshes.Get(h)
	if err != nil {
		return programmerError(op, err)
	}
	cmd := r.slots[r.current].cmd
	cmd.BindVertexBuffer(m.VertexBuffer)
	cmd.BindIndexBuffer(m.IndexBuffer, gpu.IndexUint32)
	cmd.DrawIndexed(m.IndexCount, 1)
	return nil
}

// EndRendering closes the render scope. Nothing is submitted yet.
func (r *Renderer) EndRendering() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkState("EndRendering", StateRendering); err != nil {
		return err
	}
	r.slots[r.current].cmd.EndRendering()
	r.scope = renderScope{}
	r.state = StateRecorded
	return nil
}
