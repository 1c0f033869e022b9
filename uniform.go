package vkframe

import (
	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// UniformBufferDesc describes a uniform buffer and the descriptor binding
// exposing it.
type UniformBufferDesc struct {
	Size    uint64
	Binding uint32
	// Stages defaults to the vertex stage.
	Stages gpu.ShaderStage
	Label  string
}

// UniformBuffer is a host visible buffer per frame in flight, so a frame
// can be written while the previous one is still read by the GPU.
type UniformBuffer struct {
	Buffers    []gpu.Buffer
	Size       uint64
	Descriptor Handle
}

func (u *UniformBuffer) destroy() {
	for _, b := range u.Buffers {
		b.Destroy()
	}
}

// NewUniformBuffer creates the per frame buffers and registers a uniform
// buffer descriptor pointing each set at its frame's buffer.
func (r *Renderer) NewUniformBuffer(desc UniformBufferDesc) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "NewUniformBuffer"
	if err := r.checkCreate(op); err != nil {
		return NoHandle, err
	}
	if desc.Size == 0 {
		return NoHandle, creationError(op, errors.Wrap(ErrInvalidDescription, "uniform buffer size is zero"))
	}
	stages := desc.Stages
	if stages == 0 {
		stages = gpu.ShaderStageVertex
	}

	ub := &UniformBuffer{Size: desc.Size}
	for i := 0; i < MaxFramesInFlight; i++ {
		b, err := r.dev.CreateBuffer(gpu.BufferDesc{
			Size:        desc.Size,
			Usage:       gpu.BufferUsageUniform,
			HostVisible: true,
			Label:       desc.Label,
		})
		if err != nil {
			ub.destroy()
			return NoHandle, r.deviceError(op, errors.Wrap(err, "create uniform buffer"))
		}
		ub.Buffers = append(ub.Buffers, b)
	}
	d, err := r.newDescriptorGroup(gpu.DescriptorBinding{
		Binding: desc.Binding,
		Type:    gpu.DescriptorUniformBuffer,
		Stages:  stages,
		Count:   1,
	})
	if err != nil {
		ub.destroy()
		return NoHandle, r.deviceError(op, err)
	}
	for i, b := range ub.Buffers {
		if err := d.Group.WriteBuffer(i, desc.Binding, b); err != nil {
			d.destroy()
			ub.destroy()
			return NoHandle, r.deviceError(op, errors.Wrap(err, "write uniform descriptor"))
		}
	}
	ub.Descriptor = r.descriptors.Insert(d)
	return r.uniforms.Insert(ub), nil
}

// UpdateUniformBuffer writes data at the start of the current frame's
// buffer. It must be called between StartDraw and EndDraw: only then has
// the GPU finished reading the buffer for the slot's previous frame.
func (r *Renderer) UpdateUniformBuffer(h Handle, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "UpdateUniformBuffer"
	if err := r.checkUsable(op); err != nil {
		return err
	}
	switch r.state {
	case StateRecording, StateRendering, StateRecorded:
	default:
		return programmerError(op, errors.Wrapf(ErrInvalidState, "uniform buffers are written after StartDraw, not in state %s", r.state))
	}
	ub, err := r.uniforms.Get(h)
	if err != nil {
		return programmerError(op, err)
	}
	if uint64(len(data)) > ub.Size {
		return programmerError(op, errors.Wrapf(ErrInvalidDescription, "%d bytes exceed uniform buffer size %d", len(data), ub.Size))
	}
	if err := ub.Buffers[r.current].Write(0, data); err != nil {
		return r.deviceError(op, err)
	}
	return nil
}
