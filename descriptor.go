package vkframe

import (
	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// Descriptor is a single binding set layout with one set per frame in
// flight.
type Descriptor struct {
	Group   gpu.DescriptorGroup
	Binding gpu.DescriptorBinding
}

// Set returns the descriptor set used by the given frame slot.
func (d *Descriptor) Set(frame int) gpu.DescriptorSet {
	return d.Group.Sets()[frame%MaxFramesInFlight]
}

func (d *Descriptor) destroy() {
	if d.Group != nil {
		d.Group.Destroy()
	}
}

func validateBinding(b gpu.DescriptorBinding) error {
	if b.Stages == 0 {
		return errors.Wrapf(ErrInvalidDescription, "binding %d has no shader stages", b.Binding)
	}
	switch b.Type {
	case gpu.DescriptorUniformBuffer, gpu.DescriptorCombinedImageSampler, gpu.DescriptorStorageBuffer:
	default:
		return errors.Wrapf(ErrInvalidDescription, "binding %d has unknown type %s", b.Binding, b.Type)
	}
	return nil
}

func (r *Renderer) newDescriptorGroup(b gpu.DescriptorBinding) (*Descriptor, error) {
	if b.Count == 0 {
		b.Count = 1
	}
	g, err := r.dev.CreateDescriptorGroup([]gpu.DescriptorBinding{b}, MaxFramesInFlight)
	if err != nil {
		return nil, errors.Wrap(err, "create descriptor group")
	}
	return &Descriptor{Group: g, Binding: b}, nil
}

// NewDescriptor creates a descriptor for one binding. Its sets are written
// by the caller through Descriptor.Group.
func (r *Renderer) NewDescriptor(binding gpu.DescriptorBinding) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "NewDescriptor"
	if err := r.checkCreate(op); err != nil {
		return NoHandle, err
	}
	if err := validateBinding(binding); err != nil {
		return NoHandle, creationError(op, err)
	}
	d, err := r.newDescriptorGroup(binding)
	if err != nil {
		return NoHandle, r.deviceError(op, err)
	}
	return r.descriptors.Insert(d), nil
}
