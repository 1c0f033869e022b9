package vkframe

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// PipelineDesc describes a graphics pipeline in terms of registered
// resources.
type PipelineDesc struct {
	// VertexShader and FragmentShader are SPIR-V file paths.
	VertexShader   string
	FragmentShader string
	// Vertex defaults to VertexLayout.
	Vertex *gpu.VertexLayout
	// Descriptors are descriptor handles in set order.
	Descriptors   []Handle
	PushConstants []gpu.PushConstantRange
	// ColorTargets and DepthTarget name the targets the pipeline renders
	// into. Their formats are captured now: a pipeline must be recreated
	// after a target it was built for changes format.
	ColorTargets []Handle
	DepthTarget  Handle
	CullMode     gpu.CullMode
	Label        string
}

// Pipeline is a graphics pipeline with the attachment formats it was built
// for.
type Pipeline struct {
	Native        gpu.Pipeline
	ColorFormats  []gpu.Format
	DepthFormat   gpu.Format
	PushConstants []gpu.PushConstantRange
	Descriptors   []Handle
}

func (p *Pipeline) destroy() {
	if p.Native != nil {
		p.Native.Destroy()
	}
}

// compatible reports whether the pipeline renders into attachments of the
// given formats.
func (p *Pipeline) compatible(colors []gpu.Format, depth gpu.Format) bool {
	return slices.Equal(p.ColorFormats, colors) && p.DepthFormat == depth
}

// pushRange returns the declared range covering size bytes at offset 0 for
// the given stages.
func (p *Pipeline) pushRange(stages gpu.ShaderStage, size uint32) (gpu.PushConstantRange, bool) {
	for _, pc := range p.PushConstants {
		if pc.Contains(stages, 0, size) {
			return pc, true
		}
	}
	return gpu.PushConstantRange{}, false
}

// NewPipeline creates a graphics pipeline.
func (r *Renderer) NewPipeline(desc PipelineDesc) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "NewPipeline"
	if err := r.checkCreate(op); err != nil {
		return NoHandle, err
	}

	native, p, err := r.resolvePipeline(desc)
	if err != nil {
		return NoHandle, creationError(op, err)
	}
	if p.Native, err = r.dev.CreatePipeline(native); err != nil {
		return NoHandle, r.deviceError(op, errors.Wrap(err, "create pipeline"))
	}
	h := r.pipelines.Insert(p)
	Logger().Debug("pipeline created", "handle", h, "label", desc.Label, "colors", p.ColorFormats, "depth", p.DepthFormat)
	return h, nil
}

func (r *Renderer) resolvePipeline(desc PipelineDesc) (gpu.PipelineDesc, *Pipeline, error) {
	if desc.VertexShader == "" || desc.FragmentShader == "" {
		return gpu.PipelineDesc{}, nil, errors.Wrap(ErrInvalidDescription, "pipeline needs a vertex and a fragment shader")
	}
	if len(desc.ColorTargets) == 0 {
		return gpu.PipelineDesc{}, nil, errors.Wrap(ErrNoColorTargets, "pipeline")
	}
	for _, pc := range desc.PushConstants {
		if pc.Size == 0 || pc.Stages == 0 {
			return gpu.PipelineDesc{}, nil, errors.Wrapf(ErrInvalidDescription, "empty push constant range %+v", pc)
		}
	}

	p := &Pipeline{
		DepthFormat:   gpu.FormatUndefined,
		PushConstants: slices.Clone(desc.PushConstants),
		Descriptors:   slices.Clone(desc.Descriptors),
	}
	for _, h := range desc.ColorTargets {
		t, err := r.colorTargets.Get(h)
		if err != nil {
			return gpu.PipelineDesc{}, nil, errors.Wrap(err, "color target")
		}
		p.ColorFormats = append(p.ColorFormats, t.Format)
	}
	if desc.DepthTarget != NoHandle {
		t, err := r.depthTargets.Get(desc.DepthTarget)
		if err != nil {
			return gpu.PipelineDesc{}, nil, errors.Wrap(err, "depth target")
		}
		p.DepthFormat = t.Format
	}
	groups := make([]gpu.DescriptorGroup, 0, len(desc.Descriptors))
	for _, h := range desc.Descriptors {
		d, err := r.descriptors.Get(h)
		if err != nil {
			return gpu.PipelineDesc{}, nil, errors.Wrap(err, "descriptor")
		}
		groups = append(groups, d.Group)
	}
	vertex := VertexLayout
	if desc.Vertex != nil {
		vertex = *desc.Vertex
	}

	return gpu.PipelineDesc{
		VertexShader:   desc.VertexShader,
		FragmentShader: desc.FragmentShader,
		Vertex:         vertex,
		Descriptors:    groups,
		PushConstants:  p.PushConstants,
		ColorFormats:   p.ColorFormats,
		DepthFormat:    p.DepthFormat,
		CullMode:       desc.CullMode,
		Label:          desc.Label,
	}, p, nil
}
