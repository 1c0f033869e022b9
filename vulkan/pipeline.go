package vulkan

import (
	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

// Pipeline is a graphics pipeline and its layout. It renders into the
// render pass the pass cache keeps for its attachment formats, with the
// viewport and scissor set while recording.
type Pipeline struct {
	Device     *Device
	VKPipeline vk.Pipeline
	Label      string

	layout vk.PipelineLayout
}

var _ gpu.Pipeline = (*Pipeline)(nil)

// pipelineConfig collects the fixed function state of a graphics pipeline.
type pipelineConfig struct {
	stages     []vk.PipelineShaderStageCreateInfo
	bindings   []vk.VertexInputBindingDescription
	attributes []vk.VertexInputAttributeDescription
	blends     []vk.PipelineColorBlendAttachmentState
	dynamic    []vk.DynamicState

	topology  vk.PrimitiveTopology
	polygon   vk.PolygonMode
	cullMode  vk.CullModeFlagBits
	frontFace vk.FrontFace
	depth     bool
}

func newPipelineConfig(desc gpu.PipelineDesc) *pipelineConfig {
	c := &pipelineConfig{
		topology:  vk.PrimitiveTopologyTriangleList,
		polygon:   vk.PolygonModeFill,
		cullMode:  vkCullMode(desc.CullMode),
		frontFace: vk.FrontFaceCounterClockwise,
		depth:     desc.DepthFormat != gpu.FormatUndefined,
		dynamic:   []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor},
	}
	if desc.Vertex.Stride > 0 {
		c.bindings = []vk.VertexInputBindingDescription{{
			Binding:   0,
			Stride:    desc.Vertex.Stride,
			InputRate: vk.VertexInputRateVertex,
		}}
		for _, a := range desc.Vertex.Attributes {
			c.attributes = append(c.attributes, vk.VertexInputAttributeDescription{
				Location: a.Location,
				Binding:  0,
				Format:   vkFormat(a.Format),
				Offset:   a.Offset,
			})
		}
	}
	for range desc.ColorFormats {
		c.blends = append(c.blends, vk.PipelineColorBlendAttachmentState{
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
			BlendEnable:    vk.False,
		})
	}
	return c
}

func (c *pipelineConfig) createInfo(layout vk.PipelineLayout, rp vk.RenderPass) vk.GraphicsPipelineCreateInfo {
	return vk.GraphicsPipelineCreateInfo{
		SType:      vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount: uint32(len(c.stages)),
		PStages:    c.stages,
		PVertexInputState: &vk.PipelineVertexInputStateCreateInfo{
			SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
			VertexBindingDescriptionCount:   uint32(len(c.bindings)),
			PVertexBindingDescriptions:      c.bindings,
			VertexAttributeDescriptionCount: uint32(len(c.attributes)),
			PVertexAttributeDescriptions:    c.attributes,
		},
		PInputAssemblyState: &vk.PipelineInputAssemblyStateCreateInfo{
			SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
			Topology:               c.topology,
			PrimitiveRestartEnable: vk.False,
		},
		PViewportState: &vk.PipelineViewportStateCreateInfo{
			SType:         vk.StructureTypePipelineViewportStateCreateInfo,
			ViewportCount: 1,
			ScissorCount:  1,
		},
		PRasterizationState: &vk.PipelineRasterizationStateCreateInfo{
			SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
			DepthClampEnable:        vk.False,
			RasterizerDiscardEnable: vk.False,
			PolygonMode:             c.polygon,
			CullMode:                vk.CullModeFlags(c.cullMode),
			FrontFace:               c.frontFace,
			DepthBiasEnable:         vk.False,
			LineWidth:               1,
		},
		PMultisampleState: &vk.PipelineMultisampleStateCreateInfo{
			SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
			RasterizationSamples: vk.SampleCount1Bit,
			SampleShadingEnable:  vk.False,
		},
		PDepthStencilState: &vk.PipelineDepthStencilStateCreateInfo{
			SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
			DepthTestEnable:       bool32(c.depth),
			DepthWriteEnable:      bool32(c.depth),
			DepthCompareOp:        vk.CompareOpLess,
			DepthBoundsTestEnable: vk.False,
			MaxDepthBounds:        1,
			StencilTestEnable:     vk.False,
		},
		PColorBlendState: &vk.PipelineColorBlendStateCreateInfo{
			SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
			AttachmentCount: uint32(len(c.blends)),
			PAttachments:    c.blends,
		},
		PDynamicState: &vk.PipelineDynamicStateCreateInfo{
			SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
			DynamicStateCount: uint32(len(c.dynamic)),
			PDynamicStates:    c.dynamic,
		},
		Layout:     layout,
		RenderPass: rp,
		Subpass:    0,
	}
}

func (d *Device) createPipelineLayout(groups []gpu.DescriptorGroup, push []gpu.PushConstantRange) (vk.PipelineLayout, error) {
	setLayouts := make([]vk.DescriptorSetLayout, len(groups))
	for i, g := range groups {
		setLayouts[i] = g.(*DescriptorGroup).VKDescriptorSetLayout
	}
	ranges := make([]vk.PushConstantRange, len(push))
	for i, r := range push {
		ranges[i] = vk.PushConstantRange{
			StageFlags: vkShaderStages(r.Stages),
			Offset:     r.Offset,
			Size:       r.Size,
		}
	}
	var layout vk.PipelineLayout
	err := newError("create pipeline layout", vk.CreatePipelineLayout(d.VKDevice, &vk.PipelineLayoutCreateInfo{
		SType:                  vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount:         uint32(len(setLayouts)),
		PSetLayouts:            setLayouts,
		PushConstantRangeCount: uint32(len(ranges)),
		PPushConstantRanges:    ranges,
	}, nil, &layout))
	return layout, err
}

func (d *Device) CreatePipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	if len(desc.ColorFormats) == 0 && desc.DepthFormat == gpu.FormatUndefined {
		return nil, errors.Errorf("pipeline %q has no attachments", desc.Label)
	}
	cfg := newPipelineConfig(desc)

	vert, err := d.LoadShaderModule(desc.VertexShader)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %q", desc.Label)
	}
	defer vert.Destroy()
	frag, err := d.LoadShaderModule(desc.FragmentShader)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %q", desc.Label)
	}
	defer frag.Destroy()
	cfg.stages = []vk.PipelineShaderStageCreateInfo{
		vert.stage(vk.ShaderStageVertexBit),
		frag.stage(vk.ShaderStageFragmentBit),
	}

	rp, err := d.passes.renderPass(desc.ColorFormats, desc.DepthFormat)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %q", desc.Label)
	}
	layout, err := d.createPipelineLayout(desc.Descriptors, desc.PushConstants)
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline %q", desc.Label)
	}

	pipelines := make([]vk.Pipeline, 1)
	err = newError("create graphics pipeline", vk.CreateGraphicsPipelines(d.VKDevice, d.pipelineCache, 1,
		[]vk.GraphicsPipelineCreateInfo{cfg.createInfo(layout, rp)}, nil, pipelines))
	if err != nil {
		vk.DestroyPipelineLayout(d.VKDevice, layout, nil)
		return nil, errors.Wrapf(err, "pipeline %q", desc.Label)
	}
	return &Pipeline{Device: d, VKPipeline: pipelines[0], Label: desc.Label, layout: layout}, nil
}

func (p *Pipeline) Destroy() {
	if p.VKPipeline == vk.NullPipeline {
		return
	}
	vk.DestroyPipeline(p.Device.VKDevice, p.VKPipeline, nil)
	vk.DestroyPipelineLayout(p.Device.VKDevice, p.layout, nil)
	p.VKPipeline = vk.NullPipeline
}
