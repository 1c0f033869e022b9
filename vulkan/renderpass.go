package vulkan

import (
	"fmt"
	"slices"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

// passCache holds one render pass per attachment format set and the
// framebuffers built against them. Attachments enter and leave a pass in
// their attachment optimal layout and are cleared on load.
type passCache struct {
	device       *Device
	passes       map[string]vk.RenderPass
	framebuffers map[string]*framebuffer
}

type framebuffer struct {
	vk    vk.Framebuffer
	views []vk.ImageView
}

func newPassCache(d *Device) *passCache {
	return &passCache{
		device:       d,
		passes:       make(map[string]vk.RenderPass),
		framebuffers: make(map[string]*framebuffer),
	}
}

func passKey(colors []gpu.Format, depth gpu.Format) string {
	return fmt.Sprint(colors, depth)
}

// renderPass returns the render pass for the given attachment formats,
// creating it on first use.
func (c *passCache) renderPass(colors []gpu.Format, depth gpu.Format) (vk.RenderPass, error) {
	key := passKey(colors, depth)
	if rp, ok := c.passes[key]; ok {
		return rp, nil
	}

	var attachments []vk.AttachmentDescription
	var colorRefs []vk.AttachmentReference
	for i, f := range colors {
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         vkFormat(f),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		})
		colorRefs = append(colorRefs, vk.AttachmentReference{
			Attachment: uint32(i),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		})
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorRefs)),
		PColorAttachments:    colorRefs,
	}
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)
	access := vk.AccessFlags(vk.AccessColorAttachmentReadBit | vk.AccessColorAttachmentWriteBit)
	if depth != gpu.FormatUndefined {
		stencilLoad := vk.AttachmentLoadOpDontCare
		if depth.HasStencil() {
			stencilLoad = vk.AttachmentLoadOpClear
		}
		attachments = append(attachments, vk.AttachmentDescription{
			Format:         vkFormat(depth),
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  stencilLoad,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: uint32(len(colors)),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
		stages |= vk.PipelineStageFlags(vk.PipelineStageEarlyFragmentTestsBit | vk.PipelineStageLateFragmentTestsBit)
		access |= vk.AccessFlags(vk.AccessDepthStencilAttachmentReadBit | vk.AccessDepthStencilAttachmentWriteBit)
	}

	var rp vk.RenderPass
	err := newError("create render pass", vk.CreateRenderPass(c.device.VKDevice, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies: []vk.SubpassDependency{{
			SrcSubpass:    vk.SubpassExternal,
			DstSubpass:    0,
			SrcStageMask:  stages,
			DstStageMask:  stages,
			DstAccessMask: access,
		}},
	}, nil, &rp))
	if err != nil {
		return vk.NullRenderPass, err
	}
	c.passes[key] = rp
	return rp, nil
}

// framebuffer returns a framebuffer over views for rp, creating it on
// first use.
func (c *passCache) framebuffer(rp vk.RenderPass, views []vk.ImageView, extent gpu.Extent2D) (vk.Framebuffer, error) {
	key := fmt.Sprint(rp, views, extent)
	if fb, ok := c.framebuffers[key]; ok {
		return fb.vk, nil
	}
	var fb vk.Framebuffer
	err := newError("create framebuffer", vk.CreateFramebuffer(c.device.VKDevice, &vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      rp,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           extent.Width,
		Height:          extent.Height,
		Layers:          1,
	}, nil, &fb))
	if err != nil {
		return vk.NullFramebuffer, err
	}
	c.framebuffers[key] = &framebuffer{vk: fb, views: slices.Clone(views)}
	return fb, nil
}

// dropView destroys every framebuffer that references view.
func (c *passCache) dropView(view vk.ImageView) {
	for key, fb := range c.framebuffers {
		if slices.Contains(fb.views, view) {
			vk.DestroyFramebuffer(c.device.VKDevice, fb.vk, nil)
			delete(c.framebuffers, key)
		}
	}
}

func (c *passCache) destroy() {
	for key, fb := range c.framebuffers {
		vk.DestroyFramebuffer(c.device.VKDevice, fb.vk, nil)
		delete(c.framebuffers, key)
	}
	for key, rp := range c.passes {
		vk.DestroyRenderPass(c.device.VKDevice, rp, nil)
		delete(c.passes, key)
	}
}
