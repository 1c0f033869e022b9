package vulkan

import (
	"unsafe"

	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

// CommandBuffer records commands for the device's queue. Rendering is
// recorded inside a render pass picked from the device's pass cache.
type CommandBuffer struct {
	device          *Device
	VKCommandBuffer vk.CommandBuffer
}

var _ gpu.CommandBuffer = (*CommandBuffer)(nil)

// VK returns the native command buffer.
func (c *CommandBuffer) VK() vk.CommandBuffer {
	return c.VKCommandBuffer
}

func (c *CommandBuffer) Reset() error {
	return newError("reset command buffer", vk.ResetCommandBuffer(c.VKCommandBuffer, 0))
}

// Begin starts recording. oneTime marks the buffer as submitted once
// before the next reset.
func (c *CommandBuffer) Begin(oneTime bool) error {
	info := vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}
	if oneTime {
		info.Flags = vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	return newError("begin command buffer", vk.BeginCommandBuffer(c.VKCommandBuffer, &info))
}

func (c *CommandBuffer) End() error {
	return newError("end command buffer", vk.EndCommandBuffer(c.VKCommandBuffer))
}

// PipelineBarrier records the image barriers as one dependency over the
// union of their stages.
func (c *CommandBuffer) PipelineBarrier(barriers ...gpu.ImageBarrier) {
	if len(barriers) == 0 {
		return
	}
	var src, dst gpu.PipelineStage
	vkBarriers := make([]vk.ImageMemoryBarrier, len(barriers))
	for i, b := range barriers {
		img := b.Image.(*Image)
		src |= b.SrcStage
		dst |= b.DstStage
		vkBarriers[i] = vk.ImageMemoryBarrier{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vkAccess(b.SrcAccess),
			DstAccessMask:       vkAccess(b.DstAccess),
			OldLayout:           vkLayout(b.OldLayout),
			NewLayout:           vkLayout(b.NewLayout),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               img.VKImage,
			SubresourceRange:    img.subresource(b.BaseMip, b.MipCount),
		}
	}
	vk.CmdPipelineBarrier(c.VKCommandBuffer, vkStages(src), vkStages(dst), 0,
		0, nil, 0, nil, uint32(len(vkBarriers)), vkBarriers)
}

func (c *CommandBuffer) BlitImage(src gpu.Image, srcLayout gpu.ImageLayout, dst gpu.Image, dstLayout gpu.ImageLayout, region gpu.BlitRegion, filter gpu.Filter) {
	s, d := src.(*Image), dst.(*Image)
	blit := vk.ImageBlit{
		SrcSubresource: s.layers(region.SrcMip),
		SrcOffsets: [2]vk.Offset3D{
			{},
			{X: int32(region.SrcSize.Width), Y: int32(region.SrcSize.Height), Z: 1},
		},
		DstSubresource: d.layers(region.DstMip),
		DstOffsets: [2]vk.Offset3D{
			{},
			{X: int32(region.DstSize.Width), Y: int32(region.DstSize.Height), Z: 1},
		},
	}
	vk.CmdBlitImage(c.VKCommandBuffer, s.VKImage, vkLayout(srcLayout), d.VKImage, vkLayout(dstLayout),
		1, []vk.ImageBlit{blit}, vkFilter(filter))
}

func (c *CommandBuffer) CopyBuffer(src, dst gpu.Buffer, size uint64) {
	s, d := src.(*Buffer), dst.(*Buffer)
	vk.CmdCopyBuffer(c.VKCommandBuffer, s.VKBuffer, d.VKBuffer, 1, []vk.BufferCopy{{
		SrcOffset: vk.DeviceSize(s.offset),
		DstOffset: vk.DeviceSize(d.offset),
		Size:      vk.DeviceSize(size),
	}})
}

// CopyBufferToImage fills mip level zero of dst from tightly packed texels
// in src.
func (c *CommandBuffer) CopyBufferToImage(src gpu.Buffer, dst gpu.Image, layout gpu.ImageLayout) {
	s, d := src.(*Buffer), dst.(*Image)
	vk.CmdCopyBufferToImage(c.VKCommandBuffer, s.VKBuffer, d.VKImage, vkLayout(layout), 1, []vk.BufferImageCopy{{
		BufferOffset:     vk.DeviceSize(s.offset),
		ImageSubresource: d.layers(0),
		ImageExtent: vk.Extent3D{
			Width:  d.extent.Width,
			Height: d.extent.Height,
			Depth:  1,
		},
	}})
}

func (c *CommandBuffer) BeginRendering(info gpu.RenderingInfo) error {
	var (
		formats []gpu.Format
		views   []vk.ImageView
		clears  []vk.ClearValue
	)
	for _, a := range info.Colors {
		img := a.Image.(*Image)
		if img.VKImageView == vk.NullImageView {
			return errors.Errorf("image %q has no view to render to", img.Label)
		}
		formats = append(formats, img.format)
		views = append(views, img.VKImageView)
		var cv vk.ClearValue
		cv.SetColor(a.Clear[:])
		clears = append(clears, cv)
	}
	depth := gpu.FormatUndefined
	if info.Depth != nil {
		img := info.Depth.Image.(*Image)
		if img.VKImageView == vk.NullImageView {
			return errors.Errorf("image %q has no view to render to", img.Label)
		}
		depth = img.format
		views = append(views, img.VKImageView)
		var cv vk.ClearValue
		cv.SetDepthStencil(info.Depth.ClearDepth, info.Depth.ClearStencil)
		clears = append(clears, cv)
	}

	rp, err := c.device.passes.renderPass(formats, depth)
	if err != nil {
		return err
	}
	fb, err := c.device.passes.framebuffer(rp, views, info.Area.Extent)
	if err != nil {
		return err
	}
	vk.CmdBeginRenderPass(c.VKCommandBuffer, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp,
		Framebuffer: fb,
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: info.Area.Offset.X, Y: info.Area.Offset.Y},
			Extent: vkExtent(info.Area.Extent),
		},
		ClearValueCount: uint32(len(clears)),
		PClearValues:    clears,
	}, vk.SubpassContentsInline)
	return nil
}

func (c *CommandBuffer) EndRendering() {
	vk.CmdEndRenderPass(c.VKCommandBuffer)
}

func (c *CommandBuffer) BindPipeline(p gpu.Pipeline) {
	vk.CmdBindPipeline(c.VKCommandBuffer, vk.PipelineBindPointGraphics, p.(*Pipeline).VKPipeline)
}

func (c *CommandBuffer) BindDescriptorSets(p gpu.Pipeline, firstSet uint32, sets []gpu.DescriptorSet) {
	if len(sets) == 0 {
		return
	}
	vkSets := make([]vk.DescriptorSet, len(sets))
	for i, s := range sets {
		vkSets[i] = s.(vk.DescriptorSet)
	}
	vk.CmdBindDescriptorSets(c.VKCommandBuffer, vk.PipelineBindPointGraphics, p.(*Pipeline).layout,
		firstSet, uint32(len(vkSets)), vkSets, 0, nil)
}

func (c *CommandBuffer) PushConstants(p gpu.Pipeline, stages gpu.ShaderStage, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(c.VKCommandBuffer, p.(*Pipeline).layout, vkShaderStages(stages),
		offset, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (c *CommandBuffer) SetViewport(v gpu.Viewport) {
	vk.CmdSetViewport(c.VKCommandBuffer, 0, 1, []vk.Viewport{{
		X:        v.X,
		Y:        v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}})
}

func (c *CommandBuffer) SetScissor(r gpu.Rect2D) {
	vk.CmdSetScissor(c.VKCommandBuffer, 0, 1, []vk.Rect2D{{
		Offset: vk.Offset2D{X: r.Offset.X, Y: r.Offset.Y},
		Extent: vkExtent(r.Extent),
	}})
}

func (c *CommandBuffer) BindVertexBuffer(b gpu.Buffer) {
	buf := b.(*Buffer)
	vk.CmdBindVertexBuffers(c.VKCommandBuffer, 0, 1, []vk.Buffer{buf.VKBuffer}, []vk.DeviceSize{vk.DeviceSize(buf.offset)})
}

func (c *CommandBuffer) BindIndexBuffer(b gpu.Buffer, t gpu.IndexType) {
	buf := b.(*Buffer)
	vk.CmdBindIndexBuffer(c.VKCommandBuffer, buf.VKBuffer, vk.DeviceSize(buf.offset), vkIndexType(t))
}

func (c *CommandBuffer) DrawIndexed(indexCount, instanceCount uint32) {
	vk.CmdDrawIndexed(c.VKCommandBuffer, indexCount, instanceCount, 0, 0, 0)
}
