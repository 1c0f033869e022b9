package gputest

import (
	"fmt"
	"strings"

	"github.com/celer/vkframe/gpu"
)

// CommandBuffer logs every recorded command to its device as "cmd <op> ...".
type CommandBuffer struct {
	dev       *Device
	name      string
	recording bool
}

func (c *CommandBuffer) String() string { return c.name }

func (c *CommandBuffer) record(format string, args ...interface{}) {
	if !c.recording {
		c.dev.violation("%s: %s recorded outside Begin/End", c.name, fmt.Sprintf(format, args...))
	}
	c.dev.logf("cmd "+format, args...)
}

func (c *CommandBuffer) Reset() error {
	c.recording = false
	c.dev.logf("reset %s", c.name)
	return nil
}

func (c *CommandBuffer) Begin(oneTime bool) error {
	if c.recording {
		c.dev.violation("%s begun twice", c.name)
	}
	c.recording = true
	c.dev.logf("begin %s one_time=%v", c.name, oneTime)
	return nil
}

func (c *CommandBuffer) End() error {
	if !c.recording {
		c.dev.violation("%s ended without Begin", c.name)
	}
	c.recording = false
	c.dev.logf("end %s", c.name)
	return nil
}

func (c *CommandBuffer) PipelineBarrier(barriers ...gpu.ImageBarrier) {
	for _, b := range barriers {
		c.record("barrier %v %s->%s mips=%d+%d", b.Image, b.OldLayout, b.NewLayout, b.BaseMip, b.MipCount)
	}
}

func (c *CommandBuffer) BlitImage(src gpu.Image, srcLayout gpu.ImageLayout, dst gpu.Image, dstLayout gpu.ImageLayout, region gpu.BlitRegion, filter gpu.Filter) {
	if srcLayout != gpu.LayoutTransferSrc || dstLayout != gpu.LayoutTransferDst {
		c.dev.violation("blit %v->%v with layouts %s/%s", src, dst, srcLayout, dstLayout)
	}
	c.record("blit %v[%d] %s -> %v[%d] %s", src, region.SrcMip, region.SrcSize, dst, region.DstMip, region.DstSize)
}

func (c *CommandBuffer) CopyBuffer(src, dst gpu.Buffer, size uint64) {
	c.record("copy_buffer %v -> %v %d", src, dst, size)
}

func (c *CommandBuffer) CopyBufferToImage(src gpu.Buffer, dst gpu.Image, layout gpu.ImageLayout) {
	c.record("copy_buffer_to_image %v -> %v %s", src, dst, layout)
}

func (c *CommandBuffer) BeginRendering(info gpu.RenderingInfo) error {
	colors := make([]string, len(info.Colors))
	for i, a := range info.Colors {
		colors[i] = fmt.Sprint(a.Image)
	}
	depth := "none"
	if info.Depth != nil {
		depth = fmt.Sprint(info.Depth.Image)
	}
	c.record("begin_rendering colors=[%s] depth=%s area=%s", strings.Join(colors, ","), depth, info.Area.Extent)
	return nil
}

func (c *CommandBuffer) EndRendering() {
	c.record("end_rendering")
}

func (c *CommandBuffer) BindPipeline(p gpu.Pipeline) {
	c.record("bind_pipeline %v", p)
}

func (c *CommandBuffer) BindDescriptorSets(p gpu.Pipeline, firstSet uint32, sets []gpu.DescriptorSet) {
	c.record("bind_descriptor_sets %v first=%d count=%d", p, firstSet, len(sets))
}

func (c *CommandBuffer) PushConstants(p gpu.Pipeline, stages gpu.ShaderStage, offset uint32, data []byte) {
	c.record("push_constants %v stages=%d offset=%d size=%d", p, stages, offset, len(data))
}

func (c *CommandBuffer) SetViewport(v gpu.Viewport) {
	c.record("set_viewport %gx%g", v.Width, v.Height)
}

func (c *CommandBuffer) SetScissor(r gpu.Rect2D) {
	c.record("set_scissor %s", r.Extent)
}

func (c *CommandBuffer) BindVertexBuffer(b gpu.Buffer) {
	c.record("bind_vertex_buffer %v", b)
}

func (c *CommandBuffer) BindIndexBuffer(b gpu.Buffer, t gpu.IndexType) {
	c.record("bind_index_buffer %v", b)
}

func (c *CommandBuffer) DrawIndexed(indexCount, instanceCount uint32) {
	c.record("draw_indexed %d %d", indexCount, instanceCount)
}
