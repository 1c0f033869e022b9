package gpu

import (
	"fmt"
	"strings"
)

// UndefinedExtent is the extent component a surface reports when the
// swapchain extent is decided by the application.
const UndefinedExtent = ^uint32(0)

// Extent2D is a size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether either dimension is zero, as happens for a
// minimized window.
func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent2D) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

type Offset2D struct {
	X int32
	Y int32
}

type Rect2D struct {
	Offset Offset2D
	Extent Extent2D
}

type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// FullViewport returns a viewport covering the extent with a [0,1] depth range.
func FullViewport(e Extent2D) Viewport {
	return Viewport{Width: float32(e.Width), Height: float32(e.Height), MaxDepth: 1}
}

// PresentMode trades tearing against latency.
type PresentMode uint32

const (
	PresentModeImmediate PresentMode = iota
	PresentModeMailbox
	PresentModeFifo
	PresentModeFifoRelaxed
)

var presentModeNames = map[PresentMode]string{
	PresentModeImmediate:   "immediate",
	PresentModeMailbox:     "mailbox",
	PresentModeFifo:        "fifo",
	PresentModeFifoRelaxed: "fifo_relaxed",
}

func (m PresentMode) String() string {
	if n, ok := presentModeNames[m]; ok {
		return n
	}
	return fmt.Sprintf("present_mode(%d)", uint32(m))
}

// ParsePresentMode returns the present mode with the given name.
func ParsePresentMode(name string) (PresentMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, n := range presentModeNames {
		if n == name {
			return m, nil
		}
	}
	return PresentModeFifo, fmt.Errorf("unknown present mode %q", name)
}

type ImageLayout uint32

const (
	LayoutUndefined ImageLayout = iota
	LayoutGeneral
	LayoutColorAttachment
	LayoutDepthStencilAttachment
	LayoutShaderReadOnly
	LayoutTransferSrc
	LayoutTransferDst
	LayoutPresentSrc
)

func (l ImageLayout) String() string {
	switch l {
	case LayoutUndefined:
		return "undefined"
	case LayoutGeneral:
		return "general"
	case LayoutColorAttachment:
		return "color_attachment"
	case LayoutDepthStencilAttachment:
		return "depth_stencil_attachment"
	case LayoutShaderReadOnly:
		return "shader_read_only"
	case LayoutTransferSrc:
		return "transfer_src"
	case LayoutTransferDst:
		return "transfer_dst"
	case LayoutPresentSrc:
		return "present_src"
	}
	return fmt.Sprintf("layout(%d)", uint32(l))
}

type ImageUsage uint32

const (
	ImageUsageTransferSrc ImageUsage = 1 << iota
	ImageUsageTransferDst
	ImageUsageSampled
	ImageUsageColorAttachment
	ImageUsageDepthStencilAttachment
)

type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 1 << iota
	BufferUsageTransferDst
	BufferUsageUniform
	BufferUsageVertex
	BufferUsageIndex
	BufferUsageStorage
)

// Aspect selects the color, depth or stencil part of an image.
type Aspect uint32

const (
	AspectColor Aspect = 1 << iota
	AspectDepth
	AspectStencil
)

type PipelineStage uint32

const (
	StageTopOfPipe PipelineStage = 1 << iota
	StageVertexShader
	StageEarlyFragmentTests
	StageFragmentShader
	StageLateFragmentTests
	StageColorAttachmentOutput
	StageTransfer
	StageBottomOfPipe
	StageAllCommands
)

type Access uint32

const (
	AccessShaderRead Access = 1 << iota
	AccessColorAttachmentRead
	AccessColorAttachmentWrite
	AccessDepthStencilRead
	AccessDepthStencilWrite
	AccessTransferRead
	AccessTransferWrite
	AccessMemoryRead
)

type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = 1 << iota
	ShaderStageFragment
	ShaderStageCompute

	ShaderStageAllGraphics = ShaderStageVertex | ShaderStageFragment
)

type DescriptorType uint32

const (
	DescriptorUniformBuffer DescriptorType = iota
	DescriptorCombinedImageSampler
	DescriptorStorageBuffer
)

func (t DescriptorType) String() string {
	switch t {
	case DescriptorUniformBuffer:
		return "uniform_buffer"
	case DescriptorCombinedImageSampler:
		return "combined_image_sampler"
	case DescriptorStorageBuffer:
		return "storage_buffer"
	}
	return fmt.Sprintf("descriptor_type(%d)", uint32(t))
}

type Filter uint32

const (
	FilterNearest Filter = iota
	FilterLinear
)

type IndexType uint32

const (
	IndexUint32 IndexType = iota
	IndexUint16
)

type CullMode uint32

const (
	CullBack CullMode = iota
	CullNone
	CullFront
)

// SurfaceCapabilities is what the platform reports about a surface.
type SurfaceCapabilities struct {
	MinImageCount uint32
	// MaxImageCount is 0 when there is no limit.
	MaxImageCount uint32
	CurrentExtent Extent2D
	MinExtent     Extent2D
	MaxExtent     Extent2D
}

type ImageDesc struct {
	Extent    Extent2D
	Format    Format
	MipLevels uint32
	Usage     ImageUsage
	Label     string
}

type BufferDesc struct {
	Size  uint64
	Usage BufferUsage
	// HostVisible buffers can be written from the CPU with Buffer.Write.
	HostVisible bool
	Label       string
}

type SamplerDesc struct {
	Filter    Filter
	MipLevels uint32
}

type DescriptorBinding struct {
	Binding uint32
	Type    DescriptorType
	Stages  ShaderStage
	Count   uint32
}

type PushConstantRange struct {
	Stages ShaderStage
	Offset uint32
	Size   uint32
}

// Contains reports whether [offset, offset+size) lies inside the range and
// the range covers every requested stage.
func (r PushConstantRange) Contains(stages ShaderStage, offset, size uint32) bool {
	return r.Stages&stages == stages && offset >= r.Offset && offset+size <= r.Offset+r.Size
}

type VertexAttribute struct {
	Location uint32
	Format   Format
	Offset   uint32
}

type VertexLayout struct {
	Stride     uint32
	Attributes []VertexAttribute
}

type PipelineDesc struct {
	VertexShader   string
	FragmentShader string
	Vertex         VertexLayout
	Descriptors    []DescriptorGroup
	PushConstants  []PushConstantRange
	// ColorFormats and DepthFormat describe the attachments the pipeline
	// renders into; FormatUndefined means no depth attachment.
	ColorFormats []Format
	DepthFormat  Format
	CullMode     CullMode
	Label        string
}

type SwapchainDesc struct {
	Extent      Extent2D
	Format      SurfaceFormat
	PresentMode PresentMode
	ImageCount  uint32
	Old         Swapchain
}

// ImageBarrier moves a range of mip levels of an image between layouts.
type ImageBarrier struct {
	Image     Image
	OldLayout ImageLayout
	NewLayout ImageLayout
	SrcStage  PipelineStage
	DstStage  PipelineStage
	SrcAccess Access
	DstAccess Access
	BaseMip   uint32
	MipCount  uint32
}

// BlitRegion describes a scaled copy between whole mip levels.
type BlitRegion struct {
	SrcMip  uint32
	SrcSize Extent2D
	DstMip  uint32
	DstSize Extent2D
}

type ColorAttachment struct {
	Image Image
	Clear [4]float32
}

type DepthAttachment struct {
	Image        Image
	ClearDepth   float32
	ClearStencil uint32
}

type RenderingInfo struct {
	Area   Rect2D
	Colors []ColorAttachment
	Depth  *DepthAttachment
}

// SemaphoreWait makes a submission wait on a semaphore at a pipeline stage.
type SemaphoreWait struct {
	Semaphore Semaphore
	Stage     PipelineStage
}

type SubmitInfo struct {
	Commands []CommandBuffer
	Wait     []SemaphoreWait
	Signal   []Semaphore
	Fence    Fence
}
