package vkframe

import (
	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

type layoutTransition struct {
	from, to gpu.ImageLayout
}

type transitionMasks struct {
	srcAccess, dstAccess gpu.Access
	srcStage, dstStage   gpu.PipelineStage
}

// transitions lists every layout change the renderer records.
var transitions = map[layoutTransition]transitionMasks{
	{gpu.LayoutUndefined, gpu.LayoutTransferDst}: {
		0, gpu.AccessTransferWrite,
		gpu.StageTopOfPipe, gpu.StageTransfer,
	},
	{gpu.LayoutUndefined, gpu.LayoutColorAttachment}: {
		0, gpu.AccessColorAttachmentWrite,
		gpu.StageTopOfPipe, gpu.StageColorAttachmentOutput,
	},
	{gpu.LayoutUndefined, gpu.LayoutDepthStencilAttachment}: {
		0, gpu.AccessDepthStencilRead | gpu.AccessDepthStencilWrite,
		gpu.StageTopOfPipe, gpu.StageEarlyFragmentTests,
	},
	{gpu.LayoutTransferDst, gpu.LayoutShaderReadOnly}: {
		gpu.AccessTransferWrite, gpu.AccessShaderRead,
		gpu.StageTransfer, gpu.StageFragmentShader,
	},
	{gpu.LayoutTransferDst, gpu.LayoutTransferSrc}: {
		gpu.AccessTransferWrite, gpu.AccessTransferRead,
		gpu.StageTransfer, gpu.StageTransfer,
	},
	{gpu.LayoutTransferSrc, gpu.LayoutShaderReadOnly}: {
		gpu.AccessTransferRead, gpu.AccessShaderRead,
		gpu.StageTransfer, gpu.StageFragmentShader,
	},
	{gpu.LayoutColorAttachment, gpu.LayoutTransferSrc}: {
		gpu.AccessColorAttachmentWrite, gpu.AccessTransferRead,
		gpu.StageColorAttachmentOutput, gpu.StageTransfer,
	},
	{gpu.LayoutTransferSrc, gpu.LayoutColorAttachment}: {
		gpu.AccessTransferRead, gpu.AccessColorAttachmentWrite,
		gpu.StageTransfer, gpu.StageColorAttachmentOutput,
	},
	{gpu.LayoutTransferDst, gpu.LayoutPresentSrc}: {
		gpu.AccessTransferWrite, 0,
		gpu.StageTransfer, gpu.StageBottomOfPipe,
	},
}

// transitionBarrier returns the barrier moving mip levels
// [baseMip, baseMip+count) of img from one layout to another.
func transitionBarrier(img gpu.Image, from, to gpu.ImageLayout, baseMip, count uint32) (gpu.ImageBarrier, error) {
	m, ok := transitions[layoutTransition{from, to}]
	if !ok {
		return gpu.ImageBarrier{}, errors.Errorf("unsupported layout transition %s -> %s", from, to)
	}
	return gpu.ImageBarrier{
		Image:     img,
		OldLayout: from,
		NewLayout: to,
		SrcStage:  m.srcStage,
		DstStage:  m.dstStage,
		SrcAccess: m.srcAccess,
		DstAccess: m.dstAccess,
		BaseMip:   baseMip,
		MipCount:  count,
	}, nil
}

// mustTransition is transitionBarrier for pairs listed in transitions.
func mustTransition(img gpu.Image, from, to gpu.ImageLayout, baseMip, count uint32) gpu.ImageBarrier {
	b, err := transitionBarrier(img, from, to, baseMip, count)
	if err != nil {
		panic(err)
	}
	return b
}
