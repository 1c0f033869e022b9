package vkframe

import (
	"math/bits"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// MipLevels returns the length of the full mip chain for an image, that is
// floor(log2(max(w, h))) + 1.
func MipLevels(w, h uint32) uint32 {
	return uint32(bits.Len32(max(w, h, 1)))
}

func half(v uint32) uint32 {
	if v > 1 {
		return v / 2
	}
	return 1
}

// GenerateMipmaps records the blits filling levels 1..levels-1 of img from
// level 0. Every level must be in TransferDst layout; on return all levels
// are in ShaderReadOnly layout.
func GenerateMipmaps(q FormatQuerier, cmd gpu.CommandBuffer, img gpu.Image, w, h, levels uint32) error {
	if levels == 0 {
		return errors.Wrap(ErrInvalidDescription, "mip chain needs at least one level")
	}
	if !SupportsLinearBlit(q, img.Format()) {
		return errors.Wrapf(ErrUnsupportedFormat, "%s does not support linear blitting", img.Format())
	}

	size := gpu.Extent2D{Width: w, Height: h}
	for i := uint32(1); i < levels; i++ {
		next := gpu.Extent2D{Width: half(size.Width), Height: half(size.Height)}
		cmd.PipelineBarrier(mustTransition(img, gpu.LayoutTransferDst, gpu.LayoutTransferSrc, i-1, 1))
		cmd.BlitImage(img, gpu.LayoutTransferSrc, img, gpu.LayoutTransferDst, gpu.BlitRegion{
			SrcMip:  i - 1,
			SrcSize: size,
			DstMip:  i,
			DstSize: next,
		}, gpu.FilterLinear)
		cmd.PipelineBarrier(mustTransition(img, gpu.LayoutTransferSrc, gpu.LayoutShaderReadOnly, i-1, 1))
		size = next
	}
	cmd.PipelineBarrier(mustTransition(img, gpu.LayoutTransferDst, gpu.LayoutShaderReadOnly, levels-1, 1))
	return nil
}
