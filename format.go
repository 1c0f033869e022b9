package vkframe

import (
	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// FormatQuerier reports per format capabilities. gpu.Device implements it.
type FormatQuerier interface {
	FormatProperties(f gpu.Format) gpu.FormatProperties
}

// depthCandidates are tried in order by FindDepthFormat.
var depthCandidates = []gpu.Format{
	gpu.FormatD32Sfloat,
	gpu.FormatD32SfloatS8Uint,
	gpu.FormatD24UnormS8Uint,
}

// FindSupportedFormat returns the first candidate supporting every feature
// for the given tiling.
func FindSupportedFormat(q FormatQuerier, candidates []gpu.Format, tiling gpu.Tiling, features gpu.FormatFeature) (gpu.Format, error) {
	for _, f := range candidates {
		if q.FormatProperties(f).Features(tiling).Has(features) {
			return f, nil
		}
	}
	return gpu.FormatUndefined, errors.Wrapf(ErrUnsupportedFormat, "none of %v supports the requested %s features", candidates, tiling)
}

// FindDepthFormat returns the preferred depth format usable as an optimally
// tiled depth attachment.
func FindDepthFormat(q FormatQuerier) (gpu.Format, error) {
	return FindSupportedFormat(q, depthCandidates, gpu.TilingOptimal, gpu.FeatureDepthStencilAttachment)
}

// HasStencilComponent reports whether f carries a stencil aspect.
func HasStencilComponent(f gpu.Format) bool {
	return f.HasStencil()
}

// SupportsLinearBlit reports whether f can be linearly filtered when tiled
// optimally, which blitting between mip levels requires.
func SupportsLinearBlit(q FormatQuerier, f gpu.Format) bool {
	return q.FormatProperties(f).Optimal.Has(gpu.FeatureSampledImageFilterLinear)
}
