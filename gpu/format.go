package gpu

import (
	"fmt"
	"strings"
)

// Format is a pixel format. Values are driver independent; each driver maps
// them onto its native enumeration.
type Format uint32

const (
	FormatUndefined Format = iota
	FormatR8G8B8A8Unorm
	FormatR8G8B8A8Srgb
	FormatB8G8R8A8Unorm
	FormatB8G8R8A8Srgb
	FormatR16G16B16A16Sfloat
	FormatR32G32B32A32Sfloat
	FormatR32G32Sfloat
	FormatR32G32B32Sfloat
	FormatD32Sfloat
	FormatD32SfloatS8Uint
	FormatD24UnormS8Uint
)

var formatNames = map[Format]string{
	FormatUndefined:          "undefined",
	FormatR8G8B8A8Unorm:      "r8g8b8a8_unorm",
	FormatR8G8B8A8Srgb:       "r8g8b8a8_srgb",
	FormatB8G8R8A8Unorm:      "b8g8r8a8_unorm",
	FormatB8G8R8A8Srgb:       "b8g8r8a8_srgb",
	FormatR16G16B16A16Sfloat: "r16g16b16a16_sfloat",
	FormatR32G32B32A32Sfloat: "r32g32b32a32_sfloat",
	FormatR32G32Sfloat:       "r32g32_sfloat",
	FormatR32G32B32Sfloat:    "r32g32b32_sfloat",
	FormatD32Sfloat:          "d32_sfloat",
	FormatD32SfloatS8Uint:    "d32_sfloat_s8_uint",
	FormatD24UnormS8Uint:     "d24_unorm_s8_uint",
}

func (f Format) String() string {
	if n, ok := formatNames[f]; ok {
		return n
	}
	return fmt.Sprintf("format(%d)", uint32(f))
}

// ParseFormat returns the format with the given name, as printed by String.
func ParseFormat(name string) (Format, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range formatNames {
		if n == name {
			return f, nil
		}
	}
	return FormatUndefined, fmt.Errorf("unknown format %q", name)
}

// IsDepth reports whether the format has a depth component.
func (f Format) IsDepth() bool {
	switch f {
	case FormatD32Sfloat, FormatD32SfloatS8Uint, FormatD24UnormS8Uint:
		return true
	}
	return false
}

// HasStencil reports whether the format has a stencil component.
func (f Format) HasStencil() bool {
	return f == FormatD32SfloatS8Uint || f == FormatD24UnormS8Uint
}

// Aspect returns the image aspects an image of this format exposes.
func (f Format) Aspect() Aspect {
	switch {
	case f.HasStencil():
		return AspectDepth | AspectStencil
	case f.IsDepth():
		return AspectDepth
	}
	return AspectColor
}

// BytesPerPixel returns the texel size of color formats, 0 for the rest.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatR8G8B8A8Unorm, FormatR8G8B8A8Srgb, FormatB8G8R8A8Unorm, FormatB8G8R8A8Srgb:
		return 4
	case FormatR16G16B16A16Sfloat, FormatR32G32Sfloat:
		return 8
	case FormatR32G32B32Sfloat:
		return 12
	case FormatR32G32B32A32Sfloat:
		return 16
	}
	return 0
}

// ColorSpace is the color space a presentable image is interpreted in.
type ColorSpace uint32

const (
	ColorSpaceSrgbNonlinear ColorSpace = iota
	ColorSpaceExtendedSrgbLinear
)

// SurfaceFormat pairs a format with the color space the surface presents it in.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

func (s SurfaceFormat) String() string {
	return fmt.Sprintf("%s/%d", s.Format, s.ColorSpace)
}

// Tiling selects the image tiling a format query refers to.
type Tiling int

const (
	TilingOptimal Tiling = iota
	TilingLinear
)

func (t Tiling) String() string {
	if t == TilingLinear {
		return "linear"
	}
	return "optimal"
}

// FormatFeature is a set of capabilities a format supports for a tiling.
type FormatFeature uint32

const (
	FeatureSampledImage FormatFeature = 1 << iota
	FeatureSampledImageFilterLinear
	FeatureColorAttachment
	FeatureDepthStencilAttachment
	FeatureBlitSrc
	FeatureBlitDst
	FeatureTransferSrc
	FeatureTransferDst
)

// Has reports whether every feature in want is present.
func (f FormatFeature) Has(want FormatFeature) bool {
	return f&want == want
}

// FormatProperties lists the features of a format per tiling.
type FormatProperties struct {
	Linear  FormatFeature
	Optimal FormatFeature
}

// Features returns the feature set for the given tiling.
func (p FormatProperties) Features(t Tiling) FormatFeature {
	if t == TilingLinear {
		return p.Linear
	}
	return p.Optimal
}
