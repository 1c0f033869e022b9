package vkframe

import (
	"image"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// TextureFormat is the format every texture is uploaded in.
const TextureFormat = gpu.FormatR8G8B8A8Srgb

// TextureDesc describes a texture to load. Exactly one of Path and Image is
// set.
type TextureDesc struct {
	Path  string
	Image image.Image
	// MipLevels defaults to the full chain.
	MipLevels uint32
	// Binding and Stages describe the combined image sampler descriptor
	// created for the texture. Stages defaults to the fragment stage.
	Binding uint32
	Stages  gpu.ShaderStage
	Label   string
}

// Texture is a sampled image with its full mip chain in ShaderReadOnly
// layout.
type Texture struct {
	Image     gpu.Image
	Sampler   gpu.Sampler
	Width     uint32
	Height    uint32
	MipLevels uint32
	// Descriptor is the handle of the descriptor sampling this texture.
	Descriptor Handle
}

func (t *Texture) destroy() {
	if t.Sampler != nil {
		t.Sampler.Destroy()
	}
	if t.Image != nil {
		t.Image.Destroy()
	}
}

// LoadTexture decodes an image, uploads it with a generated mip chain and
// registers a combined image sampler descriptor for it.
func (r *Renderer) LoadTexture(desc TextureDesc) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	const op = "LoadTexture"
	if err := r.checkCreate(op); err != nil {
		return NoHandle, err
	}
	if (desc.Path == "") == (desc.Image == nil) {
		return NoHandle, creationError(op, errors.Wrap(ErrInvalidDescription, "texture needs exactly one of a path or an image"))
	}
	if !SupportsLinearBlit(r.dev, TextureFormat) {
		return NoHandle, creationError(op, errors.Wrapf(ErrUnsupportedFormat, "%s does not support linear blitting", TextureFormat))
	}

	src := desc.Image
	if src == nil {
		var err error
		if src, err = r.imageLoader.LoadImage(desc.Path); err != nil {
			return NoHandle, creationError(op, errors.Wrapf(err, "load %s", desc.Path))
		}
	}
	pixels := toRGBA(src)
	w, h := uint32(pixels.Rect.Dx()), uint32(pixels.Rect.Dy())
	if w == 0 || h == 0 {
		return NoHandle, creationError(op, errors.Wrap(ErrInvalidDescription, "texture image is empty"))
	}
	levels := desc.MipLevels
	if full := MipLevels(w, h); levels == 0 || levels > full {
		levels = full
	}
	stages := desc.Stages
	if stages == 0 {
		stages = gpu.ShaderStageFragment
	}

	tex, err := r.uploadTexture(pixels.Pix, w, h, levels, desc.Label)
	if err != nil {
		return NoHandle, r.deviceError(op, err)
	}
	group, err := r.newDescriptorGroup(gpu.DescriptorBinding{
		Binding: desc.Binding,
		Type:    gpu.DescriptorCombinedImageSampler,
		Stages:  stages,
		Count:   1,
	})
	if err != nil {
		tex.destroy()
		return NoHandle, r.deviceError(op, err)
	}
	for i := range group.Group.Sets() {
		if err := group.Group.WriteImage(i, desc.Binding, tex.Image, tex.Sampler); err != nil {
			group.destroy()
			tex.destroy()
			return NoHandle, r.deviceError(op, errors.Wrap(err, "write texture descriptor"))
		}
	}
	tex.Descriptor = r.descriptors.Insert(group)
	handle := r.textures.Insert(tex)
	Logger().Debug("texture created", "handle", handle, "size", gpu.Extent2D{Width: w, Height: h}, "mips", levels)
	return handle, nil
}

func (r *Renderer) uploadTexture(pix []byte, w, h, levels uint32, label string) (*Texture, error) {
	staging, err := r.dev.CreateBuffer(gpu.BufferDesc{
		Size:        uint64(len(pix)),
		Usage:       gpu.BufferUsageTransferSrc,
		HostVisible: true,
		Label:       label + " staging",
	})
	if err != nil {
		return nil, errors.Wrap(err, "create staging buffer")
	}
	defer staging.Destroy()
	if err := staging.Write(0, pix); err != nil {
		return nil, errors.Wrap(err, "fill staging buffer")
	}

	img, err := r.dev.CreateImage(gpu.ImageDesc{
		Extent:    gpu.Extent2D{Width: w, Height: h},
		Format:    TextureFormat,
		MipLevels: levels,
		Usage:     gpu.ImageUsageTransferSrc | gpu.ImageUsageTransferDst | gpu.ImageUsageSampled,
		Label:     label,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create texture image")
	}
	ret := &Texture{Image: img, Width: w, Height: h, MipLevels: levels}
	err = r.submitOnce(func(cmd gpu.CommandBuffer) error {
		cmd.PipelineBarrier(mustTransition(img, gpu.LayoutUndefined, gpu.LayoutTransferDst, 0, levels))
		cmd.CopyBufferToImage(staging, img, gpu.LayoutTransferDst)
		return GenerateMipmaps(r.dev, cmd, img, w, h, levels)
	})
	if err != nil {
		ret.destroy()
		return nil, err
	}
	if ret.Sampler, err = r.dev.CreateSampler(gpu.SamplerDesc{Filter: gpu.FilterLinear, MipLevels: levels}); err != nil {
		ret.destroy()
		return nil, errors.Wrap(err, "create sampler")
	}
	return ret, nil
}
