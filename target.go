package vkframe

import (
	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// TargetOptions customizes a render target.
type TargetOptions struct {
	// Format overrides the default: the configured color format, or the
	// swapchain format, for color targets and FindDepthFormat for depth
	// targets.
	Format gpu.Format
	// Extent fixes the target size. A zero extent follows the surface and
	// the target is rebuilt, keeping its handle, whenever the surface is.
	Extent gpu.Extent2D
	// Sampled lets shaders read the target.
	Sampled bool
	Label   string
}

// Target is a color or depth render target. Color targets rest in
// ColorAttachment layout and depth targets in DepthStencilAttachment layout
// between frames.
type Target struct {
	Image  gpu.Image
	Format gpu.Format
	Depth  bool
	opts   TargetOptions
}

// Extent returns the current size of the target.
func (t *Target) Extent() gpu.Extent2D { return t.Image.Extent() }

// SurfaceSized reports whether the target follows the surface extent.
func (t *Target) SurfaceSized() bool { return t.opts.Extent.IsZero() }

func (t *Target) restingLayout() gpu.ImageLayout {
	if t.Depth {
		return gpu.LayoutDepthStencilAttachment
	}
	return gpu.LayoutColorAttachment
}

func (t *Target) destroy() {
	if t.Image != nil {
		t.Image.Destroy()
	}
}

// NewColorTarget creates a surface sized color target in the default color
// format.
func (r *Renderer) NewColorTarget() (Handle, error) {
	return r.NewColorTargetWithOptions(nil)
}

// NewColorTargetWithOptions creates a color target.
func (r *Renderer) NewColorTargetWithOptions(opts *TargetOptions) (Handle, error) {
	return r.newTarget("NewColorTarget", false, opts)
}

// NewDepthTarget creates a surface sized depth target in the format chosen
// by FindDepthFormat.
func (r *Renderer) NewDepthTarget() (Handle, error) {
	return r.NewDepthTargetWithOptions(nil)
}

// NewDepthTargetWithOptions creates a depth target.
func (r *Renderer) NewDepthTargetWithOptions(opts *TargetOptions) (Handle, error) {
	return r.newTarget("NewDepthTarget", true, opts)
}

func (r *Renderer) newTarget(op string, depth bool, opts *TargetOptions) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkCreate(op); err != nil {
		return NoHandle, err
	}
	var o TargetOptions
	if opts != nil {
		o = *opts
	}
	if err := r.resolveTargetFormat(depth, &o); err != nil {
		return NoHandle, creationError(op, err)
	}
	t, err := r.createTarget(depth, o)
	if err != nil {
		return NoHandle, r.deviceError(op, err)
	}
	var h Handle
	if depth {
		h = r.depthTargets.Insert(t)
	} else {
		h = r.colorTargets.Insert(t)
	}
	Logger().Debug("render target created", "handle", h, "format", t.Format, "extent", t.Extent(), "depth", depth)
	return h, nil
}

func (r *Renderer) resolveTargetFormat(depth bool, o *TargetOptions) error {
	want := gpu.FeatureColorAttachment | gpu.FeatureBlitSrc
	if depth {
		want = gpu.FeatureDepthStencilAttachment
	}
	if o.Sampled {
		want |= gpu.FeatureSampledImage
	}

	switch {
	case o.Format != gpu.FormatUndefined:
		if o.Format.IsDepth() != depth {
			return errors.Wrapf(ErrInvalidDescription, "%s cannot back a depth=%v target", o.Format, depth)
		}
	case depth:
		f, err := FindDepthFormat(r.dev)
		if err != nil {
			return err
		}
		o.Format = f
	default:
		o.Format = r.colorFormat
		if o.Format == gpu.FormatUndefined {
			o.Format = r.surface.Format().Format
		}
	}
	if !r.dev.FormatProperties(o.Format).Optimal.Has(want) {
		return errors.Wrapf(ErrUnsupportedFormat, "%s lacks render target features", o.Format)
	}
	return nil
}

// createTarget allocates the image and moves it to its resting layout.
func (r *Renderer) createTarget(depth bool, o TargetOptions) (*Target, error) {
	extent := o.Extent
	if extent.IsZero() {
		extent = r.surface.Extent()
	}
	usage := gpu.ImageUsageColorAttachment | gpu.ImageUsageTransferSrc
	if depth {
		usage = gpu.ImageUsageDepthStencilAttachment
	}
	if o.Sampled {
		usage |= gpu.ImageUsageSampled
	}
	img, err := r.dev.CreateImage(gpu.ImageDesc{
		Extent:    extent,
		Format:    o.Format,
		MipLevels: 1,
		Usage:     usage,
		Label:     o.Label,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create render target image")
	}
	t := &Target{Image: img, Format: o.Format, Depth: depth, opts: o}
	err = r.submitOnce(func(cmd gpu.CommandBuffer) error {
		cmd.PipelineBarrier(mustTransition(img, gpu.LayoutUndefined, t.restingLayout(), 0, 1))
		return nil
	})
	if err != nil {
		t.destroy()
		return nil, err
	}
	return t, nil
}

// rebuildTargets recreates every surface sized target in place so its
// handle stays valid.
func (r *Renderer) rebuildTargets() error {
	for _, reg := range []*Registry[*Target]{r.colorTargets, r.depthTargets} {
		for _, h := range reg.Handles() {
			old, err := reg.Get(h)
			if err != nil {
				return err
			}
			if !old.SurfaceSized() {
				continue
			}
			t, err := r.createTarget(old.Depth, old.opts)
			if err != nil {
				return errors.Wrapf(err, "rebuild target %s", h)
			}
			if _, err := reg.InsertOrReplace(h, t); err != nil {
				t.destroy()
				return err
			}
		}
	}
	return nil
}
