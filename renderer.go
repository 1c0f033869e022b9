package vkframe

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/celer/vkframe/gpu"
)

// Options configures a Renderer.
type Options struct {
	// Config defaults to DefaultConfig().
	Config *Config
	// Meshes reads files for LoadModel. LoadModel fails when it is nil.
	Meshes MeshLoader
	// Images decodes files for LoadTexture; defaults to FileImageLoader.
	Images ImageLoader
}

// Renderer drives frames on a surface and owns every resource created
// through it. All methods are safe for concurrent use but are serialized
// by a single lock; frame methods must be called in StartDraw,
// StartRendering, EndRendering, EndDraw order.
type Renderer struct {
	mu sync.Mutex

	dev         gpu.Device
	surface     *surfaceManager
	slots       [MaxFramesInFlight]*frameSlot
	meshLoader  MeshLoader
	imageLoader ImageLoader

	waitTimeout time.Duration
	clearColor  [4]float32
	clearDepth  float32
	colorFormat gpu.Format

	meshes       *Registry[*Mesh]
	textures     *Registry[*Texture]
	pipelines    *Registry[*Pipeline]
	descriptors  *Registry[*Descriptor]
	uniforms     *Registry[*UniformBuffer]
	colorTargets *Registry[*Target]
	depthTargets *Registry[*Target]

	state   FrameState
	current int
	scope   renderScope
	fatal   error
	closed  bool

	// resized is outside mu: window callbacks run inside
	// Surface.WaitEvents while a rebuild holds the lock.
	resized atomic.Bool

	frameStart time.Duration
	stats      FrameStats
}

// renderScope is what StartRendering began.
type renderScope struct {
	colorFormats []gpu.Format
	depthFormat  gpu.Format
}

// New creates a Renderer with default options.
func New(dev gpu.Device, surface gpu.Surface) (*Renderer, error) {
	return NewWithOptions(dev, surface, nil)
}

// NewWithOptions builds the swapchain and frame slots for surface.
func NewWithOptions(dev gpu.Device, surface gpu.Surface, opts *Options) (*Renderer, error) {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.Config == nil {
		o.Config = DefaultConfig()
	}
	if o.Images == nil {
		o.Images = FileImageLoader{}
	}
	cfg := o.Config
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	mode, _ := cfg.presentMode()
	surfaceFormat, _ := cfg.surfaceFormat()
	colorFormat, _ := cfg.colorFormat()

	ret := &Renderer{
		dev: dev,
		surface: &surfaceManager{
			surface:         surface,
			preferredFormat: surfaceFormat,
			preferredMode:   mode,
			imageCount:      cfg.ImageCount,
		},
		meshLoader:  o.Meshes,
		imageLoader: o.Images,
		waitTimeout: time.Duration(cfg.WaitTimeout),
		clearColor:  cfg.ClearColor,
		clearDepth:  cfg.ClearDepth,
		colorFormat: colorFormat,

		meshes:       NewRegistry((*Mesh).destroy),
		textures:     NewRegistry((*Texture).destroy),
		pipelines:    NewRegistry((*Pipeline).destroy),
		descriptors:  NewRegistry((*Descriptor).destroy),
		uniforms:     NewRegistry((*UniformBuffer).destroy),
		colorTargets: NewRegistry((*Target).destroy),
		depthTargets: NewRegistry((*Target).destroy),
	}
	if err := ret.surface.build(); err != nil {
		return nil, errors.Wrap(err, "build surface")
	}
	for i := range ret.slots {
		slot, err := newFrameSlot(dev)
		if err != nil {
			ret.destroySlots()
			ret.surface.destroy()
			return nil, errors.Wrapf(err, "frame slot %d", i)
		}
		ret.slots[i] = slot
	}
	return ret, nil
}

func (r *Renderer) destroySlots() {
	for i, s := range r.slots {
		if s != nil {
			s.destroy(r.dev)
			r.slots[i] = nil
		}
	}
}

// checkUsable rejects calls after Close or a fatal error.
func (r *Renderer) checkUsable(op string) error {
	if r.closed {
		return programmerError(op, ErrClosed)
	}
	if r.fatal != nil {
		return r.fatal
	}
	return nil
}

// checkCreate rejects resource creation inside a render scope.
func (r *Renderer) checkCreate(op string) error {
	if err := r.checkUsable(op); err != nil {
		return err
	}
	if r.state == StateRendering {
		return programmerError(op, errors.Wrap(ErrInvalidState, "resources cannot be created inside a render scope"))
	}
	return nil
}

// checkState rejects a call made outside the given frame state.
func (r *Renderer) checkState(op string, want FrameState) error {
	if err := r.checkUsable(op); err != nil {
		return err
	}
	if r.state != want {
		err := programmerError(op, errors.Wrapf(ErrInvalidState, "in state %s, want %s", r.state, want))
		Logger().Error("renderer misuse", "op", op, "err", err)
		return err
	}
	return nil
}

// fail latches a fatal error; every later call returns it.
func (r *Renderer) fail(op string, err error) error {
	r.fatal = fatalError(op, err)
	Logger().Error("fatal device error", "op", op, "err", err)
	return r.fatal
}

// deviceError classifies a failure raised while creating a resource.
func (r *Renderer) deviceError(op string, err error) error {
	if errors.Is(err, gpu.ErrDeviceLost) {
		return r.fail(op, err)
	}
	return creationError(op, err)
}

// submitOnce records a one-time command buffer, submits it and waits for
// the queue to drain.
func (r *Renderer) submitOnce(record func(cmd gpu.CommandBuffer) error) error {
	return r.submitOnceSync(record, nil, nil)
}

func (r *Renderer) submitOnceSync(record func(cmd gpu.CommandBuffer) error, wait []gpu.SemaphoreWait, signal []gpu.Semaphore) error {
	cmd, err := r.dev.AllocateCommandBuffer()
	if err != nil {
		return errors.Wrap(err, "allocate command buffer")
	}
	defer r.dev.FreeCommandBuffer(cmd)
	if err := cmd.Begin(true); err != nil {
		return errors.Wrap(err, "begin command buffer")
	}
	recErr := record(cmd)
	if err := cmd.End(); err != nil {
		return errors.Wrap(err, "end command buffer")
	}
	if recErr != nil {
		return recErr
	}
	err = r.dev.Submit(gpu.SubmitInfo{
		Commands: []gpu.CommandBuffer{cmd},
		Wait:     wait,
		Signal:   signal,
	})
	if err != nil {
		return errors.Wrap(err, "submit")
	}
	return errors.Wrap(r.dev.QueueWaitIdle(), "wait for queue idle")
}

// State returns the current frame state.
func (r *Renderer) State() FrameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// CurrentFrame returns the index of the frame slot being recorded, in
// [0, MaxFramesInFlight).
func (r *Renderer) CurrentFrame() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Stats returns the frame counters.
func (r *Renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// SurfaceExtent returns the size of the swapchain images.
func (r *Renderer) SurfaceExtent() gpu.Extent2D {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface.Extent()
}

// NotifyResized tells the Renderer the window changed size. The surface is
// rebuilt at the end of the current frame. It does not take the Renderer
// lock, so it is the one method a Surface.WaitEvents callback may call.
func (r *Renderer) NotifyResized() {
	r.resized.Store(true)
}

func getResource[T any](r *Renderer, op string, reg *Registry[T], h Handle) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkUsable(op); err != nil {
		var zero T
		return zero, err
	}
	v, err := reg.Get(h)
	if err != nil {
		return v, programmerError(op, err)
	}
	return v, nil
}

// Mesh returns the mesh registered under h. The value is valid until the
// mesh is destroyed.
func (r *Renderer) Mesh(h Handle) (*Mesh, error) {
	return getResource(r, "Mesh", r.meshes, h)
}

func (r *Renderer) Texture(h Handle) (*Texture, error) {
	return getResource(r, "Texture", r.textures, h)
}

func (r *Renderer) Pipeline(h Handle) (*Pipeline, error) {
	return getResource(r, "Pipeline", r.pipelines, h)
}

func (r *Renderer) Descriptor(h Handle) (*Descriptor, error) {
	return getResource(r, "Descriptor", r.descriptors, h)
}

func (r *Renderer) UniformBuffer(h Handle) (*UniformBuffer, error) {
	return getResource(r, "UniformBuffer", r.uniforms, h)
}

// ColorTarget returns the color target registered under h. A surface
// rebuild replaces the value but keeps the handle.
func (r *Renderer) ColorTarget(h Handle) (*Target, error) {
	return getResource(r, "ColorTarget", r.colorTargets, h)
}

func (r *Renderer) DepthTarget(h Handle) (*Target, error) {
	return getResource(r, "DepthTarget", r.depthTargets, h)
}

func destroyResource[T any](r *Renderer, op string, reg *Registry[T], h Handle, also func(T)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.checkUsable(op); err != nil {
		return err
	}
	if r.state != StateIdle {
		return programmerError(op, errors.Wrapf(ErrInvalidState, "resources are destroyed between frames, not in state %s", r.state))
	}
	v, err := reg.Get(h)
	if err != nil {
		return programmerError(op, err)
	}
	if err := r.dev.WaitIdle(); err != nil {
		return r.fail(op, err)
	}
	if also != nil {
		also(v)
	}
	return reg.Remove(h)
}

// DestroyMesh releases a mesh once the device is idle.
func (r *Renderer) DestroyMesh(h Handle) error {
	return destroyResource(r, "DestroyMesh", r.meshes, h, nil)
}

// DestroyTexture releases a texture and its descriptor.
func (r *Renderer) DestroyTexture(h Handle) error {
	return destroyResource(r, "DestroyTexture", r.textures, h, func(t *Texture) {
		r.releaseDescriptor("DestroyTexture", t.Descriptor)
	})
}

func (r *Renderer) DestroyPipeline(h Handle) error {
	return destroyResource(r, "DestroyPipeline", r.pipelines, h, nil)
}

func (r *Renderer) DestroyDescriptor(h Handle) error {
	return destroyResource(r, "DestroyDescriptor", r.descriptors, h, nil)
}

// DestroyUniformBuffer releases a uniform buffer and its descriptor.
func (r *Renderer) DestroyUniformBuffer(h Handle) error {
	return destroyResource(r, "DestroyUniformBuffer", r.uniforms, h, func(u *UniformBuffer) {
		r.releaseDescriptor("DestroyUniformBuffer", u.Descriptor)
	})
}

// releaseDescriptor removes a descriptor owned by another resource. The
// caller may already have destroyed it through DestroyDescriptor.
func (r *Renderer) releaseDescriptor(op string, h Handle) {
	if !r.descriptors.Contains(h) {
		Logger().Debug("owned descriptor already destroyed", "op", op, "descriptor", h)
		return
	}
	if err := r.descriptors.Remove(h); err != nil {
		Logger().Error("release descriptor", "op", op, "descriptor", h, "err", err)
	}
}

// DestroyColorTarget releases a color target. Pipelines built for it stay
// valid for other targets of the same format.
func (r *Renderer) DestroyColorTarget(h Handle) error {
	return destroyResource(r, "DestroyColorTarget", r.colorTargets, h, nil)
}

func (r *Renderer) DestroyDepthTarget(h Handle) error {
	return destroyResource(r, "DestroyDepthTarget", r.depthTargets, h, nil)
}

// Close waits for the device to finish and destroys every resource, the
// frame slots and the swapchain. It is safe to call more than once.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.dev.WaitIdle()
	if err != nil {
		Logger().Error("wait for device idle on close", "err", err)
	}

	r.pipelines.Clear()
	r.descriptors.Clear()
	r.uniforms.Clear()
	r.textures.Clear()
	r.meshes.Clear()
	r.depthTargets.Clear()
	r.colorTargets.Clear()
	r.destroySlots()
	r.surface.destroy()
	return errors.Wrap(err, "close renderer")
}
