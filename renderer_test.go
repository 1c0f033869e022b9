package vkframe

import (
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/vkframe/gpu"
	"github.com/celer/vkframe/gpu/gputest"
)

type scene struct {
	r        *Renderer
	dev      *gputest.Device
	surf     *gputest.Surface
	color    Handle
	depth    Handle
	mesh     Handle
	pipeline Handle
}

var triangle = &MeshData{
	Vertices: []Vertex{
		{Position: [3]float32{0, -0.5, 0}, Color: [3]float32{1, 0, 0}},
		{Position: [3]float32{0.5, 0.5, 0}, Color: [3]float32{0, 1, 0}},
		{Position: [3]float32{-0.5, 0.5, 0}, Color: [3]float32{0, 0, 1}},
	},
	Indices: []uint32{0, 1, 2},
}

func newTestRenderer(t *testing.T, cfg *Config) (*Renderer, *gputest.Device, *gputest.Surface) {
	t.Helper()
	dev := gputest.NewDevice()
	surf := gputest.NewSurface(dev)
	r, err := NewWithOptions(dev, surf, &Options{Config: cfg})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r, dev, surf
}

func newScene(t *testing.T, cfg *Config) *scene {
	t.Helper()
	r, dev, surf := newTestRenderer(t, cfg)
	s := &scene{r: r, dev: dev, surf: surf}
	var err error
	s.color, err = r.NewColorTarget()
	require.NoError(t, err)
	s.depth, err = r.NewDepthTarget()
	require.NoError(t, err)
	s.mesh, err = r.NewMesh(triangle)
	require.NoError(t, err)
	s.pipeline, err = r.NewPipeline(PipelineDesc{
		VertexShader:   "shaders/tri.vert.spv",
		FragmentShader: "shaders/tri.frag.spv",
		PushConstants:  []gpu.PushConstantRange{{Stages: gpu.ShaderStageVertex, Size: 64}},
		ColorTargets:   []Handle{s.color},
		DepthTarget:    s.depth,
	})
	require.NoError(t, err)
	return s
}

func (s *scene) drawFrame() error {
	return s.drawFrameWith(nil)
}

// drawFrameWith draws a frame, running update right after StartDraw.
func (s *scene) drawFrameWith(update func() error) error {
	r := s.r
	if err := r.StartDraw(); err != nil {
		return err
	}
	if update != nil {
		if err := update(); err != nil {
			return err
		}
	}
	if err := r.StartRendering([]Handle{s.color}, s.depth); err != nil {
		return err
	}
	if err := r.BindPipeline(s.pipeline); err != nil {
		return err
	}
	if err := r.SetViewport(gpu.FullViewport(r.SurfaceExtent())); err != nil {
		return err
	}
	if err := r.SetScissor(gpu.Rect2D{Extent: r.SurfaceExtent()}); err != nil {
		return err
	}
	if err := r.DrawMesh(s.mesh); err != nil {
		return err
	}
	if err := r.EndRendering(); err != nil {
		return err
	}
	return r.EndDraw(s.color)
}

func TestFrameIndexCycles(t *testing.T) {
	s := newScene(t, nil)
	var frames []int
	for i := 0; i < 10; i++ {
		frames = append(frames, s.r.CurrentFrame())
		require.NoError(t, s.drawFrame(), "frame %d", i)
		assert.Equal(t, StateIdle, s.r.State())
	}
	assert.Equal(t, []int{0, 1, 0, 1, 0, 1, 0, 1, 0, 1}, frames)
	assert.Empty(t, s.dev.Violations)

	st := s.r.Stats()
	assert.Equal(t, uint64(10), st.FramesPresented)
	assert.Zero(t, st.FramesDropped)
	assert.Zero(t, st.Rebuilds)
	assert.Equal(t, 10, s.surf.Presents)
}

func TestEndDrawOrdersSubmitCopyPresent(t *testing.T) {
	s := newScene(t, nil)
	require.NoError(t, s.r.StartDraw())
	require.NoError(t, s.r.StartRendering([]Handle{s.color}, s.depth))
	require.NoError(t, s.r.EndRendering())
	s.dev.ResetLog()
	require.NoError(t, s.r.EndDraw(s.color))

	index := func(prefix string, from int) int {
		for i := from; i < len(s.dev.Log); i++ {
			if strings.HasPrefix(s.dev.Log[i], prefix) {
				return i
			}
		}
		t.Fatalf("no log entry %q in %v", prefix, s.dev.Log)
		return -1
	}
	frameSubmit := index("submit cmd#", 0)
	assert.Contains(t, s.dev.Log[frameSubmit], "waits=0 signals=1 fence=")
	acquire := index("acquire", 0)
	blit := index("cmd blit", 0)
	copySubmit := index("submit cmd#", frameSubmit+1)
	present := index("present", 0)

	assert.Less(t, frameSubmit, acquire)
	assert.Less(t, acquire, blit)
	assert.Less(t, blit, copySubmit)
	assert.Contains(t, s.dev.Log[copySubmit], "waits=2 signals=1")
	assert.Equal(t, "queue_wait_idle", s.dev.Log[copySubmit+1])
	assert.Less(t, copySubmit, present)
	assert.Contains(t, s.dev.Log[present-1], "free", "restore submission is drained before present")
	assert.Empty(t, s.dev.Violations)
}

func TestOutOfDatePresentRebuildsOnce(t *testing.T) {
	s := newScene(t, nil)
	s.surf.PresentErrors[5] = gpu.ErrOutOfDate

	for i := 0; i < 4; i++ {
		require.NoError(t, s.drawFrame())
	}
	before := s.r.CurrentFrame()
	oldColor, err := s.r.ColorTarget(s.color)
	require.NoError(t, err)
	oldDepth, err := s.r.DepthTarget(s.depth)
	require.NoError(t, err)
	oldColorImage := oldColor.Image

	require.NoError(t, s.drawFrame(), "a dropped frame is not an error")
	assert.Equal(t, before, s.r.CurrentFrame(), "dropped frame does not advance")
	assert.Equal(t, 2, s.surf.SwapchainsMade)

	st := s.r.Stats()
	assert.Equal(t, uint64(1), st.Rebuilds)
	assert.Equal(t, uint64(1), st.FramesDropped)
	assert.Equal(t, uint64(4), st.FramesPresented)

	newColor, err := s.r.ColorTarget(s.color)
	require.NoError(t, err)
	assert.NotSame(t, oldColorImage, newColor.Image)
	assert.True(t, oldColorImage.(*gputest.Image).Destroyed())
	newDepth, err := s.r.DepthTarget(s.depth)
	require.NoError(t, err)
	assert.NotSame(t, oldDepth, newDepth)
	_, err = s.r.Pipeline(s.pipeline)
	assert.NoError(t, err)
	_, err = s.r.Mesh(s.mesh)
	assert.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.drawFrame())
	}
	assert.Equal(t, uint64(1), s.r.Stats().Rebuilds)
	assert.Empty(t, s.dev.Violations)
}

func TestOutOfDateAcquireDropsFrame(t *testing.T) {
	s := newScene(t, nil)
	s.surf.AcquireErrors[2] = gpu.ErrOutOfDate

	require.NoError(t, s.drawFrame())
	require.NoError(t, s.drawFrame())
	assert.Equal(t, 1, s.r.CurrentFrame())
	assert.Equal(t, 1, s.surf.Presents)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.drawFrame())
	}
	assert.Equal(t, uint64(1), s.r.Stats().FramesDropped)
	assert.Empty(t, s.dev.Violations, "render-finished left signaled by the dropped frame must not be signaled again")
}

func TestSuboptimalPresentRebuilds(t *testing.T) {
	s := newScene(t, nil)
	s.surf.SuboptimalPresent[1] = true
	require.NoError(t, s.drawFrame())
	assert.Equal(t, 0, s.r.CurrentFrame())
	assert.Equal(t, uint64(1), s.r.Stats().Rebuilds)
}

func TestResizeRebuildsSurfaceSizedTargets(t *testing.T) {
	s := newScene(t, nil)
	fixed, err := s.r.NewColorTargetWithOptions(&TargetOptions{Extent: gpu.Extent2D{Width: 128, Height: 128}})
	require.NoError(t, err)
	fixedBefore, err := s.r.ColorTarget(fixed)
	require.NoError(t, err)

	require.NoError(t, s.drawFrame())
	s.surf.Sizes = []gpu.Extent2D{{}, {Width: 1024, Height: 768}}
	s.r.NotifyResized()
	require.NoError(t, s.drawFrame())

	assert.Equal(t, 1, s.surf.WaitEventsCalls, "minimized window is waited out")
	assert.Equal(t, gpu.Extent2D{Width: 1024, Height: 768}, s.r.SurfaceExtent())
	color, err := s.r.ColorTarget(s.color)
	require.NoError(t, err)
	assert.Equal(t, gpu.Extent2D{Width: 1024, Height: 768}, color.Extent())
	depth, err := s.r.DepthTarget(s.depth)
	require.NoError(t, err)
	assert.Equal(t, gpu.Extent2D{Width: 1024, Height: 768}, depth.Extent())

	fixedAfter, err := s.r.ColorTarget(fixed)
	require.NoError(t, err)
	assert.Same(t, fixedBefore, fixedAfter, "fixed size targets are kept")
	assert.Empty(t, s.dev.Violations)
}

// within panics if fn does not return before d elapses. A blocked fn
// still holds the Renderer lock, so failing normally would hang in Close.
func within(d time.Duration, fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()
	select {
	case <-done:
	case <-time.After(d):
		panic(fmt.Sprintf("still blocked after %s", d))
	}
}

func TestResizeCallbackDuringRebuild(t *testing.T) {
	s := newScene(t, nil)
	s.surf.OnWaitEvents = s.r.NotifyResized
	s.surf.PresentErrors[1] = gpu.ErrOutOfDate
	s.surf.Sizes = []gpu.Extent2D{{}, {Width: 640, Height: 480}}

	var err error
	within(3*time.Second, func() { err = s.drawFrame() })
	require.NoError(t, err)
	assert.Equal(t, 1, s.surf.WaitEventsCalls)
	assert.Equal(t, gpu.Extent2D{Width: 640, Height: 480}, s.r.SurfaceExtent())
	assert.Equal(t, uint64(1), s.r.Stats().Rebuilds)

	require.NoError(t, s.drawFrame())
	st := s.r.Stats()
	assert.Equal(t, uint64(1), st.Rebuilds, "a resize seen while rebuilding needs no second rebuild")
	assert.Equal(t, uint64(1), st.FramesPresented)
	assert.Empty(t, s.dev.Violations)
}

func TestConcurrentCallers(t *testing.T) {
	s := newScene(t, nil)
	const frames = 40
	errs := make(chan error, 128)
	targets := make(chan Handle, 64)
	meshes := make(chan Handle, 64)
	done := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(done)
		for i := 0; i < frames; i++ {
			if err := s.drawFrame(); err != nil {
				errs <- errors.Wrapf(err, "frame %d", i)
				return
			}
		}
	}()

	// Creation inside a render scope is refused; anything else must work.
	tolerate := func(err error) {
		if err != nil && !errors.Is(err, ErrInvalidState) {
			errs <- err
		}
	}
	for g := 0; g < 3; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				h, err := s.r.NewColorTarget()
				if err == nil {
					targets <- h
				}
				tolerate(err)
				m, err := s.r.NewMesh(triangle)
				if err == nil {
					meshes <- m
				}
				tolerate(err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			if f := s.r.CurrentFrame(); f < 0 || f >= MaxFramesInFlight {
				errs <- errors.Errorf("frame index %d out of range", f)
			}
			_ = s.r.Stats()
			_ = s.r.State()
			if i%50 == 0 {
				s.r.NotifyResized()
			}
		}
	}()

	within(10*time.Second, wg.Wait)
	close(errs)
	close(targets)
	close(meshes)
	for err := range errs {
		t.Error(err)
	}

	seen := map[Handle]bool{}
	for h := range targets {
		assert.False(t, seen[h], "color target %s issued twice", h)
		seen[h] = true
		_, err := s.r.ColorTarget(h)
		assert.NoError(t, err)
	}
	seen = map[Handle]bool{}
	for h := range meshes {
		assert.False(t, seen[h], "mesh %s issued twice", h)
		seen[h] = true
		_, err := s.r.Mesh(h)
		assert.NoError(t, err)
	}

	st := s.r.Stats()
	assert.Equal(t, uint64(frames), st.FramesPresented+st.FramesDropped)
	assert.Equal(t, StateIdle, s.r.State())
	assert.Empty(t, s.dev.Violations)
}

func TestStartRenderingWithoutColorTargets(t *testing.T) {
	s := newScene(t, nil)
	require.NoError(t, s.r.StartDraw())
	s.dev.ResetLog()

	err := s.r.StartRendering(nil, s.depth)
	assert.True(t, IsProgrammerError(err))
	assert.ErrorIs(t, err, ErrNoColorTargets)
	assert.Zero(t, s.dev.Count("cmd"), "nothing recorded")
	assert.Empty(t, s.dev.Log)
	assert.Equal(t, StateRecording, s.r.State())

	require.NoError(t, s.r.StartRendering([]Handle{s.color}, s.depth))
}

func TestCallsOutsideTheirState(t *testing.T) {
	s := newScene(t, nil)

	assertMisuse := func(err error) {
		t.Helper()
		assert.True(t, IsProgrammerError(err), "%v", err)
		assert.ErrorIs(t, err, ErrInvalidState)
	}
	assertMisuse(s.r.DrawMesh(s.mesh))
	assertMisuse(s.r.BindPipeline(s.pipeline))
	assertMisuse(s.r.EndRendering())
	assertMisuse(s.r.EndDraw(s.color))
	assertMisuse(s.r.SetViewport(gpu.Viewport{}))

	require.NoError(t, s.r.StartDraw())
	assertMisuse(s.r.StartDraw())
	require.NoError(t, s.r.StartRendering([]Handle{s.color}, NoHandle))
	assertMisuse(s.r.EndDraw(s.color))

	_, err := s.r.NewMesh(triangle)
	assertMisuse(err)
	_, err = s.r.NewColorTarget()
	assertMisuse(err)

	err = s.r.DrawMesh(s.mesh + 100)
	assert.True(t, IsProgrammerError(err))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, s.dev.Violations)
}

func TestBindPipelineChecksScopeFormats(t *testing.T) {
	s := newScene(t, nil)
	hdr, err := s.r.NewColorTargetWithOptions(&TargetOptions{Format: gpu.FormatR16G16B16A16Sfloat})
	require.NoError(t, err)

	require.NoError(t, s.r.StartDraw())
	require.NoError(t, s.r.StartRendering([]Handle{hdr}, s.depth))
	err = s.r.BindPipeline(s.pipeline)
	assert.True(t, IsProgrammerError(err))
	assert.ErrorIs(t, err, ErrIncompatiblePipeline)
	require.NoError(t, s.r.EndRendering())

	require.NoError(t, s.r.EndDraw(hdr), "any color target can be presented")
}

func TestPushConstantAndDescriptorValidation(t *testing.T) {
	s := newScene(t, nil)
	require.NoError(t, s.r.StartDraw())
	require.NoError(t, s.r.StartRendering([]Handle{s.color}, s.depth))
	require.NoError(t, s.r.BindPipeline(s.pipeline))

	assert.NoError(t, s.r.PushConstant(s.pipeline, gpu.ShaderStageVertex, make([]byte, 64)))
	assert.ErrorIs(t, s.r.PushConstant(s.pipeline, gpu.ShaderStageVertex, make([]byte, 65)), ErrInvalidDescription)
	assert.ErrorIs(t, s.r.PushConstant(s.pipeline, gpu.ShaderStageFragment, make([]byte, 4)), ErrInvalidDescription)

	err := s.r.BindDescriptor(s.pipeline, 0, &gputest.DescriptorSet{})
	assert.ErrorIs(t, err, ErrInvalidDescription, "pipeline declares no sets")
}

func TestFenceTimeoutIsFatal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WaitTimeout = Duration(10 * time.Millisecond)
	s := newScene(t, cfg)
	s.dev.StallFences = true

	require.NoError(t, s.drawFrame())
	require.NoError(t, s.drawFrame())
	err := s.drawFrame()
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, ErrDeviceTimeout)

	assert.Equal(t, err, s.r.StartDraw(), "fatal error is latched")
	_, err2 := s.r.NewMesh(triangle)
	assert.True(t, IsFatal(err2))
	assert.NoError(t, s.r.Close())
}

func TestSubmitFailureIsFatal(t *testing.T) {
	s := newScene(t, nil)
	require.NoError(t, s.r.StartDraw())
	require.NoError(t, s.r.StartRendering([]Handle{s.color}, s.depth))
	require.NoError(t, s.r.EndRendering())
	s.dev.Fail["submit"] = gpu.ErrDeviceLost

	err := s.r.EndDraw(s.color)
	assert.True(t, IsFatal(err))
	assert.ErrorIs(t, err, gpu.ErrDeviceLost)
}

func TestCreationFailureRegistersNothing(t *testing.T) {
	r, dev, _ := newTestRenderer(t, nil)
	images := dev.LiveCount("image")
	dev.Fail["image"] = errors.New("out of device memory")

	h, err := r.NewColorTarget()
	assert.True(t, IsCreationFailure(err))
	assert.Equal(t, NoHandle, h)
	assert.Equal(t, images, dev.LiveCount("image"))
	assert.Zero(t, r.colorTargets.Len())

	delete(dev.Fail, "image")
	dev.Fail["buffer"] = errors.New("out of host memory")
	_, err = r.NewMesh(triangle)
	assert.True(t, IsCreationFailure(err))
	assert.Zero(t, r.meshes.Len())

	_, err = r.NewMesh(&MeshData{Vertices: triangle.Vertices, Indices: []uint32{0, 1, 3}})
	assert.True(t, IsCreationFailure(err))
	assert.ErrorIs(t, err, ErrInvalidDescription)

	_, err = r.LoadModel("cube.obj")
	assert.True(t, IsCreationFailure(err), "no mesh loader configured")
}

func TestNewMeshUploadsThroughStaging(t *testing.T) {
	r, dev, _ := newTestRenderer(t, nil)
	h, err := r.NewMesh(triangle)
	require.NoError(t, err)
	m, err := r.Mesh(h)
	require.NoError(t, err)

	assert.Equal(t, uint32(3), m.IndexCount)
	assert.Equal(t, uint64(3*32), m.VertexBuffer.Size())
	assert.Equal(t, uint64(3*4), m.IndexBuffer.Size())
	assert.Equal(t, 2, dev.Count("cmd copy_buffer "))
	assert.Equal(t, 2, dev.LiveCount("buffer"), "staging buffers are released")
}

type fakeMeshLoader map[string]*MeshData

func (l fakeMeshLoader) LoadMesh(path string) (*MeshData, error) {
	if d, ok := l[path]; ok {
		return d, nil
	}
	return nil, errors.Errorf("no such file %s", path)
}

func TestLoadModel(t *testing.T) {
	dev := gputest.NewDevice()
	r, err := NewWithOptions(dev, gputest.NewSurface(dev), &Options{Meshes: fakeMeshLoader{"tri.obj": triangle}})
	require.NoError(t, err)
	defer r.Close()

	h, err := r.LoadModel("tri.obj")
	require.NoError(t, err)
	assert.NotEqual(t, NoHandle, h)

	_, err = r.LoadModel("missing.obj")
	assert.True(t, IsCreationFailure(err))
}

func TestLoadTexture(t *testing.T) {
	r, dev, _ := newTestRenderer(t, nil)
	h, err := r.LoadTexture(TextureDesc{Image: image.NewRGBA(image.Rect(0, 0, 64, 32)), Binding: 1})
	require.NoError(t, err)

	tex, err := r.Texture(h)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), tex.MipLevels)
	assert.Equal(t, TextureFormat, tex.Image.Format())
	assert.Equal(t, 6, dev.Count("cmd blit"))
	assert.Equal(t, 1, dev.Count("cmd copy_buffer_to_image"))

	d, err := r.Descriptor(tex.Descriptor)
	require.NoError(t, err)
	assert.Equal(t, gpu.DescriptorCombinedImageSampler, d.Binding.Type)
	for i := 0; i < MaxFramesInFlight; i++ {
		set := d.Set(i).(*gputest.DescriptorSet)
		assert.Equal(t, tex.Image.(*gputest.Image).String(), set.Writes[1])
	}

	require.NoError(t, r.DestroyTexture(h))
	_, err = r.Descriptor(tex.Descriptor)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, dev.Violations)
}

func TestDestroyAfterOwnedDescriptorDestroyed(t *testing.T) {
	var logs strings.Builder
	SetLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })

	r, dev, _ := newTestRenderer(t, nil)
	th, err := r.LoadTexture(TextureDesc{Image: image.NewRGBA(image.Rect(0, 0, 4, 4))})
	require.NoError(t, err)
	tex, err := r.Texture(th)
	require.NoError(t, err)
	uh, err := r.NewUniformBuffer(UniformBufferDesc{Size: 16})
	require.NoError(t, err)
	ub, err := r.UniformBuffer(uh)
	require.NoError(t, err)

	require.NoError(t, r.DestroyDescriptor(tex.Descriptor))
	require.NoError(t, r.DestroyDescriptor(ub.Descriptor))
	require.NoError(t, r.DestroyTexture(th))
	require.NoError(t, r.DestroyUniformBuffer(uh))

	assert.Equal(t, 2, strings.Count(logs.String(), "owned descriptor already destroyed"))
	assert.Contains(t, logs.String(), "op=DestroyTexture")
	assert.Contains(t, logs.String(), "op=DestroyUniformBuffer")
	assert.Empty(t, dev.Violations, "nothing is destroyed twice")
}

func TestLoadTextureRequiresLinearBlit(t *testing.T) {
	r, dev, _ := newTestRenderer(t, nil)
	dev.Properties = map[gpu.Format]gpu.FormatProperties{TextureFormat: {Optimal: gpu.FeatureSampledImage}}
	images := dev.LiveCount("image")

	_, err := r.LoadTexture(TextureDesc{Image: image.NewRGBA(image.Rect(0, 0, 4, 4))})
	assert.True(t, IsCreationFailure(err))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, images, dev.LiveCount("image"))

	_, err = r.LoadTexture(TextureDesc{})
	assert.ErrorIs(t, err, ErrInvalidDescription)
}

func TestUniformBuffer(t *testing.T) {
	s := newScene(t, nil)
	h, err := s.r.NewUniformBuffer(UniformBufferDesc{Size: 16, Binding: 0})
	require.NoError(t, err)
	ub, err := s.r.UniformBuffer(h)
	require.NoError(t, err)
	require.Len(t, ub.Buffers, MaxFramesInFlight)

	d, err := s.r.Descriptor(ub.Descriptor)
	require.NoError(t, err)
	assert.Equal(t, gpu.DescriptorUniformBuffer, d.Binding.Type)

	err = s.r.UpdateUniformBuffer(h, []byte{1})
	assert.True(t, IsProgrammerError(err))
	assert.ErrorIs(t, err, ErrInvalidState, "the slot's buffer may still be read by the GPU before StartDraw")
	assert.Zero(t, ub.Buffers[0].(*gputest.Buffer).Data[0])

	require.NoError(t, s.drawFrameWith(func() error {
		return s.r.UpdateUniformBuffer(h, []byte{1, 2, 3, 4})
	}))
	assert.Equal(t, []byte{1, 2, 3, 4}, ub.Buffers[0].(*gputest.Buffer).Data[:4])
	require.NoError(t, s.drawFrameWith(func() error {
		return s.r.UpdateUniformBuffer(h, []byte{9})
	}))
	assert.Equal(t, byte(9), ub.Buffers[1].(*gputest.Buffer).Data[0])

	require.NoError(t, s.r.StartDraw())
	assert.ErrorIs(t, s.r.UpdateUniformBuffer(h, make([]byte, 17)), ErrInvalidDescription)
	_, err = s.r.NewUniformBuffer(UniformBufferDesc{})
	assert.True(t, IsCreationFailure(err))
}

func TestPipelineCapturesTargetFormats(t *testing.T) {
	s := newScene(t, nil)
	p, err := s.r.Pipeline(s.pipeline)
	require.NoError(t, err)
	assert.Equal(t, []gpu.Format{gpu.FormatB8G8R8A8Srgb}, p.ColorFormats)
	assert.Equal(t, gpu.FormatD32Sfloat, p.DepthFormat)

	native := p.Native.(*gputest.Pipeline)
	assert.Equal(t, VertexLayout.Stride, native.Desc.Vertex.Stride)
	assert.Len(t, native.Desc.Vertex.Attributes, 3)

	_, err = s.r.NewPipeline(PipelineDesc{VertexShader: "a", FragmentShader: "b"})
	assert.ErrorIs(t, err, ErrNoColorTargets)
	_, err = s.r.NewPipeline(PipelineDesc{VertexShader: "a", FragmentShader: "b", ColorTargets: []Handle{s.color}, Descriptors: []Handle{99}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCloseReleasesEverything(t *testing.T) {
	s := newScene(t, nil)
	_, err := s.r.NewUniformBuffer(UniformBufferDesc{Size: 64})
	require.NoError(t, err)
	_, err = s.r.LoadTexture(TextureDesc{Image: image.NewRGBA(image.Rect(0, 0, 8, 8))})
	require.NoError(t, err)
	require.NoError(t, s.drawFrame())

	require.NoError(t, s.r.Close())
	assert.Empty(t, s.dev.Live())
	assert.Empty(t, s.dev.Violations)

	err = s.r.StartDraw()
	assert.ErrorIs(t, err, ErrClosed)
	assert.NoError(t, s.r.Close())
}
