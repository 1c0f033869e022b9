// Package gputest provides an in-memory gpu driver for tests. Every call is
// appended to a shared log, synchronization objects track their state so
// misuse is reported as a violation, and results can be scripted to inject
// out-of-date surfaces, timeouts and creation failures.
package gputest

import (
	"fmt"
	"strings"
	"time"

	"github.com/celer/vkframe/gpu"
)

// Device is a fake gpu.Device. Submitted work completes immediately unless
// StallFences is set.
type Device struct {
	Log        []string
	Violations []string

	// Properties overrides the default format properties.
	Properties map[gpu.Format]gpu.FormatProperties
	// Fail makes the named create call fail with the given error. Names are
	// "semaphore", "fence", "command_buffer", "image", "buffer", "sampler",
	// "descriptor", "pipeline" and "submit".
	Fail map[string]error
	// StallFences leaves fences unsignaled after a submit, so the next wait
	// times out.
	StallFences bool

	nextID int
	live   map[string]bool
	fences []*Fence
}

func NewDevice() *Device {
	return &Device{
		Fail: make(map[string]error),
		live: make(map[string]bool),
	}
}

func (d *Device) logf(format string, args ...interface{}) {
	d.Log = append(d.Log, fmt.Sprintf(format, args...))
}

func (d *Device) violation(format string, args ...interface{}) {
	d.Violations = append(d.Violations, fmt.Sprintf(format, args...))
}

func (d *Device) newName(kind string) string {
	d.nextID++
	name := fmt.Sprintf("%s#%d", kind, d.nextID)
	d.live[name] = true
	return name
}

func (d *Device) release(name string) {
	if !d.live[name] {
		d.violation("%s destroyed twice", name)
		return
	}
	delete(d.live, name)
	d.logf("destroy %s", name)
}

func (d *Device) failure(op string) error {
	if err, ok := d.Fail[op]; ok && err != nil {
		d.logf("fail %s", op)
		return err
	}
	return nil
}

// Count returns the number of log entries starting with prefix.
func (d *Device) Count(prefix string) int {
	n := 0
	for _, l := range d.Log {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}

// Live returns the names of objects created and not yet destroyed.
func (d *Device) Live() []string {
	ret := make([]string, 0, len(d.live))
	for name := range d.live {
		ret = append(ret, name)
	}
	return ret
}

// LiveCount returns the number of live objects of the given kind.
func (d *Device) LiveCount(kind string) int {
	n := 0
	for name := range d.live {
		if strings.HasPrefix(name, kind+"#") {
			n++
		}
	}
	return n
}

// ResetLog clears the call log.
func (d *Device) ResetLog() {
	d.Log = nil
}

type Semaphore struct {
	dev      *Device
	name     string
	signaled bool
}

func (s *Semaphore) Destroy()       { s.dev.release(s.name) }
func (s *Semaphore) String() string { return s.name }

func (s *Semaphore) signal() {
	if s.signaled {
		s.dev.violation("%s signaled while already signaled", s.name)
	}
	s.signaled = true
}

func (s *Semaphore) wait() {
	if !s.signaled {
		s.dev.violation("%s waited on while unsignaled", s.name)
	}
	s.signaled = false
}

type Fence struct {
	dev      *Device
	name     string
	signaled bool
}

func (f *Fence) Destroy()       { f.dev.release(f.name) }
func (f *Fence) String() string { return f.name }

func (d *Device) CreateSemaphore() (gpu.Semaphore, error) {
	if err := d.failure("semaphore"); err != nil {
		return nil, err
	}
	s := &Semaphore{dev: d, name: d.newName("semaphore")}
	d.logf("create %s", s.name)
	return s, nil
}

func (d *Device) CreateFence(signaled bool) (gpu.Fence, error) {
	if err := d.failure("fence"); err != nil {
		return nil, err
	}
	f := &Fence{dev: d, name: d.newName("fence"), signaled: signaled}
	d.fences = append(d.fences, f)
	d.logf("create %s signaled=%v", f.name, signaled)
	return f, nil
}

func (d *Device) WaitForFence(f gpu.Fence, timeout time.Duration) error {
	fence := f.(*Fence)
	d.logf("wait_fence %s", fence.name)
	if !fence.signaled {
		return gpu.ErrTimeout
	}
	return nil
}

func (d *Device) ResetFence(f gpu.Fence) error {
	fence := f.(*Fence)
	d.logf("reset_fence %s", fence.name)
	fence.signaled = false
	return nil
}

func (d *Device) AllocateCommandBuffer() (gpu.CommandBuffer, error) {
	if err := d.failure("command_buffer"); err != nil {
		return nil, err
	}
	cb := &CommandBuffer{dev: d, name: d.newName("cmd")}
	d.logf("allocate %s", cb.name)
	return cb, nil
}

func (d *Device) FreeCommandBuffer(c gpu.CommandBuffer) {
	cb := c.(*CommandBuffer)
	d.logf("free %s", cb.name)
	if !d.live[cb.name] {
		d.violation("%s freed twice", cb.name)
	}
	delete(d.live, cb.name)
}

func (d *Device) Submit(info gpu.SubmitInfo) error {
	if err := d.failure("submit"); err != nil {
		return err
	}
	names := make([]string, len(info.Commands))
	for i, c := range info.Commands {
		cb := c.(*CommandBuffer)
		if cb.recording {
			d.violation("%s submitted while recording", cb.name)
		}
		names[i] = cb.name
	}
	for _, w := range info.Wait {
		w.Semaphore.(*Semaphore).wait()
	}
	for _, s := range info.Signal {
		s.(*Semaphore).signal()
	}
	fence := ""
	if info.Fence != nil {
		f := info.Fence.(*Fence)
		if f.signaled {
			d.violation("%s submitted while signaled", f.name)
		}
		f.signaled = !d.StallFences
		fence = " fence=" + f.name
	}
	d.logf("submit %s waits=%d signals=%d%s", strings.Join(names, ","), len(info.Wait), len(info.Signal), fence)
	return nil
}

func (d *Device) QueueWaitIdle() error {
	d.logf("queue_wait_idle")
	return nil
}

func (d *Device) WaitIdle() error {
	d.logf("device_wait_idle")
	return nil
}

// DefaultProperties is what FormatProperties reports for formats not listed
// in Device.Properties: every feature for optimal tiling.
var DefaultProperties = gpu.FormatProperties{
	Optimal: gpu.FeatureSampledImage | gpu.FeatureSampledImageFilterLinear | gpu.FeatureColorAttachment |
		gpu.FeatureDepthStencilAttachment | gpu.FeatureBlitSrc | gpu.FeatureBlitDst |
		gpu.FeatureTransferSrc | gpu.FeatureTransferDst,
}

func (d *Device) FormatProperties(f gpu.Format) gpu.FormatProperties {
	if p, ok := d.Properties[f]; ok {
		return p
	}
	if f.IsDepth() {
		p := DefaultProperties
		p.Optimal &^= gpu.FeatureColorAttachment
		return p
	}
	p := DefaultProperties
	p.Optimal &^= gpu.FeatureDepthStencilAttachment
	return p
}

type Image struct {
	dev       *Device
	name      string
	Desc      gpu.ImageDesc
	swapchain bool
}

func (i *Image) Extent() gpu.Extent2D { return i.Desc.Extent }
func (i *Image) Format() gpu.Format   { return i.Desc.Format }
func (i *Image) MipLevels() uint32 {
	if i.Desc.MipLevels == 0 {
		return 1
	}
	return i.Desc.MipLevels
}
func (i *Image) String() string { return i.name }

// Destroyed reports whether Destroy has been called.
func (i *Image) Destroyed() bool { return !i.dev.live[i.name] }

func (i *Image) Destroy() {
	if i.swapchain {
		i.dev.violation("%s is owned by its swapchain", i.name)
		return
	}
	i.dev.release(i.name)
}

func (d *Device) CreateImage(desc gpu.ImageDesc) (gpu.Image, error) {
	if err := d.failure("image"); err != nil {
		return nil, err
	}
	img := &Image{dev: d, name: d.newName("image"), Desc: desc}
	d.logf("create %s %s %s mips=%d", img.name, desc.Format, desc.Extent, img.MipLevels())
	return img, nil
}

type Buffer struct {
	dev  *Device
	name string
	Desc gpu.BufferDesc
	Data []byte
}

func (b *Buffer) Size() uint64   { return b.Desc.Size }
func (b *Buffer) String() string { return b.name }
func (b *Buffer) Destroy()       { b.dev.release(b.name) }

func (b *Buffer) Write(offset uint64, data []byte) error {
	if !b.Desc.HostVisible {
		return fmt.Errorf("%s is not host visible", b.name)
	}
	if offset+uint64(len(data)) > b.Desc.Size {
		return fmt.Errorf("%s: write of %d bytes at %d overflows size %d", b.name, len(data), offset, b.Desc.Size)
	}
	copy(b.Data[offset:], data)
	b.dev.logf("write %s %d", b.name, len(data))
	return nil
}

func (d *Device) CreateBuffer(desc gpu.BufferDesc) (gpu.Buffer, error) {
	if err := d.failure("buffer"); err != nil {
		return nil, err
	}
	b := &Buffer{dev: d, name: d.newName("buffer"), Desc: desc, Data: make([]byte, desc.Size)}
	d.logf("create %s size=%d", b.name, desc.Size)
	return b, nil
}

type Sampler struct {
	dev  *Device
	name string
}

func (s *Sampler) Destroy()       { s.dev.release(s.name) }
func (s *Sampler) String() string { return s.name }

func (d *Device) CreateSampler(desc gpu.SamplerDesc) (gpu.Sampler, error) {
	if err := d.failure("sampler"); err != nil {
		return nil, err
	}
	s := &Sampler{dev: d, name: d.newName("sampler")}
	d.logf("create %s", s.name)
	return s, nil
}

type DescriptorSet struct {
	Group  *DescriptorGroup
	Index  int
	Writes map[uint32]string
}

type DescriptorGroup struct {
	dev      *Device
	name     string
	bindings []gpu.DescriptorBinding
	sets     []*DescriptorSet
}

func (g *DescriptorGroup) Bindings() []gpu.DescriptorBinding { return g.bindings }
func (g *DescriptorGroup) String() string                    { return g.name }
func (g *DescriptorGroup) Destroy()                          { g.dev.release(g.name) }

func (g *DescriptorGroup) Sets() []gpu.DescriptorSet {
	ret := make([]gpu.DescriptorSet, len(g.sets))
	for i, s := range g.sets {
		ret[i] = s
	}
	return ret
}

func (g *DescriptorGroup) binding(set int, binding uint32, want gpu.DescriptorType) error {
	if set < 0 || set >= len(g.sets) {
		return fmt.Errorf("%s: set %d out of range", g.name, set)
	}
	for _, b := range g.bindings {
		if b.Binding == binding {
			if b.Type != want {
				return fmt.Errorf("%s: binding %d is %s, not %s", g.name, binding, b.Type, want)
			}
			return nil
		}
	}
	return fmt.Errorf("%s: no binding %d", g.name, binding)
}

func (g *DescriptorGroup) WriteBuffer(set int, binding uint32, b gpu.Buffer) error {
	if err := g.binding(set, binding, gpu.DescriptorUniformBuffer); err != nil {
		return err
	}
	g.sets[set].Writes[binding] = b.(*Buffer).name
	return nil
}

func (g *DescriptorGroup) WriteImage(set int, binding uint32, img gpu.Image, s gpu.Sampler) error {
	if err := g.binding(set, binding, gpu.DescriptorCombinedImageSampler); err != nil {
		return err
	}
	g.sets[set].Writes[binding] = img.(*Image).name
	return nil
}

func (d *Device) CreateDescriptorGroup(bindings []gpu.DescriptorBinding, sets int) (gpu.DescriptorGroup, error) {
	if err := d.failure("descriptor"); err != nil {
		return nil, err
	}
	g := &DescriptorGroup{dev: d, name: d.newName("descriptor"), bindings: bindings}
	for i := 0; i < sets; i++ {
		g.sets = append(g.sets, &DescriptorSet{Group: g, Index: i, Writes: make(map[uint32]string)})
	}
	d.logf("create %s sets=%d", g.name, sets)
	return g, nil
}

type Pipeline struct {
	dev  *Device
	name string
	Desc gpu.PipelineDesc
}

func (p *Pipeline) Destroy()       { p.dev.release(p.name) }
func (p *Pipeline) String() string { return p.name }

func (d *Device) CreatePipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	if err := d.failure("pipeline"); err != nil {
		return nil, err
	}
	p := &Pipeline{dev: d, name: d.newName("pipeline"), Desc: desc}
	d.logf("create %s colors=%v depth=%s", p.name, desc.ColorFormats, desc.DepthFormat)
	return p, nil
}
