package vulkan

import (
	"github.com/pkg/errors"

	vk "github.com/goki/vulkan"

	"github.com/celer/vkframe/gpu"
)

// DescriptorGroup is a set layout, a pool sized for it and the sets
// allocated from that pool. Its sets are vk.DescriptorSet values.
type DescriptorGroup struct {
	Device                *Device
	VKDescriptorSetLayout vk.DescriptorSetLayout
	VKDescriptorPool      vk.DescriptorPool

	bindings []gpu.DescriptorBinding
	sets     []gpu.DescriptorSet
}

var _ gpu.DescriptorGroup = (*DescriptorGroup)(nil)

func (d *Device) CreateDescriptorGroup(bindings []gpu.DescriptorBinding, sets int) (gpu.DescriptorGroup, error) {
	if sets <= 0 {
		return nil, errors.Errorf("descriptor group needs at least one set, got %d", sets)
	}
	g := &DescriptorGroup{Device: d, bindings: append([]gpu.DescriptorBinding(nil), bindings...)}

	layoutBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	counts := make(map[vk.DescriptorType]uint32)
	for i, b := range bindings {
		n := b.Count
		if n == 0 {
			n = 1
		}
		t := vkDescriptorType(b.Type)
		layoutBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  t,
			DescriptorCount: n,
			StageFlags:      vkShaderStages(b.Stages),
		}
		counts[t] += n * uint32(sets)
	}
	err := newError("create descriptor set layout", vk.CreateDescriptorSetLayout(d.VKDevice, &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(layoutBindings)),
		PBindings:    layoutBindings,
	}, nil, &g.VKDescriptorSetLayout))
	if err != nil {
		return nil, err
	}

	var sizes []vk.DescriptorPoolSize
	for t, n := range counts {
		sizes = append(sizes, vk.DescriptorPoolSize{Type: t, DescriptorCount: n})
	}
	err = newError("create descriptor pool", vk.CreateDescriptorPool(d.VKDevice, &vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(sets),
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}, nil, &g.VKDescriptorPool))
	if err != nil {
		g.Destroy()
		return nil, err
	}

	for i := 0; i < sets; i++ {
		var set vk.DescriptorSet
		err = newError("allocate descriptor set", vk.AllocateDescriptorSets(d.VKDevice, &vk.DescriptorSetAllocateInfo{
			SType:              vk.StructureTypeDescriptorSetAllocateInfo,
			DescriptorPool:     g.VKDescriptorPool,
			DescriptorSetCount: 1,
			PSetLayouts:        []vk.DescriptorSetLayout{g.VKDescriptorSetLayout},
		}, &set))
		if err != nil {
			g.Destroy()
			return nil, err
		}
		g.sets = append(g.sets, set)
	}
	return g, nil
}

func (g *DescriptorGroup) Bindings() []gpu.DescriptorBinding {
	return g.bindings
}

func (g *DescriptorGroup) Sets() []gpu.DescriptorSet {
	return g.sets
}

func (g *DescriptorGroup) binding(set int, binding uint32) (gpu.DescriptorBinding, error) {
	if set < 0 || set >= len(g.sets) {
		return gpu.DescriptorBinding{}, errors.Errorf("descriptor set %d out of range [0,%d)", set, len(g.sets))
	}
	for _, b := range g.bindings {
		if b.Binding == binding {
			return b, nil
		}
	}
	return gpu.DescriptorBinding{}, errors.Errorf("no descriptor binding %d", binding)
}

func (g *DescriptorGroup) WriteBuffer(set int, binding uint32, b gpu.Buffer) error {
	db, err := g.binding(set, binding)
	if err != nil {
		return err
	}
	if db.Type == gpu.DescriptorCombinedImageSampler {
		return errors.Errorf("descriptor binding %d holds %s, not a buffer", binding, db.Type)
	}
	g.write(vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          g.sets[set].(vk.DescriptorSet),
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vkDescriptorType(db.Type),
		PBufferInfo:     []vk.DescriptorBufferInfo{b.(*Buffer).descriptorInfo()},
	})
	return nil
}

// WriteImage binds img, expected in the shader read only layout, with s.
func (g *DescriptorGroup) WriteImage(set int, binding uint32, img gpu.Image, s gpu.Sampler) error {
	db, err := g.binding(set, binding)
	if err != nil {
		return err
	}
	if db.Type != gpu.DescriptorCombinedImageSampler {
		return errors.Errorf("descriptor binding %d holds %s, not an image", binding, db.Type)
	}
	g.write(vk.WriteDescriptorSet{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          g.sets[set].(vk.DescriptorSet),
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeCombinedImageSampler,
		PImageInfo: []vk.DescriptorImageInfo{{
			Sampler:     s.(*Sampler).VKSampler,
			ImageView:   img.(*Image).VKImageView,
			ImageLayout: vk.ImageLayoutShaderReadOnlyOptimal,
		}},
	})
	return nil
}

func (g *DescriptorGroup) write(w vk.WriteDescriptorSet) {
	vk.UpdateDescriptorSets(g.Device.VKDevice, 1, []vk.WriteDescriptorSet{w}, 0, nil)
}

// Destroy releases the pool, which frees the sets, and the layout.
func (g *DescriptorGroup) Destroy() {
	dev := g.Device.VKDevice
	if g.VKDescriptorPool != vk.NullDescriptorPool {
		vk.DestroyDescriptorPool(dev, g.VKDescriptorPool, nil)
		g.VKDescriptorPool = vk.NullDescriptorPool
	}
	if g.VKDescriptorSetLayout != vk.NullDescriptorSetLayout {
		vk.DestroyDescriptorSetLayout(dev, g.VKDescriptorSetLayout, nil)
		g.VKDescriptorSetLayout = vk.NullDescriptorSetLayout
	}
	g.sets = nil
}
