// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/circe/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// DescriptorPool wraps vk.DescriptorPool.
type DescriptorPool struct {
	device vk.Device
	pool   vk.DescriptorPool
}

var _ gfx.DescriptorPool = (*DescriptorPool)(nil)

// CreateDescriptorPool implements gfx.Device. The pool holds sets
// descriptor sets, sized by the sum of descriptors of each type in bindings.
func (d *Device) CreateDescriptorPool(sets int, bindings []gfx.LayoutBinding) (gfx.DescriptorPool, error) {
	counts := make(map[gfx.DescriptorType]uint32)
	var order []gfx.DescriptorType
	for _, b := range bindings {
		if _, ok := counts[b.Type]; !ok {
			order = append(order, b.Type)
		}
		counts[b.Type] += b.Count
	}

	sizes := make([]vk.DescriptorPoolSize, 0, len(order))
	for _, t := range order {
		sizes = append(sizes, vk.DescriptorPoolSize{
			Type:            vk.DescriptorType(t),
			DescriptorCount: counts[t],
		})
	}

	dpci := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       uint32(sets),
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}

	var pool vk.DescriptorPool
	if err := vk.Error(vk.CreateDescriptorPool(d.device, &dpci, nil, &pool)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateDescriptorPool()")
	}
	return &DescriptorPool{device: d.device, pool: pool}, nil
}

// Inner returns the vk.DescriptorPool handle.
func (p *DescriptorPool) Inner() interface{} {
	return p.pool
}

// Release implements gfx.Releasable. Sets allocated from the pool
// are freed with it.
func (p *DescriptorPool) Release() {
	if p.pool == nil {
		return
	}
	vk.DestroyDescriptorPool(p.device, p.pool, nil)
	p.pool = nil
}

// DescriptorSetLayout wraps vk.DescriptorSetLayout.
type DescriptorSetLayout struct {
	device vk.Device
	layout vk.DescriptorSetLayout
}

var _ gfx.DescriptorSetLayout = (*DescriptorSetLayout)(nil)

// CreateDescriptorSetLayout implements gfx.Device.
func (d *Device) CreateDescriptorSetLayout(bindings []gfx.LayoutBinding) (gfx.DescriptorSetLayout, error) {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, 0, len(bindings))
	for _, b := range bindings {
		vkBindings = append(vkBindings, vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  vk.DescriptorType(b.Type),
			DescriptorCount: b.Count,
			StageFlags:      vk.ShaderStageFlags(b.Stages),
		})
	}

	dslci := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}

	var layout vk.DescriptorSetLayout
	if err := vk.Error(vk.CreateDescriptorSetLayout(d.device, &dslci, nil, &layout)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateDescriptorSetLayout()")
	}
	return &DescriptorSetLayout{device: d.device, layout: layout}, nil
}

// Inner returns the vk.DescriptorSetLayout handle.
func (l *DescriptorSetLayout) Inner() interface{} {
	return l.layout
}

// Release implements gfx.Releasable.
func (l *DescriptorSetLayout) Release() {
	if l.layout == vk.NullDescriptorSetLayout {
		return
	}
	vk.DestroyDescriptorSetLayout(l.device, l.layout, nil)
	l.layout = vk.NullDescriptorSetLayout
}

// DescriptorSet wraps vk.DescriptorSet.
type DescriptorSet struct {
	device vk.Device
	set    vk.DescriptorSet
}

var _ gfx.DescriptorSet = (*DescriptorSet)(nil)

// AllocateDescriptorSet implements gfx.Device.
func (d *Device) AllocateDescriptorSet(pool gfx.DescriptorPool, layout gfx.DescriptorSetLayout) (gfx.DescriptorSet, error) {
	dsai := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     pool.(*DescriptorPool).pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{layout.(*DescriptorSetLayout).layout},
	}

	var set vk.DescriptorSet
	if err := vk.Error(vk.AllocateDescriptorSets(d.device, &dsai, &set)); err != nil {
		return nil, errors.Wrap(err, "vk.AllocateDescriptorSets()")
	}
	return &DescriptorSet{device: d.device, set: set}, nil
}

// Inner returns the vk.DescriptorSet handle.
func (s *DescriptorSet) Inner() interface{} {
	return s.set
}

// WriteUniform points binding of the set at the whole of buf.
func (s *DescriptorSet) WriteUniform(binding uint32, buf gfx.Buffer) {
	wds := []vk.WriteDescriptorSet{{
		SType:           vk.StructureTypeWriteDescriptorSet,
		DstSet:          s.set,
		DstBinding:      binding,
		DescriptorCount: 1,
		DescriptorType:  vk.DescriptorTypeUniformBuffer,
		PBufferInfo: []vk.DescriptorBufferInfo{{
			Buffer: buf.Inner().(vk.Buffer),
			Offset: 0,
			Range:  vk.DeviceSize(buf.Size()),
		}},
	}}
	vk.UpdateDescriptorSets(s.device, uint32(len(wds)), wds, 0, nil)
}
