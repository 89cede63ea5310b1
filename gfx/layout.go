// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

// DescriptorType is the kind of resource a binding refers to.
type DescriptorType int32

// Descriptor types, numerically equal to the Vulkan enumerants.
const (
	DescriptorTypeCombinedImageSampler DescriptorType = 1
	DescriptorTypeUniformBuffer        DescriptorType = 6
)

// LayoutBinding is one binding slot of a descriptor set layout.
type LayoutBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  ShaderStage
}

// LayoutBuilder collects the bindings an application declares
// for its per-frame descriptor sets.
type LayoutBuilder struct {
	bindings []LayoutBinding
}

// UniformBuffer declares count uniform buffers at binding.
func (b *LayoutBuilder) UniformBuffer(binding, count uint32, stages ShaderStage) *LayoutBuilder {
	return b.add(binding, DescriptorTypeUniformBuffer, count, stages)
}

// Sampler declares count combined image samplers at binding.
func (b *LayoutBuilder) Sampler(binding, count uint32, stages ShaderStage) *LayoutBuilder {
	return b.add(binding, DescriptorTypeCombinedImageSampler, count, stages)
}

func (b *LayoutBuilder) add(binding uint32, t DescriptorType, count uint32, stages ShaderStage) *LayoutBuilder {
	for idx := range b.bindings {
		if b.bindings[idx].Binding == binding {
			b.bindings[idx] = LayoutBinding{binding, t, count, stages}
			return b
		}
	}
	b.bindings = append(b.bindings, LayoutBinding{
		Binding: binding,
		Type:    t,
		Count:   count,
		Stages:  stages,
	})
	return b
}

// Bindings returns the declared bindings in declaration order.
func (b *LayoutBuilder) Bindings() []LayoutBinding {
	out := make([]LayoutBinding, len(b.bindings))
	copy(out, b.bindings)
	return out
}

// Reset clears every declared binding.
func (b *LayoutBuilder) Reset() {
	b.bindings = b.bindings[:0]
}
