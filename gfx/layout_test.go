// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"testing"

	"github.com/devblok/circe/gfx"
	"github.com/stretchr/testify/assert"
)

func TestLayoutBuilder(t *testing.T) {
	var b gfx.LayoutBuilder
	b.UniformBuffer(0, 1, gfx.ShaderStageVertex).
		Sampler(1, 1, gfx.ShaderStageFragment)

	assert.Equal(t, []gfx.LayoutBinding{
		{Binding: 0, Type: gfx.DescriptorTypeUniformBuffer, Count: 1, Stages: gfx.ShaderStageVertex},
		{Binding: 1, Type: gfx.DescriptorTypeCombinedImageSampler, Count: 1, Stages: gfx.ShaderStageFragment},
	}, b.Bindings())
}

func TestLayoutBuilderRedeclare(t *testing.T) {
	var b gfx.LayoutBuilder
	b.UniformBuffer(0, 1, gfx.ShaderStageVertex)
	b.UniformBuffer(0, 2, gfx.ShaderStageVertex|gfx.ShaderStageFragment)

	bindings := b.Bindings()
	assert.Len(t, bindings, 1)
	assert.Equal(t, uint32(2), bindings[0].Count)

	b.Reset()
	assert.Empty(t, b.Bindings())
}
