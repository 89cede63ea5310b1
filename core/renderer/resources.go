// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/circe/gfx"
	"github.com/pkg/errors"
)

// frameResource is the per-image copy of the state a frame's
// shaders read.
type frameResource struct {
	layout  gfx.DescriptorSetLayout
	uniform gfx.Buffer
	set     gfx.DescriptorSet
}

// frameResources are all per-image resources besides render targets.
type frameResources struct {
	pool     gfx.DescriptorPool
	frames   []frameResource
	commands []gfx.CommandBuffer
}

// create builds count frame resources. The layout callback runs for
// every image first, so that the pool can be sized for all of them.
func (fr *frameResources) create(dev gfx.Device, cb *Callbacks, count int) error {
	size := cb.uniformBufferSize()

	layouts := make([][]gfx.LayoutBinding, count)
	var all []gfx.LayoutBinding
	if cb.DescriptorSetLayout != nil {
		var builder gfx.LayoutBuilder
		for idx := range layouts {
			builder.Reset()
			cb.DescriptorSetLayout(&builder)
			layouts[idx] = builder.Bindings()
			all = append(all, layouts[idx]...)
		}
	}

	if len(all) > 0 {
		pool, err := dev.CreateDescriptorPool(count, all)
		if err != nil {
			return errors.Wrap(err, "descriptor pool")
		}
		fr.pool = pool
	}

	fr.frames = make([]frameResource, count)
	for idx := range fr.frames {
		frame := &fr.frames[idx]

		if size > 0 {
			buf, err := dev.CreateUniformBuffer(size)
			if err != nil {
				return errors.Wrapf(err, "uniform buffer %d", idx)
			}
			frame.uniform = buf
		}

		if len(layouts[idx]) == 0 {
			continue
		}

		layout, err := dev.CreateDescriptorSetLayout(layouts[idx])
		if err != nil {
			return errors.Wrapf(err, "descriptor set layout %d", idx)
		}
		frame.layout = layout

		set, err := dev.AllocateDescriptorSet(fr.pool, layout)
		if err != nil {
			return errors.Wrapf(err, "descriptor set %d", idx)
		}
		frame.set = set

		if cb.UpdateDescriptorSet != nil {
			cb.UpdateDescriptorSet(set, frame.uniform)
		}
	}
	return nil
}

// record allocates one command buffer per image and records each.
func (fr *frameResources) record(dev gfx.Device, cb *Callbacks, rt *renderTargets) error {
	commands, err := dev.AllocateCommandBuffers(len(rt.framebuffers))
	if err != nil {
		return errors.Wrap(err, "command buffers")
	}
	fr.commands = commands

	extent := rt.swapchain.Config().Extent
	for idx, cmd := range commands {
		rc := RecordContext{
			CommandBuffer: cmd,
			Framebuffer:   rt.framebuffers[idx],
			RenderPass:    rt.renderPass,
			Pipeline:      rt.pipeline,
			Extent:        extent,
			ImageIndex:    uint32(idx),
		}
		if idx < len(fr.frames) {
			rc.DescriptorSet = fr.frames[idx].set
		}
		if err := cb.RecordCommandBuffer(rc); err != nil {
			return errors.Wrapf(err, "record command buffer %d", idx)
		}
	}
	return nil
}

// layout returns the descriptor set layout the pipeline is built with.
func (fr *frameResources) layout() gfx.DescriptorSetLayout {
	if len(fr.frames) == 0 {
		return nil
	}
	return fr.frames[0].layout
}

func (fr *frameResources) freeCommands(dev gfx.Device) {
	if len(fr.commands) > 0 {
		dev.FreeCommandBuffers(fr.commands)
	}
	fr.commands = nil
}

func (fr *frameResources) releaseFrames() {
	for _, frame := range fr.frames {
		if frame.uniform != nil {
			frame.uniform.Release()
		}
		if frame.layout != nil {
			frame.layout.Release()
		}
	}
	fr.frames = nil
}

func (fr *frameResources) releasePool() {
	if fr.pool != nil {
		fr.pool.Release()
		fr.pool = nil
	}
}
