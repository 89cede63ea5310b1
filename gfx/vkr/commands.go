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

// CommandBuffer wraps a primary vk.CommandBuffer from the device pool.
type CommandBuffer struct {
	buffer vk.CommandBuffer
}

var _ gfx.CommandBuffer = (*CommandBuffer)(nil)

// Inner returns the vk.CommandBuffer handle.
func (c *CommandBuffer) Inner() interface{} {
	return c.buffer
}

// AllocateCommandBuffers implements gfx.Device.
func (d *Device) AllocateCommandBuffers(count int) ([]gfx.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: uint32(count),
	}

	buffers := make([]vk.CommandBuffer, count)
	if err := vk.Error(vk.AllocateCommandBuffers(d.device, &cbai, buffers)); err != nil {
		return nil, errors.Wrap(err, "vk.AllocateCommandBuffers()")
	}

	out := make([]gfx.CommandBuffer, 0, count)
	for _, b := range buffers {
		out = append(out, &CommandBuffer{buffer: b})
	}
	return out, nil
}

// FreeCommandBuffers implements gfx.Device.
func (d *Device) FreeCommandBuffers(buffers []gfx.CommandBuffer) {
	if len(buffers) == 0 {
		return
	}
	vkBuffers := make([]vk.CommandBuffer, 0, len(buffers))
	for _, b := range buffers {
		vkBuffers = append(vkBuffers, b.(*CommandBuffer).buffer)
	}
	vk.FreeCommandBuffers(d.device, d.commandPool, uint32(len(vkBuffers)), vkBuffers)
}

// Submit implements gfx.Device.
func (d *Device) Submit(cmd gfx.CommandBuffer, wait, signal gfx.Semaphore, fence gfx.Fence) error {
	waits := semaphores(wait)
	signals := semaphores(signal)

	var stages []vk.PipelineStageFlags
	for range waits {
		stages = append(stages, vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit))
	}

	var buffers []vk.CommandBuffer
	if cmd != nil {
		buffers = append(buffers, cmd.(*CommandBuffer).buffer)
	}

	submits := []vk.SubmitInfo{{
		SType:                vk.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   uint32(len(waits)),
		PWaitSemaphores:      waits,
		PWaitDstStageMask:    stages,
		CommandBufferCount:   uint32(len(buffers)),
		PCommandBuffers:      buffers,
		SignalSemaphoreCount: uint32(len(signals)),
		PSignalSemaphores:    signals,
	}}
	if err := vk.Error(vk.QueueSubmit(d.graphicsQueue, uint32(len(submits)), submits, fenceHandle(fence))); err != nil {
		return errors.Wrap(err, "vk.QueueSubmit()")
	}
	return nil
}

// Begin starts recording into the command buffer.
func (c *CommandBuffer) Begin() error {
	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(c.buffer, &cbbi)); err != nil {
		return errors.Wrap(err, "vk.BeginCommandBuffer()")
	}
	return nil
}

// End finishes recording.
func (c *CommandBuffer) End() error {
	if err := vk.Error(vk.EndCommandBuffer(c.buffer)); err != nil {
		return errors.Wrap(err, "vk.EndCommandBuffer()")
	}
	return nil
}

// BeginRenderPass begins rp on fb, clearing color to clear and depth to 1.
func (c *CommandBuffer) BeginRenderPass(rp gfx.RenderPass, fb gfx.Framebuffer, extent gfx.Extent2D, clear [4]float32, depth bool) {
	clearValues := []vk.ClearValue{vk.NewClearValue(clear[:])}
	if depth {
		clearValues = append(clearValues, vk.NewClearDepthStencil(1, 0))
	}
	rpbi := vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  rp.Inner().(vk.RenderPass),
		Framebuffer: fb.Inner().(vk.Framebuffer),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: vk.Extent2D{Width: extent.Width, Height: extent.Height},
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(c.buffer, &rpbi, vk.SubpassContentsInline)
}

// BindPipeline binds p and, when set is not nil, its descriptor set.
func (c *CommandBuffer) BindPipeline(p gfx.Pipeline, set gfx.DescriptorSet) {
	pipeline := p.(*Pipeline)
	vk.CmdBindPipeline(c.buffer, vk.PipelineBindPointGraphics, pipeline.pipeline)
	if set != nil {
		vk.CmdBindDescriptorSets(c.buffer, vk.PipelineBindPointGraphics, pipeline.layout,
			0, 1, []vk.DescriptorSet{set.Inner().(vk.DescriptorSet)}, 0, nil)
	}
}

// Draw records a non-indexed draw of vertices vertices.
func (c *CommandBuffer) Draw(vertices uint32) {
	vk.CmdDraw(c.buffer, vertices, 1, 0, 0)
}

// EndRenderPass ends the current render pass.
func (c *CommandBuffer) EndRenderPass() {
	vk.CmdEndRenderPass(c.buffer)
}
