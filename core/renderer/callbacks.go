// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import "github.com/devblok/circe/gfx"

// RecordContext is everything an application needs to record the
// commands for one swapchain image.
type RecordContext struct {
	CommandBuffer gfx.CommandBuffer
	Framebuffer   gfx.Framebuffer
	DescriptorSet gfx.DescriptorSet
	RenderPass    gfx.RenderPass

	// Pipeline is nil when Callbacks.Pipeline is not set.
	Pipeline gfx.Pipeline

	Extent     gfx.Extent2D
	ImageIndex uint32
}

// Callbacks are the phases of the frame loop that the embedding
// application customises. Only RecordCommandBuffer is required.
type Callbacks struct {
	// UniformBufferSize returns the size of one frame's uniform data.
	// Called once per rebuild. Zero means no uniform buffers.
	UniformBufferSize func() uint64

	// DescriptorSetLayout declares the bindings of the descriptor set
	// of one image. Called once per image per rebuild.
	DescriptorSetLayout func(b *gfx.LayoutBuilder)

	// UpdateDescriptorSet writes the binding contents of one image's
	// descriptor set. Called once per image per rebuild.
	UpdateDescriptorSet func(set gfx.DescriptorSet, uniform gfx.Buffer)

	// RecordCommandBuffer records the fixed drawing commands of one
	// image. Called once per image per rebuild.
	RecordCommandBuffer func(rc RecordContext) error

	// PrepareFrame and UpdateUniformBuffer are called once per drawn
	// frame, after the image's previous use has completed.
	PrepareFrame        func(imageIndex uint32)
	UpdateUniformBuffer func(imageIndex uint32, mem []byte)

	// Resize is called during a rebuild that follows RequestResize.
	Resize func(width, height uint32)

	// DestroySwapchain and CreateSwapchain bracket every rebuild, for
	// resources the application derives from the swapchain itself.
	DestroySwapchain func()
	CreateSwapchain  func(cfg gfx.SwapchainConfig) error

	// RenderPass describes the render pass. A single color attachment
	// in the swapchain format is used when nil.
	RenderPass func(cfg gfx.SwapchainConfig) gfx.RenderPassDesc

	// Attachments returns the views that follow the swapchain image
	// view in the framebuffer of image imageIndex, e.g. a depth view.
	Attachments func(imageIndex int) []gfx.ImageView

	// Pipeline describes the graphics pipeline. The engine fills in
	// the layout, render pass and extent. No pipeline is created when nil.
	Pipeline func(cfg gfx.SwapchainConfig) (gfx.PipelineDesc, error)
}

func (c *Callbacks) renderPass(cfg gfx.SwapchainConfig) gfx.RenderPassDesc {
	if c.RenderPass != nil {
		return c.RenderPass(cfg)
	}
	return gfx.RenderPassDesc{ColorFormat: cfg.Format}
}

func (c *Callbacks) uniformBufferSize() uint64 {
	if c.UniformBufferSize == nil {
		return 0
	}
	return c.UniformBufferSize()
}

func (c *Callbacks) destroySwapchain() {
	if c.DestroySwapchain != nil {
		c.DestroySwapchain()
	}
}

func (c *Callbacks) createSwapchain(cfg gfx.SwapchainConfig) error {
	if c.CreateSwapchain == nil {
		return nil
	}
	return c.CreateSwapchain(cfg)
}

func (c *Callbacks) resize(width, height uint32) {
	if c.Resize != nil {
		c.Resize(width, height)
	}
}
