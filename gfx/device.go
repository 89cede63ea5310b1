// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "time"

// SurfaceSupport answers what a surface supports on a given device.
type SurfaceSupport interface {
	Capabilities() (SurfaceCapabilities, error)
	Formats() ([]SurfaceFormat, error)
	PresentModes() ([]PresentMode, error)
}

// Swapchain is a ring of presentable images.
type Swapchain interface {
	Handle
	Releasable

	// Config returns the configuration the swapchain was created with.
	Config() SwapchainConfig

	// Len returns the number of images actually created,
	// which may be more than requested.
	Len() int

	// Acquire waits at most timeout for the next image. The image
	// is available for rendering once signal is signaled.
	Acquire(timeout time.Duration, signal Semaphore) (uint32, Status, error)
}

// ImageView is a view over one swapchain image.
type ImageView interface {
	Handle
	Releasable
}

// RenderPass is a declaration of attachment usage.
type RenderPass interface {
	Handle
	Releasable
}

// Framebuffer binds image views to a render pass.
type Framebuffer interface {
	Handle
	Releasable
}

// Pipeline is a graphics pipeline bound to a render pass.
type Pipeline interface {
	Handle
	Releasable
}

// Buffer is a host-visible uniform buffer.
type Buffer interface {
	Handle
	Releasable

	// Size returns the size in bytes requested at creation.
	Size() uint64

	// Map returns the buffer memory for writing.
	Map() ([]byte, error)

	// Unmap ends a Map.
	Unmap()

	// Flush makes host writes visible to the device when the
	// underlying memory is not coherent. It's a no-op otherwise.
	Flush() error
}

// DescriptorPool backs the descriptor sets of one swapchain generation.
type DescriptorPool interface {
	Handle
	Releasable
}

// DescriptorSetLayout declares the bindings of a descriptor set.
type DescriptorSetLayout interface {
	Handle
	Releasable
}

// DescriptorSet binds resources for shaders. It's freed with its pool.
type DescriptorSet interface {
	Handle
}

// CommandBuffer is a recorded list of device commands.
// It's freed back to the device command pool.
type CommandBuffer interface {
	Handle
}

// RenderPassDesc describes the attachments of a render pass.
type RenderPassDesc struct {
	ColorFormat Format

	// DepthFormat adds a depth attachment when not FormatUndefined.
	DepthFormat Format
}

// ShaderModule is one stage of a pipeline.
type ShaderModule struct {
	Stage ShaderStage
	Entry string
	Code  []uint32
}

// PipelineDesc describes a graphics pipeline.
type PipelineDesc struct {
	Shaders    []ShaderModule
	Layout     DescriptorSetLayout
	RenderPass RenderPass
	Extent     Extent2D
	DepthTest  bool
	CullBack   bool
}

// Device is the logical device and presentation queue pair
// that the render engine drives.
type Device interface {
	SurfaceSupport

	// WaitIdle blocks until all submitted work has finished.
	WaitIdle() error

	// WaitPresentIdle blocks until the presentation queue is idle.
	WaitPresentIdle() error

	CreateFence(signaled bool) (Fence, error)
	CreateSemaphore() (Semaphore, error)

	// CreateSwapchain creates a presentable image set for cfg.
	CreateSwapchain(cfg SwapchainConfig) (Swapchain, error)
	CreateImageViews(sc Swapchain) ([]ImageView, error)
	CreateRenderPass(desc RenderPassDesc) (RenderPass, error)
	CreateFramebuffer(rp RenderPass, attachments []ImageView, extent Extent2D) (Framebuffer, error)
	CreatePipeline(desc PipelineDesc) (Pipeline, error)

	CreateUniformBuffer(size uint64) (Buffer, error)
	CreateDescriptorPool(sets int, bindings []LayoutBinding) (DescriptorPool, error)
	CreateDescriptorSetLayout(bindings []LayoutBinding) (DescriptorSetLayout, error)
	AllocateDescriptorSet(pool DescriptorPool, layout DescriptorSetLayout) (DescriptorSet, error)

	AllocateCommandBuffers(count int) ([]CommandBuffer, error)
	FreeCommandBuffers(buffers []CommandBuffer)

	// Submit queues cmd for execution on the graphics queue. Color
	// output waits on wait, signal and fence are signaled on completion.
	// A nil cmd submits no work and only orders the semaphores.
	Submit(cmd CommandBuffer, wait, signal Semaphore, fence Fence) error

	// Present queues image index of sc for display once wait is signaled.
	Present(sc Swapchain, index uint32, wait Semaphore) (Status, error)
}
