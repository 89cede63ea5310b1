// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the presentation protocol that rendering
// backends must implement, and the backend-neutral pieces of the
// swapchain lifecycle built on top of it.
package gfx

// Releasable defines any device object that can be freed.
type Releasable interface {

	// Release frees the object. Releasing twice is a no-op.
	Release()
}

// Handle is a device object that the engine passes through to the
// embedding application. Inner returns the backend handle,
// e.g. vk.CommandBuffer, for the application to type assert.
type Handle interface {
	Inner() interface{}
}

// Extent2D is a size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Zero reports whether either dimension is zero.
func (e Extent2D) Zero() bool {
	return e.Width == 0 || e.Height == 0
}

// AnyExtent is the value of CurrentExtent.Width and Height that a
// surface reports when it accepts any swapchain size.
const AnyExtent = 0xFFFFFFFF

// Format is a pixel format, numerically equal to the Vulkan enumerant.
type Format int32

// Pixel formats the engine refers to by name.
const (
	FormatUndefined     Format = 0
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8Srgb  Format = 50
	FormatR8G8B8A8Unorm Format = 37
	FormatD16Unorm      Format = 124
	FormatD32Sfloat     Format = 126
)

// ColorSpace is a presentation color space.
type ColorSpace int32

// ColorSpaceSrgbNonlinear is the only color space every surface supports.
const ColorSpaceSrgbNonlinear ColorSpace = 0

// SurfaceFormat is a format and color space pair supported by a surface.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode describes how presented images are queued for display.
type PresentMode int32

// Present modes, numerically equal to the Vulkan enumerants.
const (
	PresentModeImmediate   PresentMode = 0
	PresentModeMailbox     PresentMode = 1
	PresentModeFifo        PresentMode = 2
	PresentModeFifoRelaxed PresentMode = 3
)

func (p PresentMode) String() string {
	switch p {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFifo:
		return "fifo"
	case PresentModeFifoRelaxed:
		return "fifo-relaxed"
	}
	return "unknown"
}

// Transform is a set of surface transform bits.
type Transform uint32

// TransformIdentity leaves presented images as they are.
const TransformIdentity Transform = 0x1

// CompositeAlpha is a set of composite alpha bits.
type CompositeAlpha uint32

// Composite alpha modes in order of preference.
const (
	CompositeAlphaOpaque         CompositeAlpha = 0x1
	CompositeAlphaPreMultiplied  CompositeAlpha = 0x2
	CompositeAlphaPostMultiplied CompositeAlpha = 0x4
	CompositeAlphaInherit        CompositeAlpha = 0x8
)

// ImageUsage is a set of image usage bits.
type ImageUsage uint32

// Image usages the swapchain cares about.
const (
	ImageUsageTransferSrc     ImageUsage = 0x1
	ImageUsageTransferDst     ImageUsage = 0x2
	ImageUsageColorAttachment ImageUsage = 0x10
)

// SurfaceCapabilities are the limits a surface reports for a device.
type SurfaceCapabilities struct {
	MinImageCount uint32

	// MaxImageCount of zero means there is no limit.
	MaxImageCount uint32

	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D

	SupportedUsage          ImageUsage
	SupportedTransforms     Transform
	CurrentTransform        Transform
	SupportedCompositeAlpha CompositeAlpha
}

// SwapchainConfig is the outcome of surface negotiation,
// everything needed to create a presentable image set.
type SwapchainConfig struct {
	ImageCount     uint32
	Extent         Extent2D
	Format         Format
	ColorSpace     ColorSpace
	PresentMode    PresentMode
	Transform      Transform
	CompositeAlpha CompositeAlpha
	Usage          ImageUsage

	// FormatWarning is set when the desired format or color space
	// could not be honoured and a fallback was chosen.
	FormatWarning string
}

// ShaderStage is a set of shader stage bits.
type ShaderStage uint32

// Shader stages.
const (
	ShaderStageVertex   ShaderStage = 0x1
	ShaderStageFragment ShaderStage = 0x10
)
