// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"

	"github.com/pkg/errors"
)

// NegotiationOptions are the application's wishes for the swapchain.
type NegotiationOptions struct {
	// Format and ColorSpace are the desired surface format.
	Format     Format
	ColorSpace ColorSpace

	// WindowExtent is used when the surface accepts any extent.
	WindowExtent Extent2D

	// VSync skips the low-latency mailbox mode and presents in fifo order.
	VSync bool
}

// Negotiate works out a swapchain configuration that both the surface
// and the application can live with. It returns ErrDeferred when the
// surface currently has a zero-area extent, which happens while the
// window is minimized.
func Negotiate(surface SurfaceSupport, opts NegotiationOptions) (SwapchainConfig, error) {
	var cfg SwapchainConfig

	modes, err := surface.PresentModes()
	if err != nil {
		return cfg, errors.Wrap(err, "query present modes")
	}
	if cfg.PresentMode, err = choosePresentMode(modes, opts.VSync); err != nil {
		return cfg, err
	}

	caps, err := surface.Capabilities()
	if err != nil {
		return cfg, errors.Wrap(err, "query surface capabilities")
	}

	cfg.ImageCount = ChooseImageCount(caps)
	cfg.Extent = ChooseExtent(caps, opts.WindowExtent)
	if cfg.Extent.Zero() {
		return cfg, ErrDeferred
	}

	if caps.SupportedUsage&ImageUsageColorAttachment == 0 {
		return cfg, ErrUsageUnsupported
	}
	cfg.Usage = ImageUsageColorAttachment

	if caps.SupportedTransforms&TransformIdentity != 0 {
		cfg.Transform = TransformIdentity
	} else {
		cfg.Transform = caps.CurrentTransform
	}
	cfg.CompositeAlpha = chooseCompositeAlpha(caps.SupportedCompositeAlpha)

	formats, err := surface.Formats()
	if err != nil {
		return cfg, errors.Wrap(err, "query surface formats")
	}
	chosen, warning, err := ChooseFormat(formats, SurfaceFormat{opts.Format, opts.ColorSpace})
	if err != nil {
		return cfg, err
	}
	cfg.Format = chosen.Format
	cfg.ColorSpace = chosen.ColorSpace
	cfg.FormatWarning = warning

	return cfg, nil
}

func choosePresentMode(modes []PresentMode, vsync bool) (PresentMode, error) {
	var fifo bool
	for _, m := range modes {
		if m == PresentModeMailbox && !vsync {
			return m, nil
		}
		if m == PresentModeFifo {
			fifo = true
		}
	}
	if !fifo {
		return 0, ErrNoPresentMode
	}
	return PresentModeFifo, nil
}

// ChooseImageCount requests one image more than the minimum,
// within the maximum when the surface has one.
func ChooseImageCount(caps SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// ChooseExtent returns the surface's current extent, or window clamped
// into the supported range when the surface accepts any extent.
// A minimized window stays zero instead of being clamped up.
func ChooseExtent(caps SurfaceCapabilities, window Extent2D) Extent2D {
	if caps.CurrentExtent.Width != AnyExtent {
		return caps.CurrentExtent
	}
	if window.Zero() {
		return Extent2D{}
	}
	return Extent2D{
		Width:  clamp(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func clamp(v, min, max uint32) uint32 {
	if v < min {
		return min
	}
	if max != 0 && v > max {
		return max
	}
	return v
}

func chooseCompositeAlpha(supported CompositeAlpha) CompositeAlpha {
	for _, ca := range []CompositeAlpha{
		CompositeAlphaOpaque,
		CompositeAlphaPreMultiplied,
		CompositeAlphaPostMultiplied,
		CompositeAlphaInherit,
	} {
		if supported&ca != 0 {
			return ca
		}
	}
	return CompositeAlphaOpaque
}

// ChooseFormat picks desired when the surface supports it. Otherwise it
// keeps the desired format with another color space, and as a last resort
// takes the first format reported. The warning is empty only when desired
// was honoured exactly.
func ChooseFormat(formats []SurfaceFormat, desired SurfaceFormat) (SurfaceFormat, string, error) {
	if len(formats) == 0 {
		return SurfaceFormat{}, "", ErrNoFormats
	}

	// A lone undefined entry means the surface has no preference.
	if len(formats) == 1 && formats[0].Format == FormatUndefined {
		return desired, "", nil
	}

	for _, f := range formats {
		if f == desired {
			return f, "", nil
		}
	}
	for _, f := range formats {
		if f.Format == desired.Format {
			return f, fmt.Sprintf("format %d not available in color space %d, using color space %d",
				desired.Format, desired.ColorSpace, f.ColorSpace), nil
		}
	}
	return formats[0], fmt.Sprintf("format %d not available, using format %d",
		desired.Format, formats[0].Format), nil
}
