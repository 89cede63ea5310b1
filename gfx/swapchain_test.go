// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"testing"

	"github.com/devblok/circe/gfx"
	"github.com/devblok/circe/gfx/gfxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultOptions = gfx.NegotiationOptions{
	Format:       gfx.FormatB8G8R8A8Srgb,
	ColorSpace:   gfx.ColorSpaceSrgbNonlinear,
	WindowExtent: gfx.Extent2D{Width: 640, Height: 480},
}

func TestImageCountUnbounded(t *testing.T) {
	dev := gfxtest.NewDevice()
	dev.Caps.MinImageCount = 2
	dev.Caps.MaxImageCount = 0

	cfg, err := gfx.Negotiate(dev, defaultOptions)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), cfg.ImageCount)
}

func TestImageCountClamped(t *testing.T) {
	caps := gfx.SurfaceCapabilities{MinImageCount: 3, MaxImageCount: 3}
	assert.Equal(t, uint32(3), gfx.ChooseImageCount(caps))

	caps = gfx.SurfaceCapabilities{MinImageCount: 1, MaxImageCount: 4}
	assert.Equal(t, uint32(2), gfx.ChooseImageCount(caps))
}

func TestExtentAnySize(t *testing.T) {
	dev := gfxtest.NewDevice()
	dev.Caps.CurrentExtent = gfx.Extent2D{Width: gfx.AnyExtent, Height: gfx.AnyExtent}
	dev.Caps.MinImageExtent = gfx.Extent2D{Width: 1, Height: 1}
	dev.Caps.MaxImageExtent = gfx.Extent2D{Width: 4096, Height: 4096}

	cfg, err := gfx.Negotiate(dev, defaultOptions)
	require.NoError(t, err)
	assert.Equal(t, gfx.Extent2D{Width: 640, Height: 480}, cfg.Extent)
}

func TestExtentClampedIntoRange(t *testing.T) {
	caps := gfx.SurfaceCapabilities{
		CurrentExtent:  gfx.Extent2D{Width: gfx.AnyExtent, Height: gfx.AnyExtent},
		MinImageExtent: gfx.Extent2D{Width: 100, Height: 100},
		MaxImageExtent: gfx.Extent2D{Width: 1024, Height: 768},
	}
	assert.Equal(t, gfx.Extent2D{Width: 1024, Height: 100},
		gfx.ChooseExtent(caps, gfx.Extent2D{Width: 5000, Height: 20}))
}

func TestExtentFollowsSurface(t *testing.T) {
	caps := gfx.SurfaceCapabilities{CurrentExtent: gfx.Extent2D{Width: 1920, Height: 1080}}
	assert.Equal(t, gfx.Extent2D{Width: 1920, Height: 1080},
		gfx.ChooseExtent(caps, gfx.Extent2D{Width: 640, Height: 480}))
}

func TestMinimizedIsDeferred(t *testing.T) {
	dev := gfxtest.NewDevice()
	dev.Caps.CurrentExtent = gfx.Extent2D{}

	_, err := gfx.Negotiate(dev, defaultOptions)
	assert.Equal(t, gfx.ErrDeferred, err)

	dev.Caps.CurrentExtent = gfx.Extent2D{Width: gfx.AnyExtent, Height: gfx.AnyExtent}
	opts := defaultOptions
	opts.WindowExtent = gfx.Extent2D{}
	_, err = gfx.Negotiate(dev, opts)
	assert.Equal(t, gfx.ErrDeferred, err)

	assert.Zero(t, dev.Live("swapchain"))
}

func TestPresentModes(t *testing.T) {
	dev := gfxtest.NewDevice()
	dev.Modes = []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeMailbox}

	cfg, err := gfx.Negotiate(dev, defaultOptions)
	require.NoError(t, err)
	assert.Equal(t, gfx.PresentModeMailbox, cfg.PresentMode)

	opts := defaultOptions
	opts.VSync = true
	cfg, err = gfx.Negotiate(dev, opts)
	require.NoError(t, err)
	assert.Equal(t, gfx.PresentModeFifo, cfg.PresentMode)

	dev.Modes = []gfx.PresentMode{gfx.PresentModeImmediate}
	_, err = gfx.Negotiate(dev, defaultOptions)
	assert.Equal(t, gfx.ErrNoPresentMode, err)
}

func TestUsageUnsupported(t *testing.T) {
	dev := gfxtest.NewDevice()
	dev.Caps.SupportedUsage = gfx.ImageUsageTransferDst

	_, err := gfx.Negotiate(dev, defaultOptions)
	assert.Equal(t, gfx.ErrUsageUnsupported, err)
}

func TestTransformFallsBackToCurrent(t *testing.T) {
	dev := gfxtest.NewDevice()
	dev.Caps.SupportedTransforms = 0x2
	dev.Caps.CurrentTransform = 0x2

	cfg, err := gfx.Negotiate(dev, defaultOptions)
	require.NoError(t, err)
	assert.Equal(t, gfx.Transform(0x2), cfg.Transform)
	assert.Equal(t, gfx.CompositeAlphaOpaque, cfg.CompositeAlpha)
}

func TestChooseFormat(t *testing.T) {
	desired := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8Srgb, ColorSpace: gfx.ColorSpaceSrgbNonlinear}

	_, _, err := gfx.ChooseFormat(nil, desired)
	assert.Equal(t, gfx.ErrNoFormats, err)

	chosen, warning, err := gfx.ChooseFormat([]gfx.SurfaceFormat{{Format: gfx.FormatUndefined}}, desired)
	require.NoError(t, err)
	assert.Equal(t, desired, chosen)
	assert.Empty(t, warning)

	chosen, warning, err = gfx.ChooseFormat([]gfx.SurfaceFormat{
		{Format: gfx.FormatB8G8R8A8Unorm},
		desired,
	}, desired)
	require.NoError(t, err)
	assert.Equal(t, desired, chosen)
	assert.Empty(t, warning)

	other := gfx.SurfaceFormat{Format: gfx.FormatB8G8R8A8Srgb, ColorSpace: 1000104001}
	chosen, warning, err = gfx.ChooseFormat([]gfx.SurfaceFormat{{Format: gfx.FormatR8G8B8A8Unorm}, other}, desired)
	require.NoError(t, err)
	assert.Equal(t, other, chosen)
	assert.NotEmpty(t, warning)

	chosen, warning, err = gfx.ChooseFormat([]gfx.SurfaceFormat{{Format: gfx.FormatR8G8B8A8Unorm}}, desired)
	require.NoError(t, err)
	assert.Equal(t, gfx.FormatR8G8B8A8Unorm, chosen.Format)
	assert.NotEmpty(t, warning)
}
