// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"time"

	"github.com/devblok/circe/gfx"
	log "github.com/sirupsen/logrus"
)

// Configuration describes the renderer configuration
type Configuration struct {
	// ScreenWidth and ScreenHeight are used when the surface
	// lets the swapchain pick its own size.
	ScreenWidth  uint32
	ScreenHeight uint32

	Format     gfx.Format
	ColorSpace gfx.ColorSpace

	// VSync presents in fifo order even when mailbox is available.
	VSync bool

	// AcquireTimeout bounds the wait for the next swapchain image,
	// FenceTimeout the wait for a frame in flight.
	AcquireTimeout time.Duration
	FenceTimeout   time.Duration

	Logger log.FieldLogger
}

// Default values for unset configuration fields.
const (
	DefaultAcquireTimeout = 2 * time.Second
	DefaultFenceTimeout   = 10 * time.Second
)

func (c Configuration) withDefaults() Configuration {
	if c.ScreenWidth == 0 && c.ScreenHeight == 0 {
		c.ScreenWidth, c.ScreenHeight = 800, 600
	}
	if c.Format == gfx.FormatUndefined {
		c.Format = gfx.FormatB8G8R8A8Srgb
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	if c.FenceTimeout <= 0 {
		c.FenceTimeout = DefaultFenceTimeout
	}
	if c.Logger == nil {
		c.Logger = log.StandardLogger()
	}
	return c
}
