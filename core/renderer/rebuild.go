// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/circe/gfx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Rebuild tears down the swapchain and everything derived from it,
// and creates it anew.
func (e *Engine) Rebuild() error {
	switch e.State() {
	case StateUninitialized:
		return ErrNotInitialised
	case StateDestroyed:
		return ErrDestroyed
	}
	return e.rebuild(StateRendering)
}

// rebuild leaves the engine in state next on success, and suspended
// when no swapchain could be built.
func (e *Engine) rebuild(next State) error {
	e.setState(StateRebuilding)

	if err := e.device.WaitIdle(); err != nil {
		e.setState(StateSuspended)
		return errors.Wrap(err, "wait idle")
	}
	e.teardown()

	if width, height, ok := e.takeResize(); ok {
		e.callbacks.resize(width, height)
		e.cfg.ScreenWidth, e.cfg.ScreenHeight = width, height
	}

	if err := e.build(); err != nil {
		e.setState(StateSuspended)
		if errors.Cause(err) == gfx.ErrDeferred {
			e.log.WithFields(log.Fields{
				"width":  e.cfg.ScreenWidth,
				"height": e.cfg.ScreenHeight,
			}).Debug("swapchain deferred, surface has no area")
			return nil
		}
		return err
	}

	e.mu.Lock()
	e.stats.Rebuilds++
	e.stats.Images = len(e.targets.views)
	e.mu.Unlock()
	e.setState(next)
	return nil
}

// teardown releases swapchain dependent objects in reverse
// dependency order. Absent objects are skipped, and DestroySwapchain
// only follows a CreateSwapchain that succeeded.
func (e *Engine) teardown() {
	if e.hooked {
		e.callbacks.destroySwapchain()
		e.hooked = false
	}
	e.resources.freeCommands(e.device)
	e.targets.releaseFramebuffers()
	e.resources.releaseFrames()
	e.resources.releasePool()
	e.targets.releasePipeline()
	e.targets.releaseRenderPass()
	e.targets.releaseViews()
	e.targets.releaseSwapchain()

	e.mu.Lock()
	e.stats.Images = 0
	e.mu.Unlock()
}

func (e *Engine) build() error {
	cfg, err := gfx.Negotiate(e.device, gfx.NegotiationOptions{
		Format:     e.cfg.Format,
		ColorSpace: e.cfg.ColorSpace,
		WindowExtent: gfx.Extent2D{
			Width:  e.cfg.ScreenWidth,
			Height: e.cfg.ScreenHeight,
		},
		VSync: e.cfg.VSync,
	})
	if err == gfx.ErrDeferred {
		return err
	} else if err != nil {
		return errors.Wrap(err, "negotiate swapchain")
	}
	if cfg.FormatWarning != "" {
		e.log.Warn(cfg.FormatWarning)
	}
	if cfg.ImageCount < gfx.MaxFramesInFlight {
		return ErrTooFewImages
	}

	sc, err := e.device.CreateSwapchain(cfg)
	if err != nil {
		return errors.Wrap(err, "swapchain")
	}
	e.targets.swapchain = sc
	if sc.Len() < gfx.MaxFramesInFlight {
		return ErrTooFewImages
	}
	cfg.ImageCount = uint32(sc.Len())
	e.swapchain = cfg

	if err := e.callbacks.createSwapchain(cfg); err != nil {
		return errors.Wrap(err, "create swapchain callback")
	}
	e.hooked = true

	if err := e.targets.createViews(e.device); err != nil {
		return err
	}

	rp, err := e.device.CreateRenderPass(e.callbacks.renderPass(cfg))
	if err != nil {
		return errors.Wrap(err, "render pass")
	}
	e.targets.renderPass = rp

	if err := e.targets.createFramebuffers(e.device, e.callbacks.Attachments); err != nil {
		return err
	}

	if err := e.resources.create(e.device, &e.callbacks, len(e.targets.views)); err != nil {
		return err
	}

	if e.callbacks.Pipeline != nil {
		desc, err := e.callbacks.Pipeline(cfg)
		if err != nil {
			return errors.Wrap(err, "pipeline callback")
		}
		desc.Layout = e.resources.layout()
		desc.RenderPass = rp
		desc.Extent = cfg.Extent

		pipeline, err := e.device.CreatePipeline(desc)
		if err != nil {
			return errors.Wrap(err, "pipeline")
		}
		e.targets.pipeline = pipeline
	}

	if err := e.resources.record(e.device, &e.callbacks, &e.targets); err != nil {
		return err
	}

	e.ring.ResetImages(len(e.targets.views))

	e.log.WithFields(log.Fields{
		"width":        cfg.Extent.Width,
		"height":       cfg.Extent.Height,
		"images":       len(e.targets.views),
		"format":       cfg.Format,
		"present_mode": cfg.PresentMode,
	}).Debug("swapchain built")
	return nil
}
