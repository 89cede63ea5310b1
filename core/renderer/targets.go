// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"github.com/devblok/circe/gfx"
	"github.com/pkg/errors"
)

// renderTargets holds the swapchain and the objects derived from its
// images, one framebuffer per image.
type renderTargets struct {
	swapchain    gfx.Swapchain
	views        []gfx.ImageView
	renderPass   gfx.RenderPass
	framebuffers []gfx.Framebuffer
	pipeline     gfx.Pipeline
}

func (rt *renderTargets) createViews(dev gfx.Device) error {
	views, err := dev.CreateImageViews(rt.swapchain)
	if err != nil {
		return errors.Wrap(err, "image views")
	}
	rt.views = views
	return nil
}

func (rt *renderTargets) createFramebuffers(dev gfx.Device, extra func(int) []gfx.ImageView) error {
	extent := rt.swapchain.Config().Extent
	for idx, view := range rt.views {
		attachments := []gfx.ImageView{view}
		if extra != nil {
			attachments = append(attachments, extra(idx)...)
		}

		fb, err := dev.CreateFramebuffer(rt.renderPass, attachments, extent)
		if err != nil {
			return errors.Wrapf(err, "framebuffer %d", idx)
		}
		rt.framebuffers = append(rt.framebuffers, fb)
	}
	return nil
}

func (rt *renderTargets) releaseFramebuffers() {
	for _, fb := range rt.framebuffers {
		fb.Release()
	}
	rt.framebuffers = nil
}

func (rt *renderTargets) releasePipeline() {
	if rt.pipeline != nil {
		rt.pipeline.Release()
		rt.pipeline = nil
	}
}

func (rt *renderTargets) releaseRenderPass() {
	if rt.renderPass != nil {
		rt.renderPass.Release()
		rt.renderPass = nil
	}
}

func (rt *renderTargets) releaseViews() {
	for _, view := range rt.views {
		view.Release()
	}
	rt.views = nil
}

func (rt *renderTargets) releaseSwapchain() {
	if rt.swapchain != nil {
		rt.swapchain.Release()
		rt.swapchain = nil
	}
}
