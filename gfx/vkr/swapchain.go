// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"time"

	"github.com/devblok/circe/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Swapchain wraps vk.Swapchain and its images.
type Swapchain struct {
	device    vk.Device
	swapchain vk.Swapchain
	images    []vk.Image
	config    gfx.SwapchainConfig
}

var _ gfx.Swapchain = (*Swapchain)(nil)

// CreateSwapchain implements gfx.Device. When graphics and present
// queues differ, images are shared concurrently between both families.
func (d *Device) CreateSwapchain(cfg gfx.SwapchainConfig) (gfx.Swapchain, error) {
	sci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         d.surface,
		MinImageCount:   cfg.ImageCount,
		ImageFormat:     vk.Format(cfg.Format),
		ImageColorSpace: vk.ColorSpace(cfg.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  cfg.Extent.Width,
			Height: cfg.Extent.Height,
		},
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(cfg.Usage),
		ImageSharingMode: vk.SharingModeExclusive,
		PreTransform:     vk.SurfaceTransformFlagBits(cfg.Transform),
		CompositeAlpha:   vk.CompositeAlphaFlagBits(cfg.CompositeAlpha),
		PresentMode:      vk.PresentMode(cfg.PresentMode),
		Clipped:          vk.True,
		OldSwapchain:     vk.NullSwapchain,
	}
	if d.graphicsFamily != d.presentFamily {
		sci.ImageSharingMode = vk.SharingModeConcurrent
		sci.QueueFamilyIndexCount = 2
		sci.PQueueFamilyIndices = []uint32{d.graphicsFamily, d.presentFamily}
	}

	var swapchain vk.Swapchain
	if err := vk.Error(vk.CreateSwapchain(d.device, &sci, nil, &swapchain)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateSwapchain()")
	}

	var imageCount uint32
	if err := vk.Error(vk.GetSwapchainImages(d.device, swapchain, &imageCount, nil)); err != nil {
		vk.DestroySwapchain(d.device, swapchain, nil)
		return nil, errors.Wrap(err, "vk.GetSwapchainImages()")
	}
	images := make([]vk.Image, imageCount)
	if err := vk.Error(vk.GetSwapchainImages(d.device, swapchain, &imageCount, images)); err != nil {
		vk.DestroySwapchain(d.device, swapchain, nil)
		return nil, errors.Wrap(err, "vk.GetSwapchainImages()")
	}

	cfg.ImageCount = imageCount
	return &Swapchain{
		device:    d.device,
		swapchain: swapchain,
		images:    images,
		config:    cfg,
	}, nil
}

// Inner returns the vk.Swapchain handle.
func (s *Swapchain) Inner() interface{} {
	return s.swapchain
}

// Config implements gfx.Swapchain.
func (s *Swapchain) Config() gfx.SwapchainConfig {
	return s.config
}

// Len implements gfx.Swapchain.
func (s *Swapchain) Len() int {
	return len(s.images)
}

// Acquire implements gfx.Swapchain.
func (s *Swapchain) Acquire(timeout time.Duration, signal gfx.Semaphore) (uint32, gfx.Status, error) {
	var sem vk.Semaphore
	if signal != nil {
		sem = signal.(*Semaphore).semaphore
	}

	var idx uint32
	res := vk.AcquireNextImage(s.device, s.swapchain, uint64(timeout), sem, vk.NullFence, &idx)
	switch res {
	case vk.Success:
		return idx, gfx.StatusOK, nil
	case vk.Suboptimal:
		return idx, gfx.StatusSuboptimal, nil
	case vk.ErrorOutOfDate:
		return 0, gfx.StatusOutOfDate, nil
	case vk.Timeout, vk.NotReady:
		return 0, gfx.StatusOK, errors.Wrapf(ErrTimeout, "vk.AcquireNextImage(): after %s", timeout)
	default:
		return 0, gfx.StatusOK, errors.Wrap(vk.Error(res), "vk.AcquireNextImage()")
	}
}

// Release implements gfx.Releasable.
func (s *Swapchain) Release() {
	if s.swapchain == vk.NullSwapchain {
		return
	}
	vk.DestroySwapchain(s.device, s.swapchain, nil)
	s.swapchain = vk.NullSwapchain
	s.images = nil
}

// Present implements gfx.Device.
func (d *Device) Present(sc gfx.Swapchain, index uint32, wait gfx.Semaphore) (gfx.Status, error) {
	waits := semaphores(wait)
	pi := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: uint32(len(waits)),
		PWaitSemaphores:    waits,
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{sc.(*Swapchain).swapchain},
		PImageIndices:      []uint32{index},
	}
	switch res := vk.QueuePresent(d.presentQueue, &pi); res {
	case vk.Success:
		return gfx.StatusOK, nil
	case vk.Suboptimal:
		return gfx.StatusSuboptimal, nil
	case vk.ErrorOutOfDate:
		return gfx.StatusOutOfDate, nil
	default:
		return gfx.StatusOK, errors.Wrap(vk.Error(res), "vk.QueuePresent()")
	}
}

// ImageView wraps vk.ImageView.
type ImageView struct {
	device vk.Device
	view   vk.ImageView
}

var _ gfx.ImageView = (*ImageView)(nil)

// CreateImageViews implements gfx.Device.
func (d *Device) CreateImageViews(sc gfx.Swapchain) ([]gfx.ImageView, error) {
	swapchain := sc.(*Swapchain)
	views := make([]gfx.ImageView, 0, len(swapchain.images))
	for _, image := range swapchain.images {
		view, err := d.createImageView(image, vk.Format(swapchain.config.Format), vk.ImageAspectColorBit)
		if err != nil {
			for _, v := range views {
				v.Release()
			}
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (d *Device) createImageView(image vk.Image, format vk.Format, aspect vk.ImageAspectFlagBits) (*ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vk.ImageAspectFlags(aspect),
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	var view vk.ImageView
	if err := vk.Error(vk.CreateImageView(d.device, &ivci, nil, &view)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateImageView()")
	}
	return &ImageView{device: d.device, view: view}, nil
}

// Inner returns the vk.ImageView handle.
func (v *ImageView) Inner() interface{} {
	return v.view
}

// Release implements gfx.Releasable.
func (v *ImageView) Release() {
	if v.view == nil {
		return
	}
	vk.DestroyImageView(v.device, v.view, nil)
	v.view = nil
}
