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

// DepthImage is a device local depth attachment with its view.
// It's usable anywhere a gfx.ImageView is.
type DepthImage struct {
	device vk.Device
	image  vk.Image
	view   *ImageView
	memory Memory
}

var _ gfx.ImageView = (*DepthImage)(nil)

// CreateDepthImage creates a depth attachment of format sized to extent.
func (d *Device) CreateDepthImage(format gfx.Format, extent gfx.Extent2D) (*DepthImage, error) {
	ici := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    vk.Format(format),
		Extent: vk.Extent3D{
			Width:  extent.Width,
			Height: extent.Height,
			Depth:  1,
		},
		MipLevels:   1,
		ArrayLayers: 1,
		Samples:     vk.SampleCount1Bit,
		Tiling:      vk.ImageTilingOptimal,
		Usage:       vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
	}

	var image vk.Image
	if err := vk.Error(vk.CreateImage(d.device, &ici, nil, &image)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateImage()")
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, image, &req)
	req.Deref()

	memory, err := d.allocator.Malloc(req, vk.MemoryPropertyDeviceLocalBit)
	if err != nil {
		vk.DestroyImage(d.device, image, nil)
		return nil, err
	}

	if err := vk.Error(vk.BindImageMemory(d.device, image, memory.Get(), vk.DeviceSize(memory.Offset()))); err != nil {
		memory.Release()
		vk.DestroyImage(d.device, image, nil)
		return nil, errors.Wrap(err, "vk.BindImageMemory()")
	}

	view, err := d.createImageView(image, vk.Format(format), vk.ImageAspectDepthBit)
	if err != nil {
		memory.Release()
		vk.DestroyImage(d.device, image, nil)
		return nil, err
	}

	return &DepthImage{
		device: d.device,
		image:  image,
		view:   view,
		memory: memory,
	}, nil
}

// Inner returns the vk.ImageView handle.
func (di *DepthImage) Inner() interface{} {
	return di.view.Inner()
}

// Release implements gfx.Releasable.
func (di *DepthImage) Release() {
	if di.image == nil {
		return
	}
	di.view.Release()
	vk.DestroyImage(di.device, di.image, nil)
	di.memory.Release()
	di.image = nil
}
