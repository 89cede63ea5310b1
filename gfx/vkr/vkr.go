// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the gfx protocol on top of Vulkan.
package vkr

import (
	"github.com/devblok/circe/gfx"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// package errors
var (
	ErrNoQueueFamilies = errors.New("vk.GetPhysicalDeviceQueueFamilyProperties(): no queuefamilies on GPU")
	ErrNoGraphicsQueue = errors.New("could not find a suitable queue family for graphics")
	ErrNoPresentQueue  = errors.New("could not find a queue family with present capabilities")
)

// NewDevice creates a logical device on physical that can draw to and
// present on surface.
func NewDevice(physical vk.PhysicalDevice, surface vk.Surface) (*Device, error) {
	graphics, present, err := findQueueFamilies(physical, surface)
	if err != nil {
		return nil, err
	}

	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: graphics,
		QueueCount:       1,
		PQueuePriorities: []float32{1},
	}}
	if present != graphics {
		queueInfos = append(queueInfos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: present,
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		})
	}

	requiredExtensions := []string{
		vk.KhrSwapchainExtensionName + "\x00",
	}

	var vkDevice vk.Device
	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(requiredExtensions)),
		PpEnabledExtensionNames: requiredExtensions,
	}
	if err := vk.Error(vk.CreateDevice(physical, &dci, nil, &vkDevice)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateDevice()")
	}

	d := &Device{
		physical:       physical,
		surface:        surface,
		device:         vkDevice,
		graphicsFamily: graphics,
		presentFamily:  present,
		allocator:      NewMemoryAllocator(vkDevice, physical),
	}
	vk.GetDeviceQueue(vkDevice, graphics, 0, &d.graphicsQueue)
	vk.GetDeviceQueue(vkDevice, present, 0, &d.presentQueue)

	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: graphics,
	}
	if err := vk.Error(vk.CreateCommandPool(vkDevice, &cpci, nil, &d.commandPool)); err != nil {
		vk.DestroyDevice(vkDevice, nil)
		return nil, errors.Wrap(err, "vk.CreateCommandPool()")
	}

	pcci := vk.PipelineCacheCreateInfo{
		SType: vk.StructureTypePipelineCacheCreateInfo,
	}
	if err := vk.Error(vk.CreatePipelineCache(vkDevice, &pcci, nil, &d.pipelineCache)); err != nil {
		vk.DestroyCommandPool(vkDevice, d.commandPool, nil)
		vk.DestroyDevice(vkDevice, nil)
		return nil, errors.Wrap(err, "vk.CreatePipelineCache()")
	}

	return d, nil
}

// findQueueFamilies prefers one family that does both graphics and
// present, and settles for two separate ones.
func findQueueFamilies(physical vk.PhysicalDevice, surface vk.Surface) (uint32, uint32, error) {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &queueFamilyCount, nil)
	if queueFamilyCount == 0 {
		return 0, 0, ErrNoQueueFamilies
	}
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(physical, &queueFamilyCount, queueFamilies)

	var (
		graphics, present           uint32
		graphicsFound, presentFound bool
		required                    = vk.QueueFlags(vk.QueueGraphicsBit)
	)
	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()

		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(physical, i, surface, &supportsPresent)

		isGraphics := queueFamilies[i].QueueFlags&required != 0
		if isGraphics && supportsPresent.B() {
			return i, i, nil
		}
		if isGraphics && !graphicsFound {
			graphics, graphicsFound = i, true
		}
		if supportsPresent.B() && !presentFound {
			present, presentFound = i, true
		}
	}
	if !graphicsFound {
		return 0, 0, ErrNoGraphicsQueue
	}
	if !presentFound {
		return 0, 0, ErrNoPresentQueue
	}
	return graphics, present, nil
}

// Device is a Vulkan logical device with one graphics
// and one present queue, which may be the same queue.
type Device struct {
	physical vk.PhysicalDevice
	surface  vk.Surface
	device   vk.Device

	graphicsFamily uint32
	presentFamily  uint32
	graphicsQueue  vk.Queue
	presentQueue   vk.Queue

	commandPool   vk.CommandPool
	pipelineCache vk.PipelineCache
	allocator     *MemoryAllocator
}

var _ gfx.Device = (*Device)(nil)

// Inner returns the vk.Device handle.
func (d *Device) Inner() interface{} {
	return d.device
}

// Allocator returns the device memory allocator.
func (d *Device) Allocator() *MemoryAllocator {
	return d.allocator
}

// WaitIdle implements gfx.Device.
func (d *Device) WaitIdle() error {
	if err := vk.Error(vk.DeviceWaitIdle(d.device)); err != nil {
		return errors.Wrap(err, "vk.DeviceWaitIdle()")
	}
	return nil
}

// WaitPresentIdle implements gfx.Device.
func (d *Device) WaitPresentIdle() error {
	if err := vk.Error(vk.QueueWaitIdle(d.presentQueue)); err != nil {
		return errors.Wrap(err, "vk.QueueWaitIdle()")
	}
	return nil
}

// Capabilities implements gfx.SurfaceSupport.
func (d *Device) Capabilities() (gfx.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceCapabilities(d.physical, d.surface, &caps)); err != nil {
		return gfx.SurfaceCapabilities{}, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceCapabilities()")
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()

	return gfx.SurfaceCapabilities{
		MinImageCount:           caps.MinImageCount,
		MaxImageCount:           caps.MaxImageCount,
		CurrentExtent:           extent(caps.CurrentExtent),
		MinImageExtent:          extent(caps.MinImageExtent),
		MaxImageExtent:          extent(caps.MaxImageExtent),
		SupportedUsage:          gfx.ImageUsage(caps.SupportedUsageFlags),
		SupportedTransforms:     gfx.Transform(caps.SupportedTransforms),
		CurrentTransform:        gfx.Transform(caps.CurrentTransform),
		SupportedCompositeAlpha: gfx.CompositeAlpha(caps.SupportedCompositeAlpha),
	}, nil
}

// Formats implements gfx.SurfaceSupport.
func (d *Device) Formats() ([]gfx.SurfaceFormat, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physical, d.surface, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfaceFormats(d.physical, d.surface, &count, formats)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfaceFormats()")
	}

	out := make([]gfx.SurfaceFormat, 0, count)
	for _, f := range formats[:count] {
		f.Deref()
		out = append(out, gfx.SurfaceFormat{
			Format:     gfx.Format(f.Format),
			ColorSpace: gfx.ColorSpace(f.ColorSpace),
		})
	}
	return out, nil
}

// PresentModes implements gfx.SurfaceSupport.
func (d *Device) PresentModes() ([]gfx.PresentMode, error) {
	var count uint32
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.physical, d.surface, &count, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}
	modes := make([]vk.PresentMode, count)
	if err := vk.Error(vk.GetPhysicalDeviceSurfacePresentModes(d.physical, d.surface, &count, modes)); err != nil {
		return nil, errors.Wrap(err, "vk.GetPhysicalDeviceSurfacePresentModes()")
	}

	out := make([]gfx.PresentMode, 0, count)
	for _, m := range modes[:count] {
		out = append(out, gfx.PresentMode(m))
	}
	return out, nil
}

// Release destroys the device. Everything created from it must be
// released first.
func (d *Device) Release() {
	if d.device == nil {
		return
	}
	vk.DestroyPipelineCache(d.device, d.pipelineCache, nil)
	vk.DestroyCommandPool(d.device, d.commandPool, nil)
	vk.DestroyDevice(d.device, nil)
	d.device = nil
}

func extent(e vk.Extent2D) gfx.Extent2D {
	return gfx.Extent2D{Width: e.Width, Height: e.Height}
}
