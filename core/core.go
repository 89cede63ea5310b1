// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core holds the process-wide services around the render engine:
// the Vulkan instance, configuration and time.
package core

import (
	"unsafe"

	"github.com/devblok/circe/core/renderer"
	vk "github.com/vulkan-go/vulkan"
)

// Instance describes a Vulkan instance and supporting methods.
// Once created it is ready to use.
type Instance interface {
	// PhysicalDevicesInfo returns a struct for each Physical Device
	// along with info about those devices
	PhysicalDevicesInfo() []PhysicalDeviceInfo

	// AvailableDevices returns handles of Physical Devices
	// from the Vulkan API
	AvailableDevices() []vk.PhysicalDevice

	// SetSurface sets the window surface for rendering
	SetSurface(unsafe.Pointer)

	// Surface returns the window surface, if it's not set
	// it should return a valid but empty surface
	Surface() vk.Surface

	// Extensions returns enabled instance extensions
	Extensions() []string

	// Inner returns the inner handle of the underlying API
	Inner() interface{}

	// Destroy destroys internal members
	Destroy()
}

// Renderer describes the rendering machinery.
// It's created only with internal values set,
// it needs to be initialised with Initialise() before use.
type Renderer interface {
	// Initialise builds the swapchain and everything that depends on it
	Initialise() error

	// DrawFrame renders and presents one frame
	DrawFrame() error

	// RequestResize notes a new window size, the swapchain is rebuilt
	// at the end of the next frame. Safe to call from any goroutine.
	RequestResize(width, height uint32)

	// Destroy destroys internal members
	Destroy()
}

var _ Renderer = (*renderer.Engine)(nil)

// PhysicalDeviceInfo describes a physical device
type PhysicalDeviceInfo struct {
	ID            int      `json:"id"`
	VendorID      int      `json:"vendorId"`
	Name          string   `json:"name"`
	DriverVersion int      `json:"driverVersion"`
	Memory        uint     `json:"memory"`
	Extensions    []string `json:"extensions"`
	Layers        []string `json:"layers"`

	// Invalid is set when some of the device info could not be read
	Invalid bool `json:"invalid"`
}
