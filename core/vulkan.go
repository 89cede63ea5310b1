// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"unsafe"

	"github.com/devblok/circe/gfx/vkr"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Instance errors
var (
	ErrNoDevices   = errors.New("no Vulkan capable physical devices")
	ErrNoSurface   = errors.New("surface is not set")
	ErrDeviceIndex = errors.New("physical device index out of range")
)

const (
	validationLayer = "VK_LAYER_KHRONOS_validation"
	debugReportExt  = "VK_EXT_debug_report"
)

// DefaultVulkanApplicationInfo application info describes a Vulkan application
var DefaultVulkanApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   "Circe\x00",
	PEngineName:        "Circe\x00",
}

// NewVulkanInstance creates a Vulkan instance. procAddr is the
// vkGetInstanceProcAddr of the windowing library, or nil to use the
// system loader.
func NewVulkanInstance(appInfo *vk.ApplicationInfo, procAddr unsafe.Pointer, cfg InstanceConfiguration) (*VulkanInstance, error) {
	if cfg.DebugMode {
		cfg.Layers = append(cfg.Layers, validationLayer)
		cfg.Extensions = append(cfg.Extensions, debugReportExt)
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}

	extensions := safeStrings(cfg.Extensions)
	layers := safeStrings(cfg.Layers)
	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateInstance()")
	}
	vk.InitInstance(instance)

	physicalDevices, err := enumerateDevices(instance)
	if err != nil {
		vk.DestroyInstance(instance, nil)
		return nil, err
	}

	return &VulkanInstance{
		configuration:    cfg,
		instance:         instance,
		availableDevices: physicalDevices,
	}, nil
}

// VulkanInstance describes a Vulkan API Instance
type VulkanInstance struct {
	configuration InstanceConfiguration

	availableDevices []vk.PhysicalDevice
	surface          vk.Surface
	instance         vk.Instance
}

var _ Instance = (*VulkanInstance)(nil)

func enumerateDevices(instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var deviceCount uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, nil)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices()")
	}
	if deviceCount == 0 {
		return nil, ErrNoDevices
	}
	availableDevices := make([]vk.PhysicalDevice, deviceCount)
	if err := vk.Error(vk.EnumeratePhysicalDevices(instance, &deviceCount, availableDevices)); err != nil {
		return nil, errors.Wrap(err, "vk.EnumeratePhysicalDevices()")
	}
	return availableDevices, nil
}

// PhysicalDevicesInfo implements interface
func (v *VulkanInstance) PhysicalDevicesInfo() []PhysicalDeviceInfo {
	pdi := make([]PhysicalDeviceInfo, len(v.availableDevices))
	for i, device := range v.availableDevices {
		pdi[i] = physicalDeviceInfo(device)
	}
	return pdi
}

func physicalDeviceInfo(device vk.PhysicalDevice) PhysicalDeviceInfo {
	var info PhysicalDeviceInfo

	var numDeviceExtensions uint32
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &numDeviceExtensions, nil)); err != nil {
		info.Invalid = true
	}
	deviceExt := make([]vk.ExtensionProperties, numDeviceExtensions)
	if err := vk.Error(vk.EnumerateDeviceExtensionProperties(device, "", &numDeviceExtensions, deviceExt)); err != nil {
		info.Invalid = true
	}
	for _, ext := range deviceExt {
		ext.Deref()
		info.Extensions = append(info.Extensions, vk.ToString(ext.ExtensionName[:]))
	}

	var numDeviceLayers uint32
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(device, &numDeviceLayers, nil)); err != nil {
		info.Invalid = true
	}
	deviceLayers := make([]vk.LayerProperties, numDeviceLayers)
	if err := vk.Error(vk.EnumerateDeviceLayerProperties(device, &numDeviceLayers, deviceLayers)); err != nil {
		info.Invalid = true
	}
	for _, layer := range deviceLayers {
		layer.Deref()
		info.Layers = append(info.Layers, vk.ToString(layer.LayerName[:]))
	}

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(device, &memoryProperties)
	memoryProperties.Deref()
	for iMem := uint32(0); iMem < memoryProperties.MemoryHeapCount; iMem++ {
		memoryProperties.MemoryHeaps[iMem].Deref()
		info.Memory += uint(memoryProperties.MemoryHeaps[iMem].Size)
	}

	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()
	info.ID = int(properties.DeviceID)
	info.VendorID = int(properties.VendorID)
	info.Name = vk.ToString(properties.DeviceName[:])
	info.DriverVersion = int(properties.DriverVersion)
	return info
}

// NewDevice creates the logical device for the physical device at idx,
// presenting to the instance surface.
func (v *VulkanInstance) NewDevice(idx int) (*vkr.Device, error) {
	if idx < 0 || idx >= len(v.availableDevices) {
		return nil, ErrDeviceIndex
	}
	if v.surface == vk.NullSurface {
		return nil, ErrNoSurface
	}
	return vkr.NewDevice(v.availableDevices[idx], v.surface)
}

// SetSurface implements interface
func (v *VulkanInstance) SetSurface(pSurface unsafe.Pointer) {
	v.surface = vk.SurfaceFromPointer(uintptr(pSurface))
}

// Surface implements interface
func (v *VulkanInstance) Surface() vk.Surface {
	if v.surface == nil {
		return vk.NullSurface
	}
	return v.surface
}

// Inner returns internal vk.Instance
func (v *VulkanInstance) Inner() interface{} {
	return v.instance
}

// Extensions implements interface
func (v *VulkanInstance) Extensions() []string {
	return v.configuration.Extensions
}

// AvailableDevices implements interface
func (v *VulkanInstance) AvailableDevices() []vk.PhysicalDevice {
	return v.availableDevices
}

// Destroy implements interface
func (v *VulkanInstance) Destroy() {
	v.availableDevices = nil
	if v.surface != vk.NullSurface {
		vk.DestroySurface(v.instance, v.surface, nil)
		v.surface = vk.NullSurface
	}
	vk.DestroyInstance(v.instance, nil)
}
