// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Memory defines a usable memory region.
type Memory struct {
	mapped      bool
	coherent    bool
	len, offset uint
	device      vk.Device
	memory      vk.DeviceMemory
}

// Len returns the length of assigned memory.
func (m *Memory) Len() uint {
	return m.len
}

// Offset returns the start location of assigned memory.
func (m *Memory) Offset() uint {
	return m.offset
}

// Coherent reports whether host writes are visible to the device
// without a flush.
func (m *Memory) Coherent() bool {
	return m.coherent
}

// Get returns the vulkan memory handle.
func (m *Memory) Get() vk.DeviceMemory {
	return m.memory
}

// Map maps the entire memory region.
func (m *Memory) Map() ([]byte, error) {
	var ptr unsafe.Pointer
	if err := vk.Error(vk.MapMemory(m.device, m.memory, vk.DeviceSize(m.offset), vk.DeviceSize(m.len), 0, &ptr)); err != nil {
		return nil, errors.Wrap(err, "vk.MapMemory()")
	}
	m.mapped = true
	return unsafe.Slice((*byte)(ptr), m.len), nil
}

// Unmap removes the memory mapping if it was mapped.
func (m *Memory) Unmap() {
	if m.mapped {
		vk.UnmapMemory(m.device, m.memory)
		m.mapped = false
	}
}

// Flush makes host writes visible to the device. It does nothing
// for coherent memory.
func (m *Memory) Flush() error {
	if m.coherent {
		return nil
	}
	ranges := []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: m.memory,
		Offset: vk.DeviceSize(m.offset),
		Size:   vk.DeviceSize(vk.WholeSize),
	}}
	if err := vk.Error(vk.FlushMappedMemoryRanges(m.device, uint32(len(ranges)), ranges)); err != nil {
		return errors.Wrap(err, "vk.FlushMappedMemoryRanges()")
	}
	return nil
}

// Release frees memory after unmapping it if previously mapped.
func (m *Memory) Release() {
	m.Unmap()
	vk.FreeMemory(m.device, m.memory, nil)
}

// NewMemoryAllocator creates a new memory allocator. Allocates for the logical device,
// reads memory properties of the physical device to influence allocation.
func NewMemoryAllocator(device vk.Device, phyDevice vk.PhysicalDevice) *MemoryAllocator {
	var memProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(phyDevice, &memProperties)
	memProperties.Deref()
	for idx := uint32(0); idx < memProperties.MemoryTypeCount; idx++ {
		memProperties.MemoryTypes[idx].Deref()
	}

	return &MemoryAllocator{
		device:        device,
		memProperties: memProperties,
	}
}

// MemoryAllocator is responsible returning usable
// memory for any resources that may need it.
type MemoryAllocator struct {
	device        vk.Device
	memProperties vk.PhysicalDeviceMemoryProperties
}

// Malloc returns a usable memory chunk with at least the properties asked for.
func (ma *MemoryAllocator) Malloc(req vk.MemoryRequirements, prop vk.MemoryPropertyFlagBits) (Memory, error) {
	memTypeIdx, err := ma.findMemoryType(req.MemoryTypeBits, vk.MemoryPropertyFlags(prop))
	if err != nil {
		return Memory{}, err
	}

	mai := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memTypeIdx,
	}

	var memory vk.DeviceMemory
	if err := vk.Error(vk.AllocateMemory(ma.device, &mai, nil, &memory)); err != nil {
		return Memory{}, errors.Wrap(err, "vk.AllocateMemory()")
	}

	flags := ma.memProperties.MemoryTypes[memTypeIdx].PropertyFlags
	return Memory{
		offset:   0,
		len:      uint(req.Size),
		coherent: flags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit) != 0,
		device:   ma.device,
		memory:   memory,
	}, nil
}

// MallocHostVisible prefers host coherent memory, and falls back
// to any host visible memory.
func (ma *MemoryAllocator) MallocHostVisible(req vk.MemoryRequirements) (Memory, error) {
	mem, err := ma.Malloc(req, vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit)
	if err == errMemoryType {
		return ma.Malloc(req, vk.MemoryPropertyHostVisibleBit)
	}
	return mem, err
}

var errMemoryType = errors.New("suitable memory type not found")

func (ma *MemoryAllocator) findMemoryType(filter uint32, prop vk.MemoryPropertyFlags) (uint32, error) {
	for idx := uint32(0); idx < ma.memProperties.MemoryTypeCount; idx++ {
		if filter&(1<<idx) != 0 && (ma.memProperties.MemoryTypes[idx].PropertyFlags&prop) == prop {
			return idx, nil
		}
	}
	return 0, errMemoryType
}
