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

// NewBuffer creates, configures, allocates and binds a new host visible buffer.
func NewBuffer(dev vk.Device, size uint64, usage vk.BufferUsageFlagBits, mode vk.SharingMode, ma *MemoryAllocator) (*Buffer, error) {
	createInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(usage),
		SharingMode: mode,
	}
	var buffer vk.Buffer
	if err := vk.Error(vk.CreateBuffer(dev, &createInfo, nil, &buffer)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateBuffer()")
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(dev, buffer, &req)
	req.Deref()

	memory, err := ma.MallocHostVisible(req)
	if err != nil {
		vk.DestroyBuffer(dev, buffer, nil)
		return nil, err
	}

	if err := vk.Error(vk.BindBufferMemory(dev, buffer, memory.Get(), vk.DeviceSize(memory.Offset()))); err != nil {
		memory.Release()
		vk.DestroyBuffer(dev, buffer, nil)
		return nil, errors.Wrap(err, "vk.BindBufferMemory()")
	}

	return &Buffer{
		device: dev,
		buffer: buffer,
		size:   size,
		memory: memory,
	}, nil
}

// Buffer implements a generic vulkan buffer.
type Buffer struct {
	device vk.Device
	buffer vk.Buffer
	size   uint64

	memory Memory
}

var _ gfx.Buffer = (*Buffer)(nil)

// Mem returns the Memory that the buffer is based on.
func (b *Buffer) Mem() *Memory {
	return &b.memory
}

// Inner returns the vk.Buffer handle.
func (b *Buffer) Inner() interface{} {
	return b.buffer
}

// Size implements gfx.Buffer.
func (b *Buffer) Size() uint64 {
	return b.size
}

// Map implements gfx.Buffer. Only the requested size is returned,
// even when the allocation is larger.
func (b *Buffer) Map() ([]byte, error) {
	mem, err := b.memory.Map()
	if err != nil {
		return nil, err
	}
	return mem[:b.size], nil
}

// Unmap implements gfx.Buffer.
func (b *Buffer) Unmap() {
	b.memory.Unmap()
}

// Flush implements gfx.Buffer.
func (b *Buffer) Flush() error {
	return b.memory.Flush()
}

// Release destroys the buffer and memory asociated with it.
func (b *Buffer) Release() {
	if b.buffer == nil {
		return
	}
	vk.DestroyBuffer(b.device, b.buffer, nil)
	b.memory.Release()
	b.buffer = nil
}

// CreateUniformBuffer implements gfx.Device.
func (d *Device) CreateUniformBuffer(size uint64) (gfx.Buffer, error) {
	return NewBuffer(d.device, size, vk.BufferUsageUniformBufferBit, vk.SharingModeExclusive, d.allocator)
}
