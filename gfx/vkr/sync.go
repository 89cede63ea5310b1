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

// ErrTimeout is returned when a fence wait runs out of time.
var ErrTimeout = errors.New("timed out")

// Fence wraps vk.Fence.
type Fence struct {
	device vk.Device
	fence  vk.Fence
}

var _ gfx.Fence = (*Fence)(nil)

// CreateFence implements gfx.Device.
func (d *Device) CreateFence(signaled bool) (gfx.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	var fence vk.Fence
	if err := vk.Error(vk.CreateFence(d.device, &fci, nil, &fence)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateFence()")
	}
	return &Fence{device: d.device, fence: fence}, nil
}

// Inner returns the vk.Fence handle.
func (f *Fence) Inner() interface{} {
	return f.fence
}

// Wait implements gfx.Fence.
func (f *Fence) Wait(timeout time.Duration) error {
	res := vk.WaitForFences(f.device, 1, []vk.Fence{f.fence}, vk.True, uint64(timeout))
	if res == vk.Timeout {
		return errors.Wrapf(ErrTimeout, "vk.WaitForFences(): after %s", timeout)
	}
	if err := vk.Error(res); err != nil {
		return errors.Wrap(err, "vk.WaitForFences()")
	}
	return nil
}

// Reset implements gfx.Fence.
func (f *Fence) Reset() error {
	if err := vk.Error(vk.ResetFences(f.device, 1, []vk.Fence{f.fence})); err != nil {
		return errors.Wrap(err, "vk.ResetFences()")
	}
	return nil
}

// Signaled implements gfx.Fence.
func (f *Fence) Signaled() (bool, error) {
	switch res := vk.GetFenceStatus(f.device, f.fence); res {
	case vk.Success:
		return true, nil
	case vk.NotReady:
		return false, nil
	default:
		return false, errors.Wrap(vk.Error(res), "vk.GetFenceStatus()")
	}
}

// Release implements gfx.Releasable.
func (f *Fence) Release() {
	if f.fence == vk.NullFence {
		return
	}
	vk.DestroyFence(f.device, f.fence, nil)
	f.fence = vk.NullFence
}

// Semaphore wraps vk.Semaphore.
type Semaphore struct {
	device    vk.Device
	semaphore vk.Semaphore
}

var _ gfx.Semaphore = (*Semaphore)(nil)

// CreateSemaphore implements gfx.Device.
func (d *Device) CreateSemaphore() (gfx.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	var semaphore vk.Semaphore
	if err := vk.Error(vk.CreateSemaphore(d.device, &sci, nil, &semaphore)); err != nil {
		return nil, errors.Wrap(err, "vk.CreateSemaphore()")
	}
	return &Semaphore{device: d.device, semaphore: semaphore}, nil
}

// Inner returns the vk.Semaphore handle.
func (s *Semaphore) Inner() interface{} {
	return s.semaphore
}

// Release implements gfx.Releasable.
func (s *Semaphore) Release() {
	if s.semaphore == vk.NullSemaphore {
		return
	}
	vk.DestroySemaphore(s.device, s.semaphore, nil)
	s.semaphore = vk.NullSemaphore
}

// semaphores unwraps the non-nil semaphores for a submit or present.
func semaphores(sems ...gfx.Semaphore) []vk.Semaphore {
	var out []vk.Semaphore
	for _, s := range sems {
		if s == nil {
			continue
		}
		out = append(out, s.(*Semaphore).semaphore)
	}
	return out
}

func fenceHandle(f gfx.Fence) vk.Fence {
	if f == nil {
		return vk.NullFence
	}
	return f.(*Fence).fence
}
