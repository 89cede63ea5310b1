// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"time"

	"github.com/pkg/errors"
)

// MaxFramesInFlight is the number of frames the CPU may record
// ahead of the GPU.
const MaxFramesInFlight = 2

// Fence is a GPU to CPU completion signal.
type Fence interface {
	Handle
	Releasable

	// Wait blocks until the fence is signaled or timeout elapses.
	// A timeout is reported as an error.
	Wait(timeout time.Duration) error

	// Reset returns the fence to the unsignaled state.
	Reset() error

	// Signaled polls the fence without blocking.
	Signaled() (bool, error)
}

// Semaphore is a GPU to GPU ordering signal, opaque to the CPU.
type Semaphore interface {
	Handle
	Releasable
}

// FrameSync is the set of synchronization objects owned by one
// frame in flight.
type FrameSync struct {
	InFlight       Fence
	ImageAvailable Semaphore
	RenderFinished Semaphore
}

// Release frees the objects of the set.
func (fs *FrameSync) Release() {
	if fs.InFlight != nil {
		fs.InFlight.Release()
		fs.InFlight = nil
	}
	if fs.ImageAvailable != nil {
		fs.ImageAvailable.Release()
		fs.ImageAvailable = nil
	}
	if fs.RenderFinished != nil {
		fs.RenderFinished.Release()
		fs.RenderFinished = nil
	}
}

// NewInFlightRing creates MaxFramesInFlight synchronization sets.
// Fences start signaled so the first wait on every slot returns at once.
func NewInFlightRing(dev Device) (*InFlightRing, error) {
	r := &InFlightRing{device: dev}
	for idx := range r.slots {
		fence, err := dev.CreateFence(true)
		if err != nil {
			r.Release()
			return nil, errors.Wrapf(err, "in-flight fence %d", idx)
		}
		r.slots[idx].InFlight = fence

		if r.slots[idx].ImageAvailable, err = dev.CreateSemaphore(); err != nil {
			r.Release()
			return nil, errors.Wrapf(err, "image available semaphore %d", idx)
		}
		if r.slots[idx].RenderFinished, err = dev.CreateSemaphore(); err != nil {
			r.Release()
			return nil, errors.Wrapf(err, "render finished semaphore %d", idx)
		}
	}
	return r, nil
}

// InFlightRing cycles through the synchronization sets of the frames
// in flight, and remembers which fence last used each swapchain image.
type InFlightRing struct {
	device Device

	current int
	slots   [MaxFramesInFlight]FrameSync

	// images holds, per swapchain image, the fence of the frame that
	// last rendered to it, or nil.
	images []Fence
}

// Current returns the index of the current slot.
func (r *InFlightRing) Current() int {
	return r.current
}

// Slot returns the synchronization set of the current slot.
func (r *InFlightRing) Slot() *FrameSync {
	return &r.slots[r.current]
}

// Advance moves to the next slot.
func (r *InFlightRing) Advance() {
	r.current = (r.current + 1) % MaxFramesInFlight
}

// ResetImages sizes the image table to count entries, all empty.
func (r *InFlightRing) ResetImages(count int) {
	r.images = make([]Fence, count)
}

// Images returns the number of tracked swapchain images.
func (r *InFlightRing) Images() int {
	return len(r.images)
}

// ImageFence returns the fence that last used image idx, or nil.
func (r *InFlightRing) ImageFence(idx uint32) Fence {
	if int(idx) >= len(r.images) {
		return nil
	}
	return r.images[idx]
}

// Claim records that image idx is now owned by the current slot.
func (r *InFlightRing) Claim(idx uint32) {
	if int(idx) < len(r.images) {
		r.images[idx] = r.slots[r.current].InFlight
	}
}

// ReplaceFence swaps the current slot's fence for a new signaled one.
// Used when a submission failed after the fence was reset, which would
// otherwise leave the slot waiting on a fence that never signals.
func (r *InFlightRing) ReplaceFence() error {
	fence, err := r.device.CreateFence(true)
	if err != nil {
		return errors.Wrap(err, "replacement fence")
	}
	old := r.slots[r.current].InFlight
	for idx, f := range r.images {
		if f == old {
			r.images[idx] = nil
		}
	}
	if old != nil {
		old.Release()
	}
	r.slots[r.current].InFlight = fence
	return nil
}

// ReplaceSemaphores swaps the current slot's semaphores for new ones,
// for when a failed frame may have left them signaled. The device
// must be idle.
func (r *InFlightRing) ReplaceSemaphores() error {
	available, err := r.device.CreateSemaphore()
	if err != nil {
		return errors.Wrap(err, "replacement image available semaphore")
	}
	finished, err := r.device.CreateSemaphore()
	if err != nil {
		available.Release()
		return errors.Wrap(err, "replacement render finished semaphore")
	}

	slot := &r.slots[r.current]
	if slot.ImageAvailable != nil {
		slot.ImageAvailable.Release()
	}
	if slot.RenderFinished != nil {
		slot.RenderFinished.Release()
	}
	slot.ImageAvailable, slot.RenderFinished = available, finished
	return nil
}

// Release frees every synchronization set.
func (r *InFlightRing) Release() {
	for idx := range r.slots {
		r.slots[idx].Release()
	}
	r.images = nil
}
