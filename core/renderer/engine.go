// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package renderer drives the frame loop: it owns the swapchain and
// everything derived from it, keeps at most two frames in flight and
// rebuilds the swapchain whenever the surface goes stale.
package renderer

import (
	"sync"

	"github.com/devblok/circe/gfx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// package errors
var (
	ErrDestroyed      = errors.New("renderer has been destroyed")
	ErrNotInitialised = errors.New("renderer is not initialised")
	ErrInitialised    = errors.New("renderer is already initialised")
	ErrTooFewImages   = errors.New("swapchain has fewer images than frames in flight")
	ErrNoRecorder     = errors.New("callbacks: RecordCommandBuffer is required")
)

// State is the lifecycle state of the engine.
type State int

// Engine states.
const (
	StateUninitialized State = iota
	StateSwapchainReady
	StateRendering
	StateRebuilding

	// StateSuspended means the last rebuild did not produce a swapchain,
	// usually because the window is minimized. DrawFrame retries it.
	StateSuspended
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSwapchainReady:
		return "swapchain ready"
	case StateRendering:
		return "rendering"
	case StateRebuilding:
		return "rebuilding"
	case StateSuspended:
		return "suspended"
	case StateDestroyed:
		return "destroyed"
	}
	return "unknown"
}

// Stats is a snapshot of the engine counters.
type Stats struct {
	Presented uint64
	Dropped   uint64
	Rebuilds  uint64

	// Slot is the ring slot the next frame will use.
	Slot   int
	Images int
	State  State
}

// NewEngine creates a not yet initialised engine drawing on dev.
func NewEngine(dev gfx.Device, cb Callbacks, cfg Configuration) (*Engine, error) {
	if cb.RecordCommandBuffer == nil {
		return nil, ErrNoRecorder
	}
	cfg = cfg.withDefaults()
	return &Engine{
		device:    dev,
		callbacks: cb,
		cfg:       cfg,
		log:       cfg.Logger,
	}, nil
}

// Engine is the frame scheduler. DrawFrame, Rebuild, Initialise and
// Destroy must be called from one goroutine. RequestResize, State and
// Stats may be called from any.
type Engine struct {
	device    gfx.Device
	callbacks Callbacks
	cfg       Configuration
	log       log.FieldLogger

	ring      *gfx.InFlightRing
	targets   renderTargets
	resources frameResources
	swapchain gfx.SwapchainConfig
	frame     uint64

	// hooked is set between a successful CreateSwapchain callback and
	// the DestroySwapchain callback that undoes it.
	hooked bool

	mu            sync.Mutex
	state         State
	stats         Stats
	resizePending bool
	resizeWidth   uint32
	resizeHeight  uint32
}

// Initialise creates the frames in flight and the first swapchain.
// A minimized window is not an error, the engine starts suspended.
func (e *Engine) Initialise() error {
	switch e.State() {
	case StateUninitialized:
	case StateDestroyed:
		return ErrDestroyed
	default:
		return ErrInitialised
	}

	ring, err := gfx.NewInFlightRing(e.device)
	if err != nil {
		return errors.Wrap(err, "frames in flight")
	}
	e.ring = ring

	return e.rebuild(StateSwapchainReady)
}

// State returns the current lifecycle state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.stats.State = s
	e.mu.Unlock()
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// SwapchainConfig returns the configuration of the current swapchain.
func (e *Engine) SwapchainConfig() gfx.SwapchainConfig {
	return e.swapchain
}

// RequestResize latches a new window size. The swapchain is rebuilt
// at the end of the next drawn frame.
func (e *Engine) RequestResize(width, height uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resizePending = true
	e.resizeWidth = width
	e.resizeHeight = height
}

func (e *Engine) resizeRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.resizePending
}

func (e *Engine) takeResize() (uint32, uint32, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.resizePending {
		return 0, 0, false
	}
	e.resizePending = false
	return e.resizeWidth, e.resizeHeight, true
}

// DrawFrame renders and presents one frame. Frames that fail for
// reasons other than a stale swapchain are logged and dropped, and
// DrawFrame returns nil. Errors are returned only when the engine
// can't draw at all.
func (e *Engine) DrawFrame() error {
	switch e.State() {
	case StateUninitialized:
		return ErrNotInitialised
	case StateDestroyed:
		return ErrDestroyed
	case StateSuspended:
		if err := e.rebuild(StateRendering); err != nil {
			return err
		}
		if e.State() == StateSuspended {
			return nil
		}
	}
	e.setState(StateRendering)

	e.frame++
	slot := e.ring.Slot()
	logger := e.log.WithFields(log.Fields{
		"frame": e.frame,
		"slot":  e.ring.Current(),
	})

	if err := slot.InFlight.Wait(e.cfg.FenceTimeout); err != nil {
		return e.drop(logger, err, "wait for frame in flight")
	}

	idx, status, err := e.targets.swapchain.Acquire(e.cfg.AcquireTimeout, slot.ImageAvailable)
	if err != nil {
		return e.drop(logger, err, "acquire")
	}
	if status == gfx.StatusOutOfDate {
		logger.Debug("swapchain out of date on acquire")
		return e.rebuild(StateRendering)
	}
	suboptimal := status == gfx.StatusSuboptimal

	logger = logger.WithField("image", idx)
	if int(idx) >= len(e.resources.commands) {
		return e.abandon(logger, errors.Errorf("image %d of %d", idx, len(e.resources.commands)), "acquire")
	}

	if previous := e.ring.ImageFence(idx); previous != nil && previous != slot.InFlight {
		if err := previous.Wait(e.cfg.FenceTimeout); err != nil {
			return e.giveBack(logger, idx, err, "wait for image in flight")
		}
	}
	e.ring.Claim(idx)

	if err := e.updateFrame(idx); err != nil {
		return e.giveBack(logger, idx, err, "update uniform buffer")
	}

	if err := slot.InFlight.Reset(); err != nil {
		return e.giveBack(logger, idx, err, "reset fence")
	}
	if err := e.device.Submit(e.resources.commands[idx], slot.ImageAvailable, slot.RenderFinished, slot.InFlight); err != nil {
		if rerr := e.ring.ReplaceFence(); rerr != nil {
			logger.WithError(rerr).Error("frame in flight fence lost")
		}
		return e.giveBack(logger, idx, err, "submit")
	}

	status, err = e.device.Present(e.targets.swapchain, idx, slot.RenderFinished)
	if err != nil {
		return e.abandon(logger, err, "present")
	}

	e.mu.Lock()
	e.stats.Presented++
	e.mu.Unlock()

	return e.finish(logger.WithField("status", status), status.Stale() || suboptimal || e.resizeRequested())
}

// finish ends a frame whose image went back to the swapchain.
func (e *Engine) finish(logger log.FieldLogger, rebuild bool) error {
	var rebuildErr error
	if rebuild {
		logger.Debug("rebuilding after present")
		rebuildErr = e.rebuild(StateRendering)
	}

	if err := e.device.WaitPresentIdle(); err != nil {
		logger.WithError(err).Warn("wait for present queue")
	}

	e.ring.Advance()
	e.mu.Lock()
	e.stats.Slot = e.ring.Current()
	e.mu.Unlock()

	return rebuildErr
}

// giveBack drops a frame after its image was acquired. An empty
// submission waits on the image available semaphore and signals render
// finished, then the image is presented with its old contents.
func (e *Engine) giveBack(logger log.FieldLogger, idx uint32, cause error, stage string) error {
	slot := e.ring.Slot()
	if err := slot.InFlight.Reset(); err != nil {
		logger.WithError(err).Error("reset fence to give image back")
		return e.abandon(logger, cause, stage)
	}
	if err := e.device.Submit(nil, slot.ImageAvailable, slot.RenderFinished, slot.InFlight); err != nil {
		logger.WithError(err).Error("submit to give image back")
		if rerr := e.ring.ReplaceFence(); rerr != nil {
			logger.WithError(rerr).Error("frame in flight fence lost")
		}
		return e.abandon(logger, cause, stage)
	}

	status, err := e.device.Present(e.targets.swapchain, idx, slot.RenderFinished)
	if err != nil {
		logger.WithError(err).Error("present to give image back")
		return e.abandon(logger, cause, stage)
	}

	err = e.finish(logger.WithField("status", status), status.Stale() || e.resizeRequested())
	e.drop(logger, cause, stage)
	return err
}

// abandon drops a frame that left an image held or a semaphore of the
// slot in an unknown state. The rebuild releases the image with its
// swapchain, and the slot gets new semaphores once the device is idle.
func (e *Engine) abandon(logger log.FieldLogger, cause error, stage string) error {
	err := e.rebuild(StateRendering)
	if rerr := e.ring.ReplaceSemaphores(); rerr != nil {
		logger.WithError(rerr).Error("frame in flight semaphores lost")
		if err == nil {
			err = rerr
		}
	}
	e.drop(logger, cause, stage)
	return err
}

func (e *Engine) updateFrame(idx uint32) error {
	if e.callbacks.PrepareFrame != nil {
		e.callbacks.PrepareFrame(idx)
	}

	buf := e.resources.frames[idx].uniform
	if buf == nil || e.callbacks.UpdateUniformBuffer == nil {
		return nil
	}

	mem, err := buf.Map()
	if err != nil {
		return err
	}
	e.callbacks.UpdateUniformBuffer(idx, mem)
	buf.Unmap()

	return buf.Flush()
}

func (e *Engine) drop(logger log.FieldLogger, err error, stage string) error {
	logger.WithError(err).Warnf("frame dropped: %s", stage)
	e.mu.Lock()
	e.stats.Dropped++
	e.mu.Unlock()
	return nil
}

// Destroy waits for the device to finish, then releases everything
// the engine created. The engine can't be used afterwards.
func (e *Engine) Destroy() {
	if e.State() == StateDestroyed {
		return
	}

	if err := e.device.WaitIdle(); err != nil {
		e.log.WithError(err).Error("wait idle before destroy")
	}
	e.teardown()
	if e.ring != nil {
		e.ring.Release()
		e.ring = nil
	}
	e.setState(StateDestroyed)
}
