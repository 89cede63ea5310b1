// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfxtest provides a recording gfx.Device for tests
// that need no GPU. Every call is appended to a journal. Uniform
// buffer writes are checked against the fences of the work that
// still reads them, and semaphores and swapchain images against
// the operations that signal and release them.
package gfxtest

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/devblok/circe/gfx"
	"github.com/pkg/errors"
)

var _ gfx.Device = (*Device)(nil)

// ErrNoImage is returned by Acquire when every image of the swapchain
// is held by the application.
var ErrNoImage = errors.New("gfxtest: every swapchain image is held")

// AcquireResult scripts one Swapchain.Acquire outcome.
type AcquireResult struct {
	Index  uint32
	Status gfx.Status
	Err    error
}

// PresentResult scripts one Device.Present outcome.
type PresentResult struct {
	Status gfx.Status
	Err    error
}

// NewDevice returns a device whose surface is 640x480 with two to eight
// images, supports mailbox and fifo, and reports B8G8R8A8 sRGB.
func NewDevice() *Device {
	return &Device{
		Caps: gfx.SurfaceCapabilities{
			MinImageCount:           2,
			MaxImageCount:           8,
			CurrentExtent:           gfx.Extent2D{Width: 640, Height: 480},
			MinImageExtent:          gfx.Extent2D{Width: 1, Height: 1},
			MaxImageExtent:          gfx.Extent2D{Width: 4096, Height: 4096},
			SupportedUsage:          gfx.ImageUsageColorAttachment | gfx.ImageUsageTransferDst,
			SupportedTransforms:     gfx.TransformIdentity,
			CurrentTransform:        gfx.TransformIdentity,
			SupportedCompositeAlpha: gfx.CompositeAlphaOpaque,
		},
		SurfaceFormats: []gfx.SurfaceFormat{
			{Format: gfx.FormatB8G8R8A8Srgb, ColorSpace: gfx.ColorSpaceSrgbNonlinear},
		},
		Modes:    []gfx.PresentMode{gfx.PresentModeFifo, gfx.PresentModeMailbox},
		live:     make(map[string]int),
		bound:    make(map[*Object]*Buffer),
		signaled: make(map[*Object]bool),
	}
}

// Device is a fake gfx.Device. Exported fields may be changed between
// calls to script the surface and the queue results.
type Device struct {
	mu sync.Mutex

	Caps           gfx.SurfaceCapabilities
	SurfaceFormats []gfx.SurfaceFormat
	Modes          []gfx.PresentMode
	CapsErr        error

	// Acquires and Presents are consumed front to back. When empty,
	// acquire hands out images round robin and present succeeds.
	Acquires []AcquireResult
	Presents []PresentResult

	// SubmitErrs are returned by successive submissions, nil entries
	// succeed. When empty, submission succeeds.
	SubmitErrs []error

	// Coherent makes Buffer.Flush a no-op that isn't journaled.
	Coherent bool

	journal    []string
	violations []string
	live       map[string]int
	ids        int
	nextImage  uint32
	bound      map[*Object]*Buffer
	fences     []*Fence
	signaled   map[*Object]bool
	swapchain  *Swapchain
}

func (d *Device) record(format string, args ...interface{}) {
	d.journal = append(d.journal, fmt.Sprintf(format, args...))
}

// Journal returns a copy of every recorded call.
func (d *Device) Journal() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.journal))
	copy(out, d.journal)
	return out
}

// JournalMatching returns the recorded calls starting with any of prefixes.
func (d *Device) JournalMatching(prefixes ...string) []string {
	var out []string
	for _, entry := range d.Journal() {
		for _, p := range prefixes {
			if strings.HasPrefix(entry, p) {
				out = append(out, entry)
				break
			}
		}
	}
	return out
}

// Note appends an entry prefixed with "callback " to the journal, so
// that tests can place their own events among the device calls.
func (d *Device) Note(format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("callback "+format, args...)
}

// ClearJournal forgets every recorded call.
func (d *Device) ClearJournal() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.journal = nil
}

// Violations returns the uniform buffer writes that happened while
// the device could still be reading the buffer, semaphores signaled
// twice or waited on unsignaled, and images acquired while held.
func (d *Device) Violations() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.violations...)
}

// Live returns the number of unreleased objects of kind.
func (d *Device) Live(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live[kind]
}

// Fences returns every fence created, in creation order.
func (d *Device) Fences() []*Fence {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Fence(nil), d.fences...)
}

// Held returns the images of the newest swapchain that were acquired
// and not yet presented.
func (d *Device) Held() []uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.swapchain == nil {
		return nil
	}
	var out []uint32
	for idx := range d.swapchain.held {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Bind tells the device that cmd reads buf, so that submitting cmd
// makes buf busy until the submission's fence is waited on.
func (d *Device) Bind(cmd gfx.CommandBuffer, buf gfx.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	o, ok := cmd.(*Object)
	b, bok := buf.(*Buffer)
	if ok && bok {
		d.bound[o] = b
	}
}

func (d *Device) newObject(kind string) *Object {
	d.ids++
	d.live[kind]++
	o := &Object{Kind: kind, ID: d.ids, device: d}
	d.record("create %s", o)
	return o
}

// Capabilities implements gfx.SurfaceSupport.
func (d *Device) Capabilities() (gfx.SurfaceCapabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("query capabilities")
	return d.Caps, d.CapsErr
}

// Formats implements gfx.SurfaceSupport.
func (d *Device) Formats() ([]gfx.SurfaceFormat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]gfx.SurfaceFormat(nil), d.SurfaceFormats...), nil
}

// PresentModes implements gfx.SurfaceSupport.
func (d *Device) PresentModes() ([]gfx.PresentMode, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]gfx.PresentMode(nil), d.Modes...), nil
}

// WaitIdle completes all outstanding work.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("wait idle")
	for _, f := range d.fences {
		f.completed = f.epoch
	}
	return nil
}

// WaitPresentIdle implements gfx.Device.
func (d *Device) WaitPresentIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("wait present idle")
	return nil
}

// CreateFence implements gfx.Device.
func (d *Device) CreateFence(signaled bool) (gfx.Fence, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f := &Fence{Object: d.newObject("fence")}
	if !signaled {
		f.epoch = 1
	}
	d.fences = append(d.fences, f)
	return f, nil
}

// CreateSemaphore implements gfx.Device.
func (d *Device) CreateSemaphore() (gfx.Semaphore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.newObject("semaphore"), nil
}

// CreateSwapchain implements gfx.Device.
func (d *Device) CreateSwapchain(cfg gfx.SwapchainConfig) (gfx.Swapchain, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextImage = 0
	d.swapchain = &Swapchain{
		Object: d.newObject("swapchain"),
		config: cfg,
		held:   make(map[uint32]bool),
	}
	return d.swapchain, nil
}

// CreateImageViews implements gfx.Device.
func (d *Device) CreateImageViews(sc gfx.Swapchain) ([]gfx.ImageView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	views := make([]gfx.ImageView, sc.Len())
	for idx := range views {
		views[idx] = d.newObject("imageview")
	}
	return views, nil
}

// CreateRenderPass implements gfx.Device.
func (d *Device) CreateRenderPass(desc gfx.RenderPassDesc) (gfx.RenderPass, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.newObject("renderpass"), nil
}

// CreateFramebuffer implements gfx.Device.
func (d *Device) CreateFramebuffer(rp gfx.RenderPass, attachments []gfx.ImageView, extent gfx.Extent2D) (gfx.Framebuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(attachments) == 0 {
		return nil, errors.New("framebuffer without attachments")
	}
	return d.newObject("framebuffer"), nil
}

// CreatePipeline implements gfx.Device.
func (d *Device) CreatePipeline(desc gfx.PipelineDesc) (gfx.Pipeline, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.newObject("pipeline"), nil
}

// CreateUniformBuffer implements gfx.Device.
func (d *Device) CreateUniformBuffer(size uint64) (gfx.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return &Buffer{Object: d.newObject("buffer"), data: make([]byte, size)}, nil
}

// CreateDescriptorPool implements gfx.Device.
func (d *Device) CreateDescriptorPool(sets int, bindings []gfx.LayoutBinding) (gfx.DescriptorPool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.newObject("descriptorpool"), nil
}

// CreateDescriptorSetLayout implements gfx.Device.
func (d *Device) CreateDescriptorSetLayout(bindings []gfx.LayoutBinding) (gfx.DescriptorSetLayout, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.newObject("layout"), nil
}

// AllocateDescriptorSet implements gfx.Device.
func (d *Device) AllocateDescriptorSet(pool gfx.DescriptorPool, layout gfx.DescriptorSetLayout) (gfx.DescriptorSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids++
	o := &Object{Kind: "descriptorset", ID: d.ids, device: d}
	d.record("allocate %s", o)
	return o, nil
}

// AllocateCommandBuffers implements gfx.Device.
func (d *Device) AllocateCommandBuffers(count int) ([]gfx.CommandBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buffers := make([]gfx.CommandBuffer, count)
	for idx := range buffers {
		buffers[idx] = d.newObject("commandbuffer")
	}
	return buffers, nil
}

// FreeCommandBuffers implements gfx.Device.
func (d *Device) FreeCommandBuffers(buffers []gfx.CommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("free commandbuffers %d", len(buffers))
	for _, b := range buffers {
		if o, ok := b.(*Object); ok && !o.released {
			o.released = true
			d.live[o.Kind]--
			delete(d.bound, o)
		}
	}
}

// Submit implements gfx.Device.
func (d *Device) Submit(cmd gfx.CommandBuffer, wait, signal gfx.Semaphore, fence gfx.Fence) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.SubmitErrs) > 0 {
		err := d.SubmitErrs[0]
		d.SubmitErrs = d.SubmitErrs[1:]
		if err != nil {
			d.record("submit %s failed", commandName(cmd))
			return err
		}
	}
	f, _ := fence.(*Fence)
	d.record("submit %s wait %s signal %s fence %s", commandName(cmd), wait, signal, fence)
	d.consume(wait, "submit")
	d.signal(signal, "submit")
	if o, ok := cmd.(*Object); ok && f != nil {
		if buf, ok := d.bound[o]; ok {
			buf.busy = f
			buf.busyEpoch = f.epoch
		}
	}
	return nil
}

// Present implements gfx.Device.
func (d *Device) Present(sc gfx.Swapchain, index uint32, wait gfx.Semaphore) (gfx.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("present %d wait %s", index, wait)
	status := gfx.StatusOK
	if len(d.Presents) > 0 {
		r := d.Presents[0]
		d.Presents = d.Presents[1:]
		// a failed present keeps the image and leaves wait as it was
		if r.Err != nil {
			return r.Status, r.Err
		}
		status = r.Status
	}
	d.consume(wait, "present")
	if s, ok := sc.(*Swapchain); ok {
		delete(s.held, index)
	}
	return status, nil
}

func (d *Device) acquire(sc *Swapchain, signal gfx.Semaphore) (uint32, gfx.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Acquires) > 0 {
		r := d.Acquires[0]
		d.Acquires = d.Acquires[1:]
		d.record("acquire %d %s", r.Index, r.Status)
		if r.Err == nil && r.Status != gfx.StatusOutOfDate {
			d.hold(sc, r.Index)
			d.signal(signal, "acquire")
		}
		return r.Index, r.Status, r.Err
	}

	count := uint32(sc.Len())
	for n := uint32(0); n < count; n++ {
		idx := d.nextImage
		d.nextImage = (d.nextImage + 1) % count
		if sc.held[idx] {
			continue
		}
		d.record("acquire %d ok", idx)
		d.hold(sc, idx)
		d.signal(signal, "acquire")
		return idx, gfx.StatusOK, nil
	}
	d.record("acquire timeout")
	return 0, gfx.StatusOK, ErrNoImage
}

func (d *Device) hold(sc *Swapchain, idx uint32) {
	if sc.held[idx] {
		d.violations = append(d.violations, fmt.Sprintf("image %d of %s acquired while held", idx, sc.Object))
	}
	sc.held[idx] = true
}

func (d *Device) signal(s gfx.Semaphore, by string) {
	o, ok := s.(*Object)
	if !ok {
		return
	}
	if d.signaled[o] {
		d.violations = append(d.violations, fmt.Sprintf("%s signals %s while signaled", by, o))
	}
	d.signaled[o] = true
}

func (d *Device) consume(s gfx.Semaphore, by string) {
	o, ok := s.(*Object)
	if !ok {
		return
	}
	if !d.signaled[o] {
		d.violations = append(d.violations, fmt.Sprintf("%s waits on unsignaled %s", by, o))
	}
	delete(d.signaled, o)
}

func commandName(cmd gfx.CommandBuffer) string {
	if cmd == nil {
		return "empty"
	}
	return fmt.Sprint(cmd)
}

// Object is a fake device object.
type Object struct {
	Kind string
	ID   int

	device   *Device
	released bool
}

func (o *Object) String() string {
	return fmt.Sprintf("%s#%d", o.Kind, o.ID)
}

// Inner returns the object id.
func (o *Object) Inner() interface{} {
	return o.ID
}

// Release implements gfx.Releasable.
func (o *Object) Release() {
	d := o.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if o.released {
		return
	}
	o.released = true
	d.live[o.Kind]--
	delete(d.signaled, o)
	d.record("release %s", o)
}

// Fence is a fake fence. Work submitted with it completes
// when the fence is waited on, or when the device is waited idle.
type Fence struct {
	*Object

	// FailWait makes the next Wait return it instead of completing.
	FailWait error

	epoch     int
	completed int
}

// Wait implements gfx.Fence.
func (f *Fence) Wait(timeout time.Duration) error {
	d := f.device
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("wait %s", f.Object)
	if f.FailWait != nil {
		err := f.FailWait
		f.FailWait = nil
		return err
	}
	f.completed = f.epoch
	return nil
}

// Reset implements gfx.Fence.
func (f *Fence) Reset() error {
	d := f.device
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("reset %s", f.Object)
	if f.completed == f.epoch {
		f.epoch++
	}
	return nil
}

// Signaled implements gfx.Fence.
func (f *Fence) Signaled() (bool, error) {
	d := f.device
	d.mu.Lock()
	defer d.mu.Unlock()
	return f.completed == f.epoch, nil
}

// Swapchain is a fake swapchain with exactly the requested image count.
type Swapchain struct {
	*Object
	config gfx.SwapchainConfig
	held   map[uint32]bool
}

// Config implements gfx.Swapchain.
func (s *Swapchain) Config() gfx.SwapchainConfig {
	return s.config
}

// Len implements gfx.Swapchain.
func (s *Swapchain) Len() int {
	return int(s.config.ImageCount)
}

// Acquire implements gfx.Swapchain.
func (s *Swapchain) Acquire(timeout time.Duration, signal gfx.Semaphore) (uint32, gfx.Status, error) {
	return s.device.acquire(s, signal)
}

// Buffer is a fake uniform buffer backed by a byte slice.
type Buffer struct {
	*Object

	data      []byte
	busy      *Fence
	busyEpoch int
}

// Size implements gfx.Buffer.
func (b *Buffer) Size() uint64 {
	return uint64(len(b.data))
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Map implements gfx.Buffer. Mapping a buffer whose last submission
// has not been waited on is recorded as a violation.
func (b *Buffer) Map() ([]byte, error) {
	d := b.device
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record("map %s", b.Object)
	if b.busy != nil && b.busy.completed < b.busyEpoch {
		d.violations = append(d.violations, fmt.Sprintf("%s written while %s unsignaled", b.Object, b.busy.Object))
	}
	return b.data, nil
}

// Unmap implements gfx.Buffer.
func (b *Buffer) Unmap() {}

// Flush implements gfx.Buffer.
func (b *Buffer) Flush() error {
	d := b.device
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.Coherent {
		d.record("flush %s", b.Object)
	}
	return nil
}
