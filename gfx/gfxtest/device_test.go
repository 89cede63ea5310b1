// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfxtest_test

import (
	"testing"

	"github.com/devblok/circe/gfx"
	"github.com/devblok/circe/gfx/gfxtest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteWhileBusyIsViolation(t *testing.T) {
	dev := gfxtest.NewDevice()
	fence, err := dev.CreateFence(true)
	require.NoError(t, err)
	buf, err := dev.CreateUniformBuffer(16)
	require.NoError(t, err)
	cmds, err := dev.AllocateCommandBuffers(1)
	require.NoError(t, err)
	dev.Bind(cmds[0], buf)

	require.NoError(t, fence.Reset())
	require.NoError(t, dev.Submit(cmds[0], nil, nil, fence))

	_, err = buf.Map()
	require.NoError(t, err)
	assert.Len(t, dev.Violations(), 1)

	require.NoError(t, fence.Wait(0))
	_, err = buf.Map()
	require.NoError(t, err)
	assert.Len(t, dev.Violations(), 1)
}

func TestWaitIdleCompletesEverything(t *testing.T) {
	dev := gfxtest.NewDevice()
	fence, err := dev.CreateFence(false)
	require.NoError(t, err)

	ok, err := fence.Signaled()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, dev.WaitIdle())
	ok, err = fence.Signaled()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAcquireRoundRobin(t *testing.T) {
	dev := gfxtest.NewDevice()
	sc, err := dev.CreateSwapchain(gfx.SwapchainConfig{ImageCount: 3})
	require.NoError(t, err)

	var got []uint32
	for idx := 0; idx < 4; idx++ {
		image, _, err := sc.Acquire(0, nil)
		require.NoError(t, err)
		got = append(got, image)
		_, err = dev.Present(sc, image, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, []uint32{0, 1, 2, 0}, got)
	assert.Empty(t, dev.Held())

	sc.Release()
	sc.Release()
	assert.Zero(t, dev.Live("swapchain"))
}

func TestAcquireSkipsHeldImages(t *testing.T) {
	dev := gfxtest.NewDevice()
	sc, err := dev.CreateSwapchain(gfx.SwapchainConfig{ImageCount: 2})
	require.NoError(t, err)

	first, _, err := sc.Acquire(0, nil)
	require.NoError(t, err)
	second, _, err := sc.Acquire(0, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, dev.Held())

	_, _, err = sc.Acquire(0, nil)
	assert.Equal(t, gfxtest.ErrNoImage, err)

	_, err = dev.Present(sc, second, nil)
	require.NoError(t, err)
	image, _, err := sc.Acquire(0, nil)
	require.NoError(t, err)
	assert.Equal(t, second, image)
	assert.Equal(t, []uint32{first, second}, dev.Held())
	assert.Empty(t, dev.Violations())

	// a scripted acquire of a held image is a violation
	dev.Acquires = []gfxtest.AcquireResult{{Index: first}}
	_, _, err = sc.Acquire(0, nil)
	require.NoError(t, err)
	assert.Len(t, dev.Violations(), 1)
}

func TestSemaphoreSignalState(t *testing.T) {
	dev := gfxtest.NewDevice()
	sc, err := dev.CreateSwapchain(gfx.SwapchainConfig{ImageCount: 3})
	require.NoError(t, err)
	available, err := dev.CreateSemaphore()
	require.NoError(t, err)
	finished, err := dev.CreateSemaphore()
	require.NoError(t, err)

	image, _, err := sc.Acquire(0, available)
	require.NoError(t, err)
	require.NoError(t, dev.Submit(nil, available, finished, nil))
	_, err = dev.Present(sc, image, finished)
	require.NoError(t, err)
	assert.Empty(t, dev.Violations())
	assert.Contains(t, dev.Journal(), "submit empty wait semaphore#2 signal semaphore#3 fence %!s(<nil>)")

	// signaled by acquire, never waited on
	_, _, err = sc.Acquire(0, available)
	require.NoError(t, err)
	_, _, err = sc.Acquire(0, available)
	require.NoError(t, err)
	assert.Equal(t, []string{"acquire signals semaphore#2 while signaled"}, dev.Violations())

	_, err = dev.Present(sc, 0, finished)
	require.NoError(t, err)
	assert.Len(t, dev.Violations(), 2)
}

func TestFailedPresentKeepsImage(t *testing.T) {
	dev := gfxtest.NewDevice()
	sc, err := dev.CreateSwapchain(gfx.SwapchainConfig{ImageCount: 3})
	require.NoError(t, err)

	image, _, err := sc.Acquire(0, nil)
	require.NoError(t, err)
	dev.Presents = []gfxtest.PresentResult{{Err: errors.New("surface lost")}}
	_, err = dev.Present(sc, image, nil)
	require.Error(t, err)
	assert.Equal(t, []uint32{image}, dev.Held())
}

func TestNoteIsJournaled(t *testing.T) {
	dev := gfxtest.NewDevice()
	dev.Note("record %d", 2)
	assert.Equal(t, []string{"callback record 2"}, dev.Journal())
}
