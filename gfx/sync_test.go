// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx_test

import (
	"fmt"
	"testing"

	"github.com/devblok/circe/gfx"
	"github.com/devblok/circe/gfx/gfxtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingStartsSignaled(t *testing.T) {
	dev := gfxtest.NewDevice()
	ring, err := gfx.NewInFlightRing(dev)
	require.NoError(t, err)
	defer ring.Release()

	assert.Equal(t, gfx.MaxFramesInFlight, dev.Live("fence"))
	assert.Equal(t, 2*gfx.MaxFramesInFlight, dev.Live("semaphore"))

	for idx := 0; idx < gfx.MaxFramesInFlight; idx++ {
		ok, err := ring.Slot().InFlight.Signaled()
		require.NoError(t, err)
		assert.True(t, ok, "slot %d", idx)
		ring.Advance()
	}
}

func TestRingAdvanceWraps(t *testing.T) {
	ring, err := gfx.NewInFlightRing(gfxtest.NewDevice())
	require.NoError(t, err)

	first := ring.Slot().InFlight
	ring.Advance()
	assert.Equal(t, 1, ring.Current())
	assert.NotEqual(t, first, ring.Slot().InFlight)
	ring.Advance()
	assert.Equal(t, 0, ring.Current())
	assert.Equal(t, first, ring.Slot().InFlight)
}

func TestRingClaim(t *testing.T) {
	ring, err := gfx.NewInFlightRing(gfxtest.NewDevice())
	require.NoError(t, err)
	ring.ResetImages(3)

	assert.Nil(t, ring.ImageFence(1))
	ring.Advance()
	ring.Claim(1)
	assert.Equal(t, ring.Slot().InFlight, ring.ImageFence(1))

	// out of range is ignored
	ring.Claim(7)
	assert.Nil(t, ring.ImageFence(7))

	ring.ResetImages(4)
	assert.Equal(t, 4, ring.Images())
	assert.Nil(t, ring.ImageFence(1))
}

func TestRingReplaceFence(t *testing.T) {
	dev := gfxtest.NewDevice()
	ring, err := gfx.NewInFlightRing(dev)
	require.NoError(t, err)
	ring.ResetImages(3)

	old := ring.Slot().InFlight
	ring.Claim(0)
	ring.Claim(2)
	require.NoError(t, old.Reset())

	require.NoError(t, ring.ReplaceFence())
	assert.NotEqual(t, old, ring.Slot().InFlight)
	assert.Nil(t, ring.ImageFence(0))
	assert.Nil(t, ring.ImageFence(2))
	assert.Equal(t, gfx.MaxFramesInFlight, dev.Live("fence"))

	ok, err := ring.Slot().InFlight.Signaled()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRingReplaceSemaphores(t *testing.T) {
	dev := gfxtest.NewDevice()
	ring, err := gfx.NewInFlightRing(dev)
	require.NoError(t, err)
	ring.Advance()

	old := *ring.Slot()
	require.NoError(t, ring.ReplaceSemaphores())

	slot := ring.Slot()
	assert.NotEqual(t, old.ImageAvailable, slot.ImageAvailable)
	assert.NotEqual(t, old.RenderFinished, slot.RenderFinished)
	assert.Equal(t, old.InFlight, slot.InFlight)
	assert.Equal(t, 2*gfx.MaxFramesInFlight, dev.Live("semaphore"))
	assert.Contains(t, dev.Journal(), fmt.Sprintf("release %s", old.ImageAvailable))
	assert.Contains(t, dev.Journal(), fmt.Sprintf("release %s", old.RenderFinished))

	// the other slot is untouched
	ring.Advance()
	assert.Contains(t, dev.Journal(), fmt.Sprintf("create %s", ring.Slot().ImageAvailable))
	assert.NotContains(t, dev.Journal(), fmt.Sprintf("release %s", ring.Slot().ImageAvailable))
}

func TestRingRelease(t *testing.T) {
	dev := gfxtest.NewDevice()
	ring, err := gfx.NewInFlightRing(dev)
	require.NoError(t, err)

	ring.Release()
	assert.Zero(t, dev.Live("fence"))
	assert.Zero(t, dev.Live("semaphore"))

	// twice is harmless
	ring.Release()
}
