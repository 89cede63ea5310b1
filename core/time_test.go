// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"
	"time"

	"github.com/devblok/circe/core"
	"github.com/stretchr/testify/assert"
)

func TestTimeTickers(t *testing.T) {
	ts := core.NewTime(core.TimeConfiguration{
		FramesPerSecond: 1000,
		EventPollDelay:  1,
	})
	defer ts.Stop()

	assert.Equal(t, 1000, ts.Fps())
	assert.Equal(t, time.Millisecond, ts.EventPollDelay())

	select {
	case <-ts.FpsTicker().C:
	case <-time.After(time.Second):
		t.Fatal("fps ticker did not tick")
	}
	select {
	case <-ts.EventTicker().C:
	case <-time.After(time.Second):
		t.Fatal("event ticker did not tick")
	}
}

func TestTimeUncappedFps(t *testing.T) {
	ts := core.NewTime(core.TimeConfiguration{})
	defer ts.Stop()

	assert.Zero(t, ts.Fps())
	assert.Equal(t, time.Millisecond, ts.EventPollDelay())
}
