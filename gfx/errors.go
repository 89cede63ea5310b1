// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "github.com/pkg/errors"

// package errors
var (
	ErrDeferred         = errors.New("surface has a zero-area extent, swapchain creation deferred")
	ErrNoPresentMode    = errors.New("surface supports neither mailbox nor fifo presentation")
	ErrUsageUnsupported = errors.New("surface does not support color attachment usage")
	ErrNoFormats        = errors.New("surface reports no formats")
)

// Status is the outcome of a successful acquire or present.
type Status int

// Acquire and present outcomes that are not errors.
const (
	StatusOK Status = iota

	// StatusSuboptimal means the operation succeeded but the swapchain
	// no longer matches the surface exactly and should be rebuilt.
	StatusSuboptimal

	// StatusOutOfDate means the swapchain can not be used any more
	// and must be rebuilt before the next frame.
	StatusOutOfDate
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSuboptimal:
		return "suboptimal"
	case StatusOutOfDate:
		return "out of date"
	}
	return "unknown"
}

// Stale reports whether a rebuild is warranted.
func (s Status) Stale() bool {
	return s != StatusOK
}
