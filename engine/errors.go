// SPDX-License-Identifier: EPL-2.0

package engine

import "errors"

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("engine is closed")

	// ErrNoSource is returned by playback operations before any
	// successful Load.
	ErrNoSource = errors.New("no source loaded")

	// ErrDeviceFormat is returned when the output device cannot be
	// reconfigured to a new stream format.
	ErrDeviceFormat = errors.New("device locked to a different stream format")

	// ErrDeviceUnavailable is returned when no output device could be
	// opened within the negotiation timeout.
	ErrDeviceUnavailable = errors.New("audio output device unavailable")

	// ErrInvalidState is returned when an operation is not allowed in
	// the session's current state, such as seeking while idle.
	ErrInvalidState = errors.New("operation not valid in current state")
)
