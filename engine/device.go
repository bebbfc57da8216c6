// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"io"

	"github.com/tonearm/tonearm/audio"
)

// AccessMode is the device sharing mode actually granted after
// negotiation, which may be weaker than what was requested.
type AccessMode int32

const (
	// AccessShared mixes this engine's output with other clients of the
	// system mixer.
	AccessShared AccessMode = iota
	// AccessExclusive owns the endpoint outright.
	AccessExclusive
)

func (m AccessMode) String() string {
	if m == AccessExclusive {
		return "exclusive"
	}
	return "shared"
}

// Device is an audio output endpoint. Start binds a stream format and a
// pull reader; the device then reads interleaved float32 LE bytes from
// r on its own schedule, usually a hardware-driven thread. Implementors
// must tolerate Pause/Resume/Stop in any order.
type Device interface {
	Start(format audio.Format, r io.Reader) error
	Pause() error
	Resume() error
	Stop() error
	Close() error
	// Granted reports the access mode obtained at the last Start.
	Granted() AccessMode
}
