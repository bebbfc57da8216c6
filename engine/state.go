// SPDX-License-Identifier: EPL-2.0

package engine

// State of the playback session.
type State int32

const (
	// StateIdle: no source loaded, or playback stopped.
	StateIdle State = iota
	// StateLoading: a source is being opened and probed.
	StateLoading
	// StatePlaying: frames are flowing to the device.
	StatePlaying
	// StatePaused: the device callback stays alive but outputs silence
	// without consuming buffered frames.
	StatePaused
	// StateSeeking: a position change is resolving.
	StateSeeking
	// StateEnded: the source played to its end.
	StateEnded
	// StateError: an unrecoverable decode or device failure.
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateSeeking:
		return "seeking"
	case StateEnded:
		return "ended"
	case StateError:
		return "error"
	}
	return "unknown"
}
