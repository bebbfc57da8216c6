// SPDX-License-Identifier: EPL-2.0

package tonearm

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sync"
	"time"

	"github.com/tonearm/tonearm/audio"
	"github.com/tonearm/tonearm/engine"
	"github.com/tonearm/tonearm/sheet"
)

// Handle identifies one engine instance across the embedding boundary.
// Zero is never a valid handle.
type Handle uint64

// Options configures a new engine instance.
type Options = engine.Options

// Event is re-exported so hosts only import this package.
type Event = engine.Event

// Callback receives engine events together with the opaque user context
// registered alongside it.
type Callback func(ev Event, userData any)

// handles is the process-wide instance table. The mutex only guards the
// table itself; per-instance calls go straight to the engine.
var handles = struct {
	sync.Mutex
	next uint64
	m    map[Handle]*engine.Engine
}{m: make(map[Handle]*engine.Engine)}

func lookup(h Handle) (*engine.Engine, error) {
	if h == 0 {
		return nil, ErrNullHandle
	}
	handles.Lock()
	defer handles.Unlock()

	e, ok := handles.m[h]
	if !ok {
		return nil, ErrInvalidHandle
	}
	return e, nil
}

// internalize maps engine and I/O failures onto the boundary's error
// taxonomy. Caller-side protocol errors pass through untouched.
func internalize(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
}

// guard converts a panic escaping op into an internal error; boundary
// calls must never propagate panics into a host that may not even be
// written in Go.
func guard(op func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrInternal, r)
		}
	}()
	return op()
}

// New creates an engine instance and returns its handle.
func New(opts Options) (Handle, error) {
	var h Handle
	err := guard(func() error {
		e, err := engine.New(opts)
		if err != nil {
			return internalize(err)
		}

		handles.Lock()
		handles.next++
		h = Handle(handles.next)
		handles.m[h] = e
		handles.Unlock()
		return nil
	})
	return h, err
}

// Destroy stops playback, releases the device and invalidates the
// handle. Calls with the handle afterwards return ErrInvalidHandle.
func Destroy(h Handle) error {
	return guard(func() error {
		if h == 0 {
			return ErrNullHandle
		}
		handles.Lock()
		e, ok := handles.m[h]
		delete(handles.m, h)
		handles.Unlock()

		if !ok {
			return ErrInvalidHandle
		}
		return internalize(e.Close())
	})
}

// Load replaces the current source with the whole file at path.
// Playback does not start; call Play.
func Load(h Handle, path string) error {
	return guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("%w: empty path", ErrInvalidArgument)
		}
		return internalize(e.Load(engine.NewFileSource(path)))
	})
}

// LoadTrack replaces the current source with the time slice described
// by a virtual track.
func LoadTrack(h Handle, vt sheet.VirtualTrack) error {
	return guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		if vt.Path == "" {
			return fmt.Errorf("%w: virtual track without a path", ErrInvalidArgument)
		}
		return internalize(e.Load(engine.NewTrackSource(vt)))
	})
}

// QueueNext appends a whole file after the current source.
func QueueNext(h Handle, path string) error {
	return guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		if path == "" {
			return fmt.Errorf("%w: empty path", ErrInvalidArgument)
		}
		return internalize(e.QueueNext(engine.NewFileSource(path)))
	})
}

// QueueNextTrack appends a virtual track after the current source.
func QueueNextTrack(h Handle, vt sheet.VirtualTrack) error {
	return guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		if vt.Path == "" {
			return fmt.Errorf("%w: virtual track without a path", ErrInvalidArgument)
		}
		return internalize(e.QueueNext(engine.NewTrackSource(vt)))
	})
}

// Tracks parses the index sheet at path and builds its virtual tracks
// under the engine's pregap policy. Validation problems are returned
// alongside the tracks that still built.
func Tracks(h Handle, path string) ([]sheet.VirtualTrack, []sheet.ValidationError, error) {
	var tracks []sheet.VirtualTrack
	var verrs []sheet.ValidationError
	err := guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		s, err := sheet.ParseFile(path)
		if err != nil {
			return internalize(err)
		}
		tracks, verrs = sheet.BuildVirtualTracks(s, sheet.BuildOptions{Pregap: e.PregapPolicy()})
		return nil
	})
	return tracks, verrs, err
}

// Play starts or resumes playback.
func Play(h Handle) error {
	return guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		return internalize(e.Play())
	})
}

// Pause halts playback while keeping buffered audio and the device
// stream alive.
func Pause(h Handle) error {
	return guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		return internalize(e.Pause())
	})
}

// Stop clears buffered audio, releases the device and resets the
// position.
func Stop(h Handle) error {
	return guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		return internalize(e.Stop())
	})
}

// Seek moves playback to pos within the current track; out-of-range
// positions clamp to the track bounds.
func Seek(h Handle, pos time.Duration) error {
	return guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		return internalize(e.Seek(pos))
	})
}

// SetVolume sets the playback volume in [0, 1].
func SetVolume(h Handle, v float64) error {
	return guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: volume %v outside [0, 1]", ErrInvalidArgument, v)
		}
		e.SetVolume(v)
		return nil
	})
}

// Volume returns the requested playback volume.
func Volume(h Handle) (float64, error) {
	var v float64
	err := guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		v = e.Volume()
		return nil
	})
	return v, err
}

// Mute silences output without changing the volume setting.
func Mute(h Handle) error {
	return setMuted(h, true)
}

// Unmute restores output at the previously set volume.
func Unmute(h Handle) error {
	return setMuted(h, false)
}

func setMuted(h Handle, m bool) error {
	return guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		e.SetMuted(m)
		return nil
	})
}

// Muted reports whether output is muted.
func Muted(h Handle) (bool, error) {
	var m bool
	err := guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		m = e.Muted()
		return nil
	})
	return m, err
}

// Position returns the playback position within the current track,
// measured in frames actually delivered to the device.
func Position(h Handle) (time.Duration, error) {
	var pos time.Duration
	err := guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		pos = e.Position()
		return nil
	})
	return pos, err
}

// TrackDuration returns the duration of the current track, 0 when
// unknown.
func TrackDuration(h Handle) (time.Duration, error) {
	var d time.Duration
	err := guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		d = e.Duration()
		return nil
	})
	return d, err
}

// State returns the session state.
func State(h Handle) (engine.State, error) {
	var s engine.State
	err := guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		s = e.State()
		return nil
	})
	return s, err
}

// AccessMode reports the device sharing mode granted at the last device
// start.
func AccessMode(h Handle) (engine.AccessMode, error) {
	var m engine.AccessMode
	err := guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		m = e.AccessMode()
		return nil
	})
	return m, err
}

// NativeFormat returns the decoded stream format of the current source.
func NativeFormat(h Handle) (audio.Format, error) {
	var f audio.Format
	err := guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		got, ok := e.NativeFormat()
		if !ok {
			return fmt.Errorf("%w: no source loaded", ErrNotFound)
		}
		f = got
		return nil
	})
	return f, err
}

// SetCallback installs fn as the single event callback for the
// instance, replacing any previous one. userData is handed back opaque
// with every event. A nil fn removes the callback.
func SetCallback(h Handle, fn Callback, userData any) error {
	return guard(func() error {
		e, err := lookup(h)
		if err != nil {
			return err
		}
		if fn == nil {
			e.SetCallback(nil)
			return nil
		}
		e.SetCallback(func(ev engine.Event) {
			fn(ev, userData)
		})
		return nil
	})
}
