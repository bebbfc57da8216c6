// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tonearm/tonearm/audio"
	"github.com/tonearm/tonearm/formats"
	"github.com/tonearm/tonearm/sheet"
)

// Options configures a new Engine. The zero value is usable; every
// field has a sensible default.
type Options struct {
	// BufferDuration sizes the decode-ahead ring buffer. Default 2.5s,
	// clamped into [100ms, 30s].
	BufferDuration time.Duration
	// RampDuration is the volume change ramp. Default 20ms.
	RampDuration time.Duration
	// TickInterval spaces position events. Default 100ms.
	TickInterval time.Duration
	// PreferExclusive requests exclusive device access; the granted mode
	// may still be shared.
	PreferExclusive bool
	// Pregap controls whether index-sheet pregap regions are part of the
	// playable track range.
	Pregap sheet.PregapPolicy
	// Logger for engine diagnostics. Default is a no-op logger.
	Logger *zap.Logger
	// Device overrides the output device, mainly for tests. Default is
	// the platform mixer.
	Device Device
	// Registry overrides the decoder registry. Default has all built-in
	// decoders.
	Registry *audio.Registry
}

const (
	defaultBufferDuration = 2500 * time.Millisecond
	minBufferDuration     = 100 * time.Millisecond
	maxBufferDuration     = 30 * time.Second
	defaultRampDuration   = 20 * time.Millisecond
	defaultTickInterval   = 100 * time.Millisecond
)

func (o *Options) applyDefaults() {
	if o.BufferDuration == 0 {
		o.BufferDuration = defaultBufferDuration
	}
	if o.BufferDuration < minBufferDuration {
		o.BufferDuration = minBufferDuration
	}
	if o.BufferDuration > maxBufferDuration {
		o.BufferDuration = maxBufferDuration
	}
	if o.RampDuration <= 0 {
		o.RampDuration = defaultRampDuration
	}
	if o.TickInterval <= 0 {
		o.TickInterval = defaultTickInterval
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Registry == nil {
		o.Registry = formats.NewRegistry()
	}
}

type cmdKind int

const (
	cmdLoad cmdKind = iota
	cmdQueue
	cmdPlay
	cmdPause
	cmdStop
	cmdSeek
	cmdShutdown
)

type command struct {
	kind  cmdKind
	src   Source
	pos   time.Duration
	reply chan error
}

// Engine is one playback session: a decode worker, an output device
// binding and an event dispatcher. All control operations are
// serialized through the worker goroutine; the scalar queries read
// atomics and never block.
type Engine struct {
	opts Options
	log  *zap.Logger
	dev  Device
	disp *dispatcher
	sink *sink

	cmds   chan command
	done   chan struct{}
	closed atomic.Bool

	state    atomic.Int32
	format   atomic.Pointer[audio.Format]
	duration atomic.Int64 // current track duration, ns

	// Position bookkeeping, all in frames. origin is the sink's
	// delivered count at the last rebase (load, seek, stop), trackBase
	// is where the current track began relative to that rebase, and
	// trackOffset is how far into the track delivery started.
	origin      atomic.Int64
	trackBase   atomic.Int64
	trackOffset atomic.Int64

	volume    atomic.Uint64 // float64 bits
	muted     atomic.Bool
	currentID atomic.Pointer[uuid.UUID]
}

// New creates an engine and starts its worker and event goroutines.
func New(opts Options) (*Engine, error) {
	opts.applyDefaults()

	e := &Engine{
		opts: opts,
		log:  opts.Logger,
		sink: newSink(),
		cmds: make(chan command),
		done: make(chan struct{}),
	}
	e.volume.Store(math.Float64bits(1.0))
	e.state.Store(int32(StateIdle))

	if opts.Device != nil {
		e.dev = opts.Device
	} else {
		e.dev = newOtoDevice(e.log, opts.BufferDuration, opts.PreferExclusive)
	}

	e.disp = newDispatcher(e.log)

	go e.run()
	return e, nil
}

// Close shuts the engine down: the worker drains, the device is
// released and the event goroutine exits after delivering what was
// queued. The engine cannot be reused.
func (e *Engine) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	select {
	case e.cmds <- command{kind: cmdShutdown, reply: make(chan error, 1)}:
	case <-e.done:
	}
	<-e.done
	e.disp.close()
	return nil
}

func (e *Engine) do(cmd command) error {
	if e.closed.Load() {
		return ErrClosed
	}
	cmd.reply = make(chan error, 1)

	select {
	case e.cmds <- cmd:
	case <-e.done:
		return ErrClosed
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-e.done:
		return ErrClosed
	}
}

// Load replaces the current source. It never starts playback; the
// session ends up Paused and ready, position at the track start.
func (e *Engine) Load(src Source) error {
	return e.do(command{kind: cmdLoad, src: src})
}

// QueueNext appends a follow-up source, consumed gaplessly when the
// current one ends (same stream format), or after a device
// reconfiguration otherwise.
func (e *Engine) QueueNext(src Source) error {
	return e.do(command{kind: cmdQueue, src: src})
}

// Play starts or resumes playback.
func (e *Engine) Play() error {
	return e.do(command{kind: cmdPlay})
}

// Pause halts consumption while keeping the device stream alive with
// silence. Buffered frames survive for Resume.
func (e *Engine) Pause() error {
	return e.do(command{kind: cmdPause})
}

// Stop clears buffered audio, releases the device and resets the
// position to the track start. The source stays loaded.
func (e *Engine) Stop() error {
	return e.do(command{kind: cmdStop})
}

// Seek moves playback to pos within the current track, clamped into
// the track's valid range. The playing/paused state is preserved.
func (e *Engine) Seek(pos time.Duration) error {
	return e.do(command{kind: cmdSeek, pos: pos})
}

// State returns the current session state.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Position returns the playback position within the current track,
// derived from frames actually delivered to the device.
func (e *Engine) Position() time.Duration {
	f := e.format.Load()
	if f == nil {
		return 0
	}
	frames := e.trackOffset.Load() + e.sink.Delivered() - e.origin.Load() - e.trackBase.Load()
	if frames < 0 {
		frames = 0
	}
	if d := e.duration.Load(); d > 0 {
		if limit := f.FramesFor(time.Duration(d)); frames > limit {
			frames = limit
		}
	}
	return f.DurationFor(frames)
}

// Duration returns the current track's duration, 0 when unknown or
// nothing is loaded.
func (e *Engine) Duration() time.Duration {
	return time.Duration(e.duration.Load())
}

// NativeFormat returns the decoded stream format of the current source.
func (e *Engine) NativeFormat() (audio.Format, bool) {
	f := e.format.Load()
	if f == nil {
		return audio.Format{}, false
	}
	return *f, true
}

// SetVolume requests a new volume in [0, 1], ramped over the configured
// ramp duration. Takes effect immediately, even mid-playback.
func (e *Engine) SetVolume(v float64) {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	e.volume.Store(math.Float64bits(v))
	if g := e.sink.gain.Load(); g != nil {
		g.Set(v)
	}
}

// Volume returns the requested volume.
func (e *Engine) Volume() float64 {
	return math.Float64frombits(e.volume.Load())
}

// SetMuted silences output without losing the volume setting.
func (e *Engine) SetMuted(m bool) {
	e.muted.Store(m)
	if g := e.sink.gain.Load(); g != nil {
		g.SetMuted(m)
	}
}

// Muted reports the mute flag.
func (e *Engine) Muted() bool { return e.muted.Load() }

// AccessMode reports the device sharing mode granted at the last device
// start.
func (e *Engine) AccessMode() AccessMode {
	return e.dev.Granted()
}

// Underruns reports how many short reads the output path has absorbed.
func (e *Engine) Underruns() int64 {
	if ring := e.sink.ring.Load(); ring != nil {
		return ring.Underruns()
	}
	return 0
}

// PregapPolicy returns the configured index-sheet pregap handling.
func (e *Engine) PregapPolicy() sheet.PregapPolicy {
	return e.opts.Pregap
}

// SetCallback installs the host event callback, replacing any previous
// one. Pass nil to remove it.
func (e *Engine) SetCallback(fn EventFunc) {
	e.disp.setCallback(fn)
}

// CurrentSource returns the load ID of the active source.
func (e *Engine) CurrentSource() (uuid.UUID, bool) {
	id := e.currentID.Load()
	if id == nil {
		return uuid.UUID{}, false
	}
	return *id, true
}

func (e *Engine) setState(s State) {
	old := State(e.state.Swap(int32(s)))
	if old == s {
		return
	}

	var src uuid.UUID
	if id := e.currentID.Load(); id != nil {
		src = *id
	}
	e.log.Debug("state transition",
		zap.Stringer("from", old), zap.Stringer("to", s))
	e.disp.emit(Event{
		Type:     EventStateChanged,
		Source:   src,
		State:    s,
		Position: e.Position(),
	})
}
