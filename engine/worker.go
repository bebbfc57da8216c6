// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/tonearm/tonearm/audio"
	"github.com/tonearm/tonearm/formats"
)

// blockFrames is the decode granularity; cancellation latency is
// bounded by one block.
const blockFrames = 2048

// fullBackoff is how long the worker sleeps when the ring has no room.
const fullBackoff = 2 * time.Millisecond

// activeSource is a Source with its open stream and decode cursor.
type activeSource struct {
	src    Source
	stream audio.Stream
	format audio.Format

	// posFrame is the next stream-absolute frame to decode; endFrame is
	// where the slice stops, -1 for end-of-stream.
	posFrame int64
	endFrame int64
	// offsetFrames is how far into the track the first decoded frame
	// sits (nonzero when the initial seek landed past the track start).
	offsetFrames int64
	dur          time.Duration
	done         bool
}

// boundary marks the delivered-frame count (relative to the last
// rebase) at which a source's last frame leaves the device.
type boundary struct {
	at  int64
	src Source
}

// worker owns all file I/O and every non-atomic mutable of the session.
// It runs in the engine's goroutine; nothing here needs locks.
type worker struct {
	e    *Engine
	ring *audio.RingBuffer
	gain *audio.Gain

	cur        *activeSource
	queue      []Source
	boundaries []boundary
	// pendingNext holds an already-opened follow-up whose format differs
	// from the current ring; it starts after the ring drains.
	pendingNext *activeSource

	// decoded counts frames written to the ring since the last rebase.
	decoded    int64
	devStarted bool
	scratch    []float64
}

func (e *Engine) run() {
	w := &worker{e: e}
	ticker := time.NewTicker(e.opts.TickInterval)
	defer ticker.Stop()

	for {
		if w.filling() {
			select {
			case cmd := <-e.cmds:
				if cmd.kind == cmdShutdown {
					cmd.reply <- nil
					w.shutdown()
					return
				}
				cmd.reply <- w.handle(cmd)
			case <-ticker.C:
				w.tick()
			default:
				w.fillBlock()
			}
			continue
		}

		select {
		case cmd := <-e.cmds:
			if cmd.kind == cmdShutdown {
				cmd.reply <- nil
				w.shutdown()
				return
			}
			cmd.reply <- w.handle(cmd)
		case <-ticker.C:
			w.tick()
		}
	}
}

// filling reports whether the worker has decode work to do right now.
func (w *worker) filling() bool {
	return w.cur != nil && !w.cur.done &&
		w.e.State() != StateIdle && w.e.State() != StateError
}

func (w *worker) handle(cmd command) error {
	switch cmd.kind {
	case cmdLoad:
		return w.load(cmd.src)
	case cmdQueue:
		w.queue = append(w.queue, cmd.src)
		// The current source may already have hit decode EOF (the
		// worker pre-buffers even while paused); a queue that only
		// drains at EOF would never see this entry.
		if w.cur != nil && w.cur.done && w.pendingNext == nil {
			w.armNext()
		}
		return nil
	case cmdPlay:
		return w.play()
	case cmdPause:
		return w.pause()
	case cmdStop:
		return w.stop()
	case cmdSeek:
		return w.seek(cmd.pos)
	}
	return nil
}

// openSource opens and positions a stream for src.
func (w *worker) openSource(src Source) (*activeSource, error) {
	stream, err := formats.OpenWith(w.e.opts.Registry, src.Path)
	if err != nil {
		return nil, err
	}

	format := stream.Format()
	if !format.Valid() {
		stream.Close()
		return nil, audio.ErrInvalidFormat
	}

	actual, err := stream.Seek(src.Start)
	if err != nil {
		stream.Close()
		return nil, err
	}

	endFrame := int64(-1)
	dur := stream.Duration()
	if src.HasEnd {
		endFrame = format.FramesFor(src.End)
		dur = src.End - src.Start
	} else if dur > 0 {
		dur -= src.Start
	}

	return &activeSource{
		src:          src,
		stream:       stream,
		format:       format,
		posFrame:     format.FramesFor(actual),
		endFrame:     endFrame,
		offsetFrames: format.FramesFor(actual - src.Start),
		dur:          dur,
	}, nil
}

// bind makes a source the engine's current one: fresh ring and gain,
// position rebased to zero.
func (w *worker) bind(a *activeSource) error {
	capFrames := int(a.format.FramesFor(w.e.opts.BufferDuration))
	if capFrames < 1 {
		capFrames = 1
	}
	ring, err := audio.NewRingBuffer(capFrames, a.format.Channels)
	if err != nil {
		return err
	}

	gain := audio.NewGain(w.e.Volume(), w.e.opts.RampDuration, a.format.SampleRate)
	gain.SetMuted(w.e.Muted())

	w.ring = ring
	w.gain = gain
	w.e.sink.setPlaying(false)
	w.e.sink.bind(ring, gain, a.format.Channels)
	w.e.sink.resetDelivered()

	if w.cur != nil && w.cur.stream != nil {
		w.cur.stream.Close()
	}
	w.cur = a
	w.boundaries = nil
	w.pendingNext = nil
	w.decoded = 0

	f := a.format
	w.e.format.Store(&f)
	w.e.duration.Store(int64(a.dur))
	w.e.origin.Store(0)
	w.e.trackBase.Store(0)
	w.e.trackOffset.Store(a.offsetFrames)
	id := a.src.ID
	w.e.currentID.Store(&id)
	return nil
}

func (w *worker) load(src Source) error {
	prev := w.e.State()
	w.e.setState(StateLoading)

	a, err := w.openSource(src)
	if err != nil {
		w.e.log.Warn("load failed",
			zap.String("path", src.Path), zap.Error(err))
		w.e.setState(prev)
		return err
	}

	// A running device bound to a different format cannot carry the new
	// stream; release it and restart lazily at Play.
	if w.devStarted && w.cur != nil && w.cur.format != a.format {
		w.e.dev.Stop()
		w.devStarted = false
	}

	if err := w.bind(a); err != nil {
		a.stream.Close()
		w.e.setState(prev)
		return err
	}

	w.e.log.Info("source loaded",
		zap.String("path", src.Path),
		zap.String("source", src.ID.String()),
		zap.Int("sample_rate", a.format.SampleRate),
		zap.Int("channels", a.format.Channels),
		zap.Duration("duration", a.dur))

	w.e.setState(StatePaused)
	return nil
}

func (w *worker) play() error {
	if w.cur == nil {
		return ErrNoSource
	}

	switch w.e.State() {
	case StatePlaying:
		return nil
	case StateEnded, StateIdle:
		// Restart from the track head.
		if err := w.rewind(); err != nil {
			return err
		}
	}

	if !w.devStarted {
		if err := w.e.dev.Start(w.cur.format, w.e.sink); err != nil {
			w.e.log.Error("device start failed", zap.Error(err))
			w.e.setState(StateError)
			w.e.disp.emit(Event{Type: EventError, Source: w.cur.src.ID, Err: err})
			return err
		}
		w.devStarted = true
		w.e.log.Info("device started",
			zap.Stringer("granted", w.e.dev.Granted()))
	}

	w.e.sink.setPlaying(true)
	w.e.setState(StatePlaying)
	return nil
}

func (w *worker) pause() error {
	if w.cur == nil {
		return ErrNoSource
	}
	// The device keeps pulling; the sink serves silence and the ring
	// keeps its frames.
	w.e.sink.setPlaying(false)
	w.e.setState(StatePaused)
	return nil
}

func (w *worker) stop() error {
	if w.cur == nil {
		return ErrNoSource
	}

	w.e.sink.setPlaying(false)
	w.ring.Clear()
	if w.devStarted {
		w.e.dev.Stop()
		w.devStarted = false
	}
	if err := w.rewind(); err != nil {
		// Device released, ring cleared, but the source cannot be
		// repositioned; the session is not resumable as-is.
		w.e.setState(StateError)
		return err
	}
	w.e.setState(StateIdle)
	return nil
}

// requeuePending returns an opened-but-not-yet-audible follow-up to the
// queue head so it survives a seek or rewind.
func (w *worker) requeuePending() {
	if w.pendingNext == nil {
		return
	}
	w.queue = append([]Source{w.pendingNext.src}, w.queue...)
	w.pendingNext.stream.Close()
	w.pendingNext = nil
}

// rewind repositions the current source at its start and rebases
// position accounting. The ring must already be quiescent.
func (w *worker) rewind() error {
	actual, err := w.cur.stream.Seek(w.cur.src.Start)
	if err != nil {
		return err
	}
	w.ring.Clear()
	w.cur.posFrame = w.cur.format.FramesFor(actual)
	w.cur.done = false
	w.boundaries = nil
	w.requeuePending()
	w.decoded = 0

	w.e.origin.Store(w.e.sink.Delivered())
	w.e.trackBase.Store(0)
	w.e.trackOffset.Store(w.cur.format.FramesFor(actual - w.cur.src.Start))
	return nil
}

func (w *worker) seek(pos time.Duration) error {
	if w.cur == nil {
		return ErrNoSource
	}
	switch w.e.State() {
	case StateIdle, StateError:
		return ErrInvalidState
	}

	prev := w.e.State()
	if prev == StateEnded {
		prev = StatePaused
	}
	w.e.setState(StateSeeking)
	w.e.sink.setPlaying(false)

	// Seeking addresses the track the user hears. When a gapless
	// successor is already armed, reopen the audible track and put the
	// successor back at the head of the queue.
	if len(w.boundaries) > 0 && w.cur.src.ID != w.boundaries[0].src.ID {
		audible, err := w.openSource(w.boundaries[0].src)
		if err != nil {
			w.e.setState(prev)
			return err
		}
		w.queue = append([]Source{w.cur.src}, w.queue...)
		w.cur.stream.Close()
		w.cur = audible
	}
	w.requeuePending()

	if pos < 0 {
		pos = 0
	}
	if w.cur.dur > 0 && pos > w.cur.dur {
		pos = w.cur.dur
	}

	actual, err := w.cur.stream.Seek(w.cur.src.Start + pos)
	if err != nil {
		w.e.setState(prev)
		return err
	}

	w.ring.Clear()
	w.cur.posFrame = w.cur.format.FramesFor(actual)
	w.cur.done = false
	w.boundaries = nil
	w.decoded = 0

	w.e.origin.Store(w.e.sink.Delivered())
	w.e.trackBase.Store(0)
	w.e.trackOffset.Store(w.cur.format.FramesFor(actual - w.cur.src.Start))

	w.e.setState(prev)
	if prev == StatePlaying {
		w.e.sink.setPlaying(true)
	}
	return nil
}

// fillBlock decodes one block into the ring. It is the only place
// samples enter the buffer.
func (w *worker) fillBlock() {
	avail := int64(w.ring.AvailableWrite())
	if avail <= 0 {
		time.Sleep(fullBackoff)
		return
	}

	frames := int64(blockFrames)
	if frames > avail {
		frames = avail
	}
	if w.cur.endFrame >= 0 {
		if remain := w.cur.endFrame - w.cur.posFrame; remain < frames {
			frames = remain
		}
	}
	if frames <= 0 {
		w.finishCurrent()
		return
	}

	channels := w.cur.format.Channels
	samples := int(frames) * channels
	if cap(w.scratch) < samples {
		w.scratch = make([]float64, samples)
	}
	buf := w.scratch[:samples]

	n, err := w.cur.stream.ReadSamples(buf)
	if n > 0 {
		// Drop any trailing partial frame; decoders deliver whole
		// frames, this is belt only.
		n -= n % channels
		written, werr := w.ring.Write(buf[:n])
		if werr != nil {
			w.decodeError(werr)
			return
		}
		w.cur.posFrame += int64(written)
		w.decoded += int64(written)
	}

	if err != nil {
		if errors.Is(err, io.EOF) {
			w.finishCurrent()
			return
		}
		w.decodeError(err)
	}
}

// finishCurrent records the end boundary of the current source and
// lines up the next queued one, gaplessly when formats match.
func (w *worker) finishCurrent() {
	w.cur.done = true
	w.boundaries = append(w.boundaries, boundary{at: w.decoded, src: w.cur.src})
	w.armNext()
}

// armNext consumes the queue head and lines it up behind the finished
// current source. Sources that fail to open are skipped with an error
// event.
func (w *worker) armNext() {
	for len(w.queue) > 0 {
		next := w.queue[0]
		w.queue = w.queue[1:]

		a, err := w.openSource(next)
		if err != nil {
			w.e.log.Warn("queued source failed to open, skipping",
				zap.String("path", next.Path), zap.Error(err))
			w.e.disp.emit(Event{Type: EventError, Source: next.ID, Err: err})
			continue
		}

		if a.format == w.cur.format {
			// Same format: decode straight into the same ring. Position
			// and identity switch when the boundary frame is delivered.
			w.cur.stream.Close()
			a.done = false
			w.cur = a
			w.e.log.Info("gapless transition armed",
				zap.String("path", next.Path))
		} else {
			// Format change: keep draining the ring, then reconfigure
			// the device in tick.
			w.pendingNext = a
			w.e.log.Info("format change pending",
				zap.String("path", next.Path),
				zap.Int("sample_rate", a.format.SampleRate),
				zap.Int("channels", a.format.Channels))
		}
		return
	}
}

// decodeError skips to the next queued source, or parks the session in
// the error state when there is nothing left to play.
func (w *worker) decodeError(err error) {
	w.e.log.Error("decode failed",
		zap.String("path", w.cur.src.Path), zap.Error(err))
	w.e.disp.emit(Event{Type: EventError, Source: w.cur.src.ID, Err: err})

	wasPlaying := w.e.State() == StatePlaying
	for len(w.queue) > 0 {
		next := w.queue[0]
		w.queue = w.queue[1:]
		if lerr := w.load(next); lerr == nil {
			if wasPlaying {
				// The failed source was audible; keep the music going.
				w.play()
			}
			return
		}
	}

	w.e.sink.setPlaying(false)
	w.e.setState(StateError)
}

// deliveredSinceRebase returns frames handed to the device since the
// last rebase.
func (w *worker) deliveredSinceRebase() int64 {
	return w.e.sink.Delivered() - w.e.origin.Load()
}

func (w *worker) tick() {
	if w.cur == nil {
		return
	}

	delivered := w.deliveredSinceRebase()

	// Boundary crossings: a source's last frame has left the device.
	for len(w.boundaries) > 0 && delivered >= w.boundaries[0].at {
		b := w.boundaries[0]
		w.boundaries = w.boundaries[1:]

		w.e.disp.emit(Event{
			Type:     EventTrackEnded,
			Source:   b.src.ID,
			Position: time.Duration(w.e.duration.Load()),
		})
		w.e.log.Info("track ended", zap.String("path", b.src.Path))

		if w.cur.src.ID != b.src.ID {
			// Gapless successor became audible at this exact frame.
			w.e.trackBase.Store(b.at)
			w.e.trackOffset.Store(w.cur.offsetFrames)
			w.e.duration.Store(int64(w.cur.dur))
			id := w.cur.src.ID
			w.e.currentID.Store(&id)
		}
	}

	// Drained ring with a format change waiting: swap the device over.
	if w.pendingNext != nil && w.cur.done && delivered >= w.decoded {
		next := w.pendingNext
		wasPlaying := w.e.State() == StatePlaying

		if w.devStarted {
			w.e.dev.Stop()
			w.devStarted = false
		}
		if err := w.bind(next); err != nil {
			next.stream.Close()
			w.decodeError(err)
			return
		}
		if wasPlaying {
			if err := w.e.dev.Start(next.format, w.e.sink); err != nil {
				w.decodeError(err)
				return
			}
			w.devStarted = true
			w.e.sink.setPlaying(true)
		}
		return
	}

	// Everything decoded and delivered with nothing queued: the session
	// has ended.
	if w.cur.done && w.pendingNext == nil && len(w.queue) == 0 &&
		len(w.boundaries) == 0 && delivered >= w.decoded &&
		w.e.State() == StatePlaying {
		w.e.sink.setPlaying(false)
		w.e.setState(StateEnded)
		return
	}

	if w.e.State() == StatePlaying {
		var src Source
		if id := w.e.currentID.Load(); id != nil {
			src.ID = *id
		}
		w.e.disp.emit(Event{
			Type:     EventPositionTick,
			Source:   src.ID,
			State:    StatePlaying,
			Position: w.e.Position(),
		})
	}
}

func (w *worker) shutdown() {
	w.e.sink.setPlaying(false)
	if w.cur != nil && w.cur.stream != nil {
		w.cur.stream.Close()
	}
	if w.pendingNext != nil && w.pendingNext.stream != nil {
		w.pendingNext.stream.Close()
	}
	w.e.dev.Close()
	close(w.e.done)
}
