// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventType discriminates engine notifications.
type EventType int

const (
	// EventStateChanged reports a state machine transition.
	EventStateChanged EventType = iota
	// EventPositionTick reports playback progress at the configured
	// interval.
	EventPositionTick
	// EventTrackEnded reports that a source played to its end.
	EventTrackEnded
	// EventError reports a decode or device failure.
	EventError
)

func (t EventType) String() string {
	switch t {
	case EventStateChanged:
		return "state-changed"
	case EventPositionTick:
		return "position-tick"
	case EventTrackEnded:
		return "track-ended"
	case EventError:
		return "error"
	}
	return "unknown"
}

// Event is a notification delivered to the host callback. Source is the
// load ID the event belongs to, so a host that switched tracks quickly
// can discard stragglers from the previous load.
type Event struct {
	Type     EventType
	Source   uuid.UUID
	State    State
	Position time.Duration
	Err      error
}

// EventFunc receives events on the dispatch goroutine. It must not call
// back into the engine synchronously for blocking operations.
type EventFunc func(Event)

// dispatcher decouples event production from the host callback: the
// worker and device paths only enqueue, a dedicated goroutine invokes
// the callback. When the queue is full new events are dropped and
// counted rather than blocking a producer.
type dispatcher struct {
	ch      chan Event
	fn      atomic.Pointer[EventFunc]
	dropped atomic.Int64
	log     *zap.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func newDispatcher(log *zap.Logger) *dispatcher {
	d := &dispatcher{
		ch:   make(chan Event, 64),
		log:  log,
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) run() {
	for ev := range d.ch {
		if fn := d.fn.Load(); fn != nil {
			(*fn)(ev)
		}
	}
	close(d.done)
}

// setCallback replaces the host callback. Nil clears it.
func (d *dispatcher) setCallback(fn EventFunc) {
	if fn == nil {
		d.fn.Store(nil)
		return
	}
	d.fn.Store(&fn)
}

// emit never blocks the caller.
func (d *dispatcher) emit(ev Event) {
	select {
	case d.ch <- ev:
	default:
		d.dropped.Add(1)
		d.log.Warn("event queue full, dropping event",
			zap.Stringer("type", ev.Type),
			zap.Int64("dropped", d.dropped.Load()))
	}
}

// close stops the dispatch goroutine after draining queued events.
func (d *dispatcher) close() {
	d.closeOnce.Do(func() {
		close(d.ch)
	})
	<-d.done
}
