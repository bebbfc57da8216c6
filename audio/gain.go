// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"math"
	"sync/atomic"
	"time"
)

// Gain is a volume scalar applied multiplicatively in the canonical
// float64 sample domain. Changes ramp linearly over a configurable
// duration so instantaneous jumps never produce audible clicks.
//
// Set, SetMuted and snapshots are safe from any goroutine; Apply is only
// called from the device read path and carries the ramp state privately,
// so the hot path performs atomic loads but takes no locks.
type Gain struct {
	target atomic.Uint64 // float64 bits
	muted  atomic.Bool

	current   float64 // only touched by the Apply caller
	stepPerFr float64
}

// NewGain creates a gain stage at the given initial volume, ramping over
// rampDur at sampleRate frames per second.
func NewGain(initial float64, rampDur time.Duration, sampleRate int) *Gain {
	g := &Gain{current: clampUnit(initial)}
	g.target.Store(math.Float64bits(clampUnit(initial)))

	rampFrames := float64(sampleRate) * rampDur.Seconds()
	if rampFrames < 1 {
		rampFrames = 1
	}
	g.stepPerFr = 1.0 / rampFrames
	return g
}

// Set requests a new volume in [0, 1]. The audible level reaches it
// after the ramp duration.
func (g *Gain) Set(v float64) {
	g.target.Store(math.Float64bits(clampUnit(v)))
}

// Get returns the requested (target) volume.
func (g *Gain) Get() float64 {
	return math.Float64frombits(g.target.Load())
}

// SetMuted silences output without losing the volume setting.
func (g *Gain) SetMuted(m bool) { g.muted.Store(m) }

// Muted reports the mute flag.
func (g *Gain) Muted() bool { return g.muted.Load() }

// Apply scales frames interleaved samples in place, advancing the ramp.
// Must only be called from the single consumer goroutine.
func (g *Gain) Apply(samples []float64, channels int) {
	target := math.Float64frombits(g.target.Load())
	if g.muted.Load() {
		target = 0
	}

	if g.current == target {
		if target == 1.0 {
			return
		}
		for i := range samples {
			samples[i] *= target
		}
		return
	}

	frames := len(samples) / channels
	for f := 0; f < frames; f++ {
		if g.current < target {
			g.current += g.stepPerFr
			if g.current > target {
				g.current = target
			}
		} else if g.current > target {
			g.current -= g.stepPerFr
			if g.current < target {
				g.current = target
			}
		}
		base := f * channels
		for c := 0; c < channels; c++ {
			samples[base+c] *= g.current
		}
	}
}

func clampUnit(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
