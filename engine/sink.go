// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"sync/atomic"

	"github.com/tonearm/tonearm/audio"
	"github.com/tonearm/tonearm/utils"
)

const bytesPerSample = 4 // float32 little-endian

// sink is the device-facing read path. The device pulls bytes from it
// on the hardware thread, so Read must not lock or allocate once the
// scratch buffers have grown to the device's request size.
//
// While paused (or before any source is bound) it emits silence without
// consuming from the ring, which keeps the device stream alive and the
// buffered frames intact.
type sink struct {
	ring     atomic.Pointer[audio.RingBuffer]
	gain     atomic.Pointer[audio.Gain]
	channels atomic.Int32

	// playing gates ring consumption; delivered counts frames actually
	// taken from the ring and handed to the device.
	playing   atomic.Bool
	delivered atomic.Int64

	// The fields below are owned by Read alone; the worker never
	// touches them.
	floatBuf []float64
	// carry holds the tail bytes of a frame the device's byte-granular
	// request could not take whole.
	carry    []byte
	carryLen int
	// lastRing detects a rebind from inside Read so stale carry bytes
	// never cross sources.
	lastRing *audio.RingBuffer
}

func newSink() *sink {
	return &sink{
		floatBuf: make([]float64, 8192),
		carry:    make([]byte, 64),
	}
}

// bind attaches the ring and gain of a freshly loaded source. Called
// from the worker with the device paused or not yet started.
func (s *sink) bind(ring *audio.RingBuffer, gain *audio.Gain, channels int) {
	// The ring pointer is published last: a Read that observes the new
	// ring is guaranteed to see the matching gain and channel count.
	s.gain.Store(gain)
	s.channels.Store(int32(channels))
	s.ring.Store(ring)
}

func (s *sink) setPlaying(p bool) { s.playing.Store(p) }

// Delivered returns the total frames handed to the device since bind.
func (s *sink) Delivered() int64 { return s.delivered.Load() }

func (s *sink) resetDelivered() { s.delivered.Store(0) }

func zeroFill(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

// Read implements io.Reader for the device. It always satisfies the
// full request; shortfalls become silence so the device never starves
// at the API level.
func (s *sink) Read(p []byte) (int, error) {
	ring := s.ring.Load()
	if ring == nil || !s.playing.Load() {
		return zeroFill(p)
	}
	if ring != s.lastRing {
		s.lastRing = ring
		s.carryLen = 0
	}

	n := 0

	// Leftover bytes from a partially taken frame go out first.
	if s.carryLen > 0 {
		c := copy(p, s.carry[:s.carryLen])
		copy(s.carry, s.carry[c:s.carryLen])
		s.carryLen -= c
		n += c
		if n == len(p) {
			return n, nil
		}
	}

	channels := int(s.channels.Load())
	frameBytes := channels * bytesPerSample
	frames := (len(p) - n) / frameBytes

	if frames > 0 {
		samples := frames * channels
		if cap(s.floatBuf) < samples {
			s.floatBuf = make([]float64, samples)
		}
		buf := s.floatBuf[:samples]

		got := ring.ReadWithSilence(buf)
		s.applyGain(buf, channels)
		n += utils.Float64ToFloat32LE(p[n:], buf)
		s.delivered.Add(int64(got))
	}

	// Sub-frame remainder: render one more frame and split it.
	if rest := len(p) - n; rest > 0 {
		frame := s.floatBuf[:channels]
		got := ring.ReadWithSilence(frame)
		s.applyGain(frame, channels)
		if cap(s.carry) < frameBytes {
			s.carry = make([]byte, frameBytes)
		}
		utils.Float64ToFloat32LE(s.carry[:frameBytes], frame)
		n += copy(p[n:], s.carry[:rest])
		copy(s.carry, s.carry[rest:frameBytes])
		s.carryLen = frameBytes - rest
		s.delivered.Add(int64(got))
	}

	return n, nil
}

func (s *sink) applyGain(buf []float64, channels int) {
	if g := s.gain.Load(); g != nil {
		g.Apply(buf, channels)
	}
}
