// SPDX-License-Identifier: EPL-2.0

package audio

import "sync/atomic"

// RingBuffer is a fixed-capacity, lock-free container of interleaved
// float64 audio frames shared between exactly one producer (the decode
// worker) and one consumer (the device read path).
//
// The cursors are monotonically increasing frame counters; buffer indices
// are derived with mod capacity. Invariant: wr - rd is always in
// [0, capacity], so the full capacity is usable and AvailableRead is
// exactly frames-written minus frames-read.
//
// Write and Read never block and never allocate. Clear is only safe when
// no concurrent Write or Read is in flight.
type RingBuffer struct {
	buf      []float64
	capacity int64 // frames
	channels int

	wr        atomic.Int64 // total frames written
	rd        atomic.Int64 // total frames read
	underruns atomic.Int64
}

// NewRingBuffer creates a buffer holding capacityFrames frames of
// channels-interleaved samples. Capacity is fixed for the buffer's
// lifetime; a format change requires a new buffer.
func NewRingBuffer(capacityFrames int, channels int) (*RingBuffer, error) {
	if capacityFrames <= 0 {
		return nil, ErrInvalidCapacity
	}
	if channels <= 0 {
		return nil, ErrInvalidFormat
	}

	return &RingBuffer{
		buf:      make([]float64, capacityFrames*channels),
		capacity: int64(capacityFrames),
		channels: channels,
	}, nil
}

// Capacity returns the buffer capacity in frames.
func (rb *RingBuffer) Capacity() int { return int(rb.capacity) }

// Channels returns the interleaved channel count.
func (rb *RingBuffer) Channels() int { return rb.channels }

// AvailableRead returns the number of frames ready for the consumer.
func (rb *RingBuffer) AvailableRead() int {
	return int(rb.wr.Load() - rb.rd.Load())
}

// AvailableWrite returns the number of frames the producer may write
// without overrunning the consumer.
func (rb *RingBuffer) AvailableWrite() int {
	return int(rb.capacity - (rb.wr.Load() - rb.rd.Load()))
}

// Write copies interleaved samples into the buffer and returns the number
// of frames actually written. A short write means the buffer is full; the
// producer yields and retries. len(samples) must be a multiple of the
// channel count.
func (rb *RingBuffer) Write(samples []float64) (int, error) {
	if len(samples)%rb.channels != 0 {
		return 0, ErrInvalidSampleCount
	}

	wr := rb.wr.Load()
	rd := rb.rd.Load()

	frames := int64(len(samples)) / int64(rb.channels)
	free := rb.capacity - (wr - rd)
	if frames > free {
		frames = free
	}
	if frames <= 0 {
		return 0, nil
	}

	start := (wr % rb.capacity) * int64(rb.channels)
	n := frames * int64(rb.channels)
	first := int64(len(rb.buf)) - start
	if n <= first {
		copy(rb.buf[start:start+n], samples[:n])
	} else {
		copy(rb.buf[start:], samples[:first])
		copy(rb.buf, samples[first:n])
	}

	rb.wr.Store(wr + frames)
	return int(frames), nil
}

// Read copies up to len(dst)/channels frames out of the buffer and
// returns the number of frames read. Reading from an empty buffer returns
// zero frames; it is not an error.
func (rb *RingBuffer) Read(dst []float64) (int, error) {
	if len(dst)%rb.channels != 0 {
		return 0, ErrInvalidSampleCount
	}

	wr := rb.wr.Load()
	rd := rb.rd.Load()

	frames := int64(len(dst)) / int64(rb.channels)
	avail := wr - rd
	if frames > avail {
		frames = avail
	}
	if frames <= 0 {
		return 0, nil
	}

	start := (rd % rb.capacity) * int64(rb.channels)
	n := frames * int64(rb.channels)
	first := int64(len(rb.buf)) - start
	if n <= first {
		copy(dst[:n], rb.buf[start:start+n])
	} else {
		copy(dst[:first], rb.buf[start:])
		copy(dst[first:n], rb.buf)
	}

	rb.rd.Store(rd + frames)
	return int(frames), nil
}

// ReadWithSilence fills all of dst, zero-padding whatever the buffer
// cannot supply, and returns the number of frames that came from the
// buffer. A shortfall is an underrun, counted for diagnostics but never
// surfaced as a failure; the device keeps its cadence either way.
func (rb *RingBuffer) ReadWithSilence(dst []float64) int {
	n, err := rb.Read(dst)
	if err != nil {
		n = 0
	}

	filled := n * rb.channels
	if filled < len(dst) {
		if rb.wr.Load() > 0 {
			rb.underruns.Add(1)
		}
		for i := filled; i < len(dst); i++ {
			dst[i] = 0
		}
	}
	return n
}

// Underruns returns the number of short reads observed so far.
func (rb *RingBuffer) Underruns() int64 { return rb.underruns.Load() }

// Clear resets both cursors, discarding buffered frames. The caller must
// guarantee the producer and consumer are quiescent; the decode worker
// does this around seeks and source switches.
func (rb *RingBuffer) Clear() {
	rb.rd.Store(0)
	rb.wr.Store(0)
	rb.underruns.Store(0)
}
