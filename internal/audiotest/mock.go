// SPDX-License-Identifier: EPL-2.0

// Package audiotest provides deterministic Stream implementations and
// on-disk fixtures for tests.
package audiotest

import (
	"io"
	"math"
	"time"

	"github.com/tonearm/tonearm/audio"
)

// MockStream is a seekable in-memory Stream that synthesizes its
// samples from a waveform function.
type MockStream struct {
	format      audio.Format
	totalFrames int64
	pos         int64 // frames consumed
	waveform    func(frame int64, channel int) float64
	closed      bool
}

// NewMockStream creates a stream of totalFrames frames whose sample
// values come from waveform(frame, channel).
func NewMockStream(sampleRate, channels int, totalFrames int64, waveform func(frame int64, channel int) float64) *MockStream {
	return &MockStream{
		format:      audio.Format{SampleRate: sampleRate, Channels: channels},
		totalFrames: totalFrames,
		waveform:    waveform,
	}
}

// NewSilentStream generates all-zero samples.
func NewSilentStream(sampleRate, channels int, totalFrames int64) *MockStream {
	return NewMockStream(sampleRate, channels, totalFrames, func(int64, int) float64 {
		return 0.0
	})
}

// NewSineStream generates a sine wave at the given frequency on every
// channel.
func NewSineStream(sampleRate, channels int, totalFrames int64, frequency float64) *MockStream {
	return NewMockStream(sampleRate, channels, totalFrames, func(frame int64, _ int) float64 {
		t := float64(frame) / float64(sampleRate)
		return math.Sin(2 * math.Pi * frequency * t)
	})
}

// NewConstantStream generates the same value for every sample.
func NewConstantStream(sampleRate, channels int, totalFrames int64, value float64) *MockStream {
	return NewMockStream(sampleRate, channels, totalFrames, func(int64, int) float64 {
		return value
	})
}

// NewRampStream numbers frames so tests can assert exactly which frames
// arrived where: sample value is frame/scale on every channel.
func NewRampStream(sampleRate, channels int, totalFrames int64, scale float64) *MockStream {
	return NewMockStream(sampleRate, channels, totalFrames, func(frame int64, _ int) float64 {
		return float64(frame) / scale
	})
}

func (m *MockStream) Format() audio.Format { return m.format }

func (m *MockStream) Duration() time.Duration {
	return m.format.DurationFor(m.totalFrames)
}

func (m *MockStream) Seek(t time.Duration) (time.Duration, error) {
	frame := m.format.FramesFor(t)
	if frame < 0 {
		frame = 0
	}
	if frame > m.totalFrames {
		frame = m.totalFrames
	}
	m.pos = frame
	return m.format.DurationFor(frame), nil
}

func (m *MockStream) ReadSamples(dst []float64) (int, error) {
	if m.pos >= m.totalFrames {
		return 0, io.EOF
	}

	frames := int64(len(dst) / m.format.Channels)
	if remain := m.totalFrames - m.pos; frames > remain {
		frames = remain
	}

	for f := range frames {
		for ch := range m.format.Channels {
			dst[int(f)*m.format.Channels+ch] = m.waveform(m.pos+f, ch)
		}
	}
	m.pos += frames

	return int(frames) * m.format.Channels, nil
}

func (m *MockStream) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *MockStream) Closed() bool { return m.closed }

// Position returns the current frame cursor.
func (m *MockStream) Position() int64 { return m.pos }
