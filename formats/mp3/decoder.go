// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"fmt"
	"io"
	"time"

	gomp3 "github.com/hajimehoshi/go-mp3"

	"github.com/tonearm/tonearm/audio"
)

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	Seek(offset int64, whence int) (int64, error)
	SampleRate() int
	Length() int64
}

// go-mp3 always emits 16-bit little-endian stereo PCM, 4 bytes per frame.
const bytesPerFrame = 4

type stream struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
}

func (s *stream) Format() audio.Format {
	return audio.Format{SampleRate: s.sampleRate, Channels: 2}
}

func (s *stream) Close() error { return nil }

func (s *stream) Duration() time.Duration {
	length := s.dec.Length()
	if length < 0 {
		return 0
	}
	return s.Format().DurationFor(length / bytesPerFrame)
}

func (s *stream) Seek(t time.Duration) (time.Duration, error) {
	frame := s.Format().FramesFor(t)
	if frame < 0 {
		frame = 0
	}
	if length := s.dec.Length(); length >= 0 && frame > length/bytesPerFrame {
		frame = length / bytesPerFrame
	}

	if _, err := s.dec.Seek(frame*bytesPerFrame, io.SeekStart); err != nil {
		return 0, fmt.Errorf("mp3 seek: %w", err)
	}
	return s.Format().DurationFor(frame), nil
}

func (s *stream) ReadSamples(dst []float64) (int, error) {
	// go-mp3 returns 16-bit little-endian PCM bytes (stereo interleaved).
	// Each sample is 2 bytes, so we need len(dst) * 2 bytes.
	bytesNeeded := len(dst) * 2
	if cap(s.buf) < bytesNeeded {
		s.buf = make([]byte, bytesNeeded)
	}
	s.buf = s.buf[:bytesNeeded]

	n, err := s.dec.Read(s.buf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	samples := n / 2
	for i := range samples {
		low := uint16(s.buf[2*i])
		high := uint16(s.buf[2*i+1])
		val := int16(low | (high << 8))
		dst[i] = float64(val) / 32768.0
	}

	return samples, err
}

type Decoder struct{}

func (Decoder) Decode(r io.ReadSeeker) (audio.Stream, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &stream{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}, nil
}
