package vorbis

import (
	"fmt"
	"io"
	"time"

	"github.com/jfreymuth/oggvorbis"

	"github.com/tonearm/tonearm/audio"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Length() int64
	SetPosition(pos int64) error
	Read([]float32) (int, error)
}

type stream struct {
	dec        oggReader
	sampleRate int
	channels   int
	frameBuf   []float32 // scratch for the decoder's float32 output
}

func (s *stream) Format() audio.Format {
	return audio.Format{SampleRate: s.sampleRate, Channels: s.channels}
}

func (s *stream) Close() error { return nil }

func (s *stream) Duration() time.Duration {
	// Length is reported in frames (samples per channel).
	return s.Format().DurationFor(s.dec.Length())
}

func (s *stream) Seek(t time.Duration) (time.Duration, error) {
	frame := s.Format().FramesFor(t)
	if frame < 0 {
		frame = 0
	}
	if total := s.dec.Length(); total > 0 && frame > total {
		frame = total
	}

	if err := s.dec.SetPosition(frame); err != nil {
		return 0, fmt.Errorf("vorbis seek: %w", err)
	}
	return s.Format().DurationFor(frame), nil
}

func (s *stream) ReadSamples(dst []float64) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if cap(s.frameBuf) < len(dst) {
		s.frameBuf = make([]float32, len(dst))
	}
	s.frameBuf = s.frameBuf[:len(dst)]

	// oggvorbis reads interleaved float32 values, already normalized.
	n, err := s.dec.Read(s.frameBuf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, nil
	}

	for i := range n {
		dst[i] = float64(s.frameBuf[i])
	}

	return n, err
}

type Decoder struct{}

func (Decoder) Decode(r io.ReadSeeker) (audio.Stream, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return &stream{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		frameBuf:   make([]float32, 4096),
	}, nil
}
