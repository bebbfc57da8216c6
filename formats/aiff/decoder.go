package aiff

import (
	"fmt"
	"io"
	"time"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"

	"github.com/tonearm/tonearm/audio"
)

// aiffReader is an interface for aiff.Decoder to allow testing
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
	Duration() (time.Duration, error)
}

// stream wraps go-audio's forward-only AIFF decoder. Seeking re-opens
// the container from the start and skips frames, which keeps positions
// sample-accurate at the cost of seek latency on large files.
type stream struct {
	rs         io.ReadSeeker
	dec        aiffReader
	sampleRate int
	channels   int
	bitDepth   int
	intBuf     *goaudio.IntBuffer
}

func (s *stream) Format() audio.Format {
	return audio.Format{SampleRate: s.sampleRate, Channels: s.channels}
}

func (s *stream) Close() error { return nil }

func (s *stream) Duration() time.Duration {
	d, err := s.dec.Duration()
	if err != nil {
		return 0
	}
	return d
}

func (s *stream) Seek(t time.Duration) (time.Duration, error) {
	frame := s.Format().FramesFor(t)
	if frame < 0 {
		frame = 0
	}
	if total := s.Format().FramesFor(s.Duration()); total > 0 && frame > total {
		frame = total
	}

	if _, err := s.rs.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("aiff seek: %w", err)
	}
	dec := aiff.NewDecoder(s.rs)
	if !dec.IsValidFile() {
		return 0, ErrNotAiffFile
	}
	dec.ReadInfo()
	s.dec = dec

	// Skip forward to the requested frame.
	skip := frame
	scratch := &goaudio.IntBuffer{
		Data:   make([]int, 4096*s.channels),
		Format: dec.Format(),
	}
	for skip > 0 {
		want := int64(len(scratch.Data)) / int64(s.channels)
		if want > skip {
			want = skip
			scratch.Data = scratch.Data[:want*int64(s.channels)]
		}
		n, err := s.dec.PCMBuffer(scratch)
		if n == 0 {
			break
		}
		skip -= int64(n) / int64(s.channels)
		if err != nil {
			break
		}
	}

	return s.Format().DurationFor(frame - skip), nil
}

func (s *stream) ReadSamples(dst []float64) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, io.EOF
	}

	// go-audio hands back ints; normalize by the source bit depth.
	var maxVal float64
	switch s.bitDepth {
	case 8:
		maxVal = 128.0
	case 16:
		maxVal = 32768.0
	case 24:
		maxVal = 8388608.0
	case 32:
		maxVal = 2147483648.0
	default:
		maxVal = 32768.0
	}

	for i := 0; i < n; i++ {
		dst[i] = float64(s.intBuf.Data[i]) / maxVal
	}

	if n < len(dst) && err == nil {
		return n, io.EOF
	}

	return n, err
}

type Decoder struct{}

func (Decoder) Decode(r io.ReadSeeker) (audio.Stream, error) {
	dec := aiff.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	dec.ReadInfo()

	if dec.BitDepth != 16 {
		return nil, ErrOnlyPCM16bitSupported
	}

	format := dec.Format()
	if format == nil {
		return nil, ErrUnsupportedAiffLayout
	}

	return &stream{
		rs:         r,
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   int(dec.BitDepth),
	}, nil
}
