// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"io"
	"math"
	"testing"
	"time"

	goaudio "github.com/go-audio/audio"
)

// fakeAiff serves 16-bit integer PCM the way go-audio's decoder does:
// forward-only, filling IntBuffers until the data runs out.
type fakeAiff struct {
	data       []int
	pos        int
	sampleRate int
	channels   int
}

func (f *fakeAiff) Format() *goaudio.Format {
	return &goaudio.Format{NumChannels: f.channels, SampleRate: f.sampleRate}
}

func (f *fakeAiff) PCMBuffer(buf *goaudio.IntBuffer) (int, error) {
	if f.pos >= len(f.data) {
		return 0, nil
	}
	n := copy(buf.Data, f.data[f.pos:])
	f.pos += n
	return n, nil
}

func (f *fakeAiff) Duration() (time.Duration, error) {
	frames := len(f.data) / f.channels
	return time.Duration(float64(frames) / float64(f.sampleRate) * float64(time.Second)), nil
}

func TestStream_ReadSamples(t *testing.T) {
	t.Parallel()

	data := []int{0, 16384, -16384, 32767, -32768, 5, -5, 0}
	fake := &fakeAiff{data: data, sampleRate: 44100, channels: 2}
	s := &stream{dec: fake, sampleRate: 44100, channels: 2, bitDepth: 16}

	dst := make([]float64, len(data))
	n, err := s.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != len(data) {
		t.Fatalf("ReadSamples() = %d, want %d", n, len(data))
	}

	for i, v := range data {
		want := float64(v) / 32768.0
		if math.Abs(dst[i]-want) > 1e-9 {
			t.Errorf("sample %d = %v, want %v", i, dst[i], want)
		}
	}

	if _, err := s.ReadSamples(dst); err != io.EOF {
		t.Errorf("read past end = %v, want io.EOF", err)
	}
}

func TestStream_ShortReadSignalsEOF(t *testing.T) {
	t.Parallel()

	fake := &fakeAiff{data: []int{1, 2, 3, 4}, sampleRate: 44100, channels: 2}
	s := &stream{dec: fake, sampleRate: 44100, channels: 2, bitDepth: 16}

	dst := make([]float64, 16)
	n, err := s.ReadSamples(dst)
	if n != 4 {
		t.Errorf("ReadSamples() = %d, want 4", n)
	}
	if err != io.EOF {
		t.Errorf("short read error = %v, want io.EOF", err)
	}
}

func TestStream_Duration(t *testing.T) {
	t.Parallel()

	fake := &fakeAiff{data: make([]int, 44100*2), sampleRate: 44100, channels: 2}
	s := &stream{dec: fake, sampleRate: 44100, channels: 2, bitDepth: 16}

	if d := s.Duration(); d != time.Second {
		t.Errorf("Duration() = %v, want 1s", d)
	}
}
