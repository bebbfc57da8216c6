// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"io"
	"math"
	"testing"
	"time"
)

// fakeOgg serves interleaved float32 samples the way oggvorbis does,
// with frame-granular positioning.
type fakeOgg struct {
	samples    []float32
	pos        int64 // in samples
	sampleRate int
	channels   int
}

func (f *fakeOgg) SampleRate() int { return f.sampleRate }
func (f *fakeOgg) Channels() int   { return f.channels }

func (f *fakeOgg) Length() int64 {
	return int64(len(f.samples)) / int64(f.channels)
}

func (f *fakeOgg) SetPosition(pos int64) error {
	f.pos = pos * int64(f.channels)
	return nil
}

func (f *fakeOgg) Read(p []float32) (int, error) {
	if f.pos >= int64(len(f.samples)) {
		return 0, io.EOF
	}
	n := copy(p, f.samples[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func rampOgg(sampleRate, channels int, frames int) *fakeOgg {
	samples := make([]float32, frames*channels)
	for i := range samples {
		samples[i] = float32(i) / float32(len(samples))
	}
	return &fakeOgg{samples: samples, sampleRate: sampleRate, channels: channels}
}

func TestStream_ReadSamples(t *testing.T) {
	t.Parallel()

	fake := rampOgg(44100, 2, 8)
	s := &stream{dec: fake, sampleRate: 44100, channels: 2}

	dst := make([]float64, 16)
	n, err := s.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != 16 {
		t.Fatalf("ReadSamples() = %d, want 16", n)
	}
	for i := range n {
		if math.Abs(dst[i]-float64(fake.samples[i])) > 1e-7 {
			t.Errorf("sample %d = %v, want %v", i, dst[i], fake.samples[i])
		}
	}

	if _, err := s.ReadSamples(dst); err != io.EOF {
		t.Errorf("read past end = %v, want io.EOF", err)
	}
}

func TestStream_Duration(t *testing.T) {
	t.Parallel()

	s := &stream{dec: rampOgg(48000, 2, 48000), sampleRate: 48000, channels: 2}
	if d := s.Duration(); d != time.Second {
		t.Errorf("Duration() = %v, want 1s", d)
	}
}

func TestStream_Seek(t *testing.T) {
	t.Parallel()

	fake := rampOgg(48000, 2, 48000)
	s := &stream{dec: fake, sampleRate: 48000, channels: 2}

	got, err := s.Seek(500 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if got != 500*time.Millisecond {
		t.Errorf("Seek() landed at %v, want 500ms", got)
	}
	if fake.pos != 24000*2 {
		t.Errorf("decoder position = %d samples, want %d", fake.pos, 24000*2)
	}

	// Beyond the end clamps.
	got, err = s.Seek(time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if got != time.Second {
		t.Errorf("clamped Seek() = %v, want 1s", got)
	}
}

func TestStream_ShortDestination(t *testing.T) {
	t.Parallel()

	s := &stream{dec: rampOgg(44100, 2, 4), sampleRate: 44100, channels: 2}
	if n, err := s.ReadSamples(nil); n != 0 || err != nil {
		t.Errorf("ReadSamples(nil) = %d, %v", n, err)
	}
}
