// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"sync"
	"time"
)

// Format describes a PCM stream layout. The engine's canonical sample
// representation is interleaved float64 in [-1, 1]; Format only carries
// the properties that matter for buffer sizing and device negotiation.
type Format struct {
	// SampleRate of the PCM stream in Hz.
	SampleRate int
	// Channels count (e.g., 1=mono, 2=stereo).
	Channels int
}

// Valid reports whether the format can describe a playable stream.
func (f Format) Valid() bool {
	return f.SampleRate > 0 && f.Channels > 0
}

// FramesFor returns the number of audio frames covering d at this rate.
func (f Format) FramesFor(d time.Duration) int64 {
	return int64(d.Seconds() * float64(f.SampleRate))
}

// DurationFor returns the wall-clock duration of n frames at this rate.
func (f Format) DurationFor(frames int64) time.Duration {
	if f.SampleRate == 0 {
		return 0
	}
	return time.Duration(float64(frames) / float64(f.SampleRate) * float64(time.Second))
}

// Stream is a decoded, seekable PCM source. It is the contract every
// container decoder must satisfy.
type Stream interface {
	// Format of the decoded stream. Fixed for the stream's lifetime.
	Format() Format
	// Duration of the whole stream, or 0 when unknown.
	Duration() time.Duration
	// Seek repositions the stream and returns the position actually
	// reached, which may differ from the request on block-aligned codecs.
	Seek(t time.Duration) (time.Duration, error)
	// ReadSamples fills dst with interleaved float64 samples in [-1,1].
	// Returns number of float64 values written (not frames). When n == 0
	// with err == io.EOF, the stream is finished.
	ReadSamples(dst []float64) (n int, err error)

	// Close releases any resources.
	Close() error
}

// Decoder constructs a Stream from seekable input.
type Decoder interface {
	Decode(r io.ReadSeeker) (Stream, error)
}

// Registry for decoders by format key (e.g., "wav", "mp3", "ogg").
type Registry struct {
	codecs map[string]Decoder

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[string]Decoder),
		mtx:    &sync.Mutex{},
	}
}

func (r *Registry) Register(format string, d Decoder) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[format] = d
}

func (r *Registry) Get(format string) (Decoder, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	d, ok := r.codecs[format]
	return d, ok
}

// Formats returns the registered format keys.
func (r *Registry) Formats() []string {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	keys := make([]string, 0, len(r.codecs))
	for k := range r.codecs {
		keys = append(keys, k)
	}
	return keys
}
