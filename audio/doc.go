// SPDX-License-Identifier: EPL-2.0

// Package audio defines the canonical sample types and the real-time
// plumbing shared by every part of the engine.
//
// All decoded audio flows through the engine as interleaved float64
// samples in the range [-1.0, 1.0]. 64-bit floats are deliberately wider
// than any source bit depth the decoders produce, so no precision is lost
// regardless of whether the source was 16-bit PCM, 24-bit PCM or a lossy
// codec's float output.
//
// # Streams and Decoders
//
// A Stream is a decoded, seekable PCM source:
//
//	st, _ := someDecoder.Decode(file)
//	buf := make([]float64, 4096)
//	n, err := st.ReadSamples(buf)
//
// Decoders for each container family live under formats/ and are looked
// up through a Registry, keyed by format name.
//
// # Ring Buffer
//
// RingBuffer is the single structure shared between the decode worker
// and the output device's read path. It is lock-free with one producer
// and one consumer:
//
//	rb, _ := audio.NewRingBuffer(44100*2, 2) // two seconds of stereo
//	written, _ := rb.Write(samples)          // decode worker
//	frames := rb.ReadWithSilence(out)        // device callback
//
// Writes and reads never block: each returns fewer frames than requested
// when capacity or availability is short, and the caller decides how to
// react (the worker retries after a short yield, the device zero-fills).
//
// # Gain
//
// Gain applies the session volume inside the device read path, ramping
// linearly over a short duration so volume changes never click:
//
//	g := audio.NewGain(1.0, 20*time.Millisecond, 44100)
//	g.Set(0.5)
//	g.Apply(samples, channels)
package audio
