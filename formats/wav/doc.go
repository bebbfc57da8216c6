// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV (RIFF) audio decoding with sample-accurate
// seeking.
//
// The decoder walks the RIFF chunk list itself rather than assuming the
// canonical 44-byte header, so files with LIST/INFO or other metadata
// chunks before the data chunk decode correctly. Uncompressed PCM at
// 16-bit or 24-bit depth is supported.
//
// Because WAV stores raw PCM, Seek is a single byte-offset computation:
//
//	st, _ := wav.Decoder{}.Decode(file)
//	actual, _ := st.Seek(40 * time.Second)
//	buf := make([]float64, 4096)
//	n, _ := st.ReadSamples(buf)
//
// Samples are returned as interleaved float64 in [-1.0, 1.0].
package wav
