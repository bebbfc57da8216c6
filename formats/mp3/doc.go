// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio decoding.
//
// This package uses github.com/hajimehoshi/go-mp3, which decodes MPEG-1
// Layer 3 streams to 16-bit little-endian stereo PCM. Duration and
// seeking operate in the decoded PCM domain (4 bytes per frame), which
// makes seek targets frame-accurate for constant-bitrate files.
//
//	st, err := mp3.Decoder{}.Decode(file)
//	if err != nil {
//	    // Handle error
//	}
//	total := st.Duration()
//	st.Seek(total / 2)
//
// Samples are returned as interleaved float64 in [-1.0, 1.0].
package mp3
