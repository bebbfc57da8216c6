// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/tonearm/tonearm/audio"
)

type wavStream struct {
	r          io.ReadSeeker
	sampleRate int
	channels   int
	bitDepth   int

	dataStart int64 // byte offset of the data chunk payload
	dataLen   int64 // payload length in bytes
	pos       int64 // current byte offset within the payload

	buf []byte
}

func (s *wavStream) Format() audio.Format {
	return audio.Format{SampleRate: s.sampleRate, Channels: s.channels}
}

func (s *wavStream) Close() error { return nil }

func (s *wavStream) bytesPerFrame() int64 {
	return int64(s.bitDepth/8) * int64(s.channels)
}

func (s *wavStream) Duration() time.Duration {
	frames := s.dataLen / s.bytesPerFrame()
	return s.Format().DurationFor(frames)
}

func (s *wavStream) Seek(t time.Duration) (time.Duration, error) {
	totalFrames := s.dataLen / s.bytesPerFrame()
	frame := s.Format().FramesFor(t)
	if frame < 0 {
		frame = 0
	}
	if frame > totalFrames {
		frame = totalFrames
	}

	off := frame * s.bytesPerFrame()
	if _, err := s.r.Seek(s.dataStart+off, io.SeekStart); err != nil {
		return 0, fmt.Errorf("wav seek: %w", err)
	}
	s.pos = off

	return s.Format().DurationFor(frame), nil
}

func (s *wavStream) ReadSamples(dst []float64) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	bps := s.bitDepth / 8
	want := int64(len(dst) * bps)
	if remain := s.dataLen - s.pos; want > remain {
		want = remain
	}
	if want <= 0 {
		return 0, io.EOF
	}

	if int64(cap(s.buf)) < want {
		s.buf = make([]byte, want)
	}
	s.buf = s.buf[:want]

	n, err := io.ReadFull(s.r, s.buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return 0, io.EOF
		}
		return 0, fmt.Errorf("wav read: %w", err)
	}
	s.pos += int64(n)

	samples := n / bps
	switch s.bitDepth {
	case 16:
		for i := range samples {
			v := int16(binary.LittleEndian.Uint16(s.buf[2*i : 2*i+2]))
			dst[i] = float64(v) / 32768.0
		}
	case 24:
		for i := range samples {
			b := s.buf[3*i : 3*i+3]
			v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
			// sign-extend from 24 bits
			v = (v << 8) >> 8
			dst[i] = float64(v) / 8388608.0
		}
	}

	if samples == 0 {
		return 0, io.EOF
	}
	return samples, nil
}

type Decoder struct{}

// Decode walks the RIFF chunk list to locate the fmt and data chunks.
// Only canonical PCM (16-bit or 24-bit) is accepted; everything else is
// the job of a different decoder.
func (Decoder) Decode(r io.ReadSeeker) (audio.Stream, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return nil, ErrNotWavFile
	}

	s := &wavStream{r: r, buf: make([]byte, 8192)}

	var haveFmt bool
	offset := int64(12)
	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("%w", err)
		}
		offset += 8
		size := int64(binary.LittleEndian.Uint32(hdr[4:8]))

		switch string(hdr[0:4]) {
		case "fmt ":
			if size < 16 {
				return nil, ErrUnsupportedWavLayout
			}
			var chunk [16]byte
			if _, err := io.ReadFull(r, chunk[:]); err != nil {
				return nil, fmt.Errorf("%w", err)
			}
			audioFormat := binary.LittleEndian.Uint16(chunk[0:2])
			s.channels = int(binary.LittleEndian.Uint16(chunk[2:4]))
			s.sampleRate = int(binary.LittleEndian.Uint32(chunk[4:8]))
			s.bitDepth = int(binary.LittleEndian.Uint16(chunk[14:16]))

			if audioFormat != 1 {
				return nil, ErrOnlyPCMSupported
			}
			if s.bitDepth != 16 && s.bitDepth != 24 {
				return nil, ErrUnsupportedBitDepth
			}
			haveFmt = true

			if skip := size - 16; skip > 0 {
				if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
					return nil, fmt.Errorf("%w", err)
				}
			}
			offset += size
		case "data":
			if !haveFmt {
				return nil, ErrUnsupportedWavLayout
			}
			s.dataStart = offset
			s.dataLen = size
			if s.channels == 0 || s.sampleRate == 0 {
				return nil, ErrUnsupportedWavLayout
			}
			return s, nil
		default:
			// Skip unrelated chunks; sizes are padded to even lengths.
			skip := size
			if skip%2 == 1 {
				skip++
			}
			if _, err := r.Seek(skip, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("%w", err)
			}
			offset += skip
		}
	}

	return nil, ErrUnsupportedWavChunks
}
