// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/tonearm/tonearm/audio"
)

// buildWav assembles a canonical PCM RIFF file in memory. samples are
// interleaved and already scaled to the integer range of bitDepth.
func buildWav(t *testing.T, sampleRate, channels, bitDepth int, samples []int32, extraChunks bool) []byte {
	t.Helper()

	var data bytes.Buffer
	for _, v := range samples {
		switch bitDepth {
		case 16:
			binary.Write(&data, binary.LittleEndian, int16(v))
		case 24:
			data.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16)})
		default:
			t.Fatalf("unsupported test bit depth %d", bitDepth)
		}
	}

	var fmtChunk bytes.Buffer
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(channels))
	binary.Write(&fmtChunk, binary.LittleEndian, uint32(sampleRate))
	byteRate := sampleRate * channels * bitDepth / 8
	binary.Write(&fmtChunk, binary.LittleEndian, uint32(byteRate))
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(channels*bitDepth/8))
	binary.Write(&fmtChunk, binary.LittleEndian, uint16(bitDepth))

	var body bytes.Buffer
	body.WriteString("WAVE")
	if extraChunks {
		// A LIST chunk with odd payload length, to exercise padding.
		body.WriteString("LIST")
		binary.Write(&body, binary.LittleEndian, uint32(5))
		body.Write([]byte{'I', 'N', 'F', 'O', 0, 0}) // 5 bytes + pad
	}
	body.WriteString("fmt ")
	binary.Write(&body, binary.LittleEndian, uint32(fmtChunk.Len()))
	body.Write(fmtChunk.Bytes())
	body.WriteString("data")
	binary.Write(&body, binary.LittleEndian, uint32(data.Len()))
	body.Write(data.Bytes())

	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestDecode_SixteenBit(t *testing.T) {
	t.Parallel()

	samples := []int32{0, 16384, -16384, 32767, -32768, 100, -100, 0}
	raw := buildWav(t, 44100, 2, 16, samples, false)

	st, err := Decoder{}.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	defer st.Close()

	f := st.Format()
	if f.SampleRate != 44100 || f.Channels != 2 {
		t.Errorf("Format() = %+v", f)
	}

	dst := make([]float64, len(samples))
	n, err := st.ReadSamples(dst)
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if n != len(samples) {
		t.Fatalf("ReadSamples() = %d, want %d", n, len(samples))
	}

	for i, v := range samples {
		want := float64(v) / 32768.0
		if math.Abs(dst[i]-want) > 1e-9 {
			t.Errorf("sample %d = %v, want %v", i, dst[i], want)
		}
	}

	if _, err := st.ReadSamples(dst); err != io.EOF {
		t.Errorf("read past end = %v, want io.EOF", err)
	}
}

func TestDecode_TwentyFourBit(t *testing.T) {
	t.Parallel()

	samples := []int32{0, 4194304, -4194304, 8388607, -8388608}
	raw := buildWav(t, 48000, 1, 24, samples, false)

	st, err := Decoder{}.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	dst := make([]float64, len(samples))
	n, err := st.ReadSamples(dst)
	if err != nil || n != len(samples) {
		t.Fatalf("ReadSamples() = %d, %v", n, err)
	}

	for i, v := range samples {
		want := float64(v) / 8388608.0
		if math.Abs(dst[i]-want) > 1e-9 {
			t.Errorf("sample %d = %v, want %v", i, dst[i], want)
		}
	}
}

func TestDecode_SkipsUnknownChunks(t *testing.T) {
	t.Parallel()

	raw := buildWav(t, 44100, 2, 16, []int32{1, 2, 3, 4}, true)

	st, err := Decoder{}.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("Decode() with extra chunks: %v", err)
	}
	dst := make([]float64, 4)
	if n, err := st.ReadSamples(dst); n != 4 || err != nil {
		t.Errorf("ReadSamples() = %d, %v", n, err)
	}
}

func TestDecode_DurationAndSeek(t *testing.T) {
	t.Parallel()

	// One second of stereo at 8 kHz.
	frames := 8000
	samples := make([]int32, frames*2)
	for i := range frames {
		samples[2*i] = int32(i % 999)
		samples[2*i+1] = int32(i % 999)
	}
	raw := buildWav(t, 8000, 2, 16, samples, false)

	st, err := Decoder{}.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}

	if d := st.Duration(); d != time.Second {
		t.Errorf("Duration() = %v, want 1s", d)
	}

	got, err := st.Seek(500 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if got != 500*time.Millisecond {
		t.Errorf("Seek() landed at %v, want 500ms", got)
	}

	// First frame after the seek is frame 4000.
	dst := make([]float64, 2)
	if _, err := st.ReadSamples(dst); err != nil {
		t.Fatal(err)
	}
	want := float64(4000%999) / 32768.0
	if math.Abs(dst[0]-want) > 1e-9 {
		t.Errorf("frame after seek = %v, want %v", dst[0], want)
	}

	// Seeking past the end clamps, then reads hit EOF.
	if _, err := st.Seek(time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, err := st.ReadSamples(dst); err != io.EOF {
		t.Errorf("read after clamped seek = %v, want io.EOF", err)
	}
}

func TestDecode_Rejections(t *testing.T) {
	t.Parallel()

	float32Wav := func() []byte {
		raw := buildWav(t, 44100, 2, 16, []int32{0}, false)
		// Flip the fmt tag from PCM(1) to IEEE float(3).
		i := bytes.Index(raw, []byte("fmt "))
		raw[i+8] = 3
		return raw
	}

	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{"not riff", []byte("OggSxxxxxxxxxxxxxxxx"), ErrNotWavFile},
		{"riff but not wave", append([]byte("RIFF\x10\x00\x00\x00AVI "), make([]byte, 16)...), ErrNotWavFile},
		{"float format", float32Wav(), ErrOnlyPCMSupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Decoder{}.Decode(bytes.NewReader(tt.raw))
			if !errors.Is(err, tt.want) {
				t.Errorf("Decode() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecode_UnsupportedBitDepth(t *testing.T) {
	t.Parallel()

	raw := buildWav(t, 44100, 1, 16, []int32{0}, false)
	i := bytes.Index(raw, []byte("fmt "))
	// Bit depth lives at fmt payload offset 14.
	binary.LittleEndian.PutUint16(raw[i+8+14:], 8)

	_, err := Decoder{}.Decode(bytes.NewReader(raw))
	if !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Errorf("Decode() error = %v, want %v", err, ErrUnsupportedBitDepth)
	}
}

var _ audio.Stream = (*wavStream)(nil)
