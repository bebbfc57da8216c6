// SPDX-License-Identifier: EPL-2.0

package formats

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/tonearm/tonearm/internal/audiotest"
)

func TestProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		magic   []byte
		want    string
		wantErr bool
	}{
		{"wav", []byte("RIFF\x24\x08\x00\x00WAVEfmt "), "wav", false},
		{"aiff", []byte("FORM\x00\x00\x08\x24AIFFCOMM"), "aiff", false},
		{"aifc", []byte("FORM\x00\x00\x08\x24AIFCCOMM"), "aiff", false},
		{"ogg", []byte("OggS\x00\x02\x00\x00\x00\x00\x00\x00"), "ogg", false},
		{"mp3 with id3", []byte("ID3\x04\x00\x00\x00\x00\x00\x00\x00\x00"), "mp3", false},
		{"bare mpeg sync", []byte{0xFF, 0xFB, 0x90, 0x00, 0, 0, 0, 0, 0, 0, 0, 0}, "mp3", false},
		{"flac is unknown", []byte("fLaC\x00\x00\x00\x22\x00\x00\x00\x00"), "", true},
		{"riff but not wave", []byte("RIFF\x24\x08\x00\x00AVI LIST"), "", true},
		{"too short", []byte("RI"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := bytes.NewReader(tt.magic)
			got, err := Probe(r)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFormat) {
					t.Errorf("Probe() error = %v, want ErrUnknownFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Probe() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Probe() = %q, want %q", got, tt.want)
			}

			// The reader must be rewound for the decoder.
			if pos, _ := r.Seek(0, io.SeekCurrent); pos != 0 {
				t.Errorf("reader position after Probe = %d, want 0", pos)
			}
		})
	}
}

func TestExtensionKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"album.wav", "wav"},
		{"ALBUM.WAV", "wav"},
		{"song.mp3", "mp3"},
		{"song.ogg", "ogg"},
		{"song.oga", "ogg"},
		{"take.aiff", "aiff"},
		{"take.aif", "aiff"},
		{"notes.txt", ""},
		{"noext", ""},
	}

	for _, tt := range tests {
		if got := ExtensionKey(tt.path); got != tt.want {
			t.Errorf("ExtensionKey(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestNewRegistry_AllBuiltins(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	for _, key := range []string{"wav", "aiff", "mp3", "ogg"} {
		if _, ok := reg.Get(key); !ok {
			t.Errorf("registry missing %q decoder", key)
		}
	}
}

func TestOpen_WavFixture(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixture.wav")
	src := audiotest.NewConstantStream(8000, 2, 800, 0.5)
	if err := audiotest.WriteWavFixture(path, src); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	st, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	f := st.Format()
	if f.SampleRate != 8000 || f.Channels != 2 {
		t.Errorf("Format() = %+v", f)
	}

	var total int
	buf := make([]float64, 512)
	for {
		n, err := st.ReadSamples(buf)
		for _, s := range buf[:n] {
			if math.Abs(s-0.5) > 0.001 {
				t.Fatalf("sample = %v, want 0.5", s)
			}
		}
		total += n
		if err != nil {
			break
		}
	}
	if total != 800*2 {
		t.Errorf("decoded %d samples, want %d", total, 800*2)
	}

	if err := st.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestOpen_UnknownContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "not-audio.bin")
	if err := os.WriteFile(path, []byte("this is not an audio container at all"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Open() error = %v, want ErrUnknownFormat", err)
	}
}

func TestOpen_MissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Open("/nonexistent/audio.wav"); err == nil {
		t.Error("Open() on missing file returned nil error")
	}
}
