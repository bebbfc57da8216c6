// SPDX-License-Identifier: EPL-2.0

package formats

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tonearm/tonearm/audio"
	"github.com/tonearm/tonearm/formats/aiff"
	"github.com/tonearm/tonearm/formats/mp3"
	"github.com/tonearm/tonearm/formats/vorbis"
	"github.com/tonearm/tonearm/formats/wav"
)

var ErrUnknownFormat = errors.New("unknown audio container format")

// NewRegistry returns a registry with every built-in decoder registered.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("wav", wav.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("mp3", mp3.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	return r
}

// Probe sniffs the container format from header magic, falling back to
// nothing if the leading bytes are ambiguous. The reader is rewound to
// its starting position before returning.
func Probe(r io.ReadSeeker) (string, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return "", fmt.Errorf("%w", err)
	}

	var magic [12]byte
	n, _ := io.ReadFull(r, magic[:])
	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return "", fmt.Errorf("%w", err)
	}
	if n < 4 {
		return "", ErrUnknownFormat
	}

	switch {
	case string(magic[0:4]) == "RIFF" && n >= 12 && string(magic[8:12]) == "WAVE":
		return "wav", nil
	case string(magic[0:4]) == "FORM" && n >= 12 &&
		(string(magic[8:12]) == "AIFF" || string(magic[8:12]) == "AIFC"):
		return "aiff", nil
	case string(magic[0:4]) == "OggS":
		return "ogg", nil
	case string(magic[0:3]) == "ID3":
		return "mp3", nil
	case magic[0] == 0xFF && magic[1]&0xE0 == 0xE0:
		// Bare MPEG audio frame sync.
		return "mp3", nil
	}

	return "", ErrUnknownFormat
}

// ExtensionKey maps a file name to the registry key implied by its
// extension, or "" when the extension is not a known container.
func ExtensionKey(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return "wav"
	case ".aiff", ".aif":
		return "aiff"
	case ".mp3":
		return "mp3"
	case ".ogg", ".oga":
		return "ogg"
	}
	return ""
}

// fileStream ties a decoded Stream to the file it reads from so closing
// the stream releases the handle.
type fileStream struct {
	audio.Stream
	f *os.File
}

func (fs *fileStream) Close() error {
	serr := fs.Stream.Close()
	ferr := fs.f.Close()
	if serr != nil {
		return serr
	}
	return ferr
}

// Open opens path, selects a decoder by header magic (with the file
// extension as a tiebreaker) and returns the decoded stream. The stream
// owns the file handle.
func Open(path string) (audio.Stream, error) {
	return OpenWith(NewRegistry(), path)
}

// OpenWith is Open against a caller-supplied registry, so hosts can
// plug in additional decoders.
func OpenWith(reg *audio.Registry, path string) (audio.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	key, err := Probe(f)
	if err != nil {
		if key = ExtensionKey(path); key == "" {
			f.Close()
			return nil, ErrUnknownFormat
		}
	}

	dec, ok := reg.Get(key)
	if !ok {
		f.Close()
		return nil, ErrUnknownFormat
	}

	st, err := dec.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("decoding %s: %w", key, err)
	}

	return &fileStream{Stream: st, f: f}, nil
}
