// SPDX-License-Identifier: EPL-2.0

package sheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// VirtualTrack is a playable time-range inside a larger audio file,
// derived from one sheet track. It is a plain source descriptor: the
// playback engine consumes it, nothing owns it beyond the request that
// built it.
type VirtualTrack struct {
	// Path is the resolved absolute path of the backing audio file.
	Path string
	// Number is the sheet track number.
	Number    int
	Title     string
	Performer string

	// Start of the audible range.
	Start time.Duration
	// End of the range; only meaningful when HasEnd is true. A track
	// without an end plays to the end of its file.
	End    time.Duration
	HasEnd bool
}

func (v VirtualTrack) String() string {
	if v.HasEnd {
		return fmt.Sprintf("track %d %q [%v, %v)", v.Number, v.Title, v.Start, v.End)
	}
	return fmt.Sprintf("track %d %q [%v, eof)", v.Number, v.Title, v.Start)
}

// PregapPolicy decides whether a track's INDEX 00 pregap region belongs
// to its playable range. The common convention excludes it; sheets in
// the wild disagree, so this stays configurable.
type PregapPolicy int

const (
	// PregapExcluded starts each virtual track at INDEX 01.
	PregapExcluded PregapPolicy = iota
	// PregapIncluded starts each virtual track at INDEX 00 when one is
	// declared.
	PregapIncluded
)

// BuildOptions tunes virtual track construction.
type BuildOptions struct {
	Pregap PregapPolicy
	// Stat overrides file existence checking, for tests. Nil means
	// os.Stat.
	Stat func(path string) error
}

// containerTypes maps declared sheet container types to decoder family
// keys.
var containerTypes = map[string]string{
	"WAVE": "wav",
	"WAV":  "wav",
	"MP3":  "mp3",
	"AIFF": "aiff",
	"OGG":  "ogg",
}

// extensionTypes is the fallback when the declared type is unknown but
// the file name itself is unambiguous.
var extensionTypes = map[string]string{
	".wav": "wav", ".wave": "wav",
	".mp3":  "mp3",
	".aiff": "aiff", ".aif": "aiff",
	".ogg": "ogg", ".oga": "ogg",
}

func containerKey(f File) string {
	if key, ok := containerTypes[f.Type]; ok {
		return key
	}
	return extensionTypes[strings.ToLower(filepath.Ext(f.Name))]
}

// Validate checks a parsed sheet against the filesystem and its own
// internal consistency. Every failure is reported; nothing aborts
// early, so callers can proceed with the valid subset.
func Validate(s *Sheet, opts BuildOptions) []ValidationError {
	errs, _, _ := validate(s, opts)
	return errs
}

// validate reports problems and the failing entries keyed by slice
// index. Names and track numbers are not unique across a sheet (track
// numbers restart per disc), so the bad sets must not key on them.
func validate(s *Sheet, opts BuildOptions) ([]ValidationError, map[int]bool, map[int]bool) {
	stat := opts.Stat
	if stat == nil {
		stat = func(path string) error {
			_, err := os.Stat(path)
			return err
		}
	}

	var errs []ValidationError
	badFiles := make(map[int]bool)
	badTracks := make(map[int]bool)

	for fi, f := range s.Files {
		if err := stat(f.Path); err != nil {
			badFiles[fi] = true
			errs = append(errs, ValidationError{
				Kind: MissingFile,
				File: f.Name,
				Msg:  fmt.Sprintf("referenced audio file not found: %v", err),
			})
		}
		if containerKey(f) == "" {
			badFiles[fi] = true
			errs = append(errs, ValidationError{
				Kind: UnsupportedContainer,
				File: f.Name,
				Msg:  fmt.Sprintf("declared type %q is not a resolvable container", f.Type),
			})
		}
	}

	// Track starts must be chronologically non-decreasing per file.
	lastStart := make(map[int]Frames)
	for ti := range s.Tracks {
		t := &s.Tracks[ti]
		start, ok := trackStart(t, opts.Pregap)
		if !ok {
			badTracks[ti] = true
			errs = append(errs, ValidationError{
				Kind:  Malformed,
				Track: t.Number,
				Msg:   "track has no index points",
			})
			continue
		}
		if prev, seen := lastStart[t.FileIndex]; seen && start < prev {
			badTracks[ti] = true
			errs = append(errs, ValidationError{
				Kind:  NonMonotonicIndex,
				Track: t.Number,
				File:  s.Files[t.FileIndex].Name,
				Msg:   fmt.Sprintf("starts at frame %d before previous track's frame %d", start, prev),
			})
			continue
		}
		lastStart[t.FileIndex] = start
	}

	return errs, badFiles, badTracks
}

// trackStart resolves the frame a track becomes audible at under the
// given pregap policy.
func trackStart(t *Track, policy PregapPolicy) (Frames, bool) {
	if len(t.Indexes) == 0 {
		return 0, false
	}

	audible := t.Index(1)
	pregap := t.Index(0)

	switch policy {
	case PregapIncluded:
		if pregap != nil {
			return pregap.Frame, true
		}
	}
	if audible != nil {
		return audible.Frame, true
	}
	// No INDEX 01: fall back to the first declared point.
	return t.Indexes[0].Frame, true
}

// BuildVirtualTracks converts a validated sheet into playable virtual
// tracks. Tracks belonging to files that failed validation are skipped;
// tracks from the sheet's remaining valid files still build. The
// returned errors are the full validation report.
//
// Each track's end is the start of the next track sharing the same
// file. The last track of a file, and any track whose successor lives
// in a different file, has no end and plays to end-of-file.
func BuildVirtualTracks(s *Sheet, opts BuildOptions) ([]VirtualTrack, []ValidationError) {
	errs, badFiles, badTracks := validate(s, opts)

	var out []VirtualTrack
	for ti := range s.Tracks {
		t := &s.Tracks[ti]
		if t.FileIndex < 0 || t.FileIndex >= len(s.Files) {
			continue
		}
		if badFiles[t.FileIndex] || badTracks[ti] {
			continue
		}
		file := s.Files[t.FileIndex]

		start, ok := trackStart(t, opts.Pregap)
		if !ok {
			continue
		}

		vt := VirtualTrack{
			Path:      file.Path,
			Number:    t.Number,
			Title:     t.Title,
			Performer: t.Performer,
			Start:     start.Duration(),
		}

		if ni := nextInFile(s, ti); ni >= 0 && !badTracks[ni] {
			if nextStart, ok := trackStart(&s.Tracks[ni], opts.Pregap); ok {
				vt.End = nextStart.Duration()
				vt.HasEnd = true
				if vt.End <= vt.Start {
					// Empty range; the ordering problem is already in
					// the validation report.
					continue
				}
			}
		}

		out = append(out, vt)
	}

	return out, errs
}

// nextInFile returns the index of the first track after ti that
// references the same file, or -1.
func nextInFile(s *Sheet, ti int) int {
	fileIdx := s.Tracks[ti].FileIndex
	for i := ti + 1; i < len(s.Tracks); i++ {
		if s.Tracks[i].FileIndex == fileIdx {
			return i
		}
	}
	return -1
}
