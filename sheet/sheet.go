// SPDX-License-Identifier: EPL-2.0

package sheet

import "time"

// FramesPerSecond is the sheet format's fixed timing granularity. It is
// a property of the index-sheet format, not of the referenced audio:
// conversions into the audio's sample-rate time domain must go through
// Duration first.
const FramesPerSecond = 75

// Frames counts 1/75-second sheet frames.
type Frames int64

// Duration converts sheet frames to wall-clock time. The division
// rounds up by at most one nanosecond so that DurationToFrames(
// f.Duration()) == f holds for every frame count.
func (f Frames) Duration() time.Duration {
	return time.Duration((int64(f)*int64(time.Second) + FramesPerSecond - 1) / FramesPerSecond)
}

// Seconds returns the frame offset as floating-point seconds.
func (f Frames) Seconds() float64 {
	return float64(f) / FramesPerSecond
}

// DurationToFrames converts a duration to sheet frames, flooring so a
// seek target never lands past the intended start.
func DurationToFrames(d time.Duration) Frames {
	if d < 0 {
		return 0
	}
	return Frames(d.Nanoseconds() * FramesPerSecond / int64(time.Second))
}

// File is one audio file referenced by a sheet. Paths are resolved
// against the sheet's own directory at parse time.
type File struct {
	// Name as written in the sheet.
	Name string
	// Path resolved against the sheet's base directory.
	Path string
	// Type is the declared container type (WAVE, MP3, AIFF, ...).
	Type string
}

// IndexPoint marks a position inside a track. Index 0, when present, is
// the pregap; index 1 is the canonical start of the audible track.
type IndexPoint struct {
	Number int
	Frame  Frames
}

// Track is one TRACK entry with its index points and display metadata.
type Track struct {
	Number     int
	Title      string
	Performer  string
	Songwriter string
	ISRC       string
	Flags      []string
	Pregap     Frames
	Postgap    Frames
	Indexes    []IndexPoint
	// FileIndex is the position of the owning File in Sheet.Files.
	FileIndex int
}

// Index returns the index point with the given number, or nil.
func (t *Track) Index(number int) *IndexPoint {
	for i := range t.Indexes {
		if t.Indexes[i].Number == number {
			return &t.Indexes[i]
		}
	}
	return nil
}

// Sheet is a parsed index sheet: global metadata plus the referenced
// files and the ordered track list. Immutable once parsed.
type Sheet struct {
	Performer  string
	Title      string
	Songwriter string
	Catalog    string
	// Comments collects REM lines verbatim.
	Comments []string

	Files  []File
	Tracks []Track
}

// TracksOf returns the tracks referencing the file at fileIndex, in
// sheet order.
func (s *Sheet) TracksOf(fileIndex int) []Track {
	var out []Track
	for _, t := range s.Tracks {
		if t.FileIndex == fileIndex {
			out = append(out, t)
		}
	}
	return out
}
