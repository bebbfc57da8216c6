// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/tonearm/tonearm/sheet"
)

// Source describes what to play: a whole file, or a time slice of one.
// Every load gets a fresh ID so events can be correlated with the load
// that produced them even across rapid source switches.
type Source struct {
	ID    uuid.UUID
	Path  string
	Title string

	// Start offset into the file.
	Start time.Duration
	// End of the slice; zero End with HasEnd false means play to the end
	// of the file.
	End    time.Duration
	HasEnd bool
}

// NewFileSource describes an entire audio file.
func NewFileSource(path string) Source {
	return Source{ID: uuid.New(), Path: path, Title: path}
}

// NewTrackSource describes the slice of a file covered by a virtual
// track.
func NewTrackSource(vt sheet.VirtualTrack) Source {
	return Source{
		ID:     uuid.New(),
		Path:   vt.Path,
		Title:  vt.Title,
		Start:  vt.Start,
		End:    vt.End,
		HasEnd: vt.HasEnd,
	}
}
