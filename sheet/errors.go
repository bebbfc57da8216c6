// SPDX-License-Identifier: EPL-2.0

package sheet

import "fmt"

// ParseError reports a structurally malformed sheet, pinned to the line
// that broke.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("sheet line %d: %s", e.Line, e.Msg)
}

// ValidationKind classifies post-parse validation failures.
type ValidationKind int

const (
	// MissingFile: a referenced audio file does not exist on disk.
	MissingFile ValidationKind = iota
	// UnsupportedContainer: the declared container type cannot be
	// resolved to a known decoder family.
	UnsupportedContainer
	// NonMonotonicIndex: a track starts before its predecessor within
	// the same file.
	NonMonotonicIndex
	// Malformed: the sheet parsed but a track is structurally unusable
	// (for example, it carries no index points).
	Malformed
)

func (k ValidationKind) String() string {
	switch k {
	case MissingFile:
		return "missing file"
	case UnsupportedContainer:
		return "unsupported container"
	case NonMonotonicIndex:
		return "non-monotonic index"
	case Malformed:
		return "malformed sheet"
	}
	return "unknown"
}

// ValidationError is one recoverable validation failure. Validation
// always returns the full list; the caller decides whether to proceed
// with the valid subset.
type ValidationError struct {
	Kind  ValidationKind
	File  string // referenced file name, when applicable
	Track int    // track number, 0 when not track-specific
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Track > 0 {
		return fmt.Sprintf("%s: track %d: %s", e.Kind, e.Track, e.Msg)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.File, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}
