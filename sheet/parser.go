// SPDX-License-Identifier: EPL-2.0

package sheet

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Parse reads a sheet from raw bytes. Relative FILE references are
// resolved against baseDir, the directory holding the sheet itself; the
// parser never discovers files on its own.
//
// Commands are case-insensitive and whitespace-tolerant. Unknown
// commands are skipped rather than rejected, because real-world sheets
// carry all manner of ripper-specific noise. Structural failures return
// a *ParseError carrying the offending line number.
func Parse(text []byte, baseDir string) (*Sheet, error) {
	s := &Sheet{}
	var cur *Track // nil until the first TRACK command

	lines := strings.Split(decodeText(text), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" {
			continue
		}

		args := splitFields(line)
		if len(args) == 0 {
			continue
		}
		cmd := strings.ToUpper(args[0])
		args = args[1:]

		switch cmd {
		case "REM":
			s.Comments = append(s.Comments, strings.Join(args, " "))

		case "FILE":
			if len(args) < 2 {
				return nil, &ParseError{lineNo, "FILE needs a name and a type"}
			}
			name := args[0]
			path := name
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			s.Files = append(s.Files, File{
				Name: name,
				Path: path,
				Type: strings.ToUpper(args[len(args)-1]),
			})

		case "TRACK":
			if len(s.Files) == 0 {
				return nil, &ParseError{lineNo, "TRACK before any FILE"}
			}
			if len(args) < 1 {
				return nil, &ParseError{lineNo, "TRACK needs a number"}
			}
			num, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, &ParseError{lineNo, fmt.Sprintf("bad track number %q", args[0])}
			}
			s.Tracks = append(s.Tracks, Track{
				Number:    num,
				FileIndex: len(s.Files) - 1,
			})
			cur = &s.Tracks[len(s.Tracks)-1]

		case "INDEX":
			if cur == nil {
				return nil, &ParseError{lineNo, "INDEX outside a TRACK"}
			}
			if len(args) < 2 {
				return nil, &ParseError{lineNo, "INDEX needs a number and a timestamp"}
			}
			num, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, &ParseError{lineNo, fmt.Sprintf("bad index number %q", args[0])}
			}
			frame, err := parseTimestamp(args[1])
			if err != nil {
				return nil, &ParseError{lineNo, err.Error()}
			}
			cur.Indexes = append(cur.Indexes, IndexPoint{Number: num, Frame: frame})

		case "PREGAP", "POSTGAP":
			if cur == nil {
				return nil, &ParseError{lineNo, cmd + " outside a TRACK"}
			}
			if len(args) < 1 {
				return nil, &ParseError{lineNo, cmd + " needs a timestamp"}
			}
			frame, err := parseTimestamp(args[0])
			if err != nil {
				return nil, &ParseError{lineNo, err.Error()}
			}
			if cmd == "PREGAP" {
				cur.Pregap = frame
			} else {
				cur.Postgap = frame
			}

		case "TITLE":
			if cur != nil {
				cur.Title = joined(args)
			} else {
				s.Title = joined(args)
			}

		case "PERFORMER":
			if cur != nil {
				cur.Performer = joined(args)
			} else {
				s.Performer = joined(args)
			}

		case "SONGWRITER":
			if cur != nil {
				cur.Songwriter = joined(args)
			} else {
				s.Songwriter = joined(args)
			}

		case "CATALOG":
			s.Catalog = joined(args)

		case "ISRC":
			if cur != nil {
				cur.ISRC = joined(args)
			}

		case "FLAGS":
			if cur != nil {
				cur.Flags = append(cur.Flags, args...)
			}

		default:
			// Tolerated: ripper-specific extensions and free text.
		}
	}

	return s, nil
}

// ParseFile reads and parses the sheet at path, using the sheet's own
// directory as the base for relative file references.
func ParseFile(path string) (*Sheet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// parseTimestamp reads the mm:ss:ff sheet timestamp. Minutes may exceed
// two digits; frames run 0-74.
func parseTimestamp(s string) (Frames, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("bad timestamp %q, want mm:ss:ff", s)
	}

	mm, err1 := strconv.Atoi(parts[0])
	ss, err2 := strconv.Atoi(parts[1])
	ff, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, fmt.Errorf("bad timestamp %q, want mm:ss:ff", s)
	}
	if mm < 0 || ss < 0 || ss > 59 || ff < 0 || ff >= FramesPerSecond {
		return 0, fmt.Errorf("timestamp %q out of range", s)
	}

	return Frames((mm*60+ss)*FramesPerSecond + ff), nil
}

// splitFields tokenizes a sheet line, honoring double-quoted arguments.
func splitFields(line string) []string {
	var out []string
	var cur strings.Builder
	inQuote := false

	for _, r := range line {
		switch {
		case r == '"':
			if inQuote {
				out = append(out, cur.String())
				cur.Reset()
			}
			inQuote = !inQuote
		case !inQuote && (r == ' ' || r == '\t'):
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}

func joined(args []string) string {
	return strings.Join(args, " ")
}
