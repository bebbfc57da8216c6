// SPDX-License-Identifier: EPL-2.0

// Package sheet parses index sheets and builds virtual tracks.
//
// An index sheet is a plain-text companion file describing track
// boundaries inside one or more continuous audio files. Time offsets
// use the sheet format's native granularity of 75 frames per second,
// independent of the audio's own sample rate; the Frames type and
// DurationToFrames handle the conversion into wall-clock time.
//
// # Parsing
//
// Parse is tolerant by design: commands are case-insensitive, unknown
// commands are ignored, and the text may arrive in UTF-8, BOM-marked
// UTF-16 or a legacy single-byte encoding without corrupting the
// ASCII-range command structure. Only structural breakage (a TRACK
// before any FILE, an unreadable timestamp) returns a *ParseError.
//
//	s, err := sheet.ParseFile("album.cue")
//
// # Validation and virtual tracks
//
// Validation is separate from parsing and never stops at the first
// problem; the host decides whether a sheet with one missing file is
// worth playing in part:
//
//	tracks, errs := sheet.BuildVirtualTracks(s, sheet.BuildOptions{})
//	for _, e := range errs {
//	    log.Println(e) // missing file, unsupported container, ...
//	}
//	// tracks covers every track from the files that validated.
//
// Each virtual track spans from its own INDEX 01 to the next track's
// start within the same file; the last track per file plays to the end
// of the file. Whether a declared INDEX 00 pregap is included in the
// playable range is a policy choice (BuildOptions.Pregap), excluded by
// default.
package sheet
