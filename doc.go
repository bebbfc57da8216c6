// SPDX-License-Identifier: EPL-2.0

// Package tonearm is the embedding boundary of a gapless audio engine.
//
// The package is written for hosts that treat the engine as a black
// box: every instance is addressed by an opaque non-zero Handle, every
// operation validates its handle before anything else, no call ever
// lets a panic escape, and Code maps any returned error onto a small
// set of stable integer codes for hosts that cannot inspect Go errors.
//
//	h, err := tonearm.New(tonearm.Options{})
//	if err != nil {
//	    // tonearm.Code(err) == tonearm.CodeInternalError
//	}
//	defer tonearm.Destroy(h)
//
//	tonearm.Load(h, "album.wav")
//	tonearm.Play(h)
//
// Files can play whole, or sliced into virtual tracks described by an
// index sheet:
//
//	tracks, problems, err := tonearm.Tracks(h, "album.cue")
//	// problems lists missing files etc.; tracks still covers the rest
//	tonearm.LoadTrack(h, tracks[3])
//	tonearm.Play(h)
//
// Engine notifications (state changes, position ticks, track endings,
// errors) arrive through a single registered callback on a dispatch
// goroutine that is never the audio thread:
//
//	tonearm.SetCallback(h, func(ev tonearm.Event, userData any) {
//	    // forward into the host's event loop
//	}, nil)
//
// The underlying pipeline lives in the subpackages: audio (canonical
// sample types, ring buffer, gain), formats (container decoders),
// sheet (index-sheet parsing and virtual tracks) and engine (the
// playback state machine and device binding).
package tonearm
