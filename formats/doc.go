// SPDX-License-Identifier: EPL-2.0

// Package formats selects and constructs container decoders.
//
// Each supported container family lives in its own subpackage with a
// Decoder implementing audio.Decoder. This package adds format probing
// (header magic first, file extension as a fallback) and a pre-populated
// registry so callers normally only need:
//
//	st, err := formats.Open("album.wav")
//
// Hosts that ship additional decoders register them on their own
// registry and use OpenWith.
package formats
