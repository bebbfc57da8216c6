// Package vorbis provides Ogg Vorbis decoding via
// github.com/jfreymuth/oggvorbis, including granule-accurate seeking
// through the reader's SetPosition.
package vorbis
