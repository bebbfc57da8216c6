// Package aiff provides AIFF decoding via github.com/go-audio/aiff.
// The underlying decoder is forward-only, so Seek re-opens the file and
// skips frames; positions stay sample-accurate.
package aiff
