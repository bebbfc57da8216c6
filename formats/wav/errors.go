package wav

import "errors"

var (
	ErrNotWavFile           = errors.New("not a WAV file")
	ErrUnsupportedWavLayout = errors.New("unsupported WAV layout")
	ErrOnlyPCMSupported     = errors.New("only uncompressed PCM supported")
	ErrUnsupportedBitDepth  = errors.New("only 16-bit and 24-bit PCM supported")
	ErrUnsupportedWavChunks = errors.New("unsupported WAV chunks")
)
