// SPDX-License-Identifier: EPL-2.0

package audiotest

import (
	"fmt"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/tonearm/tonearm/utils"
)

// WriteWavFixture renders a stream to a 16-bit PCM WAV file at path.
// Tests use it to produce real container input for the decode pipeline.
func WriteWavFixture(path string, src *MockStream) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	format := src.Format()
	enc := wav.NewEncoder(f, format.SampleRate, 16, format.Channels, 1)

	buf := make([]float64, 4096*format.Channels)
	intBuf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: format.Channels,
			SampleRate:  format.SampleRate,
		},
		SourceBitDepth: 16,
	}

	for {
		n, rerr := src.ReadSamples(buf)
		if n > 0 {
			intBuf.Data = intBuf.Data[:0]
			for _, s := range buf[:n] {
				intBuf.Data = append(intBuf.Data, int(utils.Float64ToInt16(s)))
			}
			if err := enc.Write(intBuf); err != nil {
				f.Close()
				return fmt.Errorf("%w", err)
			}
		}
		if rerr != nil {
			break
		}
	}

	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("%w", err)
	}
	return f.Close()
}
