// SPDX-License-Identifier: EPL-2.0

package engine

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"

	"github.com/tonearm/tonearm/audio"
)

// The platform mixer allows one context per process, so it is shared by
// every device and locked to the format of the first Start.
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat audio.Format
)

func sharedOtoContext(format audio.Format, bufferDur, timeout time.Duration) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoFormat != format {
			return nil, fmt.Errorf("%w: have %d Hz/%d ch, need %d Hz/%d ch",
				ErrDeviceFormat,
				otoFormat.SampleRate, otoFormat.Channels,
				format.SampleRate, format.Channels)
		}
		return otoCtx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferDur,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	select {
	case <-ready:
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w: not ready after %v", ErrDeviceUnavailable, timeout)
	}

	otoCtx = ctx
	otoFormat = format
	return ctx, nil
}

// otoDevice binds the engine's sink to the platform mixer through
// ebitengine/oto. The mixer only ever grants shared access; an
// exclusive preference is negotiated down with a logged fallback, and
// the granted mode stays observable through Granted.
type otoDevice struct {
	log             *zap.Logger
	bufferDur       time.Duration
	startupTimeout  time.Duration
	wantExclusive   bool
	granted         AccessMode
	grantedReported bool

	mu     sync.Mutex
	player *oto.Player
}

func newOtoDevice(log *zap.Logger, bufferDur time.Duration, wantExclusive bool) *otoDevice {
	return &otoDevice{
		log:            log,
		bufferDur:      bufferDur,
		startupTimeout: 5 * time.Second,
		wantExclusive:  wantExclusive,
		granted:        AccessShared,
	}
}

func (d *otoDevice) Start(format audio.Format, r io.Reader) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player != nil {
		d.player.Close()
		d.player = nil
	}

	ctx, err := sharedOtoContext(format, d.bufferDur, d.startupTimeout)
	if err != nil {
		return err
	}

	if d.wantExclusive && !d.grantedReported {
		// One fallback, once: the mixer cannot hand out exclusive access.
		d.log.Info("exclusive access not available, falling back to shared")
		d.grantedReported = true
	}
	d.granted = AccessShared

	d.player = ctx.NewPlayer(r)
	d.player.Play()
	return nil
}

func (d *otoDevice) Pause() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player != nil {
		d.player.Pause()
	}
	return nil
}

func (d *otoDevice) Resume() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player != nil {
		d.player.Play()
	}
	return nil
}

func (d *otoDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.player != nil {
		d.player.Close()
		d.player = nil
	}
	return nil
}

func (d *otoDevice) Close() error {
	return d.Stop()
}

func (d *otoDevice) Granted() AccessMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.granted
}
