// SPDX-License-Identifier: EPL-2.0

package tonearm_test

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tonearm/tonearm"
	"github.com/tonearm/tonearm/audio"
	"github.com/tonearm/tonearm/engine"
	"github.com/tonearm/tonearm/internal/audiotest"
	"github.com/tonearm/tonearm/sheet"
)

// nullDevice satisfies engine.Device without touching real hardware.
type nullDevice struct {
	mu     sync.Mutex
	reader io.Reader
}

func (d *nullDevice) Start(_ audio.Format, r io.Reader) error {
	d.mu.Lock()
	d.reader = r
	d.mu.Unlock()
	return nil
}

func (d *nullDevice) Pause() error  { return nil }
func (d *nullDevice) Resume() error { return nil }
func (d *nullDevice) Stop() error   { return nil }
func (d *nullDevice) Close() error  { return nil }

func (d *nullDevice) Granted() engine.AccessMode { return engine.AccessShared }

func newHandle(t *testing.T) tonearm.Handle {
	t.Helper()
	h, err := tonearm.New(tonearm.Options{Device: &nullDevice{}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { tonearm.Destroy(h) })
	return h
}

func fixture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	src := audiotest.NewSineStream(8000, 2, 8000, 440)
	if err := audiotest.WriteWavFixture(path, src); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestHandleValidation(t *testing.T) {
	t.Parallel()

	if err := tonearm.Play(0); !errors.Is(err, tonearm.ErrNullHandle) {
		t.Errorf("Play(0) = %v, want ErrNullHandle", err)
	}
	if err := tonearm.Play(tonearm.Handle(1 << 40)); !errors.Is(err, tonearm.ErrInvalidHandle) {
		t.Errorf("Play(bogus) = %v, want ErrInvalidHandle", err)
	}

	h := newHandle(t)
	if err := tonearm.Destroy(h); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if err := tonearm.Play(h); !errors.Is(err, tonearm.ErrInvalidHandle) {
		t.Errorf("Play(destroyed) = %v, want ErrInvalidHandle", err)
	}
	if err := tonearm.Destroy(h); !errors.Is(err, tonearm.ErrInvalidHandle) {
		t.Errorf("double Destroy() = %v, want ErrInvalidHandle", err)
	}
	if err := tonearm.Destroy(0); !errors.Is(err, tonearm.ErrNullHandle) {
		t.Errorf("Destroy(0) = %v, want ErrNullHandle", err)
	}
}

func TestCodeMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, tonearm.CodeOK},
		{"null handle", tonearm.ErrNullHandle, tonearm.CodeNullHandle},
		{"invalid handle", tonearm.ErrInvalidHandle, tonearm.CodeInvalidArgument},
		{"invalid argument", tonearm.ErrInvalidArgument, tonearm.CodeInvalidArgument},
		{"not found", tonearm.ErrNotFound, tonearm.CodeNotFound},
		{"internal", tonearm.ErrInternal, tonearm.CodeInternalError},
		{"wrapped not found", fmt.Errorf("context: %w", tonearm.ErrNotFound), tonearm.CodeNotFound},
		{"unknown error", errors.New("anything else"), tonearm.CodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tonearm.Code(tt.err); got != tt.want {
				t.Errorf("Code(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestLoadPlayLifecycle(t *testing.T) {
	t.Parallel()

	h := newHandle(t)
	path := fixture(t, t.TempDir(), "a.wav")

	if err := tonearm.Load(h, path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	s, err := tonearm.State(h)
	if err != nil || s != engine.StatePaused {
		t.Errorf("State() = %v, %v; want paused", s, err)
	}

	d, err := tonearm.TrackDuration(h)
	if err != nil || d != time.Second {
		t.Errorf("TrackDuration() = %v, %v; want 1s", d, err)
	}

	f, err := tonearm.NativeFormat(h)
	if err != nil || f.SampleRate != 8000 || f.Channels != 2 {
		t.Errorf("NativeFormat() = %+v, %v", f, err)
	}

	if err := tonearm.Play(h); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if err := tonearm.Seek(h, 500*time.Millisecond); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	pos, err := tonearm.Position(h)
	if err != nil || pos != 500*time.Millisecond {
		t.Errorf("Position() = %v, %v; want 500ms", pos, err)
	}

	if err := tonearm.Pause(h); err != nil {
		t.Fatal(err)
	}
	if err := tonearm.Stop(h); err != nil {
		t.Fatal(err)
	}
	if s, _ := tonearm.State(h); s != engine.StateIdle {
		t.Errorf("State() after Stop = %v, want idle", s)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	h := newHandle(t)

	err := tonearm.Load(h, "/no/such/file.wav")
	if !errors.Is(err, tonearm.ErrNotFound) {
		t.Errorf("Load(missing) = %v, want ErrNotFound", err)
	}
	if tonearm.Code(err) != tonearm.CodeNotFound {
		t.Errorf("Code = %d, want %d", tonearm.Code(err), tonearm.CodeNotFound)
	}

	if err := tonearm.Load(h, ""); !errors.Is(err, tonearm.ErrInvalidArgument) {
		t.Errorf("Load(empty) = %v, want ErrInvalidArgument", err)
	}

	if err := tonearm.Play(h); !errors.Is(err, tonearm.ErrInternal) {
		t.Errorf("Play() without source = %v, want ErrInternal", err)
	}
}

func TestVolumeBoundary(t *testing.T) {
	t.Parallel()

	h := newHandle(t)

	if err := tonearm.SetVolume(h, 0.5); err != nil {
		t.Fatal(err)
	}
	v, err := tonearm.Volume(h)
	if err != nil || v != 0.5 {
		t.Errorf("Volume() = %v, %v; want 0.5", v, err)
	}

	for _, bad := range []float64{-0.1, 1.1} {
		if err := tonearm.SetVolume(h, bad); !errors.Is(err, tonearm.ErrInvalidArgument) {
			t.Errorf("SetVolume(%v) = %v, want ErrInvalidArgument", bad, err)
		}
	}

	if err := tonearm.Mute(h); err != nil {
		t.Fatal(err)
	}
	m, err := tonearm.Muted(h)
	if err != nil || !m {
		t.Errorf("Muted() = %v, %v; want true", m, err)
	}
	if err := tonearm.Unmute(h); err != nil {
		t.Fatal(err)
	}
	if m, _ := tonearm.Muted(h); m {
		t.Error("Muted() = true after Unmute")
	}

	// Volume survives mute round trip.
	if v, _ := tonearm.Volume(h); v != 0.5 {
		t.Errorf("Volume() after mute cycle = %v, want 0.5", v)
	}
}

func TestTracksFromSheet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fixture(t, dir, "album.wav")

	sheetText := `FILE "album.wav" WAVE
TRACK 01 AUDIO
INDEX 01 00:00:00
TRACK 02 AUDIO
INDEX 01 00:00:37
FILE "missing.wav" WAVE
TRACK 03 AUDIO
INDEX 01 00:00:00
`
	sheetPath := filepath.Join(dir, "album.cue")
	if err := os.WriteFile(sheetPath, []byte(sheetText), 0o644); err != nil {
		t.Fatal(err)
	}

	h := newHandle(t)
	tracks, problems, err := tonearm.Tracks(h, sheetPath)
	if err != nil {
		t.Fatalf("Tracks() error = %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("len(tracks) = %d, want 2 (missing file skipped)", len(tracks))
	}
	if len(problems) != 1 {
		t.Errorf("len(problems) = %d, want 1", len(problems))
	}

	// The virtual track is loadable through the boundary.
	if err := tonearm.LoadTrack(h, tracks[0]); err != nil {
		t.Fatalf("LoadTrack() error = %v", err)
	}
	d, err := tonearm.TrackDuration(h)
	if err != nil {
		t.Fatal(err)
	}
	want := sheet.Frames(37).Duration()
	if d != want {
		t.Errorf("TrackDuration() = %v, want %v", d, want)
	}
}

func TestTracksMissingSheet(t *testing.T) {
	t.Parallel()

	h := newHandle(t)
	_, _, err := tonearm.Tracks(h, "/no/such/album.cue")
	if !errors.Is(err, tonearm.ErrNotFound) {
		t.Errorf("Tracks(missing) = %v, want ErrNotFound", err)
	}
}

func TestCallbackReceivesUserData(t *testing.T) {
	t.Parallel()

	h := newHandle(t)
	path := fixture(t, t.TempDir(), "a.wav")

	type ctx struct{ name string }
	ud := &ctx{name: "host-context"}

	var mu sync.Mutex
	var seen []any
	err := tonearm.SetCallback(h, func(ev tonearm.Event, userData any) {
		mu.Lock()
		seen = append(seen, userData)
		mu.Unlock()
	}, ud)
	if err != nil {
		t.Fatal(err)
	}

	if err := tonearm.Load(h, path); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(seen)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) == 0 {
		t.Fatal("no events delivered")
	}
	for _, got := range seen {
		if got != any(ud) {
			t.Errorf("userData = %v, want %v", got, ud)
		}
	}

	// Replacing with nil removes the callback without error.
	if err := tonearm.SetCallback(h, nil, nil); err != nil {
		t.Error(err)
	}
}

func TestConcurrentBoundaryCalls(t *testing.T) {
	t.Parallel()

	h := newHandle(t)
	path := fixture(t, t.TempDir(), "a.wav")
	if err := tonearm.Load(h, path); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for range 50 {
				switch n % 4 {
				case 0:
					tonearm.Position(h)
				case 1:
					tonearm.State(h)
				case 2:
					tonearm.SetVolume(h, 0.5)
				case 3:
					tonearm.Muted(h)
				}
			}
		}(i)
	}
	wg.Wait()
}
