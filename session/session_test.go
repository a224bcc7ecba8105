package session

import (
	"errors"
	"fmt"
	"testing"

	"github.com/d1nch8g/sinetone/osc"
	"github.com/d1nch8g/sinetone/sound"
)

// fakeOutput records the lifecycle calls the session makes and can be told
// to fail at a single step.
type fakeOutput struct {
	calls         []string
	failAt        string
	failWith      error
	render        sound.RenderFunc
	deactivations int
}

func (f *fakeOutput) step(name string) error {
	f.calls = append(f.calls, name)
	if name == f.failAt {
		return fmt.Errorf("%w: induced", f.failWith)
	}
	return nil
}

func (f *fakeOutput) AcquireDevice() error { return f.step("acquire") }

func (f *fakeOutput) SetRenderCallback(fn sound.RenderFunc) error {
	f.render = fn
	return f.step("callback")
}

func (f *fakeOutput) SetStreamFormat(format sound.Format) error {
	return f.step("format")
}

func (f *fakeOutput) Activate() error { return f.step("activate") }

func (f *fakeOutput) Deactivate() {
	f.deactivations++
}

func testConfig() Config {
	return Config{SampleRate: 44100, Channels: 2, Frequency: 440}
}

func TestStartDrivesStepsInOrder(t *testing.T) {
	out := &fakeOutput{}
	s := New(out, testConfig())

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.State() != Running {
		t.Errorf("state = %v, want running", s.State())
	}

	want := []string{"acquire", "callback", "format", "activate"}
	if len(out.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", out.calls, want)
	}
	for i, name := range want {
		if out.calls[i] != name {
			t.Fatalf("call %d = %q, want %q", i, out.calls[i], name)
		}
	}
	if out.deactivations != 0 {
		t.Errorf("deactivated %d times during a clean start", out.deactivations)
	}
}

func TestStartFailureReleasesAndReports(t *testing.T) {
	steps := []struct {
		failAt   string
		sentinel error
	}{
		{"acquire", sound.ErrDeviceUnavailable},
		{"callback", sound.ErrCallbackRegistrationFailed},
		{"format", sound.ErrFormatRejected},
		{"activate", sound.ErrActivationFailed},
	}

	for _, tt := range steps {
		t.Run(tt.failAt, func(t *testing.T) {
			out := &fakeOutput{failAt: tt.failAt, failWith: tt.sentinel}
			s := New(out, testConfig())

			err := s.Start()
			if err == nil {
				t.Fatal("Start succeeded, want failure")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("error %v does not match %v", err, tt.sentinel)
			}
			if out.deactivations != 1 {
				t.Errorf("deactivated %d times, want 1 release on failure", out.deactivations)
			}
			if s.State() != Unconfigured {
				t.Errorf("state = %v, want unconfigured after failed start", s.State())
			}
		})
	}
}

func TestStopIsIdempotent(t *testing.T) {
	out := &fakeOutput{}
	s := New(out, testConfig())

	// Stopping before any configuration is a no-op.
	s.Stop()
	if out.deactivations != 0 {
		t.Fatalf("stop on unconfigured session deactivated the output")
	}
	if s.State() != Unconfigured {
		t.Fatalf("state = %v, want unconfigured", s.State())
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
	s.Stop()
	if out.deactivations != 1 {
		t.Errorf("deactivated %d times, want 1", out.deactivations)
	}
	if s.State() != Stopped {
		t.Errorf("state = %v, want stopped", s.State())
	}
}

func TestRestartRunsFullConfiguration(t *testing.T) {
	out := &fakeOutput{}
	s := New(out, testConfig())

	if err := s.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	s.Stop()
	if err := s.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	// Both starts drive all four steps; there is no resume-in-place.
	if len(out.calls) != 8 {
		t.Errorf("calls = %v, want two full configuration sequences", out.calls)
	}
	if s.State() != Running {
		t.Errorf("state = %v, want running", s.State())
	}
}

func TestStartWhileRunningFails(t *testing.T) {
	out := &fakeOutput{}
	s := New(out, testConfig())

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start(); err == nil {
		t.Error("second Start on a running session succeeded")
	}
}

func TestRenderContinuityAcrossChunks(t *testing.T) {
	cfg := testConfig()
	out := &fakeOutput{}
	s := New(out, cfg)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Drive the registered callback the way a backend would: in uneven
	// chunks. The concatenated output must match a single fill.
	const frames = 128
	got := make([]float32, frames*cfg.Channels)
	out.render(got[:60*cfg.Channels])
	out.render(got[60*cfg.Channels:])

	ref := make([]float32, frames*cfg.Channels)
	osc.New(cfg.SampleRate, cfg.Channels).Fill(cfg.Frequency, frames, ref)

	for i := range ref {
		if got[i] != ref[i] {
			t.Fatalf("sample %d differs across chunk boundary: got %g, want %g",
				i, got[i], ref[i])
		}
	}
}

func TestRestartResetsPhase(t *testing.T) {
	cfg := testConfig()
	out := &fakeOutput{}
	s := New(out, cfg)

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := make([]float32, 32*cfg.Channels)
	out.render(first)
	s.Stop()

	if err := s.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	second := make([]float32, 32*cfg.Channels)
	out.render(second)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sample %d: restart did not begin a fresh waveform", i)
		}
	}
}
