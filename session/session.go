package session

import (
	"fmt"
	"log"
	"sync"

	"github.com/d1nch8g/sinetone/osc"
	"github.com/d1nch8g/sinetone/sound"
)

// State tracks the render session lifecycle.
type State int

const (
	Unconfigured State = iota
	Configured
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Unconfigured:
		return "unconfigured"
	case Configured:
		return "configured"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config holds the fixed stream parameters for a session.
type Config struct {
	SampleRate      float64
	Channels        int
	Frequency       float64
	FramesPerBuffer int
}

// Session owns an oscillator and drives an output backend through the
// lifecycle: acquire device, register the render callback, declare the
// stream format, activate. After activation the backend's real-time thread
// invokes the callback until Stop deactivates the stream.
//
// The mutex serializes host-thread lifecycle calls only. The render
// callback never takes it: the backend guarantees invocations are
// sequential, happen only while the stream is active, and have ceased
// before Deactivate returns, so the oscillator needs no further
// synchronization.
type Session struct {
	config Config
	out    sound.Output
	osc    *osc.Oscillator

	mu    sync.Mutex
	state State
}

// New creates a session in the Unconfigured state.
func New(out sound.Output, config Config) *Session {
	return &Session{
		config: config,
		out:    out,
		osc:    osc.New(config.SampleRate, config.Channels),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start configures the output backend and activates the stream. Each
// configuration step fails with its own sentinel from the sound package;
// on any failure every resource acquired by earlier steps is released and
// the session returns to Unconfigured. Starting again after Stop runs the
// whole sequence afresh.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		return fmt.Errorf("session is already running")
	}

	// No resume-in-place: a restart begins a new waveform from phase zero.
	s.osc = osc.New(s.config.SampleRate, s.config.Channels)

	if err := s.out.AcquireDevice(); err != nil {
		return s.fail("acquire output device", err)
	}
	if err := s.out.SetRenderCallback(s.render); err != nil {
		return s.fail("register render callback", err)
	}
	if err := s.out.SetStreamFormat(s.format()); err != nil {
		return s.fail("set stream format", err)
	}
	s.state = Configured

	if err := s.out.Activate(); err != nil {
		return s.fail("activate stream", err)
	}
	s.state = Running

	log.Printf("Rendering %g Hz sine at %g Hz, %d channels",
		s.config.Frequency, s.config.SampleRate, s.config.Channels)
	return nil
}

// Stop deactivates the stream. It is idempotent: stopping a session that
// is Unconfigured or already Stopped is a no-op. When Stop returns, no
// further render callback invocation can be observed.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Configured && s.state != Running {
		return
	}
	s.out.Deactivate()
	s.state = Stopped
}

// render runs on the output backend's real-time thread. It must not
// allocate, lock, or block; it only advances the oscillator into the
// buffer the backend hands it.
func (s *Session) render(out []float32) {
	s.osc.Fill(s.config.Frequency, len(out)/s.config.Channels, out)
}

func (s *Session) format() sound.Format {
	return sound.Format{
		SampleRate:      s.config.SampleRate,
		Channels:        s.config.Channels,
		FramesPerBuffer: s.config.FramesPerBuffer,
	}
}

// fail releases whatever the configuration steps acquired so a failed
// Start never leaves live device resources behind.
func (s *Session) fail(step string, err error) error {
	s.out.Deactivate()
	s.state = Unconfigured
	return fmt.Errorf("%s: %w", step, err)
}
