package sound

import (
	"errors"
	"fmt"
)

// RenderFunc fills out with interleaved float32 samples. The frame count of
// an invocation is len(out) divided by the stream's channel count. The
// audio backend invokes it from its own real-time thread, sequentially,
// only between a successful Activate and the return of Deactivate.
type RenderFunc func(out []float32)

// Format describes the stream format negotiated with the output device:
// 32-bit floating point linear PCM, interleaved.
type Format struct {
	SampleRate float64
	Channels   int
	// FramesPerBuffer is the preferred callback granularity; zero lets the
	// device pick.
	FramesPerBuffer int
}

// BytesPerFrame returns the size of one interleaved float32 frame.
func (f Format) BytesPerFrame() int {
	return f.Channels * 4
}

// Failure classes for the lifecycle configuration steps. Backends wrap
// these so callers can tell a missing device from a rejected format with
// errors.Is. None of them are retriable by this process.
var (
	ErrDeviceUnavailable          = errors.New("no default output device available")
	ErrCallbackRegistrationFailed = errors.New("render callback registration failed")
	ErrFormatRejected             = errors.New("stream format rejected by device")
	ErrActivationFailed           = errors.New("stream activation failed")
)

// Output is the narrow contract the render session drives. The methods are
// called from the host thread in order: AcquireDevice, SetRenderCallback,
// SetStreamFormat, Activate. Each reports only its own failure class and
// releases anything it acquired before returning an error. Deactivate is
// idempotent, never fails, and guarantees that no render callback
// invocation can be observed after it returns.
type Output interface {
	AcquireDevice() error
	SetRenderCallback(fn RenderFunc) error
	SetStreamFormat(format Format) error
	Activate() error
	Deactivate()
}

// New resolves a backend by name.
func New(backend string) (Output, error) {
	switch backend {
	case "portaudio":
		return NewPortaudioOutput(), nil
	case "oto":
		return NewOtoOutput(), nil
	case "pulse":
		return NewPulseOutput(), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}
