package sound

import (
	"fmt"
	"log"

	"github.com/gordonklaus/portaudio"
)

// PortaudioOutput drives the default output device through PortAudio's
// callback API. PortAudio owns the render thread and invokes the registered
// callback with an interleaved float32 buffer sized to the hardware period.
type PortaudioOutput struct {
	initialized bool
	device      *portaudio.DeviceInfo
	params      portaudio.StreamParameters
	stream      *portaudio.Stream
	render      RenderFunc
}

func NewPortaudioOutput() *PortaudioOutput {
	return &PortaudioOutput{}
}

func (p *PortaudioOutput) AcquireDevice() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	p.initialized = true

	device, err := portaudio.DefaultOutputDevice()
	if err != nil {
		p.Deactivate()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	p.device = device
	return nil
}

func (p *PortaudioOutput) SetRenderCallback(fn RenderFunc) error {
	if fn == nil {
		return fmt.Errorf("%w: nil render func", ErrCallbackRegistrationFailed)
	}
	p.render = fn
	return nil
}

func (p *PortaudioOutput) SetStreamFormat(format Format) error {
	params := portaudio.HighLatencyParameters(nil, p.device)
	params.Output.Channels = format.Channels
	params.SampleRate = format.SampleRate
	if format.FramesPerBuffer > 0 {
		params.FramesPerBuffer = format.FramesPerBuffer
	} else {
		params.FramesPerBuffer = portaudio.FramesPerBufferUnspecified
	}

	// The callback argument lets PortAudio check the float32 interleaved
	// sample format along with rate and channel count.
	if err := portaudio.IsFormatSupported(params, p.callback); err != nil {
		return fmt.Errorf("%w: %v", ErrFormatRejected, err)
	}
	p.params = params
	return nil
}

func (p *PortaudioOutput) Activate() error {
	stream, err := portaudio.OpenStream(p.params, p.callback)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrActivationFailed, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("%w: %v", ErrActivationFailed, err)
	}
	p.stream = stream
	return nil
}

// callback runs on PortAudio's real-time thread.
func (p *PortaudioOutput) callback(out []float32) {
	p.render(out)
}

// Deactivate stops and releases everything the backend holds. PortAudio
// guarantees the callback has returned and will not run again once Stop
// returns, so the teardown cannot race a pending invocation.
func (p *PortaudioOutput) Deactivate() {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			log.Printf("portaudio: stop stream: %v", err)
		}
		if err := p.stream.Close(); err != nil {
			log.Printf("portaudio: close stream: %v", err)
		}
		p.stream = nil
	}
	p.device = nil
	if p.initialized {
		if err := portaudio.Terminate(); err != nil {
			log.Printf("portaudio: terminate: %v", err)
		}
		p.initialized = false
	}
}
