package sound

import (
	"fmt"
	"log"

	"github.com/jfreymuth/pulse"
)

// PulseOutput plays through a PulseAudio server using the native Go client.
// The fill routine binds as a pulse.Float32Reader, which the client library
// invokes from its own stream goroutine whenever the server requests more
// data. Creating the playback stream fixes reader and sample spec together,
// so that call lives in SetStreamFormat, where a rejected spec belongs.
type PulseOutput struct {
	client *pulse.Client
	sink   *pulse.Sink
	stream *pulse.PlaybackStream
	render RenderFunc
}

func NewPulseOutput() *PulseOutput {
	return &PulseOutput{}
}

func (p *PulseOutput) AcquireDevice() error {
	client, err := pulse.NewClient(pulse.ClientApplicationName("sinetone"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	sink, err := client.DefaultSink()
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	log.Printf("pulse: default sink: %s", sink.Name())

	p.client = client
	p.sink = sink
	return nil
}

func (p *PulseOutput) SetRenderCallback(fn RenderFunc) error {
	if fn == nil {
		return fmt.Errorf("%w: nil render func", ErrCallbackRegistrationFailed)
	}
	p.render = fn
	return nil
}

func (p *PulseOutput) SetStreamFormat(format Format) error {
	var channels pulse.PlaybackOption
	switch format.Channels {
	case 1:
		channels = pulse.PlaybackMono
	case 2:
		channels = pulse.PlaybackStereo
	default:
		return fmt.Errorf("%w: pulse backend supports 1 or 2 channels, got %d",
			ErrFormatRejected, format.Channels)
	}

	// The stream is left on the server's default sink, the device probed
	// during acquisition.
	opts := []pulse.PlaybackOption{
		channels,
		pulse.PlaybackSampleRate(int(format.SampleRate)),
	}
	if format.FramesPerBuffer > 0 {
		opts = append(opts, pulse.PlaybackBufferSize(format.FramesPerBuffer*format.BytesPerFrame()))
	}

	reader := pulse.Float32Reader(func(out []float32) (int, error) {
		p.render(out)
		return len(out), nil
	})

	stream, err := p.client.NewPlayback(reader, opts...)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFormatRejected, err)
	}
	p.stream = stream
	return nil
}

func (p *PulseOutput) Activate() error {
	p.stream.Start()
	if err := p.stream.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrActivationFailed, err)
	}
	return nil
}

// Deactivate corks and closes the stream, then drops the server connection.
// Corking is synchronous with the server, so no further reader invocation
// can be observed once Stop returns.
func (p *PulseOutput) Deactivate() {
	if p.stream != nil {
		if p.stream.Running() {
			p.stream.Stop()
		}
		p.stream.Close()
		if p.stream.Underflow() {
			log.Printf("pulse: stream underflowed during playback")
		}
		p.stream = nil
	}
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
	p.sink = nil
}
