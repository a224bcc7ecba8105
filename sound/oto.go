package sound

import (
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/ebitengine/oto/v3"
)

// otoContext is process-wide because oto permits a single context per
// process. A deactivated context is suspended, not destroyed, and is resumed
// if the backend is configured again with the same format.
var (
	otoContext *oto.Context
	otoFormat  Format
)

// OtoOutput plays through ebitengine/oto. Instead of a push callback, oto
// pulls bytes from a reader on its own render goroutine; renderReader
// adapts the fill routine to that model, so the step mapping differs from
// PortAudio: the device is reached lazily when the context (which carries
// the format) is created during SetStreamFormat.
type OtoOutput struct {
	ctx    *oto.Context
	player *oto.Player
	format Format
	render RenderFunc
}

func NewOtoOutput() *OtoOutput {
	return &OtoOutput{}
}

func (o *OtoOutput) AcquireDevice() error {
	// oto exposes no device enumeration; the default device is bound when
	// the context comes up in SetStreamFormat.
	return nil
}

func (o *OtoOutput) SetRenderCallback(fn RenderFunc) error {
	if fn == nil {
		return fmt.Errorf("%w: nil render func", ErrCallbackRegistrationFailed)
	}
	o.render = fn
	return nil
}

func (o *OtoOutput) SetStreamFormat(format Format) error {
	if format.Channels < 1 || format.SampleRate <= 0 {
		return fmt.Errorf("%w: %d channels at %g Hz", ErrFormatRejected, format.Channels, format.SampleRate)
	}

	if otoContext != nil {
		if otoFormat != format {
			return fmt.Errorf("%w: oto context already holds %g Hz / %d channels",
				ErrFormatRejected, otoFormat.SampleRate, otoFormat.Channels)
		}
		o.ctx = otoContext
		o.format = format
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   int(format.SampleRate),
		ChannelCount: format.Channels,
		Format:       oto.FormatFloat32LE,
	}
	if format.FramesPerBuffer > 0 {
		op.BufferSize = time.Duration(float64(format.FramesPerBuffer) / format.SampleRate * float64(time.Second))
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	<-ready

	otoContext = ctx
	otoFormat = format
	o.ctx = ctx
	o.format = format
	return nil
}

func (o *OtoOutput) Activate() error {
	if err := o.ctx.Resume(); err != nil {
		return fmt.Errorf("%w: %v", ErrActivationFailed, err)
	}

	player := o.ctx.NewPlayer(&renderReader{
		render:   o.render,
		channels: o.format.Channels,
	})
	player.Play()
	if err := player.Err(); err != nil {
		player.Close()
		return fmt.Errorf("%w: %v", ErrActivationFailed, err)
	}
	o.player = player
	return nil
}

// Deactivate closes the player and suspends the shared context. Closing the
// player detaches the reader before Close returns, so the fill routine
// cannot be invoked afterwards.
func (o *OtoOutput) Deactivate() {
	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("oto: close player: %v", err)
		}
		o.player = nil
	}
	if o.ctx != nil {
		if err := o.ctx.Suspend(); err != nil {
			log.Printf("oto: suspend context: %v", err)
		}
		o.ctx = nil
	}
}

// renderReader turns the float32 fill routine into the byte reader oto
// pulls from. The float32 scratch buffer is reused across reads; it only
// grows if oto asks for a larger chunk than any before, so steady-state
// reads allocate nothing.
type renderReader struct {
	render   RenderFunc
	channels int
	scratch  []float32
}

func (r *renderReader) Read(p []byte) (int, error) {
	frames := len(p) / 4 / r.channels
	if frames == 0 {
		return 0, nil
	}
	n := frames * r.channels

	if cap(r.scratch) < n {
		r.scratch = make([]float32, n)
	}
	buf := r.scratch[:n]
	r.render(buf)

	for i, s := range buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	return n * 4, nil
}
