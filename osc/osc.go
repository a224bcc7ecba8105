package osc

import "math"

// Oscillator generates a phase-continuous sine wave one buffer at a time.
// The phase accumulator counts in sample units and wraps once per cycle, so
// long runs do not lose precision the way a plain time*frequency product
// would. Sample rate and channel count are fixed for the oscillator's
// lifetime.
//
// An Oscillator is owned by whichever thread is currently executing Fill;
// it must not be shared without external ordering guarantees.
type Oscillator struct {
	phase      float64
	sampleRate float64
	channels   int
}

// New creates an oscillator with the phase accumulator at zero.
func New(sampleRate float64, channels int) *Oscillator {
	return &Oscillator{
		sampleRate: sampleRate,
		channels:   channels,
	}
}

// SampleRate returns the fixed sample rate in Hz.
func (o *Oscillator) SampleRate() float64 { return o.sampleRate }

// Channels returns the fixed channel count.
func (o *Oscillator) Channels() int { return o.channels }

// Fill writes frames consecutive sine frames at the given frequency into
// out, duplicating each sample across all channel slots of its frame.
// out must hold at least frames*channels values.
//
// Fill runs on the audio backend's real-time thread: it performs no
// allocation, takes no locks, makes no system calls, and completes in time
// proportional to frames. Successive calls continue the waveform without a
// discontinuity as long as frequency stays the same.
//
// The caller must keep frequency in (0, sampleRate); at frequency >=
// sampleRate the sample period drops to one frame or below and the wrap
// logic degenerates.
func (o *Oscillator) Fill(frequency float64, frames int, out []float32) {
	samplePeriod := o.sampleRate / frequency
	phase := o.phase
	channels := o.channels

	for i := 0; i < frames; i++ {
		phase += 1.0
		// Strict >: a phase landing exactly on samplePeriod holds for one
		// extra frame before wrapping.
		if phase > samplePeriod {
			phase -= samplePeriod
		}

		sample := float32(math.Sin(2 * math.Pi * phase / samplePeriod))
		base := i * channels
		for c := 0; c < channels; c++ {
			out[base+c] = sample
		}
	}

	o.phase = phase
}
