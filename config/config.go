package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults: 440 Hz stereo tone at 44.1 kHz through PortAudio.
const (
	DefaultBackend    = "portaudio"
	DefaultSampleRate = 44100.0
	DefaultChannels   = 2
	DefaultFrequency  = 440.0
)

type Config struct {
	// Backend selects the audio output implementation:
	// portaudio, oto or pulse.
	Backend string

	SampleRate float64
	Channels   int
	Frequency  float64

	// FramesPerBuffer is the preferred render callback granularity;
	// zero lets the device choose.
	FramesPerBuffer int
}

// Load reads configuration from the environment, after loading an optional
// .env file. Unset variables fall back to the defaults, so the program runs
// with no configuration at all.
func Load() (*Config, error) {
	// Best effort; a missing .env just means defaults and process env.
	_ = godotenv.Load()

	cfg := &Config{
		Backend:    DefaultBackend,
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
		Frequency:  DefaultFrequency,
	}

	if v := os.Getenv("SINETONE_BACKEND"); v != "" {
		cfg.Backend = v
	}

	var err error
	if cfg.SampleRate, err = floatEnv("SINETONE_SAMPLE_RATE", cfg.SampleRate); err != nil {
		return nil, err
	}
	if cfg.Channels, err = intEnv("SINETONE_CHANNELS", cfg.Channels); err != nil {
		return nil, err
	}
	if cfg.Frequency, err = floatEnv("SINETONE_FREQUENCY", cfg.Frequency); err != nil {
		return nil, err
	}
	if cfg.FramesPerBuffer, err = intEnv("SINETONE_FRAMES_PER_BUFFER", cfg.FramesPerBuffer); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate enforces the oscillator's caller invariants before any device
// is touched. In particular the frequency must stay below the sample rate,
// or the phase accumulator's wrap logic degenerates.
func (c *Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %g", c.SampleRate)
	}
	if c.Channels < 1 {
		return fmt.Errorf("channel count must be at least 1, got %d", c.Channels)
	}
	if c.Frequency <= 0 {
		return fmt.Errorf("frequency must be positive, got %g", c.Frequency)
	}
	if c.Frequency >= c.SampleRate {
		return fmt.Errorf("frequency %g Hz must be below the sample rate %g Hz", c.Frequency, c.SampleRate)
	}
	if c.FramesPerBuffer < 0 {
		return fmt.Errorf("frames per buffer must not be negative, got %d", c.FramesPerBuffer)
	}
	return nil
}

func floatEnv(name string, fallback float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return f, nil
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, v)
	}
	return i, nil
}
