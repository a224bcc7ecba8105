package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/d1nch8g/sinetone/config"
	"github.com/d1nch8g/sinetone/session"
	"github.com/d1nch8g/sinetone/sound"
)

// Exit codes, one per lifecycle configuration step.
const (
	exitConfig     = 1
	exitDevice     = 2
	exitCallback   = 3
	exitFormat     = 4
	exitActivation = 5
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Invalid configuration: %v", err)
		return exitConfig
	}

	out, err := sound.New(cfg.Backend)
	if err != nil {
		log.Printf("Invalid configuration: %v", err)
		return exitConfig
	}

	sess := session.New(out, session.Config{
		SampleRate:      cfg.SampleRate,
		Channels:        cfg.Channels,
		Frequency:       cfg.Frequency,
		FramesPerBuffer: cfg.FramesPerBuffer,
	})

	if err := sess.Start(); err != nil {
		log.Printf("Failed to start audio playback: %v", err)
		return exitCode(err)
	}

	// The backend renders on its own thread; the main thread only waits
	// for an interrupt, waking at a coarse interval.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	log.Printf("Playing. Press Ctrl-C to stop.")
	for {
		select {
		case <-sig:
			log.Printf("Stopping...")
			sess.Stop()
			return 0
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, sound.ErrDeviceUnavailable):
		return exitDevice
	case errors.Is(err, sound.ErrCallbackRegistrationFailed):
		return exitCallback
	case errors.Is(err, sound.ErrFormatRejected):
		return exitFormat
	case errors.Is(err, sound.ErrActivationFailed):
		return exitActivation
	default:
		return exitConfig
	}
}
