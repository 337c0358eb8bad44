// Package porcupine adapts the Picovoice Porcupine engine to the wake word
// detector contract.
package porcupine

import (
	"errors"
	"fmt"
	"os"

	porcupine "github.com/Picovoice/porcupine/binding/go/v3"
	"github.com/aashishsingla567/openclaw-assistant/core/wakeword"
)

var (
	ErrMissingAccessKey   = errors.New("porcupine access key is not set")
	ErrMissingKeywordFile = errors.New("porcupine keyword file not found")
)

type Config struct {
	AccessKey   string
	KeywordPath string
	Sensitivity float32
	// ModelPath and LibraryPath override the files bundled with the binding.
	ModelPath   string
	LibraryPath string
}

func (c Config) Validate() error {
	var errs []error
	if c.AccessKey == "" {
		errs = append(errs, ErrMissingAccessKey)
	}
	if _, err := os.Stat(c.KeywordPath); err != nil {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMissingKeywordFile, c.KeywordPath))
	}
	if c.Sensitivity < 0 || c.Sensitivity > 1 {
		errs = append(errs, fmt.Errorf("porcupine sensitivity must be within [0, 1], got %v", c.Sensitivity))
	}
	return errors.Join(errs...)
}

// NewDetectorFactory returns a factory creating one Porcupine handle per call.
func NewDetectorFactory(cfg Config) wakeword.DetectorFactory {
	return func() (wakeword.Detector, error) {
		handle := porcupine.Porcupine{
			AccessKey:     cfg.AccessKey,
			ModelPath:     cfg.ModelPath,
			LibraryPath:   cfg.LibraryPath,
			KeywordPaths:  []string{cfg.KeywordPath},
			Sensitivities: []float32{cfg.Sensitivity},
		}
		if err := handle.Init(); err != nil {
			return nil, fmt.Errorf("failed to initialize porcupine: %w", err)
		}
		return &detector{handle: &handle}, nil
	}
}

type detector struct {
	handle *porcupine.Porcupine
}

func (d *detector) SampleRate() int  { return porcupine.SampleRate }
func (d *detector) FrameLength() int { return porcupine.FrameLength }

func (d *detector) Process(frame []int16) (int, error) {
	return d.handle.Process(frame)
}

func (d *detector) Delete() error {
	return d.handle.Delete()
}
