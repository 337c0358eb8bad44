// Package wakeword blocks until a wake phrase is heard on the input device.
package wakeword

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/aashishsingla567/openclaw-assistant/core/stop"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Detector is an acoustic wake phrase model. Process returns the index of the
// matched keyword, or a negative value when the frame holds no match.
type Detector interface {
	SampleRate() int
	FrameLength() int
	Process(frame []int16) (int, error)
	Delete() error
}

// DetectorFactory creates a fresh detector for every wait so that model
// resources are held only while listening.
type DetectorFactory func() (Detector, error)

type Gate struct {
	newDetector DetectorFactory
	opener      audio.InputOpener
	device      string
	stop        *stop.Signal
	logger      *slog.Logger
}

type GateOption func(*Gate)

// WithDevice selects the input device, empty for the default one.
func WithDevice(device string) GateOption {
	return func(g *Gate) { g.device = device }
}

func WithLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func NewGate(factory DetectorFactory, opener audio.InputOpener, stopSignal *stop.Signal, opts ...GateOption) *Gate {
	gate := &Gate{
		newDetector: factory,
		opener:      opener,
		stop:        stopSignal,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(gate)
	}
	return gate
}

// AudioParams reports the sample rate and frame length the detector expects.
func (g *Gate) AudioParams() (sampleRate, frameLength int, err error) {
	detector, err := g.newDetector()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to create wake word detector: %w", err)
	}
	defer func() {
		if deleteErr := detector.Delete(); deleteErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to release wake word detector: %w", deleteErr))
		}
	}()

	return detector.SampleRate(), detector.FrameLength(), nil
}

// WaitForWakeword feeds input frames to a fresh detector until it reports a
// match. It returns false without error when the stop signal is raised, the
// context is done, the input ends or the timeout elapses. A zero timeout waits
// indefinitely. The detector and the input stream are released on every path.
func (g *Gate) WaitForWakeword(ctx context.Context, timeout time.Duration) (detected bool, err error) {
	ctx, span := tracer.Start(ctx, "wait for wake word")
	defer span.End()
	defer func() {
		span.SetAttributes(attribute.Bool("wakeword.detected", detected))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	detector, err := g.newDetector()
	if err != nil {
		return false, fmt.Errorf("failed to create wake word detector: %w", err)
	}
	defer func() {
		if deleteErr := detector.Delete(); deleteErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to release wake word detector: %w", deleteErr))
		}
	}()

	frameLength := detector.FrameLength()
	stream, err := g.opener.OpenInput(ctx, audio.InputConfig{
		SampleRate:      detector.SampleRate(),
		Channels:        1,
		FramesPerBuffer: frameLength,
		Device:          g.device,
	})
	if err != nil {
		return false, fmt.Errorf("failed to open wake word input stream: %w", err)
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close wake word input stream: %w", closeErr))
		}
	}()

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	frame := make([]int16, frameLength)
	for {
		if g.stop.IsRaised() || ctx.Err() != nil {
			return false, nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			g.logger.Debug("wake word wait timed out", "timeout", timeout)
			return false, nil
		}

		if err := stream.Read(frame); err != nil {
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, fmt.Errorf("failed to read wake word audio: %w", err)
		}

		keyword, err := detector.Process(frame)
		if err != nil {
			return false, fmt.Errorf("failed to process wake word frame: %w", err)
		}
		if keyword >= 0 {
			span.SetAttributes(attribute.Int("wakeword.keyword_index", keyword))
			return true, nil
		}
	}
}
