// Package texttospeech speaks assistant responses: text is synthesized into a
// waveform, shaped and played on the output device.
package texttospeech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Waveform is mono synthesized speech.
type Waveform struct {
	Samples    audio.Buffer
	SampleRate int
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice Voice) (Waveform, error)
}

// Speaker serializes synthesis and playback so that utterances never overlap.
type Speaker struct {
	synthesizer Synthesizer
	opener      audio.OutputOpener
	voice       Voice
	playback    PlaybackOptions
	logger      *slog.Logger

	reuseOutputStream bool

	mu         sync.Mutex
	stream     audio.OutputStream
	streamRate int
}

func NewSpeaker(synthesizer Synthesizer, opener audio.OutputOpener, opts ...SpeakerOption) *Speaker {
	speaker := &Speaker{
		synthesizer:       synthesizer,
		opener:            opener,
		voice:             Voice{Speed: 1},
		playback:          DefaultPlaybackOptions(),
		logger:            logger,
		reuseOutputStream: true,
	}
	for _, opt := range opts {
		opt(speaker)
	}
	return speaker
}

// Speak synthesizes and plays text, returning once playback has been handed
// to the device. Empty text is a no-op.
func (s *Speaker) Speak(ctx context.Context, text string) (err error) {
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, span := tracer.Start(ctx, "speak")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()
	span.SetAttributes(attribute.String("voice.name", s.voice.Name), attribute.Int("text.length", len(text)))

	waveform, err := s.synthesizer.Synthesize(ctx, text, s.voice)
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	if waveform.SampleRate <= 0 {
		return fmt.Errorf("synthesizer returned invalid sample rate %d", waveform.SampleRate)
	}

	shaped := ShapeAudio(waveform.Samples, waveform.SampleRate, s.playback.Fade, s.playback.Padding)
	span.SetAttributes(attribute.Float64("audio.duration_seconds", shaped.Duration(waveform.SampleRate)))

	stream, err := s.outputStream(ctx, waveform.SampleRate)
	if err != nil {
		return err
	}
	if !s.reuseOutputStream {
		defer func() {
			if closeErr := stream.Close(); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to close output stream: %w", closeErr))
			}
		}()
	}

	if prewarm := samplesFor(s.playback.Prewarm, waveform.SampleRate); prewarm > 0 {
		if err := stream.Write(make([]float32, prewarm)); err != nil {
			return fmt.Errorf("failed to prewarm output stream: %w", err)
		}
	}
	if err := stream.Write(shaped); err != nil {
		return fmt.Errorf("failed to play speech: %w", err)
	}

	s.logger.Debug("response spoken", "samples", len(shaped), "sample_rate", waveform.SampleRate)
	return nil
}

// outputStream returns the reusable stream, reopening it when the sample rate
// changes. Must be called with mu held.
func (s *Speaker) outputStream(ctx context.Context, sampleRate int) (audio.OutputStream, error) {
	if s.reuseOutputStream && s.stream != nil {
		if s.streamRate == sampleRate {
			return s.stream, nil
		}
		if err := s.closeStream(); err != nil {
			s.logger.Warn("failed to close output stream", "error", err)
		}
	}

	stream, err := s.opener.OpenOutput(ctx, audio.OutputConfig{
		SampleRate: sampleRate,
		Channels:   1,
		Device:     s.playback.Device,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}

	if s.reuseOutputStream {
		s.stream = stream
		s.streamRate = sampleRate
	}
	return stream, nil
}

func (s *Speaker) closeStream() error {
	if s.stream == nil {
		return nil
	}
	err := s.stream.Close()
	s.stream = nil
	s.streamRate = 0
	return err
}

// Close releases the reused output stream. The speaker can still be used
// afterwards, a new stream is opened on demand.
func (s *Speaker) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.closeStream(); err != nil {
		return fmt.Errorf("failed to close output stream: %w", err)
	}
	return nil
}
