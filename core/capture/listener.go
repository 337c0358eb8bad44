// Package capture records spoken commands from a blocking input stream and
// ends the recording once the speaker falls silent.
package capture

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

// ChunkDuration is the capture granularity. Silence detection and stop
// polling both happen once per chunk.
const ChunkDuration = 100 * time.Millisecond

type Config struct {
	SampleRate int
	// Device is empty for the default input device.
	Device string

	MaxDuration     time.Duration
	MinDuration     time.Duration
	SilenceDuration time.Duration
	// SilenceThreshold is compared against the RMS of each chunk on the int16
	// scale.
	SilenceThreshold float64
}

func DefaultConfig() Config {
	return Config{
		SampleRate:       audio.DefaultSampleRate,
		MaxDuration:      8 * time.Second,
		MinDuration:      time.Second,
		SilenceDuration:  900 * time.Millisecond,
		SilenceThreshold: 180,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, errors.New("sample rate must be > 0"))
	}
	if c.MaxDuration <= 0 {
		errs = append(errs, errors.New("max duration must be > 0"))
	}
	if c.MinDuration < 0 {
		errs = append(errs, errors.New("min duration must be >= 0"))
	}
	if c.SilenceDuration < 0 {
		errs = append(errs, errors.New("silence duration must be >= 0"))
	}
	if c.SilenceThreshold < 0 {
		errs = append(errs, errors.New("silence threshold must be >= 0"))
	}
	return errors.Join(errs...)
}

// ChunkFrames is the number of samples read per chunk.
func (c Config) ChunkFrames() int {
	return max(1, int(int64(c.SampleRate)*int64(ChunkDuration)/int64(time.Second)))
}

// Limits converts the configured durations into chunk counts. The minimum and
// silence limits are at least one chunk; the maximum always wins over the
// minimum because capture never reads past maxChunks.
func (c Config) Limits() (maxChunks, minChunks, silentLimit int) {
	maxChunks = int(c.MaxDuration / ChunkDuration)
	minChunks = max(1, int(c.MinDuration/ChunkDuration))
	silentLimit = max(1, int(c.SilenceDuration/ChunkDuration))
	return maxChunks, minChunks, silentLimit
}

func (c Config) inputConfig() audio.InputConfig {
	return audio.InputConfig{
		SampleRate:      c.SampleRate,
		Channels:        1,
		FramesPerBuffer: c.ChunkFrames(),
		Device:          c.Device,
	}
}

type SilenceBoundedListener struct {
	config Config
	opener audio.InputOpener
	stop   *stop.Signal
	logger *slog.Logger
}

type ListenerOption func(*SilenceBoundedListener)

func WithLogger(logger *slog.Logger) ListenerOption {
	return func(l *SilenceBoundedListener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewSilenceBoundedListener(opener audio.InputOpener, config Config, stopSignal *stop.Signal, opts ...ListenerOption) *SilenceBoundedListener {
	listener := &SilenceBoundedListener{
		config: config,
		opener: opener,
		stop:   stopSignal,
		logger: logger,
	}
	for _, opt := range opts {
		opt(listener)
	}
	return listener
}

func (l *SilenceBoundedListener) Config() Config { return l.config }

// RecordCommandAudio captures one command. It ends when the maximum duration
// is reached, or when the minimum duration has elapsed and the trailing
// chunks have been silent for the silence duration. A raised stop signal or a
// cancelled context ends the capture early with whatever was recorded.
func (l *SilenceBoundedListener) RecordCommandAudio(ctx context.Context) (samples audio.Buffer, err error) {
	ctx, span := tracer.Start(ctx, "record command audio")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	maxChunks, minChunks, silentLimit := l.config.Limits()
	span.SetAttributes(
		attribute.Int("capture.max_chunks", maxChunks),
		attribute.Int("capture.min_chunks", minChunks),
		attribute.Int("capture.silent_limit", silentLimit),
	)

	stream, err := l.opener.OpenInput(ctx, l.config.inputConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close input stream: %w", closeErr))
		}
	}()

	chunkFrames := l.config.ChunkFrames()
	chunk := make([]int16, chunkFrames)
	captured := make([]int16, 0, maxChunks*chunkFrames)
	silentChunks := 0
	reason := "max duration"

	for index := range maxChunks {
		if l.stop.IsRaised() || ctx.Err() != nil {
			reason = "stopped"
			break
		}

		if err := stream.Read(chunk); err != nil {
			if errors.Is(err, io.EOF) {
				reason = "end of input"
				break
			}
			return nil, fmt.Errorf("failed to read input audio: %w", err)
		}
		captured = append(captured, chunk...)

		if audio.RMS(chunk) < l.config.SilenceThreshold {
			silentChunks++
		} else {
			silentChunks = 0
		}

		if index+1 >= minChunks && silentChunks >= silentLimit {
			reason = "silence"
			break
		}
	}

	span.SetAttributes(
		attribute.Int("capture.samples", len(captured)),
		attribute.String("capture.end_reason", reason),
	)
	l.logger.Debug("command capture finished", "samples", len(captured), "reason", reason)

	return audio.FromInt16(captured), nil
}

// RecordFixed captures exactly d of audio, rounded up to whole chunks, unless
// the stop signal is raised or the input ends first.
func RecordFixed(ctx context.Context, opener audio.InputOpener, config Config, d time.Duration, stopSignal *stop.Signal) (samples audio.Buffer, err error) {
	stream, err := opener.OpenInput(ctx, config.inputConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	defer func() {
		if closeErr := stream.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close input stream: %w", closeErr))
		}
	}()

	chunks := int((d + ChunkDuration - 1) / ChunkDuration)
	chunk := make([]int16, config.ChunkFrames())
	captured := make([]int16, 0, chunks*len(chunk))
	for range chunks {
		if stopSignal.IsRaised() || ctx.Err() != nil {
			break
		}
		if err := stream.Read(chunk); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read input audio: %w", err)
		}
		captured = append(captured, chunk...)
	}

	return audio.FromInt16(captured), nil
}
