// Package speechtotext turns captured command audio into a single line of
// text using a segment based recognition model.
package speechtotext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// SegmentModel recognizes speech in a complete buffer and returns the text of
// every recognized segment in order.
type SegmentModel interface {
	TranscribeSegments(ctx context.Context, samples audio.Buffer, sampleRate int) ([]string, error)
}

type Transcriber struct {
	model      SegmentModel
	sampleRate int
	logger     *slog.Logger
}

func NewTranscriber(model SegmentModel, opts ...TranscriberOption) *Transcriber {
	transcriber := &Transcriber{
		model:      model,
		sampleRate: audio.DefaultSampleRate,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(transcriber)
	}
	return transcriber
}

// Transcribe returns the recognized text of samples. An empty buffer yields
// an empty string without invoking the model.
func (t *Transcriber) Transcribe(ctx context.Context, samples audio.Buffer) (string, error) {
	if samples.IsEmpty() {
		return "", nil
	}

	ctx, span := tracer.Start(ctx, "transcribe command")
	defer span.End()
	span.SetAttributes(
		attribute.Int("audio.samples", samples.Len()),
		attribute.Int("audio.sample_rate", t.sampleRate),
	)

	segments, err := t.model.TranscribeSegments(ctx, samples, t.sampleRate)
	if err != nil {
		err = fmt.Errorf("failed to transcribe audio: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	text := JoinSegments(segments)
	span.SetAttributes(attribute.Int("transcript.segments", len(segments)), attribute.Int("transcript.length", len(text)))
	t.logger.Debug("command transcribed", "segments", len(segments), "text", text)
	return text, nil
}

// JoinSegments trims every segment, drops the empty ones and joins the rest
// with single spaces.
func JoinSegments(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		if trimmed := strings.TrimSpace(segment); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}
