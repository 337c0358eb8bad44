package speechtotext

import (
	"context"
	"errors"
	"testing"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
)

type testSegmentModel struct {
	segments   []string
	err        error
	calls      int
	sampleRate int
}

func (m *testSegmentModel) TranscribeSegments(_ context.Context, _ audio.Buffer, sampleRate int) ([]string, error) {
	m.calls++
	m.sampleRate = sampleRate
	return m.segments, m.err
}

func TestTranscribeJoinsSegments(t *testing.T) {
	model := &testSegmentModel{segments: []string{"  turn on ", "", "the lights  ", "   "}}
	transcriber := NewTranscriber(model, WithSampleRate(16000))

	text, err := transcriber.Transcribe(context.Background(), audio.Buffer{0.1, 0.2})
	if err != nil {
		t.Fatalf("expected transcription to succeed, got %v", err)
	}
	if text != "turn on the lights" {
		t.Fatalf("expected %q, got %q", "turn on the lights", text)
	}
	if model.sampleRate != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", model.sampleRate)
	}
}

func TestTranscribeEmptyBufferSkipsModel(t *testing.T) {
	model := &testSegmentModel{segments: []string{"should not appear"}}
	transcriber := NewTranscriber(model)

	text, err := transcriber.Transcribe(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected empty buffer to succeed, got %v", err)
	}
	if text != "" {
		t.Fatalf("expected empty text, got %q", text)
	}
	if model.calls != 0 {
		t.Fatalf("expected model to not be invoked, got %d calls", model.calls)
	}
}

func TestTranscribeWrapsModelErrors(t *testing.T) {
	modelErr := errors.New("model unavailable")
	transcriber := NewTranscriber(&testSegmentModel{err: modelErr})

	if _, err := transcriber.Transcribe(context.Background(), audio.Buffer{0.1}); !errors.Is(err, modelErr) {
		t.Fatalf("expected model error to be wrapped, got %v", err)
	}
}
