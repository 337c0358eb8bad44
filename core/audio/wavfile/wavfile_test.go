package wavfile

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
)

func TestWriteThenOpenStreamsSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command.wav")
	written := audio.FromInt16([]int16{100, -100, 2000, -2000, 0})
	if err := Write(path, written, 16000); err != nil {
		t.Fatalf("expected write to succeed, got %v", err)
	}

	stream, err := NewOpener(path).OpenInput(context.Background(), audio.InputConfig{SampleRate: 16000, Channels: 1, FramesPerBuffer: 3})
	if err != nil {
		t.Fatalf("expected open to succeed, got %v", err)
	}
	defer stream.Close()

	frame := make([]int16, 3)
	if err := stream.Read(frame); err != nil {
		t.Fatalf("expected first read to succeed, got %v", err)
	}
	if frame[0] != 100 || frame[1] != -100 || frame[2] != 2000 {
		t.Fatalf("expected first frame [100 -100 2000], got %v", frame)
	}

	if err := stream.Read(frame); err != nil {
		t.Fatalf("expected second read to succeed, got %v", err)
	}
	if frame[0] != -2000 || frame[1] != 0 || frame[2] != 0 {
		t.Fatalf("expected zero padded tail [-2000 0 0], got %v", frame)
	}

	if err := stream.Read(frame); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after the last frame, got %v", err)
	}
}

func TestOpenRejectsSampleRateMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "command.wav")
	if err := Write(path, audio.Buffer{0, 0}, 8000); err != nil {
		t.Fatalf("expected write to succeed, got %v", err)
	}

	_, err := NewOpener(path).OpenInput(context.Background(), audio.InputConfig{SampleRate: 16000})
	if !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("expected invalid file error, got %v", err)
	}
}
