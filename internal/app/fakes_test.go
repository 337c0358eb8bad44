package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/aashishsingla567/openclaw-assistant/core/texttospeech"
	"github.com/aashishsingla567/openclaw-assistant/core/wakeword"
	"github.com/aashishsingla567/openclaw-assistant/internal/config"
)

type testHost struct {
	mu      sync.Mutex
	closed  bool
	written int
	opened  int
}

func (h *testHost) OpenInput(context.Context, audio.InputConfig) (audio.InputStream, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened++
	return testInputStream{}, nil
}

func (h *testHost) OpenOutput(context.Context, audio.OutputConfig) (audio.OutputStream, error) {
	return &testOutputStream{host: h}, nil
}

func (h *testHost) Devices() ([]audio.DeviceInfo, error) {
	return []audio.DeviceInfo{
		{Index: 0, Name: "Test Microphone", MaxInputChannels: 1, IsDefaultInput: true},
		{Index: 1, Name: "Test Speakers", MaxOutputChannels: 2, IsDefaultOutput: true},
	}, nil
}

func (h *testHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// testInputStream yields silence at a pace that keeps polling loops cheap.
type testInputStream struct{}

func (testInputStream) Read(frame []int16) error {
	clear(frame)
	time.Sleep(time.Millisecond)
	return nil
}

func (testInputStream) Close() error { return nil }

type testOutputStream struct {
	host *testHost
}

func (s *testOutputStream) Write(samples []float32) error {
	s.host.mu.Lock()
	defer s.host.mu.Unlock()
	s.host.written += len(samples)
	return nil
}

func (s *testOutputStream) Close() error { return nil }

// testDetector matches on the matchAt-th frame. A negative matchAt never
// matches.
type testDetector struct {
	matchAt int
	frames  int
}

func (d *testDetector) SampleRate() int  { return 16000 }
func (d *testDetector) FrameLength() int { return 512 }

func (d *testDetector) Process([]int16) (int, error) {
	d.frames++
	if d.matchAt >= 0 && d.frames >= d.matchAt {
		return 0, nil
	}
	return -1, nil
}

func (d *testDetector) Delete() error { return nil }

func testDetectorFactory(matchAt int) wakeword.DetectorFactory {
	return func() (wakeword.Detector, error) {
		return &testDetector{matchAt: matchAt}, nil
	}
}

type testSegmentModel struct {
	segments []string
}

func (m testSegmentModel) TranscribeSegments(context.Context, audio.Buffer, int) ([]string, error) {
	return m.segments, nil
}

type testSynthesizer struct {
	mu    sync.Mutex
	texts []string
}

func (s *testSynthesizer) Synthesize(_ context.Context, text string, _ texttospeech.Voice) (texttospeech.Waveform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, text)
	return texttospeech.Waveform{Samples: make(audio.Buffer, 240), SampleRate: 24000}, nil
}

type testExecutor struct {
	prompts []string
}

func (e *testExecutor) Execute(_ context.Context, prompt string) (string, error) {
	e.prompts = append(e.prompts, prompt)
	return "ok:" + prompt, nil
}

// testSettings returns settings that pass runtime asset validation.
func testSettings(t *testing.T) config.Settings {
	t.Helper()
	root := t.TempDir()
	keyword := filepath.Join(root, "wake.ppn")
	if err := os.WriteFile(keyword, []byte("model"), 0o600); err != nil {
		t.Fatalf("failed to write keyword file: %v", err)
	}

	settings := config.Default(root)
	settings.Wakeword.AccessKey = "pv-key"
	settings.Wakeword.KeywordPath = keyword
	settings.SpeechToText.APIKey = "dg-key"
	settings.TextToSpeech.APIKey = "dg-key"
	settings.Pipeline.WakewordStartDelay = 0
	return settings
}
