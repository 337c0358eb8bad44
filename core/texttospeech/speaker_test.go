package texttospeech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
)

type testSynthesizer struct {
	waveform Waveform
	err      error
	texts    []string
	voices   []Voice
}

func (s *testSynthesizer) Synthesize(_ context.Context, text string, voice Voice) (Waveform, error) {
	s.texts = append(s.texts, text)
	s.voices = append(s.voices, voice)
	return s.waveform, s.err
}

type testOutputStream struct {
	writes [][]float32
	closed bool
}

func (s *testOutputStream) Write(samples []float32) error {
	s.writes = append(s.writes, append([]float32(nil), samples...))
	return nil
}

func (s *testOutputStream) Close() error {
	s.closed = true
	return nil
}

type testOutputOpener struct {
	mu      sync.Mutex
	streams []*testOutputStream
	configs []audio.OutputConfig
}

func (o *testOutputOpener) OpenOutput(_ context.Context, cfg audio.OutputConfig) (audio.OutputStream, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	stream := &testOutputStream{}
	o.streams = append(o.streams, stream)
	o.configs = append(o.configs, cfg)
	return stream, nil
}

func TestSpeakEmptyTextIsNoop(t *testing.T) {
	synthesizer := &testSynthesizer{}
	opener := &testOutputOpener{}
	speaker := NewSpeaker(synthesizer, opener)

	if err := speaker.Speak(context.Background(), ""); err != nil {
		t.Fatalf("expected empty text to succeed, got %v", err)
	}
	if len(synthesizer.texts) != 0 || len(opener.streams) != 0 {
		t.Fatalf("expected no synthesis or playback for empty text")
	}
}

func TestSpeakWritesPrewarmThenShapedAudio(t *testing.T) {
	synthesizer := &testSynthesizer{waveform: Waveform{Samples: make(audio.Buffer, 100), SampleRate: 1000}}
	opener := &testOutputOpener{}
	speaker := NewSpeaker(synthesizer, opener,
		WithVoice(Voice{Name: "aura", Speed: 1.2, Language: "en-us"}),
		WithPlaybackOptions(PlaybackOptions{Device: "speakers", Fade: 10 * time.Millisecond, Padding: 5 * time.Millisecond, Prewarm: 20 * time.Millisecond}),
	)

	if err := speaker.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("expected speak to succeed, got %v", err)
	}

	if len(opener.streams) != 1 {
		t.Fatalf("expected one output stream, got %d", len(opener.streams))
	}
	if opener.configs[0] != (audio.OutputConfig{SampleRate: 1000, Channels: 1, Device: "speakers"}) {
		t.Fatalf("unexpected output config %+v", opener.configs[0])
	}

	writes := opener.streams[0].writes
	if len(writes) != 2 {
		t.Fatalf("expected prewarm and speech writes, got %d writes", len(writes))
	}
	if len(writes[0]) != 20 {
		t.Fatalf("expected 20 prewarm samples, got %d", len(writes[0]))
	}
	if len(writes[1]) != 110 {
		t.Fatalf("expected 110 shaped samples, got %d", len(writes[1]))
	}
	if synthesizer.voices[0].Name != "aura" || synthesizer.voices[0].Speed != 1.2 {
		t.Fatalf("expected configured voice to be passed, got %+v", synthesizer.voices[0])
	}
}

func TestSpeakReusesOutputStream(t *testing.T) {
	synthesizer := &testSynthesizer{waveform: Waveform{Samples: make(audio.Buffer, 10), SampleRate: 24000}}
	opener := &testOutputOpener{}
	speaker := NewSpeaker(synthesizer, opener)

	for range 3 {
		if err := speaker.Speak(context.Background(), "again"); err != nil {
			t.Fatalf("expected speak to succeed, got %v", err)
		}
	}
	if len(opener.streams) != 1 {
		t.Fatalf("expected a single reused stream, got %d", len(opener.streams))
	}

	if err := speaker.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}
	if !opener.streams[0].closed {
		t.Fatalf("expected reused stream to be closed")
	}

	if err := speaker.Speak(context.Background(), "after close"); err != nil {
		t.Fatalf("expected speak after close to succeed, got %v", err)
	}
	if len(opener.streams) != 2 {
		t.Fatalf("expected a new stream after close, got %d", len(opener.streams))
	}
}

func TestSpeakWithoutReuseClosesEachStream(t *testing.T) {
	synthesizer := &testSynthesizer{waveform: Waveform{Samples: make(audio.Buffer, 10), SampleRate: 24000}}
	opener := &testOutputOpener{}
	speaker := NewSpeaker(synthesizer, opener, WithReusedOutputStream(false))

	for range 2 {
		if err := speaker.Speak(context.Background(), "hello"); err != nil {
			t.Fatalf("expected speak to succeed, got %v", err)
		}
	}
	if len(opener.streams) != 2 {
		t.Fatalf("expected a stream per utterance, got %d", len(opener.streams))
	}
	for i, stream := range opener.streams {
		if !stream.closed {
			t.Fatalf("expected stream %d to be closed", i)
		}
	}
}

func TestSpeakPropagatesSynthesisErrors(t *testing.T) {
	synthErr := errors.New("voice missing")
	speaker := NewSpeaker(&testSynthesizer{err: synthErr}, &testOutputOpener{})

	if err := speaker.Speak(context.Background(), "hello"); !errors.Is(err, synthErr) {
		t.Fatalf("expected synthesis error, got %v", err)
	}
}

func TestShapeAudio(t *testing.T) {
	samples := audio.Buffer{1, 1, 1, 1, 1, 1, 1, 1, 1, 1}

	shaped := ShapeAudio(samples, 1000, 3*time.Millisecond, 2*time.Millisecond)
	if len(shaped) != 14 {
		t.Fatalf("expected 14 samples, got %d", len(shaped))
	}
	expected := audio.Buffer{0, 0, 0, 0.5, 1, 1, 1, 1, 1, 1, 0.5, 0, 0, 0}
	for i := range expected {
		if shaped[i] != expected[i] {
			t.Fatalf("expected sample %d to be %v, got %v (%v)", i, expected[i], shaped[i], shaped)
		}
	}
	if samples[0] != 1 {
		t.Fatalf("expected input to be left untouched")
	}
}

func TestShapeAudioSkipsFadeOnShortWaveform(t *testing.T) {
	samples := audio.Buffer{1, 1, 1, 1}

	shaped := ShapeAudio(samples, 1000, 2*time.Millisecond, 0)
	for i, sample := range shaped {
		if sample != 1 {
			t.Fatalf("expected sample %d to be unfaded, got %v", i, sample)
		}
	}
}

type orderedEvents struct {
	mu     sync.Mutex
	events []string
}

func (e *orderedEvents) add(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
}

func (e *orderedEvents) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.events...)
}

type blockingSynthesizer struct {
	events  *orderedEvents
	started chan string
	release chan struct{}
}

func (s *blockingSynthesizer) Synthesize(ctx context.Context, text string, _ Voice) (Waveform, error) {
	s.events.add("synthesize " + text)
	s.started <- text
	select {
	case <-s.release:
	case <-ctx.Done():
		return Waveform{}, ctx.Err()
	}
	return Waveform{Samples: make(audio.Buffer, 10), SampleRate: 1000}, nil
}

type orderedOutputStream struct {
	events *orderedEvents
}

func (s *orderedOutputStream) Write([]float32) error {
	time.Sleep(10 * time.Millisecond)
	s.events.add("write returned")
	return nil
}

func (s *orderedOutputStream) Close() error { return nil }

type orderedOutputOpener struct {
	events *orderedEvents
}

func (o *orderedOutputOpener) OpenOutput(context.Context, audio.OutputConfig) (audio.OutputStream, error) {
	return &orderedOutputStream{events: o.events}, nil
}

func TestSpeakSerializesConcurrentCallers(t *testing.T) {
	events := &orderedEvents{}
	synthesizer := &blockingSynthesizer{
		events:  events,
		started: make(chan string, 2),
		release: make(chan struct{}),
	}
	speaker := NewSpeaker(synthesizer, &orderedOutputOpener{events: events},
		WithPlaybackOptions(PlaybackOptions{}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := make(chan error, 2)
	go func() { errs <- speaker.Speak(ctx, "first") }()
	if text := <-synthesizer.started; text != "first" {
		t.Fatalf("expected first synthesis to start, got %q", text)
	}
	go func() { errs <- speaker.Speak(ctx, "second") }()

	select {
	case text := <-synthesizer.started:
		t.Fatalf("expected %q to wait for the first utterance, but it started", text)
	case <-time.After(50 * time.Millisecond):
	}

	close(synthesizer.release)
	for range 2 {
		if err := <-errs; err != nil {
			t.Fatalf("expected speak to succeed, got %v", err)
		}
	}

	want := []string{"synthesize first", "write returned", "synthesize second", "write returned"}
	got := events.snapshot()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}
