package orchestration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/aashishsingla567/openclaw-assistant/core/events"
	"github.com/aashishsingla567/openclaw-assistant/core/stop"
)

type testWakeword struct {
	mu        sync.Mutex
	results   []bool
	err       error
	calls     int
	onExhaust func()
}

func (w *testWakeword) AudioParams() (int, int, error) { return 16000, 512, nil }

func (w *testWakeword) WaitForWakeword(context.Context, time.Duration) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.calls++
	if w.err != nil {
		if w.onExhaust != nil && w.calls > 1 {
			w.onExhaust()
		}
		return false, w.err
	}
	if len(w.results) == 0 {
		if w.onExhaust != nil {
			w.onExhaust()
		}
		return false, nil
	}
	result := w.results[0]
	w.results = w.results[1:]
	return result, nil
}

type testListener struct {
	samples audio.Buffer
	calls   int
}

func (l *testListener) RecordCommandAudio(context.Context) (audio.Buffer, error) {
	l.calls++
	return l.samples, nil
}

type testTranscriber struct {
	text  string
	calls int
}

func (t *testTranscriber) Transcribe(context.Context, audio.Buffer) (string, error) {
	t.calls++
	return t.text, nil
}

type testExecutor struct {
	err     error
	prompts []string
}

func (e *testExecutor) Execute(_ context.Context, prompt string) (string, error) {
	e.prompts = append(e.prompts, prompt)
	if e.err != nil {
		return "", e.err
	}
	return "ok:" + prompt, nil
}

type testSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (s *testSpeaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

func newTestRuntimeContext(text string) (*RuntimeContext, *testExecutor, *testSpeaker) {
	config := DefaultConfig()
	config.WakeHelloPrompt = ""
	config.ListenStartPrompt = ""
	config.WakewordStartDelay = 0

	executor := &testExecutor{}
	speaker := &testSpeaker{}
	return &RuntimeContext{
		Config:      config,
		Stop:        stop.New(),
		Wakeword:    &testWakeword{},
		Listener:    &testListener{samples: make(audio.Buffer, 1600)},
		Transcriber: &testTranscriber{text: text},
		Executor:    executor,
		Speaker:     speaker,
	}, executor, speaker
}

func eventKinds(recorded []events.Event) []events.Kind {
	kinds := make([]events.Kind, 0, len(recorded))
	for _, event := range recorded {
		kinds = append(kinds, event.Kind())
	}
	return kinds
}

func TestRunCycleEmitsSixEventsInOrder(t *testing.T) {
	rc, _, speaker := newTestRuntimeContext(" hello \n")
	o := NewOrchestrator(rc, NewRegistry())

	recorded, err := o.RunEvents(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := []events.Kind{
		events.KindWakeDetected,
		events.KindListenStarted,
		events.KindAudioCaptured,
		events.KindTextTranscribed,
		events.KindActionCompleted,
		events.KindResponseSpoken,
	}
	kinds := eventKinds(recorded)
	if len(kinds) != len(expected) {
		t.Fatalf("expected %d events, got %v", len(expected), kinds)
	}
	for i := range expected {
		if kinds[i] != expected[i] {
			t.Fatalf("expected event %d to be %s, got %s", i, expected[i], kinds[i])
		}
	}

	if captured := recorded[2].(events.AudioCaptured); captured.SampleCount != 1600 {
		t.Fatalf("expected 1600 captured samples, got %d", captured.SampleCount)
	}
	if transcribed := recorded[3].(events.TextTranscribed); transcribed.Text != "hello" {
		t.Fatalf("expected trimmed transcript, got %q", transcribed.Text)
	}
	completed := recorded[4].(events.ActionCompleted)
	if completed.Prompt != "hello" || completed.Response != "ok:hello" {
		t.Fatalf("expected hello/ok:hello, got %q/%q", completed.Prompt, completed.Response)
	}
	if spoken := recorded[5].(events.ResponseSpoken); spoken.Response != "ok:hello" {
		t.Fatalf("expected spoken response ok:hello, got %q", spoken.Response)
	}

	cycleID := recorded[0].CycleID()
	if cycleID == "" {
		t.Fatalf("expected a cycle id")
	}
	for _, event := range recorded {
		if event.CycleID() != cycleID {
			t.Fatalf("expected every event to share cycle id %q, got %q", cycleID, event.CycleID())
		}
	}

	if len(speaker.spoken) != 1 || speaker.spoken[0] != "ok:hello" {
		t.Fatalf("expected speaker to say ok:hello once, got %v", speaker.spoken)
	}
}

func TestRunCycleReturnsRecognizedText(t *testing.T) {
	rc, _, _ := newTestRuntimeContext("hello")
	o := NewOrchestrator(rc, NewRegistry())

	text, err := o.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "hello" {
		t.Fatalf("expected hello, got %q", text)
	}
	if o.State() != StateIdle {
		t.Fatalf("expected idle state after cycle, got %s", o.State())
	}
}

func TestRunCycleStopsAfterEmptyTranscript(t *testing.T) {
	rc, executor, speaker := newTestRuntimeContext("   ")
	o := NewOrchestrator(rc, NewRegistry())

	recorded, err := o.RunEvents(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(recorded) != 4 {
		t.Fatalf("expected 4 events, got %v", eventKinds(recorded))
	}
	if recorded[3].Kind() != events.KindTextTranscribed {
		t.Fatalf("expected last event to be text transcribed, got %s", recorded[3].Kind())
	}
	if len(executor.prompts) != 0 {
		t.Fatalf("expected executor not to be called, got %v", executor.prompts)
	}
	if len(speaker.spoken) != 0 {
		t.Fatalf("expected speaker not to be called, got %v", speaker.spoken)
	}
}

func TestRunCycleSkipsSpeakForEmptyResponse(t *testing.T) {
	rc, _, speaker := newTestRuntimeContext("hello")
	registry := NewRegistry()
	if err := registry.SetActionStage(NoopActionStage{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	o := NewOrchestrator(rc, registry)

	recorded, err := o.RunEvents(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(recorded) != 5 || recorded[4].Kind() != events.KindActionCompleted {
		t.Fatalf("expected cycle to end with action completed, got %v", eventKinds(recorded))
	}
	if len(speaker.spoken) != 0 {
		t.Fatalf("expected nothing spoken, got %v", speaker.spoken)
	}
}

func TestRunCycleWrapsStageFailure(t *testing.T) {
	rc, executor, _ := newTestRuntimeContext("hello")
	executor.err = errors.New("gateway down")
	o := NewOrchestrator(rc, NewRegistry())

	_, err := o.RunCycle(context.Background())
	var stageErr *StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected stage error, got %v", err)
	}
	if stageErr.Stage != StageAct {
		t.Fatalf("expected act stage, got %q", stageErr.Stage)
	}
	if !errors.Is(err, executor.err) {
		t.Fatalf("expected wrapped executor error, got %v", err)
	}
	if stageErr.CycleID == "" {
		t.Fatalf("expected failure to carry the cycle id")
	}
}

func TestListenStageSpeaksPromptsBeforeRecording(t *testing.T) {
	rc, _, speaker := newTestRuntimeContext("hello")
	rc.Config.WakeHelloPrompt = "Hi"
	rc.Config.ListenStartPrompt = "Listening"
	o := NewOrchestrator(rc, NewRegistry())

	if _, err := o.RunCycle(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := []string{"Hi", "Listening", "ok:hello"}
	if len(speaker.spoken) != len(expected) {
		t.Fatalf("expected %v spoken, got %v", expected, speaker.spoken)
	}
	for i := range expected {
		if speaker.spoken[i] != expected[i] {
			t.Fatalf("expected %q at %d, got %q", expected[i], i, speaker.spoken[i])
		}
	}
}

func TestListenStageStartDelayEndsOnStop(t *testing.T) {
	rc, _, _ := newTestRuntimeContext("")
	rc.Config.WakewordStartDelay = time.Hour
	rc.Stop.Raise()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = DefaultListenStage{}.CaptureAudio(context.Background(), rc)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for listen stage to honor stop")
	}
}

func TestRunForeverContinuesAfterCycleFailure(t *testing.T) {
	rc, executor, _ := newTestRuntimeContext("hello")
	executor.err = errors.New("gateway down")
	rc.Wakeword = &testWakeword{
		results:   []bool{true, false, true},
		onExhaust: rc.Stop.Raise,
	}

	registry := NewRegistry()
	var mu sync.Mutex
	var failures []events.PipelineError
	var wakes int
	registry.RegisterObserver(func(_ context.Context, event events.Event, _ *RuntimeContext) error {
		mu.Lock()
		defer mu.Unlock()
		switch typed := event.(type) {
		case events.PipelineError:
			failures = append(failures, typed)
		case events.WakeDetected:
			wakes++
		}
		return nil
	})

	o := NewOrchestrator(rc, registry, WithWakeRetryDelay(time.Millisecond))
	if err := o.RunForever(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if wakes != 2 {
		t.Fatalf("expected 2 cycles, got %d", wakes)
	}
	if len(failures) != 2 {
		t.Fatalf("expected 2 pipeline errors, got %d", len(failures))
	}
	for _, failure := range failures {
		if failure.Stage != StageAct {
			t.Fatalf("expected act stage, got %q", failure.Stage)
		}
		if failure.Error != "gateway down" {
			t.Fatalf("expected gateway down, got %q", failure.Error)
		}
		if failure.CycleID() == "" {
			t.Fatalf("expected pipeline error to carry the cycle id")
		}
	}
	if len(executor.prompts) != 2 {
		t.Fatalf("expected executor to run twice, got %d", len(executor.prompts))
	}
}

type panickingTranscribeStage struct{}

func (panickingTranscribeStage) Transcribe(context.Context, audio.Buffer, *RuntimeContext) (string, error) {
	panic("model crashed")
}

func TestRunForeverRecoversFromPanickingStage(t *testing.T) {
	rc, _, _ := newTestRuntimeContext("hello")
	rc.Wakeword = &testWakeword{results: []bool{true}, onExhaust: rc.Stop.Raise}

	registry := NewRegistry()
	if err := registry.SetTranscribeStage(panickingTranscribeStage{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var failures []events.PipelineError
	var wakeCycleID string
	registry.RegisterObserver(func(_ context.Context, event events.Event, _ *RuntimeContext) error {
		switch typed := event.(type) {
		case events.PipelineError:
			failures = append(failures, typed)
		case events.WakeDetected:
			wakeCycleID = typed.CycleID()
		}
		return nil
	})

	o := NewOrchestrator(rc, registry)
	if err := o.RunForever(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(failures) != 1 || failures[0].Stage != StageCycle {
		t.Fatalf("expected one cycle failure, got %v", failures)
	}
	if wakeCycleID == "" || failures[0].CycleID() != wakeCycleID {
		t.Fatalf("expected cycle failure to carry cycle id %q, got %q", wakeCycleID, failures[0].CycleID())
	}
	if o.State() != StateIdle {
		t.Fatalf("expected idle state after recovery, got %v", o.State())
	}
}

func TestRunForeverReportsWakeFailureAndRetries(t *testing.T) {
	rc, _, _ := newTestRuntimeContext("hello")
	wakeword := &testWakeword{err: errors.New("device busy"), onExhaust: rc.Stop.Raise}
	rc.Wakeword = wakeword

	registry := NewRegistry()
	var failures []events.PipelineError
	registry.RegisterObserver(func(_ context.Context, event events.Event, _ *RuntimeContext) error {
		if failure, ok := event.(events.PipelineError); ok {
			failures = append(failures, failure)
		}
		return nil
	})

	o := NewOrchestrator(rc, registry, WithWakeRetryDelay(time.Millisecond))
	if err := o.RunForever(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if wakeword.calls != 2 {
		t.Fatalf("expected wake wait to be retried once, got %d calls", wakeword.calls)
	}
	if len(failures) != 1 || failures[0].Stage != StageWakeword {
		t.Fatalf("expected one wakeword failure, got %v", failures)
	}
}

func TestRunForeverBacksOffWhenWakeStageGivesUp(t *testing.T) {
	rc, _, _ := newTestRuntimeContext("hello")
	wakeword := &testWakeword{}
	rc.Wakeword = wakeword

	o := NewOrchestrator(rc, NewRegistry(), WithWakeRetryDelay(time.Hour))
	done := make(chan error, 1)
	go func() { done <- o.RunForever(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	wakeword.mu.Lock()
	calls := wakeword.calls
	wakeword.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected one wake wait before backing off, got %d", calls)
	}

	rc.Stop.Raise()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for stop to end the back off")
	}
}

func TestRunForeverReturnsWhenStopRaised(t *testing.T) {
	rc, _, _ := newTestRuntimeContext("hello")
	rc.Stop.Raise()
	o := NewOrchestrator(rc, NewRegistry())

	done := make(chan error, 1)
	go func() { done <- o.RunForever(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for loop to stop")
	}
}

func TestRunForeverFailsOnInvalidRegistry(t *testing.T) {
	rc, _, _ := newTestRuntimeContext("hello")
	registry := &Registry{}
	o := NewOrchestrator(rc, registry)

	err := o.RunForever(context.Background())
	if !errors.Is(err, ErrContractViolation) {
		t.Fatalf("expected contract violation, got %v", err)
	}
}

func TestStateListenerSeesCycleStates(t *testing.T) {
	rc, _, _ := newTestRuntimeContext("hello")
	var states []State
	o := NewOrchestrator(rc, NewRegistry(), WithStateListener(func(state State) {
		states = append(states, state)
	}))

	if _, err := o.RunCycle(context.Background()); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	expected := []State{StateListening, StateTranscribing, StateActing, StateSpeaking, StateIdle}
	if len(states) != len(expected) {
		t.Fatalf("expected states %v, got %v", expected, states)
	}
	for i := range expected {
		if states[i] != expected[i] {
			t.Fatalf("expected %s at %d, got %s", expected[i], i, states[i])
		}
	}
}
