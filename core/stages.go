package orchestration

import (
	"context"
	"fmt"
	"time"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
)

// Role names one replaceable step of the pipeline.
type Role string

const (
	RoleWakewordListener Role = "wakeword_listener"
	RoleListen           Role = "listen_stage"
	RoleTranscribe       Role = "transcribe_stage"
	RoleAction           Role = "action_stage"
	RoleSpeak            Role = "speak_stage"
)

// Roles lists every role in pipeline order.
func Roles() []Role {
	return []Role{RoleWakewordListener, RoleListen, RoleTranscribe, RoleAction, RoleSpeak}
}

// Method is the name of the single method a stage must provide for the role.
func (r Role) Method() string {
	switch r {
	case RoleWakewordListener:
		return "WaitForWakeword"
	case RoleListen:
		return "CaptureAudio"
	case RoleTranscribe:
		return "Transcribe"
	case RoleAction:
		return "Execute"
	case RoleSpeak:
		return "Speak"
	}
	return ""
}

// Stage names reported in errors and PipelineError events.
const (
	StageWakeword   = "wakeword"
	StageListen     = "listen"
	StageTranscribe = "transcribe"
	StageAct        = "act"
	StageSpeak      = "speak"
	StageEmit       = "emit"
	StageCycle      = "cycle"
)

type WakewordStage interface {
	WaitForWakeword(ctx context.Context, rc *RuntimeContext, timeout time.Duration) (bool, error)
}

type ListenStage interface {
	CaptureAudio(ctx context.Context, rc *RuntimeContext) (audio.Buffer, error)
}

type TranscribeStage interface {
	Transcribe(ctx context.Context, samples audio.Buffer, rc *RuntimeContext) (string, error)
}

// ActionStage returns the response to speak; an empty response skips the
// speak stage.
type ActionStage interface {
	Execute(ctx context.Context, prompt string, rc *RuntimeContext) (string, error)
}

type SpeakStage interface {
	Speak(ctx context.Context, text string, rc *RuntimeContext) error
}

func missingCollaborator(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingCollaborator, name)
}

// DefaultWakewordStage delegates to the context's wake word detector.
type DefaultWakewordStage struct{}

func (DefaultWakewordStage) WaitForWakeword(ctx context.Context, rc *RuntimeContext, timeout time.Duration) (bool, error) {
	if rc.Wakeword == nil {
		return false, missingCollaborator("wakeword detector")
	}
	return rc.Wakeword.WaitForWakeword(ctx, timeout)
}

// DefaultListenStage greets the user, announces that it is listening, waits
// the configured start delay and then records the command. The delay is cut
// short by the stop signal.
type DefaultListenStage struct{}

func (DefaultListenStage) CaptureAudio(ctx context.Context, rc *RuntimeContext) (audio.Buffer, error) {
	if rc.Listener == nil {
		return nil, missingCollaborator("listener")
	}

	for _, prompt := range []string{rc.Config.WakeHelloPrompt, rc.Config.ListenStartPrompt} {
		if prompt == "" || rc.Speaker == nil {
			continue
		}
		if err := rc.Speaker.Speak(ctx, prompt); err != nil {
			return nil, fmt.Errorf("failed to speak listen prompt: %w", err)
		}
	}

	if rc.Config.WakewordStartDelay > 0 {
		rc.Stop.Sleep(rc.Config.WakewordStartDelay)
	}
	return rc.Listener.RecordCommandAudio(ctx)
}

// DefaultTranscribeStage delegates to the context's transcriber.
type DefaultTranscribeStage struct{}

func (DefaultTranscribeStage) Transcribe(ctx context.Context, samples audio.Buffer, rc *RuntimeContext) (string, error) {
	if rc.Transcriber == nil {
		return "", missingCollaborator("transcriber")
	}
	return rc.Transcriber.Transcribe(ctx, samples)
}

// DefaultActionStage delegates to the context's action executor.
type DefaultActionStage struct{}

func (DefaultActionStage) Execute(ctx context.Context, prompt string, rc *RuntimeContext) (string, error) {
	if rc.Executor == nil {
		return "", missingCollaborator("action executor")
	}
	return rc.Executor.Execute(ctx, prompt)
}

// DefaultSpeakStage delegates to the context's speaker.
type DefaultSpeakStage struct{}

func (DefaultSpeakStage) Speak(ctx context.Context, text string, rc *RuntimeContext) error {
	if rc.Speaker == nil {
		return missingCollaborator("speaker")
	}
	return rc.Speaker.Speak(ctx, text)
}

// NoopActionStage answers every prompt with an empty response and never
// contacts the gateway.
type NoopActionStage struct{}

func (NoopActionStage) Execute(context.Context, string, *RuntimeContext) (string, error) {
	return "", nil
}
