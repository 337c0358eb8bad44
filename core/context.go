package orchestration

import (
	"context"
	"time"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/aashishsingla567/openclaw-assistant/core/stop"
)

// WakewordDetector blocks until the wake phrase is heard. A zero timeout
// waits until detection or stop.
type WakewordDetector interface {
	AudioParams() (sampleRate, frameLength int, err error)
	WaitForWakeword(ctx context.Context, timeout time.Duration) (bool, error)
}

type Listener interface {
	RecordCommandAudio(ctx context.Context) (audio.Buffer, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, samples audio.Buffer) (string, error)
}

// ActionExecutor turns a recognized prompt into a response. An empty
// response means there is nothing to speak.
type ActionExecutor interface {
	Execute(ctx context.Context, prompt string) (string, error)
}

// Speaker plays text back to the user. Empty text is a no-op.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Config holds the settings the pipeline itself reads during a cycle.
type Config struct {
	WakewordLabel      string
	ListenStartPrompt  string
	WakeHelloPrompt    string
	WakewordStartDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		WakewordLabel:      "wake word",
		ListenStartPrompt:  "Listening",
		WakeHelloPrompt:    "Hi",
		WakewordStartDelay: 400 * time.Millisecond,
	}
}

// RuntimeContext is the shared, process lifetime bundle of settings, the stop
// signal and the collaborators the builtin stages delegate to. It holds no
// reference back to the orchestrator or the registry.
type RuntimeContext struct {
	Config Config
	Stop   *stop.Signal

	Wakeword    WakewordDetector
	Listener    Listener
	Transcriber Transcriber
	Executor    ActionExecutor
	Speaker     Speaker
}

// IsStopping reports whether the shared stop signal has been raised.
func (rc *RuntimeContext) IsStopping() bool {
	return rc != nil && rc.Stop.IsRaised()
}
