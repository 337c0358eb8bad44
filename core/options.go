package orchestration

import (
	"log/slog"
	"time"
)

type OrchestratorOption func(*Orchestrator)

func WithLogger(logger *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithWakeRetryDelay sets how long the outer loop waits after a failed wake
// wait before trying again.
func WithWakeRetryDelay(delay time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if delay >= 0 {
			o.wakeRetryDelay = delay
		}
	}
}

// WithStateListener is called from the loop goroutine on every state change.
func WithStateListener(listener func(State)) OrchestratorOption {
	return func(o *Orchestrator) {
		o.state.onChange = listener
	}
}
