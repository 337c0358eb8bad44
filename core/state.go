package orchestration

import "sync/atomic"

type State int32

const (
	StateIdle State = iota
	StateWaitingForWake
	StateListening
	StateTranscribing
	StateActing
	StateSpeaking
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForWake:
		return "waiting_for_wake"
	case StateListening:
		return "listening"
	case StateTranscribing:
		return "transcribing"
	case StateActing:
		return "acting"
	case StateSpeaking:
		return "speaking"
	case StateError:
		return "error"
	}
	return "unknown"
}

type stateTracker struct {
	current  atomic.Int32
	onChange func(State)
}

func (t *stateTracker) Load() State { return State(t.current.Load()) }

func (t *stateTracker) Store(state State) {
	if previous := State(t.current.Swap(int32(state))); previous != state && t.onChange != nil {
		t.onChange(state)
	}
}
