package orchestration

import (
	"context"
	"fmt"
	"sync"

	"github.com/aashishsingla567/openclaw-assistant/core/events"
)

// Observer receives every pipeline event synchronously. Returning an error
// aborts delivery to later observers and fails the emitting cycle.
type Observer func(ctx context.Context, event events.Event, rc *RuntimeContext) error

// Registry holds exactly one stage per role and the ordered observer list.
// Stage replacement is a configuration-time action.
type Registry struct {
	mu sync.RWMutex

	wakeword   WakewordStage
	listen     ListenStage
	transcribe TranscribeStage
	action     ActionStage
	speak      SpeakStage

	observers []Observer
}

// NewRegistry creates a registry with the default delegating stages.
func NewRegistry() *Registry {
	return &Registry{
		wakeword:   DefaultWakewordStage{},
		listen:     DefaultListenStage{},
		transcribe: DefaultTranscribeStage{},
		action:     DefaultActionStage{},
		speak:      DefaultSpeakStage{},
	}
}

func (r *Registry) SetWakewordStage(stage WakewordStage) error {
	return r.Replace(RoleWakewordListener, stage)
}

func (r *Registry) SetListenStage(stage ListenStage) error {
	return r.Replace(RoleListen, stage)
}

func (r *Registry) SetTranscribeStage(stage TranscribeStage) error {
	return r.Replace(RoleTranscribe, stage)
}

func (r *Registry) SetActionStage(stage ActionStage) error {
	return r.Replace(RoleAction, stage)
}

func (r *Registry) SetSpeakStage(stage SpeakStage) error {
	return r.Replace(RoleSpeak, stage)
}

// Replace substitutes the stage for role. A value that does not provide the
// role's method is rejected with a *ContractError and the previous stage is
// kept.
func (r *Registry) Replace(role Role, stage any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	violation := &ContractError{Role: role, Method: role.Method()}
	switch role {
	case RoleWakewordListener:
		typed, ok := stage.(WakewordStage)
		if !ok || typed == nil {
			return violation
		}
		r.wakeword = typed
	case RoleListen:
		typed, ok := stage.(ListenStage)
		if !ok || typed == nil {
			return violation
		}
		r.listen = typed
	case RoleTranscribe:
		typed, ok := stage.(TranscribeStage)
		if !ok || typed == nil {
			return violation
		}
		r.transcribe = typed
	case RoleAction:
		typed, ok := stage.(ActionStage)
		if !ok || typed == nil {
			return violation
		}
		r.action = typed
	case RoleSpeak:
		typed, ok := stage.(SpeakStage)
		if !ok || typed == nil {
			return violation
		}
		r.speak = typed
	default:
		return fmt.Errorf("%w: unknown role %q", ErrContractViolation, role)
	}

	return r.validateLocked()
}

// Validate checks that every role has a stage.
func (r *Registry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.validateLocked()
}

func (r *Registry) validateLocked() error {
	present := map[Role]bool{
		RoleWakewordListener: r.wakeword != nil,
		RoleListen:           r.listen != nil,
		RoleTranscribe:       r.transcribe != nil,
		RoleAction:           r.action != nil,
		RoleSpeak:            r.speak != nil,
	}
	for _, role := range Roles() {
		if !present[role] {
			return &ContractError{Role: role, Method: role.Method()}
		}
	}
	return nil
}

// RegisterObserver appends an observer. Observers cannot be removed.
func (r *Registry) RegisterObserver(observer Observer) {
	if observer == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, observer)
}

// Emit delivers event to the observers in registration order. The first
// observer error is returned and later observers are skipped.
func (r *Registry) Emit(ctx context.Context, event events.Event, rc *RuntimeContext) error {
	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()

	for _, observer := range observers {
		if err := observer(ctx, event, rc); err != nil {
			return fmt.Errorf("observer failed on %s: %w", event.Kind(), err)
		}
	}
	return nil
}

func (r *Registry) WakewordStage() WakewordStage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.wakeword
}

func (r *Registry) ListenStage() ListenStage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.listen
}

func (r *Registry) TranscribeStage() TranscribeStage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.transcribe
}

func (r *Registry) ActionStage() ActionStage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.action
}

func (r *Registry) SpeakStage() SpeakStage {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.speak
}
