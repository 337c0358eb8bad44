package orchestration

import (
	"context"
	"sync"

	"github.com/aashishsingla567/openclaw-assistant/core/events"
)

type recorderKey struct{}

// eventRecorder collects the events of a single RunEvents call. It is bound
// to the call's context so it never outlives the cycle.
type eventRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func withEventRecorder(ctx context.Context) (context.Context, *eventRecorder) {
	recorder := &eventRecorder{}
	return context.WithValue(ctx, recorderKey{}, recorder), recorder
}

func eventRecorderFrom(ctx context.Context) *eventRecorder {
	recorder, _ := ctx.Value(recorderKey{}).(*eventRecorder)
	return recorder
}

func (r *eventRecorder) record(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) snapshot() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// emit delivers event to the registry observers and then to the recorder
// bound to ctx, if any.
func (o *Orchestrator) emit(ctx context.Context, event events.Event) error {
	if err := o.registry.Emit(ctx, event, o.rc); err != nil {
		return &StageError{Stage: StageEmit, Err: err}
	}
	if recorder := eventRecorderFrom(ctx); recorder != nil {
		recorder.record(event)
	}
	return nil
}
