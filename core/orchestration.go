package orchestration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/aashishsingla567/openclaw-assistant/core/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultWakeRetryDelay = time.Second

// Orchestrator drives wake → listen → transcribe → act → speak cycles over
// the stages held by a Registry. At most one cycle runs at a time.
type Orchestrator struct {
	rc       *RuntimeContext
	registry *Registry

	logger         *slog.Logger
	wakeRetryDelay time.Duration
	state          stateTracker
}

func NewOrchestrator(rc *RuntimeContext, registry *Registry, opts ...OrchestratorOption) *Orchestrator {
	if rc == nil {
		rc = &RuntimeContext{Config: DefaultConfig()}
	}
	if registry == nil {
		registry = NewRegistry()
	}

	o := &Orchestrator{
		rc:             rc,
		registry:       registry,
		logger:         logger,
		wakeRetryDelay: defaultWakeRetryDelay,
	}
	for _, opt := range opts {
		opt(o)
	}

	return o
}

// State returns the stage the orchestrator is currently in.
func (o *Orchestrator) State() State {
	return o.state.Load()
}

func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

func (o *Orchestrator) RuntimeContext() *RuntimeContext {
	return o.rc
}

// RunCycle runs one interaction after a wake detection and returns the
// recognized text. An empty result means nothing was said and is not an
// error. Stage failures are returned as *StageError.
func (o *Orchestrator) RunCycle(ctx context.Context) (string, error) {
	return o.runCycle(ctx, uuid.NewString())
}

func (o *Orchestrator) runCycle(ctx context.Context, cycleID string) (text string, err error) {
	ctx, span := tracer.Start(ctx, "run pipeline cycle", trace.WithAttributes(
		attribute.String("cycle.id", cycleID),
	))
	defer span.End()
	defer func() {
		if err != nil {
			var stageErr *StageError
			if errors.As(err, &stageErr) && stageErr.CycleID == "" {
				stageErr.CycleID = cycleID
			}
			o.state.Store(StateError)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		o.state.Store(StateIdle)
	}()

	rc := o.rc
	if err := o.emit(ctx, events.NewWakeDetected(cycleID, rc.Config.WakewordLabel)); err != nil {
		return "", err
	}

	o.state.Store(StateListening)
	if err := o.emit(ctx, events.NewListenStarted(cycleID, rc.Config.ListenStartPrompt)); err != nil {
		return "", err
	}
	samples, err := runStage(ctx, StageListen, func(ctx context.Context) (audio.Buffer, error) {
		return o.registry.ListenStage().CaptureAudio(ctx, rc)
	})
	if err != nil {
		return "", err
	}
	if err := o.emit(ctx, events.NewAudioCaptured(cycleID, len(samples))); err != nil {
		return "", err
	}

	o.state.Store(StateTranscribing)
	transcript, err := runStage(ctx, StageTranscribe, func(ctx context.Context) (string, error) {
		return o.registry.TranscribeStage().Transcribe(ctx, samples, rc)
	})
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(transcript)
	if err := o.emit(ctx, events.NewTextTranscribed(cycleID, text)); err != nil {
		return "", err
	}
	span.SetAttributes(attribute.Int("cycle.text_length", len(text)))
	if text == "" {
		return "", nil
	}

	o.state.Store(StateActing)
	response, err := runStage(ctx, StageAct, func(ctx context.Context) (string, error) {
		return o.registry.ActionStage().Execute(ctx, text, rc)
	})
	if err != nil {
		return "", err
	}
	if err := o.emit(ctx, events.NewActionCompleted(cycleID, text, response)); err != nil {
		return "", err
	}

	if response != "" {
		o.state.Store(StateSpeaking)
		if _, err := runStage(ctx, StageSpeak, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, o.registry.SpeakStage().Speak(ctx, response, rc)
		}); err != nil {
			return "", err
		}
		if err := o.emit(ctx, events.NewResponseSpoken(cycleID, response)); err != nil {
			return "", err
		}
	}

	return text, nil
}

func runStage[T any](ctx context.Context, stage string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "run stage "+stage)
	defer span.End()

	result, err := fn(ctx)
	if err != nil {
		err = &StageError{Stage: stage, Err: err}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

// RunEvents runs exactly one cycle and returns the events it emitted, in
// order. Registered observers still see every event.
func (o *Orchestrator) RunEvents(ctx context.Context) ([]events.Event, error) {
	ctx, recorder := withEventRecorder(ctx)
	_, err := o.RunCycle(ctx)
	return recorder.snapshot(), err
}

// RunForever waits for the wake phrase and runs one cycle per detection
// until the stop signal is raised or ctx is done. A failed cycle is reported
// as a PipelineError event and never ends the loop. Only registry validation
// and audio parameter failures are returned.
func (o *Orchestrator) RunForever(ctx context.Context) error {
	if err := o.registry.Validate(); err != nil {
		return fmt.Errorf("failed to validate stages: %w", err)
	}

	if o.rc.Wakeword != nil {
		sampleRate, frameLength, err := o.rc.Wakeword.AudioParams()
		if err != nil {
			return fmt.Errorf("failed to query wake word audio parameters: %w", err)
		}
		o.logger.Info("wake loop started",
			"label", o.rc.Config.WakewordLabel,
			"sample_rate", sampleRate,
			"frame_length", frameLength)
	}

	for !o.rc.IsStopping() && ctx.Err() == nil {
		o.state.Store(StateWaitingForWake)
		detected, err := o.waitForWake(ctx)
		if err != nil {
			if o.rc.IsStopping() || ctx.Err() != nil {
				break
			}
			o.reportFailure(ctx, "", StageWakeword, err)
			o.state.Store(StateIdle)
			o.backOff(ctx)
			continue
		}
		if !detected {
			// A stage may give up without a stop; back off before waiting again.
			o.backOff(ctx)
			continue
		}

		o.logger.Info("Wake word detected.")
		text, err := o.runGuardedCycle(ctx)
		if err != nil {
			o.reportFailure(ctx, cycleIDOf(err), stageOf(err, StageCycle), err)
			continue
		}
		if text == "" {
			o.logger.Info("No speech detected after wake word.")
		}
	}

	o.state.Store(StateIdle)
	return nil
}

// backOff waits out the wake retry delay, returning early on stop or when
// ctx is done.
func (o *Orchestrator) backOff(ctx context.Context) {
	if o.rc.IsStopping() || o.wakeRetryDelay <= 0 {
		return
	}
	timer := time.NewTimer(o.wakeRetryDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-o.rc.Stop.Done():
	case <-ctx.Done():
	}
}

func (o *Orchestrator) waitForWake(ctx context.Context) (bool, error) {
	detected, err := o.registry.WakewordStage().WaitForWakeword(ctx, o.rc, 0)
	if err != nil {
		return false, &StageError{Stage: StageWakeword, Err: err}
	}
	return detected, nil
}

// runGuardedCycle turns a panic inside a stage into a cycle error carrying
// the cycle's id.
func (o *Orchestrator) runGuardedCycle(ctx context.Context) (text string, err error) {
	cycleID := uuid.NewString()
	defer func() {
		if recovered := recover(); recovered != nil {
			o.state.Store(StateIdle)
			err = &StageError{Stage: StageCycle, CycleID: cycleID, Err: fmt.Errorf("panic: %v", recovered)}
		}
	}()
	return o.runCycle(ctx, cycleID)
}

func (o *Orchestrator) reportFailure(ctx context.Context, cycleID, stage string, err error) {
	o.logger.Error("Pipeline error", "stage", stage, "error", err)

	var stageErr *StageError
	message := err.Error()
	if errors.As(err, &stageErr) {
		message = stageErr.Err.Error()
	}
	if emitErr := o.registry.Emit(ctx, events.NewPipelineError(cycleID, stage, message), o.rc); emitErr != nil {
		o.logger.Error("failed to report pipeline error", "error", emitErr)
	}
}
