package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aashishsingla567/openclaw-assistant/internal/config"
	"go.opentelemetry.io/otel/codes"
)

// Runner owns one Runtime for the lifetime of the process.
type Runner struct {
	settings config.Settings
	runtime  *Runtime
	logger   *slog.Logger

	stopOnce sync.Once
}

func NewRunner(settings config.Settings, opts ...Option) (*Runner, error) {
	o := newOptions(opts)
	rt, err := Build(settings, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build runtime: %w", err)
	}
	return &Runner{settings: settings, runtime: rt, logger: o.logger}, nil
}

func (r *Runner) Runtime() *Runtime {
	return r.runtime
}

// Run validates credentials and model files, then serves wake cycles until
// Stop is called or ctx is done.
func (r *Runner) Run(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "run assistant")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if err := r.settings.ValidateRuntimeAssets(true); err != nil {
		return err
	}
	r.logger.Info("Starting OpenClaw Assistant runtime.")
	return r.runtime.Orchestrator.RunForever(ctx)
}

// Stop raises the stop signal and releases the speaker output stream. It is
// safe to call from a signal handler and more than once.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.runtime.Stop.Raise()
		if err := r.runtime.Speaker.Close(); err != nil {
			r.logger.Warn("failed to close speaker", "error", err)
		}
	})
}

// Close stops the runner and releases the audio backend.
func (r *Runner) Close() error {
	r.Stop()
	return r.runtime.Close()
}
