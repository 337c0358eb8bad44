// Package app assembles the voice pipeline from settings and runs it.
package app

import (
	"errors"
	"fmt"
	"log/slog"

	orchestration "github.com/aashishsingla567/openclaw-assistant/core"
	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/aashishsingla567/openclaw-assistant/core/capture"
	"github.com/aashishsingla567/openclaw-assistant/core/gateway"
	"github.com/aashishsingla567/openclaw-assistant/core/speechtotext"
	sttdeepgram "github.com/aashishsingla567/openclaw-assistant/core/speechtotext/deepgram"
	"github.com/aashishsingla567/openclaw-assistant/core/stop"
	"github.com/aashishsingla567/openclaw-assistant/core/texttospeech"
	ttsdeepgram "github.com/aashishsingla567/openclaw-assistant/core/texttospeech/deepgram"
	"github.com/aashishsingla567/openclaw-assistant/core/wakeword"
	"github.com/aashishsingla567/openclaw-assistant/core/wakeword/porcupine"
	"github.com/aashishsingla567/openclaw-assistant/internal/config"
)

// Runtime is a fully wired pipeline. Close releases the audio resources it
// owns.
type Runtime struct {
	Settings config.Settings
	Stop     *stop.Signal

	Host         audio.Host
	Gate         *wakeword.Gate
	Listener     *capture.SilenceBoundedListener
	Transcriber  *speechtotext.Transcriber
	Executor     orchestration.ActionExecutor
	Speaker      *texttospeech.Speaker
	Context      *orchestration.RuntimeContext
	Registry     *orchestration.Registry
	Orchestrator *orchestration.Orchestrator

	ownsHost bool
}

// Build wires every collaborator from settings. Credentials are not checked
// here; see config.Settings.ValidateRuntimeAssets.
func Build(settings config.Settings, opts ...Option) (rt *Runtime, err error) {
	o := newOptions(opts)

	host, ownsHost := o.host, false
	if host == nil {
		if host, err = NewHost(settings.Audio.Backend); err != nil {
			return nil, err
		}
		ownsHost = true
	}
	defer func() {
		if err != nil && ownsHost {
			err = errors.Join(err, host.Close())
		}
	}()

	model := o.segmentModel
	if model == nil {
		if model, err = newSegmentModel(settings, o.logger); err != nil {
			return nil, err
		}
	}
	synthesizer := o.synthesizer
	if synthesizer == nil {
		if synthesizer, err = newSynthesizer(settings, o.logger); err != nil {
			return nil, err
		}
	}
	factory := o.detectorFactory
	if factory == nil {
		factory = porcupine.NewDetectorFactory(settings.PorcupineConfig())
	}
	executor := o.executor
	if executor == nil {
		executor = gateway.NewHTTPExecutor(settings.Gateway.URL, settings.Gateway.Timeout)
	}

	stopSignal := stop.New()
	rt = &Runtime{
		Settings: settings,
		Stop:     stopSignal,
		Host:     host,
		Gate: wakeword.NewGate(factory, host, stopSignal,
			wakeword.WithDevice(settings.Audio.InputDevice),
			wakeword.WithLogger(o.logger),
		),
		Listener: capture.NewSilenceBoundedListener(host, settings.CaptureConfig(), stopSignal,
			capture.WithLogger(o.logger),
		),
		Transcriber: speechtotext.NewTranscriber(model,
			speechtotext.WithSampleRate(settings.Capture.SampleRate),
			speechtotext.WithLogger(o.logger),
		),
		Executor: executor,
		Speaker: texttospeech.NewSpeaker(synthesizer, host,
			texttospeech.WithVoice(settings.Voice()),
			texttospeech.WithPlaybackOptions(settings.PlaybackOptions()),
			texttospeech.WithReusedOutputStream(o.reuseOutput),
			texttospeech.WithLogger(o.logger),
		),
		Registry: orchestration.NewRegistry(),
		ownsHost: ownsHost,
	}
	rt.Context = &orchestration.RuntimeContext{
		Config:      settings.PipelineConfig(),
		Stop:        stopSignal,
		Wakeword:    rt.Gate,
		Listener:    rt.Listener,
		Transcriber: rt.Transcriber,
		Executor:    rt.Executor,
		Speaker:     rt.Speaker,
	}
	if err := rt.Registry.Validate(); err != nil {
		return nil, err
	}
	orchestratorOpts := append([]orchestration.OrchestratorOption{orchestration.WithLogger(o.logger)}, o.orchestratorOpts...)
	rt.Orchestrator = orchestration.NewOrchestrator(rt.Context, rt.Registry, orchestratorOpts...)

	return rt, nil
}

func newSegmentModel(settings config.Settings, logger *slog.Logger) (speechtotext.SegmentModel, error) {
	opts := []sttdeepgram.ClientOption{
		sttdeepgram.WithModel(settings.SpeechToText.Model),
		sttdeepgram.WithLanguage(settings.SpeechToText.Language),
		sttdeepgram.WithLogger(logger),
	}
	if settings.SpeechToText.URL != "" {
		opts = append(opts, sttdeepgram.WithListenURL(settings.SpeechToText.URL))
	}
	client, err := sttdeepgram.NewTranscriptionClient(settings.SpeechToText.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription client: %w", err)
	}
	return client, nil
}

func newSynthesizer(settings config.Settings, logger *slog.Logger) (texttospeech.Synthesizer, error) {
	opts := []ttsdeepgram.SynthesizerOption{
		ttsdeepgram.WithSampleRate(settings.TextToSpeech.SampleRate),
		ttsdeepgram.WithLogger(logger),
	}
	if settings.TextToSpeech.URL != "" {
		opts = append(opts, ttsdeepgram.WithSpeakURL(settings.TextToSpeech.URL))
	}
	synthesizer, err := ttsdeepgram.NewSynthesizer(settings.TextToSpeech.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech synthesizer: %w", err)
	}
	return synthesizer, nil
}

// Close releases the speaker output stream and, when Build opened it, the
// audio backend.
func (rt *Runtime) Close() error {
	var errs []error
	if err := rt.Speaker.Close(); err != nil {
		errs = append(errs, err)
	}
	if rt.ownsHost {
		if err := rt.Host.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close audio backend: %w", err))
		}
	}
	return errors.Join(errs...)
}
