package app

import (
	"log/slog"

	orchestration "github.com/aashishsingla567/openclaw-assistant/core"
	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/aashishsingla567/openclaw-assistant/core/speechtotext"
	"github.com/aashishsingla567/openclaw-assistant/core/texttospeech"
	"github.com/aashishsingla567/openclaw-assistant/core/wakeword"
)

type Option func(*options)

type options struct {
	logger           *slog.Logger
	host             audio.Host
	detectorFactory  wakeword.DetectorFactory
	segmentModel     speechtotext.SegmentModel
	synthesizer      texttospeech.Synthesizer
	executor         orchestration.ActionExecutor
	reuseOutput      bool
	orchestratorOpts []orchestration.OrchestratorOption
}

func newOptions(opts []Option) options {
	o := options{logger: logger, reuseOutput: true}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAudioHost uses host instead of opening the configured backend. The
// caller keeps ownership of host.
func WithAudioHost(host audio.Host) Option {
	return func(o *options) { o.host = host }
}

func WithDetectorFactory(factory wakeword.DetectorFactory) Option {
	return func(o *options) { o.detectorFactory = factory }
}

func WithSegmentModel(model speechtotext.SegmentModel) Option {
	return func(o *options) { o.segmentModel = model }
}

func WithSynthesizer(synthesizer texttospeech.Synthesizer) Option {
	return func(o *options) { o.synthesizer = synthesizer }
}

func WithActionExecutor(executor orchestration.ActionExecutor) Option {
	return func(o *options) { o.executor = executor }
}

// WithReusedOutputStream controls whether the speaker keeps its output
// stream open between utterances.
func WithReusedOutputStream(reuse bool) Option {
	return func(o *options) { o.reuseOutput = reuse }
}

func WithOrchestratorOptions(opts ...orchestration.OrchestratorOption) Option {
	return func(o *options) { o.orchestratorOpts = append(o.orchestratorOpts, opts...) }
}
