package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	orchestration "github.com/aashishsingla567/openclaw-assistant/core"
	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/aashishsingla567/openclaw-assistant/core/audio/wavfile"
	"github.com/aashishsingla567/openclaw-assistant/core/capture"
	"github.com/aashishsingla567/openclaw-assistant/core/events"
	"github.com/aashishsingla567/openclaw-assistant/core/gateway"
	"github.com/aashishsingla567/openclaw-assistant/core/speechtotext"
	"github.com/aashishsingla567/openclaw-assistant/core/stop"
	"github.com/aashishsingla567/openclaw-assistant/core/texttospeech"
	"github.com/aashishsingla567/openclaw-assistant/core/wakeword"
	"github.com/aashishsingla567/openclaw-assistant/core/wakeword/porcupine"
	"github.com/aashishsingla567/openclaw-assistant/internal/config"
)

// Diagnostics exercises one part of the pipeline at a time and reports on
// out.
type Diagnostics struct {
	settings config.Settings
	out      io.Writer
	opts     []Option
	o        options
}

func NewDiagnostics(settings config.Settings, out io.Writer, opts ...Option) *Diagnostics {
	return &Diagnostics{settings: settings, out: out, opts: opts, o: newOptions(opts)}
}

// openHost returns the injected host or opens the configured backend. The
// release function closes only what was opened here.
func (d *Diagnostics) openHost() (audio.Host, func() error, error) {
	if d.o.host != nil {
		return d.o.host, func() error { return nil }, nil
	}
	host, err := NewHost(d.settings.Audio.Backend)
	if err != nil {
		return nil, nil, err
	}
	return host, host.Close, nil
}

func (d *Diagnostics) printf(format string, args ...any) {
	fmt.Fprintf(d.out, format, args...)
}

// Devices prints the audio devices as JSON.
func (d *Diagnostics) Devices(context.Context) (err error) {
	host, release, err := d.openHost()
	if err != nil {
		return err
	}
	defer func() { err = joinClose(err, release) }()

	devices, err := host.Devices()
	if err != nil {
		return fmt.Errorf("failed to list audio devices: %w", err)
	}
	data, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode devices: %w", err)
	}
	d.printf("%s\n", data)
	return nil
}

// TTS speaks text with a speaker that does not reuse its output stream.
func (d *Diagnostics) TTS(ctx context.Context, text string) (err error) {
	synthesizer := d.o.synthesizer
	if synthesizer == nil {
		if synthesizer, err = newSynthesizer(d.settings, d.o.logger); err != nil {
			return err
		}
	}
	host, release, err := d.openHost()
	if err != nil {
		return err
	}
	defer func() { err = joinClose(err, release) }()

	playback := d.settings.PlaybackOptions()
	speaker := texttospeech.NewSpeaker(synthesizer, host,
		texttospeech.WithVoice(d.settings.Voice()),
		texttospeech.WithPlaybackOptions(playback),
		texttospeech.WithReusedOutputStream(false),
		texttospeech.WithLogger(d.o.logger),
	)
	defer func() { err = joinClose(err, speaker.Close) }()

	d.printf("TTS settings:\n")
	d.printf("  voice=%s\n", d.settings.TextToSpeech.Voice)
	d.printf("  fade_ms=%d\n", playback.Fade.Milliseconds())
	d.printf("  padding_ms=%d\n", playback.Padding.Milliseconds())
	d.printf("  prewarm_ms=%d\n", playback.Prewarm.Milliseconds())
	d.printf("  output_device=%s\n", deviceLabel(playback.Device))

	return speaker.Speak(ctx, text)
}

type STTOptions struct {
	// Duration of the live recording. Ignored when File is set.
	Duration time.Duration
	// File transcribes a WAV file instead of recording.
	File string
	// Save writes the live recording to a WAV file.
	Save string
}

// STT records (or reads) a fixed amount of audio and prints its transcript.
func (d *Diagnostics) STT(ctx context.Context, opts STTOptions) (err error) {
	model := d.o.segmentModel
	if model == nil {
		if model, err = newSegmentModel(d.settings, d.o.logger); err != nil {
			return err
		}
	}

	var (
		samples    audio.Buffer
		sampleRate = d.settings.Capture.SampleRate
	)
	if opts.File != "" {
		pcm, rate, err := wavfile.Read(opts.File)
		if err != nil {
			return err
		}
		samples, sampleRate = audio.FromInt16(pcm), rate
		d.printf("Transcribing %s (%.1fs)...\n", opts.File, samples.Duration(sampleRate))
	} else if samples, err = d.recordLive(ctx, opts); err != nil {
		return err
	}

	transcriber := speechtotext.NewTranscriber(model,
		speechtotext.WithSampleRate(sampleRate),
		speechtotext.WithLogger(d.o.logger),
	)
	text, err := transcriber.Transcribe(ctx, samples)
	if err != nil {
		return err
	}
	d.printf("Transcription:\n%s\n", text)
	return nil
}

func (d *Diagnostics) recordLive(ctx context.Context, opts STTOptions) (samples audio.Buffer, err error) {
	host, release, err := d.openHost()
	if err != nil {
		return nil, err
	}
	defer func() { err = joinClose(err, release) }()

	d.printf("Recording %.1fs... speak now\n", opts.Duration.Seconds())
	samples, err = capture.RecordFixed(ctx, host, d.settings.CaptureConfig(), opts.Duration, stop.New())
	if err != nil {
		return nil, err
	}
	if opts.Save != "" {
		if err := wavfile.Write(opts.Save, samples, d.settings.Capture.SampleRate); err != nil {
			return nil, err
		}
		d.printf("Saved recording to %s\n", opts.Save)
	}
	return samples, nil
}

// Gateway sends text to the gateway and prints the reply.
func (d *Diagnostics) Gateway(ctx context.Context, text string) error {
	executor := d.o.executor
	if executor == nil {
		executor = gateway.NewHTTPExecutor(d.settings.Gateway.URL, d.settings.Gateway.Timeout)
	}
	response, err := executor.Execute(ctx, text)
	if err != nil {
		return err
	}
	d.printf("OpenClaw response:\n%s\n", response)
	return nil
}

// Wakeword listens for the wake phrase for up to timeout.
func (d *Diagnostics) Wakeword(ctx context.Context, timeout time.Duration) (err error) {
	factory := d.o.detectorFactory
	if factory == nil {
		cfg := d.settings.PorcupineConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}
		factory = porcupine.NewDetectorFactory(cfg)
	}
	host, release, err := d.openHost()
	if err != nil {
		return err
	}
	defer func() { err = joinClose(err, release) }()

	gate := wakeword.NewGate(factory, host, stop.New(),
		wakeword.WithDevice(d.settings.Audio.InputDevice),
		wakeword.WithLogger(d.o.logger),
	)
	if err := d.printWakewordSettings(gate); err != nil {
		return err
	}

	d.printf("Listening for wakeword for up to %.1fs... say '%s'.\n", timeout.Seconds(), d.settings.Pipeline.WakewordLabel)
	detected, err := gate.WaitForWakeword(ctx, timeout)
	if err != nil {
		return err
	}
	if detected {
		d.printf("Wakeword detected.\n")
	} else {
		d.printf("Wakeword NOT detected before timeout.\n")
	}
	return nil
}

type PipelineOptions struct {
	// Timeout bounds the wait for the wake phrase.
	Timeout time.Duration
	// UseGateway sends the transcript to the gateway. Without it the action
	// stage never answers.
	UseGateway bool
	// File replays a WAV recording through the silence-bounded listener
	// instead of waiting for the wake phrase and recording the microphone.
	File string
}

// Pipeline runs exactly one cycle, after the wake phrase or straight away
// when replaying a file, and prints what it captured.
func (d *Diagnostics) Pipeline(ctx context.Context, opts PipelineOptions) (err error) {
	if opts.File == "" {
		if err := d.settings.ValidateRuntimeAssets(true); err != nil {
			return err
		}
	}
	runner, err := NewRunner(d.settings, d.opts...)
	if err != nil {
		return err
	}
	defer func() { err = joinClose(err, runner.Close) }()
	rt := runner.Runtime()

	if opts.File != "" {
		rt.Context.Listener = capture.NewSilenceBoundedListener(wavfile.NewOpener(opts.File), d.settings.CaptureConfig(), rt.Stop,
			capture.WithLogger(d.o.logger),
		)
		d.printf("Replaying %s through the listener...\n", opts.File)
	} else {
		if err := d.printWakewordSettings(rt.Gate); err != nil {
			return err
		}
		d.printf("Listening for wakeword for up to %.1fs... say '%s'.\n", opts.Timeout.Seconds(), d.settings.Pipeline.WakewordLabel)
		detected, err := rt.Gate.WaitForWakeword(ctx, opts.Timeout)
		if err != nil {
			return err
		}
		if !detected {
			d.printf("Wakeword NOT detected before timeout.\n")
			return nil
		}
		d.printf("Wakeword detected. Running assistant prompt/listen flow...\n")
	}

	if !opts.UseGateway {
		if err := rt.Registry.SetActionStage(orchestration.NoopActionStage{}); err != nil {
			return err
		}
	}
	recorded, err := rt.Orchestrator.RunEvents(ctx)
	if err != nil {
		return err
	}

	var text, response string
	for _, event := range recorded {
		switch e := event.(type) {
		case events.AudioCaptured:
			if opts.File != "" {
				d.printf("Captured %.2fs of command audio.\n", float64(e.SampleCount)/float64(d.settings.Capture.SampleRate))
			}
		case events.TextTranscribed:
			text = e.Text
		case events.ActionCompleted:
			response = e.Response
		}
	}
	d.printf("Pipeline transcription:\n%s\n", orEmpty(text))
	if opts.UseGateway {
		d.printf("Pipeline OpenClaw response:\n%s\n", orEmpty(response))
	}
	return nil
}

func (d *Diagnostics) printWakewordSettings(detector orchestration.WakewordDetector) error {
	sampleRate, frameLength, err := detector.AudioParams()
	if err != nil {
		return err
	}
	d.printf("Wakeword settings:\n")
	d.printf("  label=%s\n", d.settings.Pipeline.WakewordLabel)
	d.printf("  keyword_path=%s\n", d.settings.Wakeword.KeywordPath)
	d.printf("  sensitivity=%v\n", d.settings.Wakeword.Sensitivity)
	d.printf("  input_device=%s\n", deviceLabel(d.settings.Audio.InputDevice))
	d.printf("  sample_rate=%d\n", sampleRate)
	d.printf("  frame_length=%d\n", frameLength)
	return nil
}

func deviceLabel(device string) string {
	if device == "" {
		return "default"
	}
	return device
}

func orEmpty(text string) string {
	if text == "" {
		return "<empty>"
	}
	return text
}

func joinClose(err error, release func() error) error {
	return errors.Join(err, release())
}
