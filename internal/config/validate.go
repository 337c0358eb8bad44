package config

import (
	"errors"
	"fmt"
	"os"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrMissingAsset      = errors.New("missing asset")
	ErrInvalidSetting    = errors.New("invalid setting")
)

// Validate checks setting ranges. It does not touch the filesystem or
// require credentials; see ValidateRuntimeAssets.
func (s Settings) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidSetting}, args...)...))
	}

	if err := s.CaptureConfig().Validate(); err != nil {
		invalid("capture: %v", err)
	}
	if s.Wakeword.Sensitivity < 0 || s.Wakeword.Sensitivity > 1 {
		invalid("PORCUPINE_SENSITIVITY must be within [0, 1], got %v", s.Wakeword.Sensitivity)
	}
	switch s.Audio.Backend {
	case BackendPortAudio, BackendMiniaudio:
	default:
		invalid("OPENCLAW_AUDIO_BACKEND must be one of %s|%s, got %q", BackendPortAudio, BackendMiniaudio, s.Audio.Backend)
	}
	if s.Pipeline.WakewordStartDelay < 0 {
		invalid("OPENCLAW_WAKEWORD_START_DELAY must be >= 0")
	}
	if s.TextToSpeech.Speed <= 0 {
		invalid("OPENCLAW_TTS_SPEED must be > 0")
	}
	if s.TextToSpeech.SampleRate <= 0 {
		invalid("OPENCLAW_TTS_SAMPLE_RATE must be > 0")
	}
	if s.TextToSpeech.Fade < 0 || s.TextToSpeech.Padding < 0 || s.TextToSpeech.Prewarm < 0 {
		invalid("OPENCLAW_TTS_FADE_MS, OPENCLAW_TTS_PADDING_MS and OPENCLAW_TTS_PREWARM_MS must be >= 0")
	}
	if s.Gateway.URL == "" {
		invalid("OPENCLAW_REST_URL must be set")
	}
	if s.Gateway.Timeout <= 0 {
		invalid("OPENCLAW_TIMEOUT_SECONDS must be > 0")
	}
	switch s.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		invalid("OPENCLAW_LOG_LEVEL must be one of debug|info|warn|error, got %q", s.Log.Level)
	}
	switch s.Log.Format {
	case "text", "json":
	default:
		invalid("OPENCLAW_LOG_FORMAT must be one of text|json, got %q", s.Log.Format)
	}
	if s.Log.OTel && s.Telemetry.Endpoint == "" {
		invalid("OPENCLAW_LOG_OTEL requires OTEL_EXPORTER_OTLP_ENDPOINT, records would be dropped")
	}

	return errors.Join(errs...)
}

// ValidateRuntimeAssets checks the credentials and model files the run loop
// needs. includeTTS also checks the synthesis settings, which commands that
// never speak can skip.
func (s Settings) ValidateRuntimeAssets(includeTTS bool) error {
	if s.Wakeword.AccessKey == "" {
		return fmt.Errorf("%w: PORCUPINE_ACCESS_KEY is not set, set it in your environment", ErrMissingCredential)
	}
	if _, err := os.Stat(s.Wakeword.KeywordPath); err != nil {
		return fmt.Errorf("%w: wake-word model %s", ErrMissingAsset, s.Wakeword.KeywordPath)
	}
	if s.SpeechToText.APIKey == "" {
		return fmt.Errorf("%w: DEEPGRAM_API_KEY is not set, it is required for transcription", ErrMissingCredential)
	}
	if !includeTTS {
		return nil
	}
	if s.TextToSpeech.APIKey == "" {
		return fmt.Errorf("%w: DEEPGRAM_API_KEY is not set, it is required for speech synthesis", ErrMissingCredential)
	}
	if s.TextToSpeech.Voice == "" {
		return fmt.Errorf("%w: OPENCLAW_TTS_VOICE is empty", ErrMissingAsset)
	}
	return nil
}
