package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aashishsingla567/openclaw-assistant/internal/dotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the settings for the project rooted at root. The .env file in
// root is merged into the environment without overriding it, the YAML file
// named by OPENCLAW_CONFIG is applied over the defaults and the environment
// is applied last. An empty root means the working directory.
func Load(root string) (Settings, error) {
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Settings{}, fmt.Errorf("failed to resolve project root: %w", err)
		}
		root = wd
	}

	if err := dotenv.LoadFile(filepath.Join(root, ".env")); err != nil {
		return Settings{}, fmt.Errorf("failed to load .env: %w", err)
	}

	settings := Default(root)
	if path := strings.TrimSpace(os.Getenv("OPENCLAW_CONFIG")); path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, expandHome(path))
		}
		if err := loadFile(path, &settings); err != nil {
			return Settings{}, err
		}
	}

	if err := applyEnv(&settings); err != nil {
		return Settings{}, err
	}
	settings.ProjectRoot = root

	return settings, nil
}

func loadFile(path string, settings *Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return fmt.Errorf("%w: failed to parse config file %s: %v", ErrInvalidSetting, path, err)
	}
	return nil
}

func applyEnv(s *Settings) error {
	env := envReader{}

	env.str("PORCUPINE_ACCESS_KEY", &s.Wakeword.AccessKey)
	env.path("PORCUPINE_KEYWORD_PATH", &s.Wakeword.KeywordPath)
	env.decimal32("PORCUPINE_SENSITIVITY", &s.Wakeword.Sensitivity)
	env.path("PORCUPINE_MODEL_PATH", &s.Wakeword.ModelPath)
	env.path("PORCUPINE_LIBRARY_PATH", &s.Wakeword.LibraryPath)

	env.str("OPENCLAW_AUDIO_BACKEND", &s.Audio.Backend)
	env.str("OPENCLAW_AUDIO_INPUT_DEVICE", &s.Audio.InputDevice)
	env.str("OPENCLAW_AUDIO_OUTPUT_DEVICE", &s.Audio.OutputDevice)

	env.integer("OPENCLAW_COMMAND_SAMPLE_RATE", &s.Capture.SampleRate)
	env.seconds("OPENCLAW_RECORD_MAX_SECONDS", &s.Capture.MaxDuration)
	env.seconds("OPENCLAW_RECORD_MIN_SECONDS", &s.Capture.MinDuration)
	env.seconds("OPENCLAW_SILENCE_SECONDS", &s.Capture.SilenceDuration)
	env.decimal("OPENCLAW_SILENCE_THRESHOLD", &s.Capture.SilenceThreshold)

	env.str("WAKEWORD_LABEL", &s.Pipeline.WakewordLabel)
	env.str("OPENCLAW_LISTEN_START_PROMPT", &s.Pipeline.ListenStartPrompt)
	env.str("OPENCLAW_WAKE_HELLO_PROMPT", &s.Pipeline.WakeHelloPrompt)
	env.seconds("OPENCLAW_WAKEWORD_START_DELAY", &s.Pipeline.WakewordStartDelay)

	env.str("DEEPGRAM_API_KEY", &s.SpeechToText.APIKey)
	env.str("DEEPGRAM_API_KEY", &s.TextToSpeech.APIKey)
	env.str("OPENCLAW_STT_MODEL", &s.SpeechToText.Model)
	env.str("OPENCLAW_STT_LANGUAGE", &s.SpeechToText.Language)
	env.str("OPENCLAW_STT_URL", &s.SpeechToText.URL)

	env.str("OPENCLAW_TTS_VOICE", &s.TextToSpeech.Voice)
	env.decimal("OPENCLAW_TTS_SPEED", &s.TextToSpeech.Speed)
	env.str("OPENCLAW_TTS_LANGUAGE", &s.TextToSpeech.Language)
	env.integer("OPENCLAW_TTS_SAMPLE_RATE", &s.TextToSpeech.SampleRate)
	env.str("OPENCLAW_TTS_URL", &s.TextToSpeech.URL)
	env.millis("OPENCLAW_TTS_FADE_MS", &s.TextToSpeech.Fade)
	env.millis("OPENCLAW_TTS_PADDING_MS", &s.TextToSpeech.Padding)
	env.millis("OPENCLAW_TTS_PREWARM_MS", &s.TextToSpeech.Prewarm)

	env.str("OPENCLAW_REST_URL", &s.Gateway.URL)
	env.seconds("OPENCLAW_TIMEOUT_SECONDS", &s.Gateway.Timeout)

	env.str("OPENCLAW_LOG_LEVEL", &s.Log.Level)
	env.str("OPENCLAW_LOG_FORMAT", &s.Log.Format)
	env.boolean("OPENCLAW_LOG_OTEL", &s.Log.OTel)

	env.str("OTEL_EXPORTER_OTLP_ENDPOINT", &s.Telemetry.Endpoint)
	env.str("OTEL_SERVICE_NAME", &s.Telemetry.ServiceName)

	return env.err()
}

// envReader overrides settings from the environment. Unset and blank
// variables keep the current value. Parse failures are collected.
type envReader struct {
	errs []error
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}

func (r *envReader) lookup(name string) (string, bool) {
	value := strings.TrimSpace(os.Getenv(name))
	return value, value != ""
}

func (r *envReader) invalid(name, value, kind string) {
	r.errs = append(r.errs, fmt.Errorf("%w: %s=%q is not %s", ErrInvalidSetting, name, value, kind))
}

func (r *envReader) str(name string, target *string) {
	if value, ok := r.lookup(name); ok {
		*target = value
	}
}

func (r *envReader) path(name string, target *string) {
	if value, ok := r.lookup(name); ok {
		*target = expandHome(value)
	}
}

func (r *envReader) integer(name string, target *int) {
	value, ok := r.lookup(name)
	if !ok {
		return
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		r.invalid(name, value, "an integer")
		return
	}
	*target = parsed
}

func (r *envReader) decimal(name string, target *float64) {
	value, ok := r.lookup(name)
	if !ok {
		return
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.invalid(name, value, "a number")
		return
	}
	*target = parsed
}

func (r *envReader) decimal32(name string, target *float32) {
	value, ok := r.lookup(name)
	if !ok {
		return
	}
	parsed, err := strconv.ParseFloat(value, 32)
	if err != nil {
		r.invalid(name, value, "a number")
		return
	}
	*target = float32(parsed)
}

func (r *envReader) seconds(name string, target *time.Duration) {
	r.scaled(name, target, time.Second)
}

func (r *envReader) millis(name string, target *time.Duration) {
	r.scaled(name, target, time.Millisecond)
}

func (r *envReader) scaled(name string, target *time.Duration, unit time.Duration) {
	value, ok := r.lookup(name)
	if !ok {
		return
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.invalid(name, value, "a number")
		return
	}
	*target = time.Duration(parsed * float64(unit))
}

func (r *envReader) boolean(name string, target *bool) {
	value, ok := r.lookup(name)
	if !ok {
		return
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		r.invalid(name, value, "a boolean")
		return
	}
	*target = parsed
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
