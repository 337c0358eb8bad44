// Package config loads the assistant settings. Values from the optional YAML
// file are overridden by the environment, which includes the variables of the
// project .env file that were not already set.
package config

import (
	"path/filepath"
	"time"
)

const (
	BackendPortAudio = "portaudio"
	BackendMiniaudio = "miniaudio"
)

type Settings struct {
	ProjectRoot string `yaml:"-" json:"-"`

	Wakeword     WakewordSettings     `yaml:"wakeword" json:"wakeword"`
	Audio        AudioSettings        `yaml:"audio" json:"audio"`
	Capture      CaptureSettings      `yaml:"capture" json:"capture"`
	Pipeline     PipelineSettings     `yaml:"pipeline" json:"pipeline"`
	SpeechToText SpeechToTextSettings `yaml:"speech_to_text" json:"speech_to_text"`
	TextToSpeech TextToSpeechSettings `yaml:"text_to_speech" json:"text_to_speech"`
	Gateway      GatewaySettings      `yaml:"gateway" json:"gateway"`
	Log          LogSettings          `yaml:"log" json:"log"`
	Telemetry    TelemetrySettings    `yaml:"telemetry" json:"telemetry"`
}

type WakewordSettings struct {
	AccessKey   string  `yaml:"access_key" json:"access_key,omitempty" jsonschema:"description=Picovoice access key (PORCUPINE_ACCESS_KEY)"`
	KeywordPath string  `yaml:"keyword_path" json:"keyword_path" jsonschema:"description=Porcupine keyword file (PORCUPINE_KEYWORD_PATH)"`
	Sensitivity float32 `yaml:"sensitivity" json:"sensitivity" jsonschema:"minimum=0,maximum=1,default=0.55"`
	ModelPath   string  `yaml:"model_path,omitempty" json:"model_path,omitempty"`
	LibraryPath string  `yaml:"library_path,omitempty" json:"library_path,omitempty"`
}

type AudioSettings struct {
	Backend      string `yaml:"backend" json:"backend" jsonschema:"enum=portaudio,enum=miniaudio,default=portaudio"`
	InputDevice  string `yaml:"input_device,omitempty" json:"input_device,omitempty" jsonschema:"description=Device index or name; empty selects the system default"`
	OutputDevice string `yaml:"output_device,omitempty" json:"output_device,omitempty" jsonschema:"description=Device index or name; empty selects the system default"`
}

// CaptureSettings bound a command recording. Field names match capture.Config.
type CaptureSettings struct {
	SampleRate       int           `yaml:"sample_rate" json:"sample_rate" jsonschema:"default=16000"`
	MaxDuration      time.Duration `yaml:"max_duration" json:"max_duration" jsonschema:"type=string,default=8s"`
	MinDuration      time.Duration `yaml:"min_duration" json:"min_duration" jsonschema:"type=string,default=1s"`
	SilenceDuration  time.Duration `yaml:"silence_duration" json:"silence_duration" jsonschema:"type=string,default=900ms"`
	SilenceThreshold float64       `yaml:"silence_threshold" json:"silence_threshold" jsonschema:"description=RMS threshold on the int16 sample scale,default=180"`
}

// PipelineSettings field names match orchestration.Config.
type PipelineSettings struct {
	WakewordLabel      string        `yaml:"wakeword_label" json:"wakeword_label"`
	ListenStartPrompt  string        `yaml:"listen_start_prompt" json:"listen_start_prompt"`
	WakeHelloPrompt    string        `yaml:"wake_hello_prompt" json:"wake_hello_prompt"`
	WakewordStartDelay time.Duration `yaml:"wakeword_start_delay" json:"wakeword_start_delay" jsonschema:"type=string,default=400ms"`
}

type SpeechToTextSettings struct {
	APIKey   string `yaml:"api_key" json:"api_key,omitempty" jsonschema:"description=Deepgram API key (DEEPGRAM_API_KEY)"`
	Model    string `yaml:"model" json:"model" jsonschema:"default=nova-3"`
	Language string `yaml:"language" json:"language" jsonschema:"default=en-US"`
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
}

type TextToSpeechSettings struct {
	APIKey     string        `yaml:"api_key" json:"api_key,omitempty"`
	Voice      string        `yaml:"voice" json:"voice" jsonschema:"default=aura-2-thalia-en"`
	Speed      float64       `yaml:"speed" json:"speed" jsonschema:"default=1"`
	Language   string        `yaml:"language" json:"language" jsonschema:"default=en-us"`
	SampleRate int           `yaml:"sample_rate" json:"sample_rate" jsonschema:"default=24000"`
	URL        string        `yaml:"url,omitempty" json:"url,omitempty"`
	Fade       time.Duration `yaml:"fade" json:"fade" jsonschema:"type=string,default=20ms"`
	Padding    time.Duration `yaml:"padding" json:"padding" jsonschema:"type=string,default=40ms"`
	Prewarm    time.Duration `yaml:"prewarm" json:"prewarm" jsonschema:"type=string,default=50ms"`
}

type GatewaySettings struct {
	URL     string        `yaml:"url" json:"url" jsonschema:"default=http://127.0.0.1:3000/v1/assistant"`
	Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"type=string,default=10s"`
}

type LogSettings struct {
	Level  string `yaml:"level" json:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Format string `yaml:"format" json:"format" jsonschema:"enum=text,enum=json,default=text"`
	OTel   bool   `yaml:"otel" json:"otel" jsonschema:"description=Route log records through the OpenTelemetry bridge"`
}

type TelemetrySettings struct {
	Endpoint    string `yaml:"endpoint,omitempty" json:"endpoint,omitempty" jsonschema:"description=OTLP gRPC endpoint; empty disables trace export"`
	ServiceName string `yaml:"service_name" json:"service_name"`
}

// Default returns the settings used when nothing overrides them.
func Default(root string) Settings {
	return Settings{
		ProjectRoot: root,
		Wakeword: WakewordSettings{
			KeywordPath: filepath.Join(root, "models", "porcupine", "openclaw_mac.ppn"),
			Sensitivity: 0.55,
		},
		Audio: AudioSettings{Backend: BackendPortAudio},
		Capture: CaptureSettings{
			SampleRate:       16000,
			MaxDuration:      8 * time.Second,
			MinDuration:      time.Second,
			SilenceDuration:  900 * time.Millisecond,
			SilenceThreshold: 180,
		},
		Pipeline: PipelineSettings{
			WakewordLabel:      "wake word",
			ListenStartPrompt:  "Listening",
			WakeHelloPrompt:    "Hi",
			WakewordStartDelay: 400 * time.Millisecond,
		},
		SpeechToText: SpeechToTextSettings{
			Model:    "nova-3",
			Language: "en-US",
		},
		TextToSpeech: TextToSpeechSettings{
			Voice:      "aura-2-thalia-en",
			Speed:      1.0,
			Language:   "en-us",
			SampleRate: 24000,
			Fade:       20 * time.Millisecond,
			Padding:    40 * time.Millisecond,
			Prewarm:    50 * time.Millisecond,
		},
		Gateway: GatewaySettings{
			URL:     "http://127.0.0.1:3000/v1/assistant",
			Timeout: 10 * time.Second,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetrySettings{
			ServiceName: "openclaw-assistant",
		},
	}
}
