package config

import (
	"fmt"

	orchestration "github.com/aashishsingla567/openclaw-assistant/core"
	"github.com/aashishsingla567/openclaw-assistant/core/capture"
	"github.com/aashishsingla567/openclaw-assistant/core/texttospeech"
	"github.com/aashishsingla567/openclaw-assistant/core/wakeword/porcupine"
	"github.com/jinzhu/copier"
)

// CaptureConfig derives the command listener configuration.
func (s Settings) CaptureConfig() capture.Config {
	var cfg capture.Config
	mustCopy(&cfg, &s.Capture)
	cfg.Device = s.Audio.InputDevice
	return cfg
}

// PorcupineConfig derives the wake word detector configuration.
func (s Settings) PorcupineConfig() porcupine.Config {
	var cfg porcupine.Config
	mustCopy(&cfg, &s.Wakeword)
	return cfg
}

// PipelineConfig derives the settings the orchestrator reads during a cycle.
func (s Settings) PipelineConfig() orchestration.Config {
	var cfg orchestration.Config
	mustCopy(&cfg, &s.Pipeline)
	return cfg
}

func (s Settings) PlaybackOptions() texttospeech.PlaybackOptions {
	var options texttospeech.PlaybackOptions
	mustCopy(&options, &s.TextToSpeech)
	options.Device = s.Audio.OutputDevice
	return options
}

func (s Settings) Voice() texttospeech.Voice {
	return texttospeech.Voice{
		Name:     s.TextToSpeech.Voice,
		Speed:    s.TextToSpeech.Speed,
		Language: s.TextToSpeech.Language,
	}
}

// mustCopy copies the fields shared by a settings section and the config it
// derives. copier only fails on mismatched kinds, which no input can cause.
func mustCopy(to, from any) {
	if err := copier.Copy(to, from); err != nil {
		panic(fmt.Sprintf("failed to derive %T from %T: %v", to, from, err))
	}
}
