package app

import (
	"fmt"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/aashishsingla567/openclaw-assistant/core/audio/miniaudio"
	"github.com/aashishsingla567/openclaw-assistant/core/audio/portaudio"
	"github.com/aashishsingla567/openclaw-assistant/internal/config"
)

// NewHost opens the audio backend named by backend.
func NewHost(backend string) (audio.Host, error) {
	switch backend {
	case config.BackendPortAudio, "":
		host, err := portaudio.NewHost()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize portaudio: %w", err)
		}
		return host, nil
	case config.BackendMiniaudio:
		host, err := miniaudio.NewHost()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize miniaudio: %w", err)
		}
		return host, nil
	}
	return nil, fmt.Errorf("%w: unknown audio backend %q", config.ErrInvalidSetting, backend)
}
