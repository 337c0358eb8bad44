package texttospeech

import (
	"log/slog"
	"time"
)

// Voice selects how the synthesizer renders text.
type Voice struct {
	Name     string
	Speed    float64
	Language string
}

// PlaybackOptions shape synthesized audio before it is played.
type PlaybackOptions struct {
	// Device is empty for the default output device.
	Device string
	// Fade is the length of the linear fade applied to both ends.
	Fade time.Duration
	// Padding is the silence added before and after the speech.
	Padding time.Duration
	// Prewarm is the silence written ahead of every utterance so the device
	// is running by the time speech starts.
	Prewarm time.Duration
}

func DefaultPlaybackOptions() PlaybackOptions {
	return PlaybackOptions{
		Fade:    20 * time.Millisecond,
		Padding: 40 * time.Millisecond,
		Prewarm: 50 * time.Millisecond,
	}
}

type SpeakerOption func(*Speaker)

func WithVoice(voice Voice) SpeakerOption {
	return func(s *Speaker) { s.voice = voice }
}

func WithPlaybackOptions(options PlaybackOptions) SpeakerOption {
	return func(s *Speaker) { s.playback = options }
}

// WithReusedOutputStream keeps one output stream open between utterances
// instead of opening a new one for each. Enabled by default.
func WithReusedOutputStream(reuse bool) SpeakerOption {
	return func(s *Speaker) { s.reuseOutputStream = reuse }
}

func WithLogger(logger *slog.Logger) SpeakerOption {
	return func(s *Speaker) {
		if logger != nil {
			s.logger = logger
		}
	}
}
