// Package deepgram synthesizes speech with the Deepgram streaming speak API.
package deepgram

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gorilla/websocket"
)

const (
	defaultSpeakURL   = "wss://api.deepgram.com/v1/speak"
	defaultVoice      = "aura-2-thalia-en"
	defaultSampleRate = 24000
)

var ErrMissingAPIKey = errors.New("deepgram api key not found")

// Synthesizer renders a whole utterance per call over a short lived
// websocket session.
type Synthesizer struct {
	apiKey     string
	speakURL   string
	sampleRate int
	dialer     *websocket.Dialer
	logger     *slog.Logger
}

type SynthesizerOption func(*Synthesizer)

// WithSpeakURL points the synthesizer at a different speak endpoint.
func WithSpeakURL(speakURL string) SynthesizerOption {
	return func(s *Synthesizer) { s.speakURL = speakURL }
}

// WithSampleRate sets the rate of the linear16 audio requested from Deepgram.
func WithSampleRate(sampleRate int) SynthesizerOption {
	return func(s *Synthesizer) {
		if sampleRate > 0 {
			s.sampleRate = sampleRate
		}
	}
}

func WithLogger(l *slog.Logger) SynthesizerOption {
	return func(s *Synthesizer) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSynthesizer(apiKey string, opts ...SynthesizerOption) (*Synthesizer, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	synthesizer := &Synthesizer{
		apiKey:     apiKey,
		speakURL:   defaultSpeakURL,
		sampleRate: defaultSampleRate,
		dialer:     websocket.DefaultDialer,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(synthesizer)
	}
	return synthesizer, nil
}

// voiceModel maps a voice name to a Deepgram model, defaulting to Thalia.
func voiceModel(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return defaultVoice
}
