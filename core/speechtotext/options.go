package speechtotext

import "log/slog"

type TranscriberOption func(*Transcriber)

// WithSampleRate sets the rate the captured buffers were recorded at.
func WithSampleRate(sampleRate int) TranscriberOption {
	return func(t *Transcriber) {
		if sampleRate > 0 {
			t.sampleRate = sampleRate
		}
	}
}

func WithLogger(logger *slog.Logger) TranscriberOption {
	return func(t *Transcriber) {
		if logger != nil {
			t.logger = logger
		}
	}
}
