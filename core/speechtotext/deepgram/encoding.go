package deepgram

import (
	"errors"
	"fmt"
	"slices"
)

var ErrUnsupportedSampleRate = errors.New("unsupported sample rate")

// listenSampleRates are the linear16 rates the listen endpoint decodes
// without resampling.
var listenSampleRates = []int{8000, 16000, 24000, 32000, 48000}

func checkSampleRate(sampleRate int) error {
	if !slices.Contains(listenSampleRates, sampleRate) {
		return fmt.Errorf("%w: %d Hz", ErrUnsupportedSampleRate, sampleRate)
	}
	return nil
}
