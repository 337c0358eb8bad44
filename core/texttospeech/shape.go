package texttospeech

import (
	"time"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
)

func samplesFor(d time.Duration, sampleRate int) int {
	if d <= 0 || sampleRate <= 0 {
		return 0
	}
	return int(int64(sampleRate) * int64(d) / int64(time.Second))
}

// ShapeAudio applies a linear fade to both ends and pads both sides with
// silence. The fade is skipped for waveforms shorter than two fades. The input
// is not modified.
func ShapeAudio(samples audio.Buffer, sampleRate int, fade, padding time.Duration) audio.Buffer {
	fadeLen := samplesFor(fade, sampleRate)
	padLen := samplesFor(padding, sampleRate)

	shaped := make(audio.Buffer, padLen+len(samples)+padLen)
	body := shaped[padLen : padLen+len(samples)]
	copy(body, samples)

	if fadeLen > 0 && len(body) > fadeLen*2 {
		for i := range fadeLen {
			gain := float32(1)
			if fadeLen > 1 {
				gain = float32(i) / float32(fadeLen-1)
			}
			body[i] *= gain
			body[len(body)-1-i] *= gain
		}
	}
	return shaped
}
