package audio

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	DefaultSampleRate = 16000
	// Linear16 names little endian signed 16 bit PCM, the framing exchanged
	// with speech services.
	Linear16 = "linear16"
)

// int16Scale is the divisor used to normalize int16 PCM into [-1.0, 1.0].
const int16Scale = 32768.0

// Buffer is a mono sequence of normalized samples in [-1.0, 1.0]. An empty
// buffer is valid and means nothing was captured.
type Buffer []float32

func (b Buffer) Len() int { return len(b) }

func (b Buffer) IsEmpty() bool { return len(b) == 0 }

// Duration reports how long the buffer plays at the given sample rate, in
// seconds.
func (b Buffer) Duration(sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(b)) / float64(sampleRate)
}

// FromInt16 normalizes int16 PCM samples by dividing by 32768.
func FromInt16(samples []int16) Buffer {
	buffer := make(Buffer, len(samples))
	for i, sample := range samples {
		buffer[i] = float32(sample) / int16Scale
	}
	return buffer
}

// Int16 converts the buffer back into int16 PCM, clipping out of range
// samples.
func (b Buffer) Int16() []int16 {
	samples := make([]int16, len(b))
	for i, sample := range b {
		scaled := math.Round(float64(sample) * int16Scale)
		switch {
		case scaled > math.MaxInt16:
			scaled = math.MaxInt16
		case scaled < math.MinInt16:
			scaled = math.MinInt16
		}
		samples[i] = int16(scaled)
	}
	return samples
}

// Linear16 encodes the buffer as little-endian 16-bit PCM.
func (b Buffer) Linear16() []byte {
	samples := b.Int16()
	out := make([]byte, len(samples)*2)
	for i, sample := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out
}

// FromLinear16 decodes little-endian 16-bit PCM. A trailing odd byte is an
// error.
func FromLinear16(data []byte) (Buffer, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("linear16 payload has odd length %d", len(data))
	}

	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return FromInt16(samples), nil
}

// RMS is the root mean square of int16 samples, on the int16 scale.
func RMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, sample := range samples {
		value := float64(sample)
		sum += value * value
	}
	return math.Sqrt(sum / float64(len(samples)))
}
