// Package wavfile reads and writes mono 16-bit WAV recordings so captured
// commands can be replayed and inspected without a microphone.
package wavfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrInvalidFile = errors.New("invalid WAV file")

// Opener serves a WAV file as a finite input stream. The file must match the
// requested sample rate, multi-channel files are downmixed to the first
// channel.
type Opener struct {
	Path string
}

func NewOpener(path string) *Opener {
	return &Opener{Path: path}
}

func (o *Opener) OpenInput(_ context.Context, cfg audio.InputConfig) (audio.InputStream, error) {
	samples, sampleRate, err := Read(o.Path)
	if err != nil {
		return nil, err
	}
	if sampleRate != cfg.SampleRate {
		return nil, fmt.Errorf("%w: %s is %d Hz, expected %d Hz", ErrInvalidFile, o.Path, sampleRate, cfg.SampleRate)
	}

	return &stream{samples: samples}, nil
}

// Read decodes the first channel of a PCM WAV file into int16 samples.
func Read(path string) ([]int16, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	decoder := wav.NewDecoder(file)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidFile, path)
	}

	buffer, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	channels := max(1, buffer.Format.NumChannels)
	shift := int(decoder.BitDepth) - 16
	samples := make([]int16, 0, len(buffer.Data)/channels)
	for i := 0; i < len(buffer.Data); i += channels {
		value := buffer.Data[i]
		switch {
		case shift > 0:
			value >>= shift
		case shift < 0:
			value <<= -shift
		}
		samples = append(samples, int16(value))
	}

	return samples, buffer.Format.SampleRate, nil
}

// Write stores normalized samples as a mono 16-bit WAV file.
func Write(path string, samples audio.Buffer, sampleRate int) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	return Encode(file, samples, sampleRate)
}

func Encode(w io.WriteSeeker, samples audio.Buffer, sampleRate int) error {
	encoder := wav.NewEncoder(w, sampleRate, 16, 1, 1)

	pcm := samples.Int16()
	data := make([]int, len(pcm))
	for i, sample := range pcm {
		data[i] = int(sample)
	}

	if err := encoder.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		return fmt.Errorf("failed to encode WAV data: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	return nil
}

type stream struct {
	samples []int16
	offset  int
}

func (s *stream) Read(frame []int16) error {
	if s.offset >= len(s.samples) {
		return io.EOF
	}

	n := copy(frame, s.samples[s.offset:])
	clear(frame[n:])
	s.offset += n
	return nil
}

func (s *stream) Close() error { return nil }
