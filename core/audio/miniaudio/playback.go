package miniaudio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unsafe"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/gen2brain/malgo"
)

// playbackStream queues PCM for the device callback; Write blocks until the
// queue has been handed to the device.
type playbackStream struct {
	device   *malgo.Device
	channels int

	mu      sync.Mutex
	drained *sync.Cond
	pending []byte
	closed  bool
}

func openPlayback(audioContext *malgo.AllocatedContext, cfg audio.OutputConfig, deviceID unsafe.Pointer) (*playbackStream, error) {
	channels := max(1, cfg.Channels)
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels
	sampleRate := uint32(cfg.SampleRate)

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = sampleRate
	config.Playback.Format = format
	config.Playback.Channels = uint32(channels)
	config.Playback.DeviceID = deviceID
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = sampleRate / 10 // ~100ms of audio
	config.Periods = 4

	stream := &playbackStream{channels: channels}
	stream.drained = sync.NewCond(&stream.mu)

	device, err := malgo.InitDevice(
		audioContext.Context,
		config,
		malgo.DeviceCallbacks{Data: stream.processAudio(bytesPerFrame)},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	stream.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	return stream, nil
}

func (s *playbackStream) Write(samples []float32) error {
	pcm := audio.Buffer(samples).Int16()
	data := make([]byte, 0, len(pcm)*2*s.channels)
	for _, sample := range pcm {
		for range s.channels {
			data = binary.LittleEndian.AppendUint16(data, uint16(sample))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errStreamClosed
	}

	s.pending = append(s.pending, data...)
	for len(s.pending) > 0 && !s.closed {
		s.drained.Wait()
	}
	return nil
}

func (s *playbackStream) processAudio(bytesPerFrame int) malgo.DataProc {
	return func(pOutput, _ []byte, frameCount uint32) {
		need := min(int(frameCount)*bytesPerFrame, len(pOutput))

		s.mu.Lock()
		defer s.mu.Unlock()

		n := copy(pOutput[:need], s.pending)
		clear(pOutput[n:need])
		s.pending = s.pending[n:]
		if len(s.pending) == 0 {
			s.drained.Broadcast()
		}
	}
}

func (s *playbackStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.pending = nil
	s.drained.Broadcast()
	s.mu.Unlock()

	var err error
	if s.device.IsStarted() {
		if stopErr := s.device.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop playback device: %w", stopErr)
		}
	}
	s.device.Uninit()
	return err
}
