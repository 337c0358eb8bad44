package miniaudio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/gen2brain/malgo"
)

var errStreamClosed = errors.New("stream closed")

// captureStream buffers callback audio until a blocking Read drains it.
type captureStream struct {
	device *malgo.Device

	mu         sync.Mutex
	cond       *sync.Cond
	pending    []byte
	maxPending int
	closed     bool
}

func openCapture(audioContext *malgo.AllocatedContext, cfg audio.InputConfig, deviceID unsafe.Pointer) (*captureStream, error) {
	channels := max(1, cfg.Channels)
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(cfg.SampleRate)
	config.Capture.Format = format
	config.Capture.Channels = uint32(channels)
	config.Capture.DeviceID = deviceID
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = 480
	config.Periods = 3

	stream := &captureStream{
		// a second of audio is kept if the reader falls behind
		maxPending: cfg.SampleRate * bytesPerFrame,
	}
	stream.cond = sync.NewCond(&stream.mu)

	device, err := malgo.InitDevice(audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			stream.push(pInput[:n])
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}
	stream.device = device

	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("failed to start capture device: %w", err)
	}

	return stream, nil
}

func (s *captureStream) push(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, data...)
	if overflow := len(s.pending) - s.maxPending; overflow > 0 {
		s.pending = s.pending[overflow+overflow%2:]
	}
	s.cond.Broadcast()
}

func (s *captureStream) Read(frame []int16) error {
	need := len(frame) * 2

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.pending) < need && !s.closed {
		s.cond.Wait()
	}
	if s.closed {
		return errStreamClosed
	}

	for i := range frame {
		frame[i] = int16(binary.LittleEndian.Uint16(s.pending[i*2:]))
	}
	s.pending = s.pending[need:]
	return nil
}

func (s *captureStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cond.Broadcast()
	s.mu.Unlock()

	var err error
	if s.device.IsStarted() {
		if stopErr := s.device.Stop(); stopErr != nil {
			err = fmt.Errorf("failed to stop capture device: %w", stopErr)
		}
	}
	s.device.Uninit()
	return err
}
