package portaudio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/gordonklaus/portaudio"
)

const defaultOutputFramesPerBuffer = 1024

// Host opens blocking PortAudio streams. PortAudio is initialized once per
// Host and terminated on Close.
type Host struct {
	closeOnce sync.Once
}

func NewHost() (*Host, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return &Host{}, nil
}

func (h *Host) Close() error {
	var err error
	h.closeOnce.Do(func() {
		if terminateErr := portaudio.Terminate(); terminateErr != nil {
			err = fmt.Errorf("failed to terminate PortAudio: %w", terminateErr)
		}
	})
	return err
}

func (h *Host) Devices() ([]audio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list PortAudio devices: %w", err)
	}

	var defaultInput, defaultOutput string
	if device, err := portaudio.DefaultInputDevice(); err == nil && device != nil {
		defaultInput = device.Name
	}
	if device, err := portaudio.DefaultOutputDevice(); err == nil && device != nil {
		defaultOutput = device.Name
	}

	infos := make([]audio.DeviceInfo, 0, len(devices))
	for _, device := range devices {
		info := audio.DeviceInfo{
			Index:             device.Index,
			Name:              device.Name,
			MaxInputChannels:  device.MaxInputChannels,
			MaxOutputChannels: device.MaxOutputChannels,
			DefaultSampleRate: device.DefaultSampleRate,
			IsDefaultInput:    device.Name == defaultInput,
			IsDefaultOutput:   device.Name == defaultOutput,
		}
		if device.HostApi != nil {
			info.HostAPI = device.HostApi.Name
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (h *Host) OpenInput(_ context.Context, cfg audio.InputConfig) (audio.InputStream, error) {
	device, err := resolveDevice(cfg.Device, true)
	if err != nil {
		return nil, err
	}

	channels := max(1, cfg.Channels)
	params := portaudio.LowLatencyParameters(device, nil)
	params.Input.Channels = channels
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = cfg.FramesPerBuffer

	buffer := make([]int16, cfg.FramesPerBuffer*channels)
	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open PortAudio input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to start PortAudio input stream: %w", err), stream.Close())
	}

	return &inputStream{stream: stream, buffer: buffer}, nil
}

func (h *Host) OpenOutput(_ context.Context, cfg audio.OutputConfig) (audio.OutputStream, error) {
	device, err := resolveDevice(cfg.Device, false)
	if err != nil {
		return nil, err
	}

	channels := max(1, cfg.Channels)
	params := portaudio.LowLatencyParameters(nil, device)
	params.Output.Channels = channels
	params.SampleRate = float64(cfg.SampleRate)
	params.FramesPerBuffer = defaultOutputFramesPerBuffer

	buffer := make([]float32, defaultOutputFramesPerBuffer*channels)
	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open PortAudio output stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to start PortAudio output stream: %w", err), stream.Close())
	}

	return &outputStream{stream: stream, buffer: buffer, channels: channels}, nil
}

// resolveDevice maps an empty identifier to the default device, a number to a
// device index and anything else to a device whose name contains it.
func resolveDevice(id string, input bool) (*portaudio.DeviceInfo, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		if input {
			return portaudio.DefaultInputDevice()
		}
		return portaudio.DefaultOutputDevice()
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to list PortAudio devices: %w", err)
	}

	usable := func(device *portaudio.DeviceInfo) bool {
		if input {
			return device.MaxInputChannels > 0
		}
		return device.MaxOutputChannels > 0
	}

	if index, err := strconv.Atoi(id); err == nil {
		for _, device := range devices {
			if device.Index == index && usable(device) {
				return device, nil
			}
		}
		return nil, fmt.Errorf("%w: index %d", audio.ErrDeviceNotFound, index)
	}

	for _, device := range devices {
		if usable(device) && strings.Contains(strings.ToLower(device.Name), strings.ToLower(id)) {
			return device, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", audio.ErrDeviceNotFound, id)
}

type inputStream struct {
	stream *portaudio.Stream
	buffer []int16
}

func (s *inputStream) Read(frame []int16) error {
	if len(frame) != len(s.buffer) {
		return fmt.Errorf("frame holds %d samples, stream delivers %d", len(frame), len(s.buffer))
	}

	if err := s.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return fmt.Errorf("failed to read from PortAudio stream: %w", err)
	}
	copy(frame, s.buffer)
	return nil
}

func (s *inputStream) Close() error {
	return errors.Join(s.stream.Stop(), s.stream.Close())
}

type outputStream struct {
	stream   *portaudio.Stream
	buffer   []float32
	channels int
}

func (s *outputStream) Write(samples []float32) error {
	frames := len(s.buffer) / s.channels
	for offset := 0; offset < len(samples); offset += frames {
		chunk := samples[offset:min(offset+frames, len(samples))]
		for i := range frames {
			var sample float32
			if i < len(chunk) {
				sample = chunk[i]
			}
			for channel := range s.channels {
				s.buffer[i*s.channels+channel] = sample
			}
		}

		if err := s.stream.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			return fmt.Errorf("failed to write to PortAudio stream: %w", err)
		}
	}
	return nil
}

func (s *outputStream) Close() error {
	return errors.Join(s.stream.Stop(), s.stream.Close())
}
