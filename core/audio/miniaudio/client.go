package miniaudio

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"unsafe"

	"github.com/aashishsingla567/openclaw-assistant/core/audio"
	"github.com/gen2brain/malgo"
)

// Host opens miniaudio devices through a single malgo context. The callback
// driven devices are bridged into the blocking stream contracts.
type Host struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	closeOnce    sync.Once
}

func NewHost() (*Host, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) { logger.Debug("miniaudio", "message", strings.TrimSpace(message)) },
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize miniaudio context: %w", err)
	}

	return &Host{audioContext: audioCtx}, nil
}

func (h *Host) Close() error {
	var err error
	h.closeOnce.Do(func() {
		if uninitErr := h.audioContext.Uninit(); uninitErr != nil {
			err = fmt.Errorf("failed to uninitialize miniaudio context: %w", uninitErr)
		}
		h.audioContext.Free()
	})
	return err
}

func (h *Host) Devices() ([]audio.DeviceInfo, error) {
	captureDevices, err := h.audioContext.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}
	playbackDevices, err := h.audioContext.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to list playback devices: %w", err)
	}

	infos := make([]audio.DeviceInfo, 0, len(captureDevices)+len(playbackDevices))
	for i := range captureDevices {
		infos = append(infos, audio.DeviceInfo{
			Index:            len(infos),
			Name:             captureDevices[i].Name(),
			MaxInputChannels: 1,
			IsDefaultInput:   captureDevices[i].IsDefault != 0,
		})
	}
	for i := range playbackDevices {
		infos = append(infos, audio.DeviceInfo{
			Index:             len(infos),
			Name:              playbackDevices[i].Name(),
			MaxOutputChannels: 1,
			IsDefaultOutput:   playbackDevices[i].IsDefault != 0,
		})
	}
	return infos, nil
}

func (h *Host) OpenInput(_ context.Context, cfg audio.InputConfig) (audio.InputStream, error) {
	devices, err := h.audioContext.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("failed to list capture devices: %w", err)
	}
	deviceID, err := selectDevice(devices, cfg.Device)
	if err != nil {
		return nil, err
	}

	return openCapture(h.audioContext, cfg, deviceID)
}

func (h *Host) OpenOutput(_ context.Context, cfg audio.OutputConfig) (audio.OutputStream, error) {
	devices, err := h.audioContext.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("failed to list playback devices: %w", err)
	}
	deviceID, err := selectDevice(devices, cfg.Device)
	if err != nil {
		return nil, err
	}

	return openPlayback(h.audioContext, cfg, deviceID)
}

// selectDevice returns nil for the default device. Numbers select by position
// in the device list, anything else by name.
func selectDevice(devices []malgo.DeviceInfo, id string) (unsafe.Pointer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	if index, err := strconv.Atoi(id); err == nil {
		if index < 0 || index >= len(devices) {
			return nil, fmt.Errorf("%w: index %d", audio.ErrDeviceNotFound, index)
		}
		return devices[index].ID.Pointer(), nil
	}

	for i := range devices {
		if strings.Contains(strings.ToLower(devices[i].Name()), strings.ToLower(id)) {
			return devices[i].ID.Pointer(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", audio.ErrDeviceNotFound, id)
}
