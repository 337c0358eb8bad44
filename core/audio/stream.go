package audio

import (
	"context"
	"errors"
)

// InputConfig addresses a mono or multi-channel int16 capture stream.
//
// Device is empty for the system default, a decimal index, or a device name.
type InputConfig struct {
	SampleRate      int
	Channels        int
	FramesPerBuffer int
	Device          string
}

// InputStream is a blocking capture stream. Read fills the whole frame and
// returns io.EOF once a finite source is exhausted.
type InputStream interface {
	Read(frame []int16) error
	Close() error
}

type InputOpener interface {
	OpenInput(ctx context.Context, cfg InputConfig) (InputStream, error)
}

type OutputConfig struct {
	SampleRate int
	Channels   int
	Device     string
}

// OutputStream is a blocking playback stream. Write returns once the samples
// have been handed to the device.
type OutputStream interface {
	Write(samples []float32) error
	Close() error
}

type OutputOpener interface {
	OpenOutput(ctx context.Context, cfg OutputConfig) (OutputStream, error)
}

type DeviceInfo struct {
	Index             int     `json:"index"`
	Name              string  `json:"name"`
	HostAPI           string  `json:"host_api,omitempty"`
	MaxInputChannels  int     `json:"max_input_channels"`
	MaxOutputChannels int     `json:"max_output_channels"`
	DefaultSampleRate float64 `json:"default_sample_rate,omitempty"`
	IsDefaultInput    bool    `json:"is_default_input"`
	IsDefaultOutput   bool    `json:"is_default_output"`
}

type DeviceLister interface {
	Devices() ([]DeviceInfo, error)
}

// Host is a complete audio backend.
type Host interface {
	InputOpener
	OutputOpener
	DeviceLister
	Close() error
}

var ErrDeviceNotFound = errors.New("audio device not found")
