// Package input opens PortAudio capture streams that feed the audio energy publisher.
package input

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gordonklaus/portaudio"
	"github.com/guidoenr/spectralmesh/internal/audio"
)

// ErrNoInputDevice is returned when no capture-capable device exists.
var ErrNoInputDevice = errors.New("no audio input devices found")

// Capture wraps a PortAudio input stream. Its callback feeds the Energy publisher and
// the sample Tap; neither blocks the audio thread.
type Capture struct {
	stream     *portaudio.Stream
	sampleRate float64
	channels   int
	device     *portaudio.DeviceInfo

	energy *audio.Energy
	tap    *audio.Tap
}

// Config controls how a Capture instance is created. DeviceName is a substring match
// and wins over DeviceIndex; a negative DeviceIndex selects the default input.
type Config struct {
	DeviceName  string
	DeviceIndex int
	BufferSize  int
	Channels    int
}

const defaultBufferSize = 2048

// NewCapture opens and starts a PortAudio input stream using the provided configuration.
func NewCapture(cfg Config) (*Capture, error) {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}

	device, err := findDevice(cfg.DeviceName, cfg.DeviceIndex)
	if err != nil {
		return nil, err
	}

	channels := cfg.Channels
	if device.MaxInputChannels < channels {
		channels = device.MaxInputChannels
	}

	sampleRate := device.DefaultSampleRate
	capture := &Capture{
		sampleRate: sampleRate,
		channels:   channels,
		device:     device,
		energy:     audio.NewEnergy(sampleRate),
		tap:        audio.NewTap(cfg.BufferSize),
	}

	framesPerBuffer := cfg.BufferSize / channels
	if framesPerBuffer < 64 {
		framesPerBuffer = portaudio.FramesPerBufferUnspecified
	}

	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      sampleRate,
		FramesPerBuffer: framesPerBuffer,
	}, capture.process)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	capture.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, fmt.Errorf("start stream: %w", err)
	}
	return capture, nil
}

func (c *Capture) process(in []float32) {
	c.energy.Process(in, c.channels)
	c.tap.Write(in, c.channels)
}

// Close stops and closes the underlying PortAudio stream.
func (c *Capture) Close() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil && !isInvalidStreamState(err) {
		return err
	}
	return c.stream.Close()
}

// Energy returns the level publisher fed by this stream.
func (c *Capture) Energy() *audio.Energy { return c.energy }

// Tap returns the recent-sample ring fed by this stream.
func (c *Capture) Tap() *audio.Tap { return c.tap }

// SampleRate returns the stream sample rate.
func (c *Capture) SampleRate() float64 { return c.sampleRate }

// Channels returns the number of captured channels.
func (c *Capture) Channels() int { return c.channels }

// Device returns the PortAudio device associated with the capture stream.
func (c *Capture) Device() *portaudio.DeviceInfo { return c.device }

func findDevice(name string, index int) (*portaudio.DeviceInfo, error) {
	inputs, err := InputDevices()
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, ErrNoInputDevice
	}

	if name != "" {
		lower := strings.ToLower(name)
		for _, d := range inputs {
			if strings.Contains(strings.ToLower(d.Name), lower) {
				return d, nil
			}
		}
		return nil, fmt.Errorf("audio device %q not found", name)
	}

	if index >= 0 {
		if index >= len(inputs) {
			return nil, fmt.Errorf("audio device %d not found (found %d inputs)", index, len(inputs))
		}
		return inputs[index], nil
	}

	if dev, err := portaudio.DefaultInputDevice(); err == nil && dev != nil && dev.MaxInputChannels > 0 {
		return dev, nil
	}
	return inputs[0], nil
}

// isInvalidStreamState checks if the provided error stems from stopping an already stopped stream.
func isInvalidStreamState(err error) bool {
	if err == nil {
		return false
	}
	const invalidStateMsg = "PaErrorCode -9986"
	return strings.Contains(err.Error(), invalidStateMsg)
}
