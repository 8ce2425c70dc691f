package input

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// ErrNotInitialized is returned by device functions called outside Initialize/Terminate.
var ErrNotInitialized = errors.New("portaudio not initialized")

var (
	paMu     sync.Mutex
	paActive bool
)

// Initialize starts PortAudio. Calls while already active are no-ops.
func Initialize() error {
	paMu.Lock()
	defer paMu.Unlock()
	if paActive {
		return nil
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	paActive = true
	return nil
}

// Terminate stops PortAudio if Initialize succeeded.
func Terminate() {
	paMu.Lock()
	defer paMu.Unlock()
	if !paActive {
		return
	}
	_ = portaudio.Terminate()
	paActive = false
}

func initialized() bool {
	paMu.Lock()
	defer paMu.Unlock()
	return paActive
}

// Device describes a capture-capable PortAudio device in a Go-friendly way.
type Device struct {
	Index           int
	Name            string
	Channels        int
	DefaultSampleHz float64
	HostAPI         string
	IsDefault       bool
}

// InputDevices returns every device with at least one input channel, in PortAudio order.
// The position in this slice is the index accepted by Config.DeviceIndex.
func InputDevices() ([]*portaudio.DeviceInfo, error) {
	if !initialized() {
		return nil, ErrNotInitialized
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list audio devices: %w", err)
	}
	inputs := make([]*portaudio.DeviceInfo, 0, len(devices))
	for _, d := range devices {
		if d != nil && d.MaxInputChannels > 0 {
			inputs = append(inputs, d)
		}
	}
	return inputs, nil
}

// ListDevices describes all input devices with their selection index.
func ListDevices() ([]Device, error) {
	inputs, err := InputDevices()
	if err != nil {
		return nil, err
	}

	defaultIndex := -1
	if def, err := portaudio.DefaultInputDevice(); err == nil && def != nil {
		defaultIndex = def.Index
	}

	out := make([]Device, 0, len(inputs))
	for i, d := range inputs {
		host := ""
		if d.HostApi != nil {
			host = d.HostApi.Name
		}
		out = append(out, Device{
			Index:           i,
			Name:            d.Name,
			Channels:        d.MaxInputChannels,
			DefaultSampleHz: d.DefaultSampleRate,
			HostAPI:         host,
			IsDefault:       d.Index == defaultIndex,
		})
	}
	return out, nil
}
