// Package config persists the performer's device and tuning choices between sessions.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MIDIConfig selects the control surface input port.
type MIDIConfig struct {
	PortName  string `yaml:"port_name,omitempty"`
	PortIndex int    `yaml:"port_index"`
	Disabled  bool   `yaml:"disabled,omitempty"`
}

// AudioConfig selects the capture device.
type AudioConfig struct {
	DeviceName  string `yaml:"device_name,omitempty"`
	DeviceIndex int    `yaml:"device_index"`
	BufferSize  int    `yaml:"buffer_size"`
	Disabled    bool   `yaml:"disabled,omitempty"`
}

// TuningConfig holds the automation and audio reaction constants.
type TuningConfig struct {
	SmoothFactor   float64 `yaml:"smooth_factor"`
	LatchThreshold float64 `yaml:"latch_threshold"`
	KickThreshold  float64 `yaml:"kick_threshold"`
	Sensitivity    float64 `yaml:"sensitivity"`
	QueueDepth     int     `yaml:"queue_depth"`
}

// DisplayConfig holds preview and panel preferences.
type DisplayConfig struct {
	FPS     float64 `yaml:"fps"`
	Palette string  `yaml:"palette"`
	WebPort int     `yaml:"web_port"`
}

// Config is the on-disk configuration.
type Config struct {
	MIDI    MIDIConfig    `yaml:"midi"`
	Audio   AudioConfig   `yaml:"audio"`
	Tuning  TuningConfig  `yaml:"tuning"`
	Display DisplayConfig `yaml:"display"`
}

// DefaultConfig returns a config with the stock tuning.
func DefaultConfig() *Config {
	return &Config{
		MIDI:  MIDIConfig{PortIndex: 0},
		Audio: AudioConfig{DeviceIndex: -1, BufferSize: 2048},
		Tuning: TuningConfig{
			SmoothFactor:   0.5,
			LatchThreshold: 0.04,
			KickThreshold:  0.15,
			Sensitivity:    1,
			QueueDepth:     256,
		},
		Display: DisplayConfig{FPS: 60, Palette: "default", WebPort: 0},
	}
}

// Dir returns the config directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "spectralmesh"), nil
}

// Path returns the full path to config.yaml.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads the config from its default location, or returns defaults if absent.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads the config at path. Fields missing from the file keep their defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to its default location.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating parent directories.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// normalize replaces out-of-range values with defaults.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Tuning.SmoothFactor <= 0 || c.Tuning.SmoothFactor >= 1 {
		c.Tuning.SmoothFactor = def.Tuning.SmoothFactor
	}
	if c.Tuning.LatchThreshold <= 0 {
		c.Tuning.LatchThreshold = def.Tuning.LatchThreshold
	}
	if c.Tuning.KickThreshold <= 0 {
		c.Tuning.KickThreshold = def.Tuning.KickThreshold
	}
	if c.Tuning.Sensitivity < 0 || c.Tuning.Sensitivity > 5 {
		c.Tuning.Sensitivity = def.Tuning.Sensitivity
	}
	if c.Tuning.QueueDepth <= 0 {
		c.Tuning.QueueDepth = def.Tuning.QueueDepth
	}
	if c.Display.FPS <= 0 {
		c.Display.FPS = def.Display.FPS
	}
	if c.Audio.BufferSize <= 0 {
		c.Audio.BufferSize = def.Audio.BufferSize
	}
	if c.Display.Palette == "" {
		c.Display.Palette = def.Display.Palette
	}
}
