package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tuning.SmoothFactor != 0.5 || cfg.Tuning.LatchThreshold != 0.04 {
		t.Fatalf("unexpected defaults: %+v", cfg.Tuning)
	}
	if cfg.Audio.DeviceIndex != -1 {
		t.Fatalf("audio index=%d want -1", cfg.Audio.DeviceIndex)
	}
	if cfg.Display.Palette != "default" {
		t.Fatalf("palette=%q want default", cfg.Display.Palette)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.MIDI.PortName = "nanoKONTROL2"
	cfg.Tuning.Sensitivity = 2.5
	cfg.Display.WebPort = 9090
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.MIDI.PortName != "nanoKONTROL2" || got.Tuning.Sensitivity != 2.5 || got.Display.WebPort != 9090 {
		t.Fatalf("round trip lost values: %+v", got)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "tuning:\n  smooth_factor: 0.2\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tuning.SmoothFactor != 0.2 {
		t.Fatalf("smooth=%f want 0.2", cfg.Tuning.SmoothFactor)
	}
	if cfg.Tuning.KickThreshold != 0.15 || cfg.Display.FPS != 60 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestOutOfRangeValuesAreReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "tuning:\n  smooth_factor: 3\n  sensitivity: 9\ndisplay:\n  fps: -1\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tuning.SmoothFactor != 0.5 || cfg.Tuning.Sensitivity != 1 || cfg.Display.FPS != 60 {
		t.Fatalf("normalize failed: %+v", cfg)
	}
}

func TestSmoothFactorMustBeOpenUnitInterval(t *testing.T) {
	cases := map[string]float64{
		"1":    0.5,
		"1.5":  0.5,
		"-0.2": 0.5,
		"0.99": 0.99,
		"0.1":  0.1,
	}
	for raw, want := range cases {
		path := filepath.Join(t.TempDir(), "config.yaml")
		body := "tuning:\n  smooth_factor: " + raw + "\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("load %s: %v", raw, err)
		}
		if cfg.Tuning.SmoothFactor != want {
			t.Fatalf("smooth_factor %s -> %f want %f", raw, cfg.Tuning.SmoothFactor, want)
		}
	}
}

func TestMalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tuning: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
