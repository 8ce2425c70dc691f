package app

import (
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/eiannone/keyboard"
	"github.com/guidoenr/spectralmesh/internal/automation"
	"github.com/guidoenr/spectralmesh/internal/config"
	"github.com/guidoenr/spectralmesh/internal/control"
	"github.com/guidoenr/spectralmesh/internal/state"
)

// newTestApp builds an app with no devices and neutral audio.
func newTestApp(t *testing.T) *App {
	t.Helper()
	a, err := New(Config{
		DisableAudio: true,
		DisableMIDI:  true,
		Width:        40,
		Height:       12,
		Log:          log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	a.fake = nil
	return a
}

func TestFirstTickDefaults(t *testing.T) {
	a := newTestApp(t)
	snap, _ := a.update()
	if snap.CenterX != 0 || snap.CenterY != 0 {
		t.Fatalf("center=(%f,%f) want 0", snap.CenterX, snap.CenterY)
	}
	if snap.GridDensity != 64 {
		t.Fatalf("grid=%d want 64", snap.GridDensity)
	}
	if math.Abs(snap.LumaKeyLevel-0.5) > 1e-12 {
		t.Fatalf("luma=%f want 0.5", snap.LumaKeyLevel)
	}
}

func TestQueuedCommandsApplyBeforeTick(t *testing.T) {
	a := newTestApp(t)
	a.webQueue.Push(control.RecordStart{})
	snap, _ := a.update()
	if !a.bank.Recording() {
		t.Fatalf("record start not applied")
	}
	if snap.Step != 1 {
		t.Fatalf("step=%d want 1", snap.Step)
	}

	a.webQueue.Push(control.RecordStop{})
	a.update()
	if a.bank.Recording() || a.bank.Step() != 1 {
		t.Fatalf("recording=%v step=%d", a.bank.Recording(), a.bank.Step())
	}
}

func TestContinuousCommandReachesSnapshot(t *testing.T) {
	a := newTestApp(t)
	// passes within the latch threshold first, then moves
	a.webQueue.Push(control.Continuous{Track: automation.LumaKeyLevel, Value: 0.5})
	a.webQueue.Push(control.Continuous{Track: automation.LumaKeyLevel, Value: 1})
	var last float64
	for i := 0; i < 60; i++ {
		snap, _ := a.update()
		last = snap.LumaKeyLevel
	}
	if math.Abs(last-1) > 1e-6 {
		t.Fatalf("luma=%f want 1", last)
	}
}

func TestKeyNudges(t *testing.T) {
	a := newTestApp(t)
	for _, ch := range "aattt]]o" {
		a.handleKey(keyEvent{char: ch})
	}
	if math.Abs(a.offsets.LumaKey-0.02) > 1e-12 {
		t.Fatalf("luma offset=%f", a.offsets.LumaKey)
	}
	if a.offsets.CenterX != 15 || a.offsets.GridDensity != 2 || a.offsets.Zoom != 5 {
		t.Fatalf("offsets=%+v", a.offsets)
	}
	snap, _ := a.update()
	if snap.GridDensity != 66 {
		t.Fatalf("grid=%d want 66", snap.GridDensity)
	}
	if math.Abs(snap.CenterX-1.5) > 1e-12 {
		t.Fatalf("center x=%f want 1.5", snap.CenterX)
	}
}

func TestKeyToggles(t *testing.T) {
	a := newTestApp(t)
	for _, ch := range "1235" {
		a.handleKey(keyEvent{char: ch})
	}
	v := a.state.Visuals
	if !v.LumaSwitch || !v.BrightSwitch || !v.Invert || !v.Greyscale {
		t.Fatalf("toggles=%+v", v)
	}
	a.handleKey(keyEvent{char: '3'})
	if a.state.Visuals.Invert {
		t.Fatalf("invert should toggle back off")
	}

	a.handleKey(keyEvent{char: '6'})
	a.handleKey(keyEvent{char: '6'})
	if a.state.Visuals.Z.Shape != control.ShapeSaw {
		t.Fatalf("z shape=%d", a.state.Visuals.Z.Shape)
	}

	a.handleKey(keyEvent{char: '9'})
	if a.state.Visuals.Mesh != state.MeshVerticalLines {
		t.Fatalf("mesh=%v", a.state.Visuals.Mesh)
	}
	a.handleKey(keyEvent{char: '='})
	if a.state.Visuals.Mesh != state.MeshGrid {
		t.Fatalf("mesh=%v", a.state.Visuals.Mesh)
	}

	a.dispatcher.Apply(control.SetMesh{Kind: control.MeshWireframe})
	a.handleKey(keyEvent{char: '0'})
	a.handleKey(keyEvent{char: '-'})
	if v := a.state.Visuals; v.Mesh != state.MeshTriangles || !v.Wireframe {
		t.Fatalf("mesh keys should keep wireframe: %+v", v)
	}
}

func TestArrowKeys(t *testing.T) {
	a := newTestApp(t)
	a.handleKey(keyEvent{key: keyboard.KeyArrowRight})
	a.handleKey(keyEvent{key: keyboard.KeyArrowRight})
	a.handleKey(keyEvent{key: keyboard.KeyArrowLeft})
	if math.Abs(a.state.Transform.RotateZ-0.05) > 1e-12 {
		t.Fatalf("rotate z=%f", a.state.Transform.RotateZ)
	}
	a.handleKey(keyEvent{key: keyboard.KeyArrowUp})
	if math.Abs(a.synth.Sensitivity-1.1) > 1e-12 {
		t.Fatalf("sensitivity=%f", a.synth.Sensitivity)
	}

	a.webQueue.Push(control.Reset{})
	a.update()
	if a.state.Transform.RotateZ != 0 {
		t.Fatalf("reset should clear rotation")
	}
}

func TestQuitAndHelpKeys(t *testing.T) {
	a := newTestApp(t)
	if a.handleKey(keyEvent{char: '?'}) || !a.showHelp {
		t.Fatalf("help toggle")
	}
	if !a.handleKey(keyEvent{key: keyboard.KeyEsc}) {
		t.Fatalf("esc should quit")
	}
	if a.handleKey(keyEvent{char: 'q'}) {
		t.Fatalf("q nudges displacement and must not quit")
	}
}

func TestSyntheticAudioFeedsSynthesizer(t *testing.T) {
	a := newTestApp(t)
	a.fake = newFakeGenerator(7)
	var moved bool
	for i := 0; i < 120; i++ {
		snap, features := a.update()
		if features.Overall < 0 || features.Overall > 1 {
			t.Fatalf("overall=%f", features.Overall)
		}
		if snap.AudioDisplacement > 0 {
			moved = true
		}
	}
	if !moved {
		t.Fatalf("synthetic audio never reached the snapshot")
	}
}

func TestSaveConfig(t *testing.T) {
	a := newTestApp(t)
	settings := config.DefaultConfig()
	settings.MIDI.PortName = "nanoKONTROL2"
	a.cfg.Settings = settings
	a.cfg.ConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	a.telemetry.Sensitivity = 2

	path, err := a.SaveConfig()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.MIDI.PortName != "nanoKONTROL2" || got.Tuning.Sensitivity != 2 {
		t.Fatalf("saved=%+v", got)
	}
	if settings.Tuning.Sensitivity != 1 {
		t.Fatalf("caller settings were modified")
	}
}

func TestTuningFromConfig(t *testing.T) {
	silent := 0.0
	a, err := New(Config{
		DisableAudio: true,
		DisableMIDI:  true,
		Width:        20,
		Height:       8,
		SmoothFactor: 1,
		Sensitivity:  &silent,
		Log:          log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	if a.bank.SmoothFactor != 0.5 {
		t.Fatalf("smooth factor 1 should be rejected, got %f", a.bank.SmoothFactor)
	}
	if a.synth.Sensitivity != 0 {
		t.Fatalf("sensitivity=%f want 0", a.synth.Sensitivity)
	}

	a.cfg.ConfigPath = filepath.Join(t.TempDir(), "config.yaml")
	path, err := a.SaveConfig()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Tuning.Sensitivity != 0 {
		t.Fatalf("saved sensitivity=%f want 0", got.Tuning.Sensitivity)
	}
}

func TestProfilerWritesCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.csv")
	p := newProfiler(path, nil)
	p.beginFrame()
	p.markSection("render")
	p.endFrame()
	p.markSection("ignored")
	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], ",render,") || !strings.Contains(lines[2], ",frame_total,") {
		t.Fatalf("csv=%q", data)
	}

	var nilProf *profiler
	nilProf.beginFrame()
	nilProf.markSection("x")
	if err := nilProf.Close(); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

func TestOverlayHelpKeepsFrameHeight(t *testing.T) {
	lines := make([]string, 30)
	out := overlayHelp(lines, 100)
	if len(out) != 30 {
		t.Fatalf("lines=%d", len(out))
	}
	if !strings.Contains(strings.Join(out, "\n"), "esc quit") {
		t.Fatalf("help text missing")
	}
	if short := overlayHelp(make([]string, 3), 10); len(short) != 3 {
		t.Fatalf("short frame grew to %d", len(short))
	}
}

func TestStatusBarPads(t *testing.T) {
	if got := statusBar("abc", 6); !strings.Contains(got, "abc") || !strings.HasSuffix(got, "   ") {
		t.Fatalf("status=%q", got)
	}
}
