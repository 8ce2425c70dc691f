package render

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/guidoenr/spectralmesh/internal/analyzer"
	"github.com/guidoenr/spectralmesh/internal/control"
	"github.com/guidoenr/spectralmesh/internal/params"
	"github.com/guidoenr/spectralmesh/internal/state"
)

func flatSnapshot(density int) params.Snapshot {
	return params.Snapshot{GridDensity: density}
}

func countSet(s *surface) int {
	n := 0
	for _, c := range s.cells {
		if c.set {
			n++
		}
	}
	return n
}

func newTestRenderer(t *testing.T, w, h int) *Renderer {
	t.Helper()
	r, err := New(Options{Width: w, Height: h})
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}
	return r
}

func TestNewRejectsBadDimensions(t *testing.T) {
	if _, err := New(Options{Width: 0, Height: 10}); err == nil {
		t.Fatalf("expected error for zero width")
	}
}

func TestUnknownPaletteFallsBackToDefault(t *testing.T) {
	for name, want := range map[string]string{"": "default", "auto": "default", "dots": "dots"} {
		r, err := New(Options{Width: 4, Height: 4, Palette: name})
		if err != nil {
			t.Fatalf("new renderer: %v", err)
		}
		if r.PaletteName() != want || string(r.palette) != string(Palette(want)) {
			t.Fatalf("palette %q reported as %q", name, r.PaletteName())
		}
	}
}

func TestRenderProducesFullLines(t *testing.T) {
	r := newTestRenderer(t, 40, 12)
	frame := r.Render(flatSnapshot(8), state.New().Visuals, state.Transform{})
	if len(frame.Lines) != 12 {
		t.Fatalf("lines=%d want 12", len(frame.Lines))
	}
	for i, line := range frame.Lines {
		if n := utf8.RuneCountInString(line); n != 40 {
			t.Fatalf("line %d has %d runes", i, n)
		}
	}
	if frame.Present != nil {
		t.Fatalf("terminal frames are printed, not presented")
	}
}

func TestSolidTrianglesCoverMoreThanGrid(t *testing.T) {
	r := newTestRenderer(t, 80, 24)
	vis := state.New().Visuals

	r.rasterize(flatSnapshot(2), vis, state.Transform{})
	solid := countSet(&r.surface)

	vis.Mesh = state.MeshGrid
	r.rasterize(flatSnapshot(2), vis, state.Transform{})
	grid := countSet(&r.surface)

	if solid < 80*24*9/10 {
		t.Fatalf("solid mesh covered %d cells", solid)
	}
	if grid == 0 || grid >= solid {
		t.Fatalf("grid=%d solid=%d", grid, solid)
	}
}

func TestLumaKeyHidesEverything(t *testing.T) {
	r := newTestRenderer(t, 30, 10)
	vis := state.New().Visuals

	snap := flatSnapshot(4)
	snap.LumaKeyLevel = 1.01
	r.rasterize(snap, vis, state.Transform{})
	if n := countSet(&r.surface); n != 0 {
		t.Fatalf("expected fully keyed frame, %d cells set", n)
	}

	vis.LumaSwitch = true
	snap.LumaKeyLevel = -0.01
	r.rasterize(snap, vis, state.Transform{})
	if n := countSet(&r.surface); n != 0 {
		t.Fatalf("expected inverted key to hide all, %d cells set", n)
	}

	snap.LumaKeyLevel = 1.01
	r.rasterize(snap, vis, state.Transform{})
	if n := countSet(&r.surface); n == 0 {
		t.Fatalf("inverted key with high level should show the mesh")
	}
}

func TestLatticeSizeDoublesForLines(t *testing.T) {
	if got := latticeSize(10, state.MeshTriangles); got != 10 {
		t.Fatalf("triangles=%d", got)
	}
	if got := latticeSize(10, state.MeshHorizontalLines); got != 20 {
		t.Fatalf("lines=%d", got)
	}
	if got := latticeSize(0, state.MeshGrid); got != 2 {
		t.Fatalf("zero density=%d", got)
	}
}

func TestLfoWaveRanges(t *testing.T) {
	shapes := []control.Shape{control.ShapeSine, control.ShapeSquare, control.ShapeSaw, control.ShapeNoise}
	for _, shape := range shapes {
		for i := 0; i < 200; i++ {
			v := lfoWave(shape, float64(i)*0.173)
			if v < -1 || v > 1 {
				t.Fatalf("shape %d out of range: %f", shape, v)
			}
		}
	}
	if lfoWave(control.ShapeSquare, 0.5) != 1 || lfoWave(control.ShapeSquare, math.Pi+0.5) != -1 {
		t.Fatalf("square wave sign")
	}
	if v := lfoWave(control.ShapeSaw, math.Pi); math.Abs(v) > 1e-9 {
		t.Fatalf("saw midpoint=%f", v)
	}
}

func TestFreqZeroRemovesSpatialVariation(t *testing.T) {
	osc := newOscillator(state.AxisSwitches{FreqZero: true}, 0.3, 5, 1)
	if osc.eval(0.1, 0.5) != osc.eval(0.4, 0.5) {
		t.Fatalf("frequency zero should make the offset uniform")
	}
	ring := newOscillator(state.AxisSwitches{RingMod: true}, math.Pi/2, 0, 1)
	if got := ring.eval(0, 0.5); math.Abs(got) > 1e-9 {
		t.Fatalf("ring mod at mid grey should cancel, got %f", got)
	}
}

func TestDisplacementMovesVertices(t *testing.T) {
	vis := state.New().Visuals
	still := newDeformer(flatSnapshot(4), vis, state.Transform{}).place(0.25, 0.25)
	if math.Abs(still.x-0.25) > 1e-9 || math.Abs(still.y-0.25) > 1e-9 {
		t.Fatalf("flat snapshot moved vertex: %+v", still)
	}
	snap := flatSnapshot(4)
	snap.CenterX = 0.4
	moved := newDeformer(snap, vis, state.Transform{GlobalY: 0.1}).place(0.25, 0.25)
	if math.Abs(moved.x-0.45) > 1e-9 || math.Abs(moved.y-0.35) > 1e-9 {
		t.Fatalf("offsets not applied: %+v", moved)
	}
}

func TestShadeSwitches(t *testing.T) {
	c := cell{luma: 0.2, hue: 0.3, set: true}
	base, _, sat := shade(c, state.Visuals{})
	inv, _, _ := shade(c, state.Visuals{Invert: true})
	bright, _, _ := shade(c, state.Visuals{BrightSwitch: true})
	_, _, grey := shade(c, state.Visuals{Greyscale: true})
	if inv <= base || bright <= base {
		t.Fatalf("base=%f invert=%f bright=%f", base, inv, bright)
	}
	if sat == 0 || grey != 0 {
		t.Fatalf("saturation: colour=%f grey=%f", sat, grey)
	}
	if code := hsvToANSI(0.3, 0, 0.5); code < 232 {
		t.Fatalf("greyscale should use the grey ramp, got %d", code)
	}
}

func TestStatus(t *testing.T) {
	r := newTestRenderer(t, 10, 10)
	text := r.Status(StatusInfo{
		Features:  analyzer.Features{Bass: 0.5},
		FPS:       59.94,
		Step:      12,
		Recording: true,
		Mesh:      "grid",
		Dropped:   3,
		Port:      "nanoKONTROL2",
	})
	for _, want := range []string{"REC step 12", "mesh=grid", "bass 0.50", "fps 59.9", "dropped 3", "midi=nanoKONTROL2"} {
		if !strings.Contains(text, want) {
			t.Fatalf("status %q missing %q", text, want)
		}
	}
}

func TestResize(t *testing.T) {
	r := newTestRenderer(t, 10, 10)
	r.Resize(20, 0)
	if w, h := r.Size(); w != 20 || h != 10 {
		t.Fatalf("size=%dx%d", w, h)
	}
	if frame := r.Render(flatSnapshot(1), state.New().Visuals, state.Transform{}); len(frame.Lines) != 10 {
		t.Fatalf("lines=%d", len(frame.Lines))
	}
}
