package analyzer

import (
	"math"
	"testing"
)

func TestNextPow2(t *testing.T) {
	cases := map[int]int{
		0:   1,
		1:   1,
		2:   2,
		3:   4,
		5:   8,
		16:  16,
		31:  32,
		257: 512,
	}
	for input, want := range cases {
		if got := nextPow2(input); got != want {
			t.Fatalf("nextPow2(%d)=%d want=%d", input, got, want)
		}
	}
}

func TestDynamicsWithLowPeakReturnsValue(t *testing.T) {
	if got := dynamics(0.5, 0.0); got != 0.5 {
		t.Fatalf("dynamics for zero peak: got=%f want=0.5", got)
	}
}

func TestWindowSizeIsBounded(t *testing.T) {
	if got := len(New(Config{WindowSize: 10}).buffer); got != minWindow {
		t.Fatalf("window=%d want %d", got, minWindow)
	}
	if got := len(New(Config{WindowSize: 100_000}).buffer); got != maxWindow {
		t.Fatalf("window=%d want %d", got, maxWindow)
	}
	if got := len(New(Config{WindowSize: 1000}).buffer); got != 1024 {
		t.Fatalf("window=%d want 1024", got)
	}
}

func TestEmptyInputIsSilent(t *testing.T) {
	a := New(Config{})
	if f := a.Analyze(nil); f != (Features{}) {
		t.Fatalf("features=%+v", f)
	}
}

func TestLowToneLandsInBass(t *testing.T) {
	const rate = 48_000.0
	a := New(Config{SampleRate: rate, WindowSize: 2048})
	samples := make([]float32, 2048)
	for i := range samples {
		samples[i] = float32(0.8 * math.Sin(2*math.Pi*100*float64(i)/rate))
	}
	f := a.Analyze(samples)
	if f.Bass <= f.Treble || f.Bass <= f.Mid {
		t.Fatalf("expected bass dominance: %+v", f)
	}
}

type fixedSource []float32

func (s fixedSource) Read(dst []float32) int {
	return copy(dst, s)
}

func TestAnalyzeFromReadsSource(t *testing.T) {
	a := New(Config{WindowSize: 256})
	src := make(fixedSource, 256)
	for i := range src {
		src[i] = float32(math.Sin(float64(i) * 0.05))
	}
	if f := a.AnalyzeFrom(src); f.Overall == 0 {
		t.Fatalf("expected energy from source")
	}
}

func TestGate(t *testing.T) {
	f := Gate(Features{Bass: 0.05, Mid: 0.55, Treble: 1}, 0.1)
	if f.Bass != 0 {
		t.Fatalf("bass below floor should gate: %f", f.Bass)
	}
	if math.Abs(f.Mid-0.5) > 1e-9 || f.Treble != 1 {
		t.Fatalf("gated=%+v", f)
	}
	in := Features{Bass: 0.3}
	if Gate(in, 0) != in {
		t.Fatalf("zero floor should pass through")
	}
}

func TestClamp(t *testing.T) {
	if clamp(2, 0, 1) != 1 || clamp(-1, 0, 1) != 0 || clamp(0.5, 0, 1) != 0.5 {
		t.Fatalf("clamp misbehaves")
	}
}
