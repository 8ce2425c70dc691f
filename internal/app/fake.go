package app

import (
	"math"
	"math/rand"

	"github.com/guidoenr/spectralmesh/internal/analyzer"
	"github.com/guidoenr/spectralmesh/internal/audio"
)

// fakeGenerator stands in for a microphone with slow oscillators and a pulsing bass.
type fakeGenerator struct {
	rng       *rand.Rand
	phaseBass float64
	phaseMid  float64
	phaseHigh float64
	beat      float64
}

func newFakeGenerator(seed int64) *fakeGenerator {
	return &fakeGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (f *fakeGenerator) Next(delta float64) (audio.Levels, analyzer.Features) {
	f.phaseBass += delta * 0.7
	f.phaseMid += delta * 1.2
	f.phaseHigh += delta * 2.1
	f.beat += delta * 2.0

	// a short bass pulse twice a second
	pulse := 0.0
	if frac := f.beat - math.Floor(f.beat); frac < 0.08 {
		pulse = 0.6
	}

	bass := clamp01(0.25 + 0.2*math.Sin(f.phaseBass) + pulse + f.rng.Float64()*0.05)
	mid := clamp01(0.4 + 0.4*math.Sin(f.phaseMid+0.5) + f.rng.Float64()*0.1)
	treble := clamp01(0.3 + 0.3*math.Sin(f.phaseHigh+1.0) + f.rng.Float64()*0.1)
	overall := (bass + mid + treble) / 3

	levels := audio.Levels{
		RMS:  clamp01(overall * 0.5),
		Peak: clamp01(math.Max(bass, math.Max(mid, treble))),
		Bass: clamp01(bass * 0.5),
	}
	features := analyzer.Features{
		Bass:         bass,
		Mid:          mid,
		Treble:       treble,
		Overall:      overall,
		BeatStrength: clamp01(pulse / 0.6),
	}
	return levels, features
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
