// Package analyzer extracts coarse spectral bands from recent capture samples for the
// status bar and web telemetry.
package analyzer

import (
	"math"
	"math/bits"

	"github.com/mjibson/go-dsp/fft"
)

const (
	minWindow = 256
	maxWindow = 2048
)

// Analyzer performs FFT-based band analysis. It reuses its buffers between calls and
// belongs to a single goroutine.
type Analyzer struct {
	sampleRate float64

	bassPeak   float64
	midPeak    float64
	treblePeak float64
	lastBass   float64
	beatPulse  float64

	samples []float32
	buffer  []complex128
	window  []float64
}

// Config controls Analyzer behavior.
type Config struct {
	SampleRate float64
	WindowSize int
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44_100
	}
	size := min(max(nextPow2(cfg.WindowSize), minWindow), maxWindow)
	a := &Analyzer{sampleRate: cfg.SampleRate}
	a.ensureWorkspace(size)
	return a
}

// Source is anything that can fill a slice with its newest samples.
type Source interface {
	Read(dst []float32) int
}

// AnalyzeFrom pulls the newest window of samples from src and analyzes it.
func (a *Analyzer) AnalyzeFrom(src Source) Features {
	n := src.Read(a.samples)
	return a.Analyze(a.samples[:n])
}

// Analyze returns band features for the provided mono samples.
func (a *Analyzer) Analyze(samples []float32) Features {
	if len(samples) == 0 {
		return Features{}
	}

	size := len(a.buffer)
	buffer := a.buffer
	for i := 0; i < size; i++ {
		if i < len(samples) {
			buffer[i] = complex(float64(samples[i])*a.window[i], 0)
			continue
		}
		buffer[i] = 0
	}

	spectrum := fft.FFT(buffer)

	resolution := a.sampleRate / float64(size)
	bass := bandEnergy(spectrum, resolution, 20, 250)
	mid := bandEnergy(spectrum, resolution, 250, 2000)
	treble := bandEnergy(spectrum, resolution, 2000, 8000)

	a.bassPeak = envelope(a.bassPeak, bass, 0.94, 0.75)
	a.midPeak = envelope(a.midPeak, mid, 0.94, 0.78)
	a.treblePeak = envelope(a.treblePeak, treble, 0.94, 0.8)

	bassOut := dynamics(bass, a.bassPeak)
	midOut := dynamics(mid, a.midPeak)
	trebleOut := dynamics(treble, a.treblePeak)

	beat := clamp((bass-a.lastBass)*14.0, 0, 1)
	if beat > 0.12 {
		a.beatPulse = 1.0
	}
	a.beatPulse *= 0.88
	beat = math.Min(1.0, beat+a.beatPulse*0.7)
	a.lastBass = bass

	return Features{
		Bass:         bassOut,
		Mid:          midOut,
		Treble:       trebleOut,
		Overall:      (bassOut + midOut + trebleOut) / 3.0,
		BeatStrength: beat,
	}
}

func bandEnergy(spectrum []complex128, resolution, minHz, maxHz float64) float64 {
	if minHz >= maxHz {
		return 0
	}
	lo := int(math.Floor(minHz / resolution))
	hi := int(math.Ceil(maxHz/resolution)) + 1
	if hi > len(spectrum)/2 {
		hi = len(spectrum) / 2
	}
	if lo >= hi {
		return 0
	}
	sum := 0.0
	for _, val := range spectrum[lo:hi] {
		sum += math.Hypot(real(val), imag(val))
	}
	return math.Min(1.0, sum/float64(hi-lo))
}

func (a *Analyzer) ensureWorkspace(size int) {
	a.samples = make([]float32, size)
	a.buffer = make([]complex128, size)
	a.window = make([]float64, size)
	sizeF := float64(size)
	for i := range a.window {
		a.window[i] = hann(float64(i), sizeF)
	}
}

func hann(i, size float64) float64 {
	return 0.5 * (1.0 - math.Cos(2.0*math.Pi*i/size))
}

func envelope(current, input, attack, release float64) float64 {
	if input > current {
		return current*attack + input*(1-attack)
	}
	return current * release
}

func dynamics(value, peak float64) float64 {
	if peak < 0.01 {
		return value
	}
	ratio := math.Max(0, value/peak)
	expanded := math.Pow(ratio, 0.7) * peak
	if ratio > 0.85 {
		expanded *= 1.0 + (ratio-0.85)*2.0
	}
	return math.Min(1.0, expanded)
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
