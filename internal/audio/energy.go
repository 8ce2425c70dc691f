// Package audio turns captured sample buffers into smoothed energy levels published
// through lock-free slots, and detects bass transients on the frame loop.
package audio

import (
	"math"
	"sync/atomic"
)

const (
	bassCutoffHz = 150.0
	bassGain     = 4.0

	rmsBlend  = 0.8
	peakBlend = 0.7
	bassBlend = 0.85

	// DefaultKickThreshold is the minimum bass rise between ticks that counts as a kick.
	DefaultKickThreshold = 0.15
)

// Levels is a consistent-enough read of the published energy scalars, each in [0,1].
type Levels struct {
	RMS  float64
	Peak float64
	Bass float64
}

// Energy computes smoothed RMS, peak and bass energy from capture buffers and publishes
// them through independent atomic slots. Process runs on the audio callback and never
// locks or allocates; Levels may be called from any goroutine.
type Energy struct {
	rms  atomic.Uint64
	peak atomic.Uint64
	bass atomic.Uint64

	bassAlpha float64
	lowpass   float64
}

// NewEnergy prepares a publisher for the given sample rate.
func NewEnergy(sampleRate float64) *Energy {
	if sampleRate <= 0 {
		sampleRate = 44_100
	}
	w := 2 * math.Pi * bassCutoffHz / sampleRate
	return &Energy{bassAlpha: w / (w + 1)}
}

// Process folds one interleaved buffer into the published levels.
func (e *Energy) Process(in []float32, channels int) {
	if channels <= 0 {
		channels = 1
	}
	frames := len(in) / channels
	if frames == 0 {
		return
	}

	var sumSq, peak, bassSq float64
	inv := 1 / float64(channels)
	for i := 0; i < frames; i++ {
		base := i * channels
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(in[base+ch])
		}
		sample := sum * inv

		sumSq += sample * sample
		if a := math.Abs(sample); a > peak {
			peak = a
		}

		e.lowpass = e.bassAlpha*sample + (1-e.bassAlpha)*e.lowpass
		bassSq += e.lowpass * e.lowpass
	}

	n := float64(frames)
	rms := math.Sqrt(sumSq / n)
	bass := math.Sqrt(bassSq/n) * bassGain

	blend(&e.rms, rms, rmsBlend)
	blend(&e.peak, peak, peakBlend)
	blend(&e.bass, bass, bassBlend)
}

func blend(slot *atomic.Uint64, instant, factor float64) {
	old := math.Float64frombits(slot.Load())
	slot.Store(math.Float64bits(old*factor + instant*(1-factor)))
}

func load(slot *atomic.Uint64) float64 {
	return math.Min(1, math.Float64frombits(slot.Load()))
}

// RMS returns the smoothed RMS level.
func (e *Energy) RMS() float64 { return load(&e.rms) }

// Peak returns the smoothed peak level.
func (e *Energy) Peak() float64 { return load(&e.peak) }

// Bass returns the smoothed, boosted low-frequency energy.
func (e *Energy) Bass() float64 { return load(&e.bass) }

// Levels reads all three scalars.
func (e *Energy) Levels() Levels {
	return Levels{RMS: e.RMS(), Peak: e.Peak(), Bass: e.Bass()}
}

// KickDetector turns rises in bass energy between frames into kick intensities.
// It belongs to the frame loop and must be called once per tick.
type KickDetector struct {
	Threshold float64
	prev      float64
}

// NewKickDetector returns a detector using threshold, or the default when threshold <= 0.
func NewKickDetector(threshold float64) *KickDetector {
	if threshold <= 0 {
		threshold = DefaultKickThreshold
	}
	return &KickDetector{Threshold: threshold}
}

// Detect returns 2*delta when bass rose by more than the threshold since the last call.
func (k *KickDetector) Detect(bass float64) float64 {
	delta := bass - k.prev
	k.prev = bass
	if delta > k.Threshold {
		return delta * 2
	}
	return 0
}
