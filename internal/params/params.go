// Package params turns smoothed automation, keyboard nudges and audio energy into the
// immutable per-frame snapshot consumed by the renderer.
package params

import (
	"math"
	"math/rand"

	"github.com/guidoenr/spectralmesh/internal/audio"
	"github.com/guidoenr/spectralmesh/internal/automation"
)

const (
	minGridDensity = 1
	maxGridDensity = 127

	// MaxRipples bounds the number of concurrent kick ripples.
	MaxRipples = 4

	rippleExpansion = 0.02
	rippleFade      = 0.02

	waveAttack  = 0.4
	waveRelease = 0.08

	// DefaultSensitivity scales audio energy before it modulates anything.
	DefaultSensitivity = 1.0
	maxSensitivity     = 5.0
)

// Offsets are small manual nudges layered on top of the automated values.
type Offsets struct {
	LumaKey     float64
	DisplaceX   float64
	DisplaceY   float64
	ZFrequency  float64
	XFrequency  float64
	YFrequency  float64
	Zoom        float64
	CenterX     float64
	CenterY     float64
	ZLfoArg     float64
	ZLfoAmp     float64
	XLfoArg     float64
	XLfoAmp     float64
	YLfoArg     float64
	YLfoAmp     float64
	GridDensity int
}

// Ripple is a concentric wave spawned by a kick.
type Ripple struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Radius    float64 `json:"radius"`
	Intensity float64 `json:"intensity"`
	Active    bool    `json:"active"`
}

// Snapshot is the complete set of numbers the renderer needs for one frame.
// It is built fresh every tick and never modified afterwards.
type Snapshot struct {
	Frame uint64 `json:"frame"`
	Step  int    `json:"step"`

	LumaKeyLevel float64 `json:"lumaKeyLevel"`
	DisplaceX    float64 `json:"displaceX"`
	DisplaceY    float64 `json:"displaceY"`
	ZFrequency   float64 `json:"zFrequency"`
	XFrequency   float64 `json:"xFrequency"`
	YFrequency   float64 `json:"yFrequency"`
	Zoom         float64 `json:"zoom"`
	GridDensity  int     `json:"gridDensity"`
	CenterX      float64 `json:"centerX"`
	CenterY      float64 `json:"centerY"`

	ZLfoArg float64 `json:"zLfoArg"`
	ZLfoAmp float64 `json:"zLfoAmp"`
	XLfoArg float64 `json:"xLfoArg"`
	XLfoAmp float64 `json:"xLfoAmp"`
	YLfoArg float64 `json:"yLfoArg"`
	YLfoAmp float64 `json:"yLfoAmp"`

	// Accumulated LFO phases after this frame's advance.
	ZPhase float64 `json:"zPhase"`
	XPhase float64 `json:"xPhase"`
	YPhase float64 `json:"yPhase"`

	AudioDisplacement float64 `json:"audioDisplacement"`
	AudioZ            float64 `json:"audioZ"`
	WavePhase         float64 `json:"wavePhase"`
	WaveAmp           float64 `json:"waveAmp"`
	WaveFreq          float64 `json:"waveFreq"`
	Kick              float64 `json:"kick"`

	Ripples [MaxRipples]Ripple `json:"ripples"`
}

// AudioInput is what the frame loop read from the energy publisher this tick.
type AudioInput struct {
	Enabled bool
	Levels  audio.Levels
	Kick    float64
}

// Synthesizer owns the phase accumulators and audio envelopes that persist across frames.
type Synthesizer struct {
	Sensitivity float64

	frame                  uint64
	zPhase, xPhase, yPhase float64

	wavePhase float64
	waveAmp   float64
	waveFreq  float64

	ripples    [MaxRipples]Ripple
	nextRipple int
	rng        *rand.Rand
}

// NewSynthesizer creates a synthesizer; rng positions kick ripples.
func NewSynthesizer(rng *rand.Rand) *Synthesizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &Synthesizer{
		Sensitivity: DefaultSensitivity,
		waveFreq:    10,
		rng:         rng,
	}
}

// AdjustSensitivity nudges the audio gain, keeping it within [0,5].
func (s *Synthesizer) AdjustSensitivity(delta float64) float64 {
	s.Sensitivity = clamp(s.Sensitivity+delta, 0, maxSensitivity)
	return s.Sensitivity
}

// Next builds the snapshot for this frame and advances every accumulator.
// The bank must already have been ticked.
func (s *Synthesizer) Next(bank *automation.Bank, ko Offsets, in AudioInput) Snapshot {
	var audioLFO, audioDisp, audioZ float64
	if in.Enabled {
		bass := in.Levels.Bass * s.Sensitivity
		rms := in.Levels.RMS * s.Sensitivity

		audioDisp = bass * 2
		audioLFO = rms
		audioZ = bass * 0.02

		// never wrapped: a discontinuity would show as a visible jump in the lines
		s.wavePhase += 0.5 + bass*1.5

		target := bass * 0.08
		if target > s.waveAmp {
			s.waveAmp = s.waveAmp*(1-waveAttack) + target*waveAttack
		} else {
			s.waveAmp = s.waveAmp*(1-waveRelease) + target*waveRelease
		}
		s.waveFreq = 10 + rms*20

		if in.Kick > 0 {
			s.spawnRipple(math.Min(in.Kick, 1))
		}
	}
	s.updateRipples()

	get := bank.Get
	snap := Snapshot{
		Frame: s.frame,
		Step:  bank.Step(),

		LumaKeyLevel: get(automation.LumaKeyLevel) + 0.1*ko.LumaKey,
		DisplaceX:    0.5 * (get(automation.DisplaceX) + ko.DisplaceX),
		DisplaceY:    0.5 * (get(automation.DisplaceY) + ko.DisplaceY),
		ZFrequency:   10*get(automation.ZFrequency) + ko.ZFrequency,
		XFrequency:   10*get(automation.XFrequency) + ko.XFrequency,
		YFrequency:   10*get(automation.YFrequency) + ko.YFrequency,
		Zoom:         get(automation.Zoom) + ko.Zoom,
		GridDensity:  GridDensity(get(automation.GridScale), ko.GridDensity),
		CenterX:      2*(get(automation.CenterX)-0.5) + 0.1*ko.CenterX,
		CenterY:      2*(get(automation.CenterY)-0.5) + 0.1*ko.CenterY,

		ZLfoArg: get(automation.ZLfoArg) + ko.ZLfoArg,
		ZLfoAmp: 0.1*get(automation.ZLfoAmp) + 0.01*ko.ZLfoAmp,
		XLfoArg: get(automation.XLfoArg) + ko.XLfoArg,
		XLfoAmp: 0.2*get(automation.XLfoAmp) + 0.01*ko.XLfoAmp + 0.1*audioLFO,
		YLfoArg: get(automation.YLfoArg) + ko.YLfoArg,
		YLfoAmp: 0.2*get(automation.YLfoAmp) + 0.01*ko.YLfoAmp + 0.1*audioLFO,

		AudioDisplacement: 0.1 * audioDisp,
		AudioZ:            0.05 * audioZ,
		WavePhase:         s.wavePhase,
		WaveAmp:           s.waveAmp,
		WaveFreq:          s.waveFreq,
		Kick:              in.Kick,
		Ripples:           s.ripples,
	}

	// unbounded on purpose, see wavePhase
	s.zPhase += snap.ZLfoArg
	s.xPhase += snap.XLfoArg
	s.yPhase += snap.YLfoArg
	snap.ZPhase = s.zPhase
	snap.XPhase = s.xPhase
	snap.YPhase = s.yPhase

	s.frame++
	return snap
}

// GridDensity maps the grid-scale track onto a step count in [1,127].
func GridDensity(scale float64, nudge int) int {
	v := int((1-scale)*126 + 1 + float64(nudge))
	if v < minGridDensity {
		return minGridDensity
	}
	if v > maxGridDensity {
		return maxGridDensity
	}
	return v
}

func (s *Synthesizer) spawnRipple(intensity float64) {
	s.ripples[s.nextRipple] = Ripple{
		X:         s.rng.Float64(),
		Y:         s.rng.Float64(),
		Intensity: intensity,
		Active:    true,
	}
	s.nextRipple = (s.nextRipple + 1) % MaxRipples
}

func (s *Synthesizer) updateRipples() {
	for i := range s.ripples {
		r := &s.ripples[i]
		if !r.Active {
			continue
		}
		r.Radius += rippleExpansion
		r.Intensity -= rippleFade
		if r.Intensity <= 0 {
			r.Active = false
			r.Intensity = 0
		}
	}
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}
