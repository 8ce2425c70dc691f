// Package automation holds the step-recorded parameter tracks that drive the mesh.
package automation

import "math"

// Steps is the length of every track's automation loop.
const Steps = 240

// Track identifies one automated parameter.
type Track int

const (
	LumaKeyLevel Track = iota
	DisplaceX
	DisplaceY
	ZFrequency
	XFrequency
	YFrequency
	Zoom
	GridScale
	CenterX
	CenterY
	ZLfoArg
	ZLfoAmp
	XLfoArg
	XLfoAmp
	YLfoArg
	YLfoAmp
	Reserved
)

// NumTracks is the number of automated parameters.
const NumTracks = int(Reserved) + 1

var trackNames = [NumTracks]string{
	"luma_key_level",
	"displace_x",
	"displace_y",
	"z_frequency",
	"x_frequency",
	"y_frequency",
	"zoom",
	"grid_scale",
	"center_x",
	"center_y",
	"z_lfo_arg",
	"z_lfo_amp",
	"x_lfo_arg",
	"x_lfo_amp",
	"y_lfo_arg",
	"y_lfo_amp",
	"reserved",
}

func (t Track) String() string {
	if !t.valid() {
		return "unknown"
	}
	return trackNames[t]
}

func (t Track) valid() bool {
	return t >= 0 && int(t) < NumTracks
}

const (
	// DefaultSmoothFactor weights the previous output in the per-tick blend.
	DefaultSmoothFactor = 0.5
	// DefaultLatchThreshold is how close a knob must come to the stored value to take over.
	DefaultLatchThreshold = 0.04

	snapEpsilon = 0.01
)

// Bank owns every track's step buffer and smoothed output plus the shared step clock.
// It is not safe for concurrent use; the frame loop owns it.
type Bank struct {
	steps    [NumTracks][Steps]float64
	smoothed [NumTracks]float64
	latched  [NumTracks]bool

	pointer   int
	recording bool

	SmoothFactor float64
}

// New returns a bank seeded with values that keep the mesh visible before any input arrives.
func New() *Bank {
	b := &Bank{SmoothFactor: DefaultSmoothFactor}

	b.SetAll(LumaKeyLevel, 0.5)
	b.SetAll(DisplaceX, 0.1)
	b.SetAll(DisplaceY, 0.1)

	b.SetAll(ZFrequency, 0.2)
	b.SetAll(XFrequency, 0.3)
	b.SetAll(YFrequency, 0.3)

	b.SetAll(CenterX, 0.5)
	b.SetAll(CenterY, 0.5)

	b.SetAll(ZLfoArg, 0.02)
	b.SetAll(XLfoArg, 0.015)
	b.SetAll(YLfoArg, 0.018)

	b.SetAll(ZLfoAmp, 0.2)
	b.SetAll(XLfoAmp, 0.3)
	b.SetAll(YLfoAmp, 0.3)

	// 0.5 maps to a grid density of 64
	b.SetAll(GridScale, 0.5)
	return b
}

// SetAll floods every step of a track and its smoothed output with value.
func (b *Bank) SetAll(t Track, value float64) {
	if !t.valid() {
		return
	}
	for i := range b.steps[t] {
		b.steps[t][i] = value
	}
	b.smoothed[t] = value
}

// Tick smooths every track toward its current step and advances the clock while recording.
// Call exactly once per rendered frame.
func (b *Bank) Tick() {
	factor := b.SmoothFactor
	for i := range b.smoothed {
		v := b.steps[i][b.pointer]*(1-factor) + b.smoothed[i]*factor
		if math.Abs(v) < snapEpsilon {
			v = 0
		}
		b.smoothed[i] = v
	}

	if b.recording {
		b.pointer = (b.pointer + 1) % Steps
	}
}

// Get returns the smoothed output of a track, or 0 for an unknown track.
func (b *Bank) Get(t Track) float64 {
	if !t.valid() {
		return 0
	}
	return b.smoothed[t]
}

// StepValue returns the raw value stored at the current step.
func (b *Bank) StepValue(t Track) float64 {
	if !t.valid() {
		return 0
	}
	return b.steps[t][b.pointer]
}

// Set writes value at the current step unconditionally.
func (b *Bank) Set(t Track, value float64) {
	if !t.valid() {
		return
	}
	b.steps[t][b.pointer] = value
}

// SetWithLatch writes value at the current step only once the incoming value has passed
// within threshold of the stored one. Until then the stored pattern keeps control.
func (b *Bank) SetWithLatch(t Track, value, threshold float64) {
	if !t.valid() {
		return
	}
	current := b.steps[t][b.pointer]
	if math.Abs(value-current) < threshold {
		b.latched[t] = true
	}
	if b.latched[t] {
		b.steps[t][b.pointer] = value
	}
}

// Latched reports whether a live control currently drives the track.
func (b *Bank) Latched(t Track) bool {
	if !t.valid() {
		return false
	}
	return b.latched[t]
}

// ResetLatch requires a fresh pass-through before the control drives the track again.
func (b *Bank) ResetLatch(t Track) {
	if !t.valid() {
		return
	}
	b.latched[t] = false
}

// StartRecording freezes each track's current step across the whole loop, zeroes the
// smoothed outputs and lets the clock run.
func (b *Bank) StartRecording() {
	b.recording = true
	for i := range b.steps {
		b.smoothed[i] = 0
		current := b.steps[i][b.pointer]
		for j := range b.steps[i] {
			b.steps[i][j] = current
		}
	}
}

// StopRecording halts the clock. The pointer holds where it is.
func (b *Bank) StopRecording() {
	b.recording = false
}

// Recording reports whether the step clock is running.
func (b *Bank) Recording() bool {
	return b.recording
}

// Step returns the shared step pointer.
func (b *Bank) Step() int {
	return b.pointer
}

// Clear zeroes every step, output and latch and rewinds the clock.
func (b *Bank) Clear() {
	for i := range b.steps {
		for j := range b.steps[i] {
			b.steps[i][j] = 0
		}
		b.smoothed[i] = 0
		b.latched[i] = false
	}
	b.pointer = 0
}
