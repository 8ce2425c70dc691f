// Package control turns control-surface messages into semantic commands.
package control

import "github.com/guidoenr/spectralmesh/internal/automation"

// Command is one decoded control-surface action. The concrete types below are the only
// implementations; consumers switch on them.
type Command interface {
	command()
}

// Axis names one of the three LFO / transform axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "?"
	}
}

// Shape selects an LFO waveform.
type Shape int

const (
	ShapeSine Shape = iota
	ShapeSquare
	ShapeSaw
	ShapeNoise
)

// NumShapes is the number of LFO waveforms.
const NumShapes = 4

// MeshKind is the tessellation requested by a mesh selector button.
type MeshKind int

const (
	MeshTriangles MeshKind = iota
	MeshHorizontalLines
	MeshVerticalLines
	MeshWireframe
)

// Continuous sets an automated track from a knob or fader.
type Continuous struct {
	Track automation.Track
	Value float64
}

type (
	RecordStart struct{}
	RecordStop  struct{}
	Reset       struct{}
)

// LfoShape picks the waveform of one axis LFO.
type LfoShape struct {
	Axis  Axis
	Shape Shape
}

type RingMod struct {
	Axis    Axis
	Enabled bool
}

type PhaseMod struct {
	Axis    Axis
	Enabled bool
}

// FreqZero forces the spatial frequency of an axis to zero while held.
type FreqZero struct {
	Axis    Axis
	Enabled bool
}

type SetMesh struct {
	Kind MeshKind
}

type (
	Greyscale    struct{ Enabled bool }
	Invert       struct{ Enabled bool }
	BrightSwitch struct{ Enabled bool }
	LumaSwitch   struct{ Enabled bool }
	StrokeWeight struct{ Value float64 }
)

// Rotate sets the absolute rotation of the mesh around an axis, in radians.
type Rotate struct {
	Axis  Axis
	Value float64
}

// GlobalDisplace enables or clears the global offset along an axis.
type GlobalDisplace struct {
	Axis    Axis
	Enabled bool
}

func (Continuous) command()     {}
func (RecordStart) command()    {}
func (RecordStop) command()     {}
func (Reset) command()          {}
func (LfoShape) command()       {}
func (RingMod) command()        {}
func (PhaseMod) command()       {}
func (FreqZero) command()       {}
func (SetMesh) command()        {}
func (Greyscale) command()      {}
func (Invert) command()         {}
func (BrightSwitch) command()   {}
func (LumaSwitch) command()     {}
func (StrokeWeight) command()   {}
func (Rotate) command()         {}
func (GlobalDisplace) command() {}
