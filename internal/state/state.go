// Package state holds the non-automated switches of the instrument and applies
// decoded control commands to them and to the automation bank.
package state

import "github.com/guidoenr/spectralmesh/internal/control"

// MeshType is the tessellation the mesh builder should produce.
type MeshType int

const (
	MeshTriangles MeshType = iota
	MeshHorizontalLines
	MeshVerticalLines
	MeshGrid
)

func (m MeshType) String() string {
	switch m {
	case MeshHorizontalLines:
		return "horizontal"
	case MeshVerticalLines:
		return "vertical"
	case MeshGrid:
		return "grid"
	default:
		return "triangles"
	}
}

// AxisSwitches groups the per-axis LFO settings.
type AxisSwitches struct {
	Shape    control.Shape
	RingMod  bool
	PhaseMod bool
	FreqZero bool
}

// Visuals is everything the renderer needs besides the per-frame snapshot.
type Visuals struct {
	Mesh      MeshType
	Wireframe bool

	X, Y, Z AxisSwitches

	Greyscale    bool
	Invert       bool
	BrightSwitch bool
	LumaSwitch   bool
	StrokeWeight float64
}

// Transform is the rigid placement of the mesh.
type Transform struct {
	RotateX, RotateY, RotateZ float64
	GlobalX, GlobalY          float64
}

// State is owned by the frame loop.
type State struct {
	Visuals   Visuals
	Transform Transform
}

// New returns the power-on state.
func New() *State {
	return &State{
		Visuals: Visuals{
			Mesh:         MeshTriangles,
			StrokeWeight: 1,
		},
	}
}

// Axis returns the switches of one axis.
func (v *Visuals) Axis(a control.Axis) *AxisSwitches {
	switch a {
	case control.AxisX:
		return &v.X
	case control.AxisY:
		return &v.Y
	case control.AxisZ:
		return &v.Z
	}
	return nil
}

// CycleShape steps an axis LFO to its next waveform.
func (v *Visuals) CycleShape(a control.Axis) {
	if sw := v.Axis(a); sw != nil {
		sw.Shape = (sw.Shape + 1) % control.NumShapes
	}
}
