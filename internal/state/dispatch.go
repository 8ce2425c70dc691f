package state

import (
	"github.com/guidoenr/spectralmesh/internal/automation"
	"github.com/guidoenr/spectralmesh/internal/control"
)

// Dispatcher routes commands to the automation bank or to the standalone state.
type Dispatcher struct {
	Bank           *automation.Bank
	State          *State
	LatchThreshold float64
}

// NewDispatcher wires a dispatcher to bank and st.
func NewDispatcher(bank *automation.Bank, st *State) *Dispatcher {
	return &Dispatcher{
		Bank:           bank,
		State:          st,
		LatchThreshold: automation.DefaultLatchThreshold,
	}
}

// Apply executes one command. Unknown variants are ignored.
func (d *Dispatcher) Apply(cmd control.Command) {
	v := &d.State.Visuals
	t := &d.State.Transform

	switch c := cmd.(type) {
	case control.Continuous:
		d.Bank.SetWithLatch(c.Track, c.Value, d.LatchThreshold)

	case control.RecordStart:
		d.Bank.StartRecording()
		d.ResetLatches()
	case control.RecordStop:
		d.Bank.StopRecording()
		d.ResetLatches()
	case control.Reset:
		d.Bank.Clear()
		*t = Transform{}

	case control.LfoShape:
		if sw := v.Axis(c.Axis); sw != nil {
			sw.Shape = c.Shape
		}
	case control.RingMod:
		if sw := v.Axis(c.Axis); sw != nil {
			sw.RingMod = c.Enabled
		}
	case control.PhaseMod:
		if sw := v.Axis(c.Axis); sw != nil {
			sw.PhaseMod = c.Enabled
		}
	case control.FreqZero:
		if sw := v.Axis(c.Axis); sw != nil {
			sw.FreqZero = c.Enabled
		}

	case control.SetMesh:
		switch c.Kind {
		case control.MeshTriangles:
			v.Mesh = MeshTriangles
			v.Wireframe = false
		case control.MeshHorizontalLines:
			v.Mesh = MeshHorizontalLines
		case control.MeshVerticalLines:
			v.Mesh = MeshVerticalLines
		case control.MeshWireframe:
			v.Mesh = MeshTriangles
			v.Wireframe = true
		}

	case control.Greyscale:
		v.Greyscale = c.Enabled
	case control.Invert:
		v.Invert = c.Enabled
	case control.BrightSwitch:
		v.BrightSwitch = c.Enabled
	case control.LumaSwitch:
		v.LumaSwitch = c.Enabled
	case control.StrokeWeight:
		v.StrokeWeight = c.Value

	case control.Rotate:
		switch c.Axis {
		case control.AxisX:
			t.RotateX = c.Value
		case control.AxisY:
			t.RotateY = c.Value
		case control.AxisZ:
			t.RotateZ = c.Value
		}
	case control.GlobalDisplace:
		if c.Enabled {
			return
		}
		switch c.Axis {
		case control.AxisX:
			t.GlobalX = 0
		case control.AxisY:
			t.GlobalY = 0
		}
	}
}

// ResetLatches drops every soft-takeover latch so knobs must pass through the
// stored values again.
func (d *Dispatcher) ResetLatches() {
	for i := 0; i < automation.NumTracks; i++ {
		d.Bank.ResetLatch(automation.Track(i))
	}
}
