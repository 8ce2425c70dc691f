package state

import (
	"testing"

	"github.com/guidoenr/spectralmesh/internal/automation"
	"github.com/guidoenr/spectralmesh/internal/control"
)

func newTestDispatcher() *Dispatcher {
	return NewDispatcher(automation.New(), New())
}

func TestContinuousUsesLatch(t *testing.T) {
	d := newTestDispatcher()
	d.Apply(control.Continuous{Track: automation.LumaKeyLevel, Value: 0.9})
	if got := d.Bank.StepValue(automation.LumaKeyLevel); got != 0.5 {
		t.Fatalf("unlatched knob wrote %f", got)
	}
	d.Apply(control.Continuous{Track: automation.LumaKeyLevel, Value: 0.51})
	d.Apply(control.Continuous{Track: automation.LumaKeyLevel, Value: 0.9})
	if got := d.Bank.StepValue(automation.LumaKeyLevel); got != 0.9 {
		t.Fatalf("latched knob value=%f want 0.9", got)
	}
}

func TestRecordCommandsDriveBank(t *testing.T) {
	d := newTestDispatcher()
	d.Apply(control.Continuous{Track: automation.Zoom, Value: 0.01})
	if !d.Bank.Latched(automation.Zoom) {
		t.Fatalf("expected latch")
	}
	d.Apply(control.RecordStart{})
	if !d.Bank.Recording() {
		t.Fatalf("expected recording")
	}
	if d.Bank.Latched(automation.Zoom) {
		t.Fatalf("record start should drop latches")
	}
	d.Apply(control.RecordStop{})
	if d.Bank.Recording() {
		t.Fatalf("expected stopped")
	}
}

func TestResetClearsBankAndTransformOnly(t *testing.T) {
	d := newTestDispatcher()
	d.Apply(control.SetMesh{Kind: control.MeshVerticalLines})
	d.Apply(control.Greyscale{Enabled: true})
	d.Apply(control.Rotate{Axis: control.AxisZ, Value: 1.2})
	d.State.Transform.GlobalX = 3

	d.Apply(control.Reset{})

	if d.State.Transform != (Transform{}) {
		t.Fatalf("transform not cleared: %+v", d.State.Transform)
	}
	if d.State.Visuals.Mesh != MeshVerticalLines || !d.State.Visuals.Greyscale {
		t.Fatalf("reset must not touch visual switches: %+v", d.State.Visuals)
	}
	if d.Bank.Get(automation.LumaKeyLevel) != 0 || d.Bank.StepValue(automation.CenterX) != 0 {
		t.Fatalf("bank not cleared")
	}
}

func TestMeshSelection(t *testing.T) {
	d := newTestDispatcher()
	d.Apply(control.SetMesh{Kind: control.MeshWireframe})
	if d.State.Visuals.Mesh != MeshTriangles || !d.State.Visuals.Wireframe {
		t.Fatalf("wireframe: %+v", d.State.Visuals)
	}
	d.Apply(control.SetMesh{Kind: control.MeshHorizontalLines})
	if d.State.Visuals.Mesh != MeshHorizontalLines {
		t.Fatalf("horizontal: %+v", d.State.Visuals)
	}
	d.Apply(control.SetMesh{Kind: control.MeshTriangles})
	if d.State.Visuals.Mesh != MeshTriangles || d.State.Visuals.Wireframe {
		t.Fatalf("triangles: %+v", d.State.Visuals)
	}
}

func TestAxisSwitches(t *testing.T) {
	d := newTestDispatcher()
	d.Apply(control.LfoShape{Axis: control.AxisY, Shape: control.ShapeSaw})
	d.Apply(control.RingMod{Axis: control.AxisX, Enabled: true})
	d.Apply(control.PhaseMod{Axis: control.AxisZ, Enabled: true})
	d.Apply(control.FreqZero{Axis: control.AxisZ, Enabled: true})

	v := d.State.Visuals
	if v.Y.Shape != control.ShapeSaw || !v.X.RingMod || !v.Z.PhaseMod || !v.Z.FreqZero {
		t.Fatalf("switches not applied: %+v", v)
	}
	if v.X.Shape != control.ShapeSine {
		t.Fatalf("x shape should stay sine")
	}
}

func TestGlobalDisplaceOnlyClears(t *testing.T) {
	d := newTestDispatcher()
	d.State.Transform.GlobalX = 2
	d.State.Transform.GlobalY = 4
	d.Apply(control.GlobalDisplace{Axis: control.AxisX, Enabled: true})
	if d.State.Transform.GlobalX != 2 {
		t.Fatalf("enable should keep offset")
	}
	d.Apply(control.GlobalDisplace{Axis: control.AxisY, Enabled: false})
	if d.State.Transform.GlobalY != 0 || d.State.Transform.GlobalX != 2 {
		t.Fatalf("transform=%+v", d.State.Transform)
	}
}

func TestCycleShapeWraps(t *testing.T) {
	v := New().Visuals
	for i := 0; i < control.NumShapes; i++ {
		v.CycleShape(control.AxisZ)
	}
	if v.Z.Shape != control.ShapeSine {
		t.Fatalf("shape=%d want sine after full cycle", v.Z.Shape)
	}
}

type unknownCommand struct{ control.Reset }

func TestUnknownCommandIsNoOp(t *testing.T) {
	d := newTestDispatcher()
	before := *d.State
	d.Apply(unknownCommand{})
	if *d.State != before {
		t.Fatalf("state changed on unknown command")
	}
	if d.Bank.Get(automation.LumaKeyLevel) != 0.5 {
		t.Fatalf("bank changed on unknown command")
	}
}
