package app

import (
	"context"
	"sync"

	"github.com/eiannone/keyboard"
	"github.com/guidoenr/spectralmesh/internal/control"
	"github.com/guidoenr/spectralmesh/internal/params"
	"github.com/guidoenr/spectralmesh/internal/state"
)

const (
	rotateStep      = 0.05
	sensitivityStep = 0.1
)

type keyEvent struct {
	char rune
	key  keyboard.Key
}

type nudge struct {
	field func(o *params.Offsets) *float64
	delta float64
}

func lumaKey(o *params.Offsets) *float64 { return &o.LumaKey }
func zFreq(o *params.Offsets) *float64 { return &o.ZFrequency }
func zArg(o *params.Offsets) *float64 { return &o.ZLfoArg }
func zAmp(o *params.Offsets) *float64 { return &o.ZLfoAmp }
func xFreq(o *params.Offsets) *float64 { return &o.XFrequency }
func xArg(o *params.Offsets) *float64 { return &o.XLfoArg }
func xAmp(o *params.Offsets) *float64 { return &o.XLfoAmp }
func yFreq(o *params.Offsets) *float64 { return &o.YFrequency }
func yArg(o *params.Offsets) *float64 { return &o.YLfoArg }
func yAmp(o *params.Offsets) *float64 { return &o.YLfoAmp }
func centerX(o *params.Offsets) *float64 { return &o.CenterX }
func centerY(o *params.Offsets) *float64 { return &o.CenterY }
func zoom(o *params.Offsets) *float64 { return &o.Zoom }
func displaceX(o *params.Offsets) *float64 { return &o.DisplaceX }
func displaceY(o *params.Offsets) *float64 { return &o.DisplaceY }

var nudges = map[rune]nudge{
	'a': {lumaKey, 0.01}, 'z': {lumaKey, -0.01},
	's': {zFreq, 0.0001}, 'x': {zFreq, -0.0001},
	'd': {zArg, 0.001}, 'c': {zArg, -0.001},
	'f': {zAmp, 0.001}, 'v': {zAmp, -0.001},
	'g': {xFreq, 0.001}, 'b': {xFreq, -0.001},
	'h': {xArg, 0.001}, 'n': {xArg, -0.001},
	'j': {xAmp, 0.1}, 'm': {xAmp, -0.1},
	'k': {yFreq, 0.001}, ',': {yFreq, -0.001},
	'l': {yArg, 0.001}, '.': {yArg, -0.001},
	';': {yAmp, 0.1}, '/': {yAmp, -0.1},
	't': {centerX, 5}, 'y': {centerX, -5},
	'u': {centerY, 5}, 'i': {centerY, -5},
	'o': {zoom, 5}, 'p': {zoom, -5},
	'q': {displaceX, 0.01}, 'w': {displaceX, -0.01},
	'e': {displaceY, 0.01}, 'r': {displaceY, -0.01},
}

var shapeKeys = map[rune]control.Axis{
	'6': control.AxisZ,
	'7': control.AxisX,
	'8': control.AxisY,
}

// meshKeys pick the mesh type only; wireframe stays as the control surface left it.
var meshKeys = map[rune]state.MeshType{
	'9': state.MeshVerticalLines,
	'0': state.MeshHorizontalLines,
	'-': state.MeshTriangles,
	'=': state.MeshGrid,
}

// handleKey applies one key press on the loop goroutine. It reports whether the
// user asked to quit.
func (a *App) handleKey(ev keyEvent) bool {
	switch ev.key {
	case keyboard.KeyEsc, keyboard.KeyCtrlC:
		return true
	case keyboard.KeyArrowLeft:
		a.dispatcher.Apply(control.Rotate{Axis: control.AxisZ, Value: a.state.Transform.RotateZ - rotateStep})
		return false
	case keyboard.KeyArrowRight:
		a.dispatcher.Apply(control.Rotate{Axis: control.AxisZ, Value: a.state.Transform.RotateZ + rotateStep})
		return false
	case keyboard.KeyArrowUp:
		a.synth.AdjustSensitivity(sensitivityStep)
		return false
	case keyboard.KeyArrowDown:
		a.synth.AdjustSensitivity(-sensitivityStep)
		return false
	}

	if n, ok := nudges[ev.char]; ok {
		*n.field(&a.offsets) += n.delta
		return false
	}
	if axis, ok := shapeKeys[ev.char]; ok {
		sw := a.state.Visuals.Axis(axis)
		a.dispatcher.Apply(control.LfoShape{Axis: axis, Shape: (sw.Shape + 1) % control.NumShapes})
		return false
	}
	if mesh, ok := meshKeys[ev.char]; ok {
		a.state.Visuals.Mesh = mesh
		return false
	}

	v := &a.state.Visuals
	switch ev.char {
	case ']':
		a.offsets.GridDensity++
	case '[':
		a.offsets.GridDensity--
	case '1':
		a.dispatcher.Apply(control.LumaSwitch{Enabled: !v.LumaSwitch})
	case '2':
		a.dispatcher.Apply(control.BrightSwitch{Enabled: !v.BrightSwitch})
	case '3':
		a.dispatcher.Apply(control.Invert{Enabled: !v.Invert})
	case '5':
		a.dispatcher.Apply(control.Greyscale{Enabled: !v.Greyscale})
	case '?':
		a.showHelp = !a.showHelp
	}
	return false
}

func (a *App) startInputListener(ctx context.Context) <-chan keyEvent {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		return nil
	}

	events := make(chan keyEvent, 16)

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer close(events)
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case events <- keyEvent{char: char, key: key}:
			}
		}
	}()
	return events
}
