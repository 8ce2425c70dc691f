package control

import "github.com/guidoenr/spectralmesh/internal/automation"

const (
	// StatusControlChange is the status nibble of a control-change message.
	StatusControlChange = 0xB0

	midpoint = 63.5
	pressed  = 127
)

// Unipolar maps a 7-bit controller value onto [0,1].
func Unipolar(v uint8) float64 {
	return float64(v) / 127
}

// Bipolar maps a 7-bit controller value onto roughly [-1,1] with the physical centre at 0.
func Bipolar(v uint8) float64 {
	return (float64(v) - midpoint) / midpoint
}

type transform int

const (
	unipolar transform = iota
	bipolar
)

type continuousMapping struct {
	track automation.Track
	fn    transform
	scale float64
}

var continuousControls = map[uint8]continuousMapping{
	16: {automation.LumaKeyLevel, unipolar, 1},
	17: {automation.DisplaceX, bipolar, 1},
	18: {automation.DisplaceY, bipolar, 1},
	19: {automation.ZFrequency, unipolar, 1},
	20: {automation.XFrequency, bipolar, 1},
	21: {automation.YFrequency, bipolar, 1},
	22: {automation.Zoom, bipolar, 1},
	23: {automation.GridScale, unipolar, 1},

	120: {automation.CenterX, bipolar, 1},
	121: {automation.CenterY, bipolar, 1},
	122: {automation.ZLfoArg, bipolar, 0.1},
	123: {automation.ZLfoAmp, bipolar, 1},
	124: {automation.XLfoArg, bipolar, 0.1},
	125: {automation.XLfoAmp, bipolar, 1},
	126: {automation.YLfoArg, bipolar, 0.1},
	127: {automation.YLfoAmp, bipolar, 1},
}

type shapeMapping struct {
	axis  Axis
	shape Shape
}

var shapeControls = map[uint8]shapeMapping{
	35: {AxisZ, ShapeSquare},
	51: {AxisZ, ShapeSaw},
	67: {AxisZ, ShapeNoise},
	37: {AxisX, ShapeSquare},
	53: {AxisX, ShapeSaw},
	69: {AxisX, ShapeNoise},
	39: {AxisY, ShapeSquare},
	55: {AxisY, ShapeSaw},
	71: {AxisY, ShapeNoise},
}

var meshControls = map[uint8]MeshKind{
	41: MeshWireframe,
	42: MeshVerticalLines,
	43: MeshTriangles,
	44: MeshHorizontalLines,
}

// Decode parses one raw message. Non control-change statuses, short messages, data
// bytes with the high bit set and unmapped controllers yield ok == false.
func Decode(msg []byte) (cmd Command, ok bool) {
	if len(msg) < 3 || msg[0]&0xF0 != StatusControlChange {
		return nil, false
	}
	if msg[1] > 0x7F || msg[2] > 0x7F {
		return nil, false
	}
	return decodeControl(msg[1], msg[2])
}

func decodeControl(controller, value uint8) (Command, bool) {
	if m, found := continuousControls[controller]; found {
		var v float64
		if m.fn == bipolar {
			v = Bipolar(value)
		} else {
			v = Unipolar(value)
		}
		return Continuous{Track: m.track, Value: v * m.scale}, true
	}

	if m, found := shapeControls[controller]; found {
		shape := ShapeSine
		if value == pressed {
			shape = m.shape
		}
		return LfoShape{Axis: m.axis, Shape: shape}, true
	}

	if kind, found := meshControls[controller]; found {
		if value != pressed {
			return nil, false
		}
		return SetMesh{Kind: kind}, true
	}

	on := value == pressed
	switch controller {
	case 60:
		if on {
			return RecordStart{}, true
		}
		return RecordStop{}, true
	case 58:
		if on {
			return Reset{}, true
		}
		return nil, false
	case 34:
		return FreqZero{Axis: AxisZ, Enabled: on}, true
	case 36:
		return FreqZero{Axis: AxisX, Enabled: on}, true
	case 38:
		return FreqZero{Axis: AxisY, Enabled: on}, true
	case 50:
		return RingMod{Axis: AxisZ, Enabled: on}, true
	case 52:
		return RingMod{Axis: AxisX, Enabled: on}, true
	case 54:
		return RingMod{Axis: AxisY, Enabled: on}, true
	case 66:
		return PhaseMod{Axis: AxisZ, Enabled: on}, true
	case 68:
		return PhaseMod{Axis: AxisX, Enabled: on}, true
	case 70:
		return PhaseMod{Axis: AxisY, Enabled: on}, true
	case 45:
		return StrokeWeight{Value: Unipolar(value) * 5}, true
	case 46:
		return Greyscale{Enabled: on}, true
	case 59:
		return Invert{Enabled: on}, true
	case 61:
		return BrightSwitch{Enabled: on}, true
	}
	return nil, false
}
