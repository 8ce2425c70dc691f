package render

import (
	"math"
	"runtime"
	"sync"

	"github.com/guidoenr/spectralmesh/internal/control"
	"github.com/guidoenr/spectralmesh/internal/params"
	"github.com/guidoenr/spectralmesh/internal/state"
)

const (
	rippleWidth  = 0.06
	rippleHeight = 0.25
	maxDepth     = 0.8
)

type vertex struct {
	x, y, z float64
	luma    float64
	hue     float64
	keyed   bool
}

type oscillator struct {
	shape    control.Shape
	phase    float64
	freq     float64
	amp      float64
	ringMod  bool
	phaseMod bool
}

func newOscillator(sw state.AxisSwitches, phase, freq, amp float64) oscillator {
	if sw.FreqZero {
		freq = 0
	}
	return oscillator{
		shape:    sw.Shape,
		phase:    phase,
		freq:     freq,
		amp:      amp,
		ringMod:  sw.RingMod,
		phaseMod: sw.PhaseMod,
	}
}

// eval returns the oscillator offset at a position along its travel axis.
// Phase modulation bends the argument by the source brightness; ring modulation
// multiplies the output by it.
func (o oscillator) eval(coord, luma float64) float64 {
	arg := o.phase + o.freq*coord*2*math.Pi
	if o.phaseMod {
		arg += luma * 2 * math.Pi
	}
	out := o.amp * lfoWave(o.shape, arg)
	if o.ringMod {
		out *= luma*2 - 1
	}
	return out
}

// lfoWave evaluates a waveform in [-1,1].
func lfoWave(shape control.Shape, arg float64) float64 {
	switch shape {
	case control.ShapeSquare:
		if math.Sin(arg) >= 0 {
			return 1
		}
		return -1
	case control.ShapeSaw:
		return 2*frac(arg/(2*math.Pi)) - 1
	case control.ShapeNoise:
		return fractalNoise(arg, arg*0.37)
	default:
		return math.Sin(arg)
	}
}

// deformer holds everything needed to place one mesh vertex this frame.
type deformer struct {
	snap      params.Snapshot
	transform state.Transform
	time      float64
	zoom      float64
	lumaKey   float64
	keyAbove  bool
	x, y, z   oscillator

	sinX, cosX float64
	sinY, cosY float64
	sinZ, cosZ float64
}

func newDeformer(snap params.Snapshot, vis state.Visuals, tr state.Transform) *deformer {
	d := &deformer{
		snap:      snap,
		transform: tr,
		time:      float64(snap.Frame) / 60.0,
		zoom:      clampFloat(1+snap.Zoom*0.1, 0.1, 10),
		lumaKey:   snap.LumaKeyLevel,
		keyAbove:  vis.LumaSwitch,
		x:         newOscillator(vis.X, snap.XPhase, snap.XFrequency, snap.XLfoAmp),
		y:         newOscillator(vis.Y, snap.YPhase, snap.YFrequency, snap.YLfoAmp),
		z:         newOscillator(vis.Z, snap.ZPhase, snap.ZFrequency, snap.ZLfoAmp),
	}
	d.sinX, d.cosX = math.Sincos(tr.RotateX)
	d.sinY, d.cosY = math.Sincos(tr.RotateY)
	d.sinZ, d.cosZ = math.Sincos(tr.RotateZ)
	return d
}

// place maps texture coordinates in [0,1] to a normalized screen position.
func (d *deformer) place(u, v float64) vertex {
	snap := &d.snap
	luma := sourceLuma(u, v, d.time)
	keyed := luma < d.lumaKey
	if d.keyAbove {
		keyed = luma > d.lumaKey
	}

	cx, cy := u-0.5, v-0.5
	r := math.Hypot(cx, cy)

	dx := snap.DisplaceX*(luma-0.5) + d.x.eval(cy, luma) + snap.AudioDisplacement*cx*luma
	dy := snap.DisplaceY*(luma-0.5) + d.y.eval(cx, luma) + snap.AudioDisplacement*cy*luma
	dz := d.z.eval(r, luma) + snap.AudioZ
	if snap.WaveAmp > 0 {
		dz += snap.WaveAmp * math.Sin(r*snap.WaveFreq-snap.WavePhase)
	}
	for _, rp := range snap.Ripples {
		if !rp.Active {
			continue
		}
		diff := math.Abs(math.Hypot(u-rp.X, v-rp.Y) - rp.Radius)
		if diff < rippleWidth {
			dz += rp.Intensity * (1 - diff/rippleWidth) * rippleHeight
		}
	}

	x, y, z := d.rotate(cx+dx, cy+dy, dz)
	persp := 1 / (1 - clampFloat(z, -maxDepth, maxDepth))
	scale := d.zoom * persp
	x = x*scale + snap.CenterX*0.5 + d.transform.GlobalX
	y = y*scale + snap.CenterY*0.5 + d.transform.GlobalY

	return vertex{
		x:     x + 0.5,
		y:     y + 0.5,
		z:     z,
		luma:  luma,
		hue:   sourceHue(u, v, d.time),
		keyed: keyed,
	}
}

func (d *deformer) rotate(x, y, z float64) (float64, float64, float64) {
	y, z = y*d.cosX-z*d.sinX, y*d.sinX+z*d.cosX
	x, z = x*d.cosY+z*d.sinY, -x*d.sinY+z*d.cosY
	x, y = x*d.cosZ-y*d.sinZ, x*d.sinZ+y*d.cosZ
	return x, y, z
}

// lattice is the deformed vertex grid, (n+1)x(n+1) points.
type lattice struct {
	n    int
	vert []vertex
}

func (l *lattice) at(i, j int) vertex {
	return l.vert[j*(l.n+1)+i]
}

// latticeSize is the number of cells per side the mesh is tessellated into.
// Line meshes use twice the density of the triangle mesh.
func latticeSize(density int, mesh state.MeshType) int {
	if density < 1 {
		density = 1
	}
	if mesh == state.MeshTriangles {
		return density
	}
	return density * 2
}

func (l *lattice) build(d *deformer, n int) {
	l.n = n
	size := (n + 1) * (n + 1)
	if cap(l.vert) < size {
		l.vert = make([]vertex, size)
	}
	l.vert = l.vert[:size]
	inv := 1.0 / float64(n)
	parallelRows(n+1, func(j int) {
		v := float64(j) * inv
		row := l.vert[j*(n+1) : (j+1)*(n+1)]
		for i := range row {
			row[i] = d.place(float64(i)*inv, v)
		}
	})
}

// sample bilinearly interpolates the lattice at texture coordinates.
func (l *lattice) sample(u, v float64) vertex {
	fu := clampFloat(u, 0, 1) * float64(l.n)
	fv := clampFloat(v, 0, 1) * float64(l.n)
	i := clampInt(int(fu), 0, l.n-1)
	j := clampInt(int(fv), 0, l.n-1)
	tu := fu - float64(i)
	tv := fv - float64(j)

	a, b := l.at(i, j), l.at(i+1, j)
	c, e := l.at(i, j+1), l.at(i+1, j+1)
	mix := func(p, q, r, s float64) float64 {
		return lerp(lerp(p, q, tu), lerp(r, s, tu), tv)
	}
	return vertex{
		x:     mix(a.x, b.x, c.x, e.x),
		y:     mix(a.y, b.y, c.y, e.y),
		z:     mix(a.z, b.z, c.z, e.z),
		luma:  mix(a.luma, b.luma, c.luma, e.luma),
		hue:   mix(a.hue, b.hue, c.hue, e.hue),
		keyed: a.keyed || b.keyed || c.keyed || e.keyed,
	}
}

type cell struct {
	luma float64
	hue  float64
	z    float64
	set  bool
}

// surface is a width x height framebuffer of plotted mesh points.
type surface struct {
	width  int
	height int
	cells  []cell
}

func (s *surface) reset(width, height int) {
	s.width = width
	s.height = height
	size := width * height
	if cap(s.cells) < size {
		s.cells = make([]cell, size)
	}
	s.cells = s.cells[:size]
	for i := range s.cells {
		s.cells[i] = cell{}
	}
}

// plot writes a point, keeping whichever point is nearest the viewer.
func (s *surface) plot(p vertex, radius int) {
	if p.keyed {
		return
	}
	cx := int(math.Floor(p.x * float64(s.width)))
	cy := int(math.Floor(p.y * float64(s.height)))
	for y := cy - radius; y <= cy+radius; y++ {
		if y < 0 || y >= s.height {
			continue
		}
		for x := cx - radius; x <= cx+radius; x++ {
			if x < 0 || x >= s.width {
				continue
			}
			c := &s.cells[y*s.width+x]
			if c.set && c.z > p.z {
				continue
			}
			*c = cell{luma: p.luma, hue: p.hue, z: p.z, set: true}
		}
	}
}

func (s *surface) line(a, b vertex, radius int) {
	if a.keyed || b.keyed {
		return
	}
	dx := math.Abs(b.x-a.x) * float64(s.width)
	dy := math.Abs(b.y-a.y) * float64(s.height)
	steps := int(math.Max(dx, dy)) + 1
	if steps > 4*(s.width+s.height) {
		steps = 4 * (s.width + s.height)
	}
	for k := 0; k <= steps; k++ {
		t := float64(k) / float64(steps)
		s.plot(vertex{
			x:    lerp(a.x, b.x, t),
			y:    lerp(a.y, b.y, t),
			z:    lerp(a.z, b.z, t),
			luma: lerp(a.luma, b.luma, t),
			hue:  lerp(a.hue, b.hue, t),
		}, radius)
	}
}

func (s *surface) filled(l *lattice) {
	samples := 2 * max(s.width, s.height)
	if samples < l.n {
		samples = l.n
	}
	inv := 1.0 / float64(samples)
	for j := 0; j <= samples; j++ {
		v := float64(j) * inv
		for i := 0; i <= samples; i++ {
			s.plot(l.sample(float64(i)*inv, v), 0)
		}
	}
}

func (s *surface) rows(l *lattice, radius int) {
	for j := 0; j <= l.n; j++ {
		for i := 0; i < l.n; i++ {
			s.line(l.at(i, j), l.at(i+1, j), radius)
		}
	}
}

func (s *surface) columns(l *lattice, radius int) {
	for i := 0; i <= l.n; i++ {
		for j := 0; j < l.n; j++ {
			s.line(l.at(i, j), l.at(i, j+1), radius)
		}
	}
}

func (s *surface) diagonals(l *lattice, radius int) {
	for j := 0; j < l.n; j++ {
		for i := 0; i < l.n; i++ {
			s.line(l.at(i, j), l.at(i+1, j+1), radius)
		}
	}
}

// draw rasterizes the lattice the way the selected mesh type tessellates it.
func (s *surface) draw(l *lattice, vis state.Visuals, radius int) {
	switch vis.Mesh {
	case state.MeshHorizontalLines:
		s.rows(l, radius)
	case state.MeshVerticalLines:
		s.columns(l, radius)
	case state.MeshGrid:
		s.rows(l, radius)
		s.columns(l, radius)
	default:
		if vis.Wireframe {
			s.rows(l, radius)
			s.columns(l, radius)
			s.diagonals(l, radius)
			return
		}
		s.filled(l)
	}
}

// parallelRows runs fn for every row index on a pool of GOMAXPROCS workers.
func parallelRows(rows int, fn func(row int)) {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > rows {
		numWorkers = rows
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	var wg sync.WaitGroup
	jobs := make(chan int, numWorkers)
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for row := range jobs {
				fn(row)
			}
		}()
	}
	for row := 0; row < rows; row++ {
		jobs <- row
	}
	close(jobs)
	wg.Wait()
}
