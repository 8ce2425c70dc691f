// Package render previews the deformed mesh in the terminal, or in an SDL window
// when built with the sdl tag.
package render

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/guidoenr/spectralmesh/internal/analyzer"
	"github.com/guidoenr/spectralmesh/internal/params"
	"github.com/guidoenr/spectralmesh/internal/state"
)

// ErrRendererQuit is returned by Present when the preview window was closed.
var ErrRendererQuit = errors.New("renderer closed")

type backend int

const (
	backendASCII backend = iota
	backendSDL
)

// Options configures a Renderer.
type Options struct {
	Width   int
	Height  int
	Palette string
	UseANSI bool
	// Window selects the SDL backend. Width and Height are then pixels.
	Window bool
}

// Renderer rasterizes render snapshots.
type Renderer struct {
	width       int
	height      int
	palette     []rune
	paletteName string
	useANSI     bool
	mode        backend

	lattice       lattice
	surface       surface
	statusBuilder strings.Builder
	sdl           *sdlState
}

// Frame contains the rendered ASCII lines. Present is set for windowed backends.
type Frame struct {
	Lines   []string
	Present func(status string) error
}

// New creates a Renderer.
func New(opts Options) (*Renderer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d height=%d", opts.Width, opts.Height)
	}
	if !slices.Contains(PaletteNames(), opts.Palette) {
		opts.Palette = "default"
	}
	r := &Renderer{
		width:       opts.Width,
		height:      opts.Height,
		palette:     Palette(opts.Palette),
		paletteName: opts.Palette,
		useANSI:     opts.UseANSI,
	}
	if opts.Window {
		if err := r.initSDL(opts.Width, opts.Height); err != nil {
			return nil, fmt.Errorf("sdl backend: %w", err)
		}
	}
	return r, nil
}

// Resize updates the framebuffer dimensions.
func (r *Renderer) Resize(width, height int) {
	if width > 0 {
		r.width = width
	}
	if height > 0 {
		r.height = height
	}
	if r.mode == backendSDL {
		r.resizeSDL()
	}
}

// Size reports the framebuffer dimensions.
func (r *Renderer) Size() (int, int) { return r.width, r.height }

func (r *Renderer) PaletteName() string { return r.paletteName }

// Windowed reports whether frames are presented in a window instead of the terminal.
func (r *Renderer) Windowed() bool { return r.mode == backendSDL }

// Close releases backend resources.
func (r *Renderer) Close() error {
	return r.closeSDL()
}

// Render draws one frame.
func (r *Renderer) Render(snap params.Snapshot, vis state.Visuals, tr state.Transform) Frame {
	if r.width <= 0 || r.height <= 0 {
		return Frame{}
	}
	r.rasterize(snap, vis, tr)
	if r.mode == backendSDL {
		return r.renderSDL(vis)
	}

	width := r.width
	lines := make([]string, r.height)
	cells := r.surface.cells
	parallelRows(r.height, func(y int) {
		var builder strings.Builder
		builder.Grow(width * 8)
		lastColor := -1
		for _, c := range cells[y*width : (y+1)*width] {
			if !c.set {
				builder.WriteByte(' ')
				continue
			}
			luma, hue, sat := shade(c, vis)
			if r.useANSI {
				fg := hsvToANSI(hue, sat, luma)
				if fg != lastColor {
					builder.WriteString(colorCode(fg))
					lastColor = fg
				}
			}
			builder.WriteRune(r.glyph(luma))
		}
		if r.useANSI {
			builder.WriteString(resetANSI)
		}
		lines[y] = builder.String()
	})
	return Frame{Lines: lines}
}

func (r *Renderer) rasterize(snap params.Snapshot, vis state.Visuals, tr state.Transform) {
	d := newDeformer(snap, vis, tr)
	r.lattice.build(d, latticeSize(snap.GridDensity, vis.Mesh))
	r.surface.reset(r.width, r.height)
	r.surface.draw(&r.lattice, vis, strokeRadius(vis.StrokeWeight, r.mode))
}

// strokeRadius converts the stroke weight into a plot radius in cells or pixels.
func strokeRadius(weight float64, mode backend) int {
	if mode == backendSDL {
		return clampInt(int(weight/2), 0, 4)
	}
	if weight >= 3 {
		return 1
	}
	return 0
}

// shade applies the global color switches to a plotted point.
func shade(c cell, vis state.Visuals) (luma, hue, sat float64) {
	luma = clamp01(c.luma)
	if vis.Invert {
		luma = 1 - luma
	}
	if vis.BrightSwitch {
		luma = math.Sqrt(luma)
	}
	luma = clamp01(0.15 + luma*0.85)
	hue = c.hue
	sat = 0.65
	if vis.Greyscale {
		sat = 0
	}
	return luma, hue, sat
}

func (r *Renderer) glyph(luma float64) rune {
	last := len(r.palette) - 1
	// index 0 is blank; a plotted point always shows something
	index := clampInt(int(luma*float64(last)+0.5), 1, last)
	return r.palette[index]
}

// StatusInfo is the live state summarized in the status bar.
type StatusInfo struct {
	Features    analyzer.Features
	FPS         float64
	Step        int
	Recording   bool
	Mesh        string
	Sensitivity float64
	Dropped     uint64
	Audio       string
	Port        string
}

// Status builds the one-line status text.
func (r *Renderer) Status(info StatusInfo) string {
	builder := &r.statusBuilder
	builder.Reset()
	builder.Grow(160)
	if info.Recording {
		builder.WriteString("REC")
	} else {
		builder.WriteString("PLAY")
	}
	builder.WriteString(" step ")
	builder.WriteString(strconv.Itoa(info.Step))
	builder.WriteString(" | mesh=")
	builder.WriteString(info.Mesh)
	builder.WriteString(" sens ")
	appendFloat(builder, info.Sensitivity, 1)
	builder.WriteString(" | bass ")
	appendFloat(builder, info.Features.Bass, 2)
	builder.WriteString(" mid ")
	appendFloat(builder, info.Features.Mid, 2)
	builder.WriteString(" treble ")
	appendFloat(builder, info.Features.Treble, 2)
	builder.WriteString(" beat ")
	appendFloat(builder, info.Features.BeatStrength, 2)
	builder.WriteString(" fps ")
	appendFloat(builder, info.FPS, 1)
	if info.Dropped > 0 {
		builder.WriteString(" dropped ")
		builder.WriteString(strconv.FormatUint(info.Dropped, 10))
	}
	if info.Audio != "" {
		builder.WriteString(" | mic=")
		builder.WriteString(info.Audio)
	}
	if info.Port != "" {
		builder.WriteString(" | midi=")
		builder.WriteString(info.Port)
	}
	return builder.String()
}

func appendFloat(builder *strings.Builder, value float64, precision int) {
	var buf [32]byte
	b := strconv.AppendFloat(buf[:0], value, 'f', precision, 64)
	builder.Write(b)
}
