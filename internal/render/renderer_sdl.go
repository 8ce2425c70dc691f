//go:build sdl

package render

import (
	"errors"

	"github.com/guidoenr/spectralmesh/internal/state"
	"github.com/veandco/go-sdl2/sdl"
)

// sdlState owns the preview window. The texture is recreated lazily after a resize.
type sdlState struct {
	win    *sdl.Window
	ren    *sdl.Renderer
	tex    *sdl.Texture
	pixels []byte
	texW   int
	texH   int
	title  string
}

func (r *Renderer) initSDL(width, height int) error {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return err
	}
	win, err := sdl.CreateWindow("spectralmesh",
		sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return err
	}
	ren, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		win.Destroy()
		sdl.QuitSubSystem(sdl.INIT_VIDEO)
		return err
	}
	r.sdl = &sdlState{win: win, ren: ren}
	r.mode = backendSDL
	r.useANSI = false
	return nil
}

func (st *sdlState) ensureTexture(width, height int) error {
	if st.tex != nil && st.texW == width && st.texH == height {
		return nil
	}
	if st.tex != nil {
		st.tex.Destroy()
		st.tex = nil
	}
	_ = st.ren.SetLogicalSize(int32(width), int32(height))
	tex, err := st.ren.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING,
		int32(width), int32(height))
	if err != nil {
		return err
	}
	st.tex = tex
	st.texW, st.texH = width, height
	st.pixels = make([]byte, width*height*4)
	return nil
}

func (r *Renderer) renderSDL(vis state.Visuals) Frame {
	st := r.sdl
	if st == nil {
		return Frame{Present: func(string) error { return errors.New("sdl window not open") }}
	}
	if err := st.ensureTexture(r.width, r.height); err != nil {
		return Frame{Present: func(string) error { return err }}
	}

	width := r.width
	cells := r.surface.cells
	parallelRows(r.height, func(y int) {
		row := st.pixels[y*width*4 : (y+1)*width*4]
		for x, c := range cells[y*width : (y+1)*width] {
			px := row[x*4 : x*4+4]
			px[3] = 255
			if !c.set {
				px[0], px[1], px[2] = 0, 0, 0
				continue
			}
			luma, hue, sat := shade(c, vis)
			cr, cg, cb := hsvToRGB(hue, sat, luma)
			px[0] = byte(cr * 255)
			px[1] = byte(cg * 255)
			px[2] = byte(cb * 255)
		}
	})
	return Frame{Present: st.present}
}

// present uploads the pixel buffer and pumps window events. Closing the
// window ends the session the same way Esc does in the terminal.
func (st *sdlState) present(status string) error {
	if status != "" && status != st.title {
		st.win.SetTitle(status)
		st.title = status
	}
	if err := st.tex.Update(nil, st.pixels, st.texW*4); err != nil {
		return err
	}
	if err := st.ren.Clear(); err != nil {
		return err
	}
	if err := st.ren.Copy(st.tex, nil, nil); err != nil {
		return err
	}
	st.ren.Present()
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		if _, quit := ev.(*sdl.QuitEvent); quit {
			return ErrRendererQuit
		}
	}
	return nil
}

func (r *Renderer) resizeSDL() {
	if r.sdl != nil {
		r.sdl.texW, r.sdl.texH = 0, 0
	}
}

func (r *Renderer) closeSDL() error {
	st := r.sdl
	if st == nil {
		return nil
	}
	if st.tex != nil {
		st.tex.Destroy()
	}
	st.ren.Destroy()
	st.win.Destroy()
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
	r.sdl = nil
	return nil
}

// SupportsSDL reports whether the binary was built with the SDL backend.
func SupportsSDL() bool { return true }
