//go:build !sdl

package render

import (
	"errors"

	"github.com/guidoenr/spectralmesh/internal/state"
)

type sdlState struct{}

func (r *Renderer) initSDL(width, height int) error {
	return errors.New("SDL backend not enabled; rebuild with -tags sdl")
}

func (r *Renderer) renderSDL(vis state.Visuals) Frame {
	return Frame{
		Present: func(string) error {
			return ErrRendererQuit
		},
	}
}

func (r *Renderer) resizeSDL() {}

func (r *Renderer) closeSDL() error { return nil }

// SupportsSDL reports whether the binary was built with the SDL backend.
func SupportsSDL() bool { return false }
