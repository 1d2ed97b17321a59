// Package engine is the software rendering engine behind the viewer. It
// decodes assets with pkg/models, draws them with pkg/render on a render
// loop goroutine and presents frames to a render.Surface.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/taigrr/splatview/pkg/math3d"
	"github.com/taigrr/splatview/pkg/render"
	"github.com/taigrr/splatview/pkg/viewer"
)

// DefaultFPS is used when RendererOptions.FPS is zero.
const DefaultFPS = 30

// boundsColor outlines assets in x-ray mode.
var boundsColor = render.RGB(255, 200, 0)

// Target is a container that can display frames. *render.Surface is one.
type Target interface {
	viewer.Container
	PixelSize() (width, height int)
	Present(owner any, fb *render.Framebuffer) error
}

// Options configure the engine.
type Options struct {
	Logger     *slog.Logger
	Background render.Color
	LightDir   math3d.Vec3
	MeshColor  render.Color
}

// Engine constructs software renderers.
type Engine struct {
	opts Options
}

// New returns an engine with opts, filling in defaults.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Background == (render.Color{}) {
		opts.Background = render.ColorDark
	}
	if opts.LightDir.LenSq() == 0 {
		opts.LightDir = math3d.V3(0.5, 1, 0.8)
	}
	if opts.MeshColor == (render.Color{}) {
		opts.MeshColor = render.RGB(200, 200, 200)
	}
	return &Engine{opts: opts}
}

// Construct binds a new renderer to c.
func (e *Engine) Construct(c viewer.Container, ro viewer.RendererOptions) (viewer.Renderer, error) {
	target, ok := c.(Target)
	if !ok {
		return nil, fmt.Errorf("container %T cannot display frames", c)
	}
	w, h := target.PixelSize()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("container has no area (%dx%d)", w, h)
	}
	fps := ro.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}

	r := newRenderer(target, e.opts, ro, fps, w, h)
	if err := target.Attach(r); err != nil {
		if errors.Is(err, render.ErrSurfaceRemoved) {
			return nil, fmt.Errorf("attach: %w", viewer.ErrContainerRemoved)
		}
		return nil, fmt.Errorf("attach: %w", err)
	}
	r.log.Debug("renderer constructed", "size", fmt.Sprintf("%dx%d", w, h), "fps", fps, "antialiased", ro.Antialiased)
	return r, nil
}
