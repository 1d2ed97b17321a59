package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taigrr/splatview/pkg/math3d"
	"github.com/taigrr/splatview/pkg/models"
	"github.com/taigrr/splatview/pkg/render"
	"github.com/taigrr/splatview/pkg/viewer"
)

// Stats describe the last rendered frame.
type Stats struct {
	Frames      uint64
	Assets      int
	Primitives  int
	SplatsDrawn int
	FrameTime   time.Duration
}

// Renderer draws attached assets into its target on a render loop.
type Renderer struct {
	target Target
	log    *slog.Logger
	fps    int
	bg     render.Color
	light  math3d.Vec3
	tint   render.Color

	mu       sync.Mutex
	camera   *render.Camera
	controls *render.OrbitControls
	fb       *render.Framebuffer
	raster   *render.Rasterizer
	assets   []models.Asset
	stats    Stats
	xray     bool
	disposed bool

	loop   sync.Mutex // serializes Start/Stop
	stop   chan struct{}
	done   chan struct{}
	active bool
}

func newRenderer(target Target, opts Options, ro viewer.RendererOptions, fps, w, h int) *Renderer {
	cam := render.NewCamera()
	cam.SetUp(ro.Up)
	cam.SetPosition(ro.Position)
	cam.LookAt(ro.LookAt)
	cam.SetAspectRatio(float64(w) / float64(h))

	fb := render.NewFramebuffer(w, h)
	raster := render.NewRasterizer(cam, fb)
	raster.Antialias = ro.Antialiased

	controls := render.NewOrbitControls(cam, fps)
	controls.SetTarget(ro.LookAt)

	return &Renderer{
		target:   target,
		log:      opts.Logger.With("component", "engine"),
		fps:      fps,
		bg:       opts.Background,
		light:    opts.LightDir.Normalize(),
		tint:     opts.MeshColor,
		camera:   cam,
		controls: controls,
		fb:       fb,
		raster:   raster,
	}
}

// Camera returns a handle to the renderer's camera.
func (r *Renderer) Camera() viewer.Camera { return cameraHandle{r} }

// Controls returns a handle to the renderer's orbit controls.
func (r *Renderer) Controls() viewer.Controls { return controlsHandle{r} }

// Decode parses data with the decoder for filename's extension and applies
// opts. It does not touch the renderer.
func (r *Renderer) Decode(ctx context.Context, filename string, data []byte, opts viewer.AssetOptions) (viewer.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, err := models.Decode(filename, data)
	if err != nil {
		return nil, err
	}
	if cloud, ok := a.(*models.SplatCloud); ok && opts.AlphaRemovalThreshold > 0 {
		removed := cloud.RemoveBelowAlpha(opts.AlphaRemovalThreshold)
		r.log.Debug("alpha removal", "file", filename, "threshold", opts.AlphaRemovalThreshold, "removed", removed)
		// An emptied cloud is still a valid scene at this threshold.
		if cloud.Count() == 0 {
			r.log.Info("every splat is below the alpha threshold", "file", filename, "threshold", opts.AlphaRemovalThreshold)
		}
	}
	a.Translate(opts.Offset)
	return a, ctx.Err()
}

// Attach adds a decoded asset to the scene.
func (r *Renderer) Attach(a viewer.Asset) error {
	ma, ok := a.(models.Asset)
	if !ok {
		return fmt.Errorf("asset %T was not decoded by this engine", a)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return errors.New("renderer disposed")
	}
	r.assets = append(r.assets, ma)
	return nil
}

// RemoveAll clears the scene.
func (r *Renderer) RemoveAll() {
	r.mu.Lock()
	r.assets = nil
	r.mu.Unlock()
}

// Start launches the render loop. It is a no-op if the loop is running or
// the renderer is disposed.
func (r *Renderer) Start() {
	r.loop.Lock()
	defer r.loop.Unlock()
	if r.active || r.isDisposed() {
		return
	}
	r.stop = make(chan struct{})
	r.done = make(chan struct{})
	r.active = true
	go r.run(r.stop, r.done)
}

// Stop halts the render loop and waits for the current frame to finish.
func (r *Renderer) Stop() {
	r.loop.Lock()
	defer r.loop.Unlock()
	if !r.active {
		return
	}
	close(r.stop)
	<-r.done
	r.active = false
}

// Running reports whether the render loop was started and not stopped.
func (r *Renderer) Running() bool {
	r.loop.Lock()
	defer r.loop.Unlock()
	return r.active
}

// Dispose stops the loop, drops all scene data and detaches from the
// target. It returns viewer.ErrContainerRemoved if the target is gone.
func (r *Renderer) Dispose() error {
	r.Stop()

	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return nil
	}
	r.disposed = true
	r.assets = nil
	r.fb = nil
	r.raster = nil
	r.mu.Unlock()

	if err := r.target.Detach(r); err != nil {
		if errors.Is(err, render.ErrSurfaceRemoved) {
			return fmt.Errorf("detach: %w", viewer.ErrContainerRemoved)
		}
		return fmt.Errorf("detach: %w", err)
	}
	r.log.Debug("renderer disposed")
	return nil
}

// SetXRay switches between shaded drawing and x-ray drawing, where meshes
// are drawn as wireframes and every asset gets its bounding box outlined.
func (r *Renderer) SetXRay(on bool) {
	r.mu.Lock()
	r.xray = on
	r.mu.Unlock()
}

// XRay reports whether x-ray drawing is on.
func (r *Renderer) XRay() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.xray
}

// Stats returns statistics for the last frame.
func (r *Renderer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// RenderOnce draws and presents a single frame outside the loop.
func (r *Renderer) RenderOnce() error {
	return r.frame()
}

func (r *Renderer) isDisposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}

func (r *Renderer) run(stop, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second / time.Duration(r.fps))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := r.frame(); err != nil {
				r.log.Debug("render loop ending", "err", err)
				return
			}
		}
	}
}

// frame renders the scene and presents it.
func (r *Renderer) frame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return errors.New("renderer disposed")
	}
	start := time.Now()
	r.resizeLocked()
	r.controls.Update()

	r.fb.Clear(r.bg)
	r.raster.ClearDepth()
	r.raster.InvalidateFrustum()
	r.raster.ResetCullingStats()

	drawn, prims := 0, 0
	// Opaque meshes go first so splats can depth test against them.
	for _, a := range r.assets {
		if m, ok := a.(*models.Mesh); ok {
			c := m.Color
			if c.A == 0 {
				c = r.tint
			}
			if r.xray {
				r.raster.DrawMeshWireframe(m, math3d.Identity(), c)
			} else {
				r.raster.DrawMeshGouraud(m, math3d.Identity(), c, r.light)
			}
		}
		prims += a.Count()
	}
	for _, a := range r.assets {
		if c, ok := a.(*models.SplatCloud); ok {
			drawn += r.raster.DrawSplats(c, math3d.Identity())
		}
	}
	if r.xray {
		for _, a := range r.assets {
			lo, hi := a.Bounds()
			r.raster.DrawBounds(render.AABB{Min: lo, Max: hi}, boundsColor)
		}
	}

	r.stats = Stats{
		Frames:      r.stats.Frames + 1,
		Assets:      len(r.assets),
		Primitives:  prims,
		SplatsDrawn: drawn,
		FrameTime:   time.Since(start),
	}
	return r.target.Present(r, r.fb)
}

// resizeLocked follows the target size.
func (r *Renderer) resizeLocked() {
	w, h := r.target.PixelSize()
	if w <= 0 || h <= 0 || (w == r.fb.Width && h == r.fb.Height) {
		return
	}
	r.fb = render.NewFramebuffer(w, h)
	r.raster.SetFramebuffer(r.fb)
	r.camera.SetAspectRatio(float64(w) / float64(h))
}
