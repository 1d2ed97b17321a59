package engine

import (
	"github.com/taigrr/splatview/pkg/math3d"
	"github.com/taigrr/splatview/pkg/render"
	"github.com/taigrr/splatview/pkg/viewer"
)

// cameraHandle exposes the renderer's camera under its lock, since the
// render loop reads it concurrently.
type cameraHandle struct{ r *Renderer }

func (h cameraHandle) Position() math3d.Vec3 {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	return h.r.camera.Position
}

func (h cameraHandle) SetPosition(p math3d.Vec3) {
	h.r.mu.Lock()
	h.r.camera.SetPosition(p)
	h.r.mu.Unlock()
}

func (h cameraHandle) Up() math3d.Vec3 {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	return h.r.camera.UpDir
}

// Navigator is implemented by the controls handle for interactive input.
type Navigator interface {
	Rotate(dAzimuth, dPolar float64)
	Zoom(amount float64)
	Pan(dx, dy float64)
}

type controlsHandle struct{ r *Renderer }

var _ Navigator = controlsHandle{}

func (h controlsHandle) Target() math3d.Vec3 {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	return h.r.controls.Target()
}

func (h controlsHandle) SetTarget(t math3d.Vec3) {
	h.r.mu.Lock()
	h.r.controls.SetTarget(t)
	h.r.mu.Unlock()
}

func (h controlsHandle) SetConstraint(c viewer.OrbitConstraint) {
	h.r.mu.Lock()
	defer h.r.mu.Unlock()
	l := h.r.controls.Limits()
	h.r.controls.SetLimits(limitsFor(c, l))
}

func (h controlsHandle) Update() {
	h.r.mu.Lock()
	h.r.controls.Update()
	h.r.mu.Unlock()
}

func (h controlsHandle) Rotate(dAzimuth, dPolar float64) {
	h.r.mu.Lock()
	h.r.controls.Rotate(dAzimuth, dPolar)
	h.r.mu.Unlock()
}

func (h controlsHandle) Zoom(amount float64) {
	h.r.mu.Lock()
	h.r.controls.Zoom(amount)
	h.r.mu.Unlock()
}

func (h controlsHandle) Pan(dx, dy float64) {
	h.r.mu.Lock()
	h.r.controls.Pan(dx, dy)
	h.r.mu.Unlock()
}

// limitsFor maps an orbit constraint onto render limits, keeping the
// distance range of base.
func limitsFor(c viewer.OrbitConstraint, base render.OrbitLimits) render.OrbitLimits {
	base.MinPolar = c.MinPolarAngle
	base.MaxPolar = c.MaxPolarAngle
	base.MinAzimuth = c.MinAzimuthAngle
	base.MaxAzimuth = c.MaxAzimuthAngle
	base.EnablePan = c.EnablePan
	base.EnableZoom = c.EnableZoom
	return base
}
