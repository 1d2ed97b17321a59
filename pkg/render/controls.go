package render

import (
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/splatview/pkg/math3d"
)

// OrbitLimits bounds how far OrbitControls may swing the camera around its
// target. Angles are in radians, measured in the camera's up frame.
type OrbitLimits struct {
	MinPolar, MaxPolar     float64
	MinAzimuth, MaxAzimuth float64 // ±Inf for unbounded
	MinDistance            float64
	MaxDistance            float64
	EnablePan              bool
	EnableZoom             bool
}

// FreeOrbit places no bounds on rotation.
func FreeOrbit() OrbitLimits {
	return OrbitLimits{
		MinPolar:    0,
		MaxPolar:    math.Pi,
		MinAzimuth:  math.Inf(-1),
		MaxAzimuth:  math.Inf(1),
		MinDistance: 0.1,
		MaxDistance: math.Inf(1),
		EnablePan:   true,
		EnableZoom:  true,
	}
}

// dampedAxis is a velocity that decays toward zero on a critically damped
// spring, so user input keeps gliding for a moment after it stops.
type dampedAxis struct {
	Velocity float64
	spring   harmonica.Spring
	accel    float64
}

func newDampedAxis(fps int) dampedAxis {
	return dampedAxis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

// step returns the displacement for this frame and decays the velocity.
func (a *dampedAxis) step() float64 {
	d := a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
	if math.Abs(a.Velocity) < 1e-5 {
		a.Velocity, a.accel = 0, 0
	}
	return d
}

// OrbitControls orbits a Camera around a target point.
type OrbitControls struct {
	camera *Camera
	target math3d.Vec3
	limits OrbitLimits
	fps    int

	azimuth dampedAxis
	polar   dampedAxis
	zoom    dampedAxis
	panX    dampedAxis
	panY    dampedAxis
}

// NewOrbitControls attaches orbit controls to camera. fps sets the spring
// step; Update should be called once per frame at that rate.
func NewOrbitControls(camera *Camera, fps int) *OrbitControls {
	if fps <= 0 {
		fps = 30
	}
	c := &OrbitControls{
		camera: camera,
		limits: FreeOrbit(),
		fps:    fps,
	}
	c.Stop()
	return c
}

// Target returns the point the camera orbits.
func (c *OrbitControls) Target() math3d.Vec3 {
	return c.target
}

// SetTarget moves the orbit center.
func (c *OrbitControls) SetTarget(t math3d.Vec3) {
	c.target = t
	c.camera.LookAt(t)
}

// Limits returns the active orbit limits.
func (c *OrbitControls) Limits() OrbitLimits {
	return c.limits
}

// SetLimits replaces the orbit limits. They take effect on the next Update.
func (c *OrbitControls) SetLimits(l OrbitLimits) {
	c.limits = l
}

// Stop cancels any residual motion.
func (c *OrbitControls) Stop() {
	c.azimuth = newDampedAxis(c.fps)
	c.polar = newDampedAxis(c.fps)
	c.zoom = newDampedAxis(c.fps)
	c.panX = newDampedAxis(c.fps)
	c.panY = newDampedAxis(c.fps)
}

// Rotate adds angular velocity in radians per frame.
func (c *OrbitControls) Rotate(dAzimuth, dPolar float64) {
	c.azimuth.Velocity += dAzimuth
	c.polar.Velocity += dPolar
}

// Zoom adds a relative change of orbit distance per frame. Positive values
// move the camera closer. Ignored when zoom is disabled.
func (c *OrbitControls) Zoom(amount float64) {
	if !c.limits.EnableZoom {
		return
	}
	c.zoom.Velocity += amount
}

// Pan shifts camera and target in the screen plane, in units of the orbit
// distance. Ignored when pan is disabled.
func (c *OrbitControls) Pan(dx, dy float64) {
	if !c.limits.EnablePan {
		return
	}
	c.panX.Velocity += dx
	c.panY.Velocity += dy
}

// Update applies pending motion, clamps the camera to the orbit limits and
// re-aims it at the target. The camera position may have been moved
// externally since the last call.
func (c *OrbitControls) Update() {
	basis := math3d.UpBasis(c.camera.UpDir)
	inv := basis.Transpose()

	offset := basis.MulVec3Dir(c.camera.Position.Sub(c.target))
	s := math3d.SphericalFrom(offset)
	if s.Radius == 0 {
		s = math3d.Spherical{Radius: math.Max(c.limits.MinDistance, 1), Polar: math.Pi / 2}
	}

	s.Azimuth += c.azimuth.step()
	s.Polar += c.polar.step()
	s.Radius *= 1 - c.zoom.step()

	if px, py := c.panX.step(), c.panY.step(); px != 0 || py != 0 {
		fwd := c.camera.Forward()
		right := fwd.Cross(c.camera.UpDir).Normalize()
		up := right.Cross(fwd).Normalize()
		shift := right.Scale(px * s.Radius).Add(up.Scale(py * s.Radius))
		c.target = c.target.Add(shift)
	}

	s.Azimuth = math3d.Clamp(s.Azimuth, c.limits.MinAzimuth, c.limits.MaxAzimuth)
	// Keep off the poles so the view basis stays defined.
	const eps = 1e-6
	s.Polar = math3d.Clamp(s.Polar, math.Max(c.limits.MinPolar, eps), math.Min(c.limits.MaxPolar, math.Pi-eps))
	s.Radius = math3d.Clamp(s.Radius, c.limits.MinDistance, c.limits.MaxDistance)

	c.camera.SetPosition(c.target.Add(inv.MulVec3Dir(s.Vec3())))
	c.camera.LookAt(c.target)
}
