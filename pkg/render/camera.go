package render

import (
	"math"

	"github.com/taigrr/splatview/pkg/math3d"
)

// Camera is a perspective camera that looks from Position toward Target.
// The up vector is configurable because captured scenes rarely share the
// renderer's notion of vertical.
type Camera struct {
	Position math3d.Vec3
	Target   math3d.Vec3
	UpDir    math3d.Vec3

	// Projection parameters
	FOV         float64 // Vertical field of view in radians
	AspectRatio float64 // Width / Height
	Near        float64 // Near clipping plane
	Far         float64 // Far clipping plane

	// Cached matrices (computed on demand)
	viewMatrix     math3d.Mat4
	projMatrix     math3d.Mat4
	viewProjMatrix math3d.Mat4
	viewDirty      bool
	projDirty      bool
	vpDirty        bool
}

// NewCamera creates a camera at (0, 0, 5) looking at the origin with +Y up.
func NewCamera() *Camera {
	return &Camera{
		Position:    math3d.V3(0, 0, 5),
		UpDir:       math3d.Up(),
		FOV:         math.Pi / 3,
		AspectRatio: 16.0 / 9.0,
		Near:        0.1,
		Far:         1000,
		viewDirty:   true,
		projDirty:   true,
	}
}

// SetPosition sets the camera position.
func (c *Camera) SetPosition(pos math3d.Vec3) {
	c.Position = pos
	c.viewDirty = true
}

// LookAt points the camera at target.
func (c *Camera) LookAt(target math3d.Vec3) {
	c.Target = target
	c.viewDirty = true
}

// SetUp sets the camera's up vector. A zero vector is ignored.
func (c *Camera) SetUp(up math3d.Vec3) {
	if up.LenSq() == 0 {
		return
	}
	c.UpDir = up.Normalize()
	c.viewDirty = true
}

// SetFOV sets the field of view (in radians).
func (c *Camera) SetFOV(fov float64) {
	c.FOV = fov
	c.projDirty = true
}

// SetAspectRatio sets the aspect ratio.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.AspectRatio = aspect
	c.projDirty = true
}

// SetClipPlanes sets the near and far clipping planes.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.Near = near
	c.Far = far
	c.projDirty = true
}

// Forward returns the unit view direction.
func (c *Camera) Forward() math3d.Vec3 {
	return c.Target.Sub(c.Position).Normalize()
}

// ViewMatrix returns the view matrix.
func (c *Camera) ViewMatrix() math3d.Mat4 {
	if c.viewDirty {
		c.viewMatrix = math3d.LookAt(c.Position, c.Target, c.safeUp())
		c.viewDirty = false
		c.vpDirty = true
	}
	return c.viewMatrix
}

// safeUp nudges the up vector when it is parallel to the view direction,
// which would otherwise collapse the view basis.
func (c *Camera) safeUp() math3d.Vec3 {
	f := c.Forward()
	if f.Cross(c.UpDir).LenSq() > 1e-12 {
		return c.UpDir
	}
	if math.Abs(f.Z) < 0.9 {
		return math3d.V3(0, 0, 1)
	}
	return math3d.V3(1, 0, 0)
}

// ProjectionMatrix returns the projection matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	if c.projDirty {
		c.projMatrix = math3d.Perspective(c.FOV, c.AspectRatio, c.Near, c.Far)
		c.projDirty = false
		c.vpDirty = true
	}
	return c.projMatrix
}

// ViewProjectionMatrix returns the combined view-projection matrix.
func (c *Camera) ViewProjectionMatrix() math3d.Mat4 {
	view := c.ViewMatrix()
	proj := c.ProjectionMatrix()
	if c.vpDirty {
		c.viewProjMatrix = proj.Mul(view)
		c.vpDirty = false
	}
	return c.viewProjMatrix
}

// FocalLength returns the projection scale in pixels for a viewport height.
func (c *Camera) FocalLength(screenHeight int) float64 {
	return float64(screenHeight) / (2 * math.Tan(c.FOV/2))
}
