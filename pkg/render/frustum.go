package render

import (
	"github.com/taigrr/splatview/pkg/math3d"
)

// Plane is the set of points p with Normal·p + D = 0.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize scales the plane so Normal has unit length, which makes
// DistanceToPoint a true distance.
func (p *Plane) Normalize() {
	if l := p.Normal.Len(); l > 0 {
		p.Normal = p.Normal.Scale(1 / l)
		p.D /= l
	}
}

// DistanceToPoint is positive on the side Normal points to.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum is the camera's view volume as six inward-facing planes.
type Frustum struct {
	Planes [6]Plane
}

// Plane indices. Each pair comes from one clip axis: even indices are the
// negative side (w + axis ≥ 0), odd the positive side (w - axis ≥ 0).
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustumFromMatrix extracts the clip planes of a view-projection matrix
// (Gribb/Hartmann). m is column-major, so row i is m[i], m[i+4], m[i+8],
// m[i+12].
func NewFrustumFromMatrix(m math3d.Mat4) Frustum {
	row := func(i int) (math3d.Vec3, float64) {
		return math3d.V3(m[i], m[i+4], m[i+8]), m[i+12]
	}
	wn, wd := row(3)

	var f Frustum
	for axis := range 3 {
		an, ad := row(axis)
		f.Planes[2*axis] = Plane{Normal: wn.Add(an), D: wd + ad}
		f.Planes[2*axis+1] = Plane{Normal: wn.Sub(an), D: wd - ad}
	}
	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// Radius of the sphere through the box corners.
func (b AABB) Radius() float64 {
	return b.Size().Len() / 2
}

func (b AABB) Center() math3d.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

func (b AABB) Size() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// corner returns corner i of the box; bit 0 selects X, bit 1 Y, bit 2 Z.
func (b AABB) corner(i int) math3d.Vec3 {
	c := b.Min
	if i&1 != 0 {
		c.X = b.Max.X
	}
	if i&2 != 0 {
		c.Y = b.Max.Y
	}
	if i&4 != 0 {
		c.Z = b.Max.Z
	}
	return c
}

// Transform returns the box enclosing all eight corners after m.
func (b AABB) Transform(m math3d.Mat4) AABB {
	p := m.MulVec3(b.corner(0))
	out := AABB{Min: p, Max: p}
	for i := 1; i < 8; i++ {
		p = m.MulVec3(b.corner(i))
		out.Min = out.Min.Min(p)
		out.Max = out.Max.Max(p)
	}
	return out
}

// ContainsPoint reports whether p lies inside the box, borders included.
func (b AABB) ContainsPoint(p math3d.Vec3) bool {
	return b.Min.X <= p.X && p.X <= b.Max.X &&
		b.Min.Y <= p.Y && p.Y <= b.Max.Y &&
		b.Min.Z <= p.Z && p.Z <= b.Max.Z
}

// IntersectAABB reports whether any part of box may be visible. For each
// plane only the corner furthest along the normal is tested; if even that
// one is outside, so is the whole box.
func (f Frustum) IntersectAABB(box AABB) bool {
	for _, p := range f.Planes {
		far := box.Min
		if p.Normal.X >= 0 {
			far.X = box.Max.X
		}
		if p.Normal.Y >= 0 {
			far.Y = box.Max.Y
		}
		if p.Normal.Z >= 0 {
			far.Z = box.Max.Z
		}
		if p.DistanceToPoint(far) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether p is inside all six planes.
func (f Frustum) ContainsPoint(p math3d.Vec3) bool {
	return f.IntersectsSphere(p, 0)
}

// IntersectsSphere reports whether a sphere overlaps the frustum. It is
// conservative near the frustum edges, which is fine for culling splats.
func (f Frustum) IntersectsSphere(center math3d.Vec3, radius float64) bool {
	for _, p := range f.Planes {
		if p.DistanceToPoint(center) < -radius {
			return false
		}
	}
	return true
}

// GetFrustum returns the camera's current view frustum.
func (c *Camera) GetFrustum() Frustum {
	return NewFrustumFromMatrix(c.ViewProjectionMatrix())
}
