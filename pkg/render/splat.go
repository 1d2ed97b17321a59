package render

import (
	"cmp"
	"math"
	"slices"

	"github.com/taigrr/splatview/pkg/math3d"
)

// maxSplatRadius caps the screen footprint of a single splat in pixels.
const maxSplatRadius = 48

// SplatSource is the view of a gaussian splat cloud the rasterizer needs.
type SplatSource interface {
	Count() int
	SplatAt(i int) (pos math3d.Vec3, radius float64, color Color)
}

// BoundedSplatSource lets the rasterizer cull a whole cloud at once.
type BoundedSplatSource interface {
	SplatSource
	Bounds() (min, max math3d.Vec3)
}

type splatRef struct {
	x, y   float64
	depth  float64 // NDC depth for the z-test
	dist   float64 // view distance for ordering
	radius float64 // screen radius in pixels
	color  Color
}

// DrawSplats projects every splat in src and composites them back to front
// over the current framebuffer contents. Splats are depth tested against
// opaque geometry already drawn but do not write depth themselves.
func (r *Rasterizer) DrawSplats(src SplatSource, transform math3d.Mat4) int {
	if bounded, ok := src.(BoundedSplatSource); ok {
		r.CullingStats.MeshesTested++
		lo, hi := bounded.Bounds()
		if !r.IsVisible(AABB{Min: lo, Max: hi}.Transform(transform)) {
			r.CullingStats.MeshesCulled++
			return 0
		}
		r.CullingStats.MeshesDrawn++
	}

	viewProj := r.camera.ViewProjectionMatrix()
	focal := r.camera.FocalLength(r.Height())
	w, h := float64(r.Width()), float64(r.Height())

	r.UpdateFrustum()
	r.order = r.order[:0]
	for i := 0; i < src.Count(); i++ {
		pos, radius, c := src.SplatAt(i)
		if c.A == 0 {
			continue
		}
		world := transform.MulVec3(pos)
		if !r.frustum.IntersectsSphere(world, radius) {
			r.CullingStats.SplatsCulled++
			continue
		}
		clip := viewProj.MulVec4(math3d.V4FromV3(world, 1))
		if clip.W <= r.camera.Near {
			continue
		}
		ndc := clip.PerspectiveDivide()
		if ndc.Z < -1 || ndc.Z > 1 {
			continue
		}
		sr := math.Min(math.Max(radius*focal/clip.W, 0.5), maxSplatRadius)
		sx := (ndc.X + 1) * 0.5 * w
		sy := (1 - ndc.Y) * 0.5 * h
		if sx+sr < 0 || sx-sr >= w || sy+sr < 0 || sy-sr >= h {
			continue
		}
		r.order = append(r.order, splatRef{x: sx, y: sy, depth: ndc.Z, dist: clip.W, radius: sr, color: c})
	}

	slices.SortFunc(r.order, func(a, b splatRef) int {
		return cmp.Compare(b.dist, a.dist)
	})

	for i := range r.order {
		r.drawSplat(&r.order[i])
	}
	return len(r.order)
}

func (r *Rasterizer) drawSplat(s *splatRef) {
	minX := max(0, int(math.Floor(s.x-s.radius)))
	maxX := min(r.Width()-1, int(math.Ceil(s.x+s.radius)))
	minY := max(0, int(math.Floor(s.y-s.radius)))
	maxY := min(r.Height()-1, int(math.Ceil(s.y+s.radius)))
	r2 := s.radius * s.radius
	base := float64(s.color.A) / 255

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float64(x) + 0.5 - s.x
			dy := float64(y) + 0.5 - s.y
			d2 := (dx*dx + dy*dy) / r2
			if d2 > 1 {
				continue
			}
			if s.depth >= r.depthAt(x, y) {
				continue
			}
			alpha := base
			if r.Antialias {
				// exp(-4.5) at the rim leaves ~1% coverage.
				alpha *= math.Exp(-4.5 * d2)
			}
			r.fb.Blend(x, y, s.color, alpha)
		}
	}
}
