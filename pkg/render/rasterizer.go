// Package render provides the software rasterizer behind the splat viewer:
// a depth-tested triangle path for meshes and a sorted, blended point path
// for gaussian splat clouds.
package render

import (
	"math"

	"github.com/taigrr/splatview/pkg/math3d"
)

// Vertex is a world-space vertex with the attributes the shader needs.
type Vertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	Color    Color
}

// Triangle is three vertices, clockwise on screen when front facing.
type Triangle struct {
	V [3]Vertex
}

// Rasterizer draws into a framebuffer with a per-pixel depth buffer.
type Rasterizer struct {
	camera *Camera
	fb     *Framebuffer
	depth  []float64 // row-major, len = width*height

	frustum      Frustum
	frustumDirty bool

	CullingStats CullingStats

	// DisableBackfaceCulling draws both sides of every triangle.
	DisableBackfaceCulling bool
	// Antialias gives splats a soft gaussian falloff instead of a hard disc.
	Antialias bool

	order []splatRef // reused splat sort buffer
}

// CullingStats count culling decisions since the last ResetCullingStats.
type CullingStats struct {
	MeshesTested int
	MeshesCulled int
	MeshesDrawn  int
	SplatsCulled int // bounding sphere outside the frustum
}

// NewRasterizer creates a rasterizer drawing through camera into fb.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{camera: camera, frustumDirty: true}
	r.SetFramebuffer(fb)
	return r
}

// SetFramebuffer swaps the render target and resizes the depth buffer.
func (r *Rasterizer) SetFramebuffer(fb *Framebuffer) {
	r.fb = fb
	r.Resize()
}

// Resize matches the depth buffer to the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.depth = nil
		return
	}
	n := r.fb.Width * r.fb.Height
	if cap(r.depth) >= n {
		r.depth = r.depth[:n]
	} else {
		r.depth = make([]float64, n)
	}
	r.ClearDepth()
}

// Width returns the framebuffer width, or 0 without one.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height, or 0 without one.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth resets every depth cell to the far value. Call once per frame.
func (r *Rasterizer) ClearDepth() {
	if len(r.depth) == 0 {
		return
	}
	r.depth[0] = math.MaxFloat64
	for filled := 1; filled < len(r.depth); filled *= 2 {
		copy(r.depth[filled:], r.depth[:filled])
	}
}

// InvalidateFrustum forces the frustum to be rebuilt on next use. Call it
// whenever the camera moves.
func (r *Rasterizer) InvalidateFrustum() { r.frustumDirty = true }

// UpdateFrustum rebuilds the cached frustum if the camera changed.
func (r *Rasterizer) UpdateFrustum() {
	if !r.frustumDirty {
		return
	}
	r.frustum = NewFrustumFromMatrix(r.camera.ViewProjectionMatrix())
	r.frustumDirty = false
}

// ResetCullingStats zeroes CullingStats.
func (r *Rasterizer) ResetCullingStats() { r.CullingStats = CullingStats{} }

// IsVisible reports whether a world-space box touches the frustum.
func (r *Rasterizer) IsVisible(box AABB) bool {
	r.UpdateFrustum()
	return r.frustum.IntersectAABB(box)
}

// cell returns the depth buffer index of (x, y).
func (r *Rasterizer) cell(x, y int) (int, bool) {
	w, h := r.Width(), r.Height()
	if x < 0 || y < 0 || x >= w || y >= h {
		return 0, false
	}
	return y*w + x, true
}

// depthAt returns the stored depth, or the far value outside the buffer.
func (r *Rasterizer) depthAt(x, y int) float64 {
	if i, ok := r.cell(x, y); ok {
		return r.depth[i]
	}
	return math.MaxFloat64
}

func (r *Rasterizer) storeDepth(x, y int, z float64) {
	if i, ok := r.cell(x, y); ok {
		r.depth[i] = z
	}
}

// screenVertex is a vertex after projection and per-vertex lighting.
type screenVertex struct {
	x, y, z float64
	color   Color
}

// project maps a world point to screen space. ok is false behind the eye.
func (r *Rasterizer) project(viewProj math3d.Mat4, p math3d.Vec3) (sv screenVertex, ok bool) {
	clip := viewProj.MulVec4(math3d.V4FromV3(p, 1))
	if clip.W <= 0 {
		return sv, false
	}
	sv.x = (clip.X/clip.W + 1) * 0.5 * float64(r.Width())
	sv.y = (1 - clip.Y/clip.W) * 0.5 * float64(r.Height())
	sv.z = clip.Z / clip.W
	return sv, true
}

// shade applies ambient plus lambert lighting to c.
func shade(c Color, normal, light math3d.Vec3) Color {
	k := 0.3 + 0.7*math.Max(0, normal.Dot(light))
	return RGB(uint8(float64(c.R)*k), uint8(float64(c.G)*k), uint8(float64(c.B)*k))
}

// edge is twice the signed area of triangle (a, b, p).
func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// weights returns the barycentric weights of (px, py) in triangle a, b, c.
// A weight is negative when the point lies outside the opposite edge.
func weights(a, b, c screenVertex, px, py float64) math3d.Vec3 {
	area := edge(a.x, a.y, b.x, b.y, c.x, c.y)
	if area == 0 {
		return math3d.V3(-1, -1, -1)
	}
	return math3d.V3(
		edge(b.x, b.y, c.x, c.y, px, py)/area,
		edge(c.x, c.y, a.x, a.y, px, py)/area,
		edge(a.x, a.y, b.x, b.y, px, py)/area,
	)
}

// mixColor blends three colors by barycentric weight.
func mixColor(c0, c1, c2 Color, w math3d.Vec3) Color {
	ch := func(a, b, c uint8) uint8 {
		return uint8(float64(a)*w.X + float64(b)*w.Y + float64(c)*w.Z)
	}
	return RGB(ch(c0.R, c1.R, c2.R), ch(c0.G, c1.G, c2.G), ch(c0.B, c1.B, c2.B))
}

// DrawTriangleGouraud lights each vertex and interpolates the result across
// the triangle. Triangles crossing the eye plane are dropped, not clipped.
func (r *Rasterizer) DrawTriangleGouraud(tri Triangle, lightDir math3d.Vec3) {
	viewProj := r.camera.ViewProjectionMatrix()
	light := lightDir.Normalize()

	var sv [3]screenVertex
	for i, v := range tri.V {
		p, ok := r.project(viewProj, v.Position)
		if !ok {
			return
		}
		p.color = shade(v.Color, v.Normal, light)
		sv[i] = p
	}

	area := edge(sv[0].x, sv[0].y, sv[1].x, sv[1].y, sv[2].x, sv[2].y)
	if area == 0 || (area < 0 && !r.DisableBackfaceCulling) {
		return
	}

	minX := max(0, int(math.Floor(min(sv[0].x, sv[1].x, sv[2].x))))
	maxX := min(r.Width()-1, int(math.Ceil(max(sv[0].x, sv[1].x, sv[2].x))))
	minY := max(0, int(math.Floor(min(sv[0].y, sv[1].y, sv[2].y))))
	maxY := min(r.Height()-1, int(math.Ceil(max(sv[0].y, sv[1].y, sv[2].y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w := weights(sv[0], sv[1], sv[2], float64(x)+0.5, float64(y)+0.5)
			if w.X < 0 || w.Y < 0 || w.Z < 0 {
				continue
			}
			z := w.X*sv[0].z + w.Y*sv[1].z + w.Z*sv[2].z
			if z >= r.depthAt(x, y) {
				continue
			}
			r.storeDepth(x, y, z)
			r.fb.SetPixel(x, y, mixColor(sv[0].color, sv[1].color, sv[2].color, w))
		}
	}
}

// MeshRenderer is the view of a triangle mesh the rasterizer needs. It
// keeps this package independent of the model decoders.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3)
	GetFace(i int) [3]int
}

// BoundedMeshRenderer is a MeshRenderer that can be frustum culled.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max math3d.Vec3)
}

// culled reports whether mesh lies outside the frustum. Meshes without
// bounds are never culled.
func (r *Rasterizer) culled(mesh MeshRenderer, transform math3d.Mat4) bool {
	bounded, ok := mesh.(BoundedMeshRenderer)
	if !ok {
		return false
	}
	r.CullingStats.MeshesTested++
	lo, hi := bounded.GetBounds()
	if !r.IsVisible(AABB{Min: lo, Max: hi}.Transform(transform)) {
		r.CullingStats.MeshesCulled++
		return true
	}
	r.CullingStats.MeshesDrawn++
	return false
}

// DrawMeshGouraud draws every face of mesh with Gouraud shading.
func (r *Rasterizer) DrawMeshGouraud(mesh MeshRenderer, transform math3d.Mat4, color Color, lightDir math3d.Vec3) {
	if r.culled(mesh, transform) {
		return
	}
	vertex := func(i int) Vertex {
		p, n := mesh.GetVertex(i)
		return Vertex{
			Position: transform.MulVec3(p),
			Normal:   transform.MulVec3Dir(n).Normalize(),
			Color:    color,
		}
	}
	for i := range mesh.TriangleCount() {
		f := mesh.GetFace(i)
		r.DrawTriangleGouraud(Triangle{V: [3]Vertex{vertex(f[0]), vertex(f[1]), vertex(f[2])}}, lightDir)
	}
}

// DrawMeshWireframe draws the edges of every face without depth testing.
func (r *Rasterizer) DrawMeshWireframe(mesh MeshRenderer, transform math3d.Mat4, color Color) {
	if r.culled(mesh, transform) {
		return
	}
	for i := range mesh.TriangleCount() {
		f := mesh.GetFace(i)
		var p [3]math3d.Vec3
		for k := range p {
			p[k], _ = mesh.GetVertex(f[k])
			p[k] = transform.MulVec3(p[k])
		}
		r.line(p[0], p[1], color)
		r.line(p[1], p[2], color)
		r.line(p[2], p[0], color)
	}
}

// DrawBounds outlines a world-space box.
func (r *Rasterizer) DrawBounds(box AABB, color Color) {
	for i := range 8 {
		for _, bit := range [...]int{1, 2, 4} {
			if j := i | bit; j != i {
				r.line(box.corner(i), box.corner(j), color)
			}
		}
	}
}

// line draws a world-space segment. Endpoints behind the eye or far off
// screen drop the whole segment.
func (r *Rasterizer) line(a, b math3d.Vec3, color Color) {
	viewProj := r.camera.ViewProjectionMatrix()
	pa, okA := r.project(viewProj, a)
	pb, okB := r.project(viewProj, b)
	if !okA || !okB || r.farOff(pa) || r.farOff(pb) {
		return
	}
	r.fb.DrawLine(int(pa.x), int(pa.y), int(pb.x), int(pb.y), color)
}

// farOff bounds line length so points near the eye plane cannot stall DrawLine.
func (r *Rasterizer) farOff(p screenVertex) bool {
	limit := float64(4 * max(r.Width(), r.Height()))
	return math.Abs(p.x) > limit || math.Abs(p.y) > limit
}
