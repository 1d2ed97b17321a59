package render

import (
	"math"
	"testing"

	"github.com/taigrr/splatview/pkg/math3d"
)

// mockMesh implements BoundedMeshRenderer for testing.
type mockMesh struct {
	vertices []struct {
		pos    math3d.Vec3
		normal math3d.Vec3
	}
	faces [][3]int
}

func (m *mockMesh) VertexCount() int     { return len(m.vertices) }
func (m *mockMesh) TriangleCount() int   { return len(m.faces) }
func (m *mockMesh) GetFace(i int) [3]int { return m.faces[i] }
func (m *mockMesh) GetVertex(i int) (pos, normal math3d.Vec3) {
	v := m.vertices[i]
	return v.pos, v.normal
}

func (m *mockMesh) GetBounds() (min, max math3d.Vec3) {
	min, max = m.vertices[0].pos, m.vertices[0].pos
	for _, v := range m.vertices[1:] {
		min, max = min.Min(v.pos), max.Max(v.pos)
	}
	return min, max
}

// quadMesh is a 10×10 quad in the z plane facing +Z.
func quadMesh(z float64) *mockMesh {
	n := math3d.V3(0, 0, 1)
	m := &mockMesh{faces: [][3]int{{0, 3, 2}, {0, 2, 1}}}
	for _, p := range []math3d.Vec3{
		math3d.V3(-5, -5, z), math3d.V3(5, -5, z), math3d.V3(5, 5, z), math3d.V3(-5, 5, z),
	} {
		m.vertices = append(m.vertices, struct {
			pos    math3d.Vec3
			normal math3d.Vec3
		}{p, n})
	}
	return m
}

// createTestRasterizer creates a rasterizer looking at the origin from +Z.
func createTestRasterizer(width, height int) (*Rasterizer, *Framebuffer) {
	fb := NewFramebuffer(width, height)
	camera := NewCamera()
	camera.SetPosition(math3d.V3(0, 0, 10))
	camera.LookAt(math3d.Zero3())
	camera.SetAspectRatio(float64(width) / float64(height))
	rasterizer := NewRasterizer(camera, fb)
	rasterizer.ClearDepth()
	fb.Clear(ColorBlack)
	return rasterizer, fb
}

func litPixels(fb *Framebuffer) int {
	n := 0
	for _, c := range fb.Pixels {
		if c.R > 0 || c.G > 0 || c.B > 0 {
			n++
		}
	}
	return n
}

func TestWeights(t *testing.T) {
	sv := func(x, y float64) screenVertex { return screenVertex{x: x, y: y} }
	a, b, c := sv(0, 0), sv(1, 0), sv(0, 1)

	tests := []struct {
		name   string
		px, py float64
		want   math3d.Vec3
	}{
		{"vertex 0", 0, 0, math3d.V3(1, 0, 0)},
		{"vertex 1", 1, 0, math3d.V3(0, 1, 0)},
		{"vertex 2", 0, 1, math3d.V3(0, 0, 1)},
		{"centroid", 1.0 / 3, 1.0 / 3, math3d.V3(1.0/3, 1.0/3, 1.0/3)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := weights(a, b, c, tc.px, tc.py); !got.ApproxEqual(tc.want, 0.001) {
				t.Errorf("weights(%v, %v) = %v, want %v", tc.px, tc.py, got, tc.want)
			}
		})
	}

	t.Run("outside", func(t *testing.T) {
		w := weights(a, b, c, -1, -1)
		if w.X >= 0 && w.Y >= 0 && w.Z >= 0 {
			t.Error("point outside triangle should have a negative weight")
		}
	})

	t.Run("winding independent", func(t *testing.T) {
		if got := weights(a, c, b, 0.25, 0.25); !got.ApproxEqual(math3d.V3(0.5, 0.25, 0.25), 0.001) {
			t.Errorf("reversed winding = %v", got)
		}
	})
}

func TestMixColor(t *testing.T) {
	red, green, blue := RGB(255, 0, 0), RGB(0, 255, 0), RGB(0, 0, 255)

	if got := mixColor(red, green, blue, math3d.V3(1, 0, 0)); got != red {
		t.Errorf("pure first weight = %v, want %v", got, red)
	}
	got := mixColor(red, green, blue, math3d.V3(0.5, 0.5, 0))
	if got.R != 127 || got.G != 127 || got.B != 0 {
		t.Errorf("half red half green = %v", got)
	}
}

func TestDrawTriangleGouraud(t *testing.T) {
	r, fb := createTestRasterizer(100, 100)

	// Clockwise on screen is front facing.
	tri := Triangle{
		V: [3]Vertex{
			{Position: math3d.V3(-5, -5, 0), Normal: math3d.V3(0, 0, 1), Color: RGB(200, 200, 200)},
			{Position: math3d.V3(0, 5, 0), Normal: math3d.V3(0, 0, 1), Color: RGB(200, 200, 200)},
			{Position: math3d.V3(5, -5, 0), Normal: math3d.V3(0.5, 0, 0.866), Color: RGB(200, 200, 200)},
		},
	}
	r.DrawTriangleGouraud(tri, math3d.V3(0, 0, 1))

	if litPixels(fb) == 0 {
		t.Error("DrawTriangleGouraud should draw visible pixels")
	}
}

func TestDrawTriangleGouraud_BackfaceCulling(t *testing.T) {
	back := Triangle{
		V: [3]Vertex{
			{Position: math3d.V3(-5, -5, 0), Normal: math3d.V3(0, 0, -1), Color: ColorWhite},
			{Position: math3d.V3(5, -5, 0), Normal: math3d.V3(0, 0, -1), Color: ColorWhite},
			{Position: math3d.V3(0, 5, 0), Normal: math3d.V3(0, 0, -1), Color: ColorWhite},
		},
	}

	r, fb := createTestRasterizer(100, 100)
	r.DrawTriangleGouraud(back, math3d.V3(0, 0, 1))
	if n := litPixels(fb); n > 0 {
		t.Errorf("back-facing triangle should be culled, got %d pixels", n)
	}

	r, fb = createTestRasterizer(100, 100)
	r.DisableBackfaceCulling = true
	r.DrawTriangleGouraud(back, math3d.V3(0, 0, 1))
	if litPixels(fb) == 0 {
		t.Error("two-sided rendering should draw the back face")
	}
}

func TestDrawMeshGouraud_DepthTest(t *testing.T) {
	r, fb := createTestRasterizer(50, 50)

	r.DrawMeshGouraud(quadMesh(2), math3d.Identity(), RGB(0, 0, 255), math3d.V3(0, 0, 1))
	r.DrawMeshGouraud(quadMesh(-2), math3d.Identity(), RGB(255, 0, 0), math3d.V3(0, 0, 1))

	c := fb.GetPixel(25, 25)
	if c.B == 0 || c.R != 0 {
		t.Errorf("nearer blue quad should win the depth test, got %v", c)
	}
}

func TestDrawMeshGouraud_FrustumCull(t *testing.T) {
	r, fb := createTestRasterizer(50, 50)
	r.ResetCullingStats()

	r.DrawMeshGouraud(quadMesh(0), math3d.Translate(math3d.V3(0, 0, 50)), ColorWhite, math3d.V3(0, 0, 1))
	r.DrawMeshGouraud(quadMesh(0), math3d.Identity(), ColorWhite, math3d.V3(0, 0, 1))

	if r.CullingStats.MeshesTested != 2 || r.CullingStats.MeshesCulled != 1 || r.CullingStats.MeshesDrawn != 1 {
		t.Errorf("culling stats = %+v", r.CullingStats)
	}
	if litPixels(fb) == 0 {
		t.Error("visible mesh should still be drawn")
	}
}

func TestDrawMeshWireframe(t *testing.T) {
	r, fb := createTestRasterizer(50, 50)
	r.DrawMeshWireframe(quadMesh(0), math3d.Identity(), ColorWhite)
	if litPixels(fb) == 0 {
		t.Error("wireframe should draw edges")
	}
}

func TestDrawBounds(t *testing.T) {
	r, fb := createTestRasterizer(60, 60)
	r.DrawBounds(AABB{Min: math3d.V3(-2, -2, -2), Max: math3d.V3(2, 2, 2)}, ColorWhite)
	if litPixels(fb) == 0 {
		t.Fatal("bounds should draw edges")
	}
	if c := fb.GetPixel(30, 30); c != ColorBlack {
		t.Errorf("box interior should stay empty, got %v", c)
	}
}

func TestDrawBoundsAroundCamera(t *testing.T) {
	r, fb := createTestRasterizer(40, 40)
	// The eye sits inside this box; near corners project behind it.
	r.DrawBounds(AABB{Min: math3d.V3(-8, -8, -20), Max: math3d.V3(8, 8, 20)}, ColorWhite)
	if litPixels(fb) == 0 {
		t.Error("far face edges should still be drawn")
	}
}

func TestRasterizerClearDepth(t *testing.T) {
	r, _ := createTestRasterizer(10, 10)

	r.storeDepth(5, 5, 1.0)
	if r.depthAt(5, 5) != 1.0 {
		t.Error("storeDepth/depthAt failed")
	}

	r.ClearDepth()
	if r.depthAt(5, 5) != math.MaxFloat64 {
		t.Error("ClearDepth should reset to MaxFloat64")
	}

	// Out of bounds reads are far away and writes are ignored.
	if r.depthAt(-1, 0) != math.MaxFloat64 || r.depthAt(100, 0) != math.MaxFloat64 {
		t.Error("out of bounds depthAt should return MaxFloat64")
	}
	r.storeDepth(-1, 0, 1.0)
	r.storeDepth(100, 0, 1.0)
}

func TestSetFramebufferResizesDepth(t *testing.T) {
	r, _ := createTestRasterizer(10, 10)
	r.SetFramebuffer(NewFramebuffer(20, 8))
	if r.Width() != 20 || r.Height() != 8 || len(r.depth) != 160 {
		t.Errorf("got %dx%d with %d depth cells", r.Width(), r.Height(), len(r.depth))
	}
}

func BenchmarkDrawMeshGouraud(b *testing.B) {
	r, _ := createTestRasterizer(160, 90)
	mesh := quadMesh(0)
	light := math3d.V3(1, 1, 1).Normalize()

	for b.Loop() {
		r.ClearDepth()
		r.DrawMeshGouraud(mesh, math3d.Identity(), ColorWhite, light)
	}
}
