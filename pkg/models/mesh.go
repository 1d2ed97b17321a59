// Package models decodes splat clouds and meshes from raw asset bytes.
package models

import (
	"image/color"

	"github.com/taigrr/splatview/pkg/math3d"
)

// Mesh represents a triangle mesh decoded from .glb, .gltf or .obj data.
type Mesh struct {
	Name     string
	Vertices []MeshVertex
	Faces    []Face
	Color    color.RGBA // base color used for shading

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds the per-vertex attributes the rasterizer consumes.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
}

// Face represents a triangle face with vertex indices.
type Face struct {
	V [3]int // Indices into Mesh.Vertices
}

// NewMesh creates an empty mesh with a neutral base color.
func NewMesh(name string) *Mesh {
	return &Mesh{
		Name:  name,
		Color: color.RGBA{200, 200, 200, 255},
	}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position

	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// Count returns the number of drawable primitives (triangles).
func (m *Mesh) Count() int {
	return m.TriangleCount()
}

// CalculateSmoothNormals computes averaged normals for smooth shading.
func (m *Mesh) CalculateSmoothNormals() {
	for i := range m.Vertices {
		m.Vertices[i].Normal = math3d.Zero3()
	}

	// Accumulate unnormalized face normals so larger faces weigh more
	for _, f := range m.Faces {
		v0 := m.Vertices[f.V[0]].Position
		v1 := m.Vertices[f.V[1]].Position
		v2 := m.Vertices[f.V[2]].Position

		normal := v1.Sub(v0).Cross(v2.Sub(v0))
		for _, idx := range f.V {
			m.Vertices[idx].Normal = m.Vertices[idx].Normal.Add(normal)
		}
	}

	for i := range m.Vertices {
		m.Vertices[i].Normal = m.Vertices[i].Normal.Normalize()
	}
}

// hasNormals reports whether any vertex carries a usable normal.
func (m *Mesh) hasNormals() bool {
	for _, v := range m.Vertices {
		if v.Normal.LenSq() > 1e-6 {
			return true
		}
	}
	return false
}

// Translate moves every vertex by offset.
func (m *Mesh) Translate(offset math3d.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i].Position = m.Vertices[i].Position.Add(offset)
	}
	m.CalculateBounds()
}

// GetVertex returns the position and normal for vertex i.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetVertex(i int) (pos, normal math3d.Vec3) {
	v := m.Vertices[i]
	return v.Position, v.Normal
}

// GetFace returns the vertex indices for face i.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i].V
}

// GetBounds returns the axis-aligned bounding box.
// Implements render.BoundedMeshRenderer interface.
func (m *Mesh) GetBounds() (min, max math3d.Vec3) {
	return m.BoundsMin, m.BoundsMax
}

// Bounds is GetBounds under the name the engine's asset contract uses.
func (m *Mesh) Bounds() (min, max math3d.Vec3) {
	return m.GetBounds()
}
