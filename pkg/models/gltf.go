package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image/color"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/splatview/pkg/math3d"
)

// GLTFLoader decodes GLTF/GLB data into Mesh format.
type GLTFLoader struct {
	// CalculateNormals generates smooth normals when the file has none.
	CalculateNormals bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{CalculateNormals: true}
}

// DecodeGLTF decodes binary (.glb) or JSON (.gltf) data with default options.
// JSON documents must embed their buffers.
func DecodeGLTF(name string, data []byte) (*Mesh, error) {
	return NewGLTFLoader().Decode(name, data)
}

// Decode decodes GLTF or GLB bytes and returns a Mesh.
func (l *GLTFLoader) Decode(name string, data []byte) (*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}

	mesh := NewMesh(name)
	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}
	if len(mesh.Faces) == 0 {
		return nil, ErrEmptyAsset
	}

	if l.CalculateNormals && !mesh.hasNormals() {
		mesh.CalculateSmoothNormals()
	}
	mesh.CalculateBounds()

	return mesh, nil
}

// processMesh extracts triangle geometry from a GLTF mesh.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			// lines and points are not drawn
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		if c, ok := materialColor(doc, prim); ok {
			mesh.Color = c
		}

		baseVertex := len(mesh.Vertices)
		for i := range positions {
			v := MeshVertex{Position: positions[i]}
			if i < len(normals) {
				v.Normal = normals[i]
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		// GLTF fronts are CCW; the rasterizer expects CW after the screen-space Y flip.
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := indices[i], indices[i+2], indices[i+1]
			if a >= len(positions) || b >= len(positions) || c >= len(positions) {
				return fmt.Errorf("index out of range at triangle %d", i/3)
			}
			mesh.Faces = append(mesh.Faces, Face{V: [3]int{baseVertex + a, baseVertex + b, baseVertex + c}})
		}
	}

	return nil
}

// materialColor returns the primitive's PBR base color factor, if any.
func materialColor(doc *gltf.Document, prim *gltf.Primitive) (color.RGBA, bool) {
	if prim.Material == nil || *prim.Material >= len(doc.Materials) {
		return color.RGBA{}, false
	}
	pbr := doc.Materials[*prim.Material].PBRMetallicRoughness
	if pbr == nil || pbr.BaseColorFactor == nil {
		return color.RGBA{}, false
	}
	f := pbr.BaseColorFactor
	return color.RGBA{unitToByte(f[0]), unitToByte(f[1]), unitToByte(f[2]), unitToByte(f[3])}, true
}

// readVec3Accessor reads Vec3 data from a GLTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	if accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}
	if accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float components, got %v", accessor.ComponentType)
	}

	buf, start, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, accessor.Count)
	for i := range accessor.Count {
		off := start + i*stride
		result[i] = math3d.V3(f32(buf[off:]), f32(buf[off+4:]), f32(buf[off+8:]))
	}
	return result, nil
}

// readIndices reads index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index component type: %v", accessor.ComponentType)
	}

	buf, start, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range accessor.Count {
		off := start + i*stride
		switch size {
		case 1:
			result[i] = int(buf[off])
		case 2:
			result[i] = int(binary.LittleEndian.Uint16(buf[off:]))
		case 4:
			result[i] = int(binary.LittleEndian.Uint32(buf[off:]))
		}
	}
	return result, nil
}

// accessorBytes resolves an accessor to its backing buffer, first byte and
// element stride, checking that every element lies inside the buffer.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, int, error) {
	if accessor.BufferView == nil || *accessor.BufferView >= len(doc.BufferViews) {
		return nil, 0, 0, fmt.Errorf("accessor has no buffer view")
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	if bufferView.Buffer >= len(doc.Buffers) {
		return nil, 0, 0, fmt.Errorf("buffer %d out of range", bufferView.Buffer)
	}
	data := doc.Buffers[bufferView.Buffer].Data
	if data == nil {
		return nil, 0, 0, fmt.Errorf("buffer has no data (external buffers are not supported)")
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	stride := bufferView.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	if accessor.Count > 0 {
		last := start + (accessor.Count-1)*stride + elemSize
		if start < 0 || last > len(data) {
			return nil, 0, 0, fmt.Errorf("accessor reads past end of buffer (%d > %d)", last, len(data))
		}
	}
	return data, start, stride, nil
}
