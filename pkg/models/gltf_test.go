package models

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"testing"
)

func TestDecodeGLTFInvalid(t *testing.T) {
	_, err := DecodeGLTF("broken.glb", []byte("not a gltf document"))
	if err == nil {
		t.Error("Expected error for garbage input")
	}
}

func TestGLTFLoaderCreation(t *testing.T) {
	loader := NewGLTFLoader()
	if loader == nil {
		t.Fatal("NewGLTFLoader returned nil")
	}
	if !loader.CalculateNormals {
		t.Error("CalculateNormals should default to true")
	}
}

// embeddedTriangle builds a .gltf document holding one triangle in a data URI buffer.
func embeddedTriangle() []byte {
	buf := make([]byte, 0, 36)
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	uri := "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf)
	return fmt.Appendf(nil, `{
  "asset": {"version": "2.0"},
  "buffers": [{"byteLength": 36, "uri": %q}],
  "bufferViews": [{"buffer": 0, "byteLength": 36}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]}],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0}}]}]
}`, uri)
}

func TestDecodeGLTFEmbeddedTriangle(t *testing.T) {
	mesh, err := DecodeGLTF("tri.gltf", embeddedTriangle())
	if err != nil {
		t.Fatalf("DecodeGLTF: %v", err)
	}
	if mesh.TriangleCount() != 1 || mesh.VertexCount() != 3 {
		t.Fatalf("got %d triangles / %d vertices, want 1 / 3", mesh.TriangleCount(), mesh.VertexCount())
	}
	// winding is reversed on load
	if got := mesh.GetFace(0); got != [3]int{0, 2, 1} {
		t.Errorf("face = %v, want [0 2 1]", got)
	}
	if mesh.BoundsMax.X != 1 || mesh.BoundsMax.Y != 1 {
		t.Errorf("bounds max = %v", mesh.BoundsMax)
	}
	if !mesh.hasNormals() {
		t.Error("normals should be generated when the file has none")
	}
}
