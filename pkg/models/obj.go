package models

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/taigrr/splatview/pkg/math3d"
)

// DecodeOBJ decodes a Wavefront OBJ mesh. Only positions, normals and
// polygonal faces are read; polygons are fan-triangulated.
func DecodeOBJ(name string, data []byte) (*Mesh, error) {
	var positions, normals []math3d.Vec3
	mesh := NewMesh(name)
	// OBJ indexes positions and normals separately; vertices are keyed by the pair.
	type key struct{ p, n int }
	seen := make(map[key]int)

	vertex := func(ref string) (int, error) {
		parts := strings.Split(ref, "/")
		p, err := objIndex(parts[0], len(positions))
		if err != nil {
			return 0, err
		}
		n := -1
		if len(parts) >= 3 && parts[2] != "" {
			if n, err = objIndex(parts[2], len(normals)); err != nil {
				return 0, err
			}
		}
		k := key{p, n}
		if idx, ok := seen[k]; ok {
			return idx, nil
		}
		v := MeshVertex{Position: positions[p]}
		if n >= 0 {
			v.Normal = normals[n]
		}
		mesh.Vertices = append(mesh.Vertices, v)
		seen[k] = len(mesh.Vertices) - 1
		return seen[k], nil
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v", "vn":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %s needs 3 components", line, fields[0])
			}
			var c [3]float64
			for i := range 3 {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				c[i] = f
			}
			if fields[0] == "v" {
				positions = append(positions, math3d.V3(c[0], c[1], c[2]))
			} else {
				normals = append(normals, math3d.V3(c[0], c[1], c[2]))
			}
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", line)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, ref := range fields[1:] {
				i, err := vertex(ref)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				idx = append(idx, i)
			}
			for i := 1; i+1 < len(idx); i++ {
				// reversed to the rasterizer's CW winding
				mesh.Faces = append(mesh.Faces, Face{V: [3]int{idx[0], idx[i+1], idx[i]}})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(mesh.Faces) == 0 {
		return nil, ErrEmptyAsset
	}

	if !mesh.hasNormals() {
		mesh.CalculateSmoothNormals()
	}
	mesh.CalculateBounds()
	return mesh, nil
}

// objIndex resolves a 1-based (or negative, relative) OBJ index.
func objIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad index %q", s)
	}
	if i < 0 {
		i = count + i
	} else {
		i--
	}
	if i < 0 || i >= count {
		return 0, fmt.Errorf("index %s out of range", s)
	}
	return i, nil
}
