package models

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/taigrr/splatview/pkg/math3d"
)

// shC0 is the zeroth-order spherical harmonic constant used to turn the
// f_dc_* coefficients of a trained splat into base color.
const shC0 = 0.28209479177387814

type plyProperty struct {
	name string
	typ  string
}

type plyHeader struct {
	format     string
	vertices   int
	properties []plyProperty
	dataStart  int
}

// DecodePLY decodes the vertex element of a PLY file as a splat cloud.
// Both trained splat layouts (f_dc_*, opacity, scale_*, rot_*) and plain
// colored point clouds (red, green, blue[, alpha]) are understood.
func DecodePLY(name string, data []byte) (*SplatCloud, error) {
	h, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}
	if h.vertices == 0 {
		return nil, ErrEmptyAsset
	}

	var rows [][]float64
	switch h.format {
	case "binary_little_endian":
		rows, err = readPLYBinary(data[h.dataStart:], h)
	case "ascii":
		rows, err = readPLYASCII(data[h.dataStart:], h)
	default:
		return nil, fmt.Errorf("unsupported ply format %q", h.format)
	}
	if err != nil {
		return nil, err
	}

	idx := make(map[string]int, len(h.properties))
	for i, p := range h.properties {
		idx[p.name] = i
	}
	for _, req := range []string{"x", "y", "z"} {
		if _, ok := idx[req]; !ok {
			return nil, fmt.Errorf("ply vertex element missing %q", req)
		}
	}

	get := func(row []float64, key string, def float64) float64 {
		if i, ok := idx[key]; ok {
			return row[i]
		}
		return def
	}
	_, trained := idx["f_dc_0"]

	splats := make([]Splat, len(rows))
	for i, row := range rows {
		s := Splat{
			Position: math3d.V3(row[idx["x"]], row[idx["y"]], row[idx["z"]]),
			Rotation: [4]float64{get(row, "rot_0", 1), get(row, "rot_1", 0), get(row, "rot_2", 0), get(row, "rot_3", 0)},
		}
		if trained {
			s.Color = color.RGBA{
				R: unitToByte(0.5 + shC0*get(row, "f_dc_0", 0)),
				G: unitToByte(0.5 + shC0*get(row, "f_dc_1", 0)),
				B: unitToByte(0.5 + shC0*get(row, "f_dc_2", 0)),
				A: unitToByte(sigmoid(get(row, "opacity", 10))),
			}
			s.Scale = math3d.V3(
				math.Exp(get(row, "scale_0", -4)),
				math.Exp(get(row, "scale_1", -4)),
				math.Exp(get(row, "scale_2", -4)),
			)
		} else {
			s.Color = color.RGBA{
				R: uint8(get(row, "red", 255)),
				G: uint8(get(row, "green", 255)),
				B: uint8(get(row, "blue", 255)),
				A: uint8(get(row, "alpha", 255)),
			}
			s.Scale = math3d.V3(0.01, 0.01, 0.01)
		}
		splats[i] = s
	}

	return NewSplatCloud(name, splats), nil
}

func parsePLYHeader(data []byte) (plyHeader, error) {
	var h plyHeader
	end := bytes.Index(data, []byte("end_header"))
	if end < 0 || !bytes.HasPrefix(data, []byte("ply")) {
		return h, fmt.Errorf("not a ply file")
	}
	nl := bytes.IndexByte(data[end:], '\n')
	if nl < 0 {
		return h, fmt.Errorf("truncated ply header")
	}
	h.dataStart = end + nl + 1

	inVertex := false
	sawVertex := false
	sc := bufio.NewScanner(bytes.NewReader(data[:end]))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return h, fmt.Errorf("malformed ply format line")
			}
			h.format = fields[1]
		case "element":
			if len(fields) < 3 {
				return h, fmt.Errorf("malformed ply element line")
			}
			if fields[1] == "vertex" {
				n, err := strconv.Atoi(fields[2])
				if err != nil {
					return h, fmt.Errorf("ply vertex count: %w", err)
				}
				if n < 0 {
					return h, fmt.Errorf("ply vertex count %d is negative", n)
				}
				h.vertices = n
				inVertex = true
				sawVertex = true
				continue
			}
			if !sawVertex {
				return h, fmt.Errorf("ply element %q precedes vertex element", fields[1])
			}
			inVertex = false
		case "property":
			if !inVertex {
				continue
			}
			if len(fields) < 3 || fields[1] == "list" {
				return h, fmt.Errorf("unsupported vertex property %q", sc.Text())
			}
			h.properties = append(h.properties, plyProperty{name: fields[2], typ: fields[1]})
		}
	}
	return h, sc.Err()
}

func plyTypeSize(typ string) (int, error) {
	switch typ {
	case "char", "uchar", "int8", "uint8":
		return 1, nil
	case "short", "ushort", "int16", "uint16":
		return 2, nil
	case "int", "uint", "int32", "uint32", "float", "float32":
		return 4, nil
	case "double", "float64":
		return 8, nil
	}
	return 0, fmt.Errorf("unknown ply type %q", typ)
}

func readPLYBinary(body []byte, h plyHeader) ([][]float64, error) {
	stride := 0
	sizes := make([]int, len(h.properties))
	for i, p := range h.properties {
		sz, err := plyTypeSize(p.typ)
		if err != nil {
			return nil, err
		}
		sizes[i] = sz
		stride += sz
	}
	if stride == 0 {
		return nil, fmt.Errorf("ply vertex element has no properties")
	}
	// h.vertices*stride can overflow for forged counts.
	if h.vertices > len(body)/stride {
		return nil, fmt.Errorf("ply body has %d bytes, too short for %d vertices of %d bytes: %w",
			len(body), h.vertices, stride, io.ErrUnexpectedEOF)
	}

	le := binary.LittleEndian
	rows := make([][]float64, h.vertices)
	for v := range h.vertices {
		row := make([]float64, len(h.properties))
		off := v * stride
		for i, p := range h.properties {
			b := body[off:]
			switch p.typ {
			case "char", "int8":
				row[i] = float64(int8(b[0]))
			case "uchar", "uint8":
				row[i] = float64(b[0])
			case "short", "int16":
				row[i] = float64(int16(le.Uint16(b)))
			case "ushort", "uint16":
				row[i] = float64(le.Uint16(b))
			case "int", "int32":
				row[i] = float64(int32(le.Uint32(b)))
			case "uint", "uint32":
				row[i] = float64(le.Uint32(b))
			case "float", "float32":
				row[i] = float64(math.Float32frombits(le.Uint32(b)))
			case "double", "float64":
				row[i] = math.Float64frombits(le.Uint64(b))
			}
			off += sizes[i]
		}
		rows[v] = row
	}
	return rows, nil
}

func readPLYASCII(body []byte, h plyHeader) ([][]float64, error) {
	// Each row needs at least a value and a separator.
	rows := make([][]float64, 0, min(h.vertices, len(body)/2))
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() && len(rows) < h.vertices {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < len(h.properties) {
			return nil, fmt.Errorf("ply row %d has %d values, want %d", len(rows), len(fields), len(h.properties))
		}
		row := make([]float64, len(h.properties))
		for i := range h.properties {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("ply row %d: %w", len(rows), err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(rows) < h.vertices {
		return nil, fmt.Errorf("ply has %d rows, want %d: %w", len(rows), h.vertices, io.ErrUnexpectedEOF)
	}
	return rows, nil
}
