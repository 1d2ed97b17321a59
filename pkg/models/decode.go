package models

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/taigrr/splatview/pkg/math3d"
)

// Asset is a decoded, drawable scene payload: a *SplatCloud or a *Mesh.
type Asset interface {
	Count() int
	Bounds() (min, max math3d.Vec3)
	Translate(offset math3d.Vec3)
}

// ErrUnknownFormat is returned by Decode for extensions with no decoder.
var ErrUnknownFormat = fmt.Errorf("no decoder for format")

// Ext returns the lower-cased extension of filename, including the dot.
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// Decode picks a decoder from the filename's extension.
func Decode(filename string, data []byte) (Asset, error) {
	ext := Ext(filename)
	if err := CheckContent(ext, data); err != nil {
		return nil, err
	}
	name := filepath.Base(filename)

	var (
		asset Asset
		err   error
	)
	switch ext {
	case ".splat":
		asset, err = asAsset(DecodeSplat(name, data))
	case ".ply":
		asset, err = asAsset(DecodePLY(name, data))
	case ".glb", ".gltf":
		asset, err = asAsset(DecodeGLTF(name, data))
	case ".obj":
		asset, err = asAsset(DecodeOBJ(name, data))
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownFormat, ext)
	}
	return asset, err
}

// asAsset keeps a failed decode from producing a non-nil interface around a nil pointer.
func asAsset[T Asset](a T, err error) (Asset, error) {
	if err != nil {
		return nil, err
	}
	return a, nil
}
