package models

import (
	"bytes"
	"fmt"

	"github.com/h2non/filetype"
)

var (
	glbType = filetype.NewType("glb", "model/gltf-binary")
	plyType = filetype.NewType("ply", "application/x-ply")
)

func init() {
	filetype.AddMatcher(glbType, func(buf []byte) bool {
		return bytes.HasPrefix(buf, []byte("glTF"))
	})
	filetype.AddMatcher(plyType, func(buf []byte) bool {
		return bytes.HasPrefix(buf, []byte("ply\n")) || bytes.HasPrefix(buf, []byte("ply\r\n"))
	})
}

// CheckContent verifies that data carries the magic bytes its extension
// promises. Formats without a signature (.splat, .obj, .gltf) always pass.
func CheckContent(ext string, data []byte) error {
	switch ext {
	case ".glb", ".ply":
		name := ext[1:]
		if !filetype.Is(data, name) {
			return fmt.Errorf("content does not look like %s", name)
		}
	}
	return nil
}
