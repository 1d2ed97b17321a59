package models

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/taigrr/splatview/pkg/math3d"
)

// splatRecordSize is the size of one record in the .splat layout:
// position (3×f32), scale (3×f32), RGBA (4×u8), rotation (4×u8).
const splatRecordSize = 32

// ErrEmptyAsset is returned when an asset decodes to nothing drawable.
var ErrEmptyAsset = errors.New("asset contains no primitives")

// DecodeSplat decodes the raw .splat layout.
func DecodeSplat(name string, data []byte) (*SplatCloud, error) {
	if len(data) == 0 {
		return nil, ErrEmptyAsset
	}
	if len(data)%splatRecordSize != 0 {
		return nil, fmt.Errorf("splat data length %d is not a multiple of %d", len(data), splatRecordSize)
	}

	n := len(data) / splatRecordSize
	splats := make([]Splat, n)
	for i := range n {
		rec := data[i*splatRecordSize : (i+1)*splatRecordSize]
		splats[i] = Splat{
			Position: math3d.V3(f32(rec[0:]), f32(rec[4:]), f32(rec[8:])),
			Scale:    math3d.V3(f32(rec[12:]), f32(rec[16:]), f32(rec[20:])),
			Color:    color.RGBA{rec[24], rec[25], rec[26], rec[27]},
			Rotation: [4]float64{
				(float64(rec[28]) - 128) / 128,
				(float64(rec[29]) - 128) / 128,
				(float64(rec[30]) - 128) / 128,
				(float64(rec[31]) - 128) / 128,
			},
		}
	}

	return NewSplatCloud(name, splats), nil
}

// f32 reads a little-endian float32 as float64.
func f32(b []byte) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}
