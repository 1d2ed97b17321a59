package models

import (
	"image/color"
	"math"

	"github.com/taigrr/splatview/pkg/math3d"
)

// Splat is a single point primitive of a splat cloud.
type Splat struct {
	Position math3d.Vec3
	Scale    math3d.Vec3
	Rotation [4]float64 // quaternion (w, x, y, z)
	Color    color.RGBA // straight (non-premultiplied) alpha
}

// Radius returns the splat's largest world-space extent.
func (s Splat) Radius() float64 {
	return s.Scale.MaxComponent()
}

// SplatCloud is a decoded point-splat scene.
type SplatCloud struct {
	Name   string
	Splats []Splat

	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// NewSplatCloud creates a cloud and computes its bounds.
func NewSplatCloud(name string, splats []Splat) *SplatCloud {
	c := &SplatCloud{Name: name, Splats: splats}
	c.CalculateBounds()
	return c
}

// SplatAt returns the center, extent and color of splat i.
func (c *SplatCloud) SplatAt(i int) (math3d.Vec3, float64, color.RGBA) {
	s := c.Splats[i]
	return s.Position, s.Radius(), s.Color
}

// CalculateBounds computes the axis-aligned bounding box of the splat centers.
func (c *SplatCloud) CalculateBounds() {
	if len(c.Splats) == 0 {
		c.BoundsMin, c.BoundsMax = math3d.Zero3(), math3d.Zero3()
		return
	}
	c.BoundsMin = c.Splats[0].Position
	c.BoundsMax = c.Splats[0].Position
	for _, s := range c.Splats[1:] {
		c.BoundsMin = c.BoundsMin.Min(s.Position)
		c.BoundsMax = c.BoundsMax.Max(s.Position)
	}
}

// Count returns the number of splats.
func (c *SplatCloud) Count() int {
	return len(c.Splats)
}

// Bounds returns the axis-aligned bounding box.
func (c *SplatCloud) Bounds() (min, max math3d.Vec3) {
	return c.BoundsMin, c.BoundsMax
}

// RemoveBelowAlpha drops every splat whose alpha is below threshold and
// returns how many were removed. A zero threshold keeps everything.
func (c *SplatCloud) RemoveBelowAlpha(threshold uint8) int {
	if threshold == 0 {
		return 0
	}
	kept := c.Splats[:0]
	for _, s := range c.Splats {
		if s.Color.A >= threshold {
			kept = append(kept, s)
		}
	}
	removed := len(c.Splats) - len(kept)
	c.Splats = kept
	c.CalculateBounds()
	return removed
}

// Translate moves every splat by offset.
func (c *SplatCloud) Translate(offset math3d.Vec3) {
	for i := range c.Splats {
		c.Splats[i].Position = c.Splats[i].Position.Add(offset)
	}
	c.CalculateBounds()
}

// sigmoid maps a logit opacity to [0, 1].
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func unitToByte(v float64) uint8 {
	return uint8(math.Round(math3d.Clamp(v, 0, 1) * 255))
}
