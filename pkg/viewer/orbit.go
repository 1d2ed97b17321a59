package viewer

import "math"

// OrbitConstraint bounds the user's camera controls. Angles are radians in
// the camera's up frame; polar 0 looks straight down the up axis.
type OrbitConstraint struct {
	MinPolarAngle   float64
	MaxPolarAngle   float64
	MinAzimuthAngle float64
	MaxAzimuthAngle float64
	EnablePan       bool
	EnableZoom      bool
}

// AzimuthBounded reports whether the azimuth window is finite.
func (c OrbitConstraint) AzimuthBounded() bool {
	return !math.IsInf(c.MinAzimuthAngle, 0) || !math.IsInf(c.MaxAzimuthAngle, 0)
}

var orbitPresets = map[OrbitCategory]OrbitConstraint{
	OrbitTopDown360: {
		MinPolarAngle:   0,
		MaxPolarAngle:   math.Pi / 2,
		MinAzimuthAngle: math.Inf(-1),
		MaxAzimuthAngle: math.Inf(1),
		EnablePan:       true,
		EnableZoom:      true,
	},
	OrbitFrontFocus: {
		MinPolarAngle:   math.Pi / 3,
		MaxPolarAngle:   2 * math.Pi / 3,
		MinAzimuthAngle: -math.Pi / 6,
		MaxAzimuthAngle: math.Pi / 6,
		EnablePan:       false,
		EnableZoom:      true,
	},
	OrbitBase: {
		MinPolarAngle:   0,
		MaxPolarAngle:   math.Pi,
		MinAzimuthAngle: math.Inf(-1),
		MaxAzimuthAngle: math.Inf(1),
		EnablePan:       true,
		EnableZoom:      true,
	},
}

// ResolveOrbit returns the constraint for category. Unknown categories get
// the base preset.
func ResolveOrbit(category OrbitCategory) OrbitConstraint {
	if c, ok := orbitPresets[category]; ok {
		return c
	}
	return orbitPresets[OrbitBase]
}
