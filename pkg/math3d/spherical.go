package math3d

import "math"

// Spherical is a point in spherical coordinates around an origin.
// Polar is measured from the +Y axis, Azimuth around +Y starting at +Z.
type Spherical struct {
	Radius  float64
	Polar   float64
	Azimuth float64
}

// SphericalFrom converts a Y-up offset vector to spherical coordinates.
func SphericalFrom(v Vec3) Spherical {
	r := v.Len()
	if r == 0 {
		return Spherical{}
	}
	return Spherical{
		Radius:  r,
		Polar:   math.Acos(clamp(v.Y/r, -1, 1)),
		Azimuth: math.Atan2(v.X, v.Z),
	}
}

// Vec3 converts back to a Y-up offset vector.
func (s Spherical) Vec3() Vec3 {
	sinPolar := math.Sin(s.Polar)
	return Vec3{
		X: s.Radius * sinPolar * math.Sin(s.Azimuth),
		Y: s.Radius * math.Cos(s.Polar),
		Z: s.Radius * sinPolar * math.Cos(s.Azimuth),
	}
}

// UpBasis returns the rotation that maps up onto +Y. Its transpose maps +Y
// back onto up. Orbit math is done in the rotated frame so that scenes
// captured with an arbitrary up vector orbit around their own vertical.
func UpBasis(up Vec3) Mat4 {
	up = up.Normalize()
	if up.LenSq() == 0 {
		return Identity()
	}
	y := Up()
	axis := up.Cross(y)
	if axis.LenSq() < 1e-12 {
		if up.Y > 0 {
			return Identity()
		}
		return Rotate(Vec3{1, 0, 0}, math.Pi)
	}
	angle := math.Acos(clamp(up.Dot(y), -1, 1))
	return Rotate(axis, angle)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Clamp limits v to [lo, hi]. Infinite bounds are allowed.
func Clamp(v, lo, hi float64) float64 {
	return clamp(v, lo, hi)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
