package math3d

// Vec4 represents a homogeneous 3D point.
type Vec4 struct {
	X, Y, Z, W float64
}

// V4FromV3 creates a Vec4 from Vec3 with specified W.
func V4FromV3(v Vec3, w float64) Vec4 {
	return Vec4{v.X, v.Y, v.Z, w}
}

// Vec3 returns the Vec3 portion (ignoring W).
func (v Vec4) Vec3() Vec3 {
	return Vec3{v.X, v.Y, v.Z}
}

// PerspectiveDivide returns Vec3 after dividing by W.
func (v Vec4) PerspectiveDivide() Vec3 {
	if v.W == 0 {
		return v.Vec3()
	}
	return Vec3{v.X / v.W, v.Y / v.W, v.Z / v.W}
}
