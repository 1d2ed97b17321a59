package math3d

import "math"

// Mat4 is a 4x4 matrix in column-major order: element (row, col) is at
// index row + col*4, and the translation of an affine transform sits in
// indices 12, 13 and 14.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{0: 1, 5: 1, 10: 1, 15: 1}
}

// Translate returns a matrix that moves points by v.
func Translate(v Vec3) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = v.X, v.Y, v.Z
	return m
}

// Scale returns a matrix that scales each axis by the matching component of v.
func Scale(v Vec3) Mat4 {
	return Mat4{0: v.X, 5: v.Y, 10: v.Z, 15: 1}
}

// columns builds an affine matrix from three basis columns and a translation.
func columns(x, y, z, t Vec3) Mat4 {
	return Mat4{
		x.X, x.Y, x.Z, 0,
		y.X, y.Y, y.Z, 0,
		z.X, z.Y, z.Z, 0,
		t.X, t.Y, t.Z, 1,
	}
}

// Rotate returns a right-handed rotation of angle radians about axis
// (Rodrigues' formula).
func Rotate(axis Vec3, angle float64) Mat4 {
	a := axis.Normalize()
	c, s := math.Cos(angle), math.Sin(angle)
	k := 1 - c

	// Column j is the image of basis vector e_j.
	rot := func(e Vec3) Vec3 {
		return e.Scale(c).Add(a.Cross(e).Scale(s)).Add(a.Scale(a.Dot(e) * k))
	}
	return columns(rot(Vec3{1, 0, 0}), rot(Vec3{0, 1, 0}), rot(Vec3{0, 0, 1}), Vec3{})
}

// LookAt returns the view matrix of a camera at eye looking toward center.
// The camera looks down its local -Z with up roughly along up.
func LookAt(eye, center, up Vec3) Mat4 {
	fwd := center.Sub(eye).Normalize()
	right := fwd.Cross(up).Normalize()
	camUp := right.Cross(fwd)

	// Rows of the rotation are the camera axes; the translation moves eye
	// to the origin.
	return columns(
		Vec3{right.X, camUp.X, -fwd.X},
		Vec3{right.Y, camUp.Y, -fwd.Y},
		Vec3{right.Z, camUp.Z, -fwd.Z},
		Vec3{-right.Dot(eye), -camUp.Dot(eye), fwd.Dot(eye)},
	)
}

// Perspective returns an OpenGL-style projection: fovy is the vertical field
// of view in radians, aspect is width/height, and depth in [near, far] maps
// to NDC z in [-1, 1].
func Perspective(fovy, aspect, near, far float64) Mat4 {
	f := 1 / math.Tan(fovy/2)
	depth := near - far
	return Mat4{
		0:  f / aspect,
		5:  f,
		10: (far + near) / depth,
		11: -1,
		14: 2 * far * near / depth,
	}
}

// Mul returns a*b, so (a*b)v applies b first.
func (a Mat4) Mul(b Mat4) Mat4 {
	var out Mat4
	for c := range 4 {
		col := a.MulVec4(Vec4{b[c*4], b[c*4+1], b[c*4+2], b[c*4+3]})
		out[c*4], out[c*4+1], out[c*4+2], out[c*4+3] = col.X, col.Y, col.Z, col.W
	}
	return out
}

// MulVec4 transforms a homogeneous vector.
func (m Mat4) MulVec4(v Vec4) Vec4 {
	return Vec4{
		m[0]*v.X + m[4]*v.Y + m[8]*v.Z + m[12]*v.W,
		m[1]*v.X + m[5]*v.Y + m[9]*v.Z + m[13]*v.W,
		m[2]*v.X + m[6]*v.Y + m[10]*v.Z + m[14]*v.W,
		m[3]*v.X + m[7]*v.Y + m[11]*v.Z + m[15]*v.W,
	}
}

// MulVec3 transforms v as a point, dividing by w when it is not zero.
func (m Mat4) MulVec3(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 1)).PerspectiveDivide()
}

// MulVec3Dir transforms v as a direction, ignoring translation.
func (m Mat4) MulVec3Dir(v Vec3) Vec3 {
	return m.MulVec4(V4FromV3(v, 0)).Vec3()
}

// Transpose swaps rows and columns. For a pure rotation it is the inverse.
func (m Mat4) Transpose() Mat4 {
	var t Mat4
	for r := range 4 {
		for c := range 4 {
			t[c+r*4] = m[r+c*4]
		}
	}
	return t
}
