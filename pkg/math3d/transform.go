package math3d

import "math"

// Translate creates a translation matrix.
func Translate(v Vec3) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		v.X, v.Y, v.Z, 1,
	}
}

// Scale creates a scaling matrix.
func Scale(v Vec3) Mat4 {
	return Mat4{
		v.X, 0, 0, 0,
		0, v.Y, 0, 0,
		0, 0, v.Z, 0,
		0, 0, 0, 1,
	}
}

// RotateX creates a rotation matrix around the X axis.
func RotateX(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotateY creates a rotation matrix around the Y axis.
func RotateY(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotateZ creates a rotation matrix around the Z axis.
func RotateZ(angle float64) Mat4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// LookAt builds a view matrix for an eye at position looking at target.
//
// Rows of the result (row-major reading):
//
//	| Xx Xy Xz -X·pos |   Z = normalize(position - target)
//	| Yx Yy Yz -Y·pos |   X = normalize(up × Z)
//	| Zx Zy Zz -Z·pos |   Y = Z × X (unit up, orthogonal to Z)
//	| 0  0  0  1      |
//
// ErrDegenerateMatrix is returned when position equals target or up is
// parallel to the viewing direction.
func LookAt(position, target, up Vec3) (Mat4, error) {
	forward := position.Sub(target)
	if forward.LenSq() == 0 {
		return Mat4{}, ErrDegenerateMatrix
	}
	z := forward.Normalize()

	right := up.Normalize().Cross(z)
	if right.LenSq() == 0 {
		return Mat4{}, ErrDegenerateMatrix
	}
	x := right.Normalize()
	y := z.Cross(x)

	return Mat4{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		-x.Dot(position), -y.Dot(position), -z.Dot(position), 1,
	}, nil
}

// Perspective creates a perspective projection matrix.
// fovy is the vertical field of view in radians, aspect is width/height.
//
// Depth is not normalized: after projection z is 0 on the near plane, far on
// the far plane and negative behind the near plane, while w carries the
// camera-space distance. The rasterizer depth-tests on this raw z.
func Perspective(fovy, aspect, near, far float64) Mat4 {
	t := math.Tan(fovy / 2)
	nf := 1.0 / (near - far)

	return Mat4{
		1 / (aspect * t), 0, 0, 0,
		0, 1 / t, 0, 0,
		0, 0, far * nf, -1,
		0, 0, near * far * nf, 0,
	}
}

// Viewport maps normalized device coordinates to pixel coordinates of the
// rectangle anchored at (x, y) with the given size. Y is flipped so +1 lands
// on the top row; z passes through untouched.
func Viewport(x, y, width, height float64) Mat4 {
	hw, hh := width/2, height/2
	return Mat4{
		hw, 0, 0, 0,
		0, -hh, 0, 0,
		0, 0, 1, 0,
		x + hw, y + hh, 0, 1,
	}
}
