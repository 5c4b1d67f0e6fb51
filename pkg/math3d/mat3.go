package math3d

// Mat3 is a 3x3 matrix stored in column-major order, index row+col*3.
// It carries the normal matrix (inverse-transpose of a model's linear part).
type Mat3 [9]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Get returns the element at (row, col).
func (m Mat3) Get(row, col int) float64 {
	return m[row+col*3]
}

// Set sets the element at (row, col).
func (m *Mat3) Set(row, col int, val float64) {
	m[row+col*3] = val
}

// Mul multiplies two matrices: a * b.
//
//nolint:st1016 // a*b naming convention is clearer for matrix multiplication
func (a Mat3) Mul(b Mat3) Mat3 {
	var m Mat3
	for col := range 3 {
		for row := range 3 {
			var sum float64
			for k := range 3 {
				sum += a[row+k*3] * b[k+col*3]
			}
			m[row+col*3] = sum
		}
	}
	return m
}

// Add returns the element-wise sum.
//
//nolint:st1016 // a+b naming convention is clearer for matrix operations
func (a Mat3) Add(b Mat3) Mat3 {
	var m Mat3
	for i := range m {
		m[i] = a[i] + b[i]
	}
	return m
}

// Scalar returns the matrix with every element multiplied by s.
func (m Mat3) Scalar(s float64) Mat3 {
	for i := range m {
		m[i] *= s
	}
	return m
}

// MulVec3 transforms v.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[3]*v.Y + m[6]*v.Z,
		m[1]*v.X + m[4]*v.Y + m[7]*v.Z,
		m[2]*v.X + m[5]*v.Y + m[8]*v.Z,
	}
}

// Transpose returns the transposed matrix.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Determinant returns the determinant of the matrix.
func (m Mat3) Determinant() float64 {
	return m[0]*(m[4]*m[8]-m[7]*m[5]) -
		m[3]*(m[1]*m[8]-m[7]*m[2]) +
		m[6]*(m[1]*m[5]-m[4]*m[2])
}

// Inverse returns the inverse by cofactor expansion (adjugate over
// determinant). A singular matrix yields ErrDegenerateMatrix.
func (m Mat3) Inverse() (Mat3, error) {
	det := m.Determinant()
	if det == 0 {
		return Mat3{}, ErrDegenerateMatrix
	}
	invDet := 1.0 / det

	var inv Mat3
	inv[0] = (m[4]*m[8] - m[7]*m[5]) * invDet
	inv[1] = -(m[1]*m[8] - m[7]*m[2]) * invDet
	inv[2] = (m[1]*m[5] - m[4]*m[2]) * invDet

	inv[3] = -(m[3]*m[8] - m[6]*m[5]) * invDet
	inv[4] = (m[0]*m[8] - m[6]*m[2]) * invDet
	inv[5] = -(m[0]*m[5] - m[3]*m[2]) * invDet

	inv[6] = (m[3]*m[7] - m[6]*m[4]) * invDet
	inv[7] = -(m[0]*m[7] - m[6]*m[1]) * invDet
	inv[8] = (m[0]*m[4] - m[3]*m[1]) * invDet

	return inv, nil
}
