package math3d

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func mat4Near(a, b Mat4, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func mat3Near(a, b Mat3, tol float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > tol {
			return false
		}
	}
	return true
}

func TestMat4InverseIdentity(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"identity", Identity()},
		{"translate", Translate(V3(1, -2, 3))},
		{"rotate scale", RotateX(0.3).Mul(RotateY(-1.1)).Mul(Scale(V3(2, 0.5, 4)))},
		{"model", Translate(V3(0, 0, -5)).Mul(RotateZ(2)).Mul(RotateY(1)).Mul(RotateX(0.5)).Mul(Scale(V3(3, 3, 3)))},
		{"projection", Perspective(math.Pi/2, 1.5, 1, 10)},
		{"viewport", Viewport(10, 20, 640, 480)},
		{"dense", Mat4{2, 1, 0, 3, 0, 4, 1, 2, 1, 0, 5, 1, 3, 2, 1, 6}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inv, err := tc.m.Inverse()
			if err != nil {
				t.Fatalf("Inverse() error = %v", err)
			}
			if got := tc.m.Mul(inv); !mat4Near(got, Identity(), 1e-9) {
				t.Errorf("M * M^-1 = %v, want identity", got)
			}
			if got := inv.Mul(tc.m); !mat4Near(got, Identity(), 1e-9) {
				t.Errorf("M^-1 * M = %v, want identity", got)
			}

			ref := mgl64.Mat4(tc.m).Inv()
			if !mgl64.Mat4(inv).ApproxEqualThreshold(ref, 1e-9) {
				t.Errorf("Inverse() = %v, mathgl says %v", inv, ref)
			}
		})
	}
}

func TestMat4InverseDegenerate(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
	}{
		{"zero", Mat4{}},
		{"flattened", Scale(V3(1, 0, 1))},
		{"duplicate rows", Mat4{1, 1, 0, 0, 2, 2, 0, 0, 3, 3, 1, 0, 4, 4, 0, 1}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.m.Inverse()
			if !errors.Is(err, ErrDegenerateMatrix) {
				t.Errorf("Inverse() error = %v, want ErrDegenerateMatrix", err)
			}
		})
	}
}

func TestMat3Inverse(t *testing.T) {
	m := RotateY(0.7).Mul(Scale(V3(2, 3, 0.5))).Mat3()

	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("Inverse() error = %v", err)
	}
	if got := m.Mul(inv); !mat3Near(got, Identity3(), 1e-9) {
		t.Errorf("M * M^-1 = %v, want identity", got)
	}

	ref := mgl64.Mat3(m).Inv()
	if !mgl64.Mat3(inv).ApproxEqualThreshold(ref, 1e-9) {
		t.Errorf("Inverse() = %v, mathgl says %v", inv, ref)
	}

	if _, err := (Mat3{1, 2, 3, 2, 4, 6, 0, 0, 1}).Inverse(); !errors.Is(err, ErrDegenerateMatrix) {
		t.Errorf("singular Mat3 error = %v, want ErrDegenerateMatrix", err)
	}
}

func TestMat4MulMatchesMathgl(t *testing.T) {
	a := Translate(V3(1, 2, 3)).Mul(RotateX(0.4))
	b := RotateZ(-0.8).Mul(Scale(V3(1, 2, 3)))

	got := a.Mul(b)
	want := mgl64.Mat4(a).Mul4(mgl64.Mat4(b))
	if !mgl64.Mat4(got).ApproxEqualThreshold(want, 1e-12) {
		t.Errorf("Mul = %v, want %v", got, want)
	}
}

func TestRotationBuildersMatchMathgl(t *testing.T) {
	const angle = 0.9
	tests := []struct {
		name string
		got  Mat4
		want mgl64.Mat4
	}{
		{"x", RotateX(angle), mgl64.HomogRotate3DX(angle)},
		{"y", RotateY(angle), mgl64.HomogRotate3DY(angle)},
		{"z", RotateZ(angle), mgl64.HomogRotate3DZ(angle)},
		{"translate", Translate(V3(4, 5, 6)), mgl64.Translate3D(4, 5, 6)},
		{"scale", Scale(V3(4, 5, 6)), mgl64.Scale3D(4, 5, 6)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !mgl64.Mat4(tc.got).ApproxEqualThreshold(tc.want, 1e-12) {
				t.Errorf("got %v, want %v", tc.got, tc.want)
			}
		})
	}
}

func TestMat4GetSetColumnMajor(t *testing.T) {
	m := Translate(V3(7, 8, 9))
	if m.Get(0, 3) != 7 || m.Get(1, 3) != 8 || m.Get(2, 3) != 9 {
		t.Errorf("translation column = %v %v %v", m.Get(0, 3), m.Get(1, 3), m.Get(2, 3))
	}

	m.Set(3, 0, 5)
	if m[3] != 5 {
		t.Errorf("Set(3, 0) wrote index %v", m)
	}
}

func TestMat4TransposeAndMat3(t *testing.T) {
	m := Mat4{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	if got := m.Transpose().Transpose(); got != m {
		t.Errorf("double transpose = %v", got)
	}
	if got := m.Transpose().Get(1, 0); got != m.Get(0, 1) {
		t.Errorf("transpose(1,0) = %v, want %v", got, m.Get(0, 1))
	}

	want := Mat3{1, 2, 3, 5, 6, 7, 9, 10, 11}
	if got := m.Mat3(); got != want {
		t.Errorf("Mat3() = %v, want %v", got, want)
	}
}

func TestLookAt(t *testing.T) {
	view, err := LookAt(V3(0, 0, 3), Zero3(), Up())
	if err != nil {
		t.Fatalf("LookAt error = %v", err)
	}

	// The target sits straight ahead, 3 units down -Z in camera space.
	got := view.MulVec3(Zero3())
	if !vecNear(got, V3(0, 0, -3)) {
		t.Errorf("view * origin = %v, want (0,0,-3)", got)
	}

	// Points to the right stay to the right.
	got = view.MulVec3(V3(1, 0, 0))
	if got.X <= 0 {
		t.Errorf("view * +X = %v, want positive x", got)
	}
}

func TestLookAtUnnormalizedUp(t *testing.T) {
	a, err := LookAt(V3(1, 2, 5), V3(0, 1, 0), V3(0, 1, 0))
	if err != nil {
		t.Fatal(err)
	}
	b, err := LookAt(V3(1, 2, 5), V3(0, 1, 0), V3(0, 7, 0))
	if err != nil {
		t.Fatal(err)
	}
	if !mat4Near(a, b, 1e-12) {
		t.Errorf("scaling up changed the view matrix:\n%v\n%v", a, b)
	}
}

func TestLookAtDegenerate(t *testing.T) {
	tests := []struct {
		name                string
		pos, target, upAxis Vec3
	}{
		{"up parallel to forward", V3(0, 5, 0), Zero3(), Up()},
		{"eye on target", V3(1, 1, 1), V3(1, 1, 1), Up()},
		{"zero up", V3(0, 0, 3), Zero3(), Zero3()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LookAt(tc.pos, tc.target, tc.upAxis)
			if !errors.Is(err, ErrDegenerateMatrix) {
				t.Errorf("LookAt error = %v, want ErrDegenerateMatrix", err)
			}
		})
	}
}

func TestPerspectiveDepth(t *testing.T) {
	const near, far = 1.0, 10.0
	p := Perspective(math.Pi/2, 1, near, far)

	tests := []struct {
		name  string
		z     float64
		wantZ float64
	}{
		{"near plane", -near, 0},
		{"far plane", -far, far},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clip := p.MulVec4(V4(0, 0, tc.z, 1))
			if math.Abs(clip.Z-tc.wantZ) > eps {
				t.Errorf("clip z = %v, want %v", clip.Z, tc.wantZ)
			}
			if math.Abs(clip.W+tc.z) > eps {
				t.Errorf("clip w = %v, want %v", clip.W, -tc.z)
			}
		})
	}

	behind := p.MulVec4(V4(0, 0, 0.5, 1))
	if behind.Z >= 0 {
		t.Errorf("point behind the eye has clip z %v, want negative", behind.Z)
	}
}

func TestViewportMapsNDC(t *testing.T) {
	vp := Viewport(0, 0, 100, 50)

	tests := []struct {
		name string
		ndc  Vec3
		want Vec3
	}{
		{"center", V3(0, 0, 0.5), V3(50, 25, 0.5)},
		{"top left", V3(-1, 1, 0), V3(0, 0, 0)},
		{"bottom right", V3(1, -1, 2), V3(100, 50, 2)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := vp.MulVec3(tc.ndc); !vecNear(got, tc.want) {
				t.Errorf("viewport * %v = %v, want %v", tc.ndc, got, tc.want)
			}
		})
	}
}

func vecNear(a, b Vec3) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}
