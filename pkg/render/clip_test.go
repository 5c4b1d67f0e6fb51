package render

import (
	"image"
	"math"
	"testing"

	"github.com/taigrr/modelviewer/pkg/math3d"
)

func TestClipLine(t *testing.T) {
	rect := image.Rect(0, 0, 100, 100)

	tests := []struct {
		name   string
		a, b   math3d.Vec3
		ok     bool
		wantA  math3d.Vec3
		wantB  math3d.Vec3
	}{
		{
			name:  "inside unchanged",
			a:     math3d.V3(10, 10, 1),
			b:     math3d.V3(90, 90, 2),
			ok:    true,
			wantA: math3d.V3(10, 10, 1),
			wantB: math3d.V3(90, 90, 2),
		},
		{
			name: "both left",
			a:    math3d.V3(-10, 5, 0),
			b:    math3d.V3(-5, 50, 0),
		},
		{
			name: "both below top edge",
			a:    math3d.V3(10, 100, 0),
			b:    math3d.V3(90, 150, 0),
		},
		{
			name:  "crosses left",
			a:     math3d.V3(-10, 50, 0),
			b:     math3d.V3(50, 50, 0),
			ok:    true,
			wantA: math3d.V3(0, 50, 0),
			wantB: math3d.V3(50, 50, 0),
		},
		{
			name:  "crosses right",
			a:     math3d.V3(50, 50, 0),
			b:     math3d.V3(150, 50, 0),
			ok:    true,
			wantA: math3d.V3(50, 50, 0),
			wantB: math3d.V3(99, 50, 0),
		},
		{
			name:  "crosses top",
			a:     math3d.V3(50, 50, 0),
			b:     math3d.V3(50, 150, 0),
			ok:    true,
			wantA: math3d.V3(50, 50, 0),
			wantB: math3d.V3(50, 99, 0),
		},
		{
			name:  "crosses bottom",
			a:     math3d.V3(50, -30, 0),
			b:     math3d.V3(50, 50, 0),
			ok:    true,
			wantA: math3d.V3(50, 0, 0),
			wantB: math3d.V3(50, 50, 0),
		},
		{
			name:  "through corner region",
			a:     math3d.V3(-10, -10, 0),
			b:     math3d.V3(50, 50, 0),
			ok:    true,
			wantA: math3d.V3(0, 0, 0),
			wantB: math3d.V3(50, 50, 0),
		},
		{
			name:  "spans both sides",
			a:     math3d.V3(-10, 50, 0),
			b:     math3d.V3(110, 50, 0),
			ok:    true,
			wantA: math3d.V3(0, 50, 0),
			wantB: math3d.V3(99, 50, 0),
		},
		{
			name:  "depth follows clip",
			a:     math3d.V3(-10, 50, 1),
			b:     math3d.V3(10, 50, 3),
			ok:    true,
			wantA: math3d.V3(0, 50, 2),
			wantB: math3d.V3(10, 50, 3),
		},
		{
			name: "misses corner",
			a:    math3d.V3(-10, 5, 0),
			b:    math3d.V3(5, -10, 0),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, b, ok := ClipLine(rect, tc.a, tc.b)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if !vecNear(a, tc.wantA) || !vecNear(b, tc.wantB) {
				t.Errorf("got %v-%v, want %v-%v", a, b, tc.wantA, tc.wantB)
			}
		})
	}
}

func TestClipLineDiagonalLandsInside(t *testing.T) {
	rect := image.Rect(0, 0, 100, 100)
	a, b, ok := ClipLine(rect, math3d.V3(-10, 20, 0), math3d.V3(20, -10, 0))
	if !ok {
		t.Fatal("line crossing the corner was rejected")
	}
	for _, p := range []math3d.Vec3{a, b} {
		if outcode(rect, p.X, p.Y) != outInside {
			t.Errorf("endpoint %v outside the rectangle", p)
		}
		if math.Abs(p.X+p.Y-10) > 1e-9 {
			t.Errorf("endpoint %v left the original line", p)
		}
	}
}

func TestClipLineEmptyRect(t *testing.T) {
	if _, _, ok := ClipLine(image.Rectangle{}, math3d.V3(0, 0, 0), math3d.V3(1, 1, 0)); ok {
		t.Error("empty rectangle accepted a line")
	}
}

func TestClipTriangleNearPlane(t *testing.T) {
	rect := image.Rect(0, 0, 100, 100)

	tests := []struct {
		name  string
		tri   [3]Vertex
		ok    bool
		wantN int
	}{
		{
			name: "all behind",
			tri:  [3]Vertex{sv(10, 10, -1, 0.5), sv(30, 10, -2, 0.5), sv(20, 30, -1, 0.5)},
		},
		{
			name: "all on the near plane",
			tri:  [3]Vertex{sv(10, 10, 0, 1), sv(30, 10, 0, 1), sv(20, 30, 0, 1)},
		},
		{
			name:  "fully in front",
			tri:   [3]Vertex{sv(10, 10, 1, 2), sv(30, 10, 1, 2), sv(20, 30, 1, 2)},
			ok:    true,
			wantN: 3,
		},
		{
			name:  "one behind makes a quad",
			tri:   [3]Vertex{sv(10, 10, 1, 2), sv(30, 10, 1, 2), sv(20, 30, -1, 0.5)},
			ok:    true,
			wantN: 4,
		},
		{
			name:  "two behind makes a triangle",
			tri:   [3]Vertex{sv(10, 10, 1, 2), sv(30, 10, -1, 0.5), sv(20, 30, -1, 0.5)},
			ok:    true,
			wantN: 3,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			poly, ok := ClipTriangle(rect, tc.tri)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if !ok {
				return
			}
			if poly.N != tc.wantN {
				t.Fatalf("polygon has %d vertices, want %d", poly.N, tc.wantN)
			}
			for i, v := range poly.V[:poly.N] {
				if v.Position.Z < -1e-9 {
					t.Errorf("vertex %d z = %v, want >= 0", i, v.Position.Z)
				}
			}
			n := 0
			for range poly.Triangles() {
				n++
			}
			if n != poly.N-2 {
				t.Errorf("fan has %d triangles, want %d", n, poly.N-2)
			}
		})
	}
}

func TestClipTriangleNearCrossingIsHomogeneous(t *testing.T) {
	rect := image.Rect(0, 0, 100, 100)
	tri := [3]Vertex{sv(10, 10, 1, 2), sv(30, 10, 1, 2), sv(20, 30, -1, 0.5)}

	poly, ok := ClipTriangle(rect, tri)
	if !ok || poly.N != 4 {
		t.Fatalf("ClipTriangle = %d vertices, %v", poly.N, ok)
	}
	// b-c crosses z=0 halfway in camera space: X*W goes 60 -> 10, W 2 -> 0.5.
	got := poly.V[2].Position
	want := math3d.V4(35/1.25, 17.5/1.25, 0, 1.25)
	if math.Abs(got.X-want.X) > 1e-9 || math.Abs(got.Y-want.Y) > 1e-9 ||
		math.Abs(got.Z) > 1e-9 || math.Abs(got.W-want.W) > 1e-9 {
		t.Errorf("crossing = %v, want %v", got, want)
	}
}

// projectVertex runs a camera-space point through a 90 degree perspective
// and a 100x100 viewport, the way the scene builds pipeline vertices.
func projectVertex(p math3d.Vec3) Vertex {
	screen := math3d.Viewport(0, 0, 100, 100).Mul(math3d.Perspective(math.Pi/2, 1, 1, 10))
	return Vertex{Position: screen.MulVec4(p.Vec4(1)).DivideXY()}
}

func TestClipNearEyePlaneVertex(t *testing.T) {
	b := projectVertex(math3d.V3(0, 0, -2))
	c := projectVertex(math3d.V3(0, 0.5, -2))

	// Moving a from the eye plane to just in front of it must not move the
	// crossings: both land halfway to the -2 plane, at x = 75.
	for _, z := range []float64{0, -1e-9} {
		a := projectVertex(math3d.V3(1, 0, z))
		if z == 0 && a.Position.W != 0 {
			t.Fatalf("eye-plane vertex W = %v, want 0", a.Position.W)
		}

		poly, ok := ClipTriangle(image.Rect(0, 0, 100, 100), [3]Vertex{a, b, c})
		if !ok {
			t.Fatalf("z=%v: triangle rejected", z)
		}
		maxX := math.Inf(-1)
		for _, v := range poly.V[:poly.N] {
			maxX = max(maxX, v.Position.X)
		}
		if math.Abs(maxX-75) > 1e-6 {
			t.Errorf("z=%v: clipped polygon reaches x = %v, want 75", z, maxX)
		}

		p, _, ok := clipNear(a, b)
		if !ok {
			t.Fatalf("z=%v: edge rejected", z)
		}
		if got := p.Position; math.Abs(got.X-75) > 1e-6 || math.Abs(got.Y-50) > 1e-6 || math.Abs(got.W-1) > 1e-6 {
			t.Errorf("z=%v: edge crossing = %v, want (75, 50, 0, 1)", z, got)
		}
	}
}

func TestClipTriangleViewportEdges(t *testing.T) {
	rect := image.Rect(0, 0, 100, 100)

	t.Run("straddles left edge", func(t *testing.T) {
		tri := [3]Vertex{sv(-20, 10, 1, 1), sv(50, 10, 1, 1), sv(50, 60, 1, 1)}
		poly, ok := ClipTriangle(rect, tri)
		if !ok {
			t.Fatal("triangle rejected")
		}
		if poly.N != 4 {
			t.Fatalf("polygon has %d vertices, want 4", poly.N)
		}
		assertInside(t, poly, rect)
	})

	t.Run("covers screen", func(t *testing.T) {
		tri := [3]Vertex{sv(-500, -500, 1, 1), sv(1000, -500, 1, 1), sv(-500, 1000, 1, 1)}
		poly, ok := ClipTriangle(rect, tri)
		if !ok {
			t.Fatal("triangle rejected")
		}
		if poly.N != 4 {
			t.Fatalf("polygon has %d vertices, want the 4 screen corners", poly.N)
		}
		assertInside(t, poly, rect)
		if b := poly.Bounds(); b != rect {
			t.Errorf("bounds = %v, want %v", b, rect)
		}
	})

	t.Run("off screen", func(t *testing.T) {
		tri := [3]Vertex{sv(200, 10, 1, 1), sv(250, 10, 1, 1), sv(220, 60, 1, 1)}
		if _, ok := ClipTriangle(rect, tri); ok {
			t.Error("off-screen triangle accepted")
		}
	})

	t.Run("near and side at once", func(t *testing.T) {
		tri := [3]Vertex{sv(-40, 50, 1, 1), sv(60, 50, 1, 1), sv(50, 80, -1, 0.5)}
		poly, ok := ClipTriangle(rect, tri)
		if !ok {
			t.Fatal("triangle rejected")
		}
		if poly.N > maxPolygonVertices || poly.N < 3 {
			t.Fatalf("polygon has %d vertices", poly.N)
		}
		assertInside(t, poly, rect)
	})
}

func TestClipTriangleScreenLerpIsPerspective(t *testing.T) {
	rect := image.Rect(0, 0, 100, 100)
	a := sv(-100, 10, 1, 1)
	b := sv(100, 10, 1, 3)
	c := sv(-100, 90, 1, 1)
	b.UV = math3d.V2(1, 0)

	poly, ok := ClipTriangle(rect, [3]Vertex{a, b, c})
	if !ok {
		t.Fatal("triangle rejected")
	}
	// The crossing on a-b sits at screen fraction 0.5, which is a quarter of
	// the way in camera space.
	v := poly.V[0]
	if math.Abs(v.Position.X) > 1e-9 {
		t.Fatalf("first vertex x = %v, want 0", v.Position.X)
	}
	if math.Abs(v.UV.X-0.25) > 1e-9 {
		t.Errorf("u at crossing = %v, want 0.25", v.UV.X)
	}
	if math.Abs(v.Position.W-1.5) > 1e-9 {
		t.Errorf("w at crossing = %v, want 1.5", v.Position.W)
	}
}

func TestPolygonTrianglesStopsEarly(t *testing.T) {
	var poly Polygon
	for i := range 6 {
		poly.add(sv(float64(i), float64(i*i), 1, 1))
	}
	n := 0
	for range poly.Triangles() {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("iterated %d triangles, want 2", n)
	}
}

func assertInside(t *testing.T, poly Polygon, rect image.Rectangle) {
	t.Helper()
	const eps = 1e-9
	for i, v := range poly.V[:poly.N] {
		x, y := v.Position.X, v.Position.Y
		if x < float64(rect.Min.X)-eps || x > float64(rect.Max.X-1)+eps ||
			y < float64(rect.Min.Y)-eps || y > float64(rect.Max.Y-1)+eps {
			t.Errorf("vertex %d at (%v, %v) outside %v", i, x, y, rect)
		}
	}
}

func vecNear(a, b math3d.Vec3) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}
