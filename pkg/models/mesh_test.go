package models

import (
	"math"
	"strings"
	"testing"

	"github.com/taigrr/modelviewer/pkg/math3d"
	"github.com/taigrr/modelviewer/pkg/scene"
)

const eps = 1e-9

func vecNear(a, b math3d.Vec3) bool {
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps && math.Abs(a.Z-b.Z) < eps
}

// tent returns two triangles sharing the edge 0-1, folded along it.
func tent() *Mesh {
	mesh := NewMesh("tent")
	mesh.Positions = []math3d.Vec4{
		math3d.V4(0, 0, 0, 1),
		math3d.V4(0, 0, 2, 1),
		math3d.V4(1, 1, 0, 1),
		math3d.V4(-1, 1, 0, 1),
	}
	for _, v := range []int{0, 1, 2, 0, 3, 1} {
		mesh.Indices = append(mesh.Indices, scene.Index{Vertex: v, Texture: -1, Normal: -1})
	}
	return mesh
}

func TestCalculateBounds(t *testing.T) {
	mesh := tent()
	mesh.CalculateBounds()

	if !vecNear(mesh.BoundsMin, math3d.V3(-1, 0, 0)) {
		t.Errorf("BoundsMin = %v", mesh.BoundsMin)
	}
	if !vecNear(mesh.BoundsMax, math3d.V3(1, 1, 2)) {
		t.Errorf("BoundsMax = %v", mesh.BoundsMax)
	}
	if !vecNear(mesh.Center(), math3d.V3(0, 0.5, 1)) {
		t.Errorf("Center = %v", mesh.Center())
	}
	if !vecNear(mesh.Size(), math3d.V3(2, 1, 2)) {
		t.Errorf("Size = %v", mesh.Size())
	}
}

func TestCalculateBoundsEmpty(t *testing.T) {
	mesh := NewMesh("empty")
	mesh.CalculateBounds()
	if mesh.BoundsMin != math3d.Zero3() || mesh.BoundsMax != math3d.Zero3() {
		t.Errorf("bounds of empty mesh = %v, %v", mesh.BoundsMin, mesh.BoundsMax)
	}
}

func TestCalculateNormals(t *testing.T) {
	mesh := tent()
	if mesh.HasNormals() {
		t.Fatal("HasNormals before calculation")
	}
	mesh.CalculateNormals()

	if !mesh.HasNormals() {
		t.Fatal("HasNormals after calculation is false")
	}
	if len(mesh.Normals) != 2 {
		t.Fatalf("got %d normals, want one per face", len(mesh.Normals))
	}
	for i, idx := range mesh.Indices {
		if idx.Normal != i/3 {
			t.Errorf("corner %d uses normal %d, want %d", i, idx.Normal, i/3)
		}
	}
	s := 1 / math.Sqrt2
	if !vecNear(mesh.Normals[0], math3d.V3(-s, s, 0)) {
		t.Errorf("face 0 normal = %v", mesh.Normals[0])
	}
	if !vecNear(mesh.Normals[1], math3d.V3(s, s, 0)) {
		t.Errorf("face 1 normal = %v", mesh.Normals[1])
	}
}

func TestCalculateSmoothNormals(t *testing.T) {
	mesh := tent()
	mesh.CalculateSmoothNormals()

	if len(mesh.Normals) != len(mesh.Positions) {
		t.Fatalf("got %d normals for %d positions", len(mesh.Normals), len(mesh.Positions))
	}
	for i, idx := range mesh.Indices {
		if idx.Normal != idx.Vertex {
			t.Errorf("corner %d uses normal %d, want %d", i, idx.Normal, idx.Vertex)
		}
	}
	// The shared edge averages both faces.
	for _, v := range []int{0, 1} {
		if !vecNear(mesh.Normals[v], math3d.V3(0, 1, 0)) {
			t.Errorf("shared normal %d = %v, want +Y", v, mesh.Normals[v])
		}
	}
	s := 1 / math.Sqrt2
	if !vecNear(mesh.Normals[2], math3d.V3(-s, s, 0)) {
		t.Errorf("normal 2 = %v", mesh.Normals[2])
	}
}

func TestTransform(t *testing.T) {
	mesh := tent()
	mesh.CalculateNormals()
	mesh.Transform(math3d.Translate(math3d.V3(0, 0, -1)).Mul(math3d.Scale(math3d.V3(2, 1, 1))))

	if got := mesh.Positions[2].Vec3(); !vecNear(got, math3d.V3(2, 1, -1)) {
		t.Errorf("position 2 = %v", got)
	}
	if !vecNear(mesh.BoundsMin, math3d.V3(-2, 0, -1)) || !vecNear(mesh.BoundsMax, math3d.V3(2, 1, 1)) {
		t.Errorf("bounds = %v, %v", mesh.BoundsMin, mesh.BoundsMax)
	}
	// Stretching along X tilts the normal toward Y.
	want := math3d.V3(-1, 2, 0).Normalize()
	if !vecNear(mesh.Normals[0], want) {
		t.Errorf("normal = %v, want %v", mesh.Normals[0], want)
	}
}

func TestFitUnitCube(t *testing.T) {
	mesh := tent()
	mesh.FitUnitCube()

	if !vecNear(mesh.Center(), math3d.Zero3()) {
		t.Errorf("Center = %v, want origin", mesh.Center())
	}
	size := mesh.Size()
	if got := max(size.X, size.Y, size.Z); math.Abs(got-1) > eps {
		t.Errorf("largest extent = %v, want 1", got)
	}
	if !vecNear(size, math3d.V3(1, 0.5, 1)) {
		t.Errorf("Size = %v, want proportions kept", size)
	}
}

func TestFitUnitCubeSinglePoint(t *testing.T) {
	mesh := NewMesh("point")
	mesh.Positions = []math3d.Vec4{math3d.V4(3, 4, 5, 1)}
	mesh.FitUnitCube()

	if got := mesh.Positions[0].Vec3(); !vecNear(got, math3d.Zero3()) {
		t.Errorf("position = %v, want origin", got)
	}
}

func BenchmarkCalculateSmoothNormals(b *testing.B) {
	mesh, err := ParseOBJ(strings.NewReader(cubeOBJ))
	if err != nil {
		b.Fatal(err)
	}
	for b.Loop() {
		mesh.CalculateSmoothNormals()
	}
}
