// Package models loads 3D models from OBJ and glTF files into a Mesh, the
// flat attribute arrays and resolved corner indices a scene object is built
// from.
package models

import (
	"image"

	"github.com/taigrr/modelviewer/pkg/math3d"
	"github.com/taigrr/modelviewer/pkg/render"
	"github.com/taigrr/modelviewer/pkg/scene"
)

// Mesh is a parsed triangle mesh. Every three consecutive Indices form a
// triangle; corners without a texture coordinate or normal use -1.
type Mesh struct {
	Name      string
	Positions []math3d.Vec4
	Normals   []math3d.Vec3
	UVs       []math3d.Vec2
	Indices   []scene.Index

	// Materials and FaceMaterials are set by the glTF loader. FaceMaterials
	// holds one index into Materials per triangle, -1 for none.
	Materials     []Material
	FaceMaterials []int

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// Material is the part of a glTF PBR material the rasterizer can show.
type Material struct {
	Name       string
	BaseColor  [4]float64  // RGBA in 0-1 range
	BaseMap    image.Image // Optional base color texture
	HasTexture bool
}

// Color returns the base color as an opaque render color.
func (m Material) Color() render.Color {
	return render.RGB(
		render.ClampChannel(m.BaseColor[0]*255),
		render.ClampChannel(m.BaseColor[1]*255),
		render.ClampChannel(m.BaseColor[2]*255),
	)
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Positions) == 0 {
		return
	}

	m.BoundsMin = m.Positions[0].Vec3()
	m.BoundsMax = m.BoundsMin

	for _, v := range m.Positions[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Vec3())
		m.BoundsMax = m.BoundsMax.Max(v.Vec3())
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// VertexCount returns the number of positions.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// HasNormals reports whether every corner references a normal.
func (m *Mesh) HasNormals() bool {
	if len(m.Normals) == 0 {
		return false
	}
	for _, idx := range m.Indices {
		if idx.Normal < 0 {
			return false
		}
	}
	return true
}

func (m *Mesh) triangle(i int) [3]math3d.Vec3 {
	idx := m.Indices[i*3 : i*3+3]
	return [3]math3d.Vec3{
		m.Positions[idx[0].Vertex].Vec3(),
		m.Positions[idx[1].Vertex].Vec3(),
		m.Positions[idx[2].Vertex].Vec3(),
	}
}

// CalculateNormals replaces the normals with one face normal per triangle.
func (m *Mesh) CalculateNormals() {
	m.Normals = make([]math3d.Vec3, m.TriangleCount())
	for i := range m.TriangleCount() {
		m.Normals[i] = render.TriangleNormal(m.triangle(i))
		for k := range 3 {
			m.Indices[i*3+k].Normal = i
		}
	}
}

// CalculateSmoothNormals replaces the normals with one normal per position,
// the area-weighted average of the faces sharing it.
func (m *Mesh) CalculateSmoothNormals() {
	m.Normals = make([]math3d.Vec3, len(m.Positions))

	for i := range m.TriangleCount() {
		tri := m.triangle(i)
		// Unnormalized, so larger faces weigh more.
		n := tri[1].Sub(tri[0]).Cross(tri[2].Sub(tri[0]))
		for k := range 3 {
			v := m.Indices[i*3+k].Vertex
			m.Normals[v] = m.Normals[v].Add(n)
		}
	}

	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalize()
	}
	for i := range m.Indices {
		m.Indices[i].Normal = m.Indices[i].Vertex
	}
}

// Transform applies a transformation matrix to all positions and normals.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i, p := range m.Positions {
		m.Positions[i] = mat.MulVec4(p)
	}
	normal := math3d.Identity3()
	if inv, err := mat.Mat3().Inverse(); err == nil {
		normal = inv.Transpose()
	}
	for i, n := range m.Normals {
		m.Normals[i] = normal.MulVec3(n).Normalize()
	}
	m.CalculateBounds()
}

// FitUnitCube centers the mesh on the origin and scales it uniformly so its
// largest extent is 1.
func (m *Mesh) FitUnitCube() {
	m.CalculateBounds()
	size := m.Size()
	extent := max(size.X, size.Y, size.Z)
	if extent == 0 {
		extent = 1
	}
	s := 1 / extent
	center := m.Center()
	m.Transform(math3d.Scale(math3d.V3(s, s, s)).Mul(math3d.Translate(center.Negate())))
}

// FaceColors returns one color per triangle from the face materials, or nil
// when the mesh has none.
func (m *Mesh) FaceColors() []render.Color {
	if len(m.Materials) == 0 || len(m.FaceMaterials) != m.TriangleCount() {
		return nil
	}
	colors := make([]render.Color, len(m.FaceMaterials))
	for i, mat := range m.FaceMaterials {
		colors[i] = render.ColorWhite
		if mat >= 0 && mat < len(m.Materials) {
			colors[i] = m.Materials[mat].Color()
		}
	}
	return colors
}

// BaseMap returns the first material texture, or nil.
func (m *Mesh) BaseMap() image.Image {
	for _, mat := range m.Materials {
		if mat.HasTexture {
			return mat.BaseMap
		}
	}
	return nil
}

// Object builds a scene object from the mesh, with per-face colors from its
// materials and a diffuse map from its first texture.
func (m *Mesh) Object() scene.Object {
	o := scene.NewObject(m.Positions, m.Normals, m.UVs, m.Indices)
	if colors := m.FaceColors(); colors != nil {
		o.SetFaceColors(colors)
	}
	if img := m.BaseMap(); img != nil && len(m.UVs) > 0 {
		o.Diffuse = render.DiffuseMapFromImage(img)
	}
	return o
}
