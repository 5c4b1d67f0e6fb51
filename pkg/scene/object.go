// Package scene holds what gets drawn: objects with their transforms and
// texture maps, cameras, and the viewport. Scene.Render runs the vertex
// pipeline and Renderer.DrawFrame hands the result to the rasterizer.
package scene

import (
	"fmt"

	"github.com/taigrr/modelviewer/pkg/math3d"
	"github.com/taigrr/modelviewer/pkg/render"
)

// Index addresses one triangle corner: a position, a texture coordinate and
// a normal. Texture and Normal are -1 when the corner has none.
type Index struct {
	Vertex  int
	Texture int
	Normal  int
}

// Object is a triangle mesh placed in the world. Every three consecutive
// Indices form one triangle.
//
// Transform setters recompute the model and normal matrices immediately.
type Object struct {
	Vertices []math3d.Vec4
	Normals  []math3d.Vec3
	UVs      []math3d.Vec2
	Indices  []Index

	// Color is the base color of triangles without a per-face color or a
	// diffuse map.
	Color render.Color
	// FaceColors, when set, holds one color per triangle.
	FaceColors []render.Color

	Diffuse   *render.DiffuseMap
	NormalMap *render.NormalMap
	Specular  *render.SpecularMap

	translation math3d.Vec3
	rotation    math3d.Vec3 // radians around X, Y and Z
	scale       math3d.Vec3

	model  math3d.Mat4
	normal math3d.Mat3
	bounds render.AABB
}

// NewObject builds an object from its attribute arrays. It panics if the
// index count is not a multiple of three or an index points outside its
// array; both are loader bugs.
func NewObject(vertices []math3d.Vec4, normals []math3d.Vec3, uvs []math3d.Vec2, indices []Index) Object {
	if len(indices)%3 != 0 {
		panic(fmt.Sprintf("scene: %d indices do not form whole triangles", len(indices)))
	}
	for i, idx := range indices {
		if idx.Vertex < 0 || idx.Vertex >= len(vertices) {
			panic(fmt.Sprintf("scene: index %d: vertex %d out of range [0, %d)", i, idx.Vertex, len(vertices)))
		}
		if idx.Texture >= len(uvs) || idx.Texture < -1 {
			panic(fmt.Sprintf("scene: index %d: texture %d out of range [0, %d)", i, idx.Texture, len(uvs)))
		}
		if idx.Normal >= len(normals) || idx.Normal < -1 {
			panic(fmt.Sprintf("scene: index %d: normal %d out of range [0, %d)", i, idx.Normal, len(normals)))
		}
	}

	points := make([]math3d.Vec3, len(vertices))
	for i, v := range vertices {
		points[i] = v.Vec3()
	}

	o := Object{
		Vertices: vertices,
		Normals:  normals,
		UVs:      uvs,
		Indices:  indices,
		Color:    render.ColorWhite,
		scale:    math3d.V3(1, 1, 1),
		bounds:   render.BoundsOf(points),
	}
	o.update()
	return o
}

// update rebuilds the model matrix T·Rz·Ry·Rx·S and its normal matrix.
// Rotations with a zero angle are skipped.
func (o *Object) update() {
	m := math3d.Translate(o.translation)
	if o.rotation.Z != 0 {
		m = m.Mul(math3d.RotateZ(o.rotation.Z))
	}
	if o.rotation.Y != 0 {
		m = m.Mul(math3d.RotateY(o.rotation.Y))
	}
	if o.rotation.X != 0 {
		m = m.Mul(math3d.RotateX(o.rotation.X))
	}
	o.model = m.Mul(math3d.Scale(o.scale))

	inv, err := o.model.Mat3().Inverse()
	if err != nil {
		// A zero scale flattens the object; its normals no longer matter.
		o.normal = math3d.Identity3()
		return
	}
	o.normal = inv.Transpose()
}

// SetTranslation places the object at t.
func (o *Object) SetTranslation(t math3d.Vec3) {
	o.translation = t
	o.update()
}

// Translate moves the object by d.
func (o *Object) Translate(d math3d.Vec3) {
	o.translation = o.translation.Add(d)
	o.update()
}

// Translation returns the object position.
func (o *Object) Translation() math3d.Vec3 {
	return o.translation
}

// SetRotation sets the rotation angles around X, Y and Z in radians.
func (o *Object) SetRotation(angles math3d.Vec3) {
	o.rotation = angles
	o.update()
}

// Rotation returns the rotation angles around X, Y and Z.
func (o *Object) Rotation() math3d.Vec3 {
	return o.rotation
}

// RotateX turns the object by angle radians around the X axis.
func (o *Object) RotateX(angle float64) {
	o.rotation.X += angle
	o.update()
}

// RotateY turns the object by angle radians around the Y axis.
func (o *Object) RotateY(angle float64) {
	o.rotation.Y += angle
	o.update()
}

// RotateZ turns the object by angle radians around the Z axis.
func (o *Object) RotateZ(angle float64) {
	o.rotation.Z += angle
	o.update()
}

// SetScale sets the per-axis scale.
func (o *Object) SetScale(s math3d.Vec3) {
	o.scale = s
	o.update()
}

// Scale returns the per-axis scale.
func (o *Object) Scale() math3d.Vec3 {
	return o.scale
}

// ModelMatrix returns the object-to-world matrix.
func (o *Object) ModelMatrix() math3d.Mat4 {
	return o.model
}

// NormalMatrix returns the inverse transpose of the model matrix's upper
// 3x3, which keeps normals perpendicular under non-uniform scale.
func (o *Object) NormalMatrix() math3d.Mat3 {
	return o.normal
}

// WorldBounds returns the world-space box around the transformed mesh.
func (o *Object) WorldBounds() render.AABB {
	return o.bounds.Transform(o.model)
}

// TriangleCount returns the number of triangles.
func (o *Object) TriangleCount() int {
	return len(o.Indices) / 3
}

// SetFaceColors sets one color per triangle. It panics on a count mismatch.
func (o *Object) SetFaceColors(colors []render.Color) {
	if colors != nil && len(colors) != o.TriangleCount() {
		panic(fmt.Sprintf("scene: %d face colors for %d triangles", len(colors), o.TriangleCount()))
	}
	o.FaceColors = colors
}

// SetTextures attaches texture maps. Any of them may be nil.
func (o *Object) SetTextures(diffuse *render.DiffuseMap, normals *render.NormalMap, specular *render.SpecularMap) {
	o.Diffuse = diffuse
	o.NormalMap = normals
	o.Specular = specular
}

// faceColor returns the color of triangle i.
func (o *Object) faceColor(i int) render.Color {
	if o.FaceColors != nil {
		return o.FaceColors[i]
	}
	return o.Color
}

// material returns the object's maps with the current normal matrix, or nil
// when it has none.
func (o *Object) material() *render.Material {
	if o.Diffuse == nil && o.NormalMap == nil && o.Specular == nil {
		return nil
	}
	return &render.Material{
		Diffuse:      o.Diffuse,
		Normals:      o.NormalMap,
		Specular:     o.Specular,
		NormalMatrix: o.normal,
	}
}
