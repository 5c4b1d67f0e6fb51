package render

import (
	"github.com/taigrr/modelviewer/pkg/math3d"
)

// Plane represents a plane in 3D space using the equation: Normal·P + D = 0.
// Points with positive distance are on the inside.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize scales the plane so Normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// Distance returns the signed distance from the plane to point.
func (p Plane) Distance(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum holds the six planes bounding what a camera can see.
type Frustum struct {
	Planes [6]Plane
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
	FrustumFar
)

// NewFrustum extracts the world-space frustum planes of a projection·view
// matrix (Gribb-Hartmann). Clip-space depth here runs from 0 at the near
// plane to w at the far plane, so near is the z row itself and far is
// w minus z.
func NewFrustum(m math3d.Mat4) Frustum {
	row := func(i int) (math3d.Vec3, float64) {
		return math3d.V3(m[i], m[i+4], m[i+8]), m[i+12]
	}
	r0, d0 := row(0)
	r1, d1 := row(1)
	r2, d2 := row(2)
	r3, d3 := row(3)

	var f Frustum
	f.Planes[FrustumLeft] = Plane{Normal: r3.Add(r0), D: d3 + d0}
	f.Planes[FrustumRight] = Plane{Normal: r3.Sub(r0), D: d3 - d0}
	f.Planes[FrustumBottom] = Plane{Normal: r3.Add(r1), D: d3 + d1}
	f.Planes[FrustumTop] = Plane{Normal: r3.Sub(r1), D: d3 - d1}
	f.Planes[FrustumNear] = Plane{Normal: r2, D: d2}
	f.Planes[FrustumFar] = Plane{Normal: r3.Sub(r2), D: d3 - d2}

	for i := range f.Planes {
		f.Planes[i].Normalize()
	}
	return f
}

// IntersectsAABB reports whether any part of box may be inside the frustum.
// It tests the corner farthest along each plane normal, which can keep a
// box near a frustum corner that is really outside, but never drops a
// visible one.
func (f Frustum) IntersectsAABB(box AABB) bool {
	for _, plane := range f.Planes {
		p := math3d.V3(
			selectComponent(plane.Normal.X >= 0, box.Max.X, box.Min.X),
			selectComponent(plane.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			selectComponent(plane.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)
		if plane.Distance(p) < 0 {
			return false
		}
	}
	return true
}

func selectComponent(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// BoundsOf returns the box enclosing points. It is the zero box for no points.
func BoundsOf(points []math3d.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box.Min = box.Min.Min(p)
		box.Max = box.Max.Max(p)
	}
	return box
}

// Center returns the center point of the box.
func (b AABB) Center() math3d.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the dimensions of the box.
func (b AABB) Size() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// Transform returns the box enclosing all eight corners of b after m.
func (b AABB) Transform(m math3d.Mat4) AABB {
	corners := [8]math3d.Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}

	first := m.MulVec3(corners[0])
	out := AABB{Min: first, Max: first}
	for _, c := range corners[1:] {
		t := m.MulVec3(c)
		out.Min = out.Min.Min(t)
		out.Max = out.Max.Max(t)
	}
	return out
}
