package render

import (
	"image"
	"iter"

	"github.com/taigrr/modelviewer/pkg/math3d"
)

// Vertex is a pipeline vertex after the viewport transform and the X/Y
// divide: Position.X and Position.Y are pixel coordinates, Position.Z is the
// raw depth (0 on the near plane, negative behind it) and Position.W the
// camera distance used for perspective-correct interpolation.
type Vertex struct {
	Position math3d.Vec4
	World    math3d.Vec3
	Normal   math3d.Vec3
	UV       math3d.Vec2
}

// Lerp interpolates every component linearly.
//
//nolint:st1016 // a,b naming convention is clearer for interpolation
func (a Vertex) Lerp(b Vertex, t float64) Vertex {
	return Vertex{
		Position: a.Position.Lerp(b.Position, t),
		World:    a.World.Lerp(b.World, t),
		Normal:   a.Normal.Lerp(b.Normal, t),
		UV:       a.UV.Lerp(b.UV, t),
	}
}

// homogeneous undoes the X/Y divide. In this form every component is affine
// in camera space, so straight-line interpolation is exact. A vertex on the
// eye plane (W = 0) was never divided and is returned as is.
func (a Vertex) homogeneous() math3d.Vec4 {
	p := a.Position
	if p.W == 0 {
		return p
	}
	return math3d.V4(p.X*p.W, p.Y*p.W, p.Z, p.W)
}

// lerpHomogeneous interpolates in camera space and divides again.
func (a Vertex) lerpHomogeneous(b Vertex, t float64) Vertex {
	v := a.Lerp(b, t)
	v.Position = a.homogeneous().Lerp(b.homogeneous(), t).DivideXY()
	return v
}

// lerpScreen interpolates by a screen-space parameter s: X, Y and Z move
// linearly on screen, W and the attributes follow the 1/W weighting.
func (a Vertex) lerpScreen(b Vertex, s float64) Vertex {
	wa, wb := a.Position.W, b.Position.W
	t := s
	if wa > 0 && wb > 0 {
		invW := (1-s)/wa + s/wb
		t = (s / wb) / invW
	}
	v := a.Lerp(b, t)
	v.Position.X = a.Position.X + (b.Position.X-a.Position.X)*s
	v.Position.Y = a.Position.Y + (b.Position.Y-a.Position.Y)*s
	v.Position.Z = a.Position.Z + (b.Position.Z-a.Position.Z)*s
	return v
}

// Cohen-Sutherland outcodes. Bottom and top follow the y-up naming of the
// algorithm: bottom is y below the rectangle's first row.
const (
	outInside = 0
	outLeft   = 1
	outRight  = 2
	outBottom = 4
	outTop    = 8
)

func outcode(rect image.Rectangle, x, y float64) int {
	code := outInside
	if x < float64(rect.Min.X) {
		code |= outLeft
	}
	if x >= float64(rect.Max.X) {
		code |= outRight
	}
	if y < float64(rect.Min.Y) {
		code |= outBottom
	}
	if y >= float64(rect.Max.Y) {
		code |= outTop
	}
	return code
}

// ClipLine clips the segment a-b to rect with Cohen-Sutherland. X and Y are
// pixel coordinates, Z is interpolated along. Points land on the inclusive
// edges Min and Max-1. The result is false when the segment lies entirely
// outside.
func ClipLine(rect image.Rectangle, a, b math3d.Vec3) (math3d.Vec3, math3d.Vec3, bool) {
	if rect.Empty() {
		return a, b, false
	}
	left, right := float64(rect.Min.X), float64(rect.Max.X-1)
	bottom, top := float64(rect.Min.Y), float64(rect.Max.Y-1)

	codeA := outcode(rect, a.X, a.Y)
	codeB := outcode(rect, b.X, b.Y)

	// Each pass removes one outside bit, so four passes per endpoint suffice.
	for range 8 {
		if codeA|codeB == 0 {
			return a, b, true
		}
		if codeA&codeB != 0 {
			return a, b, false
		}

		out := max(codeA, codeB)
		var t float64
		var p math3d.Vec3
		switch {
		case out&outTop != 0:
			t = (top - a.Y) / (b.Y - a.Y)
			p = a.Lerp(b, t)
			p.Y = top
		case out&outBottom != 0:
			t = (bottom - a.Y) / (b.Y - a.Y)
			p = a.Lerp(b, t)
			p.Y = bottom
		case out&outRight != 0:
			t = (right - a.X) / (b.X - a.X)
			p = a.Lerp(b, t)
			p.X = right
		default:
			t = (left - a.X) / (b.X - a.X)
			p = a.Lerp(b, t)
			p.X = left
		}

		if out == codeA {
			a = p
			codeA = outcode(rect, a.X, a.Y)
		} else {
			b = p
			codeB = outcode(rect, b.X, b.Y)
		}
	}
	return a, b, false
}

// maxPolygonVertices bounds a clipped triangle: the near plane adds at most
// one vertex and each of the four viewport edges at most one more.
const maxPolygonVertices = 9

// Polygon is a convex clipping result with up to nine vertices.
type Polygon struct {
	V [maxPolygonVertices]Vertex
	N int
}

func (p *Polygon) add(v Vertex) {
	if p.N == len(p.V) {
		return
	}
	p.V[p.N] = v
	p.N++
}

// Triangles fans the polygon around its first vertex.
func (p Polygon) Triangles() iter.Seq[[3]Vertex] {
	return func(yield func([3]Vertex) bool) {
		for i := 1; i+1 < p.N; i++ {
			if !yield([3]Vertex{p.V[0], p.V[i], p.V[i+1]}) {
				return
			}
		}
	}
}

// Bounds returns the integer pixel box covering the polygon.
func (p Polygon) Bounds() image.Rectangle {
	if p.N == 0 {
		return image.Rectangle{}
	}
	minX, minY := p.V[0].Position.X, p.V[0].Position.Y
	maxX, maxY := minX, minY
	for _, v := range p.V[1:p.N] {
		minX, maxX = min(minX, v.Position.X), max(maxX, v.Position.X)
		minY, maxY = min(minY, v.Position.Y), max(maxY, v.Position.Y)
	}
	return image.Rect(int(minX), int(minY), int(maxX)+1, int(maxY)+1)
}

// ClipTriangle clips tri against the near plane (z = 0) and then against the
// four edges of rect with Sutherland-Hodgman. Near-plane crossings are found
// in camera space, edge crossings on screen with perspective-correct
// attributes. The result is false when nothing of the triangle remains.
func ClipTriangle(rect image.Rectangle, tri [3]Vertex) (Polygon, bool) {
	if tri[0].Position.Z <= 0 && tri[1].Position.Z <= 0 && tri[2].Position.Z <= 0 {
		return Polygon{}, false
	}

	var poly Polygon
	for _, v := range tri {
		poly.add(v)
	}

	if tri[0].Position.Z < 0 || tri[1].Position.Z < 0 || tri[2].Position.Z < 0 {
		poly = clipEdge(poly, clipPlane{
			dist: func(v Vertex) float64 { return v.Position.Z },
			snap: func(v *Vertex) { v.Position.Z = 0 },
		}, Vertex.lerpHomogeneous)
	}

	left, right := float64(rect.Min.X), float64(rect.Max.X-1)
	bottom, top := float64(rect.Min.Y), float64(rect.Max.Y-1)

	planes := [...]clipPlane{
		{
			dist: func(v Vertex) float64 { return v.Position.X - left },
			snap: func(v *Vertex) { v.Position.X = left },
		},
		{
			dist: func(v Vertex) float64 { return right - v.Position.X },
			snap: func(v *Vertex) { v.Position.X = right },
		},
		{
			dist: func(v Vertex) float64 { return v.Position.Y - bottom },
			snap: func(v *Vertex) { v.Position.Y = bottom },
		},
		{
			dist: func(v Vertex) float64 { return top - v.Position.Y },
			snap: func(v *Vertex) { v.Position.Y = top },
		},
	}
	for _, plane := range planes {
		if poly.N < 3 {
			return Polygon{}, false
		}
		poly = clipEdge(poly, plane, Vertex.lerpScreen)
	}

	if poly.N < 3 {
		return Polygon{}, false
	}
	return poly, true
}

// clipPlane is one clipping boundary. dist is positive on the kept side and
// snap places a crossing exactly on the boundary.
type clipPlane struct {
	dist func(Vertex) float64
	snap func(*Vertex)
}

// clipEdge is one Sutherland-Hodgman pass keeping the side where dist >= 0.
func clipEdge(in Polygon, plane clipPlane, lerp func(Vertex, Vertex, float64) Vertex) Polygon {
	var out Polygon
	for i := range in.N {
		cur := in.V[i]
		next := in.V[(i+1)%in.N]
		dc, dn := plane.dist(cur), plane.dist(next)

		if dc >= 0 {
			out.add(cur)
		}
		if (dc >= 0) != (dn >= 0) {
			v := lerp(cur, next, dc/(dc-dn))
			plane.snap(&v)
			out.add(v)
		}
	}
	return out
}

// clipNear cuts the segment a-b at z = 0, keeping the part in front.
// The result is false when both ends are behind.
func clipNear(a, b Vertex) (Vertex, Vertex, bool) {
	za, zb := a.Position.Z, b.Position.Z
	switch {
	case za < 0 && zb < 0:
		return a, b, false
	case za < 0:
		a = a.lerpHomogeneous(b, za/(za-zb))
		a.Position.Z = 0
	case zb < 0:
		b = b.lerpHomogeneous(a, zb/(zb-za))
		b.Position.Z = 0
	}
	return a, b, true
}
