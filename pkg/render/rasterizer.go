package render

import (
	"fmt"
	"image"
	"math"

	"github.com/taigrr/modelviewer/pkg/math3d"
)

// Presenter shows a finished frame. End hands the framebuffer to it once
// every draw call of the frame has returned.
type Presenter interface {
	Present(fb *Framebuffer) error
}

// Rasterizer draws pixels, lines and triangles into a framebuffer.
//
// Two pixel write disciplines apply. The unclipped entry points (DrawPixel,
// DrawLine, DrawTriangle on integer points) require their input points to lie
// in the framebuffer and panic otherwise. Depth-tested and shaded primitives,
// and every span a fill produces, are clipped: pixels outside the active
// region are skipped silently.
//
// Depth-tested writes are safe for concurrent use: each pixel's compare,
// depth write and color write happen under the framebuffer's row lock.
type Rasterizer struct {
	fb        *Framebuffer
	clip      image.Rectangle // active region, always inside fb
	presenter Presenter
}

// NewRasterizer creates a rasterizer drawing into fb.
func NewRasterizer(fb *Framebuffer) *Rasterizer {
	return &Rasterizer{fb: fb, clip: fb.Bounds()}
}

// SetPresenter sets where End sends finished frames. nil disables
// presentation, which suits headless rendering.
func (r *Rasterizer) SetPresenter(p Presenter) {
	r.presenter = p
}

// Framebuffer returns the target framebuffer.
func (r *Rasterizer) Framebuffer() *Framebuffer {
	return r.fb
}

// Resize replaces the framebuffer with a new one of the given size. It must
// not be called while a frame is being drawn.
func (r *Rasterizer) Resize(width, height int) {
	r.fb = NewFramebuffer(width, height)
	r.clip = r.fb.Bounds()
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	return r.fb.Height
}

// Bounds returns the active region.
func (r *Rasterizer) Bounds() image.Rectangle {
	return r.clip
}

// Region returns a rasterizer sharing the framebuffer whose clipped writes
// are confined to rect. Tile workers each draw through their own region.
func (r *Rasterizer) Region(rect image.Rectangle) *Rasterizer {
	return &Rasterizer{
		fb:        r.fb,
		clip:      rect.Intersect(r.fb.Bounds()),
		presenter: r.presenter,
	}
}

// Begin starts a frame: the color buffer is filled with background and the
// depth buffer reset to +Inf.
func (r *Rasterizer) Begin(background Color) {
	r.fb.Clear(background)
}

// End finishes a frame and presents it.
func (r *Rasterizer) End() error {
	if r.presenter == nil {
		return nil
	}
	if err := r.presenter.Present(r.fb); err != nil {
		return fmt.Errorf("present frame: %w", err)
	}
	return nil
}

func (r *Rasterizer) inClip(x, y int) bool {
	return x >= r.clip.Min.X && x < r.clip.Max.X && y >= r.clip.Min.Y && y < r.clip.Max.Y
}

func (r *Rasterizer) mustContain(x, y int) {
	if !r.fb.InBounds(x, y) {
		panic(fmt.Sprintf("render: point (%d, %d) outside %dx%d framebuffer", x, y, r.fb.Width, r.fb.Height))
	}
}

// DrawPixel writes c at (x, y) without a depth test. The point must lie in
// the framebuffer.
func (r *Rasterizer) DrawPixel(x, y int, c Color) {
	r.mustContain(x, y)
	r.fb.rows[y].Lock()
	r.fb.Pixels[y*r.fb.Width+x] = c
	r.fb.rows[y].Unlock()
}

// plotClipped is the silent variant used by spans.
func (r *Rasterizer) plotClipped(x, y int, c Color) {
	if !r.inClip(x, y) {
		return
	}
	r.fb.rows[y].Lock()
	r.fb.Pixels[y*r.fb.Width+x] = c
	r.fb.rows[y].Unlock()
}

// DrawPixelZ writes c at (x, y) if z is in front of the camera (z > 0) and
// closer than the stored depth. Equal depth does not overwrite.
func (r *Rasterizer) DrawPixelZ(x, y int, z float64, c Color) {
	r.shadePixel(x, y, z, Flat(c), Fragment{})
}

// DrawPixelShaded is DrawPixelZ with the color computed by Phong from base,
// the surface normal and world position, and a specular factor.
func (r *Rasterizer) DrawPixelShaded(x, y int, z float64, base Color, normal, world math3d.Vec3, specular float64) {
	r.shadePixel(x, y, z, litPixel{base: base, specular: specular}, Fragment{World: world, Normal: normal})
}

func (r *Rasterizer) shadePixel(x, y int, z float64, s Shader, f Fragment) {
	if z <= 0 || !r.inClip(x, y) {
		return
	}
	r.fb.testAndSet(x, y, z, s, f)
}

// litPixel shades with Phong and a fixed specular factor.
type litPixel struct {
	base     Color
	specular float64
}

func (s litPixel) Shade(f Fragment) Color {
	return Phong(f.Normal, f.World, s.base, s.specular)
}

// dda walks from (x1, y1) to (x2, y2) in max(|dx|, |dy|) equal steps,
// visiting steps+1 points including both ends. t is the fraction travelled.
func dda(x1, y1, x2, y2 int, plot func(x, y int, t float64)) {
	dx, dy := x2-x1, y2-y1
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		plot(x1, y1, 0)
		return
	}
	n := float64(steps)
	for i := 0; i <= steps; i++ {
		// dx*i/steps keeps exact multiples exact so no step lands one pixel short.
		x := float64(x1) + float64(dx*i)/n
		y := float64(y1) + float64(dy*i)/n
		plot(int(math.Floor(x)), int(math.Floor(y)), float64(i)/n)
	}
}

// DrawLine draws a line with the DDA algorithm. Both ends must lie in the
// framebuffer.
func (r *Rasterizer) DrawLine(x1, y1, x2, y2 int, c Color) {
	r.mustContain(x1, y1)
	r.mustContain(x2, y2)
	dda(x1, y1, x2, y2, func(x, y int, _ float64) {
		r.DrawPixel(x, y, c)
	})
}

// DrawLineZ draws a depth-tested line between screen points whose Z carries
// depth. An end behind the camera (z < 0) is first pulled onto z = 0 along
// the segment; a line entirely behind draws nothing.
func (r *Rasterizer) DrawLineZ(a, b math3d.Vec3, c Color) {
	if a.Z <= 0 && b.Z <= 0 {
		return
	}
	switch {
	case a.Z < 0:
		a = a.Lerp(b, a.Z/(a.Z-b.Z))
		a.Z = 0
	case b.Z < 0:
		b = b.Lerp(a, b.Z/(b.Z-a.Z))
		b.Z = 0
	}
	dda(int(a.X), int(a.Y), int(b.X), int(b.Y), func(x, y int, t float64) {
		r.DrawPixelZ(x, y, a.Z+(b.Z-a.Z)*t, c)
	})
}

// DrawTriangle fills a 2D triangle without depth. The corners must lie in
// the framebuffer; the padded spans are clipped.
func (r *Rasterizer) DrawTriangle(a, b, c image.Point, col Color) {
	r.mustContain(a.X, a.Y)
	r.mustContain(b.X, b.Y)
	r.mustContain(c.X, c.Y)

	v := [3]scanVertex{flatVertex(a.X, a.Y, 0), flatVertex(b.X, b.Y, 0), flatVertex(c.X, c.Y, 0)}
	r.scanTriangle(v, func(x, y int, _ spanPoint) {
		r.plotClipped(x, y, col)
	})
}

// DrawTriangleZ fills a depth-tested triangle of one color. X and Y of each
// corner are pixel coordinates, Z is depth.
func (r *Rasterizer) DrawTriangleZ(a, b, c math3d.Vec3, col Color) {
	if a.Z <= 0 && b.Z <= 0 && c.Z <= 0 {
		return
	}
	v := [3]scanVertex{
		flatVertex(int(a.X), int(a.Y), a.Z),
		flatVertex(int(b.X), int(b.Y), b.Z),
		flatVertex(int(c.X), int(c.Y), c.Z),
	}
	r.scanTriangle(v, func(x, y int, p spanPoint) {
		r.shadePixel(x, y, p.z, Flat(col), Fragment{})
	})
}

// DrawTriangleShaded fills a depth-tested triangle, interpolating world
// position, normal and UV with perspective correction and coloring each
// pixel with s.
func (r *Rasterizer) DrawTriangleShaded(tri [3]Vertex, s Shader) {
	if tri[0].Position.Z <= 0 && tri[1].Position.Z <= 0 && tri[2].Position.Z <= 0 {
		return
	}
	var v [3]scanVertex
	for i, t := range tri {
		v[i] = perspectiveVertex(t)
	}
	r.scanTriangle(v, func(x, y int, p spanPoint) {
		if p.z <= 0 || !r.inClip(x, y) {
			return
		}
		r.fb.testAndSet(x, y, p.z, s, p.fragment())
	})
}

// DrawQuadrangle fills a depth-tested quad as triangles (a, b, c) and
// (a, c, d).
func (r *Rasterizer) DrawQuadrangle(a, b, c, d math3d.Vec3, col Color) {
	r.DrawTriangleZ(a, b, c, col)
	r.DrawTriangleZ(a, c, d, col)
}

// scanVertex is a triangle corner ready for the scanline walk: an integer
// screen position plus attributes premultiplied by 1/w.
type scanVertex struct {
	x, y int
	p    spanPoint
}

func flatVertex(x, y int, z float64) scanVertex {
	return scanVertex{x: x, y: y, p: spanPoint{x: float64(x), z: z, invW: 1}}
}

func perspectiveVertex(v Vertex) scanVertex {
	invW := 1.0
	if v.Position.W > 0 {
		invW = 1 / v.Position.W
	}
	x, y := int(v.Position.X), int(v.Position.Y)
	return scanVertex{
		x: x,
		y: y,
		p: spanPoint{
			x:      float64(x),
			z:      v.Position.Z,
			invW:   invW,
			world:  v.World.Scale(invW),
			normal: v.Normal.Scale(invW),
			uv:     v.UV.Scale(invW),
		},
	}
}

// spanPoint is an interpolated edge or span position. Depth is linear in
// screen space; the attributes are stored divided by w and invW tracks 1/w.
type spanPoint struct {
	x      float64
	z      float64
	invW   float64
	world  math3d.Vec3
	normal math3d.Vec3
	uv     math3d.Vec2
}

//nolint:st1016 // a,b naming convention is clearer for interpolation
func (a spanPoint) lerp(b spanPoint, t float64) spanPoint {
	return spanPoint{
		x:      a.x + (b.x-a.x)*t,
		z:      a.z + (b.z-a.z)*t,
		invW:   a.invW + (b.invW-a.invW)*t,
		world:  a.world.Lerp(b.world, t),
		normal: a.normal.Lerp(b.normal, t),
		uv:     a.uv.Lerp(b.uv, t),
	}
}

// fragment recovers the true attributes by dividing by the interpolated 1/w.
func (p spanPoint) fragment() Fragment {
	if p.invW == 0 {
		return Fragment{World: p.world, Normal: p.normal, UV: p.uv}
	}
	w := 1 / p.invW
	return Fragment{
		World:  p.world.Scale(w),
		Normal: p.normal.Scale(w),
		UV:     p.uv.Scale(w),
	}
}

// scanTriangle is the scanline fill shared by every triangle primitive.
// Corners are sorted by y and the triangle is split at the middle corner.
// Each row takes its long-edge end at alpha = (y-a.y)/totalHeight and its
// short-edge end at beta = (y-seg.y)/(segHeight+1), then fills the span with
// one pixel of padding on each side so shared edges leave no seams.
// Triangles with zero height draw nothing.
func (r *Rasterizer) scanTriangle(v [3]scanVertex, plot func(x, y int, p spanPoint)) {
	if v[0].y == v[1].y && v[1].y == v[2].y {
		return
	}
	if v[0].y > v[1].y {
		v[0], v[1] = v[1], v[0]
	}
	if v[1].y > v[2].y {
		v[1], v[2] = v[2], v[1]
	}
	if v[0].y > v[1].y {
		v[0], v[1] = v[1], v[0]
	}
	a, b, c := v[0], v[1], v[2]
	total := float64(c.y - a.y)

	r.scanSegment(a, b, a, c, total, plot)
	r.scanSegment(b, c, a, c, total, plot)
}

func (r *Rasterizer) scanSegment(from, to, longFrom, longTo scanVertex, total float64, plot func(x, y int, p spanPoint)) {
	segHeight := float64(to.y - from.y + 1)
	yMin := max(from.y, r.clip.Min.Y)
	yMax := min(to.y, r.clip.Max.Y-1)

	for y := yMin; y <= yMax; y++ {
		alpha := float64(y-longFrom.y) / total
		beta := float64(y-from.y) / segHeight

		left := longFrom.p.lerp(longTo.p, alpha)
		right := from.p.lerp(to.p, beta)
		if left.x > right.x {
			left, right = right, left
		}
		r.scanSpan(y, left, right, plot)
	}
}

func (r *Rasterizer) scanSpan(y int, left, right spanPoint, plot func(x, y int, p spanPoint)) {
	x0 := max(int(left.x-1), r.clip.Min.X)
	x1 := min(int(math.Ceil(right.x+2)), r.clip.Max.X)
	width := right.x - left.x

	for x := x0; x < x1; x++ {
		t := 0.0
		if width > 0 {
			t = clamp01((float64(x) - left.x) / width)
		}
		plot(x, y, left.lerp(right, t))
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
