package scene

import (
	"github.com/taigrr/modelviewer/pkg/math3d"
)

// Camera is a look-at camera with a perspective projection.
//
// The view and projection matrices are cached separately: moving the camera
// only invalidates the view, and changing the lens only the projection.
type Camera struct {
	position math3d.Vec3
	target   math3d.Vec3
	up       math3d.Vec3

	fov    float64 // vertical, radians
	aspect float64
	near   float64
	far    float64

	view Cached[math3d.Mat4]
	proj Cached[math3d.Mat4]
}

// NewCamera creates a camera at position looking at target with +Y up.
// fov is the vertical field of view in radians.
func NewCamera(position, target math3d.Vec3, fov, aspect, near, far float64) Camera {
	return Camera{
		position: position,
		target:   target,
		up:       math3d.Up(),
		fov:      fov,
		aspect:   aspect,
		near:     near,
		far:      far,
	}
}

// Position returns the eye position.
func (c *Camera) Position() math3d.Vec3 { return c.position }

// Target returns the point the camera looks at.
func (c *Camera) Target() math3d.Vec3 { return c.target }

// UpVector returns the up hint.
func (c *Camera) UpVector() math3d.Vec3 { return c.up }

// FOV returns the vertical field of view in radians.
func (c *Camera) FOV() float64 { return c.fov }

// AspectRatio returns width over height.
func (c *Camera) AspectRatio() float64 { return c.aspect }

// ClipPlanes returns the near and far distances.
func (c *Camera) ClipPlanes() (near, far float64) { return c.near, c.far }

// SetPosition moves the eye.
func (c *Camera) SetPosition(p math3d.Vec3) {
	c.position = p
	c.view.Invalidate()
}

// SetTarget changes the point the camera looks at.
func (c *Camera) SetTarget(t math3d.Vec3) {
	c.target = t
	c.view.Invalidate()
}

// SetUpVector changes the up hint. It need not be unit length.
func (c *Camera) SetUpVector(up math3d.Vec3) {
	c.up = up
	c.view.Invalidate()
}

// SetFOV sets the vertical field of view in radians.
func (c *Camera) SetFOV(fov float64) {
	c.fov = fov
	c.proj.Invalidate()
}

// SetAspectRatio sets width over height.
func (c *Camera) SetAspectRatio(aspect float64) {
	c.aspect = aspect
	c.proj.Invalidate()
}

// SetClipPlanes sets the near and far distances.
func (c *Camera) SetClipPlanes(near, far float64) {
	c.near, c.far = near, far
	c.proj.Invalidate()
}

// Distance returns how far the eye is from the target.
func (c *Camera) Distance() float64 {
	return c.position.Distance(c.target)
}

// ZoomIn moves the eye amount units toward the target. It stops at the near
// distance so the target never leaves the view volume.
func (c *Camera) ZoomIn(amount float64) {
	c.SetDistance(c.Distance() - amount)
}

// ZoomOut moves the eye amount units away from the target.
func (c *Camera) ZoomOut(amount float64) {
	c.SetDistance(c.Distance() + amount)
}

// SetDistance places the eye d units from the target along the current view
// direction, but no closer than the near plane.
func (c *Camera) SetDistance(d float64) {
	dir := c.position.Sub(c.target)
	if dir.LenSq() == 0 {
		return
	}
	d = max(d, c.near)
	c.SetPosition(c.target.Add(dir.Normalize().Scale(d)))
}

// ViewMatrix returns the look-at matrix. It fails with
// math3d.ErrDegenerateMatrix when the eye sits on the target or looks
// along the up vector.
func (c *Camera) ViewMatrix() (math3d.Mat4, error) {
	return c.view.Get(func() (math3d.Mat4, error) {
		return math3d.LookAt(c.position, c.target, c.up)
	})
}

// ProjectionMatrix returns the perspective matrix.
func (c *Camera) ProjectionMatrix() math3d.Mat4 {
	m, _ := c.proj.Get(func() (math3d.Mat4, error) {
		return math3d.Perspective(c.fov, c.aspect, c.near, c.far), nil
	})
	return m
}

// ViewProjection returns projection·view.
func (c *Camera) ViewProjection() (math3d.Mat4, error) {
	view, err := c.ViewMatrix()
	if err != nil {
		return math3d.Mat4{}, err
	}
	return c.ProjectionMatrix().Mul(view), nil
}
