package scene

import (
	"image"

	"github.com/taigrr/modelviewer/pkg/math3d"
)

// Viewport is the screen rectangle a scene is drawn into.
type Viewport struct {
	x, y          int
	width, height int

	matrix Cached[math3d.Mat4]
}

// NewViewport creates a viewport anchored at (x, y).
func NewViewport(x, y, width, height int) Viewport {
	return Viewport{x: x, y: y, width: width, height: height}
}

// SetDimensions resizes the viewport.
func (v *Viewport) SetDimensions(width, height int) {
	if width == v.width && height == v.height {
		return
	}
	v.width, v.height = width, height
	v.matrix.Invalidate()
}

// Move changes the anchor.
func (v *Viewport) Move(x, y int) {
	if x == v.x && y == v.y {
		return
	}
	v.x, v.y = x, y
	v.matrix.Invalidate()
}

// Width returns the width in pixels.
func (v *Viewport) Width() int { return v.width }

// Height returns the height in pixels.
func (v *Viewport) Height() int { return v.height }

// Rect returns the covered pixel rectangle.
func (v *Viewport) Rect() image.Rectangle {
	return image.Rect(v.x, v.y, v.x+v.width, v.y+v.height)
}

// AspectRatio returns width over height, or 1 for an empty viewport.
func (v *Viewport) AspectRatio() float64 {
	if v.height == 0 {
		return 1
	}
	return float64(v.width) / float64(v.height)
}

// Matrix returns the matrix mapping normalized device coordinates to pixels.
func (v *Viewport) Matrix() math3d.Mat4 {
	m, _ := v.matrix.Get(func() (math3d.Mat4, error) {
		return math3d.Viewport(float64(v.x), float64(v.y), float64(v.width), float64(v.height)), nil
	})
	return m
}
