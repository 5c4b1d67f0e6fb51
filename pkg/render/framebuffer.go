// Package render is the software rasterizer: a color and depth framebuffer,
// clipped and unclipped draw primitives, clipping, texture maps, lighting and
// terminal presentation.
package render

import (
	"fmt"
	"image"
	"image/png"
	"math"
	"os"
	"sync"
)

// Framebuffer is a dense grid of color cells with a parallel depth array of
// the same shape. It can be drawn to the terminal, where one cell row holds
// two pixel rows using half-block characters (▀).
type Framebuffer struct {
	Width  int       // Width in pixels (same as terminal columns)
	Height int       // Height in pixels (2x terminal rows due to half-blocks)
	Pixels []Color   // Row-major pixel data
	Depth  []float64 // Row-major depth, +Inf after Clear

	// rows serializes depth-tested writes per scanline so that compare,
	// depth write and color write happen as one step.
	rows []sync.Mutex
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
// Height should be 2x the desired terminal rows for half-block rendering.
func NewFramebuffer(width, height int) *Framebuffer {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("render: negative framebuffer size %dx%d", width, height))
	}
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
		Depth:  make([]float64, width*height),
		rows:   make([]sync.Mutex, height),
	}
}

// Bounds returns the framebuffer rectangle anchored at the origin.
func (fb *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.Width, fb.Height)
}

// Clear fills the color buffer with c and resets every depth cell to +Inf.
func (fb *Framebuffer) Clear(c Color) {
	n := len(fb.Pixels)
	if n == 0 {
		return
	}
	// Copy-doubling is faster than a per-cell loop on large buffers.
	fb.Pixels[0] = c
	fb.Depth[0] = math.Inf(1)
	for i := 1; i < n; i *= 2 {
		copy(fb.Pixels[i:], fb.Pixels[:i])
		copy(fb.Depth[i:], fb.Depth[:i])
	}
}

// InBounds reports whether (x, y) addresses a framebuffer cell.
func (fb *Framebuffer) InBounds(x, y int) bool {
	return x >= 0 && x < fb.Width && y >= 0 && y < fb.Height
}

// SetPixel sets a pixel at (x, y) to the given color.
// Out-of-bounds writes are ignored.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if !fb.InBounds(x, y) {
		return
	}
	fb.rows[y].Lock()
	fb.Pixels[y*fb.Width+x] = c
	fb.rows[y].Unlock()
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) Color {
	if !fb.InBounds(x, y) {
		return Color{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// DepthAt returns the depth stored at (x, y), or +Inf out of bounds.
func (fb *Framebuffer) DepthAt(x, y int) float64 {
	if !fb.InBounds(x, y) {
		return math.Inf(1)
	}
	return fb.Depth[y*fb.Width+x]
}

// testAndSet runs the depth test at an in-bounds cell and, when z is
// closer than the stored depth, stores z and the color s produces for f.
// The shader only runs for pixels that pass.
func (fb *Framebuffer) testAndSet(x, y int, z float64, s Shader, f Fragment) bool {
	i := y*fb.Width + x
	mu := &fb.rows[y]
	mu.Lock()
	defer mu.Unlock()
	if fb.Depth[i] <= z {
		return false
	}
	fb.Depth[i] = z
	fb.Pixels[i] = s.Shade(f)
	return true
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(fb.Bounds())
	for y := range fb.Height {
		for x := range fb.Width {
			img.SetRGBA(x, y, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := png.Encode(f, fb.ToImage()); err != nil {
		f.Close()
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return f.Close()
}
