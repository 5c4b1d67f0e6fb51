package render

import (
	"image/color"
	"math"

	"github.com/taigrr/modelviewer/pkg/math3d"
)

// Color is an alias for color.RGBA for convenience.
type Color = color.RGBA

// Colors for convenience
var (
	ColorBlack = color.RGBA{0, 0, 0, 255}
	ColorWhite = color.RGBA{255, 255, 255, 255}
	ColorRed   = color.RGBA{255, 0, 0, 255}
	ColorGreen = color.RGBA{0, 255, 0, 255}
	ColorBlue  = color.RGBA{0, 0, 255, 255}
	ColorGray  = color.RGBA{128, 128, 128, 255}
)

// RGB creates an opaque color from RGB values.
func RGB(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b, A: 255}
}

// ClampChannel bounds a float channel value to [0, 255] and truncates it.
// NaN maps to 0.
func ClampChannel(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// ColorFromVec3 converts float channels in [0, 255] to an opaque color,
// clamping each channel once.
func ColorFromVec3(v math3d.Vec3) Color {
	return Color{R: ClampChannel(v.X), G: ClampChannel(v.Y), B: ClampChannel(v.Z), A: 255}
}

// Vec3FromColor widens the RGB channels of c to floats in [0, 255].
func Vec3FromColor(c Color) math3d.Vec3 {
	return math3d.V3(float64(c.R), float64(c.G), float64(c.B))
}
