package render

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder

	"github.com/taigrr/modelviewer/pkg/math3d"
)

// Texture is a row-major grid of texels sampled by normalized UV with fixed,
// non-wrapping addressing. V grows downward with image rows.
type Texture[T any] struct {
	Width  int
	Height int
	Texels []T
}

// DiffuseMap stores a surface color per texel.
type DiffuseMap = Texture[Color]

// NormalMap stores a decoded direction per texel, each channel mapped from
// [0,255] to [-1,1].
type NormalMap = Texture[math3d.Vec3]

// SpecularMap stores a reflectance in [0,1] per texel.
type SpecularMap = Texture[float64]

// NewTexture creates a zero-filled texture with the given dimensions.
func NewTexture[T any](width, height int) *Texture[T] {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("render: invalid texture size %dx%d", width, height))
	}
	return &Texture[T]{
		Width:  width,
		Height: height,
		Texels: make([]T, width*height),
	}
}

// Set stores a texel. Out-of-bounds writes are ignored.
func (t *Texture[T]) Set(x, y int, v T) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Texels[y*t.Width+x] = v
}

// At returns the texel at (x, y). Coordinates must be in bounds.
func (t *Texture[T]) At(x, y int) T {
	return t.Texels[y*t.Width+x]
}

// Sample returns the texel addressed by (u, v). Both coordinates must lie in
// [0,1]; anything else is a caller bug and panics. u or v of exactly 1 maps
// to the last column or row.
func (t *Texture[T]) Sample(u, v float64) T {
	if !(u >= 0 && u <= 1 && v >= 0 && v <= 1) {
		panic(fmt.Sprintf("render: texture sampled outside [0,1]: (%v, %v)", u, v))
	}
	x := min(int(u*float64(t.Width)), t.Width-1)
	y := min(int(v*float64(t.Height)), t.Height-1)
	return t.Texels[y*t.Width+x]
}

// textureFromImage converts every pixel of img with decode.
func textureFromImage[T any](img image.Image, decode func(Color) T) *Texture[T] {
	bounds := img.Bounds()
	tex := NewTexture[T](bounds.Dx(), bounds.Dy())

	for y := range tex.Height {
		for x := range tex.Width {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit values, scale to 8-bit
			c := Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
			tex.Texels[y*tex.Width+x] = decode(c)
		}
	}
	return tex
}

func decodeImage(r io.Reader) (image.Image, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode texture: %w", err)
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("decode texture: empty %s image", format)
	}
	return img, nil
}

// DiffuseMapFromImage builds a diffuse map from the RGB channels of img.
func DiffuseMapFromImage(img image.Image) *DiffuseMap {
	return textureFromImage(img, func(c Color) Color {
		return RGB(c.R, c.G, c.B)
	})
}

// NormalMapFromImage decodes each channel of img as c/255*2-1.
func NormalMapFromImage(img image.Image) *NormalMap {
	return textureFromImage(img, func(c Color) math3d.Vec3 {
		return Vec3FromColor(c).Div(255).Scale(2).Sub(math3d.V3(1, 1, 1))
	})
}

// SpecularMapFromImage decodes the red channel of img as c/255.
func SpecularMapFromImage(img image.Image) *SpecularMap {
	return textureFromImage(img, func(c Color) float64 {
		return float64(c.R) / 255
	})
}

// DecodeDiffuseMap reads a PNG, JPEG, GIF, BMP or TIFF image as a diffuse map.
func DecodeDiffuseMap(r io.Reader) (*DiffuseMap, error) {
	img, err := decodeImage(r)
	if err != nil {
		return nil, err
	}
	return DiffuseMapFromImage(img), nil
}

// DecodeNormalMap reads an image as a normal map.
func DecodeNormalMap(r io.Reader) (*NormalMap, error) {
	img, err := decodeImage(r)
	if err != nil {
		return nil, err
	}
	return NormalMapFromImage(img), nil
}

// DecodeSpecularMap reads an image as a specular map.
func DecodeSpecularMap(r io.Reader) (*SpecularMap, error) {
	img, err := decodeImage(r)
	if err != nil {
		return nil, err
	}
	return SpecularMapFromImage(img), nil
}

// NewCheckerTexture creates a procedural checkerboard diffuse map.
func NewCheckerTexture(width, height, checkSize int, c1, c2 Color) *DiffuseMap {
	tex := NewTexture[Color](width, height)
	for y := range height {
		for x := range width {
			if (x/checkSize+y/checkSize)%2 == 0 {
				tex.Set(x, y, c1)
			} else {
				tex.Set(x, y, c2)
			}
		}
	}
	return tex
}
