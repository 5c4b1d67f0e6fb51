package render

import (
	"math"
	"testing"

	"github.com/taigrr/modelviewer/pkg/math3d"
)

var ccwTriangle = [3]math3d.Vec3{
	math3d.V3(0, 0, 0),
	math3d.V3(1, 0, 0),
	math3d.V3(0, 1, 0),
}

func reversed(tri [3]math3d.Vec3) [3]math3d.Vec3 {
	return [3]math3d.Vec3{tri[0], tri[2], tri[1]}
}

func TestTriangleNormal(t *testing.T) {
	if n := TriangleNormal(ccwTriangle); !vecNear(n, math3d.V3(0, 0, 1)) {
		t.Errorf("normal = %v, want +Z", n)
	}
	if n := TriangleNormal(reversed(ccwTriangle)); !vecNear(n, math3d.V3(0, 0, -1)) {
		t.Errorf("reversed normal = %v, want -Z", n)
	}
	line := [3]math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 1, 1), math3d.V3(2, 2, 2)}
	if n := TriangleNormal(line); n.LenSq() != 0 {
		t.Errorf("degenerate normal = %v, want zero", n)
	}
}

func TestFacesCamera(t *testing.T) {
	tests := []struct {
		name string
		tri  [3]math3d.Vec3
		eye  math3d.Vec3
		want bool
	}{
		{"front", ccwTriangle, math3d.V3(0, 0, 3), true},
		{"back", reversed(ccwTriangle), math3d.V3(0, 0, 3), false},
		{"viewed from behind", ccwTriangle, math3d.V3(0, 0, -3), false},
		{"degenerate", [3]math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(2, 0, 0)}, math3d.V3(0, 0, 3), false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FacesCamera(tc.tri, tc.eye); got != tc.want {
				t.Errorf("FacesCamera = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestLambert(t *testing.T) {
	lit := Lambert(ColorWhite, ccwTriangle)
	if lit.R == 0 || lit.R != lit.G || lit.G != lit.B {
		t.Errorf("lit white triangle = %v, want equal nonzero channels", lit)
	}

	if dark := Lambert(ColorWhite, reversed(ccwTriangle)); dark != ColorBlack {
		t.Errorf("triangle facing away = %v, want black", dark)
	}

	red := Lambert(ColorRed, ccwTriangle)
	if red.G != 0 || red.B != 0 || red.R != lit.R {
		t.Errorf("red triangle = %v, want only the red channel lit like white", red)
	}

	// Right under the light every corner saturates; the sum is clamped once.
	near := [3]math3d.Vec3{
		math3d.V3(0, 1.9, 2.9),
		math3d.V3(0.1, 1.9, 2.9),
		math3d.V3(0, 2.0, 2.9),
	}
	if got := Lambert(ColorWhite, near); got != ColorWhite {
		t.Errorf("saturated triangle = %v, want white", got)
	}
}

func TestPhong(t *testing.T) {
	lightDir := math3d.V3(1, 1, 2).Normalize()
	world := math3d.V3(0, 0, 0)

	facing := Phong(lightDir, world, ColorWhite, 1)
	away := Phong(lightDir.Negate(), world, ColorWhite, 1)
	if facing.R <= away.R {
		t.Errorf("facing the light %v is not brighter than facing away %v", facing, away)
	}

	// Facing away leaves the emissive and ambient terms: 0.1*255 + 0.2*255.
	if want := RGB(76, 76, 76); away != want {
		t.Errorf("unlit side = %v, want %v", away, want)
	}
	if zero := Phong(math3d.Vec3{}, world, ColorWhite, 1); zero != away {
		t.Errorf("zero normal = %v, want ambient %v", zero, away)
	}

	dull := Phong(lightDir, world, ColorWhite, 0)
	if dull.R > facing.R {
		t.Errorf("no specular %v brighter than full specular %v", dull, facing)
	}

	dark := Phong(lightDir, world, ColorBlack, 0)
	if dark.R >= dull.R {
		t.Errorf("black base %v not darker than white base %v", dark, dull)
	}
}

func TestPhongShaderMaps(t *testing.T) {
	normal := math3d.V3(1, 1, 2).Normalize()
	f := Fragment{World: math3d.V3(0, 0, 0), Normal: normal, UV: math3d.V2(0.5, 0.5)}

	plain := PhongShader{Base: ColorWhite}.Shade(f)
	if want := Phong(normal, f.World, ColorWhite, 1); plain != want {
		t.Errorf("no material = %v, want %v", plain, want)
	}

	spec := NewTexture[float64](1, 1)
	mat := &Material{Specular: spec, NormalMatrix: math3d.Identity3()}
	if got, want := (PhongShader{Material: mat, Base: ColorWhite}).Shade(f), Phong(normal, f.World, ColorWhite, 0); got != want {
		t.Errorf("zero specular map = %v, want %v", got, want)
	}

	normals := NewTexture[math3d.Vec3](1, 1)
	normals.Set(0, 0, normal.Negate())
	mat = &Material{Normals: normals, NormalMatrix: math3d.Identity3()}
	if got, want := (PhongShader{Material: mat, Base: ColorWhite}).Shade(f), Phong(normal.Negate(), f.World, ColorWhite, 1); got != want {
		t.Errorf("normal map = %v, want %v", got, want)
	}
	if !mat.HasMaps() {
		t.Error("HasMaps = false with a normal map")
	}
	var none *Material
	if none.HasMaps() {
		t.Error("nil material reports maps")
	}
}

func TestUnlitShaderClampsUV(t *testing.T) {
	diffuse := NewCheckerTexture(2, 2, 1, ColorWhite, ColorRed)
	s := UnlitShader{Material: &Material{Diffuse: diffuse}, Base: ColorGray}

	if got := s.Shade(Fragment{UV: math3d.V2(-0.01, 1.02)}); got != ColorRed {
		t.Errorf("clamped sample = %v, want the (0, 1) texel", got)
	}
	if got := (UnlitShader{Base: ColorGray}).Shade(Fragment{}); got != ColorGray {
		t.Errorf("no diffuse map = %v, want base color", got)
	}
	if got := Flat(ColorBlue).Shade(Fragment{}); got != ColorBlue {
		t.Errorf("flat = %v, want blue", got)
	}
}

func TestColorHelpers(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-5, 0},
		{0, 0},
		{127.9, 127},
		{255, 255},
		{1e9, 255},
		{math.NaN(), 0},
	}
	for _, tc := range tests {
		if got := ClampChannel(tc.in); got != tc.want {
			t.Errorf("ClampChannel(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}

	if got := ColorFromVec3(math3d.V3(300, -1, 64)); got != RGB(255, 0, 64) {
		t.Errorf("ColorFromVec3 = %v", got)
	}
	if got := Vec3FromColor(RGB(1, 2, 3)); got != math3d.V3(1, 2, 3) {
		t.Errorf("Vec3FromColor = %v", got)
	}
}
