package render

import (
	"math"

	"github.com/taigrr/modelviewer/pkg/math3d"
)

// Fragment carries the interpolated surface attributes at one pixel.
type Fragment struct {
	World  math3d.Vec3 // World-space position
	Normal math3d.Vec3 // World-space normal, not renormalized
	UV     math3d.Vec2 // Texture coordinates
}

// Shader turns the attributes of a covered pixel into its color.
// Shaders run under the framebuffer row lock and must not draw.
type Shader interface {
	Shade(f Fragment) Color
}

// Flat shades every pixel with one color.
type Flat Color

// Shade implements Shader.
func (c Flat) Shade(Fragment) Color { return Color(c) }

// Phong model weights and the fixed light rig. The light setup is an engine
// constant, not scene state.
const (
	phongEmissive  = 0.1
	phongAmbient   = 0.2
	phongDiffuse   = 0.3
	phongSpecular  = 1.0
	phongShininess = 4.0
)

var (
	// phongViewPosition is the eye used for highlights. It does not follow
	// the active camera.
	phongViewPosition = math3d.V3(0, 0, -3)

	ambientLightColor     = math3d.V3(255, 255, 255)
	directionalLightColor = math3d.V3(255, 255, 255)
	directionalLightDir   = math3d.V3(1, 1, 2)
)

// Lambert light rig: a white point light above and in front of the origin.
var (
	lambertLightPosition = math3d.V3(0, 2, 3)
	lambertLightColor    = math3d.V3(255, 255, 255)
)

const lambertIntensity = 12.0

// Phong lights a surface point with emissive, ambient, diffuse and specular
// terms. base tints the emissive and diffuse terms, specular scales the
// highlight. Channels are clamped once, after summing.
func Phong(normal, world math3d.Vec3, base Color, specular float64) Color {
	lightDir := directionalLightDir.Normalize()
	viewDir := phongViewPosition.Sub(world)
	baseVec := Vec3FromColor(base)

	total := baseVec.Scale(phongEmissive).
		Add(ambientLightColor.Scale(phongAmbient))

	if normal.LenSq() == 0 || viewDir.LenSq() == 0 {
		return ColorFromVec3(total)
	}

	cosTheta := math.Max(0, normal.Cos(lightDir))
	if cosTheta > 0 {
		diffuse := directionalLightColor.Mul(baseVec.Div(255)).Scale(cosTheta * phongDiffuse)

		reflected := lightDir.Sub(normal.Scale(2 * lightDir.Dot(normal)))
		highlight := 0.0
		if reflected.LenSq() > 0 {
			highlight = math.Pow(math.Max(0, reflected.Cos(viewDir)), phongShininess)
		}
		spec := directionalLightColor.Scale(highlight * phongSpecular * specular)

		total = total.Add(diffuse).Add(spec)
	}

	return ColorFromVec3(total)
}

// TriangleNormal returns the unit normal of a counter-clockwise triangle,
// (a-b)×(a-c). A degenerate triangle yields the zero vector.
func TriangleNormal(tri [3]math3d.Vec3) math3d.Vec3 {
	a := tri[0].Sub(tri[1])
	b := tri[0].Sub(tri[2])
	return a.Cross(b).Normalize()
}

// FacesCamera reports whether tri is front-facing for a viewer at eye.
// Degenerate triangles never face the camera.
func FacesCamera(tri [3]math3d.Vec3, eye math3d.Vec3) bool {
	n := TriangleNormal(tri)
	toTri := tri[0].Sub(eye)
	if n.LenSq() == 0 || toTri.LenSq() == 0 {
		return false
	}
	return n.Cos(toTri) < 0
}

// Lambert returns one flat color for a world-space triangle lit by the
// engine point light. Each corner contributes an inverse-square falloff
// and the three contributions are averaged before a single clamp.
func Lambert(base Color, tri [3]math3d.Vec3) Color {
	normal := TriangleNormal(tri)
	if normal.LenSq() == 0 {
		return ColorBlack
	}
	angle := math.Max(0, normal.Cos(lambertLightPosition))
	reflect := Vec3FromColor(base).Div(255)

	var sum math3d.Vec3
	for _, v := range tri {
		distSq := v.Sub(lambertLightPosition).LenSq()
		factor := lambertIntensity * angle / (1 + distSq)
		sum = sum.Add(lambertLightColor.Mul(reflect).Scale(factor))
	}
	return ColorFromVec3(sum.Div(3))
}

// Material holds the optional texture maps of an object. A nil map falls back
// to the triangle's base color, the interpolated normal, or full specularity.
type Material struct {
	Diffuse  *DiffuseMap
	Normals  *NormalMap
	Specular *SpecularMap

	// NormalMatrix brings normal-map samples from object to world space.
	NormalMatrix math3d.Mat3
}

// HasMaps reports whether any texture map is attached.
func (m *Material) HasMaps() bool {
	return m != nil && (m.Diffuse != nil || m.Normals != nil || m.Specular != nil)
}

func (m *Material) color(uv math3d.Vec2, base Color) Color {
	if m == nil || m.Diffuse == nil {
		return base
	}
	return m.Diffuse.Sample(uv.X, uv.Y)
}

func (m *Material) normal(f Fragment) math3d.Vec3 {
	if m == nil || m.Normals == nil {
		return f.Normal
	}
	return m.NormalMatrix.MulVec3(m.Normals.Sample(f.UV.X, f.UV.Y))
}

func (m *Material) specular(uv math3d.Vec2) float64 {
	if m == nil || m.Specular == nil {
		return 1
	}
	return m.Specular.Sample(uv.X, uv.Y)
}

// PhongShader lights every pixel with Phong, reading base color, normal and
// specular factor from the material maps when present.
type PhongShader struct {
	Material *Material
	Base     Color
}

// Shade implements Shader.
func (s PhongShader) Shade(f Fragment) Color {
	f.UV = clampUV(f.UV)
	return Phong(s.Material.normal(f), f.World, s.Material.color(f.UV, s.Base), s.Material.specular(f.UV))
}

// UnlitShader writes the diffuse map sample, or the base color, untouched.
type UnlitShader struct {
	Material *Material
	Base     Color
}

// Shade implements Shader.
func (s UnlitShader) Shade(f Fragment) Color {
	return s.Material.color(clampUV(f.UV), s.Base)
}

// clampUV pulls interpolated coordinates back into [0,1]. Span padding and
// rounding can push them slightly outside.
func clampUV(uv math3d.Vec2) math3d.Vec2 {
	return math3d.V2(clamp01(uv.X), clamp01(uv.Y))
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
