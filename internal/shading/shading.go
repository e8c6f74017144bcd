// Package shading implements the per-fragment color functions shared by the
// software rasterizer and the GLSL programs: a gamma-correct Phong model and an
// unlit texture pass-through.
package shading

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	// Gamma is the display encoding exponent. Texture samples are raised to
	// Gamma before lighting and the result is raised to 1/Gamma afterwards.
	Gamma = 2.2
	// Shininess is the fixed specular exponent.
	Shininess = 32
)

// Light is a single point light. There is no range, attenuation or shadowing.
type Light struct {
	Position mgl32.Vec3
	Ia       mgl32.Vec3 // ambient
	Id       mgl32.Vec3 // diffuse
	Is       mgl32.Vec3 // specular
}

// NewLight derives the three intensities from a base color: 10% ambient,
// 80% diffuse and 50% specular.
func NewLight(position, color mgl32.Vec3) Light {
	return Light{
		Position: position,
		Ia:       color.Mul(0.1),
		Id:       color.Mul(0.8),
		Is:       color.Mul(0.5),
	}
}

// DefaultLight is a white light at (3, 3, -3).
func DefaultLight() Light {
	return NewLight(mgl32.Vec3{3, 3, -3}, mgl32.Vec3{1, 1, 1})
}

// Fragment holds the interpolated per-fragment inputs.
type Fragment struct {
	TexCoord mgl32.Vec2
	Normal   mgl32.Vec3
	Position mgl32.Vec3 // world space
}

// Sampler is a bound 2D texture. Samples are display-space RGB.
type Sampler interface {
	Sample(uv mgl32.Vec2) mgl32.Vec3
}

// Uniforms are the values that stay constant for a whole draw.
type Uniforms struct {
	CamPos  mgl32.Vec3
	Light   Light
	Texture Sampler
}

// FragmentShader computes the output color of one fragment.
type FragmentShader func(u Uniforms, f Fragment) mgl32.Vec4

// ToLinear decodes a display-space color by raising each channel to Gamma.
// Negative channels produce NaN.
func ToLinear(c mgl32.Vec3) mgl32.Vec3 {
	return powVec(c, Gamma)
}

// ToDisplay encodes a linear color by raising each channel to 1/Gamma.
// Negative channels produce NaN.
func ToDisplay(c mgl32.Vec3) mgl32.Vec3 {
	return powVec(c, 1/Gamma)
}

// Reflect mirrors the incident vector i about the normal n, as GLSL reflect.
// n must be unit length.
func Reflect(i, n mgl32.Vec3) mgl32.Vec3 {
	return i.Sub(n.Mul(2 * n.Dot(i)))
}

// Terms returns the ambient, diffuse and specular weights for one fragment.
// The normal and both directions are normalized here, whatever the caller
// passes in.
func Terms(light Light, camPos, normal, fragPos mgl32.Vec3) (ambient, diffuse, specular mgl32.Vec3) {
	n := normal.Normalize()

	ambient = light.Ia

	lightDir := light.Position.Sub(fragPos).Normalize()
	diff := glslMax(lightDir.Dot(n), 0)
	diffuse = light.Id.Mul(diff)

	viewDir := camPos.Sub(fragPos).Normalize()
	reflectDir := Reflect(lightDir.Mul(-1), n)
	spec := float32(math.Pow(float64(glslMax(viewDir.Dot(reflectDir), 0)), Shininess))
	specular = light.Is.Mul(spec)

	return ambient, diffuse, specular
}

// Phong shades a display-space base color. The weights multiply the
// linearized base color; they are not added to it.
func Phong(texColor mgl32.Vec3, light Light, camPos, normal, fragPos mgl32.Vec3) mgl32.Vec4 {
	linear := ToLinear(texColor)
	ambient, diffuse, specular := Terms(light, camPos, normal, fragPos)
	weight := ambient.Add(diffuse).Add(specular)
	lit := mgl32.Vec3{linear[0] * weight[0], linear[1] * weight[1], linear[2] * weight[2]}
	return ToDisplay(lit).Vec4(1)
}

// Lit samples the bound texture and shades it with Phong.
func Lit(u Uniforms, f Fragment) mgl32.Vec4 {
	return Phong(u.Texture.Sample(f.TexCoord), u.Light, u.CamPos, f.Normal, f.Position)
}

// Unlit returns the texture sample unchanged with alpha 1.
func Unlit(u Uniforms, f Fragment) mgl32.Vec4 {
	return u.Texture.Sample(f.TexCoord).Vec4(1)
}

// glslMax matches GLSL max: y is returned only when x < y, so a NaN x is
// passed through.
func glslMax(x, y float32) float32 {
	if x < y {
		return y
	}
	return x
}

func powVec(c mgl32.Vec3, exp float64) mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Pow(float64(c[0]), exp)),
		float32(math.Pow(float64(c[1]), exp)),
		float32(math.Pow(float64(c[2]), exp)),
	}
}
