package renderer

import (
	"GopherShade/internal/shading"

	"github.com/go-gl/mathgl/mgl32"
)

type Model struct {
	// HOT DATA - read for every triangle
	Position mgl32.Vec3      // Position in world space
	Scale    mgl32.Vec3      // Scale factors
	Rotation mgl32.Quat      // Rotation quaternion
	Texture  shading.Sampler // Bound as u_texture_0; nil samples white
	Mode     shading.Mode    // Lit or unlit fragment shader
	Mesh     *Mesh

	modelMatrix mgl32.Mat4
	isDirty     bool

	// COLD DATA
	Name string
}

// NewModel places mesh at the origin with unit scale and no rotation.
func NewModel(name string, mesh *Mesh) *Model {
	return &Model{
		Name:     name,
		Mesh:     mesh,
		Scale:    mgl32.Vec3{1, 1, 1},
		Rotation: mgl32.QuatIdent(),
		isDirty:  true,
	}
}

func (m *Model) Rotate(angleX, angleY, angleZ float32) {
	if m.Rotation == (mgl32.Quat{}) {
		m.Rotation = mgl32.QuatIdent()
	}
	rotationX := mgl32.QuatRotate(mgl32.DegToRad(angleX), mgl32.Vec3{1, 0, 0})
	rotationY := mgl32.QuatRotate(mgl32.DegToRad(angleY), mgl32.Vec3{0, 1, 0})
	rotationZ := mgl32.QuatRotate(mgl32.DegToRad(angleZ), mgl32.Vec3{0, 0, 1})
	m.Rotation = m.Rotation.Mul(rotationX).Mul(rotationY).Mul(rotationZ)
	m.isDirty = true
}

// SetPosition sets the position of the model
func (m *Model) SetPosition(x, y, z float32) {
	m.Position = mgl32.Vec3{x, y, z}
	m.isDirty = true
}

func (m *Model) SetScale(x, y, z float32) {
	m.Scale = mgl32.Vec3{x, y, z}
	m.isDirty = true
}

// ModelMatrix returns translation * rotation * scale. Not safe to call
// concurrently with the setters.
func (m *Model) ModelMatrix() mgl32.Mat4 {
	if m.isDirty || m.modelMatrix == (mgl32.Mat4{}) {
		rotation := m.Rotation
		if rotation == (mgl32.Quat{}) {
			rotation = mgl32.QuatIdent()
		}
		scaleMatrix := mgl32.Scale3D(m.Scale[0], m.Scale[1], m.Scale[2])
		translationMatrix := mgl32.Translate3D(m.Position[0], m.Position[1], m.Position[2])
		m.modelMatrix = translationMatrix.Mul4(rotation.Mat4()).Mul4(scaleMatrix)
		m.isDirty = false
	}
	return m.modelMatrix
}

// BoundingSphere returns the world-space bounding sphere used for frustum
// culling.
func (m *Model) BoundingSphere() (mgl32.Vec3, float32) {
	if m.Mesh == nil {
		return m.Position, 0
	}
	center, radius := m.Mesh.BoundingSphere()
	worldCenter := m.ModelMatrix().Mul4x1(center.Vec4(1)).Vec3()
	maxScale := max(abs32(m.Scale[0]), abs32(m.Scale[1]), abs32(m.Scale[2]))
	return worldCenter, radius * maxScale
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
