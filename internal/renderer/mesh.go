package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FloatsPerVertex is the interleaved vertex layout: position (3), texture
// coordinate (2), normal (3).
const FloatsPerVertex = 8

type Vertex struct {
	Position mgl32.Vec3
	TexCoord mgl32.Vec2
	Normal   mgl32.Vec3
}

// Mesh is a triangle list. When Indices is empty every three consecutive
// vertices form a triangle.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
}

func (m *Mesh) TriangleCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Vertices) / 3
}

// Triangle returns the three vertices of triangle i.
func (m *Mesh) Triangle(i int) [3]Vertex {
	if len(m.Indices) > 0 {
		return [3]Vertex{
			m.Vertices[m.Indices[i*3]],
			m.Vertices[m.Indices[i*3+1]],
			m.Vertices[m.Indices[i*3+2]],
		}
	}
	return [3]Vertex{m.Vertices[i*3], m.Vertices[i*3+1], m.Vertices[i*3+2]}
}

// Interleaved flattens the vertices for upload into a single buffer.
func (m *Mesh) Interleaved() []float32 {
	data := make([]float32, 0, len(m.Vertices)*FloatsPerVertex)
	for _, v := range m.Vertices {
		data = append(data,
			v.Position[0], v.Position[1], v.Position[2],
			v.TexCoord[0], v.TexCoord[1],
			v.Normal[0], v.Normal[1], v.Normal[2])
	}
	return data
}

// BoundingSphere returns the centroid of the vertices and the distance to the
// farthest one, in model space.
func (m *Mesh) BoundingSphere() (mgl32.Vec3, float32) {
	if len(m.Vertices) == 0 {
		return mgl32.Vec3{}, 0
	}

	var center mgl32.Vec3
	for _, v := range m.Vertices {
		center = center.Add(v.Position)
	}
	center = center.Mul(1.0 / float32(len(m.Vertices)))

	var maxDistanceSq float32
	for _, v := range m.Vertices {
		offset := v.Position.Sub(center)
		if d := offset.Dot(offset); d > maxDistanceSq {
			maxDistanceSq = d
		}
	}
	return center, float32(math.Sqrt(float64(maxDistanceSq)))
}
