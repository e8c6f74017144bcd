package loader

import (
	"errors"

	"GopherShade/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
)

// Triangle is the single triangle of the original demo scene, facing +Z.
func Triangle() *renderer.Mesh {
	normal := mgl32.Vec3{0, 0, 1}
	return &renderer.Mesh{
		Name: "triangle",
		Vertices: []renderer.Vertex{
			{Position: mgl32.Vec3{-0.5, -0.5, 0}, TexCoord: mgl32.Vec2{0, 0}, Normal: normal},
			{Position: mgl32.Vec3{0.5, -0.5, 0}, TexCoord: mgl32.Vec2{1, 0}, Normal: normal},
			{Position: mgl32.Vec3{0, 0.5, 0}, TexCoord: mgl32.Vec2{0.5, 1}, Normal: normal},
		},
	}
}

// cubeFaces lists each face as its outward normal and the u and v axes of its
// texture, chosen so that u x v = normal (counter-clockwise from outside).
var cubeFaces = [6][3]mgl32.Vec3{
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
}

// Cube returns a cube spanning [-1, 1] on every axis as 36 non-indexed
// vertices with flat per-face normals and a full [0, 1] uv square per face.
func Cube() *renderer.Mesh {
	vertices := make([]renderer.Vertex, 0, 36)
	for _, face := range cubeFaces {
		n, u, v := face[0], face[1], face[2]
		corners := [4]renderer.Vertex{
			{Position: n.Sub(u).Sub(v), TexCoord: mgl32.Vec2{0, 0}, Normal: n},
			{Position: n.Add(u).Sub(v), TexCoord: mgl32.Vec2{1, 0}, Normal: n},
			{Position: n.Add(u).Add(v), TexCoord: mgl32.Vec2{1, 1}, Normal: n},
			{Position: n.Sub(u).Add(v), TexCoord: mgl32.Vec2{0, 1}, Normal: n},
		}
		vertices = append(vertices,
			corners[0], corners[1], corners[2],
			corners[0], corners[2], corners[3])
	}
	return &renderer.Mesh{Name: "cube", Vertices: vertices}
}

// Plane builds a flat gridSize x gridSize vertex grid in the XZ plane,
// centred on the origin and facing +Y. The texture spans the whole plane.
func Plane(gridSize int, gridSpacing float32) (*renderer.Mesh, error) {
	if gridSize < 2 {
		return nil, errors.New("gridSize must be at least 2")
	}
	if gridSpacing <= 0 {
		return nil, errors.New("gridSpacing must be positive")
	}

	vertices := make([]renderer.Vertex, 0, gridSize*gridSize)
	indices := make([]uint32, 0, (gridSize-1)*(gridSize-1)*6)

	half := float32(gridSize-1) * gridSpacing * 0.5
	last := float32(gridSize - 1)

	// Generate vertices
	for x := 0; x < gridSize; x++ {
		for z := 0; z < gridSize; z++ {
			vertices = append(vertices, renderer.Vertex{
				Position: mgl32.Vec3{float32(x)*gridSpacing - half, 0, float32(z)*gridSpacing - half},
				TexCoord: mgl32.Vec2{float32(x) / last, 1 - float32(z)/last},
				Normal:   mgl32.Vec3{0, 1, 0},
			})
		}
	}

	// Generate indices for triangles, counter-clockwise seen from above
	for x := 0; x < gridSize-1; x++ {
		for z := 0; z < gridSize-1; z++ {
			topLeft := uint32(x*gridSize + z)
			topRight := topLeft + 1
			bottomLeft := uint32((x+1)*gridSize + z)
			bottomRight := bottomLeft + 1

			indices = append(indices, topLeft, bottomRight, bottomLeft, topLeft, topRight, bottomRight)
		}
	}

	return &renderer.Mesh{Name: "plane", Vertices: vertices, Indices: indices}, nil
}
