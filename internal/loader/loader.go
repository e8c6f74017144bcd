package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"GopherShade/internal/logger"
	"GopherShade/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ErrNoFaces is returned for OBJ data that defines no faces.
var ErrNoFaces = errors.New("obj: no faces")

// FaceVertex is one corner of an OBJ face. Indices are zero based; -1 means
// the attribute was omitted.
type FaceVertex struct {
	VertexIdx   int32
	TexCoordIdx int32
	NormalIdx   int32
}

// LoadOBJ reads a Wavefront OBJ file. Materials are ignored; the texture is
// bound per model.
func LoadOBJ(path string) (*renderer.Mesh, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	mesh, err := ParseOBJ(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	mesh.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	logger.Log.Info("OBJ loaded",
		zap.String("path", path),
		zap.Int("vertices", len(mesh.Vertices)),
		zap.Int("triangles", mesh.TriangleCount()))
	return mesh, nil
}

// ParseOBJ reads v, vt, vn and f statements. Polygons are triangulated as
// fans, negative indices count back from the latest element, and vertices
// without a normal get a smooth normal averaged from the faces around them.
func ParseOBJ(r io.Reader) (*renderer.Mesh, error) {
	var positions []mgl32.Vec3
	var texCoords []mgl32.Vec2
	var normals []mgl32.Vec3
	var corners []FaceVertex // Three per triangle

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}

		switch parts[0] {
		case "v":
			vertex, err := parseVec3(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", lineNumber, err)
			}
			positions = append(positions, vertex)
		case "vn":
			normal, err := parseVec3(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: normal: %w", lineNumber, err)
			}
			normals = append(normals, normal)
		case "vt":
			texCoord, err := parseTextureCoordinate(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: texture coordinate: %w", lineNumber, err)
			}
			texCoords = append(texCoords, texCoord)
		case "f":
			face, err := parseFace(parts[1:], len(positions), len(texCoords), len(normals))
			if err != nil {
				return nil, fmt.Errorf("line %d: face: %w", lineNumber, err)
			}
			for i := 1; i < len(face)-1; i++ {
				corners = append(corners, face[0], face[i], face[i+1])
			}
		default:
			// Groups, materials and smoothing statements do not affect geometry.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(corners) == 0 {
		return nil, ErrNoFaces
	}

	return buildMesh(positions, texCoords, normals, corners), nil
}

// buildMesh unifies the separate OBJ index streams into one vertex per
// distinct (v, vt, vn) triplet.
func buildMesh(positions []mgl32.Vec3, texCoords []mgl32.Vec2, normals []mgl32.Vec3, corners []FaceVertex) *renderer.Mesh {
	mesh := &renderer.Mesh{Indices: make([]uint32, 0, len(corners))}
	vertexMap := make(map[FaceVertex]uint32)

	var smooth []mgl32.Vec3
	for _, corner := range corners {
		if corner.NormalIdx < 0 {
			smooth = RecalculateNormals(positions, corners)
			break
		}
	}

	for _, corner := range corners {
		if existing, ok := vertexMap[corner]; ok {
			mesh.Indices = append(mesh.Indices, existing)
			continue
		}

		vertex := renderer.Vertex{Position: positions[corner.VertexIdx]}
		if corner.TexCoordIdx >= 0 {
			vertex.TexCoord = texCoords[corner.TexCoordIdx]
		}
		if corner.NormalIdx >= 0 {
			vertex.Normal = normals[corner.NormalIdx]
		} else {
			vertex.Normal = smooth[corner.VertexIdx]
		}

		index := uint32(len(mesh.Vertices))
		vertexMap[corner] = index
		mesh.Vertices = append(mesh.Vertices, vertex)
		mesh.Indices = append(mesh.Indices, index)
	}
	return mesh
}

// RecalculateNormals returns one normal per position: the normalized sum of
// the area-weighted normals of the triangles using it. Unused or degenerate
// positions get +Y.
func RecalculateNormals(positions []mgl32.Vec3, corners []FaceVertex) []mgl32.Vec3 {
	sums := make([]mgl32.Vec3, len(positions))
	for i := 0; i+2 < len(corners); i += 3 {
		idx0, idx1, idx2 := corners[i].VertexIdx, corners[i+1].VertexIdx, corners[i+2].VertexIdx
		v0, v1, v2 := positions[idx0], positions[idx1], positions[idx2]

		edge1 := v1.Sub(v0)
		edge2 := v2.Sub(v0)
		normal := edge1.Cross(edge2)

		sums[idx0] = sums[idx0].Add(normal)
		sums[idx1] = sums[idx1].Add(normal)
		sums[idx2] = sums[idx2].Add(normal)
	}

	for i, sum := range sums {
		if sum.Len() == 0 {
			sums[i] = mgl32.Vec3{0, 1, 0}
			continue
		}
		sums[i] = sum.Normalize()
	}
	return sums
}

func parseVec3(parts []string) (mgl32.Vec3, error) {
	if len(parts) < 3 {
		return mgl32.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(parts))
	}
	var v mgl32.Vec3
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return mgl32.Vec3{}, err
		}
		v[i] = float32(f)
	}
	return v, nil
}

func parseTextureCoordinate(parts []string) (mgl32.Vec2, error) {
	if len(parts) < 1 {
		return mgl32.Vec2{}, errors.New("missing u component")
	}
	var uv mgl32.Vec2
	for i := 0; i < 2 && i < len(parts); i++ {
		f, err := strconv.ParseFloat(parts[i], 32)
		if err != nil {
			return mgl32.Vec2{}, err
		}
		uv[i] = float32(f)
	}
	return uv, nil
}

// parseFace resolves the corners of one f statement against the number of
// elements defined so far.
func parseFace(parts []string, numPositions, numTexCoords, numNormals int) ([]FaceVertex, error) {
	if len(parts) < 3 {
		return nil, fmt.Errorf("expected at least 3 vertices, got %d", len(parts))
	}

	face := make([]FaceVertex, 0, len(parts))
	for _, part := range parts {
		vals := strings.Split(part, "/")

		vertexIdx, err := resolveIndex(vals[0], numPositions)
		if err != nil {
			return nil, fmt.Errorf("invalid vertex index %q: %w", vals[0], err)
		}

		var texCoordIdx int32 = -1
		if len(vals) > 1 && vals[1] != "" {
			texCoordIdx, err = resolveIndex(vals[1], numTexCoords)
			if err != nil {
				return nil, fmt.Errorf("invalid texture coordinate index %q: %w", vals[1], err)
			}
		}

		var normalIdx int32 = -1
		if len(vals) > 2 && vals[2] != "" {
			normalIdx, err = resolveIndex(vals[2], numNormals)
			if err != nil {
				return nil, fmt.Errorf("invalid normal index %q: %w", vals[2], err)
			}
		}

		face = append(face, FaceVertex{
			VertexIdx:   vertexIdx,
			TexCoordIdx: texCoordIdx,
			NormalIdx:   normalIdx,
		})
	}
	return face, nil
}

// resolveIndex turns a 1-based or negative relative OBJ index into a 0-based
// one and checks it against count.
func resolveIndex(s string, count int) (int32, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case idx > 0:
		idx-- // .obj indices start at 1, not 0
	case idx < 0:
		idx += count
	default:
		return 0, errors.New("index 0 is not valid")
	}
	if idx < 0 || idx >= count {
		return 0, fmt.Errorf("out of range (have %d)", count)
	}
	return int32(idx), nil
}
