package renderer

import (
	"context"
	"math"
	"testing"

	"GopherShade/internal/shading"
	"GopherShade/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const testSize = 32

// quad is a 2x2 square in the z plane facing +Z. Clockwise winding makes it
// face away from a camera on +Z.
func quad(z float32, clockwise bool) *Mesh {
	normal := mgl32.Vec3{0, 0, 1}
	mesh := &Mesh{
		Name: "quad",
		Vertices: []Vertex{
			{Position: mgl32.Vec3{-1, -1, z}, TexCoord: mgl32.Vec2{0, 0}, Normal: normal},
			{Position: mgl32.Vec3{1, -1, z}, TexCoord: mgl32.Vec2{1, 0}, Normal: normal},
			{Position: mgl32.Vec3{1, 1, z}, TexCoord: mgl32.Vec2{1, 1}, Normal: normal},
			{Position: mgl32.Vec3{-1, 1, z}, TexCoord: mgl32.Vec2{0, 1}, Normal: normal},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
	if clockwise {
		mesh.Indices = []uint32{0, 2, 1, 0, 3, 2}
	}
	return mesh
}

func testScene() *Scene {
	cam := NewDefaultCamera(testSize, testSize)
	cam.Position = mgl32.Vec3{0, 0, 3}
	cam.LookAt(mgl32.Vec3{0, 0, 0})
	return NewScene(cam)
}

func solidModel(mesh *Mesh, color mgl32.Vec3, mode shading.Mode) *Model {
	m := NewModel(mesh.Name, mesh)
	m.Texture = texture.NewSolid(color)
	m.Mode = mode
	return m
}

func render(t *testing.T, config Config, scene *Scene) (*Framebuffer, RenderStats) {
	t.Helper()
	r := NewRasterizer(config)
	defer r.Close()

	fb := NewFramebuffer(testSize, testSize)
	stats, err := r.Render(context.Background(), scene, fb)
	require.NoError(t, err)
	return fb, stats
}

func TestRenderUnlitReturnsTextureColor(t *testing.T) {
	scene := testScene()
	color := mgl32.Vec3{0.25, 0.5, 0.75}
	scene.AddModel(solidModel(quad(0, false), color, shading.ModeUnlit))

	fb, stats := render(t, DefaultConfig(), scene)

	assert.Equal(t, color.Vec4(1), fb.At(testSize/2, testSize/2))
	assert.Equal(t, DefaultClearColor.Vec4(1), fb.At(0, 0), "corner is outside the quad")
	assert.Equal(t, 2, stats.Triangles)
	assert.Zero(t, stats.Culled)
	assert.Positive(t, stats.Fragments)
}

func TestRenderLitWithoutLightIsBlack(t *testing.T) {
	scene := testScene()
	scene.Light = shading.Light{Position: mgl32.Vec3{0, 0, 3}}
	scene.AddModel(solidModel(quad(0, false), mgl32.Vec3{1, 1, 1}, shading.ModeLit))

	fb, _ := render(t, DefaultConfig(), scene)

	assert.Equal(t, mgl32.Vec4{0, 0, 0, 1}, fb.At(testSize/2, testSize/2))
}

func TestRenderLitMatchesPhong(t *testing.T) {
	scene := testScene()
	scene.Light = shading.NewLight(mgl32.Vec3{1, 1, 3}, mgl32.Vec3{1, 1, 1})
	base := mgl32.Vec3{0.6, 0.5, 0.4}
	scene.AddModel(solidModel(quad(0, false), base, shading.ModeLit))

	fb, _ := render(t, DefaultConfig(), scene)

	// World position of the centre of pixel (16, 16) on the z=0 plane.
	x, y := testSize/2, testSize/2
	halfExtent := float32(math.Tan(float64(mgl32.DegToRad(scene.Camera.Fov/2)))) * 3
	ndcX := (float32(x)+0.5)/testSize*2 - 1
	ndcY := 1 - (float32(y)+0.5)/testSize*2
	fragPos := mgl32.Vec3{ndcX * halfExtent, ndcY * halfExtent, 0}

	want := shading.Phong(base, scene.Light, scene.Camera.Position, mgl32.Vec3{0, 0, 1}, fragPos)
	got := fb.At(x, y)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, want[i], got[i], 1e-3, "channel %d", i)
	}
}

func TestRenderBackFaceCulling(t *testing.T) {
	scene := testScene()
	color := mgl32.Vec3{1, 0, 0}
	scene.AddModel(solidModel(quad(0, true), color, shading.ModeUnlit))

	fb, stats := render(t, DefaultConfig(), scene)
	assert.Equal(t, DefaultClearColor.Vec4(1), fb.At(testSize/2, testSize/2))
	assert.Equal(t, 2, stats.Culled)
	assert.Zero(t, stats.Fragments)

	config := DefaultConfig()
	config.CullBackFaces = false
	fb, stats = render(t, config, scene)
	assert.Equal(t, color.Vec4(1), fb.At(testSize/2, testSize/2))
	assert.Zero(t, stats.Culled)
}

func TestRenderDepthOrdering(t *testing.T) {
	near := mgl32.Vec3{1, 0, 0}
	far := mgl32.Vec3{0, 1, 0}

	for _, nearFirst := range []bool{true, false} {
		scene := testScene()
		nearModel := solidModel(quad(0.5, false), near, shading.ModeUnlit)
		farModel := solidModel(quad(0, false), far, shading.ModeUnlit)
		if nearFirst {
			scene.AddModel(nearModel)
			scene.AddModel(farModel)
		} else {
			scene.AddModel(farModel)
			scene.AddModel(nearModel)
		}

		fb, stats := render(t, DefaultConfig(), scene)

		assert.Equal(t, near.Vec4(1), fb.At(testSize/2, testSize/2), "nearFirst=%v", nearFirst)
		if nearFirst {
			assert.Positive(t, stats.DepthRejected)
		}
	}
}

func TestRenderDepthBuffer(t *testing.T) {
	scene := testScene()
	scene.AddModel(solidModel(quad(0, false), mgl32.Vec3{1, 1, 1}, shading.ModeUnlit))

	fb, _ := render(t, DefaultConfig(), scene)

	centre := fb.Depth[(testSize/2)*testSize+testSize/2]
	assert.Greater(t, centre, float32(0))
	assert.Less(t, centre, float32(1))
	assert.Equal(t, float32(1), fb.Depth[0])
}

func TestRenderBehindCamera(t *testing.T) {
	scene := testScene()
	scene.AddModel(solidModel(quad(5, false), mgl32.Vec3{1, 0, 0}, shading.ModeUnlit))

	fb, stats := render(t, DefaultConfig(), scene)
	assert.Equal(t, 1, stats.ModelsCulled)
	assert.Zero(t, stats.Triangles)
	assert.Equal(t, DefaultClearColor.Vec4(1), fb.At(testSize/2, testSize/2))

	config := DefaultConfig()
	config.FrustumCulling = false
	fb, stats = render(t, config, scene)
	assert.Zero(t, stats.ModelsCulled)
	assert.Equal(t, 2, stats.Culled, "triangles behind the eye are dropped")
	assert.Equal(t, DefaultClearColor.Vec4(1), fb.At(testSize/2, testSize/2))
}

func TestRenderStats(t *testing.T) {
	scene := testScene()
	scene.AddModel(solidModel(quad(0, false), mgl32.Vec3{1, 1, 1}, shading.ModeUnlit))
	scene.AddModel(NewModel("empty", nil))

	config := DefaultConfig()
	config.TileSize = 16
	_, stats := render(t, config, scene)

	assert.Equal(t, 4, stats.Tiles)
	assert.Equal(t, 1, stats.Models)
	assert.Equal(t, 2, stats.Triangles)
	assert.Positive(t, stats.Duration)
}

func TestRenderCancelled(t *testing.T) {
	scene := testScene()
	scene.AddModel(solidModel(quad(0, false), mgl32.Vec3{1, 1, 1}, shading.ModeUnlit))

	r := NewRasterizer(DefaultConfig())
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Render(ctx, scene, NewFramebuffer(testSize, testSize))
	require.ErrorIs(t, err, context.Canceled)
}

func TestRenderRejectsInvalidInput(t *testing.T) {
	r := NewRasterizer(DefaultConfig())
	defer r.Close()

	_, err := r.Render(context.Background(), &Scene{}, NewFramebuffer(testSize, testSize))
	assert.Error(t, err)

	_, err = r.Render(context.Background(), testScene(), NewFramebuffer(0, 0))
	assert.Error(t, err)
}

func TestNewRasterizerDefaults(t *testing.T) {
	r := NewRasterizer(Config{})
	defer r.Close()

	assert.Equal(t, DefaultConfig().TileSize, r.Config().TileSize)
	assert.Positive(t, r.Config().Workers)
}

func TestRasterizerCloseStopsWorkers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	scene := testScene()
	scene.AddModel(solidModel(quad(0, false), mgl32.Vec3{1, 1, 1}, shading.ModeLit))
	render(t, DefaultConfig(), scene)
}

func TestNewTileGrid(t *testing.T) {
	tiles := NewTileGrid(70, 33, 32)

	require.Len(t, tiles, 6)
	assert.Equal(t, 0, tiles[0].ID)
	assert.Equal(t, 5, tiles[5].ID)
	assert.Equal(t, 64, tiles[5].Bounds.Min.X)
	assert.Equal(t, 70, tiles[5].Bounds.Max.X)
	assert.Equal(t, 33, tiles[5].Bounds.Max.Y)

	covered := 0
	for _, tile := range tiles {
		covered += tile.Bounds.Dx() * tile.Bounds.Dy()
	}
	assert.Equal(t, 70*33, covered)

	assert.Nil(t, NewTileGrid(0, 10, 8))
}
