package scene

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"GopherShade/internal/renderer"
	"GopherShade/internal/shading"
	"GopherShade/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	file, err := Default()
	require.NoError(t, err)

	w, h := file.Size()
	assert.Equal(t, 1600, w)
	assert.Equal(t, 900, h)
	require.Len(t, file.Objects, 1)
	assert.Equal(t, "cube", file.Objects[0].Mesh)
	assert.Equal(t, shading.ModeLit, file.Objects[0].Mode)
	require.NotNil(t, file.Light.Position)
	assert.Equal(t, mgl32.Vec3{3, 3, -3}, *file.Light.Position)
}

func TestBuildDefault(t *testing.T) {
	file, err := Default()
	require.NoError(t, err)

	textures := texture.NewManager(texture.DefaultLoadOptions())
	s, err := Build(context.Background(), file, "", textures)
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec3{0.1, 0.1, 0.2}, s.ClearColor)
	assert.Equal(t, shading.DefaultLight(), s.Light)
	assert.Equal(t, mgl32.Vec3{2, 3, 3}, s.Camera.Position)

	toOrigin := s.Camera.Position.Mul(-1).Normalize()
	assert.InDelta(t, 1, s.Camera.Front.Dot(toOrigin), 1e-5, "camera should look at the origin")

	require.Len(t, s.Models, 1)
	model := s.Models[0]
	assert.Equal(t, "cube", model.Name)
	assert.Len(t, model.Mesh.Vertices, 36)
	assert.IsType(t, &texture.Texture{}, model.Texture)
	assert.Equal(t, 1, textures.Stats().TotalTextures)
}

func TestParseFull(t *testing.T) {
	src := `
width: 320
height: 200
camera:
  position: [0, 1, 5]
  fov: 60
light:
  position: [1, 2, 3]
  color: [1, 0.5, 0]
  specular: [0, 0, 0]
textures:
  red:
    solid: [1, 0, 0]
objects:
  - name: floor
    mesh: plane
    grid: 3
    spacing: 2
    texture: red
    mode: unlit
    position: [0, -1, 0]
    scale: [2, 1, 2]
  - mesh: triangle
    rotation: [0, 45, 0]
`
	file, err := Parse([]byte(src))
	require.NoError(t, err)

	s, err := Build(context.Background(), file, "", nil)
	require.NoError(t, err)

	assert.Equal(t, float32(60), s.Camera.Fov)
	assert.InDelta(t, 320.0/200.0, s.Camera.AspectRatio, 1e-6)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, s.Light.Position)
	assert.InDelta(t, 0.05, s.Light.Ia[1], 1e-6, "ambient is derived from color")
	assert.Equal(t, mgl32.Vec3{}, s.Light.Is, "explicit specular wins")

	require.Len(t, s.Models, 2)
	floor := s.Models[0]
	assert.Equal(t, shading.ModeUnlit, floor.Mode)
	assert.Equal(t, mgl32.Vec3{0, -1, 0}, floor.Position)
	assert.Equal(t, mgl32.Vec3{2, 1, 2}, floor.Scale)
	assert.Len(t, floor.Mesh.Vertices, 9)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, floor.Texture.Sample(mgl32.Vec2{0.5, 0.5}))

	tri := s.Models[1]
	assert.Equal(t, "triangle", tri.Name)
	assert.Nil(t, tri.Texture)
	assert.NotEqual(t, mgl32.QuatIdent(), tri.Rotation)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown key", "colour: [1, 1, 1]\n"},
		{"bad mode", "objects:\n  - mesh: cube\n    mode: toon\n"},
		{"missing mesh", "objects:\n  - name: nothing\n"},
		{"two texture sources", "textures:\n  t:\n    path: a.png\n    solid: [1, 1, 1]\n"},
		{"no texture source", "textures:\n  t: {}\n"},
		{"negative size", "width: -1\n"},
		{"short vector", "clear_color: [1, 1]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src))
			assert.Error(t, err)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	file, err := Parse(nil)
	require.NoError(t, err)

	s, err := Build(context.Background(), file, "", nil)
	require.NoError(t, err)
	assert.Empty(t, s.Models)
}

func TestBuildUnknownMesh(t *testing.T) {
	file := &File{Objects: []ObjectSpec{{Mesh: "teapot"}}}

	_, err := Build(context.Background(), file, "", nil)
	assert.ErrorIs(t, err, ErrUnknownMesh)
}

func TestBuildUnknownTexture(t *testing.T) {
	file := &File{Objects: []ObjectSpec{{Mesh: "cube", Texture: "stone"}}}

	_, err := Build(context.Background(), file, "", nil)
	assert.ErrorIs(t, err, ErrUnknownTexture)
}

func writePNG(t *testing.T, path string, c color.RGBA) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestBuildFileAssets(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "white.png"), color.RGBA{255, 255, 255, 255})
	obj := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tri.obj"), []byte(obj), 0o644))

	file := &File{
		Textures: map[string]TextureSpec{
			"white":   {Path: "white.png"},
			"missing": {Path: "stone.jpg", Noise: &NoiseSpec{Size: 8, Seed: 1}},
		},
		Objects: []ObjectSpec{
			{Mesh: "tri.obj", Texture: "white"},
			{Mesh: "cube", Texture: "missing"},
		},
	}

	textures := texture.NewManager(texture.DefaultLoadOptions())
	s, err := Build(context.Background(), file, dir, textures)
	require.NoError(t, err)

	require.Len(t, s.Models, 2)
	assert.Equal(t, "tri", s.Models[0].Name)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, s.Models[0].Texture.Sample(mgl32.Vec2{0.5, 0.5}))

	noise, ok := s.Models[1].Texture.(*texture.Texture)
	require.True(t, ok)
	assert.Equal(t, 8, noise.Width(), "missing file falls back to noise")

	stats := textures.Stats()
	assert.Equal(t, 2, stats.TotalTextures)
	assert.Equal(t, 1, stats.CacheMisses)
}

func TestReleaseAfterRebuilds(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{255, 0, 0, 255})

	file := &File{
		Textures: map[string]TextureSpec{
			"used":  {Path: "a.png"},
			"spare": {Noise: &NoiseSpec{Size: 4, Seed: 3}},
		},
		Objects: []ObjectSpec{{Mesh: "cube", Texture: "used"}},
	}

	textures := texture.NewManager(texture.DefaultLoadOptions())
	var current *renderer.Scene
	for i := 0; i < 3; i++ {
		next, err := Build(context.Background(), file, dir, textures)
		require.NoError(t, err)
		assert.Len(t, next.Textures, 2, "declared but unused textures are held too")
		Release(current, textures)
		current = next
	}
	assert.Equal(t, 2, textures.Stats().ActiveTextures)

	Release(current, textures)
	assert.Equal(t, 0, textures.Stats().ActiveTextures)
	assert.Empty(t, current.Textures)

	Release(current, textures)
	assert.Equal(t, 0, textures.Stats().ActiveTextures, "second release is a no-op")
}

func TestBuildFailureReleasesTextures(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "a.png"), color.RGBA{0, 255, 0, 255})

	file := &File{
		Textures: map[string]TextureSpec{
			"used":  {Path: "a.png"},
			"spare": {Noise: &NoiseSpec{Size: 4, Seed: 3}},
		},
		Objects: []ObjectSpec{
			{Mesh: "cube", Texture: "used"},
			{Mesh: "missing.obj"},
		},
	}

	textures := texture.NewManager(texture.DefaultLoadOptions())
	_, err := Build(context.Background(), file, dir, textures)
	require.Error(t, err)
	assert.Equal(t, 0, textures.Stats().ActiveTextures)

	file.Objects = file.Objects[:1]
	s, err := Build(context.Background(), file, dir, textures)
	require.NoError(t, err)
	assert.Equal(t, 2, textures.Stats().ActiveTextures)

	file.Textures["broken"] = TextureSpec{Path: "nope.png"}
	_, err = Build(context.Background(), file, dir, textures)
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 2, textures.Stats().ActiveTextures, "failed preload keeps the live scene's textures")

	Release(s, textures)
	assert.Equal(t, 0, textures.Stats().ActiveTextures)
}

func TestBuildMissingTextureFile(t *testing.T) {
	file := &File{Textures: map[string]TextureSpec{"stone": {Path: "stone.jpg"}}}

	_, err := Build(context.Background(), file, t.TempDir(), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, defaultScene, 0o644))

	file, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, file.Objects, 1)

	_, err = LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, defaultScene, 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		})
	}()

	// The watcher starts asynchronously, so keep touching the file until it
	// reports a change.
	deadline := time.After(5 * time.Second)
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()
wait:
	for {
		select {
		case <-changed:
			break wait
		case <-ticker.C:
			require.NoError(t, os.WriteFile(path, defaultScene, 0o644))
		case <-deadline:
			t.Fatal("no change notification")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
