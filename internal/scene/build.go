package scene

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"GopherShade/internal/loader"
	"GopherShade/internal/logger"
	"GopherShade/internal/renderer"
	"GopherShade/internal/shading"
	"GopherShade/internal/texture"

	"go.uber.org/zap"
)

var (
	// ErrUnknownMesh is returned for a mesh that is neither a built-in
	// primitive nor an .obj path.
	ErrUnknownMesh = errors.New("unknown mesh")
	// ErrUnknownTexture is returned when an object names a texture the scene
	// does not define.
	ErrUnknownTexture = errors.New("unknown texture")
)

const (
	DefaultWidth     = 1600
	DefaultHeight    = 900
	defaultNoiseSize = 256
	defaultPlaneGrid = 10
)

// Size returns the image size, using 1600x900 for unset dimensions.
func (f *File) Size() (int, int) {
	width, height := f.Width, f.Height
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}
	return width, height
}

// Build creates a renderable scene from file. Relative texture and mesh paths
// are resolved against baseDir. Image textures are loaded concurrently through
// textures, which keeps them cached for later builds. The returned scene holds
// one manager reference per declared texture until Release is called. A
// failed build holds none.
func Build(ctx context.Context, file *File, baseDir string, textures *texture.Manager) (*renderer.Scene, error) {
	if textures == nil {
		textures = texture.NewManager(texture.DefaultLoadOptions())
	}

	width, height := file.Size()
	s := renderer.NewScene(buildCamera(file.Camera, width, height))
	s.Light = buildLight(file.Light)
	if file.ClearColor != nil {
		s.ClearColor = *file.ClearColor
	}

	samplers, acquired, err := buildTextures(ctx, file.Textures, baseDir, textures)
	if err != nil {
		return nil, err
	}
	s.Textures = acquired

	for i, obj := range file.Objects {
		model, err := buildObject(obj, baseDir, samplers)
		if err != nil {
			textures.ReleaseAll(acquired)
			return nil, fmt.Errorf("object %d (%q): %w", i, obj.Name, err)
		}
		s.AddModel(model)
	}

	logger.Log.Info("Scene built",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Int("models", len(s.Models)),
		zap.Int("textures", len(samplers)))
	return s, nil
}

// Release gives back the texture references s took when it was built. It is
// safe to call more than once.
func Release(s *renderer.Scene, textures *texture.Manager) {
	if s == nil || textures == nil {
		return
	}
	textures.ReleaseAll(s.Textures)
	s.Textures = nil
}

func buildCamera(spec CameraSpec, width, height int) *renderer.Camera {
	cam := renderer.NewDefaultCamera(width, height)
	if spec.Position != nil {
		cam.Position = *spec.Position
	}
	if spec.Fov > 0 {
		cam.Fov = spec.Fov
	}
	if spec.Near > 0 {
		cam.Near = spec.Near
	}
	if spec.Far > 0 {
		cam.Far = spec.Far
	}
	cam.UpdateProjection()
	if spec.Target != nil {
		cam.LookAt(*spec.Target)
	}
	return cam
}

func buildLight(spec LightSpec) shading.Light {
	light := shading.DefaultLight()
	if spec.Color != nil {
		light = shading.NewLight(light.Position, *spec.Color)
	}
	if spec.Position != nil {
		light.Position = *spec.Position
	}
	if spec.Ambient != nil {
		light.Ia = *spec.Ambient
	}
	if spec.Diffuse != nil {
		light.Id = *spec.Diffuse
	}
	if spec.Specular != nil {
		light.Is = *spec.Specular
	}
	return light
}

// buildTextures returns the samplers by name and every manager reference it
// took to make them.
func buildTextures(ctx context.Context, specs map[string]TextureSpec, baseDir string, manager *texture.Manager) (map[string]shading.Sampler, []*texture.Texture, error) {
	files := make(map[string]string)
	var paths []string
	for name, spec := range specs {
		if spec.Path == "" {
			continue
		}
		path := resolvePath(baseDir, spec.Path)
		if spec.Noise != nil {
			if _, err := os.Stat(path); err != nil {
				logger.Log.Warn("Texture file missing, using noise",
					zap.String("texture", name),
					zap.String("path", path))
				continue
			}
		}
		files[name] = path
		paths = append(paths, path)
	}

	loaded, err := manager.Preload(ctx, paths)
	if err != nil {
		return nil, nil, fmt.Errorf("load textures: %w", err)
	}
	acquired := loaded
	byPath := make(map[string]*texture.Texture, len(paths))
	for i, path := range paths {
		byPath[path] = loaded[i]
	}

	samplers := make(map[string]shading.Sampler, len(specs))
	for name, spec := range specs {
		switch {
		case files[name] != "":
			samplers[name] = byPath[files[name]]
		case spec.Solid != nil:
			samplers[name] = texture.NewSolid(*spec.Solid)
		case spec.Noise != nil:
			size := spec.Noise.Size
			if size <= 0 {
				size = defaultNoiseSize
			}
			key := fmt.Sprintf("noise:%d:%d", size, spec.Noise.Seed)
			noise := manager.Register(key, texture.NewNoise(size, spec.Noise.Seed))
			samplers[name] = noise
			acquired = append(acquired, noise)
		}
	}
	return samplers, acquired, nil
}

func buildObject(obj ObjectSpec, baseDir string, samplers map[string]shading.Sampler) (*renderer.Model, error) {
	mesh, err := buildMesh(obj, baseDir)
	if err != nil {
		return nil, err
	}

	name := obj.Name
	if name == "" {
		name = mesh.Name
	}

	model := renderer.NewModel(name, mesh)
	model.Mode = obj.Mode
	model.SetPosition(obj.Position[0], obj.Position[1], obj.Position[2])
	if obj.Scale != nil {
		model.SetScale(obj.Scale[0], obj.Scale[1], obj.Scale[2])
	}
	if obj.Rotation != [3]float32{} {
		model.Rotate(obj.Rotation[0], obj.Rotation[1], obj.Rotation[2])
	}

	if obj.Texture != "" {
		sampler, ok := samplers[obj.Texture]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTexture, obj.Texture)
		}
		model.Texture = sampler
	}
	return model, nil
}

func buildMesh(obj ObjectSpec, baseDir string) (*renderer.Mesh, error) {
	switch strings.ToLower(obj.Mesh) {
	case "cube":
		return loader.Cube(), nil
	case "triangle":
		return loader.Triangle(), nil
	case "plane":
		grid, spacing := obj.Grid, obj.Spacing
		if grid == 0 {
			grid = defaultPlaneGrid
		}
		if spacing == 0 {
			spacing = 1
		}
		return loader.Plane(grid, spacing)
	}

	if strings.EqualFold(filepath.Ext(obj.Mesh), ".obj") {
		return loader.LoadOBJ(resolvePath(baseDir, obj.Mesh))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMesh, obj.Mesh)
}

func resolvePath(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(baseDir, path)
}
