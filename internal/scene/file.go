// Package scene reads scene descriptions and turns them into renderable
// scenes.
package scene

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"GopherShade/internal/shading"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultScene []byte

// File is the YAML scene format. Vectors are written as three-element
// sequences.
type File struct {
	Width      int                    `yaml:"width"`
	Height     int                    `yaml:"height"`
	ClearColor *mgl32.Vec3            `yaml:"clear_color"`
	Camera     CameraSpec             `yaml:"camera"`
	Light      LightSpec              `yaml:"light"`
	Textures   map[string]TextureSpec `yaml:"textures"`
	Objects    []ObjectSpec           `yaml:"objects"`
}

type CameraSpec struct {
	Position *mgl32.Vec3 `yaml:"position"`
	Target   *mgl32.Vec3 `yaml:"target"`
	Fov      float32     `yaml:"fov"`
	Near     float32     `yaml:"near"`
	Far      float32     `yaml:"far"`
}

// LightSpec describes the point light. Ambient, Diffuse and Specular replace
// the intensities derived from Color when set.
type LightSpec struct {
	Position *mgl32.Vec3 `yaml:"position"`
	Color    *mgl32.Vec3 `yaml:"color"`
	Ambient  *mgl32.Vec3 `yaml:"ambient"`
	Diffuse  *mgl32.Vec3 `yaml:"diffuse"`
	Specular *mgl32.Vec3 `yaml:"specular"`
}

// TextureSpec names exactly one source: an image file, procedural noise or a
// solid color. A path that does not exist falls back to Noise when both are
// given.
type TextureSpec struct {
	Path  string      `yaml:"path"`
	Noise *NoiseSpec  `yaml:"noise"`
	Solid *mgl32.Vec3 `yaml:"solid"`
}

type NoiseSpec struct {
	Size int   `yaml:"size"`
	Seed int64 `yaml:"seed"`
}

// ObjectSpec places one mesh in the scene. Mesh is "cube", "triangle",
// "plane" or a path to an .obj file.
type ObjectSpec struct {
	Name     string       `yaml:"name"`
	Mesh     string       `yaml:"mesh"`
	Texture  string       `yaml:"texture"`
	Mode     shading.Mode `yaml:"mode"`
	Position mgl32.Vec3   `yaml:"position"`
	Rotation mgl32.Vec3   `yaml:"rotation"` // Degrees about X, Y, Z
	Scale    *mgl32.Vec3  `yaml:"scale"`
	Grid     int          `yaml:"grid"`    // Plane vertices per side
	Spacing  float32      `yaml:"spacing"` // Plane vertex spacing
}

// Parse decodes a scene file. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var file File
	if err := decodeStrict(data, &file); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	file, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Default returns the built-in scene: a noise-textured cube lit from (3, 3, -3)
// and viewed from (2, 3, 3).
func Default() (*File, error) {
	return Parse(defaultScene)
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (f *File) validate() error {
	if f.Width < 0 || f.Height < 0 {
		return fmt.Errorf("invalid image size %dx%d", f.Width, f.Height)
	}
	for name, spec := range f.Textures {
		sources := 0
		if spec.Path != "" {
			sources++
		}
		if spec.Solid != nil {
			sources++
		}
		if spec.Noise != nil && spec.Path == "" {
			sources++
		}
		if sources != 1 {
			return fmt.Errorf("texture %q: need exactly one of path, noise or solid", name)
		}
	}
	for i, obj := range f.Objects {
		if obj.Mesh == "" {
			return fmt.Errorf("object %d (%q): mesh is required", i, obj.Name)
		}
	}
	return nil
}
