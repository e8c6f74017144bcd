package renderer

import (
	"GopherShade/internal/shading"
	"GopherShade/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultClearColor is a dark blue background.
var DefaultClearColor = mgl32.Vec3{0.1, 0.1, 0.2}

var white = texture.Solid{1, 1, 1}

// Scene is everything one frame needs: the camera, the single light and the
// models to draw.
type Scene struct {
	Camera     *Camera
	Light      shading.Light
	Models     []*Model
	ClearColor mgl32.Vec3

	// Textures are the manager references taken while building the scene,
	// including textures no model samples.
	Textures []*texture.Texture
}

func NewScene(camera *Camera) *Scene {
	return &Scene{
		Camera:     camera,
		Light:      shading.DefaultLight(),
		ClearColor: DefaultClearColor,
	}
}

func (s *Scene) AddModel(model *Model) {
	s.Models = append(s.Models, model)
}

func (s *Scene) RemoveModel(model *Model) {
	for i, m := range s.Models {
		if m == model {
			s.Models = append(s.Models[:i], s.Models[i+1:]...)
			return
		}
	}
}

// Uniforms returns the per-draw shader inputs for model.
func (s *Scene) Uniforms(model *Model) shading.Uniforms {
	var tex shading.Sampler = white
	if model.Texture != nil {
		tex = model.Texture
	}
	return shading.Uniforms{
		CamPos:  s.Camera.Position,
		Light:   s.Light,
		Texture: tex,
	}
}
