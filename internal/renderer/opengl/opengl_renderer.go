package opengl

import (
	"fmt"
	"image"

	"GopherShade/internal/logger"
	"GopherShade/internal/renderer"
	"GopherShade/internal/shading"
	"GopherShade/internal/texture"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// textureUnit is the unit u_texture_0 samples from.
const textureUnit = 0

// gpuModel holds the GL objects backing one renderer.Model.
type gpuModel struct {
	model     *renderer.Model
	vao       uint32
	vbo       uint32
	ebo       uint32
	count     int32
	indexed   bool
	textureID uint32
}

// OpenGLRenderer draws a renderer.Scene with the GLSL versions of the lit and
// unlit shaders. All methods must be called on the thread that owns the GL
// context.
type OpenGLRenderer struct {
	FrustumCulling bool
	FaceCulling    bool

	shaders              map[shading.Mode]*Shader
	models               []*gpuModel
	textures             map[shading.Sampler]uint32 // Shared between models using the same sampler
	currentShaderProgram uint32                     // Track currently bound shader to avoid unnecessary switches
	currentTextureID     uint32
}

func NewOpenGLRenderer() *OpenGLRenderer {
	return &OpenGLRenderer{
		FrustumCulling: true,
		FaceCulling:    true,
		shaders: map[shading.Mode]*Shader{
			shading.ModeLit:   NewShader(shading.ModeLit),
			shading.ModeUnlit: NewShader(shading.ModeUnlit),
		},
		textures:         make(map[shading.Sampler]uint32),
		currentTextureID: ^uint32(0), // Initialize with an invalid value
	}
}

// Init loads GL entry points, compiles both programs and sets the viewport.
func (rend *OpenGLRenderer) Init(width, height int32) error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("opengl init: %w", err)
	}

	for _, shader := range rend.shaders {
		if err := shader.Compile(); err != nil {
			return err
		}
	}

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthFunc(gl.LESS)
	gl.Viewport(0, 0, width, height)

	logger.Log.Info("OpenGL render initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))))
	return nil
}

// AddModel uploads the model's mesh and texture.
func (rend *OpenGLRenderer) AddModel(model *renderer.Model) error {
	if model.Mesh == nil || len(model.Mesh.Vertices) == 0 {
		return fmt.Errorf("model %q has no vertices", model.Name)
	}

	gm := &gpuModel{model: model}
	data := model.Mesh.Interleaved()

	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)

	if len(model.Mesh.Indices) > 0 {
		gl.GenBuffers(1, &gm.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(model.Mesh.Indices)*4, gl.Ptr(model.Mesh.Indices), gl.STATIC_DRAW)
		gm.indexed = true
		gm.count = int32(len(model.Mesh.Indices))
	} else {
		gm.count = int32(len(model.Mesh.Vertices))
	}

	stride := int32(renderer.FloatsPerVertex * 4)
	gl.VertexAttribPointer(positionAttrib, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(positionAttrib)

	gl.VertexAttribPointer(texCoordAttrib, 2, gl.FLOAT, false, stride, gl.PtrOffset(3*4))
	gl.EnableVertexAttribArray(texCoordAttrib)

	gl.VertexAttribPointer(normalAttrib, 3, gl.FLOAT, false, stride, gl.PtrOffset(5*4))
	gl.EnableVertexAttribArray(normalAttrib)

	gl.BindVertexArray(0)

	gm.textureID = rend.uploadSampler(model.Texture)
	rend.models = append(rend.models, gm)

	logger.Log.Debug("Model uploaded",
		zap.String("model", model.Name),
		zap.Int("vertices", len(model.Mesh.Vertices)),
		zap.Int32("count", gm.count))
	return nil
}

// Load replaces every uploaded model and texture with the models of scene.
func (rend *OpenGLRenderer) Load(scene *renderer.Scene) error {
	rend.releaseModels()
	for _, model := range scene.Models {
		if err := rend.AddModel(model); err != nil {
			return err
		}
	}
	logger.Log.Info("Scene uploaded",
		zap.Int("models", len(rend.models)),
		zap.Int("textures", len(rend.textures)))
	return nil
}

func (rend *OpenGLRenderer) RemoveModel(model *renderer.Model) {
	for i, gm := range rend.models {
		if gm.model == model {
			rend.deleteBuffers(gm)
			rend.models = append(rend.models[:i], rend.models[i+1:]...)
			return
		}
	}
}

// Render clears the framebuffer to the scene's clear color and draws every
// uploaded model.
func (rend *OpenGLRenderer) Render(scene *renderer.Scene) {
	background := scene.ClearColor
	gl.ClearColor(background[0], background[1], background[2], 1.0)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(true)

	// Culling : https://learnopengl.com/Advanced-OpenGL/Face-culling
	if rend.FaceCulling {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
		gl.FrontFace(gl.CCW)
	} else {
		gl.Disable(gl.CULL_FACE)
	}

	camera := scene.Camera
	var frustum renderer.Frustum
	if rend.FrustumCulling {
		frustum = camera.CalculateFrustum()
	}

	projection := camera.GetProjectionMatrix()
	view := camera.GetViewMatrix()

	for _, gm := range rend.models {
		model := gm.model

		// Skip rendering if the model is outside the frustum
		if rend.FrustumCulling {
			center, radius := model.BoundingSphere()
			if !frustum.IntersectsSphere(center, radius) {
				continue
			}
		}

		shader := rend.shaders[model.Mode]
		if shader == nil {
			shader = rend.shaders[shading.ModeLit]
		}

		// Switch shader if needed
		if rend.currentShaderProgram != shader.Program() {
			shader.Use()
			rend.currentShaderProgram = shader.Program()
		}

		rend.setUniforms(shader.Uniforms(), projection, view, model.ModelMatrix(), scene)

		if gm.textureID != rend.currentTextureID {
			gl.ActiveTexture(gl.TEXTURE0 + textureUnit)
			gl.BindTexture(gl.TEXTURE_2D, gm.textureID)
			rend.currentTextureID = gm.textureID
		}

		gl.BindVertexArray(gm.vao)
		if gm.indexed {
			gl.DrawElements(gl.TRIANGLES, gm.count, gl.UNSIGNED_INT, nil)
		} else {
			gl.DrawArrays(gl.TRIANGLES, 0, gm.count)
		}
		gl.BindVertexArray(0)
	}
}

// setUniforms writes the uniforms both programs declare; the unlit program
// drops the lighting ones and UniformCache skips them.
func (rend *OpenGLRenderer) setUniforms(u *UniformCache, projection, view, model mgl32.Mat4, scene *renderer.Scene) {
	u.SetMat4("m_proj", projection)
	u.SetMat4("m_view", view)
	u.SetMat4("m_model", model)
	u.SetInt("u_texture_0", textureUnit)

	u.SetVec3("camPos", scene.Camera.Position)
	u.SetVec3("light.position", scene.Light.Position)
	u.SetVec3("light.Ia", scene.Light.Ia)
	u.SetVec3("light.Id", scene.Light.Id)
	u.SetVec3("light.Is", scene.Light.Is)
}

// Resize updates the GL viewport. The caller updates the camera aspect.
func (rend *OpenGLRenderer) Resize(width, height int32) {
	gl.Viewport(0, 0, width, height)
}

func (rend *OpenGLRenderer) Cleanup() {
	rend.releaseModels()
	for _, shader := range rend.shaders {
		shader.Delete()
	}
	rend.currentShaderProgram = 0
}

func (rend *OpenGLRenderer) releaseModels() {
	for _, gm := range rend.models {
		rend.deleteBuffers(gm)
	}
	rend.models = nil

	for sampler, id := range rend.textures {
		gl.DeleteTextures(1, &id)
		delete(rend.textures, sampler)
	}
	rend.currentTextureID = ^uint32(0)
}

func (rend *OpenGLRenderer) deleteBuffers(gm *gpuModel) {
	gl.DeleteVertexArrays(1, &gm.vao)
	gl.DeleteBuffers(1, &gm.vbo)
	if gm.indexed {
		gl.DeleteBuffers(1, &gm.ebo)
	}
}

// uploadSampler returns the GL texture for sampler, creating it on first use.
// Image textures keep their pixels; any other sampler becomes a 1x1 texture of
// its color. A nil sampler is white.
func (rend *OpenGLRenderer) uploadSampler(sampler shading.Sampler) uint32 {
	if sampler == nil {
		sampler = texture.NewSolid(mgl32.Vec3{1, 1, 1})
	}
	if id, ok := rend.textures[sampler]; ok {
		return id
	}

	var id uint32
	if tex, ok := sampler.(*texture.Texture); ok {
		id = createTexture(tex.RGBA(), tex.Filter, tex.Wrap)
	} else {
		id = createTexture(solidImage(sampler.Sample(mgl32.Vec2{0.5, 0.5})), texture.FilterNearest, texture.WrapRepeat)
	}
	rend.textures[sampler] = id
	return id
}

// createTexture uploads rgba with trilinear mipmaps. Rows are already stored
// bottom first, which is the order GL expects.
func createTexture(rgba *image.RGBA, filter texture.Filter, wrap texture.Wrap) uint32 {
	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)

	size := rgba.Rect.Size()
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(rgba.Stride/4))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(size.X), int32(size.Y), 0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	wrapMode := int32(gl.REPEAT)
	if wrap == texture.WrapClamp {
		wrapMode = gl.CLAMP_TO_EDGE
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode)

	if filter == texture.FilterNearest {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST_MIPMAP_NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	} else {
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	}
	gl.GenerateMipmap(gl.TEXTURE_2D)

	return textureID
}

func solidImage(c mgl32.Vec3) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	for i := 0; i < 3; i++ {
		img.Pix[i] = uint8(mgl32.Clamp(c[i], 0, 1)*255 + 0.5)
	}
	img.Pix[3] = 255
	return img
}
