package opengl

import (
	"errors"
	"fmt"
	"strings"

	"GopherShade/internal/logger"
	"GopherShade/internal/shading"

	"github.com/go-gl/gl/v3.3-core/gl"
	"go.uber.org/zap"
)

var (
	// ErrCompile wraps shader compilation failures; the message carries the
	// driver's info log.
	ErrCompile = errors.New("shader compile failed")
	// ErrLink wraps program link failures.
	ErrLink = errors.New("shader link failed")
)

// =============================================================
//
//	Shaders
//
// =============================================================
type Shader struct {
	Name           string
	vertexSource   string
	fragmentSource string
	program        uint32
	isCompiled     bool
	uniforms       *UniformCache
}

// NewShader returns the program that draws models in mode. It is compiled
// lazily by Compile.
func NewShader(mode shading.Mode) *Shader {
	if mode == shading.ModeUnlit {
		return &Shader{Name: "unlit", vertexSource: VertexShaderSource, fragmentSource: UnlitFragmentShaderSource}
	}
	return &Shader{Name: "lit", vertexSource: VertexShaderSource, fragmentSource: LitFragmentShaderSource}
}

// Compile builds and links the program. It must run on the thread that owns
// the GL context.
func (shader *Shader) Compile() error {
	if shader.isCompiled {
		return nil
	}

	vertexShader, err := genShader(shader.vertexSource, gl.VERTEX_SHADER)
	if err != nil {
		return fmt.Errorf("%s vertex shader: %w", shader.Name, err)
	}
	fragmentShader, err := genShader(shader.fragmentSource, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vertexShader)
		return fmt.Errorf("%s fragment shader: %w", shader.Name, err)
	}

	program, err := genShaderProgram(vertexShader, fragmentShader)
	if err != nil {
		return fmt.Errorf("%s program: %w", shader.Name, err)
	}

	shader.program = program
	shader.uniforms = NewUniformCache(program)
	shader.isCompiled = true
	logger.Log.Debug("Shader compiled", zap.String("shader", shader.Name), zap.Uint32("program", program))
	return nil
}

func (shader *Shader) Use() {
	gl.UseProgram(shader.program)
}

func (shader *Shader) Program() uint32 {
	return shader.program
}

func (shader *Shader) Uniforms() *UniformCache {
	return shader.uniforms
}

func (shader *Shader) Delete() {
	if !shader.isCompiled {
		return
	}
	gl.DeleteProgram(shader.program)
	shader.program = 0
	shader.uniforms = nil
	shader.isCompiled = false
}

func genShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	cSources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, cSources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(log))
		gl.DeleteShader(shader)

		return 0, fmt.Errorf("%w: %s", ErrCompile, strings.TrimRight(log, "\x00"))
	}
	return shader, nil
}

func genShaderProgram(vertexShader, fragmentShader uint32) (uint32, error) {
	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	gl.DetachShader(program, vertexShader)
	gl.DeleteShader(vertexShader)
	gl.DetachShader(program, fragmentShader)
	gl.DeleteShader(fragmentShader)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)

		log := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(log))
		gl.DeleteProgram(program)

		return 0, fmt.Errorf("%w: %s", ErrLink, strings.TrimRight(log, "\x00"))
	}
	return program, nil
}

// Attribute locations match renderer.Mesh.Interleaved: position, texture
// coordinate, normal.
const (
	positionAttrib = 0
	texCoordAttrib = 1
	normalAttrib   = 2
)

var VertexShaderSource = `#version 330 core

layout (location = 0) in vec3 in_position;
layout (location = 1) in vec2 in_texcoord_0;
layout (location = 2) in vec3 in_normal;

out vec2 uv_0;
out vec3 normal;
out vec3 fragPos;

uniform mat4 m_proj;
uniform mat4 m_view;
uniform mat4 m_model;

void main() {
    uv_0 = in_texcoord_0;
    fragPos = vec3(m_model * vec4(in_position, 1.0));
    normal = mat3(m_model) * in_normal;
    gl_Position = m_proj * m_view * m_model * vec4(in_position, 1.0);
}
` + "\x00"

// LitFragmentShaderSource is Phong lighting applied in linear space: the
// texel is linearized with gamma 2.2, lit, then re-encoded.
var LitFragmentShaderSource = `#version 330 core

layout (location = 0) out vec4 fragColor;

in vec2 uv_0;
in vec3 normal;
in vec3 fragPos;

struct Light {
    vec3 position;
    vec3 Ia;
    vec3 Id;
    vec3 Is;
};

uniform Light light;
uniform sampler2D u_texture_0;
uniform vec3 camPos;

vec3 getLight(vec3 color) {
    vec3 Normal = normalize(normal);

    // ambient light
    vec3 ambient = light.Ia;

    // diffuse light
    vec3 lightDir = normalize(light.position - fragPos);
    float diff = max(dot(lightDir, Normal), 0.0);
    vec3 diffuse = diff * light.Id;

    // specular light
    vec3 viewDir = normalize(camPos - fragPos);
    vec3 reflectDir = reflect(-lightDir, Normal);
    float spec = pow(max(dot(viewDir, reflectDir), 0.0), 32.0);
    vec3 specular = spec * light.Is;

    return color * (ambient + diffuse + specular);
}

void main() {
    float gamma = 2.2;
    vec3 color = texture(u_texture_0, uv_0).rgb;
    color = pow(color, vec3(gamma));

    color = getLight(color);

    color = pow(color, 1.0 / vec3(gamma));
    fragColor = vec4(color, 1.0);
}
` + "\x00"

// UnlitFragmentShaderSource outputs the texel unchanged.
var UnlitFragmentShaderSource = `#version 330 core

layout (location = 0) out vec4 fragColor;

in vec2 uv_0;
in vec3 normal;
in vec3 fragPos;

uniform sampler2D u_texture_0;

void main() {
    vec3 color = texture(u_texture_0, uv_0).rgb;
    fragColor = vec4(color, 1.0);
}
` + "\x00"
