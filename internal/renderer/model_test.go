package renderer

import (
	"image/color"
	"math"
	"testing"

	"GopherShade/internal/shading"
	"GopherShade/internal/texture"

	"github.com/go-gl/mathgl/mgl32"
)

func TestMeshTriangles(t *testing.T) {
	mesh := quad(0, false)

	if mesh.TriangleCount() != 2 {
		t.Fatalf("Expected 2 triangles, got %d", mesh.TriangleCount())
	}

	tri := mesh.Triangle(1)
	if tri[2].Position != (mgl32.Vec3{-1, 1, 0}) {
		t.Errorf("Unexpected third vertex of second triangle: %v", tri[2].Position)
	}

	flat := &Mesh{Vertices: mesh.Vertices[:3]}
	if flat.TriangleCount() != 1 {
		t.Errorf("Non-indexed mesh should have 1 triangle, got %d", flat.TriangleCount())
	}
}

func TestMeshInterleaved(t *testing.T) {
	mesh := quad(0, false)
	data := mesh.Interleaved()

	if len(data) != len(mesh.Vertices)*FloatsPerVertex {
		t.Fatalf("Expected %d floats, got %d", len(mesh.Vertices)*FloatsPerVertex, len(data))
	}

	// Second vertex: position, uv, normal.
	want := []float32{1, -1, 0, 1, 0, 0, 0, 1}
	for i, v := range want {
		if data[FloatsPerVertex+i] != v {
			t.Errorf("float %d: expected %f, got %f", i, v, data[FloatsPerVertex+i])
		}
	}
}

func TestMeshBoundingSphere(t *testing.T) {
	center, radius := quad(0, false).BoundingSphere()

	if center != (mgl32.Vec3{0, 0, 0}) {
		t.Errorf("Expected centre at origin, got %v", center)
	}
	if math.Abs(float64(radius)-math.Sqrt2) > 1e-5 {
		t.Errorf("Expected radius sqrt(2), got %f", radius)
	}

	empty := &Mesh{}
	if _, r := empty.BoundingSphere(); r != 0 {
		t.Errorf("Empty mesh should have zero radius, got %f", r)
	}
}

func TestModelMatrix(t *testing.T) {
	model := NewModel("cube", quad(0, false))
	if model.ModelMatrix() != mgl32.Ident4() {
		t.Error("New model should have identity transform")
	}

	model.SetScale(2, 2, 2)
	model.Rotate(0, 90, 0)
	model.SetPosition(1, 0, 0)

	p := model.ModelMatrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	// Scale to (2,0,0), rotate about Y to (0,0,-2), translate.
	if !p.ApproxEqualThreshold(mgl32.Vec3{1, 0, -2}, 1e-5) {
		t.Errorf("Expected (1,0,-2), got %v", p)
	}
}

func TestModelBoundingSphere(t *testing.T) {
	model := NewModel("quad", quad(0, false))
	model.SetPosition(0, 0, -4)
	model.SetScale(1, 3, 1)

	center, radius := model.BoundingSphere()
	if center != (mgl32.Vec3{0, 0, -4}) {
		t.Errorf("Expected centre (0,0,-4), got %v", center)
	}
	if math.Abs(float64(radius)-3*math.Sqrt2) > 1e-5 {
		t.Errorf("Expected radius scaled by 3, got %f", radius)
	}
}

func TestSceneUniforms(t *testing.T) {
	scene := testScene()
	model := NewModel("quad", quad(0, false))
	scene.AddModel(model)

	u := scene.Uniforms(model)
	if u.CamPos != scene.Camera.Position {
		t.Errorf("Expected camPos %v, got %v", scene.Camera.Position, u.CamPos)
	}
	if got := u.Texture.Sample(mgl32.Vec2{0.3, 0.7}); got != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("Untextured model should sample white, got %v", got)
	}
	if u.Light != shading.DefaultLight() {
		t.Error("Scene should start with the default light")
	}

	model.Texture = texture.NewSolid(mgl32.Vec3{0, 1, 0})
	if got := scene.Uniforms(model).Texture.Sample(mgl32.Vec2{}); got != (mgl32.Vec3{0, 1, 0}) {
		t.Errorf("Expected model texture, got %v", got)
	}

	scene.RemoveModel(model)
	if len(scene.Models) != 0 {
		t.Errorf("Expected no models after removal, got %d", len(scene.Models))
	}
}

func TestFramebufferToImage(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	fb.Clear(mgl32.Vec3{0, 0, 0})
	nan := float32(math.NaN())

	fb.Set(0, 0, mgl32.Vec4{1.5, 0.5, -0.2, 1})
	fb.Set(1, 0, mgl32.Vec4{nan, 1, 0, 1})

	img := fb.ToImage()

	if got := img.RGBAAt(0, 0); got != (color.RGBA{255, 128, 0, 255}) {
		t.Errorf("Expected clamped and rounded pixel, got %v", got)
	}
	if got := img.RGBAAt(1, 0); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("NaN should quantize to 0, got %v", got)
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{0, 0, 0, 255}) {
		t.Errorf("Expected cleared pixel, got %v", got)
	}
	for i, d := range fb.Depth {
		if d != 1 {
			t.Errorf("Depth %d should be cleared to 1, got %f", i, d)
		}
	}
}
