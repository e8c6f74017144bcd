package renderer

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestScreenToRayCentre(t *testing.T) {
	scene := testScene()

	ray := ScreenToRay(scene.Camera, testSize/2, testSize/2, testSize, testSize)

	if ray.Origin != scene.Camera.Position {
		t.Errorf("Ray should start at the camera, got %v", ray.Origin)
	}
	if !ray.Direction.ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-4) {
		t.Errorf("Centre ray should point down -Z, got %v", ray.Direction)
	}
}

func TestRayIntersectSphere(t *testing.T) {
	ray := Ray{Origin: mgl32.Vec3{0, 0, 5}, Direction: mgl32.Vec3{0, 0, -1}}

	hit, dist := RayIntersectSphere(ray, mgl32.Vec3{}, 1)
	if !hit || math.Abs(float64(dist-4)) > 1e-5 {
		t.Errorf("Expected hit at 4, got %v %f", hit, dist)
	}

	inside := Ray{Origin: mgl32.Vec3{}, Direction: mgl32.Vec3{1, 0, 0}}
	hit, dist = RayIntersectSphere(inside, mgl32.Vec3{}, 2)
	if !hit || math.Abs(float64(dist-2)) > 1e-5 {
		t.Errorf("Ray from inside should hit the far side at 2, got %v %f", hit, dist)
	}

	if hit, _ := RayIntersectSphere(ray, mgl32.Vec3{0, 0, 10}, 1); hit {
		t.Error("Sphere behind the ray should not be hit")
	}
	if hit, _ := RayIntersectSphere(ray, mgl32.Vec3{5, 0, 0}, 1); hit {
		t.Error("Sphere off to the side should not be hit")
	}
}

func TestRayIntersectTriangle(t *testing.T) {
	ray := Ray{Origin: mgl32.Vec3{0.1, 0.1, 2}, Direction: mgl32.Vec3{0, 0, -1}}
	v0, v1, v2 := mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{1, -1, 0}, mgl32.Vec3{0, 1, 0}

	hit, dist := RayIntersectTriangle(ray, v0, v1, v2)
	if !hit || math.Abs(float64(dist-2)) > 1e-5 {
		t.Errorf("Expected hit at 2, got %v %f", hit, dist)
	}

	parallel := Ray{Origin: mgl32.Vec3{0, 0, 2}, Direction: mgl32.Vec3{1, 0, 0}}
	if hit, _ := RayIntersectTriangle(parallel, v0, v1, v2); hit {
		t.Error("Parallel ray should miss")
	}

	miss := Ray{Origin: mgl32.Vec3{3, 3, 2}, Direction: mgl32.Vec3{0, 0, -1}}
	if hit, _ := RayIntersectTriangle(miss, v0, v1, v2); hit {
		t.Error("Ray outside the triangle should miss")
	}
}

func TestScenePick(t *testing.T) {
	scene := testScene()
	near := NewModel("near", quad(0.5, false))
	far := NewModel("far", quad(0, false))
	scene.AddModel(far)
	scene.AddModel(near)

	ray := ScreenToRay(scene.Camera, testSize/2, testSize/2, testSize, testSize)
	hit, ok := scene.Pick(ray)
	if !ok {
		t.Fatal("Expected a hit")
	}
	if hit.Model != near {
		t.Errorf("Expected the nearest model, got %q", hit.Model.Name)
	}
	if math.Abs(float64(hit.Distance-2.5)) > 1e-3 {
		t.Errorf("Expected distance 2.5, got %f", hit.Distance)
	}

	if _, ok := scene.Pick(ScreenToRay(scene.Camera, 0, 0, testSize, testSize)); ok {
		t.Error("Corner ray should miss both quads")
	}
}
