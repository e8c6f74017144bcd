package renderer

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Ray is a half line in world space. Direction is unit length.
type Ray struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// Hit describes the closest surface a ray meets.
type Hit struct {
	Model    *Model
	Triangle int
	Distance float32
	Point    mgl32.Vec3
}

// ScreenToRay converts a pixel position (origin top-left) to the world-space
// ray through it.
func ScreenToRay(camera *Camera, screenX, screenY float32, windowWidth, windowHeight int) Ray {
	// Normalize screen coordinates to NDC (-1 to 1)
	ndcX := 2.0*screenX/float32(windowWidth) - 1.0
	ndcY := 1.0 - 2.0*screenY/float32(windowHeight)

	// Transform from clip space to eye space
	eyeCoords := camera.Projection.Inv().Mul4x1(mgl32.Vec4{ndcX, ndcY, -1.0, 1.0})
	eyeCoords = mgl32.Vec4{eyeCoords.X(), eyeCoords.Y(), -1.0, 0.0}

	// Transform from eye space to world space
	worldDir := camera.GetViewMatrix().Inv().Mul4x1(eyeCoords).Vec3().Normalize()

	return Ray{
		Origin:    camera.Position,
		Direction: worldDir,
	}
}

// RayIntersectSphere returns the distance to the nearest intersection in front
// of the ray origin.
func RayIntersectSphere(ray Ray, sphereCenter mgl32.Vec3, radius float32) (bool, float32) {
	oc := ray.Origin.Sub(sphereCenter)

	a := ray.Direction.Dot(ray.Direction)
	b := 2.0 * oc.Dot(ray.Direction)
	c := oc.Dot(oc) - radius*radius

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return false, 0
	}

	sqrtDisc := float32(math.Sqrt(float64(discriminant)))
	t1 := (-b - sqrtDisc) / (2 * a)
	t2 := (-b + sqrtDisc) / (2 * a)

	switch {
	case t1 > 0:
		return true, t1 // t1 <= t2
	case t2 > 0:
		return true, t2 // Origin inside the sphere
	default:
		return false, 0
	}
}

// RayIntersectTriangle uses the Möller-Trumbore algorithm. Both windings are
// hit.
func RayIntersectTriangle(ray Ray, v0, v1, v2 mgl32.Vec3) (bool, float32) {
	const epsilon = 0.0000001

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	if a > -epsilon && a < epsilon {
		return false, 0 // Ray is parallel to triangle
	}

	f := 1.0 / a
	s := ray.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return false, 0
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return false, 0
	}

	t := f * edge2.Dot(q)
	if t > epsilon {
		return true, t
	}
	return false, 0 // Line intersection but not ray intersection
}

// Pick returns the closest model triangle hit by ray. Models whose bounding
// sphere the ray misses are skipped without testing their triangles.
func (s *Scene) Pick(ray Ray) (Hit, bool) {
	var best Hit
	found := false

	for _, model := range s.Models {
		if model == nil || model.Mesh == nil {
			continue
		}
		center, radius := model.BoundingSphere()
		if ok, _ := RayIntersectSphere(ray, center, radius); !ok {
			continue
		}

		m := model.ModelMatrix()
		for i := 0; i < model.Mesh.TriangleCount(); i++ {
			tri := model.Mesh.Triangle(i)
			v0 := m.Mul4x1(tri[0].Position.Vec4(1)).Vec3()
			v1 := m.Mul4x1(tri[1].Position.Vec4(1)).Vec3()
			v2 := m.Mul4x1(tri[2].Position.Vec4(1)).Vec3()

			ok, t := RayIntersectTriangle(ray, v0, v1, v2)
			if !ok || (found && t >= best.Distance) {
				continue
			}
			best = Hit{
				Model:    model,
				Triangle: i,
				Distance: t,
				Point:    ray.Origin.Add(ray.Direction.Mul(t)),
			}
			found = true
		}
	}
	return best, found
}
