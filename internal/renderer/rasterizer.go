package renderer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"GopherShade/internal/logger"
	"GopherShade/internal/shading"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Config controls the software rasterizer.
type Config struct {
	TileSize       int  // Tile edge in pixels
	Workers        int  // Concurrent tile workers
	CullBackFaces  bool // Drop triangles that are clockwise in NDC
	FrustumCulling bool // Skip models whose bounding sphere is outside the view
}

func DefaultConfig() Config {
	return Config{
		TileSize:       32,
		Workers:        runtime.NumCPU(),
		CullBackFaces:  true,
		FrustumCulling: true,
	}
}

// Rasterizer renders a Scene into a Framebuffer on the CPU, running the same
// fragment shaders as the GPU path. Tiles own disjoint pixels and are shaded
// concurrently on a worker pool.
type Rasterizer struct {
	config Config
	pool   pond.Pool
}

func NewRasterizer(config Config) *Rasterizer {
	defaults := DefaultConfig()
	if config.TileSize <= 0 {
		config.TileSize = defaults.TileSize
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	return &Rasterizer{
		config: config,
		pool:   pond.NewPool(config.Workers),
	}
}

func (r *Rasterizer) Config() Config {
	return r.config
}

// Close stops the worker pool after running tasks finish.
func (r *Rasterizer) Close() {
	r.pool.StopAndWait()
}

// drawState is shared by every triangle of one model.
type drawState struct {
	shader   shading.FragmentShader
	uniforms shading.Uniforms
}

// rasterVertex holds window coordinates plus varyings pre-divided by w for
// perspective-correct interpolation.
type rasterVertex struct {
	x, y, z  float32
	invW     float32
	texCoord mgl32.Vec2
	normal   mgl32.Vec3
	position mgl32.Vec3
}

type rasterTriangle struct {
	v                      [3]rasterVertex
	area                   float32
	minX, minY, maxX, maxY int
	draw                   *drawState
}

type tileCounters struct {
	fragments     atomic.Int64
	depthRejected atomic.Int64
}

// Render clears fb to the scene clear color and draws every model. It returns
// ctx.Err() if the context is cancelled before all tiles are shaded; fb then
// holds a partial image.
func (r *Rasterizer) Render(ctx context.Context, scene *Scene, fb *Framebuffer) (RenderStats, error) {
	start := time.Now()
	var stats RenderStats

	if scene == nil || scene.Camera == nil {
		return stats, fmt.Errorf("render: scene has no camera")
	}
	if fb.Width <= 0 || fb.Height <= 0 {
		return stats, fmt.Errorf("render: invalid framebuffer size %dx%d", fb.Width, fb.Height)
	}

	fb.Clear(scene.ClearColor)
	triangles := r.setup(scene, fb.Width, fb.Height, &stats)

	tiles := NewTileGrid(fb.Width, fb.Height, r.config.TileSize)
	stats.Tiles = len(tiles)

	var counters tileCounters
	group := r.pool.NewGroup()
	for _, tile := range tiles {
		tile := tile
		group.SubmitErr(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r.renderTile(tile, triangles, fb, &counters)
			return nil
		})
	}
	err := group.Wait()

	stats.Fragments = int(counters.fragments.Load())
	stats.DepthRejected = int(counters.depthRejected.Load())
	stats.Duration = time.Since(start)

	if err != nil {
		logger.Log.Warn("Render interrupted", zap.Error(err), zap.Int("fragments", stats.Fragments))
		return stats, err
	}

	logger.Log.Debug("Frame rendered",
		zap.Int("width", fb.Width),
		zap.Int("height", fb.Height),
		zap.Int("tiles", stats.Tiles),
		zap.Int("triangles", stats.Triangles),
		zap.Int("culled", stats.Culled),
		zap.Int("fragments", stats.Fragments),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}

// setup runs the vertex stage for every model and returns the triangles that
// survive culling, in submission order.
func (r *Rasterizer) setup(scene *Scene, width, height int, stats *RenderStats) []rasterTriangle {
	viewProjection := scene.Camera.GetViewProjection()

	var frustum Frustum
	if r.config.FrustumCulling {
		frustum = scene.Camera.CalculateFrustum()
	}

	var triangles []rasterTriangle
	for _, model := range scene.Models {
		if model == nil || model.Mesh == nil {
			continue
		}
		stats.Models++

		if r.config.FrustumCulling {
			center, radius := model.BoundingSphere()
			if !frustum.IntersectsSphere(center, radius) {
				stats.ModelsCulled++
				continue
			}
		}

		modelMatrix := model.ModelMatrix()
		normalMatrix := modelMatrix.Mat3()
		draw := &drawState{
			shader:   model.Mode.Shader(),
			uniforms: scene.Uniforms(model),
		}

		for i := 0; i < model.Mesh.TriangleCount(); i++ {
			stats.Triangles++
			tri, ok := r.setupTriangle(model.Mesh.Triangle(i), modelMatrix, normalMatrix, viewProjection, width, height)
			if !ok {
				stats.Culled++
				continue
			}
			tri.draw = draw
			triangles = append(triangles, tri)
		}
	}
	return triangles
}

func (r *Rasterizer) setupTriangle(verts [3]Vertex, model mgl32.Mat4, normalMatrix mgl32.Mat3, viewProjection mgl32.Mat4, width, height int) (rasterTriangle, bool) {
	var tri rasterTriangle
	var ndc [3]mgl32.Vec3

	for i, v := range verts {
		world := model.Mul4x1(v.Position.Vec4(1))
		clip := viewProjection.Mul4x1(world)
		if clip.W() <= 0 {
			return tri, false // No near-plane clipping
		}
		invW := 1 / clip.W()
		ndc[i] = clip.Vec3().Mul(invW)

		tri.v[i] = rasterVertex{
			x:        (ndc[i].X()*0.5 + 0.5) * float32(width),
			y:        (0.5 - ndc[i].Y()*0.5) * float32(height),
			z:        ndc[i].Z()*0.5 + 0.5,
			invW:     invW,
			texCoord: v.TexCoord.Mul(invW),
			normal:   normalMatrix.Mul3x1(v.Normal).Mul(invW),
			position: world.Vec3().Mul(invW),
		}
	}

	// Counter-clockwise in NDC is front facing.
	ndcArea := (ndc[1].X()-ndc[0].X())*(ndc[2].Y()-ndc[0].Y()) -
		(ndc[2].X()-ndc[0].X())*(ndc[1].Y()-ndc[0].Y())
	if ndcArea == 0 || math.IsNaN(float64(ndcArea)) {
		return tri, false
	}
	if r.config.CullBackFaces && ndcArea < 0 {
		return tri, false
	}

	tri.area = edge(tri.v[0], tri.v[1], tri.v[2].x, tri.v[2].y)

	minX := min(tri.v[0].x, tri.v[1].x, tri.v[2].x)
	maxX := max(tri.v[0].x, tri.v[1].x, tri.v[2].x)
	minY := min(tri.v[0].y, tri.v[1].y, tri.v[2].y)
	maxY := max(tri.v[0].y, tri.v[1].y, tri.v[2].y)

	tri.minX = max(int(math.Floor(float64(minX))), 0)
	tri.minY = max(int(math.Floor(float64(minY))), 0)
	tri.maxX = min(int(math.Ceil(float64(maxX))), width-1)
	tri.maxY = min(int(math.Ceil(float64(maxY))), height-1)
	if tri.minX > tri.maxX || tri.minY > tri.maxY {
		return tri, false
	}
	return tri, true
}

// edge is twice the signed area of (a, b, p).
func edge(a, b rasterVertex, px, py float32) float32 {
	return (b.x-a.x)*(py-a.y) - (b.y-a.y)*(px-a.x)
}

func (r *Rasterizer) renderTile(tile Tile, triangles []rasterTriangle, fb *Framebuffer, counters *tileCounters) {
	var fragments, depthRejected int64
	bounds := tile.Bounds

	for i := range triangles {
		tri := &triangles[i]
		if tri.maxX < bounds.Min.X || tri.minX >= bounds.Max.X ||
			tri.maxY < bounds.Min.Y || tri.minY >= bounds.Max.Y {
			continue
		}

		x0, x1 := max(tri.minX, bounds.Min.X), min(tri.maxX+1, bounds.Max.X)
		y0, y1 := max(tri.minY, bounds.Min.Y), min(tri.maxY+1, bounds.Max.Y)
		v0, v1, v2 := &tri.v[0], &tri.v[1], &tri.v[2]

		for y := y0; y < y1; y++ {
			py := float32(y) + 0.5
			for x := x0; x < x1; x++ {
				px := float32(x) + 0.5

				b0 := edge(*v1, *v2, px, py) / tri.area
				b1 := edge(*v2, *v0, px, py) / tri.area
				b2 := edge(*v0, *v1, px, py) / tri.area
				if b0 < 0 || b1 < 0 || b2 < 0 {
					continue
				}

				z := b0*v0.z + b1*v1.z + b2*v2.z
				if z < 0 || z > 1 {
					continue
				}

				idx := y*fb.Width + x
				if !(z < fb.Depth[idx]) {
					depthRejected++
					continue
				}

				w := 1 / (b0*v0.invW + b1*v1.invW + b2*v2.invW)
				frag := shading.Fragment{
					TexCoord: v0.texCoord.Mul(b0).Add(v1.texCoord.Mul(b1)).Add(v2.texCoord.Mul(b2)).Mul(w),
					Normal:   v0.normal.Mul(b0).Add(v1.normal.Mul(b1)).Add(v2.normal.Mul(b2)).Mul(w),
					Position: v0.position.Mul(b0).Add(v1.position.Mul(b1)).Add(v2.position.Mul(b2)).Mul(w),
				}

				fb.Color[idx] = tri.draw.shader(tri.draw.uniforms, frag)
				fb.Depth[idx] = z
				fragments++
			}
		}
	}

	counters.fragments.Add(fragments)
	counters.depthRejected.Add(depthRejected)
}
