package texture

import (
	"fmt"
	"image"
	"image/color"

	perlin "github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
)

// stoneTint is the base color of the procedural stone texture.
var stoneTint = mgl32.Vec3{0.62, 0.58, 0.54}

// NewNoise builds a size×size grey stone texture from two octaves of Perlin
// noise. The same seed always produces the same texture.
func NewNoise(size int, seed int64) *Texture {
	if size < 1 {
		size = 1
	}
	coarse := perlin.NewPerlin(2, 2, 3, seed)
	fine := perlin.NewPerlin(2, 2, 2, seed+1)

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			u := float64(x) / float64(size)
			v := float64(y) / float64(size)
			n := 0.5 + 0.35*coarse.Noise2D(u*6, v*6) + 0.15*fine.Noise2D(u*32, v*32)
			n = clamp01(n)
			img.SetRGBA(x, y, color.RGBA{
				R: quantize(float64(stoneTint[0]) * n * 1.4),
				G: quantize(float64(stoneTint[1]) * n * 1.4),
				B: quantize(float64(stoneTint[2]) * n * 1.4),
				A: 255,
			})
		}
	}

	return FromImage(fmt.Sprintf("noise:%d", seed), img)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func quantize(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}
