package renderer

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Framebuffer is a float color target with a depth buffer. Row 0 is the top
// of the image.
type Framebuffer struct {
	Width  int
	Height int
	Color  []mgl32.Vec4
	Depth  []float32
}

func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Color:  make([]mgl32.Vec4, width*height),
		Depth:  make([]float32, width*height),
	}
}

// Clear fills the color buffer with c (alpha 1) and resets depth to 1.
func (fb *Framebuffer) Clear(c mgl32.Vec3) {
	background := c.Vec4(1)
	for i := range fb.Color {
		fb.Color[i] = background
		fb.Depth[i] = 1
	}
}

func (fb *Framebuffer) At(x, y int) mgl32.Vec4 {
	return fb.Color[y*fb.Width+x]
}

func (fb *Framebuffer) Set(x, y int, c mgl32.Vec4) {
	fb.Color[y*fb.Width+x] = c
}

// ToImage quantizes the color buffer to 8 bits per channel. Channels are
// clamped to [0, 1]; NaN becomes 0.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			c := fb.At(x, y)
			i := img.PixOffset(x, y)
			img.Pix[i+0] = unorm8(c[0])
			img.Pix[i+1] = unorm8(c[1])
			img.Pix[i+2] = unorm8(c[2])
			img.Pix[i+3] = unorm8(c[3])
		}
	}
	return img
}

func unorm8(v float32) uint8 {
	if math.IsNaN(float64(v)) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
