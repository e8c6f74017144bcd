package texture

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
)

type Wrap int

const (
	WrapRepeat Wrap = iota
	WrapClamp
)

// LoadOptions controls how image files become textures.
type LoadOptions struct {
	MaxSize int // longest side in pixels, 0 keeps the source size
	Filter  Filter
	Wrap    Wrap
}

// DefaultLoadOptions samples bilinearly with repeat wrapping and limits
// textures to 4096 pixels on a side.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{MaxSize: 4096, Filter: FilterLinear, Wrap: WrapRepeat}
}

// Texture is an 8-bit RGB image stored bottom row first, so texture
// coordinate (0, 0) addresses the bottom-left texel like an OpenGL upload.
type Texture struct {
	Name   string
	Filter Filter
	Wrap   Wrap
	img    *image.RGBA
}

// Load decodes an image file into a texture.
func Load(path string, opts LoadOptions) (*Texture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	if opts.MaxSize > 0 {
		img = downscale(img, opts.MaxSize)
	}

	tex := FromImage(path, img)
	tex.Filter = opts.Filter
	tex.Wrap = opts.Wrap
	return tex, nil
}

// FromImage copies img into a new texture, flipping it vertically.
func FromImage(name string, img image.Image) *Texture {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	flipRows(rgba)
	return &Texture{Name: name, img: rgba}
}

// Width returns the texture width in texels.
func (t *Texture) Width() int { return t.img.Rect.Dx() }

// Height returns the texture height in texels.
func (t *Texture) Height() int { return t.img.Rect.Dy() }

// RGBA exposes the bottom-row-first pixel data for GPU upload.
func (t *Texture) RGBA() *image.RGBA { return t.img }

// Sample returns the display-space color at uv. Alpha is ignored.
func (t *Texture) Sample(uv mgl32.Vec2) mgl32.Vec3 {
	w, h := t.Width(), t.Height()
	if w == 0 || h == 0 {
		return mgl32.Vec3{}
	}

	x := float64(uv[0]) * float64(w)
	y := float64(uv[1]) * float64(h)

	if t.Filter == FilterNearest {
		return t.texel(int(math.Floor(x)), int(math.Floor(y)))
	}

	// Texel centres sit at half-integer coordinates.
	x -= 0.5
	y -= 0.5
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := float32(x-x0), float32(y-y0)
	ix, iy := int(x0), int(y0)

	c00 := t.texel(ix, iy)
	c10 := t.texel(ix+1, iy)
	c01 := t.texel(ix, iy+1)
	c11 := t.texel(ix+1, iy+1)

	bottom := c00.Mul(1 - fx).Add(c10.Mul(fx))
	top := c01.Mul(1 - fx).Add(c11.Mul(fx))
	return bottom.Mul(1 - fy).Add(top.Mul(fy))
}

func (t *Texture) texel(x, y int) mgl32.Vec3 {
	x = t.wrap(x, t.Width())
	y = t.wrap(y, t.Height())
	i := t.img.PixOffset(x, y)
	p := t.img.Pix[i : i+3 : i+3]
	return mgl32.Vec3{float32(p[0]) / 255, float32(p[1]) / 255, float32(p[2]) / 255}
}

func (t *Texture) wrap(i, n int) int {
	if t.Wrap == WrapClamp {
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
	return ((i % n) + n) % n
}

// Solid is a sampler that returns the same color everywhere without
// quantizing it.
type Solid mgl32.Vec3

func NewSolid(color mgl32.Vec3) Solid { return Solid(color) }

func (s Solid) Sample(mgl32.Vec2) mgl32.Vec3 { return mgl32.Vec3(s) }

func flipRows(img *image.RGBA) {
	h := img.Rect.Dy()
	row := make([]byte, img.Stride)
	for y := 0; y < h/2; y++ {
		top := img.Pix[y*img.Stride : (y+1)*img.Stride]
		bottom := img.Pix[(h-1-y)*img.Stride : (h-y)*img.Stride]
		copy(row, top)
		copy(top, bottom)
		copy(bottom, row)
	}
}

func downscale(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSize && h <= maxSize {
		return img
	}
	scale := float64(maxSize) / float64(max(w, h))
	dw := max(1, int(float64(w)*scale))
	dh := max(1, int(float64(h)*scale))
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
