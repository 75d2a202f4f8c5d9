// Package gpu provides the texture device the render passes run on: RGBA float
// textures, sampling, an allocation registry and a data-parallel dispatcher.
//
// Texture row 0 is the bottom row (v = 0), matching GL texture coordinates.
// Images are flipped vertically on upload and readback.
package gpu

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"
	"golang.org/x/image/draw"
)

// Filter selects how Sample reconstructs values between texel centers.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

// Texture is a 2D grid of RGBA float32 texels.
type Texture struct {
	Width  int
	Height int
	Label  string

	// Pix holds interleaved RGBA texels, row-major from the bottom row.
	Pix []float32

	entity   ecs.Entity
	released bool
}

func newTexture(label string, w, h int) *Texture {
	return &Texture{
		Width:  w,
		Height: h,
		Label:  label,
		Pix:    make([]float32, w*h*4),
	}
}

// Released reports whether the texture's storage was returned to the device.
func (t *Texture) Released() bool {
	return t.released
}

func (t *Texture) offset(x, y int) int {
	return (y*t.Width + x) * 4
}

// Texel returns the texel at (x, y), clamping coordinates to the edge.
func (t *Texture) Texel(x, y int) mgl32.Vec4 {
	x = clampInt(x, 0, t.Width-1)
	y = clampInt(y, 0, t.Height-1)
	i := t.offset(x, y)
	return mgl32.Vec4{t.Pix[i], t.Pix[i+1], t.Pix[i+2], t.Pix[i+3]}
}

// SetTexel writes the texel at (x, y). Out-of-range writes are ignored.
func (t *Texture) SetTexel(x, y int, v mgl32.Vec4) {
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return
	}
	i := t.offset(x, y)
	t.Pix[i] = v[0]
	t.Pix[i+1] = v[1]
	t.Pix[i+2] = v[2]
	t.Pix[i+3] = v[3]
}

// UV returns the texture coordinate of the center of texel (x, y).
func (t *Texture) UV(x, y int) mgl32.Vec2 {
	return mgl32.Vec2{
		(float32(x) + 0.5) / float32(t.Width),
		(float32(y) + 0.5) / float32(t.Height),
	}
}

// Sample reads the texture at uv with clamp-to-edge addressing.
func (t *Texture) Sample(uv mgl32.Vec2, filter Filter) mgl32.Vec4 {
	if filter == FilterNearest {
		x := int(math.Floor(float64(uv[0] * float32(t.Width))))
		y := int(math.Floor(float64(uv[1] * float32(t.Height))))
		return t.Texel(x, y)
	}

	fx := uv[0]*float32(t.Width) - 0.5
	fy := uv[1]*float32(t.Height) - 0.5
	x0f := float32(math.Floor(float64(fx)))
	y0f := float32(math.Floor(float64(fy)))
	tx := fx - x0f
	ty := fy - y0f
	x0, y0 := int(x0f), int(y0f)

	v00 := t.Texel(x0, y0)
	v10 := t.Texel(x0+1, y0)
	v01 := t.Texel(x0, y0+1)
	v11 := t.Texel(x0+1, y0+1)

	bottom := mix4(v00, v10, tx)
	top := mix4(v01, v11, tx)
	return mix4(bottom, top, ty)
}

// Fill sets every texel to v.
func (t *Texture) Fill(v mgl32.Vec4) {
	for i := 0; i < len(t.Pix); i += 4 {
		t.Pix[i] = v[0]
		t.Pix[i+1] = v[1]
		t.Pix[i+2] = v[2]
		t.Pix[i+3] = v[3]
	}
}

// CopyFrom copies src's texels into t. Dimensions must match.
func (t *Texture) CopyFrom(src *Texture) error {
	if src.Width != t.Width || src.Height != t.Height {
		return fmt.Errorf("copy %s (%dx%d) into %s (%dx%d): size mismatch",
			src.Label, src.Width, src.Height, t.Label, t.Width, t.Height)
	}
	copy(t.Pix, src.Pix)
	return nil
}

// Snapshot returns a copy of the texel data.
func (t *Texture) Snapshot() []float32 {
	out := make([]float32, len(t.Pix))
	copy(out, t.Pix)
	return out
}

// Upload converts img to straight-alpha [0,1] texels, flipping it so the image's
// top row lands at v = 1. The image bounds must match the texture size.
func (t *Texture) Upload(img image.Image) error {
	b := img.Bounds()
	if b.Dx() != t.Width || b.Dy() != t.Height {
		return fmt.Errorf("upload %dx%d image into %s (%dx%d): size mismatch",
			b.Dx(), b.Dy(), t.Label, t.Width, t.Height)
	}

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	for row := 0; row < t.Height; row++ {
		y := t.Height - 1 - row
		for x := 0; x < t.Width; x++ {
			c := nrgba.NRGBAAt(x, row)
			t.SetTexel(x, y, mgl32.Vec4{
				float32(c.R) / 255,
				float32(c.G) / 255,
				float32(c.B) / 255,
				float32(c.A) / 255,
			})
		}
	}
	return nil
}

// Image reads the texture back as an 8-bit image with the top row first.
// Values are clamped to [0,1].
func (t *Texture) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, t.Width, t.Height))
	for row := 0; row < t.Height; row++ {
		y := t.Height - 1 - row
		for x := 0; x < t.Width; x++ {
			v := t.Texel(x, y)
			img.SetNRGBA(x, row, color.NRGBA{
				R: toByte(v[0]),
				G: toByte(v[1]),
				B: toByte(v[2]),
				A: toByte(v[3]),
			})
		}
	}
	return img
}

// RGBA appends the texture's texels as 8-bit colors, top row first, to dst.
// Used for uploading to display textures without an intermediate image.
func (t *Texture) RGBA(dst []color.RGBA) []color.RGBA {
	dst = dst[:0]
	for row := 0; row < t.Height; row++ {
		y := t.Height - 1 - row
		for x := 0; x < t.Width; x++ {
			i := t.offset(x, y)
			dst = append(dst, color.RGBA{
				R: toByte(t.Pix[i]),
				G: toByte(t.Pix[i+1]),
				B: toByte(t.Pix[i+2]),
				A: toByte(t.Pix[i+3]),
			})
		}
	}
	return dst
}

func mix4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}

func toByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
