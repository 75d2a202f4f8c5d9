package assets

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// patternFunc returns an RGB color in [0,1] for normalized coordinates in [0,1].
type patternFunc func(u, v float64) (r, g, b float64)

var patterns = []struct {
	name string
	fn   patternFunc
}{
	{"rings", rings},
	{"stripes", stripes},
	{"checker", checker},
	{"sun", sun},
}

// Procedural builds a gallery of n synthetic size x size images, used when no
// image paths are configured. Patterns repeat after the built-in set is exhausted.
func Procedural(n, size int) []*Image {
	gallery := make([]*Image, 0, n)
	for i := 0; i < n; i++ {
		p := patterns[i%len(patterns)]
		img := image.NewNRGBA(image.Rect(0, 0, size, size))
		phase := float64(i / len(patterns))
		for y := 0; y < size; y++ {
			v := (float64(y) + 0.5) / float64(size)
			for x := 0; x < size; x++ {
				u := (float64(x) + 0.5) / float64(size)
				r, g, b := p.fn(math.Mod(u+phase*0.37, 1), v)
				img.SetNRGBA(x, y, color.NRGBA{
					R: unit(r),
					G: unit(g),
					B: unit(b),
					A: 255,
				})
			}
		}
		gallery = append(gallery, &Image{
			Path: fmt.Sprintf("procedural:%s:%d", p.name, i),
			Img:  img,
		})
	}
	return gallery
}

func rings(u, v float64) (float64, float64, float64) {
	d := math.Hypot(u-0.5, v-0.5)
	s := 0.5 + 0.5*math.Sin(d*60)
	return s, 0.4 * s, 1 - s
}

func stripes(u, v float64) (float64, float64, float64) {
	s := 0.5 + 0.5*math.Sin((u+v)*40)
	return 0.2 + 0.8*u, s, 0.3 + 0.5*v
}

func checker(u, v float64) (float64, float64, float64) {
	cx := int(u*8) % 2
	cy := int(v*8) % 2
	if cx == cy {
		return 0.95, 0.9, 0.8
	}
	return 0.1, 0.15, 0.3
}

func sun(u, v float64) (float64, float64, float64) {
	d := math.Hypot(u-0.5, v-0.45)
	glow := math.Exp(-d * d * 18)
	return glow, 0.6 * glow, 0.2 + 0.3*(1-v)
}

func unit(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
