package renderer

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/trails/gpu"
)

// Compositor accumulates particle frames into a double-buffered trail.
type Compositor struct {
	dev   *gpu.Device
	chain *gpu.SwapChain
}

// NewCompositor allocates a size x size trail swap chain.
func NewCompositor(dev *gpu.Device, size int) (*Compositor, error) {
	chain, err := dev.NewSwapChain("renderer.trail", size, size)
	if err != nil {
		return nil, fmt.Errorf("allocating trail buffers: %w", err)
	}
	return &Compositor{dev: dev, chain: chain}, nil
}

// Composite blends cur over the current trail into the out surface, then
// swaps so the result becomes readable. Output alpha is always 1.
func (c *Compositor) Composite(cur *gpu.Texture) error {
	prev, out := c.chain.Read(), c.chain.Out()
	if cur.Width != out.Width || cur.Height != out.Height {
		return fmt.Errorf("composite %s (%dx%d) into %dx%d trail: size mismatch",
			cur.Label, cur.Width, cur.Height, out.Width, out.Height)
	}

	c.dev.Dispatch(out, func(x, y int, _ mgl32.Vec2) mgl32.Vec4 {
		p := prev.Texel(x, y)
		s := cur.Texel(x, y)
		a := s[3]
		return mgl32.Vec4{
			p[0]*(1-a) + s[0]*a,
			p[1]*(1-a) + s[1]*a,
			p[2]*(1-a) + s[2]*a,
			1,
		}
	})

	c.chain.Swap()
	return nil
}

// Read returns the trail surface written by the last Composite.
func (c *Compositor) Read() *gpu.Texture { return c.chain.Read() }

// Chain returns the underlying swap chain.
func (c *Compositor) Chain() *gpu.SwapChain { return c.chain }

// Release returns both trail surfaces to the device.
func (c *Compositor) Release() {
	c.chain.Release(c.dev)
}

// Overlay writes base with trail mixed on top by trail alpha scaled by opacity.
// When all three textures share a size, texels are read directly. Otherwise
// base and trail are sampled bilinearly across dst's extent. Base is not read
// where the trail fully covers it.
func Overlay(dev *gpu.Device, dst, base, trail *gpu.Texture, opacity float32) {
	if sameSize(dst, base) && sameSize(dst, trail) {
		overlayTexels(dev, dst, base, trail, opacity)
		return
	}

	dev.Dispatch(dst, func(_, _ int, uv mgl32.Vec2) mgl32.Vec4 {
		t := trail.Sample(uv, gpu.FilterLinear)
		a := t[3] * opacity
		if a >= 1 {
			return mgl32.Vec4{t[0], t[1], t[2], 1}
		}
		b := base.Sample(uv, gpu.FilterLinear)
		return mgl32.Vec4{
			b[0]*(1-a) + t[0]*a,
			b[1]*(1-a) + t[1]*a,
			b[2]*(1-a) + t[2]*a,
			1,
		}
	})
}

// overlayTexels is Overlay for same-sized textures, one texel per texel.
func overlayTexels(dev *gpu.Device, dst, base, trail *gpu.Texture, opacity float32) {
	stride := dst.Width * 4
	dev.Parallel(dst.Height, func(y0, y1 int) {
		d, b, t := dst.Pix, base.Pix, trail.Pix
		for i := y0 * stride; i < y1*stride; i += 4 {
			a := t[i+3] * opacity
			if a >= 1 {
				d[i], d[i+1], d[i+2] = t[i], t[i+1], t[i+2]
			} else {
				d[i] = b[i]*(1-a) + t[i]*a
				d[i+1] = b[i+1]*(1-a) + t[i+1]*a
				d[i+2] = b[i+2]*(1-a) + t[i+2]*a
			}
			d[i+3] = 1
		}
	})
}

func sameSize(a, b *gpu.Texture) bool {
	return a.Width == b.Width && a.Height == b.Height
}
