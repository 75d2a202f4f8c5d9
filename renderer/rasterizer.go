package renderer

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/trails/camera"
	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/gpu"
)

// Params holds the rasterizer's fixed parameters.
type Params struct {
	OutputSize int
	WorldW     float32
	WorldH     float32

	// Size curve: rate = clamp(1 - t*ShrinkRate, SizeFloor, SizeCeil)
	ShrinkRate float32
	SizeFloor  float32
	SizeCeil   float32

	// Fragment alpha is clamp(EdgeAlpha/size, 0, 1) times the source alpha
	EdgeAlpha float32
	// Fragments farther than DotRadius (normalized) from the quad center are discarded
	DotRadius float32
}

// ParamsFromConfig extracts rasterizer parameters from the configuration.
func ParamsFromConfig(cfg *config.Config) Params {
	p := cfg.Particles
	return Params{
		OutputSize: cfg.Compositor.OutputSize,
		WorldW:     cfg.Derived.WorldW32,
		WorldH:     cfg.Derived.WorldH32,
		ShrinkRate: float32(p.ShrinkRate),
		SizeFloor:  float32(p.SizeFloor),
		SizeCeil:   float32(p.SizeCeil),
		EdgeAlpha:  float32(p.EdgeAlpha),
		DotRadius:  float32(p.DotRadius),
	}
}

// sprite is the vertex stage output for one quad, in buffer pixels.
type sprite struct {
	x0, y0, x1, y1 float32
	color          mgl32.Vec3
	alpha          float32
}

// Rasterizer draws one dot per particle into the particle buffer.
type Rasterizer struct {
	dev    *gpu.Device
	params Params
	geom   *Geometry
	cam    *camera.Ortho
	target *gpu.Texture

	sprites []sprite
}

// NewRasterizer allocates the particle buffer.
func NewRasterizer(dev *gpu.Device, params Params, geom *Geometry) (*Rasterizer, error) {
	target, err := dev.NewTexture("renderer.particles", params.OutputSize, params.OutputSize)
	if err != nil {
		return nil, fmt.Errorf("allocating particle buffer: %w", err)
	}
	size := float32(params.OutputSize)
	return &Rasterizer{
		dev:     dev,
		params:  params,
		geom:    geom,
		cam:     camera.New(params.WorldW, params.WorldH, size, size),
		target:  target,
		sprites: make([]sprite, geom.Len()),
	}, nil
}

// Target returns the particle buffer.
func (r *Rasterizer) Target() *gpu.Texture { return r.target }

// Geometry returns the quad geometry.
func (r *Rasterizer) Geometry() *Geometry { return r.geom }

// SizeRate returns the size multiplier at time t.
func (r *Rasterizer) SizeRate(t float32) float32 {
	return mgl32.Clamp(1-t*r.params.ShrinkRate, r.params.SizeFloor, r.params.SizeCeil)
}

// Draw clears the particle buffer and draws every particle from the given
// state fields. base supplies particle colors, looked up at each particle's
// spawn position. t is the rasterizer clock.
func (r *Rasterizer) Draw(pos, vel, base *gpu.Texture, t float32) {
	r.target.Fill(mgl32.Vec4{})

	rate := r.SizeRate(t)
	r.dev.Parallel(r.geom.Len(), func(start, end int) {
		for i := start; i < end; i++ {
			r.sprites[i] = r.vertex(i, pos, vel, base, rate)
		}
	})

	r.dev.Parallel(r.target.Height, func(y0, y1 int) {
		for i := range r.sprites {
			if r.sprites[i].alpha > 0 {
				r.fragment(&r.sprites[i], y0, y1)
			}
		}
	})
}

// vertex computes quad i's screen rectangle and color.
func (r *Rasterizer) vertex(i int, pos, vel, base *gpu.Texture, rate float32) sprite {
	x, y := r.geom.Texel(i)
	p := pos.Texel(x, y)
	v := vel.Texel(x, y)

	// Freshly spawned particles have no spawn record yet
	if p[3] == p[2] || p[2] == 0 {
		return sprite{}
	}

	spawnUV := mgl32.Vec2{
		(v[2] + r.params.WorldW/2) / r.params.WorldW,
		(v[3] + r.params.WorldH/2) / r.params.WorldH,
	}
	c := base.Sample(spawnUV, gpu.FilterLinear)

	size := r.geom.Quads[i].Size * rate
	half := 0.5 * size * p[3] / p[2]
	ppuX, ppuY := r.cam.PixelsPerUnit()
	cx, cy := r.cam.WorldToScreen(p[0], p[1])

	alpha := mgl32.Clamp(r.params.EdgeAlpha/size, 0, 1) * c[3]
	return sprite{
		x0:    cx - half*ppuX,
		y0:    cy - half*ppuY,
		x1:    cx + half*ppuX,
		y1:    cy + half*ppuY,
		color: c.Vec3(),
		alpha: alpha,
	}
}

// fragment shades and blends the pixels of s whose centers fall inside it,
// restricted to rows [rowStart, rowEnd).
func (r *Rasterizer) fragment(s *sprite, rowStart, rowEnd int) {
	w := s.x1 - s.x0
	h := s.y1 - s.y0
	if w <= 0 || h <= 0 {
		return
	}

	tex := r.target
	ya := max(pixelStart(s.y0), rowStart)
	yb := min(pixelStart(s.y1), rowEnd)
	xa := max(pixelStart(s.x0), 0)
	xb := min(pixelStart(s.x1), tex.Width)

	limit := r.params.DotRadius
	for y := ya; y < yb; y++ {
		v := (float32(y) + 0.5 - s.y0) / h
		row := y * tex.Width * 4
		for x := xa; x < xb; x++ {
			u := (float32(x) + 0.5 - s.x0) / w
			du, dv := u-0.5, v-0.5
			dis := float32(math.Sqrt(float64(du*du+dv*dv))) / 0.5
			if dis > limit {
				continue
			}

			i := row + x*4
			a := s.alpha
			tex.Pix[i] = s.color[0]*a + tex.Pix[i]*(1-a)
			tex.Pix[i+1] = s.color[1]*a + tex.Pix[i+1]*(1-a)
			tex.Pix[i+2] = s.color[2]*a + tex.Pix[i+2]*(1-a)
			tex.Pix[i+3] = a + tex.Pix[i+3]*(1-a)
		}
	}
}

// pixelStart returns the first pixel whose center is at or past edge.
func pixelStart(edge float32) int {
	return int(math.Ceil(float64(edge - 0.5)))
}

// Release returns the particle buffer to the device.
func (r *Rasterizer) Release() {
	r.dev.Release(r.target)
}
