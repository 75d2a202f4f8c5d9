// Package field converts a source image into the luminance and gradient
// fields that steer the particle simulation.
package field

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/trails/gpu"
)

// Extractor owns the luminance and gradient render targets.
// Both are recomputed by Extract and are otherwise immutable.
type Extractor struct {
	dev  *gpu.Device
	step float32 // finite-difference step in uv is 1/step

	luminance *gpu.Texture
	gradient  *gpu.Texture
}

// NewExtractor creates an extractor for w x h sources.
func NewExtractor(dev *gpu.Device, w, h int, step float32) (*Extractor, error) {
	lum, grad, err := allocate(dev, w, h)
	if err != nil {
		return nil, err
	}
	return &Extractor{dev: dev, step: step, luminance: lum, gradient: grad}, nil
}

func allocate(dev *gpu.Device, w, h int) (lum, grad *gpu.Texture, err error) {
	lum, err = dev.NewTexture("field.luminance", w, h)
	if err != nil {
		return nil, nil, fmt.Errorf("allocating luminance field: %w", err)
	}
	grad, err = dev.NewTexture("field.gradient", w, h)
	if err != nil {
		dev.Release(lum)
		return nil, nil, fmt.Errorf("allocating gradient field: %w", err)
	}
	return lum, grad, nil
}

// Extract recomputes both fields from src. Targets are reallocated only when
// the source dimensions change; if that fails the previous fields are kept.
func (e *Extractor) Extract(src *gpu.Texture) error {
	if src.Width != e.luminance.Width || src.Height != e.luminance.Height {
		lum, grad, err := allocate(e.dev, src.Width, src.Height)
		if err != nil {
			return err
		}
		e.Release()
		e.luminance, e.gradient = lum, grad
	}

	e.dev.Dispatch(e.luminance, func(_, _ int, uv mgl32.Vec2) mgl32.Vec4 {
		c := src.Sample(uv, gpu.FilterLinear)
		l := (c[0] + c[1] + c[2]) / 3
		return mgl32.Vec4{l, l, l, 1}
	})

	lum := e.luminance
	du := mgl32.Vec2{1 / e.step, 0}
	dv := mgl32.Vec2{0, 1 / e.step}
	e.dev.Dispatch(e.gradient, func(_, _ int, uv mgl32.Vec2) mgl32.Vec4 {
		main := lum.Sample(uv, gpu.FilterLinear)[0]
		dx := (lum.Sample(uv.Add(du), gpu.FilterLinear)[0] - main + 1) / 2
		dy := (lum.Sample(uv.Add(dv), gpu.FilterLinear)[0] - main + 1) / 2
		return mgl32.Vec4{dx, dy, 0, 1}
	})

	return nil
}

// SetStep changes the finite-difference step used by the next Extract.
func (e *Extractor) SetStep(step float32) { e.step = step }

// Step returns the finite-difference step divisor.
func (e *Extractor) Step() float32 { return e.step }

// Luminance returns the single-channel (replicated to RGB) luminance field.
func (e *Extractor) Luminance() *gpu.Texture { return e.luminance }

// Gradient returns the gradient field: (dx, dy) in [0,1] with 0.5 meaning flat.
func (e *Extractor) Gradient() *gpu.Texture { return e.gradient }

// Release returns both targets to the device.
func (e *Extractor) Release() {
	e.dev.Release(e.luminance)
	e.dev.Release(e.gradient)
}
