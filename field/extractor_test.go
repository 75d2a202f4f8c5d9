package field

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/trails/gpu"
)

func newSource(t *testing.T, dev *gpu.Device, w, h int, fn func(x, y int) mgl32.Vec4) *gpu.Texture {
	t.Helper()
	src, err := dev.NewTexture("source", w, h)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.SetTexel(x, y, fn(x, y))
		}
	}
	return src
}

func TestLuminanceAveragesChannels(t *testing.T) {
	dev := gpu.NewDevice(gpu.Options{Workers: 2})
	defer dev.Dispose()

	src := newSource(t, dev, 8, 8, func(x, y int) mgl32.Vec4 {
		return mgl32.Vec4{0.9, 0.3, 0.0, 1}
	})

	e, err := NewExtractor(dev, 8, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Extract(src); err != nil {
		t.Fatal(err)
	}

	v := e.Luminance().Texel(3, 3)
	if math.Abs(float64(v[0]-0.4)) > 1e-5 || v[0] != v[1] || v[1] != v[2] || v[3] != 1 {
		t.Errorf("luminance = %v, want (0.4, 0.4, 0.4, 1)", v)
	}
}

func TestGradientFlatImageIsHalf(t *testing.T) {
	dev := gpu.NewDevice(gpu.Options{Workers: 2})
	defer dev.Dispose()

	src := newSource(t, dev, 16, 16, func(x, y int) mgl32.Vec4 {
		return mgl32.Vec4{0.25, 0.5, 0.75, 1}
	})

	e, _ := NewExtractor(dev, 16, 16, 16)
	e.Extract(src)

	g := e.Gradient()
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := g.Texel(x, y)
			if math.Abs(float64(v[0]-0.5)) > 1e-6 || math.Abs(float64(v[1]-0.5)) > 1e-6 {
				t.Fatalf("gradient at (%d,%d) = %v, want (0.5, 0.5)", x, y, v)
			}
		}
	}
}

func TestGradientForwardDifference(t *testing.T) {
	dev := gpu.NewDevice(gpu.Options{Workers: 2})
	defer dev.Dispose()

	// Horizontal ramp: luminance increases by 0.1 per texel in x, constant in y
	src := newSource(t, dev, 8, 8, func(x, y int) mgl32.Vec4 {
		l := float32(x) * 0.1
		return mgl32.Vec4{l, l, l, 1}
	})

	// Step of one texel
	e, _ := NewExtractor(dev, 8, 8, 8)
	e.Extract(src)

	v := e.Gradient().Texel(2, 4)
	if math.Abs(float64(v[0]-0.55)) > 1e-5 {
		t.Errorf("dx = %v, want (0.1+1)/2 = 0.55", v[0])
	}
	if math.Abs(float64(v[1]-0.5)) > 1e-5 {
		t.Errorf("dy = %v, want 0.5", v[1])
	}

	// Right edge clamps, so the forward difference vanishes
	edge := e.Gradient().Texel(7, 4)
	if math.Abs(float64(edge[0]-0.5)) > 1e-5 {
		t.Errorf("edge dx = %v, want 0.5", edge[0])
	}
}

func TestExtractReallocatesOnResize(t *testing.T) {
	dev := gpu.NewDevice(gpu.Options{Workers: 2})
	defer dev.Dispose()

	e, _ := NewExtractor(dev, 8, 8, 256)
	before := dev.LiveTextures()

	src := newSource(t, dev, 12, 6, func(x, y int) mgl32.Vec4 { return mgl32.Vec4{1, 1, 1, 1} })
	if err := e.Extract(src); err != nil {
		t.Fatal(err)
	}
	if e.Gradient().Width != 12 || e.Gradient().Height != 6 {
		t.Errorf("gradient = %dx%d, want 12x6", e.Gradient().Width, e.Gradient().Height)
	}
	// Old targets released, new ones allocated, plus the source texture
	if got := dev.LiveTextures(); got != before+1 {
		t.Errorf("live textures = %d, want %d", got, before+1)
	}
}

func TestSetStepWidensDifference(t *testing.T) {
	dev := gpu.NewDevice(gpu.Options{Workers: 2})
	defer dev.Dispose()

	src := newSource(t, dev, 8, 8, func(x, y int) mgl32.Vec4 {
		l := float32(x) * 0.1
		return mgl32.Vec4{l, l, l, 1}
	})

	e, _ := NewExtractor(dev, 8, 8, 8)
	e.SetStep(4)
	if e.Step() != 4 {
		t.Fatalf("step = %v, want 4", e.Step())
	}
	e.Extract(src)

	// Two texels apart: (0.2+1)/2
	v := e.Gradient().Texel(2, 4)
	if math.Abs(float64(v[0]-0.6)) > 1e-5 {
		t.Errorf("dx = %v, want 0.6", v[0])
	}
}

func TestExtractKeepsFieldsWhenReallocationFails(t *testing.T) {
	dev := gpu.NewDevice(gpu.Options{Workers: 1, MaxTextureSize: 16})
	defer dev.Dispose()
	other := gpu.NewDevice(gpu.Options{Workers: 1})
	defer other.Dispose()

	e, err := NewExtractor(dev, 8, 8, 256)
	if err != nil {
		t.Fatal(err)
	}
	small := newSource(t, dev, 8, 8, func(x, y int) mgl32.Vec4 {
		v := float32(x) / 8
		return mgl32.Vec4{v, v, v, 1}
	})
	if err := e.Extract(small); err != nil {
		t.Fatal(err)
	}
	grad := e.Gradient()
	before := grad.Snapshot()
	live := dev.LiveTextures()

	big := newSource(t, other, 32, 32, func(x, y int) mgl32.Vec4 { return mgl32.Vec4{1, 1, 1, 1} })
	if err := e.Extract(big); !errors.Is(err, gpu.ErrResourceInit) {
		t.Fatalf("Extract(32x32) error = %v, want ErrResourceInit", err)
	}

	if e.Gradient() != grad || grad.Released() || e.Luminance().Released() {
		t.Fatal("previous fields were replaced or released")
	}
	for i, v := range grad.Pix {
		if v != before[i] {
			t.Fatalf("gradient changed at %d: %v vs %v", i, v, before[i])
		}
	}
	if got := dev.LiveTextures(); got != live {
		t.Errorf("live textures = %d, want %d", got, live)
	}
}
