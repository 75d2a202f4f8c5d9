package gpu

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/mlange-42/ark/ecs"
)

// ErrResourceInit is returned when a render target cannot be allocated.
var ErrResourceInit = errors.New("gpu: resource initialization failed")

// Allocation describes a live texture in the device registry.
type Allocation struct {
	Label  string
	Width  int
	Height int
	Bytes  int
}

// textureRef links a registry entity back to its texture.
type textureRef struct {
	Tex *Texture
}

// Options configures a Device.
type Options struct {
	Workers        int // 0 = GOMAXPROCS
	ParallelRows   int // dispatches smaller than this run inline
	MaxTextureSize int // 0 = unlimited
}

// Kernel computes one output texel. uv is the texel-center coordinate.
type Kernel func(x, y int, uv mgl32.Vec2) mgl32.Vec4

// Device allocates textures and executes data-parallel passes over them.
// Every texture it hands out is tracked until Release or Dispose.
type Device struct {
	world       *ecs.World
	allocMap    *ecs.Map2[Allocation, textureRef]
	allocFilter *ecs.Filter2[Allocation, textureRef]

	pool         *workerPool
	parallelRows int
	maxSize      int
	disposed     bool
}

// NewDevice creates a texture device.
func NewDevice(opts Options) *Device {
	world := ecs.NewWorld()
	parallelRows := opts.ParallelRows
	if parallelRows < 1 {
		parallelRows = 1
	}
	return &Device{
		world:        world,
		allocMap:     ecs.NewMap2[Allocation, textureRef](world),
		allocFilter:  ecs.NewFilter2[Allocation, textureRef](world),
		pool:         newWorkerPool(opts.Workers),
		parallelRows: parallelRows,
		maxSize:      opts.MaxTextureSize,
	}
}

// NewTexture allocates a zeroed w x h texture.
func (d *Device) NewTexture(label string, w, h int) (*Texture, error) {
	if d.disposed {
		return nil, fmt.Errorf("%w: %s: device disposed", ErrResourceInit, label)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %s: invalid size %dx%d", ErrResourceInit, label, w, h)
	}
	if d.maxSize > 0 && (w > d.maxSize || h > d.maxSize) {
		return nil, fmt.Errorf("%w: %s: %dx%d exceeds max texture size %d", ErrResourceInit, label, w, h, d.maxSize)
	}

	tex := newTexture(label, w, h)
	alloc := Allocation{Label: label, Width: w, Height: h, Bytes: len(tex.Pix) * 4}
	ref := textureRef{Tex: tex}
	tex.entity = d.allocMap.NewEntity(&alloc, &ref)
	return tex, nil
}

// Release returns a texture's storage. Releasing twice is a no-op.
func (d *Device) Release(t *Texture) {
	if t == nil || t.released {
		return
	}
	if d.world.Alive(t.entity) {
		d.world.RemoveEntity(t.entity)
	}
	t.Pix = nil
	t.released = true
}

// Dispose releases every live texture and stops the worker pool.
// Returns the number of textures released.
func (d *Device) Dispose() int {
	if d.disposed {
		return 0
	}

	// Collect first; the world is locked while a query is open.
	var live []*Texture
	query := d.allocFilter.Query()
	for query.Next() {
		_, ref := query.Get()
		live = append(live, ref.Tex)
	}

	for _, t := range live {
		d.Release(t)
	}

	d.pool.stop()
	d.disposed = true
	return len(live)
}

// Disposed reports whether Dispose was called.
func (d *Device) Disposed() bool {
	return d.disposed
}

// LiveTextures returns the number of textures not yet released.
func (d *Device) LiveTextures() int {
	n := 0
	query := d.allocFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Allocations lists live allocations sorted by label.
func (d *Device) Allocations() []Allocation {
	var out []Allocation
	query := d.allocFilter.Query()
	for query.Next() {
		alloc, _ := query.Get()
		out = append(out, *alloc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Label < out[j].Label
	})
	return out
}

// LiveBytes returns the total texel storage of live textures.
func (d *Device) LiveBytes() int {
	total := 0
	query := d.allocFilter.Query()
	for query.Next() {
		alloc, _ := query.Get()
		total += alloc.Bytes
	}
	return total
}

// Parallel runs fn over [0, n) split across the worker pool and blocks until
// every chunk has completed. Small ranges run inline on the caller.
func (d *Device) Parallel(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < d.parallelRows || d.pool.numWorkers == 1 || d.disposed {
		fn(0, n)
		return
	}
	d.pool.run(n, fn)
}

// Dispatch evaluates kernel for every texel of dst. The kernel must not read dst.
func (d *Device) Dispatch(dst *Texture, kernel Kernel) {
	w := dst.Width
	fw, fh := float32(dst.Width), float32(dst.Height)
	d.Parallel(dst.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			v := (float32(y) + 0.5) / fh
			row := y * w * 4
			for x := 0; x < w; x++ {
				// Same arithmetic as Texture.UV
				out := kernel(x, y, mgl32.Vec2{(float32(x) + 0.5) / fw, v})
				i := row + x*4
				dst.Pix[i] = out[0]
				dst.Pix[i+1] = out[1]
				dst.Pix[i+2] = out[2]
				dst.Pix[i+3] = out[3]
			}
		}
	})
}
