// Package renderer draws particle state into an offscreen buffer and blends
// successive frames into a persistent trail.
package renderer

import (
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
)

// Corners are the local UVs of a quad's four vertices.
var Corners = [4]mgl32.Vec2{{0, 0}, {0, 1}, {1, 0}, {1, 1}}

// Indices form the quad's two triangles from Corners.
var Indices = [6]uint16{0, 1, 2, 2, 1, 3}

// Quad is one particle's static geometry.
type Quad struct {
	// UV addresses the particle's state texel.
	UV mgl32.Vec2
	// Size is the quad's base edge length in world units.
	Size float32
}

// Geometry holds one quad per particle, built once and never resized.
type Geometry struct {
	GridSize int
	Quads    []Quad
}

// NewGeometry builds n*n quads with sizes drawn uniformly from [sizeMin, sizeMax].
func NewGeometry(n int, sizeMin, sizeMax float32, rng *rand.Rand) *Geometry {
	g := &Geometry{
		GridSize: n,
		Quads:    make([]Quad, n*n),
	}
	inv := 1 / float32(n)
	for i := range g.Quads {
		g.Quads[i] = Quad{
			UV:   mgl32.Vec2{float32(i%n) * inv, float32(i/n) * inv},
			Size: sizeMin + rng.Float32()*(sizeMax-sizeMin),
		}
	}
	return g
}

// Len returns the number of quads.
func (g *Geometry) Len() int { return len(g.Quads) }

// Texel returns the state texel coordinate quad i reads.
func (g *Geometry) Texel(i int) (x, y int) {
	return i % g.GridSize, i / g.GridSize
}

// Vertices returns the four vertex UVs of quad i with its custom UV.
func (g *Geometry) Vertices(i int) (local [4]mgl32.Vec2, custom mgl32.Vec2) {
	return Corners, g.Quads[i].UV
}
