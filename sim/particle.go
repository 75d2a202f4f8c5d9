package sim

import "github.com/go-gl/mathgl/mgl32"

// Particle is a CPU-side view of one particle's state texels.
type Particle struct {
	Pos        mgl32.Vec2
	Vel        mgl32.Vec2
	Spawn      mgl32.Vec2
	LifeTotal  float32
	LifeRemain float32
}

// Spawned reports whether the particle was (re)spawned on the last step.
func (p Particle) Spawned() bool {
	return p.LifeRemain == p.LifeTotal
}

// LifeRatio returns the fraction of lifetime remaining.
func (p Particle) LifeRatio() float32 {
	if p.LifeTotal == 0 {
		return 0
	}
	return p.LifeRemain / p.LifeTotal
}

func particleFrom(pos, vel mgl32.Vec4) Particle {
	return Particle{
		Pos:        pos.Vec2(),
		Vel:        vel.Vec2(),
		Spawn:      mgl32.Vec2{vel[2], vel[3]},
		LifeTotal:  pos[2],
		LifeRemain: pos[3],
	}
}

// Count returns the number of particles.
func (it *Integrator) Count() int {
	return it.params.GridSize * it.params.GridSize
}

// Particle returns particle i, indexed row-major from the bottom row.
func (it *Integrator) Particle(i int) Particle {
	n := it.params.GridSize
	x, y := i%n, i/n
	return particleFrom(it.state.prevPos.Texel(x, y), it.state.prevVel.Texel(x, y))
}

// Particles appends every particle to dst[:0] and returns it.
func (it *Integrator) Particles(dst []Particle) []Particle {
	dst = dst[:0]
	pos, vel := it.state.prevPos.Pix, it.state.prevVel.Pix
	for i := 0; i+3 < len(pos); i += 4 {
		dst = append(dst, particleFrom(
			mgl32.Vec4{pos[i], pos[i+1], pos[i+2], pos[i+3]},
			mgl32.Vec4{vel[i], vel[i+1], vel[i+2], vel[i+3]},
		))
	}
	return dst
}

// SpawnedCount returns the number of particles (re)spawned on the last step.
func (it *Integrator) SpawnedCount() int {
	n := 0
	pos := it.state.prevPos.Pix
	for i := 0; i+3 < len(pos); i += 4 {
		if pos[i+3] == pos[i+2] {
			n++
		}
	}
	return n
}
