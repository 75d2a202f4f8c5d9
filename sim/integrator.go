// Package sim integrates particle state stored in float textures.
//
// Each particle owns one texel in two N x N fields:
//
//	position = (x, y, lifeTotal, lifeRemain)
//	velocity = (vx, vy, spawnX, spawnY)
//
// A particle with lifeRemain == lifeTotal was spawned on the previous step;
// the next velocity pass zeroes its velocity and records its spawn position.
package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/gpu"
)

// Params holds the immutable integrator parameters.
type Params struct {
	GridSize    int
	WorldW      float32
	WorldH      float32
	DT          float32
	LifetimeMin float32
	LifetimeMax float32
}

// ParamsFromConfig extracts integrator parameters from the configuration.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		GridSize:    cfg.Sim.GridSize,
		WorldW:      cfg.Derived.WorldW32,
		WorldH:      cfg.Derived.WorldH32,
		DT:          cfg.Derived.DT32,
		LifetimeMin: float32(cfg.Sim.LifetimeMin),
		LifetimeMax: float32(cfg.Sim.LifetimeMax),
	}
}

// state holds the four ping-pong buffers. Passes read prev and write next;
// swap exchanges both pairs together.
type state struct {
	prevVel, prevPos *gpu.Texture
	nextVel, nextPos *gpu.Texture
	generation       uint64
}

func (s *state) swap() {
	s.prevVel, s.nextVel = s.nextVel, s.prevVel
	s.prevPos, s.nextPos = s.nextPos, s.prevPos
	s.generation++
}

// Integrator advances every particle by one fixed timestep per Step.
type Integrator struct {
	dev    *gpu.Device
	params Params
	state  state

	gradient *gpu.Texture
	mode     ModeCell
}

// New allocates the state fields and seeds them from rng.
func New(dev *gpu.Device, params Params, rng *rand.Rand) (*Integrator, error) {
	n := params.GridSize
	labels := [4]string{"sim.velocity.0", "sim.position.0", "sim.velocity.1", "sim.position.1"}
	var texs [4]*gpu.Texture
	for i, label := range labels {
		t, err := dev.NewTexture(label, n, n)
		if err != nil {
			for _, prev := range texs[:i] {
				dev.Release(prev)
			}
			return nil, fmt.Errorf("allocating state field: %w", err)
		}
		texs[i] = t
	}

	it := &Integrator{
		dev:    dev,
		params: params,
		state: state{
			prevVel: texs[0],
			prevPos: texs[1],
			nextVel: texs[2],
			nextPos: texs[3],
		},
	}
	it.seed(rng)
	return it, nil
}

// seed fills the current state with random particles: positions uniform over
// the world, lifetimes uniform in the configured range with a random amount
// already elapsed, zero velocity and a random spawn record.
func (it *Integrator) seed(rng *rand.Rand) {
	p := it.params
	n := p.GridSize
	pos, vel := it.state.prevPos, it.state.prevVel

	for i := 0; i < n*n; i++ {
		x, y := i%n, i/n
		total := randRange(rng, p.LifetimeMin, p.LifetimeMax)
		pos.SetTexel(x, y, mgl32.Vec4{
			randRange(rng, -p.WorldW/2, p.WorldW/2),
			randRange(rng, -p.WorldH/2, p.WorldH/2),
			total,
			randRange(rng, 0, total),
		})
	}
	for i := 0; i < n*n; i++ {
		x, y := i%n, i/n
		vel.SetTexel(x, y, mgl32.Vec4{
			0,
			0,
			randRange(rng, -p.WorldW/2, p.WorldW/2),
			randRange(rng, -p.WorldH/2, p.WorldH/2),
		})
	}
}

func randRange(rng *rand.Rand, lo, hi float32) float32 {
	return lo + rng.Float32()*(hi-lo)
}

// Params returns the integrator parameters.
func (it *Integrator) Params() Params { return it.params }

// SetGradient binds the steering field. A nil field steers as if flat.
func (it *Integrator) SetGradient(g *gpu.Texture) { it.gradient = g }

// SetMode selects the steering behavior for the next step.
func (it *Integrator) SetMode(m Mode) { it.mode.Store(m) }

// Mode returns the currently selected steering behavior.
func (it *Integrator) Mode() Mode { return it.mode.Load() }

// Position returns the position field written by the last step.
func (it *Integrator) Position() *gpu.Texture { return it.state.prevPos }

// Velocity returns the velocity field written by the last step.
func (it *Integrator) Velocity() *gpu.Texture { return it.state.prevVel }

// Generation counts completed steps.
func (it *Integrator) Generation() uint64 { return it.state.generation }

// Step advances all particles by one timestep. elapsed is the integrator
// clock used to decorrelate respawn positions.
func (it *Integrator) Step(elapsed float32) {
	mode := it.mode.Load()
	s := &it.state
	prevPos, prevVel := s.prevPos, s.prevVel
	grad := it.gradient
	world := mgl32.Vec2{it.params.WorldW, it.params.WorldH}
	dt := it.params.DT

	it.dev.Dispatch(s.nextVel, func(x, y int, _ mgl32.Vec2) mgl32.Vec4 {
		return updateVelocity(prevPos.Texel(x, y), prevVel.Texel(x, y), grad, mode, world)
	})
	it.dev.Dispatch(s.nextPos, func(x, y int, uv mgl32.Vec2) mgl32.Vec4 {
		return updatePosition(prevPos.Texel(x, y), prevVel.Texel(x, y), uv, elapsed, dt, world)
	})

	s.swap()
}

// updateVelocity is the velocity pass for one particle.
func updateVelocity(pos, vel mgl32.Vec4, grad *gpu.Texture, mode Mode, world mgl32.Vec2) mgl32.Vec4 {
	if pos[3] == pos[2] {
		return mgl32.Vec4{0, 0, pos[0], pos[1]}
	}

	rel := mgl32.Vec2{
		(pos[0] + world[0]/2) / world[0],
		(pos[1] + world[1]/2) / world[1],
	}
	theta := float32(math.Atan2(float64(pos[1]), float64(pos[0])))

	g := mgl32.Vec2{0.5, 0.5}
	if grad != nil {
		g = grad.Sample(rel, gpu.FilterLinear).Vec2()
	}

	a := mode.accel(g, theta, vel.Vec2(), pos[3]/pos[2])
	return mgl32.Vec4{vel[0] + a[0], vel[1] + a[1], vel[2], vel[3]}
}

// updatePosition is the position pass for one particle.
func updatePosition(pos, vel mgl32.Vec4, uv mgl32.Vec2, t, dt float32, world mgl32.Vec2) mgl32.Vec4 {
	pos[3] -= dt
	if pos[3] < 0 {
		pos[3] = pos[2]
		p := SpawnPosition(uv, t, world[0], world[1])
		pos[0], pos[1] = p[0], p[1]
		return pos
	}
	pos[0] += vel[0]
	pos[1] += vel[1]
	return pos
}

// Release returns the state fields to the device.
func (it *Integrator) Release() {
	it.dev.Release(it.state.prevVel)
	it.dev.Release(it.state.prevPos)
	it.dev.Release(it.state.nextVel)
	it.dev.Release(it.state.nextPos)
}
