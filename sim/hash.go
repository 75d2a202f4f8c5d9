package sim

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Hash is the classic shader pseudo-random function
// fract(sin(dot(co, (12.9898, 78.233))) * 43758.5453).
// It is a pure function of co, so respawns are reproducible.
func Hash(co mgl32.Vec2) float32 {
	d := float64(co[0])*12.9898 + float64(co[1])*78.233
	s := math.Sin(d) * 43758.5453
	f := float32(s - math.Floor(s))
	if f >= 1 {
		// float32 rounding of values just below 1
		f = math.Nextafter32(1, 0)
	}
	return f
}

// SpawnPosition returns the respawn position for the particle at texel
// coordinate uv at time t. The x and y draws use swapped coordinates and
// time offsets so they are decorrelated.
func SpawnPosition(uv mgl32.Vec2, t float32, worldW, worldH float32) mgl32.Vec2 {
	hx := Hash(mgl32.Vec2{uv[0] + t, uv[1]})
	hy := Hash(mgl32.Vec2{uv[1], uv[0] + t})
	return mgl32.Vec2{
		worldW * (hx - 0.5),
		worldH * (hy - 0.5),
	}
}
