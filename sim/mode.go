package sim

import (
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// Mode selects the steering behavior applied by the velocity pass.
type Mode uint8

const (
	ModeFlow Mode = iota
	ModeSwirl
	ModeFall
	ModeStill

	NumModes = 4
)

var modeNames = [NumModes]string{"flow", "swirl", "fall", "still"}

// String returns the mode name.
func (m Mode) String() string {
	if int(m) < NumModes {
		return modeNames[m]
	}
	return "still"
}

// ParseMode converts an operator-selected index to a Mode. Out-of-range values
// fall back to ModeStill and report ok = false.
func ParseMode(v int) (m Mode, ok bool) {
	if v < 0 || v >= NumModes {
		return ModeStill, false
	}
	return Mode(v), true
}

// ModeByName looks up a mode by its name (case-insensitive).
func ModeByName(name string) (Mode, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range modeNames {
		if n == name {
			return Mode(i), true
		}
	}
	return ModeStill, false
}

// LookupMode resolves an operator-supplied mode given either as an index
// ("1") or as a name ("swirl").
func LookupMode(s string) (Mode, bool) {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return ParseMode(v)
	}
	return ModeByName(s)
}

// ModeNames returns the names of all modes in index order.
func ModeNames() []string {
	out := make([]string, NumModes)
	copy(out, modeNames[:])
	return out
}

// accel computes the acceleration for one particle.
// grad is the gradient field sample, theta the polar angle of the particle,
// vel its current velocity and lifeRatio lifeRemain/lifeTotal.
func (m Mode) accel(grad mgl32.Vec2, theta float32, vel mgl32.Vec2, lifeRatio float32) mgl32.Vec2 {
	half := mgl32.Vec2{0.5, 0.5}
	sin, cos := math.Sincos(float64(theta))
	s, c := float32(sin), float32(cos)

	switch m {
	case ModeFlow:
		return grad.Sub(half).Mul(2).
			Add(mgl32.Vec2{c, s}.Mul(0.01 * lifeRatio)).
			Sub(vel.Mul(0.1 * lifeRatio))
	case ModeSwirl:
		return grad.Sub(half).Mul(10).
			Add(mgl32.Vec2{-s, c}.Mul(0.3)).
			Add(mgl32.Vec2{0, -0.01}).
			Sub(vel.Mul(0.5))
	case ModeFall:
		return grad.Sub(half).Mul(2).
			Sub(mgl32.Vec2{0, 0.1}).
			Sub(vel.Mul(0.5))
	default:
		return mgl32.Vec2{}
	}
}

// ModeCell holds the runtime-selectable mode. The control surface writes it
// between ticks; the integrator reads it once at the start of each step.
type ModeCell struct {
	v atomic.Uint32
}

// Load returns the current mode.
func (c *ModeCell) Load() Mode {
	return Mode(c.v.Load())
}

// Store sets the mode for the next step.
func (c *ModeCell) Store(m Mode) {
	if int(m) >= NumModes {
		m = ModeStill
	}
	c.v.Store(uint32(m))
}
