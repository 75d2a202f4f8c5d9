package telemetry

import (
	"math"

	"github.com/pthm-cable/trails/sim"
)

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int64
	dt                  float32
	runID               string

	// Current window tracking
	windowStartTick int64

	// Event counters for current window
	respawns      int
	modeChanges   int
	imageSwitches int

	// Scratch buffers reused across flushes
	life  []float64
	speed []float64
	posX  []float64
	posY  []float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32, runID string) *Collector {
	ticksPerWindow := int64(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		runID:               runID,
	}
}

// RecordRespawns adds n particle respawns.
func (c *Collector) RecordRespawns(n int) {
	c.respawns += n
}

// RecordModeChange records an integration mode switch.
func (c *Collector) RecordModeChange() {
	c.modeChanges++
}

// RecordImageSwitch records a gallery image switch.
func (c *Collector) RecordImageSwitch() {
	c.imageSwitches++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Snapshot is the caller-supplied state sampled at window end.
type Snapshot struct {
	Tick           int64
	Mode           sim.Mode
	Image          int
	Paused         bool
	Particles      []sim.Particle
	WorldW, WorldH float32
	TrailLuminance float64
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(snap Snapshot) WindowStats {
	c.life = c.life[:0]
	c.speed = c.speed[:0]
	c.posX = c.posX[:0]
	c.posY = c.posY[:0]

	spawned, outOfBounds := 0, 0
	halfW, halfH := snap.WorldW/2, snap.WorldH/2
	for _, p := range snap.Particles {
		if p.Spawned() {
			spawned++
		}
		if p.Pos[0] < -halfW || p.Pos[0] > halfW || p.Pos[1] < -halfH || p.Pos[1] > halfH {
			outOfBounds++
		}
		c.life = append(c.life, float64(p.LifeRatio()))
		c.speed = append(c.speed, float64(p.Vel.Len()))
		c.posX = append(c.posX, float64(p.Pos[0]))
		c.posY = append(c.posY, float64(p.Pos[1]))
	}

	life := ComputeDistribution(c.life)
	speed := ComputeDistribution(c.speed)
	px := ComputeDistribution(c.posX)
	py := ComputeDistribution(c.posY)

	stats := WindowStats{
		RunID:           c.runID,
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   snap.Tick,
		SimTimeSec:      float64(snap.Tick) * float64(c.dt),

		Mode:   snap.Mode.String(),
		Image:  snap.Image,
		Paused: snap.Paused,

		Particles:   len(snap.Particles),
		Spawned:     spawned,
		OutOfBounds: outOfBounds,

		Respawns:      c.respawns,
		ModeChanges:   c.modeChanges,
		ImageSwitches: c.imageSwitches,

		LifeMean: life.Mean,
		LifeStd:  life.Std,
		LifeP10:  life.P10,
		LifeP50:  life.P50,
		LifeP90:  life.P90,

		SpeedMean: speed.Mean,
		SpeedStd:  speed.Std,
		SpeedP50:  speed.P50,
		SpeedP90:  speed.P90,
		SpeedMax:  speed.Max,

		PosMeanX: px.Mean,
		PosMeanY: py.Mean,
		PosStdX:  px.Std,
		PosStdY:  py.Std,

		TrailLuminance: snap.TrailLuminance,
	}

	// Reset for next window
	c.windowStartTick = snap.Tick
	c.respawns = 0
	c.modeChanges = 0
	c.imageSwitches = 0

	return stats
}

// Reset restarts the window at tick, dropping accumulated events.
func (c *Collector) Reset(tick int64) {
	c.windowStartTick = tick
	c.respawns = 0
	c.modeChanges = 0
	c.imageSwitches = 0
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
