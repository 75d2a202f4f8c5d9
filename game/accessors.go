package game

import (
	"github.com/pthm-cable/trails/assets"
	"github.com/pthm-cable/trails/camera"
	"github.com/pthm-cable/trails/field"
	"github.com/pthm-cable/trails/gpu"
	"github.com/pthm-cable/trails/sim"
	"github.com/pthm-cable/trails/telemetry"
)

// Tick returns the number of completed ticks.
func (g *Game) Tick() int64 { return g.tick }

// SimTime returns the integrator clock in seconds since the last image switch.
func (g *Game) SimTime() float32 { return g.simClock.Elapsed() }

// Paused reports whether ticks are suspended.
func (g *Game) Paused() bool { return g.paused }

// Running reports whether the game is attached to the update loop.
func (g *Game) Running() bool { return g.running }

// Disposed reports whether Dispose was called.
func (g *Game) Disposed() bool { return g.disposed }

// Mode returns the integration mode used by the next tick.
func (g *Game) Mode() sim.Mode { return g.integ.Mode() }

// ActiveImage returns the gallery index of the bound image.
func (g *Game) ActiveImage() int { return g.active }

// Gallery returns the source images.
func (g *Game) Gallery() []*assets.Image { return g.gallery }

// RunID returns the run identifier.
func (g *Game) RunID() string { return g.runID }

// Device returns the texture device.
func (g *Game) Device() *gpu.Device { return g.dev }

// Integrator returns the particle state integrator.
func (g *Game) Integrator() *sim.Integrator { return g.integ }

// Field returns the field extractor.
func (g *Game) Field() *field.Extractor { return g.field }

// Base returns the bound source image texture.
func (g *Game) Base() *gpu.Texture { return g.base }

// Particles returns the particle buffer drawn by the last tick.
func (g *Game) Particles() *gpu.Texture { return g.raster.Target() }

// Trail returns the trail surface written by the last tick.
func (g *Game) Trail() *gpu.Texture { return g.comp.Read() }

// Display returns the presentation composite, or nil in headless mode.
func (g *Game) Display() *gpu.Texture { return g.display }

// Layout returns where the display belongs in the viewport.
func (g *Game) Layout() camera.Layout { return g.layout }

// PerfStats returns the rolling performance statistics.
func (g *Game) PerfStats() telemetry.PerfStats { return g.perfCollector.Stats() }

// SetStatsCallback registers a function called with every flushed stats window.
func (g *Game) SetStatsCallback(fn func(telemetry.WindowStats)) {
	g.statsCallback = fn
}
