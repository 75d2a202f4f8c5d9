package telemetry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/trails/sim"
)

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(2.0, 1.0/60, "run")
	if c.WindowDurationTicks() != 120 {
		t.Fatalf("window ticks = %d, want 120", c.WindowDurationTicks())
	}
	if c.ShouldFlush(119) {
		t.Error("flush before window end")
	}
	if !c.ShouldFlush(120) {
		t.Error("no flush at window end")
	}
}

func TestCollectorFlush(t *testing.T) {
	c := NewCollector(1.0, 0.5, "run")
	c.RecordRespawns(3)
	c.RecordRespawns(2)
	c.RecordModeChange()
	c.RecordImageSwitch()

	particles := []sim.Particle{
		{Pos: mgl32.Vec2{10, 0}, Vel: mgl32.Vec2{3, 4}, LifeTotal: 2, LifeRemain: 1},
		{Pos: mgl32.Vec2{-10, 0}, Vel: mgl32.Vec2{0, 0}, LifeTotal: 2, LifeRemain: 2},
		{Pos: mgl32.Vec2{600, 0}, Vel: mgl32.Vec2{0, 1}, LifeTotal: 4, LifeRemain: 0},
	}

	stats := c.Flush(Snapshot{
		Tick:      2,
		Mode:      sim.ModeSwirl,
		Image:     1,
		Particles: particles,
		WorldW:    1024,
		WorldH:    1024,
	})

	if stats.RunID != "run" || stats.WindowEndTick != 2 || stats.SimTimeSec != 1.0 {
		t.Errorf("window = (%q, %d, %v)", stats.RunID, stats.WindowEndTick, stats.SimTimeSec)
	}
	if stats.Mode != "swirl" || stats.Image != 1 {
		t.Errorf("control = (%s, %d), want (swirl, 1)", stats.Mode, stats.Image)
	}
	if stats.Particles != 3 || stats.Spawned != 1 || stats.OutOfBounds != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/1/1", stats.Particles, stats.Spawned, stats.OutOfBounds)
	}
	if stats.Respawns != 5 || stats.ModeChanges != 1 || stats.ImageSwitches != 1 {
		t.Errorf("events = %d/%d/%d, want 5/1/1", stats.Respawns, stats.ModeChanges, stats.ImageSwitches)
	}
	if math.Abs(stats.LifeMean-0.5) > 1e-6 {
		t.Errorf("life mean = %v, want 0.5", stats.LifeMean)
	}
	if math.Abs(stats.SpeedMax-5) > 1e-6 || math.Abs(stats.SpeedMean-2) > 1e-6 {
		t.Errorf("speed mean/max = %v/%v, want 2/5", stats.SpeedMean, stats.SpeedMax)
	}
	if math.Abs(stats.PosMeanX-200) > 1e-4 {
		t.Errorf("pos mean x = %v, want 200", stats.PosMeanX)
	}

	// Counters reset for the next window
	next := c.Flush(Snapshot{Tick: 4})
	if next.Respawns != 0 || next.ModeChanges != 0 || next.WindowStartTick != 2 {
		t.Errorf("next window = %+v", next)
	}
}
