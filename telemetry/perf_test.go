package telemetry

import (
	"testing"
	"time"
)

// fakeDevice reports fixed memory figures.
type fakeDevice struct {
	textures, bytes int
}

func (d *fakeDevice) LiveTextures() int { return d.textures }
func (d *fakeDevice) LiveBytes() int    { return d.bytes }

func runTick(pc *PerfCollector, phases map[Phase]time.Duration) {
	pc.StartTick()
	for _, ph := range Phases {
		if d, ok := phases[ph]; ok {
			pc.StartPhase(ph)
			time.Sleep(d)
		}
	}
	pc.EndTick()
}

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10, 0)

	for i := 0; i < 5; i++ {
		runTick(pc, map[Phase]time.Duration{
			PhaseIntegrate: 100 * time.Microsecond,
			PhaseRasterize: 200 * time.Microsecond,
		})
	}

	stats := pc.Stats()
	if stats.AvgTick <= 0 {
		t.Error("expected positive average tick duration")
	}
	if stats.PhaseAvg[PhaseIntegrate] <= 0 || stats.PhaseAvg[PhaseRasterize] <= 0 {
		t.Errorf("phase averages = %v, want integrate and rasterize tracked", stats.PhaseAvg)
	}
	if stats.PhaseAvg[PhasePresent] != 0 {
		t.Errorf("present avg = %v, want 0 for a phase never started", stats.PhaseAvg[PhasePresent])
	}
	if stats.MinTick > stats.P95Tick || stats.P95Tick > stats.MaxTick {
		t.Errorf("tick order min %v <= p95 %v <= max %v violated", stats.MinTick, stats.P95Tick, stats.MaxTick)
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5, 0)

	// Slow ticks fall out of the window once enough fast ones follow
	for i := 0; i < 3; i++ {
		runTick(pc, map[Phase]time.Duration{PhaseIntegrate: 5 * time.Millisecond})
	}
	for i := 0; i < 5; i++ {
		runTick(pc, nil)
	}

	stats := pc.Stats()
	if stats.MaxTick >= 5*time.Millisecond {
		t.Errorf("max tick = %v, slow ticks should have left the window", stats.MaxTick)
	}
	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10, 0)

	for i := 0; i < 5; i++ {
		runTick(pc, map[Phase]time.Duration{
			PhaseComposite: 10 * time.Microsecond,
			PhasePresent:   2 * time.Millisecond,
		})
	}

	stats := pc.Stats()
	if stats.PhasePct[PhasePresent] <= stats.PhasePct[PhaseComposite] {
		t.Errorf("expected present (%v%%) > composite (%v%%)",
			stats.PhasePct[PhasePresent], stats.PhasePct[PhaseComposite])
	}
	if stats.Slowest() != PhasePresent {
		t.Errorf("slowest = %v, want present", stats.Slowest())
	}
}

func TestPerfCollector_OverBudget(t *testing.T) {
	pc := NewPerfCollector(4, 5*time.Millisecond)

	for i := 0; i < 3; i++ {
		runTick(pc, map[Phase]time.Duration{PhasePresent: 6 * time.Millisecond})
	}
	runTick(pc, nil)

	stats := pc.Stats()
	if stats.Budget != 5*time.Millisecond {
		t.Errorf("budget = %v, want 5ms", stats.Budget)
	}
	if stats.OverBudget != 0.75 {
		t.Errorf("over budget = %v, want 0.75", stats.OverBudget)
	}
	if row := stats.ToCSV("run", 4); row.OverBudgetPct != 75 {
		t.Errorf("over_budget_pct = %v, want 75", row.OverBudgetPct)
	}
}

func TestPerfCollector_DeviceMemory(t *testing.T) {
	pc := NewPerfCollector(10, 0)
	dev := &fakeDevice{textures: 3, bytes: 1000}
	pc.SetDevice(dev)

	runTick(pc, nil)
	dev.textures, dev.bytes = 5, 4000
	runTick(pc, nil)
	dev.textures, dev.bytes = 2, 500
	runTick(pc, nil)

	stats := pc.Stats()
	if stats.LiveTextures != 2 || stats.LiveBytes != 500 {
		t.Errorf("live = (%d, %d), want latest tick (2, 500)", stats.LiveTextures, stats.LiveBytes)
	}
	if stats.PeakBytes != 4000 {
		t.Errorf("peak bytes = %d, want 4000", stats.PeakBytes)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10, time.Second/60)

	stats := pc.Stats()
	if stats.AvgTick != 0 || stats.OverBudget != 0 || stats.TicksPerSecond != 0 {
		t.Errorf("expected zero stats for empty collector, got %+v", stats)
	}
	if stats.Budget != time.Second/60 {
		t.Errorf("budget = %v, want %v", stats.Budget, time.Second/60)
	}
}

func TestPerfCollector_FrameTiming(t *testing.T) {
	pc := NewPerfCollector(10, 0)

	pc.RecordFrame()
	time.Sleep(16 * time.Millisecond)
	pc.RecordFrame()

	stats := pc.Stats()
	if stats.FrameDuration < 15*time.Millisecond {
		t.Errorf("expected frame duration >= 15ms, got %v", stats.FrameDuration)
	}
	if stats.FPS <= 0 || stats.FPS > 70 {
		t.Errorf("expected FPS in (0, 70] with 16ms frames, got %v", stats.FPS)
	}
}

func TestPhaseString(t *testing.T) {
	want := []string{"integrate", "rasterize", "composite", "present", "telemetry"}
	for i, ph := range Phases {
		if ph.String() != want[i] {
			t.Errorf("Phases[%d] = %q, want %q", i, ph, want[i])
		}
	}
	if Phase(9).String() != "unknown" {
		t.Errorf("Phase(9) = %q, want unknown", Phase(9))
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTick:      2 * time.Millisecond,
		LiveTextures: 12,
		LiveBytes:    2048,
	}
	stats.PhasePct[PhaseIntegrate] = 40
	stats.PhasePct[PhaseRasterize] = 55

	row := stats.ToCSV("run", 120)
	if row.RunID != "run" || row.WindowEnd != 120 {
		t.Errorf("row identity = (%q, %d), want (run, 120)", row.RunID, row.WindowEnd)
	}
	if row.AvgTickUS != 2000 {
		t.Errorf("avg_tick_us = %d, want 2000", row.AvgTickUS)
	}
	if row.IntegratePct != 40 || row.RasterizePct != 55 || row.CompositePct != 0 {
		t.Errorf("phase pcts = %+v", row)
	}
	if row.Textures != 12 || row.LiveBytes != 2048 {
		t.Errorf("memory = (%d, %d), want (12, 2048)", row.Textures, row.LiveBytes)
	}
}
