package game

import (
	"log/slog"

	"github.com/pthm-cable/trails/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and writes it out.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	g.particles = g.integ.Particles(g.particles)
	stats := g.collector.Flush(telemetry.Snapshot{
		Tick:           g.tick,
		Mode:           g.integ.Mode(),
		Image:          g.active,
		Paused:         g.paused,
		Particles:      g.particles,
		WorldW:         g.cfg.Derived.WorldW32,
		WorldH:         g.cfg.Derived.WorldH32,
		TrailLuminance: g.trailLuminance(),
	})
	perfStats := g.perfCollector.Stats()

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	// Log stats if enabled (console output)
	if g.opts.LogStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// trailLuminance averages the luminance of the trail read surface.
func (g *Game) trailLuminance() float64 {
	trail := g.comp.Read()
	pix := trail.Pix
	n := trail.Width * trail.Height
	if n == 0 {
		return 0
	}

	// Per-row partial sums keep the parallel reduction deterministic
	rows := make([]float64, trail.Height)
	g.dev.Parallel(trail.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			var sum float64
			row := pix[y*trail.Width*4 : (y+1)*trail.Width*4]
			for i := 0; i < len(row); i += 4 {
				sum += float64(row[i]+row[i+1]+row[i+2]) / 3
			}
			rows[y] = sum
		}
	})

	var total float64
	for _, s := range rows {
		total += s
	}
	return total / float64(n)
}

// snapshotIfDue writes image layers to the output directory every
// SnapshotEvery ticks.
func (g *Game) snapshotIfDue() {
	if g.outputManager == nil || g.opts.SnapshotEvery <= 0 || g.tick%g.opts.SnapshotEvery != 0 {
		return
	}
	if err := g.outputManager.WriteSnapshot(g.SnapshotMeta(), g.Layers()); err != nil {
		slog.Error("failed to write snapshot", "error", err, "tick", g.tick)
	}
}

// SnapshotMeta describes the current state for a snapshot sidecar.
func (g *Game) SnapshotMeta() telemetry.SnapshotMeta {
	return telemetry.SnapshotMeta{
		RunID:   g.runID,
		Seed:    g.opts.Seed,
		Tick:    g.tick,
		SimTime: float64(g.simClock.Elapsed()),
		Mode:    g.integ.Mode().String(),
		Image:   g.active,
	}
}

// Layers returns the pipeline's textures as images, top row first.
func (g *Game) Layers() []telemetry.Layer {
	layers := []telemetry.Layer{
		{Name: "luminance", Img: g.field.Luminance().Image()},
		{Name: "gradient", Img: g.field.Gradient().Image()},
		{Name: "particles", Img: g.raster.Target().Image()},
		{Name: "trail", Img: g.comp.Read().Image()},
	}
	if g.display != nil {
		layers = append(layers, telemetry.Layer{Name: "display", Img: g.display.Image()})
	}
	return layers
}

// recordEvent logs an operator event and writes it to events.csv.
func (g *Game) recordEvent(typ telemetry.EventType, value, detail string) {
	e := telemetry.NewEvent(typ, g.tick, value, detail)
	e.RunID = g.runID
	e.LogEvent()
	if err := g.outputManager.WriteEvent(e); err != nil {
		slog.Error("failed to write event", "error", err)
	}
}
