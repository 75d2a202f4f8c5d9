package game

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pthm-cable/trails/camera"
	"github.com/pthm-cable/trails/sim"
	"github.com/pthm-cable/trails/telemetry"
)

// TogglePause flips the paused flag. No pipeline state changes.
func (g *Game) TogglePause() {
	g.paused = !g.paused
	if g.paused {
		g.recordEvent(telemetry.EventPause, "", "")
	} else {
		g.recordEvent(telemetry.EventResume, "", "")
	}
}

// SetIntegrationMode selects the steering mode for the next tick.
// Out-of-range values fall back to still.
func (g *Game) SetIntegrationMode(m int) {
	mode, ok := sim.ParseMode(m)
	if !ok {
		slog.Warn("invalid integration mode, using still", "requested", m, "tick", g.tick)
	}
	if mode == g.integ.Mode() {
		return
	}
	g.integ.SetMode(mode)
	g.collector.RecordModeChange()
	g.recordEvent(telemetry.EventModeChange, mode.String(), "")
}

// SelectImage binds gallery image i: the base texture is replaced, the
// steering fields are re-extracted and both clocks restart. Particle state
// and the trail are untouched. On error (an invalid index or a failed
// allocation) the previous image stays bound and the clocks keep running.
func (g *Game) SelectImage(i int) error {
	if g.disposed {
		return fmt.Errorf("select image %d: game disposed", i)
	}
	if i < 0 || i >= len(g.gallery) {
		return fmt.Errorf("select image %d: index out of range [0, %d)", i, len(g.gallery))
	}

	start := time.Now()
	if err := g.bindImage(i); err != nil {
		return fmt.Errorf("select image %d: %w", i, err)
	}
	slog.Info("image selected",
		"image", i,
		"path", g.gallery[i].Path,
		"width", g.base.Width,
		"height", g.base.Height,
		"extract_us", time.Since(start).Microseconds(),
	)
	g.simClock.Reset()
	g.renderClock.Reset()

	g.collector.RecordImageSwitch()
	g.recordEvent(telemetry.EventImageSwitch, strconv.Itoa(i), g.gallery[i].Path)
	return nil
}

// Resize recomputes the display layout for a new viewport.
func (g *Game) Resize(w, h int) {
	if float32(w) == g.viewportW && float32(h) == g.viewportH {
		return
	}
	g.viewportW, g.viewportH = float32(w), float32(h)
	g.updateLayout()
	g.recordEvent(telemetry.EventResize, fmt.Sprintf("%dx%d", w, h), "")
}

func (g *Game) updateLayout() {
	if g.base == nil {
		return
	}
	g.layout = camera.ComputeLayout(
		float32(g.base.Width), float32(g.base.Height),
		g.viewportW, g.viewportH,
		float32(g.cfg.Compositor.DisplayFraction),
	)
}
