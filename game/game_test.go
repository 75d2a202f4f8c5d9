package game

import (
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/trails/assets"
	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/gpu"
	"github.com/pthm-cable/trails/sim"
	"github.com/pthm-cable/trails/telemetry"
)

func init() {
	config.MustInit("testdata/small.yaml")
}

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	g, err := NewGame(opts, assets.Procedural(2, 32))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(g.Dispose)
	g.Start()
	return g
}

func assertSameTexture(t *testing.T, name string, a, b *gpu.Texture) {
	t.Helper()
	if len(a.Pix) != len(b.Pix) {
		t.Fatalf("%s: size %d vs %d", name, len(a.Pix), len(b.Pix))
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("%s differs at %d: %v vs %v", name, i, a.Pix[i], b.Pix[i])
		}
	}
}

func assertSameSlice(t *testing.T, name string, a, b []float32) {
	t.Helper()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("%s differs at %d: %v vs %v", name, i, a[i], b[i])
		}
	}
}

func TestNewGameRejectsIncompleteGallery(t *testing.T) {
	tests := []struct {
		name    string
		gallery []*assets.Image
	}{
		{"nil", nil},
		{"empty", []*assets.Image{}},
		{"nil_entry", []*assets.Image{assets.Procedural(1, 8)[0], nil}},
		{"nil_image", []*assets.Image{{Path: "missing"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGame(Options{Headless: true}, tt.gallery)
			if !errors.Is(err, ErrIncompleteGallery) {
				t.Errorf("err = %v, want ErrIncompleteGallery", err)
			}
		})
	}
}

func TestEndToEnd120Ticks(t *testing.T) {
	g := newTestGame(t, Options{Headless: true, InitialMode: int(sim.ModeFlow)})

	for i := 0; i < 120; i++ {
		g.Step()
	}
	if g.Tick() != 120 {
		t.Fatalf("tick = %d, want 120", g.Tick())
	}

	cfg := config.Cfg()
	halfW, halfH := cfg.Sim.WorldWidth/2, cfg.Sim.WorldHeight/2
	var sumX, sumY float64
	particles := g.Integrator().Particles(nil)
	for i, p := range particles {
		if p.LifeRemain < 0 || p.LifeRemain > p.LifeTotal {
			t.Fatalf("particle %d: w=%v z=%v", i, p.LifeRemain, p.LifeTotal)
		}
		sumX += float64(p.Pos[0])
		sumY += float64(p.Pos[1])
	}
	meanX, meanY := sumX/float64(len(particles)), sumY/float64(len(particles))
	if math.Abs(meanX) > halfW || math.Abs(meanY) > halfH {
		t.Errorf("mean position (%v, %v) outside spawn bounds", meanX, meanY)
	}

	trail := g.Trail()
	for i := 3; i < len(trail.Pix); i += 4 {
		if trail.Pix[i] != 1 {
			t.Fatalf("trail alpha at %d = %v, want 1", i/4, trail.Pix[i])
		}
	}
	if g.Display() != nil {
		t.Error("headless game allocated a display texture")
	}
}

func TestPauseToggleTwiceIsIdentical(t *testing.T) {
	a := newTestGame(t, Options{Headless: true})
	b := newTestGame(t, Options{Headless: true})

	for i := 0; i < 10; i++ {
		a.UpdateHeadless()
		b.UpdateHeadless()
	}

	b.TogglePause()
	if !b.Paused() {
		t.Fatal("not paused after toggle")
	}
	for i := 0; i < 5; i++ {
		b.UpdateHeadless()
		b.Update()
	}
	if b.Tick() != 10 {
		t.Fatalf("paused game advanced to tick %d", b.Tick())
	}
	b.TogglePause()

	assertSameTexture(t, "position", a.Integrator().Position(), b.Integrator().Position())
	assertSameTexture(t, "velocity", a.Integrator().Velocity(), b.Integrator().Velocity())
	assertSameTexture(t, "trail", a.Trail(), b.Trail())

	a.UpdateHeadless()
	b.UpdateHeadless()
	assertSameTexture(t, "trail after resume", a.Trail(), b.Trail())
}

func TestStoppedGameDoesNotAdvance(t *testing.T) {
	g := newTestGame(t, Options{Headless: true, StepsPerUpdate: 3})

	g.UpdateHeadless()
	if g.Tick() != 3 {
		t.Fatalf("tick = %d, want 3", g.Tick())
	}

	g.Stop()
	g.UpdateHeadless()
	g.Update()
	if g.Tick() != 3 || g.Running() {
		t.Errorf("stopped game at tick %d running=%v", g.Tick(), g.Running())
	}

	g.Start()
	g.Update()
	if g.Tick() != 4 {
		t.Errorf("tick after restart = %d, want 4", g.Tick())
	}
}

func TestModeSwitchTakesEffectNextTick(t *testing.T) {
	a := newTestGame(t, Options{Headless: true})
	b := newTestGame(t, Options{Headless: true})

	for i := 0; i < 5; i++ {
		a.Step()
		b.Step()
	}

	b.SetIntegrationMode(int(sim.ModeSwirl))
	if b.Mode() != sim.ModeSwirl {
		t.Fatalf("mode = %v, want swirl", b.Mode())
	}
	assertSameTexture(t, "velocity before next tick", a.Integrator().Velocity(), b.Integrator().Velocity())

	a.Step()
	b.Step()

	va, vb := a.Integrator().Velocity().Pix, b.Integrator().Velocity().Pix
	differ := false
	for i := range va {
		if va[i] != vb[i] {
			differ = true
			break
		}
	}
	if !differ {
		t.Error("mode switch had no effect on the following tick")
	}
}

func TestSetIntegrationModeClamps(t *testing.T) {
	g := newTestGame(t, Options{Headless: true})

	for _, m := range []int{-1, 4, 99} {
		g.SetIntegrationMode(int(sim.ModeFlow))
		g.SetIntegrationMode(m)
		if g.Mode() != sim.ModeStill {
			t.Errorf("SetIntegrationMode(%d): mode = %v, want still", m, g.Mode())
		}
	}
}

func TestSelectImageKeepsState(t *testing.T) {
	g := newTestGame(t, Options{Headless: true})
	for i := 0; i < 10; i++ {
		g.Step()
	}

	pos := g.Integrator().Position().Snapshot()
	vel := g.Integrator().Velocity().Snapshot()
	trail := g.Trail().Snapshot()
	grad := g.Field().Gradient().Snapshot()

	if err := g.SelectImage(1); err != nil {
		t.Fatal(err)
	}
	if g.ActiveImage() != 1 {
		t.Errorf("active image = %d, want 1", g.ActiveImage())
	}
	if g.SimTime() != 0 {
		t.Errorf("sim time = %v, want 0 after image switch", g.SimTime())
	}

	assertSameSlice(t, "position", pos, g.Integrator().Position().Pix)
	assertSameSlice(t, "velocity", vel, g.Integrator().Velocity().Pix)
	assertSameSlice(t, "trail", trail, g.Trail().Pix)

	changed := false
	for i, v := range g.Field().Gradient().Pix {
		if v != grad[i] {
			changed = true
			break
		}
	}
	if !changed {
		t.Error("gradient unchanged after image switch")
	}

	// Invalid index leaves everything alone
	if err := g.SelectImage(7); err == nil {
		t.Error("expected error for out-of-range image")
	}
	if g.ActiveImage() != 1 {
		t.Errorf("active image = %d after invalid select", g.ActiveImage())
	}
}

func TestSelectImageFailureKeepsBinding(t *testing.T) {
	cfg := *config.Cfg()
	cfg.GPU.MaxTextureSize = cfg.Compositor.OutputSize
	gallery := []*assets.Image{
		assets.Procedural(1, 32)[0],
		{Path: "oversized", Img: image.NewNRGBA(image.Rect(0, 0, 2*cfg.Compositor.OutputSize, 16))},
	}
	g, err := NewGame(Options{Seed: 42, Config: &cfg}, gallery)
	if err != nil {
		t.Fatal(err)
	}
	defer g.Dispose()
	g.Start()
	for i := 0; i < 5; i++ {
		g.Step()
	}

	base, display, grad := g.Base(), g.Display(), g.Field().Gradient()
	baseBefore, gradBefore := base.Snapshot(), grad.Snapshot()
	simTime := g.SimTime()
	live := g.Device().LiveTextures()

	if err := g.SelectImage(1); !errors.Is(err, gpu.ErrResourceInit) {
		t.Fatalf("SelectImage(oversized) error = %v, want ErrResourceInit", err)
	}

	if g.ActiveImage() != 0 {
		t.Errorf("active image = %d, want 0", g.ActiveImage())
	}
	if g.Base() != base || g.Display() != display || g.Field().Gradient() != grad {
		t.Fatal("failed select replaced a bound surface")
	}
	if base.Released() || display.Released() || grad.Released() {
		t.Fatal("failed select released a bound surface")
	}
	assertSameSlice(t, "base", baseBefore, base.Pix)
	assertSameSlice(t, "gradient", gradBefore, grad.Pix)
	if g.SimTime() != simTime {
		t.Errorf("sim time = %v, want %v", g.SimTime(), simTime)
	}
	if got := g.Device().LiveTextures(); got != live {
		t.Errorf("live textures = %d, want %d", got, live)
	}

	// The pipeline keeps running on the old binding
	g.Step()
	if g.Tick() != 6 {
		t.Errorf("tick = %d, want 6", g.Tick())
	}
}

func TestResizeLayout(t *testing.T) {
	g := newTestGame(t, Options{})

	if g.Display() == nil {
		t.Fatal("graphical game has no display texture")
	}

	g.Resize(200, 100)
	l := g.Layout()
	// 32px image fits well inside 0.9*100, so it stays native size and centered
	if l.Width != 32 || l.Height != 32 || l.X != 84 || l.Y != 34 {
		t.Errorf("layout = %+v", l)
	}

	g.Resize(20, 20)
	l = g.Layout()
	if math.Abs(float64(l.Width-18)) > 1e-4 {
		t.Errorf("clamped width = %v, want 18", l.Width)
	}
}

func TestPresentOverlaysTrail(t *testing.T) {
	g := newTestGame(t, Options{})
	g.Step()

	// Trail alpha is 1 and overlay opacity 1, so the display shows the trail
	d := g.Display().Texel(16, 16)
	tr := g.Trail().Sample(g.Display().UV(16, 16), gpu.FilterLinear)
	for k := 0; k < 3; k++ {
		if math.Abs(float64(d[k]-tr[k])) > 1e-5 {
			t.Fatalf("display = %v, want trail %v", d, tr)
		}
	}
}

func TestPresentAtFullOpacityShowsTrail(t *testing.T) {
	size := config.Cfg().Compositor.OutputSize
	g, err := NewGame(Options{Seed: 42}, assets.Procedural(1, size))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Dispose()
	g.Start()

	for i := 0; i < 3; i++ {
		g.Step()
		assertSameTexture(t, "display", g.Display(), g.Trail())
	}
}

func TestPresentBlendsAtPartialOpacity(t *testing.T) {
	cfg := *config.Cfg()
	cfg.Compositor.OverlayOpacity = 0.25
	g, err := NewGame(Options{Seed: 42, Config: &cfg}, assets.Procedural(1, cfg.Compositor.OutputSize))
	if err != nil {
		t.Fatal(err)
	}
	defer g.Dispose()
	g.Start()
	g.Step()

	for _, p := range [][2]int{{0, 0}, {17, 90}, {64, 64}, {127, 3}} {
		x, y := p[0], p[1]
		b, tr, d := g.Base().Texel(x, y), g.Trail().Texel(x, y), g.Display().Texel(x, y)
		for k := 0; k < 3; k++ {
			want := b[k]*0.75 + tr[k]*0.25
			if math.Abs(float64(d[k]-want)) > 1e-5 {
				t.Fatalf("display (%d,%d) = %v, want base %v mixed with trail %v", x, y, d, b, tr)
			}
		}
	}
}

func TestPerfTracksDeviceMemory(t *testing.T) {
	g := newTestGame(t, Options{Headless: true})
	g.Step()
	g.Step()

	stats := g.PerfStats()
	if stats.LiveTextures != g.Device().LiveTextures() || stats.LiveBytes != g.Device().LiveBytes() {
		t.Errorf("perf memory = (%d, %d), device = (%d, %d)",
			stats.LiveTextures, stats.LiveBytes, g.Device().LiveTextures(), g.Device().LiveBytes())
	}
	if stats.PeakBytes < stats.LiveBytes {
		t.Errorf("peak bytes %d below live bytes %d", stats.PeakBytes, stats.LiveBytes)
	}
	if stats.Budget != time.Second/time.Duration(config.Cfg().Screen.TargetFPS) {
		t.Errorf("budget = %v", stats.Budget)
	}
}

func TestStatsCallback(t *testing.T) {
	cfg := config.Cfg()
	g := newTestGame(t, Options{Headless: true, StatsWindowSec: 10 * cfg.Sim.DT})

	var got []telemetry.WindowStats
	g.SetStatsCallback(func(s telemetry.WindowStats) { got = append(got, s) })

	for i := 0; i < 30; i++ {
		g.Step()
	}
	if len(got) != 3 {
		t.Fatalf("callbacks = %d, want 3", len(got))
	}
	if got[0].Particles != cfg.Derived.ParticleCount {
		t.Errorf("particles = %d, want %d", got[0].Particles, cfg.Derived.ParticleCount)
	}
	if got[2].WindowEndTick != 30 || got[2].RunID != g.RunID() {
		t.Errorf("last window = %+v", got[2])
	}
}

func TestOutputDirWritesFiles(t *testing.T) {
	dir := t.TempDir()
	g := newTestGame(t, Options{Headless: true, OutputDir: dir, SnapshotEvery: 5})

	for i := 0; i < 10; i++ {
		g.Step()
	}
	g.SetIntegrationMode(int(sim.ModeFall))
	g.Dispose()

	for _, name := range []string{"config.yaml", "telemetry.csv", "perf.csv", "events.csv", "snapshots/tick_00000010.json", "snapshots/tick_00000005_trail.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestDisposeReleasesEverything(t *testing.T) {
	g, err := NewGame(Options{Seed: 1}, assets.Procedural(1, 16))
	if err != nil {
		t.Fatal(err)
	}
	dev := g.Device()
	if dev.LiveTextures() == 0 {
		t.Fatal("no live textures before dispose")
	}

	g.Dispose()
	if dev.LiveTextures() != 0 {
		t.Errorf("live textures after dispose = %d", dev.LiveTextures())
	}
	if !g.Disposed() {
		t.Error("Disposed() = false")
	}

	// Second dispose and later ticks are no-ops
	g.Dispose()
	g.Start()
	g.Step()
	if g.Tick() != 0 {
		t.Errorf("disposed game ticked to %d", g.Tick())
	}
}
