// Package game sequences the trail pipeline: one tick advances the clocks,
// integrates particle state, rasterizes the particles and blends them into
// the trail.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/trails/assets"
	"github.com/pthm-cable/trails/camera"
	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/field"
	"github.com/pthm-cable/trails/gpu"
	"github.com/pthm-cable/trails/renderer"
	"github.com/pthm-cable/trails/sim"
	"github.com/pthm-cable/trails/telemetry"
)

// Game holds the complete pipeline state.
type Game struct {
	cfg   *config.Config
	opts  Options
	rng   *rand.Rand
	runID string

	dev     *gpu.Device
	gallery []*assets.Image
	active  int

	// Pipeline stages
	base    *gpu.Texture
	field   *field.Extractor
	integ   *sim.Integrator
	raster  *renderer.Rasterizer
	comp    *renderer.Compositor
	display *gpu.Texture // nil in headless mode

	// Display
	viewportW, viewportH float32
	layout               camera.Layout

	// Clocks: the integrator clock drives respawn hashing, the render clock
	// drives the particle size curve.
	simClock    Clock
	renderClock Clock
	tick        int64

	// State
	paused   bool
	running  bool
	disposed bool

	// Telemetry
	perfCollector *telemetry.PerfCollector
	collector     *telemetry.Collector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	particles     []sim.Particle
}

// NewGame builds the pipeline for gallery and selects the initial image.
// The game is created detached; call Start before Update.
func NewGame(opts Options, gallery []*assets.Image) (*Game, error) {
	if len(gallery) == 0 {
		return nil, fmt.Errorf("%w: no images", ErrIncompleteGallery)
	}
	for i, img := range gallery {
		if img == nil || img.Img == nil {
			return nil, fmt.Errorf("%w: image %d missing", ErrIncompleteGallery, i)
		}
	}
	if opts.InitialImage < 0 || opts.InitialImage >= len(gallery) {
		return nil, fmt.Errorf("initial image %d out of range [0, %d)", opts.InitialImage, len(gallery))
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}
	if opts.StepsPerUpdate < 1 {
		opts.StepsPerUpdate = 1
	}
	if opts.RunID == "" {
		opts.RunID = telemetry.NewRunID()
	}
	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	g := &Game{
		cfg:     cfg,
		opts:    opts,
		rng:     rand.New(rand.NewSource(opts.Seed)),
		runID:   opts.RunID,
		gallery: gallery,
		active:  -1,
		dev: gpu.NewDevice(gpu.Options{
			Workers:        cfg.GPU.Workers,
			ParallelRows:   cfg.GPU.ParallelRows,
			MaxTextureSize: cfg.GPU.MaxTextureSize,
		}),
		simClock:      NewClock(cfg.Derived.DT32),
		renderClock:   NewClock(cfg.Derived.DT32),
		viewportW:     float32(cfg.Screen.Width),
		viewportH:     float32(cfg.Screen.Height),
		perfCollector: telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow, tickBudget(cfg.Screen.TargetFPS)),
		collector:     telemetry.NewCollector(statsWindow, cfg.Derived.DT32, opts.RunID),
		statsCallback: opts.StatsCallback,
	}

	g.perfCollector.SetDevice(g.dev)

	if err := g.build(); err != nil {
		g.dev.Dispose()
		return nil, err
	}

	mode, ok := sim.ParseMode(opts.InitialMode)
	if !ok {
		slog.Warn("invalid integration mode, using still", "requested", opts.InitialMode)
	}
	g.integ.SetMode(mode)

	om, err := telemetry.NewOutputManager(opts.OutputDir, opts.RunID)
	if err != nil {
		g.dev.Dispose()
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	return g, nil
}

// tickBudget is the time one tick may take at the target frame rate.
func tickBudget(targetFPS int) time.Duration {
	if targetFPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(targetFPS)
}

// build allocates every device resource and binds the initial image.
func (g *Game) build() error {
	cfg := g.cfg
	first := g.gallery[g.opts.InitialImage]

	var err error
	g.field, err = field.NewExtractor(g.dev, first.Width(), first.Height(), float32(cfg.Field.GradientStep))
	if err != nil {
		return fmt.Errorf("creating field extractor: %w", err)
	}

	g.integ, err = sim.New(g.dev, sim.ParamsFromConfig(cfg), g.rng)
	if err != nil {
		return fmt.Errorf("creating integrator: %w", err)
	}

	p := cfg.Particles
	geom := renderer.NewGeometry(cfg.Sim.GridSize, float32(p.SizeMin), float32(p.SizeMax), g.rng)
	g.raster, err = renderer.NewRasterizer(g.dev, renderer.ParamsFromConfig(cfg), geom)
	if err != nil {
		return fmt.Errorf("creating rasterizer: %w", err)
	}

	g.comp, err = renderer.NewCompositor(g.dev, cfg.Compositor.OutputSize)
	if err != nil {
		return fmt.Errorf("creating compositor: %w", err)
	}

	return g.bindImage(g.opts.InitialImage)
}

// bindImage uploads gallery image i as the base texture and re-extracts the
// steering fields from it. Base and display textures are reallocated only
// when the image size changes. On error the previous binding stays intact.
func (g *Game) bindImage(i int) error {
	img := g.gallery[i]
	w, h := img.Width(), img.Height()

	base, display := g.base, g.display
	resized := base == nil || base.Width != w || base.Height != h
	if resized {
		var err error
		base, display, err = g.allocateSurfaces(w, h)
		if err != nil {
			return err
		}
	}
	discard := func() {
		if resized {
			g.dev.Release(base)
			g.dev.Release(display)
		}
	}

	// Same-size uploads and extractions allocate nothing and cannot fail,
	// so writing into the bound base in place is safe.
	if err := base.Upload(img.Img); err != nil {
		discard()
		return err
	}
	if err := g.field.Extract(base); err != nil {
		discard()
		return fmt.Errorf("extracting fields: %w", err)
	}

	if resized {
		g.dev.Release(g.base)
		g.dev.Release(g.display)
		g.base, g.display = base, display
	}
	g.integ.SetGradient(g.field.Gradient())
	g.active = i
	g.updateLayout()
	return nil
}

// allocateSurfaces allocates a base texture and, when presenting, a display
// texture of the given size.
func (g *Game) allocateSurfaces(w, h int) (base, display *gpu.Texture, err error) {
	base, err = g.dev.NewTexture("game.base", w, h)
	if err != nil {
		return nil, nil, fmt.Errorf("allocating base texture: %w", err)
	}
	if !g.opts.Headless {
		display, err = g.dev.NewTexture("game.display", w, h)
		if err != nil {
			g.dev.Release(base)
			return nil, nil, fmt.Errorf("allocating display texture: %w", err)
		}
	}
	return base, display, nil
}

// Step runs one tick of the pipeline, strictly in order.
func (g *Game) Step() {
	if g.disposed {
		return
	}
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseIntegrate)
	g.simClock.Advance()
	g.renderClock.Advance()
	g.integ.Step(g.simClock.Elapsed())

	g.perfCollector.StartPhase(telemetry.PhaseRasterize)
	g.raster.Draw(g.integ.Position(), g.integ.Velocity(), g.base, g.renderClock.Elapsed())

	g.perfCollector.StartPhase(telemetry.PhaseComposite)
	if err := g.comp.Composite(g.raster.Target()); err != nil {
		// Buffers are allocated at the same size, so this is a wiring bug
		panic(err)
	}

	if g.display != nil {
		g.perfCollector.StartPhase(telemetry.PhasePresent)
		g.present()
	}

	g.tick++

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordRespawns(g.integ.SpawnedCount())
	g.flushTelemetry()
	g.snapshotIfDue()

	g.perfCollector.EndTick()
}

// present composites the trail over the base image into the display texture.
// Composite writes alpha 1, so at full opacity the display is the trail itself.
func (g *Game) present() {
	trail := g.comp.Read()
	opacity := float32(g.cfg.Compositor.OverlayOpacity)
	if opacity >= 1 && g.display.CopyFrom(trail) == nil {
		return
	}
	renderer.Overlay(g.dev, g.display, g.base, trail, opacity)
}

// Update runs one tick per display frame while attached and not paused.
func (g *Game) Update() {
	g.perfCollector.RecordFrame()
	if !g.running || g.paused || g.disposed {
		return
	}
	g.Step()
}

// UpdateHeadless runs StepsPerUpdate ticks while attached and not paused.
func (g *Game) UpdateHeadless() {
	if !g.running || g.paused || g.disposed {
		return
	}
	for i := 0; i < g.opts.StepsPerUpdate; i++ {
		g.Step()
	}
}

// Start attaches the game to the update loop.
func (g *Game) Start() {
	if g.running || g.disposed {
		return
	}
	g.running = true
	slog.Info("simulation started", "run_id", g.runID, "tick", g.tick)
}

// Stop detaches the game from the update loop. State is preserved.
func (g *Game) Stop() {
	if !g.running {
		return
	}
	g.running = false
	slog.Info("simulation stopped", "run_id", g.runID, "tick", g.tick)
}

// Dispose releases every device resource, stops the workers and closes
// telemetry output. Calling it more than once is harmless.
func (g *Game) Dispose() {
	if g.disposed {
		return
	}
	g.recordEvent(telemetry.EventDispose, "", "")
	g.running = false
	g.disposed = true

	released := g.dev.Dispose()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	slog.Info("disposed", "run_id", g.runID, "textures_released", released)
}
