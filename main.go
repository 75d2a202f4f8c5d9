package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/trails/assets"
	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/game"
	"github.com/pthm-cable/trails/sim"
	"github.com/pthm-cable/trails/telemetry"
	"github.com/pthm-cable/trails/ui"
)

const controlsLegend = "Space/Esc: pause | 1-4: mode | click thumbnail: switch image"

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	statsWindow := flag.Float64("stats-window", 0, "Stats window size in seconds (0 = use config)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, config and snapshots")
	snapshotEvery := flag.Int64("snapshot-every", 0, "Write texture snapshots every N ticks (requires -output-dir)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")
	images := flag.String("images", "", "Comma-separated image paths (empty = use config, then procedural)")
	mode := flag.String("mode", "", "Initial integration mode: 0-3 or flow|swirl|fall|still (empty = use config)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	initialMode := cfg.Sim.Mode
	if *mode != "" {
		m, ok := sim.LookupMode(*mode)
		if !ok {
			slog.Error("unknown mode", "mode", *mode, "modes", sim.ModeNames())
			os.Exit(1)
		}
		initialMode = int(m)
	}

	gallery, err := loadGallery(cfg, *images)
	if err != nil {
		slog.Error("failed to load gallery", "error", err)
		os.Exit(1)
	}

	opts := game.Options{
		Seed:           rngSeed,
		RunID:          telemetry.NewRunID(),
		LogStats:       *logStats,
		StatsWindowSec: *statsWindow,
		OutputDir:      *outputDir,
		SnapshotEvery:  *snapshotEvery,
		Headless:       *headless,
		StepsPerUpdate: *stepsPerUpdate,
		InitialMode:    initialMode,
	}

	if *headless {
		runHeadless(opts, gallery, *maxTicks)
		return
	}
	runGraphical(cfg, opts, gallery, *maxTicks)
}

// loadGallery resolves the image list from the flag, then the config, and
// falls back to a procedural gallery.
func loadGallery(cfg *config.Config, flagPaths string) ([]*assets.Image, error) {
	paths := cfg.Gallery.Images
	if flagPaths != "" {
		paths = strings.Split(flagPaths, ",")
	}
	if len(paths) == 0 {
		size := cfg.Gallery.Resize
		if size <= 0 {
			size = cfg.Compositor.OutputSize
		}
		return assets.Procedural(cfg.Gallery.ProceduralCount, size), nil
	}
	return assets.LoadGallery(paths, cfg.Gallery.Resize)
}

func mustNewGame(opts game.Options, gallery []*assets.Image) *game.Game {
	g, err := game.NewGame(opts, gallery)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		os.Exit(1)
	}
	return g
}

func runHeadless(opts game.Options, gallery []*assets.Image, maxTicks int) {
	// Pure CPU pipeline, no raylib needed
	g := mustNewGame(opts, gallery)
	defer g.Dispose()

	slog.Info("starting headless simulation",
		"run_id", g.RunID(),
		"seed", opts.Seed,
		"images", len(gallery),
		"mode", g.Mode().String(),
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	g.Start()
	for {
		g.UpdateHeadless()

		if maxTicks > 0 && g.Tick() >= int64(maxTicks) {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
}

func runGraphical(cfg *config.Config, opts game.Options, gallery []*assets.Image, maxTicks int) {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Trails")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	// Escape toggles pause instead of closing the window
	rl.SetExitKey(0)

	g := mustNewGame(opts, gallery)
	defer g.Dispose()

	thumbSize := cfg.Gallery.ThumbnailSize
	presenter := ui.NewPresenter(gallery, thumbSize)
	defer presenter.Unload()

	hud := ui.NewHUD()
	controls := ui.NewControlPanel(presenter, 220, int32(thumbSize))
	perf := ui.NewPerfPanel(10, 100, 260)
	particles := cfg.Sim.GridSize * cfg.Sim.GridSize

	g.Resize(rl.GetScreenWidth(), rl.GetScreenHeight())
	g.Start()

	for !rl.WindowShouldClose() {
		if rl.IsWindowResized() {
			g.Resize(rl.GetScreenWidth(), rl.GetScreenHeight())
		}
		ui.HandleInput(g)
		g.Update()
		presenter.Upload(g.Display())

		screenW, screenH := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())

		rl.BeginDrawing()
		rl.ClearBackground(ui.DefaultTheme().Background)
		presenter.Draw(g.Layout())
		hud.Draw(ui.HUDData{
			Title:     "Trails",
			Tick:      g.Tick(),
			SimTime:   g.SimTime(),
			Mode:      g.Mode().String(),
			Image:     g.ActiveImage(),
			Images:    len(gallery),
			Particles: particles,
			FPS:       rl.GetFPS(),
			Paused:    g.Paused(),
		})
		perf.Draw(g.PerfStats())
		controls.Draw(g, screenW, screenH)
		hud.DrawControls(screenH, controlsLegend)
		rl.EndDrawing()

		if maxTicks > 0 && g.Tick() >= int64(maxTicks) {
			slog.Info("max ticks reached", "tick", g.Tick())
			break
		}
	}
}
