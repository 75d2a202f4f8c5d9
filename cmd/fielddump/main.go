// Field dump tool - runs the pipeline headlessly on one image and writes the
// luminance, gradient, particle and trail textures for inspection.
//
// Usage: go run ./cmd/fielddump -image photo.jpg -ticks 240 -mode swirl -out dump
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/trails/assets"
	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/game"
	"github.com/pthm-cable/trails/sim"
	"github.com/pthm-cable/trails/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	imagePath := flag.String("image", "", "Source image (empty = procedural)")
	pattern := flag.Int("pattern", 0, "Procedural pattern index when -image is empty")
	ticks := flag.Int("ticks", 120, "Ticks to run before dumping")
	mode := flag.String("mode", "flow", "Integration mode: 0-3 or flow|swirl|fall|still")
	seed := flag.Int64("seed", 1, "RNG seed")
	format := flag.String("format", "png", "Output format: png, bmp or tiff")
	outDir := flag.String("out", "fielddump", "Output directory")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		fail("loading config: %v", err)
	}
	cfg := config.Cfg()

	var gallery []*assets.Image
	if *imagePath != "" {
		img, err := assets.LoadImage(*imagePath)
		if err != nil {
			fail("%v", err)
		}
		gallery = []*assets.Image{img}
	} else {
		gallery = assets.Procedural(*pattern+1, cfg.Compositor.OutputSize)[*pattern:]
	}

	m, ok := sim.LookupMode(*mode)
	if !ok {
		fail("unknown mode %q (want one of %s)", *mode, strings.Join(sim.ModeNames(), ", "))
	}

	g, err := game.NewGame(game.Options{
		Seed:           *seed,
		Headless:       true,
		StepsPerUpdate: *ticks,
		InitialMode:    int(m),
	}, gallery)
	if err != nil {
		fail("creating pipeline: %v", err)
	}
	defer g.Dispose()

	g.Start()
	if *ticks > 0 {
		g.UpdateHeadless()
	}

	ext := "." + *format
	if *format == "tiff" {
		ext = ".tif"
	}
	prefix := fmt.Sprintf("%s_%s_t%d", stem(gallery[0].Path), g.Mode(), g.Tick())
	if err := telemetry.WriteSnapshot(*outDir, prefix, ext, g.SnapshotMeta(), g.Layers()); err != nil {
		fail("writing layers: %v", err)
	}

	fmt.Printf("Layers written to: %s (%s%s)\n", *outDir, prefix, ext)
}

func stem(path string) string {
	if strings.HasPrefix(path, "procedural:") {
		return strings.ReplaceAll(path, ":", "_")
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
