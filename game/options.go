package game

import (
	"errors"

	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/telemetry"
)

// ErrIncompleteGallery is returned when the gallery is empty or has missing entries.
var ErrIncompleteGallery = errors.New("game: incomplete gallery")

// Options configures a Game.
type Options struct {
	Seed           int64
	RunID          string  // identifier stamped on telemetry; empty = generated
	LogStats       bool    // log window and perf stats via slog
	StatsWindowSec float64 // telemetry window; 0 = use config
	OutputDir      string  // CSV, config and snapshot output; empty = disabled
	SnapshotEvery  int64   // ticks between snapshots written to OutputDir; 0 = never
	Headless       bool    // skip the presentation composite
	StepsPerUpdate int     // ticks per UpdateHeadless call
	InitialImage   int
	InitialMode    int

	// Config overrides the global configuration; nil = config.Cfg().
	// Lets concurrent runs use different parameters.
	Config *config.Config
	// StatsCallback receives every flushed stats window.
	StatsCallback func(telemetry.WindowStats)
}
