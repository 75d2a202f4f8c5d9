package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated particle statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Control state at window end
	Mode   string `csv:"mode"`
	Image  int    `csv:"image"`
	Paused bool   `csv:"paused"`

	// Population at window end
	Particles   int `csv:"particles"`
	Spawned     int `csv:"spawned"`
	OutOfBounds int `csv:"out_of_bounds"`

	// Events during window
	Respawns      int `csv:"respawns"`
	ModeChanges   int `csv:"mode_changes"`
	ImageSwitches int `csv:"image_switches"`

	// Remaining lifetime fraction distribution
	LifeMean float64 `csv:"life_mean"`
	LifeStd  float64 `csv:"life_std"`
	LifeP10  float64 `csv:"life_p10"`
	LifeP50  float64 `csv:"life_p50"`
	LifeP90  float64 `csv:"life_p90"`

	// Speed distribution in world units per tick
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	// Position spread
	PosMeanX float64 `csv:"pos_mean_x"`
	PosMeanY float64 `csv:"pos_mean_y"`
	PosStdX  float64 `csv:"pos_std_x"`
	PosStdY  float64 `csv:"pos_std_y"`

	// Mean trail luminance over the read surface
	TrailLuminance float64 `csv:"trail_luminance"`
}

// Percentile returns the p-th empirical quantile of a sorted slice.
// p is clamped to [0, 1]. Returns 0 if the slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	p = math.Max(0, math.Min(1, p))
	return stat.Quantile(p, stat.LinInterp, sorted, nil)
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Min, Max      float64
}

// ComputeDistribution calculates mean, population standard deviation,
// percentiles and extremes. values is not modified.
func ComputeDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, variance := stat.PopMeanVariance(sorted, nil)
	return Distribution{
		Mean: mean,
		Std:  math.Sqrt(variance),
		P10:  Percentile(sorted, 0.10),
		P50:  Percentile(sorted, 0.50),
		P90:  Percentile(sorted, 0.90),
		Min:  floats.Min(sorted),
		Max:  floats.Max(sorted),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("run_id", s.RunID),
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.String("mode", s.Mode),
		slog.Int("image", s.Image),
		slog.Bool("paused", s.Paused),
		slog.Int("particles", s.Particles),
		slog.Int("spawned", s.Spawned),
		slog.Int("out_of_bounds", s.OutOfBounds),
		slog.Int("respawns", s.Respawns),
		slog.Int("mode_changes", s.ModeChanges),
		slog.Int("image_switches", s.ImageSwitches),
		slog.Float64("life_mean", s.LifeMean),
		slog.Float64("life_std", s.LifeStd),
		slog.Float64("life_p10", s.LifeP10),
		slog.Float64("life_p50", s.LifeP50),
		slog.Float64("life_p90", s.LifeP90),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("pos_mean_x", s.PosMeanX),
		slog.Float64("pos_mean_y", s.PosMeanY),
		slog.Float64("pos_std_x", s.PosStdX),
		slog.Float64("pos_std_y", s.PosStdY),
		slog.Float64("trail_luminance", s.TrailLuminance),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"mode", s.Mode,
		"image", s.Image,
		"particles", s.Particles,
		"spawned", s.Spawned,
		"respawns", s.Respawns,
		"out_of_bounds", s.OutOfBounds,
		"life_mean", s.LifeMean,
		"life_p50", s.LifeP50,
		"speed_mean", s.SpeedMean,
		"speed_p90", s.SpeedP90,
		"speed_max", s.SpeedMax,
		"pos_std_x", s.PosStdX,
		"pos_std_y", s.PosStdY,
		"trail_luminance", s.TrailLuminance,
	)
}
