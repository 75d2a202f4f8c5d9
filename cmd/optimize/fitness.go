package main

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/trails/assets"
	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/game"
	"github.com/pthm-cable/trails/telemetry"
)

// Targets describe the look the optimizer steers towards.
type Targets struct {
	Luminance float64 // mean trail luminance
	Spread    float64 // particle position std as a fraction of the world size
}

// FitnessEvaluator runs headless pipelines and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	ticks       int
	seeds       []int64
	mode        int
	baseConfig  *config.Config
	gallery     []*assets.Image
	targets     Targets
	statsWindow float64

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestWindows []telemetry.WindowStats
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []int64, mode int, baseCfg *config.Config, gallery []*assets.Image, targets Targets) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		ticks:       ticks,
		seeds:       seeds,
		mode:        mode,
		baseConfig:  baseCfg,
		gallery:     gallery,
		targets:     targets,
		statsWindow: 1.0,
		bestFitness: math.Inf(1),
	}
}

// BestWindows returns the window stats from the best evaluation's best seed.
func (fe *FitnessEvaluator) BestWindows() []telemetry.WindowStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestWindows
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	quality float64
	windows []telemetry.WindowStats
	err     error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is negative quality, averaged over every seed.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	// Every run owns its device, so seeds run in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			windows, err := fe.runPipeline(cfg, s)
			results[idx] = seedResult{
				quality: fe.computeQuality(windows),
				windows: windows,
				err:     err,
			}
		}(i, seed)
	}
	wg.Wait()

	var totalQuality float64
	bestSeed := -1
	for i, r := range results {
		if r.err != nil {
			// A parameter set the pipeline rejects scores as worst
			fmt.Printf("  seed %d failed: %v\n", fe.seeds[i], r.err)
			continue
		}
		totalQuality += r.quality
		if bestSeed < 0 || r.quality > results[bestSeed].quality {
			bestSeed = i
		}
	}

	quality := totalQuality / float64(len(fe.seeds))
	fitness := -quality

	fe.mu.Lock()
	if fitness < fe.bestFitness && bestSeed >= 0 {
		fe.bestFitness = fitness
		fe.bestWindows = results[bestSeed].windows
	}
	fe.lastQuality = quality
	fe.mu.Unlock()

	return fitness
}

// runPipeline executes a single headless run and returns its stats windows.
func (fe *FitnessEvaluator) runPipeline(cfg *config.Config, seed int64) ([]telemetry.WindowStats, error) {
	var windows []telemetry.WindowStats

	g, err := game.NewGame(game.Options{
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: fe.ticks,
		InitialMode:    fe.mode,
		Config:         cfg,
		StatsCallback: func(stats telemetry.WindowStats) {
			windows = append(windows, stats)
		},
	}, fe.gallery)
	if err != nil {
		return nil, err
	}
	defer g.Dispose()

	g.Start()
	g.UpdateHeadless()
	return windows, nil
}

// copyConfig returns a copy of the base config. Runs only read the gallery
// paths, so sharing that slice is safe.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// Quality component weights.
const (
	qualityWeightLuminance = 0.45
	qualityWeightStability = 0.25
	qualityWeightSpread    = 0.20
	qualityWeightBounds    = 0.10

	qualityWarmupWindows = 2 // skip first N windows while the trail builds up
)

// computeQuality scores a run in [0, 1] from its window stats.
func (fe *FitnessEvaluator) computeQuality(windows []telemetry.WindowStats) float64 {
	if len(windows) <= qualityWarmupWindows {
		return 0
	}
	valid := windows[qualityWarmupWindows:]

	lum := make([]float64, len(valid))
	var spreadSum, boundsSum float64
	for i, w := range valid {
		lum[i] = w.TrailLuminance

		// Spread relative to the world, using the larger axis
		cfg := fe.baseConfig.Sim
		spread := math.Max(w.PosStdX/cfg.WorldWidth, w.PosStdY/cfg.WorldHeight)
		spreadErr := (spread - fe.targets.Spread) / 0.1
		spreadSum += math.Exp(-spreadErr * spreadErr)

		if w.Particles > 0 {
			boundsSum += 1 - float64(w.OutOfBounds)/float64(w.Particles)
		}
	}
	n := float64(len(valid))

	// 1. Mean luminance close to target
	mean, std := stat.MeanStdDev(lum, nil)
	lumErr := (mean - fe.targets.Luminance) / 0.1
	lumScore := math.Exp(-lumErr * lumErr)

	// 2. Luminance stable across windows
	stabilityScore := 0.0
	if len(lum) >= 2 && mean > 0 {
		cv := std / mean
		stabilityScore = math.Exp(-cv * cv * 4)
	}

	quality := qualityWeightLuminance*lumScore +
		qualityWeightStability*stabilityScore +
		qualityWeightSpread*spreadSum/n +
		qualityWeightBounds*boundsSum/n

	return clamp01(quality)
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
