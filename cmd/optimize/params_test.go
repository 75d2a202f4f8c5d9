package main

import (
	"math"
	"testing"

	"github.com/pthm-cable/trails/config"
	"github.com/pthm-cable/trails/telemetry"
)

func TestApplyToConfigCollapsesInvertedRanges(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()

	v := pv.DefaultVector()
	v[0], v[1] = 2.5, 1.5 // lifetime max below min
	v[2], v[3] = 40, 40
	pv.ApplyToConfig(cfg, v)

	if cfg.Sim.LifetimeMax != cfg.Sim.LifetimeMin {
		t.Errorf("lifetime range = [%v, %v], want collapsed to min", cfg.Sim.LifetimeMin, cfg.Sim.LifetimeMax)
	}
	if cfg.Particles.SizeMax < cfg.Particles.SizeMin {
		t.Errorf("size range = [%v, %v], want max >= min", cfg.Particles.SizeMin, cfg.Particles.SizeMax)
	}

	got := pv.ExtractFromConfig(cfg)
	if len(got) != pv.Dim() {
		t.Fatalf("extracted %d values, want %d", len(got), pv.Dim())
	}
}

func TestNormalizeBounds(t *testing.T) {
	pv := NewParamVector()
	lo := make([]float64, pv.Dim())
	hi := make([]float64, pv.Dim())
	for i, s := range pv.Specs {
		lo[i], hi[i] = s.Min, s.Max
	}

	for i, v := range pv.Normalize(lo) {
		if math.Abs(v) > 1e-12 {
			t.Errorf("%s: normalized min = %v, want 0", pv.Specs[i].Name, v)
		}
	}
	for i, v := range pv.Normalize(hi) {
		if math.Abs(v-1) > 1e-12 {
			t.Errorf("%s: normalized max = %v, want 1", pv.Specs[i].Name, v)
		}
	}

	out := pv.Clamp(pv.Denormalize([]float64{-1, 2, 0.5, 0.5, 0.5, 0.5, 0.5}))
	if out[0] != pv.Specs[0].Min || out[1] != pv.Specs[1].Max {
		t.Errorf("clamp = %v, want bounds at the ends", out[:2])
	}
}

func TestComputeQuality(t *testing.T) {
	cfg, _ := config.Load("")
	fe := NewFitnessEvaluator(NewParamVector(), 10, []int64{1}, 0, cfg, nil, Targets{Luminance: 0.3, Spread: 0.25})

	if q := fe.computeQuality(make([]telemetry.WindowStats, qualityWarmupWindows)); q != 0 {
		t.Errorf("warmup only: quality = %v, want 0", q)
	}

	on := telemetry.WindowStats{
		Particles:      100,
		TrailLuminance: 0.3,
		PosStdX:        0.25 * cfg.Sim.WorldWidth,
		PosStdY:        0.1 * cfg.Sim.WorldHeight,
	}
	off := on
	off.TrailLuminance = 0.9
	off.OutOfBounds = 50

	good := fe.computeQuality([]telemetry.WindowStats{on, on, on, on, on})
	bad := fe.computeQuality([]telemetry.WindowStats{on, on, off, off, off})
	if math.Abs(good-1) > 1e-9 {
		t.Errorf("on-target quality = %v, want 1", good)
	}
	if bad >= good {
		t.Errorf("off-target quality %v should be below on-target %v", bad, good)
	}
}
