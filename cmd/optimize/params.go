package main

import (
	"github.com/pthm-cable/trails/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			// Lifetimes
			{Name: "lifetime_min", Path: "sim.lifetime_min", Min: 0.3, Max: 3.0, Default: 1.0},
			{Name: "lifetime_max", Path: "sim.lifetime_max", Min: 1.0, Max: 8.0, Default: 4.0},
			// Sprite size
			{Name: "size_min", Path: "particles.size_min", Min: 2, Max: 40, Default: 10},
			{Name: "size_max", Path: "particles.size_max", Min: 40, Max: 300, Default: 150},
			{Name: "shrink_rate", Path: "particles.shrink_rate", Min: 0.1, Max: 2.0, Default: 0.5},
			// Fragment shape
			{Name: "edge_alpha", Path: "particles.edge_alpha", Min: 20, Max: 600, Default: 200},
			{Name: "dot_radius", Path: "particles.dot_radius", Min: 0.2, Max: 0.5, Default: 0.5},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig applies parameter values to a Config struct.
// Ranges whose upper bound falls below the lower bound collapse to the lower bound.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)

	// Order must match Specs order
	cfg.Sim.LifetimeMin = clamped[0]
	cfg.Sim.LifetimeMax = max(clamped[1], clamped[0])
	cfg.Particles.SizeMin = clamped[2]
	cfg.Particles.SizeMax = max(clamped[3], clamped[2])
	cfg.Particles.ShrinkRate = clamped[4]
	cfg.Particles.EdgeAlpha = clamped[5]
	cfg.Particles.DotRadius = clamped[6]
}

// ExtractFromConfig extracts current parameter values from a Config struct.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Sim.LifetimeMin,
		cfg.Sim.LifetimeMax,
		cfg.Particles.SizeMin,
		cfg.Particles.SizeMax,
		cfg.Particles.ShrinkRate,
		cfg.Particles.EdgeAlpha,
		cfg.Particles.DotRadius,
	}
}
