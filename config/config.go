// Package config provides configuration loading and access for the renderer.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation and rendering parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Sim        SimConfig        `yaml:"sim"`
	Field      FieldConfig      `yaml:"field"`
	Particles  ParticlesConfig  `yaml:"particles"`
	Compositor CompositorConfig `yaml:"compositor"`
	GPU        GPUConfig        `yaml:"gpu"`
	Gallery    GalleryConfig    `yaml:"gallery"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// SimConfig holds the particle state grid and integrator parameters.
type SimConfig struct {
	GridSize    int     `yaml:"grid_size"`
	WorldWidth  float64 `yaml:"world_width"`
	WorldHeight float64 `yaml:"world_height"`
	DT          float64 `yaml:"dt"`
	LifetimeMin float64 `yaml:"lifetime_min"`
	LifetimeMax float64 `yaml:"lifetime_max"`
	Mode        int     `yaml:"mode"` // Initial integration mode
}

// FieldConfig holds gradient extraction parameters.
type FieldConfig struct {
	GradientStep float64 `yaml:"gradient_step"`
}

// ParticlesConfig holds quad geometry and fragment parameters.
type ParticlesConfig struct {
	SizeMin    float64 `yaml:"size_min"`
	SizeMax    float64 `yaml:"size_max"`
	ShrinkRate float64 `yaml:"shrink_rate"`
	SizeFloor  float64 `yaml:"size_floor"`
	SizeCeil   float64 `yaml:"size_ceil"`
	EdgeAlpha  float64 `yaml:"edge_alpha"`
	DotRadius  float64 `yaml:"dot_radius"`
}

// CompositorConfig holds trail buffer and display parameters.
type CompositorConfig struct {
	OutputSize      int     `yaml:"output_size"`
	DisplayFraction float64 `yaml:"display_fraction"`
	OverlayOpacity  float64 `yaml:"overlay_opacity"`
}

// GPUConfig holds texture device parameters.
type GPUConfig struct {
	Workers        int `yaml:"workers"`
	ParallelRows   int `yaml:"parallel_rows"`
	MaxTextureSize int `yaml:"max_texture_size"`
}

// GalleryConfig holds source image settings.
type GalleryConfig struct {
	Images          []string `yaml:"images"`
	ProceduralCount int      `yaml:"procedural_count"`
	Resize          int      `yaml:"resize"`
	ThumbnailSize   int      `yaml:"thumbnail_size"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"`
	PerfWindow  int     `yaml:"perf_window"`
}

// DerivedConfig holds values computed from other config values.
type DerivedConfig struct {
	DT32          float32
	WorldW32      float32
	WorldH32      float32
	ParticleCount int
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// validate rejects values the pipeline cannot run with.
func (c *Config) validate() error {
	switch {
	case c.Sim.GridSize <= 0:
		return fmt.Errorf("sim.grid_size must be positive, got %d", c.Sim.GridSize)
	case c.Sim.WorldWidth <= 0 || c.Sim.WorldHeight <= 0:
		return fmt.Errorf("sim world size must be positive, got %vx%v", c.Sim.WorldWidth, c.Sim.WorldHeight)
	case c.Sim.DT <= 0:
		return fmt.Errorf("sim.dt must be positive, got %v", c.Sim.DT)
	case c.Sim.LifetimeMin <= 0 || c.Sim.LifetimeMax < c.Sim.LifetimeMin:
		return fmt.Errorf("invalid lifetime range [%v, %v]", c.Sim.LifetimeMin, c.Sim.LifetimeMax)
	case c.Particles.SizeMin <= 0 || c.Particles.SizeMax < c.Particles.SizeMin:
		return fmt.Errorf("invalid particle size range [%v, %v]", c.Particles.SizeMin, c.Particles.SizeMax)
	case c.Field.GradientStep <= 0:
		return fmt.Errorf("field.gradient_step must be positive, got %v", c.Field.GradientStep)
	case c.Compositor.OutputSize <= 0:
		return fmt.Errorf("compositor.output_size must be positive, got %d", c.Compositor.OutputSize)
	case c.Compositor.OverlayOpacity < 0 || c.Compositor.OverlayOpacity > 1:
		return fmt.Errorf("compositor.overlay_opacity must be in [0, 1], got %v", c.Compositor.OverlayOpacity)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Sim.DT)
	c.Derived.WorldW32 = float32(c.Sim.WorldWidth)
	c.Derived.WorldH32 = float32(c.Sim.WorldHeight)
	c.Derived.ParticleCount = c.Sim.GridSize * c.Sim.GridSize

	if c.Compositor.DisplayFraction <= 0 || c.Compositor.DisplayFraction > 1 {
		c.Compositor.DisplayFraction = 0.9
	}
	if c.Gallery.ProceduralCount <= 0 {
		c.Gallery.ProceduralCount = 1
	}
	if c.Telemetry.PerfWindow < 1 {
		c.Telemetry.PerfWindow = 60
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
