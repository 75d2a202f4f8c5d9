package telemetry

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase identifies one stage of a pipeline tick.
type Phase uint8

const (
	PhaseIntegrate Phase = iota
	PhaseRasterize
	PhaseComposite
	PhasePresent
	PhaseTelemetry

	NumPhases = 5
)

var phaseNames = [NumPhases]string{"integrate", "rasterize", "composite", "present", "telemetry"}

// Phases lists every phase in pipeline order.
var Phases = [NumPhases]Phase{
	PhaseIntegrate, PhaseRasterize, PhaseComposite,
	PhasePresent, PhaseTelemetry,
}

func (p Phase) String() string {
	if int(p) < NumPhases {
		return phaseNames[p]
	}
	return "unknown"
}

// DeviceStats reports the texture memory a device currently holds.
type DeviceStats interface {
	LiveTextures() int
	LiveBytes() int
}

// tickSample is the timing and memory record of one tick.
type tickSample struct {
	total    time.Duration
	phases   [NumPhases]time.Duration
	textures int
	bytes    int
}

// PerfCollector keeps a ring of per-tick samples and measures them against a
// per-tick time budget.
type PerfCollector struct {
	budget time.Duration
	device DeviceStats

	ring  []tickSample
	next  int
	count int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	peakBytes int

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector summarizes the last window ticks. A zero budget disables
// over-budget counting.
func NewPerfCollector(window int, budget time.Duration) *PerfCollector {
	if window < 1 {
		window = 60
	}
	return &PerfCollector{
		budget: budget,
		ring:   make([]tickSample, window),
	}
}

// SetDevice attaches the device whose memory is sampled at the end of each tick.
func (p *PerfCollector) SetDevice(d DeviceStats) {
	p.device = d
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.cur = tickSample{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and starts timing phase.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phase = phase
	p.phaseStart = now
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && int(p.phase) < NumPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
	p.inPhase = false
}

// EndTick closes the tick and stores its sample in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.cur.total = now.Sub(p.tickStart)
	if p.device != nil {
		p.cur.textures = p.device.LiveTextures()
		p.cur.bytes = p.device.LiveBytes()
		p.peakBytes = max(p.peakBytes, p.cur.bytes)
	}

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	p.count = min(p.count+1, len(p.ring))
}

// RecordFrame marks a display frame boundary.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PerfStats summarizes the ticks in the collector's window.
type PerfStats struct {
	AvgTick time.Duration
	MinTick time.Duration
	MaxTick time.Duration
	P95Tick time.Duration

	// Budget is the per-tick allowance; OverBudget the fraction of ticks
	// that exceeded it.
	Budget     time.Duration
	OverBudget float64

	PhaseAvg [NumPhases]time.Duration
	PhasePct [NumPhases]float64

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64

	// Device memory at the latest tick, and the peak since creation
	LiveTextures int
	LiveBytes    int
	PeakBytes    int
}

// Stats computes the window summary.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		Budget:        p.budget,
		FrameDuration: p.frame,
		PeakBytes:     p.peakBytes,
	}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.count == 0 {
		return s
	}

	ticks := make([]float64, p.count)
	var phaseSum [NumPhases]time.Duration
	over := 0
	for i, smp := range p.ring[:p.count] {
		ticks[i] = float64(smp.total)
		for k, d := range smp.phases {
			phaseSum[k] += d
		}
		if p.budget > 0 && smp.total > p.budget {
			over++
		}
	}
	latest := p.ring[(p.next+len(p.ring)-1)%len(p.ring)]
	s.LiveTextures = latest.textures
	s.LiveBytes = latest.bytes

	slices.Sort(ticks)
	s.AvgTick = time.Duration(stat.Mean(ticks, nil))
	s.MinTick = time.Duration(ticks[0])
	s.MaxTick = time.Duration(ticks[len(ticks)-1])
	s.P95Tick = time.Duration(stat.Quantile(0.95, stat.Empirical, ticks, nil))
	s.OverBudget = float64(over) / float64(p.count)

	for k, sum := range phaseSum {
		s.PhaseAvg[k] = sum / time.Duration(p.count)
		if s.AvgTick > 0 {
			s.PhasePct[k] = 100 * float64(s.PhaseAvg[k]) / float64(s.AvgTick)
		}
	}
	if s.AvgTick > 0 {
		s.TicksPerSecond = float64(time.Second) / float64(s.AvgTick)
	}
	return s
}

// Slowest returns the phase with the largest average share of the tick.
func (s PerfStats) Slowest() Phase {
	slowest := Phases[0]
	for _, ph := range Phases[1:] {
		if s.PhaseAvg[ph] > s.PhaseAvg[slowest] {
			slowest = ph
		}
	}
	return slowest
}

// LogStats logs the summary at info, or at warn when more than a tenth of the
// window ran over budget.
func (s PerfStats) LogStats() {
	level := slog.LevelInfo
	if s.OverBudget > 0.1 {
		level = slog.LevelWarn
	}
	slog.Log(context.Background(), level, "perf", "perf", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p95_tick_us", s.P95Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.Budget > 0 {
		attrs = append(attrs,
			slog.Int64("budget_us", s.Budget.Microseconds()),
			slog.Float64("over_budget", s.OverBudget),
			slog.String("slowest", s.Slowest().String()),
		)
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, ph := range Phases {
		if pct := s.PhasePct[ph]; pct > 0 {
			attrs = append(attrs, slog.Float64(ph.String()+"_pct", pct))
		}
	}
	if s.LiveTextures > 0 {
		attrs = append(attrs,
			slog.Int("textures", s.LiveTextures),
			slog.Int("live_bytes", s.LiveBytes),
			slog.Int("peak_bytes", s.PeakBytes),
		)
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	RunID         string  `csv:"run_id"`
	WindowEnd     int64   `csv:"window_end"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	P95TickUS     int64   `csv:"p95_tick_us"`
	MaxTickUS     int64   `csv:"max_tick_us"`
	OverBudgetPct float64 `csv:"over_budget_pct"`
	TicksPerSec   float64 `csv:"ticks_per_sec"`
	FPS           float64 `csv:"fps"`
	IntegratePct  float64 `csv:"integrate_pct"`
	RasterizePct  float64 `csv:"rasterize_pct"`
	CompositePct  float64 `csv:"composite_pct"`
	PresentPct    float64 `csv:"present_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
	Textures      int     `csv:"textures"`
	LiveBytes     int     `csv:"live_bytes"`
	PeakBytes     int     `csv:"peak_bytes"`
}

// ToCSV flattens the summary into one perf.csv row.
func (s PerfStats) ToCSV(runID string, windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		RunID:         runID,
		WindowEnd:     windowEnd,
		AvgTickUS:     s.AvgTick.Microseconds(),
		P95TickUS:     s.P95Tick.Microseconds(),
		MaxTickUS:     s.MaxTick.Microseconds(),
		OverBudgetPct: 100 * s.OverBudget,
		TicksPerSec:   s.TicksPerSecond,
		FPS:           s.FPS,
		IntegratePct:  s.PhasePct[PhaseIntegrate],
		RasterizePct:  s.PhasePct[PhaseRasterize],
		CompositePct:  s.PhasePct[PhaseComposite],
		PresentPct:    s.PhasePct[PhasePresent],
		TelemetryPct:  s.PhasePct[PhaseTelemetry],
		Textures:      s.LiveTextures,
		LiveBytes:     s.LiveBytes,
		PeakBytes:     s.PeakBytes,
	}
}
