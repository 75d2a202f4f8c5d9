package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/trails/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title     string
	Tick      int64
	SimTime   float32
	Mode      string
	Image     int
	Images    int
	Particles int
	FPS       int32
	Paused    bool
}

// HUD renders the heads-up display in the top-left corner.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{renderer: NewRenderer()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Particles: %d | Image: %d/%d | Mode: %s", data.Particles, data.Image+1, data.Images, data.Mode),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Tick: %d | Time: %.1fs | FPS: %d", data.Tick, data.SimTime, data.FPS),
		10, 55, 16, rl.LightGray,
	)

	if data.Paused {
		rl.DrawText("PAUSED", 10, 75, 16, rl.Yellow)
	}
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the per-phase tick breakdown.
type PerfPanel struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(x, y, width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the panel position.
func (p *PerfPanel) SetPosition(x, y int32) {
	p.x = x
	p.y = y
}

// Draw renders the performance panel.
func (p *PerfPanel) Draw(stats telemetry.PerfStats) {
	r := p.renderer
	padding := r.Theme.Padding
	height := r.Theme.LineHeight*int32(len(telemetry.Phases)+5) + padding*2
	r.DrawPanel(p.x, p.y, p.width, height)

	x := p.x + padding
	y := r.DrawSectionHeader(x, p.y+padding, "Tick Phases")
	y = r.DrawLabelValue(x, y, "Avg tick", stats.AvgTick.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "P95 tick", stats.P95Tick.Round(time.Microsecond).String())
	y = r.DrawLabelValue(x, y, "Over", fmt.Sprintf("%.0f%%", 100*stats.OverBudget))
	y = r.DrawLabelValue(x, y, "Textures", fmt.Sprintf("%d (%.1f MB)", stats.LiveTextures, float64(stats.LiveBytes)/(1<<20)))

	for _, phase := range telemetry.Phases {
		y = r.DrawBar(x, y, phase.String(), stats.PhasePct[phase], p.width-padding*2)
	}
}
