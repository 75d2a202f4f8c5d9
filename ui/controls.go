package ui

import (
	"log/slog"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/trails/game"
	"github.com/pthm-cable/trails/sim"
)

// ControlPanel renders the right-side panel with the pause button, the mode
// toggle group and one thumbnail button per gallery image.
type ControlPanel struct {
	renderer  *Renderer
	presenter *Presenter
	modes     string
	width     int32
	thumbSize int32
}

// NewControlPanel creates a control panel using thumbnails from presenter.
func NewControlPanel(presenter *Presenter, width, thumbSize int32) *ControlPanel {
	return &ControlPanel{
		renderer:  NewRenderer(),
		presenter: presenter,
		modes:     strings.Join(sim.ModeNames(), ";"),
		width:     width,
		thumbSize: thumbSize,
	}
}

// Width returns the panel width.
func (c *ControlPanel) Width() int32 {
	return c.width
}

// Draw renders the panel at the right edge of the screen and applies any
// command the operator clicked. Commands take effect on the next tick.
func (c *ControlPanel) Draw(g *game.Game, screenWidth, screenHeight int32) {
	r := c.renderer
	padding := r.Theme.Padding
	x := screenWidth - c.width
	r.DrawPanel(x, 0, c.width, screenHeight)

	inner := float32(c.width - padding*2)
	px := float32(x + padding)
	y := r.DrawSectionHeader(x+padding, padding, "Controls")

	label := "Pause"
	if g.Paused() {
		label = "Resume"
	}
	if gui.Button(rl.Rectangle{X: px, Y: float32(y), Width: inner, Height: 30}, label) {
		g.TogglePause()
	}
	y += 30 + padding

	y = r.DrawSectionHeader(x+padding, y, "Mode")
	itemW := (inner - float32(sim.NumModes-1)*2) / sim.NumModes
	current := int32(g.Mode())
	selected := gui.ToggleGroup(rl.Rectangle{X: px, Y: float32(y), Width: itemW, Height: 24}, c.modes, current)
	if selected != current {
		g.SetIntegrationMode(int(selected))
	}
	y += 24 + padding

	y = r.DrawSectionHeader(x+padding, y, "Images")
	perRow := max(1, (c.width-padding)/(c.thumbSize+padding))
	for i := 0; i < c.presenter.Thumbnails(); i++ {
		tx := x + padding + int32(i)%perRow*(c.thumbSize+padding)
		ty := y + int32(i)/perRow*(c.thumbSize+padding)
		bounds := rl.Rectangle{X: float32(tx), Y: float32(ty), Width: float32(c.thumbSize), Height: float32(c.thumbSize)}

		if gui.Button(bounds, "") && i != g.ActiveImage() {
			if err := g.SelectImage(i); err != nil {
				slog.Error("image selection failed", "index", i, "error", err)
			}
		}

		thumb := c.presenter.Thumbnail(i)
		inset := rl.Rectangle{X: bounds.X + 2, Y: bounds.Y + 2, Width: bounds.Width - 4, Height: bounds.Height - 4}
		rl.DrawTexturePro(thumb, rl.Rectangle{Width: float32(thumb.Width), Height: float32(thumb.Height)}, inset, rl.Vector2{}, 0, rl.White)
		if i == g.ActiveImage() {
			rl.DrawRectangleLinesEx(bounds, 2, r.Theme.Highlight)
		}
	}
}

// HandleInput maps keys to runtime commands: Escape or Space toggles pause
// and 1-4 select the integration mode.
func HandleInput(g *game.Game) {
	if rl.IsKeyPressed(rl.KeyEscape) || rl.IsKeyPressed(rl.KeySpace) {
		g.TogglePause()
	}

	modeKeys := [sim.NumModes]int32{rl.KeyOne, rl.KeyTwo, rl.KeyThree, rl.KeyFour}
	for i, key := range modeKeys {
		if rl.IsKeyPressed(key) {
			g.SetIntegrationMode(i)
		}
	}
}
