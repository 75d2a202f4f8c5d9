package ui

import (
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/trails/assets"
	"github.com/pthm-cable/trails/camera"
	"github.com/pthm-cable/trails/gpu"
)

// Presenter mirrors the display composite into a window texture and draws it
// on the display mesh.
type Presenter struct {
	tex    rl.Texture2D
	loaded bool
	w, h   int
	pixels []color.RGBA

	thumbs []rl.Texture2D
}

// NewPresenter uploads a thumbnail for every gallery image. Requires an open
// window.
func NewPresenter(gallery []*assets.Image, thumbSize int) *Presenter {
	p := &Presenter{thumbs: make([]rl.Texture2D, len(gallery))}
	for i, img := range gallery {
		thumb := rl.NewImageFromImage(img.Thumbnail(thumbSize))
		p.thumbs[i] = rl.LoadTextureFromImage(thumb)
		rl.UnloadImage(thumb)
	}
	return p
}

// Upload copies src into the window texture, reallocating it when the
// size changes.
func (p *Presenter) Upload(src *gpu.Texture) {
	if src == nil {
		return
	}
	if !p.loaded || p.w != src.Width || p.h != src.Height {
		p.unloadDisplay()
		img := rl.GenImageColor(src.Width, src.Height, rl.Black)
		p.tex = rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		rl.SetTextureFilter(p.tex, rl.FilterBilinear)
		p.w, p.h = src.Width, src.Height
		p.loaded = true
	}
	p.pixels = src.RGBA(p.pixels)
	rl.UpdateTexture(p.tex, p.pixels)
}

// Draw renders the window texture into the layout rectangle.
func (p *Presenter) Draw(l camera.Layout) {
	if !p.loaded {
		return
	}
	src := rl.Rectangle{Width: float32(p.w), Height: float32(p.h)}
	dst := rl.Rectangle{X: l.X, Y: l.Y, Width: l.Width, Height: l.Height}
	rl.DrawTexturePro(p.tex, src, dst, rl.Vector2{}, 0, rl.White)
}

// Thumbnail returns the uploaded thumbnail for gallery image i.
func (p *Presenter) Thumbnail(i int) rl.Texture2D {
	return p.thumbs[i]
}

// Thumbnails returns the number of uploaded thumbnails.
func (p *Presenter) Thumbnails() int {
	return len(p.thumbs)
}

func (p *Presenter) unloadDisplay() {
	if p.loaded {
		rl.UnloadTexture(p.tex)
		p.loaded = false
	}
}

// Unload releases every window texture.
func (p *Presenter) Unload() {
	p.unloadDisplay()
	for _, t := range p.thumbs {
		rl.UnloadTexture(t)
	}
	p.thumbs = nil
}
