// Package camera provides the orthographic cameras used by the render passes
// and the display layout.
package camera

// Ortho maps a world rectangle onto a viewport of pixels.
// World y points up; screen row 0 is the bottom row, matching texture layout.
type Ortho struct {
	// World bounds visible through the camera
	Left, Right, Bottom, Top float32

	// Viewport dimensions in pixels
	ViewportW, ViewportH float32
}

// New creates a camera centered on the world origin showing worldW x worldH
// units on a viewportW x viewportH pixel target.
func New(worldW, worldH, viewportW, viewportH float32) *Ortho {
	return &Ortho{
		Left:      -worldW / 2,
		Right:     worldW / 2,
		Bottom:    -worldH / 2,
		Top:       worldH / 2,
		ViewportW: viewportW,
		ViewportH: viewportH,
	}
}

// WorldToScreen converts world coordinates to viewport pixel coordinates.
func (c *Ortho) WorldToScreen(wx, wy float32) (sx, sy float32) {
	sx = (wx - c.Left) / (c.Right - c.Left) * c.ViewportW
	sy = (wy - c.Bottom) / (c.Top - c.Bottom) * c.ViewportH
	return sx, sy
}

// PixelsPerUnit returns the horizontal and vertical scale from world to screen.
func (c *Ortho) PixelsPerUnit() (sx, sy float32) {
	return c.ViewportW / (c.Right - c.Left), c.ViewportH / (c.Top - c.Bottom)
}
