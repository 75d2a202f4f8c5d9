package camera

// Layout places the display mesh inside the viewport.
// Rect coordinates are top-left based screen pixels.
type Layout struct {
	ViewportW, ViewportH float32

	X, Y          float32
	Width, Height float32

	// Scale applied to the native trail size
	Scale float32
}

// ComputeLayout fits a nativeW x nativeH surface into the viewport. The longer
// side is clamped to fraction of the smaller viewport side, never upscaled past
// its native size, and the aspect ratio is preserved. The result is centered.
func ComputeLayout(nativeW, nativeH, viewportW, viewportH, fraction float32) Layout {
	l := Layout{ViewportW: viewportW, ViewportH: viewportH}
	if nativeW <= 0 || nativeH <= 0 || viewportW <= 0 || viewportH <= 0 {
		return l
	}

	native := max(nativeW, nativeH)
	limit := min(viewportW, viewportH) * fraction
	meshSize := min(native, limit)

	l.Scale = meshSize / native
	l.Width = nativeW * l.Scale
	l.Height = nativeH * l.Scale
	l.X = (viewportW - l.Width) / 2
	l.Y = (viewportH - l.Height) / 2
	return l
}
