// Field preview tool - interactive view of the steering fields extracted from
// a gallery image, with sliders for the extraction parameters.
//
// Usage: go run ./cmd/fieldpreview [-images a.png,b.jpg]
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"
	"strings"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/pthm-cable/trails/assets"
	"github.com/pthm-cable/trails/field"
	"github.com/pthm-cable/trails/gpu"
)

const (
	windowWidth  = 1000
	windowHeight = 720
	previewSize  = 512
	panelWidth   = windowWidth - previewSize - 30
	fieldSize    = 256
)

// View selects which layer is shown.
type View int32

const (
	ViewSource View = iota
	ViewLuminance
	ViewDX
	ViewDY
	ViewMagnitude
)

const viewNames = "source;lum;dx;dy;mag"

// PreviewParams holds the extraction and display parameters.
type PreviewParams struct {
	Step  float32 // finite-difference divisor
	Gain  float32 // display amplification of gradient deviation
	Image int
	View  View
}

func defaultParams() PreviewParams {
	return PreviewParams{Step: 256, Gain: 8, View: ViewMagnitude}
}

func main() {
	images := flag.String("images", "", "Comma-separated image paths (empty = procedural)")
	flag.Parse()

	var gallery []*assets.Image
	if *images != "" {
		var err error
		gallery, err = assets.LoadGallery(strings.Split(*images, ","), fieldSize)
		if err != nil {
			log.Fatalf("failed to load gallery: %v", err)
		}
	} else {
		gallery = assets.Procedural(4, fieldSize)
	}

	dev := gpu.NewDevice(gpu.Options{})
	defer dev.Dispose()

	src, err := dev.NewTexture("preview.source", fieldSize, fieldSize)
	if err != nil {
		log.Fatal(err)
	}
	params := defaultParams()
	extractor, err := field.NewExtractor(dev, fieldSize, fieldSize, params.Step)
	if err != nil {
		log.Fatal(err)
	}

	rl.InitWindow(windowWidth, windowHeight, "Field Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	img := rl.GenImageColor(fieldSize, fieldSize, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	pixels := make([]color.RGBA, fieldSize*fieldSize)
	needsRegen := true
	var stats fieldStats

	for !rl.WindowShouldClose() {
		if needsRegen {
			if err := regenerate(src, extractor, gallery[params.Image], params.Step); err != nil {
				log.Fatal(err)
			}
			stats = computeStats(extractor.Gradient())
			needsRegen = false
		}
		updateTexture(texture, pixels, src, extractor, params)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: fieldSize, Height: fieldSize},
			rl.Rectangle{X: 10, Y: 10, Width: previewSize, Height: previewSize},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewSize, previewSize, rl.DarkGray)

		statsY := int32(previewSize + 25)
		rl.DrawText(fmt.Sprintf("|grad| Min: %.4f  Max: %.4f  Avg: %.4f", stats.min, stats.max, stats.avg), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("Flat texels: %.1f%%", stats.flatPct), 15, statsY+20, 16, rl.DarkGray)
		rl.DrawText(gallery[params.Image].Path, 15, statsY+40, 16, rl.DarkGray)

		// Control panel
		panelX := float32(previewSize + 20)
		panelY := float32(10)

		rl.DrawText("Field Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		rl.DrawText("View", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newView := View(gui.ToggleGroup(rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth-8) / 5, Height: 24}, viewNames, int32(params.View)))
		params.View = newView
		panelY += 40

		rl.DrawText("Gradient step (difference is 1/step in uv)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		newStep := gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"8", "1024",
			params.Step, 8, 1024,
		)
		rl.DrawText(fmt.Sprintf("%.0f", params.Step), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		if newStep = float32(math.Round(float64(newStep))); newStep != params.Step {
			params.Step = newStep
			needsRegen = true
		}
		panelY += 35

		rl.DrawText("Display gain (gradient views only)", int32(panelX), int32(panelY), 14, rl.Gray)
		panelY += 18
		params.Gain = gui.SliderBar(
			rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
			"1", "64",
			params.Gain, 1, 64,
		)
		rl.DrawText(fmt.Sprintf("%.1f", params.Gain), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
		panelY += 45

		// Buttons
		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Prev Image") {
			params.Image = (params.Image + len(gallery) - 1) % len(gallery)
			needsRegen = true
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Next Image") {
			params.Image = (params.Image + 1) % len(gallery)
			needsRegen = true
		}
		panelY += 45

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			image := params.Image
			params = defaultParams()
			params.Image = image
			needsRegen = true
		}
		panelY += 55

		rl.DrawText("YAML Config:", int32(panelX), int32(panelY), 16, rl.DarkGray)
		panelY += 25
		yaml := fieldYAML(params)
		for _, line := range strings.Split(yaml, "\n") {
			rl.DrawText(line, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 16
		}

		rl.DrawText("Press C to copy YAML to clipboard", int32(panelX), int32(windowHeight-30), 12, rl.LightGray)
		if rl.IsKeyPressed(rl.KeyC) {
			rl.SetClipboardText(yaml)
		}

		rl.EndDrawing()
	}
}

func fieldYAML(p PreviewParams) string {
	return fmt.Sprintf("field:\n  gradient_step: %.0f", p.Step)
}

// regenerate uploads the source image and re-extracts the fields. Every
// gallery image is loaded at fieldSize.
func regenerate(src *gpu.Texture, e *field.Extractor, img *assets.Image, step float32) error {
	if err := src.Upload(img.Img); err != nil {
		return err
	}
	e.SetStep(step)
	return e.Extract(src)
}

type fieldStats struct {
	min, max, avg float32
	flatPct       float32
}

// computeStats summarizes the gradient deviation from flat.
func computeStats(grad *gpu.Texture) fieldStats {
	s := fieldStats{min: float32(math.Inf(1))}
	var sum float32
	flat := 0
	n := grad.Width * grad.Height
	for y := 0; y < grad.Height; y++ {
		for x := 0; x < grad.Width; x++ {
			m := magnitude(grad.Texel(x, y))
			sum += m
			s.min = min(s.min, m)
			s.max = max(s.max, m)
			if m < 1e-4 {
				flat++
			}
		}
	}
	s.avg = sum / float32(n)
	s.flatPct = 100 * float32(flat) / float32(n)
	return s
}

func magnitude(g mgl32.Vec4) float32 {
	dx, dy := float64(g[0]-0.5), float64(g[1]-0.5)
	return float32(math.Hypot(dx, dy))
}

// updateTexture writes the selected view into the window texture, top row first.
func updateTexture(texture rl.Texture2D, pixels []color.RGBA, src *gpu.Texture, e *field.Extractor, p PreviewParams) {
	switch p.View {
	case ViewSource:
		pixels = src.RGBA(pixels)
	case ViewLuminance:
		pixels = e.Luminance().RGBA(pixels)
	default:
		grad := e.Gradient()
		i := 0
		for row := 0; row < grad.Height; row++ {
			y := grad.Height - 1 - row
			for x := 0; x < grad.Width; x++ {
				g := grad.Texel(x, y)
				var v float32
				switch p.View {
				case ViewDX:
					v = 0.5 + (g[0]-0.5)*p.Gain
				case ViewDY:
					v = 0.5 + (g[1]-0.5)*p.Gain
				default:
					v = magnitude(g) * p.Gain
				}
				pixels[i] = heat(clamp01(v))
				i++
			}
		}
	}
	rl.UpdateTexture(texture, pixels)
}

// heat maps v in [0,1] to a dark blue -> cyan -> yellow -> white ramp.
func heat(v float32) color.RGBA {
	var r, g, b uint8
	switch {
	case v < 0.25:
		t := v / 0.25
		r, g, b = uint8(10+t*30), uint8(20+t*60), uint8(60+t*100)
	case v < 0.5:
		t := (v - 0.25) / 0.25
		r, g, b = uint8(40+t*20), uint8(80+t*120), uint8(160+t*40)
	case v < 0.75:
		t := (v - 0.5) / 0.25
		r, g, b = uint8(60+t*140), uint8(200-t*40), uint8(200-t*150)
	default:
		t := (v - 0.75) / 0.25
		r, g, b = uint8(200+t*55), uint8(160+t*95), uint8(50+t*205)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
