// Command blitdemo renders a demonstration scene with the blit engine and
// writes it to a PNG. Without a usable GPU the engine falls back to the
// headless backend and the output stays blank.
package main

import (
	"flag"
	"image/png"
	"log"
	"math"
	"os"

	"github.com/gogpu/blit"
)

func main() {
	var (
		width  = flag.Int("width", 800, "target width")
		height = flag.Int("height", 600, "target height")
		output = flag.String("output", "demo.png", "output file")
		be     = flag.String("backend", "", "preferred backend (vulkan, headless)")
	)
	flag.Parse()

	eng, err := blit.New(
		blit.WithBackend(*be),
		blit.WithSize(*width, *height),
	)
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}
	defer eng.Close()

	eng.Clear()
	drawBackground(eng, *width, *height)
	drawShapes(eng)
	drawRotated(eng)
	drawText(eng)
	drawDamageNumbers(eng)

	if err := eng.EndFrame(); err != nil {
		log.Fatalf("Failed to render: %v", err)
	}
	if err := savePNG(eng, *output); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	stats := eng.Stats()
	log.Printf("Demo saved to %s (%dx%d, %d quads, %d draws)",
		*output, *width, *height, stats.SpriteQuads, stats.DrawCalls)
}

func drawBackground(eng *blit.Engine, w, h int) {
	g := eng.CreateLinearGradient(0, 0, 0, float64(h))
	g.AddColorStop(0, blit.RGB(0.1, 0.2, 0.4))
	g.AddColorStop(1, blit.RGB(0.5, 0.5, 0.6))
	eng.SetFillGradient(g)
	eng.FillRect(0, 0, float64(w), float64(h))
}

func drawShapes(eng *blit.Engine) {
	// Overlapping translucent circles.
	eng.SetAlpha(0.8)
	eng.SetFillColor(blit.RGB(1, 0.3, 0.3))
	eng.BeginPath()
	eng.Circle(150, 150, 60)
	eng.Fill()

	eng.SetFillColor(blit.RGB(0.3, 1, 0.3))
	eng.BeginPath()
	eng.Circle(200, 150, 60)
	eng.Fill()

	eng.SetFillColor(blit.RGB(0.3, 0.3, 1))
	eng.BeginPath()
	eng.Circle(175, 200, 60)
	eng.Fill()
	eng.SetAlpha(1)

	// Filled and stroked rectangle.
	eng.SetFillColor(blit.RGB(1, 0.8, 0))
	eng.FillRect(350, 100, 120, 80)
	eng.SetStrokeColor(blit.White)
	eng.SetLineWidth(4)
	eng.StrokeRect(350, 100, 120, 80)
}

func drawRotated(eng *blit.Engine) {
	palette := []blit.RGBA{
		blit.RGB(0.9, 0.3, 0.3), blit.RGB(0.9, 0.7, 0.3),
		blit.RGB(0.5, 0.9, 0.3), blit.RGB(0.3, 0.9, 0.7),
		blit.RGB(0.3, 0.6, 0.9), blit.RGB(0.5, 0.3, 0.9),
		blit.RGB(0.9, 0.3, 0.8), blit.RGB(0.9, 0.5, 0.5),
	}
	for i := 0; i < 8; i++ {
		eng.Save()
		eng.Translate(600, 150)
		eng.Rotate(float64(i) * math.Pi / 4)
		eng.SetFillColor(palette[i])
		eng.FillRect(-30, -30, 60, 60)
		eng.Restore()
	}
}

func drawText(eng *blit.Engine) {
	eng.SetFont(32, "")
	eng.SetFillColor(blit.White)
	eng.SetTextAlign(blit.AlignCenter)
	eng.FillText("blit engine demo", 400, 420)

	eng.SetStrokeColor(blit.Black)
	eng.SetLineWidth(2)
	eng.StrokeText("blit engine demo", 400, 460)
	eng.SetTextAlign(blit.AlignLeft)
}

func drawDamageNumbers(eng *blit.Engine) {
	// Numbers spawned at t=0 and sampled mid-flight.
	eng.DrawDamageNumber("1024", 200, 500, 0, -60, 0, 1.2, 28, [3]float32{1, 0.9, 0.2}, 1)
	eng.DrawDamageNumber("512", 400, 520, 20, -40, 0, 1.2, 22, [3]float32{1, 0.4, 0.3}, 1)
	eng.DrawDamageNumber("64", 600, 500, -15, -50, 0, 1.2, 18, [3]float32{0.8, 0.8, 1}, 1)
	eng.SetTime(0.4)
}

func savePNG(eng *blit.Engine, path string) error {
	img, err := eng.ReadPixels()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}
