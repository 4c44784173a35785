package blit

import (
	"image"
	"testing"

	"github.com/gogpu/blit/backend"
)

// newBenchEngine creates a headless engine sized for throughput runs.
func newBenchEngine(b *testing.B) *Engine {
	b.Helper()
	e, err := New(WithBackend(backend.BackendHeadless), WithSize(1920, 1080))
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}
	b.Cleanup(e.Close)
	return e
}

// BenchmarkFillRect measures solid quad batching throughput.
func BenchmarkFillRect(b *testing.B) {
	counts := []struct {
		name string
		n    int
	}{
		{"100", 100},
		{"1000", 1000},
		{"8000", 8000},
	}

	for _, c := range counts {
		b.Run(c.name, func(b *testing.B) {
			e := newBenchEngine(b)
			e.SetFillColor(Red)
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				for j := 0; j < c.n; j++ {
					e.FillRect(float64(j%1900), float64(j%1000), 16, 16)
				}
				e.sprites.Discard()
			}
		})
	}
}

// BenchmarkDrawSpriteFast measures the transform-free sprite path.
func BenchmarkDrawSpriteFast(b *testing.B) {
	e := newBenchEngine(b)
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))

	b.Run("axis-aligned", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			e.DrawSpriteFast(img, 100, 100, 32, 32, 0, [3]float32{1, 1, 1}, 1)
			if e.sprites.Pending() >= 4096 {
				e.sprites.Discard()
			}
		}
	})

	b.Run("rotated", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			e.DrawSpriteFast(img, 100, 100, 32, 32, 0.7, [3]float32{1, 1, 1}, 1)
			if e.sprites.Pending() >= 4096 {
				e.sprites.Discard()
			}
		}
	})
}

// BenchmarkDrawImageTransformed measures quad emission under a full affine
// transform.
func BenchmarkDrawImageTransformed(b *testing.B) {
	e := newBenchEngine(b)
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	e.Translate(10, 10)
	e.Rotate(0.3)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = e.DrawImage(img, 100, 100)
		if e.sprites.Pending() >= 4096 {
			e.sprites.Discard()
		}
	}
}

// BenchmarkDamageSpawn measures damage number spawning, the per-hit cost a
// game pays. Each iteration batches one spawn.
func BenchmarkDamageSpawn(b *testing.B) {
	texts := []string{"7", "128", "99999"}
	for _, text := range texts {
		b.Run(text, func(b *testing.B) {
			e := newBenchEngine(b)
			e.DrawDamageNumber(text, 0, 0, 0, 0, 0, 1, 24, [3]float32{1, 1, 1}, 1) // warm the mask cache
			e.damage.Discard()
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				e.DrawDamageNumber(text, 100, 100, 0, -60, 0, 1, 24, [3]float32{1, 1, 1}, 1)
				if e.damage.Pending() >= 2048 {
					e.damage.Discard()
				}
			}
		})
	}
}

// BenchmarkFillTextCached measures text drawing with hot glyph masks.
func BenchmarkFillTextCached(b *testing.B) {
	e := newBenchEngine(b)
	e.SetFillColor(White)
	e.FillText("Score: 1234567890", 10, 40) // warm the mask cache
	e.sprites.Discard()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		e.FillText("Score: 1234567890", 10, 40)
		e.sprites.Discard()
	}
}

// BenchmarkRasterFallback measures the CPU path for shapes the lanes cannot
// batch directly.
func BenchmarkRasterFallback(b *testing.B) {
	sizes := []struct {
		name string
		r    float64
	}{
		{"r32", 32},
		{"r128", 128},
	}

	for _, s := range sizes {
		b.Run(s.name, func(b *testing.B) {
			e := newBenchEngine(b)
			g := e.CreateRadialGradient(200, 200, 0, 200, 200, s.r)
			g.AddColorStop(0, White)
			g.AddColorStop(1, Transparent)
			e.SetFillGradient(g)
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				e.BeginPath()
				e.Circle(200, 200, s.r)
				e.Fill()
			}
		})
	}
}
