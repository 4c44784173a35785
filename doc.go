// Package blit provides a batched 2D rendering engine for the GoGPU ecosystem.
//
// # Overview
//
// blit exposes an immediate-mode drawing API similar to HTML Canvas (transform
// stack, paths, fill/stroke styles, text, images) and compiles every call into
// a small number of GPU draw submissions through gogpu/wgpu. Geometry that can
// be expressed as textured quads flows through a sprite batcher; everything
// else falls back to a one-shot CPU rasterization that re-enters the batcher
// as a single quad.
//
// # Quick Start
//
//	import "github.com/gogpu/blit"
//
//	eng, err := blit.New(blit.WithSize(800, 600))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	eng.Clear()
//	eng.SetFillColor(blit.Red)
//	eng.FillRect(10, 10, 100, 50)
//	if err := eng.EndFrame(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Architecture
//
// The engine is organized into:
//   - Public API: Engine, Path, Gradient, Matrix, Point, RGBA
//   - internal/gpu: sprite and damage-number batch lanes, texture atlas,
//     texture manager, render session
//   - internal/glyph: bitmap glyph source for both text paths
//   - backend: pluggable device acquisition with priority fallback
//
// # Coordinate System
//
// Uses standard computer graphics coordinates:
//   - Origin (0,0) at top-left
//   - X increases right
//   - Y increases down
//   - Angles in radians
package blit

// Version is the current version of the library.
const Version = "0.1.0"
