package blit

import (
	"math"
	"sort"
)

// ColorStop represents a color at a specific position in a gradient.
type ColorStop struct {
	Offset float64 // Position in gradient, 0.0 to 1.0
	Color  RGBA    // Color at this position
}

// gradientKind distinguishes the two gradient geometries.
type gradientKind int

const (
	gradientLinear gradientKind = iota
	gradientRadial
)

// Gradient represents a linear or radial color transition. Gradients are
// created through [Engine.CreateLinearGradient] and
// [Engine.CreateRadialGradient] and assigned as fill or stroke styles.
//
// Example:
//
//	g := eng.CreateLinearGradient(0, 0, 100, 0)
//	g.AddColorStop(0, blit.Red)
//	g.AddColorStop(1, blit.Blue)
//	eng.SetFillGradient(g)
type Gradient struct {
	kind  gradientKind
	start Point   // linear: start point; radial: start circle center
	end   Point   // linear: end point; radial: end circle center
	r0    float64 // radial: start circle radius
	r1    float64 // radial: end circle radius
	stops []ColorStop

	// revision increments on every stop change so cached ramp textures
	// know when to rebake. Caches key on the *Gradient identity and
	// compare revisions; the gradient itself owns no GPU state.
	revision uint64
}

// NewLinearGradient creates a linear gradient from (x0, y0) to (x1, y1).
func NewLinearGradient(x0, y0, x1, y1 float64) *Gradient {
	return &Gradient{
		kind:  gradientLinear,
		start: Point{X: x0, Y: y0},
		end:   Point{X: x1, Y: y1},
	}
}

// NewRadialGradient creates a radial gradient between two circles, from the
// start circle (x0, y0, r0) to the end circle (x1, y1, r1).
func NewRadialGradient(x0, y0, r0, x1, y1, r1 float64) *Gradient {
	return &Gradient{
		kind:  gradientRadial,
		start: Point{X: x0, Y: y0},
		end:   Point{X: x1, Y: y1},
		r0:    r0,
		r1:    r1,
	}
}

// AddColorStop adds a color stop at the specified offset.
// Offset is clamped to the range [0, 1].
// Returns the gradient for method chaining.
func (g *Gradient) AddColorStop(offset float64, c RGBA) *Gradient {
	g.stops = append(g.stops, ColorStop{Offset: clamp01(offset), Color: c})
	g.revision++
	return g
}

// Revision reports a counter that changes whenever the stop list changes.
func (g *Gradient) Revision() uint64 {
	return g.revision
}

// styleMarker implements the sealed Style interface.
func (*Gradient) styleMarker() {}

// ColorAt returns the gradient color at the given point in user space.
// The rasterization fallback samples gradients through this method.
func (g *Gradient) ColorAt(x, y float64) RGBA {
	return colorAtOffset(g.stops, g.paramAt(x, y))
}

// paramAt maps a point to the gradient parameter t before clamping.
func (g *Gradient) paramAt(x, y float64) float64 {
	if g.kind == gradientLinear {
		dx := g.end.X - g.start.X
		dy := g.end.Y - g.start.Y
		lengthSq := dx*dx + dy*dy
		if lengthSq == 0 {
			return 0
		}
		// Project the point onto the gradient line.
		px := x - g.start.X
		py := y - g.start.Y
		return (px*dx + py*dy) / lengthSq
	}

	// Radial with coincident centers reduces to a distance ramp between
	// the two radii. The offset-center form projects the distance from the
	// start center instead; a full two-circle cone solve is not worth it
	// for HUD gradients.
	dx := x - g.start.X
	dy := y - g.start.Y
	dist := math.Sqrt(dx*dx + dy*dy)
	radiusDiff := g.r1 - g.r0
	if radiusDiff == 0 {
		return 0
	}
	return (dist - g.r0) / radiusDiff
}

// Ramp bakes the gradient into a width x 1 RGBA8 pixel strip, premultiplied,
// for upload as a texture the sprite lane can sample.
func (g *Gradient) Ramp(width int) []byte {
	if width < 2 {
		width = 2
	}
	px := make([]byte, width*4)
	for i := 0; i < width; i++ {
		t := float64(i) / float64(width-1)
		c := colorAtOffset(g.stops, t).Premultiply()
		px[i*4+0] = uint8(clamp255(c.R * 255))
		px[i*4+1] = uint8(clamp255(c.G * 255))
		px[i*4+2] = uint8(clamp255(c.B * 255))
		px[i*4+3] = uint8(clamp255(c.A * 255))
	}
	return px
}

// sortStops returns the stops sorted by offset, leaving the input intact.
func sortStops(stops []ColorStop) []ColorStop {
	if len(stops) == 0 {
		return stops
	}
	sorted := make([]ColorStop, len(stops))
	copy(sorted, stops)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})
	return sorted
}

// colorAtOffset returns the interpolated color at a given offset.
// Handles edge cases: empty stops, single stop, out-of-bounds t.
func colorAtOffset(stops []ColorStop, t float64) RGBA {
	if len(stops) == 0 {
		return Transparent
	}
	if len(stops) == 1 {
		return stops[0].Color
	}

	sorted := sortStops(stops)
	t = clamp01(t)

	idx := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].Offset >= t
	})
	if idx == 0 {
		return sorted[0].Color
	}
	if idx >= len(sorted) {
		return sorted[len(sorted)-1].Color
	}

	stop1 := sorted[idx-1]
	stop2 := sorted[idx]
	if stop2.Offset == stop1.Offset {
		return stop1.Color
	}

	localT := (t - stop1.Offset) / (stop2.Offset - stop1.Offset)
	return stop1.Color.Lerp(stop2.Color, localT)
}
