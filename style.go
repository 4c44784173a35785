package blit

// Style represents what to paint with.
// This is a sealed interface - only types in this package implement it.
//
// Supported styles:
//   - SolidStyle: a single solid color
//   - *Gradient: a linear or radial gradient (see gradient.go)
type Style interface {
	// styleMarker is an unexported method that seals this interface.
	styleMarker()

	// ColorAt returns the color at the given coordinates in user space.
	// Solid styles return the same color regardless of position; the
	// rasterization fallback samples gradients through this method.
	ColorAt(x, y float64) RGBA
}

// SolidStyle is a single-color style.
type SolidStyle struct {
	// Color is the solid color of this style.
	Color RGBA
}

// styleMarker implements the sealed Style interface.
func (SolidStyle) styleMarker() {}

// ColorAt implements Style. Returns the solid color regardless of position.
func (s SolidStyle) ColorAt(_, _ float64) RGBA {
	return s.Color
}

// Solid creates a SolidStyle from an RGBA color.
func Solid(c RGBA) SolidStyle {
	return SolidStyle{Color: c}
}

// CompositeMode selects how drawn pixels combine with the frame target.
type CompositeMode int

const (
	// CompositeSourceOver is standard premultiplied alpha blending.
	CompositeSourceOver CompositeMode = iota

	// CompositeLighter is additive blending, used for glow effects.
	CompositeLighter
)

// String returns the composite mode name.
func (m CompositeMode) String() string {
	switch m {
	case CompositeSourceOver:
		return "SourceOver"
	case CompositeLighter:
		return "Lighter"
	default:
		return "Unknown"
	}
}

// ParseCompositeMode maps canvas globalCompositeOperation names to modes.
// Unknown names map to source-over.
func ParseCompositeMode(name string) CompositeMode {
	if name == "lighter" {
		return CompositeLighter
	}
	return CompositeSourceOver
}

// TextAlign selects horizontal text anchoring relative to the draw position.
type TextAlign int

const (
	// AlignLeft anchors text at its left edge.
	AlignLeft TextAlign = iota

	// AlignCenter centers text on the draw position.
	AlignCenter

	// AlignRight anchors text at its right edge.
	AlignRight
)

// String returns the alignment name.
func (a TextAlign) String() string {
	switch a {
	case AlignLeft:
		return "Left"
	case AlignCenter:
		return "Center"
	case AlignRight:
		return "Right"
	default:
		return "Unknown"
	}
}

// TextBaseline selects vertical text anchoring relative to the draw position.
type TextBaseline int

const (
	// BaselineAlphabetic anchors at the alphabetic baseline.
	BaselineAlphabetic TextBaseline = iota

	// BaselineTop anchors at the glyph ascent.
	BaselineTop

	// BaselineMiddle anchors halfway between ascent and descent.
	BaselineMiddle

	// BaselineBottom anchors at the glyph descent.
	BaselineBottom
)

// String returns the baseline name.
func (b TextBaseline) String() string {
	switch b {
	case BaselineAlphabetic:
		return "Alphabetic"
	case BaselineTop:
		return "Top"
	case BaselineMiddle:
		return "Middle"
	case BaselineBottom:
		return "Bottom"
	default:
		return "Unknown"
	}
}
