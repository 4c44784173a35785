package glyph

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"
	"unicode"

	"github.com/go-text/typesetting/font"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// ErrEmptyFont is returned by Parse for empty font data.
var ErrEmptyFont = errors.New("glyph: empty font data")

// maxMaskDim is the largest mask edge Rasterize will produce. Glyphs that
// would exceed it (absurd sizes, corrupt outlines) rasterize to nothing.
const maxMaskDim = 2048

// maskSource is the uniform source composited through the coverage mask.
var maskSource = image.NewUniform(color.Alpha{A: 0xff})

// Bitmap is a rasterized glyph: a tight alpha mask plus the placement
// metrics that position it against a pen on the baseline. The mask's
// top-left corner goes at (penX + Left, baselineY + Top); Top is negative
// for glyphs that rise above the baseline, which is nearly all of them.
type Bitmap struct {
	Mask    *image.Alpha
	Left    float64
	Top     float64
	Advance float64
}

// Metrics holds line metrics at a given pixel size. Ascent extends up from
// the baseline, Descent down; both are positive.
type Metrics struct {
	Ascent  float64
	Descent float64
	LineGap float64
}

// Source produces glyph masks and metrics at arbitrary pixel sizes.
// A Source backed by Parse scan-fills the font's outlines; the zero-asset
// Builtin source scales a fixed 7x13 bitmap face instead.
//
// Source is safe for concurrent use. The underlying typesetting face is
// not, so every operation holds the source lock.
type Source struct {
	mu   sync.Mutex
	face *font.Face // nil for the builtin bitmap face
	upem float64
	ras  vector.Rasterizer
}

// Parse loads a TTF or OTF font. The data slice is copied and can be
// reused by the caller.
func Parse(data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFont
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	face, err := font.ParseTTF(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("glyph: parse font: %w", err)
	}
	return &Source{
		face: face,
		upem: float64(face.Upem()),
	}, nil
}

// Builtin returns a source backed by the basicfont 7x13 bitmap face.
// It covers ASCII plus U+FFFD and needs no font assets.
func Builtin() *Source {
	return &Source{}
}

// IsBuiltin reports whether this source uses the bitmap fallback face.
func (s *Source) IsBuiltin() bool {
	return s.face == nil
}

// HasGlyph reports whether the font maps r to a real glyph. The builtin
// face substitutes U+FFFD for anything it lacks, so this checks its ranges
// directly.
func (s *Source) HasGlyph(r rune) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.face == nil {
		for _, rng := range basicfont.Face7x13.Ranges {
			if r >= rng.Low && r < rng.High {
				return true
			}
		}
		return false
	}
	_, ok := s.face.NominalGlyph(r)
	return ok
}

// Metrics returns the line metrics scaled to the given pixel size.
func (s *Source) Metrics(size float64) Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.face == nil {
		scale := size / builtinLineHeight()
		f := basicfont.Face7x13
		return Metrics{
			Ascent:  float64(f.Ascent) * scale,
			Descent: float64(f.Descent) * scale,
		}
	}
	ext, ok := s.face.FontHExtents()
	if !ok {
		// No hhea/OS2 metrics; the usual 80/20 split is close enough.
		return Metrics{Ascent: size * 0.8, Descent: size * 0.2}
	}
	scale := size / s.upem
	return Metrics{
		Ascent:  float64(ext.Ascender) * scale,
		Descent: -float64(ext.Descender) * scale,
		LineGap: float64(ext.LineGap) * scale,
	}
}

// Advance returns the pen advance for r at the given pixel size. Unmapped
// runes take the .notdef advance so layout stays stable across fonts.
func (s *Source) Advance(r rune, size float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.face == nil {
		return s.builtinAdvance(r, size)
	}
	gid, mapped := s.face.NominalGlyph(r)
	if !mapped {
		gid = 0
	}
	return s.scaledAdvance(gid, mapped, size)
}

// Rasterize renders r at the given pixel size into a tight alpha mask.
// ok is false when there is nothing to draw: whitespace, an empty outline,
// a non-outline (color) glyph, or a mask past the dimension cap. Advance
// still applies for such runes; use Advance for layout.
func (s *Source) Rasterize(r rune, size float64) (Bitmap, bool) {
	if size <= 0 || unicode.IsSpace(r) {
		return Bitmap{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.face == nil {
		return s.rasterizeBuiltin(r, size)
	}
	return s.rasterizeOutline(r, size)
}

// scaledAdvance converts a glyph advance from font units to pixels.
// The caller holds s.mu.
func (s *Source) scaledAdvance(gid font.GID, mapped bool, size float64) float64 {
	adv := float64(s.face.HorizontalAdvance(gid)) * size / s.upem
	if !mapped && adv == 0 {
		// Fonts with a zero-width .notdef still need a visible tofu slot.
		adv = size * 0.5
	}
	return adv
}

// rasterizeOutline scan-fills the glyph outline for r. The caller holds s.mu.
func (s *Source) rasterizeOutline(r rune, size float64) (Bitmap, bool) {
	gid, mapped := s.face.NominalGlyph(r)
	if !mapped {
		gid = 0
	}
	outline, ok := s.face.GlyphData(gid).(font.GlyphOutline)
	if !ok || len(outline.Segments) == 0 {
		return Bitmap{}, false
	}

	// Tight pixel bounds over every control point. Font units have Y up;
	// the mask has Y down with the baseline at zero.
	scale := size / s.upem
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, seg := range outline.Segments {
		for i := 0; i < segmentArgs(seg.Op); i++ {
			x := float64(seg.Args[i].X) * scale
			y := -float64(seg.Args[i].Y) * scale
			minX = math.Min(minX, x)
			minY = math.Min(minY, y)
			maxX = math.Max(maxX, x)
			maxY = math.Max(maxY, y)
		}
	}
	x0, y0 := int(math.Floor(minX)), int(math.Floor(minY))
	x1, y1 := int(math.Ceil(maxX)), int(math.Ceil(maxY))
	w, h := x1-x0, y1-y0
	if w <= 0 || h <= 0 || w > maxMaskDim || h > maxMaskDim {
		return Bitmap{}, false
	}

	s.ras.Reset(w, h)
	sc := float32(scale)
	dx, dy := float32(-x0), float32(-y0)
	open := false
	for _, seg := range outline.Segments {
		switch seg.Op {
		case font.SegmentOpMoveTo:
			if open {
				s.ras.ClosePath()
			}
			s.ras.MoveTo(seg.Args[0].X*sc+dx, -seg.Args[0].Y*sc+dy)
			open = true
		case font.SegmentOpLineTo:
			s.ras.LineTo(seg.Args[0].X*sc+dx, -seg.Args[0].Y*sc+dy)
		case font.SegmentOpQuadTo:
			s.ras.QuadTo(
				seg.Args[0].X*sc+dx, -seg.Args[0].Y*sc+dy,
				seg.Args[1].X*sc+dx, -seg.Args[1].Y*sc+dy,
			)
		case font.SegmentOpCubeTo:
			s.ras.CubeTo(
				seg.Args[0].X*sc+dx, -seg.Args[0].Y*sc+dy,
				seg.Args[1].X*sc+dx, -seg.Args[1].Y*sc+dy,
				seg.Args[2].X*sc+dx, -seg.Args[2].Y*sc+dy,
			)
		}
	}
	if open {
		s.ras.ClosePath()
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	s.ras.Draw(mask, mask.Bounds(), maskSource, image.Point{})

	return Bitmap{
		Mask:    mask,
		Left:    float64(x0),
		Top:     float64(y0),
		Advance: s.scaledAdvance(gid, mapped, size),
	}, true
}

// rasterizeBuiltin copies a 7x13 bitmap glyph and scales it to size with
// nearest-neighbor so the pixels stay sharp. The caller holds s.mu.
func (s *Source) rasterizeBuiltin(r rune, size float64) (Bitmap, bool) {
	// The face substitutes U+FFFD for unmapped runes on its own.
	f := basicfont.Face7x13
	dr, src, srcp, _, ok := f.Glyph(fixed.Point26_6{}, r)
	if !ok || dr.Empty() {
		return Bitmap{}, false
	}

	nat := image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy()))
	draw.Draw(nat, nat.Bounds(), src, srcp, draw.Src)

	scale := size / builtinLineHeight()
	mask := nat
	if scale != 1 {
		w := scaleDim(dr.Dx(), scale)
		h := scaleDim(dr.Dy(), scale)
		if w > maxMaskDim || h > maxMaskDim {
			return Bitmap{}, false
		}
		mask = image.NewAlpha(image.Rect(0, 0, w, h))
		xdraw.NearestNeighbor.Scale(mask, mask.Bounds(), nat, nat.Bounds(), xdraw.Src, nil)
	}

	return Bitmap{
		Mask:    mask,
		Left:    float64(dr.Min.X) * scale,
		Top:     float64(dr.Min.Y) * scale,
		Advance: float64(f.Advance) * scale,
	}, true
}

// builtinAdvance returns the scaled basicfont advance. The caller holds s.mu.
func (s *Source) builtinAdvance(r rune, size float64) float64 {
	adv, ok := basicfont.Face7x13.GlyphAdvance(r)
	if !ok {
		return size * 0.5
	}
	return float64(adv) / 64 * size / builtinLineHeight()
}

// builtinLineHeight is the native pixel height of the bitmap face, the
// reference for its size scaling.
func builtinLineHeight() float64 {
	f := basicfont.Face7x13
	return float64(f.Ascent + f.Descent)
}

// scaleDim scales an integer dimension, keeping it at least one pixel.
func scaleDim(d int, scale float64) int {
	v := int(math.Round(float64(d) * scale))
	if v < 1 {
		v = 1
	}
	return v
}

// segmentArgs returns how many points a segment operation carries.
func segmentArgs(op font.SegmentOp) int {
	switch op {
	case font.SegmentOpQuadTo:
		return 2
	case font.SegmentOpCubeTo:
		return 3
	default:
		return 1
	}
}
