package blit

import (
	"fmt"
	"image"

	"github.com/gogpu/blit/internal/glyph"
	"github.com/gogpu/blit/internal/gpu"
)

// damageBaseSize is the pixel size damage-number glyphs are rasterized at.
// Spawns scale them on the GPU through baseScale = size / damageBaseSize.
const damageBaseSize = 32.0

// glyphKey identifies a cached glyph mask: the owning source, the rune, and
// the pixel size quantized to quarter pixels so near-equal sizes share one
// mask.
type glyphKey struct {
	src  *glyph.Source
	r    rune
	size int32
}

// glyphMask is a cached glyph upload: a white premultiplied RGBA image
// registered with the texture manager, plus placement metrics. The lane
// tints it per draw, so one upload serves every text color. A nil image
// marks a rune with nothing to draw.
type glyphMask struct {
	img  *image.RGBA
	left float64
	top  float64
	w, h int
}

// RegisterFont parses TTF or OTF data and registers it under a family name
// for SetFont. Returns ErrInvalidFont when the data cannot be parsed.
func (e *Engine) RegisterFont(name string, ttf []byte) error {
	src, err := glyph.Parse(ttf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFont, err)
	}
	e.fonts[name] = src
	return nil
}

// fontFor returns the glyph source for a family. Unregistered names fall
// back to the built-in bitmap face, so text always renders.
func (e *Engine) fontFor(family string) *glyph.Source {
	if s, ok := e.fonts[family]; ok {
		return s
	}
	return e.builtin
}

// MeasureText returns the advance width of text at the current font and
// size, in logical pixels.
func (e *Engine) MeasureText(text string) float64 {
	s := e.state()
	return e.fontFor(s.FontFamily).Measure(text, s.FontSize)
}

// FillText draws text at (x, y) with the current fill style, font, align
// and baseline.
func (e *Engine) FillText(text string, x, y float64) {
	e.drawText(text, x, y, e.state().Fill, fillOffsets[:])
}

// StrokeText draws a text outline at (x, y) with the current stroke style.
// The outline is the glyph coverage stamped at eight offsets of half the
// line width around the pen position, the usual bitmap-text outline.
func (e *Engine) StrokeText(text string, x, y float64) {
	s := e.state()
	r := s.LineWidth / 2
	if r < 0.5 {
		r = 0.5
	}
	offsets := make([]Point, len(ringOffsets))
	for i, o := range ringOffsets {
		offsets[i] = o.Mul(r)
	}
	e.drawText(text, x, y, s.Stroke, offsets)
}

var fillOffsets = [1]Point{{}}

// ringOffsets are the eight unit directions used for outlined text.
var ringOffsets = [8]Point{
	{X: 1}, {X: -1}, {Y: 1}, {Y: -1},
	{X: 0.707, Y: 0.707}, {X: -0.707, Y: 0.707},
	{X: 0.707, Y: -0.707}, {X: -0.707, Y: -0.707},
}

// drawText lays the text out once and stamps every glyph quad at each of
// the given offsets.
func (e *Engine) drawText(text string, x, y float64, style Style, offsets []Point) {
	if e.closed || text == "" {
		return
	}
	s := e.state()
	src := e.fontFor(s.FontFamily)
	size := s.FontSize
	placed, width := src.Layout(text, size)
	if len(placed) == 0 {
		return
	}
	ox, oy := e.textOrigin(x, y, width, src, size)

	// Masks rasterize at device resolution and draw at logical size, so
	// text stays crisp on scaled targets.
	d := e.scale
	for _, off := range offsets {
		for _, pg := range placed {
			gm := e.glyphMaskFor(src, pg.Rune, size*d)
			if gm == nil || gm.img == nil {
				continue
			}
			info := e.textures.Resolve(gm.img)
			px := ox + off.X + pg.X + gm.left/d
			py := oy + off.Y + gm.top/d
			quad := rectQuad(px, py, float64(gm.w)/d, float64(gm.h)/d)

			var alpha float32
			var tint [3]float32
			switch st := style.(type) {
			case SolidStyle:
				alpha = float32(st.Color.A * s.Alpha)
				tint = rgbTint(st.Color)
			case *Gradient:
				c := st.ColorAt(ox+pg.X, oy)
				alpha = float32(c.A * s.Alpha)
				tint = rgbTint(c)
			}
			e.emitQuadTransformed(info.Tex, quad, uvQuad(info.UV), alpha, tint, s.Flash)
		}
	}
}

// textOrigin converts an anchor point into the pen origin of a laid-out
// line, honoring the state's align and baseline.
func (e *Engine) textOrigin(x, y, width float64, src *glyph.Source, size float64) (float64, float64) {
	s := e.state()
	switch s.Align {
	case AlignCenter:
		x -= width / 2
	case AlignRight:
		x -= width
	}
	m := src.Metrics(size)
	switch s.Baseline {
	case BaselineTop:
		y += m.Ascent
	case BaselineMiddle:
		y += (m.Ascent - m.Descent) / 2
	case BaselineBottom:
		y -= m.Descent
	}
	return x, y
}

// glyphMaskFor returns the cached upload for a glyph, rasterizing on first
// use.
func (e *Engine) glyphMaskFor(src *glyph.Source, r rune, size float64) *glyphMask {
	q := int32(size*4 + 0.5)
	if q <= 0 {
		return nil
	}
	key := glyphKey{src: src, r: r, size: q}
	if gm, ok := e.glyphMasks[key]; ok {
		return gm
	}
	gm := &glyphMask{}
	if bm, ok := src.Rasterize(r, float64(q)/4); ok {
		b := bm.Mask.Bounds()
		gm.img = maskToWhiteRGBA(bm.Mask)
		gm.left = bm.Left
		gm.top = bm.Top
		gm.w, gm.h = b.Dx(), b.Dy()
	}
	e.glyphMasks[key] = gm
	return gm
}

// maskToWhiteRGBA converts a coverage mask into premultiplied white RGBA.
func maskToWhiteRGBA(mask *image.Alpha) *image.RGBA {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := mask.PixOffset(b.Min.X, b.Min.Y+y)
		di := out.PixOffset(0, y)
		for x := 0; x < w; x++ {
			cov := mask.Pix[si+x]
			o := di + x*4
			out.Pix[o+0] = cov
			out.Pix[o+1] = cov
			out.Pix[o+2] = cov
			out.Pix[o+3] = cov
		}
	}
	return out
}

// DrawDamageNumber spawns an animated damage number: text centered on the
// world-space origin (x, y), launched with velocity (vx, vy) pixels per
// second at spawnTime seconds on the engine clock, living for duration
// seconds. Size is the full-scale pixel size; tint and alpha color the
// glyphs. The whole animation evaluates in the vertex shader against the
// SetTime clock, so the spawn is the only CPU cost the number ever incurs.
func (e *Engine) DrawDamageNumber(text string, x, y, vx, vy, spawnTime, duration, size float64, tint [3]float32, alpha float32) {
	if e.closed || text == "" || size <= 0 || duration <= 0 {
		return
	}
	src := e.fontFor(e.state().FontFamily)
	placed, width := src.Layout(text, damageBaseSize)
	if len(placed) == 0 {
		return
	}
	m := src.Metrics(damageBaseSize)
	baseline := (m.Ascent - m.Descent) / 2

	// Every glyph of a spawn must sample one texture. Base-size digits are
	// small enough for the shared atlas; a glyph that resolved elsewhere
	// (atlas exhaustion) is dropped rather than splitting the spawn.
	var tex *gpu.Texture
	glyphs := make([]gpu.DamageGlyph, 0, len(placed))
	for _, pg := range placed {
		gm := e.glyphMaskFor(src, pg.Rune, damageBaseSize)
		if gm == nil || gm.img == nil {
			continue
		}
		info := e.textures.Resolve(gm.img)
		if tex == nil {
			tex = info.Tex
		} else if info.Tex != tex {
			Logger().Debug("damage glyph outside the spawn texture, dropped",
				"rune", string(pg.Rune))
			continue
		}
		glyphs = append(glyphs, gpu.DamageGlyph{
			X:  float32(pg.X - width/2 + gm.left),
			Y:  float32(baseline + gm.top),
			W:  float32(gm.w),
			H:  float32(gm.h),
			U0: info.UV[0],
			V0: info.UV[1],
			U1: info.UV[2],
			V1: info.UV[3],
		})
	}
	if tex == nil || len(glyphs) == 0 {
		return
	}
	err := e.damage.Spawn(tex, glyphs,
		float32(x), float32(y), float32(vx), float32(vy),
		float32(spawnTime), float32(duration), float32(size/damageBaseSize),
		tint, alpha)
	if err != nil {
		Logger().Warn("damage spawn failed", "error", err)
	}
}

// FlushDamageNumbers submits the damage lane without ending the frame.
// EndFrame flushes it as well; this exists for callers interleaving lanes
// explicitly.
func (e *Engine) FlushDamageNumbers() {
	if e.closed {
		return
	}
	e.flushDamage()
}
