package blit

import (
	"image"
	"math"

	"github.com/gogpu/blit/internal/gpu"
)

// rampWidth is the resolution of baked gradient strips.
const rampWidth = 256

var tintWhite = [3]float32{1, 1, 1}

// BeginPath resets the current path.
func (e *Engine) BeginPath() {
	e.path.Clear()
}

// MoveTo starts a new subpath at (x, y).
func (e *Engine) MoveTo(x, y float64) {
	e.path.MoveTo(x, y)
}

// LineTo adds a line from the current point to (x, y).
func (e *Engine) LineTo(x, y float64) {
	e.path.LineTo(x, y)
}

// QuadraticCurveTo adds a quadratic Bezier curve to (x, y) with control
// point (cx, cy).
func (e *Engine) QuadraticCurveTo(cx, cy, x, y float64) {
	e.path.QuadraticCurveTo(cx, cy, x, y)
}

// BezierCurveTo adds a cubic Bezier curve to (x, y) with control points
// (c1x, c1y) and (c2x, c2y).
func (e *Engine) BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64) {
	e.path.BezierCurveTo(c1x, c1y, c2x, c2y, x, y)
}

// Rect adds an axis-aligned rectangle as a closed subpath.
func (e *Engine) Rect(x, y, w, h float64) {
	e.path.Rect(x, y, w, h)
}

// Arc adds a circular arc around (cx, cy) from angle1 to angle2 in radians.
func (e *Engine) Arc(cx, cy, r, angle1, angle2 float64) {
	e.path.Arc(cx, cy, r, angle1, angle2)
}

// Ellipse adds a full ellipse as a closed subpath.
func (e *Engine) Ellipse(cx, cy, rx, ry float64) {
	e.path.Ellipse(cx, cy, rx, ry)
}

// Circle adds a full circle as a closed subpath.
func (e *Engine) Circle(cx, cy, r float64) {
	e.path.Circle(cx, cy, r)
}

// ClosePath closes the current subpath.
func (e *Engine) ClosePath() {
	e.path.Close()
}

// Fill fills the current path with the current fill style. Rectangles become
// single quads, circles and ellipses become fans, everything else goes
// through the rasterization fallback. Shadows always rasterize.
func (e *Engine) Fill() {
	if e.closed || e.path.IsEmpty() {
		return
	}
	if e.shadowActive() {
		e.rasterize(&e.path, false)
		return
	}
	s := e.state()
	shape := DetectShape(&e.path)
	switch shape.Kind {
	case ShapeRect:
		x := shape.CenterX - shape.Width/2
		y := shape.CenterY - shape.Height/2
		if e.fillRectStyled(x, y, shape.Width, shape.Height, s.Fill) {
			return
		}
	case ShapeCircle, ShapeEllipse:
		if solid, ok := s.Fill.(SolidStyle); ok {
			e.fillEllipseFan(shape, solid.Color)
			return
		}
	}
	e.rasterize(&e.path, false)
}

// Stroke strokes the current path with the current stroke style. Curve-free
// solid strokes lower to oriented segment quads; curves, gradients and
// shadows go through the rasterization fallback.
func (e *Engine) Stroke() {
	if e.closed || e.path.IsEmpty() {
		return
	}
	s := e.state()
	solid, isSolid := s.Stroke.(SolidStyle)
	if !isSolid || e.path.HasCurves() || e.shadowActive() {
		e.rasterize(&e.path, true)
		return
	}

	contours := e.path.Flatten(s.Transform.ScaleFactor() * e.scale)
	info := e.textures.White()
	uv := uvPoint(info.UV)
	alpha := float32(solid.Color.A * s.Alpha)
	tint := rgbTint(solid.Color)
	half := s.LineWidth / 2
	for _, ct := range contours {
		pts := ct.Points
		for i := 0; i+1 < len(pts); i++ {
			e.emitSegment(info.Tex, pts[i], pts[i+1], half, uv, alpha, tint)
		}
		if ct.Closed && len(pts) > 2 {
			e.emitSegment(info.Tex, pts[len(pts)-1], pts[0], half, uv, alpha, tint)
		}
	}
}

// emitSegment draws one polyline segment as an oriented quad of the given
// half-width. Zero-length segments are skipped.
func (e *Engine) emitSegment(tex *gpu.Texture, a, b Point, half float64, uv [4][2]float32, alpha float32, tint [3]float32) {
	d := b.Sub(a)
	if d.X == 0 && d.Y == 0 {
		return
	}
	n := Point{X: -d.Y, Y: d.X}.Normalize().Mul(half)
	quad := [4]Point{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)}
	e.emitQuadTransformed(tex, quad, uv, alpha, tint, e.state().Flash)
}

// FillRect fills an axis-aligned rectangle with the current fill style. The
// current path is left untouched.
func (e *Engine) FillRect(x, y, w, h float64) {
	if e.closed || w == 0 || h == 0 {
		return
	}
	if e.shadowActive() {
		var p Path
		p.Rect(x, y, w, h)
		e.rasterize(&p, false)
		return
	}
	if !e.fillRectStyled(x, y, w, h, e.state().Fill) {
		var p Path
		p.Rect(x, y, w, h)
		e.rasterize(&p, false)
	}
}

// StrokeRect strokes an axis-aligned rectangle with the current stroke
// style, leaving the current path untouched.
func (e *Engine) StrokeRect(x, y, w, h float64) {
	if e.closed || w == 0 || h == 0 {
		return
	}
	s := e.state()
	solid, isSolid := s.Stroke.(SolidStyle)
	if !isSolid || e.shadowActive() {
		var p Path
		p.Rect(x, y, w, h)
		e.rasterize(&p, true)
		return
	}
	info := e.textures.White()
	uv := uvPoint(info.UV)
	alpha := float32(solid.Color.A * s.Alpha)
	tint := rgbTint(solid.Color)
	half := s.LineWidth / 2
	corners := rectQuad(x, y, w, h)
	for i := range corners {
		e.emitSegment(info.Tex, corners[i], corners[(i+1)%4], half, uv, alpha, tint)
	}
}

// fillRectStyled draws an axis-aligned rectangle on the sprite lane.
// Radial gradients report false: their parameter is not affine across a
// quad, so they take the rasterization fallback instead.
func (e *Engine) fillRectStyled(x, y, w, h float64, style Style) bool {
	s := e.state()
	switch st := style.(type) {
	case SolidStyle:
		info := e.textures.White()
		e.emitQuadTransformed(info.Tex, rectQuad(x, y, w, h), uvPoint(info.UV),
			float32(st.Color.A*s.Alpha), rgbTint(st.Color), s.Flash)
		return true
	case *Gradient:
		if st.kind != gradientLinear {
			return false
		}
		info := e.textures.Resolve(e.rampFor(st))
		quad := rectQuad(x, y, w, h)
		vc := (info.UV[1] + info.UV[3]) / 2
		var uv [4][2]float32
		for i, p := range quad {
			// The parameter is clamped per corner, so a rectangle
			// exceeding the gradient span stretches the end colors
			// instead of banding at the exact iso-line.
			t := clamp01(st.paramAt(p.X, p.Y))
			uv[i] = [2]float32{rampU(info.UV, t), vc}
		}
		e.emitQuadTransformed(info.Tex, quad, uv, float32(s.Alpha), tintWhite, s.Flash)
		return true
	}
	return false
}

// fillEllipseFan draws a solid circle or ellipse as a triangle fan of
// degenerate quads around the center.
func (e *Engine) fillEllipseFan(shape DetectedShape, c RGBA) {
	s := e.state()
	info := e.textures.White()
	uv := uvPoint(info.UV)
	alpha := float32(c.A * s.Alpha)
	tint := rgbTint(c)
	center := Pt(shape.CenterX, shape.CenterY)

	n := ellipseSegments(shape.RadiusX, shape.RadiusY, s.Transform.ScaleFactor()*e.scale)
	step := 2 * math.Pi / float64(n)
	prev := Pt(shape.CenterX+shape.RadiusX, shape.CenterY)
	for i := 1; i <= n; i++ {
		a := float64(i) * step
		next := Pt(shape.CenterX+shape.RadiusX*math.Cos(a), shape.CenterY+shape.RadiusY*math.Sin(a))
		// Triangles enter the lane as degenerate quads: the fourth corner
		// repeats the third.
		e.emitQuadTransformed(info.Tex, [4]Point{center, prev, next, next}, uv, alpha, tint, s.Flash)
		prev = next
	}
}

// ellipseSegments derives a fan density from the on-screen radius so large
// circles stay round and small ones stay cheap.
func ellipseSegments(rx, ry, scale float64) int {
	r := math.Max(rx, ry) * scale
	n := int(math.Ceil(r * 0.6))
	if n < 12 {
		return 12
	}
	if n > 96 {
		return 96
	}
	return n
}

// DrawImage draws an image with canvas drawImage semantics:
//
//	DrawImage(img, dx, dy)
//	DrawImage(img, dx, dy, dw, dh)
//	DrawImage(img, sx, sy, sw, sh, dx, dy, dw, dh)
//
// Any other argument count returns ErrInvalidDrawImageArgs. A nil image, an
// empty source or destination rectangle, or a source outside the image draws
// nothing and returns nil.
func (e *Engine) DrawImage(img image.Image, args ...float64) error {
	switch len(args) {
	case 2, 4, 8:
	default:
		return ErrInvalidDrawImageArgs
	}
	if e.closed || img == nil {
		return nil
	}
	b := img.Bounds()
	iw, ih := float64(b.Dx()), float64(b.Dy())
	if iw == 0 || ih == 0 {
		return nil
	}

	sx, sy, sw, sh := 0.0, 0.0, iw, ih
	var dx, dy, dw, dh float64
	switch len(args) {
	case 2:
		dx, dy, dw, dh = args[0], args[1], iw, ih
	case 4:
		dx, dy, dw, dh = args[0], args[1], args[2], args[3]
	case 8:
		sx, sy, sw, sh = args[0], args[1], args[2], args[3]
		dx, dy, dw, dh = args[4], args[5], args[6], args[7]
	}
	if dw == 0 || dh == 0 || sw <= 0 || sh <= 0 {
		return nil
	}
	if sx < 0 || sy < 0 || sx+sw > iw || sy+sh > ih {
		return nil
	}

	s := e.state()
	info := e.textures.Resolve(img)
	uv := subUV(info.UV, sx/iw, sy/ih, (sx+sw)/iw, (sy+sh)/ih)
	e.emitQuadTransformed(info.Tex, rectQuad(dx, dy, dw, dh), uv,
		float32(s.Alpha), tintWhite, s.Flash)
	return nil
}

// DrawTexture draws the (u0, v0)-(u1, v1) sub-rectangle of an image, in
// normalized image coordinates, onto the destination rectangle. The current
// transform, alpha and composite mode apply.
func (e *Engine) DrawTexture(img image.Image, u0, v0, u1, v1, dx, dy, dw, dh float64) {
	if e.closed || img == nil || dw == 0 || dh == 0 {
		return
	}
	s := e.state()
	info := e.textures.Resolve(img)
	uv := subUV(info.UV, u0, v0, u1, v1)
	e.emitQuadTransformed(info.Tex, rectQuad(dx, dy, dw, dh), uv,
		float32(s.Alpha), tintWhite, s.Flash)
}

// DrawSpriteFast draws an image into the (x, y)-(x+w, y+h) rectangle rotated
// by the given angle around its center. It bypasses the state transform and
// global alpha, taking explicit tint and alpha instead; only the flash flag
// is read from the state. This is the cheap path for large sprite counts.
func (e *Engine) DrawSpriteFast(img image.Image, x, y, w, h, rotation float64, tint [3]float32, alpha float32) {
	if e.closed || img == nil || w == 0 || h == 0 {
		return
	}
	info := e.textures.Resolve(img)
	uv := uvQuad(info.UV)

	var quad [4]Point
	if rotation == 0 {
		quad = rectQuad(x, y, w, h)
	} else {
		cx, cy := x+w/2, y+h/2
		cos, sin := math.Cos(rotation), math.Sin(rotation)
		hw, hh := w/2, h/2
		offsets := [4]Point{{-hw, -hh}, {hw, -hh}, {hw, hh}, {-hw, hh}}
		for i, o := range offsets {
			quad[i] = Pt(cx+o.X*cos-o.Y*sin, cy+o.X*sin+o.Y*cos)
		}
	}
	e.emitQuad(info.Tex, quad, uv, alpha, tint, e.state().Flash)
}

// DrawShockwave draws an expanding ring centered on the target. Over one
// second of elapsed time the ring sweeps from the center past the far
// corner; its color blends from inner to outer along the sweep and the ring
// fades out as it arrives. The state transform does not apply.
func (e *Engine) DrawShockwave(elapsed float64, inner, outer RGBA, thickness float64) {
	if e.closed || thickness <= 0 {
		return
	}
	progress := clamp01(elapsed)
	if progress >= 1 {
		return
	}
	cx := float64(e.width) / 2
	cy := float64(e.height) / 2
	maxR := math.Hypot(cx, cy) + thickness
	r := progress * maxR

	c := inner.Lerp(outer, progress)
	alpha := float32(c.A * (1 - progress) * e.state().Alpha)
	if alpha <= 0 {
		return
	}
	rIn := r - thickness/2
	if rIn < 0 {
		rIn = 0
	}
	e.emitAnnulus(cx, cy, rIn, r+thickness/2, rgbTint(c), alpha)
}

// DrawSpotlight darkens everything outside a circle centered on the target.
// A soft band blends from the inner color at the circle edge to the outer
// color, the far field is solid outer color, and a non-transparent inner
// color also fills the circle itself. The radius breathes a few percent with
// elapsed time. The state transform does not apply.
func (e *Engine) DrawSpotlight(elapsed float64, inner, outer RGBA, radius float64) {
	if e.closed || radius <= 0 {
		return
	}
	s := e.state()
	cx := float64(e.width) / 2
	cy := float64(e.height) / 2
	r := radius * (1 + 0.03*math.Sin(2*math.Pi*elapsed))
	soft := r * 1.5
	far := math.Hypot(float64(e.width), float64(e.height))

	if inner.A > 0 {
		e.emitAnnulus(cx, cy, 0, r, rgbTint(inner), float32(inner.A*s.Alpha))
	}
	const softBands = 8
	for i := 0; i < softBands; i++ {
		t0 := float64(i) / softBands
		t1 := float64(i+1) / softBands
		c := inner.Lerp(outer, (t0+t1)/2)
		if c.A <= 0 {
			continue
		}
		e.emitAnnulus(cx, cy, r+(soft-r)*t0, r+(soft-r)*t1, rgbTint(c), float32(c.A*s.Alpha))
	}
	if outer.A > 0 {
		e.emitAnnulus(cx, cy, soft, far, rgbTint(outer), float32(outer.A*s.Alpha))
	}
}

// emitAnnulus draws a ring as a strip of quads on the white texture. A zero
// inner radius degenerates into a center fan, which draws a disk.
func (e *Engine) emitAnnulus(cx, cy, rIn, rOut float64, tint [3]float32, alpha float32) {
	info := e.textures.White()
	uv := uvPoint(info.UV)
	n := ellipseSegments(rOut, rOut, e.scale)
	step := 2 * math.Pi / float64(n)
	cos0, sin0 := 1.0, 0.0
	for i := 1; i <= n; i++ {
		a := float64(i) * step
		cos1, sin1 := math.Cos(a), math.Sin(a)
		quad := [4]Point{
			{X: cx + rIn*cos0, Y: cy + rIn*sin0},
			{X: cx + rIn*cos1, Y: cy + rIn*sin1},
			{X: cx + rOut*cos1, Y: cy + rOut*sin1},
			{X: cx + rOut*cos0, Y: cy + rOut*sin0},
		}
		e.emitQuad(info.Tex, quad, uv, alpha, tint, false)
		cos0, sin0 = cos1, sin1
	}
}

// gradientRamp is a baked gradient strip registered with the texture
// manager. Pixels are rebaked in place when the gradient's stop list
// changes, so the texture re-uploads without reallocating.
type gradientRamp struct {
	revision uint64
	img      *image.RGBA
}

// rampFor returns the baked ramp image for a gradient, rebaking when its
// revision moved on.
func (e *Engine) rampFor(g *Gradient) *image.RGBA {
	r, ok := e.ramps[g]
	if !ok {
		r = &gradientRamp{
			revision: g.Revision(),
			img:      image.NewRGBA(image.Rect(0, 0, rampWidth, 1)),
		}
		copy(r.img.Pix, g.Ramp(rampWidth))
		e.ramps[g] = r
		return r.img
	}
	if r.revision != g.Revision() {
		copy(r.img.Pix, g.Ramp(rampWidth))
		r.revision = g.Revision()
		e.textures.MarkDirty(r.img)
	}
	return r.img
}

// shadowActive reports whether fills and strokes must render a shadow.
func (e *Engine) shadowActive() bool {
	s := e.state()
	return s.ShadowBlur > 0 && s.ShadowColor.A > 0
}

// emitQuad appends one already positioned quad to the sprite lane with the
// state's composite mode applied. Lane errors degrade to a warning; a draw
// never fails the frame.
func (e *Engine) emitQuad(tex *gpu.Texture, quad [4]Point, uv [4][2]float32, alpha float32, tint [3]float32, flash bool) {
	if err := e.sprites.SetBlendMode(blendFor(e.state().Composite)); err != nil {
		Logger().Warn("sprite blend switch failed", "error", err)
		return
	}
	var corners [4]gpu.QuadVertex
	for i, p := range quad {
		corners[i] = gpu.QuadVertex{X: float32(p.X), Y: float32(p.Y), U: uv[i][0], V: uv[i][1]}
	}
	if err := e.sprites.Enqueue(tex, corners, alpha, tint, flash); err != nil {
		Logger().Warn("sprite enqueue failed", "error", err)
	}
}

// emitQuadTransformed transforms the quad corners by the current state
// transform, then emits the quad.
func (e *Engine) emitQuadTransformed(tex *gpu.Texture, quad [4]Point, uv [4][2]float32, alpha float32, tint [3]float32, flash bool) {
	m := e.state().Transform
	if !m.IsIdentity() {
		for i := range quad {
			quad[i] = m.TransformPoint(quad[i])
		}
	}
	e.emitQuad(tex, quad, uv, alpha, tint, flash)
}

// blendFor maps a composite mode onto the sprite lane's blend pipelines.
func blendFor(m CompositeMode) gpu.BlendMode {
	if m == CompositeLighter {
		return gpu.BlendLighter
	}
	return gpu.BlendSourceOver
}

// rectQuad returns the corners of an axis-aligned rectangle in lane order:
// top-left, top-right, bottom-right, bottom-left.
func rectQuad(x, y, w, h float64) [4]Point {
	return [4]Point{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
	}
}

// uvQuad spreads a UV rectangle over the four quad corners.
func uvQuad(uv [4]float32) [4][2]float32 {
	return [4][2]float32{
		{uv[0], uv[1]},
		{uv[2], uv[1]},
		{uv[2], uv[3]},
		{uv[0], uv[3]},
	}
}

// uvPoint pins all four corners to the center of a UV rectangle. Used with
// the white texture so filtering never leaves the region.
func uvPoint(uv [4]float32) [4][2]float32 {
	p := [2]float32{(uv[0] + uv[2]) / 2, (uv[1] + uv[3]) / 2}
	return [4][2]float32{p, p, p, p}
}

// subUV maps a normalized sub-rectangle into a resolved UV region, which may
// be an atlas sub-region.
func subUV(uv [4]float32, u0, v0, u1, v1 float64) [4][2]float32 {
	du := uv[2] - uv[0]
	dv := uv[3] - uv[1]
	a0 := uv[0] + float32(u0)*du
	b0 := uv[1] + float32(v0)*dv
	a1 := uv[0] + float32(u1)*du
	b1 := uv[1] + float32(v1)*dv
	return [4][2]float32{
		{a0, b0},
		{a1, b0},
		{a1, b1},
		{a0, b1},
	}
}

// rampU maps a gradient parameter to a texel-centered U inside the ramp's
// UV region, keeping linear filtering away from neighboring atlas content.
func rampU(uv [4]float32, t float64) float32 {
	texel := (0.5 + t*float64(rampWidth-1)) / rampWidth
	return uv[0] + (uv[2]-uv[0])*float32(texel)
}

// rgbTint converts a color's RGB channels to a lane tint.
func rgbTint(c RGBA) [3]float32 {
	return [3]float32{float32(c.R), float32(c.G), float32(c.B)}
}
