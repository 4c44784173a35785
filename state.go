package blit

// RenderState holds the drawing parameters a draw call snapshots: the
// current transform, styles, text settings, and compositing controls.
// States live on the engine's save/restore stack.
type RenderState struct {
	Transform   Matrix
	Alpha       float64
	Flash       bool
	Fill        Style
	Stroke      Style
	LineWidth   float64
	FontSize    float64
	FontFamily  string
	Align       TextAlign
	Baseline    TextBaseline
	Composite   CompositeMode
	ShadowBlur  float64
	ShadowColor RGBA
}

// defaultRenderState returns the root state created at engine init.
func defaultRenderState() RenderState {
	return RenderState{
		Transform:   Identity(),
		Alpha:       1.0,
		Fill:        Solid(Black),
		Stroke:      Solid(Black),
		LineWidth:   1.0,
		FontSize:    10.0,
		FontFamily:  "sans-serif",
		Align:       AlignLeft,
		Baseline:    BaselineAlphabetic,
		Composite:   CompositeSourceOver,
		ShadowColor: Transparent,
	}
}

// statePool recycles RenderState allocations across save/restore cycles so
// steady-state frames allocate nothing.
type statePool struct {
	free []*RenderState
}

// acquire returns a state from the pool, allocating only when empty.
func (p *statePool) acquire() *RenderState {
	if n := len(p.free); n > 0 {
		s := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return s
	}
	return &RenderState{}
}

// release returns a state to the pool.
func (p *statePool) release(s *RenderState) {
	p.free = append(p.free, s)
}

// state returns the top of the state stack. The stack is never empty.
func (e *Engine) state() *RenderState {
	return e.states[len(e.states)-1]
}

// Save pushes a duplicate of the current render state onto the stack.
func (e *Engine) Save() {
	top := e.state()
	s := e.pool.acquire()
	*s = *top
	e.states = append(e.states, s)
}

// Restore pops the state stack, returning the popped state to the pool.
// Restoring at the root state is a no-op. A composite mode change caused by
// the restore flushes the sprite lane before taking effect.
func (e *Engine) Restore() {
	if len(e.states) <= 1 {
		return
	}
	popped := e.states[len(e.states)-1]
	e.states[len(e.states)-1] = nil
	e.states = e.states[:len(e.states)-1]
	if popped.Composite != e.state().Composite {
		e.flushSprites()
	}
	e.pool.release(popped)
}

// Translate post-multiplies a translation onto the current transform.
func (e *Engine) Translate(x, y float64) {
	s := e.state()
	s.Transform = s.Transform.Multiply(Translate(x, y))
}

// Scale post-multiplies a scale onto the current transform.
func (e *Engine) Scale(x, y float64) {
	s := e.state()
	s.Transform = s.Transform.Multiply(Scale(x, y))
}

// Rotate post-multiplies a rotation onto the current transform.
func (e *Engine) Rotate(angle float64) {
	s := e.state()
	s.Transform = s.Transform.Multiply(Rotate(angle))
}

// SetTransform replaces the current transform with the given matrix
// components (a b c / d e f).
func (e *Engine) SetTransform(a, b, c, d, f, g float64) {
	e.state().Transform = Matrix{A: a, B: b, C: c, D: d, E: f, F: g}
}

// GetTransform returns the current transform.
func (e *Engine) GetTransform() Matrix {
	return e.state().Transform
}

// SetAlpha sets the global alpha, clamped to [0, 1].
func (e *Engine) SetAlpha(a float64) {
	e.state().Alpha = clamp01(a)
}

// GetAlpha returns the current global alpha.
func (e *Engine) GetAlpha() float64 {
	return e.state().Alpha
}

// SetFlash toggles the flash override. While set, batched quads carry the
// flash flag and the fragment stage replaces the texture color with the tint.
func (e *Engine) SetFlash(on bool) {
	e.state().Flash = on
}

// GetFlash returns the current flash override.
func (e *Engine) GetFlash() bool {
	return e.state().Flash
}

// SetFillColor sets the fill style to a solid color.
func (e *Engine) SetFillColor(c RGBA) {
	s := e.state()
	if cur, ok := s.Fill.(SolidStyle); ok && cur.Color == c {
		return
	}
	s.Fill = Solid(c)
}

// SetFillStyle sets the fill style from a CSS-style color specification.
// Parsed colors are memoized per engine.
func (e *Engine) SetFillStyle(spec string) {
	e.SetFillColor(e.resolveColor(spec))
}

// SetFillGradient sets the fill style to a gradient.
func (e *Engine) SetFillGradient(g *Gradient) {
	if g == nil {
		return
	}
	e.state().Fill = g
}

// FillStyle returns the current fill style.
func (e *Engine) FillStyle() Style {
	return e.state().Fill
}

// SetStrokeColor sets the stroke style to a solid color.
func (e *Engine) SetStrokeColor(c RGBA) {
	s := e.state()
	if cur, ok := s.Stroke.(SolidStyle); ok && cur.Color == c {
		return
	}
	s.Stroke = Solid(c)
}

// SetStrokeStyle sets the stroke style from a CSS-style color specification.
func (e *Engine) SetStrokeStyle(spec string) {
	e.SetStrokeColor(e.resolveColor(spec))
}

// SetStrokeGradient sets the stroke style to a gradient.
func (e *Engine) SetStrokeGradient(g *Gradient) {
	if g == nil {
		return
	}
	e.state().Stroke = g
}

// StrokeStyle returns the current stroke style.
func (e *Engine) StrokeStyle() Style {
	return e.state().Stroke
}

// SetLineWidth sets the stroke width. Non-positive widths are ignored.
func (e *Engine) SetLineWidth(w float64) {
	if w > 0 {
		e.state().LineWidth = w
	}
}

// GetLineWidth returns the current stroke width.
func (e *Engine) GetLineWidth() float64 {
	return e.state().LineWidth
}

// SetFont sets the font size in logical pixels and the font family name.
// The family must have been registered with RegisterFont, otherwise the
// built-in face is used.
func (e *Engine) SetFont(size float64, family string) {
	s := e.state()
	if size > 0 {
		s.FontSize = size
	}
	if family != "" {
		s.FontFamily = family
	}
}

// GetFont returns the current font size and family name.
func (e *Engine) GetFont() (float64, string) {
	s := e.state()
	return s.FontSize, s.FontFamily
}

// SetTextAlign sets horizontal text anchoring.
func (e *Engine) SetTextAlign(a TextAlign) {
	e.state().Align = a
}

// GetTextAlign returns the current horizontal text anchoring.
func (e *Engine) GetTextAlign() TextAlign {
	return e.state().Align
}

// SetTextBaseline sets vertical text anchoring.
func (e *Engine) SetTextBaseline(b TextBaseline) {
	e.state().Baseline = b
}

// GetTextBaseline returns the current vertical text anchoring.
func (e *Engine) GetTextBaseline() TextBaseline {
	return e.state().Baseline
}

// SetCompositeMode sets the blend mode for subsequent draws. A mode change
// flushes the sprite lane so already batched quads keep their mode.
func (e *Engine) SetCompositeMode(m CompositeMode) {
	s := e.state()
	if s.Composite == m {
		return
	}
	e.flushSprites()
	s.Composite = m
}

// GetCompositeMode returns the current blend mode.
func (e *Engine) GetCompositeMode() CompositeMode {
	return e.state().Composite
}

// SetShadowBlur sets the shadow blur radius used by the rasterization
// fallback. Zero disables shadows.
func (e *Engine) SetShadowBlur(b float64) {
	if b >= 0 {
		e.state().ShadowBlur = b
	}
}

// GetShadowBlur returns the current shadow blur radius.
func (e *Engine) GetShadowBlur() float64 {
	return e.state().ShadowBlur
}

// SetShadowColor sets the shadow color used by the rasterization fallback.
func (e *Engine) SetShadowColor(c RGBA) {
	e.state().ShadowColor = c
}

// GetShadowColor returns the current shadow color.
func (e *Engine) GetShadowColor() RGBA {
	return e.state().ShadowColor
}
