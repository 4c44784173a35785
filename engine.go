package blit

import (
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/blit/backend"
	"github.com/gogpu/blit/internal/glyph"
	"github.com/gogpu/blit/internal/gpu"

	// Register the built-in backends so New finds them without extra imports.
	_ "github.com/gogpu/blit/backend/headless"
	_ "github.com/gogpu/blit/backend/vulkan"
)

// maxTextureDimension bounds the requested atlas size. Devices are opened
// with the default limits, which guarantee 2D textures up to 8192 on every
// backend.
const maxTextureDimension = 8192

// Engine is a batched 2D renderer. It exposes a canvas-style drawing API
// and lowers every operation onto two GPU lanes: a sprite lane for textured
// quads and a damage-number lane whose glyphs animate in the vertex shader.
//
// An Engine is not safe for concurrent use.
type Engine struct {
	backend backend.Backend // nil when the device came from a provider
	device  hal.Device
	queue   hal.Queue

	session  *gpu.Session
	textures *gpu.TextureManager

	spritePipe *gpu.SpritePipeline
	damagePipe *gpu.DamagePipeline
	sprites    *gpu.SpriteBatcher
	damage     *gpu.DamageBatcher

	states []*RenderState
	pool   statePool
	path   Path

	width  int
	height int
	scale  float64
	alpha  bool

	colorCache map[string]RGBA
	fonts      map[string]*glyph.Source
	builtin    *glyph.Source
	glyphMasks map[glyphKey]*glyphMask
	ramps      map[*Gradient]*gradientRamp

	rasterFallbacks int
	rendered        bool
	closed          bool
}

// halProvider is the provider subset that exposes raw HAL handles. Device
// contexts backed by wgpu satisfy it.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// New creates an Engine. Without options it opens an 800x600 target on the
// best available backend; see the With* options for configuration.
//
// When no preferred backend is set (or the preferred one fails to
// initialize), the registered backends are tried in priority order. New
// returns ErrNoBackend only when every candidate fails.
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	log := Logger()
	if o.depthBuffer {
		log.Warn("depth buffer requested but not supported, continuing without")
	}

	e := &Engine{
		width:      o.width,
		height:     o.height,
		scale:      o.scale,
		alpha:      o.alpha,
		colorCache: make(map[string]RGBA),
		fonts:      make(map[string]*glyph.Source),
		builtin:    glyph.Builtin(),
		glyphMasks: make(map[glyphKey]*glyphMask),
		ramps:      make(map[*Gradient]*gradientRamp),
	}

	if o.deviceProvider != nil {
		if err := e.adoptDevice(o.deviceProvider); err != nil {
			return nil, err
		}
		log.Info("engine created on shared device")
	} else if err := e.openBackend(o.backendName, o.powerPreference); err != nil {
		return nil, err
	}

	if err := e.initResources(&o); err != nil {
		e.releaseDevice()
		return nil, err
	}

	root := defaultRenderState()
	e.states = append(e.states, &root)
	return e, nil
}

// adoptDevice extracts the raw HAL handles from a shared device provider.
// Shared devices are never destroyed by the engine.
func (e *Engine) adoptDevice(p gpucontext.DeviceProvider) error {
	hp, ok := any(p).(halProvider)
	if !ok {
		return fmt.Errorf("blit: device provider does not expose HAL types")
	}
	dev, ok := hp.HalDevice().(hal.Device)
	if !ok {
		return fmt.Errorf("blit: provider HalDevice is not hal.Device")
	}
	q, ok := hp.HalQueue().(hal.Queue)
	if !ok {
		return fmt.Errorf("blit: provider HalQueue is not hal.Queue")
	}
	e.device = dev
	e.queue = q
	return nil
}

// openBackend initializes the first working backend: the preferred name
// first when given, then the registry priority order.
func (e *Engine) openBackend(preferred string, power gputypes.PowerPreference) error {
	names := backend.Priority()
	if preferred != "" {
		ordered := make([]string, 0, len(names)+1)
		ordered = append(ordered, preferred)
		for _, n := range names {
			if n != preferred {
				ordered = append(ordered, n)
			}
		}
		names = ordered
	}

	log := Logger()
	var lastErr error
	for _, name := range names {
		b := backend.Get(name)
		if b == nil {
			continue
		}
		if pc, ok := b.(backend.PowerConfigurable); ok {
			pc.SetPowerPreference(power)
		}
		if err := b.Init(); err != nil {
			log.Warn("backend init failed", "backend", name, "error", err)
			lastErr = err
			continue
		}
		args := []any{"backend", name}
		if named, ok := b.(interface{ AdapterName() string }); ok {
			args = append(args, "adapter", named.AdapterName())
		}
		log.Info("backend initialized", args...)
		e.backend = b
		e.device = b.Device()
		e.queue = b.Queue()
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %v", ErrNoBackend, lastErr)
	}
	return ErrNoBackend
}

// initResources creates the session, texture manager, pipelines and lane
// batchers on the acquired device.
func (e *Engine) initResources(o *engineOptions) error {
	pw, ph := physicalSize(o.width, o.height, o.scale)
	session, err := gpu.NewSession(e.device, e.queue, pw, ph, o.antialias)
	if err != nil {
		return fmt.Errorf("create render session: %w", err)
	}

	atlasSize := o.atlasSize
	if atlasSize > maxTextureDimension {
		atlasSize = maxTextureDimension
	}
	textures, err := gpu.NewTextureManager(e.device, e.queue, atlasSize, o.textureCacheLimit)
	if err != nil {
		session.Destroy()
		return fmt.Errorf("create texture manager: %w", err)
	}

	spritePipe, err := gpu.NewSpritePipeline(e.device, e.queue, session.Format(), session.Samples())
	if err != nil {
		textures.Destroy()
		session.Destroy()
		return fmt.Errorf("create sprite pipeline: %w", err)
	}
	damagePipe, err := gpu.NewDamagePipeline(e.device, e.queue, session.Format(), session.Samples())
	if err != nil {
		spritePipe.Destroy()
		textures.Destroy()
		session.Destroy()
		return fmt.Errorf("create damage pipeline: %w", err)
	}

	spritePipe.SetProjection(float64(o.width), float64(o.height))
	damagePipe.SetProjection(float64(o.width), float64(o.height))

	e.session = session
	e.textures = textures
	e.spritePipe = spritePipe
	e.damagePipe = damagePipe
	e.sprites = gpu.NewSpriteBatcher(spritePipe, session)
	e.damage = gpu.NewDamageBatcher(damagePipe, session)
	return nil
}

// releaseDevice closes an owned backend. Adopted devices are left alone.
func (e *Engine) releaseDevice() {
	if e.backend != nil {
		e.backend.Close()
		e.backend = nil
	}
	e.device = nil
	e.queue = nil
}

// physicalSize converts a logical size to device pixels, never below 1x1.
func physicalSize(w, h int, scale float64) (uint32, uint32) {
	pw := int(math.Round(float64(w) * scale))
	ph := int(math.Round(float64(h) * scale))
	if pw < 1 {
		pw = 1
	}
	if ph < 1 {
		ph = 1
	}
	return uint32(pw), uint32(ph)
}

// Close releases all GPU resources. Closing an already closed engine is a
// no-op. A device adopted through WithDeviceProvider is left untouched.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.sprites.Discard()
	e.damage.Discard()
	e.spritePipe.Destroy()
	e.damagePipe.Destroy()
	e.textures.Destroy()
	e.session.Destroy()
	e.releaseDevice()
}

// Closed reports whether Close has been called.
func (e *Engine) Closed() bool {
	return e.closed
}

// Size returns the logical target size in pixels.
func (e *Engine) Size() (int, int) {
	return e.width, e.height
}

// Scale returns the device pixel ratio.
func (e *Engine) Scale() float64 {
	return e.scale
}

// SetTime sets the animation clock sampled by the damage-number shader.
// Spawned numbers move, scale and fade on the GPU against this clock, so
// advancing it costs one uniform write.
func (e *Engine) SetTime(t float64) {
	if e.closed {
		return
	}
	e.damagePipe.SetTime(t)
}

// Time returns the current animation clock.
func (e *Engine) Time() float64 {
	return e.damagePipe.Time()
}

// SetCamera sets the world-space camera offset subtracted from
// damage-number origins.
func (e *Engine) SetCamera(x, y float64) {
	if e.closed {
		return
	}
	e.damagePipe.SetCamera(x, y)
}

// Clear arms a full-target clear for the next flush: transparent when the
// engine was created with WithAlpha(true), opaque black otherwise.
func (e *Engine) Clear() {
	if e.closed {
		return
	}
	c := gputypes.Color{A: 1}
	if e.alpha {
		c = gputypes.Color{}
	}
	e.session.Clear(c)
	e.rendered = true
}

// Resize changes the logical size and scale. Pending lane work is flushed
// under the old projection, then the render targets are recreated at the new
// device pixel size and both lane projections rebuilt.
func (e *Engine) Resize(width, height int, scale float64) error {
	if e.closed {
		return ErrEngineClosed
	}
	if width <= 0 || height <= 0 || scale <= 0 {
		return nil
	}
	if width == e.width && height == e.height && scale == e.scale {
		return nil
	}
	e.flushSprites()
	e.flushDamage()
	e.width, e.height, e.scale = width, height, scale
	pw, ph := physicalSize(width, height, scale)
	if err := e.session.Resize(pw, ph); err != nil {
		return fmt.Errorf("resize render target: %w", err)
	}
	e.spritePipe.SetProjection(float64(width), float64(height))
	e.damagePipe.SetProjection(float64(width), float64(height))
	return nil
}

// EndFrame flushes both lanes and applies any armed clear, leaving the
// frame complete on the target. Textures retired by eviction during the
// frame are destroyed afterwards, once no submitted work references them.
func (e *Engine) EndFrame() error {
	if e.closed {
		return ErrEngineClosed
	}
	if err := e.sprites.Flush(); err != nil {
		return fmt.Errorf("flush sprites: %w", err)
	}
	if err := e.damage.Flush(); err != nil {
		return fmt.Errorf("flush damage numbers: %w", err)
	}
	if err := e.session.FlushClear(); err != nil {
		return fmt.Errorf("apply clear: %w", err)
	}
	e.textures.ReleaseRetired()
	e.rendered = true
	return nil
}

// ReadPixels copies the frame target back to the CPU as an RGBA image at
// device pixel resolution. At least one frame must have been cleared or
// rendered first.
func (e *Engine) ReadPixels() (*image.RGBA, error) {
	if e.closed {
		return nil, ErrEngineClosed
	}
	if !e.rendered {
		return nil, ErrReadbackUnavailable
	}
	pix, err := e.session.ReadPixels()
	if err != nil {
		return nil, fmt.Errorf("read pixels: %w", err)
	}
	w, h := e.session.Size()
	return &image.RGBA{
		Pix:    pix,
		Stride: int(w) * 4,
		Rect:   image.Rect(0, 0, int(w), int(h)),
	}, nil
}

// Stats returns the rendering counters accumulated since the last
// ResetFrameStats call.
func (e *Engine) Stats() FrameStats {
	return FrameStats{
		DrawCalls:        e.session.DrawCalls(),
		SpriteQuads:      e.sprites.Quads(),
		SpriteFlushes:    e.sprites.Flushes(),
		TextureSwitches:  e.sprites.TextureSwitches(),
		DamageGlyphs:     e.damage.Glyphs(),
		DamageFlushes:    e.damage.Flushes(),
		RasterFallbacks:  e.rasterFallbacks,
		Evictions:        e.textures.Evictions(),
		ResidentTextures: e.textures.ResidentCount(),
		AtlasUtilization: e.textures.AtlasUtilization(),
	}
}

// ResetFrameStats zeroes all rendering counters. Calling it at frame start
// makes Stats report per-frame numbers.
func (e *Engine) ResetFrameStats() {
	e.session.ResetCounters()
	e.sprites.ResetCounters()
	e.damage.ResetCounters()
	e.textures.ResetCounters()
	e.rasterFallbacks = 0
}

// MarkDirty invalidates the GPU copy of a registered image. The next draw
// using the image re-uploads its pixels in place.
func (e *Engine) MarkDirty(img image.Image) {
	if e.closed || img == nil {
		return
	}
	e.textures.MarkDirty(img)
}

// UnregisterImage drops an image from the texture cache and releases its
// GPU memory at the end of the current frame.
func (e *Engine) UnregisterImage(img image.Image) {
	if e.closed || img == nil {
		return
	}
	e.textures.Unregister(img)
}

// CreateLinearGradient returns a linear gradient along the given segment.
// Add stops with AddColorStop, then use it as a fill or stroke style.
func (e *Engine) CreateLinearGradient(x0, y0, x1, y1 float64) *Gradient {
	return NewLinearGradient(x0, y0, x1, y1)
}

// CreateRadialGradient returns a radial gradient between two circles.
func (e *Engine) CreateRadialGradient(x0, y0, r0, x1, y1, r1 float64) *Gradient {
	return NewRadialGradient(x0, y0, r0, x1, y1, r1)
}

// resolveColor parses a color spec, memoizing results per engine so repeated
// specs return the identical cached value and equivalent spellings share one
// parse each.
func (e *Engine) resolveColor(spec string) RGBA {
	if c, ok := e.colorCache[spec]; ok {
		return c
	}
	c := ParseColor(spec)
	e.colorCache[spec] = c
	return c
}

// flushSprites drains the sprite lane. Failures are logged, not returned:
// the state setters that force a flush have no error channel.
func (e *Engine) flushSprites() {
	if e.sprites.Pending() == 0 {
		return
	}
	if err := e.sprites.Flush(); err != nil {
		Logger().Warn("sprite flush failed", "error", err)
		return
	}
	e.rendered = true
}

// flushDamage drains the damage-number lane, logging failures.
func (e *Engine) flushDamage() {
	if e.damage.Pending() == 0 {
		return
	}
	if err := e.damage.Flush(); err != nil {
		Logger().Warn("damage flush failed", "error", err)
		return
	}
	e.rendered = true
}
