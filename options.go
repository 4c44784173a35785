package blit

import (
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Option configures an Engine during creation.
//
// Example:
//
//	// Default 800x600 engine on the best available backend
//	eng, err := blit.New()
//
//	// Headless engine for tests
//	eng, err := blit.New(blit.WithBackend("headless"), blit.WithSize(320, 240))
type Option func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	backendName       string
	width, height     int
	scale             float64
	alpha             bool
	antialias         bool
	depthBuffer       bool
	powerPreference   gputypes.PowerPreference
	deviceProvider    gpucontext.DeviceProvider
	textureCacheLimit int
	atlasSize         int
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{
		width:             800,
		height:            600,
		scale:             1.0,
		powerPreference:   gputypes.PowerPreferenceHighPerformance,
		textureCacheLimit: 256,
		atlasSize:         4096,
	}
}

// WithBackend sets the preferred backend by name ("vulkan", "headless").
// If the preferred backend fails to initialize, the remaining registered
// backends are tried in priority order.
func WithBackend(name string) Option {
	return func(o *engineOptions) {
		o.backendName = name
	}
}

// WithSize sets the initial render target size in logical pixels.
func WithSize(width, height int) Option {
	return func(o *engineOptions) {
		o.width = width
		o.height = height
	}
}

// WithScale sets the device pixel ratio. Logical coordinates are multiplied
// by the scale when the projection is built, so callers keep working in
// logical pixels on high-DPI targets.
func WithScale(scale float64) Option {
	return func(o *engineOptions) {
		if scale > 0 {
			o.scale = scale
		}
	}
}

// WithAlpha controls whether the frame clear color is transparent (true) or
// opaque black (false, the default).
func WithAlpha(alpha bool) Option {
	return func(o *engineOptions) {
		o.alpha = alpha
	}
}

// WithAntialias enables 4x multisampling on the frame target.
func WithAntialias(aa bool) Option {
	return func(o *engineOptions) {
		o.antialias = aa
	}
}

// WithDepthBuffer is recognized for canvas-context compatibility but depth
// testing is outside this engine's contract; requesting it logs a warning
// and the option stays disabled.
func WithDepthBuffer(depth bool) Option {
	return func(o *engineOptions) {
		o.depthBuffer = depth
	}
}

// WithPowerPreference selects the adapter class the hardware backend should
// prefer. The default is high performance (discrete GPU first).
func WithPowerPreference(p gputypes.PowerPreference) Option {
	return func(o *engineOptions) {
		o.powerPreference = p
	}
}

// WithDeviceProvider shares an existing GPU device with the engine instead
// of acquiring one through a backend. The engine will not destroy a shared
// device on Close.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *engineOptions) {
		o.deviceProvider = p
	}
}

// WithTextureCacheLimit bounds the number of dedicated textures the resource
// manager keeps before evicting the least recently used entries.
func WithTextureCacheLimit(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.textureCacheLimit = n
		}
	}
}

// WithAtlasSize sets the requested side length of the shared texture atlas.
// The effective size is clamped to the device's maximum texture dimension.
func WithAtlasSize(n int) Option {
	return func(o *engineOptions) {
		if n > 0 {
			o.atlasSize = n
		}
	}
}
