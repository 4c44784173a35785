package blit

// FrameStats holds per-frame rendering counters. Counters accumulate from
// one ResetFrameStats call to the next and are read through [Engine.Stats].
// The two residency fields are gauges of the current texture cache state;
// ResetFrameStats does not touch them.
type FrameStats struct {
	// DrawCalls is the number of GPU draw submissions.
	DrawCalls int

	// SpriteQuads is the number of quads enqueued on the sprite lane.
	SpriteQuads int

	// SpriteFlushes is the number of sprite lane flushes.
	SpriteFlushes int

	// TextureSwitches is the number of flushes forced by a texture change.
	TextureSwitches int

	// DamageGlyphs is the number of glyph quads spawned on the damage lane.
	DamageGlyphs int

	// DamageFlushes is the number of damage lane flushes.
	DamageFlushes int

	// RasterFallbacks is the number of paths that went through the CPU
	// rasterization fallback.
	RasterFallbacks int

	// Evictions is the number of dedicated textures evicted from the cache.
	Evictions int

	// ResidentTextures is the number of images currently resolved to a
	// texture or atlas region.
	ResidentTextures int

	// AtlasUtilization is the fraction of atlas area covered by packed
	// regions, 0 to 1.
	AtlasUtilization float64
}
