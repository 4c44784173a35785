// Package gpu implements the batched rendering core on top of the wgpu HAL:
// render targets and frame submission (Session), the sprite quad lane
// (SpriteBatcher + SpritePipeline), the animated damage-number lane
// (DamageBatcher + DamagePipeline), and texture residency (TextureManager,
// Atlas).
//
// All types are single-goroutine unless noted. Every flush submits its own
// command buffer and waits on a fence, so lane buffers can be rewritten
// immediately after a flush returns.
package gpu
