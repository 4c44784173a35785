package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// QuadVertex is one corner of a sprite quad: a transformed position in
// logical pixels and its texture coordinate.
type QuadVertex struct {
	X, Y float32
	U, V float32
}

// SpriteBatcher accumulates textured quads into the sprite lane and turns
// them into indexed draws. A batch holds quads for exactly one texture and
// one blend mode; enqueueing a different texture, switching the blend mode,
// or hitting capacity flushes first. Corner order is top-left, top-right,
// bottom-right, bottom-left.
type SpriteBatcher struct {
	pipeline *SpritePipeline
	session  *Session

	data      []byte
	quadCount int
	texture   *Texture
	mode      BlendMode

	quads           int
	flushes         int
	textureSwitches int
}

// NewSpriteBatcher creates a batcher over the sprite pipeline and session.
// The staging buffer is allocated once at full lane capacity.
func NewSpriteBatcher(pipeline *SpritePipeline, session *Session) *SpriteBatcher {
	return &SpriteBatcher{
		pipeline: pipeline,
		session:  session,
		data:     make([]byte, MaxQuadsPerBatch*4*SpriteVertexStride),
	}
}

// Enqueue appends one quad sampling the given texture. Flushes first when
// the bound texture changes or the lane is full.
func (b *SpriteBatcher) Enqueue(tex *Texture, corners [4]QuadVertex, alpha float32, tint [3]float32, flash bool) error {
	if b.texture != nil && tex != b.texture {
		b.textureSwitches++
		if err := b.Flush(); err != nil {
			return err
		}
	}
	if b.quadCount >= MaxQuadsPerBatch {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	b.texture = tex

	flashF := float32(0)
	if flash {
		flashF = 1
	}

	off := b.quadCount * 4 * SpriteVertexStride
	for _, c := range corners {
		off = putFloat32(b.data, off, c.X)
		off = putFloat32(b.data, off, c.Y)
		off = putFloat32(b.data, off, c.U)
		off = putFloat32(b.data, off, c.V)
		off = putFloat32(b.data, off, alpha)
		off = putFloat32(b.data, off, tint[0])
		off = putFloat32(b.data, off, tint[1])
		off = putFloat32(b.data, off, tint[2])
		off = putFloat32(b.data, off, flashF)
	}
	b.quadCount++
	b.quads++
	return nil
}

// SetBlendMode switches the lane's compositing, flushing queued quads first
// so they draw with the mode that was current when they were enqueued.
func (b *SpriteBatcher) SetBlendMode(mode BlendMode) error {
	if mode == b.mode {
		return nil
	}
	if err := b.Flush(); err != nil {
		return err
	}
	b.mode = mode
	return nil
}

// BlendMode returns the lane's current compositing mode.
func (b *SpriteBatcher) BlendMode() BlendMode { return b.mode }

// Flush uploads the accumulated quads and issues one indexed draw. No-op
// when the lane is empty. The batch is dropped on error so a failed submit
// cannot wedge the lane.
func (b *SpriteBatcher) Flush() error {
	if b.quadCount == 0 {
		return nil
	}
	tex := b.texture
	count := b.quadCount
	b.quadCount = 0
	b.texture = nil

	bindGroup, err := b.pipeline.bindGroupFor(tex)
	if err != nil {
		return err
	}

	b.pipeline.queue.WriteBuffer(b.pipeline.vertexBuf, 0, b.data[:count*4*SpriteVertexStride])

	pipeline := b.pipeline.pipelineFor(b.mode)
	err = b.session.RecordPass(func(rp hal.RenderPassEncoder) {
		rp.SetPipeline(pipeline)
		rp.SetBindGroup(0, bindGroup, nil)
		rp.SetVertexBuffer(0, b.pipeline.vertexBuf, 0)
		rp.SetIndexBuffer(b.pipeline.indexBuf, gputypes.IndexFormatUint16, 0)
		rp.DrawIndexed(uint32(count*6), 1, 0, 0, 0)
	})
	if err != nil {
		return err
	}
	b.flushes++
	b.session.countDraw()
	return nil
}

// Pending returns the number of quads waiting in the lane.
func (b *SpriteBatcher) Pending() int { return b.quadCount }

// Discard drops queued quads without drawing them.
func (b *SpriteBatcher) Discard() {
	b.quadCount = 0
	b.texture = nil
}

// Quads returns the number of quads enqueued since the last counter reset.
func (b *SpriteBatcher) Quads() int { return b.quads }

// Flushes returns the number of non-empty flushes since the last counter
// reset.
func (b *SpriteBatcher) Flushes() int { return b.flushes }

// TextureSwitches returns how many flushes were forced by texture changes.
func (b *SpriteBatcher) TextureSwitches() int { return b.textureSwitches }

// ResetCounters zeroes the per-frame statistics.
func (b *SpriteBatcher) ResetCounters() {
	b.quads = 0
	b.flushes = 0
	b.textureSwitches = 0
}
