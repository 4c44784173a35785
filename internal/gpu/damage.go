package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// DamageGlyph is one glyph quad of a damage number, positioned relative to
// the cluster center at base scale. X, Y is the glyph's top-left corner and
// U0..V1 its rect in the glyph atlas.
type DamageGlyph struct {
	X, Y, W, H     float32
	U0, V0, U1, V1 float32
}

// DamageBatcher accumulates damage-number glyph quads and issues one draw
// per flush. All animation happens on the GPU: spawning writes static
// vertices once and the shader re-evaluates position, scale and fade from
// the uniform time every frame, so expired numbers cost nothing on the CPU.
type DamageBatcher struct {
	pipeline *DamagePipeline
	session  *Session

	data      []byte
	quadCount int
	texture   *Texture

	glyphs  int
	flushes int
}

// NewDamageBatcher creates a batcher over the damage pipeline.
func NewDamageBatcher(pipeline *DamagePipeline, session *Session) *DamageBatcher {
	return &DamageBatcher{
		pipeline: pipeline,
		session:  session,
		data:     make([]byte, DamageMaxQuads*4*DamageVertexStride),
	}
}

// Spawn enqueues every glyph of one damage number. tex is the glyph atlas
// the quads sample; origin is the cluster center in world space at spawn,
// vel the initial velocity in pixels per second. The number animates from
// spawnTime for duration seconds at the given base scale.
//
// A texture change or a full batch forces a flush first.
func (b *DamageBatcher) Spawn(tex *Texture, glyphs []DamageGlyph, originX, originY, velX, velY, spawnTime, duration, baseScale float32, tint [3]float32, alpha float32) error {
	if len(glyphs) == 0 {
		return nil
	}
	if b.texture != nil && b.texture != tex {
		if err := b.Flush(); err != nil {
			return err
		}
	}
	for _, g := range glyphs {
		if b.quadCount >= DamageMaxQuads {
			if err := b.Flush(); err != nil {
				return err
			}
		}
		b.texture = tex

		hw := g.W / 2
		hh := g.H / 2
		clusterX := g.X + hw
		clusterY := g.Y + hh

		corners := [4][4]float32{
			{-hw, -hh, g.U0, g.V0},
			{+hw, -hh, g.U1, g.V0},
			{+hw, +hh, g.U1, g.V1},
			{-hw, +hh, g.U0, g.V1},
		}
		off := b.quadCount * 4 * DamageVertexStride
		for _, c := range corners {
			off = putFloat32(b.data, off, c[0])
			off = putFloat32(b.data, off, c[1])
			off = putFloat32(b.data, off, c[2])
			off = putFloat32(b.data, off, c[3])
			off = putFloat32(b.data, off, originX)
			off = putFloat32(b.data, off, originY)
			off = putFloat32(b.data, off, clusterX)
			off = putFloat32(b.data, off, clusterY)
			off = putFloat32(b.data, off, velX)
			off = putFloat32(b.data, off, velY)
			off = putFloat32(b.data, off, spawnTime)
			off = putFloat32(b.data, off, duration)
			off = putFloat32(b.data, off, baseScale)
			off = putFloat32(b.data, off, tint[0])
			off = putFloat32(b.data, off, tint[1])
			off = putFloat32(b.data, off, tint[2])
			off = putFloat32(b.data, off, alpha)
		}
		b.quadCount++
		b.glyphs++
	}
	return nil
}

// Flush uploads the pending quads and records one indexed draw. A failed
// flush drops the batch.
func (b *DamageBatcher) Flush() error {
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
	b.pipeline.queue.WriteBuffer(b.pipeline.vertexBuf, 0, b.data[:count*4*DamageVertexStride])

	err = b.session.RecordPass(func(rp hal.RenderPassEncoder) {
		rp.SetPipeline(b.pipeline.pipeline)
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

// Pending reports the number of quads waiting for a flush.
func (b *DamageBatcher) Pending() int {
	return b.quadCount
}

// Discard drops pending quads without drawing them.
func (b *DamageBatcher) Discard() {
	b.quadCount = 0
	b.texture = nil
}

// Glyphs returns the glyph quads spawned since the last counter reset.
func (b *DamageBatcher) Glyphs() int { return b.glyphs }

// Flushes returns the flushes issued since the last counter reset.
func (b *DamageBatcher) Flushes() int { return b.flushes }

// ResetCounters zeroes the frame counters.
func (b *DamageBatcher) ResetCounters() {
	b.glyphs = 0
	b.flushes = 0
}
