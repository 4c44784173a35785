package gpu

import (
	"math"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewDamagePipeline(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewDamagePipeline(device, queue, gputypes.TextureFormatBGRA8Unorm, 1)
	if err != nil {
		t.Fatalf("NewDamagePipeline failed: %v", err)
	}
	defer p.Destroy()

	if p.module == nil || p.bindLayout == nil || p.pipeLayout == nil || p.sampler == nil {
		t.Error("expected shader module, layouts, and sampler to be created")
	}
	if p.pipeline == nil {
		t.Error("expected render pipeline to be created")
	}
	if p.vertexBuf == nil || p.indexBuf == nil || p.uniformBuf == nil {
		t.Error("expected lane buffers to be created")
	}

	// The animation constants travel in the uniform params slot.
	if p.uniforms[17] != DamageGravity {
		t.Errorf("expected gravity %v in uniforms, got %v", float32(DamageGravity), p.uniforms[17])
	}
	if math.Abs(float64(p.uniforms[18])-DamageEpsilon) > 1e-9 {
		t.Errorf("expected epsilon %v in uniforms, got %v", DamageEpsilon, p.uniforms[18])
	}
}

func TestDamagePipelineUniforms(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewDamagePipeline(device, queue, gputypes.TextureFormatBGRA8Unorm, 1)
	if err != nil {
		t.Fatalf("NewDamagePipeline failed: %v", err)
	}
	defer p.Destroy()

	p.SetTime(2.5)
	if p.uniforms[16] != 2.5 {
		t.Errorf("expected time 2.5 in uniforms, got %v", p.uniforms[16])
	}
	if p.Time() != 2.5 {
		t.Errorf("expected Time() 2.5, got %v", p.Time())
	}

	p.SetCamera(30, -40)
	if p.uniforms[20] != 30 || p.uniforms[21] != -40 {
		t.Errorf("expected camera (30, -40) in uniforms, got (%v, %v)",
			p.uniforms[20], p.uniforms[21])
	}

	p.SetProjection(800, 600)
	proj := orthoProjection(800, 600)
	for i := 0; i < 16; i++ {
		if p.uniforms[i] != proj[i] {
			t.Errorf("uniform %d: expected %v, got %v", i, proj[i], p.uniforms[i])
		}
	}

	// Setters preserve each other's slots.
	if p.uniforms[16] != 2.5 || p.uniforms[20] != 30 {
		t.Error("expected projection write to preserve time and camera")
	}
}

func TestDamagePipelineBindGroupCached(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewDamagePipeline(device, queue, gputypes.TextureFormatBGRA8Unorm, 1)
	if err != nil {
		t.Fatalf("NewDamagePipeline failed: %v", err)
	}
	defer p.Destroy()

	texA, err := createTexture(device, "glyphs_a", 64, 64)
	if err != nil {
		t.Fatalf("createTexture failed: %v", err)
	}
	defer texA.destroy(device)
	texB, err := createTexture(device, "glyphs_b", 64, 64)
	if err != nil {
		t.Fatalf("createTexture failed: %v", err)
	}
	defer texB.destroy(device)

	bg1, err := p.bindGroupFor(texA)
	if err != nil {
		t.Fatalf("bindGroupFor failed: %v", err)
	}
	bg2, err := p.bindGroupFor(texA)
	if err != nil {
		t.Fatalf("second bindGroupFor failed: %v", err)
	}
	if bg1 != bg2 {
		t.Error("expected the bind group cached for the same texture")
	}

	if _, err := p.bindGroupFor(texB); err != nil {
		t.Fatalf("bindGroupFor new texture failed: %v", err)
	}
	if p.boundTex != texB {
		t.Error("expected the cache rebound to the new texture")
	}
}

func TestDamagePipelineDestroy(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewDamagePipeline(device, queue, gputypes.TextureFormatBGRA8Unorm, msaaSampleCount)
	if err != nil {
		t.Fatalf("NewDamagePipeline failed: %v", err)
	}
	p.Destroy()
	if p.module != nil || p.pipeline != nil || p.vertexBuf != nil {
		t.Error("expected resources nil after Destroy")
	}
	// Double destroy is safe.
	p.Destroy()
}

func TestDamageVertexLayout(t *testing.T) {
	layouts := damageVertexLayout()
	if len(layouts) != 1 {
		t.Fatalf("expected one vertex buffer layout, got %d", len(layouts))
	}
	l := layouts[0]
	if l.ArrayStride != DamageVertexStride {
		t.Errorf("expected stride %d, got %d", DamageVertexStride, l.ArrayStride)
	}

	// 8 attributes: glyph offset, uv, origin, cluster offset, velocity,
	// timing, tint, alpha.
	if len(l.Attributes) != 8 {
		t.Fatalf("expected 8 attributes, got %d", len(l.Attributes))
	}
	wantOffsets := [8]int{0, 8, 16, 24, 32, 40, 52, 64}
	for i, a := range l.Attributes {
		if int(a.Offset) != wantOffsets[i] {
			t.Errorf("attribute %d: expected offset %d, got %d", i, wantOffsets[i], a.Offset)
		}
		if int(a.ShaderLocation) != i {
			t.Errorf("attribute %d: expected location %d, got %d", i, i, a.ShaderLocation)
		}
	}
}
