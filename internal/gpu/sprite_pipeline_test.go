package gpu

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNewSpritePipeline(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewSpritePipeline(device, queue, gputypes.TextureFormatBGRA8Unorm, 1)
	if err != nil {
		t.Fatalf("NewSpritePipeline failed: %v", err)
	}
	defer p.Destroy()

	if p.module == nil || p.bindLayout == nil || p.pipeLayout == nil || p.sampler == nil {
		t.Error("expected shader module, layouts, and sampler to be created")
	}
	if p.sourceOver == nil || p.lighter == nil {
		t.Error("expected both blend pipelines to be created")
	}
	if p.vertexBuf == nil || p.indexBuf == nil || p.uniformBuf == nil {
		t.Error("expected lane buffers to be created")
	}
}

func TestSpritePipelineDestroy(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewSpritePipeline(device, queue, gputypes.TextureFormatBGRA8Unorm, msaaSampleCount)
	if err != nil {
		t.Fatalf("NewSpritePipeline failed: %v", err)
	}
	p.Destroy()
	if p.module != nil || p.sourceOver != nil || p.vertexBuf != nil {
		t.Error("expected resources nil after Destroy")
	}
	// Double destroy is safe.
	p.Destroy()
}

func TestSpritePipelineFor(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewSpritePipeline(device, queue, gputypes.TextureFormatBGRA8Unorm, 1)
	if err != nil {
		t.Fatalf("NewSpritePipeline failed: %v", err)
	}
	defer p.Destroy()

	if p.pipelineFor(BlendSourceOver) != p.sourceOver {
		t.Error("expected source-over pipeline for BlendSourceOver")
	}
	if p.pipelineFor(BlendLighter) != p.lighter {
		t.Error("expected lighter pipeline for BlendLighter")
	}
}

func TestSpriteBindGroupCached(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	p, err := NewSpritePipeline(device, queue, gputypes.TextureFormatBGRA8Unorm, 1)
	if err != nil {
		t.Fatalf("NewSpritePipeline failed: %v", err)
	}
	defer p.Destroy()

	tex, err := createTexture(device, "bind", 8, 8)
	if err != nil {
		t.Fatalf("createTexture failed: %v", err)
	}
	defer tex.destroy(device)

	bg1, err := p.bindGroupFor(tex)
	if err != nil {
		t.Fatalf("bindGroupFor failed: %v", err)
	}
	bg2, err := p.bindGroupFor(tex)
	if err != nil {
		t.Fatalf("second bindGroupFor failed: %v", err)
	}
	if bg1 != bg2 {
		t.Error("expected the bind group to be cached on the texture")
	}
	if tex.spriteBind == nil {
		t.Error("expected the cached bind group stored on the texture")
	}
}

func TestSpriteVertexLayout(t *testing.T) {
	layouts := spriteVertexLayout()
	if len(layouts) != 1 {
		t.Fatalf("expected one vertex buffer layout, got %d", len(layouts))
	}
	l := layouts[0]
	if l.ArrayStride != SpriteVertexStride {
		t.Errorf("expected stride %d, got %d", SpriteVertexStride, l.ArrayStride)
	}

	// 5 attributes: position, uv, alpha, tint, flash.
	if len(l.Attributes) != 5 {
		t.Fatalf("expected 5 attributes, got %d", len(l.Attributes))
	}
	if l.Attributes[0].Offset != 0 || l.Attributes[0].ShaderLocation != 0 {
		t.Errorf("position attribute: offset=%d location=%d, expected offset=0 location=0",
			l.Attributes[0].Offset, l.Attributes[0].ShaderLocation)
	}
	if l.Attributes[1].Offset != 8 || l.Attributes[1].ShaderLocation != 1 {
		t.Errorf("uv attribute: offset=%d location=%d, expected offset=8 location=1",
			l.Attributes[1].Offset, l.Attributes[1].ShaderLocation)
	}
	if l.Attributes[2].Offset != 16 || l.Attributes[2].ShaderLocation != 2 {
		t.Errorf("alpha attribute: offset=%d location=%d, expected offset=16 location=2",
			l.Attributes[2].Offset, l.Attributes[2].ShaderLocation)
	}
	if l.Attributes[3].Offset != 20 || l.Attributes[3].ShaderLocation != 3 {
		t.Errorf("tint attribute: offset=%d location=%d, expected offset=20 location=3",
			l.Attributes[3].Offset, l.Attributes[3].ShaderLocation)
	}
	if l.Attributes[4].Offset != 32 || l.Attributes[4].ShaderLocation != 4 {
		t.Errorf("flash attribute: offset=%d location=%d, expected offset=32 location=4",
			l.Attributes[4].Offset, l.Attributes[4].ShaderLocation)
	}
}

func TestBlendModeString(t *testing.T) {
	if BlendSourceOver.String() != "source-over" {
		t.Errorf("expected %q, got %q", "source-over", BlendSourceOver.String())
	}
	if BlendLighter.String() != "lighter" {
		t.Errorf("expected %q, got %q", "lighter", BlendLighter.String())
	}
	if BlendMode(9).String() != "BlendMode(9)" {
		t.Errorf("unexpected string for unknown mode: %q", BlendMode(9).String())
	}
}
