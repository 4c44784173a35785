package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// BlendMode selects the compositing applied by a lane pipeline.
type BlendMode uint8

const (
	// BlendSourceOver is premultiplied source-over compositing.
	BlendSourceOver BlendMode = iota

	// BlendLighter is additive compositing.
	BlendLighter
)

// String returns a human-readable name for the blend mode.
func (m BlendMode) String() string {
	switch m {
	case BlendSourceOver:
		return "source-over"
	case BlendLighter:
		return "lighter"
	default:
		return fmt.Sprintf("BlendMode(%d)", uint8(m))
	}
}

// Sprite lane dimensions.
const (
	// spriteFloatsPerVertex is the packed vertex width: position(2), uv(2),
	// alpha(1), tint(3), flash(1).
	spriteFloatsPerVertex = 9

	// SpriteVertexStride is the vertex size in bytes.
	SpriteVertexStride = spriteFloatsPerVertex * 4

	// MaxQuadsPerBatch caps one sprite flush. Reaching it forces a flush.
	MaxQuadsPerBatch = 8192

	// spriteUniformSize is the uniform buffer size: one 4x4 projection.
	spriteUniformSize = 64
)

// SpritePipeline owns the sprite lane's GPU objects: shader module, layouts,
// sampler, one render pipeline per blend mode, and the persistent lane
// buffers (vertex, static index, uniform). Per-texture bind groups are
// cached on the textures themselves.
type SpritePipeline struct {
	device hal.Device
	queue  hal.Queue

	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler

	sourceOver hal.RenderPipeline
	lighter    hal.RenderPipeline

	vertexBuf  hal.Buffer
	indexBuf   hal.Buffer
	uniformBuf hal.Buffer
}

// NewSpritePipeline creates the sprite lane pipeline targeting the given
// color format and sample count.
func NewSpritePipeline(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, samples uint32) (*SpritePipeline, error) {
	p := &SpritePipeline{device: device, queue: queue}

	module, err := createShaderModule(device, "sprite_shader", spriteShaderSource)
	if err != nil {
		return nil, fmt.Errorf("create sprite shader module: %w", err)
	}
	p.module = module

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sprite_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create sprite bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sprite_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create sprite pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "sprite_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create sprite sampler: %w", err)
	}
	p.sampler = sampler

	premulBlend := gputypes.BlendStatePremultiplied()
	p.sourceOver, err = p.createPipeline("sprite_pipeline_over", format, samples, &premulBlend)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create sprite pipeline: %w", err)
	}

	additiveBlend := gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
	}
	p.lighter, err = p.createPipeline("sprite_pipeline_lighter", format, samples, &additiveBlend)
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create additive sprite pipeline: %w", err)
	}

	if err := p.createBuffers(); err != nil {
		p.Destroy()
		return nil, err
	}

	return p, nil
}

// createPipeline builds one render pipeline variant over the shared layout.
func (p *SpritePipeline) createPipeline(label string, format gputypes.TextureFormat, samples uint32, blend *gputypes.BlendState) (hal.RenderPipeline, error) {
	return p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label,
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.module,
			EntryPoint: "vs_main",
			Buffers:    spriteVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				Blend:     blend,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: samples,
			Mask:  0xFFFFFFFF,
		},
	})
}

// createBuffers allocates the persistent lane buffers and uploads the static
// index data.
func (p *SpritePipeline) createBuffers() error {
	vertexBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_vertices",
		Size:  uint64(MaxQuadsPerBatch * 4 * SpriteVertexStride),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create sprite vertex buffer: %w", err)
	}
	p.vertexBuf = vertexBuf

	indexData := indicesToBytes(generateQuadIndices(MaxQuadsPerBatch))
	indexBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_indices",
		Size:  uint64(len(indexData)),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create sprite index buffer: %w", err)
	}
	p.indexBuf = indexBuf
	p.queue.WriteBuffer(indexBuf, 0, indexData)

	uniformBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_uniforms",
		Size:  spriteUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create sprite uniform buffer: %w", err)
	}
	p.uniformBuf = uniformBuf

	return nil
}

// SetProjection rewrites the uniform projection for a logical viewport of
// the given size. Existing bind groups stay valid; only buffer contents
// change.
func (p *SpritePipeline) SetProjection(width, height float64) {
	proj := orthoProjection(width, height)
	p.queue.WriteBuffer(p.uniformBuf, 0, float32SliceToBytes(proj[:]))
}

// bindGroupFor returns the texture's cached sprite bind group, creating it
// on first use. The bind group lives until the texture is destroyed.
func (p *SpritePipeline) bindGroupFor(tex *Texture) (hal.BindGroup, error) {
	if tex.spriteBind != nil {
		return tex.spriteBind, nil
	}
	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "sprite_bind",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: p.uniformBuf.NativeHandle(), Offset: 0, Size: spriteUniformSize,
			}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{
				TextureView: gputypes.TextureViewHandle(tex.view.NativeHandle()),
			}},
			{Binding: 2, Resource: gputypes.SamplerBinding{
				Sampler: gputypes.SamplerHandle(p.sampler.NativeHandle()),
			}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create sprite bind group: %w", err)
	}
	tex.spriteBind = bg
	return bg, nil
}

// pipelineFor returns the pipeline variant for the blend mode.
func (p *SpritePipeline) pipelineFor(mode BlendMode) hal.RenderPipeline {
	if mode == BlendLighter {
		return p.lighter
	}
	return p.sourceOver
}

// Destroy releases all GPU objects owned by the pipeline. Safe to call on a
// partially constructed pipeline.
func (p *SpritePipeline) Destroy() {
	if p.uniformBuf != nil {
		p.device.DestroyBuffer(p.uniformBuf)
		p.uniformBuf = nil
	}
	if p.indexBuf != nil {
		p.device.DestroyBuffer(p.indexBuf)
		p.indexBuf = nil
	}
	if p.vertexBuf != nil {
		p.device.DestroyBuffer(p.vertexBuf)
		p.vertexBuf = nil
	}
	if p.lighter != nil {
		p.device.DestroyRenderPipeline(p.lighter)
		p.lighter = nil
	}
	if p.sourceOver != nil {
		p.device.DestroyRenderPipeline(p.sourceOver)
		p.sourceOver = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.module != nil {
		p.device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// spriteVertexLayout describes the packed sprite vertex to the pipeline.
// Matches VertexInput in shaders/sprite.wgsl.
func spriteVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: SpriteVertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // position
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},  // uv
			{Format: gputypes.VertexFormatFloat32, Offset: 16, ShaderLocation: 2},   // alpha
			{Format: gputypes.VertexFormatFloat32x3, Offset: 20, ShaderLocation: 3}, // tint
			{Format: gputypes.VertexFormatFloat32, Offset: 32, ShaderLocation: 4},   // flash
		},
	}}
}
