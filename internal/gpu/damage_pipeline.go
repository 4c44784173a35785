package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Damage lane dimensions.
const (
	// damageFloatsPerVertex is the packed vertex width: glyph offset(2),
	// uv(2), origin(2), cluster offset(2), velocity(2), timing(3), tint(3),
	// alpha(1).
	damageFloatsPerVertex = 17

	// DamageVertexStride is the vertex size in bytes.
	DamageVertexStride = damageFloatsPerVertex * 4

	// DamageMaxQuads caps one damage-lane flush. The lane is independent of
	// the sprite lane: different evaluator, different capacity.
	DamageMaxQuads = 4096

	// damageUniformSize is the uniform buffer size: projection(64) +
	// time/gravity/epsilon(16) + camera(16).
	damageUniformSize = 96

	// damageUniformFloats is the shadow copy length.
	damageUniformFloats = damageUniformSize / 4
)

// DamagePipeline owns the damage lane's GPU objects. The uniform buffer
// carries the projection plus the per-draw animation parameters (current
// time, gravity, epsilon, camera offset); a CPU shadow copy is rewritten
// whole on every change.
type DamagePipeline struct {
	device hal.Device
	queue  hal.Queue

	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	sampler    hal.Sampler
	pipeline   hal.RenderPipeline

	vertexBuf  hal.Buffer
	indexBuf   hal.Buffer
	uniformBuf hal.Buffer

	uniforms [damageUniformFloats]float32

	// bindGroup is cached for the one glyph atlas texture the lane samples.
	bindGroup hal.BindGroup
	boundTex  *Texture
}

// NewDamagePipeline creates the damage lane pipeline targeting the given
// color format and sample count.
func NewDamagePipeline(device hal.Device, queue hal.Queue, format gputypes.TextureFormat, samples uint32) (*DamagePipeline, error) {
	p := &DamagePipeline{device: device, queue: queue}
	p.uniforms[16+1] = DamageGravity
	p.uniforms[16+2] = DamageEpsilon

	module, err := createShaderModule(device, "damage_text_shader", damageTextShaderSource)
	if err != nil {
		return nil, fmt.Errorf("create damage shader module: %w", err)
	}
	p.module = module

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "damage_bind_layout",
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
		return nil, fmt.Errorf("create damage bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "damage_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create damage pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "damage_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create damage sampler: %w", err)
	}
	p.sampler = sampler

	premulBlend := gputypes.BlendStatePremultiplied()
	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "damage_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    damageVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				Blend:     &premulBlend,
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
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("create damage pipeline: %w", err)
	}
	p.pipeline = pipeline

	if err := p.createBuffers(); err != nil {
		p.Destroy()
		return nil, err
	}

	return p, nil
}

func (p *DamagePipeline) createBuffers() error {
	vertexBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "damage_vertices",
		Size:  uint64(DamageMaxQuads * 4 * DamageVertexStride),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create damage vertex buffer: %w", err)
	}
	p.vertexBuf = vertexBuf

	indexData := indicesToBytes(generateQuadIndices(DamageMaxQuads))
	indexBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "damage_indices",
		Size:  uint64(len(indexData)),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create damage index buffer: %w", err)
	}
	p.indexBuf = indexBuf
	p.queue.WriteBuffer(indexBuf, 0, indexData)

	uniformBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "damage_uniforms",
		Size:  damageUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create damage uniform buffer: %w", err)
	}
	p.uniformBuf = uniformBuf
	p.writeUniforms()

	return nil
}

func (p *DamagePipeline) writeUniforms() {
	p.queue.WriteBuffer(p.uniformBuf, 0, float32SliceToBytes(p.uniforms[:]))
}

// SetProjection rewrites the uniform projection for a logical viewport of
// the given size.
func (p *DamagePipeline) SetProjection(width, height float64) {
	proj := orthoProjection(width, height)
	copy(p.uniforms[:16], proj[:])
	p.writeUniforms()
}

// SetTime sets the evaluation time the shader animates against.
func (p *DamagePipeline) SetTime(t float64) {
	p.uniforms[16] = float32(t)
	p.writeUniforms()
}

// Time returns the last evaluation time set.
func (p *DamagePipeline) Time() float64 {
	return float64(p.uniforms[16])
}

// SetCamera sets the camera offset subtracted from glyph positions.
func (p *DamagePipeline) SetCamera(x, y float64) {
	p.uniforms[20] = float32(x)
	p.uniforms[21] = float32(y)
	p.writeUniforms()
}

// bindGroupFor returns the bind group for the glyph atlas texture, rebuilt
// only when the texture changes.
func (p *DamagePipeline) bindGroupFor(tex *Texture) (hal.BindGroup, error) {
	if p.bindGroup != nil && p.boundTex == tex {
		return p.bindGroup, nil
	}
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
		p.boundTex = nil
	}
	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "damage_bind",
		Layout: p.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: p.uniformBuf.NativeHandle(), Offset: 0, Size: damageUniformSize,
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
		return nil, fmt.Errorf("create damage bind group: %w", err)
	}
	p.bindGroup = bg
	p.boundTex = tex
	return bg, nil
}

// Destroy releases all GPU objects owned by the pipeline. Safe to call on a
// partially constructed pipeline.
func (p *DamagePipeline) Destroy() {
	if p.bindGroup != nil {
		p.device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
		p.boundTex = nil
	}
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
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
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

// damageVertexLayout describes the packed damage vertex to the pipeline.
// Matches VertexInput in shaders/damage_text.wgsl.
func damageVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: DamageVertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},  // glyph offset
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},  // uv
			{Format: gputypes.VertexFormatFloat32x2, Offset: 16, ShaderLocation: 2}, // origin
			{Format: gputypes.VertexFormatFloat32x2, Offset: 24, ShaderLocation: 3}, // cluster offset
			{Format: gputypes.VertexFormatFloat32x2, Offset: 32, ShaderLocation: 4}, // velocity
			{Format: gputypes.VertexFormatFloat32x3, Offset: 40, ShaderLocation: 5}, // spawn, duration, base scale
			{Format: gputypes.VertexFormatFloat32x3, Offset: 52, ShaderLocation: 6}, // tint
			{Format: gputypes.VertexFormatFloat32, Offset: 64, ShaderLocation: 7},   // alpha
		},
	}}
}
