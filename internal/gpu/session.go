package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// msaaSampleCount is the sample count used when antialiasing is on.
const msaaSampleCount = 4

// Session owns the offscreen render targets and runs render passes against
// them. Every flush submits its own command buffer and waits on a fence, so
// a pass sees the results of every earlier pass in the frame.
//
// With antialiasing the color attachment is a 4x MSAA texture resolving to
// a single-sample target; without it the single-sample texture is the
// attachment directly. Either way the readable target is BGRA8Unorm with
// CopySrc usage for readback.
type Session struct {
	device hal.Device
	queue  hal.Queue

	width  uint32
	height uint32
	aa     bool

	colorTex  hal.Texture
	colorView hal.TextureView

	msaaTex     hal.Texture
	msaaView    hal.TextureView
	resolveTex  hal.Texture
	resolveView hal.TextureView

	pendingClear bool
	clearColor   gputypes.Color

	drawCalls int
}

// NewSession creates a session with targets of the given size.
func NewSession(device hal.Device, queue hal.Queue, width, height uint32, antialias bool) (*Session, error) {
	s := &Session{
		device: device,
		queue:  queue,
		width:  width,
		height: height,
		aa:     antialias,
	}
	if err := s.ensureTargets(); err != nil {
		return nil, err
	}
	return s, nil
}

// Size returns the current target dimensions.
func (s *Session) Size() (uint32, uint32) {
	return s.width, s.height
}

// Samples returns the sample count lane pipelines must target.
func (s *Session) Samples() uint32 {
	if s.aa {
		return msaaSampleCount
	}
	return 1
}

// Format returns the color target format lane pipelines must target.
func (s *Session) Format() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}

// ensureTargets creates the render targets for the current size and mode.
// Fresh targets have undefined contents, so a clear is armed for the first
// pass.
func (s *Session) ensureTargets() error {
	size := hal.Extent3D{Width: s.width, Height: s.height, DepthOrArrayLayers: 1}

	if s.aa {
		msaaTex, err := s.device.CreateTexture(&hal.TextureDescriptor{
			Label:         "canvas_msaa_color",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   msaaSampleCount,
			Dimension:     gputypes.TextureDimension2D,
			Format:        gputypes.TextureFormatBGRA8Unorm,
			Usage:         gputypes.TextureUsageRenderAttachment,
		})
		if err != nil {
			return fmt.Errorf("create MSAA color texture: %w", err)
		}
		s.msaaTex = msaaTex

		msaaView, err := s.device.CreateTextureView(msaaTex, &hal.TextureViewDescriptor{
			Label: "canvas_msaa_color_view",
		})
		if err != nil {
			s.destroyTargets()
			return fmt.Errorf("create MSAA color view: %w", err)
		}
		s.msaaView = msaaView

		resolveTex, err := s.device.CreateTexture(&hal.TextureDescriptor{
			Label:         "canvas_resolve",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        gputypes.TextureFormatBGRA8Unorm,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			s.destroyTargets()
			return fmt.Errorf("create resolve texture: %w", err)
		}
		s.resolveTex = resolveTex

		resolveView, err := s.device.CreateTextureView(resolveTex, &hal.TextureViewDescriptor{
			Label: "canvas_resolve_view",
		})
		if err != nil {
			s.destroyTargets()
			return fmt.Errorf("create resolve view: %w", err)
		}
		s.resolveView = resolveView
	} else {
		colorTex, err := s.device.CreateTexture(&hal.TextureDescriptor{
			Label:         "canvas_color",
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        gputypes.TextureFormatBGRA8Unorm,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			return fmt.Errorf("create color texture: %w", err)
		}
		s.colorTex = colorTex

		colorView, err := s.device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
			Label: "canvas_color_view",
		})
		if err != nil {
			s.destroyTargets()
			return fmt.Errorf("create color view: %w", err)
		}
		s.colorView = colorView
	}

	s.pendingClear = true
	s.clearColor = gputypes.Color{}
	return nil
}

// destroyTargets releases all render target resources.
func (s *Session) destroyTargets() {
	if s.resolveView != nil {
		s.device.DestroyTextureView(s.resolveView)
		s.resolveView = nil
	}
	if s.resolveTex != nil {
		s.device.DestroyTexture(s.resolveTex)
		s.resolveTex = nil
	}
	if s.msaaView != nil {
		s.device.DestroyTextureView(s.msaaView)
		s.msaaView = nil
	}
	if s.msaaTex != nil {
		s.device.DestroyTexture(s.msaaTex)
		s.msaaTex = nil
	}
	if s.colorView != nil {
		s.device.DestroyTextureView(s.colorView)
		s.colorView = nil
	}
	if s.colorTex != nil {
		s.device.DestroyTexture(s.colorTex)
		s.colorTex = nil
	}
}

// Resize recreates the targets at the new size. A no-op when the size is
// unchanged.
func (s *Session) Resize(width, height uint32) error {
	if width == s.width && height == s.height {
		return nil
	}
	s.destroyTargets()
	s.width = width
	s.height = height
	return s.ensureTargets()
}

// Clear arms a clear for the next pass. The clear is applied lazily: the
// next RecordPass loads with LoadOpClear instead of LoadOpLoad.
func (s *Session) Clear(color gputypes.Color) {
	s.pendingClear = true
	s.clearColor = color
}

// ClearPending reports whether a clear is armed.
func (s *Session) ClearPending() bool {
	return s.pendingClear
}

// RecordPass encodes one render pass over the session targets, submits it
// and waits for completion. record is called with the live pass encoder to
// issue draws; nil records an empty pass, which still applies an armed
// clear.
func (s *Session) RecordPass(record func(hal.RenderPassEncoder)) error {
	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "canvas_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("canvas_pass"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	att := hal.RenderPassColorAttachment{
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if s.pendingClear {
		att.LoadOp = gputypes.LoadOpClear
		att.ClearValue = s.clearColor
	}
	if s.aa {
		att.View = s.msaaView
		att.ResolveTarget = s.resolveView
	} else {
		att.View = s.colorView
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "canvas_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{att},
	})
	if record != nil {
		record(rp)
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	fence, err := s.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer s.device.DestroyFence(fence)

	if err := s.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := s.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	s.pendingClear = false
	return nil
}

// FlushClear applies an armed clear with an empty pass. A no-op when no
// clear is pending.
func (s *Session) FlushClear() error {
	if !s.pendingClear {
		return nil
	}
	return s.RecordPass(nil)
}

// ReadPixels copies the readable target back to the CPU and returns tightly
// packed RGBA pixels, row-major, width*height*4 bytes. An armed clear is
// applied first so a cleared-but-undrawn frame reads back correctly.
func (s *Session) ReadPixels() ([]byte, error) {
	if err := s.FlushClear(); err != nil {
		return nil, err
	}

	readTex := s.colorTex
	if s.aa {
		readTex = s.resolveTex
	}

	// WebGPU (and DX12) requires BytesPerRow aligned to 256 bytes.
	bytesPerRow := s.width * 4
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(s.height)

	stagingBuf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "canvas_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create staging buffer: %w", err)
	}
	defer s.device.DestroyBuffer(stagingBuf)

	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "canvas_readback_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("canvas_readback"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}

	// The target sits in attachment layout after the last pass;
	// CopyTextureToBuffer needs transfer-source layout. Transition there and
	// back so the next pass's load is valid.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: readTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(readTex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: s.height},
		TextureBase:  hal.ImageCopyTexture{Texture: readTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: s.width, Height: s.height, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: readTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	fence, err := s.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("create fence: %w", err)
	}
	defer s.device.DestroyFence(fence)

	if err := s.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := s.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return nil, fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, stagingSize)
	if err := s.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("readback: %w", err)
	}

	pixelCount := int(s.width) * int(s.height)
	pixels := make([]byte, pixelCount*4)
	if alignedBytesPerRow == bytesPerRow {
		convertBGRAToRGBA(readback, pixels, pixelCount)
	} else {
		tight := make([]byte, len(pixels))
		for row := uint32(0); row < s.height; row++ {
			srcOff := int(row) * int(alignedBytesPerRow)
			dstOff := int(row) * int(bytesPerRow)
			copy(tight[dstOff:dstOff+int(bytesPerRow)], readback[srcOff:srcOff+int(bytesPerRow)])
		}
		convertBGRAToRGBA(tight, pixels, pixelCount)
	}
	return pixels, nil
}

// countDraw bumps the per-frame draw call counter. Batchers call it once
// per recorded draw.
func (s *Session) countDraw() {
	s.drawCalls++
}

// DrawCalls returns the draws recorded since the last counter reset.
func (s *Session) DrawCalls() int {
	return s.drawCalls
}

// ResetCounters zeroes the frame counters.
func (s *Session) ResetCounters() {
	s.drawCalls = 0
}

// Destroy releases the session's render targets.
func (s *Session) Destroy() {
	s.destroyTargets()
}

// convertBGRAToRGBA swaps the red and blue channels of pixelCount pixels
// from src into dst. The slices may alias.
func convertBGRAToRGBA(src, dst []byte, pixelCount int) {
	for i := 0; i < pixelCount; i++ {
		o := i * 4
		b, g, r, a := src[o], src[o+1], src[o+2], src[o+3]
		dst[o] = r
		dst[o+1] = g
		dst[o+2] = b
		dst[o+3] = a
	}
}
