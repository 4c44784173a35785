package gpu

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Texture-related errors.
var (
	// ErrTextureReleased is returned when operating on a released texture.
	ErrTextureReleased = errors.New("gpu: texture has been released")

	// ErrTextureSizeMismatch is returned when pixel data does not match the
	// texture or region dimensions.
	ErrTextureSizeMismatch = errors.New("gpu: pixel data size does not match texture")

	// ErrRegionOutOfBounds is returned when an upload region is outside the
	// texture bounds.
	ErrRegionOutOfBounds = errors.New("gpu: region is outside texture bounds")
)

// sampledTextureUsage is the usage for CPU-sourced image textures: sampled
// in the fragment stage, written via queue.WriteTexture.
const sampledTextureUsage = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst

// Texture wraps a sampled RGBA8 GPU texture with its default view. Pixel
// data is uploaded through the queue; the texture is never a render target.
//
// The sprite pipeline caches its per-texture bind group here so a flush can
// bind without re-creating descriptor state. The bind group is destroyed
// together with the texture.
type Texture struct {
	tex    hal.Texture
	view   hal.TextureView
	width  int
	height int
	label  string

	// spriteBind is the sprite pipeline's cached bind group for this
	// texture. Lazily created by SpritePipeline.bindGroupFor.
	spriteBind hal.BindGroup

	released atomic.Bool
}

// createTexture creates an uninitialized RGBA8 sampled texture with its view.
func createTexture(device hal.Device, label string, width, height int) (*Texture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrTextureSizeMismatch, width, height)
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: label,
		Size: hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         sampledTextureUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", label, err)
	}

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("create texture view %q: %w", label, err)
	}

	return &Texture{
		tex:    tex,
		view:   view,
		width:  width,
		height: height,
		label:  label,
	}, nil
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.width }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.height }

// Label returns the debug label.
func (t *Texture) Label() string { return t.label }

// Released reports whether the texture has been destroyed.
func (t *Texture) Released() bool { return t.released.Load() }

// Upload replaces the full texture contents with tightly packed RGBA pixels.
func (t *Texture) Upload(queue hal.Queue, pixels []byte) error {
	if t.released.Load() {
		return ErrTextureReleased
	}
	if len(pixels) != t.width*t.height*4 {
		return fmt.Errorf("%w: texture %dx%d, got %d bytes",
			ErrTextureSizeMismatch, t.width, t.height, len(pixels))
	}

	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(t.width * 4),
			RowsPerImage: uint32(t.height),
		},
		&hal.Extent3D{
			Width:              uint32(t.width),
			Height:             uint32(t.height),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

// UploadRegion writes tightly packed RGBA pixels into a sub-rectangle of the
// texture. Used for atlas slot updates and dirty re-uploads.
func (t *Texture) UploadRegion(queue hal.Queue, x, y, width, height int, pixels []byte) error {
	if t.released.Load() {
		return ErrTextureReleased
	}
	if x < 0 || y < 0 || x+width > t.width || y+height > t.height {
		return fmt.Errorf("%w: region (%d,%d)+(%dx%d) in %dx%d",
			ErrRegionOutOfBounds, x, y, width, height, t.width, t.height)
	}
	if len(pixels) != width*height*4 {
		return fmt.Errorf("%w: region %dx%d, got %d bytes",
			ErrTextureSizeMismatch, width, height, len(pixels))
	}

	queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   hal.Origin3D{X: uint32(x), Y: uint32(y)},
		},
		pixels,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(width * 4),
			RowsPerImage: uint32(height),
		},
		&hal.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

// NewTexture creates an uninitialized sampled RGBA8 texture outside the
// manager's residency policy. The caller owns it and must Destroy it once no
// submitted work samples it; a flushed lane has already fenced, so
// destroying right after a flush is safe.
func NewTexture(device hal.Device, label string, width, height int) (*Texture, error) {
	return createTexture(device, label, width, height)
}

// Destroy releases the texture and its GPU objects. Safe to call more than
// once.
func (t *Texture) Destroy(device hal.Device) {
	t.destroy(device)
}

// destroy releases the texture, its view, and any cached bind group. Safe to
// call more than once.
func (t *Texture) destroy(device hal.Device) {
	if t.released.Swap(true) {
		return
	}
	if t.spriteBind != nil {
		device.DestroyBindGroup(t.spriteBind)
		t.spriteBind = nil
	}
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}
