package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// Atlas-related errors.
var (
	// ErrAtlasFull is returned when the atlas cannot fit the requested region.
	ErrAtlasFull = errors.New("gpu: texture atlas is full")
)

// Atlas settings.
const (
	// DefaultAtlasSize is the default atlas dimension (4096x4096). Clamped
	// to the device's maximum texture dimension at creation.
	DefaultAtlasSize = 4096

	// MinAtlasSize is the minimum atlas dimension.
	MinAtlasSize = 256

	// atlasPadding is the spacing between packed regions, preventing
	// bilinear sampling from bleeding across neighbors.
	atlasPadding = 1
)

// AtlasRegion is a rectangular slot in a texture atlas, in pixels.
type AtlasRegion struct {
	X      int
	Y      int
	Width  int
	Height int
}

// IsValid returns true if the region has positive dimensions.
func (r AtlasRegion) IsValid() bool {
	return r.Width > 0 && r.Height > 0
}

// UVRect returns the normalized texture coordinates [u0, v0, u1, v1] of the
// region within an atlas of the given dimension.
func (r AtlasRegion) UVRect(atlasSize int) [4]float32 {
	s := float32(atlasSize)
	return [4]float32{
		float32(r.X) / s,
		float32(r.Y) / s,
		float32(r.X+r.Width) / s,
		float32(r.Y+r.Height) / s,
	}
}

// String returns a string representation of the region.
func (r AtlasRegion) String() string {
	return fmt.Sprintf("Region(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Atlas packs many small images into one shared RGBA8 texture using an
// append-only shelf cursor: regions fill the current row left to right, and
// when a region does not fit the cursor advances to a fresh row below. Rows
// are never reclaimed; slot contents can be re-uploaded in place. When the
// atlas runs out of rows the caller falls back to dedicated textures.
type Atlas struct {
	texture *Texture
	size    int

	cursorX   int
	cursorY   int
	rowHeight int

	allocCount int
	usedArea   int
}

// NewAtlas creates an atlas backed by a size x size RGBA8 texture.
func NewAtlas(device hal.Device, size int) (*Atlas, error) {
	if size < MinAtlasSize {
		size = MinAtlasSize
	}
	tex, err := createTexture(device, "atlas", size, size)
	if err != nil {
		return nil, fmt.Errorf("create atlas texture: %w", err)
	}
	return &Atlas{texture: tex, size: size}, nil
}

// Allocate reserves a region of the given size. Returns ErrAtlasFull when no
// row can hold it.
func (a *Atlas) Allocate(width, height int) (AtlasRegion, error) {
	if width <= 0 || height <= 0 {
		return AtlasRegion{}, fmt.Errorf("%w: %dx%d", ErrTextureSizeMismatch, width, height)
	}

	paddedW := width + atlasPadding
	paddedH := height + atlasPadding
	if paddedW > a.size || paddedH > a.size {
		return AtlasRegion{}, ErrAtlasFull
	}

	// Advance to a new row when the current one cannot hold the region.
	if a.cursorX+paddedW > a.size {
		a.cursorY += a.rowHeight
		a.cursorX = 0
		a.rowHeight = 0
	}
	if a.cursorY+paddedH > a.size {
		return AtlasRegion{}, ErrAtlasFull
	}

	region := AtlasRegion{X: a.cursorX, Y: a.cursorY, Width: width, Height: height}
	a.cursorX += paddedW
	if paddedH > a.rowHeight {
		a.rowHeight = paddedH
	}
	a.allocCount++
	a.usedArea += width * height
	return region, nil
}

// Upload writes RGBA pixels into a previously allocated region.
func (a *Atlas) Upload(queue hal.Queue, region AtlasRegion, pixels []byte) error {
	return a.texture.UploadRegion(queue, region.X, region.Y, region.Width, region.Height, pixels)
}

// Texture returns the backing atlas texture.
func (a *Atlas) Texture() *Texture { return a.texture }

// Size returns the atlas dimension in pixels.
func (a *Atlas) Size() int { return a.size }

// AllocCount returns the number of successful allocations.
func (a *Atlas) AllocCount() int { return a.allocCount }

// Utilization returns the fraction of atlas area covered by allocated
// regions (0.0 to 1.0).
func (a *Atlas) Utilization() float64 {
	total := a.size * a.size
	if total == 0 {
		return 0
	}
	return float64(a.usedArea) / float64(total)
}

// destroy releases the backing texture.
func (a *Atlas) destroy(device hal.Device) {
	if a.texture != nil {
		a.texture.destroy(device)
		a.texture = nil
	}
}
