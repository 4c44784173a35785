package gpu

import (
	"image"
	"image/color"
	"testing"
)

func createTestManager(t *testing.T, atlasSize, limit int) (*TextureManager, func()) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	m, err := NewTextureManager(device, queue, atlasSize, limit)
	if err != nil {
		cleanup()
		t.Fatalf("NewTextureManager failed: %v", err)
	}
	return m, func() {
		m.Destroy()
		cleanup()
	}
}

func solidImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xFF
	}
	return img
}

func TestManagerResolveNil(t *testing.T) {
	m, cleanup := createTestManager(t, 256, 0)
	defer cleanup()

	info := m.Resolve(nil)
	if info.Tex != m.white {
		t.Error("expected nil image to resolve to the white texture")
	}
	if info.W != 1 || info.H != 1 {
		t.Errorf("expected 1x1, got %dx%d", info.W, info.H)
	}
}

func TestManagerResolveSmallUsesAtlas(t *testing.T) {
	m, cleanup := createTestManager(t, 256, 0)
	defer cleanup()

	img := solidImage(16, 16)
	info := m.Resolve(img)
	if info.Tex != m.atlas.Texture() {
		t.Error("expected a small image packed into the atlas")
	}
	if info.UV == ([4]float32{0, 0, 1, 1}) {
		t.Error("expected a sub-rect UV for an atlas entry")
	}
	if info.W != 16 || info.H != 16 {
		t.Errorf("expected 16x16, got %dx%d", info.W, info.H)
	}
	if m.ResidentCount() != 1 {
		t.Errorf("expected 1 resident entry, got %d", m.ResidentCount())
	}
}

func TestManagerResolveLargeUsesDedicated(t *testing.T) {
	m, cleanup := createTestManager(t, 256, 0)
	defer cleanup()

	img := solidImage(MaxAtlasImageSize+1, 4)
	info := m.Resolve(img)
	if info.Tex == m.atlas.Texture() || info.Tex == m.white {
		t.Error("expected a dedicated texture for a large image")
	}
	if info.UV != ([4]float32{0, 0, 1, 1}) {
		t.Errorf("expected full UV for a dedicated texture, got %v", info.UV)
	}
}

func TestManagerResolveCaches(t *testing.T) {
	m, cleanup := createTestManager(t, 256, 0)
	defer cleanup()

	img := solidImage(16, 16)
	info1 := m.Resolve(img)
	info2 := m.Resolve(img)
	if info1 != info2 {
		t.Error("expected identical info for repeated resolves")
	}
	if m.ResidentCount() != 1 {
		t.Errorf("expected a single cached entry, got %d", m.ResidentCount())
	}
}

func TestManagerAtlasFullFallsThrough(t *testing.T) {
	// Tiny atlas: the second 200x200 image cannot fit and must degrade to a
	// dedicated texture.
	m, cleanup := createTestManager(t, 256, 0)
	defer cleanup()

	first := m.Resolve(solidImage(200, 200))
	if first.Tex != m.atlas.Texture() {
		t.Fatal("expected the first image packed into the atlas")
	}
	second := m.Resolve(solidImage(200, 200))
	if second.Tex == m.atlas.Texture() {
		t.Error("expected the second image to fall through to a dedicated texture")
	}
	if second.Tex == m.white {
		t.Error("expected a real dedicated texture, not the fallback")
	}
}

func TestManagerMarkDirtyReuploadsInPlace(t *testing.T) {
	m, cleanup := createTestManager(t, 256, 0)
	defer cleanup()

	img := solidImage(16, 16)
	info1 := m.Resolve(img)

	img.Set(0, 0, color.RGBA{R: 0x12, A: 0xFF})
	m.MarkDirty(img)
	if e := m.entries[img]; e == nil || !e.dirty {
		t.Fatal("expected the entry flagged dirty")
	}

	info2 := m.Resolve(img)
	if info1 != info2 {
		t.Error("expected an in-place re-upload to keep texture and UV")
	}
	if e := m.entries[img]; e.dirty {
		t.Error("expected the dirty flag cleared after re-upload")
	}
}

func TestManagerMarkDirtySizeChangeReallocates(t *testing.T) {
	m, cleanup := createTestManager(t, 256, 0)
	defer cleanup()

	img := solidImage(MaxAtlasImageSize+1, 4)
	tex1 := m.Resolve(img).Tex

	// The client swaps the backing buffer behind the same image value.
	img.Rect = image.Rect(0, 0, MaxAtlasImageSize+1, 8)
	img.Pix = make([]byte, (MaxAtlasImageSize+1)*8*4)
	m.MarkDirty(img)

	tex2 := m.Resolve(img).Tex
	if tex2 == tex1 {
		t.Error("expected a new texture after a size change")
	}
	m.ReleaseRetired()
	if !tex1.Released() {
		t.Error("expected the old texture retired and released")
	}
}

func TestManagerEviction(t *testing.T) {
	m, cleanup := createTestManager(t, 256, 2)
	defer cleanup()

	// Three dedicated textures against a limit of two: resolving the third
	// evicts the least recently used.
	imgs := []*image.RGBA{
		solidImage(MaxAtlasImageSize+1, 2),
		solidImage(MaxAtlasImageSize+1, 2),
		solidImage(MaxAtlasImageSize+1, 2),
	}
	tex0 := m.Resolve(imgs[0]).Tex
	m.Resolve(imgs[1])
	m.Resolve(imgs[2])

	if m.Evictions() != 1 {
		t.Errorf("expected 1 eviction, got %d", m.Evictions())
	}
	if m.ResidentCount() != 2 {
		t.Errorf("expected 2 resident entries, got %d", m.ResidentCount())
	}
	if _, ok := m.entries[imgs[0]]; ok {
		t.Error("expected the oldest entry evicted")
	}

	// The evicted texture is only destroyed once retirement runs.
	if tex0.Released() {
		t.Error("expected the evicted texture alive until ReleaseRetired")
	}
	m.ReleaseRetired()
	if !tex0.Released() {
		t.Error("expected the evicted texture destroyed after ReleaseRetired")
	}

	m.ResetCounters()
	if m.Evictions() != 0 {
		t.Errorf("expected eviction counter zeroed, got %d", m.Evictions())
	}
}

func TestManagerEvictionPrefersLRU(t *testing.T) {
	m, cleanup := createTestManager(t, 256, 2)
	defer cleanup()

	imgs := []*image.RGBA{
		solidImage(MaxAtlasImageSize+1, 2),
		solidImage(MaxAtlasImageSize+1, 2),
	}
	m.Resolve(imgs[0])
	m.Resolve(imgs[1])

	// Touch the first so the second becomes the eviction candidate.
	m.Resolve(imgs[0])
	m.Resolve(solidImage(MaxAtlasImageSize+1, 2))

	if _, ok := m.entries[imgs[0]]; !ok {
		t.Error("expected the recently used entry kept")
	}
	if _, ok := m.entries[imgs[1]]; ok {
		t.Error("expected the stale entry evicted")
	}
}

func TestManagerAtlasEntriesNeverEvicted(t *testing.T) {
	m, cleanup := createTestManager(t, 256, 1)
	defer cleanup()

	small := solidImage(8, 8)
	m.Resolve(small)
	m.Resolve(solidImage(MaxAtlasImageSize+1, 2))
	m.Resolve(solidImage(MaxAtlasImageSize+1, 2))

	if _, ok := m.entries[small]; !ok {
		t.Error("expected the atlas entry to survive dedicated-texture eviction")
	}
}

func TestManagerUnregister(t *testing.T) {
	m, cleanup := createTestManager(t, 256, 0)
	defer cleanup()

	img := solidImage(MaxAtlasImageSize+1, 2)
	tex := m.Resolve(img).Tex

	m.Unregister(img)
	if m.ResidentCount() != 0 {
		t.Errorf("expected no resident entries, got %d", m.ResidentCount())
	}
	m.ReleaseRetired()
	if !tex.Released() {
		t.Error("expected the unregistered texture destroyed after retirement")
	}

	// Unregistering an unknown image is a no-op.
	m.Unregister(solidImage(4, 4))
}

func TestManagerDestroyReleasesAll(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	m, err := NewTextureManager(device, queue, 256, 0)
	if err != nil {
		t.Fatalf("NewTextureManager failed: %v", err)
	}

	dedicated := m.Resolve(solidImage(MaxAtlasImageSize+1, 2)).Tex
	white := m.white
	atlasTex := m.atlas.Texture()

	m.Destroy()
	if !dedicated.Released() || !white.Released() || !atlasTex.Released() {
		t.Error("expected all managed textures released on Destroy")
	}
}

func TestImageToRGBA(t *testing.T) {
	// A tight RGBA image passes through without copying.
	tight := solidImage(4, 4)
	if got := imageToRGBA(tight); got != tight {
		t.Error("expected a tight RGBA image returned as-is")
	}

	// A non-RGBA image is redrawn into a fresh tight buffer.
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range gray.Pix {
		gray.Pix[i] = 0x80
	}
	rgba := imageToRGBA(gray)
	if rgba.Bounds().Dx() != 4 || rgba.Bounds().Dy() != 4 {
		t.Fatalf("expected 4x4, got %v", rgba.Bounds())
	}
	if rgba.Pix[3] != 0xFF {
		t.Errorf("expected opaque alpha from gray conversion, got %#x", rgba.Pix[3])
	}

	// An offset sub-image is normalized to the origin.
	sub := tight.SubImage(image.Rect(1, 1, 3, 3)).(*image.RGBA)
	norm := imageToRGBA(sub)
	if norm == sub {
		t.Error("expected an offset sub-image to be copied")
	}
	if norm.Bounds().Dx() != 2 || norm.Bounds().Dy() != 2 {
		t.Errorf("expected 2x2, got %v", norm.Bounds())
	}
}
