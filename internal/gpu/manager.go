package gpu

import (
	"image"
	"image/draw"
	"sort"

	"github.com/gogpu/wgpu/hal"
)

// MaxAtlasImageSize is the largest edge an image may have and still be
// packed into the shared atlas. Larger images get dedicated textures.
const MaxAtlasImageSize = 512

// DefaultTextureLimit caps resident dedicated textures. Crossing it evicts
// the least-recently-used fifth of them.
const DefaultTextureLimit = 256

// TextureInfo is a resolved image: the texture to bind and the UV rect of
// the image within it. W and H are the image's pixel dimensions.
type TextureInfo struct {
	Tex *Texture
	UV  [4]float32
	W   int
	H   int
}

// texEntry tracks one resolved image. Entries are keyed by the client's
// image value, which the manager borrows but never retains pixels from
// between uploads. An entry holds either a dedicated texture or an atlas
// region, never both.
type texEntry struct {
	tex      *Texture
	isAtlas  bool
	fallback bool
	region   AtlasRegion
	uv       [4]float32
	lastUsed int64
	dirty    bool
	w, h     int
}

func (e *texEntry) info() TextureInfo {
	return TextureInfo{Tex: e.tex, UV: e.uv, W: e.w, H: e.h}
}

// TextureManager caches GPU textures for client images. Small images pack
// into a shared atlas, large ones get dedicated textures, and dedicated
// textures are evicted least-recently-used past the limit. Upload failures
// resolve to a 1x1 opaque white fallback so drawing never fails a frame.
//
// Evicted textures are retired, not destroyed, until ReleaseRetired runs:
// a pending sprite batch may still reference them until the frame's final
// flush.
type TextureManager struct {
	device hal.Device
	queue  hal.Queue

	atlas *Atlas
	white *Texture

	entries map[image.Image]*texEntry
	retired []*Texture
	tick    int64
	limit   int

	evictions int
}

// NewTextureManager creates a manager with an atlas of the given size and
// the given dedicated-texture limit. Zero or negative arguments select the
// defaults.
func NewTextureManager(device hal.Device, queue hal.Queue, atlasSize, limit int) (*TextureManager, error) {
	if limit <= 0 {
		limit = DefaultTextureLimit
	}
	if atlasSize <= 0 {
		atlasSize = DefaultAtlasSize
	}
	atlas, err := NewAtlas(device, atlasSize)
	if err != nil {
		return nil, err
	}
	white, err := createTexture(device, "white", 1, 1)
	if err != nil {
		atlas.destroy(device)
		return nil, err
	}
	if err := white.Upload(queue, []byte{255, 255, 255, 255}); err != nil {
		white.destroy(device)
		atlas.destroy(device)
		return nil, err
	}
	return &TextureManager{
		device:  device,
		queue:   queue,
		atlas:   atlas,
		white:   white,
		entries: make(map[image.Image]*texEntry),
		limit:   limit,
	}, nil
}

// White returns the 1x1 opaque white fallback texture.
func (m *TextureManager) White() TextureInfo {
	return TextureInfo{Tex: m.white, UV: [4]float32{0, 0, 1, 1}, W: 1, H: 1}
}

// Atlas returns the shared image atlas.
func (m *TextureManager) Atlas() *Atlas {
	return m.atlas
}

// Resolve returns the texture for an image, uploading on first use. Policy
// order: cached and clean, atlas when both edges fit, dedicated texture.
// Dirty entries re-upload in place. A nil image resolves to white.
func (m *TextureManager) Resolve(img image.Image) TextureInfo {
	m.tick++
	if img == nil {
		return m.White()
	}
	e, ok := m.entries[img]
	if ok && e.dirty {
		e = m.refresh(img, e)
	} else if !ok {
		e = m.create(img)
	}
	e.lastUsed = m.tick
	return e.info()
}

// MarkDirty flags an image's pixels as changed. The next Resolve re-uploads
// them into the entry's existing texture or region.
func (m *TextureManager) MarkDirty(img image.Image) {
	if e, ok := m.entries[img]; ok {
		e.dirty = true
	}
}

// Unregister drops an image's entry. A dedicated texture is retired; an
// atlas region stays allocated, the shelf packer never reclaims.
func (m *TextureManager) Unregister(img image.Image) {
	e, ok := m.entries[img]
	if !ok {
		return
	}
	if !e.isAtlas && !e.fallback {
		m.retired = append(m.retired, e.tex)
	}
	delete(m.entries, img)
}

// create uploads a new image per the residency policy.
func (m *TextureManager) create(img image.Image) *texEntry {
	rgba := imageToRGBA(img)
	w := rgba.Bounds().Dx()
	h := rgba.Bounds().Dy()

	if w <= MaxAtlasImageSize && h <= MaxAtlasImageSize {
		region, err := m.atlas.Allocate(w, h)
		if err == nil {
			if err := m.atlas.Upload(m.queue, region, rgba.Pix); err != nil {
				slogger().Warn("atlas upload failed", "width", w, "height", h, "err", err)
				return m.fallbackEntry(img, w, h)
			}
			e := &texEntry{
				tex:      m.atlas.Texture(),
				isAtlas:  true,
				region:   region,
				uv:       region.UVRect(m.atlas.Size()),
				lastUsed: m.tick,
				w:        w,
				h:        h,
			}
			m.entries[img] = e
			return e
		}
		// A full atlas degrades to dedicated textures.
	}

	tex, err := createTexture(m.device, "image", w, h)
	if err != nil {
		slogger().Warn("texture create failed", "width", w, "height", h, "err", err)
		return m.fallbackEntry(img, w, h)
	}
	if err := tex.Upload(m.queue, rgba.Pix); err != nil {
		tex.destroy(m.device)
		slogger().Warn("texture upload failed", "width", w, "height", h, "err", err)
		return m.fallbackEntry(img, w, h)
	}
	e := &texEntry{
		tex:      tex,
		uv:       [4]float32{0, 0, 1, 1},
		lastUsed: m.tick,
		w:        w,
		h:        h,
	}
	m.entries[img] = e
	m.maybeEvict()
	return e
}

// refresh re-uploads a dirty image. Same-size entries update in place;
// size changes and failed entries start over.
func (m *TextureManager) refresh(img image.Image, e *texEntry) *texEntry {
	rgba := imageToRGBA(img)
	w := rgba.Bounds().Dx()
	h := rgba.Bounds().Dy()

	if e.fallback || e.w != w || e.h != h {
		if !e.isAtlas && !e.fallback {
			m.retired = append(m.retired, e.tex)
		}
		delete(m.entries, img)
		return m.create(img)
	}

	var err error
	if e.isAtlas {
		err = m.atlas.Upload(m.queue, e.region, rgba.Pix)
	} else {
		err = e.tex.Upload(m.queue, rgba.Pix)
	}
	if err != nil {
		slogger().Warn("texture refresh failed", "width", w, "height", h, "err", err)
		if !e.isAtlas {
			m.retired = append(m.retired, e.tex)
		}
		delete(m.entries, img)
		return m.fallbackEntry(img, w, h)
	}
	e.dirty = false
	return e
}

// fallbackEntry records an image as unresolvable and maps it to white. The
// logical size is kept so quads keep their geometry. MarkDirty retries.
func (m *TextureManager) fallbackEntry(img image.Image, w, h int) *texEntry {
	e := &texEntry{
		tex:      m.white,
		fallback: true,
		uv:       [4]float32{0, 0, 1, 1},
		lastUsed: m.tick,
		w:        w,
		h:        h,
	}
	m.entries[img] = e
	return e
}

// maybeEvict retires the least-recently-used fifth of dedicated textures
// once their count crosses the limit. Atlas entries are never evicted.
func (m *TextureManager) maybeEvict() {
	type victim struct {
		key image.Image
		e   *texEntry
	}
	var dedicated []victim
	for k, e := range m.entries {
		if !e.isAtlas && !e.fallback {
			dedicated = append(dedicated, victim{key: k, e: e})
		}
	}
	if len(dedicated) <= m.limit {
		return
	}
	sort.Slice(dedicated, func(i, j int) bool {
		return dedicated[i].e.lastUsed < dedicated[j].e.lastUsed
	})
	evictN := len(dedicated) / 5
	if evictN < 1 {
		evictN = 1
	}
	for _, v := range dedicated[:evictN] {
		m.retired = append(m.retired, v.e.tex)
		delete(m.entries, v.key)
		m.evictions++
	}
	slogger().Debug("evicted textures", "count", evictN, "resident", len(m.entries))
}

// ReleaseRetired destroys retired textures. Call after the frame's final
// flush, when no pending batch can reference them.
func (m *TextureManager) ReleaseRetired() {
	for _, tex := range m.retired {
		tex.destroy(m.device)
	}
	m.retired = m.retired[:0]
}

// ResidentCount returns the number of tracked entries.
func (m *TextureManager) ResidentCount() int {
	return len(m.entries)
}

// AtlasUtilization reports the fraction of atlas area covered by packed
// regions. Zero after Destroy.
func (m *TextureManager) AtlasUtilization() float64 {
	if m.atlas == nil {
		return 0
	}
	return m.atlas.Utilization()
}

// Evictions returns the textures evicted since the last counter reset.
func (m *TextureManager) Evictions() int {
	return m.evictions
}

// ResetCounters zeroes the frame counters.
func (m *TextureManager) ResetCounters() {
	m.evictions = 0
}

// Destroy releases every GPU resource the manager owns.
func (m *TextureManager) Destroy() {
	m.ReleaseRetired()
	for img, e := range m.entries {
		if !e.isAtlas && !e.fallback {
			e.tex.destroy(m.device)
		}
		delete(m.entries, img)
	}
	if m.white != nil {
		m.white.destroy(m.device)
		m.white = nil
	}
	if m.atlas != nil {
		m.atlas.destroy(m.device)
		m.atlas = nil
	}
}

// imageToRGBA returns img as a tightly packed RGBA image. An already tight
// *image.RGBA is returned as-is, anything else is redrawn.
func imageToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		b := rgba.Bounds()
		if b.Min.X == 0 && b.Min.Y == 0 && rgba.Stride == b.Dx()*4 {
			return rgba
		}
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
