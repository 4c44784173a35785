package blit

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/vector"

	"github.com/gogpu/blit/internal/gpu"
)

// maxRasterDim bounds the offscreen mask used by the rasterization
// fallback. Paths whose padded screen box exceeds it are skipped.
const maxRasterDim = 2048

// rasterize scan-fills (stroke false) or strokes (stroke true) a path into
// an offscreen RGBA box on the CPU and draws the box as one quad through the
// sprite lane. The lane is flushed immediately so the one-shot texture can
// be released.
//
// Fills use the nonzero winding rule; subpaths wound against each other cut
// holes. Strokes get round joins and caps.
func (e *Engine) rasterize(p *Path, stroke bool) {
	s := e.state()
	style := s.Fill
	if stroke {
		style = s.Stroke
	}

	contours := p.Flatten(s.Transform.ScaleFactor() * e.scale)
	if len(contours) == 0 {
		return
	}
	polys := contours
	if stroke {
		polys = strokePolygons(contours, s.LineWidth/2)
		if len(polys) == 0 {
			return
		}
	}

	// Screen-space geometry and bounds.
	m := s.Transform
	if !m.IsIdentity() {
		for i := range polys {
			for j := range polys[i].Points {
				polys[i].Points[j] = m.TransformPoint(polys[i].Points[j])
			}
		}
	}
	var box Rect
	found := false
	for _, poly := range polys {
		for _, pt := range poly.Points {
			r := Rect{Min: pt, Max: pt}
			if !found {
				box = r
				found = true
			} else {
				box = box.Union(r)
			}
		}
	}
	if !found {
		return
	}

	density := e.scale
	shadow := e.shadowActive()
	pad := 1.0
	blurRadius := 0
	if shadow {
		blurRadius = int(s.ShadowBlur*density/2 + 0.5)
		if blurRadius < 1 {
			blurRadius = 1
		}
		// Three box passes spread coverage by 3x the radius per side.
		pad += float64(3*blurRadius) / density
	}
	box = box.Expand(pad)

	maskW := int(math.Ceil(box.Width() * density))
	maskH := int(math.Ceil(box.Height() * density))
	if maskW < 1 || maskH < 1 {
		return
	}
	if maskW > maxRasterDim || maskH > maxRasterDim {
		Logger().Debug("raster box over limit, skipping path",
			"width", maskW, "height", maskH, "limit", maxRasterDim)
		return
	}

	ras := vector.NewRasterizer(maskW, maskH)
	for _, poly := range polys {
		pts := poly.Points
		ras.MoveTo(float32((pts[0].X-box.Min.X)*density), float32((pts[0].Y-box.Min.Y)*density))
		for _, pt := range pts[1:] {
			ras.LineTo(float32((pt.X-box.Min.X)*density), float32((pt.Y-box.Min.Y)*density))
		}
		ras.ClosePath()
	}
	mask := image.NewAlpha(image.Rect(0, 0, maskW, maskH))
	ras.Draw(mask, mask.Bounds(), image.NewUniform(color.Alpha{A: 255}), image.Point{})

	out := image.NewRGBA(mask.Bounds())
	if shadow {
		tintMask(out, blurAlpha(mask, blurRadius), s.ShadowColor)
	}
	switch st := style.(type) {
	case SolidStyle:
		compositeSolid(out, mask, st.Color)
	case *Gradient:
		compositeGradient(out, mask, st, m.Invert(), box.Min, density)
	}

	tex, err := gpu.NewTexture(e.device, "raster", maskW, maskH)
	if err != nil {
		Logger().Warn("raster texture create failed", "error", err)
		return
	}
	if err := tex.Upload(e.queue, out.Pix); err != nil {
		Logger().Warn("raster texture upload failed", "error", err)
		tex.Destroy(e.device)
		return
	}

	e.emitQuad(tex, rectQuad(box.Min.X, box.Min.Y, box.Width(), box.Height()),
		uvQuad([4]float32{0, 0, 1, 1}), float32(s.Alpha), tintWhite, s.Flash)
	e.flushSprites()
	tex.Destroy(e.device)
	e.rasterFallbacks++
}

// strokePolygons expands flattened contours into closed stroke polygons: an
// oriented rectangle per segment and a disk per vertex for round joins and
// caps. All polygons share one winding direction so overlaps saturate
// instead of cancelling.
func strokePolygons(contours []Contour, half float64) []Contour {
	if half <= 0 {
		return nil
	}
	var polys []Contour

	seg := func(a, b Point) {
		d := b.Sub(a)
		if d.X == 0 && d.Y == 0 {
			return
		}
		n := Point{X: -d.Y, Y: d.X}.Normalize().Mul(half)
		polys = append(polys, Contour{
			Points: []Point{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)},
			Closed: true,
		})
	}
	disk := func(c Point) {
		const diskSegments = 12
		pts := make([]Point, diskSegments)
		for i := range pts {
			a := -2 * math.Pi * float64(i) / diskSegments
			pts[i] = Pt(c.X+half*math.Cos(a), c.Y+half*math.Sin(a))
		}
		polys = append(polys, Contour{Points: pts, Closed: true})
	}

	for _, ct := range contours {
		pts := ct.Points
		for i := 0; i+1 < len(pts); i++ {
			seg(pts[i], pts[i+1])
		}
		if ct.Closed && len(pts) > 2 {
			seg(pts[len(pts)-1], pts[0])
		}
		for _, pt := range pts {
			disk(pt)
		}
	}
	return polys
}

// blurAlpha approximates a Gaussian blur with three box-blur passes of the
// given radius.
func blurAlpha(src *image.Alpha, radius int) *image.Alpha {
	if radius < 1 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	tmp := image.NewAlpha(b)
	out := image.NewAlpha(b)
	copy(out.Pix, src.Pix)
	for i := 0; i < 3; i++ {
		boxBlurH(tmp, out, w, h, radius)
		boxBlurV(out, tmp, w, h, radius)
	}
	return out
}

// boxBlurH averages each row over a sliding window of 2*radius+1 pixels.
// Pixels outside the image count as zero.
func boxBlurH(dst, src *image.Alpha, w, h, radius int) {
	win := 2*radius + 1
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		drow := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		sum := 0
		for x := 0; x <= radius && x < w; x++ {
			sum += int(row[x])
		}
		for x := 0; x < w; x++ {
			drow[x] = uint8(sum / win)
			if nxt := x + radius + 1; nxt < w {
				sum += int(row[nxt])
			}
			if prv := x - radius; prv >= 0 {
				sum -= int(row[prv])
			}
		}
	}
}

// boxBlurV averages each column over a sliding window of 2*radius+1 pixels.
func boxBlurV(dst, src *image.Alpha, w, h, radius int) {
	win := 2*radius + 1
	for x := 0; x < w; x++ {
		sum := 0
		for y := 0; y <= radius && y < h; y++ {
			sum += int(src.Pix[y*src.Stride+x])
		}
		for y := 0; y < h; y++ {
			dst.Pix[y*dst.Stride+x] = uint8(sum / win)
			if nxt := y + radius + 1; nxt < h {
				sum += int(src.Pix[nxt*src.Stride+x])
			}
			if prv := y - radius; prv >= 0 {
				sum -= int(src.Pix[prv*src.Stride+x])
			}
		}
	}
}

// tintMask writes the coverage mask times a premultiplied color into dst,
// replacing its contents.
func tintMask(dst *image.RGBA, mask *image.Alpha, c RGBA) {
	p := c.Premultiply()
	pr := uint32(clamp255(p.R * 255))
	pg := uint32(clamp255(p.G * 255))
	pb := uint32(clamp255(p.B * 255))
	pa := uint32(clamp255(p.A * 255))
	for i, cov := range mask.Pix {
		if cov == 0 {
			continue
		}
		o := i * 4
		dst.Pix[o+0] = uint8(pr * uint32(cov) / 255)
		dst.Pix[o+1] = uint8(pg * uint32(cov) / 255)
		dst.Pix[o+2] = uint8(pb * uint32(cov) / 255)
		dst.Pix[o+3] = uint8(pa * uint32(cov) / 255)
	}
}

// compositeSolid draws the mask tinted with a solid color over dst.
func compositeSolid(dst *image.RGBA, mask *image.Alpha, c RGBA) {
	p := c.Premultiply()
	pr := uint32(clamp255(p.R * 255))
	pg := uint32(clamp255(p.G * 255))
	pb := uint32(clamp255(p.B * 255))
	pa := uint32(clamp255(p.A * 255))
	for i, cov := range mask.Pix {
		if cov == 0 {
			continue
		}
		o := i * 4
		blendOver(dst.Pix[o:o+4:o+4],
			pr*uint32(cov)/255, pg*uint32(cov)/255, pb*uint32(cov)/255, pa*uint32(cov)/255)
	}
}

// compositeGradient draws the mask over dst, sampling the gradient per
// pixel. Pixel centers map back through the inverse transform because
// gradient geometry lives in user space.
func compositeGradient(dst *image.RGBA, mask *image.Alpha, g *Gradient, toUser Matrix, origin Point, density float64) {
	w := mask.Rect.Dx()
	for i, cov := range mask.Pix {
		if cov == 0 {
			continue
		}
		lx := origin.X + (float64(i%w)+0.5)/density
		ly := origin.Y + (float64(i/w)+0.5)/density
		u := toUser.TransformPoint(Pt(lx, ly))
		p := g.ColorAt(u.X, u.Y).Premultiply()
		pr := uint32(clamp255(p.R * 255))
		pg := uint32(clamp255(p.G * 255))
		pb := uint32(clamp255(p.B * 255))
		pa := uint32(clamp255(p.A * 255))
		o := i * 4
		blendOver(dst.Pix[o:o+4:o+4],
			pr*uint32(cov)/255, pg*uint32(cov)/255, pb*uint32(cov)/255, pa*uint32(cov)/255)
	}
}

// blendOver composites one premultiplied source pixel over dst.
func blendOver(dst []byte, sr, sg, sb, sa uint32) {
	inv := 255 - sa
	dst[0] = uint8(sr + uint32(dst[0])*inv/255)
	dst[1] = uint8(sg + uint32(dst[1])*inv/255)
	dst[2] = uint8(sb + uint32(dst[2])*inv/255)
	dst[3] = uint8(sa + uint32(dst[3])*inv/255)
}
