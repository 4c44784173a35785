package blit

import "math"

// ShapeKind identifies paths the batcher can draw directly as quads or
// circle fans instead of going through the rasterization fallback.
type ShapeKind int

const (
	// ShapeUnknown indicates the path needs the rasterization fallback.
	ShapeUnknown ShapeKind = iota

	// ShapeCircle indicates a full circular path.
	ShapeCircle

	// ShapeEllipse indicates a full elliptical path.
	ShapeEllipse

	// ShapeRect indicates an axis-aligned rectangular path.
	ShapeRect
)

// DetectedShape holds parameters of a recognized geometric shape.
// The Kind field indicates which parameters are meaningful.
type DetectedShape struct {
	Kind    ShapeKind
	CenterX float64 // Center X coordinate.
	CenterY float64 // Center Y coordinate.
	RadiusX float64 // X radius. For circle: RadiusX == RadiusY.
	RadiusY float64 // Y radius. For circle: RadiusX == RadiusY.
	Width   float64 // Total width for rect.
	Height  float64 // Total height for rect.
}

// shapeDetectTolerance is the maximum allowed error for shape detection.
const shapeDetectTolerance = 1e-3

// DetectShape analyzes a path and returns the identified shape if it is a
// batchable primitive. Returns Kind == ShapeUnknown for anything else.
func DetectShape(path *Path) DetectedShape {
	if path == nil {
		return DetectedShape{Kind: ShapeUnknown}
	}

	elems := path.Elements()

	// Circle/ellipse as emitted by Ellipse: MoveTo + 4xCubicTo + Close.
	if len(elems) == 6 {
		if shape, ok := detectCircleOrEllipse(elems); ok {
			return shape
		}
	}

	// Rect as emitted by Rect: MoveTo + 3xLineTo + Close.
	if len(elems) == 5 {
		if shape, ok := detectRect(elems); ok {
			return shape
		}
	}

	return DetectedShape{Kind: ShapeUnknown}
}

// detectCircleOrEllipse checks if 6 elements form a circle or ellipse.
// Expected pattern: MoveTo, CubicTo, CubicTo, CubicTo, CubicTo, Close.
func detectCircleOrEllipse(elems []PathElement) (DetectedShape, bool) {
	move, ok := elems[0].(MoveTo)
	if !ok {
		return DetectedShape{}, false
	}

	var cubics [4]CubicTo
	for i := 0; i < 4; i++ {
		c, ok := elems[i+1].(CubicTo)
		if !ok {
			return DetectedShape{}, false
		}
		cubics[i] = c
	}

	if _, ok := elems[5].(Close); !ok {
		return DetectedShape{}, false
	}

	// Endpoints of the four quadrant curves: right, bottom, left, top,
	// and back to the start.
	pts := [5]Point{
		move.Point,
		cubics[0].Point,
		cubics[1].Point,
		cubics[2].Point,
		cubics[3].Point,
	}
	if !pointsClose(pts[4], pts[0]) {
		return DetectedShape{}, false
	}

	// Opposing endpoint pairs must agree on the center.
	cx := (pts[0].X + pts[2].X) / 2
	cy := (pts[0].Y + pts[2].Y) / 2
	cx2 := (pts[1].X + pts[3].X) / 2
	cy2 := (pts[1].Y + pts[3].Y) / 2
	if math.Abs(cx-cx2) > shapeDetectTolerance || math.Abs(cy-cy2) > shapeDetectTolerance {
		return DetectedShape{}, false
	}

	rx := math.Abs(pts[0].X - cx)
	ry := math.Abs(pts[1].Y - cy)
	if rx < shapeDetectTolerance || ry < shapeDetectTolerance {
		return DetectedShape{}, false
	}

	if !verifyEllipseControlPoints(cubics, cx, cy, rx, ry) {
		return DetectedShape{}, false
	}

	if math.Abs(rx-ry) < shapeDetectTolerance {
		r := (rx + ry) / 2
		return DetectedShape{
			Kind:    ShapeCircle,
			CenterX: cx,
			CenterY: cy,
			RadiusX: r,
			RadiusY: r,
		}, true
	}

	return DetectedShape{
		Kind:    ShapeEllipse,
		CenterX: cx,
		CenterY: cy,
		RadiusX: rx,
		RadiusY: ry,
	}, true
}

// verifyEllipseControlPoints validates that the cubic control points match
// the standard kappa-based ellipse approximation.
func verifyEllipseControlPoints(cubics [4]CubicTo, cx, cy, rx, ry float64) bool {
	kx := rx * kappa
	ky := ry * kappa

	// Quadrant 1: (cx+rx, cy) -> (cx, cy+ry)
	if !checkCP(cubics[0].Control1, cx+rx, cy+ky) ||
		!checkCP(cubics[0].Control2, cx+kx, cy+ry) {
		return false
	}

	// Quadrant 2: (cx, cy+ry) -> (cx-rx, cy)
	if !checkCP(cubics[1].Control1, cx-kx, cy+ry) ||
		!checkCP(cubics[1].Control2, cx-rx, cy+ky) {
		return false
	}

	// Quadrant 3: (cx-rx, cy) -> (cx, cy-ry)
	if !checkCP(cubics[2].Control1, cx-rx, cy-ky) ||
		!checkCP(cubics[2].Control2, cx-kx, cy-ry) {
		return false
	}

	// Quadrant 4: (cx, cy-ry) -> (cx+rx, cy)
	if !checkCP(cubics[3].Control1, cx+kx, cy-ry) ||
		!checkCP(cubics[3].Control2, cx+rx, cy-ky) {
		return false
	}

	return true
}

// checkCP verifies a control point is close to expected coordinates.
func checkCP(pt Point, ex, ey float64) bool {
	return math.Abs(pt.X-ex) < shapeDetectTolerance && math.Abs(pt.Y-ey) < shapeDetectTolerance
}

// detectRect checks if 5 elements form an axis-aligned rectangle.
// Expected pattern: MoveTo, LineTo, LineTo, LineTo, Close.
func detectRect(elems []PathElement) (DetectedShape, bool) {
	move, ok := elems[0].(MoveTo)
	if !ok {
		return DetectedShape{}, false
	}

	var lines [3]LineTo
	for i := 0; i < 3; i++ {
		l, ok := elems[i+1].(LineTo)
		if !ok {
			return DetectedShape{}, false
		}
		lines[i] = l
	}

	if _, ok := elems[4].(Close); !ok {
		return DetectedShape{}, false
	}

	corners := [4]Point{
		move.Point,
		lines[0].Point,
		lines[1].Point,
		lines[2].Point,
	}

	// Each consecutive edge must be horizontal or vertical.
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		dx := math.Abs(corners[i].X - corners[j].X)
		dy := math.Abs(corners[i].Y - corners[j].Y)
		if dx > shapeDetectTolerance && dy > shapeDetectTolerance {
			return DetectedShape{}, false
		}
	}

	minX, maxX := corners[0].X, corners[0].X
	minY, maxY := corners[0].Y, corners[0].Y
	for _, c := range corners[1:] {
		minX = math.Min(minX, c.X)
		maxX = math.Max(maxX, c.X)
		minY = math.Min(minY, c.Y)
		maxY = math.Max(maxY, c.Y)
	}

	w := maxX - minX
	h := maxY - minY
	if w < shapeDetectTolerance || h < shapeDetectTolerance {
		return DetectedShape{}, false
	}

	return DetectedShape{
		Kind:    ShapeRect,
		CenterX: (minX + maxX) / 2,
		CenterY: (minY + maxY) / 2,
		Width:   w,
		Height:  h,
	}, true
}

// pointsClose checks if two points are within tolerance.
func pointsClose(a, b Point) bool {
	return math.Abs(a.X-b.X) < shapeDetectTolerance && math.Abs(a.Y-b.Y) < shapeDetectTolerance
}
