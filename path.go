package blit

import "math"

// PathElement represents a single element in a path.
type PathElement interface {
	isPathElement()
}

// MoveTo moves to a point without drawing.
type MoveTo struct {
	Point Point
}

func (MoveTo) isPathElement() {}

// LineTo draws a line to a point.
type LineTo struct {
	Point Point
}

func (LineTo) isPathElement() {}

// QuadTo draws a quadratic Bezier curve.
type QuadTo struct {
	Control Point
	Point   Point
}

func (QuadTo) isPathElement() {}

// CubicTo draws a cubic Bezier curve.
type CubicTo struct {
	Control1 Point
	Control2 Point
	Point    Point
}

func (CubicTo) isPathElement() {}

// Close closes the current subpath.
type Close struct{}

func (Close) isPathElement() {}

// Rect represents an axis-aligned rectangle.
type Rect struct {
	Min, Max Point
}

// NewRect creates a rectangle from two points.
// The points are normalized so Min <= Max.
func NewRect(p1, p2 Point) Rect {
	return Rect{
		Min: Point{X: math.Min(p1.X, p2.X), Y: math.Min(p1.Y, p2.Y)},
		Max: Point{X: math.Max(p1.X, p2.X), Y: math.Max(p1.Y, p2.Y)},
	}
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Union returns the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	return Rect{
		Min: Point{X: math.Min(r.Min.X, other.Min.X), Y: math.Min(r.Min.Y, other.Min.Y)},
		Max: Point{X: math.Max(r.Max.X, other.Max.X), Y: math.Max(r.Max.Y, other.Max.Y)},
	}
}

// Expand returns the rectangle grown by d on every side.
func (r Rect) Expand(d float64) Rect {
	return Rect{
		Min: Point{X: r.Min.X - d, Y: r.Min.Y - d},
		Max: Point{X: r.Max.X + d, Y: r.Max.Y + d},
	}
}

// Path represents a vector path built from move/line/curve elements.
type Path struct {
	elements   []PathElement
	start      Point // starting point of current subpath
	current    Point // current point
	hasCurrent bool
	curves     int // number of curve elements, for fast-path checks
}

// NewPath creates a new empty path.
func NewPath() *Path {
	return &Path{
		elements: make([]PathElement, 0, 16),
	}
}

// MoveTo moves to a point without drawing, starting a new subpath.
func (p *Path) MoveTo(x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, MoveTo{Point: pt})
	p.start = pt
	p.current = pt
	p.hasCurrent = true
}

// LineTo draws a line to a point. With no current point it behaves like
// MoveTo, matching canvas semantics.
func (p *Path) LineTo(x, y float64) {
	if !p.hasCurrent {
		p.MoveTo(x, y)
		return
	}
	pt := Pt(x, y)
	p.elements = append(p.elements, LineTo{Point: pt})
	p.current = pt
}

// QuadraticCurveTo draws a quadratic Bezier curve to (x, y) with control
// point (cx, cy).
func (p *Path) QuadraticCurveTo(cx, cy, x, y float64) {
	if !p.hasCurrent {
		p.MoveTo(cx, cy)
	}
	ctrl := Pt(cx, cy)
	pt := Pt(x, y)
	p.elements = append(p.elements, QuadTo{Control: ctrl, Point: pt})
	p.current = pt
	p.curves++
}

// BezierCurveTo draws a cubic Bezier curve to (x, y) with control points
// (c1x, c1y) and (c2x, c2y).
func (p *Path) BezierCurveTo(c1x, c1y, c2x, c2y, x, y float64) {
	if !p.hasCurrent {
		p.MoveTo(c1x, c1y)
	}
	p.elements = append(p.elements, CubicTo{
		Control1: Pt(c1x, c1y),
		Control2: Pt(c2x, c2y),
		Point:    Pt(x, y),
	})
	p.current = Pt(x, y)
	p.curves++
}

// Rect adds an axis-aligned rectangle as a closed subpath.
func (p *Path) Rect(x, y, w, h float64) {
	p.MoveTo(x, y)
	p.LineTo(x+w, y)
	p.LineTo(x+w, y+h)
	p.LineTo(x, y+h)
	p.Close()
}

// kappa is the cubic Bezier control point distance for circle approximation.
// Equal to 4/3 * (sqrt(2) - 1).
const kappa = 0.5522847498307936

// Ellipse adds a full ellipse as a closed subpath of four cubic segments.
func (p *Path) Ellipse(cx, cy, rx, ry float64) {
	ox := rx * kappa
	oy := ry * kappa

	p.MoveTo(cx+rx, cy)
	p.BezierCurveTo(cx+rx, cy+oy, cx+ox, cy+ry, cx, cy+ry)
	p.BezierCurveTo(cx-ox, cy+ry, cx-rx, cy+oy, cx-rx, cy)
	p.BezierCurveTo(cx-rx, cy-oy, cx-ox, cy-ry, cx, cy-ry)
	p.BezierCurveTo(cx+ox, cy-ry, cx+rx, cy-oy, cx+rx, cy)
	p.Close()
}

// Circle adds a full circle as a closed subpath.
func (p *Path) Circle(cx, cy, r float64) {
	p.Ellipse(cx, cy, r, r)
}

// Arc adds a circular arc around (cx, cy) from angle1 to angle2 in radians.
// With a current point the arc start is first connected by a line, matching
// canvas semantics. The arc is split into cubic segments of at most 90
// degrees.
func (p *Path) Arc(cx, cy, r, angle1, angle2 float64) {
	const twoPi = 2 * math.Pi
	for angle2 < angle1 {
		angle2 += twoPi
	}

	sx := cx + r*math.Cos(angle1)
	sy := cy + r*math.Sin(angle1)
	if p.hasCurrent {
		p.LineTo(sx, sy)
	} else {
		p.MoveTo(sx, sy)
	}

	const maxAngle = math.Pi / 2
	numSegments := int(math.Ceil((angle2 - angle1) / maxAngle))
	if numSegments < 1 {
		numSegments = 1
	}
	angleStep := (angle2 - angle1) / float64(numSegments)

	for i := 0; i < numSegments; i++ {
		a1 := angle1 + float64(i)*angleStep
		a2 := a1 + angleStep
		p.arcSegment(cx, cy, r, a1, a2)
	}
}

// arcSegment appends a single cubic approximating an arc of at most 90
// degrees, starting at the current point.
func (p *Path) arcSegment(cx, cy, r, a1, a2 float64) {
	alpha := math.Sin(a2-a1) * (math.Sqrt(4+3*math.Tan((a2-a1)/2)*math.Tan((a2-a1)/2)) - 1) / 3

	cos1, sin1 := math.Cos(a1), math.Sin(a1)
	cos2, sin2 := math.Cos(a2), math.Sin(a2)

	x1 := cx + r*cos1
	y1 := cy + r*sin1
	x2 := cx + r*cos2
	y2 := cy + r*sin2

	c1x := x1 - alpha*r*sin1
	c1y := y1 + alpha*r*cos1
	c2x := x2 + alpha*r*sin2
	c2y := y2 - alpha*r*cos2

	p.BezierCurveTo(c1x, c1y, c2x, c2y, x2, y2)
}

// Close closes the current subpath by connecting back to its start point.
func (p *Path) Close() {
	if !p.hasCurrent {
		return
	}
	p.elements = append(p.elements, Close{})
	p.current = p.start
}

// Clear removes all elements from the path.
func (p *Path) Clear() {
	p.elements = p.elements[:0]
	p.start = Point{}
	p.current = Point{}
	p.hasCurrent = false
	p.curves = 0
}

// IsEmpty reports whether the path has no elements.
func (p *Path) IsEmpty() bool {
	return len(p.elements) == 0
}

// HasCurves reports whether the path contains any Bezier elements.
func (p *Path) HasCurves() bool {
	return p.curves > 0
}

// Elements returns the path elements.
func (p *Path) Elements() []PathElement {
	return p.elements
}

// CurrentPoint returns the current point.
func (p *Path) CurrentPoint() Point {
	return p.current
}

// Bounds returns the bounding box of the path and whether the path has any
// geometry. Curve control points are included, so the box is conservative
// for curved paths.
func (p *Path) Bounds() (Rect, bool) {
	var bbox Rect
	found := false
	add := func(pt Point) {
		if !found {
			bbox = Rect{Min: pt, Max: pt}
			found = true
			return
		}
		bbox = bbox.Union(Rect{Min: pt, Max: pt})
	}
	for _, elem := range p.elements {
		switch e := elem.(type) {
		case MoveTo:
			add(e.Point)
		case LineTo:
			add(e.Point)
		case QuadTo:
			add(e.Control)
			add(e.Point)
		case CubicTo:
			add(e.Control1)
			add(e.Control2)
			add(e.Point)
		}
	}
	return bbox, found
}

// Contour is a flattened subpath.
type Contour struct {
	Points []Point
	Closed bool
}

// Flatten converts the path into polyline contours. Curves are subdivided
// with a density proportional to their control polygon length times scale,
// so curves stay smooth under magnifying transforms.
func (p *Path) Flatten(scale float64) []Contour {
	if scale <= 0 {
		scale = 1
	}
	var contours []Contour
	var cur Contour
	var cursor Point

	fin := func(closed bool) {
		if len(cur.Points) > 1 {
			cur.Closed = closed
			contours = append(contours, cur)
		}
		cur = Contour{}
	}

	for _, elem := range p.elements {
		switch e := elem.(type) {
		case MoveTo:
			fin(false)
			cur.Points = append(cur.Points, e.Point)
			cursor = e.Point
		case LineTo:
			cur.Points = append(cur.Points, e.Point)
			cursor = e.Point
		case QuadTo:
			polyLen := cursor.Distance(e.Control) + e.Control.Distance(e.Point)
			n := flattenSegments(polyLen, scale)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				cur.Points = append(cur.Points, evalQuad(cursor, e.Control, e.Point, t))
			}
			cursor = e.Point
		case CubicTo:
			polyLen := cursor.Distance(e.Control1) +
				e.Control1.Distance(e.Control2) +
				e.Control2.Distance(e.Point)
			n := flattenSegments(polyLen, scale)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				cur.Points = append(cur.Points, evalCubic(cursor, e.Control1, e.Control2, e.Point, t))
			}
			cursor = e.Point
		case Close:
			fin(true)
		}
	}
	fin(false)
	return contours
}

// flattenSegments picks a subdivision count from the curve's control polygon
// length in device pixels.
func flattenSegments(polyLen, scale float64) int {
	n := int(math.Ceil(polyLen * scale / 4))
	if n < 4 {
		return 4
	}
	if n > 64 {
		return 64
	}
	return n
}

// evalQuad evaluates a quadratic Bezier at parameter t.
func evalQuad(p0, p1, p2 Point, t float64) Point {
	mt := 1.0 - t
	return Point{
		X: mt*mt*p0.X + 2*mt*t*p1.X + t*t*p2.X,
		Y: mt*mt*p0.Y + 2*mt*t*p1.Y + t*t*p2.Y,
	}
}

// evalCubic evaluates a cubic Bezier at parameter t.
func evalCubic(p0, p1, p2, p3 Point, t float64) Point {
	mt := 1.0 - t
	mt2 := mt * mt
	t2 := t * t
	return Point{
		X: mt2*mt*p0.X + 3*mt2*t*p1.X + 3*mt*t2*p2.X + t2*t*p3.X,
		Y: mt2*mt*p0.Y + 3*mt2*t*p1.Y + 3*mt*t2*p2.Y + t2*t*p3.Y,
	}
}
