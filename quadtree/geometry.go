package quadtree

import "math"

// PointInCircle reports whether (px, py) lies inside or on the circle centered
// at (cx, cy) with radius cr.
func PointInCircle(px, py, cx, cy, cr float64) bool {
	dx := px - cx
	dy := py - cy
	return dx*dx+dy*dy <= cr*cr
}

// CircleIntersectsRectangle reports whether the circle centered at (cx, cy)
// with radius cr shares at least one point with the closed rectangle
// (x1, y1)-(x2, y2).
func CircleIntersectsRectangle(cx, cy, cr, x1, y1, x2, y2 float64) bool {
	// closest point of the rectangle to the circle center:
	closestX := math.Max(x1, math.Min(cx, x2))
	closestY := math.Max(y1, math.Min(cy, y2))
	return PointInCircle(closestX, closestY, cx, cy, cr)
}

// Rect is an axis-aligned rectangle. Y1 is the top edge and Y2 the bottom
// edge: y grows downward.
type Rect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// NewRect returns the rectangle (x1, y1)-(x2, y2).
func NewRect(x1, y1, x2, y2 float64) Rect {
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Valid reports whether the rectangle bounds are ordered.
func (r Rect) Valid() bool {
	return r.X1 <= r.X2 && r.Y1 <= r.Y2
}

// Contains reports whether (x, y) is inside or on the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X1 && x <= r.X2 && y >= r.Y1 && y <= r.Y2
}

// IntersectsCircle reports whether the circle shares at least one point with
// the rectangle.
func (r Rect) IntersectsCircle(cx, cy, cr float64) bool {
	return CircleIntersectsRectangle(cx, cy, cr, r.X1, r.Y1, r.X2, r.Y2)
}

// Split returns the sub-rectangle of quadrant q when r is divided at (ax, ay).
// It returns the zero Rect for QuadrantNone.
func (r Rect) Split(q Quadrant, ax, ay float64) Rect {
	switch q {
	case Quadrant1:
		return Rect{X1: ax, Y1: r.Y1, X2: r.X2, Y2: ay}
	case Quadrant2:
		return Rect{X1: r.X1, Y1: r.Y1, X2: ax, Y2: ay}
	case Quadrant3:
		return Rect{X1: r.X1, Y1: ay, X2: ax, Y2: r.Y2}
	case Quadrant4:
		return Rect{X1: ax, Y1: ay, X2: r.X2, Y2: r.Y2}
	default:
		return Rect{}
	}
}
