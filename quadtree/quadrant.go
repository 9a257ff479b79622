package quadtree

import "strconv"

// Quadrant identifies one of the four regions of a node rectangle split at the
// node anchor. Numbering follows the screen convention where y grows downward.
type Quadrant int

const (
	// QuadrantNone is returned for points outside the node rectangle.
	QuadrantNone Quadrant = 0

	// Quadrant1 is right of and above the anchor: x >= a.x, y <= a.y.
	Quadrant1 Quadrant = 1

	// Quadrant2 is left of and above the anchor: x <= a.x, y <= a.y.
	Quadrant2 Quadrant = 2

	// Quadrant3 is left of and below the anchor: x <= a.x, y >= a.y.
	Quadrant3 Quadrant = 3

	// Quadrant4 is right of and below the anchor: x >= a.x, y >= a.y.
	Quadrant4 Quadrant = 4
)

// Quadrants lists the valid quadrants in classification priority order.
var Quadrants = [4]Quadrant{Quadrant1, Quadrant2, Quadrant3, Quadrant4}

// Valid reports whether q is one of Quadrant1 to Quadrant4.
func (q Quadrant) Valid() bool {
	return q >= Quadrant1 && q <= Quadrant4
}

func (q Quadrant) String() string {
	if !q.Valid() {
		return "none"
	}
	return "q" + strconv.Itoa(int(q))
}

// Classify returns the quadrant of r, split at anchor, that p falls into.
//
// Points on a shared boundary, or equal to the anchor, match several
// quadrants; the first match in the order 1, 2, 3, 4 wins. Points outside r
// return QuadrantNone.
func Classify(anchor Point, r Rect, p Point) Quadrant {
	ax, ay := anchor.X(), anchor.Y()
	x, y := p.X(), p.Y()

	switch {
	case x >= ax && x <= r.X2 && y <= ay && y >= r.Y1:
		return Quadrant1
	case x >= r.X1 && x <= ax && y >= r.Y1 && y <= ay:
		return Quadrant2
	case x >= r.X1 && x <= ax && y <= r.Y2 && y >= ay:
		return Quadrant3
	case x >= ax && x <= r.X2 && y >= ay && y <= r.Y2:
		return Quadrant4
	default:
		return QuadrantNone
	}
}
