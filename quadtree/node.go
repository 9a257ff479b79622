// Package quadtree implements a point quadtree: every node stores one anchor
// point and governs a rectangle that its anchor splits into four quadrants,
// each holding at most one child subtree.
//
// The tree is never rebalanced, so its shape records insertion order and its
// depth can grow linearly with the number of points. Traversals use explicit
// stacks instead of recursion for that reason.
//
// Nothing in this package is safe for concurrent use.
package quadtree

// Point is the capability required from values stored in a tree.
type Point interface {
	X() float64
	Y() float64
}

// Node is a quadtree node. It exclusively owns its children.
type Node[T Point] struct {
	anchor   T
	rect     Rect
	children [4]*Node[T]
}

// New returns a leaf node anchored at anchor and governing the rectangle
// (x1, y1)-(x2, y2). The anchor is expected to lie inside the rectangle.
func New[T Point](anchor T, x1, y1, x2, y2 float64) *Node[T] {
	return newNode(anchor, NewRect(x1, y1, x2, y2))
}

func newNode[T Point](anchor T, r Rect) *Node[T] {
	return &Node[T]{
		anchor: anchor,
		rect:   r,
	}
}

// Anchor returns the point stored at the node.
func (n *Node[T]) Anchor() T {
	return n.anchor
}

// Rect returns the rectangle governed by the node.
func (n *Node[T]) Rect() Rect {
	return n.rect
}

// X1 returns the left edge of the node rectangle.
func (n *Node[T]) X1() float64 {
	return n.rect.X1
}

// Y1 returns the top edge of the node rectangle.
func (n *Node[T]) Y1() float64 {
	return n.rect.Y1
}

// X2 returns the right edge of the node rectangle.
func (n *Node[T]) X2() float64 {
	return n.rect.X2
}

// Y2 returns the bottom edge of the node rectangle.
func (n *Node[T]) Y2() float64 {
	return n.rect.Y2
}

// HasChild reports whether a child exists at quadrant q. It returns false for
// invalid quadrants.
func (n *Node[T]) HasChild(q Quadrant) bool {
	return n.Child(q) != nil
}

// Child returns the child at quadrant q, or nil when there is none or q is
// not a valid quadrant.
func (n *Node[T]) Child(q Quadrant) *Node[T] {
	if !q.Valid() {
		return nil
	}
	return n.children[q-1]
}

// IsLeaf reports whether the node has no children.
func (n *Node[T]) IsLeaf() bool {
	for _, c := range n.children {
		if c != nil {
			return false
		}
	}
	return true
}

// Classify returns the quadrant of this node that p falls into.
func (n *Node[T]) Classify(p Point) Quadrant {
	return Classify(n.anchor, n.rect, p)
}

// Insert stores p in the subtree rooted at n.
//
// Insert returns false, leaving the tree unchanged, when p lies outside the
// rectangle of the node it is routed to. Keeping points within the root
// rectangle is the caller's responsibility.
func (n *Node[T]) Insert(p T) bool {
	node := n
	for {
		q := node.Classify(p)
		if q == QuadrantNone {
			return false
		}

		child := node.children[q-1]
		if child == nil {
			node.children[q-1] = newNode(p, node.rect.Split(q, node.anchor.X(), node.anchor.Y()))
			return true
		}
		node = child
	}
}

// Walk visits the nodes of the subtree rooted at n in pre-order, children in
// quadrant order. It stops as soon as fn returns false.
func (n *Node[T]) Walk(fn func(node *Node[T], depth int) bool) {
	type frame struct {
		node  *Node[T]
		depth int
	}

	stack := []frame{{node: n, depth: 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !fn(f.node, f.depth) {
			return
		}

		// pushed in reverse so that quadrant 1 is visited first:
		for i := len(f.node.children) - 1; i >= 0; i-- {
			if c := f.node.children[i]; c != nil {
				stack = append(stack, frame{node: c, depth: f.depth + 1})
			}
		}
	}
}

// Size returns the number of points stored in the subtree rooted at n.
func (n *Node[T]) Size() int {
	size := 0
	n.Walk(func(*Node[T], int) bool {
		size++
		return true
	})
	return size
}

// AllPoints returns every point stored in the subtree rooted at n.
func (n *Node[T]) AllPoints() []T {
	var points []T
	n.Walk(func(node *Node[T], _ int) bool {
		points = append(points, node.anchor)
		return true
	})
	return points
}

// FindInCircle returns the points of the subtree rooted at n whose distance to
// (cx, cy) is at most cr. The order of the returned points is unspecified.
func (n *Node[T]) FindInCircle(cx, cy, cr float64) []T {
	var points []T
	if !(cr >= 0) {
		return points
	}

	stack := []*Node[T]{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// every descendant rectangle lies within its parent one:
		if !node.rect.IntersectsCircle(cx, cy, cr) {
			continue
		}

		if PointInCircle(node.anchor.X(), node.anchor.Y(), cx, cy, cr) {
			points = append(points, node.anchor)
		}

		for i := len(node.children) - 1; i >= 0; i-- {
			if c := node.children[i]; c != nil {
				stack = append(stack, c)
			}
		}
	}
	return points
}

// Stats describes the shape of a tree.
type Stats struct {
	Size      int    `json:"size"`
	Depth     int    `json:"depth"`
	Leaves    int    `json:"leaves"`
	Occupancy [4]int `json:"occupancy"`
}

// Stats walks the subtree rooted at n and returns its shape. Occupancy counts,
// per quadrant, the nodes attached in that quadrant of their parent.
func (n *Node[T]) Stats() Stats {
	var s Stats
	n.Walk(func(node *Node[T], depth int) bool {
		s.Size++
		if depth > s.Depth {
			s.Depth = depth
		}

		leaf := true
		for i, c := range node.children {
			if c != nil {
				s.Occupancy[i]++
				leaf = false
			}
		}
		if leaf {
			s.Leaves++
		}
		return true
	})
	return s
}
