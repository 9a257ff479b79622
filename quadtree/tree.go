package quadtree

// Tree is a quadtree over a fixed rectangle that may be empty. The first point
// inserted inside the rectangle becomes the root anchor.
//
// The zero value is an empty tree over the zero rectangle; use NewTree.
type Tree[T Point] struct {
	rect Rect
	root *Node[T]
}

// NewTree returns an empty tree governing (x1, y1)-(x2, y2).
func NewTree[T Point](x1, y1, x2, y2 float64) *Tree[T] {
	return &Tree[T]{
		rect: NewRect(x1, y1, x2, y2),
	}
}

// Rect returns the rectangle governed by the tree.
func (t *Tree[T]) Rect() Rect {
	return t.rect
}

// Root returns the root node, or nil when the tree is empty.
func (t *Tree[T]) Root() *Node[T] {
	return t.root
}

// Insert stores p and reports whether it was stored. Points outside the tree
// rectangle are dropped.
func (t *Tree[T]) Insert(p T) bool {
	if t.root == nil {
		if !t.rect.Contains(p.X(), p.Y()) {
			return false
		}
		t.root = newNode(p, t.rect)
		return true
	}
	return t.root.Insert(p)
}

// Size returns the number of stored points.
func (t *Tree[T]) Size() int {
	if t.root == nil {
		return 0
	}
	return t.root.Size()
}

// AllPoints returns every stored point, or nil when the tree is empty.
func (t *Tree[T]) AllPoints() []T {
	if t.root == nil {
		return nil
	}
	return t.root.AllPoints()
}

// FindInCircle returns the stored points whose distance to (cx, cy) is at
// most cr.
func (t *Tree[T]) FindInCircle(cx, cy, cr float64) []T {
	if t.root == nil {
		return nil
	}
	return t.root.FindInCircle(cx, cy, cr)
}

// Stats returns the shape of the tree. It is zero for an empty tree.
func (t *Tree[T]) Stats() Stats {
	if t.root == nil {
		return Stats{}
	}
	return t.root.Stats()
}
