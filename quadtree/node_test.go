package quadtree

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newBoundaryTree() *Node[vec] {
	root := New(vec{50, 50}, 0, 0, 100, 100)
	root.Insert(vec{60, 40})
	root.Insert(vec{40, 30})
	return root
}

func randomPoints(rnd *rand.Rand, n int, r Rect) []vec {
	points := make([]vec, n)
	for i := range points {
		points[i] = vec{
			x: r.X1 + rnd.Float64()*(r.X2-r.X1),
			y: r.Y1 + rnd.Float64()*(r.Y2-r.Y1),
		}
	}
	return points
}

func TestNodeCreation(t *testing.T) {
	n := New(vec{1, 2}, 0, 0, 10, 20)
	require.Equal(t, vec{1, 2}, n.Anchor())
	require.Equal(t, NewRect(0, 0, 10, 20), n.Rect())
	require.Equal(t, 0.0, n.X1())
	require.Equal(t, 0.0, n.Y1())
	require.Equal(t, 10.0, n.X2())
	require.Equal(t, 20.0, n.Y2())
	require.True(t, n.IsLeaf())
	require.Equal(t, 1, n.Size())
	require.Equal(t, []vec{{1, 2}}, n.AllPoints())

	for _, q := range Quadrants {
		require.False(t, n.HasChild(q))
		require.Nil(t, n.Child(q))
	}
}

func TestNodeInsert(t *testing.T) {
	t.Run("boundary scenario", func(t *testing.T) {
		root := newBoundaryTree()
		require.Equal(t, 3, root.Size())

		require.True(t, root.HasChild(Quadrant1))
		require.Equal(t, vec{60, 40}, root.Child(Quadrant1).Anchor())
		require.Equal(t, NewRect(50, 0, 100, 50), root.Child(Quadrant1).Rect())

		require.True(t, root.HasChild(Quadrant2))
		require.Equal(t, vec{40, 30}, root.Child(Quadrant2).Anchor())
		require.Equal(t, NewRect(0, 0, 50, 50), root.Child(Quadrant2).Rect())

		require.False(t, root.HasChild(Quadrant3))
		require.False(t, root.HasChild(Quadrant4))
		require.ElementsMatch(t, []vec{{50, 50}, {60, 40}}, root.FindInCircle(50, 50, 15))
	})

	t.Run("point equal to anchor goes to quadrant 1", func(t *testing.T) {
		root := New(vec{50, 50}, 0, 0, 100, 100)
		require.True(t, root.Insert(vec{50, 50}))
		require.True(t, root.HasChild(Quadrant1))
		require.Equal(t, NewRect(50, 0, 100, 50), root.Child(Quadrant1).Rect())

		// second duplicate is stored one level deeper:
		require.True(t, root.Insert(vec{50, 50}))
		require.True(t, root.Child(Quadrant1).HasChild(Quadrant1))
		require.Equal(t, 3, root.Size())
	})

	t.Run("descends into existing children", func(t *testing.T) {
		root := newBoundaryTree()
		require.True(t, root.Insert(vec{70, 20}))

		child := root.Child(Quadrant1)
		require.True(t, child.HasChild(Quadrant1))
		require.Equal(t, vec{70, 20}, child.Child(Quadrant1).Anchor())
		require.Equal(t, NewRect(60, 0, 100, 40), child.Child(Quadrant1).Rect())
	})

	t.Run("out of bounds point is dropped", func(t *testing.T) {
		root := newBoundaryTree()
		require.False(t, root.Insert(vec{200, 200}))
		require.Equal(t, 3, root.Size())
		require.Len(t, root.AllPoints(), 3)
	})

	t.Run("non integer anchors keep nearby points", func(t *testing.T) {
		root := New(vec{50.7, 50.7}, 0, 0, 100, 100)
		require.True(t, root.Insert(vec{50.3, 10}))
		require.True(t, root.Insert(vec{50.5, 10}))
		require.Equal(t, 3, root.Size())
		require.Len(t, root.FindInCircle(50.4, 10, 0.2), 2)
	})
}

func TestNodeChildNotValidQuadrant(t *testing.T) {
	root := newBoundaryTree()
	require.False(t, root.HasChild(QuadrantNone))
	require.False(t, root.HasChild(Quadrant(5)))
	require.Nil(t, root.Child(Quadrant(-3)))
}

func TestNodeAllPoints(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	r := NewRect(0, 0, 1000, 1000)
	points := randomPoints(rnd, 500, r)

	root := New(points[0], r.X1, r.Y1, r.X2, r.Y2)
	for _, p := range points[1:] {
		require.True(t, root.Insert(p))
	}

	require.Equal(t, len(points), root.Size())
	require.ElementsMatch(t, points, root.AllPoints())

	// idempotent:
	require.Equal(t, root.AllPoints(), root.AllPoints())
}

func TestNodeChildrenPartitionParent(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	r := NewRect(-500, -500, 500, 500)
	points := randomPoints(rnd, 500, r)

	root := New(points[0], r.X1, r.Y1, r.X2, r.Y2)
	for _, p := range points[1:] {
		root.Insert(p)
	}

	root.Walk(func(node *Node[vec], depth int) bool {
		anchor := node.Anchor()
		require.True(t, node.Rect().Contains(anchor.X(), anchor.Y()))

		var area float64
		for _, q := range Quadrants {
			split := node.Rect().Split(q, anchor.X(), anchor.Y())
			area += (split.X2 - split.X1) * (split.Y2 - split.Y1)

			if child := node.Child(q); child != nil {
				require.Equal(t, split, child.Rect())
				require.Equal(t, q, node.Classify(child.Anchor()))
			}
		}

		rect := node.Rect()
		require.InEpsilon(t, (rect.X2-rect.X1)*(rect.Y2-rect.Y1), area, 1e-9)
		return true
	})
}

func TestNodeFindInCircle(t *testing.T) {
	rnd := rand.New(rand.NewSource(1337))
	r := NewRect(0, 0, 1000, 1000)
	points := randomPoints(rnd, 1000, r)

	root := New(points[0], r.X1, r.Y1, r.X2, r.Y2)
	for _, p := range points[1:] {
		root.Insert(p)
	}

	for i := 0; i < 200; i++ {
		cx := -100 + rnd.Float64()*1200
		cy := -100 + rnd.Float64()*1200
		cr := rnd.Float64() * 150

		var expected []vec
		for _, p := range points {
			if math.Hypot(p.x-cx, p.y-cy) <= cr {
				expected = append(expected, p)
			}
		}

		found := root.FindInCircle(cx, cy, cr)
		require.ElementsMatch(t, expected, found)
		require.Equal(t, found, root.FindInCircle(cx, cy, cr))
	}

	t.Run("circle covering everything", func(t *testing.T) {
		require.Len(t, root.FindInCircle(500, 500, 1000), len(points))
	})

	t.Run("circle outside the root", func(t *testing.T) {
		require.Empty(t, root.FindInCircle(5000, 5000, 10))
	})

	t.Run("negative radius", func(t *testing.T) {
		require.Empty(t, root.FindInCircle(points[0].x, points[0].y, -1))
	})

	t.Run("nan radius", func(t *testing.T) {
		require.Empty(t, root.FindInCircle(500, 500, math.NaN()))
	})

	t.Run("zero radius on a stored point", func(t *testing.T) {
		require.Contains(t, root.FindInCircle(points[10].x, points[10].y, 0), points[10])
	})
}

func TestNodeSkewedInsertion(t *testing.T) {
	const count = 10000

	root := New(vec{0, 0}, 0, 0, count, count)
	for i := 1; i < count; i++ {
		require.True(t, root.Insert(vec{float64(i), float64(i)}))
	}

	require.Equal(t, count, root.Size())
	require.Len(t, root.AllPoints(), count)
	require.Len(t, root.FindInCircle(count-1, count-1, 1.5), 2)

	stats := root.Stats()
	require.Equal(t, count, stats.Size)
	require.Equal(t, count, stats.Depth)
	require.Equal(t, 1, stats.Leaves)
	require.Equal(t, [4]int{0, 0, 0, count - 1}, stats.Occupancy)
}

func TestNodeWalk(t *testing.T) {
	root := newBoundaryTree()
	root.Insert(vec{60, 60})

	var visited []vec
	root.Walk(func(node *Node[vec], depth int) bool {
		visited = append(visited, node.Anchor())
		return true
	})
	require.Equal(t, []vec{{50, 50}, {60, 40}, {40, 30}, {60, 60}}, visited)

	t.Run("stops when asked", func(t *testing.T) {
		var count int
		root.Walk(func(node *Node[vec], depth int) bool {
			count++
			return count < 2
		})
		require.Equal(t, 2, count)
	})
}

func TestNodeStats(t *testing.T) {
	root := newBoundaryTree()
	root.Insert(vec{70, 20})

	stats := root.Stats()
	require.Equal(t, 4, stats.Size)
	require.Equal(t, 3, stats.Depth)
	require.Equal(t, 2, stats.Leaves)
	require.Equal(t, [4]int{2, 1, 0, 0}, stats.Occupancy)
}
