package quadtree

import (
	"math/rand"
	"testing"
)

func BenchmarkNodeInsert(b *testing.B) {
	rnd := rand.New(rand.NewSource(1))
	r := NewRect(0, 0, 10000, 10000)
	points := randomPoints(rnd, b.N+1, r)

	root := New(points[0], r.X1, r.Y1, r.X2, r.Y2)
	b.ResetTimer()
	for _, p := range points[1:] {
		root.Insert(p)
	}
}

func BenchmarkNodeFindInCircle(b *testing.B) {
	rnd := rand.New(rand.NewSource(1))
	r := NewRect(0, 0, 10000, 10000)
	points := randomPoints(rnd, 100000, r)

	root := New(points[0], r.X1, r.Y1, r.X2, r.Y2)
	for _, p := range points[1:] {
		root.Insert(p)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		root.FindInCircle(rnd.Float64()*10000, rnd.Float64()*10000, 100)
	}
}
