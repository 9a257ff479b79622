package quadtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type vec struct {
	x float64
	y float64
}

func (v vec) X() float64 {
	return v.x
}

func (v vec) Y() float64 {
	return v.y
}

func TestClassify(t *testing.T) {
	anchor := vec{50, 50}
	r := NewRect(0, 0, 100, 100)

	tests := []struct {
		name     string
		point    vec
		quadrant Quadrant
	}{
		{name: "right and above", point: vec{60, 40}, quadrant: Quadrant1},
		{name: "left and above", point: vec{40, 30}, quadrant: Quadrant2},
		{name: "left and below", point: vec{40, 60}, quadrant: Quadrant3},
		{name: "right and below", point: vec{60, 60}, quadrant: Quadrant4},
		{name: "equal to anchor", point: vec{50, 50}, quadrant: Quadrant1},
		{name: "vertical line above", point: vec{50, 10}, quadrant: Quadrant1},
		{name: "vertical line below", point: vec{50, 90}, quadrant: Quadrant3},
		{name: "horizontal line left", point: vec{10, 50}, quadrant: Quadrant2},
		{name: "horizontal line right", point: vec{90, 50}, quadrant: Quadrant1},
		{name: "top left corner", point: vec{0, 0}, quadrant: Quadrant2},
		{name: "bottom right corner", point: vec{100, 100}, quadrant: Quadrant4},
		{name: "outside", point: vec{200, 200}, quadrant: QuadrantNone},
		{name: "outside left", point: vec{-1, 50}, quadrant: QuadrantNone},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.quadrant, Classify(anchor, r, test.point))
		})
	}
}

func TestQuadrant(t *testing.T) {
	require.False(t, QuadrantNone.Valid())
	require.False(t, Quadrant(5).Valid())
	require.True(t, Quadrant3.Valid())
	require.Equal(t, "q2", Quadrant2.String())
	require.Equal(t, "none", Quadrant(-1).String())
}
