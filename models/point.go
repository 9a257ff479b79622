package models

// Point is a value stored in an index, anchored at (PX, PY).
type Point struct {
	ID   uint32  `json:"id"`
	PX   float64 `json:"x"`
	PY   float64 `json:"y"`
	Data string  `json:"data,omitempty"`
}

func (p Point) X() float64 {
	return p.PX
}

func (p Point) Y() float64 {
	return p.PY
}
