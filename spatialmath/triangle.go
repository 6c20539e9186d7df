package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Triangle is three points in counter-clockwise winding order.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector
}

// NewTriangle creates a Triangle from three points.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{p0: p0, p1: p1, p2: p2}
}

// Points returns the vertices of the triangle.
func (t *Triangle) Points() [3]r3.Vector {
	return [3]r3.Vector{t.p0, t.p1, t.p2}
}

// Area returns the area of the triangle. It is zero when the points are collinear.
func (t *Triangle) Area() float64 {
	return t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm() / 2
}
