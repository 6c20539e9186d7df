package spatialmath

import (
	"math"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestNormalize(t *testing.T) {
	m, err := NewMesh([]r3.Vector{{1, 2, 3}, {5, 2, 3}, {1, 6, 3}, {1, 2, 7}}, [][3]int{{0, 1, 2}, {0, 2, 3}})
	test.That(t, err, test.ShouldBeNil)
	orig := m.Clone()

	normalized, err := m.Normalized()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Vertices, test.ShouldResemble, orig.Vertices)

	minPt, maxPt, err := normalized.BoundingBox()
	test.That(t, err, test.ShouldBeNil)
	center := minPt.Add(maxPt).Mul(0.5)
	test.That(t, center.Norm(), test.ShouldBeLessThan, 1e-12)
	test.That(t, maxPt.Sub(minPt).Norm()/2, test.ShouldAlmostEqual, 1.)

	// box (4,4,4) centered on (3,4,5), half diagonal 2*sqrt(3)
	scale := 2 * math.Sqrt(3)
	test.That(t, normalized.Vertices[0].Sub(r3.Vector{-2, -2, -2}.Mul(1/scale)).Norm(), test.ShouldBeLessThan, 1e-12)

	test.That(t, m.Normalize(), test.ShouldBeNil)
	for i := range m.Vertices {
		test.That(t, m.Vertices[i].Sub(normalized.Vertices[i]).Norm(), test.ShouldBeLessThan, 1e-12)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	m := NewBoxMesh(r3.Vector{3, 0.5, 1.25})
	m.Vertices = append(m.Vertices, r3.Vector{0.7, -0.1, 0.3})
	test.That(t, m.Normalize(), test.ShouldBeNil)
	once := m.Clone()
	test.That(t, m.Normalize(), test.ShouldBeNil)
	for i := range m.Vertices {
		test.That(t, m.Vertices[i].Sub(once.Vertices[i]).Norm(), test.ShouldBeLessThan, 1e-12)
	}
}

func TestNormalizeDegenerate(t *testing.T) {
	m := &Mesh{Vertices: []r3.Vector{{1, 1, 1}, {1, 1, 1}}}
	err := m.Normalize()
	test.That(t, errors.Is(err, ErrDegenerateMesh), test.ShouldBeTrue)
	test.That(t, m.Vertices[0], test.ShouldResemble, r3.Vector{1, 1, 1})

	_, err = (&Mesh{}).Normalized()
	test.That(t, errors.Is(err, ErrEmptyMesh), test.ShouldBeTrue)
}

func TestNewMeshBadIndex(t *testing.T) {
	_, err := NewMesh([]r3.Vector{{}, {1, 0, 0}}, [][3]int{{0, 1, 2}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "face 0")
}

func TestIcosphere(t *testing.T) {
	for subdivisions, count := range []int{12, 42, 162, 642} {
		m := NewIcosphere(subdivisions)
		test.That(t, m.Vertices, test.ShouldHaveLength, count)
		test.That(t, m.Faces, test.ShouldHaveLength, 20*int(math.Pow(4, float64(subdivisions))))
		for _, v := range m.Vertices {
			test.That(t, v.Norm(), test.ShouldAlmostEqual, 1.)
		}
	}

	// faces wind outwards
	for _, tri := range NewIcosphere(1).Triangles() {
		pts := tri.Points()
		centroid := pts[0].Add(pts[1]).Add(pts[2]).Mul(1. / 3)
		test.That(t, pts[1].Sub(pts[0]).Cross(pts[2].Sub(pts[0])).Dot(centroid), test.ShouldBeGreaterThan, 0)
	}
}

func TestBoxMeshWinding(t *testing.T) {
	box := NewBoxMesh(r3.Vector{2, 2, 2})
	var area float64
	for _, tri := range box.Triangles() {
		pts := tri.Points()
		centroid := pts[0].Add(pts[1]).Add(pts[2]).Mul(1. / 3)
		test.That(t, pts[1].Sub(pts[0]).Cross(pts[2].Sub(pts[0])).Dot(centroid), test.ShouldBeGreaterThan, 0)
		area += tri.Area()
	}
	test.That(t, area, test.ShouldAlmostEqual, 24.)

	test.That(t, NewTriangle(r3.Vector{}, r3.Vector{1, 1, 1}, r3.Vector{2, 2, 2}).Area(), test.ShouldEqual, 0.)
}

const asciiQuadPLY = `ply
format ascii 1.0
element vertex 4
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
0 0 0
1 0 0
1 1 0
0 1 0
4 0 1 2 3
`

func TestNewMeshFromPLY(t *testing.T) {
	m, err := NewMeshFromPLY(strings.NewReader(asciiQuadPLY))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Vertices, test.ShouldHaveLength, 4)
	test.That(t, m.Vertices[2], test.ShouldResemble, r3.Vector{1, 1, 0})
	// quad fan-triangulated
	test.That(t, m.Faces, test.ShouldResemble, [][3]int{{0, 1, 2}, {0, 2, 3}})

	_, err = NewMeshFromPLYFile("/nonexistent/mesh.ply")
	test.That(t, err, test.ShouldNotBeNil)
}
