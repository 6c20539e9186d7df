package pointcloud

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPointCloudBasic(t *testing.T) {
	pc := New()
	test.That(t, pc.Size(), test.ShouldEqual, 0)

	p0 := r3.Vector{0, 0, 0}
	p1 := r3.Vector{1, 0, 1}
	p2 := r3.Vector{-1, -2, 1}
	for _, p := range []r3.Vector{p0, p1, p2, p1} {
		test.That(t, pc.Append(p), test.ShouldBeNil)
	}
	// duplicates are kept, order is preserved
	test.That(t, pc.Size(), test.ShouldEqual, 4)
	test.That(t, pc.At(3), test.ShouldResemble, p1)
	test.That(t, pc.Points(), test.ShouldResemble, []r3.Vector{p0, p1, p2, p1})

	meta := pc.MetaData()
	test.That(t, meta.Min(), test.ShouldResemble, r3.Vector{-1, -2, 0})
	test.That(t, meta.Max(), test.ShouldResemble, r3.Vector{1, 0, 1})
	test.That(t, meta.MaxSideLength(), test.ShouldEqual, 2.)
	test.That(t, meta.Center(), test.ShouldResemble, r3.Vector{0, -1, 0.5})

	count := 0
	pc.Iterate(0, 0, func(p r3.Vector) bool {
		count++
		return count < 2
	})
	test.That(t, count, test.ShouldEqual, 2)

	err := pc.Append(r3.Vector{math.NaN(), 0, 0})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "x component")
	err = pc.Append(r3.Vector{0, 0, math.Inf(-1)})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "z component")
	test.That(t, pc.Size(), test.ShouldEqual, 4)

	points := pc.Points()
	points[0] = r3.Vector{9, 9, 9}
	test.That(t, pc.At(0), test.ShouldResemble, p0)
}

func TestIterateBatches(t *testing.T) {
	pc, err := NewFromPoints([]r3.Vector{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}, {4, 0, 0}})
	test.That(t, err, test.ShouldBeNil)

	var seen []float64
	for batch := 0; batch < 2; batch++ {
		pc.Iterate(2, batch, func(p r3.Vector) bool {
			seen = append(seen, p.X)
			return true
		})
	}
	test.That(t, seen, test.ShouldResemble, []float64{0, 2, 4, 1, 3})
}

func TestMergeAndCentroid(t *testing.T) {
	a, err := NewFromPoints([]r3.Vector{{0, 0, 0}, {2, 0, 0}})
	test.That(t, err, test.ShouldBeNil)
	b, err := NewFromPoints([]r3.Vector{{0, 4, 0}})
	test.That(t, err, test.ShouldBeNil)

	merged := Merge(a, New(), b)
	test.That(t, merged.Points(), test.ShouldResemble, []r3.Vector{{0, 0, 0}, {2, 0, 0}, {0, 4, 0}})
	test.That(t, merged.MetaData().Max(), test.ShouldResemble, r3.Vector{2, 4, 0})
	test.That(t, a.Size(), test.ShouldEqual, 2)

	c := CloudCentroid(merged)
	test.That(t, c.X, test.ShouldAlmostEqual, 2./3)
	test.That(t, c.Y, test.ShouldAlmostEqual, 4./3)
	test.That(t, CloudCentroid(New()), test.ShouldResemble, r3.Vector{})
}
