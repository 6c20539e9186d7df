package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestGetVoxelCoordinates(t *testing.T) {
	test.That(t, GetVoxelCoordinates(r3.Vector{0.25, 1.5, -0.25}, r3.Vector{}, 0.5),
		test.ShouldResemble, VoxelCoords{0, 3, -1})
}

func TestVoxelDownSample(t *testing.T) {
	pc, err := NewFromPoints([]r3.Vector{
		{0, 0, 0},
		{0.02, 0, 0},
		{1, 1, 1},
		{0.04, 0.02, 0},
		{1.02, 1, 1},
		{3, 0, 0},
	})
	test.That(t, err, test.ShouldBeNil)

	down, err := VoxelDownSample(pc, 0.1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, down.Size(), test.ShouldEqual, 3)

	// ordered by first touch, each the mean of its voxel
	first := down.At(0)
	test.That(t, first.X, test.ShouldAlmostEqual, 0.02)
	test.That(t, first.Y, test.ShouldAlmostEqual, 0.02/3)
	test.That(t, first.Z, test.ShouldAlmostEqual, 0.)
	second := down.At(1)
	test.That(t, second.X, test.ShouldAlmostEqual, 1.01)
	test.That(t, second.Y, test.ShouldAlmostEqual, 1.)
	test.That(t, down.At(2), test.ShouldResemble, r3.Vector{3, 0, 0})

	// large voxel collapses everything
	one, err := VoxelDownSample(pc, 100)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, one.Size(), test.ShouldEqual, 1)
	test.That(t, one.At(0).Sub(CloudCentroid(pc)).Norm(), test.ShouldBeLessThan, 1e-12)
}

func TestVoxelDownSampleErrors(t *testing.T) {
	_, err := VoxelDownSample(New(), 0.1)
	test.That(t, errors.Is(err, ErrEmptyCloud), test.ShouldBeTrue)

	pc, err := NewFromPoints([]r3.Vector{{0, 0, 0}, {1e6, 0, 0}})
	test.That(t, err, test.ShouldBeNil)
	_, err = VoxelDownSample(pc, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = VoxelDownSample(pc, -1)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = VoxelDownSample(pc, 1e-6)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "too small")
}

func TestUniformDownSample(t *testing.T) {
	points := make([]r3.Vector, 0, 7)
	for i := 0; i < 7; i++ {
		points = append(points, r3.Vector{float64(i), 0, 0})
	}
	pc, err := NewFromPoints(points)
	test.That(t, err, test.ShouldBeNil)

	every3, err := UniformDownSample(pc, 3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, every3.Points(), test.ShouldResemble, []r3.Vector{{0, 0, 0}, {3, 0, 0}, {6, 0, 0}})

	all, err := UniformDownSample(pc, 1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, all.Points(), test.ShouldResemble, points)

	first, err := UniformDownSample(pc, 100)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first.Points(), test.ShouldResemble, []r3.Vector{{0, 0, 0}})

	_, err = UniformDownSample(New(), 2)
	test.That(t, errors.Is(err, ErrEmptyCloud), test.ShouldBeTrue)
	_, err = UniformDownSample(pc, 0)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = UniformDownSample(pc, -2)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestClipPointCloud(t *testing.T) {
	pc, err := NewFromPoints([]r3.Vector{{0, 0, 0}, {1, 1, 1}, {2, 0, 0}, {0.5, -0.1, 0.5}, {1, 0, 1}})
	test.That(t, err, test.ShouldBeNil)

	// bounds are inclusive
	clipped, err := ClipPointCloud(pc, r3.Vector{0, 0, 0}, r3.Vector{1, 1, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, clipped.Points(), test.ShouldResemble, []r3.Vector{{0, 0, 0}, {1, 1, 1}, {1, 0, 1}})

	none, err := ClipPointCloud(pc, r3.Vector{5, 5, 5}, r3.Vector{6, 6, 6})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, none.Size(), test.ShouldEqual, 0)

	_, err = ClipPointCloud(New(), r3.Vector{}, r3.Vector{1, 1, 1})
	test.That(t, errors.Is(err, ErrEmptyCloud), test.ShouldBeTrue)
	_, err = ClipPointCloud(pc, r3.Vector{0, 2, 0}, r3.Vector{1, 1, 1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "inverted")
}
