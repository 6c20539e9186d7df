package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// basicPointCloud is the basic implementation of the PointCloud interface backed by a slice.
type basicPointCloud struct {
	points []r3.Vector
	meta   MetaData
}

// New returns an empty PointCloud backed by a basicPointCloud.
func New() PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty, preallocated PointCloud backed by a basicPointCloud.
func NewWithPrealloc(size int) PointCloud {
	return &basicPointCloud{
		points: make([]r3.Vector, 0, size),
		meta:   NewMetaData(),
	}
}

// NewFromPoints returns a PointCloud holding the given points in order.
func NewFromPoints(points []r3.Vector) (PointCloud, error) {
	pc := NewWithPrealloc(len(points))
	for _, p := range points {
		if err := pc.Append(p); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func (cloud *basicPointCloud) Size() int {
	return len(cloud.points)
}

func (cloud *basicPointCloud) MetaData() MetaData {
	return cloud.meta
}

// Append validates that the point is finite before adding it.
func (cloud *basicPointCloud) Append(p r3.Vector) error {
	if err := checkFinite(p); err != nil {
		return err
	}
	cloud.points = append(cloud.points, p)
	cloud.meta.Merge(p)
	return nil
}

func (cloud *basicPointCloud) At(i int) r3.Vector {
	return cloud.points[i]
}

func (cloud *basicPointCloud) Iterate(numBatches, myBatch int, fn func(p r3.Vector) bool) {
	for i, p := range cloud.points {
		if numBatches > 0 && i%numBatches != myBatch {
			continue
		}
		if !fn(p) {
			return
		}
	}
}

func (cloud *basicPointCloud) Points() []r3.Vector {
	out := make([]r3.Vector, len(cloud.points))
	copy(out, cloud.points)
	return out
}

func checkFinite(p r3.Vector) error {
	for _, c := range []struct {
		name string
		val  float64
	}{{"x", p.X}, {"y", p.Y}, {"z", p.Z}} {
		if math.IsNaN(c.val) || math.IsInf(c.val, 0) {
			return errors.Errorf("%s component (%v) is not finite", c.name, c.val)
		}
	}
	return nil
}

// Merge appends every point of every cloud, in order, into a new cloud.
func Merge(clouds ...PointCloud) PointCloud {
	total := 0
	for _, pc := range clouds {
		total += pc.Size()
	}
	out := &basicPointCloud{points: make([]r3.Vector, 0, total), meta: NewMetaData()}
	for _, pc := range clouds {
		pc.Iterate(0, 0, func(p r3.Vector) bool {
			// already validated by the source cloud
			out.points = append(out.points, p)
			out.meta.Merge(p)
			return true
		})
	}
	return out
}
