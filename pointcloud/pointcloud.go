// Package pointcloud defines an ordered point cloud and the operations meshscan runs on it:
// merging, voxel downsampling, and reading and writing PCD, PLY and LAS files.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData creates a new MetaData whose bounds are inverted, so the first merged point
// becomes both the min and max.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the bounds with the given point.
func (meta *MetaData) Merge(v r3.Vector) {
	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
}

// Min returns the min corner of the bounding box.
func (meta MetaData) Min() r3.Vector {
	return r3.Vector{meta.MinX, meta.MinY, meta.MinZ}
}

// Max returns the max corner of the bounding box.
func (meta MetaData) Max() r3.Vector {
	return r3.Vector{meta.MaxX, meta.MaxY, meta.MaxZ}
}

// Center returns the center of the bounding box.
func (meta MetaData) Center() r3.Vector {
	return meta.Min().Add(meta.Max()).Mul(0.5)
}

// MaxSideLength returns the longest side of the bounding box.
func (meta MetaData) MaxSideLength() float64 {
	return math.Max(meta.MaxX-meta.MinX, math.Max(meta.MaxY-meta.MinY, meta.MaxZ-meta.MinZ))
}

// PointCloud is an ordered sequence of points. Points keep their insertion order and duplicates
// are kept.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns meta data
	MetaData() MetaData

	// Append adds a point at the end of the cloud. Non-finite points are rejected.
	Append(p r3.Vector) error

	// At returns the i'th point.
	At(i int) r3.Vector

	// Iterate iterates over all points in the cloud in order and calls the given function for
	// each point. If the supplied function returns false, iteration will stop after the function
	// returns.
	// numBatches lets you divide up he work. 0 means don't divide
	// myBatch is used iff numBatches > 0 and is which batch you want
	Iterate(numBatches, myBatch int, fn func(p r3.Vector) bool)

	// Points returns a copy of the points.
	Points() []r3.Vector
}

// CloudCentroid returns the mean of the points, or the zero vector for an empty cloud.
func CloudCentroid(pc PointCloud) r3.Vector {
	if pc.Size() == 0 {
		return r3.Vector{}
	}
	var sum r3.Vector
	pc.Iterate(0, 0, func(p r3.Vector) bool {
		sum = sum.Add(p)
		return true
	})
	return sum.Mul(1 / float64(pc.Size()))
}
