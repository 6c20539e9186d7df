package scan

import (
	"slices"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshscan/pointcloud"
)

// ViewStats describes one captured view.
type ViewStats struct {
	Index         int
	Direction     r3.Vector
	Points        int
	RenderTime    time.Duration
	UnprojectTime time.Duration
}

// SkippedView records a view that produced no points and why. A view that failed after its
// pose was computed still has a camera center.
type SkippedView struct {
	Index           int
	Direction       r3.Vector
	CameraCenter    r3.Vector
	HasCameraCenter bool
	Err             error
}

// A Partial is the outcome of a single view: either a cloud with its camera center, or the
// error that caused the view to be skipped.
type Partial struct {
	Index        int
	Direction    r3.Vector
	Cloud        pointcloud.PointCloud
	CameraCenter r3.Vector
	// HasCameraCenter is set once the pose is known, even if the view is later skipped.
	HasCameraCenter bool
	Stats           ViewStats
	Err             error
}

// Aggregate is the merged result of a scan. It is immutable: every accessor returns a copy and
// Merge returns a new value.
type Aggregate struct {
	clouds  []pointcloud.PointCloud
	centers []r3.Vector
	posed   []r3.Vector
	views   []ViewStats
	skipped []SkippedView
	size    int
}

// Merge folds one partial into an aggregate. Neither argument is modified.
func Merge(agg Aggregate, p Partial) Aggregate {
	kept := p.Err == nil && p.Cloud != nil
	if p.HasCameraCenter || kept {
		agg.posed = append(slices.Clip(agg.posed), p.CameraCenter)
	}
	if !kept {
		agg.skipped = append(slices.Clip(agg.skipped), SkippedView{
			Index:           p.Index,
			Direction:       p.Direction,
			CameraCenter:    p.CameraCenter,
			HasCameraCenter: p.HasCameraCenter,
			Err:             p.Err,
		})
		return agg
	}
	agg.clouds = append(slices.Clip(agg.clouds), p.Cloud)
	agg.centers = append(slices.Clip(agg.centers), p.CameraCenter)
	agg.views = append(slices.Clip(agg.views), p.Stats)
	agg.size += p.Cloud.Size()
	return agg
}

// Size returns the total number of points.
func (a *Aggregate) Size() int {
	return a.size
}

// Cloud returns every point of every view, in view order then pixel order.
func (a *Aggregate) Cloud() pointcloud.PointCloud {
	return pointcloud.Merge(a.clouds...)
}

// CameraCenters returns the world position of the camera for each kept view, parallel to
// Views.
func (a *Aggregate) CameraCenters() []r3.Vector {
	return slices.Clone(a.centers)
}

// AllCameraCenters returns the camera center of every view whose pose could be computed, in
// direction order. Unlike CameraCenters it includes views skipped after posing.
func (a *Aggregate) AllCameraCenters() []r3.Vector {
	return slices.Clone(a.posed)
}

// Views returns stats for each kept view in direction order.
func (a *Aggregate) Views() []ViewStats {
	return slices.Clone(a.views)
}

// Skipped returns the views that were skipped.
func (a *Aggregate) Skipped() []SkippedView {
	return slices.Clone(a.skipped)
}

// Downsampled returns the aggregate cloud reduced to one point per voxel.
func (a *Aggregate) Downsampled(voxelSize float64) (pointcloud.PointCloud, error) {
	return a.Reduce(Reduction{VoxelSize: voxelSize})
}

// Reduction describes how the aggregate cloud is thinned before it is written.
type Reduction struct {
	// Clip keeps only the points inside [ClipMin, ClipMax] before downsampling.
	Clip             bool
	ClipMin, ClipMax r3.Vector
	// EveryK > 0 keeps every k-th point instead of downsampling by voxel.
	EveryK    int
	VoxelSize float64
}

// Reduce clips and then downsamples the aggregate cloud.
func (a *Aggregate) Reduce(r Reduction) (pointcloud.PointCloud, error) {
	cloud := a.Cloud()
	if r.Clip {
		clipped, err := pointcloud.ClipPointCloud(cloud, r.ClipMin, r.ClipMax)
		if err != nil {
			return nil, err
		}
		if clipped.Size() == 0 {
			return nil, errors.Wrapf(pointcloud.ErrEmptyCloud, "clip box %v to %v removed every point", r.ClipMin, r.ClipMax)
		}
		cloud = clipped
	}
	if r.EveryK > 0 {
		return pointcloud.UniformDownSample(cloud, r.EveryK)
	}
	return pointcloud.VoxelDownSample(cloud, r.VoxelSize)
}
