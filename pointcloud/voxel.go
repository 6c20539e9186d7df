package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrEmptyCloud is returned by operations that need at least one point.
var ErrEmptyCloud = errors.New("point cloud has no points")

// VoxelCoords stores Voxel coordinates in VoxelGrid axes.
type VoxelCoords struct {
	I, J, K int64
}

// GetVoxelCoordinates returns the key of the voxel holding pt in a grid of cubes of side
// voxelSize whose (0, 0, 0) voxel starts at ptMin.
func GetVoxelCoordinates(pt, ptMin r3.Vector, voxelSize float64) VoxelCoords {
	ref := pt.Sub(ptMin).Mul(1 / voxelSize)
	return VoxelCoords{
		I: int64(math.Floor(ref.X)),
		J: int64(math.Floor(ref.Y)),
		K: int64(math.Floor(ref.Z)),
	}
}

type accumulatedPoint struct {
	sum r3.Vector
	n   int
}

// VoxelDownSample replaces all points that fall into the same cube of side voxelSize by their
// mean. The grid is anchored half a voxel below the cloud's min corner. Output points are ordered
// by the first input point that touched their voxel.
func VoxelDownSample(pc PointCloud, voxelSize float64) (PointCloud, error) {
	if pc.Size() == 0 {
		return nil, ErrEmptyCloud
	}
	if !(voxelSize > 0) || math.IsInf(voxelSize, 0) {
		return nil, errors.Errorf("voxel size must be positive and finite, got %v", voxelSize)
	}
	meta := pc.MetaData()
	half := r3.Vector{voxelSize / 2, voxelSize / 2, voxelSize / 2}
	voxelMin := meta.Min().Sub(half)
	voxelMax := meta.Max().Add(half)
	extent := voxelMax.Sub(voxelMin)
	if voxelSize*math.MaxInt32 < math.Max(extent.X, math.Max(extent.Y, extent.Z)) {
		return nil, errors.Errorf("voxel size %v is too small for a cloud spanning %v", voxelSize, extent)
	}

	index := map[VoxelCoords]int{}
	var acc []accumulatedPoint
	pc.Iterate(0, 0, func(p r3.Vector) bool {
		key := GetVoxelCoordinates(p, voxelMin, voxelSize)
		i, ok := index[key]
		if !ok {
			i = len(acc)
			index[key] = i
			acc = append(acc, accumulatedPoint{})
		}
		acc[i].sum = acc[i].sum.Add(p)
		acc[i].n++
		return true
	})

	out := NewWithPrealloc(len(acc))
	for _, a := range acc {
		if err := out.Append(a.sum.Mul(1 / float64(a.n))); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// UniformDownSample keeps every k-th point, starting with the first.
func UniformDownSample(pc PointCloud, everyK int) (PointCloud, error) {
	if pc.Size() == 0 {
		return nil, ErrEmptyCloud
	}
	if everyK <= 0 {
		return nil, errors.Errorf("sample rate must be positive, got %d", everyK)
	}
	out := NewWithPrealloc((pc.Size() + everyK - 1) / everyK)
	for i := 0; i < pc.Size(); i += everyK {
		if err := out.Append(pc.At(i)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ClipPointCloud keeps the points inside the closed box [minBound, maxBound], in order. The
// result may be empty.
func ClipPointCloud(pc PointCloud, minBound, maxBound r3.Vector) (PointCloud, error) {
	if pc.Size() == 0 {
		return nil, ErrEmptyCloud
	}
	if minBound.X > maxBound.X || minBound.Y > maxBound.Y || minBound.Z > maxBound.Z {
		return nil, errors.Errorf("clip bounds are inverted: min %v, max %v", minBound, maxBound)
	}
	out := New()
	var err error
	pc.Iterate(0, 0, func(p r3.Vector) bool {
		if p.X < minBound.X || p.X > maxBound.X ||
			p.Y < minBound.Y || p.Y > maxBound.Y ||
			p.Z < minBound.Z || p.Z > maxBound.Z {
			return true
		}
		err = out.Append(p)
		return err == nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
