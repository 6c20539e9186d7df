package transform

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/meshscan/pointcloud"
	"go.viam.com/meshscan/rimage"
	"go.viam.com/meshscan/spatialmath"
)

// ErrDegenerateMatrix is returned when an intrinsic or extrinsic matrix cannot be inverted.
var ErrDegenerateMatrix = errors.New("matrix is not invertible")

// Unproject lifts every pixel with a nonzero depth into world coordinates. The intrinsic matrix
// must be 3x3 and the extrinsic matrix 4x4 (world to camera). Points are produced in row-major
// pixel order; zero-depth pixels contribute nothing.
func Unproject(dm *rimage.DepthMap, intrinsic, extrinsic mat.Matrix) (pointcloud.PointCloud, error) {
	if dm == nil {
		return nil, errors.New("cannot unproject a nil depth map")
	}
	if r, c := intrinsic.Dims(); r != 3 || c != 3 {
		return nil, errors.Errorf("intrinsic matrix must be 3x3, got %dx%d", r, c)
	}
	if r, c := extrinsic.Dims(); r != 4 || c != 4 {
		return nil, errors.Errorf("extrinsic matrix must be 4x4, got %dx%d", r, c)
	}

	var kInv, eInv mat.Dense
	if err := invert(&kInv, intrinsic); err != nil {
		return nil, errors.Wrap(err, "intrinsic")
	}
	if err := invert(&eInv, extrinsic); err != nil {
		return nil, errors.Wrap(err, "extrinsic")
	}

	pc := pointcloud.NewWithPrealloc(dm.NonZeroCount())
	pix := mat.NewVecDense(3, nil)
	cam := mat.NewVecDense(3, nil)
	hom := mat.NewVecDense(4, nil)
	world := mat.NewVecDense(4, nil)
	for v := 0; v < dm.Height(); v++ {
		for u := 0; u < dm.Width(); u++ {
			d := dm.GetDepth(u, v)
			if d == 0 {
				continue
			}
			pix.SetVec(0, float64(u)*d)
			pix.SetVec(1, float64(v)*d)
			pix.SetVec(2, d)
			cam.MulVec(&kInv, pix)

			hom.SetVec(0, cam.AtVec(0))
			hom.SetVec(1, cam.AtVec(1))
			hom.SetVec(2, cam.AtVec(2))
			hom.SetVec(3, 1)
			world.MulVec(&eInv, hom)

			p := r3.Vector{X: world.AtVec(0), Y: world.AtVec(1), Z: world.AtVec(2)}
			if w := world.AtVec(3); w != 1 {
				p = p.Mul(1 / w)
			}
			if err := pc.Append(p); err != nil {
				return nil, errors.Wrapf(err, "pixel (%d, %d)", u, v)
			}
		}
	}
	return pc, nil
}

// UnprojectWithExtrinsic is Unproject for a pinhole camera placed by a rigid extrinsic.
func UnprojectWithExtrinsic(
	dm *rimage.DepthMap,
	params *PinholeCameraIntrinsics,
	extrinsic *spatialmath.Extrinsic,
) (pointcloud.PointCloud, error) {
	if err := params.CheckValid(); err != nil {
		return nil, err
	}
	if extrinsic == nil {
		return nil, errors.New("cannot unproject without an extrinsic")
	}
	if dm != nil && (dm.Width() != params.Width || dm.Height() != params.Height) {
		return nil, errors.Errorf("depth map is %dx%d but intrinsics are %dx%d",
			dm.Width(), dm.Height(), params.Width, params.Height)
	}
	return Unproject(dm, params.Matrix(), extrinsic.Matrix())
}

// ProjectWorldPoint maps a world point to (u, v, depth) with the given intrinsic and extrinsic
// matrices. It is the inverse of the per-pixel step of Unproject.
func ProjectWorldPoint(p r3.Vector, intrinsic, extrinsic mat.Matrix) (r3.Vector, error) {
	if r, c := intrinsic.Dims(); r != 3 || c != 3 {
		return r3.Vector{}, errors.Errorf("intrinsic matrix must be 3x3, got %dx%d", r, c)
	}
	if r, c := extrinsic.Dims(); r != 4 || c != 4 {
		return r3.Vector{}, errors.Errorf("extrinsic matrix must be 4x4, got %dx%d", r, c)
	}
	var cam mat.VecDense
	cam.MulVec(extrinsic, mat.NewVecDense(4, []float64{p.X, p.Y, p.Z, 1}))
	var uvd mat.VecDense
	uvd.MulVec(intrinsic, cam.SliceVec(0, 3))
	d := uvd.AtVec(2)
	if d == 0 || math.IsNaN(d) {
		return r3.Vector{}, errors.Errorf("point %v projects onto the camera plane", p)
	}
	return r3.Vector{X: uvd.AtVec(0) / d, Y: uvd.AtVec(1) / d, Z: d}, nil
}

func invert(dst *mat.Dense, m mat.Matrix) error {
	if err := dst.Inverse(m); err != nil {
		return errors.Wrap(ErrDegenerateMatrix, err.Error())
	}
	return nil
}
