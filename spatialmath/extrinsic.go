package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultCameraDistance is how far along its own z axis every sampled camera sits from the origin.
const DefaultCameraDistance = 2.

// Extrinsic is a rigid world-to-camera transform: p_cam = Rotation * p_world + Translation.
type Extrinsic struct {
	Rotation    *RotationMatrix
	Translation r3.Vector
}

// NewExtrinsic returns the transform made of the given rotation and translation.
func NewExtrinsic(rotation *RotationMatrix, translation r3.Vector) *Extrinsic {
	return &Extrinsic{Rotation: rotation, Translation: translation}
}

// PoseForDirection returns the extrinsic for a camera looking at the origin from direction v.
// The rotation is Ry(azimuth) * Rx(polar) and the translation is fixed at (0, 0, cameraDistance)
// regardless of |v|.
func PoseForDirection(v r3.Vector, cameraDistance float64) (*Extrinsic, error) {
	if !(cameraDistance > 0) || math.IsInf(cameraDistance, 0) {
		return nil, errors.Errorf("camera distance must be positive and finite, got %v", cameraDistance)
	}
	sph, err := ToSpherical(v)
	if err != nil {
		return nil, err
	}
	return &Extrinsic{
		Rotation:    NewRotationMatrixXY(sph.Polar, sph.Azimuth),
		Translation: r3.Vector{Z: cameraDistance},
	}, nil
}

// TransformPoint maps a world point into camera space.
func (e *Extrinsic) TransformPoint(p r3.Vector) r3.Vector {
	return e.Rotation.Apply(p).Add(e.Translation)
}

// Inverse returns the camera-to-world transform.
func (e *Extrinsic) Inverse() *Extrinsic {
	rt := e.Rotation.Transpose()
	return &Extrinsic{Rotation: rt, Translation: rt.Apply(e.Translation).Mul(-1)}
}

// CameraCenter is the camera position in world space, the translation of the inverse transform.
func (e *Extrinsic) CameraCenter() r3.Vector {
	return e.Inverse().Translation
}

// Matrix returns the 4x4 homogeneous matrix of the transform.
func (e *Extrinsic) Matrix() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, e.Rotation.At(r, c))
		}
	}
	m.Set(0, 3, e.Translation.X)
	m.Set(1, 3, e.Translation.Y)
	m.Set(2, 3, e.Translation.Z)
	m.Set(3, 3, 1)
	return m
}

// NewExtrinsicFromMatrix reads a 4x4 homogeneous matrix back into an Extrinsic. The bottom row
// must be (0, 0, 0, 1) and the upper-left block must be a proper rotation.
func NewExtrinsicFromMatrix(m mat.Matrix) (*Extrinsic, error) {
	if r, c := m.Dims(); r != 4 || c != 4 {
		return nil, errors.Errorf("extrinsic must be 4x4, got %dx%d", r, c)
	}
	const tol = 1e-9
	if math.Abs(m.At(3, 0)) > tol || math.Abs(m.At(3, 1)) > tol || math.Abs(m.At(3, 2)) > tol || math.Abs(m.At(3, 3)-1) > tol {
		return nil, errors.New("extrinsic bottom row must be (0, 0, 0, 1)")
	}
	rm := &RotationMatrix{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rm.mat[3*r+c] = m.At(r, c)
		}
	}
	if !rm.IsOrthonormal(1e-6) {
		return nil, errors.New("extrinsic rotation block is not orthonormal")
	}
	return &Extrinsic{Rotation: rm, Translation: r3.Vector{m.At(0, 3), m.At(1, 3), m.At(2, 3)}}, nil
}
