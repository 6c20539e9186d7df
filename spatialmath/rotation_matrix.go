package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrixX returns the right-handed rotation by theta radians about the x axis.
func NewRotationMatrixX(theta float64) *RotationMatrix {
	s, c := math.Sincos(theta)
	return &RotationMatrix{[9]float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	}}
}

// NewRotationMatrixY returns the right-handed rotation by theta radians about the y axis.
func NewRotationMatrixY(theta float64) *RotationMatrix {
	s, c := math.Sincos(theta)
	return &RotationMatrix{[9]float64{
		c, 0, s,
		0, 1, 0,
		-s, 0, c,
	}}
}

// NewRotationMatrixXY returns Ry(ry) * Rx(rx): the x rotation is applied first.
func NewRotationMatrixXY(rx, ry float64) *RotationMatrix {
	return NewRotationMatrixY(ry).Mul(NewRotationMatrixX(rx))
}

// NewRotationMatrix creates a rotation matrix from 9 row major values. No orthonormality check is
// performed; use IsOrthonormal when the input is untrusted.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.Errorf("input slice has %d elements, need exactly 9", len(m))
	}
	rm := &RotationMatrix{}
	copy(rm.mat[:], m)
	return rm, nil
}

// IdentityRotation returns the identity rotation.
func IdentityRotation() *RotationMatrix {
	return &RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// At returns the element at row r and column c.
func (rm *RotationMatrix) At(r, c int) float64 {
	return rm.mat[3*r+c]
}

// Row returns the row at index r.
func (rm *RotationMatrix) Row(r int) r3.Vector {
	return r3.Vector{rm.mat[3*r], rm.mat[3*r+1], rm.mat[3*r+2]}
}

// Col returns the column at index c.
func (rm *RotationMatrix) Col(c int) r3.Vector {
	return r3.Vector{rm.mat[c], rm.mat[c+3], rm.mat[c+6]}
}

// Mul returns rm * other.
func (rm *RotationMatrix) Mul(other *RotationMatrix) *RotationMatrix {
	out := &RotationMatrix{}
	for r := 0; r < 3; r++ {
		row := rm.Row(r)
		for c := 0; c < 3; c++ {
			out.mat[3*r+c] = row.Dot(other.Col(c))
		}
	}
	return out
}

// Transpose returns the transpose, which for a rotation is also the inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	out := &RotationMatrix{}
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out.mat[3*c+r] = rm.mat[3*r+c]
		}
	}
	return out
}

// Apply rotates the vector.
func (rm *RotationMatrix) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{rm.Row(0).Dot(v), rm.Row(1).Dot(v), rm.Row(2).Dot(v)}
}

// Det returns the determinant.
func (rm *RotationMatrix) Det() float64 {
	return rm.Row(0).Dot(rm.Row(1).Cross(rm.Row(2)))
}

// IsOrthonormal reports whether R^T R = I and det(R) = 1 within tol.
func (rm *RotationMatrix) IsOrthonormal(tol float64) bool {
	rtr := rm.Transpose().Mul(rm)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			want := 0.
			if r == c {
				want = 1
			}
			if math.Abs(rtr.At(r, c)-want) > tol {
				return false
			}
		}
	}
	return math.Abs(rm.Det()-1) <= tol
}

// Dense returns the matrix as a gonum dense matrix.
func (rm *RotationMatrix) Dense() *mat.Dense {
	data := make([]float64, 9)
	copy(data, rm.mat[:])
	return mat.NewDense(3, 3, data)
}
