package spatialmath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

const poseTol = 1e-9

func TestToSpherical(t *testing.T) {
	t.Run("unit x axis", func(t *testing.T) {
		sph, err := ToSpherical(r3.Vector{1, 0, 0})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sph.R, test.ShouldAlmostEqual, 1.)
		test.That(t, sph.Polar, test.ShouldAlmostEqual, 0.)
		test.That(t, sph.Azimuth, test.ShouldAlmostEqual, 0.)
	})

	t.Run("poles", func(t *testing.T) {
		// pi/2 - acos(1)
		sph, err := ToSpherical(r3.Vector{0, 1, 0})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sph.Polar, test.ShouldAlmostEqual, math.Pi/2)

		// pi/2 - acos(-1)
		sph, err = ToSpherical(r3.Vector{0, -3, 0})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sph.R, test.ShouldAlmostEqual, 3.)
		test.That(t, sph.Polar, test.ShouldAlmostEqual, -math.Pi/2)
	})

	t.Run("pole drift is clamped", func(t *testing.T) {
		sph, err := ToSpherical(r3.Vector{1e-300, 1, 0})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, math.IsNaN(sph.Polar), test.ShouldBeFalse)
		test.That(t, sph.Polar, test.ShouldAlmostEqual, math.Pi/2)
	})

	t.Run("azimuth quadrants", func(t *testing.T) {
		sph, err := ToSpherical(r3.Vector{0, 0, 2})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sph.Azimuth, test.ShouldAlmostEqual, math.Pi/2)

		sph, err = ToSpherical(r3.Vector{-1, 0, 0})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sph.Azimuth, test.ShouldAlmostEqual, math.Pi)

		sph, err = ToSpherical(r3.Vector{-1, 0, -1})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, sph.Azimuth, test.ShouldAlmostEqual, -3*math.Pi/4)
	})

	t.Run("zero and non-finite vectors", func(t *testing.T) {
		for _, v := range []r3.Vector{{}, {math.NaN(), 0, 0}, {math.Inf(1), 0, 0}} {
			_, err := ToSpherical(v)
			test.That(t, errors.Is(err, ErrZeroDirection), test.ShouldBeTrue)
		}
	})
}

func TestRotationMatrixBasics(t *testing.T) {
	rx := NewRotationMatrixX(math.Pi / 2)
	expected := []float64{
		1, 0, 0,
		0, 0, -1,
		0, 1, 0,
	}
	for i, want := range expected {
		test.That(t, rx.At(i/3, i%3), test.ShouldAlmostEqual, want)
	}

	ry := NewRotationMatrixY(math.Pi / 2)
	test.That(t, ry.Apply(r3.Vector{0, 0, 1}).X, test.ShouldAlmostEqual, 1.)
	test.That(t, ry.Apply(r3.Vector{1, 0, 0}).Z, test.ShouldAlmostEqual, -1.)

	// x rotation is applied first
	composed := NewRotationMatrixXY(0.3, -1.1)
	v := r3.Vector{0.2, -0.7, 1.5}
	direct := composed.Apply(v)
	stepwise := NewRotationMatrixY(-1.1).Apply(NewRotationMatrixX(0.3).Apply(v))
	test.That(t, direct.Sub(stepwise).Norm(), test.ShouldBeLessThan, poseTol)

	test.That(t, rx.Transpose().Mul(rx).IsOrthonormal(poseTol), test.ShouldBeTrue)
	test.That(t, IdentityRotation().Det(), test.ShouldEqual, 1.)

	_, err := NewRotationMatrix([]float64{1, 2, 3})
	test.That(t, err, test.ShouldNotBeNil)
	skew, err := NewRotationMatrix([]float64{1, 1, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, skew.IsOrthonormal(1e-6), test.ShouldBeFalse)
}

func TestPoseForDirectionOrthonormal(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		v := r3.Vector{rnd.NormFloat64(), rnd.NormFloat64(), rnd.NormFloat64()}.Mul(rnd.Float64()*10 + 1e-3)
		ext, err := PoseForDirection(v, DefaultCameraDistance)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, ext.Rotation.IsOrthonormal(poseTol), test.ShouldBeTrue)
		test.That(t, ext.Rotation.Det(), test.ShouldAlmostEqual, 1., poseTol)
		test.That(t, ext.Translation, test.ShouldResemble, r3.Vector{0, 0, 2})
		test.That(t, ext.CameraCenter().Norm(), test.ShouldAlmostEqual, 2., poseTol)
	}
}

func TestPoseForDirectionKnownValues(t *testing.T) {
	t.Run("x axis gives identity rotation", func(t *testing.T) {
		ext, err := PoseForDirection(r3.Vector{1, 0, 0}, DefaultCameraDistance)
		test.That(t, err, test.ShouldBeNil)
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				want := 0.
				if r == c {
					want = 1
				}
				test.That(t, ext.Rotation.At(r, c), test.ShouldAlmostEqual, want)
			}
		}
		test.That(t, ext.CameraCenter().Sub(r3.Vector{0, 0, -2}).Norm(), test.ShouldBeLessThan, poseTol)
	})

	t.Run("north pole gives a quarter turn about x", func(t *testing.T) {
		ext, err := PoseForDirection(r3.Vector{0, 5, 0}, DefaultCameraDistance)
		test.That(t, err, test.ShouldBeNil)
		expected := []float64{
			1, 0, 0,
			0, 0, -1,
			0, 1, 0,
		}
		for i, want := range expected {
			test.That(t, ext.Rotation.At(i/3, i%3), test.ShouldAlmostEqual, want)
		}
		// translation does not follow the direction's length
		test.That(t, ext.Translation, test.ShouldResemble, r3.Vector{0, 0, 2})
	})

	t.Run("matrix layout", func(t *testing.T) {
		ext, err := PoseForDirection(r3.Vector{0.3, 0.4, -0.5}, 3.5)
		test.That(t, err, test.ShouldBeNil)
		m := ext.Matrix()
		r, c := m.Dims()
		test.That(t, r, test.ShouldEqual, 4)
		test.That(t, c, test.ShouldEqual, 4)
		test.That(t, m.At(0, 3), test.ShouldEqual, 0.)
		test.That(t, m.At(1, 3), test.ShouldEqual, 0.)
		test.That(t, m.At(2, 3), test.ShouldEqual, 3.5)
		test.That(t, m.RawRowView(3), test.ShouldResemble, []float64{0, 0, 0, 1})

		var inv mat.Dense
		test.That(t, inv.Inverse(m), test.ShouldBeNil)
		test.That(t, mat.EqualApprox(&inv, ext.Inverse().Matrix(), poseTol), test.ShouldBeTrue)

		back, err := NewExtrinsicFromMatrix(m)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, mat.EqualApprox(back.Matrix(), m, poseTol), test.ShouldBeTrue)
	})

	t.Run("bad inputs", func(t *testing.T) {
		_, err := PoseForDirection(r3.Vector{}, DefaultCameraDistance)
		test.That(t, errors.Is(err, ErrZeroDirection), test.ShouldBeTrue)

		_, err = PoseForDirection(r3.Vector{1, 0, 0}, 0)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = PoseForDirection(r3.Vector{1, 0, 0}, math.NaN())
		test.That(t, err, test.ShouldNotBeNil)

		_, err = NewExtrinsicFromMatrix(mat.NewDense(3, 3, nil))
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestExtrinsicRoundTrip(t *testing.T) {
	ext, err := PoseForDirection(r3.Vector{-0.2, 0.9, 0.4}, DefaultCameraDistance)
	test.That(t, err, test.ShouldBeNil)
	p := r3.Vector{0.1, -0.25, 0.6}
	back := ext.Inverse().TransformPoint(ext.TransformPoint(p))
	test.That(t, back.Sub(p).Norm(), test.ShouldBeLessThan, poseTol)

	// the camera center maps to the camera origin
	test.That(t, ext.TransformPoint(ext.CameraCenter()).Norm(), test.ShouldBeLessThan, poseTol)
}
