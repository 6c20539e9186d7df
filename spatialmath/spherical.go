package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ErrZeroDirection is returned when a direction vector has no usable length.
var ErrZeroDirection = errors.New("direction vector must have a finite, nonzero length")

// SphericalCoords are the camera angles derived from a direction vector. Polar is measured so that
// a direction along +y maps to pi/2 and the xz-plane maps to 0; Azimuth is the angle in the
// xz-plane measured from +x towards +z.
type SphericalCoords struct {
	R       float64
	Polar   float64
	Azimuth float64
}

// ToSpherical converts a direction vector to spherical coordinates. The vector does not need to be
// normalized.
func ToSpherical(v r3.Vector) (SphericalCoords, error) {
	r := v.Norm()
	if r == 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return SphericalCoords{}, errors.Wrapf(ErrZeroDirection, "got %v", v)
	}
	// y/r can drift just past +-1 at the poles
	cosPolar := math.Max(-1, math.Min(1, v.Y/r))
	return SphericalCoords{
		R:       r,
		Polar:   math.Pi/2 - math.Acos(cosPolar),
		Azimuth: math.Atan2(v.Z, v.X),
	}, nil
}
