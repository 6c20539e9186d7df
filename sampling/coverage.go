package sampling

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// CoverageStats summarizes the angular distance, in radians, from each direction to its
// nearest neighbour.
type CoverageStats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	// Spacing holds each direction's nearest-neighbour angle, in input order.
	Spacing []float64
}

// Coverage measures how evenly a set of directions covers the sphere. A uniform set has a
// small StdDev relative to its Mean.
func Coverage(directions []r3.Vector) (CoverageStats, error) {
	if len(directions) < 2 {
		return CoverageStats{}, errors.Errorf("coverage needs at least 2 directions, got %d", len(directions))
	}
	unit := make([]r3.Vector, len(directions))
	for i, d := range directions {
		n := d.Norm()
		if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
			return CoverageStats{}, errors.Errorf("direction %d (%v) has no orientation", i, d)
		}
		unit[i] = d.Mul(1 / n)
	}

	nearest := make(stats.Float64Data, len(unit))
	for i, a := range unit {
		best := math.Pi
		for j, b := range unit {
			if i == j {
				continue
			}
			best = math.Min(best, math.Acos(math.Max(-1, math.Min(1, a.Dot(b)))))
		}
		nearest[i] = best
	}

	mean, err := nearest.Mean()
	if err != nil {
		return CoverageStats{}, err
	}
	sd, err := nearest.StandardDeviation()
	if err != nil {
		return CoverageStats{}, err
	}
	lo, err := nearest.Min()
	if err != nil {
		return CoverageStats{}, err
	}
	hi, err := nearest.Max()
	if err != nil {
		return CoverageStats{}, err
	}
	return CoverageStats{Count: len(unit), Mean: mean, StdDev: sd, Min: lo, Max: hi, Spacing: nearest}, nil
}
