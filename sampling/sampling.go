// Package sampling provides the strategies that choose the directions from which a mesh is
// scanned.
package sampling

import (
	"iter"
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshscan/spatialmath"
)

// Names of the built-in strategies as used in configuration.
const (
	TypeSphere    = "sphere"
	TypeFibonacci = "fibonacci"
	TypeGeodesic  = "geodesic"
	TypeRandom    = "random"
)

// A DirectionSampler yields a finite sequence of viewing directions. Directions may be called
// any number of times and yields the same sequence each time.
type DirectionSampler interface {
	Name() string
	Len() int
	Directions() iter.Seq[r3.Vector]
}

func sliceSeq(vs []r3.Vector) iter.Seq[r3.Vector] {
	return func(yield func(r3.Vector) bool) {
		for _, v := range vs {
			if !yield(v) {
				return
			}
		}
	}
}

// MeshVertices yields every vertex of a normalized sphere mesh, in file order.
type MeshVertices struct {
	vertices []r3.Vector
}

// NewMeshVertices normalizes a copy of the given mesh and samples its vertices.
// Zero-length vertices are kept; they are rejected later by the pose sampler.
func NewMeshVertices(sphere *spatialmath.Mesh) (*MeshVertices, error) {
	if sphere == nil {
		return nil, errors.New("sphere mesh is required for the sphere sampler")
	}
	normalized, err := sphere.Normalized()
	if err != nil {
		return nil, errors.Wrap(err, "normalizing sphere mesh")
	}
	return &MeshVertices{vertices: normalized.Vertices}, nil
}

// Name returns the strategy name.
func (s *MeshVertices) Name() string { return TypeSphere }

// Len returns the number of vertices.
func (s *MeshVertices) Len() int { return len(s.vertices) }

// Directions yields the vertices.
func (s *MeshVertices) Directions() iter.Seq[r3.Vector] { return sliceSeq(s.vertices) }

// goldenAngle is pi * (3 - sqrt(5)).
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// Fibonacci places N directions on a golden-angle spiral; each covers roughly equal area.
type Fibonacci struct {
	N int
}

// Name returns the strategy name.
func (s Fibonacci) Name() string { return TypeFibonacci }

// Len returns N.
func (s Fibonacci) Len() int { return max(s.N, 0) }

// Directions yields unit vectors from the north end of the spiral to the south end.
func (s Fibonacci) Directions() iter.Seq[r3.Vector] {
	return func(yield func(r3.Vector) bool) {
		for i := 0; i < s.N; i++ {
			y := 1 - 2*(float64(i)+0.5)/float64(s.N)
			r := math.Sqrt(1 - y*y)
			theta := goldenAngle * float64(i)
			if !yield(r3.Vector{X: math.Cos(theta) * r, Y: y, Z: math.Sin(theta) * r}) {
				return
			}
		}
	}
}

// Geodesic yields the vertices of an icosahedron subdivided Subdivisions times, projected to
// the unit sphere: 12, 42, 162, 642, ... directions.
type Geodesic struct {
	Subdivisions int
	vertices     []r3.Vector
}

// NewGeodesic builds the subdivided icosahedron once.
func NewGeodesic(subdivisions int) (*Geodesic, error) {
	if subdivisions < 0 {
		return nil, errors.Errorf("subdivisions must be non-negative, got %d", subdivisions)
	}
	if subdivisions > 8 {
		return nil, errors.Errorf("subdivisions must be at most 8, got %d", subdivisions)
	}
	ico := spatialmath.NewIcosphere(subdivisions)
	vertices := make([]r3.Vector, 0, len(ico.Vertices))
	seen := map[r3.Vector]bool{}
	for _, v := range ico.Vertices {
		v = v.Normalize()
		if seen[v] {
			continue
		}
		seen[v] = true
		vertices = append(vertices, v)
	}
	return &Geodesic{Subdivisions: subdivisions, vertices: vertices}, nil
}

// Name returns the strategy name.
func (s *Geodesic) Name() string { return TypeGeodesic }

// Len returns the number of vertices.
func (s *Geodesic) Len() int { return len(s.vertices) }

// Directions yields the vertices.
func (s *Geodesic) Directions() iter.Seq[r3.Vector] { return sliceSeq(s.vertices) }

// Random yields N uniformly distributed unit vectors. The same Seed always yields the same
// directions.
type Random struct {
	N    int
	Seed int64
}

// Name returns the strategy name.
func (s Random) Name() string { return TypeRandom }

// Len returns N.
func (s Random) Len() int { return max(s.N, 0) }

// Directions yields normalized gaussian samples.
func (s Random) Directions() iter.Seq[r3.Vector] {
	return func(yield func(r3.Vector) bool) {
		//nolint:gosec
		rng := rand.New(rand.NewSource(s.Seed))
		for i := 0; i < s.N; {
			v := r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}
			if v.Norm() < 1e-9 {
				continue
			}
			i++
			if !yield(v.Normalize()) {
				return
			}
		}
	}
}
