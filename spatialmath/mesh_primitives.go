package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// NewIcosphere returns a unit sphere made by subdividing an icosahedron. Each subdivision splits
// every triangle into four; vertex counts go 12, 42, 162, 642, ...
func NewIcosphere(subdivisions int) *Mesh {
	t := (1 + math.Sqrt(5)) / 2
	vertices := []r3.Vector{
		{-1, t, 0}, {1, t, 0}, {-1, -t, 0}, {1, -t, 0},
		{0, -1, t}, {0, 1, t}, {0, -1, -t}, {0, 1, -t},
		{t, 0, -1}, {t, 0, 1}, {-t, 0, -1}, {-t, 0, 1},
	}
	for i, v := range vertices {
		vertices[i] = v.Normalize()
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}

	for s := 0; s < subdivisions; s++ {
		midpoints := map[[2]int]int{}
		midpoint := func(a, b int) int {
			key := [2]int{a, b}
			if b < a {
				key = [2]int{b, a}
			}
			if idx, ok := midpoints[key]; ok {
				return idx
			}
			vertices = append(vertices, vertices[a].Add(vertices[b]).Normalize())
			midpoints[key] = len(vertices) - 1
			return len(vertices) - 1
		}
		next := make([][3]int, 0, 4*len(faces))
		for _, f := range faces {
			ab := midpoint(f[0], f[1])
			bc := midpoint(f[1], f[2])
			ca := midpoint(f[2], f[0])
			next = append(next,
				[3]int{f[0], ab, ca},
				[3]int{f[1], bc, ab},
				[3]int{f[2], ca, bc},
				[3]int{ab, bc, ca},
			)
		}
		faces = next
	}
	return &Mesh{Vertices: vertices, Faces: faces}
}

// NewBoxMesh returns an axis-aligned box centered at the origin with the given edge lengths,
// with outward-facing counter-clockwise faces.
func NewBoxMesh(dims r3.Vector) *Mesh {
	h := dims.Mul(0.5)
	vertices := []r3.Vector{
		{-h.X, -h.Y, -h.Z}, {h.X, -h.Y, -h.Z}, {h.X, h.Y, -h.Z}, {-h.X, h.Y, -h.Z},
		{-h.X, -h.Y, h.Z}, {h.X, -h.Y, h.Z}, {h.X, h.Y, h.Z}, {-h.X, h.Y, h.Z},
	}
	faces := [][3]int{
		{0, 2, 1}, {0, 3, 2}, // -z
		{4, 5, 6}, {4, 6, 7}, // +z
		{0, 1, 5}, {0, 5, 4}, // -y
		{3, 7, 6}, {3, 6, 2}, // +y
		{0, 4, 7}, {0, 7, 3}, // -x
		{1, 2, 6}, {1, 6, 5}, // +x
	}
	return &Mesh{Vertices: vertices, Faces: faces}
}
