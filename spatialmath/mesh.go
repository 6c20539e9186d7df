package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyMesh is returned when an operation needs at least one vertex.
	ErrEmptyMesh = errors.New("mesh has no vertices")
	// ErrDegenerateMesh is returned when all vertices coincide so the mesh cannot be scaled.
	ErrDegenerateMesh = errors.New("mesh is degenerate: all vertices coincide")
)

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Vertices []r3.Vector
	Faces    [][3]int
}

// NewMesh creates a mesh, checking every face index against the vertex list.
func NewMesh(vertices []r3.Vector, faces [][3]int) (*Mesh, error) {
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(vertices) {
				return nil, errors.Errorf("face %d references vertex %d, mesh has %d vertices", i, idx, len(vertices))
			}
		}
	}
	return &Mesh{Vertices: vertices, Faces: faces}, nil
}

// Triangles returns one Triangle per face.
func (m *Mesh) Triangles() []*Triangle {
	tris := make([]*Triangle, 0, len(m.Faces))
	for _, f := range m.Faces {
		tris = append(tris, NewTriangle(m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]))
	}
	return tris
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	vertices := make([]r3.Vector, len(m.Vertices))
	copy(vertices, m.Vertices)
	faces := make([][3]int, len(m.Faces))
	copy(faces, m.Faces)
	return &Mesh{Vertices: vertices, Faces: faces}
}

// BoundingBox returns the min and max corners of the axis-aligned box around the vertices.
func (m *Mesh) BoundingBox() (r3.Vector, r3.Vector, error) {
	if len(m.Vertices) == 0 {
		return r3.Vector{}, r3.Vector{}, ErrEmptyMesh
	}
	minPt := r3.Vector{math.Inf(1), math.Inf(1), math.Inf(1)}
	maxPt := r3.Vector{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range m.Vertices {
		minPt = r3.Vector{math.Min(minPt.X, v.X), math.Min(minPt.Y, v.Y), math.Min(minPt.Z, v.Z)}
		maxPt = r3.Vector{math.Max(maxPt.X, v.X), math.Max(maxPt.Y, v.Y), math.Max(maxPt.Z, v.Z)}
	}
	return minPt, maxPt, nil
}

// Normalize recenters the mesh on its bounding box center and scales it so that the box diagonal
// has length 2, i.e. the box fits in the unit sphere. The mesh is unchanged on error.
func (m *Mesh) Normalize() error {
	minPt, maxPt, err := m.BoundingBox()
	if err != nil {
		return err
	}
	extent := maxPt.Sub(minPt)
	center := minPt.Add(extent.Mul(0.5))
	scale := extent.Norm() / 2
	if scale == 0 {
		return ErrDegenerateMesh
	}
	for i, v := range m.Vertices {
		m.Vertices[i] = v.Sub(center).Mul(1 / scale)
	}
	return nil
}

// Normalized returns a normalized copy, leaving the receiver untouched.
func (m *Mesh) Normalized() (*Mesh, error) {
	out := m.Clone()
	if err := out.Normalize(); err != nil {
		return nil, err
	}
	return out, nil
}
