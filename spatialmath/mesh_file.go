package spatialmath

import (
	"fmt"
	"io"
	"os"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// NewMeshFromPLYFile reads a triangle mesh from a PLY file.
func NewMeshFromPLYFile(path string) (*Mesh, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening PLY file")
	}
	defer utils.UncheckedErrorFunc(f.Close)
	mesh, err := NewMeshFromPLY(f)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading %q", path)
	}
	return mesh, nil
}

// NewMeshFromPLY reads a triangle mesh from PLY data. Faces with more than three vertices are
// triangulated as a fan around their first vertex. A file without faces yields a mesh with
// vertices only, which is enough to serve as a set of sampling directions.
func NewMeshFromPLY(r io.Reader) (mesh *Mesh, err error) {
	// goply panics on malformed headers and bodies
	defer func() {
		if rec := recover(); rec != nil {
			mesh = nil
			err = errors.Errorf("malformed PLY data: %v", rec)
		}
	}()
	ply := goply.New(r)

	vertexElems := ply.Elements("vertex")
	vertices := make([]r3.Vector, 0, len(vertexElems))
	for i, v := range vertexElems {
		var coords [3]float64
		for j, name := range []string{"x", "y", "z"} {
			val, ok := v[name]
			if !ok {
				return nil, errors.Errorf("vertex %d has no %q property", i, name)
			}
			coords[j], err = plyFloat(val)
			if err != nil {
				return nil, errors.Wrapf(err, "vertex %d property %q", i, name)
			}
		}
		vertices = append(vertices, r3.Vector{coords[0], coords[1], coords[2]})
	}

	var faces [][3]int
	for i, f := range ply.Elements("face") {
		idxIface, ok := f["vertex_indices"]
		if !ok {
			idxIface, ok = f["vertex_index"]
		}
		if !ok {
			return nil, errors.Errorf("face %d has no vertex_indices property", i)
		}
		list, ok := idxIface.([]interface{})
		if !ok {
			return nil, errors.Errorf("face %d vertex_indices is %T, not a list", i, idxIface)
		}
		if len(list) < 3 {
			return nil, errors.Errorf("face %d has %d vertices, need at least 3", i, len(list))
		}
		idxs := make([]int, len(list))
		for j, raw := range list {
			if idxs[j], err = plyInt(raw); err != nil {
				return nil, errors.Wrapf(err, "face %d", i)
			}
		}
		for j := 1; j+1 < len(idxs); j++ {
			faces = append(faces, [3]int{idxs[0], idxs[j], idxs[j+1]})
		}
	}
	return NewMesh(vertices, faces)
}

func plyFloat(val interface{}) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int8, int16, int32, int64, int, uint8, uint16, uint32, uint64, uint:
		i, err := plyInt(v)
		return float64(i), err
	}
	return 0, fmt.Errorf("unsupported numeric type %T", val)
}

func plyInt(val interface{}) (int, error) {
	switch v := val.(type) {
	case int8:
		return int(v), nil
	case int16:
		return int(v), nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case int:
		return v, nil
	case uint8:
		return int(v), nil
	case uint16:
		return int(v), nil
	case uint32:
		return int(v), nil
	case uint64:
		return int(v), nil
	case uint:
		return int(v), nil
	}
	return 0, fmt.Errorf("unsupported index type %T", val)
}
