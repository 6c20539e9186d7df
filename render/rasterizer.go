package render

import (
	"context"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/meshscan/rimage"
	"go.viam.com/meshscan/rimage/transform"
	"go.viam.com/meshscan/spatialmath"
)

// DefaultNear is the closest camera-space depth a triangle vertex may have and still be drawn.
const DefaultNear = 1e-3

// how many triangles are drawn between context checks.
const ctxCheckInterval = 1024

// Rasterizer is a software z-buffer renderer over a triangle mesh. Both sides of every
// triangle are drawn.
type Rasterizer struct {
	mesh *spatialmath.Mesh
	// faces with zero area are dropped up front
	faces      [][3]int
	intrinsics *transform.PinholeCameraIntrinsics
	// Near drops any triangle with a vertex at or in front of this depth.
	Near float64
}

// NewRasterizer creates a rasterizer for the mesh. The mesh is not copied and must not be
// modified while the rasterizer is in use.
func NewRasterizer(mesh *spatialmath.Mesh, intrinsics *transform.PinholeCameraIntrinsics) (*Rasterizer, error) {
	if mesh == nil {
		return nil, errors.New("cannot render a nil mesh")
	}
	if err := intrinsics.CheckValid(); err != nil {
		return nil, err
	}
	faces := make([][3]int, 0, len(mesh.Faces))
	for i, tri := range mesh.Triangles() {
		if tri.Area() == 0 {
			continue
		}
		faces = append(faces, mesh.Faces[i])
	}
	return &Rasterizer{mesh: mesh, faces: faces, intrinsics: intrinsics, Near: DefaultNear}, nil
}

// FaceCount is the number of non-degenerate faces that will be drawn.
func (r *Rasterizer) FaceCount() int {
	return len(r.faces)
}

// Intrinsics returns the camera intrinsics used for projection.
func (r *Rasterizer) Intrinsics() *transform.PinholeCameraIntrinsics {
	return r.intrinsics
}

// screenVertex is a vertex in pixel coordinates with its camera-space depth.
type screenVertex struct {
	X, Y float64
	Z    float64
}

// RenderDepth draws the mesh into a new depth map.
func (r *Rasterizer) RenderDepth(ctx context.Context, ext *spatialmath.Extrinsic) (*rimage.DepthMap, error) {
	if ext == nil {
		return nil, errors.New("cannot render without an extrinsic")
	}
	width, height := r.intrinsics.Width, r.intrinsics.Height

	// camera space, once per vertex
	projected := make([]screenVertex, len(r.mesh.Vertices))
	for i, v := range r.mesh.Vertices {
		c := ext.TransformPoint(v)
		u, vv, z := r.intrinsics.ProjectPoint(c)
		projected[i] = screenVertex{X: u, Y: vv, Z: z}
	}

	zbuffer := make([]float64, width*height)
	for i := range zbuffer {
		zbuffer[i] = math.MaxFloat64
	}

	for n, face := range r.faces {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		sv := [3]screenVertex{projected[face[0]], projected[face[1]], projected[face[2]]}
		if sv[0].Z <= r.Near || sv[1].Z <= r.Near || sv[2].Z <= r.Near {
			continue
		}
		drawTriangle(zbuffer, width, height, sv)
	}

	dm := rimage.NewEmptyDepthMap(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if z := zbuffer[y*width+x]; z != math.MaxFloat64 {
				dm.Set(x, y, z)
			}
		}
	}
	return dm, nil
}

// drawTriangle fills pixels whose centers fall inside the triangle. Pixel (x, y) is centered at
// the continuous coordinate (x, y), matching the principal point convention of the intrinsics.
func drawTriangle(zbuffer []float64, width, height int, sv [3]screenVertex) {
	area := edge(sv[0].X, sv[0].Y, sv[1].X, sv[1].Y, sv[2].X, sv[2].Y)
	if area == 0 || math.IsNaN(area) {
		return
	}

	minX := int(math.Max(0, math.Ceil(min(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(float64(width-1), math.Floor(max(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Ceil(min(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(float64(height-1), math.Floor(max(sv[0].Y, sv[1].Y, sv[2].Y))))

	invZ := r3.Vector{X: 1 / sv[0].Z, Y: 1 / sv[1].Z, Z: 1 / sv[2].Z}
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			px, py := float64(x), float64(y)
			// normalized barycentrics; dividing by the signed area makes the test winding-free
			w0 := edge(sv[1].X, sv[1].Y, sv[2].X, sv[2].Y, px, py) / area
			w1 := edge(sv[2].X, sv[2].Y, sv[0].X, sv[0].Y, px, py) / area
			w2 := 1 - w0 - w1
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			// 1/z is linear in screen space
			z := 1 / r3.Vector{X: w0, Y: w1, Z: w2}.Dot(invZ)
			idx := y*width + x
			if z < zbuffer[idx] {
				zbuffer[idx] = z
			}
		}
	}
}

func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}
