// Package render produces depth maps of a mesh as seen from a camera pose.
package render

import (
	"context"

	"go.viam.com/meshscan/rimage"
	"go.viam.com/meshscan/rimage/transform"
	"go.viam.com/meshscan/spatialmath"
)

// A DepthRenderer captures the camera-space depth of its scene from a given extrinsic. Depths
// are positive distances along the optical axis; pixels that see nothing are 0.
type DepthRenderer interface {
	Intrinsics() *transform.PinholeCameraIntrinsics
	RenderDepth(ctx context.Context, ext *spatialmath.Extrinsic) (*rimage.DepthMap, error)
}

type viewIndexKeyType int

const viewIndexKeyID = viewIndexKeyType(iota)

// WithViewIndex returns a context that tells renderers which view of a scan is being captured.
func WithViewIndex(ctx context.Context, index int) context.Context {
	return context.WithValue(ctx, viewIndexKeyID, index)
}

// ViewIndex returns the view index attached with WithViewIndex.
func ViewIndex(ctx context.Context) (int, bool) {
	index, ok := ctx.Value(viewIndexKeyID).(int)
	return index, ok
}
