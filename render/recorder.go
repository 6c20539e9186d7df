package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/meshscan/logging"
	"go.viam.com/meshscan/rimage"
	"go.viam.com/meshscan/rimage/transform"
	"go.viam.com/meshscan/spatialmath"
)

// Recorder is a DepthRenderer that writes every frame the wrapped renderer produces to a
// directory as depth_NNNN.dat.gz. NNNN is the view index from the context (see WithViewIndex)
// so files line up with scan logs even when views are skipped. Without one, frames are
// numbered in call order.
type Recorder struct {
	DepthRenderer
	// Previews also saves a colored depth_NNNN.png next to each frame.
	Previews bool
	dir      string
	logger   logging.Logger

	mu    sync.Mutex
	frame int
}

// NewRecorder creates dir if needed and wraps r.
func NewRecorder(r DepthRenderer, dir string, logger logging.Logger) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.Wrapf(err, "creating depth frame directory %q", dir)
	}
	return &Recorder{DepthRenderer: r, dir: dir, logger: logger}, nil
}

// Intrinsics returns the wrapped renderer's intrinsics.
func (r *Recorder) Intrinsics() *transform.PinholeCameraIntrinsics {
	return r.DepthRenderer.Intrinsics()
}

// RenderDepth renders with the wrapped renderer and saves the result.
func (r *Recorder) RenderDepth(ctx context.Context, ext *spatialmath.Extrinsic) (*rimage.DepthMap, error) {
	r.mu.Lock()
	frame := r.frame
	r.frame++
	r.mu.Unlock()
	if index, ok := ViewIndex(ctx); ok {
		frame = index
	}

	dm, err := r.DepthRenderer.RenderDepth(ctx, ext)
	if err != nil {
		return nil, err
	}
	fn := filepath.Join(r.dir, fmt.Sprintf("depth_%04d.dat.gz", frame))
	if err := rimage.WriteDepthMapToFile(dm, fn); err != nil {
		return nil, errors.Wrapf(err, "saving depth frame %d", frame)
	}
	if r.Previews {
		png := filepath.Join(r.dir, fmt.Sprintf("depth_%04d.png", frame))
		if err := rimage.WriteDepthPreview(dm, png); err != nil {
			return nil, errors.Wrapf(err, "saving depth preview %d", frame)
		}
	}
	r.logger.Debugw("saved depth frame", "frame", frame, "path", fn, "nonzero", dm.NonZeroCount())
	return dm, nil
}
