// Package scan captures a mesh from many directions and folds the unprojected views into a
// single point cloud.
package scan

import (
	"context"
	"math"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"go.viam.com/meshscan/logging"
	"go.viam.com/meshscan/render"
	"go.viam.com/meshscan/rimage"
	"go.viam.com/meshscan/rimage/transform"
	"go.viam.com/meshscan/sampling"
	"go.viam.com/meshscan/spatialmath"
)

// Options configure a Scanner.
type Options struct {
	Sampler  sampling.DirectionSampler
	Renderer render.DepthRenderer
	// CameraDistance is the z translation of every extrinsic. Zero means
	// spatialmath.DefaultCameraDistance.
	CameraDistance float64
	// Workers > 1 captures every depth map first and then unprojects them concurrently.
	Workers int
	Logger  logging.Logger
	Clock   clock.Clock
	// Progress, if set, is called after each view is rendered with the number of views
	// rendered so far. It runs on the goroutine that called Scan.
	Progress func(done, total int)
}

// Scanner runs the capture loop. The renderer is only ever called from one goroutine.
type Scanner struct {
	sampler        sampling.DirectionSampler
	renderer       render.DepthRenderer
	cameraDistance float64
	workers        int
	logger         logging.Logger
	clk            clock.Clock
	progress       func(done, total int)
}

// NewScanner validates opts and returns a Scanner.
func NewScanner(opts Options) (*Scanner, error) {
	if opts.Sampler == nil {
		return nil, errors.New("scanner requires a direction sampler")
	}
	if opts.Renderer == nil {
		return nil, errors.New("scanner requires a depth renderer")
	}
	if err := opts.Renderer.Intrinsics().CheckValid(); err != nil {
		return nil, err
	}
	dist := opts.CameraDistance
	if dist == 0 {
		dist = spatialmath.DefaultCameraDistance
	}
	if !(dist > 0) || math.IsInf(dist, 0) {
		return nil, errors.Errorf("camera distance must be positive and finite, got %v", opts.CameraDistance)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Global()
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Scanner{
		sampler:        opts.Sampler,
		renderer:       opts.Renderer,
		cameraDistance: dist,
		workers:        max(opts.Workers, 1),
		logger:         logger,
		clk:            clk,
		progress:       opts.Progress,
	}, nil
}

// capture is a view after rendering and before unprojection.
type capture struct {
	partial Partial
	ext     *spatialmath.Extrinsic
	dm      *rimage.DepthMap
}

// Scan visits every direction of the sampler in order. Views that fail are logged and
// skipped; only context cancellation aborts the scan.
func (s *Scanner) Scan(ctx context.Context) (*Aggregate, error) {
	runID := uuid.New().String()
	s.logger.Infow("starting scan", "run_id", runID,
		"sampler", s.sampler.Name(), "directions", s.sampler.Len(),
		"camera_distance", s.cameraDistance, "workers", s.workers)

	var partials []Partial
	var err error
	if s.workers > 1 {
		partials, err = s.scanBuffered(ctx)
	} else {
		partials, err = s.scanSequential(ctx)
	}
	if err != nil {
		return nil, err
	}

	for _, p := range partials {
		if p.Err != nil {
			s.logger.Warnw("skipping view", "run_id", runID, "index", p.Index, "direction", p.Direction, "error", p.Err)
		}
	}
	agg := lo.Reduce(partials, func(agg Aggregate, p Partial, _ int) Aggregate {
		return Merge(agg, p)
	}, Aggregate{})

	s.logger.Infow("scan complete", "run_id", runID,
		"views", len(agg.views), "skipped", len(agg.skipped), "points", agg.Size())
	return &agg, nil
}

func (s *Scanner) scanSequential(ctx context.Context) ([]Partial, error) {
	partials := make([]Partial, 0, s.sampler.Len())
	i := 0
	for dir := range s.sampler.Directions() {
		c, err := s.capture(ctx, i, dir)
		if err != nil {
			return nil, err
		}
		s.reportProgress(i + 1)
		if c.partial.Err == nil {
			s.unproject(&c)
		}
		partials = append(partials, c.partial)
		i++
	}
	return partials, nil
}

func (s *Scanner) scanBuffered(ctx context.Context) ([]Partial, error) {
	captures := make([]capture, 0, s.sampler.Len())
	i := 0
	for dir := range s.sampler.Directions() {
		c, err := s.capture(ctx, i, dir)
		if err != nil {
			return nil, err
		}
		s.reportProgress(i + 1)
		captures = append(captures, c)
		i++
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for idx := range captures {
		if captures[idx].partial.Err != nil {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s.unproject(&captures[idx])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lo.Map(captures, func(c capture, _ int) Partial { return c.partial }), nil
}

func (s *Scanner) reportProgress(done int) {
	if s.progress != nil {
		s.progress(done, s.sampler.Len())
	}
}

// capture computes the pose and renders one view. Per-view failures are recorded on the
// partial; the returned error is only set when ctx is done.
func (s *Scanner) capture(ctx context.Context, index int, dir r3.Vector) (capture, error) {
	if err := ctx.Err(); err != nil {
		return capture{}, err
	}
	c := capture{partial: Partial{Index: index, Direction: dir}}
	c.partial.Stats = ViewStats{Index: index, Direction: dir}

	ext, err := spatialmath.PoseForDirection(dir, s.cameraDistance)
	if err != nil {
		c.partial.Err = err
		return c, nil
	}
	c.ext = ext
	c.partial.CameraCenter = ext.CameraCenter()
	c.partial.HasCameraCenter = true

	start := s.clk.Now()
	dm, err := s.renderer.RenderDepth(render.WithViewIndex(ctx, index), ext)
	c.partial.Stats.RenderTime = s.clk.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return capture{}, ctxErr
		}
		c.partial.Err = errors.Wrap(err, "rendering depth")
		return c, nil
	}
	c.dm = dm
	return c, nil
}

// unproject fills in the cloud of a rendered view. Each call only touches its own capture.
func (s *Scanner) unproject(c *capture) {
	start := s.clk.Now()
	pc, err := transform.UnprojectWithExtrinsic(c.dm, s.renderer.Intrinsics(), c.ext)
	c.partial.Stats.UnprojectTime = s.clk.Since(start)
	c.dm = nil
	if err != nil {
		c.partial.Err = err
		return
	}
	c.partial.Cloud = pc
	c.partial.Stats.Points = pc.Size()
	s.logger.Debugw("captured view",
		"index", c.partial.Index, "points", pc.Size(),
		"render_time", c.partial.Stats.RenderTime, "unproject_time", c.partial.Stats.UnprojectTime)
}
