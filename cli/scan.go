package cli

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/meshscan/config"
	"go.viam.com/meshscan/logging"
	"go.viam.com/meshscan/pointcloud"
	"go.viam.com/meshscan/render"
	"go.viam.com/meshscan/sampling"
	"go.viam.com/meshscan/scan"
	"go.viam.com/meshscan/spatialmath"
)

// ScanAction scans a mesh and writes the downsampled cloud. With --watch it scans again
// whenever the mesh, sphere or config file changes.
func ScanAction(c *cli.Context) error {
	logger, closeLogger := newLogger(c)
	defer closeLogger()

	cfg, err := scanConfig(c, logger)
	if err != nil {
		return err
	}
	if err := scanOnce(c, cfg, logger); err != nil {
		return err
	}
	if !c.Bool(flagWatch) {
		return nil
	}
	paths := []string{cfg.MeshPath, cfg.SpherePath, cfg.IntrinsicsFile, c.Path(flagConfig)}
	return watchAndRerun(c.Context, paths, defaultRerunDelay, logger, func() error {
		cfg, err := scanConfig(c, logger)
		if err != nil {
			return err
		}
		return scanOnce(c, cfg, logger)
	})
}

func scanOnce(c *cli.Context, cfg *config.Config, logger logging.Logger) error {
	mesh, err := loadMesh(cfg.MeshPath, logger)
	if err != nil {
		return err
	}
	var sphere *spatialmath.Mesh
	if cfg.Sampler.Type == sampling.TypeSphere {
		sphere, err = spatialmath.NewMeshFromPLYFile(cfg.SpherePath)
		if err != nil {
			return errors.Wrapf(err, "loading sphere %q", cfg.SpherePath)
		}
	}
	sampler, err := sampling.NewFromConfig(cfg.Sampler, sphere)
	if err != nil {
		return err
	}

	params, err := cfg.CameraIntrinsics()
	if err != nil {
		return err
	}
	var renderer render.DepthRenderer
	renderer, err = render.NewRasterizer(mesh, params)
	if err != nil {
		return err
	}
	if cfg.Output.DepthDir != "" {
		recorder, err := render.NewRecorder(renderer, cfg.Output.DepthDir, logger.Sublogger("depth"))
		if err != nil {
			return err
		}
		recorder.Previews = cfg.Output.DepthPreviews
		renderer = recorder
	}

	opts := scan.Options{
		Sampler:        sampler,
		Renderer:       renderer,
		CameraDistance: cfg.CameraDistance,
		Workers:        cfg.Workers,
		Logger:         logger.Sublogger("scan"),
	}
	var progress *renderProgress
	if c.Bool(flagProgress) {
		progress, err = startRenderProgress(defaultSpinnerFactory, sampler.Len())
		if err != nil {
			return errors.Wrap(err, "starting progress display")
		}
		opts.Progress = progress.Update
	}
	scanner, err := scan.NewScanner(opts)
	if err != nil {
		return err
	}
	agg, err := scanner.Scan(c.Context)
	if err == nil && agg.Size() == 0 {
		err = errors.New("scan produced no points; every view was empty or skipped")
	}
	if progress != nil {
		progress.Finish(err)
	}
	if err != nil {
		return err
	}

	down, err := agg.Reduce(reduction(cfg))
	if err != nil {
		return err
	}
	if err := pointcloud.WriteToFile(down, cfg.Output.Cloud); err != nil {
		return errors.Wrapf(err, "writing %q", cfg.Output.Cloud)
	}
	info, err := os.Stat(cfg.Output.Cloud)
	if err != nil {
		return err
	}
	size := units.HumanSize(float64(info.Size()))
	logger.Infow("wrote point cloud",
		"path", cfg.Output.Cloud, "points", down.Size(), "downsample", cfg.Downsample.Type, "voxel_size", cfg.VoxelSize, "size", size)

	if cfg.Output.Centers != "" {
		centers, err := pointcloud.NewFromPoints(agg.AllCameraCenters())
		if err != nil {
			return err
		}
		if err := pointcloud.WriteToFile(centers, cfg.Output.Centers); err != nil {
			return errors.Wrapf(err, "writing %q", cfg.Output.Centers)
		}
	}
	if cfg.Output.CentersPlot != "" {
		if err := scan.PlotCameraCenters(agg.AllCameraCenters(), cfg.Output.CentersPlot); err != nil {
			return err
		}
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Sampler", "Views", "Skipped", "Raw points", "Downsampled", "Output", "Size"})
	t.AppendRow(table.Row{
		sampler.Name(),
		len(agg.Views()),
		len(agg.Skipped()),
		agg.Size(),
		down.Size(),
		cfg.Output.Cloud,
		size,
	})
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// scanConfig reads the optional config file and layers flags on top.
func scanConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	cfg := &config.Config{}
	if c.IsSet(flagConfig) {
		read, err := config.Read(c.Path(flagConfig), logger)
		if err != nil {
			return nil, err
		}
		cfg = read
	}

	if c.IsSet(flagMesh) {
		cfg.MeshPath = c.Path(flagMesh)
	}
	if c.IsSet(flagSphere) {
		cfg.SpherePath = c.Path(flagSphere)
	}
	if c.IsSet(flagWidth) || c.IsSet(flagHeight) {
		// explicit image size replaces configured intrinsics
		cfg.Intrinsics = nil
		cfg.IntrinsicsFile = ""
	}
	if c.IsSet(flagIntrinsics) {
		cfg.Intrinsics = nil
		cfg.IntrinsicsFile = c.Path(flagIntrinsics)
	}
	if c.IsSet(flagWidth) {
		cfg.Width = c.Int(flagWidth)
	}
	if c.IsSet(flagHeight) {
		cfg.Height = c.Int(flagHeight)
	}
	if c.IsSet(flagFOV) {
		cfg.FieldOfView = c.Float64(flagFOV)
	}
	if c.IsSet(flagCameraDistance) {
		cfg.CameraDistance = c.Float64(flagCameraDistance)
	}
	if c.IsSet(flagVoxelSize) {
		cfg.VoxelSize = c.Float64(flagVoxelSize)
	}
	if c.IsSet(flagDownsample) {
		cfg.Downsample.Type = c.String(flagDownsample)
	}
	if c.IsSet(flagEveryK) {
		cfg.Downsample.EveryK = c.Int(flagEveryK)
	}
	if c.IsSet(flagClipMin) || c.IsSet(flagClipMax) {
		clip, err := clipFromFlags(c, cfg.Clip)
		if err != nil {
			return nil, err
		}
		cfg.Clip = clip
	}
	if c.IsSet(flagWorkers) {
		cfg.Workers = c.Int(flagWorkers)
	}
	if c.IsSet(flagOut) {
		cfg.Output.Cloud = c.Path(flagOut)
	}
	if c.IsSet(flagCentersOut) {
		cfg.Output.Centers = c.Path(flagCentersOut)
	}
	if c.IsSet(flagCentersPlot) {
		cfg.Output.CentersPlot = c.Path(flagCentersPlot)
	}
	if c.IsSet(flagDepthDir) {
		cfg.Output.DepthDir = c.Path(flagDepthDir)
	}
	if c.IsSet(flagDepthPreviews) {
		cfg.Output.DepthPreviews = c.Bool(flagDepthPreviews)
	}
	applySamplerFlags(c, &cfg.Sampler)

	cfg.ApplyDefaults()
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	logger.Debugw("scan configuration", "config", fmt.Sprintf("%+v", *cfg))
	return cfg, nil
}

// clipFromFlags layers --clip-min and --clip-max over the configured box. A corner missing from
// both is an error.
func clipFromFlags(c *cli.Context, base *config.ClipConfig) (*config.ClipConfig, error) {
	clip := &config.ClipConfig{}
	if base != nil {
		*clip = *base
	}
	for _, corner := range []struct {
		flag string
		dst  *[3]float64
	}{{flagClipMin, &clip.Min}, {flagClipMax, &clip.Max}} {
		if !c.IsSet(corner.flag) {
			if base == nil {
				return nil, errors.Errorf("--%s and --%s must be given together", flagClipMin, flagClipMax)
			}
			continue
		}
		values := c.Float64Slice(corner.flag)
		if len(values) != 3 {
			return nil, errors.Errorf("--%s needs 3 values, got %d", corner.flag, len(values))
		}
		copy(corner.dst[:], values)
	}
	return clip, nil
}

// reduction turns the clip and downsample settings into a scan.Reduction.
func reduction(cfg *config.Config) scan.Reduction {
	r := scan.Reduction{VoxelSize: cfg.VoxelSize}
	if cfg.Downsample.Type == config.DownsampleUniform {
		r.EveryK = cfg.Downsample.EveryK
	}
	if cfg.Clip != nil {
		r.Clip = true
		r.ClipMin, r.ClipMax = cfg.Clip.Bounds()
	}
	return r
}
