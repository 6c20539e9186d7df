// Package config defines the structures to configure a scan.
package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/meshscan/rimage/transform"
	"go.viam.com/meshscan/sampling"
	"go.viam.com/meshscan/spatialmath"
)

// Defaults applied to unset fields.
const (
	DefaultWidth     = 320
	DefaultHeight    = 320
	DefaultVoxelSize = 0.05
	DefaultOutput    = "output.ply"
)

// Downsampling methods applied to the merged cloud.
const (
	DownsampleVoxel   = "voxel"
	DownsampleUniform = "uniform"
)

// Config describes a complete scan: the mesh, the camera, how directions are chosen, and where
// results go.
type Config struct {
	ConfigFilePath string `json:"-"`

	MeshPath       string                             `json:"mesh"`
	SpherePath     string                             `json:"sphere,omitempty"`
	Width          int                                `json:"width_px,omitempty"`
	Height         int                                `json:"height_px,omitempty"`
	FieldOfView    float64                            `json:"fov_degs,omitempty"`
	Intrinsics     *transform.PinholeCameraIntrinsics `json:"intrinsic_parameters,omitempty"`
	IntrinsicsFile string                             `json:"intrinsics_file,omitempty"`
	CameraDistance float64                            `json:"camera_distance,omitempty"`
	Sampler        sampling.Config                    `json:"sampler"`
	VoxelSize      float64                            `json:"voxel_size,omitempty"`
	Downsample     DownsampleConfig                   `json:"downsample,omitempty"`
	Clip           *ClipConfig                        `json:"clip,omitempty"`
	Workers        int                                `json:"workers,omitempty"`
	Output         OutputConfig                       `json:"output"`
}

// DownsampleConfig selects how the merged cloud is thinned. Voxel downsampling uses the
// top-level voxel_size.
type DownsampleConfig struct {
	Type   string `json:"type,omitempty"`
	EveryK int    `json:"every_k,omitempty"`
}

// ClipConfig is an axis-aligned box, inclusive on every side. Points outside it are dropped
// before downsampling.
type ClipConfig struct {
	Min [3]float64 `json:"min"`
	Max [3]float64 `json:"max"`
}

// Bounds returns the box corners as vectors.
func (c *ClipConfig) Bounds() (r3.Vector, r3.Vector) {
	return r3.Vector{X: c.Min[0], Y: c.Min[1], Z: c.Min[2]}, r3.Vector{X: c.Max[0], Y: c.Max[1], Z: c.Max[2]}
}

// OutputConfig lists the files a scan writes. Only Cloud is required.
type OutputConfig struct {
	Cloud       string `json:"cloud"`
	Centers     string `json:"centers,omitempty"`
	CentersPlot string `json:"centers_plot,omitempty"`
	DepthDir    string `json:"depth_dir,omitempty"`
	// DepthPreviews also writes a colored PNG next to every saved depth map.
	DepthPreviews bool `json:"depth_previews,omitempty"`
}

// ApplyDefaults fills in every unset field.
func (c *Config) ApplyDefaults() {
	if c.Intrinsics != nil {
		c.Width, c.Height = c.Intrinsics.Width, c.Intrinsics.Height
	}
	if c.Width == 0 {
		c.Width = DefaultWidth
	}
	if c.Height == 0 {
		c.Height = DefaultHeight
	}
	if c.FieldOfView == 0 {
		c.FieldOfView = transform.DefaultFieldOfView
	}
	if c.CameraDistance == 0 {
		c.CameraDistance = spatialmath.DefaultCameraDistance
	}
	if c.VoxelSize == 0 {
		c.VoxelSize = DefaultVoxelSize
	}
	if c.Downsample.Type == "" {
		c.Downsample.Type = DownsampleVoxel
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Sampler.Type == "" {
		if c.SpherePath != "" {
			c.Sampler.Type = sampling.TypeSphere
		} else {
			c.Sampler.Type = sampling.TypeFibonacci
		}
	}
	if c.Output.Cloud == "" {
		c.Output.Cloud = DefaultOutput
	}
}

// Validate ensures all parts of the config are valid. It expects defaults to be applied.
func (c *Config) Validate(path string) error {
	if c.MeshPath == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "mesh")
	}
	if c.Width <= 0 || c.Height <= 0 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("image size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.Intrinsics != nil && c.IntrinsicsFile != "" {
		return utils.NewConfigValidationError(joinPath(path, "intrinsics_file"),
			errors.New("cannot be combined with intrinsic_parameters"))
	}
	switch {
	case c.IntrinsicsFile != "":
		// the file is checked when it is loaded
	case c.Intrinsics != nil:
		if err := c.Intrinsics.CheckValid(); err != nil {
			return utils.NewConfigValidationError(joinPath(path, "intrinsic_parameters"), err)
		}
	case !(c.FieldOfView > 0 && c.FieldOfView < 180):
		return utils.NewConfigValidationError(joinPath(path, "fov_degs"),
			errors.Errorf("must be in (0, 180), got %v", c.FieldOfView))
	}
	if !(c.CameraDistance > 0) || math.IsInf(c.CameraDistance, 0) {
		return utils.NewConfigValidationError(joinPath(path, "camera_distance"),
			errors.Errorf("must be positive and finite, got %v", c.CameraDistance))
	}
	if !(c.VoxelSize > 0) {
		return utils.NewConfigValidationError(joinPath(path, "voxel_size"),
			errors.Errorf("must be positive, got %v", c.VoxelSize))
	}
	switch c.Downsample.Type {
	case DownsampleVoxel:
	case DownsampleUniform:
		if c.Downsample.EveryK <= 0 {
			return utils.NewConfigValidationError(joinPath(path, "downsample.every_k"),
				errors.Errorf("must be positive for uniform downsampling, got %d", c.Downsample.EveryK))
		}
	default:
		return utils.NewConfigValidationError(joinPath(path, "downsample.type"),
			errors.Errorf("unknown downsampling method %q", c.Downsample.Type))
	}
	if c.Clip != nil {
		minBound, maxBound := c.Clip.Bounds()
		if minBound.X > maxBound.X || minBound.Y > maxBound.Y || minBound.Z > maxBound.Z {
			return utils.NewConfigValidationError(joinPath(path, "clip"),
				errors.Errorf("min %v exceeds max %v", c.Clip.Min, c.Clip.Max))
		}
	}
	if c.Workers < 0 {
		return utils.NewConfigValidationError(joinPath(path, "workers"),
			errors.Errorf("must not be negative, got %d", c.Workers))
	}
	if err := c.Sampler.Validate(joinPath(path, "sampler")); err != nil {
		return err
	}
	if c.Sampler.Type == sampling.TypeSphere && c.SpherePath == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "sphere")
	}
	if c.Output.DepthPreviews && c.Output.DepthDir == "" {
		return utils.NewConfigValidationFieldRequiredError(joinPath(path, "output"), "depth_dir")
	}
	switch ext := strings.ToLower(filepath.Ext(c.Output.Cloud)); ext {
	case ".pcd", ".ply", ".las":
	default:
		return utils.NewConfigValidationError(joinPath(path, "output.cloud"),
			errors.Errorf("unsupported point cloud extension %q", ext))
	}
	return nil
}

// CameraIntrinsics returns the configured intrinsics, loading them from IntrinsicsFile when set,
// or ones derived from the image size and field of view.
func (c *Config) CameraIntrinsics() (*transform.PinholeCameraIntrinsics, error) {
	if c.IntrinsicsFile != "" {
		params, err := transform.NewPinholeCameraIntrinsicsFromJSONFile(c.IntrinsicsFile)
		if err != nil {
			return nil, errors.Wrapf(err, "loading intrinsics from %q", c.IntrinsicsFile)
		}
		return params, nil
	}
	if c.Intrinsics != nil {
		return c.Intrinsics, c.Intrinsics.CheckValid()
	}
	return transform.NewDefaultIntrinsics(c.Width, c.Height, c.FieldOfView)
}

func joinPath(path, field string) string {
	if path == "" {
		return field
	}
	return fmt.Sprintf("%s.%s", path, field)
}
