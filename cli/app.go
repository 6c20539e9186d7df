// Package cli contains the meshscan command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/meshscan/config"
	"go.viam.com/meshscan/sampling"
)

// Flags.
const (
	flagConfig         = "config"
	flagDebug          = "debug"
	flagLogFile        = "log-file"
	flagMesh           = "mesh"
	flagSphere         = "sphere"
	flagWidth          = "width"
	flagHeight         = "height"
	flagFOV            = "fov"
	flagIntrinsics     = "intrinsics"
	flagCameraDistance = "camera-distance"
	flagSampler        = "sampler"
	flagCount          = "count"
	flagSubdivisions   = "subdivisions"
	flagSeed           = "seed"
	flagVoxelSize      = "voxel-size"
	flagDownsample     = "downsample"
	flagEveryK         = "every-k"
	flagClipMin        = "clip-min"
	flagClipMax        = "clip-max"
	flagWorkers        = "workers"
	flagOut            = "out"
	flagCentersOut     = "centers-out"
	flagCentersPlot    = "centers-plot"
	flagDepthDir       = "depth-dir"
	flagDepthPreviews  = "depth-previews"
	flagProgress       = "progress"
	flagHistogram      = "histogram"
	flagWatch          = "watch"
)

var samplerFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  flagSampler,
		Usage: "direction sampler: " + sampling.TypeSphere + ", " + sampling.TypeFibonacci + ", " + sampling.TypeGeodesic + " or " + sampling.TypeRandom,
	},
	&cli.PathFlag{
		Name:  flagSphere,
		Usage: "PLY `FILE` whose vertices are the viewing directions of the sphere sampler",
	},
	&cli.IntFlag{
		Name:  flagCount,
		Usage: "number of directions for the fibonacci and random samplers",
	},
	&cli.IntFlag{
		Name:  flagSubdivisions,
		Usage: "icosahedron subdivisions for the geodesic sampler",
	},
	&cli.Int64Flag{
		Name:  flagSeed,
		Usage: "seed for the random sampler",
	},
}

var app = &cli.App{
	Name:            "meshscan",
	Usage:           "synthesize point clouds by virtually scanning triangle meshes",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    flagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.PathFlag{
			Name:  flagLogFile,
			Usage: "also append JSON logs to `FILE`, rotated by size",
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "scan",
			Usage:     "scan a mesh from many directions and write the downsampled point cloud",
			UsageText: "meshscan scan --mesh <FILE> [other options]",
			Flags: append([]cli.Flag{
				&cli.PathFlag{
					Name:    flagConfig,
					Aliases: []string{"c"},
					Usage:   "load configuration from `FILE`; flags override its values",
				},
				&cli.PathFlag{
					Name:  flagMesh,
					Usage: "PLY `FILE` of the mesh to scan",
				},
				&cli.IntFlag{
					Name:  flagWidth,
					Usage: "depth image width in pixels",
				},
				&cli.IntFlag{
					Name:  flagHeight,
					Usage: "depth image height in pixels",
				},
				&cli.Float64Flag{
					Name:  flagFOV,
					Usage: "vertical field of view in degrees",
				},
				&cli.PathFlag{
					Name:  flagIntrinsics,
					Usage: "load pinhole intrinsics from a JSON `FILE`; replaces --width, --height and --fov",
				},
				&cli.Float64Flag{
					Name:  flagCameraDistance,
					Usage: "distance of every camera from the origin",
				},
				&cli.Float64Flag{
					Name:  flagVoxelSize,
					Usage: "voxel edge length for downsampling",
				},
				&cli.StringFlag{
					Name:  flagDownsample,
					Usage: "downsampling method: " + config.DownsampleVoxel + " or " + config.DownsampleUniform,
				},
				&cli.IntFlag{
					Name:  flagEveryK,
					Usage: "keep every `K`-th point with --" + flagDownsample + " " + config.DownsampleUniform,
				},
				&cli.Float64SliceFlag{
					Name:  flagClipMin,
					Usage: "drop points below this `X,Y,Z` corner before downsampling",
				},
				&cli.Float64SliceFlag{
					Name:  flagClipMax,
					Usage: "drop points above this `X,Y,Z` corner before downsampling",
				},
				&cli.IntFlag{
					Name:  flagWorkers,
					Usage: "unproject views on this many goroutines",
				},
				&cli.PathFlag{
					Name:  flagOut,
					Usage: "output point cloud `FILE` (.pcd, .ply or .las)",
				},
				&cli.PathFlag{
					Name:  flagCentersOut,
					Usage: "write camera centers as a point cloud to `FILE`",
				},
				&cli.PathFlag{
					Name:  flagCentersPlot,
					Usage: "write a camera center coverage plot to `FILE` (.png, .svg, .pdf)",
				},
				&cli.PathFlag{
					Name:  flagDepthDir,
					Usage: "save every rendered depth map into `DIR`",
				},
				&cli.BoolFlag{
					Name:  flagDepthPreviews,
					Usage: "also save a colored PNG of every depth map saved with --" + flagDepthDir,
				},
				&cli.BoolFlag{
					Name:  flagProgress,
					Usage: "show a progress bar while rendering views",
				},
				&cli.BoolFlag{
					Name:  flagWatch,
					Usage: "keep running and scan again whenever an input file changes",
				},
			}, samplerFlags...),
			Action: ScanAction,
		},
		{
			Name:  "coverage",
			Usage: "print how evenly a sampler covers the sphere",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:  flagHistogram,
					Usage: "also print a histogram of the spacing with `N` bins",
				},
			}, samplerFlags...),
			Action: CoverageAction,
		},
		{
			Name:   "schema",
			Usage:  "print the JSON schema of the scan config file",
			Action: SchemaAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
