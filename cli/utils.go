package cli

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/meshscan/logging"
	"go.viam.com/meshscan/sampling"
	"go.viam.com/meshscan/spatialmath"
)

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// newLogger builds the command logger. The returned func flushes and releases it.
func newLogger(c *cli.Context) (logging.Logger, func()) {
	level := logging.INFO
	if c.Bool(flagDebug) {
		level = logging.DEBUG
	}
	if fn := c.Path(flagLogFile); fn != "" {
		logger, closer := logging.NewLoggerWithFile("meshscan", level, fn)
		return logger, func() {
			utils.UncheckedError(logger.Sync())
			utils.UncheckedError(closer.Close())
		}
	}
	logger := logging.NewLogger("meshscan")
	logger.SetLevel(level)
	return logger, func() { utils.UncheckedError(logger.Sync()) }
}

// applySamplerFlags overrides conf with any sampler flags the user set.
func applySamplerFlags(c *cli.Context, conf *sampling.Config) {
	if c.IsSet(flagSampler) {
		conf.Type = c.String(flagSampler)
		conf.Attributes = nil
	}
	set := func(key string, val interface{}) {
		if conf.Attributes == nil {
			conf.Attributes = map[string]interface{}{}
		}
		conf.Attributes[key] = val
	}
	if c.IsSet(flagCount) {
		set("count", c.Int(flagCount))
	}
	if c.IsSet(flagSubdivisions) {
		set("subdivisions", c.Int(flagSubdivisions))
	}
	if c.IsSet(flagSeed) {
		set("seed", c.Int64(flagSeed))
	}
}

// loadMesh reads a PLY mesh and normalizes it into the unit sphere.
func loadMesh(path string, logger logging.Logger) (*spatialmath.Mesh, error) {
	mesh, err := spatialmath.NewMeshFromPLYFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "loading mesh %q", path)
	}
	if err := mesh.Normalize(); err != nil {
		return nil, errors.Wrapf(err, "normalizing mesh %q", path)
	}
	logger.Debugw("loaded mesh", "path", path, "vertices", len(mesh.Vertices), "faces", len(mesh.Faces))
	return mesh, nil
}
