package cli

import (
	"fmt"
	"math"
	"slices"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/meshscan/sampling"
	"go.viam.com/meshscan/spatialmath"
)

// CoverageAction prints nearest-neighbour spacing statistics for a sampler.
func CoverageAction(c *cli.Context) error {
	conf := sampling.Config{Type: sampling.TypeFibonacci}
	if c.IsSet(flagSphere) && !c.IsSet(flagSampler) {
		conf.Type = sampling.TypeSphere
	}
	applySamplerFlags(c, &conf)
	if err := conf.Validate("sampler"); err != nil {
		return err
	}

	var sphere *spatialmath.Mesh
	if conf.Type == sampling.TypeSphere {
		if !c.IsSet(flagSphere) {
			return errors.Errorf("--%s is required for the %s sampler", flagSphere, sampling.TypeSphere)
		}
		var err error
		sphere, err = spatialmath.NewMeshFromPLYFile(c.Path(flagSphere))
		if err != nil {
			return err
		}
	}
	sampler, err := sampling.NewFromConfig(conf, sphere)
	if err != nil {
		return err
	}
	stats, err := sampling.Coverage(slices.Collect(sampler.Directions()))
	if err != nil {
		return err
	}

	deg := func(rad float64) string { return fmt.Sprintf("%.3f", rad*180/math.Pi) }
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Sampler", "Directions", "Mean (deg)", "StdDev (deg)", "Min (deg)", "Max (deg)"})
	t.AppendRow(table.Row{sampler.Name(), stats.Count, deg(stats.Mean), deg(stats.StdDev), deg(stats.Min), deg(stats.Max)})
	printf(c.App.Writer, "%s", t.Render())

	if bins := c.Int(flagHistogram); bins > 0 {
		spacing := make([]float64, len(stats.Spacing))
		for i, rad := range stats.Spacing {
			spacing[i] = rad * 180 / math.Pi
		}
		printf(c.App.Writer, "\nnearest-neighbour spacing (deg)")
		if err := histogram.Fprint(c.App.Writer, histogram.Hist(bins, spacing), histogram.Linear(40)); err != nil {
			return errors.Wrap(err, "printing histogram")
		}
	}
	return nil
}
