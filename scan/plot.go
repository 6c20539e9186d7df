package scan

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PlotCameraCenters saves an equirectangular map of camera positions (azimuth against
// elevation, in degrees) to fn. The image format follows the file extension.
func PlotCameraCenters(centers []r3.Vector, fn string) error {
	pts := make(plotter.XYs, 0, len(centers))
	for _, c := range centers {
		r := c.Norm()
		if r == 0 {
			continue
		}
		pts = append(pts, plotter.XY{
			X: math.Atan2(c.Z, c.X) * 180 / math.Pi,
			Y: math.Asin(math.Max(-1, math.Min(1, c.Y/r))) * 180 / math.Pi,
		})
	}

	p := plot.New()
	p.Title.Text = "Camera centers"
	p.X.Label.Text = "azimuth (deg)"
	p.Y.Label.Text = "elevation (deg)"
	p.X.Min, p.X.Max = -180, 180
	p.Y.Min, p.Y.Max = -90, 90
	p.Add(plotter.NewGrid())

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "creating camera center scatter")
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, fn); err != nil {
		return errors.Wrapf(err, "saving camera center plot to %q", fn)
	}
	return nil
}
