package rimage

import (
	"image"
	"image/png"
	"os"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/multierr"
)

// ToPrettyPicture colors each pixel by depth, from orange (near) to blue (far). Pixels without
// a return stay transparent.
func (dm *DepthMap) ToPrettyPicture() image.Image {
	lo, hi := dm.MinMax()
	span := hi - lo

	img := image.NewNRGBA(image.Rect(0, 0, dm.Width(), dm.Height()))
	for y := 0; y < dm.Height(); y++ {
		for x := 0; x < dm.Width(); x++ {
			z := dm.GetDepth(x, y)
			if z == 0 {
				continue
			}
			ratio := 0.
			if span > 0 {
				ratio = (z - lo) / span
			}
			hue := 30 + (200.0 * ratio)
			r, g, b := colorful.Hsv(hue, 1.0, 1.0).Clamped().RGB255()
			i := img.PixOffset(x, y)
			img.Pix[i+0], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, 255
		}
	}
	return img
}

// WriteDepthPreview saves ToPrettyPicture as a PNG.
func WriteDepthPreview(dm *DepthMap, fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return png.Encode(f, dm.ToPrettyPicture())
}
