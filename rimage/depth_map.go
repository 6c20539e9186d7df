package rimage

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
)

// DepthMap is a dense grid of depths stored row major: the depth of pixel (x, y) lives at
// index y*width + x. A depth of 0 means the pixel has no return.
type DepthMap struct {
	width  int
	height int

	data []float64
}

// NewEmptyDepthMap returns an all-zero depth map of the given size.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]float64, width*height),
	}
}

// NewDepthMapFromSlice wraps row-major depth data. The slice is not copied.
func NewDepthMapFromSlice(width, height int, data []float64) (*DepthMap, error) {
	if width < 0 || height < 0 {
		return nil, errors.Errorf("bad width or height for depth map %v %v", width, height)
	}
	if len(data) != width*height {
		return nil, errors.Errorf("depth data has %d values, expected %d for %dx%d", len(data), width*height, width, height)
	}
	for i, d := range data {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, errors.Errorf("depth at index %d is %v, depths must be finite and non-negative", i, d)
		}
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

// Width returns the horizontal size of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical size of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// GetDepth returns the depth at pixel (x, y).
func (dm *DepthMap) GetDepth(x, y int) float64 {
	return dm.data[y*dm.width+x]
}

// Set sets the depth at pixel (x, y).
func (dm *DepthMap) Set(x, y int, val float64) {
	dm.data[y*dm.width+x] = val
}

// Data returns the row-major backing slice.
func (dm *DepthMap) Data() []float64 {
	return dm.data
}

// Clone makes a deep copy of the depth map.
func (dm *DepthMap) Clone() *DepthMap {
	data := make([]float64, len(dm.data))
	copy(data, dm.data)
	return &DepthMap{width: dm.width, height: dm.height, data: data}
}

// NonZeroCount returns the number of pixels with a return.
func (dm *DepthMap) NonZeroCount() int {
	n := 0
	for _, d := range dm.data {
		if d != 0 {
			n++
		}
	}
	return n
}

// MinMax returns the smallest and largest nonzero depths, or zeros for an empty map.
func (dm *DepthMap) MinMax() (float64, float64) {
	lo, hi := math.Inf(1), 0.
	for _, d := range dm.data {
		if d == 0 {
			continue
		}
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	if hi == 0 {
		return 0, 0
	}
	return lo, hi
}

const (
	maxDepthMapSide   = 100000
	maxDepthMapPixels = 1 << 26
)

// WriteTo writes the depth map as little endian int64 width, int64 height, then one float64 per
// pixel in row-major order.
func (dm *DepthMap) WriteTo(out io.Writer) (int64, error) {
	buf := make([]byte, 8*(2+len(dm.data)))
	binary.LittleEndian.PutUint64(buf, uint64(dm.width))
	binary.LittleEndian.PutUint64(buf[8:], uint64(dm.height))
	for i, d := range dm.data {
		binary.LittleEndian.PutUint64(buf[16+8*i:], math.Float64bits(d))
	}
	n, err := out.Write(buf)
	return int64(n), err
}

// WriteDepthMapToFile writes the depth map to fn, gzipping it if fn ends in .gz.
func WriteDepthMapToFile(dm *DepthMap, fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()

	var out io.Writer = f
	if filepath.Ext(fn) == ".gz" {
		gout := gzip.NewWriter(f)
		defer func() {
			err = multierr.Combine(err, gout.Close())
		}()
		out = gout
	}
	_, err = dm.WriteTo(out)
	return err
}

// ParseDepthMap reads a depth map written by WriteDepthMapToFile.
func ParseDepthMap(fn string) (*DepthMap, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	var r io.Reader = f
	if filepath.Ext(fn) == ".gz" {
		gr, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(gr.Close)
		r = gr
	}
	return ReadDepthMap(bufio.NewReader(r))
}

// ReadDepthMap reads the format produced by WriteTo.
func ReadDepthMap(r io.Reader) (*DepthMap, error) {
	header := make([]byte, 16)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, errors.Wrap(err, "error reading depth map header")
	}
	width := int64(binary.LittleEndian.Uint64(header))
	height := int64(binary.LittleEndian.Uint64(header[8:]))
	if width <= 0 || width >= maxDepthMapSide || height <= 0 || height >= maxDepthMapSide {
		return nil, errors.Errorf("bad width or height for depth map %v %v", width, height)
	}
	if width*height > maxDepthMapPixels {
		return nil, errors.Errorf("depth map %vx%v has too many pixels", width, height)
	}

	// rows are read one at a time so a truncated file fails before the full map is allocated
	row := make([]byte, 8*width)
	var data []float64
	for y := int64(0); y < height; y++ {
		if _, err := io.ReadFull(r, row); err != nil {
			return nil, errors.Wrapf(err, "error reading depth map row %d", y)
		}
		for x := int64(0); x < width; x++ {
			data = append(data, math.Float64frombits(binary.LittleEndian.Uint64(row[8*x:])))
		}
	}
	return NewDepthMapFromSlice(int(width), int(height), data)
}
