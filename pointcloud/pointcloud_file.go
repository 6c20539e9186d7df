package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/meshscan/logging"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed binary format for pcd.
	PCDCompressed PCDType = 2
)

// NewFromFile returns a pointcloud read in from the given file.
func NewFromFile(fn string, logger logging.Logger) (PointCloud, error) {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".las":
		return NewFromLASFile(fn, logger)
	case ".pcd":
		//nolint:gosec
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		return ReadPCD(f)
	case ".ply":
		//nolint:gosec
		f, err := os.Open(fn)
		if err != nil {
			return nil, err
		}
		defer utils.UncheckedErrorFunc(f.Close)
		return ReadPLY(f)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

// WriteToFile writes the cloud to fn, choosing the format from the extension: .pcd (binary),
// .ply (ascii) or .las.
func WriteToFile(cloud PointCloud, fn string) (err error) {
	ext := strings.ToLower(filepath.Ext(fn))
	if ext == ".las" {
		return WriteToLASFile(cloud, fn)
	}
	if ext != ".pcd" && ext != ".ply" {
		return errors.Errorf("do not know how to write file %q", fn)
	}

	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if ext == ".pcd" {
		err = ToPCD(cloud, w, PCDBinary)
	} else {
		err = ToPLY(cloud, w)
	}
	if err != nil {
		return err
	}
	return w.Flush()
}

// NewFromLASFile returns a point cloud from reading a LAS file. Points that cannot be
// represented are reported but are not an error.
func NewFromLASFile(fn string, logger logging.Logger) (PointCloud, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	pc := NewWithPrealloc(lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()
		v := r3.Vector{X: data.X, Y: data.Y, Z: data.Z}
		if err := pc.Append(v); err != nil {
			logger.Warnw("skipping LAS point", "index", i, "error", err)
		}
	}
	return pc, nil
}

// WriteToLASFile writes the point cloud out to a LAS file.
func WriteToLASFile(cloud PointCloud, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	if err = lf.AddHeader(lidario.LasHeader{
		PointFormatID: 0,
	}); err != nil {
		return
	}

	var lastErr error
	cloud.Iterate(0, 0, func(pos r3.Vector) bool {
		pr0 := &lidario.PointRecord0{
			X: pos.X,
			Y: pos.Y,
			Z: pos.Z,
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: 0,
			},
			ScanAngle:     0,
			UserData:      0,
			PointSourceID: 1,
		}
		if lerr := lf.AddLasPoint(pr0); lerr != nil {
			lastErr = lerr
			return false
		}
		return true
	})
	if lastErr != nil {
		err = lastErr
	}
	return err
}

// ToPCD writes the cloud as a single-row PCD v0.7 file with x y z float fields.
func ToPCD(cloud PointCloud, out io.Writer, outputType PCDType) error {
	var data string
	switch outputType {
	case PCDBinary:
		data = "binary"
	case PCDAscii:
		data = "ascii"
	case PCDCompressed:
		return errors.New("compressed PCD not yet implemented")
	default:
		return errors.Errorf("unknown PCD type %d", outputType)
	}
	if _, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z\n"+
		"SIZE 4 4 4\n"+
		"TYPE F F F\n"+
		"COUNT 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT %d\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n"+
		"DATA %s\n",
		cloud.Size(),
		1,
		cloud.Size(),
		data,
	); err != nil {
		return err
	}
	return writePCDData(cloud, out, outputType)
}

func writePCDData(cloud PointCloud, out io.Writer, pcdtype PCDType) error {
	var err error
	buf := make([]byte, 12)
	cloud.Iterate(0, 0, func(pos r3.Vector) bool {
		switch pcdtype {
		case PCDBinary:
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(pos.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(pos.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(pos.Z)))
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = fmt.Fprintf(out, "%f %f %f\n", pos.X, pos.Y, pos.Z)
		case PCDCompressed:
		}
		return err == nil
	})
	return err
}

type pcdHeader struct {
	fields []string
	size   []int
	points int
	data   PCDType
}

const pcdCommentChar = "#"

// maxPCDPrealloc bounds how many points are reserved up front from an untrusted POINTS header.
const maxPCDPrealloc = 1 << 20

// ReadPCD reads an uncompressed PCD file. Only the x, y and z fields are kept; other fields of
// size 4 are skipped.
func ReadPCD(inRaw io.Reader) (PointCloud, error) {
	in := bufio.NewReader(inRaw)
	header := pcdHeader{data: -1}
	for header.data == -1 {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrap(err, "error reading PCD header")
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, &header); err != nil {
			return nil, err
		}
	}
	xyz := [3]int{-1, -1, -1}
	for i, f := range header.fields {
		switch f {
		case "x":
			xyz[0] = i
		case "y":
			xyz[1] = i
		case "z":
			xyz[2] = i
		}
	}
	if xyz[0] < 0 || xyz[1] < 0 || xyz[2] < 0 {
		return nil, errors.Errorf("PCD fields %v do not include x y z", header.fields)
	}

	pc := NewWithPrealloc(min(header.points, maxPCDPrealloc))
	switch header.data {
	case PCDAscii:
		for i := 0; i < header.points; i++ {
			line, err := in.ReadString('\n')
			if err != nil && !(errors.Is(err, io.EOF) && line != "") {
				return nil, errors.Wrapf(err, "error reading PCD point %d", i)
			}
			tokens := strings.Fields(line)
			if len(tokens) != len(header.fields) {
				return nil, errors.Errorf("PCD point %d has %d values, expected %d", i, len(tokens), len(header.fields))
			}
			var coords [3]float64
			for j, idx := range xyz {
				if coords[j], err = strconv.ParseFloat(tokens[idx], 64); err != nil {
					return nil, errors.Wrapf(err, "PCD point %d", i)
				}
			}
			if err := pc.Append(r3.Vector{coords[0], coords[1], coords[2]}); err != nil {
				return nil, err
			}
		}
	case PCDBinary:
		for _, s := range header.size {
			if s != 4 {
				return nil, errors.Errorf("binary PCD fields must have SIZE 4, got %v", header.size)
			}
		}
		buf := make([]byte, 4*len(header.fields))
		for i := 0; i < header.points; i++ {
			if _, err := io.ReadFull(in, buf); err != nil {
				return nil, errors.Wrapf(err, "error reading PCD point %d", i)
			}
			var coords [3]float64
			for j, idx := range xyz {
				coords[j] = float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4*idx:])))
			}
			if err := pc.Append(r3.Vector{coords[0], coords[1], coords[2]}); err != nil {
				return nil, err
			}
		}
	case PCDCompressed:
		return nil, errors.New("compressed pcd not yet supported")
	}
	return pc, nil
}

func parsePCDHeaderLine(line string, header *pcdHeader) error {
	field, value, _ := strings.Cut(line, " ")
	tokens := strings.Fields(value)
	var err error
	switch field {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		header.fields = tokens
	case "SIZE":
		header.size = make([]int, len(tokens))
		for i, token := range tokens {
			if header.size[i], err = strconv.Atoi(token); err != nil {
				return errors.Errorf("invalid SIZE field %s", token)
			}
		}
	case "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT":
	case "POINTS":
		if header.points, err = strconv.Atoi(value); err != nil {
			return errors.Errorf("invalid POINTS field %s: %s", value, err)
		}
		if header.points < 0 {
			return errors.Errorf("invalid POINTS field %s: must not be negative", value)
		}
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return errors.Errorf("unsupported pcd data type %s", value)
		}
	default:
		return errors.Errorf("unknown pcd header line %q", line)
	}
	return nil
}

// ToPLY writes the cloud as an ascii PLY file with one vertex element per point.
func ToPLY(cloud PointCloud, out io.Writer) error {
	if _, err := fmt.Fprintf(out, "ply\n"+
		"format ascii 1.0\n"+
		"element vertex %d\n"+
		"property double x\n"+
		"property double y\n"+
		"property double z\n"+
		"end_header\n", cloud.Size()); err != nil {
		return err
	}
	var err error
	cloud.Iterate(0, 0, func(p r3.Vector) bool {
		_, err = fmt.Fprintf(out, "%s %s %s\n",
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
			strconv.FormatFloat(p.Z, 'g', -1, 64))
		return err == nil
	})
	return err
}

// ReadPLY reads the vertex element of a PLY file as a point cloud.
func ReadPLY(r io.Reader) (pc PointCloud, err error) {
	// goply panics on malformed input
	defer func() {
		if rec := recover(); rec != nil {
			pc = nil
			err = errors.Errorf("malformed PLY data: %v", rec)
		}
	}()
	vertices := goply.New(r).Elements("vertex")
	out := NewWithPrealloc(len(vertices))
	for i, v := range vertices {
		var coords [3]float64
		for j, name := range []string{"x", "y", "z"} {
			switch c := v[name].(type) {
			case float64:
				coords[j] = c
			case float32:
				coords[j] = float64(c)
			default:
				return nil, errors.Errorf("vertex %d property %q has unsupported type %T", i, name, v[name])
			}
		}
		if err := out.Append(r3.Vector{coords[0], coords[1], coords[2]}); err != nil {
			return nil, err
		}
	}
	return out, nil
}
