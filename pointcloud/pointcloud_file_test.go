package pointcloud

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/meshscan/logging"
)

func makeFileTestCloud(t *testing.T) PointCloud {
	t.Helper()
	pc, err := NewFromPoints([]r3.Vector{
		{0.5, -0.25, 1},
		{-0.125, 0.75, 0},
		{0, 0, -0.5},
	})
	test.That(t, err, test.ShouldBeNil)
	return pc
}

func assertSamePoints(t *testing.T, got, want PointCloud, tol float64) {
	t.Helper()
	test.That(t, got.Size(), test.ShouldEqual, want.Size())
	for i := 0; i < want.Size(); i++ {
		test.That(t, got.At(i).Sub(want.At(i)).Norm(), test.ShouldBeLessThan, tol)
	}
}

func TestPCD(t *testing.T) {
	pc := makeFileTestCloud(t)

	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf, PCDAscii), test.ShouldBeNil)
	text := buf.String()
	test.That(t, text, test.ShouldContainSubstring, "FIELDS x y z\n")
	test.That(t, text, test.ShouldContainSubstring, "POINTS 3\n")
	test.That(t, text, test.ShouldContainSubstring, "DATA ascii\n")
	test.That(t, text, test.ShouldContainSubstring, "0.500000 -0.250000 1.000000\n")

	read, err := ReadPCD(strings.NewReader(text))
	test.That(t, err, test.ShouldBeNil)
	assertSamePoints(t, read, pc, 1e-6)

	buf.Reset()
	test.That(t, ToPCD(pc, &buf, PCDBinary), test.ShouldBeNil)
	read, err = ReadPCD(&buf)
	test.That(t, err, test.ShouldBeNil)
	// these values are exact in float32
	assertSamePoints(t, read, pc, 1e-12)

	test.That(t, ToPCD(pc, &buf, PCDCompressed), test.ShouldNotBeNil)
}

func TestReadPCDExtraFields(t *testing.T) {
	data := "# comment\nVERSION .7\nFIELDS x y z rgb\nSIZE 4 4 4 4\nTYPE F F F I\nCOUNT 1 1 1 1\n" +
		"WIDTH 2\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS 2\nDATA ascii\n" +
		"1 2 3 255\n4 5 6 0\n"
	pc, err := ReadPCD(strings.NewReader(data))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Points(), test.ShouldResemble, []r3.Vector{{1, 2, 3}, {4, 5, 6}})

	_, err = ReadPCD(strings.NewReader("VERSION .5\n"))
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ReadPCD(strings.NewReader("VERSION .7\nFIELDS a b\nPOINTS 0\nDATA ascii\n"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadPCDBadPointCount(t *testing.T) {
	header := "VERSION .7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 1\nHEIGHT 1\n"

	_, err := ReadPCD(strings.NewReader(header + "POINTS -5\nDATA ascii\n1 2 3\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must not be negative")

	_, err = ReadPCD(strings.NewReader(header + "POINTS 9223372036854775807\nDATA ascii\n1 2 3\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "error reading PCD point 1")

	_, err = ReadPCD(strings.NewReader(header + "POINTS 4000000000\nDATA binary\n"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPLY(t *testing.T) {
	pc := makeFileTestCloud(t)

	var buf bytes.Buffer
	test.That(t, ToPLY(pc, &buf), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldStartWith, "ply\nformat ascii 1.0\nelement vertex 3\n")

	read, err := ReadPLY(&buf)
	test.That(t, err, test.ShouldBeNil)
	assertSamePoints(t, read, pc, 1e-12)
}

func TestWriteToFile(t *testing.T) {
	logger := logging.NewTestLogger(t)
	pc := makeFileTestCloud(t)
	dir := t.TempDir()

	for _, name := range []string{"out.pcd", "out.ply"} {
		fn := filepath.Join(dir, name)
		test.That(t, WriteToFile(pc, fn), test.ShouldBeNil)
		read, err := NewFromFile(fn, logger)
		test.That(t, err, test.ShouldBeNil)
		assertSamePoints(t, read, pc, 1e-6)
	}

	fn := filepath.Join(dir, "out.las")
	test.That(t, WriteToFile(pc, fn), test.ShouldBeNil)
	read, err := NewFromFile(fn, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, read.Size(), test.ShouldEqual, pc.Size())

	test.That(t, WriteToFile(pc, filepath.Join(dir, "out.xyz")), test.ShouldNotBeNil)
	_, err = NewFromFile(filepath.Join(dir, "out.xyz"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}
