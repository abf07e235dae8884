// Package dataset loads the (x, y) sample table the curve is fitted to.
package dataset

import (
	"encoding/binary"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/copyleftdev/curvefit/internal/errors"
)

const (
	// ColumnX is the header name of the abscissa column.
	ColumnX = "x"
	// ColumnY is the header name of the ordinate column.
	ColumnY = "y"
)

var (
	// ErrNotFound is returned when the input table does not exist or cannot be opened.
	ErrNotFound = stderrors.New("input file not found")
	// ErrMissingColumn is returned when the header lacks the x or y column.
	ErrMissingColumn = stderrors.New("missing required column")
	// ErrNoSamples is returned when the table has a header but no data rows.
	ErrNoSamples = stderrors.New("no samples")
)

// Samples holds index-aligned x and y values. It is not modified after loading.
type Samples struct {
	X []float64
	Y []float64
}

// Len returns the number of samples.
func (s *Samples) Len() int {
	return len(s.X)
}

// Fingerprint returns an xxhash64 digest of the sample values in load order.
func (s *Samples) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [16]byte
	for i := range s.X {
		binary.LittleEndian.PutUint64(buf[:8], math.Float64bits(s.X[i]))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(s.Y[i]))
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// Options controls how the table is parsed.
type Options struct {
	// Delimiter separates fields. Zero means ','.
	Delimiter rune
}

// Load reads the samples from the delimited file at path.
func Load(path string, opts Options) (*Samples, error) {
	f, err := os.Open(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, fs.ErrPermission) {
			err = fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return nil, errors.Wrapf(err, "open %s", path).
			WithOperation("load").
			WithComponent("dataset")
	}
	defer f.Close()

	samples, err := Read(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path).
			WithOperation("load").
			WithComponent("dataset")
	}
	return samples, nil
}

// Read parses samples from r. The first record is the header; the "x" and "y"
// columns are located by name and every other column is ignored. Cells that do
// not parse as numbers become NaN.
func Read(r io.Reader, opts Options) (*Samples, error) {
	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	xi, yi := -1, -1
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		switch {
		case name == ColumnX && xi < 0:
			xi = i
		case name == ColumnY && yi < 0:
			yi = i
		}
	}
	if xi < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColumnX)
	}
	if yi < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingColumn, ColumnY)
	}

	s := &Samples{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", line, err)
		}
		s.X = append(s.X, cell(rec, xi))
		s.Y = append(s.Y, cell(rec, yi))
	}

	if s.Len() == 0 {
		return nil, ErrNoSamples
	}
	return s, nil
}

// cell returns the numeric value of rec[i], or NaN when absent or unparseable.
func cell(rec []string, i int) float64 {
	if i >= len(rec) {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
	if err != nil && !stderrors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return v
}
