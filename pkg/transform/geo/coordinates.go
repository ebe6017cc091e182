// Package geo splits combined "(lat,lng)" text into numeric coordinate columns.
package geo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/wdm0006/blobetl/pkg/frame"
	std "github.com/wdm0006/blobetl/pkg/transform/standardize"
)

// MalformedCoordinateError lists every row whose text could not be split
// into two numbers. Any such row rejects the whole frame.
type MalformedCoordinateError struct {
	Column string
	Rows   []int
	Err    error // one error per row, combined with multierr
}

func (e *MalformedCoordinateError) Error() string {
	return fmt.Sprintf("malformed coordinates in %s (%d rows): %v", e.Column, len(e.Rows), e.Err)
}

func (e *MalformedCoordinateError) Unwrap() error { return e.Err }

// Coordinates replaces Column with float Latitude and Longitude columns. A
// null input gives null coordinates. The source column and its working copy
// are dropped.
type Coordinates struct {
	Column    string
	Latitude  string
	Longitude string
}

func (t *Coordinates) Name() string { return "coordinates" }

func (t *Coordinates) working() string { return t.Column + "_clean" }

func (t *Coordinates) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	clean := t.working()
	prep := frame.NewPipeline().
		Add(&std.Copy{From: t.Column, To: clean}).
		Add(&std.RegexReplace{Column: clean, Pattern: `[()]`, Replace: ""}).
		Add(&std.Trim{Column: clean})
	f, err := prep.Run(ctx, f)
	if err != nil {
		return nil, err
	}
	col, _ := f.ColumnByName(clean)
	src := col.(*frame.StringColumn)

	n := src.Len()
	lat := make([]float64, n)
	lng := make([]float64, n)
	present := make([]bool, n)
	var errs error
	var bad []int
	for i := 0; i < n; i++ {
		v, ok := src.Get(i)
		if !ok {
			continue
		}
		a, b, err := split(v)
		if err != nil {
			bad = append(bad, i)
			errs = multierr.Append(errs, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		lat[i], lng[i], present[i] = a, b, true
	}
	if errs != nil {
		return nil, &MalformedCoordinateError{Column: t.Column, Rows: bad, Err: errs}
	}

	latCol, err := f.AddColumn(frame.ColumnSchema{Name: t.Latitude, Type: frame.KindFloat, Nullable: true})
	if err != nil {
		return nil, err
	}
	lngCol, err := f.AddColumn(frame.ColumnSchema{Name: t.Longitude, Type: frame.KindFloat, Nullable: true})
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if present[i] {
			latCol.(*frame.FloatColumn).Set(i, lat[i])
			lngCol.(*frame.FloatColumn).Set(i, lng[i])
		}
	}
	if err := f.DropColumns(t.Column, clean); err != nil {
		return nil, err
	}
	return f, nil
}

func split(v string) (float64, float64, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%q: expected 2 comma-separated values, got %d", v, len(parts))
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%q: latitude: %w", v, err)
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%q: longitude: %w", v, err)
	}
	return a, b, nil
}
