// Package enrich derives and joins the fields transactions gain before they
// are written.
package enrich

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/wdm0006/blobetl/pkg/frame"
)

// DatetimeLayout is the shape every combined date/hour/minute must take.
const DatetimeLayout = "2006-01-02 15:04"

// MalformedDatetimeError lists rows whose date, hour and minute do not form
// a valid timestamp.
type MalformedDatetimeError struct {
	Rows []int
	Err  error
}

func (e *MalformedDatetimeError) Error() string {
	return fmt.Sprintf("malformed datetime (%d rows): %v", len(e.Rows), e.Err)
}

func (e *MalformedDatetimeError) Unwrap() error { return e.Err }

// Datetime adds Target = Date + " " + HH:MM parsed in UTC. Hour and minute
// may be int, integral float or numeric text columns.
type Datetime struct {
	Date   string
	Hour   string
	Minute string
	Target string
}

func (t *Datetime) Name() string { return "datetime" }

func (t *Datetime) Apply(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	values, err := t.derive(f)
	if err != nil {
		return nil, err
	}
	col, err := f.AddColumn(frame.ColumnSchema{Name: t.Target, Type: frame.KindTime, Nullable: true})
	if err != nil {
		return nil, err
	}
	tc := col.(*frame.TimeColumn)
	for i, v := range values {
		tc.Set(i, v)
	}
	return f, nil
}

// Check reports whether every row of f would derive a timestamp, without
// touching f.
func (t *Datetime) Check(f *frame.Frame) error {
	_, err := t.derive(f)
	return err
}

func (t *Datetime) derive(f *frame.Frame) ([]time.Time, error) {
	var cols [3]frame.Column
	for i, name := range []string{t.Date, t.Hour, t.Minute} {
		c, ok := f.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown column: %s", name)
		}
		cols[i] = c
	}
	out := make([]time.Time, f.Rows())
	var errs error
	var bad []int
	for i := range out {
		ts, err := combine(cols[0].Value(i), cols[1].Value(i), cols[2].Value(i))
		if err != nil {
			bad = append(bad, i)
			errs = multierr.Append(errs, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		out[i] = ts
	}
	if errs != nil {
		return nil, &MalformedDatetimeError{Rows: bad, Err: errs}
	}
	return out, nil
}

func combine(date, hour, minute any) (time.Time, error) {
	d, ok := date.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("date %v is not text", date)
	}
	h, err := clockPart(hour)
	if err != nil {
		return time.Time{}, fmt.Errorf("hour: %w", err)
	}
	m, err := clockPart(minute)
	if err != nil {
		return time.Time{}, fmt.Errorf("minute: %w", err)
	}
	s := fmt.Sprintf("%s %02d:%02d", d, h, m)
	ts, err := time.ParseInLocation(DatetimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q does not match %s", s, DatetimeLayout)
	}
	return ts, nil
}

func clockPart(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return 0, fmt.Errorf("%v is not a whole number", t)
		}
		return int64(t), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a whole number", t)
		}
		return n, nil
	case nil:
		return 0, fmt.Errorf("missing value")
	default:
		return 0, fmt.Errorf("unsupported value %v (%T)", v, v)
	}
}
