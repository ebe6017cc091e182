package parquetio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	parquet "github.com/segmentio/parquet-go"
	"github.com/segmentio/parquet-go/deprecated"

	"github.com/wdm0006/blobetl/pkg/frame"
)

// Decode reads a flat parquet file into a Frame. Nested columns are not
// supported.
func Decode(b []byte) (*frame.Frame, error) {
	pf, err := parquet.OpenFile(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("parquet open: %w", err)
	}
	fields := pf.Schema().Fields()
	schema := frame.Schema{Columns: make([]frame.ColumnSchema, len(fields))}
	units := make([]time.Duration, len(fields))
	for i, fd := range fields {
		if !fd.Leaf() {
			return nil, fmt.Errorf("parquet: nested column %s not supported", fd.Name())
		}
		k, unit, err := kindOf(fd.Type())
		if err != nil {
			return nil, fmt.Errorf("parquet column %s: %w", fd.Name(), err)
		}
		schema.Columns[i] = frame.ColumnSchema{Name: fd.Name(), Type: k, Nullable: true}
		units[i] = unit
	}
	f, err := frame.Build(schema)
	if err != nil {
		return nil, err
	}

	r := parquet.NewReader(pf)
	defer func() { _ = r.Close() }()
	rows := make([]parquet.Row, 256)
	for {
		n, err := r.ReadRows(rows)
		for i := 0; i < n; i++ {
			f.AppendNullRow()
			if err := setRow(f, f.Rows()-1, rows[i], units); err != nil {
				return nil, err
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return f, nil
}

func kindOf(t parquet.Type) (frame.Kind, time.Duration, error) {
	if unit, ok := timestampUnit(t); ok {
		return frame.KindTime, unit, nil
	}
	switch t.Kind() {
	case parquet.Boolean:
		return frame.KindBool, 0, nil
	case parquet.Int32, parquet.Int64:
		return frame.KindInt, 0, nil
	case parquet.Float, parquet.Double:
		return frame.KindFloat, 0, nil
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return frame.KindString, 0, nil
	default:
		return frame.KindInvalid, 0, fmt.Errorf("unsupported physical type %s", t.Kind())
	}
}

func timestampUnit(t parquet.Type) (time.Duration, bool) {
	if lt := t.LogicalType(); lt != nil && lt.Timestamp != nil {
		u := lt.Timestamp.Unit
		switch {
		case u.Nanos != nil:
			return time.Nanosecond, true
		case u.Micros != nil:
			return time.Microsecond, true
		default:
			return time.Millisecond, true
		}
	}
	if ct := t.ConvertedType(); ct != nil {
		switch *ct {
		case deprecated.TimestampMillis:
			return time.Millisecond, true
		case deprecated.TimestampMicros:
			return time.Microsecond, true
		}
	}
	return 0, false
}

func setRow(f *frame.Frame, row int, values parquet.Row, units []time.Duration) error {
	cols := f.Schema().Columns
	for _, v := range values {
		c := v.Column()
		if c < 0 || c >= len(cols) {
			return fmt.Errorf("parquet: value for unknown column %d", c)
		}
		if v.IsNull() {
			continue
		}
		cs := cols[c]
		var cell any
		switch cs.Type {
		case frame.KindBool:
			cell = v.Boolean()
		case frame.KindInt:
			if v.Kind() == parquet.Int32 {
				cell = int64(v.Int32())
			} else {
				cell = v.Int64()
			}
		case frame.KindFloat:
			if v.Kind() == parquet.Float {
				cell = float64(v.Float())
			} else {
				cell = v.Double()
			}
		case frame.KindTime:
			cell = time.Unix(0, v.Int64()*int64(units[c])).UTC()
		default:
			cell = string(v.ByteArray())
		}
		if err := f.SetCell(row, cs.Name, cell); err != nil {
			return err
		}
	}
	return nil
}
