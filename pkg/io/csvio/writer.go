package csvio

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/wdm0006/blobetl/pkg/frame"
)

type WriterOptions struct {
	Delimiter rune // default ','
}

// Write writes a Frame as CSV with a header row. Nulls become empty cells.
func Write(out io.Writer, f *frame.Frame, opt WriterOptions) error {
	w := csv.NewWriter(out)
	if opt.Delimiter != 0 {
		w.Comma = opt.Delimiter
	}

	hdr := f.Names()
	if err := w.Write(hdr); err != nil {
		return err
	}

	cols := make([]frame.Column, len(hdr))
	for i, name := range hdr {
		cols[i], _ = f.ColumnByName(name)
	}
	row := make([]string, len(hdr))
	for r := 0; r < f.Rows(); r++ {
		for c, col := range cols {
			row[c] = formatCell(col.Value(r))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case string:
		return t
	case time.Time:
		return t.UTC().Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}
