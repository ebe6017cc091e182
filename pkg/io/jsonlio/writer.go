// Package jsonlio writes frames as JSON lines, one object per row.
package jsonlio

import (
	"bufio"
	"encoding/json"
	"io"
	"time"

	"github.com/wdm0006/blobetl/pkg/frame"
)

// Write encodes every row of f as a JSON object keyed by column name. Nulls
// are written as JSON null and times as RFC 3339 in UTC.
func Write(out io.Writer, f *frame.Frame) error {
	w := bufio.NewWriter(out)
	enc := json.NewEncoder(w)
	names := f.Names()
	cols := make([]frame.Column, len(names))
	for i, name := range names {
		cols[i], _ = f.ColumnByName(name)
	}
	for r := 0; r < f.Rows(); r++ {
		m := make(map[string]any, len(cols))
		for i, col := range cols {
			v := col.Value(r)
			if t, ok := v.(time.Time); ok {
				v = t.UTC().Format(time.RFC3339)
			}
			m[names[i]] = v
		}
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return w.Flush()
}
