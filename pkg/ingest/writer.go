package ingest

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wdm0006/blobetl/pkg/blobstore"
	"github.com/wdm0006/blobetl/pkg/frame"
	"github.com/wdm0006/blobetl/pkg/io/parquetio"
	"github.com/wdm0006/blobetl/pkg/logger"
	"github.com/wdm0006/blobetl/pkg/metrics"
)

// Written is one uploaded parquet object.
type Written struct {
	Table string
	Key   string
	Rows  int
}

// Writer uploads frames as parquet under the output prefix.
type Writer struct {
	Store   blobstore.Store
	Layout  Layout
	Parquet parquetio.WriterOptions
	Log     *logger.Logger
	Metrics *metrics.RunMetrics
}

// Write encodes f and uploads it to the partition of date, replacing any
// previous object there.
func (w *Writer) Write(ctx context.Context, f *frame.Frame, name, date string) (string, error) {
	key := w.Layout.PartitionKey(name, date)
	b, err := parquetio.Encode(f, w.Parquet)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}
	if err := w.Store.Put(ctx, key, b); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	w.Metrics.ObjectWritten(name, f.Rows())
	orNop(w.Log).Event(ctx, zerolog.InfoLevel).
		Str("table", name).
		Str("object", key).
		Int("rows", f.Rows()).
		Int("bytes", len(b)).
		Msg("parquet written")
	return key, nil
}

// WritePartitioned writes one object per distinct value of column, in sorted
// order. A null partition value is an error and nothing is written.
func (w *Writer) WritePartitioned(ctx context.Context, f *frame.Frame, name, column string) ([]Written, error) {
	dates, parts, err := f.PartitionBy(column)
	if err != nil {
		return nil, err
	}
	out := make([]Written, 0, len(dates))
	for _, d := range dates {
		key, err := w.Write(ctx, parts[d], name, d)
		if err != nil {
			return out, err
		}
		out = append(out, Written{Table: name, Key: key, Rows: parts[d].Rows()})
	}
	return out, nil
}
