package ingest

import (
	"bytes"
	"context"

	"github.com/rs/zerolog"

	"github.com/wdm0006/blobetl/pkg/blobstore"
	"github.com/wdm0006/blobetl/pkg/frame"
	"github.com/wdm0006/blobetl/pkg/io/csvio"
	"github.com/wdm0006/blobetl/pkg/logger"
	"github.com/wdm0006/blobetl/pkg/profile"
)

// LoadCSV reads one CSV object into a frame, inferring column types from
// every row. Store failures come back as they are; unreadable content is a
// *ParseError.
func LoadCSV(ctx context.Context, s blobstore.Store, key string, delim rune) (*frame.Frame, error) {
	b, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	f, err := csvio.ReadFrame(bytes.NewReader(b), csvio.ReaderOptions{HasHeader: true, Delimiter: delim, Strict: true})
	if err != nil {
		return nil, &ParseError{Key: key, Err: err}
	}
	return f, nil
}

// logProfile writes per-column null counts at debug level.
func logProfile(ctx context.Context, log *logger.Logger, f *frame.Frame) {
	if !log.DebugEnabled(ctx) {
		return
	}
	p := profile.Of(f, 0)
	log.Event(ctx, zerolog.DebugLevel).
		Int("rows", p.Rows()).
		Interface("nulls", p.NullCounts()).
		Msg("table profile")
}

func orNop(l *logger.Logger) *logger.Logger {
	if l == nil {
		return logger.Nop()
	}
	return l
}
