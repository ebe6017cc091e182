package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wdm0006/blobetl/pkg/blobstore"
	"github.com/wdm0006/blobetl/pkg/contract"
	"github.com/wdm0006/blobetl/pkg/logger"
	"github.com/wdm0006/blobetl/pkg/metrics"
)

// Mover copies rejected objects under the errors prefix.
type Mover struct {
	Store blobstore.Store
	// Poll bounds the wait for a store-side copy to settle.
	Poll         blobstore.Policy
	DeleteSource bool
	Log          *logger.Logger
	Metrics      *metrics.RunMetrics
}

// Move copies src to dst in the same store and waits for the copy to land.
// The source is deleted afterwards only when DeleteSource is set.
func (m *Mover) Move(ctx context.Context, src, dst string) error {
	if err := m.Store.StartCopy(ctx, src, dst); err != nil {
		return fmt.Errorf("quarantine %s: %w", src, err)
	}
	if err := blobstore.PollCopy(ctx, m.Store, dst, m.Poll); err != nil {
		return fmt.Errorf("quarantine %s: %w", src, err)
	}
	if m.DeleteSource {
		if err := m.Store.Delete(ctx, src); err != nil {
			return fmt.Errorf("quarantine %s: delete source: %w", src, err)
		}
	}
	return nil
}

// Reject moves src to dst because of cause, logs it once and counts it.
func (m *Mover) Reject(ctx context.Context, table, src, dst string, cause error) (Quarantined, error) {
	if err := m.Move(ctx, src, dst); err != nil {
		return Quarantined{}, err
	}
	q := Quarantined{Table: table, Source: src, Destination: dst, Reason: reasonFor(cause), Err: cause}

	ev := orNop(m.Log).Event(ctx, zerolog.WarnLevel).
		Str("table", table).
		Str("source", src).
		Str("destination", dst).
		Str("reason", string(q.Reason)).
		Bool("source_deleted", m.DeleteSource)
	var sm *contract.SchemaMismatchError
	if errors.As(cause, &sm) {
		diags := make([]string, len(sm.Diagnostics))
		for i, d := range sm.Diagnostics {
			diags[i] = d.String()
		}
		ev = ev.Strs("diagnostics", diags)
	} else {
		ev = ev.Err(cause)
	}
	ev.Msg("object quarantined")

	m.Metrics.Quarantined(table, string(q.Reason))
	return q, nil
}
