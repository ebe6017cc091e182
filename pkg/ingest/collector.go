package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wdm0006/blobetl/pkg/blobstore"
	"github.com/wdm0006/blobetl/pkg/contract"
	"github.com/wdm0006/blobetl/pkg/frame"
	"github.com/wdm0006/blobetl/pkg/logger"
	"github.com/wdm0006/blobetl/pkg/metrics"
	"github.com/wdm0006/blobetl/pkg/transform/enrich"
)

// Collector gathers the transaction objects of a DateSet into one frame.
type Collector struct {
	Store    blobstore.Store
	Contract contract.Contract
	Layout   Layout
	Mover    *Mover
	Log      *logger.Logger
	Metrics  *metrics.RunMetrics
}

// Discover lists the CSV objects under the transactions prefix whose key,
// relative to that prefix, carries a date in dates. Keys come back in order.
func (c *Collector) Discover(ctx context.Context, dates DateSet) ([]string, error) {
	prefix := c.Layout.transactionsListPrefix()
	infos, err := c.Store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	var keys []string
	for _, o := range infos {
		if !strings.HasSuffix(o.Key, ".csv") {
			continue
		}
		d, ok := ExtractDate(strings.TrimPrefix(o.Key, prefix))
		if !ok || !dates.Contains(d) {
			continue
		}
		keys = append(keys, o.Key)
	}
	return keys, nil
}

// Collect loads, validates and merges every discovered object. An object
// that fails to parse, to validate, or whose rows do not all form a valid
// datetime is quarantined under errors/<key> and skipped. The result has the
// contract's columns and may have zero rows.
func (c *Collector) Collect(ctx context.Context, dates DateSet) (*frame.Frame, []Quarantined, error) {
	log := orNop(c.Log)
	schema, err := c.Contract.Schema()
	if err != nil {
		return nil, nil, err
	}
	acc, err := frame.Build(schema)
	if err != nil {
		return nil, nil, err
	}
	keys, err := c.Discover(ctx, dates)
	if err != nil {
		return nil, nil, err
	}
	check := &enrich.Datetime{Date: c.Layout.Columns.Date, Hour: c.Layout.Columns.Hour, Minute: c.Layout.Columns.Minute}

	var rejected []Quarantined
	for _, key := range keys {
		octx := log.WithObject(log.WithTable(ctx, contract.Transactions), key)
		f, err := c.load(octx, key, check)
		var (
			pe *ParseError
			sm *contract.SchemaMismatchError
			md *enrich.MalformedDatetimeError
		)
		switch {
		case err == nil:
		case errors.As(err, &pe), errors.As(err, &sm), errors.As(err, &md):
			q, qerr := c.Mover.Reject(octx, contract.Transactions, key, c.Layout.TransactionQuarantineKey(key), err)
			if qerr != nil {
				return nil, rejected, qerr
			}
			rejected = append(rejected, q)
			continue
		default:
			return nil, rejected, fmt.Errorf("load %s: %w", key, err)
		}
		if err := acc.Append(f); err != nil {
			return nil, rejected, fmt.Errorf("merge %s: %w", key, err)
		}
		c.Metrics.RowsLoaded(contract.Transactions, f.Rows())
		log.Event(octx, zerolog.InfoLevel).Int("rows", f.Rows()).Msg("transactions loaded")
		logProfile(octx, log, f)
	}
	return acc, rejected, nil
}

func (c *Collector) load(ctx context.Context, key string, check *enrich.Datetime) (*frame.Frame, error) {
	f, err := LoadCSV(ctx, c.Store, key, c.Layout.Delimiter)
	if err != nil {
		return nil, err
	}
	if err := contract.Check(f, c.Contract); err != nil {
		return nil, err
	}
	if err := check.Check(f); err != nil {
		return nil, err
	}
	return f, nil
}
