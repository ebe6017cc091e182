package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wdm0006/blobetl/pkg/blobstore"
	"github.com/wdm0006/blobetl/pkg/contract"
	"github.com/wdm0006/blobetl/pkg/frame"
	"github.com/wdm0006/blobetl/pkg/io/parquetio"
	"github.com/wdm0006/blobetl/pkg/logger"
	"github.com/wdm0006/blobetl/pkg/metrics"
	"github.com/wdm0006/blobetl/pkg/runlock"
	"github.com/wdm0006/blobetl/pkg/transform/enrich"
	"github.com/wdm0006/blobetl/pkg/transform/geo"
)

// Options configures a Runner. Zero values fall back to defaults.
type Options struct {
	Store     blobstore.Store
	Contracts contract.Set
	Layout    Layout
	// Poll bounds quarantine copy polling.
	Poll         blobstore.Policy
	DeleteSource bool
	Parquet      parquetio.WriterOptions
	Lock         runlock.Lock
	Log          *logger.Logger
	Metrics      *metrics.RunMetrics
	// Now is the clock; it fixes the run date when RunDate is empty.
	Now     func() time.Time
	RunDate string
}

// Runner drives one batch from reference loading to partitioned output.
type Runner struct {
	opts   Options
	mover  *Mover
	writer *Writer
}

func NewRunner(o Options) (*Runner, error) {
	if o.Store == nil {
		return nil, errors.New("runner: store is required")
	}
	if err := o.Contracts.Verify(); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}
	if o.Layout == (Layout{}) {
		o.Layout = DefaultLayout()
	}
	if o.Poll == (blobstore.Policy{}) {
		o.Poll = blobstore.DefaultPolicy
	}
	if o.Lock == nil {
		o.Lock = runlock.NoopLock{}
	}
	o.Log = orNop(o.Log)
	if o.Now == nil {
		o.Now = time.Now
	}
	r := &Runner{opts: o}
	r.mover = &Mover{Store: o.Store, Poll: o.Poll, DeleteSource: o.DeleteSource, Log: o.Log, Metrics: o.Metrics}
	r.writer = &Writer{Store: o.Store, Layout: o.Layout, Parquet: o.Parquet, Log: o.Log, Metrics: o.Metrics}
	return r, nil
}

func (r *Runner) runDate() string {
	if r.opts.RunDate != "" {
		return r.opts.RunDate
	}
	return r.opts.Now().UTC().Format(DateLayout)
}

// Run executes one batch for dates (the run date when empty), in any order. Per-object
// failures are quarantined and reported; store failures abort the run. A
// run whose clients failed validation returns a Report with
// ClientsUnavailable set and a nil error.
func (r *Runner) Run(ctx context.Context, dates DateSet) (report *Report, err error) {
	log := r.opts.Log
	runDate := r.runDate()
	dates = dates.Normalize()
	if len(dates) == 0 {
		dates = DateSet{runDate}
	}
	report = &Report{RunID: uuid.NewString(), RunDate: runDate, Dates: dates, Started: r.opts.Now()}
	ctx = log.WithRunID(ctx, report.RunID)
	log.Event(ctx, zerolog.InfoLevel).Str("run_date", runDate).Strs("dates", dates).Msg("run started")

	defer func() {
		report.Finished = r.opts.Now()
		outcome := report.Outcome()
		if err != nil {
			outcome = "failed"
			log.Error(ctx, "run failed", err)
		} else {
			log.Event(ctx, zerolog.InfoLevel).
				Str("outcome", outcome).
				Int("written", len(report.Written)).
				Int("quarantined", len(report.Quarantined)).
				Int("transaction_rows", report.TransactionRows).
				Dur("duration", report.Duration()).
				Msg("run finished")
		}
		r.opts.Metrics.RunFinished(outcome, report.Duration(), report.Finished)
	}()

	if err := ctx.Err(); err != nil {
		return report, err
	}
	ok, err := r.opts.Lock.Acquire(ctx)
	if err != nil {
		return report, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return report, ErrRunLocked
	}
	defer func() {
		if rerr := r.opts.Lock.Release(context.WithoutCancel(ctx)); rerr != nil {
			log.Error(ctx, "release run lock", rerr)
		}
	}()

	refs, err := r.loadReferences(ctx, runDate, report)
	if err != nil {
		return report, err
	}
	if err := r.writeReferences(ctx, refs, runDate, report); err != nil {
		return report, err
	}
	if !refs.ClientsAvailable {
		report.ClientsUnavailable = true
		log.Warn(ctx, "clients unavailable, transactions not processed")
		return report, nil
	}

	tx, err := r.collect(ctx, dates, report)
	if err != nil {
		return report, err
	}
	report.TransactionRows = tx.Rows()
	if tx.Rows() == 0 {
		report.TransactionsSkipped = true
		log.Info(ctx, "no transactions collected")
		return report, nil
	}

	enriched, err := r.enrich(ctx, tx, refs.Clients)
	if err != nil {
		return report, err
	}
	written, err := r.writer.WritePartitioned(ctx, enriched, contract.Transactions, r.opts.Layout.Columns.Date)
	report.Written = append(report.Written, written...)
	if err != nil {
		return report, fmt.Errorf("write transactions: %w", err)
	}
	return report, nil
}

// loadReferences loads the reference tables and normalizes store
// coordinates. Stores with a malformed coordinate are quarantined like a
// schema failure.
func (r *Runner) loadReferences(ctx context.Context, runDate string, report *Report) (*References, error) {
	loader := &Loader{
		Store:     r.opts.Store,
		Contracts: r.opts.Contracts,
		Layout:    r.opts.Layout,
		Mover:     r.mover,
		RunDate:   runDate,
		Log:       r.opts.Log,
		Metrics:   r.opts.Metrics,
	}
	refs, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	report.Quarantined = append(report.Quarantined, refs.Quarantined...)

	if refs.Stores == nil {
		return refs, nil
	}
	cols := r.opts.Layout.Columns
	stores, err := frame.NewPipeline().
		Add(&geo.Coordinates{Column: cols.LatLng, Latitude: cols.Latitude, Longitude: cols.Longitude}).
		Run(ctx, refs.Stores)
	var mc *geo.MalformedCoordinateError
	switch {
	case err == nil:
		refs.Stores = stores
	case errors.As(err, &mc):
		sctx := r.opts.Log.WithTable(ctx, contract.Stores)
		q, qerr := loader.Reject(sctx, contract.Stores, err)
		if qerr != nil {
			return nil, qerr
		}
		refs.Stores = nil
		refs.Quarantined = append(refs.Quarantined, q)
		report.Quarantined = append(report.Quarantined, q)
	default:
		return nil, fmt.Errorf("normalize stores: %w", err)
	}
	return refs, nil
}

func (r *Runner) writeReferences(ctx context.Context, refs *References, runDate string, report *Report) error {
	for _, kind := range referenceKinds {
		f := refs.Table(kind)
		if f == nil {
			continue
		}
		key, err := r.writer.Write(ctx, f, kind, runDate)
		if err != nil {
			return fmt.Errorf("write %s: %w", kind, err)
		}
		report.Written = append(report.Written, Written{Table: kind, Key: key, Rows: f.Rows()})
	}
	return nil
}

func (r *Runner) collect(ctx context.Context, dates DateSet, report *Report) (*frame.Frame, error) {
	c, err := r.opts.Contracts.For(contract.Transactions)
	if err != nil {
		return nil, err
	}
	collector := &Collector{
		Store:    r.opts.Store,
		Contract: c,
		Layout:   r.opts.Layout,
		Mover:    r.mover,
		Log:      r.opts.Log,
		Metrics:  r.opts.Metrics,
	}
	tx, rejected, err := collector.Collect(ctx, dates)
	report.Quarantined = append(report.Quarantined, rejected...)
	return tx, err
}

// enrich derives the datetime column, then joins the account onto each
// transaction.
func (r *Runner) enrich(ctx context.Context, tx, clients *frame.Frame) (*frame.Frame, error) {
	cols := r.opts.Layout.Columns
	p := frame.NewPipeline().
		Add(&enrich.Datetime{Date: cols.Date, Hour: cols.Hour, Minute: cols.Minute, Target: cols.Datetime}).
		Add(&enrich.AccountJoin{Clients: clients, Key: cols.ClientKey, Value: cols.Account, ForeignKey: cols.ClientRef})
	out, err := p.Run(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("enrich transactions: %w", err)
	}
	return out, nil
}
