package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/wdm0006/blobetl/pkg/blobstore"
	"github.com/wdm0006/blobetl/pkg/contract"
	"github.com/wdm0006/blobetl/pkg/ingest"
	"github.com/wdm0006/blobetl/pkg/io/parquetio"
	"github.com/wdm0006/blobetl/pkg/metrics"
	"github.com/wdm0006/blobetl/pkg/runlock"
)

// openStore opens the configured backend behind the retrying wrapper.
func (a *app) openStore(ctx context.Context) (blobstore.Store, error) {
	sc := a.cfg.Store
	s, err := blobstore.Open(ctx, blobstore.Options{
		Backend:          sc.Backend,
		Container:        sc.Container,
		ConnectionString: sc.ConnectionString,
		Region:           sc.Region,
		Endpoint:         sc.Endpoint,
		PathStyle:        sc.PathStyle,
	})
	if err != nil {
		return nil, err
	}
	r := blobstore.NewRetrying(s, blobstore.Policy{
		Initial:  sc.RetryInitial,
		Max:      sc.RetryMax,
		Attempts: sc.RetryAttempts,
		Timeout:  sc.RetryTimeout,
		Jitter:   blobstore.DefaultPolicy.Jitter,
	}, sc.OpTimeout)
	r.OnRetry = func(op, key string, attempt int, err error) {
		a.log.Event(ctx, zerolog.WarnLevel).
			Str("op", op).
			Str("object", key).
			Int("attempt", attempt).
			Err(err).
			Msg("store call failed, retrying")
	}
	return r, nil
}

func (a *app) contracts() (contract.Set, error) {
	return contract.Load(a.cfg.App.ContractPath)
}

func (a *app) layout() ingest.Layout {
	l := a.cfg.Layout
	return ingest.Layout{
		Clients:            l.Clients,
		Stores:             l.Stores,
		Products:           l.Products,
		TransactionsPrefix: l.TransactionsPrefix,
		OutputPrefix:       l.OutputPrefix,
		ErrorsPrefix:       l.ErrorsPrefix,
		Delimiter:          l.DelimiterRune(),
		Columns: ingest.Columns{
			ClientKey: l.ClientKey,
			Account:   l.Account,
			ClientRef: l.ClientRef,
			Date:      l.Date,
			Hour:      l.Hour,
			Minute:    l.Minute,
			LatLng:    l.LatLng,
			Latitude:  l.Latitude,
			Longitude: l.Longitude,
			Datetime:  l.Datetime,
		},
	}
}

func (a *app) pollPolicy() blobstore.Policy {
	q := a.cfg.Quarantine
	return blobstore.Policy{Initial: q.PollInitial, Max: q.PollMax, Attempts: q.PollAttempts, Timeout: q.PollTimeout}
}

// today is the configured run date, or the current UTC date.
func (a *app) today() time.Time {
	if a.cfg.App.RunDate != "" {
		if t, err := time.Parse(ingest.DateLayout, a.cfg.App.RunDate); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}

// runLock returns a Redis lock for the container and dates, or a no-op lock
// when no Redis URL is configured. The returned func closes the client.
func (a *app) runLock(ctx context.Context, dates ingest.DateSet) (runlock.Lock, func(), error) {
	if a.cfg.Lock.RedisURL == "" {
		return runlock.NoopLock{}, func() {}, nil
	}
	client, err := runlock.Dial(ctx, a.cfg.Lock.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	l, err := runlock.NewRedisLock(client, runlock.Key(a.cfg.Store.Container, dates), a.cfg.Lock.TTL)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	return l, func() { _ = client.Close() }, nil
}

// runMetrics registers run metrics when a pushgateway is configured.
func (a *app) runMetrics() *metrics.RunMetrics {
	if a.cfg.Metrics.PushURL == "" {
		return nil
	}
	return metrics.NewRunMetrics(prometheus.NewRegistry())
}

func (a *app) pushMetrics(ctx context.Context, m *metrics.RunMetrics) {
	grouping := map[string]string{"container": a.cfg.Store.Container}
	if err := m.Push(a.cfg.Metrics.PushURL, a.cfg.Metrics.Job, grouping); err != nil {
		a.log.Error(ctx, "push metrics", err)
	}
}

func (a *app) parquetOptions() parquetio.WriterOptions {
	return parquetio.WriterOptions{Parallelism: a.cfg.Parquet.Parallelism, TempDir: a.cfg.Parquet.TempDir}
}
