package blobstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
)

// Policy bounds a retry or polling loop.
type Policy struct {
	Initial  time.Duration // first delay
	Max      time.Duration // cap on a single delay
	Attempts uint64        // retries after the first try
	Timeout  time.Duration // total time across attempts; 0 means no limit
	Jitter   uint64        // percent
}

// DefaultPolicy is used when a caller leaves Policy zero.
var DefaultPolicy = Policy{Initial: 200 * time.Millisecond, Max: 5 * time.Second, Attempts: 5, Timeout: time.Minute, Jitter: 10}

// Backoff builds a fresh backoff. Backoffs are stateful, so each loop needs
// its own.
func (p Policy) Backoff() retry.Backoff {
	if p.Initial <= 0 {
		p.Initial = DefaultPolicy.Initial
	}
	b := retry.NewExponential(p.Initial)
	if p.Max > 0 {
		b = retry.WithCappedDuration(p.Max, b)
	}
	if p.Jitter > 0 {
		b = retry.WithJitterPercent(p.Jitter, b)
	}
	if p.Timeout > 0 {
		b = retry.WithMaxDuration(p.Timeout, b)
	}
	return retry.WithMaxRetries(p.Attempts, b)
}

// Retrying wraps a Store, retrying failed calls under Policy and bounding
// each attempt by OpTimeout. Missing objects and cancelled contexts are not
// retried.
type Retrying struct {
	Store     Store
	Policy    Policy
	OpTimeout time.Duration
	// OnRetry, if set, is called before each retry.
	OnRetry func(op, key string, attempt int, err error)
}

func NewRetrying(s Store, p Policy, opTimeout time.Duration) *Retrying {
	return &Retrying{Store: s, Policy: p, OpTimeout: opTimeout}
}

func (r *Retrying) do(ctx context.Context, op, key string, fn func(ctx context.Context) error) error {
	attempt := 0
	return retry.Do(ctx, r.Policy.Backoff(), func(ctx context.Context) error {
		attempt++
		octx := ctx
		if r.OpTimeout > 0 {
			var cancel context.CancelFunc
			octx, cancel = context.WithTimeout(ctx, r.OpTimeout)
			defer cancel()
		}
		err := fn(octx)
		if err == nil || errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return err
		}
		if r.OnRetry != nil {
			r.OnRetry(op, key, attempt, err)
		}
		return retry.RetryableError(err)
	})
}

func (r *Retrying) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	err := r.do(ctx, "list", prefix, func(ctx context.Context) error {
		var err error
		out, err = r.Store.List(ctx, prefix)
		return err
	})
	return out, err
}

func (r *Retrying) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := r.do(ctx, "get", key, func(ctx context.Context) error {
		var err error
		out, err = r.Store.Get(ctx, key)
		return err
	})
	return out, err
}

func (r *Retrying) Put(ctx context.Context, key string, data []byte) error {
	return r.do(ctx, "put", key, func(ctx context.Context) error {
		return r.Store.Put(ctx, key, data)
	})
}

func (r *Retrying) StartCopy(ctx context.Context, src, dst string) error {
	return r.do(ctx, "copy", dst, func(ctx context.Context) error {
		return r.Store.StartCopy(ctx, src, dst)
	})
}

func (r *Retrying) CopyStatus(ctx context.Context, key string) (CopyState, error) {
	var out CopyState
	err := r.do(ctx, "copy-status", key, func(ctx context.Context) error {
		var err error
		out, err = r.Store.CopyStatus(ctx, key)
		return err
	})
	return out, err
}

func (r *Retrying) Delete(ctx context.Context, key string) error {
	return r.do(ctx, "delete", key, func(ctx context.Context) error {
		return r.Store.Delete(ctx, key)
	})
}

func (r *Retrying) Close() error { return r.Store.Close() }
