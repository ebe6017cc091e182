package blobstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// flaky fails the first n calls of every operation.
type flaky struct {
	*MemoryStore
	n     int
	calls int
}

func (f *flaky) Get(ctx context.Context, key string) ([]byte, error) {
	f.calls++
	if f.calls <= f.n {
		return nil, errors.New("connection reset")
	}
	return f.MemoryStore.Get(ctx, key)
}

func TestRetryingRecovers(t *testing.T) {
	ctx := context.Background()
	inner := &flaky{MemoryStore: NewMemoryStore(), n: 2}
	require.NoError(t, inner.Put(ctx, "a.csv", []byte("a")))

	var retried []int
	r := NewRetrying(inner, fast, time.Second)
	r.OnRetry = func(op, key string, attempt int, err error) { retried = append(retried, attempt) }

	b, err := r.Get(ctx, "a.csv")
	require.NoError(t, err)
	require.Equal(t, "a", string(b))
	require.Equal(t, []int{1, 2}, retried)
}

func TestRetryingGivesUp(t *testing.T) {
	inner := &flaky{MemoryStore: NewMemoryStore(), n: 100}
	r := NewRetrying(inner, fast, time.Second)
	_, err := r.Get(context.Background(), "a.csv")
	require.EqualError(t, err, "connection reset")
	require.Equal(t, 5, inner.calls)
}

func TestRetryingSkipsNotFound(t *testing.T) {
	inner := &flaky{MemoryStore: NewMemoryStore()}
	r := NewRetrying(inner, fast, time.Second)
	_, err := r.Get(context.Background(), "missing.csv")
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 1, inner.calls)
}

func TestRetryingHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inner := &flaky{MemoryStore: NewMemoryStore(), n: 100}
	_, err := NewRetrying(inner, fast, time.Second).Get(ctx, "a.csv")
	require.ErrorIs(t, err, context.Canceled)
}
