package blobstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fast = Policy{Initial: time.Millisecond, Max: 2 * time.Millisecond, Attempts: 4}

func TestPollCopyWaitsForPending(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.PendingPolls = 2
	require.NoError(t, s.Put(ctx, "a.csv", []byte("a")))
	require.NoError(t, s.StartCopy(ctx, "a.csv", "errors/a.csv"))

	_, err := s.Get(ctx, "errors/a.csv")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, PollCopy(ctx, s, "errors/a.csv", fast))
	require.Equal(t, []string{"a.csv", "errors/a.csv"}, s.Keys(""))
	require.Equal(t, []CopyRecord{{Src: "a.csv", Dst: "errors/a.csv"}}, s.Copies())
}

func TestPollCopyTimesOut(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.PendingPolls = 100
	require.NoError(t, s.Put(ctx, "a.csv", []byte("a")))
	require.NoError(t, s.StartCopy(ctx, "a.csv", "errors/a.csv"))

	err := PollCopy(ctx, s, "errors/a.csv", fast)
	var cte *CopyTimeoutError
	require.ErrorAs(t, err, &cte)
	require.Equal(t, 5, cte.Attempts)
}

func TestPollCopyFailed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.CopyOutcome = CopyFailed
	require.NoError(t, s.Put(ctx, "a.csv", []byte("a")))
	require.NoError(t, s.StartCopy(ctx, "a.csv", "errors/a.csv"))

	err := PollCopy(ctx, s, "errors/a.csv", fast)
	var cfe *CopyFailedError
	require.ErrorAs(t, err, &cfe)
	require.Equal(t, CopyFailed, cfe.State)
}

func TestPollCopyMissing(t *testing.T) {
	err := PollCopy(context.Background(), NewMemoryStore(), "nope", fast)
	require.ErrorIs(t, err, ErrNotFound)
}
