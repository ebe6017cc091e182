package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wdm0006/blobetl/pkg/blobstore"
	"github.com/wdm0006/blobetl/pkg/contract"
)

func TestMoveCopiesAndKeepsSource(t *testing.T) {
	s := seed(t, map[string]string{"a.csv": "x"})
	s.PendingPolls = 2

	require.NoError(t, newMover(s).Move(context.Background(), "a.csv", "errors/a.csv"))
	require.Equal(t, []string{"a.csv", "errors/a.csv"}, s.Keys(""))
	require.Empty(t, s.Deleted())
}

func TestMoveDeletesSourceWhenAsked(t *testing.T) {
	s := seed(t, map[string]string{"a.csv": "x"})
	m := newMover(s)
	m.DeleteSource = true

	require.NoError(t, m.Move(context.Background(), "a.csv", "errors/a.csv"))
	require.Equal(t, []string{"a.csv"}, s.Deleted())
	require.Equal(t, []string{"errors/a.csv"}, s.Keys(""))
}

func TestMoveFailures(t *testing.T) {
	ctx := context.Background()

	s := seed(t, map[string]string{"a.csv": "x"})
	s.CopyOutcome = blobstore.CopyAborted
	m := newMover(s)
	m.DeleteSource = true
	var failed *blobstore.CopyFailedError
	require.ErrorAs(t, m.Move(ctx, "a.csv", "errors/a.csv"), &failed)
	require.Empty(t, s.Deleted())

	s = seed(t, map[string]string{"a.csv": "x"})
	s.PendingPolls = 100
	var timeout *blobstore.CopyTimeoutError
	require.ErrorAs(t, newMover(s).Move(ctx, "a.csv", "errors/a.csv"), &timeout)

	err := newMover(blobstore.NewMemoryStore()).Move(ctx, "missing.csv", "errors/missing.csv")
	require.True(t, errors.Is(err, blobstore.ErrNotFound))
}

func TestRejectClassifies(t *testing.T) {
	s := seed(t, map[string]string{"a.csv": "x"})
	cause := &contract.SchemaMismatchError{Diagnostics: []contract.Diagnostic{{Column: "a", Expected: "int64"}}}

	q, err := newMover(s).Reject(context.Background(), "clients", "a.csv", "errors/a_2023-10-02.csv", cause)
	require.NoError(t, err)
	require.Equal(t, ReasonSchema, q.Reason)
	require.Equal(t, "errors/a_2023-10-02.csv", q.Destination)
	require.Equal(t, []blobstore.CopyRecord{{Src: "a.csv", Dst: "errors/a_2023-10-02.csv"}}, s.Copies())
}
