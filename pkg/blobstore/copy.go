package blobstore

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
)

// CopyTimeoutError means a copy was still pending when the poll budget ran out.
type CopyTimeoutError struct {
	Key      string
	Attempts int
}

func (e *CopyTimeoutError) Error() string {
	return fmt.Sprintf("copy to %q still pending after %d polls", e.Key, e.Attempts)
}

// CopyFailedError means a copy settled in a state other than success.
type CopyFailedError struct {
	Key   string
	State CopyState
}

func (e *CopyFailedError) Error() string {
	return fmt.Sprintf("copy to %q ended %s", e.Key, e.State)
}

var errCopyPending = errors.New("copy pending")

// PollCopy waits for the copy producing key to leave the pending state,
// polling under p. It returns nil only for a successful copy.
func PollCopy(ctx context.Context, s Store, key string, p Policy) error {
	polls := 0
	var state CopyState
	err := retry.Do(ctx, p.Backoff(), func(ctx context.Context) error {
		polls++
		st, err := s.CopyStatus(ctx, key)
		if err != nil {
			return err
		}
		state = st
		if st == CopyPending {
			return retry.RetryableError(errCopyPending)
		}
		return nil
	})
	switch {
	case errors.Is(err, errCopyPending):
		return &CopyTimeoutError{Key: key, Attempts: polls}
	case err != nil:
		return err
	case state != CopySuccess:
		return &CopyFailedError{Key: key, State: state}
	}
	return nil
}
