// Package blobstore abstracts the object store the pipeline reads from and
// writes to.
package blobstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is matched with errors.Is for a missing object.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a listed object.
type ObjectInfo struct {
	Key      string
	Size     int64
	Modified time.Time
}

// CopyState is the progress of a store-side copy.
type CopyState string

const (
	CopyPending CopyState = "pending"
	CopySuccess CopyState = "success"
	CopyFailed  CopyState = "failed"
	CopyAborted CopyState = "aborted"
)

// Store is a flat key/value object store. List returns keys in lexical
// order. Put overwrites. StartCopy may complete asynchronously; CopyStatus
// reports the state of the copy that produced key.
type Store interface {
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	StartCopy(ctx context.Context, src, dst string) error
	CopyStatus(ctx context.Context, key string) (CopyState, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// StoreError carries the operation and object behind a store failure.
type StoreError struct {
	Op      string
	Backend string
	Key     string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(backend, op, key string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Backend: backend, Key: key, Err: err}
}

func notFound(backend, op, key string) error {
	return &StoreError{Op: op, Backend: backend, Key: key, Err: errors.WithStack(ErrNotFound)}
}

func sortInfos(infos []ObjectInfo) []ObjectInfo {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos
}
