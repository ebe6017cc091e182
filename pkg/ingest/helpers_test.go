package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wdm0006/blobetl/pkg/blobstore"
	"github.com/wdm0006/blobetl/pkg/contract"
	"github.com/wdm0006/blobetl/pkg/frame"
	"github.com/wdm0006/blobetl/pkg/io/parquetio"
	"github.com/wdm0006/blobetl/pkg/logger"
)

var testContracts = contract.Set{
	contract.Clients:      {"id": "int64", "account_id": "object"},
	contract.Stores:       {"id": "int64", "latlng": "object"},
	contract.Products:     {"id": "int64", "name": "object"},
	contract.Transactions: {"date": "object", "hour": "int64", "minute": "int64", "client_id": "int64"},
}

const (
	clientsCSV  = "id;account_id\n7;ACC-7\n8;ACC-8\n"
	storesCSV   = "id;latlng\n1;(45.1,2.3)\n2;(-3.5, 10)\n"
	productsCSV = "id;name\n1;apple\n2;pear\n"
	validTx     = "date;hour;minute;client_id\n2023-10-02;14;5;7\n2023-10-02;9;30;8\n2023-10-02;23;59;99\n"
	wrongTx     = "date;client\n2023-10-02;7\n"
)

var fastPoll = blobstore.Policy{Initial: time.Millisecond, Max: 2 * time.Millisecond, Attempts: 4}

func seed(t *testing.T, objects map[string]string) *blobstore.MemoryStore {
	t.Helper()
	s := blobstore.NewMemoryStore()
	for k, v := range objects {
		require.NoError(t, s.Put(context.Background(), k, []byte(v)))
	}
	return s
}

func references() map[string]string {
	return map[string]string{
		"clients.csv":  clientsCSV,
		"stores.csv":   storesCSV,
		"products.csv": productsCSV,
	}
}

func with(base map[string]string, extra map[string]string) map[string]string {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

func newMover(s blobstore.Store) *Mover {
	return &Mover{Store: s, Poll: fastPoll, Log: logger.Nop()}
}

func newRunner(t *testing.T, s blobstore.Store) *Runner {
	t.Helper()
	r, err := NewRunner(Options{
		Store:     s,
		Contracts: testContracts,
		Poll:      fastPoll,
		Parquet:   parquetio.WriterOptions{TempDir: t.TempDir()},
		RunDate:   "2023-10-02",
		Now:       func() time.Time { return time.Date(2023, 10, 2, 6, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return r
}

func decode(t *testing.T, s blobstore.Store, key string) *frame.Frame {
	t.Helper()
	b, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	f, err := parquetio.Decode(b)
	require.NoError(t, err)
	return f
}

func value(t *testing.T, f *frame.Frame, row int, name string) any {
	t.Helper()
	v, err := f.Value(row, name)
	require.NoError(t, err)
	return v
}
