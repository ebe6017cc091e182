package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wdm0006/blobetl/pkg/blobstore"
	"github.com/wdm0006/blobetl/pkg/contract"
)

func TestRunEndToEnd(t *testing.T) {
	s := seed(t, with(references(), map[string]string{
		"transactions/2023-10-02_a.csv": validTx,
		"transactions/2023-10-02_b.csv": wrongTx,
	}))

	report, err := newRunner(t, s).Run(context.Background(), DateSet{"2023-10-02"})
	require.NoError(t, err)
	require.NoError(t, report.Partial())
	require.Equal(t, "success", report.Outcome())
	require.Equal(t, 3, report.TransactionRows)

	require.Equal(t, []string{
		"formatted/clients/date=2023-10-02/clients.parquet",
		"formatted/stores/date=2023-10-02/stores.parquet",
		"formatted/products/date=2023-10-02/products.parquet",
		"formatted/transactions/date=2023-10-02/transactions.parquet",
	}, report.Keys())

	require.Len(t, report.Quarantined, 1)
	q := report.Quarantined[0]
	require.Equal(t, "transactions/2023-10-02_b.csv", q.Source)
	require.Equal(t, "errors/transactions/2023-10-02_b.csv", q.Destination)
	require.Equal(t, ReasonSchema, q.Reason)
	require.Equal(t, []string{"errors/transactions/2023-10-02_b.csv"}, s.Keys("errors/"))

	tx := decode(t, s, "formatted/transactions/date=2023-10-02/transactions.parquet")
	require.Equal(t, 3, tx.Rows())
	require.False(t, tx.Has("id"))
	require.Equal(t, "ACC-7", value(t, tx, 0, "account_id"))
	require.Equal(t, "ACC-8", value(t, tx, 1, "account_id"))
	require.Nil(t, value(t, tx, 2, "account_id"))
	require.Equal(t, int64(99), value(t, tx, 2, "client_id"))
	require.Equal(t, time.Date(2023, 10, 2, 14, 5, 0, 0, time.UTC), value(t, tx, 0, "datetime").(time.Time).UTC())

	stores := decode(t, s, "formatted/stores/date=2023-10-02/stores.parquet")
	require.False(t, stores.Has("latlng"))
	require.False(t, stores.Has("latlng_clean"))
	require.Equal(t, 45.1, value(t, stores, 0, "latitude"))
	require.Equal(t, 2.3, value(t, stores, 0, "longitude"))
	require.Equal(t, -3.5, value(t, stores, 1, "latitude"))
}

func TestRunSplitsPartitions(t *testing.T) {
	s := seed(t, with(references(), map[string]string{
		"transactions/2023-10-01.csv": "date;hour;minute;client_id\n2023-10-01;8;0;7\n",
		"transactions/2023-10-02.csv": validTx,
	}))

	report, err := newRunner(t, s).Run(context.Background(), DateSet{"2023-10-01", "2023-10-02"})
	require.NoError(t, err)
	require.Equal(t, 4, report.TransactionRows)
	require.Equal(t, []string{
		"formatted/transactions/date=2023-10-01/transactions.parquet",
		"formatted/transactions/date=2023-10-02/transactions.parquet",
	}, s.Keys("formatted/transactions/"))
	require.Equal(t, 1, decode(t, s, "formatted/transactions/date=2023-10-01/transactions.parquet").Rows())
}

func TestRunAcceptsUnsortedDates(t *testing.T) {
	s := seed(t, with(references(), map[string]string{
		"transactions/2023-10-01.csv": "date;hour;minute;client_id\n2023-10-01;8;0;7\n",
		"transactions/2023-10-02.csv": validTx,
	}))

	report, err := newRunner(t, s).Run(context.Background(), DateSet{"2023-10-02", "2023-10-01", "2023-10-02"})
	require.NoError(t, err)
	require.Equal(t, "success", report.Outcome())
	require.Equal(t, 4, report.TransactionRows)
	require.Equal(t, DateSet{"2023-10-01", "2023-10-02"}, report.Dates)
}

func TestRunInfinityQuarantinesTable(t *testing.T) {
	contracts := contract.Set{}
	for k, v := range testContracts {
		contracts[k] = v
	}
	contracts[contract.Products] = contract.Contract{"id": "int64", "price": "float64"}
	objects := with(references(), map[string]string{"transactions/2023-10-02.csv": validTx})
	objects["products.csv"] = "id;price\n1;1.5\n2;inf\n"
	s := seed(t, objects)
	r := newRunner(t, s)
	r.opts.Contracts = contracts

	report, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "success", report.Outcome())
	require.Len(t, report.Quarantined, 1)
	require.Equal(t, "products.csv", report.Quarantined[0].Source)
	require.Equal(t, ReasonSchema, report.Quarantined[0].Reason)
	require.Equal(t, []string{"errors/products_2023-10-02.csv"}, s.Keys("errors/"))
	require.Empty(t, s.Keys("formatted/products/"))
	require.Len(t, s.Keys("formatted/transactions/"), 1)
}

func TestRunClientsInvalid(t *testing.T) {
	objects := with(references(), map[string]string{"transactions/2023-10-02.csv": validTx})
	objects["clients.csv"] = "id;acct\n7;ACC-7\n"
	s := seed(t, objects)

	report, err := newRunner(t, s).Run(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, report.ClientsUnavailable)
	require.True(t, errors.Is(report.Partial(), ErrClientsUnavailable))
	require.Equal(t, "partial", report.Outcome())
	require.Equal(t, DateSet{"2023-10-02"}, report.Dates)

	require.Equal(t, []string{
		"formatted/stores/date=2023-10-02/stores.parquet",
		"formatted/products/date=2023-10-02/products.parquet",
	}, report.Keys())
	require.Empty(t, s.Keys("formatted/transactions/"))
	require.Equal(t, []string{"errors/clients_2023-10-02.csv"}, s.Keys("errors/"))
}

func TestRunMalformedCoordinatesQuarantinesStores(t *testing.T) {
	objects := with(references(), map[string]string{"transactions/2023-10-02.csv": validTx})
	objects["stores.csv"] = "id;latlng\n1;(45.1,2.3)\n2;(45.1)\n3;(a,b)\n"
	s := seed(t, objects)

	report, err := newRunner(t, s).Run(context.Background(), DateSet{"2023-10-02"})
	require.NoError(t, err)
	require.Len(t, report.Quarantined, 1)
	require.Equal(t, ReasonCoordinates, report.Quarantined[0].Reason)
	require.Equal(t, "errors/stores_2023-10-02.csv", report.Quarantined[0].Destination)
	require.Empty(t, s.Keys("formatted/stores/"))
	require.Len(t, s.Keys("formatted/transactions/"), 1)
}

func TestRunEmptyBatch(t *testing.T) {
	s := seed(t, with(references(), map[string]string{"transactions/2023-09-30.csv": validTx}))

	report, err := newRunner(t, s).Run(context.Background(), DateSet{"2023-10-02"})
	require.NoError(t, err)
	require.True(t, report.TransactionsSkipped)
	require.Equal(t, "empty", report.Outcome())
	require.Empty(t, s.Keys("formatted/transactions/"))
	require.Empty(t, report.Quarantined)
}

func TestRunIsIdempotent(t *testing.T) {
	s := seed(t, with(references(), map[string]string{"transactions/2023-10-02.csv": validTx}))
	r := newRunner(t, s)

	first, err := r.Run(context.Background(), DateSet{"2023-10-02"})
	require.NoError(t, err)
	second, err := r.Run(context.Background(), DateSet{"2023-10-02"})
	require.NoError(t, err)
	require.Equal(t, first.Keys(), second.Keys())
	require.Equal(t, first.TransactionRows, second.TransactionRows)
	require.NotEqual(t, first.RunID, second.RunID)
}

func TestRunMissingReferenceIsFatal(t *testing.T) {
	objects := references()
	delete(objects, "products.csv")
	s := seed(t, objects)

	_, err := newRunner(t, s).Run(context.Background(), nil)
	require.True(t, errors.Is(err, blobstore.ErrNotFound))
	var se *blobstore.StoreError
	require.ErrorAs(t, err, &se)
	require.Empty(t, s.Keys("formatted/"))
}

type heldLock struct{}

func (heldLock) Acquire(context.Context) (bool, error) { return false, nil }
func (heldLock) Release(context.Context) error         { return nil }

func TestRunLocked(t *testing.T) {
	s := seed(t, references())
	r := newRunner(t, s)
	r.opts.Lock = heldLock{}

	_, err := r.Run(context.Background(), nil)
	require.ErrorIs(t, err, ErrRunLocked)
	require.Empty(t, s.Keys("formatted/"))
}

func TestRunHonoursCancel(t *testing.T) {
	s := seed(t, with(references(), map[string]string{"transactions/2023-10-02.csv": validTx}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newRunner(t, s).Run(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}
