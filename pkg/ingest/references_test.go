package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoaderQuarantinesAndContinues(t *testing.T) {
	objects := references()
	objects["products.csv"] = "id;name\n1;apple;extra\n"
	objects["stores.csv"] = "id;latlng\n1.5;(1,2)\n"
	s := seed(t, objects)
	mover := newMover(s)
	mover.DeleteSource = true
	l := &Loader{Store: s, Contracts: testContracts, Layout: DefaultLayout(), Mover: mover, RunDate: "2023-10-02"}

	refs, err := l.Load(context.Background())
	require.NoError(t, err)
	require.True(t, refs.ClientsAvailable)
	require.Equal(t, 2, refs.Clients.Rows())
	require.Nil(t, refs.Stores)
	require.Nil(t, refs.Products)

	require.Len(t, refs.Quarantined, 2)
	require.Equal(t, ReasonSchema, refs.Quarantined[0].Reason)
	require.Equal(t, "errors/stores_2023-10-02.csv", refs.Quarantined[0].Destination)
	require.Equal(t, ReasonParse, refs.Quarantined[1].Reason)
	require.Equal(t, "errors/products_2023-10-02.csv", refs.Quarantined[1].Destination)
	require.Equal(t, []string{"stores.csv", "products.csv"}, s.Deleted())
}

func TestLoaderZeroRowsValidate(t *testing.T) {
	objects := references()
	objects["clients.csv"] = "id;account_id\n"
	s := seed(t, objects)
	l := &Loader{Store: s, Contracts: testContracts, Layout: DefaultLayout(), Mover: newMover(s), RunDate: "2023-10-02"}

	refs, err := l.Load(context.Background())
	require.NoError(t, err)
	// a header-only file reads every column as object
	require.False(t, refs.ClientsAvailable)
	require.Equal(t, ReasonSchema, refs.Quarantined[0].Reason)
}
