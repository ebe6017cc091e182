// Package ingest runs one batch: load and validate the reference tables and
// the day's transactions, quarantine what fails, enrich what passes and write
// the result back as partitioned parquet.
package ingest

import (
	"path"
	"strings"

	"github.com/wdm0006/blobetl/pkg/contract"
)

// Columns names the columns the transforms read and produce.
type Columns struct {
	ClientKey string // clients: internal id, dropped after the join
	Account   string // clients: account identifier carried onto transactions
	ClientRef string // transactions: reference to ClientKey
	Date      string
	Hour      string
	Minute    string
	LatLng    string
	Latitude  string
	Longitude string
	Datetime  string
}

// Layout describes where inputs live and where outputs and rejects go.
type Layout struct {
	Clients            string
	Stores             string
	Products           string
	TransactionsPrefix string
	OutputPrefix       string
	ErrorsPrefix       string
	Delimiter          rune
	Columns            Columns
}

func DefaultLayout() Layout {
	return Layout{
		Clients:            "clients.csv",
		Stores:             "stores.csv",
		Products:           "products.csv",
		TransactionsPrefix: "transactions",
		OutputPrefix:       "formatted",
		ErrorsPrefix:       "errors",
		Delimiter:          ';',
		Columns: Columns{
			ClientKey: "id",
			Account:   "account_id",
			ClientRef: "client_id",
			Date:      "date",
			Hour:      "hour",
			Minute:    "minute",
			LatLng:    "latlng",
			Latitude:  "latitude",
			Longitude: "longitude",
			Datetime:  "datetime",
		},
	}
}

// ReferenceObject returns the object key of a reference table kind.
func (l Layout) ReferenceObject(kind string) string {
	switch kind {
	case contract.Clients:
		return l.Clients
	case contract.Stores:
		return l.Stores
	case contract.Products:
		return l.Products
	}
	return ""
}

// ReferenceQuarantineKey is errors/<name>_<runDate>.csv, where name is the
// object's base name without extension.
func (l Layout) ReferenceQuarantineKey(object, runDate string) string {
	base := path.Base(object)
	name := strings.TrimSuffix(base, path.Ext(base))
	return path.Join(l.ErrorsPrefix, name+"_"+runDate+".csv")
}

// TransactionQuarantineKey keeps the original key under the errors prefix.
func (l Layout) TransactionQuarantineKey(key string) string {
	return path.Join(l.ErrorsPrefix, key)
}

// PartitionKey is <output>/<name>/date=<date>/<name>.parquet.
func (l Layout) PartitionKey(name, date string) string {
	return path.Join(l.OutputPrefix, name, "date="+date, name+".parquet")
}

func (l Layout) transactionsListPrefix() string {
	return strings.TrimSuffix(l.TransactionsPrefix, "/") + "/"
}
