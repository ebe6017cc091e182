package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wdm0006/blobetl/pkg/blobstore"
	"github.com/wdm0006/blobetl/pkg/contract"
	"github.com/wdm0006/blobetl/pkg/frame"
	"github.com/wdm0006/blobetl/pkg/logger"
	"github.com/wdm0006/blobetl/pkg/metrics"
)

// References holds the reference tables that passed validation. A table that
// was quarantined is nil.
type References struct {
	Clients  *frame.Frame
	Stores   *frame.Frame
	Products *frame.Frame
	// ClientsAvailable is false when clients failed validation; the
	// transaction branch must not run.
	ClientsAvailable bool
	Quarantined      []Quarantined
}

// Table returns the frame loaded for kind, nil if it was rejected.
func (r *References) Table(kind string) *frame.Frame {
	switch kind {
	case contract.Clients:
		return r.Clients
	case contract.Stores:
		return r.Stores
	case contract.Products:
		return r.Products
	}
	return nil
}

func (r *References) set(kind string, f *frame.Frame) {
	switch kind {
	case contract.Clients:
		r.Clients = f
	case contract.Stores:
		r.Stores = f
	case contract.Products:
		r.Products = f
	}
}

// referenceKinds is the load order of the reference tables.
var referenceKinds = []string{contract.Clients, contract.Stores, contract.Products}

// Loader reads and validates the reference tables.
type Loader struct {
	Store     blobstore.Store
	Contracts contract.Set
	Layout    Layout
	Mover     *Mover
	// RunDate names reference quarantine objects.
	RunDate string
	Log     *logger.Logger
	Metrics *metrics.RunMetrics
}

// Load reads clients, stores and products. A table that fails to parse or to
// validate is quarantined and left out; the others are still loaded. A
// missing object or any other store failure aborts the load.
func (l *Loader) Load(ctx context.Context) (*References, error) {
	log := orNop(l.Log)
	refs := &References{}
	for _, kind := range referenceKinds {
		key := l.Layout.ReferenceObject(kind)
		tctx := log.WithObject(log.WithTable(ctx, kind), key)

		c, err := l.Contracts.For(kind)
		if err != nil {
			return nil, err
		}
		f, err := LoadCSV(tctx, l.Store, key, l.Layout.Delimiter)
		if err == nil {
			err = contract.Check(f, c)
		}
		var (
			pe *ParseError
			sm *contract.SchemaMismatchError
		)
		switch {
		case err == nil:
		case errors.As(err, &pe), errors.As(err, &sm):
			q, qerr := l.Reject(tctx, kind, err)
			if qerr != nil {
				return nil, qerr
			}
			refs.Quarantined = append(refs.Quarantined, q)
			continue
		default:
			return nil, fmt.Errorf("load %s: %w", kind, err)
		}

		refs.set(kind, f)
		l.Metrics.RowsLoaded(kind, f.Rows())
		log.Event(tctx, zerolog.InfoLevel).Int("rows", f.Rows()).Msg("reference table loaded")
		logProfile(tctx, log, f)
	}
	refs.ClientsAvailable = refs.Clients != nil
	return refs, nil
}

// Reject quarantines the object of a reference kind under
// errors/<name>_<run date>.csv.
func (l *Loader) Reject(ctx context.Context, kind string, cause error) (Quarantined, error) {
	key := l.Layout.ReferenceObject(kind)
	return l.Mover.Reject(ctx, kind, key, l.Layout.ReferenceQuarantineKey(key, l.RunDate), cause)
}
