package ingest

import (
	"errors"
	"fmt"

	"github.com/wdm0006/blobetl/pkg/contract"
	"github.com/wdm0006/blobetl/pkg/transform/enrich"
	"github.com/wdm0006/blobetl/pkg/transform/geo"
)

// ErrClientsUnavailable marks a run whose clients table failed validation.
// Reference tables were still written; transactions were not processed.
var ErrClientsUnavailable = errors.New("clients unavailable: transactions not processed")

// ErrRunLocked means another run holds the lock for the same container and dates.
var ErrRunLocked = errors.New("run locked")

// ParseError is a CSV object that could not be read into a frame.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Key, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Reason classifies why an object was quarantined.
type Reason string

const (
	ReasonSchema      Reason = "schema"
	ReasonCoordinates Reason = "coordinates"
	ReasonDatetime    Reason = "datetime"
	ReasonParse       Reason = "parse"
	ReasonOther       Reason = "other"
)

func reasonFor(err error) Reason {
	var (
		sm *contract.SchemaMismatchError
		mc *geo.MalformedCoordinateError
		md *enrich.MalformedDatetimeError
		pe *ParseError
	)
	switch {
	case errors.As(err, &sm):
		return ReasonSchema
	case errors.As(err, &mc):
		return ReasonCoordinates
	case errors.As(err, &md):
		return ReasonDatetime
	case errors.As(err, &pe):
		return ReasonParse
	}
	return ReasonOther
}

// Quarantined records one object moved under the errors prefix.
type Quarantined struct {
	Table       string
	Source      string
	Destination string
	Reason      Reason
	Err         error
}
