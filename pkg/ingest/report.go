package ingest

import "time"

// Report summarises one run.
type Report struct {
	RunID   string
	RunDate string
	Dates   DateSet

	Written     []Written
	Quarantined []Quarantined

	TransactionRows int
	// ClientsUnavailable is set when clients failed validation and the
	// transaction branch was skipped.
	ClientsUnavailable bool
	// TransactionsSkipped is set when no transaction rows were collected.
	TransactionsSkipped bool

	Started  time.Time
	Finished time.Time
}

// Partial returns ErrClientsUnavailable for a run that stopped after the
// reference tables, nil otherwise.
func (r *Report) Partial() error {
	if r.ClientsUnavailable {
		return ErrClientsUnavailable
	}
	return nil
}

// Outcome labels the run for metrics and logs.
func (r *Report) Outcome() string {
	switch {
	case r.ClientsUnavailable:
		return "partial"
	case r.TransactionsSkipped:
		return "empty"
	}
	return "success"
}

func (r *Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// Keys returns every written object key in write order.
func (r *Report) Keys() []string {
	out := make([]string, len(r.Written))
	for i, w := range r.Written {
		out[i] = w.Key
	}
	return out
}
