package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// RunMetrics records what one batch run read, wrote and rejected.
type RunMetrics struct {
	rowsLoaded  *prometheus.CounterVec
	rowsWritten *prometheus.CounterVec
	objects     *prometheus.CounterVec
	quarantined *prometheus.CounterVec
	runs        *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
	gatherer    prometheus.Gatherer
}

// NewRunMetrics registers the run metrics on reg. A nil reg gives a
// RunMetrics whose methods do nothing.
func NewRunMetrics(reg *prometheus.Registry) *RunMetrics {
	if reg == nil {
		return &RunMetrics{}
	}
	m := &RunMetrics{
		rowsLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blobetl_rows_loaded_total",
			Help: "Rows loaded from CSV objects that passed validation.",
		}, []string{"table"}),
		rowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blobetl_rows_written_total",
			Help: "Rows written to parquet objects.",
		}, []string{"table"}),
		objects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blobetl_objects_written_total",
			Help: "Parquet objects uploaded.",
		}, []string{"table"}),
		quarantined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blobetl_quarantined_total",
			Help: "Objects moved under the errors prefix.",
		}, []string{"table", "reason"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blobetl_runs_total",
			Help: "Completed runs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blobetl_run_duration_seconds",
			Help:    "Duration of runs in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "blobetl_last_success_timestamp_seconds",
			Help: "Unix time of the last run that completed without error.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.rowsLoaded, m.rowsWritten, m.objects, m.quarantined, m.runs, m.duration, m.lastSuccess)
	return m
}

func (m *RunMetrics) RowsLoaded(table string, n int) {
	if m == nil || m.rowsLoaded == nil {
		return
	}
	m.rowsLoaded.WithLabelValues(normalizeLabel(table)).Add(float64(n))
}

func (m *RunMetrics) ObjectWritten(table string, rows int) {
	if m == nil || m.objects == nil {
		return
	}
	m.objects.WithLabelValues(normalizeLabel(table)).Inc()
	m.rowsWritten.WithLabelValues(normalizeLabel(table)).Add(float64(rows))
}

func (m *RunMetrics) Quarantined(table, reason string) {
	if m == nil || m.quarantined == nil {
		return
	}
	m.quarantined.WithLabelValues(normalizeLabel(table), normalizeLabel(reason)).Inc()
}

// RunFinished records the outcome and duration of a run. Runs that end
// "success" or "empty" move the last-success gauge.
func (m *RunMetrics) RunFinished(outcome string, d time.Duration, at time.Time) {
	if m == nil || m.runs == nil {
		return
	}
	m.runs.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(d.Seconds())
	if outcome == "success" || outcome == "empty" {
		m.lastSuccess.Set(float64(at.Unix()))
	}
}

// Push sends everything gathered to a Prometheus pushgateway.
func (m *RunMetrics) Push(url, job string, grouping map[string]string) error {
	if m == nil || m.gatherer == nil || url == "" {
		return nil
	}
	p := push.New(url, job).Gatherer(m.gatherer)
	for k, v := range grouping {
		p = p.Grouping(k, v)
	}
	return p.Push()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
