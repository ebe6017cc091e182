package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRunMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRunMetrics(reg)
	m.RowsLoaded("transactions", 3)
	m.ObjectWritten("transactions", 3)
	m.ObjectWritten("transactions", 2)
	m.Quarantined("transactions", "schema")
	m.RunFinished("success", 250*time.Millisecond, time.Unix(1700000000, 0))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name, label, value string
		want               float64
	}{
		{"blobetl_rows_loaded_total", "table", "transactions", 3},
		{"blobetl_rows_written_total", "table", "transactions", 5},
		{"blobetl_objects_written_total", "table", "transactions", 2},
		{"blobetl_quarantined_total", "reason", "schema", 1},
		{"blobetl_runs_total", "outcome", "success", 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.label, c.value)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s: expected %v, got %v", c.name, c.want, got)
		}
	}
	gauge := findMetricFamily(mfs, "blobetl_last_success_timestamp_seconds")
	if gauge == nil || gauge.GetMetric()[0].GetGauge().GetValue() != 1700000000 {
		t.Fatalf("unexpected last success gauge: %v", gauge)
	}
}

func TestNilRegistryIsNoop(t *testing.T) {
	m := NewRunMetrics(nil)
	m.RowsLoaded("clients", 1)
	m.Quarantined("clients", "schema")
	if err := m.Push("http://unused", "blobetl", nil); err != nil {
		t.Fatal(err)
	}
	var nilMetrics *RunMetrics
	nilMetrics.ObjectWritten("clients", 1)
}

func TestPush(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewRunMetrics(prometheus.NewRegistry())
	m.RowsLoaded("clients", 1)
	if err := m.Push(srv.URL, "blobetl", map[string]string{"container": "c1"}); err != nil {
		t.Fatalf("push: %v", err)
	}
	if path != "/metrics/job/blobetl/container/c1" {
		t.Fatalf("unexpected push path %q", path)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
