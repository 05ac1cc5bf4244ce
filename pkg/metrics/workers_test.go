package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewJobMetrics(reg)
	job := "test-job"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "job_success", "job", job); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "job_failure", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestSyncMetricsCountsRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSyncMetrics(reg)
	metrics.AddImported(3)
	metrics.AddFailed(1)
	metrics.AddImported(0)
	metrics.AddFailed(-2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := fetchPlainCounter(t, mfs, "catalog_products_imported_total"); got != 3 {
		t.Fatalf("expected imported=3, got %f", got)
	}
	if got := fetchPlainCounter(t, mfs, "catalog_products_failed_total"); got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}
}

func TestPropagationMetricsCountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPropagationMetrics(reg)
	metrics.IncOutcome("success")
	metrics.IncOutcome("success")
	metrics.IncOutcome("error")
	metrics.IncOutcome("")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "inventory_propagation_outcomes_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch success outcome: %v", err)
	} else if got != 2 {
		t.Fatalf("expected success=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "inventory_propagation_outcomes_total", "outcome", "unknown"); err != nil {
		t.Fatalf("fetch unknown outcome: %v", err)
	} else if got != 1 {
		t.Fatalf("expected unknown=1, got %f", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	NewJobMetrics(nil).IncSuccess("noop")
	NewSyncMetrics(nil).AddImported(1)
	NewPropagationMetrics(nil).IncOutcome("success")
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

func fetchPlainCounter(t *testing.T, mfs []*dto.MetricFamily, name string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		t.Fatalf("metric %q not found", name)
	}
	if len(mf.GetMetric()) != 1 {
		t.Fatalf("metric %q has %d series, want 1", name, len(mf.GetMetric()))
	}
	return mf.GetMetric()[0].GetCounter().GetValue()
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
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
