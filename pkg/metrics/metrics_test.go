package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestSyncMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyncMetrics(reg)

	m.ObserveSync(OutcomeSuccess, 120*time.Millisecond)
	m.ObserveSync(OutcomeDenied, time.Millisecond)
	m.ObserveMerge("steps", true)
	m.ObserveMerge("steps", false)
	m.ObserveMerge("steps", false)
	m.ObserveJob("auto-sync", 10*time.Millisecond, nil)
	m.ObserveJob("auto-sync", 10*time.Millisecond, errors.New("boom"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	tests := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"moodtrack_health_sync_total", map[string]string{"outcome": "success"}, 1},
		{"moodtrack_health_sync_total", map[string]string{"outcome": "denied"}, 1},
		{"moodtrack_health_metric_merge_total", map[string]string{"metric": "steps", "result": "applied"}, 1},
		{"moodtrack_health_metric_merge_total", map[string]string{"metric": "steps", "result": "locked"}, 2},
		{"moodtrack_job_success", map[string]string{"job": "auto-sync"}, 1},
		{"moodtrack_job_failure", map[string]string{"job": "auto-sync"}, 1},
	}
	for _, tt := range tests {
		got, err := fetchCounterValue(mfs, tt.name, tt.labels)
		if err != nil {
			t.Fatalf("fetch %s: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s%v: expected %f, got %f", tt.name, tt.labels, tt.want, got)
		}
	}

	mf := findMetricFamily(mfs, "moodtrack_health_sync_duration_seconds")
	if mf == nil {
		t.Fatalf("expected sync duration histogram")
	}
}

func TestNilSyncMetricsIsSafe(t *testing.T) {
	var m *SyncMetrics
	m.ObserveSync(OutcomeError, time.Second)
	m.ObserveMerge("water", true)
	m.ObserveJob("", time.Second, nil)

	empty := NewSyncMetrics(nil)
	empty.ObserveSync(OutcomeSuccess, time.Second)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, labels map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if want, ok := labels[pair.GetName()]; ok && want == pair.GetValue() {
			matched++
		}
	}
	return matched == len(labels)
}
