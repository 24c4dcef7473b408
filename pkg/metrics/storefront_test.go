package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestStorefrontExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefront(reg)
	m.CartMutation("add", ResultOK)
	m.CartMutation("add", ResultOK)
	m.CartMutation("update", "insufficient_stock")
	m.CheckoutOutcome("synced")
	m.DeliveryPoll(Result(errors.New("boom")))
	m.Geocode("reverse", "")
	m.ObserveSubmit(120 * time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"cart_mutations_total", map[string]string{"op": "add", "result": "ok"}, 2},
		{"cart_mutations_total", map[string]string{"op": "update", "result": "insufficient_stock"}, 1},
		{"checkout_outcomes_total", map[string]string{"state": "synced"}, 1},
		{"delivery_polls_total", map[string]string{"result": "error"}, 1},
		{"geocode_requests_total", map[string]string{"kind": "reverse", "result": "unknown"}, 1},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.labels)
		if err != nil {
			t.Fatalf("fetch %s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s%v: expected %f, got %f", c.name, c.labels, c.want, got)
		}
	}

	mf := findMetricFamily(mfs, "checkout_submit_duration_seconds")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("submit histogram missing")
	}
	if sum := mf.GetMetric()[0].GetHistogram().GetSampleSum(); sum <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", sum)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var m *Storefront
	m.CartMutation("add", ResultOK)
	m.CheckoutOutcome("synced")
	m.DeliveryPoll(ResultOK)
	m.Geocode("forward", ResultOK)
	m.ObserveSubmit(time.Second)

	unregistered := NewStorefront(nil)
	unregistered.CartMutation("add", ResultOK)
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

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
