package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCheckoutMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)

	m.IncCartCreated()
	m.IncCartCreated()
	m.IncCartRaceRecovered()
	m.IncReferenceCollision()
	m.IncPaymentProcessed("debito")
	m.IncPaymentProcessed("")
	m.IncStockCheck("shortage")
	m.ObservePayment("success", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got := fetchPlainCounter(t, mfs, "storefront_carts_created_total"); got != 2 {
		t.Fatalf("expected carts created 2, got %f", got)
	}
	if got := fetchPlainCounter(t, mfs, "storefront_cart_create_races_recovered_total"); got != 1 {
		t.Fatalf("expected races recovered 1, got %f", got)
	}
	if got := fetchPlainCounter(t, mfs, "storefront_payment_reference_collisions_total"); got != 1 {
		t.Fatalf("expected collisions 1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "storefront_payments_processed_total", "payment_type", "debito"); err != nil || got != 1 {
		t.Fatalf("expected debit payments 1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_payments_processed_total", "payment_type", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected unknown label for empty type, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_stock_checks_total", "outcome", "shortage"); err != nil || got != 1 {
		t.Fatalf("expected shortage checks 1, got %f err=%v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "storefront_payment_processing_duration_seconds", "outcome", "success"); err != nil || got <= 0 {
		t.Fatalf("expected positive duration sum, got %f err=%v", got, err)
	}
}

func TestNilCheckoutMetricsIsNoop(t *testing.T) {
	var m *CheckoutMetrics
	m.IncCartCreated()
	m.IncStockCheck("available")

	unregistered := NewCheckoutMetrics(nil)
	unregistered.IncPaymentProcessed("credito")
	unregistered.ObservePayment("failure", time.Second)
}

func fetchPlainCounter(t *testing.T, mfs []*dto.MetricFamily, name string) float64 {
	t.Helper()
	mf := findMetricFamily(mfs, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		t.Fatalf("metric %q not found", name)
	}
	return mf.GetMetric()[0].GetCounter().GetValue()
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
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
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
