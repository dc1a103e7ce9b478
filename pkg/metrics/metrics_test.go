package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if !matchesLabels(metric, labels) {
				continue
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func matchesLabels(metric *dto.Metric, labels map[string]string) bool {
	got := map[string]string{}
	for _, pair := range metric.GetLabel() {
		got[pair.GetName()] = pair.GetValue()
	}
	for k, v := range labels {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestRemoteCallMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRemoteCallMetrics(reg)

	m.IncAttempt("gateway.query")
	m.IncAttempt("gateway.query")
	m.IncRetry("gateway.query")
	m.IncFailure("gateway.query", "TIMEOUT")

	if got := counterValue(t, reg, "remote_call_attempts", map[string]string{"op": "gateway.query"}); got != 2 {
		t.Fatalf("expected 2 attempts, got %v", got)
	}
	if got := counterValue(t, reg, "remote_call_retries", map[string]string{"op": "gateway.query"}); got != 1 {
		t.Fatalf("expected 1 retry, got %v", got)
	}
	if got := counterValue(t, reg, "remote_call_failures", map[string]string{"op": "gateway.query", "code": "TIMEOUT"}); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
}

func TestLedgerMetricsObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.ObserveSale(10)
	m.ObserveRedemption(20)
	m.IncInconsistency("sale")

	if got := counterValue(t, reg, "ledger_points_earned", nil); got != 10 {
		t.Fatalf("expected 10 points earned, got %v", got)
	}
	if got := counterValue(t, reg, "ledger_points_redeemed", nil); got != 20 {
		t.Fatalf("expected 20 points redeemed, got %v", got)
	}
	if got := counterValue(t, reg, "ledger_inconsistencies", map[string]string{"kind": "sale"}); got != 1 {
		t.Fatalf("expected 1 inconsistency, got %v", got)
	}
}

func TestNilRegistererIsSafe(t *testing.T) {
	remote := NewRemoteCallMetrics(nil)
	remote.IncAttempt("noop")
	remote.IncFailure("noop", "UNKNOWN")

	ledger := NewLedgerMetrics(nil)
	ledger.ObserveSale(1)
	ledger.IncInconsistency("redemption")
}
