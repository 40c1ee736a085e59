package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestMetricsRegistered verifies every collector is in the default registry.
func TestMetricsRegistered(t *testing.T) {
	RequestsTotal.WithLabelValues("GET", "2xx").Inc()
	RequestDuration.WithLabelValues("GET").Observe(0.01)
	ObserveNegotiation(OutcomeMatched, "application/json")
	ObserveDecision(true)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("unexpected gather error: %v", err)
	}

	expected := map[string]bool{
		"reqmatch_requests_total":            false,
		"reqmatch_request_duration_seconds":  false,
		"reqmatch_negotiations_total":        false,
		"reqmatch_predicate_decisions_total": false,
	}
	for _, mf := range families {
		if _, ok := expected[mf.GetName()]; ok {
			expected[mf.GetName()] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("metric %q not registered", name)
		}
	}
}

func TestObserveNegotiation(t *testing.T) {
	before := testutil.ToFloat64(NegotiationsTotal.WithLabelValues(OutcomeUnsupported, ""))
	ObserveNegotiation(OutcomeUnsupported, "")
	after := testutil.ToFloat64(NegotiationsTotal.WithLabelValues(OutcomeUnsupported, ""))

	if after-before != 1 {
		t.Errorf("unsupported counter delta = %v, want 1", after-before)
	}
}

func TestObserveDecision(t *testing.T) {
	acceptBefore := testutil.ToFloat64(PredicateDecisionsTotal.WithLabelValues(DecisionAccept))
	declineBefore := testutil.ToFloat64(PredicateDecisionsTotal.WithLabelValues(DecisionDecline))

	ObserveDecision(false)
	ObserveDecision(false)
	ObserveDecision(true)

	if d := testutil.ToFloat64(PredicateDecisionsTotal.WithLabelValues(DecisionAccept)) - acceptBefore; d != 1 {
		t.Errorf("accept delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(PredicateDecisionsTotal.WithLabelValues(DecisionDecline)) - declineBefore; d != 2 {
		t.Errorf("decline delta = %v, want 2", d)
	}
}

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("DELETE", "4xx"))
	ObserveRequest("DELETE", 404, 5*time.Millisecond)
	after := testutil.ToFloat64(RequestsTotal.WithLabelValues("DELETE", "4xx"))

	if after-before != 1 {
		t.Errorf("DELETE 4xx delta = %v, want 1", after-before)
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{
		200: "2xx",
		201: "2xx",
		304: "3xx",
		415: "4xx",
		503: "5xx",
		0:   "0",
		999: "999",
	}
	for status, want := range tests {
		if got := StatusClass(status); got != want {
			t.Errorf("StatusClass(%d) = %q, want %q", status, got, want)
		}
	}
}
