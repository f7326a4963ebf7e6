package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/rosterkit/rosterkit/core/metrics"
)

func TestPromSinkRecordsSolves(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	sink.RecordSolve(coremetrics.SolveEvent{
		SolveID:  "s1",
		Status:   "optimal",
		Duration: 120 * time.Millisecond,
	})
	sink.RecordSolve(coremetrics.SolveEvent{
		SolveID:  "s2",
		Status:   "infeasible",
		Duration: 5 * time.Millisecond,
	})

	if got := testutil.ToFloat64(sink.solves.WithLabelValues("optimal")); got != 1 {
		t.Fatalf("expected 1 optimal solve, got %v", got)
	}
	if got := testutil.ToFloat64(sink.solves.WithLabelValues("infeasible")); got != 1 {
		t.Fatalf("expected 1 infeasible solve, got %v", got)
	}
}

func TestPromSinkReregistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first sink: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second sink must reuse collectors: %v", err)
	}
}
