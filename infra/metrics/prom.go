// Package metrics provides a Prometheus implementation of the engine
// metrics sink.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/rosterkit/rosterkit/core/metrics"
)

// PromSink exports solve metrics to a Prometheus registry.
type PromSink struct {
	solves   *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewPromSink registers the sink collectors on the default registry.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers the sink collectors on reg. If a
// collector is already registered it is reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rosterkit_solves_total",
		Help: "Total solver runs by final status.",
	}, []string{"status"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rosterkit_solve_duration_seconds",
		Help:    "Wall-clock duration of solver runs.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{solves: solves, duration: duration}, nil
}

func (s *PromSink) RecordSolve(ev coremetrics.SolveEvent) {
	s.solves.WithLabelValues(ev.Status).Inc()
	s.duration.Observe(ev.Duration.Seconds())
}
