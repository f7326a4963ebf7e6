// Package metrics defines the instrumentation surface of the scheduling
// engine. Implementations live under infra/metrics.
package metrics

import "time"

// SolveEvent describes one completed solver run.
type SolveEvent struct {
	SolveID     string
	Status      string
	Duration    time.Duration
	Variables   int
	Constraints int
	Objective   int
}

// Sink receives solve events. Implementations must be safe for
// concurrent use.
type Sink interface {
	RecordSolve(ev SolveEvent)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordSolve(SolveEvent) {}
