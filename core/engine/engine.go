// Package engine builds and solves the staff-scheduling constraint model.
//
// A solve is one synchronous, cancellable computation over an immutable
// SchedulerInput and DemandForecast. The engine lowers the scheduling
// problem onto finite-domain variables (gokanlogic), runs branch-and-bound
// minimization under the caller's budget and maps the outcome onto a
// SolveResult. There is no shared state between sessions; independent
// sessions may solve concurrently.
package engine

import (
	"context"
	"errors"
	"time"

	mk "github.com/gitrdm/gokanlogic/pkg/minikanren"
	"github.com/google/uuid"

	"github.com/rosterkit/rosterkit/core/logger"
	"github.com/rosterkit/rosterkit/core/metrics"
	"github.com/rosterkit/rosterkit/core/model"
	"github.com/rosterkit/rosterkit/core/policy"
	"github.com/rosterkit/rosterkit/core/timegrid"
)

// SchedulerSession owns one scheduling problem instance. Build it with
// NewSession, then call Solve as often as needed; every call constructs a
// fresh constraint model so repeat solves never observe each other.
type SchedulerSession struct {
	in     model.SchedulerInput
	demand model.DemandForecast
	pol    policy.Policy
	log    logger.Logger
	sink   metrics.Sink
}

// Option customizes a SchedulerSession.
type Option func(*SchedulerSession)

// WithLogger injects the session logger.
func WithLogger(l logger.Logger) Option {
	return func(s *SchedulerSession) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics injects the metrics sink receiving solve events.
func WithMetrics(sink metrics.Sink) Option {
	return func(s *SchedulerSession) {
		if sink != nil {
			s.sink = sink
		}
	}
}

// WithPolicy overrides the objective weights and thresholds.
func WithPolicy(p policy.Policy) Option {
	return func(s *SchedulerSession) { s.pol = p.Normalize() }
}

// NewSession validates the input and returns a session ready to solve.
// Validation failures surface as *model.ConfigError and are never corrected.
func NewSession(in model.SchedulerInput, demand model.DemandForecast, opts ...Option) (*SchedulerSession, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := demand.Validate(); err != nil {
		return nil, err
	}
	s := &SchedulerSession{
		in:     in,
		demand: demand,
		pol:    policy.Default(),
		log:    logger.NopLogger{},
		sink:   metrics.NopSink{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Solve is the convenience entry point: one session, one solve, default
// policy. budget <= 0 means no wall-clock limit.
func Solve(ctx context.Context, in model.SchedulerInput, demand model.DemandForecast, budget time.Duration) (model.SolveResult, error) {
	s, err := NewSession(in, demand)
	if err != nil {
		return model.SolveResult{}, err
	}
	return s.Solve(ctx, budget)
}

// Solve builds the constraint model and runs the search under the given
// wall-clock budget. Infeasible and Unknown are statuses, not errors; an
// error is returned only for structurally invalid configuration.
func (s *SchedulerSession) Solve(ctx context.Context, budget time.Duration) (model.SolveResult, error) {
	started := time.Now()
	res := model.SolveResult{SolveID: uuid.NewString()}

	windows, err := timegrid.Build(s.in, s.demand)
	if err != nil {
		return res, err
	}

	b := newCPModel(s.in, s.demand, s.pol, windows)
	if err := b.build(); err != nil {
		return res, err
	}

	if b.infeasible != "" {
		res.Status = model.StatusInfeasible
		res.InfeasibleReason = b.infeasible
		s.finish(&res, started, b)
		return res, nil
	}

	if len(b.objVars) == 0 {
		// Nothing can be assigned. The empty schedule is trivially optimal.
		res.Status = model.StatusOptimal
		res.Schedule = model.Schedule{}
		res.Production = b.extractProduction(nil)
		s.finish(&res, started, b)
		return res, nil
	}

	objVar := b.buildObjective()

	opts := []mk.OptimizeOption{
		mk.WithParallelWorkers(s.workers()),
	}
	if budget > 0 {
		opts = append(opts, mk.WithTimeLimit(budget))
	}
	if n := s.in.Config.Solver.NodeLimit; n > 0 {
		opts = append(opts, mk.WithNodeLimit(n))
	}

	solver := mk.NewSolver(b.m)
	sol, objVal, serr := solver.SolveOptimalWithOptions(ctx, objVar, true, opts...)

	switch {
	case serr == nil && sol == nil:
		res.Status = model.StatusInfeasible
	case serr == nil:
		res.Status = model.StatusOptimal
		b.extractInto(&res, sol, objVal)
	case errors.Is(serr, context.DeadlineExceeded),
		errors.Is(serr, context.Canceled),
		errors.Is(serr, mk.ErrSearchLimitReached):
		if sol != nil {
			res.Status = model.StatusFeasible
			b.extractInto(&res, sol, objVal)
		} else {
			res.Status = model.StatusUnknown
		}
	default:
		return res, serr
	}

	s.finish(&res, started, b)
	return res, nil
}

func (s *SchedulerSession) workers() int {
	if w := s.in.Config.Solver.Workers; w > 1 {
		return w
	}
	return 1
}

func (s *SchedulerSession) finish(res *model.SolveResult, started time.Time, b *cpModel) {
	dur := time.Since(started)
	s.sink.RecordSolve(metrics.SolveEvent{
		SolveID:     res.SolveID,
		Status:      string(res.Status),
		Duration:    dur,
		Variables:   b.m.VariableCount(),
		Constraints: b.m.ConstraintCount(),
		Objective:   int(res.Objective),
	})
	s.log.Infof("solve %s finished: status=%s objective=%.0f duration=%s vars=%d constraints=%d",
		res.SolveID, res.Status, res.Objective, dur, b.m.VariableCount(), b.m.ConstraintCount())
}
