// Package insights derives the management report from a scheduling input,
// its demand forecast and an optional solve result: peaks, capacity,
// utilization, bottlenecks, hiring advice, coverage gaps, cost and
// workload fairness, plus a feasibility diagnosis when no schedule exists.
package insights

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/rosterkit/rosterkit/core/logger"
	"github.com/rosterkit/rosterkit/core/model"
	"github.com/rosterkit/rosterkit/core/policy"
	"github.com/rosterkit/rosterkit/core/timegrid"
)

// Generator produces ManagementInsights under a given policy.
type Generator struct {
	pol policy.Policy
	log logger.Logger
}

// Option customizes a Generator.
type Option func(*Generator)

// WithPolicy overrides the report thresholds.
func WithPolicy(p policy.Policy) Option {
	return func(g *Generator) { g.pol = p.Normalize() }
}

// WithLogger injects the generator logger.
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// NewGenerator returns a Generator with the default policy.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{pol: policy.Default(), log: logger.NopLogger{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds the report with the default policy. result may be nil,
// meaning not solved or infeasible; only solve-independent sections and the
// feasibility diagnosis populate then.
func Generate(in model.SchedulerInput, demand model.DemandForecast, result *model.SolveResult) ManagementInsights {
	return NewGenerator().Generate(in, demand, result)
}

// Generate builds the ManagementInsights report.
func (g *Generator) Generate(in model.SchedulerInput, demand model.DemandForecast, result *model.SolveResult) ManagementInsights {
	rep := ManagementInsights{
		ReportID:    uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
	}

	windows, err := timegrid.Build(in, demand)
	if err != nil {
		g.log.Warnf("insights: grid unavailable: %v", err)
		windows = nil
	}

	rep.PeakPeriods = g.peakPeriods(in, demand, windows)
	rep.Capacity = g.capacity(in, demand)
	rep.Hiring = g.hiring(in, demand, rep.Capacity)

	if result != nil && result.Status.HasSolution() {
		rep.Utilization = g.utilization(in, result)
		rep.RoleDemand = g.roleDemand(in, result, rep.Capacity)
		rep.CoverageGaps = coverageGaps(result)
		rep.Cost = g.cost(in, result)
		rep.Workload = g.workload(rep.Utilization)
	} else {
		rep.Feasibility = g.feasibility(in, demand, result, rep.Capacity)
	}
	return rep
}

// peakPeriods flags windows whose forecast items sit at or above the peak
// percentile of all demanded windows.
func (g *Generator) peakPeriods(in model.SchedulerInput, demand model.DemandForecast, windows []model.Window) []PeakPeriod {
	type winDemand struct {
		w     model.Window
		items int
	}
	var demanded []winDemand
	for _, w := range windows {
		if items := demand.WindowItems(w); items > 0 {
			demanded = append(demanded, winDemand{w, items})
		}
	}
	if len(demanded) == 0 {
		return nil
	}

	vals := make([]float64, len(demanded))
	horizonMax := 0
	for i, d := range demanded {
		vals[i] = float64(d.items)
		if d.items > horizonMax {
			horizonMax = d.items
		}
	}
	avg := stat.Mean(vals, nil)
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	threshold := stat.Quantile(g.pol.PeakPercentile, stat.Empirical, sorted, nil)

	bestRate := 0.0
	for _, r := range in.Roles {
		if r.Producing && r.ItemsPerHour > bestRate {
			bestRate = r.ItemsPerHour
		}
	}

	var peaks []PeakPeriod
	for _, d := range demanded {
		if float64(d.items) < threshold {
			continue
		}
		staff := 0
		if bestRate > 0 {
			staff = int(math.Ceil(float64(d.items) / (bestRate * d.w.Hours())))
		}
		peaks = append(peaks, PeakPeriod{
			Window:         d.w,
			Items:          d.items,
			HorizonAvg:     avg,
			HorizonMax:     horizonMax,
			SuggestedStaff: staff,
		})
	}
	return peaks
}

// capacity is solve-independent: it compares each role's theoretical weekly
// output against the full forecast.
func (g *Generator) capacity(in model.SchedulerInput, demand model.DemandForecast) []RoleCapacity {
	totalDemand := float64(demand.TotalItems())
	out := make([]RoleCapacity, 0, len(in.Roles))
	for _, r := range in.Roles {
		eligible := in.EligibleEmployees(r.ID)
		hours := 0.0
		for _, e := range eligible {
			hours += weeklyAvailableHours(e, in.Config)
		}
		rc := RoleCapacity{
			RoleID:         r.ID,
			Eligible:       len(eligible),
			AvailableHours: hours,
		}
		if r.Producing {
			rc.PotentialOutput = r.ItemsPerHour * hours
			if totalDemand > 0 {
				rc.CoverageRatio = rc.PotentialOutput / totalDemand
			} else {
				rc.CoverageRatio = 1
			}
			rc.Sufficient = rc.CoverageRatio >= 1
		} else {
			rc.CoverageRatio = 1
			rc.Sufficient = len(eligible) >= r.MinPresent && (len(eligible) > 0 || r.MinPresent == 0)
		}
		if r.MinPresent > len(eligible) {
			rc.Sufficient = false
		}
		out = append(out, rc)
	}
	return out
}

// weeklyAvailableHours sums an employee's availability inside operating
// hours, capped at the weekly maximum.
func weeklyAvailableHours(e model.Employee, cfg model.SchedulerConfig) float64 {
	span := cfg.DaySpan()
	minutes := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		avail, ok := e.AvailableOn(d)
		if !ok {
			continue
		}
		lo := avail.Start
		if span.Start > lo {
			lo = span.Start
		}
		hi := avail.End
		if span.End < hi {
			hi = span.End
		}
		if hi > lo {
			minutes += hi - lo
		}
	}
	hours := float64(minutes) / 60
	if hours > e.MaxHoursPerWeek {
		hours = e.MaxHoursPerWeek
	}
	return hours
}

// hiring recommends headcount for roles whose capacity analysis shows
// insufficiency. It never needs a solve outcome.
func (g *Generator) hiring(in model.SchedulerInput, demand model.DemandForecast, capacity []RoleCapacity) []HiringRecommendation {
	var recs []HiringRecommendation
	for _, rc := range capacity {
		if rc.Sufficient {
			continue
		}
		r, ok := in.RoleByID(rc.RoleID)
		if !ok {
			continue
		}
		if r.MinPresent > rc.Eligible {
			recs = append(recs, HiringRecommendation{
				RoleID: r.ID,
				Reason: fmt.Sprintf("min_present=%d but only %d eligible employees", r.MinPresent, rc.Eligible),
				SuggestedHeadcount: r.MinPresent - rc.Eligible,
			})
			continue
		}
		if !r.Producing {
			continue
		}
		shortfall := float64(demand.TotalItems()) - rc.PotentialOutput
		if shortfall <= 0 {
			continue
		}
		perHead := r.ItemsPerHour * averageAvailableHours(in, r.ID)
		heads := 1
		if perHead > 0 {
			heads = int(math.Ceil(shortfall / perHead))
		}
		recs = append(recs, HiringRecommendation{
			RoleID: r.ID,
			Reason: fmt.Sprintf("potential output %.0f items covers only %.0f%% of forecast demand",
				rc.PotentialOutput, rc.CoverageRatio*100),
			SuggestedHeadcount: heads,
		})
	}
	return recs
}

// averageAvailableHours is the mean weekly availability of the role's
// eligible employees, falling back to a full-time week for an empty roster.
func averageAvailableHours(in model.SchedulerInput, roleID string) float64 {
	eligible := in.EligibleEmployees(roleID)
	if len(eligible) == 0 {
		return 40
	}
	total := 0.0
	for _, e := range eligible {
		total += weeklyAvailableHours(e, in.Config)
	}
	return total / float64(len(eligible))
}

func (g *Generator) utilization(in model.SchedulerInput, result *model.SolveResult) []EmployeeUtilization {
	assigned := result.AssignedMinutes()
	out := make([]EmployeeUtilization, 0, len(in.Employees))
	for _, e := range in.Employees {
		hours := float64(assigned[e.ID]) / 60
		rate := 0.0
		if e.MaxHoursPerWeek > 0 {
			rate = hours / e.MaxHoursPerWeek
		}
		status := WellUtilized
		switch {
		case rate < g.pol.UnderutilizedBelow:
			status = Underutilized
		case rate > g.pol.OverutilizedAbove:
			status = Overutilized
		}
		out = append(out, EmployeeUtilization{
			EmployeeID:         e.ID,
			AssignedHours:      hours,
			MaxHours:           e.MaxHoursPerWeek,
			Rate:               rate,
			PrefDeviationHours: hours - e.PrefHours,
			Status:             status,
		})
	}
	return out
}

func (g *Generator) roleDemand(in model.SchedulerInput, result *model.SolveResult, capacity []RoleCapacity) []RoleDemand {
	availByRole := make(map[string]float64, len(capacity))
	for _, rc := range capacity {
		availByRole[rc.RoleID] = rc.AvailableHours
	}
	hasGaps := false
	for _, p := range result.Production {
		if p.Unmet > 0 {
			hasGaps = true
			break
		}
	}

	out := make([]RoleDemand, 0, len(in.Roles))
	for _, r := range in.Roles {
		working := map[string]bool{}
		hours := 0.0
		for _, a := range result.Assignments {
			if a.RoleID == r.ID {
				working[a.EmployeeID] = true
				hours += a.Window.Hours()
			}
		}
		util := 0.0
		if avail := availByRole[r.ID]; avail > 0 {
			util = hours / avail
		}
		out = append(out, RoleDemand{
			RoleID:              r.ID,
			Eligible:            len(in.EligibleEmployees(r.ID)),
			Working:             len(working),
			HoursWorked:         hours,
			CapacityUtilization: util,
			Bottleneck:          r.Producing && hasGaps && util > g.pol.BottleneckUtilization,
		})
	}
	return out
}

func coverageGaps(result *model.SolveResult) []CoverageGap {
	var gaps []CoverageGap
	for _, p := range result.Production {
		if p.Unmet > 0 {
			gaps = append(gaps, CoverageGap{
				Window:    p.Window,
				Demand:    p.Demand,
				Served:    p.Served,
				Shortfall: p.Unmet,
			})
		}
	}
	return gaps
}

func (g *Generator) cost(in model.SchedulerInput, result *model.SolveResult) *CostAnalysis {
	wageByID := make(map[string]float64, len(in.Employees))
	for _, e := range in.Employees {
		wageByID[e.ID] = e.HourlyWage
	}
	byRole := map[string]float64{}
	total := 0.0
	for _, a := range result.Assignments {
		c := wageByID[a.EmployeeID] * a.Window.Hours()
		total += c
		byRole[a.RoleID] += c
	}
	served, unmet := 0, 0
	for _, p := range result.Production {
		served += p.Served
		unmet += p.Unmet
	}
	perItem := 0.0
	if served > 0 {
		perItem = total / float64(served)
	}
	return &CostAnalysis{
		TotalWageCost:   total,
		CostByRole:      byRole,
		OpportunityCost: float64(unmet) * g.pol.MarginPerItem,
		CostPerItem:     perItem,
	}
}

func (g *Generator) workload(utilization []EmployeeUtilization) *WorkloadDistribution {
	if len(utilization) == 0 {
		return nil
	}
	vals := make([]float64, len(utilization))
	w := WorkloadDistribution{MinHours: math.MaxFloat64}
	for i, u := range utilization {
		vals[i] = u.AssignedHours
		if u.AssignedHours > w.MaxHours {
			w.MaxHours = u.AssignedHours
		}
		if u.AssignedHours < w.MinHours {
			w.MinHours = u.AssignedHours
		}
		switch u.Status {
		case Underutilized:
			w.Underutilized++
		case Overutilized:
			w.Overutilized++
		default:
			w.WellUtilized++
		}
	}
	w.MeanHours = stat.Mean(vals, nil)
	w.RangeHours = w.MaxHours - w.MinHours
	w.BalanceScore = 1
	if w.MaxHours > 0 {
		w.BalanceScore = 1 - w.RangeHours/w.MaxHours
	}
	return &w
}

// feasibility produces the diagnosis when no solution exists. It prefers
// the engine's own build-time reason, then scans for the usual blockers.
func (g *Generator) feasibility(in model.SchedulerInput, demand model.DemandForecast, result *model.SolveResult, capacity []RoleCapacity) *FeasibilityAnalysis {
	fa := &FeasibilityAnalysis{}
	if result != nil && result.InfeasibleReason != "" {
		fa.Reason = result.InfeasibleReason
	}

	for _, r := range in.Roles {
		if r.MinPresent > 0 {
			if n := len(in.EligibleEmployees(r.ID)); n < r.MinPresent {
				fa.Details = append(fa.Details, fmt.Sprintf(
					"role %s has min_present=%d but only %d eligible employees", r.ID, r.MinPresent, n))
			}
		}
	}
	if in.Config.MeetAllDemand {
		potential := 0.0
		for _, rc := range capacity {
			potential += rc.PotentialOutput
		}
		if total := demand.TotalItems(); float64(total) > potential {
			fa.Details = append(fa.Details, fmt.Sprintf(
				"meet_all_demand is set but forecast demand (%d items) exceeds theoretical capacity (%.0f items)",
				total, potential))
		}
	}

	if fa.Reason == "" {
		if len(fa.Details) > 0 {
			fa.Reason = fa.Details[0]
		} else if result != nil && result.Status == model.StatusUnknown {
			fa.Reason = "search budget exhausted before any solution was found; retry with a larger budget"
		} else {
			fa.Reason = "no single blocking constraint identified; rest, consecutive or weekly-hour caps may interact"
		}
	}
	return fa
}
