package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rosterkit/rosterkit/core/model"
)

func baseConfig() model.SchedulerConfig {
	return model.SchedulerConfig{
		SlotLenHour:         1,
		MinRestSlots:        0,
		MinShiftLengthSlots: 1,
		OperatingHours:      &model.MinuteRange{Start: 9 * 60, End: 12 * 60},
	}
}

func chef(minPresent int) model.Role {
	return model.Role{ID: "chef", Producing: true, ItemsPerHour: 10, MinPresent: minPresent, Independent: true}
}

func worker(id string, wage float64) model.Employee {
	return model.Employee{
		ID:              id,
		Roles:           []string{"chef"},
		AvailableDays:   []time.Weekday{time.Monday},
		HourlyWage:      wage,
		MaxHoursPerWeek: 40,
		MaxConsecSlots:  3,
	}
}

func kitchenChain() model.ProductionChain {
	return model.ProductionChain{ID: "kitchen", Roles: []string{"chef"}, ContribFactor: 1}
}

func mondayDemand(hour, items int) model.DemandForecast {
	return model.DemandForecast{
		time.Monday: {hour: {Items: items}},
	}
}

func solve(t *testing.T, in model.SchedulerInput, demand model.DemandForecast) model.SolveResult {
	t.Helper()
	res, err := Solve(context.Background(), in, demand, 30*time.Second)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	return res
}

// One employee, minimal staffing, zero demand: the empty schedule is optimal.
func TestSolveZeroDemand(t *testing.T) {
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(1)},
		Employees: []model.Employee{worker("alice", 12)},
		Chains:    []model.ProductionChain{kitchenChain()},
		Config:    baseConfig(),
	}
	res := solve(t, in, model.DemandForecast{})
	if res.Status != model.StatusOptimal {
		t.Fatalf("expected optimal, got %s (%s)", res.Status, res.InfeasibleReason)
	}
	if len(res.Assignments) != 0 {
		t.Fatalf("expected empty schedule, got %d assignments", len(res.Assignments))
	}
	if res.Objective != 0 {
		t.Fatalf("expected zero objective, got %.0f", res.Objective)
	}
}

// min_present exceeding the eligible roster is proven infeasible before search.
func TestSolveMinPresentInfeasible(t *testing.T) {
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(2)},
		Employees: []model.Employee{worker("alice", 12)},
		Chains:    []model.ProductionChain{kitchenChain()},
		Config:    baseConfig(),
	}
	res := solve(t, in, mondayDemand(9, 10))
	if res.Status != model.StatusInfeasible {
		t.Fatalf("expected infeasible, got %s", res.Status)
	}
	if res.InfeasibleReason == "" {
		t.Fatalf("expected a structural diagnosis")
	}
}

// Hard demand beyond theoretical capacity is infeasible.
func TestSolveHardDemandOverCapacity(t *testing.T) {
	cfg := baseConfig()
	cfg.MeetAllDemand = true
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(0)},
		Employees: []model.Employee{worker("alice", 12)},
		Chains:    []model.ProductionChain{kitchenChain()},
		Config:    cfg,
	}
	res := solve(t, in, mondayDemand(9, 1000))
	if res.Status != model.StatusInfeasible {
		t.Fatalf("expected infeasible, got %s", res.Status)
	}
}

// With soft demand the cheaper, preference-respecting employee wins.
func TestSolvePrefersCheaperEmployee(t *testing.T) {
	cheap := worker("cheap", 10)
	cheap.PreferredDays = []time.Weekday{time.Monday}
	expensive := worker("expensive", 30)
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(0)},
		Employees: []model.Employee{cheap, expensive},
		Chains:    []model.ProductionChain{kitchenChain()},
		Config:    baseConfig(),
	}
	res := solve(t, in, mondayDemand(9, 10))
	if !res.Status.HasSolution() {
		t.Fatalf("expected a solution, got %s", res.Status)
	}
	assigned := res.AssignedMinutes()
	if assigned["cheap"] == 0 {
		t.Fatalf("expected the cheap employee to be scheduled: %+v", res.Assignments)
	}
	if assigned["expensive"] != 0 {
		t.Fatalf("expected the expensive employee to stay idle: %+v", res.Assignments)
	}
}

// Weekly hour caps hold even when unmet demand is penalized.
func TestSolveWeeklyCap(t *testing.T) {
	e := worker("alice", 10)
	e.MaxHoursPerWeek = 2
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(0)},
		Employees: []model.Employee{e},
		Chains:    []model.ProductionChain{kitchenChain()},
		Config:    baseConfig(),
	}
	demand := model.DemandForecast{
		time.Monday: {9: {Items: 10}, 10: {Items: 10}, 11: {Items: 10}},
	}
	res := solve(t, in, demand)
	if !res.Status.HasSolution() {
		t.Fatalf("expected a solution, got %s", res.Status)
	}
	if mins := res.AssignedMinutes()["alice"]; mins > 120 {
		t.Fatalf("weekly cap violated: %d minutes", mins)
	}
}

// A scheduled min_present role is staffed by zero or at least min_present.
func TestSolveMinPresentAllOrNothing(t *testing.T) {
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(2)},
		Employees: []model.Employee{worker("alice", 10), worker("bob", 10)},
		Chains:    []model.ProductionChain{kitchenChain()},
		Config:    baseConfig(),
	}
	res := solve(t, in, mondayDemand(9, 10))
	if !res.Status.HasSolution() {
		t.Fatalf("expected a solution, got %s", res.Status)
	}
	byWindow := map[model.Window]int{}
	for _, a := range res.Assignments {
		byWindow[a.Window]++
	}
	for w, n := range byWindow {
		if n != 0 && n < 2 {
			t.Fatalf("window %s staffed with %d, below min_present", w, n)
		}
	}
	// Serving the demand beats paying the unmet penalty, so someone works.
	if len(res.Assignments) == 0 {
		t.Fatalf("expected the demand window to be staffed")
	}
}

// meet_all_demand forces served >= demand in every window.
func TestSolveHardDemandSatisfied(t *testing.T) {
	cfg := baseConfig()
	cfg.MeetAllDemand = true
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(0)},
		Employees: []model.Employee{worker("alice", 12)},
		Chains:    []model.ProductionChain{kitchenChain()},
		Config:    cfg,
	}
	res := solve(t, in, mondayDemand(9, 10))
	if !res.Status.HasSolution() {
		t.Fatalf("expected a solution, got %s", res.Status)
	}
	for _, p := range res.Production {
		if p.Served < p.Demand {
			t.Fatalf("window %s served %d of %d", p.Window, p.Served, p.Demand)
		}
	}
}

// Rest and consecutive-slot limits shape the day sequence.
func TestSolveRestAndConsecutive(t *testing.T) {
	cfg := baseConfig()
	cfg.MinRestSlots = 1
	e := worker("alice", 10)
	e.MaxConsecSlots = 1
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(0)},
		Employees: []model.Employee{e},
		Chains:    []model.ProductionChain{kitchenChain()},
		Config:    cfg,
	}
	demand := model.DemandForecast{
		time.Monday: {9: {Items: 10}, 10: {Items: 10}, 11: {Items: 10}},
	}
	res := solve(t, in, demand)
	if !res.Status.HasSolution() {
		t.Fatalf("expected a solution, got %s", res.Status)
	}
	var starts []int
	for _, a := range res.Assignments {
		starts = append(starts, a.Window.Start)
	}
	for i := 0; i < len(starts); i++ {
		for j := i + 1; j < len(starts); j++ {
			gap := starts[j] - starts[i]
			if gap < 0 {
				gap = -gap
			}
			if gap < 120 {
				t.Fatalf("windows at %v violate rest/consecutive limits", starts)
			}
		}
	}
}

// Minimum shift length pulls a single demanded slot into a longer run.
func TestSolveMinShiftLength(t *testing.T) {
	cfg := baseConfig()
	cfg.MinShiftLengthSlots = 2
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(0)},
		Employees: []model.Employee{worker("alice", 10)},
		Chains:    []model.ProductionChain{kitchenChain()},
		Config:    cfg,
	}
	res := solve(t, in, mondayDemand(9, 10))
	if !res.Status.HasSolution() {
		t.Fatalf("expected a solution, got %s", res.Status)
	}
	if mins := res.AssignedMinutes()["alice"]; mins != 120 {
		t.Fatalf("expected a 2-slot shift, got %d minutes", mins)
	}
}

// A non-independent role is only staffed alongside another role.
func TestSolveNonIndependentRole(t *testing.T) {
	runner := model.Role{ID: "runner", Producing: true, ItemsPerHour: 5, Independent: false}
	alice := worker("alice", 10)
	bob := model.Employee{
		ID:              "bob",
		Roles:           []string{"runner"},
		AvailableDays:   []time.Weekday{time.Monday},
		HourlyWage:      10,
		MaxHoursPerWeek: 40,
		MaxConsecSlots:  3,
	}
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(0), runner},
		Employees: []model.Employee{alice, bob},
		Chains: []model.ProductionChain{
			{ID: "kitchen", Roles: []string{"chef", "runner"}, ContribFactor: 1},
		},
		Config: baseConfig(),
	}
	res := solve(t, in, mondayDemand(9, 5))
	if !res.Status.HasSolution() {
		t.Fatalf("expected a solution, got %s", res.Status)
	}
	chefBy := map[model.Window]bool{}
	for _, a := range res.Assignments {
		if a.RoleID == "chef" {
			chefBy[a.Window] = true
		}
	}
	for _, a := range res.Assignments {
		if a.RoleID == "runner" && !chefBy[a.Window] {
			t.Fatalf("runner scheduled alone in %s", a.Window)
		}
	}
}

// A fractional contribution factor scales served output down.
func TestSolveContributionFactor(t *testing.T) {
	cfg := baseConfig()
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(0)},
		Employees: []model.Employee{worker("alice", 10)},
		Chains: []model.ProductionChain{
			{ID: "kitchen", Roles: []string{"chef"}, ContribFactor: 0.5},
		},
		Config: cfg,
	}
	res := solve(t, in, mondayDemand(9, 5))
	if !res.Status.HasSolution() {
		t.Fatalf("expected a solution, got %s", res.Status)
	}
	for _, p := range res.Production {
		if p.Window.Start != 9*60 {
			continue
		}
		if p.Served != 5 {
			t.Fatalf("expected 5 items served at half contribution, got %d", p.Served)
		}
	}
}

// Identical inputs never regress the optimal objective across solves.
func TestSolveIdempotent(t *testing.T) {
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(0)},
		Employees: []model.Employee{worker("alice", 12)},
		Chains:    []model.ProductionChain{kitchenChain()},
		Config:    baseConfig(),
	}
	demand := mondayDemand(9, 10)
	first := solve(t, in, demand)
	second := solve(t, in, demand)
	if first.Status != second.Status {
		t.Fatalf("status changed between solves: %s vs %s", first.Status, second.Status)
	}
	if first.Objective != second.Objective {
		t.Fatalf("objective regressed: %.0f vs %.0f", first.Objective, second.Objective)
	}
}

// A cancelled context yields a status, never an error.
func TestSolveCancelled(t *testing.T) {
	in := model.SchedulerInput{
		Roles:     []model.Role{chef(0)},
		Employees: []model.Employee{worker("alice", 12), worker("bob", 13)},
		Chains:    []model.ProductionChain{kitchenChain()},
		Config:    baseConfig(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := Solve(ctx, in, mondayDemand(9, 10), 0)
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if res.Status != model.StatusUnknown && res.Status != model.StatusFeasible {
		t.Fatalf("expected unknown or feasible after cancellation, got %s", res.Status)
	}
}

// Degenerate inputs produce an empty valid schedule, not an error.
func TestSolveNoEmployees(t *testing.T) {
	in := model.SchedulerInput{
		Roles:  []model.Role{chef(0)},
		Chains: []model.ProductionChain{kitchenChain()},
		Config: baseConfig(),
	}
	res := solve(t, in, mondayDemand(9, 10))
	if res.Status != model.StatusOptimal {
		t.Fatalf("expected trivially optimal empty schedule, got %s", res.Status)
	}
	if len(res.Schedule) != 0 {
		t.Fatalf("expected empty schedule")
	}
	found := false
	for _, p := range res.Production {
		if p.Window.Start == 9*60 && p.Unmet == 10 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the demand to be reported unmet: %+v", res.Production)
	}
}

func TestNewSessionRejectsInvalidInput(t *testing.T) {
	in := model.SchedulerInput{
		Roles:  []model.Role{{ID: "chef", Producing: true}}, // missing rate
		Config: baseConfig(),
	}
	if _, err := NewSession(in, model.DemandForecast{}); err == nil {
		t.Fatalf("expected a config error")
	}
}
