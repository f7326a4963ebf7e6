package model

import "time"

// SolveStatus classifies the outcome of a solve.
type SolveStatus string

const (
	// StatusOptimal means the search proved the incumbent optimal.
	StatusOptimal SolveStatus = "optimal"
	// StatusFeasible means the budget ran out with at least one solution found.
	StatusFeasible SolveStatus = "feasible"
	// StatusInfeasible means no assignment satisfies all hard constraints.
	StatusInfeasible SolveStatus = "infeasible"
	// StatusUnknown means the budget ran out before any solution was found.
	StatusUnknown SolveStatus = "unknown"
)

// HasSolution reports whether the status carries a schedule.
func (s SolveStatus) HasSolution() bool {
	return s == StatusOptimal || s == StatusFeasible
}

// Assignment places one employee, acting in one role, into one window.
type Assignment struct {
	EmployeeID string `json:"employee_id"`
	RoleID     string `json:"role_id"`
	Window     Window `json:"window"`
}

// WindowAssignments lists the employees working a window.
type WindowAssignments struct {
	Window      Window   `json:"window"`
	EmployeeIDs []string `json:"employee_ids"`
}

// Schedule maps each day to its ordered window assignments.
type Schedule map[time.Weekday][]WindowAssignments

// WindowProduction reports served and unmet items for one window.
type WindowProduction struct {
	Window Window `json:"window"`
	Demand int    `json:"demand"`
	Served int    `json:"served"`
	Unmet  int    `json:"unmet"`
}

// SolveResult is the outcome of a single solve.
type SolveResult struct {
	SolveID string      `json:"solve_id"`
	Status  SolveStatus `json:"status"`
	// Schedule and Objective are only meaningful when Status.HasSolution().
	Schedule  Schedule `json:"schedule,omitempty"`
	Objective float64  `json:"objective,omitempty"`
	// Assignments is the flat per-assignment view consumed by insights.
	Assignments []Assignment       `json:"assignments,omitempty"`
	Production  []WindowProduction `json:"production,omitempty"`
	// InfeasibleReason carries a build-time diagnosis when the model was
	// proven unsatisfiable before search.
	InfeasibleReason string `json:"infeasible_reason,omitempty"`
}

// AssignedMinutes totals the assigned minutes per employee.
func (r SolveResult) AssignedMinutes() map[string]int {
	out := make(map[string]int)
	for _, a := range r.Assignments {
		out[a.EmployeeID] += a.Window.Minutes()
	}
	return out
}
