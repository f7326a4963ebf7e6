package insights

import (
	"time"

	"github.com/rosterkit/rosterkit/core/model"
)

// ManagementInsights is the diagnostic report produced after (or instead
// of) a solve. Solution-dependent sections are nil when no schedule exists;
// capacity, hiring and feasibility are always computable.
type ManagementInsights struct {
	ReportID    string    `json:"report_id"`
	GeneratedAt time.Time `json:"generated_at"`

	PeakPeriods []PeakPeriod   `json:"peak_periods,omitempty"`
	Capacity    []RoleCapacity `json:"capacity"`

	Utilization []EmployeeUtilization `json:"utilization,omitempty"`
	RoleDemand  []RoleDemand          `json:"role_demand,omitempty"`

	Hiring       []HiringRecommendation `json:"hiring,omitempty"`
	CoverageGaps []CoverageGap          `json:"coverage_gaps,omitempty"`

	Cost        *CostAnalysis         `json:"cost,omitempty"`
	Workload    *WorkloadDistribution `json:"workload,omitempty"`
	Feasibility *FeasibilityAnalysis  `json:"feasibility,omitempty"`
}

// PeakPeriod marks a window whose forecast exceeds the peak percentile.
type PeakPeriod struct {
	Window         model.Window `json:"window"`
	Items          int          `json:"items"`
	HorizonAvg     float64      `json:"horizon_avg"`
	HorizonMax     int          `json:"horizon_max"`
	SuggestedStaff int          `json:"suggested_staff"`
}

// RoleCapacity compares a role's theoretical output with total demand. It
// never depends on a solve outcome.
type RoleCapacity struct {
	RoleID          string  `json:"role_id"`
	Eligible        int     `json:"eligible"`
	AvailableHours  float64 `json:"available_hours"`
	PotentialOutput float64 `json:"potential_output"`
	CoverageRatio   float64 `json:"coverage_ratio"`
	Sufficient      bool    `json:"sufficient"`
}

// UtilizationStatus categorizes an employee's load.
type UtilizationStatus string

const (
	Underutilized UtilizationStatus = "underutilized"
	WellUtilized  UtilizationStatus = "well_utilized"
	Overutilized  UtilizationStatus = "overutilized"
)

// EmployeeUtilization reports assigned load against caps and preferences.
type EmployeeUtilization struct {
	EmployeeID         string            `json:"employee_id"`
	AssignedHours      float64           `json:"assigned_hours"`
	MaxHours           float64           `json:"max_hours"`
	Rate               float64           `json:"rate"`
	PrefDeviationHours float64           `json:"pref_deviation_hours"`
	Status             UtilizationStatus `json:"status"`
}

// RoleDemand reports staffing pressure per role in the solved schedule.
type RoleDemand struct {
	RoleID              string  `json:"role_id"`
	Eligible            int     `json:"eligible"`
	Working             int     `json:"working"`
	HoursWorked         float64 `json:"hours_worked"`
	CapacityUtilization float64 `json:"capacity_utilization"`
	Bottleneck          bool    `json:"bottleneck"`
}

// HiringRecommendation names a role whose roster cannot cover its load.
type HiringRecommendation struct {
	RoleID             string `json:"role_id"`
	Reason             string `json:"reason"`
	SuggestedHeadcount int    `json:"suggested_headcount"`
}

// CoverageGap is a window where served output fell short of demand.
type CoverageGap struct {
	Window    model.Window `json:"window"`
	Demand    int          `json:"demand"`
	Served    int          `json:"served"`
	Shortfall int          `json:"shortfall"`
}

// CostAnalysis breaks down wage spend and the cost of unmet demand.
type CostAnalysis struct {
	TotalWageCost   float64            `json:"total_wage_cost"`
	CostByRole      map[string]float64 `json:"cost_by_role"`
	OpportunityCost float64            `json:"opportunity_cost"`
	CostPerItem     float64            `json:"cost_per_item"`
}

// WorkloadDistribution summarizes fairness of assigned hours.
type WorkloadDistribution struct {
	MeanHours     float64 `json:"mean_hours"`
	MaxHours      float64 `json:"max_hours"`
	MinHours      float64 `json:"min_hours"`
	RangeHours    float64 `json:"range_hours"`
	Underutilized int     `json:"underutilized"`
	WellUtilized  int     `json:"well_utilized"`
	Overutilized  int     `json:"overutilized"`
	BalanceScore  float64 `json:"balance_score"`
}

// FeasibilityAnalysis explains the most plausible blocking constraint when
// no schedule exists.
type FeasibilityAnalysis struct {
	Reason  string   `json:"reason"`
	Details []string `json:"details,omitempty"`
}
