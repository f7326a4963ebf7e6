// Package policy holds the tunable constants of the scheduling engine:
// objective weights, utilization bands, peak detection and costing
// parameters. They are deliberately configuration, not code constants, so
// organizations can tune them without rebuilding.
package policy

// Policy bundles all tunable weights and thresholds. The zero value is not
// usable; start from Default and override selected fields.
type Policy struct {
	// CostScale converts currency into the integer objective unit
	// (100 = cents). Wage cost per assignment is wage * hours * CostScale.
	CostScale int `json:"cost_scale" yaml:"cost_scale"`

	// PreferredWindowPenalty is added once per assignment outside the
	// employee's preferred days/hours.
	PreferredWindowPenalty int `json:"preferred_window_penalty" yaml:"preferred_window_penalty"`

	// PrefHoursDeviationWeight is the penalty per minute of deviation
	// between assigned time and the employee's pref_hours target.
	PrefHoursDeviationWeight int `json:"pref_hours_deviation_weight" yaml:"pref_hours_deviation_weight"`

	// UnmetDemandPenalty is the penalty per forecast item left unserved
	// when demand is soft.
	UnmetDemandPenalty int `json:"unmet_demand_penalty" yaml:"unmet_demand_penalty"`

	// ContribScale is the denominator used to rationalize chain
	// contribution factors (100 keeps two decimal places).
	ContribScale int `json:"contrib_scale" yaml:"contrib_scale"`

	// PeakPercentile selects the demand quantile above which a window
	// counts as a peak period.
	PeakPercentile float64 `json:"peak_percentile" yaml:"peak_percentile"`

	// Utilization bands for employee categorization.
	UnderutilizedBelow float64 `json:"underutilized_below" yaml:"underutilized_below"`
	OverutilizedAbove  float64 `json:"overutilized_above" yaml:"overutilized_above"`

	// BottleneckUtilization flags a role as a bottleneck when its capacity
	// utilization exceeds this while coverage gaps exist.
	BottleneckUtilization float64 `json:"bottleneck_utilization" yaml:"bottleneck_utilization"`

	// MarginPerItem is the assumed lost margin for each unmet item, used
	// for the opportunity-cost estimate.
	MarginPerItem float64 `json:"margin_per_item" yaml:"margin_per_item"`
}

// Default returns the engine's standard tuning.
func Default() Policy {
	return Policy{
		CostScale:                100,
		PreferredWindowPenalty:   25,
		PrefHoursDeviationWeight: 1,
		UnmetDemandPenalty:       500,
		ContribScale:             100,
		PeakPercentile:           0.90,
		UnderutilizedBelow:       0.50,
		OverutilizedAbove:        0.90,
		BottleneckUtilization:    0.85,
		MarginPerItem:            5,
	}
}

// Normalize fills unset fields with defaults so partially loaded
// configurations remain usable.
func (p Policy) Normalize() Policy {
	def := Default()
	if p.CostScale <= 0 {
		p.CostScale = def.CostScale
	}
	if p.PreferredWindowPenalty <= 0 {
		p.PreferredWindowPenalty = def.PreferredWindowPenalty
	}
	if p.PrefHoursDeviationWeight <= 0 {
		p.PrefHoursDeviationWeight = def.PrefHoursDeviationWeight
	}
	if p.UnmetDemandPenalty <= 0 {
		p.UnmetDemandPenalty = def.UnmetDemandPenalty
	}
	if p.ContribScale <= 0 {
		p.ContribScale = def.ContribScale
	}
	if p.PeakPercentile <= 0 || p.PeakPercentile >= 1 {
		p.PeakPercentile = def.PeakPercentile
	}
	if p.UnderutilizedBelow <= 0 {
		p.UnderutilizedBelow = def.UnderutilizedBelow
	}
	if p.OverutilizedAbove <= 0 {
		p.OverutilizedAbove = def.OverutilizedAbove
	}
	if p.BottleneckUtilization <= 0 {
		p.BottleneckUtilization = def.BottleneckUtilization
	}
	if p.MarginPerItem <= 0 {
		p.MarginPerItem = def.MarginPerItem
	}
	return p
}
