package model

import (
	"fmt"
	"time"
)

// MinuteRange is a half-open [Start, End) interval in minutes since midnight.
type MinuteRange struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Contains reports whether other lies fully inside the range.
func (r MinuteRange) Contains(other MinuteRange) bool {
	return r.Start <= other.Start && other.End <= r.End
}

// Minutes returns the length of the range.
func (r MinuteRange) Minutes() int { return r.End - r.Start }

// Valid reports whether the range is well-formed and within a single day.
func (r MinuteRange) Valid() bool {
	return r.Start >= 0 && r.End <= 24*60 && r.Start < r.End
}

// Role describes a staffable position in the organization.
type Role struct {
	ID string `json:"id" yaml:"id"`
	// Producing marks roles that contribute to item throughput.
	Producing bool `json:"producing" yaml:"producing"`
	// ItemsPerHour is the raw per-employee output rate. Required iff Producing.
	ItemsPerHour float64 `json:"items_per_hour" yaml:"items_per_hour"`
	// MinPresent is the minimum headcount whenever the role is scheduled at all.
	MinPresent int `json:"min_present" yaml:"min_present"`
	// Independent roles may be scheduled without any other role present.
	Independent bool `json:"independent" yaml:"independent"`
}

// Employee describes a roster member with availability and preferences.
type Employee struct {
	ID    string   `json:"id" yaml:"id"`
	Roles []string `json:"roles" yaml:"roles"`

	AvailableDays []time.Weekday `json:"available_days" yaml:"available_days"`
	PreferredDays []time.Weekday `json:"preferred_days" yaml:"preferred_days"`

	// AvailableHours restricts availability on a day to an interval. Days in
	// AvailableDays without an entry are available the whole day.
	AvailableHours map[time.Weekday]MinuteRange `json:"available_hours" yaml:"available_hours"`
	// PreferredHours must be contained in the matching available interval.
	PreferredHours map[time.Weekday]MinuteRange `json:"preferred_hours" yaml:"preferred_hours"`

	HourlyWage      float64 `json:"hourly_wage" yaml:"hourly_wage"`
	MaxHoursPerWeek float64 `json:"max_hours_per_week" yaml:"max_hours_per_week"`
	MaxConsecSlots  int     `json:"max_consec_slots" yaml:"max_consec_slots"`
	// PrefHours is the target weekly hours, used only in the objective.
	PrefHours float64 `json:"pref_hours" yaml:"pref_hours"`
}

// AvailableOn returns the availability interval for a day, if any.
func (e Employee) AvailableOn(day time.Weekday) (MinuteRange, bool) {
	found := false
	for _, d := range e.AvailableDays {
		if d == day {
			found = true
			break
		}
	}
	if !found {
		return MinuteRange{}, false
	}
	if r, ok := e.AvailableHours[day]; ok {
		return r, true
	}
	return MinuteRange{Start: 0, End: 24 * 60}, true
}

// PreferredOn returns the preferred interval for a day, if any. A day listed
// in PreferredDays without an explicit interval is preferred in full.
func (e Employee) PreferredOn(day time.Weekday) (MinuteRange, bool) {
	for _, d := range e.PreferredDays {
		if d == day {
			if r, ok := e.PreferredHours[day]; ok {
				return r, true
			}
			return e.AvailableOn(day)
		}
	}
	if r, ok := e.PreferredHours[day]; ok {
		return r, true
	}
	return MinuteRange{}, false
}

// EligibleFor reports whether the employee can fill the given role.
func (e Employee) EligibleFor(roleID string) bool {
	for _, r := range e.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}

// ProductionChain groups roles whose combined output serves demand. The
// contribution factor models the fraction of raw output the chain can
// actually realize due to its internal bottleneck.
type ProductionChain struct {
	ID            string   `json:"id" yaml:"id"`
	Roles         []string `json:"roles" yaml:"roles"`
	ContribFactor float64  `json:"contrib_factor" yaml:"contrib_factor"`
}

// ShiftWindow is a named fixed shift used when SchedulerConfig.FixedShifts is set.
type ShiftWindow struct {
	Name  string `json:"name" yaml:"name"`
	Start int    `json:"start" yaml:"start"`
	End   int    `json:"end" yaml:"end"`
}

// SolverSettings tunes the underlying CP search. Zero values select the
// defaults (one worker, no node limit).
type SolverSettings struct {
	Workers   int `json:"workers" yaml:"workers"`
	NodeLimit int `json:"node_limit" yaml:"node_limit"`
}

// SchedulerConfig carries organization-wide shift rules.
type SchedulerConfig struct {
	SlotLenHour         float64 `json:"slot_len_hour" yaml:"slot_len_hour"`
	MinRestSlots        int     `json:"min_rest_slots" yaml:"min_rest_slots"`
	MinShiftLengthSlots int     `json:"min_shift_length_slots" yaml:"min_shift_length_slots"`
	// MeetAllDemand turns demand into a hard lower bound on output rather
	// than a penalized soft target.
	MeetAllDemand bool          `json:"meet_all_demand" yaml:"meet_all_demand"`
	FixedShifts   bool          `json:"fixed_shifts" yaml:"fixed_shifts"`
	ShiftWindows  []ShiftWindow `json:"shift_windows" yaml:"shift_windows"`
	// OperatingHours bounds the uniform grid to the organization's opening
	// interval. Nil means the whole day.
	OperatingHours *MinuteRange   `json:"operating_hours" yaml:"operating_hours"`
	Solver         SolverSettings `json:"solver" yaml:"solver"`
}

// SlotMinutes returns the slot length in whole minutes.
func (c SchedulerConfig) SlotMinutes() int {
	return int(c.SlotLenHour*60 + 0.5)
}

// DaySpan returns the scheduled portion of a day for the uniform grid.
func (c SchedulerConfig) DaySpan() MinuteRange {
	if c.OperatingHours != nil {
		return *c.OperatingHours
	}
	return MinuteRange{Start: 0, End: 24 * 60}
}

// SchedulerInput aggregates everything the engine needs for one solve. It is
// constructed once per solve and read-only thereafter.
type SchedulerInput struct {
	Roles     []Role            `json:"roles" yaml:"roles"`
	Employees []Employee        `json:"employees" yaml:"employees"`
	Chains    []ProductionChain `json:"chains" yaml:"chains"`
	Config    SchedulerConfig   `json:"config" yaml:"config"`
}

// RoleByID returns the declared role with the given id.
func (in SchedulerInput) RoleByID(id string) (Role, bool) {
	for _, r := range in.Roles {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}

// EligibleEmployees returns employees that may fill the role, ignoring time.
func (in SchedulerInput) EligibleEmployees(roleID string) []Employee {
	var out []Employee
	for _, e := range in.Employees {
		if e.EligibleFor(roleID) {
			out = append(out, e)
		}
	}
	return out
}

// Window is a discrete, non-overlapping scheduling interval within a day.
type Window struct {
	Day   time.Weekday `json:"day"`
	Start int          `json:"start"`
	End   int          `json:"end"`
	Name  string       `json:"name,omitempty"`
}

// Minutes returns the window length in minutes.
func (w Window) Minutes() int { return w.End - w.Start }

// Hours returns the window length in fractional hours.
func (w Window) Hours() float64 { return float64(w.End-w.Start) / 60 }

// Range returns the window's minute interval.
func (w Window) Range() MinuteRange { return MinuteRange{Start: w.Start, End: w.End} }

// Overlap returns the number of minutes shared with [start, end) on the same day.
func (w Window) Overlap(start, end int) int {
	lo := w.Start
	if start > lo {
		lo = start
	}
	hi := w.End
	if end < hi {
		hi = end
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func (w Window) String() string {
	return fmt.Sprintf("%s %02d:%02d-%02d:%02d", w.Day, w.Start/60, w.Start%60, w.End/60, w.End%60)
}
