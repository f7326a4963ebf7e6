// Package timegrid converts scheduler configuration and employee
// availability into the discrete time axis every other engine component
// works on: an ordered list of non-overlapping windows per active day.
package timegrid

import (
	"sort"
	"time"

	"github.com/rosterkit/rosterkit/core/model"
)

// Build returns the ordered scheduling windows for the input and forecast.
// A day is active when any employee is available or any demand is forecast.
func Build(in model.SchedulerInput, demand model.DemandForecast) ([]model.Window, error) {
	if in.Config.FixedShifts {
		return buildFixed(in, demand)
	}
	return buildUniform(in, demand)
}

func activeDays(in model.SchedulerInput, demand model.DemandForecast) []time.Weekday {
	var days []time.Weekday
	for d := time.Sunday; d <= time.Saturday; d++ {
		active := demand.HasDemandOn(d)
		if !active {
			for _, e := range in.Employees {
				if _, ok := e.AvailableOn(d); ok {
					active = true
					break
				}
			}
		}
		if active {
			days = append(days, d)
		}
	}
	return days
}

func buildUniform(in model.SchedulerInput, demand model.DemandForecast) ([]model.Window, error) {
	cfg := in.Config
	slot := cfg.SlotMinutes()
	if slot <= 0 {
		return nil, &model.ConfigError{Field: "config", Reason: "slot length rounds to zero minutes"}
	}
	span := cfg.DaySpan()
	perDay := (span.Minutes() + slot - 1) / slot
	if cfg.MinShiftLengthSlots > perDay {
		return nil, &model.ConfigError{
			Field:  "config",
			Reason: "min_shift_length_slots exceeds the number of slots in a day",
		}
	}

	var windows []model.Window
	for _, day := range activeDays(in, demand) {
		for start := span.Start; start < span.End; start += slot {
			end := start + slot
			if end > span.End {
				end = span.End
			}
			windows = append(windows, model.Window{Day: day, Start: start, End: end})
		}
	}
	return windows, nil
}

func buildFixed(in model.SchedulerInput, demand model.DemandForecast) ([]model.Window, error) {
	cfg := in.Config
	if len(cfg.ShiftWindows) == 0 {
		return nil, &model.ConfigError{
			Field:  "config",
			Reason: "fixed_shifts requested without any shift windows",
		}
	}
	shifts := make([]model.ShiftWindow, len(cfg.ShiftWindows))
	copy(shifts, cfg.ShiftWindows)
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].Start < shifts[j].Start })
	minLen := cfg.MinShiftLengthSlots * cfg.SlotMinutes()
	for i, s := range shifts {
		if s.End-s.Start < minLen {
			return nil, &model.ConfigError{
				Field:  "config",
				Reason: "shift window " + s.Name + " is shorter than min_shift_length_slots",
			}
		}
		if i > 0 && s.Start < shifts[i-1].End {
			return nil, &model.ConfigError{
				Field:  "config",
				Reason: "shift windows " + shifts[i-1].Name + " and " + s.Name + " overlap",
			}
		}
	}

	var windows []model.Window
	for _, day := range activeDays(in, demand) {
		for _, s := range shifts {
			windows = append(windows, model.Window{Day: day, Start: s.Start, End: s.End, Name: s.Name})
		}
	}
	return windows, nil
}

// CoverableBy reports whether the employee's availability fully covers the window.
func CoverableBy(e model.Employee, w model.Window) bool {
	avail, ok := e.AvailableOn(w.Day)
	return ok && avail.Contains(w.Range())
}

// Preferred reports whether the window lies inside the employee's preferred
// days and hours.
func Preferred(e model.Employee, w model.Window) bool {
	pref, ok := e.PreferredOn(w.Day)
	return ok && pref.Contains(w.Range())
}
