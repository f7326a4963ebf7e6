package model

import "fmt"

// ConfigError reports structurally invalid input. It is fatal and never
// silently corrected.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "invalid scheduler input: " + e.Reason
	}
	return fmt.Sprintf("invalid scheduler input: %s: %s", e.Field, e.Reason)
}

func configErrorf(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the structural invariants of the input. It fails fast on
// the first violation.
func (in SchedulerInput) Validate() error {
	roleIDs := make(map[string]bool, len(in.Roles))
	for _, r := range in.Roles {
		if r.ID == "" {
			return configErrorf("roles", "role with empty id")
		}
		if roleIDs[r.ID] {
			return configErrorf("roles", "duplicate role %q", r.ID)
		}
		roleIDs[r.ID] = true
		if r.Producing && r.ItemsPerHour <= 0 {
			return configErrorf("roles", "producing role %q needs a positive items_per_hour", r.ID)
		}
		if !r.Producing && r.ItemsPerHour != 0 {
			return configErrorf("roles", "non-producing role %q must not set items_per_hour", r.ID)
		}
		if r.MinPresent < 0 {
			return configErrorf("roles", "role %q has negative min_present", r.ID)
		}
	}

	empIDs := make(map[string]bool, len(in.Employees))
	for _, e := range in.Employees {
		if e.ID == "" {
			return configErrorf("employees", "employee with empty id")
		}
		if empIDs[e.ID] {
			return configErrorf("employees", "duplicate employee %q", e.ID)
		}
		empIDs[e.ID] = true
		if len(e.Roles) == 0 {
			return configErrorf("employees", "employee %q has no eligible roles", e.ID)
		}
		for _, rid := range e.Roles {
			if !roleIDs[rid] {
				return configErrorf("employees", "employee %q references undeclared role %q", e.ID, rid)
			}
		}
		if e.HourlyWage <= 0 {
			return configErrorf("employees", "employee %q needs a positive hourly_wage", e.ID)
		}
		if e.MaxHoursPerWeek < 0 {
			return configErrorf("employees", "employee %q has negative max_hours_per_week", e.ID)
		}
		if e.MaxConsecSlots < 1 {
			return configErrorf("employees", "employee %q needs max_consec_slots >= 1", e.ID)
		}
		if e.PrefHours < 0 {
			return configErrorf("employees", "employee %q has negative pref_hours", e.ID)
		}
		if err := e.validateDays(); err != nil {
			return err
		}
	}

	for _, c := range in.Chains {
		if c.ID == "" {
			return configErrorf("chains", "chain with empty id")
		}
		if len(c.Roles) == 0 {
			return configErrorf("chains", "chain %q has no roles", c.ID)
		}
		for _, rid := range c.Roles {
			if !roleIDs[rid] {
				return configErrorf("chains", "chain %q references undeclared role %q", c.ID, rid)
			}
		}
		if c.ContribFactor <= 0 || c.ContribFactor > 1 {
			return configErrorf("chains", "chain %q needs contrib_factor in (0,1]", c.ID)
		}
	}

	return in.Config.validate()
}

func (e Employee) validateDays() error {
	avail := make(map[int]bool, len(e.AvailableDays))
	for _, d := range e.AvailableDays {
		avail[int(d)] = true
	}
	for _, d := range e.PreferredDays {
		if !avail[int(d)] {
			return configErrorf("employees",
				"employee %q prefers %s but is not available then", e.ID, d)
		}
	}
	for day, r := range e.AvailableHours {
		if !r.Valid() {
			return configErrorf("employees", "employee %q has invalid hours on %s", e.ID, day)
		}
	}
	for day, pref := range e.PreferredHours {
		if !pref.Valid() {
			return configErrorf("employees", "employee %q has invalid preferred hours on %s", e.ID, day)
		}
		if av, ok := e.AvailableOn(day); !ok || !av.Contains(pref) {
			return configErrorf("employees",
				"employee %q preferred hours on %s exceed availability", e.ID, day)
		}
	}
	return nil
}

func (c SchedulerConfig) validate() error {
	if c.SlotLenHour <= 0 || c.SlotLenHour > 24 {
		return configErrorf("config", "slot_len_hour must be in (0,24], got %v", c.SlotLenHour)
	}
	if c.MinRestSlots < 0 {
		return configErrorf("config", "min_rest_slots must not be negative")
	}
	if c.MinShiftLengthSlots < 1 {
		return configErrorf("config", "min_shift_length_slots must be >= 1")
	}
	if c.OperatingHours != nil && !c.OperatingHours.Valid() {
		return configErrorf("config", "operating_hours interval is invalid")
	}
	if c.Solver.Workers < 0 || c.Solver.NodeLimit < 0 {
		return configErrorf("config", "solver settings must not be negative")
	}
	if c.FixedShifts {
		for _, s := range c.ShiftWindows {
			if !(MinuteRange{Start: s.Start, End: s.End}).Valid() {
				return configErrorf("config", "shift window %q is invalid", s.Name)
			}
		}
	}
	return nil
}
