package model

import "time"

// HourDemand is the forecast load for a single hour of a day.
type HourDemand struct {
	Orders int `json:"orders" yaml:"orders"`
	Items  int `json:"items" yaml:"items"`
}

// DemandForecast maps weekday and hour (0-23) to forecast counts. It is
// produced by an external forecasting service and consumed as plain data.
type DemandForecast map[time.Weekday]map[int]HourDemand

// ItemsAt returns the forecast item count for an hour, zero when absent.
func (f DemandForecast) ItemsAt(day time.Weekday, hour int) int {
	if hours, ok := f[day]; ok {
		return hours[hour].Items
	}
	return 0
}

// TotalItems sums the item forecast over the whole horizon.
func (f DemandForecast) TotalItems() int {
	total := 0
	for _, hours := range f {
		for _, d := range hours {
			total += d.Items
		}
	}
	return total
}

// HasDemandOn reports whether any hour of the day has non-zero demand.
func (f DemandForecast) HasDemandOn(day time.Weekday) bool {
	for _, d := range f[day] {
		if d.Items > 0 || d.Orders > 0 {
			return true
		}
	}
	return false
}

// WindowItems prorates hourly item demand over the window and rounds up.
func (f DemandForecast) WindowItems(w Window) int {
	hours, ok := f[w.Day]
	if !ok {
		return 0
	}
	num := 0 // item-minutes
	for h, d := range hours {
		if d.Items == 0 {
			continue
		}
		overlap := w.Overlap(h*60, (h+1)*60)
		num += d.Items * overlap
	}
	if num == 0 {
		return 0
	}
	return (num + 59) / 60
}

// Validate checks hours and counts.
func (f DemandForecast) Validate() error {
	for day, hours := range f {
		for h, d := range hours {
			if h < 0 || h > 23 {
				return &ConfigError{Field: "demand", Reason: "hour out of range"}
			}
			if d.Items < 0 || d.Orders < 0 {
				return &ConfigError{Field: "demand", Reason: "negative count for " + day.String()}
			}
		}
	}
	return nil
}
