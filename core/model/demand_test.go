package model

import (
	"testing"
	"time"
)

func TestWindowItemsProratesOverlap(t *testing.T) {
	f := DemandForecast{
		time.Monday: {9: {Items: 10}, 10: {Items: 10}},
	}
	full := Window{Day: time.Monday, Start: 9 * 60, End: 10 * 60}
	if got := f.WindowItems(full); got != 10 {
		t.Fatalf("full overlap: expected 10, got %d", got)
	}
	straddle := Window{Day: time.Monday, Start: 9*60 + 30, End: 10*60 + 30}
	if got := f.WindowItems(straddle); got != 10 {
		t.Fatalf("straddling window: expected 5+5=10, got %d", got)
	}
	half := Window{Day: time.Monday, Start: 9*60 + 30, End: 10 * 60}
	if got := f.WindowItems(half); got != 5 {
		t.Fatalf("half overlap: expected 5, got %d", got)
	}
	off := Window{Day: time.Tuesday, Start: 9 * 60, End: 10 * 60}
	if got := f.WindowItems(off); got != 0 {
		t.Fatalf("wrong day: expected 0, got %d", got)
	}
}

func TestWindowItemsRoundsUp(t *testing.T) {
	f := DemandForecast{time.Monday: {9: {Items: 1}}}
	sliver := Window{Day: time.Monday, Start: 9 * 60, End: 9*60 + 10}
	if got := f.WindowItems(sliver); got != 1 {
		t.Fatalf("partial item must round up, got %d", got)
	}
}

func TestForecastTotalsAndActivity(t *testing.T) {
	f := DemandForecast{
		time.Monday:  {9: {Items: 3, Orders: 1}},
		time.Tuesday: {12: {Items: 0, Orders: 0}},
	}
	if got := f.TotalItems(); got != 3 {
		t.Fatalf("expected 3 total items, got %d", got)
	}
	if !f.HasDemandOn(time.Monday) {
		t.Fatalf("Monday has demand")
	}
	if f.HasDemandOn(time.Tuesday) {
		t.Fatalf("Tuesday has only zero rows")
	}
	if f.HasDemandOn(time.Friday) {
		t.Fatalf("Friday is absent")
	}
}

func TestValidateRejectsBadHours(t *testing.T) {
	f := DemandForecast{time.Monday: {25: {Items: 1}}}
	if err := f.Validate(); err == nil {
		t.Fatalf("expected error for hour 25")
	}
	f = DemandForecast{time.Monday: {9: {Items: -1}}}
	if err := f.Validate(); err == nil {
		t.Fatalf("expected error for negative items")
	}
}

func TestAssignedMinutes(t *testing.T) {
	w1 := Window{Day: time.Monday, Start: 9 * 60, End: 10 * 60}
	w2 := Window{Day: time.Monday, Start: 10 * 60, End: 11 * 60}
	r := SolveResult{Assignments: []Assignment{
		{EmployeeID: "a", RoleID: "chef", Window: w1},
		{EmployeeID: "a", RoleID: "chef", Window: w2},
		{EmployeeID: "b", RoleID: "chef", Window: w1},
	}}
	mins := r.AssignedMinutes()
	if mins["a"] != 120 || mins["b"] != 60 {
		t.Fatalf("unexpected minutes: %v", mins)
	}
}
