package policy

import "testing"

func TestDefaultIsNormalized(t *testing.T) {
	p := Default()
	if p != p.Normalize() {
		t.Fatalf("defaults changed by normalization")
	}
}

func TestNormalizeFillsZeroValue(t *testing.T) {
	p := Policy{}.Normalize()
	if p != Default() {
		t.Fatalf("zero policy should normalize to defaults, got %+v", p)
	}
}

func TestNormalizeKeepsOverrides(t *testing.T) {
	p := Policy{CostScale: 1000, PeakPercentile: 0.75}.Normalize()
	if p.CostScale != 1000 {
		t.Fatalf("cost scale override lost")
	}
	if p.PeakPercentile != 0.75 {
		t.Fatalf("peak percentile override lost")
	}
	if p.UnmetDemandPenalty != Default().UnmetDemandPenalty {
		t.Fatalf("unset field not defaulted")
	}
}
