package pk

import (
	"errors"
	"math"
	"testing"

	"bedesign/domain/core"
)

func TestCanonicalKind(t *testing.T) {
	tests := []struct {
		raw      string
		expected ParameterKind
		ok       bool
	}{
		{"Cmax", KindCmax, true},
		{"cmax", KindCmax, true},
		{"C max", KindCmax, true},
		{"AUC", KindAUC, true},
		{"auc_0_inf", KindAUC, true},
		{"T1/2", KindHalfLife, true},
		{"half-life", KindHalfLife, true},
		{"Half Life", KindHalfLife, true},
		{"CV_intra", KindCVIntra, true},
		{"intra subject cv", KindCVIntra, true},
		{"within_subject_cv", KindCVIntra, true},
		{"Tmax", KindTmax, true},
		{"clearance", "", false},
		{"", "", false},
		{"  ", "", false},
	}
	for _, tt := range tests {
		kind, ok := CanonicalKind(tt.raw)
		if ok != tt.ok || kind != tt.expected {
			t.Errorf("CanonicalKind(%q) = (%q, %v), expected (%q, %v)", tt.raw, kind, ok, tt.expected, tt.ok)
		}
	}
}

func TestDrugParameterValidate(t *testing.T) {
	base := DrugParameter{
		ID:        core.ParameterID(core.NewID()),
		Kind:      KindCmax,
		Value:     120.5,
		Unit:      "ng/mL",
		CreatedAt: core.Now(),
	}
	if err := base.Validate(); err != nil {
		t.Errorf("Expected valid parameter, got %v", err)
	}

	tests := []struct {
		name  string
		kind  ParameterKind
		value float64
	}{
		{"negative value", KindCmax, -1},
		{"NaN value", KindAUC, math.NaN()},
		{"infinite value", KindHalfLife, math.Inf(1)},
		{"implausible cv", KindCVIntra, 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			p.Kind = tt.kind
			p.Value = tt.value
			err := p.Validate()
			if !errors.Is(err, core.ErrImplausibleValue) {
				t.Errorf("Expected ErrImplausibleValue, got %v", err)
			}
		})
	}

	missing := base
	missing.Kind = ""
	if err := missing.Validate(); err == nil {
		t.Error("Expected error for missing kind")
	}
}

func TestProvenanceString(t *testing.T) {
	if got := (Provenance{PMID: "39871234"}).String(); got != "PMID: 39871234" {
		t.Errorf("Unexpected provenance string %q", got)
	}
	if got := (Provenance{}).String(); got != "Manual" {
		t.Errorf("Expected Manual for empty provenance, got %q", got)
	}
}

func observation(kind ParameterKind, value float64, pmid string, reliable bool) DrugParameter {
	return DrugParameter{
		ID:         core.ParameterID(core.NewID()),
		Kind:       kind,
		Value:      value,
		IsReliable: reliable,
		Provenance: Provenance{PMID: pmid},
		CreatedAt:  core.Now(),
	}
}

// TestSelectConservative verifies the max-of-reliable selection with the
// median kept for reporting.
func TestSelectConservative(t *testing.T) {
	params := []DrugParameter{
		observation(KindCVIntra, 18, "1", true),
		observation(KindCVIntra, 25, "2", true),
		observation(KindCVIntra, 22, "3", true),
		observation(KindCVIntra, 95, "4", false), // flagged, must be ignored
		observation(KindHalfLife, 12, "1", true),
	}

	obs, ok := SelectConservative(params, KindCVIntra)
	if !ok {
		t.Fatal("Expected a CV_intra observation")
	}
	if obs.Value != 25 {
		t.Errorf("Expected conservative value 25, got %.1f", obs.Value)
	}
	if obs.Median != 22 {
		t.Errorf("Expected median 22, got %.1f", obs.Median)
	}
	if obs.Count != 3 {
		t.Errorf("Expected 3 reliable sources, got %d", obs.Count)
	}
}

func TestSelectConservativeNoData(t *testing.T) {
	params := []DrugParameter{
		observation(KindCmax, 100, "1", true),
		observation(KindCVIntra, 40, "2", false),
	}

	if _, ok := SelectConservative(params, KindCVIntra); ok {
		t.Error("Expected no observation when only unreliable values exist")
	}
	if _, ok := SelectConservative(nil, KindCVIntra); ok {
		t.Error("Expected no observation for empty input")
	}
}

func TestDistinctSources(t *testing.T) {
	params := []DrugParameter{
		observation(KindCVIntra, 20, "1", true),
		observation(KindHalfLife, 12, "1", true),
		observation(KindCmax, 150, "2", true),
		observation(KindAUC, 900, "", true), // manual entry, no PMID
	}
	if got := DistinctSources(params); got != 2 {
		t.Errorf("Expected 2 distinct sources, got %d", got)
	}
}
