package regulatory

// RuleID identifies one acceptance rule in the fixed evaluation order
type RuleID string

const (
	RuleSampleSizeFloor       RuleID = "sample_size_floor"
	RuleHighVariabilityDesign RuleID = "high_variability_design"
	RuleWashoutMinimum        RuleID = "washout_minimum"
	RuleCVPlausibility        RuleID = "cv_plausibility"
)

// RuleResult is the outcome of one rule evaluation
type RuleResult struct {
	RuleID  RuleID `json:"rule_id"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Verdict is the full regulatory review outcome. Compliant is the logical
// AND of all rule outcomes; Warnings are advisory and never affect it.
type Verdict struct {
	Compliant      bool         `json:"compliant"`
	RuleSetVersion string       `json:"rule_set_version"`
	Rules          []RuleResult `json:"rules"`
	Warnings       []string     `json:"warnings,omitempty"`
}
