// Package regulatory applies a fixed, ordered acceptance rule table to a
// computed study design. The rule set approximates EAEU Decision 85 and EMA
// bioequivalence guidance and is advisory, not a compliance guarantee.
package regulatory

import (
	"fmt"

	"bedesign/domain/design"
	"bedesign/domain/pk"
)

// Rule-set constants. Bump the version whenever a threshold changes.
const (
	RuleSetVersion = "eaeu85-2025.1"

	minTotalSubjects = 12  // jurisdiction floor for a crossover BE study
	washoutHalfLives = 5.0 // regulatory minimum multiple of T1/2
	highCVWarning    = 50.0
	lowCVWarning     = 5.0
	longWashoutDays  = 90
)

// Evaluator applies the rule table. It carries the design policy so the
// high-variability threshold stays consistent with the calculator's.
type Evaluator struct {
	policy design.Policy
}

// NewEvaluator creates an evaluator bound to a design policy
func NewEvaluator(policy design.Policy) *Evaluator {
	return &Evaluator{policy: policy}
}

// Evaluate runs every rule in fixed order and aggregates the verdict.
// It never returns an error: a rule that cannot be evaluated because data
// is missing counts as failed with an explanatory message, since "no PK
// data available" is itself a reportable review outcome.
func (e *Evaluator) Evaluate(result design.Result, params []pk.DrugParameter) Verdict {
	rules := []RuleResult{
		e.checkSampleSizeFloor(result),
		e.checkHighVariabilityDesign(result),
		e.checkWashoutMinimum(result, params),
		e.checkCVPlausibility(params),
	}

	compliant := true
	for _, r := range rules {
		if !r.Passed {
			compliant = false
		}
	}

	return Verdict{
		Compliant:      compliant,
		RuleSetVersion: RuleSetVersion,
		Rules:          rules,
		Warnings:       e.warnings(result),
	}
}

func (e *Evaluator) checkSampleSizeFloor(result design.Result) RuleResult {
	if result.TotalSubjects < minTotalSubjects {
		return RuleResult{
			RuleID: RuleSampleSizeFloor,
			Passed: false,
			Message: fmt.Sprintf("total enrollment %d is below the minimum of %d subjects",
				result.TotalSubjects, minTotalSubjects),
		}
	}
	return RuleResult{
		RuleID:  RuleSampleSizeFloor,
		Passed:  true,
		Message: fmt.Sprintf("total enrollment %d meets the %d-subject minimum", result.TotalSubjects, minTotalSubjects),
	}
}

func (e *Evaluator) checkHighVariabilityDesign(result design.Result) RuleResult {
	if result.CVIntraUsed > e.policy.HighVariabilityCV && !result.DesignType.IsReplicate() {
		return RuleResult{
			RuleID: RuleHighVariabilityDesign,
			Passed: false,
			Message: fmt.Sprintf("CV_intra %.1f%% exceeds %.0f%% but design is %s; a replicate design is required",
				result.CVIntraUsed, e.policy.HighVariabilityCV, result.DesignType),
		}
	}
	return RuleResult{
		RuleID:  RuleHighVariabilityDesign,
		Passed:  true,
		Message: fmt.Sprintf("design type %s is appropriate for CV_intra %.1f%%", result.DesignType, result.CVIntraUsed),
	}
}

func (e *Evaluator) checkWashoutMinimum(result design.Result, params []pk.DrugParameter) RuleResult {
	halfLife, ok := pk.SelectConservative(params, pk.KindHalfLife)
	if !ok {
		return RuleResult{
			RuleID:  RuleWashoutMinimum,
			Passed:  false,
			Message: "no reliable half-life observation available; washout adequacy cannot be verified",
		}
	}

	minDays := ceilDays(halfLife.Value * washoutHalfLives)
	if result.WashoutDays < minDays {
		return RuleResult{
			RuleID: RuleWashoutMinimum,
			Passed: false,
			Message: fmt.Sprintf("washout of %d days is below the minimum of %d days (%.0fx half-life of %.1f h)",
				result.WashoutDays, minDays, washoutHalfLives, halfLife.Value),
		}
	}
	return RuleResult{
		RuleID:  RuleWashoutMinimum,
		Passed:  true,
		Message: fmt.Sprintf("washout of %d days covers %.0f half-lives of %.1f h", result.WashoutDays, washoutHalfLives, halfLife.Value),
	}
}

func (e *Evaluator) checkCVPlausibility(params []pk.DrugParameter) RuleResult {
	cv, ok := pk.SelectConservative(params, pk.KindCVIntra)
	if !ok {
		return RuleResult{
			RuleID:  RuleCVPlausibility,
			Passed:  false,
			Message: "no reliable CV_intra observation available",
		}
	}
	if cv.Value <= 0 || cv.Value > pk.MaxPlausibleCV {
		return RuleResult{
			RuleID:  RuleCVPlausibility,
			Passed:  false,
			Message: fmt.Sprintf("CV_intra %.1f%% is outside the plausible (0, %.0f]%% range", cv.Value, pk.MaxPlausibleCV),
		}
	}
	return RuleResult{
		RuleID:  RuleCVPlausibility,
		Passed:  true,
		Message: fmt.Sprintf("CV_intra %.1f%% from %d reliable source(s) is plausible", cv.Value, cv.Count),
	}
}

// warnings are advisory findings that do not affect the compliance flag
func (e *Evaluator) warnings(result design.Result) []string {
	var warnings []string
	if result.CVIntraUsed > highCVWarning {
		warnings = append(warnings,
			fmt.Sprintf("very high intra-subject variability (%.1f%%); confirm the replicate design and consider widened acceptance limits", result.CVIntraUsed))
	}
	if result.CVIntraUsed < lowCVWarning {
		warnings = append(warnings,
			fmt.Sprintf("very low variability (%.1f%%); verify the data source", result.CVIntraUsed))
	}
	if result.WashoutDays > longWashoutDays {
		warnings = append(warnings,
			fmt.Sprintf("washout of %d days is unusually long; assess feasibility and volunteer retention", result.WashoutDays))
	}
	return warnings
}

func ceilDays(hours float64) int {
	days := int(hours / 24.0)
	if float64(days)*24.0 < hours {
		days++
	}
	return days
}
