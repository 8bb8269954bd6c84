package design

import (
	"fmt"
	"math"

	"bedesign/domain/core"

	"gonum.org/v1/gonum/stat/distuv"
)

// maxPerSequence bounds the iterative solve; a requirement beyond this is
// not a plannable study and indicates degenerate inputs.
const maxPerSequence = 4096

// Calculator converts PK inputs into a concrete sample-size plan. It is a
// pure function of its inputs and the policy it was built with.
type Calculator struct {
	policy Policy
}

// NewCalculator creates a calculator bound to a policy version
func NewCalculator(policy Policy) *Calculator {
	return &Calculator{policy: policy}
}

// Policy returns the policy the calculator was built with
func (c *Calculator) Policy() Policy { return c.policy }

// Compute produces the study design for the given inputs. Out-of-range
// values are rejected, never clamped: under-powering a study silently is
// the failure mode this component exists to prevent.
func (c *Calculator) Compute(in Inputs) (Result, error) {
	in = c.applyDefaults(in)
	if err := c.validate(in); err != nil {
		return Result{}, err
	}

	designType := DesignStandard
	if in.CVIntra > c.policy.HighVariabilityCV {
		designType = DesignReplicate
	}

	n, err := c.perSequenceSampleSize(in, designType)
	if err != nil {
		return Result{}, err
	}

	withDropout := inflate(n, in.DropoutRate)
	withScreenFail := inflate(withDropout, in.ScreenFailRate)

	result := Result{
		SampleSize:               n,
		TotalSubjects:            2 * n,
		EnrollmentWithDropout:    withDropout,
		EnrollmentWithScreenFail: withScreenFail,
		WashoutDays:              c.washoutDays(in.HalfLifeHours),
		CVIntraUsed:              in.CVIntra,
		DesignType:               designType,
		PolicyVersion:            c.policy.Version,
		Delta:                    in.Delta,
		Power:                    in.Power,
		Alpha:                    in.Alpha,
		DropoutRate:              in.DropoutRate,
		ScreenFailRate:           in.ScreenFailRate,
		RandomizationScheme:      designType.RandomizationScheme(),
	}
	result.Explanation = c.explain(result)
	return result, nil
}

func (c *Calculator) applyDefaults(in Inputs) Inputs {
	if in.Delta == 0 {
		in.Delta = c.policy.DefaultDelta
	}
	if in.Power == 0 {
		in.Power = c.policy.DefaultPower
	}
	if in.Alpha == 0 {
		in.Alpha = c.policy.DefaultAlpha
	}
	return in
}

func (c *Calculator) validate(in Inputs) error {
	if in.CVIntra <= 0 || in.CVIntra > 200 {
		return core.NewDesignInputError("cv_intra", fmt.Sprintf("%.4g%% outside (0, 200]", in.CVIntra))
	}
	if in.Delta <= 0 || in.Delta >= 100 {
		return core.NewDesignInputError("delta", fmt.Sprintf("%.4g%% outside (0, 100)", in.Delta))
	}
	if in.Power <= 0 || in.Power >= 100 {
		return core.NewDesignInputError("power", fmt.Sprintf("%.4g%% outside (0, 100)", in.Power))
	}
	if in.Alpha <= 0 || in.Alpha >= 1 {
		return core.NewDesignInputError("alpha", fmt.Sprintf("%.4g outside (0, 1)", in.Alpha))
	}
	if in.DropoutRate < 0 || in.DropoutRate >= 100 {
		return core.NewDesignInputError("dropout_rate", fmt.Sprintf("%.4g%% outside [0, 100)", in.DropoutRate))
	}
	if in.ScreenFailRate < 0 || in.ScreenFailRate >= 100 {
		return core.NewDesignInputError("screen_fail_rate", fmt.Sprintf("%.4g%% outside [0, 100)", in.ScreenFailRate))
	}
	if in.HalfLifeHours != nil && (*in.HalfLifeHours <= 0 || math.IsNaN(*in.HalfLifeHours) || math.IsInf(*in.HalfLifeHours, 0)) {
		return core.NewDesignInputError("half_life_hours", "must be finite and positive")
	}
	return nil
}

// perSequenceSampleSize solves for the smallest per-sequence n whose
// power condition holds:
//
//	n >= (t(1-alpha/2, 2n-2) + t(power, 2n-2))^2 * sigma^2 / deltaLog^2
//
// where sigma^2 = ln(1 + (CV/100)^2) is the intra-subject log-scale
// variance and deltaLog = ln(1 + delta/100). Replicate designs halve the
// variance contribution (each subject contributes two T and two R periods)
// but carry a higher enrollment floor.
func (c *Calculator) perSequenceSampleSize(in Inputs, designType DesignType) (int, error) {
	cv := in.CVIntra / 100.0
	sigma2 := math.Log1p(cv * cv)
	deltaLog := math.Log1p(in.Delta / 100.0)
	ratio := sigma2 / (deltaLog * deltaLog)
	if designType.IsReplicate() {
		ratio *= 0.5
	}

	powerQ := in.Power / 100.0
	alphaQ := 1.0 - in.Alpha/2.0

	for n := 2; n <= maxPerSequence; n++ {
		df := float64(2*n - 2)
		t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
		required := math.Pow(t.Quantile(alphaQ)+t.Quantile(powerQ), 2) * ratio
		if float64(n) >= required {
			return c.applyFloor(n, designType), nil
		}
	}
	return 0, core.NewDesignInputError("sample_size",
		fmt.Sprintf("exceeds %d per sequence; inputs are not plannable", maxPerSequence))
}

func (c *Calculator) applyFloor(n int, designType DesignType) int {
	floor := c.policy.StandardMinPerSequence
	if designType.IsReplicate() {
		floor = c.policy.ReplicateMinPerSequence
	}
	if n < floor {
		return floor
	}
	return n
}

// inflate raises an enrollment figure to compensate for an attrition rate.
// Rounds up: recruiting one extra subject beats an under-powered study.
func inflate(n int, ratePercent float64) int {
	if ratePercent == 0 {
		return n
	}
	return ceilInt(float64(n) / (1.0 - ratePercent/100.0))
}

// washoutDays derives the between-period washout from the half-life.
// Rounded up to whole days, never below the policy floor; a missing
// half-life falls back to the conservative policy default.
func (c *Calculator) washoutDays(halfLifeHours *float64) int {
	if halfLifeHours == nil {
		return c.policy.DefaultWashoutDays
	}
	days := ceilInt(*halfLifeHours * c.policy.WashoutHalfLives / 24.0)
	if days < c.policy.MinWashoutDays {
		return c.policy.MinWashoutDays
	}
	return days
}

func (c *Calculator) explain(r Result) string {
	if r.DesignType.IsReplicate() {
		return fmt.Sprintf(
			"CV_intra %.1f%% exceeds the %.0f%% high-variability threshold; a replicate %s design with %d subjects per sequence (%d total) is required.",
			r.CVIntraUsed, c.policy.HighVariabilityCV, r.RandomizationScheme, r.SampleSize, r.TotalSubjects)
	}
	return fmt.Sprintf(
		"CV_intra %.1f%% supports a standard 2x2 crossover (%s) with %d subjects per sequence (%d total) at %.0f%% power.",
		r.CVIntraUsed, r.RandomizationScheme, r.SampleSize, r.TotalSubjects, r.Power)
}

// ceilInt is a ceiling that tolerates float division noise: a value within
// 1e-9 of an integer is treated as that integer rather than bumped up.
func ceilInt(v float64) int {
	r := math.Round(v)
	if math.Abs(v-r) < 1e-9 {
		return int(r)
	}
	return int(math.Ceil(v))
}
