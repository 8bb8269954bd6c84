package design

// DesignType classifies the crossover scheme
type DesignType string

const (
	// DesignStandard is the two-period, two-sequence crossover used for
	// drugs with moderate variability.
	DesignStandard DesignType = "2x2_crossover"
	// DesignReplicate repeats dosing periods (TRTR/RTRT) for highly
	// variable drugs.
	DesignReplicate DesignType = "replicate"
)

// IsReplicate reports whether the design repeats dosing periods
func (d DesignType) IsReplicate() bool { return d == DesignReplicate }

// RandomizationScheme returns the sequence assignment for the design
func (d DesignType) RandomizationScheme() string {
	if d.IsReplicate() {
		return "TRTR/RTRT"
	}
	return "TR/RT"
}

// Inputs are the PK-derived values the calculator works from. Delta, Power
// and Alpha fall back to policy defaults when zero; CVIntra is mandatory.
type Inputs struct {
	CVIntra        float64  `json:"cv_intra"`         // percent, (0, 200]
	Delta          float64  `json:"delta"`            // expected relative difference, percent
	Power          float64  `json:"power"`            // target power, percent
	Alpha          float64  `json:"alpha"`            // two-sided significance level
	DropoutRate    float64  `json:"dropout_rate"`     // percent, [0, 100)
	ScreenFailRate float64  `json:"screen_fail_rate"` // percent, [0, 100)
	HalfLifeHours  *float64 `json:"half_life_hours,omitempty"`
}

// Result is the computed study design. Immutable once produced; a re-run
// replaces the whole value on the project.
type Result struct {
	SampleSize               int        `json:"sample_size"` // per sequence group, before attrition
	TotalSubjects            int        `json:"total_subjects"`
	EnrollmentWithDropout    int        `json:"enrollment_with_dropout"`
	EnrollmentWithScreenFail int        `json:"enrollment_with_screen_fail"`
	WashoutDays              int        `json:"washout_days"`
	CVIntraUsed              float64    `json:"cv_intra_used"`
	DesignType               DesignType `json:"design_type"`
	PolicyVersion            string     `json:"policy_version"`

	// Echo of the effective inputs, for auditability
	Delta          float64 `json:"delta"`
	Power          float64 `json:"power"`
	Alpha          float64 `json:"alpha"`
	DropoutRate    float64 `json:"dropout_rate"`
	ScreenFailRate float64 `json:"screen_fail_rate"`

	Explanation         string `json:"explanation"`
	RandomizationScheme string `json:"randomization_scheme"`
}
