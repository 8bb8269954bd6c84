package design

// Policy centralizes the regulatory and statistical defaults used by the
// calculator. Every DesignResult records the Version that produced it, so a
// later change to a default cannot silently reinterpret historical designs.
type Policy struct {
	Version string `json:"version"`

	// Statistical defaults
	DefaultDelta float64 `json:"default_delta"` // expected treatment difference, percent
	DefaultPower float64 `json:"default_power"` // target power, percent
	DefaultAlpha float64 `json:"default_alpha"` // two-sided significance level

	// Design classification
	HighVariabilityCV       float64 `json:"high_variability_cv"`        // CV_intra threshold for replicate designs, percent
	StandardMinPerSequence  int     `json:"standard_min_per_sequence"`  // keeps the 12-subject total minimum
	ReplicateMinPerSequence int     `json:"replicate_min_per_sequence"` // floor for replicate designs

	// Washout derivation
	WashoutHalfLives   float64 `json:"washout_half_lives"`   // multiple of T1/2 used for the recommended washout
	MinWashoutDays     int     `json:"min_washout_days"`     // floor applied regardless of a very short half-life
	DefaultWashoutDays int     `json:"default_washout_days"` // conservative default when T1/2 is unknown
}

// DefaultPolicy returns the current policy constants. The washout multiple
// of 7 half-lives targets under 1% residual concentration; regulators
// require at least 5.
func DefaultPolicy() Policy {
	return Policy{
		Version:                 "2025.1",
		DefaultDelta:            20.0,
		DefaultPower:            80.0,
		DefaultAlpha:            0.05,
		HighVariabilityCV:       30.0,
		StandardMinPerSequence:  6,
		ReplicateMinPerSequence: 12,
		WashoutHalfLives:        7.0,
		MinWashoutDays:          1,
		DefaultWashoutDays:      7,
	}
}
