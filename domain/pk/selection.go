package pk

import (
	"github.com/montanaflynn/stats"
)

// Selection policy: when several reliable observations of the same kind
// exist (different sources), the design uses the most conservative one.
// For CV_intra that is the highest variability; for T1/2 the slowest
// elimination. Median is kept alongside for reporting.

// Observation summarizes the reliable values available for one kind
type Observation struct {
	Kind   ParameterKind `json:"kind"`
	Value  float64       `json:"value"`  // selected (most conservative) value
	Median float64       `json:"median"` // median across reliable sources
	Count  int           `json:"count"`  // number of reliable sources
}

// SelectConservative picks the design-relevant value for a parameter kind
// from a project's observation set. Unreliable entries are ignored.
// Returns false when no reliable observation of that kind exists.
func SelectConservative(params []DrugParameter, kind ParameterKind) (Observation, bool) {
	var values []float64
	for _, p := range params {
		if p.Kind == kind && p.IsReliable {
			values = append(values, p.Value)
		}
	}
	if len(values) == 0 {
		return Observation{}, false
	}

	maxV, err := stats.Max(values)
	if err != nil {
		return Observation{}, false
	}
	medianV, err := stats.Median(values)
	if err != nil {
		return Observation{}, false
	}

	return Observation{
		Kind:   kind,
		Value:  maxV,
		Median: medianV,
		Count:  len(values),
	}, true
}

// DistinctSources counts the unique PMIDs across a parameter set
func DistinctSources(params []DrugParameter) int {
	seen := make(map[string]bool)
	for _, p := range params {
		if p.Provenance.PMID != "" {
			seen[p.Provenance.PMID] = true
		}
	}
	return len(seen)
}
