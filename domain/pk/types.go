package pk

import (
	"fmt"
	"math"
	"strings"

	"bedesign/domain/core"
)

// ParameterKind identifies a pharmacokinetic parameter extracted from literature
type ParameterKind string

const (
	KindCmax     ParameterKind = "Cmax"     // peak plasma concentration, ng/mL
	KindAUC      ParameterKind = "AUC"      // area under the curve, ng*h/mL
	KindHalfLife ParameterKind = "T1/2"     // terminal half-life, hours
	KindCVIntra  ParameterKind = "CV_intra" // intra-subject coefficient of variation, percent
	KindTmax     ParameterKind = "Tmax"     // time to peak concentration, hours
)

// MaxPlausibleCV is the upper bound for CV_intra values; anything above is
// treated as an extraction artifact and rejected.
const MaxPlausibleCV = 200.0

// kindAliases maps the spellings seen in abstracts and LLM output onto
// canonical parameter kinds.
var kindAliases = map[string]ParameterKind{
	"cmax":             KindCmax,
	"c_max":            KindCmax,
	"auc":              KindAUC,
	"auc_0_inf":        KindAUC,
	"auc_0_t":          KindAUC,
	"tmax":             KindTmax,
	"t_max":            KindTmax,
	"t1_2":             KindHalfLife,
	"t1/2":             KindHalfLife,
	"half_life":        KindHalfLife,
	"half-life":        KindHalfLife,
	"cv_intra":         KindCVIntra,
	"cvintra":          KindCVIntra,
	"intra_subject_cv": KindCVIntra,
	"intrasubject_cv":  KindCVIntra,
	"within_subject_cv": KindCVIntra,
	"withinsubject_cv":  KindCVIntra,
}

// CanonicalKind normalizes a raw parameter name to a known kind.
// Returns false when the name does not map to any supported parameter.
func CanonicalKind(raw string) (ParameterKind, bool) {
	key := strings.TrimSpace(raw)
	if key == "" {
		return "", false
	}
	normalized := strings.ToLower(strings.ReplaceAll(key, " ", "_"))
	kind, ok := kindAliases[normalized]
	return kind, ok
}

// Provenance records where an observation came from
type Provenance struct {
	PMID  string `json:"pmid" db:"source_pmid"`
	Title string `json:"title" db:"source_title"`
}

// String returns a citation-style reference, "Manual" when no PMID is known
func (p Provenance) String() string {
	if p.PMID == "" {
		return "Manual"
	}
	return "PMID: " + p.PMID
}

// DrugParameter is a single PK observation tied to a project
type DrugParameter struct {
	ID         core.ParameterID `json:"id" db:"param_id"`
	ProjectID  core.ProjectID   `json:"project_id" db:"project_id"`
	Kind       ParameterKind    `json:"parameter" db:"parameter"`
	Value      float64          `json:"value" db:"value"`
	Unit       string           `json:"unit" db:"unit"`
	Provenance Provenance       `json:"provenance"`
	IsReliable bool             `json:"is_reliable" db:"is_reliable"`
	CreatedAt  core.Timestamp   `json:"created_at" db:"created_at"`
}

// Validate rejects observations that cannot be real measurements:
// non-finite or negative values, and CV_intra outside the plausible range.
func (d DrugParameter) Validate() error {
	if d.Kind == "" {
		return core.NewValidationError("parameter", "kind is required")
	}
	if math.IsNaN(d.Value) || math.IsInf(d.Value, 0) {
		return fmt.Errorf("%w: %s value is not finite", core.ErrImplausibleValue, d.Kind)
	}
	if d.Value < 0 {
		return fmt.Errorf("%w: %s value %.4g is negative", core.ErrImplausibleValue, d.Kind, d.Value)
	}
	if d.Kind == KindCVIntra && d.Value > MaxPlausibleCV {
		return fmt.Errorf("%w: CV_intra %.4g%% exceeds %.0f%%", core.ErrImplausibleValue, d.Value, MaxPlausibleCV)
	}
	return nil
}
