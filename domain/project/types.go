package project

import (
	"time"

	"bedesign/domain/core"
	"bedesign/domain/design"
	"bedesign/domain/regulatory"
)

// Drug identifies the product under investigation
type Drug struct {
	INNEn  string `json:"inn_en" db:"inn_en"`   // international nonproprietary name, English
	INNRu  string `json:"inn_ru" db:"inn_ru"`   // localized name, optional
	Dosage string `json:"dosage" db:"dosage"`   // e.g. "400mg"
	Form   string `json:"form" db:"form"`       // e.g. "tablets"
}

// SearchSummary aggregates what the search+extraction stage found
type SearchSummary struct {
	ArticlesProcessed int            `json:"articles_processed"`
	ParametersFound   map[string]int `json:"parameters_found"`
	DistinctSources   int            `json:"distinct_sources"`
	CompletedAt       core.Timestamp `json:"completed_at"`
}

// ReportArtifact references a rendered study synopsis
type ReportArtifact struct {
	ID           core.ArtifactID `json:"id"`
	SynopsisPath string          `json:"synopsis_path"` // HTML synopsis
	WorkbookPath string          `json:"workbook_path"` // XLSX design summary
	Checksum     core.Hash       `json:"checksum"`      // over the synopsis bytes
	GeneratedAt  core.Timestamp  `json:"generated_at"`
}

// Project is the unit of work the pipeline advances. All mutation funnels
// through the pipeline's stage commits; stage results accumulate and are
// never rolled back by a later stage's failure.
type Project struct {
	ID            core.ProjectID `json:"project_id" db:"project_id"`
	Drug          Drug           `json:"drug"`
	Status        Status         `json:"status" db:"status"`
	StatusMessage string         `json:"status_message,omitempty" db:"status_message"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`

	// Stage results, populated as the pipeline advances
	SearchSummary *SearchSummary      `json:"search_summary,omitempty"`
	Design        *design.Result      `json:"design,omitempty"`
	Verdict       *regulatory.Verdict `json:"regulatory_verdict,omitempty"`
	Report        *ReportArtifact     `json:"report,omitempty"`
}

// StageCommit is the unit of persistence for one pipeline stage: the new
// status plus whatever results the stage produced, written in one atomic
// update so a crash can never advance the status without its result (or
// vice versa).
type StageCommit struct {
	NewStatus     Status
	Message       string
	SearchSummary *SearchSummary
	Design        *design.Result
	Verdict       *regulatory.Verdict
}

// New creates a project in the initial searching state
func New(drug Drug) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:        core.ProjectID(core.NewID()),
		Drug:      drug,
		Status:    StatusSearching,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
